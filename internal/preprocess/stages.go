package preprocess

import (
	"regexp"
	"strings"
)

var stagePragmaRe = regexp.MustCompile(`^\s*#pragma\s+stage\s+(vertex|fragment)\s*$`)

// splitStages implements spec §4.2 step 6. If the source contains
// #pragma stage vertex/fragment markers, the vertex output keeps lines
// outside any stage block plus lines inside "vertex" blocks, and the
// fragment output keeps outside + "fragment" blocks. Other #pragma
// lines are preserved in both. Stage pragmas themselves are removed.
// If no stage markers are present, both outputs are the whole source
// (the RetroArch #if defined(VERTEX)/#elif defined(FRAGMENT) pattern
// handles the split at compile time instead).
func splitStages(source string) (vertex, fragment string) {
	lines := strings.Split(source, "\n")
	hasMarkers := false
	for _, l := range lines {
		if stagePragmaRe.MatchString(l) {
			hasMarkers = true
			break
		}
	}
	if !hasMarkers {
		return source, source
	}

	var vertexLines, fragmentLines []string
	current := "" // "" = outside any stage block, else "vertex"/"fragment"
	for _, l := range lines {
		if m := stagePragmaRe.FindStringSubmatch(l); m != nil {
			current = m[1]
			continue
		}
		if current == "" || current == "vertex" {
			vertexLines = append(vertexLines, l)
		}
		if current == "" || current == "fragment" {
			fragmentLines = append(fragmentLines, l)
		}
	}
	return strings.Join(vertexLines, "\n"), strings.Join(fragmentLines, "\n")
}
