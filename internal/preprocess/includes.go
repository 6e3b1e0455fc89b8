package preprocess

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ashgrove/retrocapture/internal/preset"
)

var includeRe = regexp.MustCompile(`(?m)^[ \t]*#include[ \t]+["<]([^">]+)[">][ \t]*$`)

const maxIncludeDepth = 16

// resolveIncludes recursively expands #include "path"/#include <path>
// directives, resolving each relative to the including file using the
// same path rules as preset loading (spec §4.1). A missing include is
// dropped (empty substitution) with a logged warning, never an error.
func resolveIncludes(source, dir string, depth int) (string, error) {
	if depth > maxIncludeDepth {
		return "", fmt.Errorf("include recursion exceeded %d levels", maxIncludeDepth)
	}
	return includeRe.ReplaceAllStringFunc(source, func(line string) string {
		m := includeRe.FindStringSubmatch(line)
		if m == nil {
			return line
		}
		raw := m[1]
		resolved := preset.ResolvePath(dir, raw)
		data, err := os.ReadFile(resolved)
		if err != nil {
			fmt.Fprintf(os.Stderr, "preprocess: warning: include %q not found (resolved %q), dropping\n", raw, resolved)
			return ""
		}
		expanded, err := resolveIncludes(string(data), filepath.Dir(resolved), depth+1)
		if err != nil {
			fmt.Fprintf(os.Stderr, "preprocess: warning: %v\n", err)
			return ""
		}
		return expanded
	}), nil
}

// stripExtensionDirectives removes #extension GL_ARB_* lines entirely,
// used on OpenGL ES targets (spec §4.2 step 5).
func stripExtensionDirectives(source string) string {
	lines := strings.Split(source, "\n")
	for i, l := range lines {
		if strings.Contains(l, "#extension") && strings.Contains(l, "GL_ARB_") {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}
