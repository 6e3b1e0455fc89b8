package preprocess

import (
	"regexp"
	"strings"
)

var (
	macroPackRe  = regexp.MustCompile(`#define\s+\w+\s+vec4\(\s*OutputSize\s*,\s*1\.0\s*/\s*OutputSize\s*\)`)
	vec3ExplicitRe = regexp.MustCompile(`vec3\s+\w+\s*=\s*OutputSize\b|vec3\(\s*OutputSize\s*\)`)
	vec4ExplicitRe = regexp.MustCompile(`vec4\s+\w+\s*=\s*OutputSize\b|vec4\(\s*OutputSize\s*\)`)
	outputSizeRe   = regexp.MustCompile(`OutputSize`)
	uniformDeclRe  = regexp.MustCompile(`(uniform\s+)(highp\s+|mediump\s+|lowp\s+)?(vec[234])(\s+OutputSize\s*;)`)
)

// correctOutputSizeType implements spec §4.2 step 3: infer the
// best-fit OutputSize vector type, then rewrite any disagreeing
// declaration (preserving its precision qualifier) or inject a fresh
// one if OutputSize is used but never declared.
func correctOutputSizeType(source string) (string, string) {
	inferred := inferOutputSizeType(source)

	if uniformDeclRe.MatchString(source) {
		source = uniformDeclRe.ReplaceAllString(source, "${1}${2}"+inferred+"${4}")
		return inferred, source
	}

	if outputSizeRe.MatchString(source) {
		source = "uniform " + inferred + " OutputSize;\n" + source
	}
	return inferred, source
}

func inferOutputSizeType(source string) string {
	if macroPackRe.MatchString(source) {
		return "vec2"
	}
	if vec3ExplicitRe.MatchString(source) {
		return "vec3"
	}
	if vec4ExplicitRe.MatchString(source) {
		return "vec4"
	}

	locs := outputSizeRe.FindAllStringIndex(source, -1)
	if len(locs) == 0 {
		return "vec2"
	}
	vec3Count, vec4Count := 0, 0
	for _, loc := range locs {
		start := loc[0] - 100
		if start < 0 {
			start = 0
		}
		end := loc[1] + 100
		if end > len(source) {
			end = len(source)
		}
		window := source[start:end]
		vec3Count += strings.Count(window, "vec3")
		vec4Count += strings.Count(window, "vec4")
	}
	switch {
	case vec4Count > vec3Count:
		return "vec4"
	case vec3Count > 0:
		return "vec3"
	default:
		return "vec2"
	}
}
