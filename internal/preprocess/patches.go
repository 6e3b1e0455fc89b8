package preprocess

import (
	"regexp"
	"strings"
)

var (
	tex0AssignRe   = regexp.MustCompile(`TEX0\.xy\s*=\s*TexCoord\.xy;`)
	kScaleRe       = regexp.MustCompile(`([A-Za-z_]\w*)\s*=\s*([A-Za-z_][\w.]*)\s*\*\s*TextureSize\.y\s*\*\s*vTexCoord\.y`)
	bordertestRe   = regexp.MustCompile(`bordertest\s*=\s*gl_FragCoord\.xy;`)
)

// applyCompatibilityPatches implements spec §4.2 step 5: shader-specific
// fixups applied to the post-include, pre-stage-split text, plus the
// ES-only stripping of desktop #extension directives.
func applyCompatibilityPatches(source, basename string, passScalesHeight, isES bool) string {
	switch basename {
	case "interlacing.glsl":
		if passScalesHeight {
			source = tex0AssignRe.ReplaceAllString(source,
				"TEX0.xy = TexCoord.xy;\n  TEX0.y = (floor(TEX0.y * OutputSize.y / 2.0) + 0.5) / InputSize.y;")
			source = kScaleRe.ReplaceAllString(source, "$1 = $2 * (gl_FragCoord.y / OutputSize.y)")
		}
	case "box-center.glsl":
		source = bordertestRe.ReplaceAllString(source,
			"bordertest = gl_FragCoord.xy;\n  bordertest = bordertest / OutputSize.xy;")
	}

	if isES {
		source = stripExtensionDirectives(source)
	}
	return source
}

// FixVec3ToVec4 implements the compilation-recovery step of spec §4.2:
// when fragment compilation fails with a vec4-cannot-be-assigned-to-vec3
// error, retype the offending texture-sample declaration from vec3 to
// vec4 and fix up any vec4(id, alpha) expression that depended on it.
// Returns the patched source and whether a change was made.
func FixVec3ToVec4(fragmentSource string) (string, bool) {
	declRe := regexp.MustCompile(`\bvec3(\s+(\w+)\s*=\s*(?:COMPAT_TEXTURE|texture2D|texture)\s*\()`)
	m := declRe.FindStringSubmatch(fragmentSource)
	if m == nil {
		return fragmentSource, false
	}
	id := m[2]
	patched := declRe.ReplaceAllString(fragmentSource, "vec4$1")

	depRe := regexp.MustCompile(`vec4\(\s*` + regexp.QuoteMeta(id) + `\s*,([^)]+)\)`)
	patched = depRe.ReplaceAllStringFunc(patched, func(match string) string {
		sub := depRe.FindStringSubmatch(match)
		return "vec4(" + id + ".rgb," + strings.TrimSpace(sub[1]) + ")"
	})

	return patched, true
}

// IsVec3ToVec4Error reports whether a shader compile log matches one of
// the textual forms the source recognizes for this specific recoverable
// failure.
func IsVec3ToVec4Error(log string) bool {
	needles := []string{
		"cannot convert from",
		"vec4' to 'vec3",
		"vec4 cannot be assigned to vec3",
		"cannot implicitly convert",
	}
	for _, n := range needles {
		if strings.Contains(log, n) {
			return true
		}
	}
	return false
}
