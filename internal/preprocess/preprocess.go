// Package preprocess turns a single RetroArch GLSL source file into a
// compilable (vertex, fragment) pair, following the RetroArch shader
// preprocessing contract (spec §4.2): include resolution, #pragma
// parameter extraction, OutputSize type inference, dynamic #version
// selection, per-shader compatibility patches, and vertex/fragment stage
// splitting.
package preprocess

import (
	"fmt"
	"path/filepath"
)

// Parameter is one extracted "#pragma parameter" directive.
type Parameter struct {
	Name        string
	Description string
	Default     float64
	Min         float64
	Max         float64
	Step        float64
}

// Result is the output of Preprocess: ready-to-compile sources plus the
// parameter table extracted from them.
type Result struct {
	VertexSource   string
	FragmentSource string
	Parameters     map[string]Parameter
}

// GLContext describes the host GL context version, used to select the
// #version/precision text emitted at the top of each stage (spec §4.2
// step 4).
type GLContext struct {
	Major int
	Minor int
	ES    bool
}

// Input bundles the per-pass parameters Preprocess needs beyond the
// source text itself.
type Input struct {
	Source       string
	ShaderPath   string // absolute path of the shader file being preprocessed
	PassIndex    int
	OutputW      int
	OutputH      int
	InputW       int
	InputH       int
	PassScalesH  bool // true if this pass's scale_type_y/scale_y changes height, used by compatibility patches
	GL           GLContext
}

// Preprocess runs the mandatory steps of spec §4.2 in order and returns
// the compilable vertex/fragment sources plus the extracted parameter
// table.
func Preprocess(in Input) (*Result, error) {
	basePath := filepath.Dir(in.ShaderPath)

	// Re-preprocessing own output (property 3, idempotence): if the
	// source already carries a generated header, strip it and reuse its
	// version/precision/extension verbatim instead of recomputing, so a
	// second pass reproduces byte-identical text.
	reusedVersion, reusedPrecision, reusedExtension, body, headerFound := stripGeneratedHeader(in.Source)
	sourceToProcess := in.Source
	if headerFound {
		sourceToProcess = body
	}

	// 1. Include resolution.
	src, err := resolveIncludes(sourceToProcess, basePath, 0)
	if err != nil {
		return nil, fmt.Errorf("preprocess %s: %w", in.ShaderPath, err)
	}

	// 2. #pragma parameter extraction (blanks accepted directives in place).
	params, src := extractParameters(src)

	// 3. OutputSize type inference + rewrite/injection.
	outputSizeType, src := correctOutputSizeType(src)

	// 5. Compatibility patches (named step 5 in spec, applied before stage split).
	src = applyCompatibilityPatches(src, filepath.Base(in.ShaderPath), in.PassScalesH, in.GL.ES)

	// 6. Stage split.
	vertexBody, fragmentBody := splitStages(src)

	// 4 (emitted per-variant). Dynamic #version + precision + define markers,
	// unless the source already opens with its own #version directive or a
	// previously generated header (handled above).
	var version, precision, extension string
	switch {
	case headerFound:
		version, precision, extension = reusedVersion, reusedPrecision, reusedExtension
	default:
		if v, rest, found := extractExistingVersion(vertexBody); found {
			version, vertexBody = v, rest
		} else {
			version, precision, extension = selectVersion(in.GL)
		}
		if v, rest, found := extractExistingVersion(fragmentBody); found {
			fragmentBody = rest
			if version == "" {
				version = v
			}
		}
	}

	vertexSource := buildFinal(vertexBody, true, version, precision, extension)
	fragmentSource := buildFinal(fragmentBody, false, version, precision, extension)

	_ = outputSizeType // surfaced for callers that need the inferred type (shaderengine uniform binding)

	return &Result{
		VertexSource:   vertexSource,
		FragmentSource: fragmentSource,
		Parameters:     params,
	}, nil
}

// OutputSizeType re-runs just the inference step, exposed so
// shaderengine can decide which vec2/vec3/vec4 constructor to bind for
// OutputSize without re-running the whole pipeline.
func OutputSizeType(source string) string {
	t, _ := correctOutputSizeType(source)
	return t
}

func buildFinal(body string, isVertex bool, version, precision, extension string) string {
	out := version + "\n"
	if precision != "" {
		out += precision + "\n"
	}
	if extension != "" {
		out += extension + "\n"
	}
	if isVertex {
		out += "#define VERTEX\n#define PARAMETER_UNIFORM\n"
	} else {
		out += "#define FRAGMENT\n#define PARAMETER_UNIFORM\n"
	}
	out += body
	return out
}
