package preprocess

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInput(source string) Input {
	return Input{
		Source:     source,
		ShaderPath: filepath.Join("/shaders", "test.glsl"),
		OutputW:    640,
		OutputH:    480,
		InputW:     320,
		InputH:     240,
		GL:         GLContext{Major: 3, Minor: 3},
	}
}

func TestExtractParametersAndBlanking(t *testing.T) {
	src := `#pragma parameter GAIN "Gain" 1.50 0.10 3.00 0.01
void main() {}
`
	result, err := Preprocess(baseInput(src))
	require.NoError(t, err)
	p, ok := result.Parameters["GAIN"]
	require.True(t, ok)
	assert.Equal(t, "Gain", p.Description)
	assert.Equal(t, 1.50, p.Default)
	assert.Equal(t, 0.10, p.Min)
	assert.Equal(t, 3.00, p.Max)
	assert.Equal(t, 0.01, p.Step)
}

func TestBogusParameterIgnored(t *testing.T) {
	params, _ := extractParameters(`#pragma parameter bogus_section "Section" 0 0 1 1
#pragma parameter REAL "Real" 1 0 2 0.1
`)
	_, hasBogus := params["bogus_section"]
	assert.False(t, hasBogus)
	_, hasReal := params["REAL"]
	assert.True(t, hasReal)
}

func TestOutputSizeInferenceMacroPack(t *testing.T) {
	src := `#define OS vec4(OutputSize, 1.0 / OutputSize)
uniform vec3 OutputSize;
void main() { vec4 x = OS; }
`
	typ, rewritten := correctOutputSizeType(src)
	assert.Equal(t, "vec2", typ)
	assert.Contains(t, rewritten, "uniform vec2 OutputSize;")
	assert.NotContains(t, rewritten, "uniform vec3 OutputSize;")
}

func TestOutputSizeInferenceDefault(t *testing.T) {
	typ := OutputSizeType("void main() { vec2 a = OutputSize; }")
	assert.Equal(t, "vec2", typ)
}

func TestOutputSizeInjectionWhenNoDeclaration(t *testing.T) {
	_, rewritten := correctOutputSizeType("void main() { vec2 a = OutputSize; }")
	assert.True(t, strings.HasPrefix(rewritten, "uniform vec2 OutputSize;\n"))
}

func TestPreprocessIdempotentOnOwnOutput(t *testing.T) {
	src := `#pragma parameter GAIN "Gain" 1.0 0.0 2.0 0.1
void main() { vec2 a = OutputSize; }
`
	r1, err := Preprocess(baseInput(src))
	require.NoError(t, err)

	r2, err := Preprocess(baseInput(r1.FragmentSource))
	require.NoError(t, err)

	assert.Equal(t, r1.FragmentSource, r2.FragmentSource)
}

func TestStageSplit(t *testing.T) {
	src := `shared line
#pragma stage vertex
vertex only line
#pragma stage fragment
fragment only line
`
	v, f := splitStages(src)
	assert.Contains(t, v, "vertex only line")
	assert.NotContains(t, v, "fragment only line")
	assert.Contains(t, f, "fragment only line")
	assert.NotContains(t, f, "vertex only line")
	assert.Contains(t, v, "shared line")
	assert.Contains(t, f, "shared line")
}

func TestFixVec3ToVec4(t *testing.T) {
	src := `vec3 color = texture(Texture, uv);
vec4 out_color = vec4(color, 1.0);
`
	fixed, changed := FixVec3ToVec4(src)
	require.True(t, changed)
	assert.Contains(t, fixed, "vec4 color = texture(Texture, uv);")
	assert.Contains(t, fixed, "vec4(color.rgb,1.0)")
}

func TestVersionSelectionES(t *testing.T) {
	v, p, _ := selectVersion(GLContext{ES: true, Major: 3})
	assert.Equal(t, "#version 300 es", v)
	assert.Contains(t, p, "precision mediump float;")
}

func TestVersionSelectionDesktop(t *testing.T) {
	v, _, ext := selectVersion(GLContext{Major: 3, Minor: 3})
	assert.Equal(t, "#version 330", v)
	assert.NotEmpty(t, ext)
}
