package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTwoPassPreset(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pass0.glsl"), []byte("// pass 0"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pass1.glsl"), []byte("// pass 1"), 0o644))

	presetPath := writeFile(t, dir, "test.glslp", `
shaders = 2
shader0 = pass0.glsl
scale_type_x0 = source
scale_x0 = 2.0
scale_type_y0 = source
scale_y0 = 2.0
shader1 = pass1.glsl
sharpness = 0.75
`)

	p, err := Load(presetPath)
	require.NoError(t, err)
	require.Len(t, p.Passes, 2)

	assert.Equal(t, "pass0.glsl", p.Passes[0].ShaderPath)
	assert.Equal(t, "source", p.Passes[0].ScaleTypeX)
	assert.Equal(t, 2.0, p.Passes[0].ScaleX)
	assert.True(t, p.Passes[0].FilterLinear)
	assert.Equal(t, DefaultWrapMode, p.Passes[0].WrapMode)

	assert.Equal(t, "pass1.glsl", p.Passes[1].ShaderPath)
	assert.Equal(t, DefaultScaleType, p.Passes[1].ScaleTypeX)
	assert.Equal(t, DefaultScale, p.Passes[1].ScaleX)

	assert.Equal(t, 0.75, p.Parameters["sharpness"])
	assert.Equal(t, filepath.Join(dir, "pass0.glsl"), p.ResolvedShaderPath(0))
}

func TestLoadWithTextures(t *testing.T) {
	dir := t.TempDir()
	presetPath := writeFile(t, dir, "lut.glslp", `
shaders = 1
shader0 = a.glsl
textures = LUT1
LUT1 = lut1.png
LUT1_linear = false
LUT1_wrap_mode = repeat
`)
	p, err := Load(presetPath)
	require.NoError(t, err)
	tex, ok := p.Textures["LUT1"]
	require.True(t, ok)
	assert.Equal(t, "lut1.png", tex.Path)
	assert.False(t, tex.Linear)
	assert.Equal(t, "repeat", tex.WrapMode)
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	presetPath := writeFile(t, dir, "rt.glslp", `
shaders = 2
shader0 = a.glsl
filter_linear0 = false
wrap_mode0 = repeat
shader1 = b.glsl
scale_type_x1 = absolute
scale_x1 = 640
textures = LUT0
LUT0 = lut.png
gain = 1.5
`)
	p1, err := Load(presetPath)
	require.NoError(t, err)

	savedPath := filepath.Join(dir, "rt_saved.glslp")
	require.NoError(t, Save(p1, savedPath))

	p2, err := Load(savedPath)
	require.NoError(t, err)

	require.Len(t, p2.Passes, len(p1.Passes))
	for i := range p1.Passes {
		assert.Equal(t, p1.Passes[i], p2.Passes[i])
	}
	assert.Equal(t, p1.Textures, p2.Textures)
	assert.Equal(t, p1.Parameters, p2.Parameters)
}

func TestResolvePathAbsolute(t *testing.T) {
	assert.Equal(t, "/abs/path.glsl", ResolvePath("/some/base", "/abs/path.glsl"))
}

func TestResolvePathRelativeToBase(t *testing.T) {
	dir := t.TempDir()
	shaderDir := filepath.Join(dir, "shaders")
	require.NoError(t, os.MkdirAll(shaderDir, 0o755))
	shaderFile := filepath.Join(shaderDir, "blur.glsl")
	require.NoError(t, os.WriteFile(shaderFile, []byte("x"), 0o644))

	got := ResolvePath(shaderDir, "blur.glsl")
	assert.Equal(t, shaderFile, got)
}
