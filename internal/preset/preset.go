// Package preset loads and saves RetroArch-style .glslp shader presets.
package preset

import "fmt"

// Defaults for fields a .glslp file may omit.
const (
	DefaultScaleType = "source"
	DefaultScale     = 1.0
	DefaultWrapMode  = "clamp_to_edge"
)

// Pass is one shader pass parsed from a preset's shader<i>/filter_linear<i>/...
// keys. Missing fields take RetroArch defaults.
type Pass struct {
	ShaderPath       string
	FilterLinear     bool
	WrapMode         string
	MipmapInput      bool
	Alias            string
	FloatFramebuffer bool
	SRGBFramebuffer  bool
	ScaleTypeX       string
	ScaleX           float64
	ScaleTypeY       string
	ScaleY           float64
	FrameCountMod    int
}

func newPass() Pass {
	return Pass{
		FilterLinear: true,
		WrapMode:     DefaultWrapMode,
		ScaleTypeX:   DefaultScaleType,
		ScaleX:       DefaultScale,
		ScaleTypeY:   DefaultScaleType,
		ScaleY:       DefaultScale,
	}
}

// Texture is a LUT reference texture declared by a <samplerName> = <path>
// entry plus its _wrap_mode/_mipmap/_linear suffixed siblings.
type Texture struct {
	Path     string
	WrapMode string
	Mipmap   bool
	Linear   bool
}

func newTexture() Texture {
	return Texture{WrapMode: "clamp_to_border", Linear: true}
}

// Preset is the in-memory result of loading a .glslp file.
type Preset struct {
	// Path is the absolute path the preset was loaded from (or will be
	// saved to). BaseDir is its containing directory, used to resolve
	// every relative shader/LUT path.
	Path    string
	BaseDir string

	Passes     []Pass
	Textures   map[string]Texture
	Parameters map[string]float64
}

// ConfigError wraps a preset parse/load failure (spec §7 ConfigError).
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("preset %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ResolvedShaderPath resolves pass i's shader path against the preset's
// base directory using the §4.1 path resolution rules.
func (p *Preset) ResolvedShaderPath(i int) string {
	return ResolvePath(p.BaseDir, p.Passes[i].ShaderPath)
}

// ResolvedTexturePath resolves a named LUT's path the same way.
func (p *Preset) ResolvedTexturePath(name string) string {
	t, ok := p.Textures[name]
	if !ok {
		return ""
	}
	return ResolvePath(p.BaseDir, t.Path)
}
