package preset

import (
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Save writes p back to path, emitting exactly the keys that differ from
// RetroArch defaults plus every parameter override, preserving pass
// indices (spec §4.1 "Save").
func Save(p *Preset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	defer f.Close()

	fmt.Fprintf(f, "shaders = %d\n", len(p.Passes))
	def := newPass()
	for i, pass := range p.Passes {
		fmt.Fprintf(f, "shader%d = %s\n", i, pass.ShaderPath)
		if pass.FilterLinear != def.FilterLinear {
			fmt.Fprintf(f, "filter_linear%d = %t\n", i, pass.FilterLinear)
		}
		if pass.WrapMode != def.WrapMode {
			fmt.Fprintf(f, "wrap_mode%d = %s\n", i, pass.WrapMode)
		}
		if pass.MipmapInput != def.MipmapInput {
			fmt.Fprintf(f, "mipmap_input%d = %t\n", i, pass.MipmapInput)
		}
		if pass.Alias != "" {
			fmt.Fprintf(f, "alias%d = %s\n", i, pass.Alias)
		}
		if pass.FloatFramebuffer != def.FloatFramebuffer {
			fmt.Fprintf(f, "float_framebuffer%d = %t\n", i, pass.FloatFramebuffer)
		}
		if pass.SRGBFramebuffer != def.SRGBFramebuffer {
			fmt.Fprintf(f, "srgb_framebuffer%d = %t\n", i, pass.SRGBFramebuffer)
		}
		if pass.ScaleTypeX != def.ScaleTypeX {
			fmt.Fprintf(f, "scale_type_x%d = %s\n", i, pass.ScaleTypeX)
		}
		if pass.ScaleX != def.ScaleX {
			fmt.Fprintf(f, "scale_x%d = %s\n", i, strconv.FormatFloat(pass.ScaleX, 'g', -1, 64))
		}
		if pass.ScaleTypeY != def.ScaleTypeY {
			fmt.Fprintf(f, "scale_type_y%d = %s\n", i, pass.ScaleTypeY)
		}
		if pass.ScaleY != def.ScaleY {
			fmt.Fprintf(f, "scale_y%d = %s\n", i, strconv.FormatFloat(pass.ScaleY, 'g', -1, 64))
		}
		if pass.FrameCountMod != def.FrameCountMod {
			fmt.Fprintf(f, "frame_count_mod%d = %d\n", i, pass.FrameCountMod)
		}
	}

	if len(p.Textures) > 0 {
		names := make([]string, 0, len(p.Textures))
		for n := range p.Textures {
			names = append(names, n)
		}
		sort.Strings(names)
		line := ""
		for i, n := range names {
			if i > 0 {
				line += ";"
			}
			line += n
		}
		fmt.Fprintf(f, "textures = %s\n", line)
		defTex := newTexture()
		for _, n := range names {
			t := p.Textures[n]
			fmt.Fprintf(f, "%s = %s\n", n, t.Path)
			if t.WrapMode != defTex.WrapMode {
				fmt.Fprintf(f, "%s_wrap_mode = %s\n", n, t.WrapMode)
			}
			if t.Mipmap != defTex.Mipmap {
				fmt.Fprintf(f, "%s_mipmap = %t\n", n, t.Mipmap)
			}
			if t.Linear != defTex.Linear {
				fmt.Fprintf(f, "%s_linear = %t\n", n, t.Linear)
			}
		}
	}

	names := make([]string, 0, len(p.Parameters))
	for n := range p.Parameters {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(f, "%s = %s\n", n, strconv.FormatFloat(p.Parameters[n], 'g', -1, 64))
	}
	return nil
}
