package preset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var indexedKey = regexp.MustCompile(`^([a-z_]+?)(\d+)$`)

// Load parses a .glslp file at path, returning a Preset with BaseDir set
// to path's containing directory.
func Load(path string) (*Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	p := &Preset{
		Path:       abs,
		BaseDir:    filepath.Dir(abs),
		Textures:   map[string]Texture{},
		Parameters: map[string]float64{},
	}

	var textureNames []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		value := strings.Trim(strings.TrimSpace(line[eq+1:]), `"`)

		switch {
		case key == "shaders":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, &ConfigError{Path: path, Err: fmt.Errorf("invalid shaders count %q: %w", value, err)}
			}
			p.Passes = make([]Pass, n)
			for i := range p.Passes {
				p.Passes[i] = newPass()
			}
		case key == "textures":
			textureNames = strings.Split(value, ";")
			for _, n := range textureNames {
				n = strings.TrimSpace(n)
				if n == "" {
					continue
				}
				if _, ok := p.Textures[n]; !ok {
					p.Textures[n] = newTexture()
				}
			}
		default:
			if m := indexedKey.FindStringSubmatch(key); m != nil {
				if applyIndexedKey(p, m[1], m[2], value) {
					continue
				}
			}
			if applyTextureKey(p, textureNames, key, value) {
				continue
			}
			// Any other key is a global float parameter.
			f, ferr := parseFloat(value)
			if ferr != nil {
				f = 0.0
			}
			p.Parameters[key] = f
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return p, nil
}

// applyIndexedKey dispatches a key<index> directive onto p.Passes[index].
// Returns false if prefix isn't a recognized pass field.
func applyIndexedKey(p *Preset, prefix, idxStr, value string) bool {
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return false
	}
	for idx >= len(p.Passes) {
		p.Passes = append(p.Passes, newPass())
	}
	pass := &p.Passes[idx]
	switch prefix {
	case "shader":
		pass.ShaderPath = value
	case "filter_linear":
		pass.FilterLinear = parseBool(value)
	case "wrap_mode":
		pass.WrapMode = value
	case "mipmap_input":
		pass.MipmapInput = parseBool(value)
	case "alias":
		pass.Alias = value
	case "float_framebuffer":
		pass.FloatFramebuffer = parseBool(value)
	case "srgb_framebuffer":
		pass.SRGBFramebuffer = parseBool(value)
	case "scale_type_x":
		pass.ScaleTypeX = value
	case "scale_x":
		pass.ScaleX, _ = parseFloat(value)
	case "scale_type_y":
		pass.ScaleTypeY = value
	case "scale_y":
		pass.ScaleY, _ = parseFloat(value)
	case "frame_count_mod":
		n, _ := strconv.Atoi(value)
		pass.FrameCountMod = n
	default:
		return false
	}
	return true
}

// applyTextureKey dispatches <name>/<name>_wrap_mode/<name>_mipmap/<name>_linear
// onto a registered LUT texture entry. Returns false if key isn't one of those.
func applyTextureKey(p *Preset, names []string, key, value string) bool {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t, ok := p.Textures[name]
		if !ok {
			t = newTexture()
		}
		switch key {
		case name:
			t.Path = value
		case name + "_wrap_mode":
			t.WrapMode = value
		case name + "_mipmap":
			t.Mipmap = parseBool(value)
		case name + "_linear":
			t.Linear = parseBool(value)
		default:
			continue
		}
		p.Textures[name] = t
		return true
	}
	return false
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false
	}
	return b
}

// parseFloat mirrors the original's try/catch stof-returns-0.0-on-failure
// behavior.
func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0.0, err
	}
	return f, nil
}
