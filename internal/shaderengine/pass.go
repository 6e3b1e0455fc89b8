package shaderengine

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/ashgrove/retrocapture/internal/preprocess"
	"github.com/ashgrove/retrocapture/internal/preset"
)

// PassData is the compiled, GL-resident state of one preset pass. Its
// Parameters table survives a compile failure so GetShaderParameters
// keeps exposing a complete UI surface even when Program is 0.
type PassData struct {
	Pass       preset.Pass
	Program    uint32
	Compiled   bool
	Parameters map[string]preprocess.Parameter
	OutputType string // inferred OutputSize uniform type: "vec2", "vec3" or "vec4"

	fbo, tex      uint32
	width, height int
	uniforms      map[string]int32
	uniformTypes  map[string]uint32
}

func (p *PassData) uniformLoc(name string) int32 {
	if p.uniforms == nil {
		p.uniforms = make(map[string]int32)
	}
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.Program, gl.Str(name+"\x00"))
	p.uniforms[name] = loc
	return loc
}

func (p *PassData) hasUniform(name string) bool {
	return p.uniformLoc(name) >= 0
}

// isFloatUniform reports whether name was declared as a float-typed
// uniform (as opposed to int/bool) in the linked program, per spec
// §4.3 step 10's "if declared int, pass as int; if declared float,
// pass the float" rule for FrameCount and similar dual-typed uniforms.
// Uniforms the query never saw (e.g. optimized out) are treated as
// non-float so the existing int path stays the default.
func (p *PassData) isFloatUniform(name string) bool {
	t, ok := p.uniformTypes[name]
	return ok && t == gl.FLOAT
}

func (p *PassData) free() {
	if p.tex != 0 {
		gl.DeleteTextures(1, &p.tex)
	}
	if p.fbo != 0 {
		gl.DeleteFramebuffers(1, &p.fbo)
	}
	if p.Program != 0 {
		gl.DeleteProgram(p.Program)
	}
	*p = PassData{}
}

// compilePass preprocesses and links one pass's shader, following spec
// §4.2/§4.3: compile failures do not abort LoadPreset, they leave the
// pass non-runnable but keep its extracted parameter table.
func compilePass(pass preset.Pass, shaderPath string, passIndex int, gc preprocess.GLContext, passScalesH bool) *PassData {
	pd := &PassData{Pass: pass, Parameters: map[string]preprocess.Parameter{}}

	source, err := readShaderSource(shaderPath)
	if err != nil {
		return pd
	}

	result, err := preprocess.Preprocess(preprocess.Input{
		Source:      source,
		ShaderPath:  shaderPath,
		PassIndex:   passIndex,
		PassScalesH: passScalesH,
		GL:          gc,
	})
	if err != nil {
		return pd
	}
	pd.Parameters = result.Parameters
	pd.OutputType = preprocess.OutputSizeType(result.FragmentSource)

	program, err := newProgram(result.VertexSource, result.FragmentSource)
	if err != nil {
		// vec3->vec4 texture-sample recovery: retry once with the patched
		// fragment source before giving up on this pass.
		if patched, changed := preprocessFixVec3(result.FragmentSource, err.Error()); changed {
			if program2, err2 := newProgram(result.VertexSource, patched); err2 == nil {
				pd.Program = program2
				pd.Compiled = true
				pd.uniformTypes = queryUniformTypes(program2)
				return pd
			}
		}
		return pd
	}

	pd.Program = program
	pd.Compiled = true
	pd.uniformTypes = queryUniformTypes(program)
	return pd
}

// queryUniformTypes enumerates every active uniform in the linked
// program and records its declared GL type, so callers can tell a
// `uniform float FrameCount` from a `uniform int FrameCount` (spec
// §4.3 step 10) without re-parsing shader source.
func queryUniformTypes(program uint32) map[string]uint32 {
	var count int32
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORMS, &count)
	types := make(map[string]uint32, count)

	var nameBuf [256]byte
	for i := uint32(0); i < uint32(count); i++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(program, i, int32(len(nameBuf)), &length, &size, &xtype, &nameBuf[0])
		types[string(nameBuf[:length])] = xtype
	}
	return types
}

func preprocessFixVec3(fragmentSource, compileLog string) (string, bool) {
	if !isVec3ToVec4(compileLog) {
		return fragmentSource, false
	}
	return fixVec3ToVec4(fragmentSource)
}

func newProgram(vertexSource, fragmentSource string) (uint32, error) {
	vs, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	fs, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.BindAttribLocation(program, 0, gl.Str("VertexCoord\x00"))
	gl.BindAttribLocation(program, 1, gl.Str("TexCoord\x00"))
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteShader(vs)
		gl.DeleteShader(fs)
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", log)
	}

	gl.DeleteShader(vs)
	gl.DeleteShader(fs)
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s", logText)
	}
	return shader, nil
}

// internalFormatFor picks the color-attachment internal format per the
// pass's float/sRGB framebuffer flags.
func internalFormatFor(pass preset.Pass) (internalFormat, format, pixelType uint32) {
	switch {
	case pass.FloatFramebuffer:
		return gl.RGBA32F, gl.RGBA, gl.FLOAT
	case pass.SRGBFramebuffer:
		return gl.SRGB8_ALPHA8, gl.RGBA, gl.UNSIGNED_BYTE
	default:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	}
}

// ensureFramebuffer (re)creates the pass's color-attachment texture and
// FBO when absent or sized differently, per spec §4.3 step 2.
func (p *PassData) ensureFramebuffer(w, h int) {
	if p.fbo != 0 && p.width == w && p.height == h {
		return
	}
	if p.tex != 0 {
		gl.DeleteTextures(1, &p.tex)
	}
	if p.fbo == 0 {
		gl.GenFramebuffers(1, &p.fbo)
	}

	internalFormat, format, pixelType := internalFormatFor(p.Pass)

	gl.GenTextures(1, &p.tex)
	gl.BindTexture(gl.TEXTURE_2D, p.tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, int32(internalFormat), int32(w), int32(h), 0, format, pixelType, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	gl.BindFramebuffer(gl.FRAMEBUFFER, p.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, p.tex, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	p.width, p.height = w, h
}
