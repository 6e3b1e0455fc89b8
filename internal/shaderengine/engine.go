// Package shaderengine loads a RetroArch shader preset and runs its
// multi-pass GLSL chain against an input texture every frame, following
// the RetroArch shader-pipeline contract: per-pass framebuffer
// management, RetroArch's uniform table, previous-pass/frame-history
// texture binding, and a bounded output-history ring for passes that
// reference it (motion blur, phosphor persistence shaders and the
// like).
package shaderengine

import (
	"fmt"
	"log"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/ashgrove/retrocapture/internal/preprocess"
	"github.com/ashgrove/retrocapture/internal/preset"
)

// Engine owns the compiled pass chain for the currently loaded preset,
// the fullscreen quad, LUT textures and the frame-history ring. All of
// its methods run on the render thread; it holds no internal locking of
// its own beyond the mutex guarding parameter overrides, which may be
// set from another thread (e.g. a REST handler).
type Engine struct {
	mu sync.Mutex

	gl GLContext

	quadVAO, quadVBO, quadEBO uint32
	blitProgram               uint32
	blitBrightnessLoc         int32
	blitContrastLoc           int32

	active    bool
	preset    *preset.Preset
	passes    []*PassData
	luts      map[string]lutTexture
	history   []*historyEntry
	overrides map[string]float64

	frameCount  int64
	timeVal     float64
	viewportW   int
	viewportH   int
	lastInputW  int
	lastInputH  int
	lastOutputW int
	lastOutputH int
}

// GLContext mirrors preprocess.GLContext; re-exported so callers outside
// this module don't need to import preprocess just to construct one.
type GLContext = preprocess.GLContext

// New creates an Engine. It must be called on the render thread, after
// a GL context is current.
func New(gc GLContext) *Engine {
	vao, vbo, ebo := newQuad()
	return &Engine{
		gl:        gc,
		quadVAO:   vao,
		quadVBO:   vbo,
		quadEBO:   ebo,
		luts:      map[string]lutTexture{},
		overrides: map[string]float64{},
	}
}

// IsActive reports whether at least one compiled pass is driving
// ApplyShader's output, i.e. the texture it returns is shader output
// rather than the untouched input texture (spec §4.8's "isShaderTexture").
func (e *Engine) IsActive() bool {
	return e.active
}

// LastOutputDims returns the final pass's output dimensions from the
// most recent ApplyShader call. The render loop passes them to the
// presenter as content dimensions when a shader is active and aspect
// preservation is off; with aspect preservation on it passes the
// original capture dimensions instead (spec §4.8 "present ... optional
// aspect-preservation").
func (e *Engine) LastOutputDims() (int, int) {
	return e.lastOutputW, e.lastOutputH
}

// SetViewport records the host's presentation surface size, used for
// viewport-typed scales and the last-pass fill-to-window rule (spec
// §4.3 "Viewport").
func (e *Engine) SetViewport(w, h int) {
	e.viewportW, e.viewportH = w, h
}

// LoadPreset implements spec §4.3 "Load preset": unload the current
// preset, parse the new one, load LUTs, reset GL state, compile every
// pass (failures are tolerated per-pass), then mark active.
func (e *Engine) LoadPreset(path string) error {
	p, err := preset.Load(path)
	if err != nil {
		return fmt.Errorf("load preset: %w", err)
	}

	e.UnloadPreset()

	luts := map[string]lutTexture{}
	for name, t := range p.Textures {
		resolved := p.ResolvedTexturePath(name)
		lt, err := loadLUT(resolved, t)
		if err != nil {
			log.Printf("shaderengine: LUT %q (%s): %v", name, resolved, err)
			continue
		}
		luts[name] = lt
	}

	gl.UseProgram(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.ActiveTexture(gl.TEXTURE0)

	passes := make([]*PassData, len(p.Passes))
	anyCompiled := false
	for i, pass := range p.Passes {
		scalesHeight := pass.ScaleTypeY != "" && (pass.ScaleTypeY != preset.DefaultScaleType || pass.ScaleY != preset.DefaultScale)
		pd := compilePass(pass, p.ResolvedShaderPath(i), i, e.gl, scalesHeight)
		passes[i] = pd
		if pd.Compiled {
			anyCompiled = true
		} else {
			log.Printf("shaderengine: pass %d (%s) failed to compile, parameters preserved", i, pass.ShaderPath)
		}
	}

	e.preset = p
	e.passes = passes
	e.luts = luts
	e.active = anyCompiled
	e.freeHistory()
	e.frameCount = 0
	e.timeVal = 0
	return nil
}

// UnloadPreset frees all GL objects owned by the current preset (pass
// programs/framebuffers, LUT textures, history textures) while keeping
// any parameter overrides the caller set that are not scoped to the
// preset being unloaded (spec §4.3 step 1).
func (e *Engine) UnloadPreset() {
	for _, p := range e.passes {
		p.free()
	}
	for _, l := range e.luts {
		l.free()
	}
	e.freeHistory()
	e.passes = nil
	e.luts = map[string]lutTexture{}
	e.preset = nil
	e.active = false
}

// GetShaderParameters aggregates the union of every pass's extracted
// parameter table (first occurrence wins on name collision) with
// current effective values applied (spec §4.3 "Parameter API").
func (e *Engine) GetShaderParameters() map[string]preprocess.Parameter {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := map[string]preprocess.Parameter{}
	for _, p := range e.passes {
		for name, param := range p.Parameters {
			if _, exists := out[name]; exists {
				continue
			}
			if override, ok := e.overrides[name]; ok {
				param.Default = override
			} else if v, ok := e.preset.Parameters[name]; ok {
				param.Default = v
			}
			out[name] = param
		}
	}
	return out
}

// SetShaderParameter stores a per-engine override, clamped to the
// parameter's declared [min,max] if the parameter is known.
func (e *Engine) SetShaderParameter(name string, value float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, p := range e.passes {
		if param, ok := p.Parameters[name]; ok {
			if value < param.Min {
				value = param.Min
			}
			if value > param.Max {
				value = param.Max
			}
			break
		}
	}
	e.overrides[name] = value
}

// Close releases the quad buffers and everything owned by the current
// preset. The Engine must not be used afterward.
func (e *Engine) Close() {
	e.UnloadPreset()
	if e.blitProgram != 0 {
		gl.DeleteProgram(e.blitProgram)
	}
	if e.quadVBO != 0 {
		gl.DeleteBuffers(1, &e.quadVBO)
	}
	if e.quadEBO != 0 {
		gl.DeleteBuffers(1, &e.quadEBO)
	}
	if e.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &e.quadVAO)
	}
}

// effectiveParam resolves override > preset-global > #pragma default.
func (e *Engine) effectiveParam(name string, param preprocess.Parameter) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.overrides[name]; ok {
		return v
	}
	if e.preset != nil {
		if v, ok := e.preset.Parameters[name]; ok {
			return v
		}
	}
	return param.Default
}
