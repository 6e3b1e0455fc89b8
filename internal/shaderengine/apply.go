package shaderengine

import (
	"fmt"
	"math"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/ashgrove/retrocapture/internal/preset"
	"github.com/ashgrove/retrocapture/internal/rlog"
)

var noActivePassLog = rlog.New(60)

// samplerUniformNames is the search order ApplyShader uses to find the
// pass's primary input-texture uniform (spec §4.3 step 6).
var samplerUniformNames = []string{"Texture", "Source", "Input", "s_p", "tex", "image"}

// legacyDefaults covers well-known uniforms some RetroArch shaders
// reference without declaring a matching #pragma parameter.
var legacyDefaults = map[string]float32{
	"BLURSCALEX":  0.30,
	"LOWLUMSCAN":  6.0,
	"HILUMSCAN":   8.0,
	"BRIGHTBOOST": 1.25,
	"MASK_DARK":   0.25,
	"MASK_FADE":   0.8,
}

// ApplyShader runs every compiled pass in order against inputTex, sized
// inputW x inputH, and returns the final pass's output texture. If no
// pass has a live program it returns inputTex unchanged, logging at
// most once every ~60 frames (spec §4.3 "Apply shader").
func (e *Engine) ApplyShader(inputTex uint32, inputW, inputH int) uint32 {
	if !e.active || len(e.passes) == 0 {
		noActivePassLog.Printf("shaderengine: no active pass, passing input through")
		e.frameCount++
		e.timeVal += 1.0 / 60.0
		e.lastOutputW, e.lastOutputH = inputW, inputH
		return inputTex
	}

	e.frameCount++
	e.timeVal += 1.0 / 60.0
	e.lastInputW, e.lastInputH = inputW, inputH

	originalW, originalH := inputW, inputH
	currentTex := inputTex
	currentW, currentH := inputW, inputH

	var outputs []uint32
	var dims [][2]int

	for i, pass := range e.passes {
		isFinal := i == len(e.passes)-1
		outW, outH := e.computeOutputDims(pass, currentW, currentH, isFinal)

		if !pass.Compiled {
			// Pass has no program: act as a no-op stage so indices/history
			// stay consistent for later passes that reference it.
			outputs = append(outputs, currentTex)
			dims = append(dims, [2]int{currentW, currentH})
			continue
		}

		pass.ensureFramebuffer(outW, outH)

		gl.BindFramebuffer(gl.FRAMEBUFFER, pass.fbo)
		gl.Viewport(0, 0, int32(outW), int32(outH))
		gl.ColorMask(true, true, true, true)
		gl.ClearColor(0, 0, 0, 0)
		gl.Clear(gl.COLOR_BUFFER_BIT)
		gl.Disable(gl.BLEND)
		gl.Disable(gl.DEPTH_TEST)
		gl.Disable(gl.CULL_FACE)

		gl.UseProgram(pass.Program)

		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, currentTex)
		applyInputSamplingState(pass.Pass)

		nextUnit := int32(1)
		for _, name := range samplerUniformNames {
			if loc := pass.uniformLoc(name); loc >= 0 {
				gl.Uniform1i(loc, 0)
				break
			}
		}

		// Step 7: previous-pass outputs.
		for j := i - 1; j >= 0; j-- {
			k := i - j
			names := []string{fmt.Sprintf("PassPrev%dTexture", k)}
			if j == 0 {
				names = append(names, "PrevTexture")
			} else {
				names = append(names, fmt.Sprintf("Prev%dTexture", j))
			}
			if bindNamedSampler(pass, names, outputs[j], &nextUnit) {
				setVec2IfDeclared(pass, fmt.Sprintf("PassOutputSize%d", j), float32(dims[j][0]), float32(dims[j][1]))
				setVec2IfDeclared(pass, fmt.Sprintf("PassInputSize%d", j), float32(dims[j][0]), float32(dims[j][1]))
			}
		}

		// Step 8: frame history, pass 0 only.
		if i == 0 {
			for k := 0; k < MaxHistory; k++ {
				if k >= len(e.history) {
					break
				}
				names := []string{fmt.Sprintf("PassPrev%dTexture", k)}
				if k == 0 {
					names = append(names, "PrevTexture")
				} else {
					names = append(names, fmt.Sprintf("Prev%dTexture", k))
				}
				bindNamedSampler(pass, names, e.history[k].tex, &nextUnit)
				if loc := pass.uniformLoc(fmt.Sprintf("OriginalHistorySize%d", k)); loc >= 0 {
					gl.Uniform2f(loc, float32(originalW), float32(originalH))
				}
			}
		}

		// Step 9: LUT samplers.
		for name, lut := range e.luts {
			if loc := pass.uniformLoc(name); loc >= 0 {
				unit := nextUnit
				nextUnit++
				gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
				gl.BindTexture(gl.TEXTURE_2D, lut.id)
				gl.Uniform1i(loc, unit)
			}
		}

		// Step 10: RetroArch uniform table.
		e.bindRetroArchUniforms(pass, i, currentW, currentH, outW, outH, originalW, originalH)

		// Step 11: draw.
		drawQuad(e.quadVAO)

		outputs = append(outputs, pass.tex)
		dims = append(dims, [2]int{outW, outH})
		currentTex, currentW, currentH = pass.tex, outW, outH
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if len(e.passes) > 0 && e.passes[0].Compiled {
		e.pushHistory(currentTex, currentW, currentH, e.passes[0].Program)
	}

	gl.Viewport(0, 0, 4096, 4096)

	e.lastOutputW, e.lastOutputH = currentW, currentH
	return currentTex
}

func applyInputSamplingState(p preset.Pass) {
	filter := int32(gl.NEAREST)
	if p.FilterLinear {
		filter = gl.LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapModeGL(p.WrapMode))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapModeGL(p.WrapMode))
	if p.MipmapInput {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
}

func bindNamedSampler(pass *PassData, names []string, tex uint32, nextUnit *int32) bool {
	for _, name := range names {
		if loc := pass.uniformLoc(name); loc >= 0 {
			unit := *nextUnit
			*nextUnit++
			gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
			gl.BindTexture(gl.TEXTURE_2D, tex)
			gl.Uniform1i(loc, unit)
			return true
		}
	}
	return false
}

func setVec2IfDeclared(pass *PassData, name string, x, y float32) {
	if loc := pass.uniformLoc(name); loc >= 0 {
		gl.Uniform2f(loc, x, y)
	}
}

// computeOutputDims implements spec §4.3 step 1.
func (e *Engine) computeOutputDims(pass *PassData, inputW, inputH int, isFinal bool) (int, int) {
	scaleTypeX, scaleX := pass.Pass.ScaleTypeX, pass.Pass.ScaleX
	scaleTypeY, scaleY := pass.Pass.ScaleTypeY, pass.Pass.ScaleY

	if isFinal && (scaleTypeX == "" || (scaleTypeX == "source" && scaleX == 1.0)) {
		scaleTypeX, scaleX = "viewport", 1.0
	}
	if isFinal && (scaleTypeY == "" || (scaleTypeY == "source" && scaleY == 1.0)) {
		scaleTypeY, scaleY = "viewport", 1.0
	}

	w := dimFor(scaleTypeX, scaleX, inputW, e.viewportW)
	h := dimFor(scaleTypeY, scaleY, inputH, e.viewportH)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func dimFor(scaleType string, scale float64, sourceDim, viewportDim int) int {
	switch scaleType {
	case "viewport":
		return int(math.Round(float64(viewportDim) * scale))
	case "absolute":
		return int(math.Round(scale))
	default: // "source" or empty
		return int(math.Round(float64(sourceDim) * scale))
	}
}

// bindRetroArchUniforms implements spec §4.3 step 10: only uniforms the
// program actually declares are set.
func (e *Engine) bindRetroArchUniforms(pass *PassData, passIndex, inW, inH, outW, outH, origW, origH int) {
	set2 := func(name string, w, h int) {
		if loc := pass.uniformLoc(name); loc >= 0 {
			gl.Uniform2f(loc, float32(w), float32(h))
		}
	}
	set4 := func(name string, w, h int) {
		if loc := pass.uniformLoc(name); loc >= 0 {
			gl.Uniform4f(loc, float32(w), float32(h), 1/float32(w), 1/float32(h))
		}
	}

	set4("SourceSize", inW, inH)
	set4("OriginalSize", origW, origH)
	set2("TextureSize", inW, inH)
	set2("InputSize", inW, inH)

	switch pass.OutputType {
	case "vec3":
		if loc := pass.uniformLoc("OutputSize"); loc >= 0 {
			gl.Uniform3f(loc, float32(outW), float32(outH), 1/float32(outW))
		}
	case "vec4":
		if loc := pass.uniformLoc("OutputSize"); loc >= 0 {
			gl.Uniform4f(loc, float32(outW), float32(outH), 1/float32(outW), 1/float32(outH))
		}
	default:
		set2("OutputSize", outW, outH)
	}

	if loc := pass.uniformLoc("PassScale"); loc >= 0 {
		gl.Uniform2f(loc, float32(pass.Pass.ScaleX), float32(pass.Pass.ScaleY))
	}
	if loc := pass.uniformLoc("PassScaleX"); loc >= 0 {
		gl.Uniform1f(loc, float32(pass.Pass.ScaleX))
	}
	if loc := pass.uniformLoc("PassScaleY"); loc >= 0 {
		gl.Uniform1f(loc, float32(pass.Pass.ScaleY))
	}
	if loc := pass.uniformLoc("PassFilter"); loc >= 0 {
		v := float32(0)
		if pass.Pass.FilterLinear {
			v = 1
		}
		gl.Uniform1f(loc, v)
	}

	if loc := pass.uniformLoc("FrameCount"); loc >= 0 {
		fc := e.frameCount
		if pass.Pass.FrameCountMod > 0 {
			fc = fc % int64(pass.Pass.FrameCountMod)
		}
		if pass.isFloatUniform("FrameCount") {
			gl.Uniform1f(loc, float32(fc))
		} else {
			gl.Uniform1i(loc, int32(fc))
		}
	}
	if loc := pass.uniformLoc("FrameDirection"); loc >= 0 {
		gl.Uniform1i(loc, 1)
	}
	if loc := pass.uniformLoc("FRAMEINDEX"); loc >= 0 {
		gl.Uniform1i(loc, int32(e.frameCount))
	}
	if loc := pass.uniformLoc("TIME"); loc >= 0 {
		gl.Uniform1f(loc, float32(e.timeVal))
	}

	if loc := pass.uniformLoc("MVPMatrix"); loc >= 0 {
		identity := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
		gl.UniformMatrix4fv(loc, 1, false, &identity[0])
	}

	for name, param := range pass.Parameters {
		if loc := pass.uniformLoc(name); loc >= 0 {
			gl.Uniform1f(loc, float32(e.effectiveParam(name, param)))
		}
	}
	for name, def := range legacyDefaults {
		if _, declared := pass.Parameters[name]; declared {
			continue
		}
		if loc := pass.uniformLoc(name); loc >= 0 {
			gl.Uniform1f(loc, def)
		}
	}
}
