package shaderengine

import (
	"math"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// blitVertexSource/blitFragmentSource is the minimal passthrough pair
// the teacher compiles once as renderer.go's blitProgram, used there to
// copy the offscreen render target to the visible default framebuffer.
// The fragment variant additionally applies the brightness/contrast
// adjustment spec §4.8's "present" step requires, grounded on
// original_source/src/renderer/OpenGLRenderer.cpp's renderTexture
// fragment shader (`FragColor = vec4(texColor.rgb * brightness, ...)`),
// extended with a standard contrast term since the pack's snapshot of
// that shader only carries a brightness uniform.
const blitVertexSource = `#version 410 core
in vec2 VertexCoord;
in vec2 TexCoord;
out vec2 vTexCoord;
void main() {
    vTexCoord = TexCoord;
    gl_Position = vec4(VertexCoord, 0.0, 1.0);
}
`

const blitFragmentSource = `#version 410 core
in vec2 vTexCoord;
out vec4 fragColor;
uniform sampler2D uTexture;
uniform float brightness;
uniform float contrast;
void main() {
    vec4 texColor = texture(uTexture, vTexCoord);
    vec3 rgb = (texColor.rgb - 0.5) * contrast + 0.5;
    rgb *= brightness;
    fragColor = vec4(rgb, texColor.a);
}
`

// Present blits tex to the currently-bound framebuffer (the default
// one, i.e. the window), compiling the blit program on first use (spec
// §4.8 "present with brightness/contrast and optional
// aspect-preservation"):
//   - brightness/contrast are applied as blit-shader uniforms
//     (grounded on OpenGLRenderer.cpp's renderTexture, see above).
//   - when maintainAspect is set, the draw is confined to a centered
//     letterbox viewport sized to preserve contentW:contentH within
//     screenW x screenH (original_source/src/core/Application.cpp's
//     renderWidth/renderHeight computation, generalized: the caller
//     passes the original capture dimensions when a shader is active
//     and aspect is being preserved, or the shader's own output
//     dimensions otherwise, matching that function's two branches).
func (e *Engine) Present(tex uint32, screenW, screenH, contentW, contentH int, brightness, contrast float32, maintainAspect bool) {
	if e.blitProgram == 0 {
		prog, err := newProgram(blitVertexSource, blitFragmentSource)
		if err != nil {
			return
		}
		e.blitProgram = prog
		e.blitBrightnessLoc = gl.GetUniformLocation(prog, gl.Str("brightness\x00"))
		e.blitContrastLoc = gl.GetUniformLocation(prog, gl.Str("contrast\x00"))
	}

	gl.Viewport(0, 0, int32(screenW), int32(screenH))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	x, y, w, h := int32(0), int32(0), int32(screenW), int32(screenH)
	if maintainAspect {
		x, y, w, h = letterboxViewport(screenW, screenH, contentW, contentH)
	}
	gl.Viewport(x, y, w, h)

	gl.UseProgram(e.blitProgram)
	if e.blitBrightnessLoc >= 0 {
		gl.Uniform1f(e.blitBrightnessLoc, brightness)
	}
	if e.blitContrastLoc >= 0 {
		gl.Uniform1f(e.blitContrastLoc, contrast)
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	drawQuad(e.quadVAO)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// letterboxViewport computes the centered sub-rectangle of
// screenW x screenH that preserves contentW:contentH, per
// Application.cpp's maintainAspect branch. Falls back to the full
// screen when content dimensions are unknown (0).
func letterboxViewport(screenW, screenH, contentW, contentH int) (x, y, w, h int32) {
	if contentW <= 0 || contentH <= 0 || screenW <= 0 || screenH <= 0 {
		return 0, 0, int32(screenW), int32(screenH)
	}

	screenAspect := float64(screenW) / float64(screenH)
	contentAspect := float64(contentW) / float64(contentH)

	var outW, outH int
	if contentAspect > screenAspect {
		outW = screenW
		outH = int(math.Round(float64(screenW) / contentAspect))
	} else {
		outH = screenH
		outW = int(math.Round(float64(screenH) * contentAspect))
	}
	return int32((screenW - outW) / 2), int32((screenH - outH) / 2), int32(outW), int32(outH)
}
