package shaderengine

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// MaxHistory is the frame-history ring depth RetroArch passes reference
// via PrevTexture..Prev6Texture / PassPrev0Texture..PassPrev6Texture.
const MaxHistory = 7

// historyEntry is one rendered-in frame of output history. It owns its
// own texture and framebuffer distinct from any pass's own FBO, since
// pass FBOs are overwritten every frame.
type historyEntry struct {
	tex, fbo      uint32
	width, height int
}

func (h *historyEntry) free() {
	if h.tex != 0 {
		gl.DeleteTextures(1, &h.tex)
	}
	if h.fbo != 0 {
		gl.DeleteFramebuffers(1, &h.fbo)
	}
	*h = historyEntry{}
}

func (h *historyEntry) ensure(w, hgt int) {
	if h.fbo != 0 && h.width == w && h.height == hgt {
		return
	}
	if h.tex != 0 {
		gl.DeleteTextures(1, &h.tex)
	}
	if h.fbo == 0 {
		gl.GenFramebuffers(1, &h.fbo)
	}
	gl.GenTextures(1, &h.tex)
	gl.BindTexture(gl.TEXTURE_2D, h.tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(hgt), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	gl.BindFramebuffer(gl.FRAMEBUFFER, h.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, h.tex, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	h.width, h.height = w, hgt
}

// pushHistory renders srcTex through pass 0's program into a fresh (or
// reused, if the ring is already at MaxHistory) history slot, then
// inserts it at the front. A direct framebuffer blit would be cheaper
// when formats match, but routing through pass 0's program is the only
// path that works uniformly across the RGBA8/RGBA32F/SRGB8_ALPHA8
// framebuffer formats a preset can select.
func (e *Engine) pushHistory(srcTex uint32, w, h int, passZeroProgram uint32) {
	var slot *historyEntry
	if len(e.history) >= MaxHistory {
		slot = e.history[len(e.history)-1]
		e.history = e.history[:len(e.history)-1]
	} else {
		slot = &historyEntry{}
	}
	slot.ensure(w, h)

	gl.BindFramebuffer(gl.FRAMEBUFFER, slot.fbo)
	gl.Viewport(0, 0, int32(w), int32(h))
	gl.ColorMask(true, true, true, true)
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.Disable(gl.BLEND)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)

	gl.UseProgram(passZeroProgram)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, srcTex)
	for _, name := range samplerUniformNames {
		if loc := gl.GetUniformLocation(passZeroProgram, gl.Str(name+"\x00")); loc >= 0 {
			gl.Uniform1i(loc, 0)
			break
		}
	}
	drawQuad(e.quadVAO)

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	e.history = append([]*historyEntry{slot}, e.history...)
}

func (e *Engine) freeHistory() {
	for _, h := range e.history {
		h.free()
	}
	e.history = nil
}
