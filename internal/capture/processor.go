package capture

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// FrameProcessor owns the single GL texture the capture path uploads
// into every frame (spec §4.4). It must only be touched from the
// render thread.
type FrameProcessor struct {
	tex           uint32
	width, height int
	allocated     bool
}

// NewFrameProcessor creates an unallocated processor; its texture is
// created lazily on the first Upload call.
func NewFrameProcessor() *FrameProcessor {
	return &FrameProcessor{}
}

// Texture returns the GL texture name, 0 if nothing has been uploaded yet.
func (f *FrameProcessor) Texture() uint32 { return f.tex }

// Upload converts frame to RGB24 if needed and uploads it to the owned
// texture, (re)allocating on a dimension change and doing a cheap
// sub-image update otherwise.
func (f *FrameProcessor) Upload(frame Frame) {
	var rgb []byte
	switch frame.Format {
	case PixelFormatYUYV:
		rgb = YUYVToRGB(frame.Data, frame.Width, frame.Height)
	default:
		rgb = frame.Data
	}

	if f.tex == 0 {
		gl.GenTextures(1, &f.tex)
	}
	gl.BindTexture(gl.TEXTURE_2D, f.tex)

	if !f.allocated || f.width != frame.Width || f.height != frame.Height {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB8, int32(frame.Width), int32(frame.Height), 0, gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(rgb))
		f.width, f.height = frame.Width, frame.Height
		f.allocated = true
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(frame.Width), int32(frame.Height), gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(rgb))
	}

	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// Close deletes the owned texture.
func (f *FrameProcessor) Close() {
	if f.tex != 0 {
		gl.DeleteTextures(1, &f.tex)
		f.tex = 0
		f.allocated = false
	}
}
