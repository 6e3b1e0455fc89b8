package shaderengine

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/png"
	"os"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/ashgrove/retrocapture/internal/preset"
)

// lutTexture is a loaded reference ("LUT") texture bound to its
// declared sampler name every frame (spec §4.3 step 9).
type lutTexture struct {
	id            uint32
	wrapMode      string
	linear        bool
	mipmap        bool
	width, height int32
}

func wrapModeGL(mode string) int32 {
	switch mode {
	case "repeat":
		return gl.REPEAT
	case "clamp_to_border":
		return gl.CLAMP_TO_BORDER
	default:
		return gl.CLAMP_TO_EDGE
	}
}

// loadLUT decodes a PNG reference texture and uploads it per the
// sampler's own filter/wrap/mipmap flags, grounded on the static-image
// texture upload path used elsewhere in this codebase.
func loadLUT(path string, t preset.Texture) (lutTexture, error) {
	f, err := os.Open(path)
	if err != nil {
		return lutTexture{}, fmt.Errorf("open LUT %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return lutTexture{}, fmt.Errorf("decode LUT %s: %w", path, err)
	}

	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, image.Point{}, draw.Src)

	width := int32(rgba.Rect.Dx())
	height := int32(rgba.Rect.Dy())

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))

	filter := int32(gl.NEAREST)
	if t.Linear {
		filter = gl.LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)

	wrap := wrapModeGL(t.WrapMode)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)

	if t.Mipmap {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return lutTexture{id: id, wrapMode: t.WrapMode, linear: t.Linear, mipmap: t.Mipmap, width: width, height: height}, nil
}

func (l lutTexture) free() {
	if l.id != 0 {
		gl.DeleteTextures(1, &l.id)
	}
}
