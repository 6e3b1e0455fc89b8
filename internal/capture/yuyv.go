package capture

// clampByte clamps v to [0,255] the way the source's integer pixel math
// expects, rather than wrapping on overflow.
func clampByte(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// YUYVToRGB converts a packed YUYV buffer (width x height, 2 bytes/pixel)
// to tightly packed RGB24, using the same ITU-R BT.601 conversion the
// source applies (spec §4.4). Two pixels share one (U,V) sample; a
// single 4-byte YUYV group yields two RGB pixels in scanline order.
func YUYVToRGB(src []byte, width, height int) []byte {
	dst := make([]byte, width*height*3)
	rowBytes := width * 2

	for y := 0; y < height; y++ {
		srcRow := src[y*rowBytes:]
		dstRow := dst[y*width*3:]

		for x := 0; x+3 < rowBytes; x += 4 {
			y0 := int32(srcRow[x])
			u := int32(srcRow[x+1])
			y1 := int32(srcRow[x+2])
			v := int32(srcRow[x+3])

			d := u - 128
			e := v - 128

			writePixel(dstRow, (x/4)*6, y0, d, e)
			writePixel(dstRow, (x/4)*6+3, y1, d, e)
		}
	}
	return dst
}

func writePixel(dst []byte, off int, y, d, e int32) {
	c := y - 16
	r := (298*c + 409*e + 128) >> 8
	g := (298*c - 100*d - 208*e + 128) >> 8
	b := (298*c + 516*d + 128) >> 8

	dst[off] = clampByte(r)
	dst[off+1] = clampByte(g)
	dst[off+2] = clampByte(b)
}
