package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYUYVToRGBBlack(t *testing.T) {
	src := []byte{0x10, 0x80, 0x10, 0x80}
	rgb := YUYVToRGB(src, 2, 1)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0}, rgb)
}

func TestYUYVToRGBWhite(t *testing.T) {
	src := []byte{0xEB, 0x80, 0xEB, 0x80}
	rgb := YUYVToRGB(src, 2, 1)
	for _, c := range rgb {
		assert.InDelta(t, 255, int(c), 1)
	}
}

func TestYUYVToRGBScanlineOrder(t *testing.T) {
	// Two rows, one 4-byte group each: row 0 dark, row 1 bright.
	src := []byte{
		0x10, 0x80, 0x10, 0x80,
		0xEB, 0x80, 0xEB, 0x80,
	}
	rgb := YUYVToRGB(src, 2, 2)
	assert.Equal(t, 6, len(rgb)/2)
	assert.Equal(t, byte(0), rgb[0])
	assert.InDelta(t, 255, int(rgb[6]), 1)
}
