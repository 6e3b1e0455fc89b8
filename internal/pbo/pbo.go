// Package pbo implements the double-buffered PBO reader spec §4.5
// describes: asynchronous glReadPixels via two alternating pixel-pack
// buffers. The package has no synchronous glReadPixels path of its own;
// when the host GL doesn't support PBOs, Init reports false.
package pbo

import (
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// rowSizePadded returns the 4-byte-aligned row size glReadPixels uses
// for a GL_RGB/GL_UNSIGNED_BYTE row of the given pixel width.
func rowSizePadded(width int) int {
	unpadded := width * 3
	return ((unpadded + 3) / 4) * 4
}

// swapIndices alternates the current/next PBO indices: each call to
// StartAsyncRead reads into what was "next," and GetReadData always
// maps what is now "next" (the buffer issued on the previous call),
// guaranteeing getReadData never reads a transfer started this frame.
func swapIndices(current, next int) (int, int) {
	return next, current
}

// Reader is a double-buffered PBO pixel reader. It must only be driven
// from the render thread; its mutex exists only to serialize against a
// concurrent resize/shutdown racing the render loop, not to allow
// cross-thread GL calls.
type Reader struct {
	mu sync.Mutex

	initialized   bool
	width, height int
	bufferSize    int

	pbo        [2]uint32
	current    int
	next       int
}

// New returns an uninitialized Reader. Call Init before use.
func New() *Reader { return &Reader{current: 0, next: 1} }

// Init allocates both PBOs for width x height. It returns false (per
// spec §4.5) when the host GL doesn't support pixel-pack buffer
// objects.
func (r *Reader) Init(width, height int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		r.resizeLocked(width, height)
		return true
	}

	r.width, r.height = width, height
	r.bufferSize = rowSizePadded(width) * height

	if !r.createPBOs() {
		return false
	}
	r.initialized = true
	return true
}

// Close deletes both PBOs.
func (r *Reader) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletePBOs()
	r.initialized = false
	r.width, r.height, r.bufferSize = 0, 0, 0
}

// IsInitialized reports whether Init succeeded and Close hasn't run.
func (r *Reader) IsInitialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// ResizeIfNeeded reallocates the PBOs when width/height changed.
func (r *Reader) ResizeIfNeeded(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resizeLocked(width, height)
}

func (r *Reader) resizeLocked(width, height int) {
	if r.width == width && r.height == height && r.initialized {
		return
	}
	r.deletePBOs()
	r.width, r.height = width, height
	r.bufferSize = rowSizePadded(width) * height
	if !r.createPBOs() {
		r.initialized = false
		return
	}
	r.initialized = true
}

// StartAsyncRead swaps current/next, binds the new current buffer and
// issues a glReadPixels that returns immediately (spec §4.5).
func (r *Reader) StartAsyncRead(x, y, width, height int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return false
	}
	if width != r.width || height != r.height {
		r.resizeLocked(width, height)
		if !r.initialized {
			return false
		}
	}

	r.current, r.next = swapIndices(r.current, r.next)

	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, r.pbo[r.current])
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), gl.RGB, gl.UNSIGNED_BYTE, nil)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	return true
}

// GetReadData binds the other buffer (the one StartAsyncRead issued on
// the previous call), maps it read-only and copies rows bottom-up into
// top-down dst, accounting for 4-byte row padding.
func (r *Reader) GetReadData(dst []byte, width, height int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized || dst == nil {
		return false
	}
	if width != r.width || height != r.height {
		return false
	}

	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, r.pbo[r.next])
	ptr := gl.MapBuffer(gl.PIXEL_PACK_BUFFER, gl.READ_ONLY)
	if ptr == nil {
		gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
		return false
	}

	rowUnpadded := width * 3
	rowPadded := rowSizePadded(width)
	src := unsafeBytes(ptr, rowPadded*height)

	for row := 0; row < height; row++ {
		srcRow := height - 1 - row
		copy(dst[row*rowUnpadded:row*rowUnpadded+rowUnpadded], src[srcRow*rowPadded:srcRow*rowPadded+rowUnpadded])
	}

	gl.UnmapBuffer(gl.PIXEL_PACK_BUFFER)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	return true
}

func (r *Reader) createPBOs() bool {
	gl.GenBuffers(2, &r.pbo[0])
	if r.pbo[0] == 0 || r.pbo[1] == 0 {
		return false
	}
	for i := 0; i < 2; i++ {
		gl.BindBuffer(gl.PIXEL_PACK_BUFFER, r.pbo[i])
		gl.BufferData(gl.PIXEL_PACK_BUFFER, r.bufferSize, nil, gl.STREAM_READ)
	}
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	return true
}

func (r *Reader) deletePBOs() {
	if r.pbo[0] != 0 || r.pbo[1] != 0 {
		gl.DeleteBuffers(2, &r.pbo[0])
		r.pbo[0], r.pbo[1] = 0, 0
	}
}
