package pbo

import "unsafe"

// unsafeBytes views a mapped GL buffer pointer as a byte slice of the
// given length, for the read-only copy in GetReadData. The slice is
// only valid until the caller's matching glUnmapBuffer.
func unsafeBytes(ptr unsafe.Pointer, length int) []byte {
	return unsafe.Slice((*byte)(ptr), length)
}
