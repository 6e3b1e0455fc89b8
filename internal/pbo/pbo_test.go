package pbo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowSizePaddedAlignsToFour(t *testing.T) {
	assert.Equal(t, 4, rowSizePadded(1))  // 3 bytes -> padded to 4
	assert.Equal(t, 8, rowSizePadded(2))  // 6 bytes -> padded to 8
	assert.Equal(t, 12, rowSizePadded(4)) // 12 bytes, already aligned
	assert.Equal(t, 300, rowSizePadded(100))
}

func TestSwapIndicesAlternatesAndReturnsToStart(t *testing.T) {
	current, next := 0, 1
	current, next = swapIndices(current, next)
	assert.Equal(t, 1, current)
	assert.Equal(t, 0, next)

	current, next = swapIndices(current, next)
	assert.Equal(t, 0, current)
	assert.Equal(t, 1, next)
}

func TestSwapIndicesNeverReadsBufferJustWritten(t *testing.T) {
	// After N swaps, "next" (what GetReadData maps) must always be the
	// index that was "current" one swap ago, never the one just bound
	// for writing this call.
	current, next := 0, 1
	for i := 0; i < 5; i++ {
		prevCurrent := current
		current, next = swapIndices(current, next)
		assert.Equal(t, prevCurrent, next)
		assert.NotEqual(t, current, next)
	}
}
