package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedAudioBufferWriteAndReadLatest(t *testing.T) {
	b := NewSharedAudioBuffer(8)
	b.Write([]int16{1, 2, 3, 4, 5})
	assert.Equal(t, []int16{3, 4, 5}, b.ReadLatest(3))
	assert.Equal(t, int64(5), b.TotalSamplesWritten())
}

func TestSharedAudioBufferWrapsOnOverflow(t *testing.T) {
	b := NewSharedAudioBuffer(4)
	b.Write([]int16{1, 2, 3, 4, 5, 6})
	assert.Equal(t, []int16{3, 4, 5, 6}, b.ReadLatest(4))
}

func TestDrainSinceNeverRepeatsASample(t *testing.T) {
	b := NewSharedAudioBuffer(16)
	var cursor int64

	b.Write([]int16{1, 2, 3})
	dst := make([]int16, 8)
	n := b.DrainSince(&cursor, dst)
	require.Equal(t, 3, n)
	assert.Equal(t, []int16{1, 2, 3}, dst[:n])

	n = b.DrainSince(&cursor, dst)
	assert.Equal(t, 0, n)

	b.Write([]int16{4, 5})
	n = b.DrainSince(&cursor, dst)
	require.Equal(t, 2, n)
	assert.Equal(t, []int16{4, 5}, dst[:n])
}

func TestDrainSinceResyncsWhenReaderFallsBehind(t *testing.T) {
	b := NewSharedAudioBuffer(4)
	var cursor int64

	b.Write([]int16{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	dst := make([]int16, 4)
	n := b.DrainSince(&cursor, dst)
	require.Equal(t, 4, n)
	assert.Equal(t, []int16{7, 8, 9, 10}, dst[:n])
}

func TestTeeBroadcastsToAllOutputs(t *testing.T) {
	in := make(chan []int16, 1)
	outA := make(chan []int16, 1)
	outB := make(chan []int16, 1)

	Tee(in, outA, outB)
	in <- []int16{1, 2, 3}
	close(in)

	select {
	case got := <-outA:
		assert.Equal(t, []int16{1, 2, 3}, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outA")
	}
	select {
	case got := <-outB:
		assert.Equal(t, []int16{1, 2, 3}, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outB")
	}

	_, ok := <-outA
	assert.False(t, ok)
}
