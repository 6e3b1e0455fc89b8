package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstantsMatchContract(t *testing.T) {
	assert.EqualValues(t, 200_000, SyncToleranceUs)
	assert.EqualValues(t, 5_000_000, MaxBufferTimeUs)
	assert.EqualValues(t, 100_000, MinBufferTimeUs)
	assert.Equal(t, 15, MaxVideoBuffer)
	assert.Equal(t, 30, MaxAudioBuffer)
}

func TestInvalidZoneWhenEitherDequeEmpty(t *testing.T) {
	s := New(0)
	assert.False(t, s.CalculateSyncZone().Valid())

	s.AddVideoFrame([]byte{1, 2, 3}, 1, 1, 0)
	assert.False(t, s.CalculateSyncZone().Valid())
}

func TestSyncZoneScenarioS4(t *testing.T) {
	s := New(0)
	s.AddVideoFrame([]byte{0}, 1, 1, 0)
	s.AddVideoFrame([]byte{0}, 1, 1, 33_333)
	s.AddVideoFrame([]byte{0}, 1, 1, 66_666)

	s.AddAudioChunk(make([]int16, 1024), 1024, 0, 44_100, 1)
	s.AddAudioChunk(make([]int16, 1024), 1024, 23_220, 44_100, 1)
	s.AddAudioChunk(make([]int16, 1024), 1024, 46_440, 44_100, 1)

	zone := s.CalculateSyncZone()
	require.True(t, zone.Valid())
	assert.EqualValues(t, 0, zone.StartTimeUs)
	assert.EqualValues(t, 66_666, zone.EndTimeUs)
	assert.LessOrEqual(t, zone.EndTimeUs, int64(69_660))

	assert.Equal(t, 0, zone.VideoStartIdx)
	assert.Equal(t, 3, zone.VideoEndIdx)
	assert.Equal(t, 0, zone.AudioStartIdx)
	assert.Equal(t, 3, zone.AudioEndIdx)
}

func TestVideoBufferDropsOldestWhenFull(t *testing.T) {
	s := New(0)
	for i := 0; i < MaxVideoBuffer+5; i++ {
		s.AddVideoFrame([]byte{byte(i)}, 1, 1, int64(i))
	}
	assert.Equal(t, MaxVideoBuffer, s.VideoBufferSize())
	frames := s.GetVideoFrames(SyncZone{VideoStartIdx: 0, VideoEndIdx: MaxVideoBuffer})
	require.Len(t, frames, MaxVideoBuffer)
	assert.EqualValues(t, 5, frames[0].TimestampUs) // oldest 5 entries evicted
}

func TestLatestTimestampsAreMonotonicUnderAppend(t *testing.T) {
	s := New(0)
	var prev int64 = -1
	for i := int64(0); i < 10; i++ {
		s.AddVideoFrame([]byte{0}, 1, 1, i*1000)
		cur := s.LatestVideoTimestampUs()
		assert.Greater(t, cur, prev)
		prev = cur
	}
}

func TestMarkProcessedAndCleanupRemovesOldEntries(t *testing.T) {
	s := New(0)
	s.AddVideoFrame([]byte{0}, 1, 1, 0)
	s.AddVideoFrame([]byte{0}, 1, 1, 10_000_000)

	s.MarkVideoProcessed(0, 1)
	s.CleanupOldData(10_000_000, SyncZone{StartTimeUs: 5_000_000})

	assert.Equal(t, 1, s.VideoBufferSize())
}
