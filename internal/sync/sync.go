// Package sync implements the media synchronizer spec §4.6 describes:
// two time-ordered, independently mutex-guarded deques of captured
// video frames and audio chunks, and the sync-zone arithmetic an
// encoder worker uses to pull a matched slice of both to mux together.
package sync

import (
	stdsync "sync"
)

// Tuning parameters, exact values per spec §4.6.
const (
	SyncToleranceUs = 200_000
	MaxBufferTimeUs = 5_000_000
	MinBufferTimeUs = 100_000
	MaxVideoBuffer  = 15
	MaxAudioBuffer  = 30
)

// VideoFrame is one timestamped, owned-copy video frame in the video deque.
type VideoFrame struct {
	Data          []byte
	Width, Height int
	TimestampUs   int64
	Processed     bool
}

// AudioChunk is one timestamped, owned-copy audio chunk in the audio deque.
type AudioChunk struct {
	Samples     []int16
	SampleRate  uint32
	Channels    uint32
	TimestampUs int64
	DurationUs  int64
	Processed   bool
}

// SyncZone is a half-open time interval plus the half-open [start,end)
// index ranges into each deque that fall within it. A zone is valid iff start<end
// and both index ranges are non-empty (spec GLOSSARY).
type SyncZone struct {
	StartTimeUs, EndTimeUs             int64
	VideoStartIdx, VideoEndIdx         int
	AudioStartIdx, AudioEndIdx         int
}

// Valid reports whether the zone spans real time and covers at least
// one entry in each deque.
func (z SyncZone) Valid() bool {
	return z.StartTimeUs < z.EndTimeUs &&
		z.VideoEndIdx > z.VideoStartIdx &&
		z.AudioEndIdx > z.AudioStartIdx
}

// InvalidSyncZone returns the canonical invalid zone.
func InvalidSyncZone() SyncZone {
	return SyncZone{}
}

// Synchronizer holds the video and audio deques under independent
// mutexes (spec §4.6, §5 "Shared-resource policy").
type Synchronizer struct {
	videoMu               stdsync.Mutex
	video                 []VideoFrame
	latestVideoTimestampUs int64

	audioMu               stdsync.Mutex
	audio                 []AudioChunk
	latestAudioTimestampUs int64

	// fpsEstimate is used to extend the last video frame's coverage by
	// one frame period when computing a sync zone's end time.
	fpsEstimate float64
}

// New creates a Synchronizer. fpsEstimate should track the capture
// framerate once known; pass 0 if it isn't yet (CalculateSyncZone then
// treats the last video frame's coverage window as zero-width instead
// of guessing).
func New(fpsEstimate float64) *Synchronizer {
	return &Synchronizer{fpsEstimate: fpsEstimate}
}

// SetFpsEstimate updates the frame-period assumption CalculateSyncZone uses.
func (s *Synchronizer) SetFpsEstimate(fps float64) {
	if fps > 0 {
		s.fpsEstimate = fps
	}
}

// AddVideoFrame copies data into an owned buffer and appends it,
// dropping the oldest entry if the deque exceeds MaxVideoBuffer.
func (s *Synchronizer) AddVideoFrame(data []byte, width, height int, tsUs int64) {
	owned := make([]byte, len(data))
	copy(owned, data)

	s.videoMu.Lock()
	defer s.videoMu.Unlock()

	s.video = append(s.video, VideoFrame{Data: owned, Width: width, Height: height, TimestampUs: tsUs})
	if len(s.video) > MaxVideoBuffer {
		s.video = s.video[1:]
	}
	s.latestVideoTimestampUs = tsUs
}

// AddAudioChunk copies samples into an owned buffer, computes the
// chunk's duration from sampleCount/sampleRate per channel, and appends
// it, trimming the deque like AddVideoFrame.
func (s *Synchronizer) AddAudioChunk(samples []int16, sampleCount int, tsUs int64, sampleRate, channels uint32) {
	owned := make([]int16, sampleCount)
	copy(owned, samples[:sampleCount])

	var durationUs int64
	if sampleRate > 0 && channels > 0 {
		framesPerChannel := float64(sampleCount) / float64(channels)
		durationUs = int64(framesPerChannel / float64(sampleRate) * 1e6)
	}

	s.audioMu.Lock()
	defer s.audioMu.Unlock()

	s.audio = append(s.audio, AudioChunk{
		Samples: owned, SampleRate: sampleRate, Channels: channels,
		TimestampUs: tsUs, DurationUs: durationUs,
	})
	if len(s.audio) > MaxAudioBuffer {
		s.audio = s.audio[1:]
	}
	s.latestAudioTimestampUs = tsUs
}
