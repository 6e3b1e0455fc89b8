// Package stream implements the Stream Manager & Encoder Sinks spec §4.7
// describes: a StreamManager owning one or more EncoderSink instances,
// a start-cooldown gate, and two concrete sinks — an HTTP MPEG-TS sink
// (the default, cgo FFmpeg) and a disk-recording file sink (spec §1's
// "secondary function records to disk").
package stream

import (
	"fmt"
	"sync"
	"time"

	mediasync "github.com/ashgrove/retrocapture/internal/sync"
)

// StreamConfig mirrors spec §3's StreamConfig data-model entry.
type StreamConfig struct {
	Port            int
	VideoCodec      string // "h264", "h265", "vp8", "vp9", "mpeg2video"
	AudioCodec      string // "aac", "mp3", "opus"
	VideoBitrate    int
	AudioBitrate    int
	Width, Height   int
	Fps             int
	AudioSampleRate int
	AudioChannels   int
	Preset          string
	Profile         string
	Level           string
	AudioBufferFrames int
}

// EncoderSink is the consumed collaborator spec §6 describes: a sink
// StreamManager drives with non-blocking frame/audio pushes.
type EncoderSink interface {
	SetVideoBitrate(bps int)
	SetAudioBitrate(bps int)
	SetVideoCodec(tag string)
	SetAudioCodec(tag string)
	SetAudioFormat(rate, channels int)
	SetAudioBufferSize(frames int)

	Initialize(port, width, height, fps int) error
	Start() error
	Stop() error
	Cleanup()

	PushFrame(rgb []byte, width, height int)
	PushAudio(samples []int16)

	GetStreamUrls() []string
	GetClientCount() int
	IsActive() bool
}

// DefaultStartCooldown is the Open Question decision (spec §9): the
// source does not specify an exact cooldown duration, only that one
// exists on the order of seconds. Three seconds is long enough for a
// just-stopped TS muxer to flush its output sockets/file handles
// before a restart is attempted, short enough not to frustrate an
// operator retrying a failed start.
const DefaultStartCooldown = 3 * time.Second

// Manager owns >=1 EncoderSinks (spec §4.7), the MediaSynchronizer that
// feeds them (spec §2 data flow: PushFrame/PushAudio deposit into the
// synchronizer; each sink's own worker independently drains it), and
// gates Start() with the cooldown spec §4.7 "Start-cooldown" requires.
type Manager struct {
	mu          sync.Mutex
	sinks       []EncoderSink
	active      bool
	cooldown    time.Duration
	lastStopAt  time.Time
	everStopped bool

	sync  *mediasync.Synchronizer
	start time.Time
}

// NewManager returns a Manager owning the given sinks, backed by sync
// for A/V alignment (spec §4.6). At least one sink should be supplied
// (the HTTP MPEG-TS sink by default); a FileSink may be added alongside
// it for simultaneous disk recording.
func NewManager(sync *mediasync.Synchronizer, sinks ...EncoderSink) *Manager {
	return &Manager{sinks: sinks, cooldown: DefaultStartCooldown, sync: sync, start: time.Now()}
}

// Synchronizer returns the Manager's MediaSynchronizer, for sinks
// constructed separately and later attached with AddSink, and for the
// Application's audio pump / render loop to feed directly.
func (m *Manager) Synchronizer() *mediasync.Synchronizer { return m.sync }

// nowUs returns a monotonic capture timestamp in microseconds, relative
// to Manager construction (spec §4.6 "Clock. now_us() is monotonic").
func (m *Manager) nowUs() int64 { return time.Since(m.start).Microseconds() }

// SetStartCooldown overrides the default cooldown duration.
func (m *Manager) SetStartCooldown(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cooldown = d
}

// AddSink attaches another sink. Sinks added after Initialize must be
// Initialize'd by the caller separately; Manager does not retroactively
// re-Initialize existing sinks.
func (m *Manager) AddSink(sink EncoderSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, sink)
}

// Initialize configures every owned sink from cfg.
func (m *Manager) Initialize(cfg StreamConfig) error {
	m.mu.Lock()
	sinks := append([]EncoderSink(nil), m.sinks...)
	m.mu.Unlock()

	for i, s := range sinks {
		s.SetVideoBitrate(cfg.VideoBitrate)
		s.SetAudioBitrate(cfg.AudioBitrate)
		if cfg.VideoCodec != "" {
			s.SetVideoCodec(cfg.VideoCodec)
		}
		if cfg.AudioCodec != "" {
			s.SetAudioCodec(cfg.AudioCodec)
		}
		s.SetAudioFormat(cfg.AudioSampleRate, cfg.AudioChannels)
		if cfg.AudioBufferFrames > 0 {
			s.SetAudioBufferSize(cfg.AudioBufferFrames)
		}
		if err := s.Initialize(cfg.Port, cfg.Width, cfg.Height, cfg.Fps); err != nil {
			return fmt.Errorf("stream: initialize sink %d: %w", i, err)
		}
	}
	return nil
}

// CanStartStreaming reports whether Start() would be allowed right now
// (spec §4.7 "canStartStreaming").
func (m *Manager) CanStartStreaming() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canStartLocked()
}

func (m *Manager) canStartLocked() bool {
	if m.active {
		return false
	}
	if !m.everStopped {
		return true
	}
	return time.Since(m.lastStopAt) >= m.cooldown
}

// GetStreamingCooldownRemainingMs reports milliseconds remaining before
// Start() is allowed again, 0 if it is already allowed.
func (m *Manager) GetStreamingCooldownRemainingMs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.everStopped {
		return 0
	}
	remaining := m.cooldown - time.Since(m.lastStopAt)
	if remaining <= 0 {
		return 0
	}
	return remaining.Milliseconds()
}

// Start starts every owned sink, refusing if the cooldown hasn't
// elapsed (spec property 10).
func (m *Manager) Start() error {
	m.mu.Lock()
	if !m.canStartLocked() {
		m.mu.Unlock()
		return fmt.Errorf("stream: cannot start, %dms of cooldown remaining", m.GetStreamingCooldownRemainingMs())
	}
	sinks := append([]EncoderSink(nil), m.sinks...)
	m.mu.Unlock()

	for i, s := range sinks {
		if err := s.Start(); err != nil {
			// Roll back any sink already started this call.
			for j := 0; j < i; j++ {
				sinks[j].Stop()
			}
			return fmt.Errorf("stream: start sink %d: %w", i, err)
		}
	}

	m.mu.Lock()
	m.active = true
	m.mu.Unlock()
	return nil
}

// Stop stops every owned sink and begins the start-cooldown window.
func (m *Manager) Stop() error {
	m.mu.Lock()
	sinks := append([]EncoderSink(nil), m.sinks...)
	m.mu.Unlock()

	var firstErr error
	for _, s := range sinks {
		if err := s.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	m.mu.Lock()
	m.active = false
	m.everStopped = true
	m.lastStopAt = time.Now()
	m.mu.Unlock()
	return firstErr
}

// Cleanup releases every sink's resources. Call after Stop, at shutdown.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	sinks := append([]EncoderSink(nil), m.sinks...)
	m.mu.Unlock()
	for _, s := range sinks {
		s.Cleanup()
	}
}

// PushFrame deposits a composited RGB frame into the synchronizer with
// a capture timestamp of now (spec §4.7 "pushFrame(bytes,w,h) — non-
// blocking enqueue"). Each sink's own worker drains the synchronizer
// independently; this call never touches a sink directly.
func (m *Manager) PushFrame(rgb []byte, width, height int) {
	m.mu.Lock()
	active := m.active
	m.mu.Unlock()
	if !active || m.sync == nil {
		return
	}
	m.sync.AddVideoFrame(rgb, width, height, m.nowUs())
}

// PushAudio deposits interleaved S16LE samples into the synchronizer.
// Unlike EncoderSink.PushAudio (which reads the rate/channels a sink
// was configured with via SetAudioFormat), Manager has no single
// configured format of its own, so the Application passes the capture
// format it actually has in hand on every call.
func (m *Manager) PushAudio(samples []int16, sampleRate, channels uint32) {
	m.mu.Lock()
	active := m.active
	m.mu.Unlock()
	if !active || m.sync == nil {
		return
	}
	m.sync.AddAudioChunk(samples, len(samples), m.nowUs(), sampleRate, channels)
}

// IsActive reports whether Start has succeeded and Stop hasn't run since.
func (m *Manager) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// GetTotalClientCount sums GetClientCount across every owned sink.
func (m *Manager) GetTotalClientCount() int {
	m.mu.Lock()
	sinks := append([]EncoderSink(nil), m.sinks...)
	m.mu.Unlock()
	total := 0
	for _, s := range sinks {
		total += s.GetClientCount()
	}
	return total
}

// GetStreamUrls aggregates every owned sink's advertised URLs.
func (m *Manager) GetStreamUrls() []string {
	m.mu.Lock()
	sinks := append([]EncoderSink(nil), m.sinks...)
	m.mu.Unlock()
	var urls []string
	for _, s := range sinks {
		urls = append(urls, s.GetStreamUrls()...)
	}
	return urls
}
