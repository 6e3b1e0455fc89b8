package audio

import (
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource is the real microphone/monitor-source AudioSource,
// adapted to the S16LE interleaved contract the synchronizer expects:
// PortAudio delivers float32 [-1,1] samples in its callback, converted
// to int16 before landing in the shared buffer.
type PortAudioSource struct {
	sampleRate int
	channels   int

	stream      *portaudio.Stream
	buf         *SharedAudioBuffer
	readCursor  int64
	mu          sync.Mutex
	isStreaming bool
}

// NewPortAudioSource creates a source at the given sample rate/channel
// count. The buffer holds 5 seconds of audio, matching the depth the
// FFmpeg-based device in this codebase's pack sizes its own buffer to.
func NewPortAudioSource(sampleRate, channels int) *PortAudioSource {
	return &PortAudioSource{
		sampleRate: sampleRate,
		channels:   channels,
		buf:        NewSharedAudioBuffer(sampleRate * channels * 5),
	}
}

func (s *PortAudioSource) Open(deviceName string) error {
	if err := portaudio.Initialize(); err != nil {
		return &DeviceError{Device: deviceName, Op: "open", Err: err}
	}
	return nil
}

func (s *PortAudioSource) callback(in []float32) {
	out := make([]int16, len(in))
	for i, v := range in {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = int16(v * 32767)
	}
	s.buf.Write(out)
}

func (s *PortAudioSource) StartCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	host, err := portaudio.DefaultHostApi()
	if err != nil {
		return &DeviceError{Op: "startCapture", Err: err}
	}

	params := portaudio.HighLatencyParameters(host.DefaultInputDevice, nil)
	params.Input.Channels = s.channels
	params.SampleRate = float64(s.sampleRate)

	stream, err := portaudio.OpenStream(params, s.callback)
	if err != nil {
		return &DeviceError{Op: "startCapture", Err: fmt.Errorf("open stream: %w", err)}
	}
	if err := stream.Start(); err != nil {
		return &DeviceError{Op: "startCapture", Err: fmt.Errorf("start stream: %w", err)}
	}

	s.stream = stream
	s.isStreaming = true
	return nil
}

func (s *PortAudioSource) StopCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isStreaming {
		return nil
	}
	s.isStreaming = false
	if s.stream == nil {
		return nil
	}
	if err := s.stream.Stop(); err != nil {
		log.Printf("audio: stream stop: %v", err)
	}
	return s.stream.Close()
}

func (s *PortAudioSource) Close() error {
	return portaudio.Terminate()
}

func (s *PortAudioSource) GetSamples(buf []int16) (int, error) {
	return s.buf.DrainSince(&s.readCursor, buf), nil
}

func (s *PortAudioSource) GetSampleRate() int { return s.sampleRate }
func (s *PortAudioSource) GetChannels() int   { return s.channels }
