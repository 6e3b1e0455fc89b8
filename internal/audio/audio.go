// Package audio defines the audio capture contract (spec §6 AudioSource)
// and a PortAudio-backed implementation, alongside the shared circular
// buffer and fan-out broadcast pattern the audio pump thread uses to
// hand samples to more than one consumer (the media synchronizer and,
// optionally, local monitoring).
package audio

import "fmt"

// AudioSource is the capture contract the Application's audio pump
// thread drains from (spec §6). Samples are interleaved S16LE.
type AudioSource interface {
	// Open opens deviceName, or the default input/monitor source if
	// deviceName is empty (the PulseAudio convention the source follows).
	Open(deviceName string) error
	StartCapture() error
	StopCapture() error
	Close() error

	// GetSamples is non-blocking: it copies up to maxSamples interleaved
	// S16LE samples into buf and returns how many were actually available.
	GetSamples(buf []int16) (n int, err error)

	GetSampleRate() int
	GetChannels() int
}

// DeviceError wraps an audio device open/start failure (spec §7 DeviceError).
type DeviceError struct {
	Device string
	Op     string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio %s: %s: %v", e.Device, e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
