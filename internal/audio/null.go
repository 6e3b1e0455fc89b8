package audio

// NullAudioSource is a silent AudioSource, used when no audio input is
// configured, adapted from the teacher's NullDevice fallback for a
// no-audio-flags run.
type NullAudioSource struct {
	sampleRate int
	channels   int
}

func NewNullAudioSource(sampleRate, channels int) *NullAudioSource {
	return &NullAudioSource{sampleRate: sampleRate, channels: channels}
}

func (n *NullAudioSource) Open(deviceName string) error { return nil }
func (n *NullAudioSource) StartCapture() error           { return nil }
func (n *NullAudioSource) StopCapture() error             { return nil }
func (n *NullAudioSource) Close() error                   { return nil }

// GetSamples never has data: the null source reads as silence, not as
// an error.
func (n *NullAudioSource) GetSamples(buf []int16) (int, error) { return 0, nil }

func (n *NullAudioSource) GetSampleRate() int { return n.sampleRate }
func (n *NullAudioSource) GetChannels() int   { return n.channels }
