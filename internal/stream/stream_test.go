package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mediasync "github.com/ashgrove/retrocapture/internal/sync"
)

// fakeSink is a minimal EncoderSink recording calls, for testing Manager
// lifecycle/cooldown logic without any real FFmpeg or HTTP dependency.
type fakeSink struct {
	starts, stops, cleanups int
	startErr                error
}

func (f *fakeSink) SetVideoBitrate(int)           {}
func (f *fakeSink) SetAudioBitrate(int)           {}
func (f *fakeSink) SetVideoCodec(string)          {}
func (f *fakeSink) SetAudioCodec(string)          {}
func (f *fakeSink) SetAudioFormat(int, int)       {}
func (f *fakeSink) SetAudioBufferSize(int)        {}
func (f *fakeSink) Initialize(int, int, int, int) error { return nil }
func (f *fakeSink) Start() error                  { f.starts++; return f.startErr }
func (f *fakeSink) Stop() error                   { f.stops++; return nil }
func (f *fakeSink) Cleanup()                      { f.cleanups++ }
func (f *fakeSink) PushFrame([]byte, int, int)    {}
func (f *fakeSink) PushAudio([]int16)             {}
func (f *fakeSink) GetStreamUrls() []string       { return []string{"http://example/stream.ts"} }
func (f *fakeSink) GetClientCount() int           { return 0 }
func (f *fakeSink) IsActive() bool                { return false }

func TestCanStartStreamingTrueBeforeFirstStart(t *testing.T) {
	m := NewManager(mediasync.New(60))
	assert.True(t, m.CanStartStreaming())
	assert.Zero(t, m.GetStreamingCooldownRemainingMs())
}

func TestStartStopEnforcesCooldown(t *testing.T) {
	sink := &fakeSink{}
	m := NewManager(mediasync.New(60), sink)
	m.SetStartCooldown(50 * time.Millisecond)

	require.NoError(t, m.Start())
	assert.True(t, m.IsActive())
	assert.Equal(t, 1, sink.starts)

	require.NoError(t, m.Stop())
	assert.False(t, m.IsActive())

	assert.False(t, m.CanStartStreaming(), "cooldown should still be in effect immediately after Stop")
	assert.Greater(t, m.GetStreamingCooldownRemainingMs(), int64(0))

	err := m.Start()
	assert.Error(t, err, "Start during cooldown must be refused")
	assert.Equal(t, 1, sink.starts, "refused Start must not call sink.Start again")

	time.Sleep(60 * time.Millisecond)
	assert.True(t, m.CanStartStreaming())
	require.NoError(t, m.Start())
	assert.Equal(t, 2, sink.starts)
}

func TestStartRollsBackAlreadyStartedSinksOnFailure(t *testing.T) {
	good := &fakeSink{}
	bad := &fakeSink{startErr: assert.AnError}
	m := NewManager(mediasync.New(60), good, bad)

	err := m.Start()
	assert.Error(t, err)
	assert.Equal(t, 1, good.starts)
	assert.Equal(t, 1, good.stops, "the already-started sink must be stopped on rollback")
	assert.False(t, m.IsActive())
}

func TestPushFrameOnlyDepositsWhileActive(t *testing.T) {
	sync := mediasync.New(60)
	m := NewManager(sync, &fakeSink{})

	m.PushFrame([]byte{1, 2, 3}, 1, 1)
	assert.Zero(t, sync.VideoBufferSize(), "inactive Manager must not deposit frames")

	require.NoError(t, m.Start())
	m.PushFrame([]byte{1, 2, 3}, 1, 1)
	assert.Equal(t, 1, sync.VideoBufferSize())
}

func TestCleanupCleansEverySink(t *testing.T) {
	a, b := &fakeSink{}, &fakeSink{}
	m := NewManager(mediasync.New(60), a, b)
	m.Cleanup()
	assert.Equal(t, 1, a.cleanups)
	assert.Equal(t, 1, b.cleanups)
}
