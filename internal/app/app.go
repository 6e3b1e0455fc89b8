// Package app implements Application Coordination (spec §4.8): it owns
// every other component's lifecycle, runs the single-threaded render
// loop, drives the audio-pump thread, and serializes shader-FBO
// recreation against PBO read issuance across a window resize.
// Grounded on cmd/main.go's runShadertoy orchestration shape (flag-bound
// config → component construction → branch record vs interactive) and
// renderer/renderer_linux.go / renderer_generic.go's platform-conditional
// component wiring, generalized from a fixed Shadertoy scene to an
// arbitrary capture device + shader preset + stream/record sink set.
package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ashgrove/retrocapture/internal/audio"
	"github.com/ashgrove/retrocapture/internal/capture"
	"github.com/ashgrove/retrocapture/internal/config"
	"github.com/ashgrove/retrocapture/internal/glctx"
	"github.com/ashgrove/retrocapture/internal/pbo"
	"github.com/ashgrove/retrocapture/internal/preprocess"
	"github.com/ashgrove/retrocapture/internal/shaderengine"
	"github.com/ashgrove/retrocapture/internal/stream"
	mediasync "github.com/ashgrove/retrocapture/internal/sync"
)

// detectGLContext reports the fixed GL context version glctx's
// providers request (GLFWContext negotiates OpenGL 4.1 core, matching
// the teacher's glfwcontext.Context window hints; HeadlessContext
// negotiates ES3), used to drive preprocess's #version selection.
func detectGLContext(headless bool) preprocess.GLContext {
	if headless {
		return preprocess.GLContext{Major: 3, Minor: 0, ES: true}
	}
	return preprocess.GLContext{Major: 4, Minor: 1}
}

// minDim/maxDim bound the frame dimensions the Application will act on
// (spec §4.8 "Dimensions outside [1x1, 7680x4320] ... skipped").
const (
	minDim = 1
	maxWidth  = 7680
	maxHeight = 4320
)

// resizable is implemented by glctx providers that can deliver resize
// notifications (GLFWContext); HeadlessContext never resizes and need
// not implement it.
type resizable interface {
	SetFramebufferSizeCallback(cb func(w, h int))
}

// Application owns every component spec §4.8 lists and coordinates
// them from a single render-thread loop plus one audio-pump goroutine.
type Application struct {
	cfg *config.Config

	ctx       glctx.Context
	capture   capture.VideoSource
	audioSrc  audio.AudioSource
	processor *capture.FrameProcessor
	engine    *shaderengine.Engine
	pboReader *pbo.Reader
	stream    *stream.Manager

	resizeMu   sync.Mutex
	isResizing atomic.Bool

	streamW, streamH int
	streamActive     bool

	lastFormatW, lastFormatH int
	lastFps                  float64
	lastFrameW, lastFrameH   int

	monitor *audio.SharedAudioBuffer

	runCtx    context.Context
	cancelRun context.CancelFunc
	audioDone chan struct{}
}

// monitorBufferSamples sizes the local-monitor ring at roughly two
// seconds of stereo audio at 44.1kHz, enough for a VU meter or
// waveform consumer to read without racing the pump thread's writes.
const monitorBufferSamples = 44100 * 2 * 2

// New constructs every component per spec §4.8 "init": window/GL
// context, FrameProcessor + ShaderEngine, capture device opened and
// started, optional audio capture, optional StreamManager with an HTTP
// MPEG-TS sink and (if cfg.RecordPath is set) a FileSink alongside it.
//
// videoSrc and audioSrc are caller-supplied (spec §1 "out of scope:
// concrete OS video/audio backends" — this package only coordinates
// against the VideoSource/AudioSource contracts, it never implements
// one); pass capture.NewNullVideoSource() / audio.NewNullAudioSource()
// to run without real hardware.
func New(cfg *config.Config, videoSrc capture.VideoSource, audioSrc audio.AudioSource) (*Application, error) {
	a := &Application{
		cfg:      cfg,
		capture:  videoSrc,
		audioSrc: audioSrc,
	}

	var err error
	if *cfg.Headless {
		a.ctx, err = glctx.NewHeadlessContext(*cfg.Width, *cfg.Height)
	} else {
		a.ctx, err = glctx.NewGLFWContext(*cfg.Width, *cfg.Height, "RetroCapture")
	}
	if err != nil {
		return nil, fmt.Errorf("app: create GL context: %w", err)
	}
	a.ctx.MakeCurrent()

	if r, ok := a.ctx.(resizable); ok {
		r.SetFramebufferSizeCallback(a.onResize)
	}

	a.processor = capture.NewFrameProcessor()
	a.engine = shaderengine.New(detectGLContext(*cfg.Headless))
	a.engine.SetViewport(*cfg.Width, *cfg.Height)
	if *cfg.PresetPath != "" {
		if err := a.engine.LoadPreset(*cfg.PresetPath); err != nil {
			log.Printf("app: preset %q failed to load: %v", *cfg.PresetPath, err)
		}
	}

	a.pboReader = pbo.New()
	a.lastFrameW, a.lastFrameH = *cfg.Width, *cfg.Height
	a.runCtx, a.cancelRun = context.WithCancel(context.Background())

	if err := a.openAndStartCapture(); err != nil {
		a.Shutdown()
		return nil, err
	}

	if a.audioSrc != nil {
		if err := a.audioSrc.Open(*cfg.AudioDevice); err != nil {
			log.Printf("app: audio open failed, continuing without audio: %v", err)
			a.audioSrc = nil
		} else if err := a.audioSrc.StartCapture(); err != nil {
			log.Printf("app: audio start failed, continuing without audio: %v", err)
			a.audioSrc = nil
		}
	}

	sync := mediasync.New(float64(*cfg.Fps))
	a.stream = stream.NewManager(sync, stream.NewTSEncoderSink(sync))
	if *cfg.RecordPath != "" {
		a.stream.AddSink(stream.NewFileSink(sync, *cfg.RecordPath))
	}
	a.streamW, a.streamH = *cfg.StreamWidth, *cfg.StreamHeight

	streamCfg := stream.StreamConfig{
		Port: *cfg.StreamPort, VideoBitrate: *cfg.VideoBitrate, AudioBitrate: *cfg.AudioBitrate,
		Width: a.streamW, Height: a.streamH, Fps: *cfg.Fps,
		AudioSampleRate: 44100, AudioChannels: 2,
	}
	if a.audioSrc != nil {
		streamCfg.AudioSampleRate = a.audioSrc.GetSampleRate()
		streamCfg.AudioChannels = a.audioSrc.GetChannels()
	}
	if err := a.stream.Initialize(streamCfg); err != nil {
		log.Printf("app: stream init failed, streaming disabled: %v", err)
	} else if err := a.stream.Start(); err != nil {
		log.Printf("app: stream start failed: %v", err)
	} else {
		a.streamActive = true
	}

	if a.audioSrc != nil {
		a.monitor = audio.NewSharedAudioBuffer(monitorBufferSamples)
		a.audioDone = make(chan struct{})
		go a.audioPump()
	}

	return a, nil
}

// onResize implements spec §4.8's resize mutex: m_isResizing is set
// true for the duration of the viewport update, blocking PBOReader
// issuance from the render loop (see loop.go's streaming-read guard).
func (a *Application) onResize(w, h int) {
	a.isResizing.Store(true)
	defer a.isResizing.Store(false)

	a.resizeMu.Lock()
	defer a.resizeMu.Unlock()
	a.engine.SetViewport(w, h)
}

// validDims implements spec §4.8/§7 FormatError: dimensions outside
// [1x1, 7680x4320] are invalid and the frame must be skipped.
func validDims(w, h int) bool {
	return w >= minDim && h >= minDim && w <= maxWidth && h <= maxHeight
}

func (a *Application) openAndStartCapture() error {
	if a.capture == nil {
		return nil
	}
	runCtx := context.Background()
	if err := a.capture.Open(runCtx, *a.cfg.VideoDevice); err != nil {
		return fmt.Errorf("app: open capture device: %w", err)
	}
	if err := a.capture.SetFormat(*a.cfg.Width, *a.cfg.Height, capture.PixelFormatYUYV); err != nil {
		return fmt.Errorf("app: set capture format: %w", err)
	}
	if err := a.capture.SetFramerate(float64(*a.cfg.Fps)); err != nil {
		return fmt.Errorf("app: set capture framerate: %w", err)
	}
	if err := a.capture.StartCapture(); err != nil {
		return fmt.Errorf("app: start capture: %w", err)
	}
	a.lastFormatW, a.lastFormatH = *a.cfg.Width, *a.cfg.Height
	a.lastFps = float64(*a.cfg.Fps)
	return nil
}

// Shutdown implements spec §5 "cancellation / shutdown": stop the
// audio pump, stop+cleanup the stream manager, then delete every GL
// object on the render thread.
func (a *Application) Shutdown() {
	if a.cancelRun != nil {
		a.cancelRun()
	}
	if a.audioDone != nil {
		<-a.audioDone
	}
	if a.stream != nil {
		a.stream.Stop()
		a.stream.Cleanup()
	}
	if a.audioSrc != nil {
		a.audioSrc.StopCapture()
		a.audioSrc.Close()
	}
	if a.capture != nil {
		a.capture.StopCapture()
		a.capture.Close()
	}

	if a.pboReader != nil {
		a.pboReader.Close()
	}
	if a.engine != nil {
		a.engine.Close()
	}
	if a.processor != nil {
		a.processor.Close()
	}
	if a.ctx != nil {
		a.ctx.Shutdown()
	}
}

// MonitorSamples returns the most recent count interleaved S16LE
// samples the audio pump has fanned out to the local-monitor buffer
// (e.g. for a host UI VU meter), or nil if no audio source is active.
func (a *Application) MonitorSamples(count int) []int16 {
	if a.monitor == nil {
		return nil
	}
	return a.monitor.ReadLatest(count)
}

// audioPump implements spec §5's audio pump thread: drains AudioSource
// in chunks of up to 2048 samples and fans each chunk, via audio.Tee,
// out to both the stream synchronizer and the local-monitor buffer,
// independent of the render loop's cadence.
func (a *Application) audioPump() {
	defer close(a.audioDone)

	producer := make(chan []int16, 16)
	toStream := make(chan []int16, 16)
	toMonitor := make(chan []int16, 16)
	audio.Tee(producer, toStream, toMonitor)

	done := make(chan struct{})
	go func() {
		defer close(done)
		rate := uint32(a.audioSrc.GetSampleRate())
		channels := uint32(a.audioSrc.GetChannels())
		for chunk := range toStream {
			a.stream.PushAudio(chunk, rate, channels)
		}
	}()
	go func() {
		for chunk := range toMonitor {
			a.monitor.Write(chunk)
		}
	}()

	buf := make([]int16, 2048)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-a.runCtx.Done():
			break loop
		case <-ticker.C:
		}
		n, err := a.audioSrc.GetSamples(buf)
		if err != nil || n == 0 {
			continue
		}
		producer <- append([]int16(nil), buf[:n]...)
	}

	close(producer)
	<-done
}
