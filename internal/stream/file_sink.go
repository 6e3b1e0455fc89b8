package stream

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	mediasync "github.com/ashgrove/retrocapture/internal/sync"
)

// FileSink is the secondary disk-recording EncoderSink spec §1's
// "secondary function records to disk" names: it drains the same
// MediaSynchronizer a TSEncoderSink would, and muxes video+audio to a
// local file through an ffmpeg-go pipeline, adapted from
// renderer/offscreen.go's RunOffscreen (raw rawvideo pipe into ffmpeg)
// extended with a second, audio, input fed through a named pipe since
// ffmpeg-go only exposes a single stdin pipe per command.
type FileSink struct {
	mu   sync.Mutex
	cfg  pendingConfig
	path string

	sync *mediasync.Synchronizer

	width, height, fps int

	videoPipeR *io.PipeReader
	videoPipeW *io.PipeWriter
	audioFifo  string
	audioFile  *os.File

	started int32
	stopCh  chan struct{}
	doneCh  chan struct{}
	errc    chan error

	start time.Time
	urls  []string
}

// NewFileSink creates a FileSink writing to outputPath, draining sync.
func NewFileSink(sync *mediasync.Synchronizer, outputPath string) *FileSink {
	return &FileSink{
		sync: sync,
		path: outputPath,
		cfg:  pendingConfig{videoBitrate: 8_000_000, audioBitrate: 192_000, videoCodec: "h264", audioCodec: "aac", audioRate: 44100, audioChans: 2},
	}
}

func (f *FileSink) SetVideoBitrate(bps int)   { f.mu.Lock(); f.cfg.videoBitrate = bps; f.mu.Unlock() }
func (f *FileSink) SetAudioBitrate(bps int)   { f.mu.Lock(); f.cfg.audioBitrate = bps; f.mu.Unlock() }
func (f *FileSink) SetVideoCodec(tag string)  { f.mu.Lock(); f.cfg.videoCodec = tag; f.mu.Unlock() }
func (f *FileSink) SetAudioCodec(tag string)  { f.mu.Lock(); f.cfg.audioCodec = tag; f.mu.Unlock() }
func (f *FileSink) SetAudioFormat(rate, channels int) {
	f.mu.Lock()
	f.cfg.audioRate, f.cfg.audioChans = rate, channels
	f.mu.Unlock()
}
func (f *FileSink) SetAudioBufferSize(frames int) {
	f.mu.Lock()
	f.cfg.audioBufFrames = frames
	f.mu.Unlock()
}

// Initialize records the frame geometry; the ffmpeg-go pipeline and
// the audio FIFO aren't created until Start, so a FileSink sitting idle
// holds no OS resources.
func (f *FileSink) Initialize(port, width, height, fps int) error {
	f.width, f.height, f.fps = width, height, fps
	return nil
}

// Start creates the audio FIFO, launches the ffmpeg-go process in the
// background, and begins the drain worker.
func (f *FileSink) Start() error {
	if !atomic.CompareAndSwapInt32(&f.started, 0, 1) {
		return nil
	}
	f.start = time.Now()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("file sink: create output dir: %w", err)
	}

	f.audioFifo = filepath.Join(os.TempDir(), fmt.Sprintf("retrocapture-audio-%d.pcm", time.Now().UnixNano()))
	if err := syscall.Mkfifo(f.audioFifo, 0o600); err != nil {
		return fmt.Errorf("file sink: create audio fifo: %w", err)
	}

	f.videoPipeR, f.videoPipeW = io.Pipe()

	f.mu.Lock()
	cfg := f.cfg
	f.mu.Unlock()

	videoIn := ffmpeg.Input("pipe:0", ffmpeg.KwArgs{
		"format":  "rawvideo",
		"pix_fmt": "rgb24",
		"s":       fmt.Sprintf("%dx%d", f.width, f.height),
		"r":       fmt.Sprintf("%d", f.fps),
	})
	audioIn := ffmpeg.Input(f.audioFifo, ffmpeg.KwArgs{
		"format":   "s16le",
		"ar":       fmt.Sprintf("%d", cfg.audioRate),
		"ac":       fmt.Sprintf("%d", cfg.audioChans),
	})

	cmd := ffmpeg.Output([]*ffmpeg.Stream{videoIn, audioIn}, f.path, ffmpeg.KwArgs{
		"c:v":     libavNameFor(cfg.videoCodec),
		"b:v":     fmt.Sprintf("%d", cfg.videoBitrate),
		"c:a":     audioEncoderName(cfg.audioCodec),
		"b:a":     fmt.Sprintf("%d", cfg.audioBitrate),
		"pix_fmt": "yuv420p",
	}).OverWriteOutput().WithInput(f.videoPipeR).ErrorToStdOut()

	f.errc = make(chan error, 1)
	go func() { f.errc <- cmd.Run() }()

	var err error
	f.audioFile, err = os.OpenFile(f.audioFifo, os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("file sink: open audio fifo for writing: %w", err)
	}

	f.stopCh = make(chan struct{})
	f.doneCh = make(chan struct{})
	go f.run()
	return nil
}

// libavNameFor maps the short codec tag to an ffmpeg CLI-level encoder
// name (used by the ffmpeg-go path, unlike TSEncoderSink's libavcodec
// encoder lookup which needs the *C.AVCodec directly).
func libavNameFor(tag string) string {
	switch tag {
	case "h265", "hevc":
		return "libx265"
	default:
		return "libx264"
	}
}

func (f *FileSink) run() {
	defer close(f.doneCh)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-f.stopCh:
			return
		case <-ticker.C:
		}

		zone := f.sync.CalculateSyncZone()
		if !zone.Valid() {
			continue
		}

		for _, v := range f.sync.GetVideoFrames(zone) {
			if _, err := f.videoPipeW.Write(v.Data); err != nil {
				return
			}
		}
		for _, a := range f.sync.GetAudioChunks(zone) {
			buf := int16sToBytes(a.Samples)
			if _, err := f.audioFile.Write(buf); err != nil {
				return
			}
		}

		f.sync.MarkVideoProcessed(zone.VideoStartIdx, zone.VideoEndIdx)
		f.sync.MarkAudioProcessed(zone.AudioStartIdx, zone.AudioEndIdx)
		f.sync.CleanupOldData(time.Since(f.start).Microseconds(), zone)
	}
}

func int16sToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[2*i] = byte(s)
		buf[2*i+1] = byte(s >> 8)
	}
	return buf
}

// Stop closes the video pipe and audio FIFO, which causes ffmpeg to
// flush and exit, then waits for it.
func (f *FileSink) Stop() error {
	if !atomic.CompareAndSwapInt32(&f.started, 1, 0) {
		return nil
	}
	close(f.stopCh)
	<-f.doneCh

	if f.videoPipeW != nil {
		f.videoPipeW.Close()
	}
	if f.audioFile != nil {
		f.audioFile.Close()
	}

	var err error
	if f.errc != nil {
		err = <-f.errc
	}
	return err
}

// Cleanup removes the temporary audio FIFO.
func (f *FileSink) Cleanup() {
	if f.audioFifo != "" {
		os.Remove(f.audioFifo)
	}
}

// PushFrame lets a FileSink be driven directly, outside a Manager.
func (f *FileSink) PushFrame(rgb []byte, width, height int) {
	f.sync.AddVideoFrame(rgb, width, height, time.Since(f.start).Microseconds())
}

// PushAudio is the direct-drive counterpart of PushFrame.
func (f *FileSink) PushAudio(samples []int16) {
	f.mu.Lock()
	rate, chans := f.cfg.audioRate, f.cfg.audioChans
	f.mu.Unlock()
	f.sync.AddAudioChunk(samples, len(samples), time.Since(f.start).Microseconds(), uint32(rate), uint32(chans))
}

// GetStreamUrls reports the output file path as its one "URL", so
// StreamManager.GetStreamUrls can surface where a recording landed.
func (f *FileSink) GetStreamUrls() []string { return []string{"file://" + f.path} }

// GetClientCount is always 0: a file has no viewers.
func (f *FileSink) GetClientCount() int { return 0 }

func (f *FileSink) IsActive() bool { return atomic.LoadInt32(&f.started) == 1 }
