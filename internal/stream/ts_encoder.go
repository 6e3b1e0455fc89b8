package stream

/*
#cgo pkg-config: libavformat libavcodec libavutil libswscale libswresample
#include <libavformat/avformat.h>
#include <libavcodec/avcodec.h>
#include <libavutil/opt.h>
#include <libavutil/imgutils.h>
#include <libswscale/swscale.h>
#include <libswresample/swresample.h>
#include <stdlib.h>
#include <stdint.h>

// av_err2str is a macro; wrap it as the teacher's encoder.go does.
static inline const char* av_error_str(int errnum) {
    static char str[AV_ERROR_MAX_STRING_SIZE];
    av_make_error_string(str, AV_ERROR_MAX_STRING_SIZE, errnum);
    return str;
}
static int averror(int errnum) { return AVERROR(errnum); }

// goTSWriteCB is implemented in Go (see the //export comment below) and
// receives every muxed TS buffer FFmpeg produces; opaque carries the
// integer handle used to look the Go-side sink back up in tsSinkRegistry.
extern int goTSWriteCB(void *opaque, uint8_t *buf, int buf_size);

static AVIOContext* new_ts_avio_context(long handle, unsigned char* iobuf, int iobuf_size) {
    return avio_alloc_context(iobuf, iobuf_size, 1, (void*)handle, NULL,
        (int (*)(void*, uint8_t*, int))goTSWriteCB, NULL);
}
*/
import "C"

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	mediasync "github.com/ashgrove/retrocapture/internal/sync"
)

const tsIOBufferSize = 188 * 348 // a few hundred TS packets per write callback

var (
	tsHandleCounter int64
	tsSinkRegistry  sync.Map // int64 handle -> *TSEncoderSink
)

//export goTSWriteCB
func goTSWriteCB(opaque unsafe.Pointer, buf *C.uint8_t, bufSize C.int) C.int {
	handle := int64(uintptr(opaque))
	v, ok := tsSinkRegistry.Load(handle)
	if !ok {
		return bufSize
	}
	sink := v.(*TSEncoderSink)
	data := C.GoBytes(unsafe.Pointer(buf), bufSize)
	sink.hub.broadcast(data)
	return bufSize
}

// videoEncoderCandidates mirrors the teacher's findBestVideoEncoder
// platform-prioritized fallback chains (encoder/encoder.go), extended
// with the additional codec tags spec §6 names.
func videoEncoderCandidates(tag string) []string {
	switch tag {
	case "h265", "hevc":
		switch runtime.GOOS {
		case "linux":
			return []string{"hevc_nvenc", "libx265"}
		case "darwin":
			return []string{"hevc_videotoolbox", "libx265"}
		case "windows":
			return []string{"hevc_nvenc", "hevc_amf", "hevc_qsv", "libx265"}
		default:
			return []string{"libx265"}
		}
	case "vp8":
		return []string{"libvpx"}
	case "vp9":
		return []string{"libvpx-vp9"}
	case "mpeg2video":
		return []string{"mpeg2video"}
	default: // h264
		switch runtime.GOOS {
		case "linux":
			return []string{"h264_nvenc", "libx264"}
		case "darwin":
			return []string{"h264_videotoolbox", "libx264"}
		case "windows":
			return []string{"h264_nvenc", "h264_amf", "h264_qsv", "libx264"}
		default:
			return []string{"libx264"}
		}
	}
}

func findEncoder(names []string) (*C.AVCodec, string) {
	for _, name := range names {
		cName := C.CString(name)
		codec := C.avcodec_find_encoder_by_name(cName)
		C.free(unsafe.Pointer(cName))
		if codec != nil {
			return codec, name
		}
	}
	return nil, ""
}

func audioEncoderName(tag string) string {
	switch tag {
	case "mp3":
		return "libmp3lame"
	case "opus":
		return "libopus"
	default:
		return "aac"
	}
}

// pendingConfig holds Set* calls made before Initialize builds the
// FFmpeg contexts, since the EncoderSink contract allows codec/bitrate
// to be set ahead of Initialize (spec §6).
type pendingConfig struct {
	videoBitrate int
	audioBitrate int
	videoCodec   string
	audioCodec   string
	audioRate    int
	audioChans   int
	audioBufFrames int
}

// TSEncoderSink is the default HTTP MPEG-TS EncoderSink (spec §4.7):
// it drains the shared MediaSynchronizer from its own worker goroutine,
// encodes each video frame and audio chunk with cgo libavcodec, muxes
// to MPEG-TS in memory via a custom AVIOContext, and fans the resulting
// byte stream out to every connected HTTP client through hub. Adapted
// from encoder/encoder.go's FFmpegEncoder (same addStream/openVideo/
// openAudio/encode shape), retargeted from an MP4 file output to an
// in-memory MPEG-TS muxer writing through a callback instead of
// avio_open to a path.
type TSEncoderSink struct {
	mu      sync.Mutex
	cfg     pendingConfig
	sync    *mediasync.Synchronizer
	hub     *hub
	handle  int64

	width, height, fps int

	formatCtx     *C.AVFormatContext
	avioCtx       *C.AVIOContext
	avioBuf       unsafe.Pointer
	videoCodecCtx *C.AVCodecContext
	audioCodecCtx *C.AVCodecContext
	videoStream   *C.AVStream
	audioStream   *C.AVStream
	swsCtx        *C.struct_SwsContext
	swrCtx        *C.struct_SwrContext
	videoFrame    *C.AVFrame
	audioFrame    *C.AVFrame

	started int32
	stopCh  chan struct{}
	doneCh  chan struct{}

	start time.Time
}

// NewTSEncoderSink creates a sink draining sync for its A/V source.
func NewTSEncoderSink(sync *mediasync.Synchronizer) *TSEncoderSink {
	return &TSEncoderSink{
		sync: sync,
		hub:  newHub(),
		cfg:  pendingConfig{videoBitrate: 4_000_000, audioBitrate: 192_000, videoCodec: "h264", audioCodec: "aac", audioRate: 44100, audioChans: 2},
	}
}

func (s *TSEncoderSink) SetVideoBitrate(bps int) { s.mu.Lock(); s.cfg.videoBitrate = bps; s.mu.Unlock() }
func (s *TSEncoderSink) SetAudioBitrate(bps int) { s.mu.Lock(); s.cfg.audioBitrate = bps; s.mu.Unlock() }
func (s *TSEncoderSink) SetVideoCodec(tag string) { s.mu.Lock(); s.cfg.videoCodec = tag; s.mu.Unlock() }
func (s *TSEncoderSink) SetAudioCodec(tag string) { s.mu.Lock(); s.cfg.audioCodec = tag; s.mu.Unlock() }
func (s *TSEncoderSink) SetAudioFormat(rate, channels int) {
	s.mu.Lock()
	s.cfg.audioRate, s.cfg.audioChans = rate, channels
	s.mu.Unlock()
}
func (s *TSEncoderSink) SetAudioBufferSize(frames int) {
	s.mu.Lock()
	s.cfg.audioBufFrames = frames
	s.mu.Unlock()
}

// audioChannels reads the current channel count under the config
// mutex, since SetAudioFormat may be called concurrently with the
// worker goroutine after Start().
func (s *TSEncoderSink) audioChannels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.audioChans
}

// Initialize builds the MPEG-TS muxer, video/audio codec contexts and
// the custom in-memory AVIOContext, then writes the TS header.
func (s *TSEncoderSink) Initialize(port, width, height, fps int) error {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	s.width, s.height, s.fps = width, height, fps
	s.start = time.Now()

	cFormatName := C.CString("mpegts")
	defer C.free(unsafe.Pointer(cFormatName))
	if C.avformat_alloc_output_context2(&s.formatCtx, nil, cFormatName, nil) < 0 {
		return fmt.Errorf("ts encoder: could not allocate output context")
	}

	videoCodec, videoName := findEncoder(videoEncoderCandidates(cfg.videoCodec))
	if videoCodec == nil {
		return fmt.Errorf("ts encoder: no usable video encoder for %q", cfg.videoCodec)
	}
	if err := s.addStream(&s.videoStream, &s.videoCodecCtx, videoCodec); err != nil {
		return fmt.Errorf("ts encoder: add video stream: %w", err)
	}

	cAudioName := C.CString(audioEncoderName(cfg.audioCodec))
	audioCodec := C.avcodec_find_encoder_by_name(cAudioName)
	C.free(unsafe.Pointer(cAudioName))
	if audioCodec == nil {
		return fmt.Errorf("ts encoder: no usable audio encoder for %q", cfg.audioCodec)
	}
	if err := s.addStream(&s.audioStream, &s.audioCodecCtx, audioCodec); err != nil {
		return fmt.Errorf("ts encoder: add audio stream: %w", err)
	}

	if err := s.openVideo(videoCodec, videoName, width, height, fps, cfg.videoBitrate); err != nil {
		return err
	}
	if err := s.openAudio(audioCodec, cfg.audioRate, cfg.audioChans, cfg.audioBitrate); err != nil {
		return err
	}

	s.handle = atomic.AddInt64(&tsHandleCounter, 1)
	tsSinkRegistry.Store(s.handle, s)

	s.avioBuf = C.av_malloc(C.size_t(tsIOBufferSize))
	s.avioCtx = C.new_ts_avio_context(C.long(s.handle), (*C.uchar)(s.avioBuf), C.int(tsIOBufferSize))
	if s.avioCtx == nil {
		return fmt.Errorf("ts encoder: could not allocate AVIO context")
	}
	s.formatCtx.pb = s.avioCtx
	s.formatCtx.flags |= C.AVFMT_FLAG_CUSTOM_IO

	if C.avformat_write_header(s.formatCtx, nil) < 0 {
		return fmt.Errorf("ts encoder: could not write TS header")
	}

	return s.hub.start(port)
}

func (s *TSEncoderSink) addStream(st **C.AVStream, codecCtx **C.AVCodecContext, codec *C.AVCodec) error {
	*st = C.avformat_new_stream(s.formatCtx, nil)
	if *st == nil {
		return fmt.Errorf("could not create new stream")
	}
	(*st).id = C.int(s.formatCtx.nb_streams - 1)

	*codecCtx = C.avcodec_alloc_context3(codec)
	if *codecCtx == nil {
		return fmt.Errorf("could not allocate codec context")
	}
	return nil
}

func (s *TSEncoderSink) openVideo(codec *C.AVCodec, name string, width, height, fps, bitrate int) error {
	ctx := s.videoCodecCtx
	ctx.width = C.int(width)
	ctx.height = C.int(height)
	ctx.time_base = C.AVRational{num: 1, den: C.int(fps)}
	ctx.framerate = C.AVRational{num: C.int(fps), den: 1}
	ctx.gop_size = C.int(fps) // one keyframe per second, typical for live TS
	ctx.pix_fmt = C.AV_PIX_FMT_YUV420P
	ctx.bit_rate = C.int64_t(bitrate)
	ctx.max_b_frames = 0 // no reordering, for low-latency live encoding

	switch name {
	case "libx264":
		C.av_opt_set(ctx.priv_data, C.CString("preset"), C.CString("veryfast"), 0)
		C.av_opt_set(ctx.priv_data, C.CString("tune"), C.CString("zerolatency"), 0)
	case "libx265":
		C.av_opt_set(ctx.priv_data, C.CString("preset"), C.CString("fast"), 0)
	case "h264_nvenc", "hevc_nvenc":
		C.av_opt_set(ctx.priv_data, C.CString("preset"), C.CString("p2"), 0)
	}

	if (s.formatCtx.oformat.flags & C.AVFMT_GLOBALHEADER) != 0 {
		ctx.flags |= C.AV_CODEC_FLAG_GLOBAL_HEADER
	}

	if C.avcodec_open2(ctx, codec, nil) < 0 {
		return fmt.Errorf("ts encoder: could not open video codec %s", name)
	}
	if C.avcodec_parameters_from_context(s.videoStream.codecpar, ctx) < 0 {
		return fmt.Errorf("ts encoder: could not copy video codec parameters")
	}

	s.videoFrame = C.av_frame_alloc()
	s.videoFrame.format = C.int(ctx.pix_fmt)
	s.videoFrame.width = ctx.width
	s.videoFrame.height = ctx.height
	if C.av_frame_get_buffer(s.videoFrame, 0) < 0 {
		return fmt.Errorf("ts encoder: could not allocate video frame buffer")
	}

	// Composited frames arrive as packed RGB24 (the stream-dimension
	// downscale in internal/app is nearest-neighbor RGB, spec §4.8).
	s.swsCtx = C.sws_getContext(ctx.width, ctx.height, C.AV_PIX_FMT_RGB24,
		ctx.width, ctx.height, ctx.pix_fmt, C.SWS_BILINEAR, nil, nil, nil)
	if s.swsCtx == nil {
		return fmt.Errorf("ts encoder: could not initialize RGB24->YUV420P scaler")
	}
	return nil
}

func (s *TSEncoderSink) openAudio(codec *C.AVCodec, sampleRate, channels, bitrate int) error {
	ctx := s.audioCodecCtx
	ctx.sample_fmt = C.AV_SAMPLE_FMT_FLTP
	ctx.bit_rate = C.int64_t(bitrate)
	ctx.sample_rate = C.int(sampleRate)
	cLayout := C.CString(layoutName(channels))
	C.av_channel_layout_from_string(&ctx.ch_layout, cLayout)
	C.free(unsafe.Pointer(cLayout))

	if (s.formatCtx.oformat.flags & C.AVFMT_GLOBALHEADER) != 0 {
		ctx.flags |= C.AV_CODEC_FLAG_GLOBAL_HEADER
	}

	if C.avcodec_open2(ctx, codec, nil) < 0 {
		return fmt.Errorf("ts encoder: could not open audio codec")
	}
	if C.avcodec_parameters_from_context(s.audioStream.codecpar, ctx) < 0 {
		return fmt.Errorf("ts encoder: could not copy audio codec parameters")
	}

	s.audioFrame = C.av_frame_alloc()
	s.audioFrame.nb_samples = ctx.frame_size
	s.audioFrame.format = C.int(ctx.sample_fmt)
	C.av_channel_layout_copy(&s.audioFrame.ch_layout, &ctx.ch_layout)
	if C.av_frame_get_buffer(s.audioFrame, 0) < 0 {
		return fmt.Errorf("ts encoder: could not allocate audio frame buffer")
	}

	// Source samples are interleaved S16 (spec §6 AudioSource contract);
	// the codec wants planar float, so resample/convert with swresample.
	s.swrCtx = C.swr_alloc()
	C.av_opt_set_int(unsafe.Pointer(s.swrCtx), C.CString("in_channel_count"), C.int64_t(channels), 0)
	C.av_opt_set_int(unsafe.Pointer(s.swrCtx), C.CString("out_channel_count"), C.int64_t(channels), 0)
	C.av_opt_set_int(unsafe.Pointer(s.swrCtx), C.CString("in_sample_rate"), C.int64_t(sampleRate), 0)
	C.av_opt_set_int(unsafe.Pointer(s.swrCtx), C.CString("out_sample_rate"), C.int64_t(sampleRate), 0)
	C.av_opt_set_sample_fmt(unsafe.Pointer(s.swrCtx), C.CString("in_sample_fmt"), C.AV_SAMPLE_FMT_S16, 0)
	C.av_opt_set_sample_fmt(unsafe.Pointer(s.swrCtx), C.CString("out_sample_fmt"), C.AV_SAMPLE_FMT_FLTP, 0)
	C.swr_init(s.swrCtx)

	return nil
}

func layoutName(channels int) string {
	if channels == 1 {
		return "mono"
	}
	return "stereo"
}

// Start launches the worker goroutine that drains the synchronizer.
func (s *TSEncoderSink) Start() error {
	if !atomic.CompareAndSwapInt32(&s.started, 0, 1) {
		return nil
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.run()
	return nil
}

// run implements spec §4.7's worker loop: calculateSyncZone, and on a
// valid zone encode every video frame and audio chunk in order, mux to
// TS, mark consumed entries processed.
func (s *TSEncoderSink) run() {
	defer close(s.doneCh)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	var videoPTS, audioPTS int64
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
		}

		zone := s.sync.CalculateSyncZone()
		if !zone.Valid() {
			continue
		}

		videos := s.sync.GetVideoFrames(zone)
		audios := s.sync.GetAudioChunks(zone)

		for _, v := range videos {
			s.encodeVideo(v.Data, v.Width, v.Height, videoPTS)
			videoPTS++
		}
		for _, a := range audios {
			s.encodeAudio(a.Samples, audioPTS)
			audioPTS += int64(len(a.Samples)) / int64(s.audioChannels())
		}

		s.sync.MarkVideoProcessed(zone.VideoStartIdx, zone.VideoEndIdx)
		s.sync.MarkAudioProcessed(zone.AudioStartIdx, zone.AudioEndIdx)
		s.sync.CleanupOldData(time.Since(s.start).Microseconds(), zone)
	}
}

func (s *TSEncoderSink) encodeVideo(rgb []byte, width, height int, pts int64) {
	if len(rgb) == 0 {
		return
	}
	if C.av_frame_make_writable(s.videoFrame) < 0 {
		log.Println("ts encoder: video frame not writable")
		return
	}

	srcData := [4]*C.uint8_t{(*C.uint8_t)(unsafe.Pointer(&rgb[0])), nil, nil, nil}
	srcStride := [4]C.int{C.int(width * 3), 0, 0, 0}

	C.sws_scale(s.swsCtx, &srcData[0], &srcStride[0], 0, C.int(height),
		&s.videoFrame.data[0], &s.videoFrame.linesize[0])

	s.videoFrame.pts = C.int64_t(pts)
	s.encode(s.videoStream, s.videoCodecCtx, s.videoFrame)
}

func (s *TSEncoderSink) encodeAudio(samples []int16, pts int64) {
	if len(samples) == 0 {
		return
	}
	if C.av_frame_make_writable(s.audioFrame) < 0 {
		log.Println("ts encoder: audio frame not writable")
		return
	}

	inData := (*C.uint8_t)(unsafe.Pointer(&samples[0]))
	nbSamples := C.int(len(samples)) / C.int(s.audioChannels())
	C.swr_convert(s.swrCtx, &s.audioFrame.data[0], s.audioFrame.nb_samples, &inData, nbSamples)

	s.audioFrame.pts = C.int64_t(pts)
	s.encode(s.audioStream, s.audioCodecCtx, s.audioFrame)
}

func (s *TSEncoderSink) encode(st *C.AVStream, ctx *C.AVCodecContext, frame *C.AVFrame) {
	pkt := C.av_packet_alloc()
	defer C.av_packet_free(&pkt)

	if C.avcodec_send_frame(ctx, frame) < 0 {
		return
	}
	for {
		ret := C.avcodec_receive_packet(ctx, pkt)
		if ret == C.averror(C.EAGAIN) || ret == C.AVERROR_EOF {
			break
		} else if ret < 0 {
			log.Printf("ts encoder: encode error: %s", C.GoString(C.av_error_str(ret)))
			break
		}
		C.av_packet_rescale_ts(pkt, ctx.time_base, st.time_base)
		pkt.stream_index = st.index
		C.av_interleaved_write_frame(s.formatCtx, pkt)
		C.av_packet_unref(pkt)
	}
}

// Stop halts the worker and the HTTP listener. Encoders stay open so a
// later Start can resume without reconfiguring FFmpeg.
func (s *TSEncoderSink) Stop() error {
	if !atomic.CompareAndSwapInt32(&s.started, 1, 0) {
		return nil
	}
	close(s.stopCh)
	<-s.doneCh
	return s.hub.stop()
}

// Cleanup flushes the trailer and releases every FFmpeg resource.
func (s *TSEncoderSink) Cleanup() {
	if s.formatCtx != nil {
		C.av_write_trailer(s.formatCtx)
	}
	if s.videoFrame != nil {
		C.av_frame_free(&s.videoFrame)
	}
	if s.audioFrame != nil {
		C.av_frame_free(&s.audioFrame)
	}
	if s.videoCodecCtx != nil {
		C.avcodec_free_context(&s.videoCodecCtx)
	}
	if s.audioCodecCtx != nil {
		C.avcodec_free_context(&s.audioCodecCtx)
	}
	if s.swsCtx != nil {
		C.sws_freeContext(s.swsCtx)
	}
	if s.swrCtx != nil {
		C.swr_free(&s.swrCtx)
	}
	if s.formatCtx != nil {
		C.avformat_free_context(s.formatCtx)
		s.formatCtx = nil
	}
	if s.avioCtx != nil {
		C.av_freep(unsafe.Pointer(&s.avioCtx.buffer))
		C.avio_context_free(&s.avioCtx)
	}
	tsSinkRegistry.Delete(s.handle)
}

// PushFrame is the EncoderSink-interface entry point (spec §6); it is
// equivalent to routing through StreamManager.PushFrame, provided so a
// TSEncoderSink can also be driven directly without a Manager.
func (s *TSEncoderSink) PushFrame(rgb []byte, width, height int) {
	s.sync.AddVideoFrame(rgb, width, height, time.Since(s.start).Microseconds())
}

// PushAudio is the direct-drive counterpart of PushFrame.
func (s *TSEncoderSink) PushAudio(samples []int16) {
	s.mu.Lock()
	rate, chans := s.cfg.audioRate, s.cfg.audioChans
	s.mu.Unlock()
	s.sync.AddAudioChunk(samples, len(samples), time.Since(s.start).Microseconds(), uint32(rate), uint32(chans))
}

func (s *TSEncoderSink) GetStreamUrls() []string { return s.hub.urls() }
func (s *TSEncoderSink) GetClientCount() int     { return s.hub.clientCount() }
func (s *TSEncoderSink) IsActive() bool          { return atomic.LoadInt32(&s.started) == 1 }
