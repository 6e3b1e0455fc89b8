//go:build darwin && cgo

package avinit

/*
#cgo pkg-config: libavformat libavcodec libavutil libavdevice
#include <libavformat/avformat.h>
#include <libavutil/avutil.h>
#include <libavdevice/avdevice.h>
#include <stdio.h>

static void simple_log_callback(void* ptr, int level, const char* fmt, va_list vl) {
    if (level > AV_LOG_DEBUG) {
        return;
    }
    fprintf(stderr, "[FFmpeg] ");
    vfprintf(stderr, fmt, vl);
}

static void set_log_callback() {
    av_log_set_callback(simple_log_callback);
}
*/
import "C"

import "sync"

var once sync.Once

// Init sets the FFmpeg log level/callback and registers every device
// muxer/demuxer. Safe to call more than once; only the first call runs.
func Init() {
	once.Do(func() {
		C.av_log_set_level(C.AV_LOG_INFO)
		C.set_log_callback()
		C.avdevice_register_all()
	})
}

// Shutdown resets FFmpeg's log callback to its default.
func Shutdown() {
	C.av_log_set_callback(nil)
}
