//go:build linux && cgo

// Package avinit holds the one piece of genuine global process state
// this module needs: FFmpeg's log level/callback and device-muxer
// registration (spec §9 design note, "Global process state ... initialize
// once at startup, tear down once at shutdown, no singletons passed
// implicitly"). Adapted from arcana/arcana_linux.go's Platform_init,
// renamed and given an explicit, idempotent Shutdown its source never had.
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

// Shutdown resets FFmpeg's log callback to its default. There is no
// libavformat-wide teardown call to pair with avdevice_register_all;
// this exists so callers have one symmetric lifecycle hook per spec §9.
func Shutdown() {
	C.av_log_set_callback(nil)
}
