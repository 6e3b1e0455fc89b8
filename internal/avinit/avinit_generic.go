//go:build !((linux || darwin) && cgo)

package avinit

// Init/Shutdown are no-ops on platforms without the cgo FFmpeg bindings
// (e.g. a pure-Go cross-compile or cgo-disabled build); StreamManager's
// TSEncoderSink is unavailable in that configuration and callers should
// use FileSink or no streaming sink at all.
func Init()     {}
func Shutdown() {}
