// Package config holds the flat, flag-bound options struct shared by the
// application coordinator and the subsystems it constructs.
package config

import "flag"

// Config mirrors the teacher's options.ShaderOptions shape: pointer fields
// set directly by flag.* calls so a caller can tell "unset" from "zero".
type Config struct {
	VideoDevice  *string
	PresetPath   *string
	Width        *int
	Height       *int
	Fps          *int
	AudioDevice  *string
	RecordPath   *string
	StreamPort   *int
	VideoBitrate *int
	AudioBitrate *int
	StreamWidth  *int
	StreamHeight *int
	Headless     *bool

	Brightness     *float64
	Contrast       *float64
	MaintainAspect *bool
}

// New registers flags on the given FlagSet and returns the bound Config.
func New(fs *flag.FlagSet) *Config {
	return &Config{
		VideoDevice:  fs.String("video-device", "", "capture device id"),
		PresetPath:   fs.String("preset", "", "path to a .glslp shader preset"),
		Width:        fs.Int("width", 1280, "capture width"),
		Height:       fs.Int("height", 720, "capture height"),
		Fps:          fs.Int("fps", 30, "capture framerate"),
		AudioDevice:  fs.String("audio-device", "", "audio capture device, empty for default/monitor"),
		RecordPath:   fs.String("record", "", "file path to additionally record to, empty to disable"),
		StreamPort:   fs.Int("stream-port", 8080, "TCP port for the MPEG-TS HTTP stream"),
		VideoBitrate: fs.Int("video-bitrate", 4_000_000, "video bitrate in bits/sec"),
		AudioBitrate: fs.Int("audio-bitrate", 192_000, "audio bitrate in bits/sec"),
		StreamWidth:  fs.Int("stream-width", 1280, "output stream width"),
		StreamHeight: fs.Int("stream-height", 720, "output stream height"),
		Headless:     fs.Bool("headless", false, "run without a visible window"),

		Brightness:     fs.Float64("brightness", 1.0, "presented-frame brightness multiplier"),
		Contrast:       fs.Float64("contrast", 1.0, "presented-frame contrast multiplier"),
		MaintainAspect: fs.Bool("maintain-aspect", true, "letterbox the presented frame to preserve source aspect ratio"),
	}
}
