// Command retrocapture drives the capture->shader->present->stream
// pipeline spec §4.8 describes: parse flags into a config.Config,
// construct the Application with a VideoSource/AudioSource pair, and
// run its render loop until the window closes or the process is
// interrupted.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ashgrove/retrocapture/internal/app"
	"github.com/ashgrove/retrocapture/internal/audio"
	"github.com/ashgrove/retrocapture/internal/avinit"
	"github.com/ashgrove/retrocapture/internal/capture"
	"github.com/ashgrove/retrocapture/internal/config"
)

func init() {
	// GLFW/GL calls must stay pinned to the thread that created the
	// context, matching the teacher's cmd/main.go LockOSThread call.
	runtime.LockOSThread()
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	cfg := config.New(fs)
	muteAudio := fs.Bool("mute", false, "disable audio capture entirely")
	fs.Parse(os.Args[1:])

	avinit.Init()
	defer avinit.Shutdown()

	videoSrc := capture.NewNullVideoSource()

	var audioSrc audio.AudioSource
	if *muteAudio {
		audioSrc = audio.NewNullAudioSource(44100, 2)
	} else {
		audioSrc = audio.NewPortAudioSource(44100, 2)
	}

	a, err := app.New(cfg, videoSrc, audioSrc)
	if err != nil {
		log.Fatalf("retrocapture: init: %v", err)
	}
	defer a.Shutdown()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("retrocapture: signal received, shutting down")
		os.Exit(0)
	}()

	a.Run()
}
