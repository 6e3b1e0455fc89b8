package app

import (
	"fmt"
	"log"
	"time"

	"github.com/ashgrove/retrocapture/internal/capture"
)

// ReconfigureCapture implements spec §4.8's reconfigure-capture path,
// used when the caller (UI, REST control surface — both out of scope
// here) changes resolution or framerate at runtime: stop, close, sleep
// 100ms for the driver to release the device, reopen, set format, set
// framerate, start, discard the first ~5 frames, rolling back to the
// previous format and restarting on any failure.
func (a *Application) ReconfigureCapture(width, height int, fps float64) error {
	if a.capture == nil {
		return fmt.Errorf("app: no capture device to reconfigure")
	}

	prevW, prevH, prevFps := a.lastFormatW, a.lastFormatH, a.lastFps

	if err := a.stopCloseReopen(width, height, fps); err != nil {
		log.Printf("app: reconfigure to %dx%d@%.2f failed, rolling back: %v", width, height, fps, err)
		if rbErr := a.stopCloseReopen(prevW, prevH, prevFps); rbErr != nil {
			return fmt.Errorf("app: reconfigure failed (%w) and rollback also failed: %v", err, rbErr)
		}
		return fmt.Errorf("app: reconfigure to %dx%d@%.2f failed, rolled back to previous format: %w", width, height, fps, err)
	}

	a.lastFormatW, a.lastFormatH, a.lastFps = width, height, fps
	return nil
}

func (a *Application) stopCloseReopen(width, height int, fps float64) error {
	if err := a.capture.StopCapture(); err != nil {
		return fmt.Errorf("stop capture: %w", err)
	}
	if err := a.capture.Close(); err != nil {
		return fmt.Errorf("close device: %w", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := a.capture.Open(a.runCtx, *a.cfg.VideoDevice); err != nil {
		return fmt.Errorf("reopen device: %w", err)
	}
	if err := a.capture.SetFormat(width, height, capture.PixelFormatYUYV); err != nil {
		return fmt.Errorf("set format: %w", err)
	}
	if err := a.capture.SetFramerate(fps); err != nil {
		return fmt.Errorf("set framerate: %w", err)
	}
	if err := a.capture.StartCapture(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	a.discardFrames(5)
	return nil
}

// discardFrames drops up to n frames the driver produces immediately
// after a reopen, which are frequently garbage or stale buffer content
// (spec §4.8 "discard the first ~5 frames").
func (a *Application) discardFrames(n int) {
	var f capture.Frame
	discarded := 0
	deadline := time.Now().Add(500 * time.Millisecond)
	for discarded < n && time.Now().Before(deadline) {
		ok, err := a.capture.CaptureLatestFrame(&f)
		if err != nil {
			return
		}
		if ok {
			discarded++
			continue
		}
		time.Sleep(5 * time.Millisecond)
	}
}
