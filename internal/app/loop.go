package app

import (
	"log"

	"github.com/ashgrove/retrocapture/internal/capture"
)

// Run implements spec §4.8's "run" loop: poll window events, capture
// the latest frame, upload it, run the shader chain, present, and (if
// streaming is active and no resize is in flight) read the presented
// framebuffer back for the stream/record sinks. Returns when the GL
// context reports ShouldClose.
func (a *Application) Run() {
	var frame capture.Frame

	for !a.ctx.ShouldClose() {
		if a.capture != nil {
			if ok, err := a.capture.CaptureLatestFrame(&frame); err != nil {
				log.Printf("app: capture error: %v", err)
			} else if ok {
				if validDims(frame.Width, frame.Height) {
					a.processor.Upload(frame)
					a.lastFrameW, a.lastFrameH = frame.Width, frame.Height
				} else {
					log.Printf("app: skipping invalid frame %dx%d", frame.Width, frame.Height)
				}
			}
		}

		fbW, fbH := a.ctx.GetFramebufferSize()

		a.resizeMu.Lock()
		a.engine.SetViewport(fbW, fbH)
		outTex := a.engine.ApplyShader(a.processor.Texture(), a.lastFrameW, a.lastFrameH)
		a.resizeMu.Unlock()

		contentW, contentH := a.lastFrameW, a.lastFrameH
		if a.engine.IsActive() && !*a.cfg.MaintainAspect {
			contentW, contentH = a.engine.LastOutputDims()
		}
		a.engine.Present(outTex, fbW, fbH, contentW, contentH,
			float32(*a.cfg.Brightness), float32(*a.cfg.Contrast), *a.cfg.MaintainAspect)

		a.maybeStreamFrame(outTex, fbW, fbH)

		a.ctx.EndFrame()
	}
}

// maybeStreamFrame implements the PBOReader read path spec §4.8
// describes: skipped entirely while a resize is in flight (the resize
// mutex), async-read the presented framebuffer, nearest-neighbor
// resample to the configured stream dimensions (bilinear is explicitly
// rejected by the source as too costly on the render thread), and
// enqueue into StreamManager. There is no synchronous glReadPixels
// path: when the PBOs cannot be created, no frame is streamed.
func (a *Application) maybeStreamFrame(_ uint32, fbW, fbH int) {
	if !a.streamActive || a.isResizing.Load() {
		return
	}
	if !validDims(fbW, fbH) {
		return
	}

	if !a.pboReader.IsInitialized() {
		if !a.pboReader.Init(fbW, fbH) {
			return
		}
	}

	if !a.pboReader.StartAsyncRead(0, 0, fbW, fbH) {
		return
	}

	rgb := make([]byte, fbW*fbH*3)
	if !a.pboReader.GetReadData(rgb, fbW, fbH) {
		return
	}

	resampled := nearestResample(rgb, fbW, fbH, a.streamW, a.streamH)
	a.stream.PushFrame(resampled, a.streamW, a.streamH)
}

// nearestResample implements spec §4.8's explicit nearest-neighbor
// requirement: no interpolation, just an integer source-index mapping
// per destination pixel.
func nearestResample(src []byte, srcW, srcH, dstW, dstH int) []byte {
	if srcW == dstW && srcH == dstH {
		return src
	}
	dst := make([]byte, dstW*dstH*3)
	for y := 0; y < dstH; y++ {
		sy := y * srcH / dstH
		for x := 0; x < dstW; x++ {
			sx := x * srcW / dstW
			si := (sy*srcW + sx) * 3
			di := (y*dstW + x) * 3
			dst[di], dst[di+1], dst[di+2] = src[si], src[si+1], src[si+2]
		}
	}
	return dst
}
