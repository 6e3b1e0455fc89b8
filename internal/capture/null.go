package capture

import (
	"context"
	"fmt"
)

// NullVideoSource is a no-op VideoSource, modeled on the headless
// backend stub pattern this codebase's domain uses for platforms
// without a concrete device: it satisfies the interface so the
// Application can run (and be tested) without a real capture device.
type NullVideoSource struct {
	open          bool
	width, height int
}

func NewNullVideoSource() *NullVideoSource { return &NullVideoSource{} }

func (n *NullVideoSource) Open(ctx context.Context, deviceID string) error {
	n.open = true
	n.width, n.height = 640, 480
	return nil
}

func (n *NullVideoSource) SetFormat(w, h int, pixelFormat PixelFormat) error {
	n.width, n.height = w, h
	return nil
}

func (n *NullVideoSource) SetFramerate(fps float64) error { return nil }
func (n *NullVideoSource) StartCapture() error            { return nil }
func (n *NullVideoSource) StopCapture() error              { return nil }

func (n *NullVideoSource) Close() error {
	n.open = false
	return nil
}

func (n *NullVideoSource) CaptureLatestFrame(out *Frame) (bool, error) {
	if !n.open {
		return false, nil
	}
	if out.Data == nil || len(out.Data) != n.width*n.height*2 {
		out.Data = make([]byte, n.width*n.height*2)
	}
	out.Width, out.Height = n.width, n.height
	out.Format = PixelFormatYUYV
	return true, nil
}

func (n *NullVideoSource) IsOpen() bool { return n.open }
func (n *NullVideoSource) Width() int   { return n.width }
func (n *NullVideoSource) Height() int  { return n.height }

func (n *NullVideoSource) GetControl(id ControlID) (ControlRange, error) {
	return ControlRange{}, fmt.Errorf("control %d not supported by null video source", id)
}

func (n *NullVideoSource) SetControl(id ControlID, value int) error {
	return fmt.Errorf("control %d not supported by null video source", id)
}

func (n *NullVideoSource) ListDevices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "null", Name: "No capture device"}}, nil
}

func (n *NullVideoSource) GetSupportedResolutions() ([]Resolution, error) {
	return []Resolution{{Width: 640, Height: 480, Fps: 30}}, nil
}
