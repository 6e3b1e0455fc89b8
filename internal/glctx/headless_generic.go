//go:build !linux

package glctx

import "fmt"

// HeadlessContext is unsupported outside Linux; the EGL device-query
// path this package uses (headless_linux.go) has no analog on the
// other platforms spec §6 names as external GL-context providers.
type HeadlessContext struct{}

func NewHeadlessContext(width, height int) (*HeadlessContext, error) {
	return nil, fmt.Errorf("glctx: headless EGL context is only supported on linux")
}

func (h *HeadlessContext) MakeCurrent()                        {}
func (h *HeadlessContext) Shutdown()                           {}
func (h *HeadlessContext) ShouldClose() bool                   { return true }
func (h *HeadlessContext) EndFrame()                           {}
func (h *HeadlessContext) GetFramebufferSize() (int, int)      { return 0, 0 }
func (h *HeadlessContext) Time() float64                       { return 0 }
