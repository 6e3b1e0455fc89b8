// Package glctx is the only package in this module allowed to import
// glfw or call into the EGL headless backend directly (mirroring the
// teacher's graphics.Context convention, graphics/context.go's own
// comment to that effect). It defines the GL-context/window contract
// the Application drives the render loop against (spec §6 "environment
// inputs": the GL context is externally created and made current) plus
// the two concrete providers RetroCapture needs: a visible GLFW window
// and a headless EGL pbuffer surface for record-only operation.
package glctx

// Context is the windowing/GL-context collaborator the core consumes.
// It is an external collaborator per spec §1 scope, specified here only
// by the interface the Application needs from it.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	GetFramebufferSize() (int, int)
	Time() float64
}
