package glctx

import (
	"fmt"
	"log"
	"runtime"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// GLFWContext is the visible-window Context, adapted from the
// teacher's glfwcontext.Context: same window-hint/MakeContextCurrent/
// gl.Init sequencing, generalized with a resize callback hook the
// Application uses to guard shader-FBO recreation against a concurrent
// PBO read (spec §4.8 "resize mutex").
type GLFWContext struct {
	window *glfw.Window
}

// NewGLFWContext creates and initializes a GLFW window/context of the
// given size and title.
func NewGLFWContext(width, height int, title string) (*GLFWContext, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	win.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	log.Printf("glctx: GLFW window OpenGL version %s", gl.GoStr(gl.GetString(gl.VERSION)))

	return &GLFWContext{window: win}, nil
}

// SetFramebufferSizeCallback installs cb to run on every resize event,
// on the render thread (GLFW only ever delivers callbacks from
// PollEvents, which the Application calls from the render loop).
func (c *GLFWContext) SetFramebufferSizeCallback(cb func(w, h int)) {
	c.window.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		cb(w, h)
	})
}

func (c *GLFWContext) MakeCurrent() { c.window.MakeContextCurrent() }
func (c *GLFWContext) Shutdown()    { glfw.Terminate() }
func (c *GLFWContext) ShouldClose() bool { return c.window.ShouldClose() }

func (c *GLFWContext) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

func (c *GLFWContext) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

func (c *GLFWContext) Time() float64 { return glfw.GetTime() }

// Window exposes the underlying *glfw.Window for callers that need
// direct input access; no other package should import glfw itself.
func (c *GLFWContext) Window() *glfw.Window { return c.window }
