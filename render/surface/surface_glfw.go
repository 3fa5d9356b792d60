package surface

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/vib3/render-core/render/backend"
)

// glfwSurface holds the GLFW-specific window state.
type glfwSurface struct {
	parent  *engineSurface
	window  *glfw.Window
	running bool
}

// newPlatformSurface creates the GLFW window, hinting a WebGPU-compatible
// no-API context or a core-profile OpenGL 3.3 context depending on
// s.kind, and registers the resize callback the render core actually
// consumes (scroll/keyboard/mouse events are a host-application concern,
// not a render-core one, and are not forwarded here).
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func newPlatformSurface(s *engineSurface) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	switch s.kind {
	case backend.KindWebGPU:
		// WebGPU provides its own graphics API; GLFW must not create a GL context.
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	default:
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
		glfw.WindowHint(glfw.ContextVersionMajor, 3)
		glfw.WindowHint(glfw.ContextVersionMinor, 3)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	}

	win, err := glfw.CreateWindow(s.width, s.height, s.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %v", err)
	}

	gw := &glfwSurface{parent: s, window: win, running: true}
	s.internalWindow = gw

	if s.kind != backend.KindWebGPU {
		win.MakeContextCurrent()
	}

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFramebufferSizeCallback
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		s.width = width
		s.height = height
		if s.onResize != nil {
			s.onResize(width, height)
		}
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	s.width = fbWidth
	s.height = fbHeight

	return nil
}

// platformSurfaceDescriptor creates a platform-appropriate
// wgpu.SurfaceDescriptor from the GLFW window, or nil for an OpenGL-family
// surface.
//
// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func platformSurfaceDescriptor(s *engineSurface) *wgpu.SurfaceDescriptor {
	if s.kind != backend.KindWebGPU || s.internalWindow == nil {
		return nil
	}
	gw := s.internalWindow.(*glfwSurface)
	return wgpuglfw.GetSurfaceDescriptor(gw.window)
}

func platformMakeContextCurrent(s *engineSurface) {
	if s.kind == backend.KindWebGPU || s.internalWindow == nil {
		return
	}
	gw := s.internalWindow.(*glfwSurface)
	gw.window.MakeContextCurrent()
}

func platformSwapBuffers(s *engineSurface) {
	if s.kind == backend.KindWebGPU || s.internalWindow == nil {
		return
	}
	gw := s.internalWindow.(*glfwSurface)
	gw.window.SwapBuffers()
}

func platformIsRunning(s *engineSurface) bool {
	if s.internalWindow == nil {
		return false
	}
	gw := s.internalWindow.(*glfwSurface)
	return gw.running && !gw.window.ShouldClose()
}

func platformClose(s *engineSurface) error {
	if s.internalWindow == nil {
		return fmt.Errorf("surface is not initialized")
	}
	gw := s.internalWindow.(*glfwSurface)
	gw.running = false
	gw.window.SetShouldClose(true)
	gw.window.Destroy()
	glfw.Terminate()
	return nil
}

// platformProcessMessages polls GLFW for pending events without blocking.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PollEvents
func platformProcessMessages(s *engineSurface) bool {
	glfw.PollEvents()
	return platformIsRunning(s)
}
