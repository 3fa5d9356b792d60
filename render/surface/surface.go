// Package surface is the one external collaborator the render core keeps a
// concrete implementation of: host canvas/window acquisition. spec §1 places
// DOM/canvas acquisition out of core scope, so nothing under render/backend
// or render/bridge imports this package — it exists purely as the example
// program's surface provider, wired in cmd/vib3demo.
package surface

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/vib3/render-core/render/backend"
)

// Surface provides platform windowing for one canvas. It wraps a
// platform-specific window with the narrow slice of the host-facing event
// surface a render backend actually needs: update/resize notification,
// lifecycle, and (for a WebGPU backend) a wgpu.SurfaceDescriptor.
type Surface interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is
	// resized, in pixels (not screen points — matters on high-DPI displays).
	SetResizeCallback(callback func(width, height int))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor for a WebGPU backend,
	// or nil if this Surface was created for an OpenGL-family backend (use
	// MakeContextCurrent instead).
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// MakeContextCurrent binds this surface's GL context to the calling OS
	// thread. A no-op for a WebGPU surface.
	MakeContextCurrent()

	// SwapBuffers presents the default framebuffer for an OpenGL-family
	// surface. A no-op for a WebGPU surface (its backend's Present call
	// drives the swap chain instead).
	SwapBuffers()

	// IsRunning returns true if the surface's window is still active.
	IsRunning() bool

	// Close closes the window and releases platform resources.
	Close() error

	// ProcessMessages runs the window message loop, blocking until closed.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

// engineSurface is the GLFW-backed Surface implementation.
type engineSurface struct {
	title string

	maxWidth, maxHeight int
	minWidth, minHeight int
	width, height       int

	kind backend.Kind

	internalWindow any

	onUpdate func()
	onResize func(width, height int)
}

var _ Surface = &engineSurface{}

// NewSurface creates a Surface for the given backend kind. kind determines
// whether the underlying GLFW window requests no client API (WebGPU owns
// its own swap chain) or a core-profile OpenGL 3.3 context (the webgl
// backend, which despite the name runs over desktop GL — see
// render/backend/webgl's package doc).
func NewSurface(kind backend.Kind, options ...Option) Surface {
	s := &engineSurface{
		title:     "VIB3",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  320,
		minHeight: 240,
		width:     1280,
		height:    720,
		kind:      kind,
	}
	for _, opt := range options {
		opt(s)
	}
	if err := newPlatformSurface(s); err != nil {
		panic(fmt.Sprintf("failed to create platform surface: %v", err))
	}
	return s
}

func (s *engineSurface) SetUpdateCallback(callback func()) { s.onUpdate = callback }

func (s *engineSurface) SetResizeCallback(callback func(width, height int)) {
	s.onResize = callback
}

func (s *engineSurface) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformSurfaceDescriptor(s)
}

func (s *engineSurface) MakeContextCurrent() { platformMakeContextCurrent(s) }

func (s *engineSurface) SwapBuffers() { platformSwapBuffers(s) }

func (s *engineSurface) IsRunning() bool { return platformIsRunning(s) }

func (s *engineSurface) Close() error { return platformClose(s) }

func (s *engineSurface) ProcessMessages() {
	for s.IsRunning() {
		if !platformProcessMessages(s) {
			break
		}
		if s.onUpdate != nil {
			s.onUpdate()
		}
		runtime.Gosched()
	}
}

func (s *engineSurface) Width() int  { return s.width }
func (s *engineSurface) Height() int { return s.height }
