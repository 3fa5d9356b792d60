// Package backend defines the contract every concrete GPU backend (WebGPU,
// WebGL2-equivalent) implements, and the ordered fallback rule that picks one
// at startup. A Backend is the replay target of a command.CommandBuffer: it
// implements command.Executor directly so a buffer's Execute call can dispatch
// straight into it, plus the lifecycle and diagnostic methods no single
// command covers (shader compilation, presentation, resizing, teardown,
// draw-call statistics).
package backend

import (
	"errors"
	"fmt"

	"github.com/vib3/render-core/render/command"
	"github.com/vib3/render-core/render/rendererr"
)

// Kind identifies which concrete backend is active. The zero value is
// KindWebGPU; a constructed Backend always reports one of the named values
// below.
type Kind int

const (
	KindWebGPU Kind = iota
	KindWebGL2
	KindWebGL1
)

// String returns the backend kind's debug label.
func (k Kind) String() string {
	switch k {
	case KindWebGPU:
		return "webgpu"
	case KindWebGL2:
		return "webgl2"
	case KindWebGL1:
		return "webgl1"
	default:
		return "unknown"
	}
}

// ShaderSource carries every representation a backend might need to compile
// one named shader program. A WebGPU backend consumes WGSL only; a WebGL
// backend consumes the GLSL pair. No GLSL-to-WGSL transpilation is performed
// (see CompileShader) — a caller targeting both backend families supplies
// both representations.
type ShaderSource struct {
	Name         string
	VertexGLSL   string
	FragmentGLSL string
	WGSL         string
}

// Stats is the draw-call instrumentation every backend accumulates across
// its lifetime, reset on demand by ResetStats.
type Stats struct {
	StateChanges   uint64
	ShaderSwitches uint64
	TextureBinds   uint64
	DrawCalls      uint64
}

// TextureFormat is the closed set of pixel formats a texture descriptor may
// request.
type TextureFormat int

const (
	TextureFormatRGBA8 TextureFormat = iota
	TextureFormatRGBA16Float
	TextureFormatR8
)

// FilterMode is the closed set of texture sampling filters.
type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterLinear
)

// WrapMode is the closed set of texture coordinate wrap behaviors.
type WrapMode int

const (
	WrapClampToEdge WrapMode = iota
	WrapRepeat
	WrapMirrorRepeat
)

// TextureDescriptor describes a texture a backend should lazily create the
// first time it is bound. RegisterTexture stores the descriptor; BindTexture
// creates (and caches) the GPU-side object from it on first use, per spec
// §4.C's "bindTexture... with lazy GPU-side texture creation from
// descriptor."
type TextureDescriptor struct {
	Name      string
	Width     int
	Height    int
	Format    TextureFormat
	MinFilter FilterMode
	MagFilter FilterMode
	WrapU     WrapMode
	WrapV     WrapMode
	// Data is optional initial pixel data, tightly packed row-major in
	// Format's layout. A nil Data allocates storage without initializing it.
	Data []byte
}

// RenderTargetDescriptor describes an off-screen render target a backend
// should lazily create the first time it is bound in place of the default
// surface.
type RenderTargetDescriptor struct {
	Name        string
	Width       int
	Height      int
	ColorFormat TextureFormat
	HasDepth    bool
}

// Backend is the GPU execution target a render/bridge.Bridge drives. It
// embeds command.Executor so a CommandBuffer can replay directly against it,
// and adds the lifecycle operations no single recorded command models.
type Backend interface {
	command.Executor

	// Kind reports which concrete backend this is.
	Kind() Kind

	// CompileShader compiles and links the named shader program from src,
	// returning whether compilation succeeded. A WebGPU backend requires
	// src.WGSL and returns false without attempting anything if it is empty
	// (no GLSL transpilation is performed); a WebGL backend requires
	// src.VertexGLSL/src.FragmentGLSL. On failure the underlying
	// compile/link error is retained and retrievable via CompileError rather
	// than returned here, so a failed shader degrades to a permanent no-op
	// for the session instead of aborting the caller.
	CompileShader(src ShaderSource) bool

	// CompileError returns the last compile/link failure recorded for the
	// named shader, or nil if it compiled successfully or was never
	// submitted.
	CompileError(name string) error

	// Resize reconfigures the backend's render target (swap chain, default
	// framebuffer) to the given pixel dimensions.
	Resize(width, height int)

	// Present flips the backend's render target to the screen, ending the
	// frame started by the first Clear/SetState of a CommandBuffer replay.
	Present()

	// Dispose releases every GPU-side resource the backend owns. The backend
	// must not be used afterward.
	Dispose()

	// GetStats returns the accumulated draw-call instrumentation.
	GetStats() Stats

	// ResetStats zeroes the accumulated instrumentation.
	ResetStats()

	// RegisterTexture stores desc for lazy creation the first time
	// Executor.BindTexture is called with desc.Name, returning whether the
	// descriptor was accepted (false for an empty Name or non-positive
	// dimensions).
	RegisterTexture(desc TextureDescriptor) bool

	// TextureError returns the last GPU-side creation failure recorded for
	// the named texture, or nil if it was created successfully or never
	// registered.
	TextureError(name string) error

	// RegisterRenderTarget stores desc for lazy framebuffer creation the
	// first time Executor.BindRenderTarget is called with desc.Name.
	RegisterRenderTarget(desc RenderTargetDescriptor) bool

	// RenderTargetError returns the last framebuffer-completeness failure
	// recorded for the named render target, or nil if it is complete or was
	// never registered.
	RenderTargetError(name string) error
}

// Attempt is one entry in an ordered backend-selection list: a Kind label and
// the constructor to try for it. New returning a non-nil error means that
// backend could not be acquired on this host (e.g. no WebGPU adapter, no
// WebGL2 context) and the next Attempt should be tried.
type Attempt struct {
	Kind Kind
	New  func() (Backend, error)
}

// Select tries each Attempt in order and returns the first Backend
// successfully constructed. Per spec, WebGPU is preferred, then WebGL2, then
// WebGL1; callers supply attempts in that order. If every attempt fails,
// Select returns rendererr.ErrBackendUnavailable wrapping the last
// constructor's error.
func Select(attempts ...Attempt) (Backend, error) {
	var lastErr error
	for _, a := range attempts {
		b, err := a.New()
		if err == nil {
			return b, nil
		}
		lastErr = fmt.Errorf("%s: %w", a.Kind, err)
	}
	if lastErr == nil {
		return nil, rendererr.ErrBackendUnavailable
	}
	return nil, errors.Join(rendererr.ErrBackendUnavailable, lastErr)
}
