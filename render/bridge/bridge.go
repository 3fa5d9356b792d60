// Package bridge implements the unified render bridge (spec §4.E): the
// single-canvas façade that owns one backend.Backend and replays one
// CommandBuffer against it per frame, plus the MultiCanvasOrchestrator that
// drives up to five bridges — one per fixed layer — in the z-order the
// layer relationship graph defines.
package bridge

import (
	"math"
	"sync"

	"github.com/vib3/render-core/render/backend"
	"github.com/vib3/render-core/render/command"
	"github.com/vib3/render-core/render/state"
)

// Bridge owns one backend and the shader/state it currently renders with. It
// is the smallest unit spec §4.E's "one bridge per canvas" describes;
// MultiCanvasOrchestrator composes five of them, one per layer.
type Bridge struct {
	mu sync.Mutex

	backend backend.Backend
	pool    *command.CommandBufferPool

	shaderName string
	state      state.RenderState
	width      int
	height     int
}

// Option configures a Bridge at construction time.
type Option func(*Bridge)

// WithInitialState sets the RenderState applied before the first Render
// call. Defaults to state.Opaque().
func WithInitialState(s state.RenderState) Option {
	return func(b *Bridge) { b.state = s }
}

// NewBridge constructs a Bridge over an already-selected backend.
func NewBridge(be backend.Backend, opts ...Option) *Bridge {
	b := &Bridge{
		backend: be,
		pool:    command.NewCommandBufferPool(),
		state:   state.Opaque(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CompileShader compiles src against the bridge's backend.
func (b *Bridge) CompileShader(src backend.ShaderSource) bool {
	return b.backend.CompileShader(src)
}

// CompileError returns the backend's stored compile failure for name.
func (b *Bridge) CompileError(name string) error {
	return b.backend.CompileError(name)
}

// SetShader changes the shader the next Render call binds.
func (b *Bridge) SetShader(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shaderName = name
}

// SetState changes the RenderState the next Render call applies.
func (b *Bridge) SetState(s state.RenderState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = s
}

// Render records Clear, SetState, SetViewport, BindShader, SetUniforms, and
// a six-vertex fullscreen-quad Draw into a pooled CommandBuffer, executes it
// against the backend, and returns the buffer to the pool. Present is not
// called here — MultiCanvasOrchestrator.RenderAll calls it once per backend
// after every layer has drawn, so canvases sharing a backend (the common
// single-surface case) are not flipped mid-frame.
func (b *Bridge) Render(viewport command.Rect, clear command.ClearOptions, uniforms []command.NamedUniform) error {
	b.mu.Lock()
	shaderName := b.shaderName
	s := b.state
	b.mu.Unlock()

	buf := b.pool.Acquire()
	defer b.pool.Release(buf)

	if err := buf.Clear(clear); err != nil {
		return err
	}
	if err := buf.SetState(s); err != nil {
		return err
	}
	if err := buf.SetViewport(viewport); err != nil {
		return err
	}
	if err := buf.BindShader(shaderName); err != nil {
		return err
	}
	if err := buf.SetUniforms(uniforms); err != nil {
		return err
	}
	if err := buf.Draw(6, 0, 0, false); err != nil {
		return err
	}

	buf.Seal()
	buf.Execute(b.backend)
	return nil
}

// Resize reconfigures the underlying backend's render target to
// floor(width*pixelRatio) x floor(height*pixelRatio) device pixels, per spec
// §4.E's resize(w,h,pixelRatio=1). A zero pixelRatio is treated as the
// documented default of 1 rather than collapsing the target to zero size.
func (b *Bridge) Resize(width, height int, pixelRatio float32) {
	if pixelRatio == 0 {
		pixelRatio = 1
	}
	devW := int(math.Floor(float64(width) * float64(pixelRatio)))
	devH := int(math.Floor(float64(height) * float64(pixelRatio)))
	b.mu.Lock()
	b.width, b.height = devW, devH
	b.mu.Unlock()
	b.backend.Resize(devW, devH)
}

// Present flips the underlying backend's render target.
func (b *Bridge) Present() { b.backend.Present() }

// Dispose releases the underlying backend's GPU resources.
func (b *Bridge) Dispose() { b.backend.Dispose() }

// Backend exposes the underlying backend for callers that need direct
// access (diagnostics, stats), without letting the orchestrator itself
// depend on a concrete backend type.
func (b *Bridge) Backend() backend.Backend { return b.backend }
