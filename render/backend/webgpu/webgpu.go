// Package webgpu implements render/backend.Backend over
// github.com/cogentcore/webgpu, the preferred backend of spec §4.C's
// fallback order. It draws a single fullscreen NDC triangle list through
// whichever procedural shader is currently bound, uploading the packed VIB3
// channel set as one uniform buffer binding rather than the WebGL path's
// individually cached uniform locations.
package webgpu

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/vib3/render-core/render/backend"
	"github.com/vib3/render-core/render/command"
	"github.com/vib3/render-core/render/rendererr"
	"github.com/vib3/render-core/render/resource"
	"github.com/vib3/render-core/render/state"
	"github.com/vib3/render-core/render/uniform"
)

// quadVAOName is the only vertex-array name BindVertexArray accepts, matching
// the WebGL backend's hardcoded fullscreen quad.
const quadVAOName = "fullscreen-quad"

// quadVertices mirrors the WebGL backend's fullscreen NDC triangle list, so
// both backends draw identical geometry for identical Draw(6, 0) calls.
var quadVertices = [12]float32{
	-1, -1, 1, -1, -1, 1,
	-1, 1, 1, -1, 1, 1,
}

// pipelineKey identifies one cached render pipeline: WebGPU bakes blend,
// depth, and stencil configuration into the pipeline object itself (unlike
// OpenGL's dynamic state), so a distinct RenderState for an otherwise
// identical shader requires its own pipeline. The cache keys on the pair so
// repeated (shader, state) combinations — the common case, since a layer's
// RenderState rarely changes frame to frame — reuse the same pipeline
// instead of rebuilding it every draw.
type pipelineKey struct {
	shader string
	rs     state.RenderState
}

type shaderEntry struct {
	module     *wgpu.ShaderModule
	compileErr error
}

// textureEntry tracks one RegisterTexture descriptor through its lazy
// creation on first BindTexture call, mirroring the WebGL backend's entry.
type textureEntry struct {
	desc    backend.TextureDescriptor
	texture *wgpu.Texture
	view    *wgpu.TextureView
	created bool
	err     error
}

// renderTargetEntry tracks one RegisterRenderTarget descriptor. WebGPU has no
// GL-style framebuffer-completeness query: a render-target-usage texture
// either creates successfully or CreateTexture returns an error, which is
// recorded here in place of a completeness status name.
type renderTargetEntry struct {
	desc    backend.RenderTargetDescriptor
	color   *wgpu.Texture
	depth   *wgpu.Texture
	created bool
	err     error
}

// Backend is the WebGPU implementation of backend.Backend.
type Backend struct {
	mu sync.Mutex

	registry *resource.Registry

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	width, height int

	uniformLayout *wgpu.BindGroupLayout
	uniformBuffer *wgpu.Buffer
	uniformGroup  *wgpu.BindGroup

	vertexBuffer *wgpu.Buffer

	shaders       map[string]*shaderEntry
	pipelines     map[pipelineKey]*wgpu.RenderPipeline
	textures      map[string]*textureEntry
	renderTargets map[string]*renderTargetEntry

	pendingShader string
	activeState   state.RenderState
	pushedStates  []state.RenderState

	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	stats backend.Stats
}

// uniformBufferSize matches uniform.Vib3BlockSize: the backend uploads the
// packed block as a single binding rather than individual uniforms.
const uniformBufferSize = uniform.Vib3BlockSize

// New acquires an adapter and device against surfaceDescriptor and configures
// the swap chain at width x height. A failure at any acquisition step is
// returned so backend.Select can fall through to the WebGL attempt, per
// spec §4.C's preference order.
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, registry *resource.Registry) (backend.Backend, error) {
	b := &Backend{
		registry:      registry,
		instance:      wgpu.CreateInstance(nil),
		shaders:       make(map[string]*shaderEntry),
		pipelines:     make(map[pipelineKey]*wgpu.RenderPipeline),
		textures:      make(map[string]*textureEntry),
		renderTargets: make(map[string]*renderTargetEntry),
		width:         width,
		height:        height,
	}

	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: RequestAdapter: %w", err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "vib3 device"})
	if err != nil {
		return nil, fmt.Errorf("webgpu: RequestDevice: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeImmediate,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if err := b.initUniformBinding(); err != nil {
		return nil, err
	}
	if err := b.initVertexBuffer(); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *Backend) initUniformBinding() error {
	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "vib3 uniform layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("webgpu: CreateBindGroupLayout: %w", err)
	}
	b.uniformLayout = layout

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "vib3 uniform buffer",
		Size:  uniformBufferSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("webgpu: CreateBuffer(uniform): %w", err)
	}
	b.uniformBuffer = buf

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "vib3 uniform group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Offset: 0, Size: uniformBufferSize},
		},
	})
	if err != nil {
		return fmt.Errorf("webgpu: CreateBindGroup: %w", err)
	}
	b.uniformGroup = group

	if b.registry != nil {
		b.registry.Register(resource.TypeBuffer, buf, func() error { buf.Release(); return nil },
			resource.Options{Bytes: uniformBufferSize, Label: "vib3-uniform-buffer"})
	}
	return nil
}

func (b *Backend) initVertexBuffer() error {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "fullscreen quad",
		Size:  uint64(len(quadVertices) * 4),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("webgpu: CreateBuffer(vertex): %w", err)
	}
	b.vertexBuffer = buf
	b.queue.WriteBuffer(buf, 0, quadVertexBytes())

	if b.registry != nil {
		b.registry.Register(resource.TypeBuffer, buf, func() error { buf.Release(); return nil },
			resource.Options{Bytes: uint64(len(quadVertices) * 4), Label: "fullscreen-quad-vbo"})
	}
	return nil
}

func quadVertexBytes() []byte {
	out := make([]byte, len(quadVertices)*4)
	for i, f := range quadVertices {
		bits := math.Float32bits(f)
		out[i*4] = byte(bits)
		out[i*4+1] = byte(bits >> 8)
		out[i*4+2] = byte(bits >> 16)
		out[i*4+3] = byte(bits >> 24)
	}
	return out
}

// Kind reports KindWebGPU.
func (b *Backend) Kind() backend.Kind { return backend.KindWebGPU }

// CompileShader compiles src.WGSL into a shader module usable by both the
// vertex ("vs_main") and fragment ("fs_main") stages of a pipeline built
// against it. Per the decision recorded for WGSL-less deployments, a source
// with no WGSL is rejected outright — this backend performs no GLSL-to-WGSL
// transpilation. Actual module creation happens on a background goroutine
// and this method blocks on its completion channel, the same baseline
// goroutine/channel suspension idiom used elsewhere in the core for a single
// pending compile (no worker pool needed for one compile at a time).
func (b *Backend) CompileShader(src backend.ShaderSource) bool {
	if src.WGSL == "" {
		b.mu.Lock()
		b.shaders[src.Name] = &shaderEntry{compileErr: fmt.Errorf("webgpu: shader %q has no WGSL source", src.Name)}
		b.mu.Unlock()
		return false
	}

	type result struct {
		module *wgpu.ShaderModule
		err    error
	}
	done := make(chan result, 1)
	go func() {
		m, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
			Label:          src.Name,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.WGSL},
		})
		done <- result{module: m, err: err}
	}()
	r := <-done

	b.mu.Lock()
	defer b.mu.Unlock()
	if r.err != nil {
		b.shaders[src.Name] = &shaderEntry{compileErr: &rendererr.ShaderCompileError{Stage: "wgsl", Log: r.err.Error()}}
		return false
	}
	b.shaders[src.Name] = &shaderEntry{module: r.module}
	return true
}

// CompileError returns the stored compile failure for name, if any.
func (b *Backend) CompileError(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.shaders[name]; ok {
		return e.compileErr
	}
	return nil
}

// ensurePipeline builds (or reuses) the render pipeline for the currently
// pending shader and active RenderState, creating it lazily the first time
// this (shader, state) pair is drawn. A PipelineCreateError demotes the
// shader to a permanent no-op for the session rather than aborting the
// frame, per spec §7's propagation policy.
func (b *Backend) ensurePipeline() *wgpu.RenderPipeline {
	b.mu.Lock()
	defer b.mu.Unlock()

	name := b.pendingShader
	entry, ok := b.shaders[name]
	if !ok || entry.compileErr != nil || entry.module == nil {
		return nil
	}

	key := pipelineKey{shader: name, rs: b.activeState}
	if p, ok := b.pipelines[key]; ok {
		return p
	}

	pipeline, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  name + " pipeline",
		Layout: b.mustPipelineLayout(),
		Vertex: wgpu.VertexState{
			Module:     entry.module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 2 * 4,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     entry.module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.surfaceFormat,
					WriteMask: colorWriteMask(b.activeState.ColorMask),
					Blend:     blendState(b.activeState.Blend),
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: frontFace(b.activeState.Rasterizer.FrontFaceCCW),
			CullMode:  cullMode(b.activeState.Rasterizer.CullMode),
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: b.activeState.Depth.Write,
			DepthCompare:      compareFunction(b.activeState.Depth.Compare),
		},
	})
	if err != nil {
		b.shaders[name] = &shaderEntry{compileErr: &rendererr.PipelineCreateError{ShaderName: name, Reason: err.Error()}}
		return nil
	}

	b.pipelines[key] = pipeline
	return pipeline
}

func (b *Backend) mustPipelineLayout() *wgpu.PipelineLayout {
	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "vib3 pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.uniformLayout},
	})
	if err != nil {
		return nil
	}
	return layout
}

func colorWriteMask(m state.ColorMask) wgpu.ColorWriteMask {
	var mask wgpu.ColorWriteMask
	if m.R {
		mask |= wgpu.ColorWriteMaskRed
	}
	if m.G {
		mask |= wgpu.ColorWriteMaskGreen
	}
	if m.B {
		mask |= wgpu.ColorWriteMaskBlue
	}
	if m.A {
		mask |= wgpu.ColorWriteMaskAlpha
	}
	return mask
}

func blendState(bl state.BlendState) *wgpu.BlendState {
	if !bl.Enabled {
		return nil
	}
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: blendFactor(bl.SrcRGB),
			DstFactor: blendFactor(bl.DstRGB),
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: blendFactor(bl.SrcAlpha),
			DstFactor: blendFactor(bl.DstAlpha),
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

func blendFactor(f state.BlendFactor) wgpu.BlendFactor {
	switch f {
	case state.BlendFactorZero:
		return wgpu.BlendFactorZero
	case state.BlendFactorOne:
		return wgpu.BlendFactorOne
	case state.BlendFactorSrcColor:
		return wgpu.BlendFactorSrc
	case state.BlendFactorOneMinusSrcColor:
		return wgpu.BlendFactorOneMinusSrc
	case state.BlendFactorSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case state.BlendFactorOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	case state.BlendFactorDstColor:
		return wgpu.BlendFactorDst
	case state.BlendFactorOneMinusDstColor:
		return wgpu.BlendFactorOneMinusDst
	case state.BlendFactorDstAlpha:
		return wgpu.BlendFactorDstAlpha
	case state.BlendFactorOneMinusDstAlpha:
		return wgpu.BlendFactorOneMinusDstAlpha
	case state.BlendFactorConstantColor:
		return wgpu.BlendFactorConstant
	case state.BlendFactorOneMinusConstantColor:
		return wgpu.BlendFactorOneMinusConstant
	default:
		return wgpu.BlendFactorOne
	}
}

func frontFace(ccw bool) wgpu.FrontFace {
	if ccw {
		return wgpu.FrontFaceCCW
	}
	return wgpu.FrontFaceCW
}

func cullMode(m state.CullMode) wgpu.CullMode {
	switch m {
	case state.CullFront:
		return wgpu.CullModeFront
	case state.CullBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func compareFunction(c state.CompareFunction) wgpu.CompareFunction {
	switch c {
	case state.CompareNever:
		return wgpu.CompareFunctionNever
	case state.CompareLess:
		return wgpu.CompareFunctionLess
	case state.CompareEqual:
		return wgpu.CompareFunctionEqual
	case state.CompareLessEqual:
		return wgpu.CompareFunctionLessEqual
	case state.CompareGreater:
		return wgpu.CompareFunctionGreater
	case state.CompareNotEqual:
		return wgpu.CompareFunctionNotEqual
	case state.CompareGreaterEqual:
		return wgpu.CompareFunctionGreaterEqual
	default:
		return wgpu.CompareFunctionAlways
	}
}

// Resize reconfigures the swap chain to the new pixel dimensions.
func (b *Backend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeImmediate,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

// Present submits the accumulated frame command buffer and flips the swap
// chain, collapsing the usual BeginFrame/EndFrame/Present split into a
// single call since a CommandBuffer replay is always one pass.
func (b *Backend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.framePass == nil {
		return
	}
	b.framePass.End()

	cmd, err := b.frameEncoder.Finish(nil)
	if err == nil {
		b.queue.Submit(cmd)
		cmd.Release()
	}
	b.frameEncoder.Release()
	b.frameView.Release()
	b.surface.Present()
	b.frameSurface.Release()

	b.frameEncoder = nil
	b.framePass = nil
	b.frameSurface = nil
	b.frameView = nil
}

// Dispose releases every GPU object the backend owns.
func (b *Backend) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = make(map[pipelineKey]*wgpu.RenderPipeline)
	for _, s := range b.shaders {
		if s.module != nil {
			s.module.Release()
		}
	}
	b.shaders = make(map[string]*shaderEntry)
	if b.registry != nil {
		b.registry.DisposeType(resource.TypeBuffer)
		b.registry.DisposeType(resource.TypeTexture)
		b.registry.DisposeType(resource.TypeFramebuffer)
	}
	b.textures = make(map[string]*textureEntry)
	b.renderTargets = make(map[string]*renderTargetEntry)
	if b.device != nil {
		b.device.Release()
	}
}

// GetStats returns the accumulated draw-call instrumentation.
func (b *Backend) GetStats() backend.Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// ResetStats zeroes the accumulated instrumentation.
func (b *Backend) ResetStats() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = backend.Stats{}
}

func (b *Backend) beginPassIfNeeded() bool {
	if b.framePass != nil {
		return true
	}
	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return false
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return false
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return false
	}

	b.frameSurface = surfaceTexture
	b.frameView = view
	b.frameEncoder = encoder
	b.framePass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    view,
				LoadOp:  wgpu.LoadOpLoad,
				StoreOp: wgpu.StoreOpStore,
			},
		},
	})
	return true
}

// Clear begins the frame's render pass with the given clear configuration.
// Because WebGPU's load op is fixed for the pass's lifetime, a Clear command
// must be the first command of a frame (matching spec §4.D's documented
// command ordering). A Clear issued while the frame's pass is already open
// is ignored: this single-pass core does not end and re-begin the pass.
func (b *Backend) Clear(opts command.ClearOptions) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass != nil {
		return
	}
	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return
	}

	loadOp := wgpu.LoadOpLoad
	clearColor := wgpu.Color{}
	if opts.Color {
		loadOp = wgpu.LoadOpClear
		clearColor = wgpu.Color{
			R: float64(opts.ColorValue[0]), G: float64(opts.ColorValue[1]),
			B: float64(opts.ColorValue[2]), A: float64(opts.ColorValue[3]),
		}
	}

	var depthAttachment *wgpu.RenderPassDepthStencilAttachment
	if opts.Depth || opts.Stencil {
		depthAttachment = &wgpu.RenderPassDepthStencilAttachment{
			DepthLoadOp:  wgpu.LoadOpClear,
			DepthStoreOp: wgpu.StoreOpStore,
			DepthClearValue: opts.DepthValue,
		}
	}

	b.frameSurface = surfaceTexture
	b.frameView = view
	b.frameEncoder = encoder
	b.framePass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{View: view, LoadOp: loadOp, StoreOp: wgpu.StoreOpStore, ClearValue: clearColor},
		},
		DepthStencilAttachment: depthAttachment,
	})
}

// SetState records the RenderState the next draws should use. Unlike the
// WebGL backend, applying it has no immediate GPU call: WebGPU bakes state
// into the pipeline object, so the effect is deferred to ensurePipeline.
func (b *Backend) SetState(s state.RenderState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activeState = s
	b.stats.StateChanges++
}

// SetViewport sets the render pass's viewport rectangle.
func (b *Backend) SetViewport(r command.Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.framePass == nil {
		return
	}
	b.framePass.SetViewport(float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height), 0, 1)
}

// SetScissor sets the render pass's scissor rectangle.
func (b *Backend) SetScissor(r command.Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.framePass == nil {
		return
	}
	b.framePass.SetScissorRect(uint32(r.X), uint32(r.Y), uint32(r.Width), uint32(r.Height))
}

// BindShader records the pending shader name for the next draw's
// ensurePipeline lookup.
func (b *Backend) BindShader(name string) {
	b.mu.Lock()
	changed := b.pendingShader != name
	b.pendingShader = name
	if changed {
		b.stats.ShaderSwitches++
	}
	b.mu.Unlock()
}

// wgpuBufferUsage maps a command.BufferUsage to the wgpu usage flags
// appropriate for it, always including CopyDst so UpdateBuffer can target it.
func wgpuBufferUsage(usage command.BufferUsage) wgpu.BufferUsage {
	switch usage {
	case command.BufferUsageIndex:
		return wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	case command.BufferUsageUniform:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	default:
		return wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	}
}

// CreateBuffer allocates a wgpu.Buffer from desc, uploading desc.Data
// immediately via WriteBuffer when present.
func (b *Backend) CreateBuffer(desc command.BufferDescriptor) (command.Buffer, error) {
	size := desc.Size
	if desc.Data != nil {
		size = len(desc.Data)
	}
	if size <= 0 {
		return command.Buffer{}, fmt.Errorf("webgpu: CreateBuffer: size must be positive")
	}
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: fmt.Sprintf("buffer-%d", size),
		Size:  uint64(size),
		Usage: wgpuBufferUsage(desc.Usage),
	})
	if err != nil {
		return command.Buffer{}, fmt.Errorf("webgpu: CreateBuffer: %w", err)
	}
	if desc.Data != nil {
		b.queue.WriteBuffer(buf, 0, desc.Data)
	}
	if b.registry != nil {
		b.registry.Register(resource.TypeBuffer, buf, func() error { buf.Release(); return nil },
			resource.Options{Bytes: uint64(size), Label: fmt.Sprintf("buffer-%d", size)})
	}
	return command.Buffer{Handle: buf, Size: size, Usage: desc.Usage}, nil
}

// UpdateBuffer overwrites buf's contents at offset via the device queue.
func (b *Backend) UpdateBuffer(buf command.Buffer, data []byte, offset int) error {
	handle, ok := buf.Handle.(*wgpu.Buffer)
	if !ok || handle == nil {
		return fmt.Errorf("webgpu: UpdateBuffer: not a webgpu buffer handle")
	}
	if len(data) == 0 {
		return nil
	}
	b.queue.WriteBuffer(handle, uint64(offset), data)
	return nil
}

// DeleteBuffer releases buf's GPU-side storage.
func (b *Backend) DeleteBuffer(buf command.Buffer) error {
	handle, ok := buf.Handle.(*wgpu.Buffer)
	if !ok || handle == nil {
		return nil
	}
	if b.registry != nil && b.registry.Dispose(resource.TypeBuffer, handle) {
		return nil
	}
	handle.Release()
	return nil
}

// RegisterTexture stores desc for lazy creation the first time BindTexture
// is called with desc.Name.
func (b *Backend) RegisterTexture(desc backend.TextureDescriptor) bool {
	if desc.Name == "" || desc.Width <= 0 || desc.Height <= 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.textures[desc.Name] = &textureEntry{desc: desc}
	return true
}

// TextureError returns the last GPU-side creation failure recorded for name.
func (b *Backend) TextureError(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.textures[name]; ok {
		return e.err
	}
	return nil
}

// BindTexture lazily creates the GPU texture for a registered name on first
// use, per spec §4.C's "bindTexture... with lazy GPU-side texture creation
// from descriptor." Unregistered names only bump the bind-call counter: the
// core's single fullscreen-quad shaders sample no external textures by
// default, so a bind with no matching descriptor is a harmless no-op rather
// than an error.
func (b *Backend) BindTexture(slot int, name string) {
	b.mu.Lock()
	entry, ok := b.textures[name]
	b.mu.Unlock()
	if !ok {
		b.mu.Lock()
		b.stats.TextureBinds++
		b.mu.Unlock()
		return
	}
	b.mu.Lock()
	needsCreate := !entry.created && entry.err == nil
	b.mu.Unlock()
	if needsCreate {
		b.createTexture(entry)
	}
	b.mu.Lock()
	b.stats.TextureBinds++
	b.mu.Unlock()
}

func (b *Backend) createTexture(entry *textureEntry) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     entry.desc.Name,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(entry.desc.Width),
			Height:             uint32(entry.desc.Height),
			DepthOrArrayLayers: 1,
		},
		Format:        wgpuTextureFormat(entry.desc.Format),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		b.mu.Lock()
		entry.err = fmt.Errorf("webgpu: CreateTexture %q: %w", entry.desc.Name, err)
		b.mu.Unlock()
		return
	}

	if len(entry.desc.Data) > 0 {
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{Texture: tex, MipLevel: 0, Origin: wgpu.Origin3D{}, Aspect: wgpu.TextureAspectAll},
			entry.desc.Data,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(entry.desc.Width) * bytesPerPixel(entry.desc.Format),
				RowsPerImage: uint32(entry.desc.Height),
			},
			&wgpu.Extent3D{Width: uint32(entry.desc.Width), Height: uint32(entry.desc.Height), DepthOrArrayLayers: 1},
		)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		b.mu.Lock()
		entry.err = fmt.Errorf("webgpu: CreateView %q: %w", entry.desc.Name, err)
		b.mu.Unlock()
		return
	}

	b.mu.Lock()
	entry.texture, entry.view, entry.created = tex, view, true
	b.mu.Unlock()
	if b.registry != nil {
		bytes := uint64(entry.desc.Width) * uint64(entry.desc.Height) * uint64(bytesPerPixel(entry.desc.Format))
		b.registry.Register(resource.TypeTexture, tex, func() error { view.Release(); tex.Release(); return nil },
			resource.Options{Bytes: bytes, Label: entry.desc.Name})
	}
}

func wgpuTextureFormat(f backend.TextureFormat) wgpu.TextureFormat {
	switch f {
	case backend.TextureFormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case backend.TextureFormatR8:
		return wgpu.TextureFormatR8Unorm
	default:
		return wgpu.TextureFormatRGBA8Unorm
	}
}

func bytesPerPixel(f backend.TextureFormat) uint32 {
	switch f {
	case backend.TextureFormatRGBA16Float:
		return 8
	case backend.TextureFormatR8:
		return 1
	default:
		return 4
	}
}

// BindVertexArray accepts only the fullscreen quad's name, logging loudly
// and falling back to the single vertex buffer created at construction on
// any other name, matching the WebGL backend's behavior.
func (b *Backend) BindVertexArray(name string) {
	if name != "" && name != quadVAOName {
		slog.Default().Error("webgpu: unknown vertex array, binding fullscreen quad instead",
			slog.String("requested", name))
	}
}

// BindIndexBuffer is a no-op for the same reason as BindVertexArray.
func (b *Backend) BindIndexBuffer(format command.IndexFormat) {}

// RegisterRenderTarget stores desc for lazy creation the first time
// BindRenderTarget is called with desc.Name.
func (b *Backend) RegisterRenderTarget(desc backend.RenderTargetDescriptor) bool {
	if desc.Name == "" || desc.Width <= 0 || desc.Height <= 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.renderTargets[desc.Name] = &renderTargetEntry{desc: desc}
	return true
}

// RenderTargetError returns the last creation failure recorded for name.
func (b *Backend) RenderTargetError(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.renderTargets[name]; ok {
		return e.err
	}
	return nil
}

// BindRenderTarget is a no-op beyond lazily creating the registered target's
// backing textures: this single-pass core only ever renders into the swap
// chain the surface layer owns, so an off-screen render target exists for
// Executor completeness and future multi-pass use rather than an active
// attachment swap.
func (b *Backend) BindRenderTarget(name string, has bool) {
	if !has {
		return
	}
	b.mu.Lock()
	entry, ok := b.renderTargets[name]
	b.mu.Unlock()
	if !ok {
		slog.Default().Error("webgpu: unknown render target", slog.String("name", name))
		return
	}
	b.mu.Lock()
	needsCreate := !entry.created && entry.err == nil
	b.mu.Unlock()
	if needsCreate {
		b.createRenderTarget(entry)
	}
}

func (b *Backend) createRenderTarget(entry *renderTargetEntry) {
	color, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     entry.desc.Name + " color",
		Usage:     wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(entry.desc.Width),
			Height:             uint32(entry.desc.Height),
			DepthOrArrayLayers: 1,
		},
		Format:        wgpuTextureFormat(entry.desc.ColorFormat),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		slog.Default().Error("webgpu: render target color attachment failed",
			slog.String("name", entry.desc.Name), slog.String("error", err.Error()))
		b.mu.Lock()
		entry.err = fmt.Errorf("webgpu: render target %q: %w", entry.desc.Name, err)
		b.mu.Unlock()
		return
	}

	var depth *wgpu.Texture
	if entry.desc.HasDepth {
		depth, err = b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:     entry.desc.Name + " depth",
			Usage:     wgpu.TextureUsageRenderAttachment,
			Dimension: wgpu.TextureDimension2D,
			Size: wgpu.Extent3D{
				Width:              uint32(entry.desc.Width),
				Height:             uint32(entry.desc.Height),
				DepthOrArrayLayers: 1,
			},
			Format:        wgpu.TextureFormatDepth24Plus,
			MipLevelCount: 1,
			SampleCount:   1,
		})
		if err != nil {
			slog.Default().Error("webgpu: render target depth attachment failed",
				slog.String("name", entry.desc.Name), slog.String("error", err.Error()))
			color.Release()
			b.mu.Lock()
			entry.err = fmt.Errorf("webgpu: render target %q depth: %w", entry.desc.Name, err)
			b.mu.Unlock()
			return
		}
	}

	b.mu.Lock()
	entry.color, entry.depth, entry.created = color, depth, true
	b.mu.Unlock()
	if b.registry != nil {
		b.registry.Register(resource.TypeFramebuffer, color, func() error {
			color.Release()
			if depth != nil {
				depth.Release()
			}
			return nil
		}, resource.Options{Label: entry.desc.Name})
	}
}

// SetUniform ignores individual writes: WebGPU uploads the whole packed
// block in one WriteBuffer call via SetUniforms, matching spec §6's "single
// uniform buffer binding" model. A lone SetUniform against a field the
// packed block doesn't carry is accepted as a no-op rather than rejected,
// since a caller may legitimately target either backend with the same
// command stream.
func (b *Backend) SetUniform(name string, v any) {}

// SetUniforms writes every named uniform into the packed block's byte layout
// at its normative slot offset, then uploads the whole block in one
// WriteBuffer call.
func (b *Backend) SetUniforms(values []command.NamedUniform) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var block uniform.Vib3Block
	offsets := uniform.UniformName
	for _, nv := range values {
		f, ok := nv.Value.Float32()
		if !ok {
			continue
		}
		for i, name := range offsets {
			if name == nv.Name {
				setNamedSlot(&block, i, f)
				break
			}
		}
	}
	b.queue.WriteBuffer(b.uniformBuffer, 0, block.Bytes())
}

// setNamedSlot writes f into the field of block corresponding to named slot
// index i, mirroring uniform.Vib3Block.namedSlotValues' slot table in
// reverse. This backend is the only caller that needs write access to
// individual named slots (the WebGL path instead uploads each named value to
// its own uniform location).
func setNamedSlot(block *uniform.Vib3Block, slot int, v float32) {
	switch slot {
	case uniform.SlotTime:
		block.Time = v
	case uniform.SlotResolutionX:
		block.ResolutionX = v
	case uniform.SlotResolutionY:
		block.ResolutionY = v
	case uniform.SlotGeometry:
		block.Geometry = v
	case uniform.SlotRot4dXY:
		block.Rot4dXY = v
	case uniform.SlotRot4dXZ:
		block.Rot4dXZ = v
	case uniform.SlotRot4dYZ:
		block.Rot4dYZ = v
	case uniform.SlotRot4dXW:
		block.Rot4dXW = v
	case uniform.SlotRot4dYW:
		block.Rot4dYW = v
	case uniform.SlotRot4dZW:
		block.Rot4dZW = v
	case uniform.SlotDimension:
		block.Dimension = v
	case uniform.SlotGridDensity:
		block.GridDensity = v
	case uniform.SlotMorphFactor:
		block.MorphFactor = v
	case uniform.SlotChaos:
		block.Chaos = v
	case uniform.SlotSpeed:
		block.Speed = v
	case uniform.SlotHue:
		block.Hue = v
	case uniform.SlotIntensity:
		block.Intensity = v
	case uniform.SlotSaturation:
		block.Saturation = v
	case uniform.SlotMouseIntensity:
		block.MouseIntensity = v
	case uniform.SlotClickIntensity:
		block.ClickIntensity = v
	case uniform.SlotBass:
		block.Bass = v
	case uniform.SlotMid:
		block.Mid = v
	case uniform.SlotHigh:
		block.High = v
	case uniform.SlotLayerScale:
		block.LayerScale = v
	case uniform.SlotLayerOpacity:
		block.LayerOpacity = v
	case uniform.SlotLayerColorR:
		block.LayerColorR = v
	case uniform.SlotLayerColorG:
		block.LayerColorG = v
	case uniform.SlotLayerColorB:
		block.LayerColorB = v
	case uniform.SlotDensityMult:
		block.DensityMult = v
	case uniform.SlotSpeedMult:
		block.SpeedMult = v
	}
}

// SetRotor writes the rotation-plane components directly into the uniform
// buffer without waiting for a full SetUniforms call: only the six rotation
// slots (u_rot4dXY..u_rot4dZW) are rewritten, the rest of the block keeps
// its last uploaded values, and the trailing two rotor components are unused.
func (b *Backend) SetRotor(rotor [8]float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var block uniform.Vib3Block
	block.Rot4dXY, block.Rot4dXZ, block.Rot4dYZ = rotor[0], rotor[1], rotor[2]
	block.Rot4dXW, block.Rot4dYW, block.Rot4dZW = rotor[3], rotor[4], rotor[5]
	raw := block.Bytes()
	b.queue.WriteBuffer(b.uniformBuffer, uniform.SlotRot4dXY*4, raw[uniform.SlotRot4dXY*4:(uniform.SlotRot4dZW+1)*4])
}

// SetProjection is accepted for Executor shape-compatibility; the packed
// VIB3 block has no projection-matrix slot (the core ray-marches in the
// fragment shader rather than transforming vertices), so there is nothing
// to upload.
func (b *Backend) SetProjection(p command.Projection) {}

func (b *Backend) countDraw() {
	b.stats.DrawCalls++
}

func (b *Backend) drawSetup() bool {
	if !b.beginPassIfNeeded() {
		return false
	}
	pipeline := b.ensurePipeline()
	if pipeline == nil {
		return false
	}
	b.framePass.SetPipeline(pipeline)
	b.framePass.SetBindGroup(0, b.uniformGroup, nil)
	b.framePass.SetVertexBuffer(0, b.vertexBuffer, 0, wgpu.WholeSize)
	return true
}

// Draw issues an unindexed draw of the fullscreen quad.
func (b *Backend) Draw(vertexCount, firstVertex int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.drawSetup() {
		return
	}
	b.framePass.Draw(uint32(vertexCount), 1, uint32(firstVertex), 0)
	b.countDraw()
}

// DrawIndexed draws the fullscreen quad unindexed, same rationale as the
// WebGL backend's DrawIndexed: there is no index buffer to bind.
func (b *Backend) DrawIndexed(indexCount, firstIndex int) {
	b.Draw(indexCount, firstIndex)
}

// DrawInstanced issues instanceCount unindexed draws of the fullscreen quad.
func (b *Backend) DrawInstanced(vertexCount, firstVertex, instanceCount int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.drawSetup() {
		return
	}
	b.framePass.Draw(uint32(vertexCount), uint32(instanceCount), uint32(firstVertex), 0)
	b.countDraw()
}

// DrawIndexedInstanced behaves like DrawInstanced, mirroring DrawIndexed's
// rationale.
func (b *Backend) DrawIndexedInstanced(indexCount, firstIndex, instanceCount int) {
	b.DrawInstanced(indexCount, firstIndex, instanceCount)
}

// SetBlendMode updates the pending RenderState's blend component. Since
// WebGPU bakes blend state into the pipeline, the effect only becomes
// visible the next time ensurePipeline runs for this (shader, state) pair.
func (b *Backend) SetBlendMode(bl state.BlendState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activeState.Blend = bl
}

// SetDepthState updates the pending RenderState's depth component, same
// deferred-effect caveat as SetBlendMode.
func (b *Backend) SetDepthState(d state.DepthState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activeState.Depth = d
}

// SetStencil updates the pending RenderState's stencil component. WebGPU
// pipelines carry stencil state too, but this core never enables stencil
// testing (no multi-pass stencil technique is in scope), so the field is
// tracked for Executor completeness only.
func (b *Backend) SetStencil(s state.StencilState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activeState.Stencil = s
}

// PushState saves the active RenderState for a later PopState.
func (b *Backend) PushState() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushedStates = append(b.pushedStates, b.activeState)
}

// PopState restores the RenderState saved by the matching PushState.
func (b *Backend) PopState() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pushedStates) == 0 {
		return
	}
	b.activeState = b.pushedStates[len(b.pushedStates)-1]
	b.pushedStates = b.pushedStates[:len(b.pushedStates)-1]
}
