// Package webgl implements render/backend.Backend over desktop OpenGL 3.3
// core, the WebGL2-equivalent fallback backend of spec §4.C. It draws a
// fullscreen NDC quad (a six-vertex, two-triangle list) through whichever
// procedural shader is currently bound, uploading the packed VIB3 channel set
// one named value at a time through individually cached uniform locations
// (no uniform-buffer path exists below GL 3.1/WebGL2,
// so this mirrors what an actual WebGL1 context would have to do too).
package webgl

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/vib3/render-core/render/backend"
	"github.com/vib3/render-core/render/command"
	"github.com/vib3/render-core/render/rendererr"
	"github.com/vib3/render-core/render/resource"
	"github.com/vib3/render-core/render/state"
	"github.com/vib3/render-core/render/uniform"
)

// quadVAOName is the only vertex array name BindVertexArray ever actually
// binds against. Anything else is a caller bug, logged rather than silently
// substituted.
const quadVAOName = "fullscreen-quad"

// textureEntry is one registered-but-maybe-not-yet-created texture: the
// descriptor is stored by RegisterTexture, and the GL object is created
// lazily the first time BindTexture sees this name.
type textureEntry struct {
	desc    backend.TextureDescriptor
	handle  uint32
	created bool
	err     error
}

// renderTargetEntry mirrors textureEntry for off-screen framebuffers.
type renderTargetEntry struct {
	desc    backend.RenderTargetDescriptor
	fbo     uint32
	color   uint32
	depth   uint32
	created bool
	err     error
}

// program is one compiled/linked shader, cached by name. compileErr, when
// non-nil, means handle is a permanent no-op for the session — BindShader
// against a failed program silently keeps whatever was bound before it.
type program struct {
	handle     uint32
	locations  map[string]int32
	compileErr error
}

// Backend is the OpenGL 3.3 core implementation of backend.Backend. It must
// be constructed on the thread holding the current GL context (render/surface
// arranges this); every subsequent method call is expected from that same
// thread, matching OpenGL's own single-context-thread rule.
type Backend struct {
	mu sync.Mutex

	registry *resource.Registry

	programs map[string]*program
	current  *program

	quadVAO uint32
	quadVBO uint32

	textures      map[string]*textureEntry
	renderTargets map[string]*renderTargetEntry

	pushedStates []state.RenderState
	activeState  state.RenderState

	width, height int32

	stats backend.Stats
}

// quadVertices is the six-vertex NDC fullscreen triangle list (two triangles
// covering [-1,1]x[-1,1]) every procedural shader draws against — the core
// never rasterizes arbitrary meshes (see DESIGN.md's removed teacher
// modules).
var quadVertices = [12]float32{
	-1, -1, 1, -1, -1, 1,
	-1, 1, 1, -1, 1, 1,
}

// New constructs a webgl Backend against the current OpenGL context. Init
// binds the Go function pointers to the context's real entry points and
// fails if no context is current, which backend.Select treats as this
// Attempt being unavailable.
func New(registry *resource.Registry, width, height int) (backend.Backend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("webgl: gl.Init: %w", err)
	}

	b := &Backend{
		registry:      registry,
		programs:      make(map[string]*program),
		textures:      make(map[string]*textureEntry),
		renderTargets: make(map[string]*renderTargetEntry),
		width:         int32(width),
		height:        int32(height),
	}
	b.initQuad()
	return b, nil
}

func (b *Backend) initQuad() {
	gl.GenVertexArrays(1, &b.quadVAO)
	gl.GenBuffers(1, &b.quadVBO)

	gl.BindVertexArray(b.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(&quadVertices[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)

	if b.registry != nil {
		b.registry.Register(resource.TypeVAO, b.quadVAO, func() error {
			gl.DeleteVertexArrays(1, &b.quadVAO)
			return nil
		}, resource.Options{Label: "fullscreen-quad"})
		b.registry.Register(resource.TypeBuffer, b.quadVBO, func() error {
			gl.DeleteBuffers(1, &b.quadVBO)
			return nil
		}, resource.Options{Bytes: uint64(len(quadVertices) * 4), Label: "fullscreen-quad-vbo"})
	}
}

// Kind reports KindWebGL2 — this backend targets the OpenGL 3.3 core
// profile, the desktop analogue of a WebGL2 context.
func (b *Backend) Kind() backend.Kind { return backend.KindWebGL2 }

// CompileShader compiles src.VertexGLSL/src.FragmentGLSL and links them into
// a named program. A WGSL-only source (no GLSL pair) fails immediately,
// since this backend has no WGSL-to-GLSL path.
func (b *Backend) CompileShader(src backend.ShaderSource) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if src.VertexGLSL == "" || src.FragmentGLSL == "" {
		b.programs[src.Name] = &program{compileErr: fmt.Errorf("webgl: shader %q has no GLSL source", src.Name)}
		return false
	}

	vs, err := compileStage(gl.VERTEX_SHADER, src.VertexGLSL)
	if err != nil {
		b.programs[src.Name] = &program{compileErr: &rendererr.ShaderCompileError{Stage: "vertex", Log: err.Error()}}
		return false
	}
	defer gl.DeleteShader(vs)

	fs, err := compileStage(gl.FRAGMENT_SHADER, src.FragmentGLSL)
	if err != nil {
		b.programs[src.Name] = &program{compileErr: &rendererr.ShaderCompileError{Stage: "fragment", Log: err.Error()}}
		return false
	}
	defer gl.DeleteShader(fs)

	handle := gl.CreateProgram()
	gl.AttachShader(handle, vs)
	gl.AttachShader(handle, fs)
	gl.LinkProgram(handle)

	var ok int32
	gl.GetProgramiv(handle, gl.LINK_STATUS, &ok)
	if ok == 0 {
		var logLen int32
		gl.GetProgramiv(handle, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(handle, logLen, nil, gl.Str(log))
		gl.DeleteProgram(handle)
		b.programs[src.Name] = &program{compileErr: &rendererr.ShaderLinkError{Log: log}}
		return false
	}

	p := &program{handle: handle, locations: make(map[string]int32, 32)}
	b.programs[src.Name] = p
	if b.registry != nil {
		b.registry.Register(resource.TypeProgram, handle, func() error {
			gl.DeleteProgram(handle)
			return nil
		}, resource.Options{Label: src.Name})
	}
	return true
}

func compileStage(stage uint32, source string) (uint32, error) {
	shader := gl.CreateShader(stage)
	csource, free := gl.Strs(source + "\x00")
	defer free()
	gl.ShaderSource(shader, 1, csource, nil)
	gl.CompileShader(shader)

	var ok int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &ok)
	if ok == 0 {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s", log)
	}
	return shader, nil
}

// CompileError returns the stored compile/link failure for name, if any.
func (b *Backend) CompileError(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.programs[name]; ok {
		return p.compileErr
	}
	return nil
}

// Resize updates the tracked viewport dimensions. The caller is still
// responsible for a SetViewport command sizing the actual GL viewport — this
// only updates what a default full-surface viewport would be.
func (b *Backend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = int32(width), int32(height)
}

// Present is a no-op for this backend: buffer swap is owned by the GLFW
// window (render/surface), not the rendering backend.
func (b *Backend) Present() {}

// Dispose releases the fullscreen quad and every compiled program via the
// resource registry.
func (b *Backend) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.registry != nil {
		b.registry.DisposeType(resource.TypeProgram)
		b.registry.DisposeType(resource.TypeVAO)
		b.registry.DisposeType(resource.TypeBuffer)
		b.registry.DisposeType(resource.TypeFramebuffer)
		b.registry.DisposeType(resource.TypeTexture)
	}
	b.programs = make(map[string]*program)
	b.textures = make(map[string]*textureEntry)
	b.renderTargets = make(map[string]*renderTargetEntry)
	b.current = nil
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

// Clear clears the color/depth/stencil buffers per opts.
func (b *Backend) Clear(opts command.ClearOptions) {
	var mask uint32
	if opts.Color {
		gl.ClearColor(opts.ColorValue[0], opts.ColorValue[1], opts.ColorValue[2], opts.ColorValue[3])
		mask |= gl.COLOR_BUFFER_BIT
	}
	if opts.Depth {
		gl.ClearDepth(float64(opts.DepthValue))
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if opts.Stencil {
		gl.ClearStencil(int32(opts.StencilValue))
		mask |= gl.STENCIL_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
	}
}

// SetState applies a full RenderState, skipping the call entirely when it
// equals what is already bound (spec §4.C's redundant-state-change elision).
func (b *Backend) SetState(s state.RenderState) {
	b.mu.Lock()
	unchanged := b.activeState == s
	b.mu.Unlock()
	if unchanged {
		return
	}

	b.SetBlendMode(s.Blend)
	b.SetDepthState(s.Depth)
	b.SetStencil(s.Stencil)
	applyRasterizer(s.Rasterizer)
	applyColorMask(s.ColorMask)
	gl.Viewport(s.Viewport.X, s.Viewport.Y, s.Viewport.Width, s.Viewport.Height)

	b.mu.Lock()
	b.activeState = s
	b.stats.StateChanges++
	b.mu.Unlock()
}

func applyRasterizer(r state.RasterizerState) {
	if r.CullMode == state.CullNone {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
		switch r.CullMode {
		case state.CullFront:
			gl.CullFace(gl.FRONT)
		case state.CullBack:
			gl.CullFace(gl.BACK)
		case state.CullFrontAndBack:
			gl.CullFace(gl.FRONT_AND_BACK)
		}
	}
	if r.FrontFaceCCW {
		gl.FrontFace(gl.CCW)
	} else {
		gl.FrontFace(gl.CW)
	}
	if r.ScissorEnabled {
		gl.Enable(gl.SCISSOR_TEST)
		gl.Scissor(r.Scissor.X, r.Scissor.Y, r.Scissor.Width, r.Scissor.Height)
	} else {
		gl.Disable(gl.SCISSOR_TEST)
	}
	gl.LineWidth(r.LineWidth)
	if r.DepthBias != 0 || r.DepthBiasSlopeScale != 0 {
		gl.Enable(gl.POLYGON_OFFSET_FILL)
		gl.PolygonOffset(r.DepthBiasSlopeScale, float32(r.DepthBias))
	} else {
		gl.Disable(gl.POLYGON_OFFSET_FILL)
	}
}

func applyColorMask(m state.ColorMask) {
	gl.ColorMask(m.R, m.G, m.B, m.A)
}

// SetViewport sets the GL viewport rectangle.
func (b *Backend) SetViewport(r command.Rect) {
	gl.Viewport(r.X, r.Y, r.Width, r.Height)
}

// SetScissor enables scissor testing against r.
func (b *Backend) SetScissor(r command.Rect) {
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(r.X, r.Y, r.Width, r.Height)
}

// BindShader makes the named compiled program current. Binding an unknown or
// failed-compile name leaves the previously bound program active.
func (b *Backend) BindShader(name string) {
	b.mu.Lock()
	p, ok := b.programs[name]
	if !ok || p.compileErr != nil {
		b.mu.Unlock()
		return
	}
	same := b.current == p
	b.current = p
	b.mu.Unlock()

	gl.UseProgram(p.handle)
	if !same {
		b.mu.Lock()
		b.stats.ShaderSwitches++
		b.mu.Unlock()
	}
}

// CreateBuffer allocates a GL buffer object from desc and registers it with
// the resource registry.
func (b *Backend) CreateBuffer(desc command.BufferDescriptor) (command.Buffer, error) {
	size := desc.Size
	if desc.Data != nil {
		size = len(desc.Data)
	}
	if size <= 0 {
		return command.Buffer{}, fmt.Errorf("webgl: CreateBuffer: size must be positive")
	}

	target := glBufferTarget(desc.Usage)
	usageHint := uint32(gl.STATIC_DRAW)
	if desc.Dynamic {
		usageHint = gl.DYNAMIC_DRAW
	}

	var handle uint32
	gl.GenBuffers(1, &handle)
	gl.BindBuffer(target, handle)
	if desc.Data != nil {
		gl.BufferData(target, size, gl.Ptr(desc.Data), usageHint)
	} else {
		gl.BufferData(target, size, nil, usageHint)
	}
	gl.BindBuffer(target, 0)

	if b.registry != nil {
		b.registry.Register(resource.TypeBuffer, handle, func() error {
			gl.DeleteBuffers(1, &handle)
			return nil
		}, resource.Options{Bytes: uint64(size), Label: fmt.Sprintf("buffer-%d", handle)})
	}
	return command.Buffer{Handle: handle, Size: size, Usage: desc.Usage}, nil
}

func glBufferTarget(usage command.BufferUsage) uint32 {
	switch usage {
	case command.BufferUsageIndex:
		return gl.ELEMENT_ARRAY_BUFFER
	case command.BufferUsageUniform:
		return gl.UNIFORM_BUFFER
	default:
		return gl.ARRAY_BUFFER
	}
}

// UpdateBuffer overwrites buf's contents starting at offset.
func (b *Backend) UpdateBuffer(buf command.Buffer, data []byte, offset int) error {
	handle, ok := buf.Handle.(uint32)
	if !ok {
		return fmt.Errorf("webgl: UpdateBuffer: not a webgl buffer handle")
	}
	if len(data) == 0 {
		return nil
	}
	target := glBufferTarget(buf.Usage)
	gl.BindBuffer(target, handle)
	gl.BufferSubData(target, offset, len(data), gl.Ptr(data))
	gl.BindBuffer(target, 0)
	return nil
}

// DeleteBuffer releases buf's GL buffer object through the resource
// registry, falling back to a direct delete if no registry is attached.
func (b *Backend) DeleteBuffer(buf command.Buffer) error {
	handle, ok := buf.Handle.(uint32)
	if !ok {
		return nil
	}
	if b.registry != nil && b.registry.Dispose(resource.TypeBuffer, handle) {
		return nil
	}
	gl.DeleteBuffers(1, &handle)
	return nil
}

// RegisterTexture stores desc for lazy creation by BindTexture.
func (b *Backend) RegisterTexture(desc backend.TextureDescriptor) bool {
	if desc.Name == "" || desc.Width <= 0 || desc.Height <= 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.textures[desc.Name] = &textureEntry{desc: desc}
	return true
}

// TextureError returns the named texture's creation failure, if any.
func (b *Backend) TextureError(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.textures[name]; ok {
		return e.err
	}
	return nil
}

// BindTexture lazily creates the GPU texture for a registered descriptor on
// first use, then binds it to the given texture unit. Binding an
// unregistered name only counts the stat; there is no descriptor to create
// from.
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
	handle, failed := entry.handle, entry.err != nil
	b.mu.Unlock()
	if failed {
		return
	}

	gl.ActiveTexture(gl.TEXTURE0 + uint32(slot))
	gl.BindTexture(gl.TEXTURE_2D, handle)
	b.mu.Lock()
	b.stats.TextureBinds++
	b.mu.Unlock()
}

func (b *Backend) createTexture(entry *textureEntry) {
	var handle uint32
	gl.GenTextures(1, &handle)
	gl.BindTexture(gl.TEXTURE_2D, handle)

	internalFormat, format, dataType := glTextureFormat(entry.desc.Format)
	var dataPtr unsafe.Pointer
	if len(entry.desc.Data) > 0 {
		dataPtr = gl.Ptr(entry.desc.Data)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat, int32(entry.desc.Width), int32(entry.desc.Height), 0, format, dataType, dataPtr)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, int32(glFilter(entry.desc.MinFilter)))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, int32(glFilter(entry.desc.MagFilter)))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, int32(glWrap(entry.desc.WrapU)))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, int32(glWrap(entry.desc.WrapV)))
	gl.BindTexture(gl.TEXTURE_2D, 0)

	b.mu.Lock()
	entry.handle, entry.created = handle, true
	b.mu.Unlock()

	if b.registry != nil {
		bytes := uint64(entry.desc.Width * entry.desc.Height * 4)
		b.registry.Register(resource.TypeTexture, handle, func() error {
			gl.DeleteTextures(1, &handle)
			return nil
		}, resource.Options{Bytes: bytes, Label: entry.desc.Name})
	}
}

func glTextureFormat(f backend.TextureFormat) (int32, uint32, uint32) {
	switch f {
	case backend.TextureFormatRGBA16Float:
		return gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT
	case backend.TextureFormatR8:
		return gl.R8, gl.RED, gl.UNSIGNED_BYTE
	default:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	}
}

func glFilter(f backend.FilterMode) uint32 {
	if f == backend.FilterLinear {
		return gl.LINEAR
	}
	return gl.NEAREST
}

func glWrap(w backend.WrapMode) uint32 {
	switch w {
	case backend.WrapRepeat:
		return gl.REPEAT
	case backend.WrapMirrorRepeat:
		return gl.MIRRORED_REPEAT
	default:
		return gl.CLAMP_TO_EDGE
	}
}

// BindVertexArray binds the single fullscreen NDC quad created at
// construction (see DESIGN.md's removed mesh/scene modules). A name other
// than quadVAOName never matches anything this backend can draw, so it is
// logged loudly rather than silently substituting the quad.
func (b *Backend) BindVertexArray(name string) {
	if name != "" && name != quadVAOName {
		slog.Default().Error("webgl: unknown vertex array, binding fullscreen quad instead",
			slog.String("requested", name))
	}
	gl.BindVertexArray(b.quadVAO)
}

// BindIndexBuffer is a no-op for the same reason as BindVertexArray: the
// fullscreen quad is always drawn unindexed.
func (b *Backend) BindIndexBuffer(format command.IndexFormat) {}

// RegisterRenderTarget stores desc for lazy framebuffer creation by
// BindRenderTarget.
func (b *Backend) RegisterRenderTarget(desc backend.RenderTargetDescriptor) bool {
	if desc.Name == "" || desc.Width <= 0 || desc.Height <= 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.renderTargets[desc.Name] = &renderTargetEntry{desc: desc}
	return true
}

// RenderTargetError returns the named render target's completeness failure,
// if any.
func (b *Backend) RenderTargetError(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.renderTargets[name]; ok {
		return e.err
	}
	return nil
}

// BindRenderTarget binds the default framebuffer when has is false. Otherwise
// it lazily creates (and completeness-checks) the named registered render
// target's framebuffer, logging the specific GL status name if it is
// incomplete, and falls back to the default framebuffer.
func (b *Backend) BindRenderTarget(name string, has bool) {
	if !has {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return
	}

	b.mu.Lock()
	entry, ok := b.renderTargets[name]
	b.mu.Unlock()
	if !ok {
		slog.Default().Error("webgl: unknown render target, binding default framebuffer", slog.String("name", name))
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return
	}

	b.mu.Lock()
	needsCreate := !entry.created && entry.err == nil
	b.mu.Unlock()
	if needsCreate {
		b.createRenderTarget(entry)
	}

	b.mu.Lock()
	fbo, failed := entry.fbo, entry.err != nil
	b.mu.Unlock()
	if failed {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
}

func (b *Backend) createRenderTarget(entry *renderTargetEntry) {
	var fbo, color uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)

	gl.GenTextures(1, &color)
	gl.BindTexture(gl.TEXTURE_2D, color)
	internalFormat, format, dataType := glTextureFormat(entry.desc.ColorFormat)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat, int32(entry.desc.Width), int32(entry.desc.Height), 0, format, dataType, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, color, 0)

	var depth uint32
	if entry.desc.HasDepth {
		gl.GenRenderbuffers(1, &depth)
		gl.BindRenderbuffer(gl.RENDERBUFFER, depth)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(entry.desc.Width), int32(entry.desc.Height))
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, depth)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		statusName := framebufferStatusName(status)
		slog.Default().Error("webgl: framebuffer incomplete", slog.String("name", entry.desc.Name), slog.String("status", statusName))
		gl.DeleteFramebuffers(1, &fbo)
		gl.DeleteTextures(1, &color)
		if depth != 0 {
			gl.DeleteRenderbuffers(1, &depth)
		}
		b.mu.Lock()
		entry.err = fmt.Errorf("webgl: framebuffer %q incomplete: %s", entry.desc.Name, statusName)
		b.mu.Unlock()
		return
	}

	b.mu.Lock()
	entry.fbo, entry.color, entry.depth, entry.created = fbo, color, depth, true
	b.mu.Unlock()

	if b.registry != nil {
		b.registry.Register(resource.TypeFramebuffer, fbo, func() error {
			gl.DeleteFramebuffers(1, &fbo)
			gl.DeleteTextures(1, &color)
			if depth != 0 {
				gl.DeleteRenderbuffers(1, &depth)
			}
			return nil
		}, resource.Options{Label: entry.desc.Name})
	}
}

func framebufferStatusName(status uint32) string {
	switch status {
	case gl.FRAMEBUFFER_COMPLETE:
		return "FRAMEBUFFER_COMPLETE"
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return "FRAMEBUFFER_INCOMPLETE_ATTACHMENT"
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return "FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT"
	case gl.FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER:
		return "FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER"
	case gl.FRAMEBUFFER_INCOMPLETE_READ_BUFFER:
		return "FRAMEBUFFER_INCOMPLETE_READ_BUFFER"
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return "FRAMEBUFFER_UNSUPPORTED"
	case gl.FRAMEBUFFER_INCOMPLETE_MULTISAMPLE:
		return "FRAMEBUFFER_INCOMPLETE_MULTISAMPLE"
	default:
		return fmt.Sprintf("0x%X", status)
	}
}

func (b *Backend) uniformLocation(name string) (int32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.current
	if p == nil {
		return 0, false
	}
	if loc, ok := p.locations[name]; ok {
		return loc, loc != -1
	}
	loc := gl.GetUniformLocation(p.handle, gl.Str(name+"\x00"))
	p.locations[name] = loc
	return loc, loc != -1
}

// SetUniform uploads one uniform by name. v must be a uniform.Value; any
// other dynamic type is rejected silently, since command.Command.UniformValue
// is always a uniform.Value and no other caller should reach this path.
func (b *Backend) SetUniform(name string, v any) {
	val, ok := v.(uniform.Value)
	if !ok {
		return
	}
	loc, ok := b.uniformLocation(name)
	if !ok {
		return
	}
	uploadUniform(loc, val)
}

func uploadUniform(loc int32, v uniform.Value) {
	switch v.Kind {
	case uniform.KindFloat:
		f, _ := v.Float32()
		gl.Uniform1f(loc, f)
	case uniform.KindVec2:
		fs, _ := v.Floats()
		gl.Uniform2f(loc, fs[0], fs[1])
	case uniform.KindVec3:
		fs, _ := v.Floats()
		gl.Uniform3f(loc, fs[0], fs[1], fs[2])
	case uniform.KindVec4:
		fs, _ := v.Floats()
		gl.Uniform4f(loc, fs[0], fs[1], fs[2], fs[3])
	case uniform.KindMat2:
		fs, _ := v.Floats()
		gl.UniformMatrix2fv(loc, 1, false, &fs[0])
	case uniform.KindMat3:
		fs, _ := v.Floats()
		gl.UniformMatrix3fv(loc, 1, false, &fs[0])
	case uniform.KindMat4:
		fs, _ := v.Floats()
		gl.UniformMatrix4fv(loc, 1, false, &fs[0])
	case uniform.KindInt:
		i, _ := v.Int32()
		gl.Uniform1i(loc, i)
	case uniform.KindBool:
		bval, _ := v.Boolean()
		i := int32(0)
		if bval {
			i = 1
		}
		gl.Uniform1i(loc, i)
	case uniform.KindSampler:
		slot, _ := v.TextureSlot()
		gl.Uniform1i(loc, slot)
	}
}

// SetUniforms uploads each named uniform in values, in order.
func (b *Backend) SetUniforms(values []command.NamedUniform) {
	for _, nv := range values {
		b.SetUniform(nv.Name, nv.Value)
	}
}

// SetRotor uploads the eight 4D-rotation-plane angles as the six named
// rotation uniforms the packed block defines (u_rot4dXY.. u_rot4dZW); the
// trailing two rotor components carry no shader-facing uniform in spec §6's
// table and are accepted for Executor shape-compatibility only.
func (b *Backend) SetRotor(rotor [8]float32) {
	names := [6]string{"u_rot4dXY", "u_rot4dXZ", "u_rot4dYZ", "u_rot4dXW", "u_rot4dYW", "u_rot4dZW"}
	for i, name := range names {
		if loc, ok := b.uniformLocation(name); ok {
			gl.Uniform1f(loc, rotor[i])
		}
	}
}

// SetProjection uploads the projection descriptor's scalar fields as
// individual uniforms; the fullscreen-quad core has no projection matrix to
// build, so these only inform the shader's own ray-marching math.
func (b *Backend) SetProjection(p command.Projection) {
	if loc, ok := b.uniformLocation("u_projDimension"); ok {
		gl.Uniform1f(loc, p.Dimension)
	}
	if loc, ok := b.uniformLocation("u_projFOV"); ok {
		gl.Uniform1f(loc, p.FOV)
	}
	if loc, ok := b.uniformLocation("u_projNear"); ok {
		gl.Uniform1f(loc, p.Near)
	}
	if loc, ok := b.uniformLocation("u_projFar"); ok {
		gl.Uniform1f(loc, p.Far)
	}
	if loc, ok := b.uniformLocation("u_projStereographic"); ok {
		v := float32(0)
		if p.Type == command.ProjectionStereographic {
			v = 1
		}
		gl.Uniform1f(loc, v)
	}
}

func (b *Backend) countDraw() {
	b.mu.Lock()
	b.stats.DrawCalls++
	b.mu.Unlock()
}

// Draw issues an unindexed draw of the fullscreen quad. vertexCount/
// firstVertex are accepted for Executor shape-compatibility; the quad is
// always six vertices, so a caller targeting this backend should pass (6, 0).
func (b *Backend) Draw(vertexCount, firstVertex int) {
	gl.BindVertexArray(b.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, int32(firstVertex), int32(vertexCount))
	b.countDraw()
}

// DrawIndexed is not meaningful against the fullscreen quad (no index
// buffer); it draws the quad unindexed exactly like Draw, so a buffer
// recorded against a future indexed-mesh path still renders something
// instead of silently producing no output.
func (b *Backend) DrawIndexed(indexCount, firstIndex int) {
	b.Draw(indexCount, firstIndex)
}

// DrawInstanced issues instanceCount unindexed draws of the fullscreen quad.
func (b *Backend) DrawInstanced(vertexCount, firstVertex, instanceCount int) {
	gl.BindVertexArray(b.quadVAO)
	gl.DrawArraysInstanced(gl.TRIANGLES, int32(firstVertex), int32(vertexCount), int32(instanceCount))
	b.countDraw()
}

// DrawIndexedInstanced behaves like DrawInstanced for the same reason
// DrawIndexed mirrors Draw.
func (b *Backend) DrawIndexedInstanced(indexCount, firstIndex, instanceCount int) {
	b.DrawInstanced(indexCount, firstIndex, instanceCount)
}

// SetBlendMode applies blend state independent of the rest of RenderState.
func (b *Backend) SetBlendMode(bl state.BlendState) {
	if !bl.Enabled {
		gl.Disable(gl.BLEND)
		return
	}
	gl.Enable(gl.BLEND)
	gl.BlendFuncSeparate(
		glBlendFactor(bl.SrcRGB), glBlendFactor(bl.DstRGB),
		glBlendFactor(bl.SrcAlpha), glBlendFactor(bl.DstAlpha),
	)
	if bl.HasColor {
		gl.BlendColor(bl.Color[0], bl.Color[1], bl.Color[2], bl.Color[3])
	}
}

func glBlendFactor(f state.BlendFactor) uint32 {
	switch f {
	case state.BlendFactorZero:
		return gl.ZERO
	case state.BlendFactorOne:
		return gl.ONE
	case state.BlendFactorSrcColor:
		return gl.SRC_COLOR
	case state.BlendFactorOneMinusSrcColor:
		return gl.ONE_MINUS_SRC_COLOR
	case state.BlendFactorSrcAlpha:
		return gl.SRC_ALPHA
	case state.BlendFactorOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	case state.BlendFactorDstColor:
		return gl.DST_COLOR
	case state.BlendFactorOneMinusDstColor:
		return gl.ONE_MINUS_DST_COLOR
	case state.BlendFactorDstAlpha:
		return gl.DST_ALPHA
	case state.BlendFactorOneMinusDstAlpha:
		return gl.ONE_MINUS_DST_ALPHA
	case state.BlendFactorConstantColor:
		return gl.CONSTANT_COLOR
	case state.BlendFactorOneMinusConstantColor:
		return gl.ONE_MINUS_CONSTANT_COLOR
	default:
		return gl.ONE
	}
}

// SetDepthState applies depth testing independent of the rest of RenderState.
func (b *Backend) SetDepthState(d state.DepthState) {
	if d.Test {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(glCompareFunc(d.Compare))
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(d.Write)
	gl.DepthRange(float64(d.Near), float64(d.Far))
}

func glCompareFunc(c state.CompareFunction) uint32 {
	switch c {
	case state.CompareNever:
		return gl.NEVER
	case state.CompareLess:
		return gl.LESS
	case state.CompareEqual:
		return gl.EQUAL
	case state.CompareLessEqual:
		return gl.LEQUAL
	case state.CompareGreater:
		return gl.GREATER
	case state.CompareNotEqual:
		return gl.NOTEQUAL
	case state.CompareGreaterEqual:
		return gl.GEQUAL
	case state.CompareAlways:
		return gl.ALWAYS
	default:
		return gl.ALWAYS
	}
}

// SetStencil applies stencil testing independent of the rest of RenderState.
func (b *Backend) SetStencil(s state.StencilState) {
	if !s.Enabled {
		gl.Disable(gl.STENCIL_TEST)
		return
	}
	gl.Enable(gl.STENCIL_TEST)
	gl.StencilFunc(gl.ALWAYS, int32(s.Ref), s.Mask)
	gl.StencilOp(glStencilOp(s.Fail), glStencilOp(s.DepthFail), glStencilOp(s.Pass))
}

func glStencilOp(op state.StencilOp) uint32 {
	switch op {
	case state.StencilOpKeep:
		return gl.KEEP
	case state.StencilOpZero:
		return gl.ZERO
	case state.StencilOpReplace:
		return gl.REPLACE
	case state.StencilOpIncrement:
		return gl.INCR
	case state.StencilOpIncrementWrap:
		return gl.INCR_WRAP
	case state.StencilOpDecrement:
		return gl.DECR
	case state.StencilOpDecrementWrap:
		return gl.DECR_WRAP
	case state.StencilOpInvert:
		return gl.INVERT
	default:
		return gl.KEEP
	}
}

// PushState saves the currently applied RenderState so a later PopState can
// restore it, matching the command stream's nested-override use case (a
// bridge overriding one layer's state for a single draw and restoring the
// orchestrator's baseline afterward).
func (b *Backend) PushState() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushedStates = append(b.pushedStates, b.activeState)
}

// PopState restores the RenderState saved by the matching PushState. Popping
// an empty stack is a no-op.
func (b *Backend) PopState() {
	b.mu.Lock()
	if len(b.pushedStates) == 0 {
		b.mu.Unlock()
		return
	}
	s := b.pushedStates[len(b.pushedStates)-1]
	b.pushedStates = b.pushedStates[:len(b.pushedStates)-1]
	b.mu.Unlock()
	b.SetState(s)
}
