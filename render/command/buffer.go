package command

import (
	"sort"
	"time"

	"github.com/vib3/render-core/render/rendererr"
	"github.com/vib3/render-core/render/state"
	"github.com/vib3/render-core/render/uniform"
)

// SortMode selects how Execute orders commands before dispatch.
type SortMode int

const (
	// SortNone preserves submission order.
	SortNone SortMode = iota
	// SortState orders by descending priority, then ascending sort key.
	SortState
	// SortFrontToBack partitions non-draw commands (by descending priority)
	// ahead of draws (by ascending depth).
	SortFrontToBack
	// SortBackToFront is SortFrontToBack with draws ordered by descending
	// depth.
	SortBackToFront
	// SortCustom applies a caller-supplied comparator over the whole
	// command slice.
	SortCustom
)

// Stats accumulates cumulative counters for a buffer's recorded and executed
// commands.
type Stats struct {
	CommandCount int
	DrawCalls    int
	StateChanges int
	Triangles    int
}

// Comparator is a strict weak ordering over two commands, used by
// SortCustom.
type Comparator func(a, b Command) bool

// CommandBuffer is an ordered, mutable sequence of recorded commands. The
// zero value is not ready for use; construct with NewCommandBuffer.
type CommandBuffer struct {
	commands   []Command
	sortMode   SortMode
	comparator Comparator
	sealed     bool
	version    uint64
	sorted     bool
	nextID     uint64
	stats      Stats
}

// NewCommandBuffer constructs an empty, unsealed buffer with SortNone.
func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{sortMode: SortNone}
}

// SetSortMode changes how Execute will order commands. Does not itself bump
// version or clear the sorted bit — the next Add does.
func (b *CommandBuffer) SetSortMode(mode SortMode) *CommandBuffer {
	b.sortMode = mode
	return b
}

// SetComparator installs the comparator used when SortMode is SortCustom.
func (b *CommandBuffer) SetComparator(cmp Comparator) *CommandBuffer {
	b.comparator = cmp
	return b
}

// Version returns the monotonically increasing mutation counter.
func (b *CommandBuffer) Version() uint64 { return b.version }

// Sealed reports whether recording has been closed.
func (b *CommandBuffer) Sealed() bool { return b.sealed }

// Seal closes the buffer to further recording.
func (b *CommandBuffer) Seal() *CommandBuffer {
	b.sealed = true
	return b
}

// Stats returns the buffer's cumulative counters.
func (b *CommandBuffer) Stats() Stats { return b.stats }

// Commands returns the recorded commands in submission order (not
// necessarily sorted); callers must not mutate the returned slice.
func (b *CommandBuffer) Commands() []Command { return b.commands }

// Reset clears all recorded commands and stats, unseals the buffer, and
// makes it reusable.
func (b *CommandBuffer) Reset() *CommandBuffer {
	b.commands = b.commands[:0]
	b.sealed = false
	b.sorted = false
	b.stats = Stats{}
	b.version++
	return b
}

// add records one command, stamping it with the next id and a timestamp.
// Priority is kept as the recorder set it (each recorder passes its kind's
// default priority, or leaves the zero default). Returns ErrBufferSealed if
// the buffer is sealed.
func (b *CommandBuffer) add(c Command) error {
	if b.sealed {
		return rendererr.ErrBufferSealed
	}
	b.nextID++
	c.ID = b.nextID
	c.Timestamp = time.Now()
	b.commands = append(b.commands, c)
	b.sorted = false
	b.version++
	b.stats.CommandCount++
	if isDraw(c.Kind) {
		b.stats.DrawCalls++
		b.stats.Triangles += triangleCount(c)
	}
	if isStateChange(c.Kind) {
		b.stats.StateChanges++
	}
	return nil
}

// triangleCount estimates the triangle count a draw command submits,
// assuming a triangle-list topology (three vertices/indices per triangle)
// and at least one instance.
func triangleCount(c Command) int {
	instances := c.InstanceCount
	if instances == 0 {
		instances = 1
	}
	switch c.Kind {
	case KindDraw, KindDrawInstanced:
		return (c.VertexCount / 3) * instances
	case KindDrawIndexed, KindDrawIndexedInstanced:
		return (c.IndexCount / 3) * instances
	default:
		return 0
	}
}

// Clear records a Clear command.
func (b *CommandBuffer) Clear(opts ClearOptions) error {
	return b.add(Command{Kind: KindClear, Priority: defaultPriority(KindClear), Clear: opts})
}

// SetState records a SetState command.
func (b *CommandBuffer) SetState(s state.RenderState) error {
	return b.add(Command{Kind: KindSetState, Priority: defaultPriority(KindSetState), State: s})
}

// SetViewport records a SetViewport command.
func (b *CommandBuffer) SetViewport(r Rect) error {
	return b.add(Command{Kind: KindSetViewport, Priority: defaultPriority(KindSetViewport), Rect: r})
}

// SetScissor records a SetScissor command.
func (b *CommandBuffer) SetScissor(r Rect) error {
	return b.add(Command{Kind: KindSetScissor, Priority: defaultPriority(KindSetScissor), Rect: r})
}

// BindShader records a BindShader command.
func (b *CommandBuffer) BindShader(name string) error {
	return b.add(Command{Kind: KindBindShader, Priority: defaultPriority(KindBindShader), ShaderName: name})
}

// BindTexture records a BindTexture command for the given texture unit slot.
func (b *CommandBuffer) BindTexture(slot int, name string) error {
	return b.add(Command{Kind: KindBindTexture, Priority: defaultPriority(KindBindTexture), TextureSlot: slot, TextureName: name})
}

// BindVertexArray records a BindVertexArray command.
func (b *CommandBuffer) BindVertexArray(name string) error {
	return b.add(Command{Kind: KindBindVertexArray, Priority: defaultPriority(KindBindVertexArray), VertexArray: name})
}

// BindIndexBuffer records a BindIndexBuffer command with the given index
// element format.
func (b *CommandBuffer) BindIndexBuffer(format IndexFormat) error {
	return b.add(Command{Kind: KindBindIndexBuffer, Priority: defaultPriority(KindBindIndexBuffer), IndexFormat: format, IndexFormatSet: true})
}

// BindRenderTarget records a BindRenderTarget command; pass name="" and
// hasTarget=false to bind the default (null) target.
func (b *CommandBuffer) BindRenderTarget(name string, hasTarget bool) error {
	return b.add(Command{Kind: KindBindRenderTarget, Priority: defaultPriority(KindBindRenderTarget), RenderTarget: name, HasTarget: hasTarget})
}

// SetUniform records a single-value SetUniform command.
func (b *CommandBuffer) SetUniform(name string, v uniform.Value) error {
	return b.add(Command{Kind: KindSetUniform, Priority: defaultPriority(KindSetUniform), UniformName: name, UniformValue: v})
}

// SetUniforms records a batched SetUniforms command.
func (b *CommandBuffer) SetUniforms(values []NamedUniform) error {
	return b.add(Command{Kind: KindSetUniforms, Priority: defaultPriority(KindSetUniforms), Uniforms: values})
}

// SetRotor records a SetRotor command carrying an 8-float geometric-algebra
// rotor.
func (b *CommandBuffer) SetRotor(r [8]float32) error {
	return b.add(Command{Kind: KindSetRotor, Priority: defaultPriority(KindSetRotor), Rotor: r})
}

// SetProjection records a SetProjection command.
func (b *CommandBuffer) SetProjection(p Projection) error {
	return b.add(Command{Kind: KindSetProjection, Priority: defaultPriority(KindSetProjection), Projection: p})
}

// Draw records a non-indexed draw. depth, when set, drives
// front_to_back/back_to_front sorting.
func (b *CommandBuffer) Draw(vertexCount, firstVertex int, depth float32, hasDepth bool) error {
	return b.add(Command{Kind: KindDraw, VertexCount: vertexCount, FirstVertex: firstVertex, Depth: depth, HasDepth: hasDepth})
}

// DrawIndexed records an indexed draw.
func (b *CommandBuffer) DrawIndexed(indexCount, firstIndex int, depth float32, hasDepth bool) error {
	return b.add(Command{Kind: KindDrawIndexed, IndexCount: indexCount, FirstIndex: firstIndex, Depth: depth, HasDepth: hasDepth})
}

// DrawInstanced records a non-indexed instanced draw.
func (b *CommandBuffer) DrawInstanced(vertexCount, firstVertex, instanceCount int, depth float32, hasDepth bool) error {
	return b.add(Command{Kind: KindDrawInstanced, VertexCount: vertexCount, FirstVertex: firstVertex, InstanceCount: instanceCount, Depth: depth, HasDepth: hasDepth})
}

// DrawIndexedInstanced records an indexed instanced draw.
func (b *CommandBuffer) DrawIndexedInstanced(indexCount, firstIndex, instanceCount int, depth float32, hasDepth bool) error {
	return b.add(Command{Kind: KindDrawIndexedInstanced, IndexCount: indexCount, FirstIndex: firstIndex, InstanceCount: instanceCount, Depth: depth, HasDepth: hasDepth})
}

// SetBlendMode records a SetBlendMode command.
func (b *CommandBuffer) SetBlendMode(blend state.BlendState) error {
	return b.add(Command{Kind: KindSetBlendMode, State: state.RenderState{Blend: blend}})
}

// SetDepthState records a SetDepthState command.
func (b *CommandBuffer) SetDepthState(depth state.DepthState) error {
	return b.add(Command{Kind: KindSetDepthState, State: state.RenderState{Depth: depth}})
}

// SetStencilState records a SetStencil command.
func (b *CommandBuffer) SetStencilState(stencil state.StencilState) error {
	return b.add(Command{Kind: KindSetStencil, State: state.RenderState{Stencil: stencil}})
}

// PushState records a PushState command.
func (b *CommandBuffer) PushState() error {
	return b.add(Command{Kind: KindPushState})
}

// PopState records a PopState command.
func (b *CommandBuffer) PopState() error {
	return b.add(Command{Kind: KindPopState})
}

// RecordCustom records an opaque, non-serializable callback. Buffers
// containing a Custom command fail ToJSON/ToBinary.
func (b *CommandBuffer) RecordCustom(label string, run func(backend any)) error {
	return b.add(Command{Kind: KindCustom, Custom: Custom{Label: label, Run: run}})
}

// sortCommands applies the configured SortMode in place, then marks the
// buffer as sorted. Idempotent: repeated calls with no intervening add are a
// no-op.
func (b *CommandBuffer) sortCommands() {
	if b.sorted {
		return
	}
	switch b.sortMode {
	case SortNone:
		// submission order already holds
	case SortState:
		sort.SliceStable(b.commands, func(i, j int) bool {
			a, c := b.commands[i], b.commands[j]
			if a.Priority != c.Priority {
				return a.Priority > c.Priority
			}
			return a.SortKey < c.SortKey
		})
	case SortFrontToBack, SortBackToFront:
		var nonDraw, draws []Command
		for _, c := range b.commands {
			if isDraw(c.Kind) {
				draws = append(draws, c)
			} else {
				nonDraw = append(nonDraw, c)
			}
		}
		sort.SliceStable(nonDraw, func(i, j int) bool { return nonDraw[i].Priority > nonDraw[j].Priority })
		ascending := b.sortMode == SortFrontToBack
		sort.SliceStable(draws, func(i, j int) bool {
			if ascending {
				return draws[i].Depth < draws[j].Depth
			}
			return draws[i].Depth > draws[j].Depth
		})
		b.commands = append(nonDraw, draws...)
	case SortCustom:
		if b.comparator != nil {
			sort.SliceStable(b.commands, func(i, j int) bool { return b.comparator(b.commands[i], b.commands[j]) })
		}
	}
	b.sorted = true
}

// Execute sorts the buffer if needed, then dispatches each command to the
// executor in order.
func (b *CommandBuffer) Execute(e Executor) {
	b.sortCommands()
	for _, c := range b.commands {
		dispatch(e, c)
	}
}

// ProfiledStats wraps Stats with the wall-clock time Execute took.
type ProfiledStats struct {
	Stats
	ExecutionTime time.Duration
}

// ExecuteWithProfiling behaves like Execute but also measures wall-clock
// execution time with a monotonic clock.
func (b *CommandBuffer) ExecuteWithProfiling(e Executor) ProfiledStats {
	start := time.Now()
	b.Execute(e)
	return ProfiledStats{Stats: b.stats, ExecutionTime: time.Since(start)}
}
