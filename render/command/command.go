// Package command implements the recordable, sortable, serializable command
// buffer every render bridge issues work through. A Command is a closed
// tagged union (spec §9's guidance to replace "dynamic typing of commands"
// with a real enumeration) rather than an interface type per variant — this
// keeps equality, sorting, and serialization all working off one flat struct
// instead of a type switch scattered across the package.
package command

import (
	"time"

	"github.com/vib3/render-core/render/state"
	"github.com/vib3/render-core/render/uniform"
)

// Kind is the closed set of recordable command variants.
type Kind int

const (
	KindClear Kind = iota
	KindSetState
	KindSetViewport
	KindSetScissor
	KindBindShader
	KindBindTexture
	KindBindVertexArray
	KindBindIndexBuffer
	KindBindRenderTarget
	KindSetUniform
	KindSetUniforms
	KindSetRotor
	KindSetProjection
	KindDraw
	KindDrawIndexed
	KindDrawInstanced
	KindDrawIndexedInstanced
	KindSetBlendMode
	KindSetDepthState
	KindSetStencil
	KindPushState
	KindPopState
	KindCustom
)

// defaultPriority returns the priority a command gets if the recorder did
// not override it, per the fixed table: higher runs first.
func defaultPriority(k Kind) int {
	switch k {
	case KindClear:
		return 1000
	case KindBindRenderTarget:
		return 950
	case KindSetState, KindSetViewport:
		return 900
	case KindBindShader:
		return 800
	case KindBindTexture:
		return 700
	case KindBindVertexArray:
		return 600
	case KindSetUniform, KindSetUniforms:
		return 500
	default:
		return 0
	}
}

// IndexFormat is the closed set of index buffer element types.
type IndexFormat int

const (
	IndexFormatU16 IndexFormat = iota
	IndexFormatU32
)

// ProjectionType is the closed set of projection kinds a SetProjection
// command may select.
type ProjectionType int

const (
	ProjectionPerspective ProjectionType = iota
	ProjectionStereographic
)

// Projection is the payload of a SetProjection command.
type Projection struct {
	Type      ProjectionType
	Dimension float32
	FOV       float32
	Near      float32
	Far       float32
}

// NamedUniform is one entry of a SetUniforms command's map payload.
type NamedUniform struct {
	Name  string
	Value uniform.Value
}

// Custom carries an opaque, non-serializable callback invoked directly
// against a backend. Buffers containing a Custom command fail
// ToJSON/ToBinary with ErrUnserializableCommand.
type Custom struct {
	Label string
	Run   func(backend any)
}

// ClearOptions is the payload of a Clear command.
type ClearOptions struct {
	Color        bool
	Depth        bool
	Stencil      bool
	ColorValue   [4]float32
	DepthValue   float32
	StencilValue uint32
}

// Rect is a pixel-space x/y/width/height quad, shared by SetViewport and
// SetScissor payloads.
type Rect struct {
	X, Y, Width, Height int32
}

// BufferUsage is the closed set of purposes a GPU buffer created through
// Executor.CreateBuffer can serve.
type BufferUsage int

const (
	BufferUsageVertex BufferUsage = iota
	BufferUsageIndex
	BufferUsageUniform
)

// BufferDescriptor is CreateBuffer's input: either Data ready to upload
// immediately, or a bare Size for a backend to allocate and fill in later
// through UpdateBuffer. Dynamic hints that the buffer will be updated
// frequently, so a backend may choose a host-visible/streaming allocation
// over a static one.
type BufferDescriptor struct {
	Usage   BufferUsage
	Data    []byte
	Size    int
	Dynamic bool
}

// Buffer is the opaque handle CreateBuffer returns. Handle is backend-private
// (a GL buffer name or a *wgpu.Buffer); Size and Usage echo back what was
// requested so a caller never has to track them alongside the handle.
type Buffer struct {
	Handle any
	Size   int
	Usage  BufferUsage
}

// Command is one recorded unit of GPU work. It is a flat struct rather than
// an interface-per-variant: exactly one payload field is meaningful, chosen
// by Kind, matching the pattern used throughout package uniform for Value.
type Command struct {
	ID        uint64
	Kind      Kind
	SortKey   int
	Priority  int
	Depth     float32
	HasDepth  bool
	Label     string
	Timestamp time.Time

	Clear          ClearOptions
	State          state.RenderState
	Rect           Rect
	ShaderName     string
	TextureSlot    int
	TextureName    string
	VertexArray    string
	IndexFormat    IndexFormat
	IndexFormatSet bool
	RenderTarget   string
	HasTarget      bool
	UniformName    string
	UniformValue   uniform.Value
	Uniforms       []NamedUniform
	Rotor          [8]float32
	Projection     Projection
	VertexCount    int
	IndexCount     int
	InstanceCount  int
	FirstVertex    int
	FirstIndex     int
	Custom         Custom
}
