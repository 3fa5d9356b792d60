// Package state describes a complete GPU pipeline configuration as an
// immutable-by-convention value type: blend, depth, stencil, rasterizer,
// viewport, and color-mask. A RenderState owns no GPU-side resources — it is
// pure data, applied to a backend through a single SetState command (see
// package command and package backend). Two RenderState values compare equal
// with == whenever every field is equal, which is what the backend uses to
// elide redundant GPU state changes.
package state

// BlendFactor is the closed set of blend factors a backend must support for
// both the RGB and alpha blend equations.
type BlendFactor int

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcColor
	BlendFactorOneMinusSrcColor
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
	BlendFactorDstColor
	BlendFactorOneMinusDstColor
	BlendFactorDstAlpha
	BlendFactorOneMinusDstAlpha
	BlendFactorConstantColor
	BlendFactorOneMinusConstantColor
)

// CompareFunction is the closed set of depth/stencil comparison functions.
type CompareFunction int

const (
	CompareNever CompareFunction = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

// StencilOp is the closed set of stencil operations applied on fail,
// depth-fail, and pass.
type StencilOp int

const (
	StencilOpKeep StencilOp = iota
	StencilOpZero
	StencilOpReplace
	StencilOpIncrement
	StencilOpIncrementWrap
	StencilOpDecrement
	StencilOpDecrementWrap
	StencilOpInvert
)

// CullMode is the closed set of face-culling modes.
type CullMode int

const (
	CullNone CullMode = iota
	CullFront
	CullBack
	CullFrontAndBack
)

// BlendState describes how a fragment's color is combined with the
// destination. Color is only meaningful when HasColor is true — an explicit
// flag rather than a pointer, so RenderState stays a plain comparable value.
type BlendState struct {
	Enabled bool

	SrcRGB   BlendFactor
	DstRGB   BlendFactor
	SrcAlpha BlendFactor
	DstAlpha BlendFactor

	HasColor bool
	Color    [4]float32
}

// DepthState describes depth testing and the depth range.
type DepthState struct {
	Test    bool
	Write   bool
	Compare CompareFunction
	Near    float32
	Far     float32
}

// StencilState describes stencil testing. A single {fail, depthFail, pass}
// triple applies to both faces — no separate front/back stencil ops.
type StencilState struct {
	Enabled   bool
	Ref       uint32
	Mask      uint32
	Fail      StencilOp
	DepthFail StencilOp
	Pass      StencilOp
}

// ScissorRect is a pixel-space rectangle used when scissor testing is
// enabled.
type ScissorRect struct {
	X, Y, Width, Height int32
}

// RasterizerState describes face culling, winding, scissor, line width, and
// depth bias.
type RasterizerState struct {
	CullMode     CullMode
	FrontFaceCCW bool

	ScissorEnabled bool
	Scissor        ScissorRect

	LineWidth           float32
	DepthBias           int32
	DepthBiasSlopeScale float32
}

// Viewport is the pixel-space render target region.
type Viewport struct {
	X, Y, Width, Height int32
}

// ColorMask controls which color channels are written by a draw.
type ColorMask struct {
	R, G, B, A bool
}

// RenderState is the complete, comparable-by-value GPU pipeline
// configuration described in spec §3. It owns nothing GPU-side; a backend
// applies it via SetState, diffing against its own tracked state to skip
// redundant GPU calls (spec §4.C's state-tracking invariant).
type RenderState struct {
	Blend      BlendState
	Depth      DepthState
	Stencil    StencilState
	Rasterizer RasterizerState
	Viewport   Viewport
	ColorMask  ColorMask
}

// defaultViewportAndMask is shared by every preset: full write mask, no
// scissor, CCW front face, back-face culling, a 0..1 depth range.
func defaultViewportAndMask() (RasterizerState, ColorMask, DepthState) {
	return RasterizerState{
			CullMode:     CullBack,
			FrontFaceCCW: true,
			LineWidth:    1,
		}, ColorMask{R: true, G: true, B: true, A: true},
		DepthState{Test: true, Write: true, Compare: CompareLessEqual, Near: 0, Far: 1}
}

// Opaque returns the preset for fully opaque geometry: depth test and write
// enabled, blending disabled, back-face culling.
func Opaque() RenderState {
	raster, mask, depth := defaultViewportAndMask()
	return RenderState{Depth: depth, Rasterizer: raster, ColorMask: mask}
}

// Transparent returns the standard alpha-blended preset: depth test enabled
// but depth write disabled (so transparent layers don't occlude each other),
// standard src_alpha/one_minus_src_alpha blending.
func Transparent() RenderState {
	raster, mask, depth := defaultViewportAndMask()
	depth.Write = false
	return RenderState{
		Depth:      depth,
		Rasterizer: raster,
		ColorMask:  mask,
		Blend: BlendState{
			Enabled:  true,
			SrcRGB:   BlendFactorSrcAlpha,
			DstRGB:   BlendFactorOneMinusSrcAlpha,
			SrcAlpha: BlendFactorOne,
			DstAlpha: BlendFactorOneMinusSrcAlpha,
		},
	}
}

// Additive returns the preset for additive glow/accumulation passes:
// depth write disabled, one/one blending.
func Additive() RenderState {
	raster, mask, depth := defaultViewportAndMask()
	depth.Write = false
	return RenderState{
		Depth:      depth,
		Rasterizer: raster,
		ColorMask:  mask,
		Blend: BlendState{
			Enabled:  true,
			SrcRGB:   BlendFactorOne,
			DstRGB:   BlendFactorOne,
			SrcAlpha: BlendFactorOne,
			DstAlpha: BlendFactorOne,
		},
	}
}

// Wireframe returns the preset for edge/line visualization: no culling (both
// faces of a thin line strip must be visible), a wider line width, blending
// disabled.
func Wireframe() RenderState {
	raster, mask, depth := defaultViewportAndMask()
	raster.CullMode = CullNone
	raster.LineWidth = 2
	return RenderState{Depth: depth, Rasterizer: raster, ColorMask: mask}
}

// Geometry4D returns the preset used by opaque 4D-lattice passes: depth
// test/write enabled, no culling (a 4D→3D projection can fold geometry onto
// itself in ways that make consistent winding meaningless).
func Geometry4D() RenderState {
	raster, mask, depth := defaultViewportAndMask()
	raster.CullMode = CullNone
	return RenderState{Depth: depth, Rasterizer: raster, ColorMask: mask}
}

// Transparent4D combines Transparent's blending with Geometry4D's
// no-culling rasterizer state.
func Transparent4D() RenderState {
	rs := Transparent()
	rs.Rasterizer.CullMode = CullNone
	return rs
}
