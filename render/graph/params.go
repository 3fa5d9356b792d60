// Package graph implements the layer relationship graph: a keystone-driven
// directed derivation of per-layer parameter sets across the five fixed
// layers, through a closed catalog of named relationship presets (spec
// §4.F's re-architecture of "named relationship functions" into a proper
// enumeration rather than a string-keyed dispatch table, per the guidance in
// §9 to close open string-keyed dictionaries wherever the underlying set is
// fixed).
package graph

import "math"

// Layer is the fixed five-element ordered enumeration. Order is both the
// z-stack (back to front) and the natural iteration order.
type Layer int

const (
	LayerBackground Layer = iota
	LayerShadow
	LayerContent
	LayerHighlight
	LayerAccent
)

// Layers lists every layer in z-order.
var Layers = [5]Layer{LayerBackground, LayerShadow, LayerContent, LayerHighlight, LayerAccent}

// String returns the layer's canonical name.
func (l Layer) String() string {
	switch l {
	case LayerBackground:
		return "background"
	case LayerShadow:
		return "shadow"
	case LayerContent:
		return "content"
	case LayerHighlight:
		return "highlight"
	case LayerAccent:
		return "accent"
	default:
		return "unknown"
	}
}

// ParseLayer looks up a Layer by its canonical name.
func ParseLayer(name string) (Layer, bool) {
	for _, l := range Layers {
		if l.String() == name {
			return l, true
		}
	}
	return 0, false
}

// Params is the keystone/layer parameter record: the ordered set of named
// scalar channels every shader consumes. Field order mirrors spec's naming
// contract with shaders and must not be reordered.
type Params struct {
	Hue          float64 // degrees, 0..360, wraps
	Saturation   float64 // 0..1
	Intensity    float64 // 0..1
	Chaos        float64 // 0..1
	Speed        float64 // 0.1..3
	Dimension    float64 // 3..4.5
	MorphFactor  float64 // 0..2
	GridDensity  float64 // ~0.6..7.5
	GeometryType int

	Rot4dXY, Rot4dXZ, Rot4dYZ float64
	Rot4dXW, Rot4dYW, Rot4dZW float64

	MouseIntensity, ClickIntensity float64
	Bass, Mid, High                float64

	// Derived-only channels; meaningless on a keystone input. Resolve always
	// sets LayerOpacity on a follower layer's output; LayerScale, DensityMult
	// and SpeedMult are set only where a relationship sets them (the legacy
	// profile sets DensityMult) and are otherwise left as the keystone's.
	LayerOpacity float64
	LayerScale   float64
	DensityMult  float64
	SpeedMult    float64
}

// clampRanges clamps every channel to its legal range, applied before a
// relationship derives from a param set (spec §4.F: "all inputs are clamped
// to their legal ranges before derivation").
func clampRanges(p Params) Params {
	clamp := func(v, lo, hi float64) float64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	p.Hue = wrapDegrees(p.Hue)
	p.Saturation = clamp(p.Saturation, 0, 1)
	p.Intensity = clamp(p.Intensity, 0, 1)
	p.Chaos = clamp(p.Chaos, 0, 1)
	p.Speed = clamp(p.Speed, 0.1, 3)
	p.Dimension = clamp(p.Dimension, 3, 4.5)
	p.MorphFactor = clamp(p.MorphFactor, 0, 2)
	p.GridDensity = clamp(p.GridDensity, 0.6, 7.5)
	return p
}

// wrapDegrees wraps a hue value into [0, 360).
func wrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// ema advances a frame-rate-independent exponential moving average:
// α = 1 − exp(−Δt/τ). Δt and τ share the same units (seconds).
func ema(current, target, dtSeconds, tauSeconds float64) float64 {
	if tauSeconds <= 0 {
		return target
	}
	alpha := 1 - math.Exp(-dtSeconds/tauSeconds)
	return current + alpha*(target-current)
}

// emaHue is ema but takes the shortest angular path around the 0..360 wrap.
func emaHue(current, target, dtSeconds, tauSeconds float64) float64 {
	delta := wrapDegrees(target-current+180) - 180
	return wrapDegrees(current + (1-math.Exp(-dtSeconds/tauSeconds))*delta)
}

// Tau defaults, normative for testable property 6 (seconds).
const (
	TauSpeed       = 0.08
	TauChaos       = 0.10
	TauGridDensity = 0.10
	TauMorphFactor = 0.12
	TauIntensity   = 0.12
	TauSaturation  = 0.15
	TauDimension   = 0.20
	TauHue         = 0.25
	TauRotation    = 0.10
)
