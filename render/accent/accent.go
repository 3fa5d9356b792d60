// Package accent projects the keystone parameter model into CSS custom
// properties, so DOM chrome (glass panels, borders, shadows, animation
// timing) stays mathematically aligned with the rendered visuals.
package accent

import (
	"fmt"
	"math"

	"github.com/vib3/render-core/render/graph"
)

// Params is the subset of channels the accent system derives from. It
// mirrors graph.Params' naming but is its own type: the accent system
// borrows an external parameter source through a narrow, read-only
// interface rather than depending on the layer graph's full derived-output
// shape.
type Params struct {
	Hue, Saturation, Intensity, Chaos, Speed, Dimension, MorphFactor float64
	Rot4dXW, Rot4dYW, Rot4dZW                                        float64
}

// Source is the read-only parameter source the accent system borrows. It
// never owns the source; it only reads from it once per Update call.
type Source interface {
	AccentParams() Params
}

// FromGraphParams adapts a graph.Params into the accent system's narrower
// Params shape.
func FromGraphParams(p graph.Params) Params {
	return Params{
		Hue: p.Hue, Saturation: p.Saturation, Intensity: p.Intensity,
		Chaos: p.Chaos, Speed: p.Speed, Dimension: p.Dimension,
		MorphFactor: p.MorphFactor,
		Rot4dXW:     p.Rot4dXW, Rot4dYW: p.Rot4dYW, Rot4dZW: p.Rot4dZW,
	}
}

const goldenAngleDeg = 137.508

const cssEaseRhythm = "cubic-bezier(0.23, 1, 0.32, 1)"

func clampLegalRanges(p Params) Params {
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
	return p
}

func wrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func ema(current, target, dtSeconds, tauSeconds float64) float64 {
	if tauSeconds <= 0 {
		return target
	}
	alpha := 1 - math.Exp(-dtSeconds/tauSeconds)
	return current + alpha*(target-current)
}

func emaHue(current, target, dtSeconds, tauSeconds float64) float64 {
	delta := wrapDegrees(target-current+180) - 180
	return wrapDegrees(current + (1-math.Exp(-dtSeconds/tauSeconds))*delta)
}

// System holds the accent projection's smoothing state across calls to
// Update. A zero-value System is ready to use; its first Update call
// bootstraps the smoothed state to the raw input with no lag.
type System struct {
	smoothed   Params
	init       bool
	lastTimeMs float64
	clockInit  bool
}

// NewSystem constructs an accent System.
func NewSystem() *System {
	return &System{}
}

func (s *System) advanceClock(tsMs float64) float64 {
	if !s.clockInit {
		s.clockInit = true
		s.lastTimeMs = tsMs
		return 0
	}
	dt := (tsMs - s.lastTimeMs) / 1000
	s.lastTimeMs = tsMs
	if dt < 0 {
		dt = 0
	}
	return dt
}

func (s *System) smooth(raw Params, dtSeconds float64) Params {
	if !s.init {
		s.init = true
		s.smoothed = raw
		return s.smoothed
	}
	c := s.smoothed
	c.Hue = emaHue(c.Hue, raw.Hue, dtSeconds, graph.TauHue)
	c.Saturation = ema(c.Saturation, raw.Saturation, dtSeconds, graph.TauSaturation)
	c.Intensity = ema(c.Intensity, raw.Intensity, dtSeconds, graph.TauIntensity)
	c.Chaos = ema(c.Chaos, raw.Chaos, dtSeconds, graph.TauChaos)
	c.Speed = ema(c.Speed, raw.Speed, dtSeconds, graph.TauSpeed)
	c.Dimension = ema(c.Dimension, raw.Dimension, dtSeconds, graph.TauDimension)
	c.MorphFactor = ema(c.MorphFactor, raw.MorphFactor, dtSeconds, graph.TauMorphFactor)
	c.Rot4dXW = ema(c.Rot4dXW, raw.Rot4dXW, dtSeconds, graph.TauRotation)
	c.Rot4dYW = ema(c.Rot4dYW, raw.Rot4dYW, dtSeconds, graph.TauRotation)
	c.Rot4dZW = ema(c.Rot4dZW, raw.Rot4dZW, dtSeconds, graph.TauRotation)
	s.smoothed = c
	return s.smoothed
}

// Update reads source once, advances the per-channel EMA smoothing to
// tsMs, and returns the full set of derived CSS custom properties.
func (s *System) Update(source Source, tsMs float64) Properties {
	raw := clampLegalRanges(source.AccentParams())
	dt := s.advanceClock(tsMs)
	smoothed := s.smooth(raw, dt)
	return Derive(smoothed)
}

// Properties is the public surface of the accent system: one string field
// per CSS custom property, pre-formatted to its fixed decimal precision.
type Properties struct {
	AccentHue         string
	AccentComplement  string
	AccentSplitWarm   string
	AccentSplitCool   string
	AccentAnalogousA  string
	AccentAnalogousB  string
	AccentHarmonic    string
	AccentSaturation  string
	AccentIntensity   string
	AccentChaos       string
	AccentSpeed       string
	AccentDimension   string
	AccentMorphFactor string

	GlassDepth string
	GlassBlur  string
	GlassTint  string

	EnergyIntensity string
	EnergyHue       string
	EnergyPulse     string

	DepthShadow      string
	DepthShadowAlpha string
	DepthRadius      string
	DepthLift        string

	RhythmDuration string
	RhythmEase     string
}

// Entry is one named CSS custom property and its formatted value.
type Entry struct {
	Name  string
	Value string
}

// Entries returns every property in the fixed declaration order of §4.F:
// chromatic, glass, energy, depth, rhythm.
func (p Properties) Entries() []Entry {
	return []Entry{
		{"--accent-hue", p.AccentHue},
		{"--accent-complement", p.AccentComplement},
		{"--accent-split-warm", p.AccentSplitWarm},
		{"--accent-split-cool", p.AccentSplitCool},
		{"--accent-analogous-a", p.AccentAnalogousA},
		{"--accent-analogous-b", p.AccentAnalogousB},
		{"--accent-harmonic", p.AccentHarmonic},
		{"--accent-saturation", p.AccentSaturation},
		{"--accent-intensity", p.AccentIntensity},
		{"--accent-chaos", p.AccentChaos},
		{"--accent-speed", p.AccentSpeed},
		{"--accent-dimension", p.AccentDimension},
		{"--accent-morph-factor", p.AccentMorphFactor},
		{"--glass-depth", p.GlassDepth},
		{"--glass-blur", p.GlassBlur},
		{"--glass-tint", p.GlassTint},
		{"--energy-intensity", p.EnergyIntensity},
		{"--energy-hue", p.EnergyHue},
		{"--energy-pulse", p.EnergyPulse},
		{"--depth-shadow", p.DepthShadow},
		{"--depth-shadow-alpha", p.DepthShadowAlpha},
		{"--depth-radius", p.DepthRadius},
		{"--depth-lift", p.DepthLift},
		{"--rhythm-duration", p.RhythmDuration},
		{"--rhythm-ease", p.RhythmEase},
	}
}

// Map returns the properties as a name->value map, for hosts that write CSS
// custom properties through a style-object API rather than iterating.
func (p Properties) Map() map[string]string {
	out := make(map[string]string, 25)
	for _, e := range p.Entries() {
		out[e.Name] = e.Value
	}
	return out
}

func fmtHue(v float64) string { return fmt.Sprintf("%.1f", wrapDegrees(v)) }
func fmtUnit(v float64) string { return fmt.Sprintf("%.3f", v) }
func fmtPx(v float64) string   { return fmt.Sprintf("%.1fpx", v) }
func fmtSec(v float64) string  { return fmt.Sprintf("%.2fs", v) }

// Derive is the pure projection from a smoothed parameter set to CSS
// custom properties: equal inputs always yield byte-identical output.
func Derive(p Params) Properties {
	complement := wrapDegrees(p.Hue + 180)

	rotNorm := math.Sqrt(p.Rot4dXW*p.Rot4dXW + p.Rot4dYW*p.Rot4dYW + p.Rot4dZW*p.Rot4dZW)
	energyBoost := rotNorm / 6
	if energyBoost > 1 {
		energyBoost = 1
	}

	return Properties{
		AccentHue:         fmtHue(p.Hue),
		AccentComplement:  fmtHue(complement),
		AccentSplitWarm:   fmtHue(p.Hue + 150),
		AccentSplitCool:   fmtHue(p.Hue + 210),
		AccentAnalogousA:  fmtHue(p.Hue + 60),
		AccentAnalogousB:  fmtHue(p.Hue + 300),
		AccentHarmonic:    fmtHue(p.Hue + goldenAngleDeg),
		AccentSaturation:  fmtUnit(p.Saturation),
		AccentIntensity:   fmtUnit(p.Intensity),
		AccentChaos:       fmtUnit(p.Chaos),
		AccentSpeed:       fmtUnit(p.Speed),
		AccentDimension:   fmtUnit(p.Dimension),
		AccentMorphFactor: fmtUnit(p.MorphFactor),

		GlassDepth: fmtUnit(0.35 + p.Intensity*0.35),
		GlassBlur:  fmtPx(12 + p.Chaos*20),
		GlassTint:  fmtHue(complement),

		EnergyIntensity: fmtUnit(0.05 + energyBoost*0.15),
		EnergyHue:       fmtHue(complement),
		EnergyPulse:     fmtSec(0.8 + (1-p.Speed/3)*2.4),

		DepthShadow:      fmtPx(8 + (4.5-p.Dimension)*16),
		DepthShadowAlpha: fmtUnit(0.2 + (4.5-p.Dimension)/6),
		DepthRadius:      fmtPx(12 + p.MorphFactor*8),
		DepthLift:        fmtPx(p.MorphFactor * 2),

		RhythmDuration: fmtSec(0.4 + (1-p.Speed/3)*0.8),
		RhythmEase:     cssEaseRhythm,
	}
}
