package graph

import "math"

// PresetKind is the closed catalog of relationship presets.
type PresetKind int

const (
	PresetIdentity PresetKind = iota
	PresetEcho
	PresetComplement
	PresetHarmonic
	PresetReactive
	PresetChase
	PresetSymmetry
	PresetChord
	PresetStorm
	PresetCustom
)

// String returns the preset's canonical name.
func (p PresetKind) String() string {
	switch p {
	case PresetIdentity:
		return "identity"
	case PresetEcho:
		return "echo"
	case PresetComplement:
		return "complement"
	case PresetHarmonic:
		return "harmonic"
	case PresetReactive:
		return "reactive"
	case PresetChase:
		return "chase"
	case PresetSymmetry:
		return "symmetry"
	case PresetChord:
		return "chord"
	case PresetStorm:
		return "storm"
	case PresetCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Config is the union of every preset's configuration options. Only the
// fields relevant to Kind are meaningful; constructors below fill sensible
// defaults per preset.
type Config struct {
	Kind PresetKind

	// echo
	Gain  float64
	Delay float64 // ms
	Damp  float64

	// complement
	Opacity  float64
	Channels []string

	// harmonic, chord
	OffsetDeg float64

	// harmonic
	IntensityBias float64

	// reactive
	Clamp float64

	// chase
	LagMs float64

	// symmetry
	Channel string
	Center  float64

	// chord
	SatBias float64

	// storm
	ChaosGain float64
	SpeedGain float64

	// custom; never serialized (Graph.ExportConfig skips custom relationships)
	Fn func(keystone Params, frameTimeMs float64) Params `json:"-"`
}

// IdentityConfig returns the (empty) config for the identity preset.
func IdentityConfig() Config { return Config{Kind: PresetIdentity} }

// EchoConfig returns the echo preset's config. damp is stored as given; at
// resolve time a damp outside the open interval (0,1), including 0 and 1,
// is replaced by 0.5.
func EchoConfig(gain, delayMs, damp float64) Config {
	return Config{Kind: PresetEcho, Gain: gain, Delay: delayMs, Damp: damp}
}

// ComplementConfig returns the complement preset's config.
func ComplementConfig(opacity float64, channels []string) Config {
	return Config{Kind: PresetComplement, Opacity: opacity, Channels: channels}
}

// HarmonicConfig returns the harmonic preset's config. offsetDeg defaults to
// the golden angle (137.508) when zero.
func HarmonicConfig(offsetDeg, intensityBias float64) Config {
	if offsetDeg == 0 {
		offsetDeg = 137.508
	}
	return Config{Kind: PresetHarmonic, OffsetDeg: offsetDeg, IntensityBias: intensityBias}
}

// ReactiveConfig returns the reactive preset's config.
func ReactiveConfig(gain, clamp float64) Config {
	return Config{Kind: PresetReactive, Gain: gain, Clamp: clamp}
}

// ChaseConfig returns the chase preset's config.
func ChaseConfig(lagMs float64) Config {
	return Config{Kind: PresetChase, LagMs: lagMs}
}

// SymmetryConfig returns the symmetry preset's config.
func SymmetryConfig(channel string, center float64) Config {
	return Config{Kind: PresetSymmetry, Channel: channel, Center: center}
}

// ChordConfig returns the chord preset's config.
func ChordConfig(offsetDeg, satBias float64) Config {
	return Config{Kind: PresetChord, OffsetDeg: offsetDeg, SatBias: satBias}
}

// StormConfig returns the storm preset's config.
func StormConfig(chaosGain, speedGain float64) Config {
	return Config{Kind: PresetStorm, ChaosGain: chaosGain, SpeedGain: speedGain}
}

// CustomConfig returns a host-provided, non-serializable relationship.
func CustomConfig(fn func(keystone Params, frameTimeMs float64) Params) Config {
	return Config{Kind: PresetCustom, Fn: fn}
}

// chaseSnapshot is one entry of a chase relationship's keystone history.
type chaseSnapshot struct {
	timeMs float64
	params Params
}

// Relationship is a pure function of (keystone, frameTimeMs) bound to one
// follower layer, plus whatever transient state its preset needs (echo's
// EMA state, chase's history, reactive's last-sample velocity tracker).
// Two calls with identical (inputs, state, time) produce identical output
// (spec §8 property 7); the transient state itself only advances through
// Resolve, never through any other method.
type Relationship struct {
	config Config

	emaState   Params
	emaInit    bool
	history    []chaseSnapshot
	lastTimeMs float64
	clockInit  bool
	lastRot    [3]float64
	hasLast    bool
}

// NewRelationship constructs a fresh Relationship bound to the given
// config. Per-layer transient state starts empty.
func NewRelationship(config Config) *Relationship {
	return &Relationship{config: config}
}

// Config returns the relationship's configuration.
func (r *Relationship) Config() Config { return r.config }

// Resolve derives this relationship's layer output from the keystone
// params at frameTimeMs (milliseconds, monotonic within one graph's
// lifetime). It both reads and updates the relationship's own state slot.
func (r *Relationship) Resolve(keystone Params, frameTimeMs float64) Params {
	keystone = clampRanges(keystone)

	var out Params
	switch r.config.Kind {
	case PresetIdentity:
		out = keystone
	case PresetEcho:
		out = r.resolveEcho(keystone, frameTimeMs)
	case PresetComplement:
		out = r.resolveComplement(keystone)
	case PresetHarmonic:
		out = r.resolveHarmonic(keystone)
	case PresetReactive:
		out = r.resolveReactive(keystone, frameTimeMs)
	case PresetChase:
		out = r.resolveChase(keystone, frameTimeMs)
	case PresetSymmetry:
		out = r.resolveSymmetry(keystone)
	case PresetChord:
		out = r.resolveChord(keystone)
	case PresetStorm:
		out = r.resolveStorm(keystone)
	case PresetCustom:
		if r.config.Fn != nil {
			out = r.config.Fn(keystone, frameTimeMs)
		} else {
			out = keystone
		}
	default:
		out = keystone
	}
	if out.LayerOpacity == 0 {
		out.LayerOpacity = 1.0
	}
	return out
}

// resolveEcho scales the keystone by gain and lags every smoothed scalar
// channel through a first-order IIR whose time constant is derived so the
// step response reaches 1-damp at delayMs.
func (r *Relationship) resolveEcho(keystone Params, frameTimeMs float64) Params {
	gain := r.config.Gain
	if gain <= 0 {
		gain = 1
	}
	damp := r.config.Damp
	if damp <= 0 || damp >= 1 {
		damp = 0.5
	}
	delaySeconds := r.config.Delay / 1000
	var tau float64
	if delaySeconds > 0 {
		tau = -delaySeconds / math.Log(damp)
	}

	dt := r.advanceClock(frameTimeMs)
	target := keystone
	target.Intensity *= gain
	target.Saturation *= gain

	if !r.emaInit {
		r.emaState = target
		r.emaInit = true
	} else {
		r.emaState.Intensity = ema(r.emaState.Intensity, target.Intensity, dt, tau)
		r.emaState.Saturation = ema(r.emaState.Saturation, target.Saturation, dt, tau)
		r.emaState.Chaos = ema(r.emaState.Chaos, keystone.Chaos, dt, tau)
		r.emaState.Speed = ema(r.emaState.Speed, keystone.Speed, dt, tau)
		r.emaState.Hue = emaHue(r.emaState.Hue, keystone.Hue, dt, tau)
	}

	out := keystone
	out.Intensity = r.emaState.Intensity
	out.Saturation = r.emaState.Saturation
	out.Chaos = r.emaState.Chaos
	out.Speed = r.emaState.Speed
	out.Hue = r.emaState.Hue
	out.LayerOpacity = gain
	return out
}

// mirror reflects v around center.
func mirror(v, center float64) float64 { return 2*center - v }

func (r *Relationship) resolveComplement(keystone Params) Params {
	out := keystone
	out.Hue = wrapDegrees(keystone.Hue + 180)
	out.LayerOpacity = r.config.Opacity * (1 - keystone.Intensity)
	for _, ch := range r.config.Channels {
		switch ch {
		case "saturation":
			out.Saturation = mirror(keystone.Saturation, 0.5)
		case "intensity":
			out.Intensity = mirror(keystone.Intensity, 0.5)
		case "chaos":
			out.Chaos = mirror(keystone.Chaos, 0.5)
		case "speed":
			out.Speed = mirror(keystone.Speed, 1.55)
		}
	}
	return out
}

func (r *Relationship) resolveHarmonic(keystone Params) Params {
	out := keystone
	out.Hue = wrapDegrees(keystone.Hue + r.config.OffsetDeg)
	out.Intensity = keystone.Intensity + r.config.IntensityBias
	if out.Intensity < 0 {
		out.Intensity = 0
	} else if out.Intensity > 1 {
		out.Intensity = 1
	}
	return out
}

func (r *Relationship) resolveReactive(keystone Params, frameTimeMs float64) Params {
	dt := r.advanceClock(frameTimeMs)
	rot := [3]float64{keystone.Rot4dXW, keystone.Rot4dYW, keystone.Rot4dZW}

	var speed float64
	if r.hasLast && dt > 0 {
		dx, dy, dz := rot[0]-r.lastRot[0], rot[1]-r.lastRot[1], rot[2]-r.lastRot[2]
		speed = math.Sqrt(dx*dx+dy*dy+dz*dz) / dt
	}
	r.lastRot = rot
	r.hasLast = true

	clamp := r.config.Clamp
	if clamp <= 0 {
		clamp = 1
	}
	if speed > clamp {
		speed = clamp
	}
	gain := r.config.Gain

	out := keystone
	out.Intensity = keystone.Intensity + gain*speed
	if out.Intensity > 1 {
		out.Intensity = 1
	}
	return out
}

func (r *Relationship) resolveChase(keystone Params, frameTimeMs float64) Params {
	r.history = append(r.history, chaseSnapshot{timeMs: frameTimeMs, params: keystone})
	// Trim history older than lagMs plus a one-second margin, which keeps
	// the sample before the lagged target for interpolation.
	cutoff := frameTimeMs - r.config.LagMs - 1000
	trimmed := r.history[:0]
	for _, s := range r.history {
		if s.timeMs >= cutoff {
			trimmed = append(trimmed, s)
		}
	}
	r.history = trimmed

	target := frameTimeMs - r.config.LagMs
	if len(r.history) == 0 {
		return keystone
	}
	if target <= r.history[0].timeMs {
		return r.history[0].params
	}
	last := r.history[len(r.history)-1]
	if target >= last.timeMs {
		return last.params
	}
	for i := 1; i < len(r.history); i++ {
		a, b := r.history[i-1], r.history[i]
		if target >= a.timeMs && target <= b.timeMs {
			span := b.timeMs - a.timeMs
			if span <= 0 {
				return b.params
			}
			t := (target - a.timeMs) / span
			return lerpParams(a.params, b.params, t)
		}
	}
	return last.params
}

func lerpParams(a, b Params, t float64) Params {
	lerp := func(x, y float64) float64 { return x + (y-x)*t }
	return Params{
		Hue:            wrapDegrees(a.Hue + angularDelta(a.Hue, b.Hue)*t),
		Saturation:     lerp(a.Saturation, b.Saturation),
		Intensity:      lerp(a.Intensity, b.Intensity),
		Chaos:          lerp(a.Chaos, b.Chaos),
		Speed:          lerp(a.Speed, b.Speed),
		Dimension:      lerp(a.Dimension, b.Dimension),
		MorphFactor:    lerp(a.MorphFactor, b.MorphFactor),
		GridDensity:    lerp(a.GridDensity, b.GridDensity),
		GeometryType:   a.GeometryType,
		Rot4dXY:        lerp(a.Rot4dXY, b.Rot4dXY),
		Rot4dXZ:        lerp(a.Rot4dXZ, b.Rot4dXZ),
		Rot4dYZ:        lerp(a.Rot4dYZ, b.Rot4dYZ),
		Rot4dXW:        lerp(a.Rot4dXW, b.Rot4dXW),
		Rot4dYW:        lerp(a.Rot4dYW, b.Rot4dYW),
		Rot4dZW:        lerp(a.Rot4dZW, b.Rot4dZW),
		MouseIntensity: lerp(a.MouseIntensity, b.MouseIntensity),
		ClickIntensity: lerp(a.ClickIntensity, b.ClickIntensity),
		Bass:           lerp(a.Bass, b.Bass),
		Mid:            lerp(a.Mid, b.Mid),
		High:           lerp(a.High, b.High),
	}
}

func angularDelta(from, to float64) float64 {
	return wrapDegrees(to-from+180) - 180
}

func (r *Relationship) resolveSymmetry(keystone Params) Params {
	out := keystone
	switch r.config.Channel {
	case "hue":
		out.Hue = wrapDegrees(mirror(keystone.Hue, r.config.Center))
	case "saturation":
		out.Saturation = mirror(keystone.Saturation, r.config.Center)
	case "intensity":
		out.Intensity = mirror(keystone.Intensity, r.config.Center)
	case "chaos":
		out.Chaos = mirror(keystone.Chaos, r.config.Center)
	case "speed":
		out.Speed = mirror(keystone.Speed, r.config.Center)
	case "dimension":
		out.Dimension = mirror(keystone.Dimension, r.config.Center)
	}
	return out
}

func (r *Relationship) resolveChord(keystone Params) Params {
	out := keystone
	out.Hue = wrapDegrees(keystone.Hue + r.config.OffsetDeg)
	out.Saturation = keystone.Saturation + r.config.SatBias
	if out.Saturation < 0 {
		out.Saturation = 0
	} else if out.Saturation > 1 {
		out.Saturation = 1
	}
	return out
}

func (r *Relationship) resolveStorm(keystone Params) Params {
	out := keystone
	chaosGain := r.config.ChaosGain
	if chaosGain == 0 {
		chaosGain = 1
	}
	speedGain := r.config.SpeedGain
	if speedGain == 0 {
		speedGain = 1
	}
	out.Chaos = clamp01(keystone.Chaos * chaosGain)
	out.Speed = clampSpeed(keystone.Speed * speedGain)
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampSpeed(v float64) float64 {
	if v < 0.1 {
		return 0.1
	}
	if v > 3 {
		return 3
	}
	return v
}

// advanceClock returns the elapsed seconds since the last call and records
// frameTimeMs as the new reference point. The first call returns 0.
func (r *Relationship) advanceClock(frameTimeMs float64) float64 {
	if !r.clockInit {
		r.clockInit = true
		r.lastTimeMs = frameTimeMs
		return 0
	}
	dt := (frameTimeMs - r.lastTimeMs) / 1000
	r.lastTimeMs = frameTimeMs
	if dt < 0 {
		dt = 0
	}
	return dt
}
