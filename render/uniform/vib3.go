package uniform

import "github.com/vib3/render-core/common"

// Slot indices into the packed VIB3 block, normative per spec §6. Every
// procedural shader binds this block through a single uniform buffer binding
// under WebGPU; the WebGL backend uploads the same 30 named values through
// individually cached uniform locations (spec §4.C).
const (
	SlotTime = iota
	slotPad0
	SlotResolutionX
	SlotResolutionY
	SlotGeometry
	SlotRot4dXY
	SlotRot4dXZ
	SlotRot4dYZ
	SlotRot4dXW
	SlotRot4dYW
	SlotRot4dZW
	SlotDimension
	SlotGridDensity
	SlotMorphFactor
	SlotChaos
	SlotSpeed
	SlotHue
	SlotIntensity
	SlotSaturation
	SlotMouseIntensity
	SlotClickIntensity
	SlotBass
	SlotMid
	SlotHigh
	SlotLayerScale
	SlotLayerOpacity
	slotPad1
	SlotLayerColorR
	SlotLayerColorG
	SlotLayerColorB
	SlotDensityMult
	SlotSpeedMult
)

// Vib3BlockSize is the bit-exact byte size of the packed uniform block:
// 64 float32 slots, little-endian, 256 bytes total.
const Vib3BlockSize = 256

// Vib3Block is the packed, bit-exact 256-byte uniform block described in
// spec §6. Field order matches the normative slot table exactly; reordering
// fields is not permitted, since shader uniforms are compiled against fixed
// byte offsets. The two pad fields fill slots 1 and 26 so every named field
// lands on the offset the table specifies; _tail pads the struct out to the
// full 64-slot/256-byte
// block WebGPU requires for a uniform buffer binding.
type Vib3Block struct {
	Time float32
	pad0 float32

	ResolutionX float32
	ResolutionY float32

	Geometry float32

	Rot4dXY float32
	Rot4dXZ float32
	Rot4dYZ float32
	Rot4dXW float32
	Rot4dYW float32
	Rot4dZW float32

	Dimension   float32
	GridDensity float32
	MorphFactor float32
	Chaos       float32
	Speed       float32

	Hue            float32
	Intensity      float32
	Saturation     float32
	MouseIntensity float32
	ClickIntensity float32
	Bass           float32
	Mid            float32
	High           float32

	LayerScale   float32
	LayerOpacity float32
	pad1         float32

	LayerColorR float32
	LayerColorG float32
	LayerColorB float32

	DensityMult float32
	SpeedMult   float32

	_tail [32]float32
}

// Shared carries the keystone-derived scalar channels common to every layer
// each frame: the time/resolution pair, the 4D rotation angles, and the
// interaction/audio scalars. It mirrors the keystone parameter set (spec §3)
// restricted to the fields the shader block actually consumes.
type Shared struct {
	TimeSeconds    float32
	ResolutionX    float32
	ResolutionY    float32
	Geometry       float32
	Rot4dXY        float32
	Rot4dXZ        float32
	Rot4dYZ        float32
	Rot4dXW        float32
	Rot4dYW        float32
	Rot4dZW        float32
	Dimension      float32
	GridDensity    float32
	MorphFactor    float32
	Chaos          float32
	Speed          float32
	Hue            float32
	Intensity      float32
	Saturation     float32
	MouseIntensity float32
	ClickIntensity float32
	Bass           float32
	Mid            float32
	High           float32
}

// Layer carries the per-layer derived channels that the relationship graph
// (or the legacy multiplicative fallback) produces for one follower layer.
type Layer struct {
	Scale       float32
	Opacity     float32
	ColorR      float32
	ColorG      float32
	ColorB      float32
	DensityMult float32
	SpeedMult   float32
}

// Pack combines Shared and Layer into the bit-exact Vib3Block ready for GPU
// upload.
func Pack(shared Shared, layer Layer) Vib3Block {
	return Vib3Block{
		Time:           shared.TimeSeconds,
		ResolutionX:    shared.ResolutionX,
		ResolutionY:    shared.ResolutionY,
		Geometry:       shared.Geometry,
		Rot4dXY:        shared.Rot4dXY,
		Rot4dXZ:        shared.Rot4dXZ,
		Rot4dYZ:        shared.Rot4dYZ,
		Rot4dXW:        shared.Rot4dXW,
		Rot4dYW:        shared.Rot4dYW,
		Rot4dZW:        shared.Rot4dZW,
		Dimension:      shared.Dimension,
		GridDensity:    shared.GridDensity,
		MorphFactor:    shared.MorphFactor,
		Chaos:          shared.Chaos,
		Speed:          shared.Speed,
		Hue:            shared.Hue,
		Intensity:      shared.Intensity,
		Saturation:     shared.Saturation,
		MouseIntensity: shared.MouseIntensity,
		ClickIntensity: shared.ClickIntensity,
		Bass:           shared.Bass,
		Mid:            shared.Mid,
		High:           shared.High,
		LayerScale:     layer.Scale,
		LayerOpacity:   layer.Opacity,
		LayerColorR:    layer.ColorR,
		LayerColorG:    layer.ColorG,
		LayerColorB:    layer.ColorB,
		DensityMult:    layer.DensityMult,
		SpeedMult:      layer.SpeedMult,
	}
}

// Bytes returns a 256-byte little-endian view of the block suitable for a
// single WriteBuffer/BufferSubData call. The returned slice aliases the
// block's memory; callers that need to retain the bytes past the block's
// lifetime must copy them.
func (b *Vib3Block) Bytes() []byte {
	return common.StructToBytes(b)
}

// namedSlotValues returns the first 32 slots indexed by slot number: the 30
// named slots plus the two padding slots, which read as zero. It serves
// backends that upload individual uniforms instead of a single buffer (the
// WebGL path, per spec §4.C).
func (b *Vib3Block) namedSlotValues() [32]float32 {
	return [32]float32{
		SlotTime:           b.Time,
		SlotResolutionX:    b.ResolutionX,
		SlotResolutionY:    b.ResolutionY,
		SlotGeometry:       b.Geometry,
		SlotRot4dXY:        b.Rot4dXY,
		SlotRot4dXZ:        b.Rot4dXZ,
		SlotRot4dYZ:        b.Rot4dYZ,
		SlotRot4dXW:        b.Rot4dXW,
		SlotRot4dYW:        b.Rot4dYW,
		SlotRot4dZW:        b.Rot4dZW,
		SlotDimension:      b.Dimension,
		SlotGridDensity:    b.GridDensity,
		SlotMorphFactor:    b.MorphFactor,
		SlotChaos:          b.Chaos,
		SlotSpeed:          b.Speed,
		SlotHue:            b.Hue,
		SlotIntensity:      b.Intensity,
		SlotSaturation:     b.Saturation,
		SlotMouseIntensity: b.MouseIntensity,
		SlotClickIntensity: b.ClickIntensity,
		SlotBass:           b.Bass,
		SlotMid:            b.Mid,
		SlotHigh:           b.High,
		SlotLayerScale:     b.LayerScale,
		SlotLayerOpacity:   b.LayerOpacity,
		SlotLayerColorR:    b.LayerColorR,
		SlotLayerColorG:    b.LayerColorG,
		SlotLayerColorB:    b.LayerColorB,
		SlotDensityMult:    b.DensityMult,
		SlotSpeedMult:      b.SpeedMult,
	}
}

// UniformName is the shader-facing name of each named slot, in slot order;
// the two padding slots have an empty name. WebGL uniform location lookups
// are keyed by these strings.
var UniformName = [32]string{
	SlotTime:           "u_time",
	SlotResolutionX:    "u_resolution.x",
	SlotResolutionY:    "u_resolution.y",
	SlotGeometry:       "u_geometry",
	SlotRot4dXY:        "u_rot4dXY",
	SlotRot4dXZ:        "u_rot4dXZ",
	SlotRot4dYZ:        "u_rot4dYZ",
	SlotRot4dXW:        "u_rot4dXW",
	SlotRot4dYW:        "u_rot4dYW",
	SlotRot4dZW:        "u_rot4dZW",
	SlotDimension:      "u_dimension",
	SlotGridDensity:    "u_gridDensity",
	SlotMorphFactor:    "u_morphFactor",
	SlotChaos:          "u_chaos",
	SlotSpeed:          "u_speed",
	SlotHue:            "u_hue",
	SlotIntensity:      "u_intensity",
	SlotSaturation:     "u_saturation",
	SlotMouseIntensity: "u_mouseIntensity",
	SlotClickIntensity: "u_clickIntensity",
	SlotBass:           "u_bass",
	SlotMid:            "u_mid",
	SlotHigh:           "u_high",
	SlotLayerScale:     "u_layerScale",
	SlotLayerOpacity:   "u_layerOpacity",
	SlotLayerColorR:    "u_layerColor.r",
	SlotLayerColorG:    "u_layerColor.g",
	SlotLayerColorB:    "u_layerColor.b",
	SlotDensityMult:    "u_densityMult",
	SlotSpeedMult:      "u_speedMult",
}

// NamedValues returns each named uniform's shader name paired with its
// current float value, in slot order, for backends that upload individual
// uniforms (WebGL) rather than a single packed buffer (WebGPU). The two
// padding slots appear with an empty Name.
func (b *Vib3Block) NamedValues() [32]struct {
	Name  string
	Value float32
} {
	values := b.namedSlotValues()
	var out [32]struct {
		Name  string
		Value float32
	}
	for i := range out {
		out[i] = struct {
			Name  string
			Value float32
		}{Name: UniformName[i], Value: values[i]}
	}
	return out
}
