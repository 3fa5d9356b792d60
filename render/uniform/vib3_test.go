package uniform

import (
	"encoding/binary"
	"math"
	"reflect"
	"testing"
	"unsafe"
)

func TestVib3BlockSizeIsExact(t *testing.T) {
	var b Vib3Block
	if got := unsafe.Sizeof(b); got != Vib3BlockSize {
		t.Fatalf("Vib3Block size = %d, want %d", got, Vib3BlockSize)
	}
	if got := len(b.Bytes()); got != Vib3BlockSize {
		t.Fatalf("Bytes() length = %d, want %d", got, Vib3BlockSize)
	}
}

// fieldBySlot maps each normative slot to the struct field that must occupy
// it, including the two padding fields. Field order here must track the
// slot constants and the Vib3Block declaration exactly.
var fieldBySlot = []string{
	SlotTime:           "Time",
	slotPad0:           "pad0",
	SlotResolutionX:    "ResolutionX",
	SlotResolutionY:    "ResolutionY",
	SlotGeometry:       "Geometry",
	SlotRot4dXY:        "Rot4dXY",
	SlotRot4dXZ:        "Rot4dXZ",
	SlotRot4dYZ:        "Rot4dYZ",
	SlotRot4dXW:        "Rot4dXW",
	SlotRot4dYW:        "Rot4dYW",
	SlotRot4dZW:        "Rot4dZW",
	SlotDimension:      "Dimension",
	SlotGridDensity:    "GridDensity",
	SlotMorphFactor:    "MorphFactor",
	SlotChaos:          "Chaos",
	SlotSpeed:          "Speed",
	SlotHue:            "Hue",
	SlotIntensity:      "Intensity",
	SlotSaturation:     "Saturation",
	SlotMouseIntensity: "MouseIntensity",
	SlotClickIntensity: "ClickIntensity",
	SlotBass:           "Bass",
	SlotMid:            "Mid",
	SlotHigh:           "High",
	SlotLayerScale:     "LayerScale",
	SlotLayerOpacity:   "LayerOpacity",
	slotPad1:           "pad1",
	SlotLayerColorR:    "LayerColorR",
	SlotLayerColorG:    "LayerColorG",
	SlotLayerColorB:    "LayerColorB",
	SlotDensityMult:    "DensityMult",
	SlotSpeedMult:      "SpeedMult",
}

func TestVib3BlockSlotOffsets(t *testing.T) {
	typ := reflect.TypeOf(Vib3Block{})
	for slot, name := range fieldBySlot {
		f, ok := typ.FieldByName(name)
		if !ok {
			t.Fatalf("slot %d: no field named %q", slot, name)
		}
		wantOffset := uintptr(slot) * 4
		if f.Offset != wantOffset {
			t.Fatalf("slot %d (%s): offset = %d, want %d", slot, name, f.Offset, wantOffset)
		}
	}
}

func TestVib3BlockBytesAreLittleEndian(t *testing.T) {
	b := Pack(Shared{TimeSeconds: 1.5}, Layer{})
	raw := b.Bytes()
	got := binary.LittleEndian.Uint32(raw[:4])
	want := math.Float32bits(1.5)
	if got != want {
		t.Fatalf("first 4 bytes = %#x, want %#x (little-endian float32 1.5)", got, want)
	}
}

func TestPackPlacesSharedAndLayerFields(t *testing.T) {
	shared := Shared{
		TimeSeconds: 2, ResolutionX: 800, ResolutionY: 600, Geometry: 3,
		Rot4dXY: 0.1, Dimension: 4, GridDensity: 12, Speed: 1.2, Hue: 200,
	}
	layer := Layer{Scale: 1.1, Opacity: 0.8, ColorR: 0.2, ColorG: 0.4, ColorB: 0.6, DensityMult: 1.5, SpeedMult: 0.9}

	b := Pack(shared, layer)

	if b.Time != shared.TimeSeconds || b.ResolutionX != shared.ResolutionX || b.Hue != shared.Hue {
		t.Fatalf("shared fields not packed correctly: %+v", b)
	}
	if b.LayerScale != layer.Scale || b.LayerOpacity != layer.Opacity || b.DensityMult != layer.DensityMult {
		t.Fatalf("layer fields not packed correctly: %+v", b)
	}
}

func TestNamedValuesMatchSlotOrder(t *testing.T) {
	b := Pack(Shared{TimeSeconds: 5, Hue: 90}, Layer{Scale: 2})
	named := b.NamedValues()

	if named[SlotTime].Name != "u_time" || named[SlotTime].Value != 5 {
		t.Fatalf("time slot mismatch: %+v", named[SlotTime])
	}
	if named[SlotHue].Name != "u_hue" || named[SlotHue].Value != 90 {
		t.Fatalf("hue slot mismatch: %+v", named[SlotHue])
	}
	if named[SlotLayerScale].Name != "u_layerScale" || named[SlotLayerScale].Value != 2 {
		t.Fatalf("layer scale slot mismatch: %+v", named[SlotLayerScale])
	}
}
