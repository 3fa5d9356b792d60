// Package uniform provides the backend-neutral uniform value variant and the
// packed VIB3 uniform block shared by every procedural shader (spec §6, §9).
//
// Dynamic typing of uniform values in the source SDK ("one function takes
// numbers, arrays of 2/3/4/9/16, booleans") is re-architected here as a
// closed tagged sum (spec §9's "Dynamic typing of uniform values" note):
// Value carries an explicit Kind the backend dispatches on, rather than an
// `any` the backend must type-switch and hope is one of the supported shapes.
package uniform

// Kind identifies which payload a Value carries. The set is closed and
// mirrors every scalar and vector/matrix type a GLSL or WGSL shader can
// declare as a uniform, plus Sampler for texture-unit bindings.
type Kind int

const (
	KindFloat Kind = iota
	KindVec2
	KindVec3
	KindVec4
	KindMat2
	KindMat3
	KindMat4
	KindInt
	KindBool
	KindSampler
)

// String returns the GLSL-style spelling of the kind, used in debug labels
// and log lines.
func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindVec2:
		return "vec2"
	case KindVec3:
		return "vec3"
	case KindVec4:
		return "vec4"
	case KindMat2:
		return "mat2"
	case KindMat3:
		return "mat3"
	case KindMat4:
		return "mat4"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindSampler:
		return "sampler"
	default:
		return "unknown"
	}
}

// Value is a tagged union over every uniform type a shader may declare. It is
// a plain comparable struct (no pointers, no slices) so that two Values can
// be compared with == — the backend relies on this to skip a GPU upload when
// the newly set value equals what is already bound (spec §4.C).
type Value struct {
	Kind Kind

	// f holds the flattened float payload for Float/Vec2/Vec3/Vec4/Mat2/Mat3/Mat4,
	// column-major for matrices. Only the first N entries are meaningful,
	// where N is the component count implied by Kind.
	f [16]float32

	i       int32
	b       bool
	sampler int32
}

// Float constructs a scalar float uniform value.
func Float(v float32) Value { return Value{Kind: KindFloat, f: [16]float32{v}} }

// Vec2 constructs a 2-component float vector uniform value.
func Vec2(x, y float32) Value { return Value{Kind: KindVec2, f: [16]float32{x, y}} }

// Vec3 constructs a 3-component float vector uniform value.
func Vec3(x, y, z float32) Value { return Value{Kind: KindVec3, f: [16]float32{x, y, z}} }

// Vec4 constructs a 4-component float vector uniform value.
func Vec4(x, y, z, w float32) Value { return Value{Kind: KindVec4, f: [16]float32{x, y, z, w}} }

// Mat2 constructs a 2x2 float matrix uniform value from 4 column-major
// elements.
func Mat2(m [4]float32) Value {
	v := Value{Kind: KindMat2}
	copy(v.f[:4], m[:])
	return v
}

// Mat3 constructs a 3x3 float matrix uniform value from 9 column-major
// elements.
func Mat3(m [9]float32) Value {
	v := Value{Kind: KindMat3}
	copy(v.f[:9], m[:])
	return v
}

// Mat4 constructs a 4x4 float matrix uniform value from 16 column-major
// elements.
func Mat4(m [16]float32) Value {
	v := Value{Kind: KindMat4}
	copy(v.f[:16], m[:])
	return v
}

// Int constructs an integer uniform value.
func Int(v int32) Value { return Value{Kind: KindInt, i: v} }

// Bool constructs a boolean uniform value.
func Bool(v bool) Value { return Value{Kind: KindBool, b: v} }

// Sampler constructs a sampler/texture-unit uniform value bound to the given
// texture slot.
func Sampler(slot int32) Value { return Value{Kind: KindSampler, sampler: slot} }

// Float32 returns the scalar payload and whether Kind is KindFloat.
func (v Value) Float32() (float32, bool) {
	if v.Kind != KindFloat {
		return 0, false
	}
	return v.f[0], true
}

// Floats returns the flattened float payload and its component count for
// any float-family Kind (Vec*/Mat*), or nil, 0 for non-float kinds.
func (v Value) Floats() ([]float32, int) {
	switch v.Kind {
	case KindFloat:
		return v.f[:1], 1
	case KindVec2:
		return v.f[:2], 2
	case KindVec3:
		return v.f[:3], 3
	case KindVec4, KindMat2:
		return v.f[:4], 4
	case KindMat3:
		return v.f[:9], 9
	case KindMat4:
		return v.f[:16], 16
	default:
		return nil, 0
	}
}

// Int32 returns the integer payload and whether Kind is KindInt.
func (v Value) Int32() (int32, bool) {
	if v.Kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// Boolean returns the boolean payload and whether Kind is KindBool.
func (v Value) Boolean() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.b, true
}

// TextureSlot returns the sampler's texture slot and whether Kind is
// KindSampler.
func (v Value) TextureSlot() (int32, bool) {
	if v.Kind != KindSampler {
		return 0, false
	}
	return v.sampler, true
}
