package command

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/vib3/render-core/render/rendererr"
	"github.com/vib3/render-core/render/state"
	"github.com/vib3/render-core/render/uniform"
)

// wireMagic is the 4-byte magic stamped at the start of every binary
// command buffer encoding.
const wireMagic = "VCB1"

// wireFormatVersion is the binary/JSON payload format version, independent
// of the buffer's own mutation Version().
const wireFormatVersion uint32 = 1

// wireType is the normative, append-only command type numbering used on the
// wire. Existing values must never be reassigned; new command kinds take
// the next unused value.
func wireType(k Kind) (uint8, bool) {
	switch k {
	case KindClear:
		return 0x01, true
	case KindSetViewport:
		return 0x02, true
	case KindBindShader:
		return 0x03, true
	case KindSetUniforms:
		return 0x04, true
	case KindSetUniform:
		return 0x04, true
	case KindBindVertexArray:
		return 0x05, true
	case KindBindIndexBuffer:
		return 0x06, true
	case KindDraw:
		return 0x07, true
	case KindDrawIndexed:
		return 0x08, true
	case KindDrawInstanced:
		return 0x09, true
	case KindSetBlendMode:
		return 0x0A, true
	case KindSetDepthState:
		return 0x0B, true
	case KindPushState:
		return 0x0C, true
	case KindPopState:
		return 0x0D, true
	case KindSetScissor:
		return 0x0E, true
	case KindSetStencil:
		return 0x0F, true
	case KindBindTexture:
		return 0x10, true
	case KindSetRotor:
		return 0x11, true
	case KindSetProjection:
		return 0x12, true
	case KindSetState:
		return 0x13, true
	case KindBindRenderTarget:
		return 0x14, true
	case KindDrawIndexedInstanced:
		return 0x15, true
	default:
		return 0, false
	}
}

func kindFromWireType(t uint8, single bool) (Kind, bool) {
	switch t {
	case 0x01:
		return KindClear, true
	case 0x02:
		return KindSetViewport, true
	case 0x03:
		return KindBindShader, true
	case 0x04:
		if single {
			return KindSetUniform, true
		}
		return KindSetUniforms, true
	case 0x05:
		return KindBindVertexArray, true
	case 0x06:
		return KindBindIndexBuffer, true
	case 0x07:
		return KindDraw, true
	case 0x08:
		return KindDrawIndexed, true
	case 0x09:
		return KindDrawInstanced, true
	case 0x0A:
		return KindSetBlendMode, true
	case 0x0B:
		return KindSetDepthState, true
	case 0x0C:
		return KindPushState, true
	case 0x0D:
		return KindPopState, true
	case 0x0E:
		return KindSetScissor, true
	case 0x0F:
		return KindSetStencil, true
	case 0x10:
		return KindBindTexture, true
	case 0x11:
		return KindSetRotor, true
	case 0x12:
		return KindSetProjection, true
	case 0x13:
		return KindSetState, true
	case 0x14:
		return KindBindRenderTarget, true
	case 0x15:
		return KindDrawIndexedInstanced, true
	default:
		return 0, false
	}
}

// wireUniformValue mirrors uniform.Value in a JSON-friendly shape (Value's
// real fields are unexported).
type wireUniformValue struct {
	Kind    uniform.Kind `json:"kind"`
	Floats  []float32    `json:"floats,omitempty"`
	Int     int32        `json:"int,omitempty"`
	Bool    bool         `json:"bool,omitempty"`
	Sampler int32        `json:"sampler,omitempty"`
}

func toWireValue(v uniform.Value) wireUniformValue {
	w := wireUniformValue{Kind: v.Kind}
	switch v.Kind {
	case uniform.KindInt:
		w.Int, _ = v.Int32()
	case uniform.KindBool:
		w.Bool, _ = v.Boolean()
	case uniform.KindSampler:
		w.Sampler, _ = v.TextureSlot()
	default:
		floats, _ := v.Floats()
		w.Floats = append([]float32(nil), floats...)
	}
	return w
}

func fromWireValue(w wireUniformValue) uniform.Value {
	switch w.Kind {
	case uniform.KindFloat:
		return uniform.Float(w.Floats[0])
	case uniform.KindVec2:
		return uniform.Vec2(w.Floats[0], w.Floats[1])
	case uniform.KindVec3:
		return uniform.Vec3(w.Floats[0], w.Floats[1], w.Floats[2])
	case uniform.KindVec4:
		return uniform.Vec4(w.Floats[0], w.Floats[1], w.Floats[2], w.Floats[3])
	case uniform.KindMat2:
		var m [4]float32
		copy(m[:], w.Floats)
		return uniform.Mat2(m)
	case uniform.KindMat3:
		var m [9]float32
		copy(m[:], w.Floats)
		return uniform.Mat3(m)
	case uniform.KindMat4:
		var m [16]float32
		copy(m[:], w.Floats)
		return uniform.Mat4(m)
	case uniform.KindInt:
		return uniform.Int(w.Int)
	case uniform.KindBool:
		return uniform.Bool(w.Bool)
	case uniform.KindSampler:
		return uniform.Sampler(w.Sampler)
	default:
		return uniform.Value{}
	}
}

type wireNamedUniform struct {
	Name  string           `json:"name"`
	Value wireUniformValue `json:"value"`
}

// wireCommand is the JSON-on-the-wire shape of one Command. Only the fields
// relevant to Type are populated; everything else is left at its zero value
// and omitted.
type wireCommand struct {
	Type      uint8     `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Clear        *ClearOptions      `json:"clear,omitempty"`
	State        *state.RenderState `json:"state,omitempty"`
	Rect         *Rect              `json:"rect,omitempty"`
	ShaderName   string             `json:"shaderName,omitempty"`
	TextureSlot  int                `json:"textureSlot,omitempty"`
	TextureName  string             `json:"textureName,omitempty"`
	VertexArray  string             `json:"vertexArray,omitempty"`
	IndexFormat  *IndexFormat       `json:"indexFormat,omitempty"`
	RenderTarget string             `json:"renderTarget,omitempty"`
	HasTarget    bool               `json:"hasTarget,omitempty"`

	UniformName  string             `json:"uniformName,omitempty"`
	UniformValue *wireUniformValue  `json:"uniformValue,omitempty"`
	Uniforms     []wireNamedUniform `json:"uniforms,omitempty"`

	Rotor      *[8]float32 `json:"rotor,omitempty"`
	Projection *Projection `json:"projection,omitempty"`

	VertexCount   int `json:"vertexCount,omitempty"`
	IndexCount    int `json:"indexCount,omitempty"`
	InstanceCount int `json:"instanceCount,omitempty"`
	FirstVertex   int `json:"firstVertex,omitempty"`
	FirstIndex    int `json:"firstIndex,omitempty"`
	Depth         float32 `json:"depth,omitempty"`
	HasDepth      bool    `json:"hasDepth,omitempty"`

	SortKey  int    `json:"sortKey,omitempty"`
	Priority int    `json:"priority,omitempty"`
	Label    string `json:"label,omitempty"`
}

func toWireCommand(c Command) (wireCommand, error) {
	typ, ok := wireType(c.Kind)
	if !ok {
		return wireCommand{}, rendererr.ErrUnserializableCommand
	}
	w := wireCommand{
		Type: typ, Timestamp: c.Timestamp, SortKey: c.SortKey, Priority: c.Priority, Label: c.Label,
		ShaderName: c.ShaderName, TextureSlot: c.TextureSlot, TextureName: c.TextureName,
		VertexArray: c.VertexArray, RenderTarget: c.RenderTarget, HasTarget: c.HasTarget,
		UniformName: c.UniformName, VertexCount: c.VertexCount, IndexCount: c.IndexCount,
		InstanceCount: c.InstanceCount, FirstVertex: c.FirstVertex, FirstIndex: c.FirstIndex,
		Depth: c.Depth, HasDepth: c.HasDepth,
	}
	switch c.Kind {
	case KindClear:
		clear := c.Clear
		w.Clear = &clear
	case KindSetState, KindSetBlendMode, KindSetDepthState, KindSetStencil:
		s := c.State
		w.State = &s
	case KindSetViewport, KindSetScissor:
		r := c.Rect
		w.Rect = &r
	case KindBindIndexBuffer:
		f := c.IndexFormat
		w.IndexFormat = &f
	case KindSetUniform:
		v := toWireValue(c.UniformValue)
		w.UniformValue = &v
	case KindSetUniforms:
		for _, nu := range c.Uniforms {
			w.Uniforms = append(w.Uniforms, wireNamedUniform{Name: nu.Name, Value: toWireValue(nu.Value)})
		}
	case KindSetRotor:
		r := c.Rotor
		w.Rotor = &r
	case KindSetProjection:
		p := c.Projection
		w.Projection = &p
	}
	return w, nil
}

func fromWireCommand(w wireCommand) (Command, error) {
	single := w.UniformValue != nil
	kind, ok := kindFromWireType(w.Type, single)
	if !ok {
		return Command{}, rendererr.ErrInvalidBuffer
	}
	c := Command{
		Kind: kind, Timestamp: w.Timestamp, SortKey: w.SortKey, Priority: w.Priority, Label: w.Label,
		ShaderName: w.ShaderName, TextureSlot: w.TextureSlot, TextureName: w.TextureName,
		VertexArray: w.VertexArray, RenderTarget: w.RenderTarget, HasTarget: w.HasTarget,
		UniformName: w.UniformName, VertexCount: w.VertexCount, IndexCount: w.IndexCount,
		InstanceCount: w.InstanceCount, FirstVertex: w.FirstVertex, FirstIndex: w.FirstIndex,
		Depth: w.Depth, HasDepth: w.HasDepth,
	}
	if w.Clear != nil {
		c.Clear = *w.Clear
	}
	if w.State != nil {
		c.State = *w.State
	}
	if w.Rect != nil {
		c.Rect = *w.Rect
	}
	if w.IndexFormat != nil {
		c.IndexFormat = *w.IndexFormat
		c.IndexFormatSet = true
	}
	if w.UniformValue != nil {
		c.UniformValue = fromWireValue(*w.UniformValue)
	}
	for _, nu := range w.Uniforms {
		c.Uniforms = append(c.Uniforms, NamedUniform{Name: nu.Name, Value: fromWireValue(nu.Value)})
	}
	if w.Rotor != nil {
		c.Rotor = *w.Rotor
	}
	if w.Projection != nil {
		c.Projection = *w.Projection
	}
	return c, nil
}

// wirePayload is the JSON document shape: {version, sealed, commands, stats}.
type wirePayload struct {
	Version  uint32        `json:"version"`
	Sealed   bool          `json:"sealed"`
	Commands []wireCommand `json:"commands"`
	Stats    Stats         `json:"stats"`
}

// ToJSON serializes the buffer's recorded commands, in submission order.
// Fails with ErrUnserializableCommand if any recorded command is Custom.
func (b *CommandBuffer) ToJSON() ([]byte, error) {
	payload := wirePayload{Version: wireFormatVersion, Sealed: b.sealed, Stats: b.stats}
	for _, c := range b.commands {
		wc, err := toWireCommand(c)
		if err != nil {
			return nil, err
		}
		payload.Commands = append(payload.Commands, wc)
	}
	return json.Marshal(payload)
}

// ToBinary serializes the buffer to the normative VCB1 binary encoding:
// magic "VCB1" + big-endian u32 version + big-endian u32 payload length +
// the UTF-8 JSON payload from ToJSON.
func (b *CommandBuffer) ToBinary() ([]byte, error) {
	payload, err := b.ToJSON()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 12+len(payload))
	copy(out[0:4], wireMagic)
	binary.BigEndian.PutUint32(out[4:8], wireFormatVersion)
	binary.BigEndian.PutUint32(out[8:12], uint32(len(payload)))
	copy(out[12:], payload)
	return out, nil
}

// FromJSON replaces the buffer's contents with commands decoded from a
// ToJSON payload. The buffer's own recording state (sealed, sort mode) is
// taken from the payload where applicable.
func (b *CommandBuffer) FromJSON(data []byte) error {
	var payload wirePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return rendererr.ErrInvalidBuffer
	}

	commands := make([]Command, 0, len(payload.Commands))
	for _, wc := range payload.Commands {
		c, err := fromWireCommand(wc)
		if err != nil {
			return err
		}
		commands = append(commands, c)
	}

	b.commands = commands
	b.sealed = payload.Sealed
	b.stats = payload.Stats
	b.sorted = false
	b.version++
	return nil
}

// FromBinary decodes a VCB1-encoded buffer. Rejects unknown magic or a
// truncated payload with ErrInvalidBuffer.
func FromBinary(data []byte) (*CommandBuffer, error) {
	if len(data) < 12 || string(data[0:4]) != wireMagic {
		return nil, rendererr.ErrInvalidBuffer
	}
	length := binary.BigEndian.Uint32(data[8:12])
	if uint32(len(data)-12) < length {
		return nil, rendererr.ErrInvalidBuffer
	}

	b := NewCommandBuffer()
	if err := b.FromJSON(data[12 : 12+length]); err != nil {
		return nil, err
	}
	return b, nil
}
