package command

import (
	"errors"
	"testing"

	"github.com/vib3/render-core/render/rendererr"
	"github.com/vib3/render-core/render/state"
	"github.com/vib3/render-core/render/uniform"
)

func TestRecordingBumpsVersionAndStats(t *testing.T) {
	b := NewCommandBuffer()
	v0 := b.Version()

	if err := b.Clear(ClearOptions{Color: true}); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if b.Version() == v0 {
		t.Fatalf("version must bump on a mutation")
	}
	if got := b.Stats().CommandCount; got != 1 {
		t.Fatalf("CommandCount = %d, want 1", got)
	}
}

func TestSealBlocksFurtherRecording(t *testing.T) {
	b := NewCommandBuffer()
	b.Seal()

	err := b.Clear(ClearOptions{})
	if !errors.Is(err, rendererr.ErrBufferSealed) {
		t.Fatalf("recording on a sealed buffer must fail with ErrBufferSealed, got %v", err)
	}
}

func TestResetReopensASealedBuffer(t *testing.T) {
	b := NewCommandBuffer()
	b.Clear(ClearOptions{})
	b.Seal()
	b.Reset()

	if b.Sealed() {
		t.Fatalf("Reset must unseal the buffer")
	}
	if err := b.Clear(ClearOptions{}); err != nil {
		t.Fatalf("recording after Reset should succeed, got %v", err)
	}
	if got := b.Stats().CommandCount; got != 1 {
		t.Fatalf("Reset must clear stats, CommandCount = %d, want 1", got)
	}
}

func TestSortStateOrdersByPriorityThenSortKey(t *testing.T) {
	b := NewCommandBuffer().SetSortMode(SortState)
	b.BindShader("a")               // priority 800
	b.Clear(ClearOptions{})         // priority 1000
	b.SetUniform("u", uniform.Float(1)) // priority 500

	b.Execute(&recordingExecutor{})
	kinds := kindsOf(b.Commands())
	want := []Kind{KindClear, KindBindShader, KindSetUniform}
	assertKindOrder(t, kinds, want)
}

func TestSortFrontToBackOrdersDrawsByAscendingDepth(t *testing.T) {
	b := NewCommandBuffer().SetSortMode(SortFrontToBack)
	b.Draw(3, 0, 5, true)
	b.BindShader("a")
	b.Draw(3, 0, 1, true)
	b.Draw(3, 0, 3, true)

	b.Execute(&recordingExecutor{})
	cmds := b.Commands()
	if cmds[0].Kind != KindBindShader {
		t.Fatalf("non-draw commands must sort before draws, got %v first", cmds[0].Kind)
	}
	var depths []float32
	for _, c := range cmds {
		if isDraw(c.Kind) {
			depths = append(depths, c.Depth)
		}
	}
	if !(depths[0] <= depths[1] && depths[1] <= depths[2]) {
		t.Fatalf("draws not ascending by depth: %v", depths)
	}
}

func TestSortIsIdempotentUntilNextAdd(t *testing.T) {
	b := NewCommandBuffer().SetSortMode(SortState)
	b.Clear(ClearOptions{})
	b.BindShader("x")

	b.sortCommands()
	firstOrder := append([]Command(nil), b.Commands()...)
	b.sortCommands() // should be a no-op, sorted bit already set
	if len(b.Commands()) != len(firstOrder) {
		t.Fatalf("idempotent sort changed command count")
	}
}

func TestExecuteDispatchesToExecutor(t *testing.T) {
	b := NewCommandBuffer()
	b.Clear(ClearOptions{Color: true})
	b.BindShader("holographic")
	b.Draw(6, 0, 0, false)

	exec := &recordingExecutor{}
	b.Execute(exec)

	if !exec.cleared || exec.shader != "holographic" || exec.vertexCount != 6 {
		t.Fatalf("executor did not receive expected calls: %+v", exec)
	}
}

func TestToBinaryRoundTripsThroughFromBinary(t *testing.T) {
	b := NewCommandBuffer()
	b.Clear(ClearOptions{Color: true, ColorValue: [4]float32{0, 0, 0, 1}})
	b.SetState(state.Opaque())
	b.SetUniform("u_hue", uniform.Float(180))
	b.SetUniforms([]NamedUniform{{Name: "u_chaos", Value: uniform.Float(0.5)}})
	b.Draw(6, 0, 0, false)
	b.Seal()

	raw, err := b.ToBinary()
	if err != nil {
		t.Fatalf("ToBinary: %v", err)
	}
	if string(raw[0:4]) != "VCB1" {
		t.Fatalf("magic = %q, want VCB1", raw[0:4])
	}

	decoded, err := FromBinary(raw)
	if err != nil {
		t.Fatalf("FromBinary: %v", err)
	}
	if len(decoded.Commands()) != len(b.Commands()) {
		t.Fatalf("decoded command count = %d, want %d", len(decoded.Commands()), len(b.Commands()))
	}
	if !decoded.Sealed() {
		t.Fatalf("decoded buffer must preserve sealed=true")
	}

	got := decoded.Commands()
	if got[0].Kind != KindClear || got[0].Clear.ColorValue != [4]float32{0, 0, 0, 1} {
		t.Fatalf("clear command did not round-trip: %+v", got[0])
	}
	hueVal, ok := got[2].UniformValue.Float32()
	if got[2].Kind != KindSetUniform || !ok || hueVal != 180 {
		t.Fatalf("uniform command did not round-trip: %+v", got[2])
	}
}

func TestFromBinaryRejectsBadMagic(t *testing.T) {
	_, err := FromBinary([]byte("XXXX0000000000"))
	if !errors.Is(err, rendererr.ErrInvalidBuffer) {
		t.Fatalf("expected ErrInvalidBuffer, got %v", err)
	}
}

func TestFromBinaryRejectsTruncatedPayload(t *testing.T) {
	b := NewCommandBuffer()
	b.Clear(ClearOptions{})
	raw, _ := b.ToBinary()

	_, err := FromBinary(raw[:len(raw)-2])
	if !errors.Is(err, rendererr.ErrInvalidBuffer) {
		t.Fatalf("expected ErrInvalidBuffer for truncated payload, got %v", err)
	}
}

func TestToJSONRejectsCustomCommand(t *testing.T) {
	b := NewCommandBuffer()
	b.RecordCustom("noop", func(any) {})

	if _, err := b.ToJSON(); !errors.Is(err, rendererr.ErrUnserializableCommand) {
		t.Fatalf("expected ErrUnserializableCommand, got %v", err)
	}
}

func TestStatsTrackStateChangesAndTriangles(t *testing.T) {
	b := NewCommandBuffer()
	b.BindShader("a")
	b.SetState(state.Opaque())
	b.Draw(6, 0, 0, false)
	b.DrawIndexed(12, 0, 0, false)

	stats := b.Stats()
	if stats.StateChanges != 2 {
		t.Fatalf("StateChanges = %d, want 2", stats.StateChanges)
	}
	wantTriangles := 6/3 + 12/3
	if stats.Triangles != wantTriangles {
		t.Fatalf("Triangles = %d, want %d", stats.Triangles, wantTriangles)
	}
}

func TestCommandBufferPoolReuse(t *testing.T) {
	pool := NewCommandBufferPool()
	b1 := pool.Acquire()
	b1.Clear(ClearOptions{})
	pool.Release(b1)

	if pool.FreeCount() != 1 || pool.InUseCount() != 0 {
		t.Fatalf("unexpected pool state after release: free=%d inUse=%d", pool.FreeCount(), pool.InUseCount())
	}

	b2 := pool.Acquire()
	if b2 != b1 {
		t.Fatalf("Acquire should reuse the released buffer")
	}
	if len(b2.Commands()) != 0 {
		t.Fatalf("reused buffer must be reset")
	}
}

func TestCommandBufferPoolReleaseAll(t *testing.T) {
	pool := NewCommandBufferPool()
	pool.Acquire()
	pool.Acquire()
	pool.ReleaseAll()

	if pool.InUseCount() != 0 || pool.FreeCount() != 2 {
		t.Fatalf("ReleaseAll should empty in-use and fill free list: free=%d inUse=%d", pool.FreeCount(), pool.InUseCount())
	}
}

// recordingExecutor is a minimal Executor that records what it was called
// with, for assertions without a real GPU backend.
type recordingExecutor struct {
	cleared     bool
	shader      string
	vertexCount int
}

func (e *recordingExecutor) Clear(ClearOptions)                       { e.cleared = true }
func (e *recordingExecutor) SetState(state.RenderState)               {}
func (e *recordingExecutor) SetViewport(Rect)                         {}
func (e *recordingExecutor) SetScissor(Rect)                          {}
func (e *recordingExecutor) CreateBuffer(desc BufferDescriptor) (Buffer, error) {
	return Buffer{Handle: "recorded", Size: desc.Size, Usage: desc.Usage}, nil
}
func (e *recordingExecutor) UpdateBuffer(buf Buffer, data []byte, offset int) error { return nil }
func (e *recordingExecutor) DeleteBuffer(buf Buffer) error                         { return nil }
func (e *recordingExecutor) BindShader(name string)                   { e.shader = name }
func (e *recordingExecutor) BindTexture(slot int, name string)        {}
func (e *recordingExecutor) BindVertexArray(name string)              {}
func (e *recordingExecutor) BindIndexBuffer(format IndexFormat)       {}
func (e *recordingExecutor) BindRenderTarget(name string, has bool)   {}
func (e *recordingExecutor) SetUniform(name string, v any)            {}
func (e *recordingExecutor) SetUniforms(values []NamedUniform)        {}
func (e *recordingExecutor) SetRotor(rotor [8]float32)                {}
func (e *recordingExecutor) SetProjection(p Projection)               {}
func (e *recordingExecutor) Draw(vertexCount, firstVertex int)        { e.vertexCount = vertexCount }
func (e *recordingExecutor) DrawIndexed(indexCount, firstIndex int)   {}
func (e *recordingExecutor) DrawInstanced(vertexCount, firstVertex, instanceCount int)        {}
func (e *recordingExecutor) DrawIndexedInstanced(indexCount, firstIndex, instanceCount int)   {}
func (e *recordingExecutor) SetBlendMode(b state.BlendState)          {}
func (e *recordingExecutor) SetDepthState(d state.DepthState)         {}
func (e *recordingExecutor) SetStencil(s state.StencilState)          {}
func (e *recordingExecutor) PushState()                               {}
func (e *recordingExecutor) PopState()                                {}

func kindsOf(cmds []Command) []Kind {
	out := make([]Kind, len(cmds))
	for i, c := range cmds {
		out[i] = c.Kind
	}
	return out
}

func assertKindOrder(t *testing.T, got, want []Kind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("kind count = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}
