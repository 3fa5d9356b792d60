package bridge

import (
	"testing"

	"github.com/vib3/render-core/render/backend"
	"github.com/vib3/render-core/render/command"
	"github.com/vib3/render-core/render/graph"
	"github.com/vib3/render-core/render/state"
)

// recordingBackend is a minimal backend.Backend that records what it was
// called with, standing in for a real GPU backend in tests that exercise
// Bridge/MultiCanvasOrchestrator sequencing rather than GPU state.
type recordingBackend struct {
	shaderCalls  []string
	drawCount    int
	presentCount int
	disposed     bool
	uniformCalls [][]command.NamedUniform
}

func (b *recordingBackend) Kind() backend.Kind                        { return backend.KindWebGL2 }
func (b *recordingBackend) CompileShader(src backend.ShaderSource) bool { return true }
func (b *recordingBackend) CompileError(name string) error            { return nil }
func (b *recordingBackend) Resize(width, height int)                  {}
func (b *recordingBackend) Present()                                  { b.presentCount++ }
func (b *recordingBackend) Dispose()                                  { b.disposed = true }
func (b *recordingBackend) GetStats() backend.Stats                   { return backend.Stats{} }
func (b *recordingBackend) ResetStats()                               {}

func (b *recordingBackend) Clear(command.ClearOptions)                       {}
func (b *recordingBackend) SetState(state.RenderState)                       {}
func (b *recordingBackend) SetViewport(command.Rect)                         {}
func (b *recordingBackend) SetScissor(command.Rect)                          {}
func (b *recordingBackend) CreateBuffer(desc command.BufferDescriptor) (command.Buffer, error) {
	return command.Buffer{Handle: "recorded", Size: desc.Size, Usage: desc.Usage}, nil
}
func (b *recordingBackend) UpdateBuffer(buf command.Buffer, data []byte, offset int) error { return nil }
func (b *recordingBackend) DeleteBuffer(buf command.Buffer) error                          { return nil }
func (b *recordingBackend) RegisterTexture(desc backend.TextureDescriptor) bool            { return true }
func (b *recordingBackend) TextureError(name string) error                                 { return nil }
func (b *recordingBackend) RegisterRenderTarget(desc backend.RenderTargetDescriptor) bool   { return true }
func (b *recordingBackend) RenderTargetError(name string) error                            { return nil }
func (b *recordingBackend) BindShader(name string)                           { b.shaderCalls = append(b.shaderCalls, name) }
func (b *recordingBackend) BindTexture(slot int, name string)                {}
func (b *recordingBackend) BindVertexArray(name string)                      {}
func (b *recordingBackend) BindIndexBuffer(format command.IndexFormat)       {}
func (b *recordingBackend) BindRenderTarget(name string, has bool)           {}
func (b *recordingBackend) SetUniform(name string, v any)                    {}
func (b *recordingBackend) SetUniforms(values []command.NamedUniform)        { b.uniformCalls = append(b.uniformCalls, values) }
func (b *recordingBackend) SetRotor(rotor [8]float32)                        {}
func (b *recordingBackend) SetProjection(p command.Projection)               {}
func (b *recordingBackend) Draw(vertexCount, firstVertex int)                { b.drawCount++ }
func (b *recordingBackend) DrawIndexed(indexCount, firstIndex int)           {}
func (b *recordingBackend) DrawInstanced(vertexCount, firstVertex, instanceCount int)      {}
func (b *recordingBackend) DrawIndexedInstanced(indexCount, firstIndex, instanceCount int) {}
func (b *recordingBackend) SetBlendMode(bl state.BlendState)                 {}
func (b *recordingBackend) SetDepthState(d state.DepthState)                 {}
func (b *recordingBackend) SetStencil(s state.StencilState)                  {}
func (b *recordingBackend) PushState()                                       {}
func (b *recordingBackend) PopState()                                        {}

var _ backend.Backend = &recordingBackend{}

func TestBridgeRenderDrawsTheFullscreenQuad(t *testing.T) {
	be := &recordingBackend{}
	b := NewBridge(be)
	b.SetShader("holographic")

	err := b.Render(command.Rect{Width: 800, Height: 600}, command.ClearOptions{Color: true}, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if be.drawCount != 1 {
		t.Fatalf("drawCount = %d, want 1", be.drawCount)
	}
	if len(be.shaderCalls) != 1 || be.shaderCalls[0] != "holographic" {
		t.Fatalf("shaderCalls = %v, want [holographic]", be.shaderCalls)
	}
}

func TestRenderAllVisitsEveryAssignedLayerInZOrder(t *testing.T) {
	be := &recordingBackend{}
	o := NewMultiCanvasOrchestrator(nil)

	var order []graph.Layer
	for _, layer := range graph.Layers {
		layer := layer
		b := NewBridge(be)
		_ = o.AddBridge(layer, b)
		_ = o.Graph().SetLayerShader(layer, layer.String())
		order = append(order, layer)
	}
	o.SetKeystoneUniforms(graph.Params{Hue: 200, Saturation: 0.5, Speed: 1, Dimension: 3.5, GridDensity: 3})

	if err := o.RenderAll(16.7, command.Rect{Width: 100, Height: 100}, command.ClearOptions{Color: true}); err != nil {
		t.Fatalf("RenderAll: %v", err)
	}

	if be.drawCount != len(graph.Layers) {
		t.Fatalf("drawCount = %d, want %d (one per layer)", be.drawCount, len(graph.Layers))
	}
	// Present is deduplicated per distinct backend, not called once per layer.
	if be.presentCount != 1 {
		t.Fatalf("presentCount = %d, want 1 (shared backend presented once)", be.presentCount)
	}
	for i, layer := range order {
		if i >= len(be.shaderCalls) || be.shaderCalls[i] != layer.String() {
			t.Fatalf("shaderCalls = %v, want one per layer in z-order %v", be.shaderCalls, order)
		}
	}
}

func TestRenderAllSkipsLayersWithNoBridge(t *testing.T) {
	be := &recordingBackend{}
	o := NewMultiCanvasOrchestrator(nil)
	_ = o.AddBridge(graph.LayerContent, NewBridge(be))

	if err := o.RenderAll(16.7, command.Rect{Width: 100, Height: 100}, command.ClearOptions{}); err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	if be.drawCount != 1 {
		t.Fatalf("drawCount = %d, want 1 (only the assigned layer draws)", be.drawCount)
	}
}

func TestKeystoneLayerResolvesToKeystoneInput(t *testing.T) {
	be := &recordingBackend{}
	o := NewMultiCanvasOrchestrator(nil) // default keystone is LayerContent
	_ = o.AddBridge(graph.LayerContent, NewBridge(be))
	o.SetKeystoneUniforms(graph.Params{Hue: 42, Saturation: 0.5, Speed: 1, Dimension: 3.5, GridDensity: 3})

	if err := o.RenderAll(0, command.Rect{}, command.ClearOptions{}); err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	if len(be.uniformCalls) != 1 {
		t.Fatalf("expected exactly one SetUniforms call, got %d", len(be.uniformCalls))
	}
	found := false
	for _, nv := range be.uniformCalls[0] {
		if nv.Name == "u_hue" {
			if v, _ := nv.Value.Float32(); v != 42 {
				t.Fatalf("u_hue = %v, want 42", v)
			}
			found = true
		}
	}
	if !found {
		t.Fatalf("u_hue not present in uploaded uniforms")
	}
}

func TestLayerOverrideWinsOverGraphResolution(t *testing.T) {
	be := &recordingBackend{}
	o := NewMultiCanvasOrchestrator(nil)
	_ = o.AddBridge(graph.LayerShadow, NewBridge(be))
	o.SetKeystoneUniforms(graph.Params{Hue: 10, Speed: 1, Dimension: 3.5, GridDensity: 3})
	o.SetLayerUniforms(graph.LayerShadow, graph.Params{LayerOpacity: 0.25})

	if err := o.RenderAll(0, command.Rect{}, command.ClearOptions{}); err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	for _, nv := range be.uniformCalls[0] {
		if nv.Name == "u_layerOpacity" {
			if v, _ := nv.Value.Float32(); v != 0.25 {
				t.Fatalf("u_layerOpacity = %v, want 0.25 (override)", v)
			}
			return
		}
	}
	t.Fatalf("u_layerOpacity not present in uploaded uniforms")
}
