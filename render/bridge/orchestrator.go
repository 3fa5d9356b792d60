package bridge

import (
	"fmt"
	"reflect"

	"github.com/vib3/render-core/render/backend"
	"github.com/vib3/render-core/render/command"
	"github.com/vib3/render-core/render/graph"
	"github.com/vib3/render-core/render/rendererr"
	"github.com/vib3/render-core/render/uniform"
)

// MultiCanvasOrchestrator drives up to five Bridges — one per graph.Layer —
// through one frame's worth of layer resolution and drawing (spec §4.E).
// It owns a *graph.Graph for the keystone→layer derivation but not the
// bridges' backends; callers construct each Bridge against whichever
// concrete backend that layer's canvas selected.
type MultiCanvasOrchestrator struct {
	g       *graph.Graph
	bridges map[graph.Layer]*Bridge

	keystone  graph.Params
	overrides map[graph.Layer]graph.Params

	resolutionX, resolutionY float32
	clockSeconds             float32
}

// NewMultiCanvasOrchestrator constructs an orchestrator over g. A nil g gets
// a fresh graph.NewGraph() with content as keystone and every other layer an
// identity follower.
func NewMultiCanvasOrchestrator(g *graph.Graph) *MultiCanvasOrchestrator {
	if g == nil {
		g = graph.NewGraph()
	}
	return &MultiCanvasOrchestrator{
		g:         g,
		bridges:   make(map[graph.Layer]*Bridge),
		overrides: make(map[graph.Layer]graph.Params),
	}
}

// Graph exposes the underlying layer relationship graph for configuration
// (SetKeystone, SetRelationship, SetLayerShader, profile loading via
// render/preset).
func (o *MultiCanvasOrchestrator) Graph() *graph.Graph { return o.g }

// AddBridge assigns the Bridge that renders layer. A second call for the
// same layer replaces the first.
func (o *MultiCanvasOrchestrator) AddBridge(layer graph.Layer, b *Bridge) error {
	if !isValidLayer(layer) {
		return fmt.Errorf("%w: %v", rendererr.ErrLayerUnknown, layer)
	}
	o.bridges[layer] = b
	return nil
}

// Bridge returns the bridge assigned to layer, if any.
func (o *MultiCanvasOrchestrator) Bridge(layer graph.Layer) (*Bridge, bool) {
	b, ok := o.bridges[layer]
	return b, ok
}

// SetKeystoneUniforms replaces the keystone parameter set every layer
// resolves from this frame. SetSharedUniforms is an alias for the same
// call, matching spec §4.E's either-name usage.
func (o *MultiCanvasOrchestrator) SetKeystoneUniforms(p graph.Params) { o.keystone = p }

// SetSharedUniforms is an alias for SetKeystoneUniforms.
func (o *MultiCanvasOrchestrator) SetSharedUniforms(p graph.Params) { o.SetKeystoneUniforms(p) }

// SetResolution sets the viewport resolution carried into the packed
// uniform block's u_resolution channel.
func (o *MultiCanvasOrchestrator) SetResolution(width, height float32) {
	o.resolutionX, o.resolutionY = width, height
}

// SetLayerUniforms records an override for layer: every non-zero field of p
// replaces the graph-resolved value for that layer, while zero fields keep
// the resolved value. The override applies to every RenderAll call until
// ClearLayerUniforms removes it or another SetLayerUniforms replaces it.
// Used for per-canvas CPU-side tweaks the relationship graph itself does
// not model (e.g. a layer pinned to a fixed opacity regardless of preset).
func (o *MultiCanvasOrchestrator) SetLayerUniforms(layer graph.Layer, p graph.Params) {
	o.overrides[layer] = p
}

// ClearLayerUniforms removes layer's override.
func (o *MultiCanvasOrchestrator) ClearLayerUniforms(layer graph.Layer) {
	delete(o.overrides, layer)
}

// RenderAll resolves and draws every assigned layer, in fixed z-order
// (graph.Layers), then presents each distinct backend exactly once. Per
// spec §8 property 9, a layer with no bridge assigned is skipped rather
// than erroring — not every deployment renders all five layers.
// frameTimeMs is the time elapsed since the previous frame; it advances the
// orchestrator's clock, which feeds both u_time and graph resolution.
func (o *MultiCanvasOrchestrator) RenderAll(frameTimeMs float64, viewport command.Rect, clear command.ClearOptions) error {
	o.clockSeconds += float32(frameTimeMs) / 1000
	presented := make(map[backend.Backend]*Bridge, len(o.bridges))

	for _, layer := range graph.Layers {
		b, ok := o.bridges[layer]
		if !ok {
			continue
		}

		resolved := o.g.Resolve(o.keystone, layer, float64(o.clockSeconds)*1000)
		if override, ok := o.overrides[layer]; ok {
			dst, src := reflect.ValueOf(&resolved).Elem(), reflect.ValueOf(override)
			for i := 0; i < src.NumField(); i++ {
				if f := src.Field(i); !f.IsZero() {
					dst.Field(i).Set(f)
				}
			}
		}

		if name, ok := o.g.GetLayerShader(layer); ok {
			b.SetShader(name)
		}

		shared := toShared(o.keystone, o.resolutionX, o.resolutionY, o.clockSeconds)
		layerUniforms := toLayer(resolved)
		block := uniform.Pack(shared, layerUniforms)
		named := block.NamedValues()

		values := make([]command.NamedUniform, len(named))
		for i, nv := range named {
			values[i] = command.NamedUniform{Name: nv.Name, Value: uniform.Float(nv.Value)}
		}

		if err := b.Render(viewport, clear, values); err != nil {
			return fmt.Errorf("render layer %s: %w", layer, err)
		}
		presented[b.Backend()] = b
	}

	for _, b := range presented {
		b.Present()
	}
	return nil
}

func isValidLayer(layer graph.Layer) bool {
	for _, l := range graph.Layers {
		if l == layer {
			return true
		}
	}
	return false
}

// toShared converts the keystone parameter set plus viewport resolution
// into the shared uniform channels every layer's packed block carries
// unchanged (spec §6: the keystone-derived scalars are never per-layer).
func toShared(p graph.Params, resX, resY, timeSeconds float32) uniform.Shared {
	return uniform.Shared{
		TimeSeconds:    timeSeconds,
		ResolutionX:    resX,
		ResolutionY:    resY,
		Geometry:       float32(p.GeometryType),
		Rot4dXY:        float32(p.Rot4dXY),
		Rot4dXZ:        float32(p.Rot4dXZ),
		Rot4dYZ:        float32(p.Rot4dYZ),
		Rot4dXW:        float32(p.Rot4dXW),
		Rot4dYW:        float32(p.Rot4dYW),
		Rot4dZW:        float32(p.Rot4dZW),
		Dimension:      float32(p.Dimension),
		GridDensity:    float32(p.GridDensity),
		MorphFactor:    float32(p.MorphFactor),
		Chaos:          float32(p.Chaos),
		Speed:          float32(p.Speed),
		Hue:            float32(p.Hue),
		Intensity:      float32(p.Intensity),
		Saturation:     float32(p.Saturation),
		MouseIntensity: float32(p.MouseIntensity),
		ClickIntensity: float32(p.ClickIntensity),
		Bass:           float32(p.Bass),
		Mid:            float32(p.Mid),
		High:           float32(p.High),
	}
}

// toLayer converts a resolved per-layer parameter set into the derived-only
// uniform channels a follower layer contributes to the packed block.
// LayerColorR/G/B are left at their zero value, per SPEC_FULL.md's Open
// Question decision that per-layer color is a shader-side derivation from
// hue/saturation rather than a graph-side channel.
func toLayer(p graph.Params) uniform.Layer {
	return uniform.Layer{
		Scale:       float32(p.LayerScale),
		Opacity:     float32(p.LayerOpacity),
		DensityMult: float32(p.DensityMult),
		SpeedMult:   float32(p.SpeedMult),
	}
}
