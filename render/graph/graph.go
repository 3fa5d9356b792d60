package graph

import (
	"fmt"

	"github.com/vib3/render-core/render/rendererr"
)

// Graph is a mapping {layer → relationship} together with a designated
// keystone layer and an optional per-layer shader assignment. The keystone
// has no relationship; its output equals its input. Cycles are impossible
// by construction: the keystone is the single root and every other layer is
// a leaf that reads only the keystone's params.
type Graph struct {
	keystone        Layer
	relationships   map[Layer]*Relationship
	shaderByLayer   map[Layer]string
	activeProfile   string
}

// NewGraph constructs a Graph with content as the default keystone and no
// relationships (every non-keystone layer behaves as identity).
func NewGraph() *Graph {
	return &Graph{
		keystone:      LayerContent,
		relationships: make(map[Layer]*Relationship),
		shaderByLayer: make(map[Layer]string),
	}
}

// Keystone returns the current keystone layer.
func (g *Graph) Keystone() Layer { return g.keystone }

// SetKeystone changes the keystone layer.
func (g *Graph) SetKeystone(layer Layer) error {
	if !isValidLayer(layer) {
		return fmt.Errorf("%w: %v", rendererr.ErrLayerUnknown, layer)
	}
	g.keystone = layer
	return nil
}

// SetRelationship assigns a relationship to a non-keystone layer, always
// installing a fresh Relationship for config. ClearRelationship removes a
// layer's relationship (demoting it to identity).
func (g *Graph) SetRelationship(layer Layer, config Config) error {
	if !isValidLayer(layer) {
		return fmt.Errorf("%w: %v", rendererr.ErrLayerUnknown, layer)
	}
	g.relationships[layer] = NewRelationship(config)
	return nil
}

// ClearRelationship removes layer's relationship, demoting it to identity.
func (g *Graph) ClearRelationship(layer Layer) {
	delete(g.relationships, layer)
}

// SetLayerShader assigns the shader a layer renders with.
func (g *Graph) SetLayerShader(layer Layer, shaderName string) error {
	if !isValidLayer(layer) {
		return fmt.Errorf("%w: %v", rendererr.ErrLayerUnknown, layer)
	}
	g.shaderByLayer[layer] = shaderName
	return nil
}

// GetLayerShader returns the shader assigned to layer, if any.
func (g *Graph) GetLayerShader(layer Layer) (string, bool) {
	name, ok := g.shaderByLayer[layer]
	return name, ok
}

// ActiveProfile returns the active profile name metadata (informational
// only — it does not affect resolution).
func (g *Graph) ActiveProfile() string { return g.activeProfile }

// Resolve computes layer's parameter set from the keystone input at
// frameTimeMs. The keystone layer always returns its input unchanged.
func (g *Graph) Resolve(keystone Params, layer Layer, frameTimeMs float64) Params {
	if layer == g.keystone {
		return keystone
	}
	rel, ok := g.relationships[layer]
	if !ok {
		out := keystone
		out.LayerOpacity = 1.0
		return out
	}
	return rel.Resolve(keystone, frameTimeMs)
}

func isValidLayer(layer Layer) bool {
	for _, l := range Layers {
		if l == layer {
			return true
		}
	}
	return false
}

// ExportedRelationship is the serializable shape of one layer's
// relationship assignment. Custom relationships (a host closure) are not
// serializable and are omitted from export.
type ExportedRelationship struct {
	Preset string `json:"preset"`
	Config Config `json:"config"`
}

// ExportedGraph is the serializable shape of a whole graph.
type ExportedGraph struct {
	Keystone      string                          `json:"keystone"`
	Relationships map[string]ExportedRelationship `json:"relationships"`
	ShaderByLayer map[string]string               `json:"shaderByLayer,omitempty"`
}

// ExportConfig serializes the graph's current configuration. Relationships
// with a PresetCustom config are skipped (not serializable).
func (g *Graph) ExportConfig() ExportedGraph {
	out := ExportedGraph{
		Keystone:      g.keystone.String(),
		Relationships: make(map[string]ExportedRelationship),
		ShaderByLayer: make(map[string]string),
	}
	for layer, rel := range g.relationships {
		if rel.Config().Kind == PresetCustom {
			continue
		}
		out.Relationships[layer.String()] = ExportedRelationship{Preset: rel.Config().Kind.String(), Config: rel.Config()}
	}
	for layer, shader := range g.shaderByLayer {
		out.ShaderByLayer[layer.String()] = shader
	}
	return out
}

// ImportConfig replaces the graph's configuration from an exported shape.
// Per-layer transient relationship state is always reset (a fresh
// Relationship is constructed for every entry) — a profile load never
// carries forward a layer's prior velocity/lag state.
func (g *Graph) ImportConfig(cfg ExportedGraph) error {
	keystone, ok := ParseLayer(cfg.Keystone)
	if !ok {
		return fmt.Errorf("%w: keystone %q", rendererr.ErrLayerUnknown, cfg.Keystone)
	}

	relationships := make(map[Layer]*Relationship, len(cfg.Relationships))
	for name, er := range cfg.Relationships {
		layer, ok := ParseLayer(name)
		if !ok {
			return fmt.Errorf("%w: %q", rendererr.ErrLayerUnknown, name)
		}
		relationships[layer] = NewRelationship(er.Config)
	}
	shaders := make(map[Layer]string, len(cfg.ShaderByLayer))
	for name, shader := range cfg.ShaderByLayer {
		layer, ok := ParseLayer(name)
		if !ok {
			return fmt.Errorf("%w: %q", rendererr.ErrLayerUnknown, name)
		}
		shaders[layer] = shader
	}

	g.keystone = keystone
	g.relationships = relationships
	g.shaderByLayer = shaders
	return nil
}
