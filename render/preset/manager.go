package preset

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vib3/render-core/render/graph"
	"github.com/vib3/render-core/render/rendererr"
)

// Metadata is the optional, caller-supplied description attached to a saved
// preset.
type Metadata struct {
	Description string   `json:"description,omitempty"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// Preset is one saved graph configuration plus its metadata.
type Preset struct {
	Name     string              `json:"name"`
	Config   graph.ExportedGraph `json:"config"`
	Metadata Metadata            `json:"metadata"`
}

// Library is the persisted preset library document, per spec §6's JSON
// shape.
type Library struct {
	Version    string             `json:"version"`
	Type       string             `json:"type"`
	ExportedAt string             `json:"exportedAt"`
	Count      int                `json:"count"`
	Presets    map[string]Preset  `json:"presets"`
}

const defaultStoreKey = "vib3_layer_presets"

// Clock abstracts time.Now so manager construction and tests can supply a
// deterministic clock; defaults to time.Now.
type Clock func() time.Time

// Manager is the preset manager: it borrows a Graph (never owns it) and
// exclusively owns the Store handle it was constructed with.
type Manager struct {
	graph    *graph.Graph
	store    Store
	storeKey string
	now      Clock
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithStoreKey overrides the key the library is persisted under. Defaults
// to "vib3_layer_presets".
func WithStoreKey(key string) Option {
	return func(m *Manager) { m.storeKey = key }
}

// WithClock overrides the manager's time source (for deterministic tests).
func WithClock(clock Clock) Option {
	return func(m *Manager) { m.now = clock }
}

// NewManager constructs a Manager bound to graph g and persisted through
// store.
func NewManager(g *graph.Graph, store Store, opts ...Option) *Manager {
	m := &Manager{graph: g, store: store, storeKey: defaultStoreKey, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) loadLibrary() Library {
	lib := Library{Version: "1.0", Type: "vib3_layer_presets", Presets: make(map[string]Preset)}
	raw, ok := m.store.GetItem(m.storeKey)
	if !ok || raw == "" {
		return lib
	}
	var stored Library
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return lib
	}
	if stored.Presets == nil {
		stored.Presets = make(map[string]Preset)
	}
	return stored
}

func (m *Manager) saveLibrary(lib Library) {
	lib.ExportedAt = m.now().UTC().Format(time.RFC3339)
	lib.Count = len(lib.Presets)
	raw, err := json.Marshal(lib)
	if err != nil {
		return
	}
	m.store.SetItem(m.storeKey, string(raw))
}

// Save persists the graph's current configuration under name. Reserved
// built-in profile names are rejected with ErrPresetConflict.
func (m *Manager) Save(name string, metadata Metadata) error {
	if graph.IsBuiltInProfile(name) {
		return fmt.Errorf("%w: %q", rendererr.ErrPresetConflict, name)
	}
	lib := m.loadLibrary()
	now := m.now().UTC().Format(time.RFC3339)
	metadata.CreatedAt = now
	metadata.UpdatedAt = now
	if existing, ok := lib.Presets[name]; ok {
		metadata.CreatedAt = existing.Metadata.CreatedAt
	}
	lib.Presets[name] = Preset{Name: name, Config: m.graph.ExportConfig(), Metadata: metadata}
	m.saveLibrary(lib)
	return nil
}

// Load applies a saved preset's configuration onto the bound graph.
// Returns false if the name is neither a saved preset nor a built-in
// profile.
func (m *Manager) Load(name string) bool {
	if graph.IsBuiltInProfile(name) {
		return m.graph.LoadProfile(name)
	}
	lib := m.loadLibrary()
	p, ok := lib.Presets[name]
	if !ok {
		return false
	}
	if err := m.graph.ImportConfig(p.Config); err != nil {
		return false
	}
	return true
}

// Delete removes a saved preset. Reserved built-in names are rejected with
// ErrPresetConflict.
func (m *Manager) Delete(name string) (bool, error) {
	if graph.IsBuiltInProfile(name) {
		return false, fmt.Errorf("%w: %q", rendererr.ErrPresetConflict, name)
	}
	lib := m.loadLibrary()
	if _, ok := lib.Presets[name]; !ok {
		return false, nil
	}
	delete(lib.Presets, name)
	m.saveLibrary(lib)
	return true, nil
}

// Has reports whether name is a saved preset (built-ins are not "saved").
func (m *Manager) Has(name string) bool {
	_, ok := m.loadLibrary().Presets[name]
	return ok
}

// Get returns a saved preset by name.
func (m *Manager) Get(name string) (Preset, bool) {
	p, ok := m.loadLibrary().Presets[name]
	return p, ok
}

// ListResult separates user-saved presets from the built-in catalog.
type ListResult struct {
	User    []string
	BuiltIn []string
}

// List returns every saved preset name plus the built-in profile catalog.
func (m *Manager) List() ListResult {
	lib := m.loadLibrary()
	out := ListResult{BuiltIn: append([]string(nil), graph.BuiltInProfiles...)}
	for name := range lib.Presets {
		out.User = append(out.User, name)
	}
	return out
}

// Tune merges a config patch on top of a saved preset's relationship
// config for one layer, and re-instantiates that relationship.
func (m *Manager) Tune(name string, layer graph.Layer, patch graph.Config) (bool, error) {
	if graph.IsBuiltInProfile(name) {
		return false, fmt.Errorf("%w: %q", rendererr.ErrPresetConflict, name)
	}
	lib := m.loadLibrary()
	p, ok := lib.Presets[name]
	if !ok {
		return false, nil
	}
	layerKey := layer.String()
	existing, hasExisting := p.Config.Relationships[layerKey]
	merged := patch
	if hasExisting && merged.Kind == existing.Config.Kind {
		merged = mergeConfig(existing.Config, patch)
	}
	if p.Config.Relationships == nil {
		p.Config.Relationships = make(map[string]graph.ExportedRelationship)
	}
	p.Config.Relationships[layerKey] = graph.ExportedRelationship{Preset: merged.Kind.String(), Config: merged}
	p.Metadata.UpdatedAt = m.now().UTC().Format(time.RFC3339)
	lib.Presets[name] = p
	m.saveLibrary(lib)

	if m.graph != nil {
		_ = m.graph.SetRelationship(layer, merged)
	}
	return true, nil
}

// mergeConfig overlays non-zero fields of patch onto base.
func mergeConfig(base, patch graph.Config) graph.Config {
	out := base
	if patch.Gain != 0 {
		out.Gain = patch.Gain
	}
	if patch.Delay != 0 {
		out.Delay = patch.Delay
	}
	if patch.Damp != 0 {
		out.Damp = patch.Damp
	}
	if patch.Opacity != 0 {
		out.Opacity = patch.Opacity
	}
	if patch.Channels != nil {
		out.Channels = patch.Channels
	}
	if patch.OffsetDeg != 0 {
		out.OffsetDeg = patch.OffsetDeg
	}
	if patch.IntensityBias != 0 {
		out.IntensityBias = patch.IntensityBias
	}
	if patch.Clamp != 0 {
		out.Clamp = patch.Clamp
	}
	if patch.LagMs != 0 {
		out.LagMs = patch.LagMs
	}
	if patch.Channel != "" {
		out.Channel = patch.Channel
	}
	if patch.Center != 0 {
		out.Center = patch.Center
	}
	if patch.SatBias != 0 {
		out.SatBias = patch.SatBias
	}
	if patch.ChaosGain != 0 {
		out.ChaosGain = patch.ChaosGain
	}
	if patch.SpeedGain != 0 {
		out.SpeedGain = patch.SpeedGain
	}
	return out
}

// ExportLibrary returns the full persisted library document.
func (m *Manager) ExportLibrary() Library {
	lib := m.loadLibrary()
	lib.ExportedAt = m.now().UTC().Format(time.RFC3339)
	lib.Count = len(lib.Presets)
	return lib
}

// ImportResult reports how many presets an ImportLibrary call applied vs.
// skipped.
type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportLibrary merges lib's presets into the persisted library. Entries
// whose name collides with a built-in profile are always skipped; entries
// colliding with an existing saved preset are skipped unless overwrite is
// true.
func (m *Manager) ImportLibrary(lib Library, overwrite bool) ImportResult {
	current := m.loadLibrary()
	var result ImportResult
	for name, p := range lib.Presets {
		if graph.IsBuiltInProfile(name) {
			result.Skipped++
			continue
		}
		if _, exists := current.Presets[name]; exists && !overwrite {
			result.Skipped++
			continue
		}
		current.Presets[name] = p
		result.Imported++
	}
	m.saveLibrary(current)
	return result
}
