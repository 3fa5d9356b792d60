package preset

import (
	"errors"
	"testing"
	"time"

	"github.com/vib3/render-core/render/graph"
	"github.com/vib3/render-core/render/rendererr"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func newTestManager() *Manager {
	g := graph.NewGraph()
	store := NewMapStore()
	return NewManager(g, store, WithClock(fixedClock(time.Unix(0, 0))))
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	m := newTestManager()
	m.graph.SetRelationship(graph.LayerShadow, graph.EchoConfig(0.5, 100, 0.2))

	if err := m.Save("my-preset", Metadata{Description: "test"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !m.Has("my-preset") {
		t.Fatalf("expected Has to report true after Save")
	}

	other := graph.NewGraph()
	m2 := NewManager(other, m.store, WithClock(m.now))
	if !m2.Load("my-preset") {
		t.Fatalf("Load returned false")
	}
	out := other.Resolve(graph.Params{Hue: 10, Intensity: 0.5}, graph.LayerShadow, 0)
	if out.LayerOpacity == 0 {
		t.Fatalf("expected loaded echo relationship to produce a non-zero opacity")
	}
}

func TestSaveRejectsBuiltInName(t *testing.T) {
	m := newTestManager()
	err := m.Save("holographic", Metadata{})
	if !errors.Is(err, rendererr.ErrPresetConflict) {
		t.Fatalf("expected ErrPresetConflict, got %v", err)
	}
}

func TestDeleteRejectsBuiltInName(t *testing.T) {
	m := newTestManager()
	_, err := m.Delete("storm")
	if !errors.Is(err, rendererr.ErrPresetConflict) {
		t.Fatalf("expected ErrPresetConflict, got %v", err)
	}
}

func TestLoadFallsBackToBuiltInProfile(t *testing.T) {
	m := newTestManager()
	if !m.Load("legacy") {
		t.Fatalf("expected Load to apply the built-in legacy profile")
	}
	if m.graph.ActiveProfile() != "legacy" {
		t.Fatalf("active profile = %q, want legacy", m.graph.ActiveProfile())
	}
}

func TestDeleteMissingPresetReturnsFalse(t *testing.T) {
	m := newTestManager()
	ok, err := m.Delete("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected false deleting a nonexistent preset")
	}
}

func TestListSeparatesUserAndBuiltIn(t *testing.T) {
	m := newTestManager()
	if err := m.Save("a", Metadata{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := m.Save("b", Metadata{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	list := m.List()
	if len(list.User) != 2 {
		t.Fatalf("expected 2 user presets, got %d", len(list.User))
	}
	if len(list.BuiltIn) != len(graph.BuiltInProfiles) {
		t.Fatalf("expected %d built-ins, got %d", len(graph.BuiltInProfiles), len(list.BuiltIn))
	}
}

func TestImportLibrarySkipsBuiltInAndRespectsOverwrite(t *testing.T) {
	m := newTestManager()
	if err := m.Save("mine", Metadata{Description: "original"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	incoming := Library{Presets: map[string]Preset{
		"holographic": {Name: "holographic"},
		"mine":        {Name: "mine", Metadata: Metadata{Description: "incoming"}},
		"fresh":       {Name: "fresh"},
	}}

	result := m.ImportLibrary(incoming, false)
	if result.Imported != 1 || result.Skipped != 2 {
		t.Fatalf("got %+v, want {Imported:1 Skipped:2}", result)
	}

	result2 := m.ImportLibrary(incoming, true)
	if result2.Imported != 2 || result2.Skipped != 1 {
		t.Fatalf("got %+v, want {Imported:2 Skipped:1} on overwrite", result2)
	}
}

func TestExportLibraryReflectsSavedCount(t *testing.T) {
	m := newTestManager()
	if err := m.Save("one", Metadata{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	lib := m.ExportLibrary()
	if lib.Count != 1 {
		t.Fatalf("Count = %d, want 1", lib.Count)
	}
	if _, ok := lib.Presets["one"]; !ok {
		t.Fatalf("expected exported library to contain saved preset")
	}
}

func TestTuneMergesOntoExistingConfig(t *testing.T) {
	m := newTestManager()
	m.graph.SetRelationship(graph.LayerAccent, graph.StormConfig(1.2, 0.9))
	if err := m.Save("stormy", Metadata{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	patch := graph.Config{Kind: graph.PresetStorm, ChaosGain: 2.0}
	ok, err := m.Tune("stormy", graph.LayerAccent, patch)
	if err != nil {
		t.Fatalf("Tune: %v", err)
	}
	if !ok {
		t.Fatalf("expected Tune to report success")
	}

	p, _ := m.Get("stormy")
	rel := p.Config.Relationships[graph.LayerAccent.String()]
	if rel.Config.ChaosGain != 2.0 {
		t.Fatalf("ChaosGain = %v, want 2.0", rel.Config.ChaosGain)
	}
	if rel.Config.SpeedGain != 0.9 {
		t.Fatalf("SpeedGain = %v, want unmerged value 0.9", rel.Config.SpeedGain)
	}
}

func TestTuneRejectsBuiltInName(t *testing.T) {
	m := newTestManager()
	_, err := m.Tune("chord", graph.LayerAccent, graph.Config{})
	if !errors.Is(err, rendererr.ErrPresetConflict) {
		t.Fatalf("expected ErrPresetConflict, got %v", err)
	}
}
