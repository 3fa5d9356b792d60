package graph

import (
	"math"
	"testing"
)

func scenarioKeystone() Params {
	return Params{
		Hue: 200, Saturation: 0.7, Intensity: 0.7, Chaos: 0.2, Speed: 1.0,
		Dimension: 3.5, MorphFactor: 0.5, GridDensity: 24,
		Rot4dXW: 0, Rot4dYW: 0, Rot4dZW: 0,
	}
}

// TestKeystoneIdentity verifies property 4 / Scenario 1: resolving the
// keystone layer itself always returns the input unchanged.
func TestKeystoneIdentity(t *testing.T) {
	g := NewGraph()
	g.LoadProfile("holographic")

	params := scenarioKeystone()
	got := g.Resolve(params, LayerContent, 0)
	if got != params {
		t.Fatalf("keystone resolve must equal input exactly, got %+v want %+v", got, params)
	}
}

// TestComplementOpacityScenario verifies Scenario 2.
func TestComplementOpacityScenario(t *testing.T) {
	g := NewGraph()
	g.resetToKeystone(LayerContent)
	g.SetRelationship(LayerShadow, ComplementConfig(1.0, nil))

	out := g.Resolve(scenarioKeystone(), LayerShadow, 0)
	if math.Abs(out.LayerOpacity-0.30) > 1e-9 {
		t.Fatalf("layerOpacity = %v, want 0.30", out.LayerOpacity)
	}
	if math.Abs(out.Hue-20) > 1e-9 {
		t.Fatalf("hue = %v, want 20", out.Hue)
	}
}

// TestNoRelationshipDemotesToIdentity covers "removing a relationship
// demotes that layer to identity".
func TestNoRelationshipDemotesToIdentity(t *testing.T) {
	g := NewGraph()
	params := scenarioKeystone()

	out := g.Resolve(params, LayerAccent, 0)
	if out.Hue != params.Hue || out.Saturation != params.Saturation {
		t.Fatalf("layer with no relationship must behave as identity, got %+v", out)
	}
	if out.LayerOpacity != 1.0 {
		t.Fatalf("default layerOpacity must be 1.0, got %v", out.LayerOpacity)
	}
}

// TestResolveIsDeterministic covers property 7: two calls with identical
// (inputs, state, time) must produce identical output. We exercise this by
// resolving two independent relationship instances with the same config at
// the same time.
func TestResolveIsDeterministic(t *testing.T) {
	params := scenarioKeystone()
	r1 := NewRelationship(StormConfig(1.3, 1.1))
	r2 := NewRelationship(StormConfig(1.3, 1.1))

	out1 := r1.Resolve(params, 500)
	out2 := r2.Resolve(params, 500)
	if out1 != out2 {
		t.Fatalf("deterministic preset produced different output: %+v vs %+v", out1, out2)
	}
}

// TestChaseTracksLaggedSnapshot covers property 5: the chase relationship's
// output equals the keystone snapshot taken lagMs ago.
func TestChaseTracksLaggedSnapshot(t *testing.T) {
	r := NewRelationship(ChaseConfig(100))

	p0 := Params{Hue: 0, Intensity: 0}
	p1 := Params{Hue: 90, Intensity: 0.5}
	p2 := Params{Hue: 180, Intensity: 1.0}

	r.Resolve(p0, 0)
	r.Resolve(p1, 100)
	out := r.Resolve(p2, 200)

	// At t=200 with a 100ms lag, the target time is 100 -> exactly p1.
	if math.Abs(out.Hue-p1.Hue) > 1e-6 || math.Abs(out.Intensity-p1.Intensity) > 1e-6 {
		t.Fatalf("chase output = %+v, want snapshot from t=100 (%+v)", out, p1)
	}
}

// TestTauStepResponseReachesOneMinusInvE covers property 6: for a step
// input, the output reaches (1-1/e) of the step within tau seconds, to
// within 5%.
func TestTauStepResponseReachesOneMinusInvE(t *testing.T) {
	const tau = TauIntensity
	const dtSeconds = 1.0 / 60.0
	const dtMs = dtSeconds * 1000

	current := 0.0
	target := 1.0
	elapsed := 0.0
	frameTimeMs := 0.0
	for elapsed < tau {
		current = ema(current, target, dtSeconds, tau)
		elapsed += dtSeconds
		frameTimeMs += dtMs
	}

	want := 1 - 1/math.E
	if math.Abs(current-want) > 0.05 {
		t.Fatalf("after tau seconds, output = %.4f, want ~%.4f (+/-5%%)", current, want)
	}
}

// TestLayersCoverFixedZOrder covers property 9's
// prerequisite: z-order must include every layer exactly once.
func TestLayersCoverFixedZOrder(t *testing.T) {
	want := []Layer{LayerBackground, LayerShadow, LayerContent, LayerHighlight, LayerAccent}
	if len(Layers) != len(want) {
		t.Fatalf("Layers length = %d, want %d", len(Layers), len(want))
	}
	for i, l := range want {
		if Layers[i] != l {
			t.Fatalf("Layers[%d] = %v, want %v", i, Layers[i], l)
		}
	}
}

func TestImportConfigResetsTransientState(t *testing.T) {
	g := NewGraph()
	g.SetRelationship(LayerShadow, ChaseConfig(50))
	g.Resolve(scenarioKeystone(), LayerShadow, 0)
	g.Resolve(scenarioKeystone(), LayerShadow, 50)

	exported := g.ExportConfig()
	if err := g.ImportConfig(exported); err != nil {
		t.Fatalf("ImportConfig: %v", err)
	}

	rel, ok := g.relationships[LayerShadow]
	if !ok {
		t.Fatalf("expected shadow relationship to survive import")
	}
	if len(rel.history) != 0 {
		t.Fatalf("ImportConfig must reset transient chase history, got %d entries", len(rel.history))
	}
}

func TestSetKeystoneRejectsUnknownLayer(t *testing.T) {
	g := NewGraph()
	if err := g.SetKeystone(Layer(99)); err == nil {
		t.Fatalf("expected error setting an unknown layer as keystone")
	}
}

func TestLegacyProfileReproducesStaticTable(t *testing.T) {
	g := NewGraph()
	g.LoadProfile("legacy")

	out := g.Resolve(scenarioKeystone(), LayerHighlight, 0)
	if math.Abs(out.LayerOpacity-0.6) > 1e-9 || math.Abs(out.DensityMult-1.5) > 1e-9 {
		t.Fatalf("legacy highlight = {opacity:%v density:%v}, want {0.6, 1.5}", out.LayerOpacity, out.DensityMult)
	}
}
