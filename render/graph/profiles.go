package graph

// BuiltInProfiles is the reserved set of named built-in profiles. Preset
// names in this set are reserved: render/preset refuses to save, delete, or
// import over them.
var BuiltInProfiles = []string{"holographic", "symmetry", "chord", "storm", "legacy"}

// IsBuiltInProfile reports whether name is a reserved built-in profile.
func IsBuiltInProfile(name string) bool {
	for _, p := range BuiltInProfiles {
		if p == name {
			return true
		}
	}
	return false
}

// legacyMultipliers is the deprecated static opacity/densityMult table the
// "legacy" profile reproduces verbatim.
var legacyMultipliers = map[Layer][2]float64{
	LayerBackground: {0.2, 0.4},
	LayerShadow:     {0.4, 0.8},
	LayerContent:    {0.8, 1.0},
	LayerHighlight:  {0.6, 1.5},
	LayerAccent:     {0.3, 2.5},
}

// LoadProfile replaces the graph's configuration with one of the five named
// built-in profiles. Each assigns content as keystone (unless noted) and a
// specific preset+config to each of the other four layers; per-layer
// transient state is always reset, matching a fresh Relationship per layer.
func (g *Graph) LoadProfile(name string) bool {
	switch name {
	case "holographic":
		g.loadHolographic()
	case "symmetry":
		g.loadSymmetryProfile()
	case "chord":
		g.loadChordProfile()
	case "storm":
		g.loadStormProfile()
	case "legacy":
		g.loadLegacyProfile()
	default:
		return false
	}
	g.activeProfile = name
	return true
}

func (g *Graph) resetToKeystone(keystone Layer) {
	g.keystone = keystone
	g.relationships = make(map[Layer]*Relationship)
	g.shaderByLayer = make(map[Layer]string)
}

// loadHolographic is the flagship profile: an echo shadow, a complementary
// highlight, a harmonic accent, and a reactive background.
func (g *Graph) loadHolographic() {
	g.resetToKeystone(LayerContent)
	g.relationships[LayerBackground] = NewRelationship(ReactiveConfig(0.15, 1.0))
	g.relationships[LayerShadow] = NewRelationship(EchoConfig(0.7, 180, 0.1))
	g.relationships[LayerHighlight] = NewRelationship(ComplementConfig(1.0, []string{"saturation"}))
	g.relationships[LayerAccent] = NewRelationship(HarmonicConfig(137.508, 0.1))
}

// loadSymmetryProfile mirrors every follower layer around the keystone's
// hue channel with progressively larger centers.
func (g *Graph) loadSymmetryProfile() {
	g.resetToKeystone(LayerContent)
	g.relationships[LayerBackground] = NewRelationship(SymmetryConfig("hue", 60))
	g.relationships[LayerShadow] = NewRelationship(SymmetryConfig("hue", 120))
	g.relationships[LayerHighlight] = NewRelationship(SymmetryConfig("hue", 240))
	g.relationships[LayerAccent] = NewRelationship(SymmetryConfig("hue", 300))
}

// loadChordProfile stacks analogous-hue chord relationships across the
// follower layers.
func (g *Graph) loadChordProfile() {
	g.resetToKeystone(LayerContent)
	g.relationships[LayerBackground] = NewRelationship(ChordConfig(-60, -0.1))
	g.relationships[LayerShadow] = NewRelationship(ChordConfig(-30, -0.05))
	g.relationships[LayerHighlight] = NewRelationship(ChordConfig(30, 0.05))
	g.relationships[LayerAccent] = NewRelationship(ChordConfig(60, 0.1))
}

// loadStormProfile amplifies chaos and speed with gain increasing in
// z-order, from background (lowest) to accent (highest).
func (g *Graph) loadStormProfile() {
	g.resetToKeystone(LayerContent)
	g.relationships[LayerBackground] = NewRelationship(StormConfig(1.2, 0.9))
	g.relationships[LayerShadow] = NewRelationship(StormConfig(1.4, 1.0))
	g.relationships[LayerHighlight] = NewRelationship(StormConfig(1.6, 1.1))
	g.relationships[LayerAccent] = NewRelationship(StormConfig(1.8, 1.2))
}

// loadLegacyProfile reproduces the deprecated static multiplier table via
// custom relationships that apply a fixed opacity/densityMult pair.
func (g *Graph) loadLegacyProfile() {
	g.resetToKeystone(LayerContent)
	for layer, mult := range legacyMultipliers {
		if layer == LayerContent {
			continue
		}
		opacity, density := mult[0], mult[1]
		g.relationships[layer] = NewRelationship(CustomConfig(func(keystone Params, _ float64) Params {
			out := keystone
			out.LayerOpacity = opacity
			out.DensityMult = density
			return out
		}))
	}
}
