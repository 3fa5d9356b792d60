// Command vib3demo wires the render core end to end: a glfw surface, the
// WebGPU→WebGL2 backend fallback, a five-layer multi-canvas orchestrator
// driven by the holographic built-in profile, and an accent CSS projection
// recomputed each frame (not printed) — the same stack a host application
// assembles, reduced to one file.
package main

import (
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/vib3/render-core/render/accent"
	"github.com/vib3/render-core/render/backend"
	"github.com/vib3/render-core/render/backend/webgl"
	"github.com/vib3/render-core/render/backend/webgpu"
	"github.com/vib3/render-core/render/bridge"
	"github.com/vib3/render-core/render/command"
	"github.com/vib3/render-core/render/graph"
	"github.com/vib3/render-core/render/preset"
	"github.com/vib3/render-core/render/resource"
	"github.com/vib3/render-core/render/state"
	"github.com/vib3/render-core/render/surface"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(log)

	registry := resource.NewRegistry(resource.WithLogger(log))

	be, surf, err := selectBackendAndSurface(registry)
	if err != nil {
		log.Error("no backend available", slog.Any("error", err))
		os.Exit(1)
	}
	defer be.Dispose()
	defer surf.Close()

	if !be.CompileShader(holographicShader) {
		log.Error("shader compile failed", slog.Any("error", be.CompileError(holographicShader.Name)))
		os.Exit(1)
	}

	g := graph.NewGraph()
	for _, layer := range graph.Layers {
		_ = g.SetLayerShader(layer, holographicShader.Name)
	}
	if !g.LoadProfile("holographic") {
		log.Warn("holographic profile failed to load, using identity relationships")
	}

	orchestrator := bridge.NewMultiCanvasOrchestrator(g)
	for _, layer := range graph.Layers {
		b := bridge.NewBridge(be, bridge.WithInitialState(state.Transparent4D()))
		_ = orchestrator.AddBridge(layer, b)
	}
	orchestrator.SetResolution(float32(surf.Width()), float32(surf.Height()))

	store := preset.NewMapStore()
	presets := preset.NewManager(g, store)
	log.Info("built-in profiles", slog.Any("profiles", presets.List().BuiltIn))

	accentSystem := accent.NewSystem()

	keystone := graph.Params{
		Hue: 280, Saturation: 0.8, Intensity: 0.6, Chaos: 0.2,
		Speed: 1.0, Dimension: 3.5, MorphFactor: 1.0, GridDensity: 3.0,
	}

	surf.SetResizeCallback(func(width, height int) {
		be.Resize(width, height)
		orchestrator.SetResolution(float32(width), float32(height))
	})

	start := time.Now()
	surf.SetUpdateCallback(func() {
		elapsedMs := float64(time.Since(start).Milliseconds())
		keystone.Speed = 1.0 + 0.2*math.Sin(elapsedMs/1000)
		orchestrator.SetKeystoneUniforms(keystone)

		viewport := command.Rect{X: 0, Y: 0, Width: int32(surf.Width()), Height: int32(surf.Height())}
		clear := command.ClearOptions{Color: true, ColorValue: [4]float32{0.02, 0.02, 0.05, 1}}

		registry.BeginFrame()
		if err := orchestrator.RenderAll(16.7, viewport, clear); err != nil {
			log.Error("render failed", slog.Any("error", err))
		}
		registry.EndFrame()
		surf.SwapBuffers()

		props := accentSystem.Update(accentSource{keystone}, elapsedMs)
		_ = props
	})

	surf.ProcessMessages()
	log.Info(registry.GetSummaryString())
}

// accentSource adapts a graph.Params value into accent.Source.
type accentSource struct{ p graph.Params }

func (a accentSource) AccentParams() accent.Params { return accent.FromGraphParams(a.p) }

func selectBackendAndSurface(registry *resource.Registry) (backend.Backend, surface.Surface, error) {
	var chosenSurface surface.Surface

	b, err := backend.Select(
		backend.Attempt{
			Kind: backend.KindWebGPU,
			New: func() (backend.Backend, error) {
				surf := surface.NewSurface(backend.KindWebGPU, surface.WithTitle("VIB3"))
				be, err := webgpu.New(surf.SurfaceDescriptor(), surf.Width(), surf.Height(), registry)
				if err != nil {
					_ = surf.Close()
					return nil, err
				}
				chosenSurface = surf
				return be, nil
			},
		},
		backend.Attempt{
			Kind: backend.KindWebGL2,
			New: func() (backend.Backend, error) {
				surf := surface.NewSurface(backend.KindWebGL2, surface.WithTitle("VIB3"))
				surf.MakeContextCurrent()
				be, err := webgl.New(registry, surf.Width(), surf.Height())
				if err != nil {
					_ = surf.Close()
					return nil, err
				}
				chosenSurface = surf
				return be, nil
			},
		},
	)
	if err != nil {
		return nil, nil, err
	}
	return b, chosenSurface, nil
}
