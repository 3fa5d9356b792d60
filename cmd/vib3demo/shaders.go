package main

import "github.com/vib3/render-core/render/backend"

// holographicShader is the one procedural shader the demo compiles: a
// fullscreen quad shaded from the packed VIB3 block's hue/time/opacity
// channels. It is intentionally simple — exercising the bridge and backend
// plumbing end to end, not a production visual.
var holographicShader = backend.ShaderSource{
	Name: "holographic",
	VertexGLSL: `#version 330 core
layout(location = 0) in vec2 a_position;
void main() {
    gl_Position = vec4(a_position, 0.0, 1.0);
}
`,
	FragmentGLSL: `#version 330 core
uniform float u_time;
uniform float u_hue;
uniform float u_layerOpacity;
out vec4 fragColor;

vec3 hsv2rgb(float h, float s, float v) {
    vec3 k = vec3(1.0, 2.0 / 3.0, 1.0 / 3.0);
    vec3 p = abs(fract(vec3(h) + k) * 6.0 - 3.0);
    return v * mix(vec3(1.0), clamp(p - 1.0, 0.0, 1.0), s);
}

void main() {
    float shade = 0.5 + 0.5 * sin(u_time + u_hue * 0.01745);
    vec3 color = hsv2rgb(u_hue / 360.0, 0.8, shade);
    fragColor = vec4(color, u_layerOpacity);
}
`,
	WGSL: `
struct Uniforms {
    time: f32,
    _pad0: f32,
    resolutionX: f32,
    resolutionY: f32,
    geometry: f32,
    rot4dXY: f32,
    rot4dXZ: f32,
    rot4dYZ: f32,
    rot4dXW: f32,
    rot4dYW: f32,
    rot4dZW: f32,
    dimension: f32,
    gridDensity: f32,
    morphFactor: f32,
    chaos: f32,
    speed: f32,
    hue: f32,
    intensity: f32,
    saturation: f32,
    mouseIntensity: f32,
    clickIntensity: f32,
    bass: f32,
    mid: f32,
    high: f32,
    layerScale: f32,
    layerOpacity: f32,
    _pad1: f32,
    layerColorR: f32,
    layerColorG: f32,
    layerColorB: f32,
    densityMult: f32,
    speedMult: f32,
}
@group(0) @binding(0) var<uniform> u: Uniforms;

@vertex
fn vs_main(@location(0) position: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    let shade = 0.5 + 0.5 * sin(u.time + u.hue * 0.01745);
    return vec4<f32>(shade, shade, shade, u.layerOpacity);
}
`,
}
