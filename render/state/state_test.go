package state

import "testing"

func TestPresetsCompareByValue(t *testing.T) {
	tests := []struct {
		name string
		a, b RenderState
	}{
		{"opaque", Opaque(), Opaque()},
		{"transparent", Transparent(), Transparent()},
		{"additive", Additive(), Additive()},
		{"wireframe", Wireframe(), Wireframe()},
		{"geometry4d", Geometry4D(), Geometry4D()},
		{"transparent4d", Transparent4D(), Transparent4D()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.a != tt.b {
				t.Fatalf("two calls to the same preset constructor must be value-equal")
			}
		})
	}
}

func TestPresetsAreDistinguishable(t *testing.T) {
	if Opaque() == Transparent() {
		t.Fatalf("opaque and transparent presets must differ")
	}
	if Transparent() == Transparent4D() {
		t.Fatalf("transparent and transparent4d presets must differ (cull mode)")
	}
}

func TestTransparentBlendsOverWithoutDepthWrite(t *testing.T) {
	rs := Transparent()
	if !rs.Blend.Enabled {
		t.Fatalf("transparent must enable blending")
	}
	if rs.Depth.Write {
		t.Fatalf("transparent must not write depth")
	}
	if rs.Blend.SrcRGB != BlendFactorSrcAlpha || rs.Blend.DstRGB != BlendFactorOneMinusSrcAlpha {
		t.Fatalf("transparent must use src_alpha/one_minus_src_alpha for RGB, got %v/%v", rs.Blend.SrcRGB, rs.Blend.DstRGB)
	}
}

func TestAdditiveUsesOneOneBlending(t *testing.T) {
	rs := Additive()
	if rs.Blend.SrcRGB != BlendFactorOne || rs.Blend.DstRGB != BlendFactorOne {
		t.Fatalf("additive must use one/one blending, got %v/%v", rs.Blend.SrcRGB, rs.Blend.DstRGB)
	}
}

func TestGeometry4DAndWireframeDisableCulling(t *testing.T) {
	if Geometry4D().Rasterizer.CullMode != CullNone {
		t.Fatalf("geometry4D must disable culling")
	}
	if Wireframe().Rasterizer.CullMode != CullNone {
		t.Fatalf("wireframe must disable culling")
	}
}
