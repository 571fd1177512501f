package compositor

import (
	"math"
	"testing"
)

func TestDefaultPalette(t *testing.T) {
	p := DefaultPalette()
	if p[0] != [3]float32{0, 0, 0} {
		t.Errorf("first stop = %v, want black", p[0])
	}
	// #073dff
	want := [3]float32{7.0 / 255, 61.0 / 255, 1}
	for i := range want {
		if math.Abs(float64(p[1][i]-want[i])) > 1e-6 {
			t.Errorf("stop 1 = %v, want %v", p[1], want)
			break
		}
	}
	// #a61904
	if math.Abs(float64(p[6][0]-166.0/255)) > 1e-6 {
		t.Errorf("last stop red = %v", p[6][0])
	}
}

func TestParsePaletteFallsBackPerEntry(t *testing.T) {
	def := DefaultPalette()
	tests := []struct {
		name    string
		colors  []string
		check   func(Palette) bool
		wantErr bool
	}{
		{"all valid", DefaultPaletteHex[:], func(p Palette) bool { return p == def }, false},
		{"short list", []string{"white"}, func(p Palette) bool {
			return p[0] == [3]float32{1, 1, 1} && p[1] == def[1] && p[6] == def[6]
		}, false},
		{"invalid entry", []string{"#000000", "not-a-colour", "rgb(255,0,0)"}, func(p Palette) bool {
			return p[1] == def[1] && p[2] == [3]float32{1, 0, 0}
		}, true},
		{"too many", append(DefaultPaletteHex[:], "#ffffff"), func(p Palette) bool { return p == def }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePalette(tt.colors)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePalette() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.check(p) {
				t.Errorf("ParsePalette() = %v", p)
			}
		})
	}
}

func TestDefaultTransitionsAreOrdered(t *testing.T) {
	for i := 1; i < Transitions; i++ {
		if DefaultBlendCenters[i] <= DefaultBlendCenters[i-1] {
			t.Errorf("blend centre %d (%v) not above %d (%v)", i, DefaultBlendCenters[i], i-1, DefaultBlendCenters[i-1])
		}
	}
	for i, w := range DefaultFadeWidths {
		if w <= 0 {
			t.Errorf("fade width %d = %v, want > 0", i, w)
		}
	}
}

func TestUniformsSet(t *testing.T) {
	u := DefaultUniforms()
	tests := []struct {
		name string
		get  func() float32
	}{
		{"u_random", func() float32 { return u.Random }},
		{"u_opacity", func() float32 { return u.Opacity }},
		{"u_amount", func() float32 { return u.Amount }},
		{"u_power", func() float32 { return u.Power }},
		{"u_saturation", func() float32 { return u.Saturation }},
		{"u_shift", func() float32 { return u.GradientShift }},
		{"u_interactionSize", func() float32 { return u.InteractionSize }},
		{"u_videoBlend", func() float32 { return u.VideoBlend }},
		{"u_intensity", func() float32 { return u.Intensity }},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := float32(i) + 0.5
			if err := u.Set(tt.name, v); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if got := tt.get(); got != v {
				t.Errorf("after Set(%q, %v) field = %v", tt.name, v, got)
			}
		})
	}
	if err := u.Set("u_nope", 1); err == nil {
		t.Error("Set() with unknown name should fail")
	}
}

func TestCompositorWithoutProgram(t *testing.T) {
	c := &Compositor{uniforms: DefaultUniforms()}
	if err := c.UpdateUniform("u_amount", 0.7); err != nil {
		t.Fatal(err)
	}
	if c.Uniforms().Amount != 0.7 {
		t.Errorf("Amount = %v, want 0.7", c.Uniforms().Amount)
	}
	c.Draw()
	c.Dispose()
	c.Dispose()
	if c.Debug() {
		t.Error("Debug() = true before any debug build")
	}
}

func TestPaletteLinearize(t *testing.T) {
	var p Palette
	p[0] = [3]float32{0, 0.5, 1}
	p[1] = [3]float32{0.04, 0.2, 0.8}
	lin := p.Linearize()

	want := [2][3]float64{
		{0, 0.2140411, 1},
		{0.04 / 12.92, 0.0331048, 0.6038273},
	}
	for i, stop := range want {
		for j, v := range stop {
			if math.Abs(float64(lin[i][j])-v) > 1e-5 {
				t.Errorf("stop %d channel %d = %v, want %v", i, j, lin[i][j], v)
			}
		}
	}
	if p[0][1] != 0.5 {
		t.Error("Linearize() modified its receiver")
	}
}

func TestFrameUniformsColourSpace(t *testing.T) {
	srgb := &Compositor{uniforms: DefaultUniforms()}
	if got := srgb.frameUniforms().Palette; got != DefaultPalette() {
		t.Errorf("sRGB output palette = %v, want the parsed stops", got)
	}

	linear := &Compositor{cfg: Config{Linear: true}, uniforms: DefaultUniforms()}
	got := linear.frameUniforms()
	if got.Palette != DefaultPalette().Linearize() {
		t.Errorf("linear output palette = %v, want linearised stops", got.Palette)
	}
	if linear.Uniforms().Palette != DefaultPalette() {
		t.Error("frameUniforms() should not rewrite the scene's palette")
	}
}
