package trail

import (
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestNewAccumulatorDefaults(t *testing.T) {
	a := newAccumulator(0, Options{})
	if a.resolution != DefaultResolution {
		t.Errorf("resolution = %d, want %d", a.resolution, DefaultResolution)
	}
	if a.opts.RadiusRatio != 0.1 {
		t.Errorf("RadiusRatio = %v, want 0.1", a.opts.RadiusRatio)
	}
	if a.Texture() != 0 {
		t.Error("Texture() without GL resources should be 0")
	}
}

func TestUpdatePosition(t *testing.T) {
	tests := []struct {
		name       string
		p          [2]float32
		worldSpace bool
		wantPos    [2]float32
		wantEvent  [2]float32
	}{
		{"world centre", [2]float32{0, 0}, true, [2]float32{0.5, 0.5}, [2]float32{0.5, 0.5}},
		{"world corner", [2]float32{-1, 1}, true, [2]float32{0, 1}, [2]float32{0.5, 0.5}},
		{"raw uv", [2]float32{0.2, 0.9}, false, [2]float32{0.5, 0.5}, [2]float32{0.2, 0.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAccumulator(64, Options{})
			a.UpdatePosition(tt.p, tt.worldSpace)
			if a.position != tt.wantPos {
				t.Errorf("position = %v, want %v", a.position, tt.wantPos)
			}
			if a.LastEventUV() != tt.wantEvent {
				t.Errorf("LastEventUV() = %v, want %v", a.LastEventUV(), tt.wantEvent)
			}
		})
	}
}

func TestAdvanceSnapshotsInputs(t *testing.T) {
	a := newAccumulator(64, Options{RadiusRatio: 0.2})
	a.UpdatePosition([2]float32{0.5, -0.5}, true)
	a.UpdateDraw(1)
	a.UpdateDirection([2]float32{0.01, 0})
	a.Advance(1.0 / 60)

	// Clearing the direction after Advance must not affect the pending splat.
	a.UpdateDirection([2]float32{})

	s := a.pending
	if !a.hasPending {
		t.Fatal("Advance() did not queue a splat")
	}
	if s.point != [2]float32{0.75, 0.25} {
		t.Errorf("point = %v", s.point)
	}
	if !approx(s.direction[0], 0.01*DirectionGain) || s.direction[1] != 0 {
		t.Errorf("direction = %v", s.direction)
	}
	if !approx(s.decay, DecayPerFrame) {
		t.Errorf("decay = %v, want %v", s.decay, DecayPerFrame)
	}
	if !approx(s.radius, 0.2) {
		t.Errorf("radius = %v, want 0.2 at full heat", s.radius)
	}
}

func TestAdvanceClampsDirection(t *testing.T) {
	a := newAccumulator(64, Options{})
	a.UpdateDirection([2]float32{3, 4})
	a.Advance(1.0 / 60)
	d := a.pending.direction
	if !approx(d[0], 0.6) || !approx(d[1], 0.8) {
		t.Errorf("direction = %v, want unit length", d)
	}
}

func TestAdvanceDecayIsFrameRateIndependent(t *testing.T) {
	one := newAccumulator(64, Options{})
	one.Advance(1.0 / 30)

	two := newAccumulator(64, Options{})
	two.Advance(1.0 / 60)
	two.Advance(1.0 / 60)

	if !approx(one.pending.decay, two.pending.decay) {
		t.Errorf("decay at 30fps = %v, two 60fps steps = %v", one.pending.decay, two.pending.decay)
	}
}

func TestRadius(t *testing.T) {
	desktop := newAccumulator(64, Options{RadiusRatio: 0.1})
	mobile := newAccumulator(64, Options{RadiusRatio: 0.1, IsMobile: true})
	if !approx(desktop.radius(0), 0.05) {
		t.Errorf("idle radius = %v, want 0.05", desktop.radius(0))
	}
	if mobile.radius(1) <= desktop.radius(1) {
		t.Error("mobile splats should be larger")
	}
	if desktop.radius(10) != desktop.radius(1.3) {
		t.Error("radius should saturate at the heat cap")
	}
}

func TestUpdateDrawRejectsNegativeHeat(t *testing.T) {
	a := newAccumulator(64, Options{})
	a.UpdateDraw(-1)
	if a.heat != 0 {
		t.Errorf("heat = %v, want 0", a.heat)
	}
}

func TestRenderAndDisposeWithoutResources(t *testing.T) {
	a := newAccumulator(64, Options{})
	a.Resize(800, 600)
	a.Advance(1.0 / 60)
	a.Render()
	a.Dispose()
	a.Dispose()
	if !a.disposed {
		t.Error("Dispose() did not mark the accumulator")
	}
}
