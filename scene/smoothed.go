package scene

// SmoothedScalar approaches Target geometrically. Only Target should be
// written after construction.
type SmoothedScalar struct {
	Value  float64
	Target float64
}

// approachFactor turns a per-frame base rate into a step fraction for dt,
// so the perceived speed stays the same at any frame rate.
func approachFactor(rate, dt float64) float64 {
	return clamp(rate*dt*60, 0, 1)
}

// Advance moves Value toward Target by rate scaled to dt.
func (s *SmoothedScalar) Advance(rate, dt float64) {
	s.Value += (s.Target - s.Value) * approachFactor(rate, dt)
}

// Step moves Value toward Target by a fixed amount, independent of dt.
func (s *SmoothedScalar) Step(step float64) {
	switch {
	case s.Value < s.Target:
		s.Value = min(s.Value+step, s.Target)
	case s.Value > s.Target:
		s.Value = max(s.Value-step, s.Target)
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
