package engine

// PressureSampler supplies linearly interpolated pressure reads between
// committed ticks. NPC decision logic and other subsystems sampling pressure
// off-tick must read through this, never the raw state.
type PressureSampler struct {
	prevAt    float64
	prevLevel float64
	currAt    float64
	currLevel float64
	committed bool
}

// Commit records the level published by a completed tick.
func (s *PressureSampler) Commit(at, level float64) {
	if !s.committed {
		s.prevAt, s.prevLevel = at, level
		s.currAt, s.currLevel = at, level
		s.committed = true
		return
	}
	s.prevAt, s.prevLevel = s.currAt, s.currLevel
	s.currAt, s.currLevel = at, level
}

// LevelAt returns the interpolated pressure level at simulated time t.
// Reads outside the committed span clamp to the nearest committed value.
func (s *PressureSampler) LevelAt(t float64) float64 {
	if !s.committed || t >= s.currAt {
		return s.currLevel
	}
	if t <= s.prevAt || s.currAt == s.prevAt {
		return s.prevLevel
	}
	frac := (t - s.prevAt) / (s.currAt - s.prevAt)
	return s.prevLevel + (s.currLevel-s.prevLevel)*frac
}
