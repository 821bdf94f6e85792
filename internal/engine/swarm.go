package engine

import "github.com/sablehall/vesper/server/internal/domain/rules"

// PopulationFeedback converts the ambient population model's aggregate mood
// into a bounded, confirming-only pressure contribution. The swarm may
// reinforce the authoritative direction; it can never reverse it.
type PopulationFeedback struct {
	irritableFraction float64
	reported          bool
}

// Report records the latest aggregate mood (proportion of irritable
// members, 0-1) from the population model.
func (s *PopulationFeedback) Report(irritableFraction float64) {
	if irritableFraction < 0 {
		irritableFraction = 0
	}
	if irritableFraction > 1 {
		irritableFraction = 1
	}
	s.irritableFraction = irritableFraction
	s.reported = true
}

// Compute returns the feedback delta for the next tick given the current
// trend. A 0.5 irritable fraction is neutral; the result is capped at the
// swarm feedback cap and sign-constrained by the trend.
func (s *PopulationFeedback) Compute(trend rules.Trend) float64 {
	if !s.reported {
		return 0
	}
	raw := (s.irritableFraction - 0.5) * 2 * rules.SwarmFeedbackCap
	return rules.ConfirmFeedback(raw, trend)
}
