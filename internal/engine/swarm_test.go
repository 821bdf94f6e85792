package engine

import (
	"testing"

	"github.com/sablehall/vesper/server/internal/domain/rules"
)

func TestFeedbackSilentUntilReported(t *testing.T) {
	s := &PopulationFeedback{}
	if got := s.Compute(rules.TrendRising); got != 0 {
		t.Errorf("Expected zero feedback before any report, got %.2f", got)
	}
}

func TestFeedbackFromIrritableFraction(t *testing.T) {
	s := &PopulationFeedback{}

	s.Report(1.0)
	if got := s.Compute(rules.TrendRising); got != rules.SwarmFeedbackCap {
		t.Errorf("Expected fully irritable swarm to contribute the cap, got %.2f", got)
	}

	s.Report(0.5)
	if got := s.Compute(rules.TrendRising); got != 0 {
		t.Errorf("Expected a neutral swarm to contribute nothing, got %.2f", got)
	}

	s.Report(0.0)
	if got := s.Compute(rules.TrendFalling); got != -rules.SwarmFeedbackCap {
		t.Errorf("Expected a placid swarm to confirm the fall at the cap, got %.2f", got)
	}

	// A placid swarm cannot drag a rising level down.
	if got := s.Compute(rules.TrendRising); got != 0 {
		t.Errorf("Expected negative feedback blocked while rising, got %.2f", got)
	}
}

func TestReportClampsFraction(t *testing.T) {
	s := &PopulationFeedback{}
	s.Report(7.0)
	if got := s.Compute(rules.TrendRising); got != rules.SwarmFeedbackCap {
		t.Errorf("Expected out-of-range report clamped, got %.2f", got)
	}
}
