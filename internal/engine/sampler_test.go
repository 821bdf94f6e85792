package engine

import "testing"

func TestSamplerInterpolatesBetweenTicks(t *testing.T) {
	var s PressureSampler
	s.Commit(0, 40)
	s.Commit(1, 60)

	if got := s.LevelAt(0.5); got != 50 {
		t.Errorf("Expected midpoint 50, got %.2f", got)
	}
	if got := s.LevelAt(0.25); got != 45 {
		t.Errorf("Expected quarter point 45, got %.2f", got)
	}
}

func TestSamplerClampsOutsideSpan(t *testing.T) {
	var s PressureSampler
	s.Commit(10, 40)
	s.Commit(11, 60)

	if got := s.LevelAt(5); got != 40 {
		t.Errorf("Expected reads before the span to clamp to 40, got %.2f", got)
	}
	if got := s.LevelAt(20); got != 60 {
		t.Errorf("Expected reads after the span to clamp to 60, got %.2f", got)
	}
}

func TestSamplerSingleCommit(t *testing.T) {
	var s PressureSampler
	s.Commit(3, 55)

	if got := s.LevelAt(0); got != 55 {
		t.Errorf("Expected single-commit sampler to be flat, got %.2f", got)
	}
	if got := s.LevelAt(99); got != 55 {
		t.Errorf("Expected single-commit sampler to be flat, got %.2f", got)
	}
}
