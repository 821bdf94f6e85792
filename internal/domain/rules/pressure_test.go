package rules

import "testing"

func TestClampBounds(t *testing.T) {
	if got := Clamp(-12.5); got != 0 {
		t.Errorf("Expected negative level clamped to 0, got %.2f", got)
	}
	if got := Clamp(131.0); got != 100 {
		t.Errorf("Expected overshoot clamped to 100, got %.2f", got)
	}
	if got := Clamp(55.5); got != 55.5 {
		t.Errorf("Expected in-range level untouched, got %.2f", got)
	}
}

func TestMoodThresholds(t *testing.T) {
	cases := []struct {
		level float64
		want  Mood
	}{
		{0, MoodCalm},
		{24.9, MoodCalm},
		{25, MoodUneasy},
		{49.9, MoodUneasy},
		{50, MoodStrained},
		{74.9, MoodStrained},
		{75, MoodCritical},
		{100, MoodCritical},
	}
	for _, c := range cases {
		if got := MoodFor(c.level); got != c.want {
			t.Errorf("MoodFor(%.1f): expected %s, got %s", c.level, c.want, got)
		}
	}
}

func TestTrendClassification(t *testing.T) {
	if got := TrendFor(5.1); got != TrendSpiking {
		t.Errorf("Expected net +5.1 to spike, got %s", got)
	}
	if got := TrendFor(3.0); got != TrendRising {
		t.Errorf("Expected net +3.0 to rise, got %s", got)
	}
	if got := TrendFor(-3.0); got != TrendFalling {
		t.Errorf("Expected net -3.0 to fall, got %s", got)
	}
	if got := TrendFor(0.5); got != TrendStable {
		t.Errorf("Expected net +0.5 stable, got %s", got)
	}
	if got := TrendFor(-0.5); got != TrendStable {
		t.Errorf("Expected net -0.5 stable, got %s", got)
	}
}

// The escalation machine and the published tier deliberately use different
// threshold sets; both must hold independently.
func TestTierThresholdSets(t *testing.T) {
	targetCases := []struct {
		level float64
		want  int
	}{
		{59.9, 0}, {60, 1}, {74.9, 1}, {75, 2}, {89.9, 2}, {90, 3},
	}
	for _, c := range targetCases {
		if got := TargetTier(c.level); got != c.want {
			t.Errorf("TargetTier(%.1f): expected %d, got %d", c.level, c.want, got)
		}
	}

	readyCases := []struct {
		level float64
		want  int
	}{
		{74.9, 0}, {75, 1}, {79.9, 1}, {80, 2}, {89.9, 2}, {90, 3},
	}
	for _, c := range readyCases {
		if got := ReadyTier(c.level); got != c.want {
			t.Errorf("ReadyTier(%.1f): expected %d, got %d", c.level, c.want, got)
		}
	}
}

func TestDriverWeightsSumToOne(t *testing.T) {
	sum := WeightPlayer + WeightAgent + WeightInfluence + WeightDrift
	if sum != 1.0 {
		t.Errorf("Expected driver weights to sum to 1.0, got %.4f", sum)
	}
}
