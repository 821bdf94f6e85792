package rules

import "testing"

func TestBreakThresholdFromPower(t *testing.T) {
	if got := BreakThreshold(0); got != AnchorBaseBreakThreshold {
		t.Errorf("Expected zero power to yield the base threshold 75, got %.2f", got)
	}

	// A strong agent resists strain longer but snaps at a lower level.
	got := BreakThreshold(2500)
	if got >= AnchorBaseBreakThreshold {
		t.Errorf("Expected power 2500 to lower the threshold below 75, got %.2f", got)
	}
	if got != 70 {
		t.Errorf("Expected power 2500 threshold 70, got %.2f", got)
	}

	// The bonus is capped.
	if got := BreakThreshold(100000); got != AnchorBaseBreakThreshold-AnchorMaxPowerBonus {
		t.Errorf("Expected capped threshold %.1f, got %.2f", AnchorBaseBreakThreshold-AnchorMaxPowerBonus, got)
	}
}

func TestStrainRequiresExcessPressure(t *testing.T) {
	if got := StrainFor(50, 0, 1); got != 0 {
		t.Errorf("Expected no strain at the floor, got %.4f", got)
	}
	if got := StrainFor(30, 0, 1); got != 0 {
		t.Errorf("Expected no strain below the floor, got %.4f", got)
	}
	if got := StrainFor(80, 0, 1); got <= 0 {
		t.Errorf("Expected positive strain above the floor, got %.4f", got)
	}
}

func TestPowerDiscountsStrain(t *testing.T) {
	weak := StrainFor(80, 0, 1)
	strong := StrainFor(80, 2500, 1)
	if strong >= weak {
		t.Errorf("Expected power to discount strain: weak %.4f, strong %.4f", weak, strong)
	}
}

func TestIntegrityErosionFloor(t *testing.T) {
	if got := IntegrityLoss(2.0, 60); got != 0 {
		t.Errorf("Expected no erosion at level 60, got %.4f", got)
	}
	if got := IntegrityLoss(2.0, 61); got <= 0 {
		t.Errorf("Expected erosion above level 60, got %.4f", got)
	}
}

func TestBreakSpikeScalesWithPower(t *testing.T) {
	if got := BreakSpike(0); got != 5.0 {
		t.Errorf("Expected base spike 5.0 for zero power, got %.2f", got)
	}
	if got := BreakSpike(AnchorPowerScale); got != 10.0 {
		t.Errorf("Expected spike 10.0 at full power, got %.2f", got)
	}
}
