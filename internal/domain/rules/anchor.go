package rules

// Anchor tuning constants.
const (
	AnchorBaseBreakThreshold = 75.0
	AnchorMaxPowerBonus      = 15.0  // largest reduction the power bonus may apply
	AnchorPowerBonusDivisor  = 500.0 // bonus = power / divisor
	AnchorPowerScale         = 5000.0 // normalization ceiling for power scores

	AnchorStrainRate     = 0.12 // strain per second per point of excess pressure
	AnchorIntegrityRate  = 0.35 // integrity loss per unit of applied strain
	AnchorStrainFloor    = 50.0 // pressure below this applies no strain
	AnchorErosionFloor   = 60.0 // integrity only erodes while level exceeds this
	AnchorDegradeCutoff  = 70.0 // integrity below this reports degrade
	AnchorBreakCutoff    = 30.0 // integrity below this is break-eligible
)

// BreakThreshold derives the pressure level required for a break from an
// agent's power score. Power lowers the requirement: a strong agent resists
// strain longer but, once critical, needs less pressure to snap.
// power=0 yields exactly the base threshold.
func BreakThreshold(power float64) float64 {
	if power <= 0 {
		return AnchorBaseBreakThreshold
	}
	bonus := power / AnchorPowerBonusDivisor
	if bonus > AnchorMaxPowerBonus {
		bonus = AnchorMaxPowerBonus
	}
	return AnchorBaseBreakThreshold - bonus
}

// NormalizedPower maps a raw power score onto [0, 1].
func NormalizedPower(power float64) float64 {
	if power <= 0 {
		return 0
	}
	if power >= AnchorPowerScale {
		return 1
	}
	return power / AnchorPowerScale
}

// StrainFor computes the strain applied to an anchor over dt seconds while a
// violating action is attempted. Power discounts the strain (resistance).
func StrainFor(level, power, dt float64) float64 {
	excess := level - AnchorStrainFloor
	if excess <= 0 {
		return 0
	}
	resistance := 1.0 / (1.0 + NormalizedPower(power))
	return excess * AnchorStrainRate * resistance * dt
}

// IntegrityLoss converts applied strain into integrity erosion. Erosion only
// occurs while the pressure level exceeds the erosion floor.
func IntegrityLoss(strain, level float64) float64 {
	if level <= AnchorErosionFloor {
		return 0
	}
	return strain * AnchorIntegrityRate
}

// BreakSpike is the pressure spike magnitude caused by an anchor break.
func BreakSpike(power float64) float64 {
	return 5.0 * (1.0 + NormalizedPower(power))
}
