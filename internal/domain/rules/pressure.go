// Package rules contains the pure calculation logic for the pressure model.
// This package is PURE and must NOT import any infrastructure packages.
package rules

// Mood classifies the ambient pressure level into a closed enumeration.
type Mood string

const (
	MoodCalm     Mood = "CALM"
	MoodUneasy   Mood = "UNEASY"
	MoodStrained Mood = "STRAINED"
	MoodCritical Mood = "CRITICAL"
)

// Trend classifies the recent direction of the pressure level.
type Trend string

const (
	TrendStable  Trend = "STABLE"
	TrendRising  Trend = "RISING"
	TrendFalling Trend = "FALLING"
	TrendSpiking Trend = "SPIKING"
)

// Mood thresholds over the 0-100 pressure scale.
const (
	MoodUneasyThreshold   = 25.0
	MoodStrainedThreshold = 50.0
	MoodCriticalThreshold = 75.0
)

// Driver weights. Locked at the four-driver revision; must sum to 1.0.
const (
	WeightPlayer    = 0.50
	WeightAgent     = 0.25
	WeightInfluence = 0.15
	WeightDrift     = 0.10
)

// Player action deltas (pre-weighting).
const (
	DeltaInteractAgent  = 0.8
	DeltaPickupItem     = 1.5
	DeltaDiscoverRecord = 2.0
	DeltaLinger         = 0.3
	DeltaEnterSensitive = 0.5
)

// Agent event deltas (pre-weighting).
const (
	DeltaAgentInteraction = 0.3
	DeltaAdversarialBonus = 0.5
	DeltaAgentElevated    = 0.8
	DeltaContradiction    = 3.0
)

// TrendWindowSeconds bounds the rolling history used to classify trend.
const TrendWindowSeconds = 60.0

// Clamp bounds a pressure level to [0, 100].
func Clamp(level float64) float64 {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}

// MoodFor maps a pressure level to its mood. Pure step function.
func MoodFor(level float64) Mood {
	switch {
	case level < MoodUneasyThreshold:
		return MoodCalm
	case level < MoodStrainedThreshold:
		return MoodUneasy
	case level < MoodCriticalThreshold:
		return MoodStrained
	default:
		return MoodCritical
	}
}

// TrendFor classifies the net level change over the rolling window.
func TrendFor(netChange float64) Trend {
	switch {
	case netChange > 5:
		return TrendSpiking
	case netChange > 1:
		return TrendRising
	case netChange < -1:
		return TrendFalling
	default:
		return TrendStable
	}
}

// TargetTier maps a raw level to the escalation target tier (0-3).
// The escalation machine uses 60/75/90; the published tier uses ReadyTier.
// Both threshold sets are deliberate source behavior.
func TargetTier(level float64) int {
	switch {
	case level < 60:
		return 0
	case level < 75:
		return 1
	case level < 90:
		return 2
	default:
		return 3
	}
}

// ReadyTier maps a level to the published bleed tier using 75/80/90.
func ReadyTier(level float64) int {
	switch {
	case level < 75:
		return 0
	case level < 80:
		return 1
	case level < 90:
		return 2
	default:
		return 3
	}
}
