package rules

// SwarmFeedbackCap bounds the population feedback contribution per tick,
// expressed in pressure points (5% of the 0-100 range).
const SwarmFeedbackCap = 5.0

// ConfirmFeedback constrains a raw population feedback delta so it can only
// reinforce the authoritative pressure direction, never reverse it.
// Rising admits positive feedback only, falling negative only; a stable
// trend halves whatever is offered. The result is clamped to the cap.
func ConfirmFeedback(raw float64, trend Trend) float64 {
	switch trend {
	case TrendRising, TrendSpiking:
		if raw < 0 {
			return 0
		}
	case TrendFalling:
		if raw > 0 {
			return 0
		}
	default:
		raw /= 2
	}

	if raw > SwarmFeedbackCap {
		return SwarmFeedbackCap
	}
	if raw < -SwarmFeedbackCap {
		return -SwarmFeedbackCap
	}
	return raw
}
