package engine

import "github.com/sablehall/vesper/server/internal/domain/rules"

// pressureSample is one point of the rolling trend history.
type pressureSample struct {
	at    float64 // simulated seconds
	level float64
}

// PressureState is the single global scalar summarizing venue instability,
// plus its derived classifications. Owned exclusively by the simulation
// core; mutated only inside the tick function.
type PressureState struct {
	Level     float64
	Mood      rules.Mood
	Trend     rules.Trend
	BleedTier int // published tier, from the 75/80/90 set

	history []pressureSample
}

// NewPressureState starts a calm session.
func NewPressureState() *PressureState {
	return &PressureState{
		Mood:  rules.MoodCalm,
		Trend: rules.TrendStable,
	}
}

// Apply adds a delta to the level, clamps, records the sample, and
// reclassifies trend, mood and tier.
func (p *PressureState) Apply(delta, now float64) {
	p.Level = rules.Clamp(p.Level + delta)
	p.record(now)
	p.reclassify()
}

// Spike applies an immediate pressure jump (anchor break cascade).
func (p *PressureState) Spike(amount, now float64) {
	p.Apply(amount, now)
}

// SetLevel overwrites the level directly (restore path only).
func (p *PressureState) SetLevel(level float64) {
	p.Level = rules.Clamp(level)
	p.history = nil
	p.reclassify()
	p.Trend = rules.TrendStable
}

func (p *PressureState) record(now float64) {
	p.history = append(p.history, pressureSample{at: now, level: p.Level})

	// Prune samples older than the trend window.
	cutoff := now - rules.TrendWindowSeconds
	i := 0
	for i < len(p.history) && p.history[i].at < cutoff {
		i++
	}
	p.history = p.history[i:]
}

func (p *PressureState) reclassify() {
	p.Mood = rules.MoodFor(p.Level)
	p.BleedTier = rules.ReadyTier(p.Level)

	if len(p.history) < 2 {
		p.Trend = rules.TrendStable
		return
	}
	net := p.history[len(p.history)-1].level - p.history[0].level
	p.Trend = rules.TrendFor(net)
}
