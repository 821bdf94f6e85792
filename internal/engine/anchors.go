package engine

import (
	"fmt"

	"github.com/sablehall/vesper/server/internal/domain/agent"
	"github.com/sablehall/vesper/server/internal/domain/region"
	"github.com/sablehall/vesper/server/internal/domain/rules"
	"github.com/sablehall/vesper/server/internal/platform/logger"
)

// Outcome is the dispatcher's verdict on an attempted action.
type Outcome string

const (
	OutcomeAllow   Outcome = "ALLOW"
	OutcomeBlock   Outcome = "BLOCK"
	OutcomeDegrade Outcome = "DEGRADE"
	OutcomeBreak   Outcome = "BREAK"
)

// ContradictionCooldown is locked: the same region cannot host two breaks
// within this many simulated seconds.
const ContradictionCooldown = 30.0

// BreakRippleMagnitude is the turbulence shock pushed into the origin region
// by a break (half magnitude elsewhere).
const BreakRippleMagnitude = 2.5

// witnessCharismaDivisor converts a witness's charisma into a reaction
// probability.
const witnessCharismaDivisor = 5000.0

// EffectKind tags one intended cascade effect of a dispatch decision.
type EffectKind string

const (
	EffectPressureSpike    EffectKind = "PRESSURE_SPIKE"
	EffectTurbulenceRipple EffectKind = "TURBULENCE_RIPPLE"
	EffectRoutingNoise     EffectKind = "ROUTING_NOISE"
	EffectWitnessReaction  EffectKind = "WITNESS_REACTION"
	EffectRegionCooldown   EffectKind = "REGION_COOLDOWN"
)

// Effect is an intended side effect returned by the dispatcher. The engine
// orchestrator applies effects; the dispatcher never mutates shared state
// beyond the anchor it judged.
type Effect struct {
	Kind        EffectKind
	Magnitude   float64
	RegionID    string
	AgentID     string
	Probability float64 // witness reactions only
}

// Decision is the dispatcher's full answer for one attempted action.
type Decision struct {
	Result          Outcome  `json:"result"`
	BrokenInvariant string   `json:"broken_invariant,omitempty"`
	Message         string   `json:"message"`
	Effects         []Effect `json:"-"`
}

// ActionContext describes the attempted action being judged.
type ActionContext struct {
	AgentID   string
	Action    string
	Invariant string // the "never" rule the action would violate; empty = none
	RegionID  string
}

// ContradictionPayload is the immutable record of a genuine break.
type ContradictionPayload struct {
	AgentID       string  `json:"agent_id"`
	Invariant     string  `json:"invariant"`
	Action        string  `json:"action"`
	RegionID      string  `json:"region_id"`
	PressureLevel float64 `json:"pressure_level"`
	Integrity     float64 `json:"integrity"`
}

// AnchorDispatcher judges attempted agent actions against behavioral
// invariants. It mutates only the anchor under judgment and reports every
// cascade as an intended effect.
type AnchorDispatcher struct {
	logger *logger.Logger
}

// NewAnchorDispatcher creates a dispatcher.
func NewAnchorDispatcher(log *logger.Logger) *AnchorDispatcher {
	return &AnchorDispatcher{logger: log}
}

// Dispatch evaluates one attempted action. Block, degrade and break are
// normal expected outcomes, not errors.
func (d *AnchorDispatcher) Dispatch(a *agent.Agent, ctx ActionContext, reg *region.Microstate, witnesses []*agent.Agent, level, now, dt float64) Decision {
	if ctx.Invariant == "" {
		return Decision{Result: OutcomeAllow, Message: "no invariant implicated"}
	}

	anchor := a.Anchor(ctx.Invariant)
	if anchor == nil {
		return Decision{Result: OutcomeAllow, Message: "invariant not registered"}
	}

	strain := rules.StrainFor(level, a.Power, dt)
	loss := rules.IntegrityLoss(strain, level)
	anchor.ApplyStrain(strain, loss)

	breakEligible := anchor.Integrity < rules.AnchorBreakCutoff && level >= anchor.BreakThreshold

	if breakEligible && reg != nil && !reg.InCooldown(now, ContradictionCooldown) {
		d.logger.Warn("CONTRADICTION: %s breaks '%s' at level %.1f", a.ID, ctx.Invariant, level)

		effects := []Effect{
			{Kind: EffectPressureSpike, Magnitude: rules.BreakSpike(a.Power)},
			{Kind: EffectTurbulenceRipple, Magnitude: BreakRippleMagnitude, RegionID: ctx.RegionID},
			{Kind: EffectRoutingNoise, Magnitude: a.Charisma},
			{Kind: EffectRegionCooldown, RegionID: ctx.RegionID},
		}
		for _, w := range witnesses {
			if w.ID == a.ID {
				continue
			}
			prob := w.Charisma / witnessCharismaDivisor
			if prob <= 0 {
				continue
			}
			if prob > 0.9 {
				prob = 0.9
			}
			effects = append(effects, Effect{
				Kind:        EffectWitnessReaction,
				AgentID:     w.ID,
				RegionID:    w.RegionID,
				Probability: prob,
			})
		}

		return Decision{
			Result:          OutcomeBreak,
			BrokenInvariant: ctx.Invariant,
			Message:         fmt.Sprintf("%s no longer holds to '%s'", a.Name, ctx.Invariant),
			Effects:         effects,
		}
	}

	if anchor.Integrity < rules.AnchorDegradeCutoff {
		return Decision{
			Result:  OutcomeDegrade,
			Message: fmt.Sprintf("%s refuses, but the refusal costs something", a.Name),
		}
	}

	return Decision{
		Result:  OutcomeBlock,
		Message: fmt.Sprintf("%s would never do that", a.Name),
	}
}
