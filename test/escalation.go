// Package test - escalation.go
// Stress scenario: "The Long Night"
// Validates that the pressure core escalates, breaks and cools exactly as
// the locked constants dictate when a session is pushed end to end.
package test

import (
	"context"
	"fmt"
	"strings"

	"github.com/sablehall/vesper/server/internal/domain/agent"
	"github.com/sablehall/vesper/server/internal/domain/region"
	"github.com/sablehall/vesper/server/internal/domain/rules"
	"github.com/sablehall/vesper/server/internal/engine"
	"github.com/sablehall/vesper/server/internal/events"
	"github.com/sablehall/vesper/server/internal/influence"
	"github.com/sablehall/vesper/server/internal/platform/logger"
)

const tickDt = 0.25 // simulated seconds per scenario tick

// LongNightScenario drives a full session arc against an in-process core.
type LongNightScenario struct {
	core     *engine.Core
	eventLog *events.EventLog
	logger   *logger.Logger
	results  []ScenarioResult
}

// ScenarioResult captures the outcome of each scenario phase.
type ScenarioResult struct {
	PhaseName string
	Expected  string
	Actual    string
	Passed    bool
	Reason    string
}

// NewLongNightScenario creates the scenario harness with a fixed seed so
// every run takes the same stochastic path.
func NewLongNightScenario() *LongNightScenario {
	log := logger.NewLogger()
	el := events.NewEventLog(nil)

	core := engine.NewCore(log, el, influence.NewEmptyCatalog(), 8, 42)
	seedScenarioVenue(core)

	return &LongNightScenario{
		core:     core,
		eventLog: el,
		logger:   log,
		results:  make([]ScenarioResult, 0),
	}
}

// seedScenarioVenue registers a minimal house: three rooms in a line, one
// sensitive, with two agents of very different power.
func seedScenarioVenue(core *engine.Core) {
	rooms := []struct {
		id        string
		neighbors []string
		sensitive bool
	}{
		{"hall", []string{"study"}, false},
		{"study", []string{"hall", "vault"}, false},
		{"vault", []string{"study"}, true},
	}
	for _, r := range rooms {
		reg := region.NewMicrostate(r.id, r.id, r.neighbors)
		reg.Sensitive = r.sensitive
		reg.DriftRate = 1.0
		core.RegisterRegion(reg)
	}

	core.RegisterAgent(
		agent.NewAgent("KEEPER", "The Keeper", "study", 2500, 1500),
		"the vault has never been opened",
	)
	core.RegisterAgent(
		agent.NewAgent("MAID", "The Maid", "hall", 100, 400),
		"I saw nothing that night",
	)
	core.SeedInfluence()
}

// GetResults returns the per-phase outcomes.
func (s *LongNightScenario) GetResults() []ScenarioResult {
	return s.results
}

// RunScenario executes the full arc.
func (s *LongNightScenario) RunScenario(ctx context.Context) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SCENARIO: THE LONG NIGHT")
	fmt.Println(strings.Repeat("=", 60))

	s.phaseQuietHouse()
	s.phaseDiscoverySpree()
	s.phaseSwarmConfirmation()
	s.phaseAgentEscalation()
	s.phaseAnchorBreak()
	s.phaseCooldown()
	s.phaseBounds()
}

// phaseQuietHouse: with no input, the house stays calm.
func (s *LongNightScenario) phaseQuietHouse() {
	for i := 0; i < 40; i++ {
		s.core.Tick(tickDt, nil, nil)
	}

	p := s.core.Pressure()
	passed := p.Mood == rules.MoodCalm && p.Level < rules.MoodUneasyThreshold
	s.record("Quiet house", "mood CALM below 25",
		fmt.Sprintf("mood %s at %.2f", p.Mood, p.Level), passed,
		"ambient drift alone must not wake the house")
}

// phaseDiscoverySpree: fifty archive discoveries drive the level into the
// strained band with a spiking trend.
func (s *LongNightScenario) phaseDiscoverySpree() {
	enter := engine.PlayerAction{Type: engine.PlayerEnterRegion, RegionID: "study"}
	s.core.Tick(tickDt, &enter, nil)

	for i := 0; i < 50; i++ {
		action := engine.PlayerAction{
			Type:           engine.PlayerDiscoverRecord,
			RegionID:       "study",
			TargetEntityID: fmt.Sprintf("RECORD_%02d", i),
		}
		s.core.Tick(tickDt, &action, nil)
	}

	p := s.core.Pressure()
	passed := p.Level >= rules.MoodStrainedThreshold &&
		(p.Trend == rules.TrendSpiking || p.Trend == rules.TrendRising)
	s.record("Discovery spree", "level >= 50 and trend spiking/rising",
		fmt.Sprintf("level %.2f, trend %s", p.Level, p.Trend), passed,
		"each discovery contributes its weighted delta; the window must see the rise")

	resonance := s.core.Region("study").Resonance
	s.record("Discovery resonance", "study resonance >= 50",
		fmt.Sprintf("resonance %.1f", resonance), resonance >= 50,
		"resonance accumulates one point per discovery and never decays")
}

// phaseSwarmConfirmation: a fully irritable population may only add a capped,
// confirming delta.
func (s *LongNightScenario) phaseSwarmConfirmation() {
	before := s.core.Pressure().Level
	s.core.ReportSwarmMood(1.0)
	s.core.Tick(tickDt, nil, nil) // computes feedback for the next tick
	s.core.Tick(tickDt, nil, nil) // applies it
	after := s.core.Pressure().Level

	rise := after - before
	passed := rise >= 0 && rise <= 2*rules.SwarmFeedbackCap+1
	s.record("Swarm confirmation", "bounded non-negative rise",
		fmt.Sprintf("rise %.2f over two ticks", rise), passed,
		"population feedback is capped and confirming-only")
}

// phaseAgentEscalation: adversarial agent churn pushes the level to tier 3
// and starts an active bleed.
func (s *LongNightScenario) phaseAgentEscalation() {
	churn := make([]engine.AgentEvent, 8)
	for i := range churn {
		churn[i] = engine.AgentEvent{Type: engine.AgentContradiction, AgentID: "MAID", RegionID: "hall"}
	}

	for i := 0; i < 200 && s.core.Pressure().Level < 90; i++ {
		s.core.Tick(tickDt, nil, churn)
	}

	b := s.core.Bleed()
	passed := b.State() == engine.BleedActive && b.Tier() == 3 && b.Origin() != ""
	s.record("Agent escalation", "bleed ACTIVE tier 3 with an origin",
		fmt.Sprintf("state %s tier %d origin %q", b.State(), b.Tier(), b.Origin()), passed,
		"crossing 90 must escalate the machine and pin an origin region")
}

// phaseAnchorBreak: hammering the Keeper's invariant at critical pressure
// must eventually produce a genuine contradiction.
func (s *LongNightScenario) phaseAnchorBreak() {
	ctx := engine.ActionContext{
		AgentID:   "KEEPER",
		Action:    "unlock the vault",
		Invariant: "the vault has never been opened",
		RegionID:  "study",
	}

	var broke bool
	for i := 0; i < 300; i++ {
		decision := s.core.DispatchAction(ctx, 2.0)
		if decision.Result == engine.OutcomeBreak {
			broke = true
			break
		}
	}

	contradictions := s.eventLog.ByType(events.EventTypeContradiction)
	passed := broke && len(contradictions) == 1
	s.record("Anchor break", "exactly one logged contradiction",
		fmt.Sprintf("broke=%v, logged=%d", broke, len(contradictions)), passed,
		"sustained strain below 30% integrity at critical pressure must break")
}

// phaseCooldown: the same region cannot host a second break within the
// locked cooldown.
func (s *LongNightScenario) phaseCooldown() {
	ctx := engine.ActionContext{
		AgentID:   "KEEPER",
		Action:    "unlock the vault again",
		Invariant: "the vault has never been opened",
		RegionID:  "study",
	}
	decision := s.core.DispatchAction(ctx, 2.0)

	passed := decision.Result != engine.OutcomeBreak
	s.record("Region cooldown", "no immediate second break",
		fmt.Sprintf("result %s", decision.Result), passed,
		"a region stays contradiction-quiet for 30 simulated seconds")
}

// phaseBounds: after everything, the scalar is still inside its range.
func (s *LongNightScenario) phaseBounds() {
	level := s.core.Pressure().Level
	passed := level >= 0 && level <= 100
	s.record("Pressure bounds", "level within [0,100]",
		fmt.Sprintf("level %.2f", level), passed,
		"the clamp is unconditional")
}

func (s *LongNightScenario) record(phase, expected, actual string, passed bool, reason string) {
	status := "PASS"
	if !passed {
		status = "FAIL"
	}
	fmt.Printf("  [%s] %-20s expected: %s | actual: %s\n", status, phase, expected, actual)

	s.results = append(s.results, ScenarioResult{
		PhaseName: phase,
		Expected:  expected,
		Actual:    actual,
		Passed:    passed,
		Reason:    reason,
	})
}
