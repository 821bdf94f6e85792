package engine

import (
	"testing"

	"github.com/sablehall/vesper/server/internal/domain/agent"
	"github.com/sablehall/vesper/server/internal/domain/region"
	"github.com/sablehall/vesper/server/internal/platform/logger"
)

const testInvariant = "the vault has never been opened"

func dispatcherFixture() (*AnchorDispatcher, *agent.Agent, *region.Microstate) {
	d := NewAnchorDispatcher(logger.NewLogger())
	a := agent.NewAgent("KEEPER", "The Keeper", "study", 0, 1000)
	a.RegisterInvariants(testInvariant)
	reg := region.NewMicrostate("study", "study", []string{"hall"})
	return d, a, reg
}

func TestDispatchAllowsUnimplicatedActions(t *testing.T) {
	d, a, reg := dispatcherFixture()

	decision := d.Dispatch(a, ActionContext{AgentID: a.ID, Action: "pour tea"}, reg, nil, 80, 0, 0.25)
	if decision.Result != OutcomeAllow {
		t.Errorf("Expected ALLOW without an invariant, got %s", decision.Result)
	}

	decision = d.Dispatch(a, ActionContext{AgentID: a.ID, Invariant: "unregistered rule"}, reg, nil, 80, 0, 0.25)
	if decision.Result != OutcomeAllow {
		t.Errorf("Expected ALLOW for an unregistered invariant, got %s", decision.Result)
	}
}

func TestDispatchBlocksWhileIntact(t *testing.T) {
	d, a, reg := dispatcherFixture()

	decision := d.Dispatch(a, ActionContext{AgentID: a.ID, Invariant: testInvariant}, reg, nil, 40, 0, 0.25)
	if decision.Result != OutcomeBlock {
		t.Errorf("Expected BLOCK at calm pressure, got %s", decision.Result)
	}
	if got := a.Anchor(testInvariant).Integrity; got != 100 {
		t.Errorf("Expected no erosion at level 40, got %.2f", got)
	}
}

func TestDispatchDegradesWornAnchor(t *testing.T) {
	d, a, reg := dispatcherFixture()
	a.Anchor(testInvariant).Integrity = 65

	decision := d.Dispatch(a, ActionContext{AgentID: a.ID, Invariant: testInvariant}, reg, nil, 40, 0, 0.25)
	if decision.Result != OutcomeDegrade {
		t.Errorf("Expected DEGRADE below 70%% integrity, got %s", decision.Result)
	}
}

func TestBreakRequiresBothConditions(t *testing.T) {
	d, a, reg := dispatcherFixture()

	// Integrity critical but pressure below the threshold: no break.
	a.Anchor(testInvariant).Integrity = 10
	decision := d.Dispatch(a, ActionContext{AgentID: a.ID, Invariant: testInvariant, RegionID: "study"}, reg, nil, 60, 100, 0.25)
	if decision.Result == OutcomeBreak {
		t.Errorf("Expected no break below the break threshold, got %s", decision.Result)
	}

	// Pressure high but integrity above the cutoff: no break.
	a.Anchor(testInvariant).Integrity = 45
	decision = d.Dispatch(a, ActionContext{AgentID: a.ID, Invariant: testInvariant, RegionID: "study"}, reg, nil, 90, 100, 0.25)
	if decision.Result == OutcomeBreak {
		t.Errorf("Expected no break above 30%% integrity, got %s", decision.Result)
	}

	// Both conditions met: break.
	a.Anchor(testInvariant).Integrity = 10
	decision = d.Dispatch(a, ActionContext{AgentID: a.ID, Invariant: testInvariant, RegionID: "study"}, reg, nil, 90, 100, 0.25)
	if decision.Result != OutcomeBreak {
		t.Errorf("Expected BREAK, got %s", decision.Result)
	}
	if decision.BrokenInvariant != testInvariant {
		t.Errorf("Expected the broken invariant reported, got %q", decision.BrokenInvariant)
	}
}

func TestBreakEffectCascade(t *testing.T) {
	d, a, reg := dispatcherFixture()
	a.Anchor(testInvariant).Integrity = 5

	witness := agent.NewAgent("MAID", "The Maid", "hall", 100, 400)
	bystander := agent.NewAgent("MUTE", "The Mute", "hall", 100, 0) // zero charisma never reacts

	decision := d.Dispatch(a, ActionContext{AgentID: a.ID, Invariant: testInvariant, RegionID: "study"},
		reg, []*agent.Agent{a, witness, bystander}, 90, 100, 0.25)
	if decision.Result != OutcomeBreak {
		t.Fatalf("Expected BREAK, got %s", decision.Result)
	}

	kinds := make(map[EffectKind]int)
	for _, eff := range decision.Effects {
		kinds[eff.Kind]++
	}
	if kinds[EffectPressureSpike] != 1 {
		t.Errorf("Expected one pressure spike effect, got %d", kinds[EffectPressureSpike])
	}
	if kinds[EffectTurbulenceRipple] != 1 {
		t.Errorf("Expected one turbulence ripple effect, got %d", kinds[EffectTurbulenceRipple])
	}
	if kinds[EffectRoutingNoise] != 1 {
		t.Errorf("Expected one routing noise effect, got %d", kinds[EffectRoutingNoise])
	}
	if kinds[EffectRegionCooldown] != 1 {
		t.Errorf("Expected one region cooldown effect, got %d", kinds[EffectRegionCooldown])
	}
	// The actor and the zero-charisma bystander must not appear as witnesses.
	if kinds[EffectWitnessReaction] != 1 {
		t.Errorf("Expected exactly one witness reaction, got %d", kinds[EffectWitnessReaction])
	}
	for _, eff := range decision.Effects {
		if eff.Kind == EffectWitnessReaction && eff.AgentID != "MAID" {
			t.Errorf("Expected the Maid as the reacting witness, got %s", eff.AgentID)
		}
	}
}

func TestRegionCooldownSuppressesBreak(t *testing.T) {
	d, a, reg := dispatcherFixture()
	a.Anchor(testInvariant).Integrity = 5
	reg.LastContradiction = 95 // 5 simulated seconds ago

	decision := d.Dispatch(a, ActionContext{AgentID: a.ID, Invariant: testInvariant, RegionID: "study"}, reg, nil, 90, 100, 0.25)
	if decision.Result == OutcomeBreak {
		t.Errorf("Expected the cooldown to suppress the break, got %s", decision.Result)
	}

	reg.LastContradiction = 60 // 40 seconds ago: window elapsed
	decision = d.Dispatch(a, ActionContext{AgentID: a.ID, Invariant: testInvariant, RegionID: "study"}, reg, nil, 90, 100, 0.25)
	if decision.Result != OutcomeBreak {
		t.Errorf("Expected a break once the cooldown elapsed, got %s", decision.Result)
	}
}
