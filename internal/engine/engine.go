// Package engine contains the ambient-pressure simulation core.
// This is the heartbeat of Vesper House.
//
// ARCHITECTURAL RULE: the Core owns its state exclusively. Every mutation
// happens inside Tick or an explicit narrative call between ticks; readers
// only ever see the committed RenderHints snapshot.
package engine

import (
	"math/rand"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/sablehall/vesper/server/internal/domain/agent"
	"github.com/sablehall/vesper/server/internal/domain/region"
	"github.com/sablehall/vesper/server/internal/domain/rules"
	"github.com/sablehall/vesper/server/internal/events"
	"github.com/sablehall/vesper/server/internal/influence"
	"github.com/sablehall/vesper/server/internal/platform/logger"
)

// Pressure driver tuning. Driver values are pre-weighting; the locked
// weights in rules scale them into the final delta.
const (
	lingerThreshold     = 10.0  // seconds before lingering starts to register
	influenceScale      = 0.05  // region influence aggregate -> driver
	charismaBonusScale  = 0.01  // interacted entity charisma -> driver
	driftJitterAmp      = 0.8   // peak-to-peak jitter of the ambient driver
	driftBias           = 0.15  // tiny constant upward bias; never perfectly static
	driftNoiseFrequency = 0.13
	witnessTurbulence   = 1.0 // turbulence bump in a reacting witness's region
)

// Core is the single-owner simulation state. Reentrant-unsafe by design:
// a tick runs to completion before the next external event is accepted.
type Core struct {
	logger     *logger.Logger
	eventLog   *events.EventLog
	influences influence.Index
	rng        *rand.Rand
	drift      opensimplex.Noise

	simTime   float64
	tickCount int64

	pressure   *PressureState
	sampler    PressureSampler
	regions    map[string]*region.Microstate
	router     *AdjacencyRouter
	bleed      *Bleed
	dispatcher *AnchorDispatcher
	swarm      *PopulationFeedback
	agents     map[string]*agent.Agent

	playerRegion string
	lingerTime   float64

	// queued witness reactions applied as agent events on the next tick
	pendingAgentEvents []AgentEvent
	pendingFeedback    float64

	bleedThresholdReached bool
	playtime              float64
	sessionCount          int

	lastHints RenderHints
}

// NewCore wires up the simulation. The seed makes every stochastic path
// (drift, routing noise, witness rolls) reproducible.
func NewCore(log *logger.Logger, eventLog *events.EventLog, idx influence.Index, routerCadence int, seed int64) *Core {
	c := &Core{
		logger:       log,
		eventLog:     eventLog,
		influences:   idx,
		rng:          rand.New(rand.NewSource(seed)),
		drift:        opensimplex.NewNormalized(seed),
		pressure:     NewPressureState(),
		regions:      make(map[string]*region.Microstate),
		bleed:        NewBleed(eventLog, log),
		dispatcher:   NewAnchorDispatcher(log),
		swarm:        &PopulationFeedback{},
		agents:       make(map[string]*agent.Agent),
		sessionCount: 1,
	}
	c.router = NewAdjacencyRouter(routerCadence, nil, log)
	return c
}

// RegisterRegion adds a region to the registry.
func (c *Core) RegisterRegion(reg *region.Microstate) {
	c.regions[reg.ID] = reg
}

// RegisterAgent adds an agent and lazily creates anchors for its invariants.
func (c *Core) RegisterAgent(a *agent.Agent, invariants ...string) {
	a.RegisterInvariants(invariants...)
	c.agents[a.ID] = a
	c.logger.Info("Agent registered with the House: %s (%d invariants)", a.ID, len(a.Anchors))
}

// SeedInfluence pulls baselines from the influence index. Call after all
// regions are registered.
func (c *Core) SeedInfluence() {
	c.refreshRegionInfluence()
}

// Pressure returns the committed level (for tests and narrative checks).
func (c *Core) Pressure() *PressureState { return c.pressure }

// PressureAt returns the interpolated level at off-tick time t.
func (c *Core) PressureAt(t float64) float64 { return c.sampler.LevelAt(t) }

// SimTime returns the simulated seconds elapsed this session.
func (c *Core) SimTime() float64 { return c.simTime }

// Region exposes one microstate for narrative inspection.
func (c *Core) Region(id string) *region.Microstate { return c.regions[id] }

// Bleed exposes the escalation machine state.
func (c *Core) Bleed() *Bleed { return c.bleed }

// ReportSwarmMood feeds the population model's aggregate mood for the next
// tick's feedback computation.
func (c *Core) ReportSwarmMood(irritableFraction float64) {
	c.swarm.Report(irritableFraction)
}

// Tick advances the simulation by dt seconds and publishes a snapshot.
// A negative dt is clamped to zero rather than corrupting state, and no
// failure may escape: a degraded tick returns the last committed snapshot.
func (c *Core) Tick(dt float64, player *PlayerAction, agentEvents []AgentEvent) (hints RenderHints) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Tick aborted, returning last committed snapshot: %v", r)
			hints = c.lastHints
		}
	}()

	if dt < 0 {
		c.logger.Warn("Negative dt %.3f clamped to zero", dt)
		dt = 0
	}

	c.simTime += dt
	c.playtime += dt
	c.tickCount++

	// Queued witness reactions from last tick's contradictions join this
	// tick's agent events.
	if len(c.pendingAgentEvents) > 0 {
		agentEvents = append(agentEvents, c.pendingAgentEvents...)
		c.pendingAgentEvents = nil
	}

	playerDriver := c.playerDriver(player, dt)
	agentDriver := c.agentDriver(agentEvents)
	influenceDriver := c.influenceDriver(player)
	driftDriver := c.driftDriver()

	delta := playerDriver*rules.WeightPlayer +
		agentDriver*rules.WeightAgent +
		influenceDriver*rules.WeightInfluence +
		driftDriver*rules.WeightDrift +
		c.pendingFeedback
	c.pendingFeedback = 0

	c.pressure.Apply(delta, c.simTime)
	if c.pressure.BleedTier > 0 {
		c.bleedThresholdReached = true
	}

	c.relaxRegions(dt)
	c.router.Tick(c.regions)
	c.bleed.Update(c.simTime, dt, c.pressure.Level, c.regions)

	// Population feedback for the NEXT tick, sign-locked to this tick's trend.
	c.pendingFeedback = c.swarm.Compute(c.pressure.Trend)

	c.sampler.Commit(c.simTime, c.pressure.Level)
	hints = c.buildHints()
	c.lastHints = hints
	return hints
}

// playerDriver sums the flat per-action increments plus linger accrual.
func (c *Core) playerDriver(action *PlayerAction, dt float64) float64 {
	var driver float64

	if action != nil {
		switch action.Type {
		case PlayerInteractAgent:
			driver += rules.DeltaInteractAgent
		case PlayerPickupItem:
			driver += rules.DeltaPickupItem
		case PlayerDiscoverRecord:
			driver += rules.DeltaDiscoverRecord
			c.recordDiscovery(action)
		case PlayerEnterRegion:
			c.movePlayer(action.RegionID)
			if reg := c.regions[action.RegionID]; reg != nil && reg.Sensitive {
				driver += rules.DeltaEnterSensitive
			}
		}
	}

	// Lingering in a sensitive region beyond the threshold keeps feeding in.
	if reg := c.regions[c.playerRegion]; reg != nil && reg.Sensitive {
		c.lingerTime += dt
		if c.lingerTime > lingerThreshold {
			driver += rules.DeltaLinger
		}
	}

	return driver
}

func (c *Core) movePlayer(regionID string) {
	if regionID == "" || regionID == c.playerRegion {
		return
	}
	if old := c.regions[c.playerRegion]; old != nil && old.OccupantDensity > 0 {
		old.OccupantDensity -= 1
	}
	if next := c.regions[regionID]; next != nil {
		next.OccupantDensity += 1
	}
	c.playerRegion = regionID
	c.lingerTime = 0
}

func (c *Core) recordDiscovery(action *PlayerAction) {
	if reg := c.regions[action.RegionID]; reg != nil {
		reg.AddResonance(1.0)
	}
	c.eventLog.Append(events.Event{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		SimTime:   c.simTime,
		Type:      events.EventTypeDiscovery,
		ActorID:   "PLAYER",
		RegionID:  action.RegionID,
		Payload:   map[string]string{"entity_id": action.TargetEntityID},
	})
}

// agentDriver sums the autonomous-agent contributions. Contradiction events
// reach a running server only through the orchestrator's queue (the loop
// rejects injected ones), so they are already logged when they land here.
func (c *Core) agentDriver(agentEvents []AgentEvent) float64 {
	var driver float64
	for _, ev := range agentEvents {
		switch ev.Type {
		case AgentInteraction:
			driver += rules.DeltaAgentInteraction
			if ev.Adversarial {
				driver += rules.DeltaAdversarialBonus
			}
		case AgentElevated:
			driver += rules.DeltaAgentElevated
			if a := c.agents[ev.AgentID]; a != nil {
				a.Elevated = true
			}
		case AgentContradiction:
			driver += rules.DeltaContradiction
		}
	}
	return driver
}

// influenceDriver scales the current region's aggregate plus a bonus for
// the charisma of any entity directly interacted with.
func (c *Core) influenceDriver(action *PlayerAction) float64 {
	var driver float64
	if reg := c.regions[c.playerRegion]; reg != nil {
		driver += reg.InfluenceAggregate * influenceScale
	}
	if action != nil && action.TargetEntityID != "" {
		driver += c.influences.EntityCharisma(action.TargetEntityID) * charismaBonusScale
	}
	return driver
}

// driftDriver is a smooth seeded jitter plus a tiny upward bias so the
// level never sits perfectly static.
func (c *Core) driftDriver() float64 {
	n := c.drift.Eval2(c.simTime*driftNoiseFrequency, 0.5) // [0,1]
	return (n-0.5)*driftJitterAmp + driftBias
}

// DispatchAction judges an attempted agent action against its invariants
// and, on a break, applies the returned cascade through the orchestrator.
// Call between ticks; the core is single-owner.
func (c *Core) DispatchAction(ctx ActionContext, dt float64) Decision {
	a := c.agents[ctx.AgentID]
	if a == nil {
		return Decision{Result: OutcomeAllow, Message: "unknown agent"}
	}
	if ctx.RegionID == "" {
		ctx.RegionID = a.RegionID
	}
	reg := c.regions[ctx.RegionID]

	witnesses := c.witnessesNear(ctx.RegionID)
	decision := c.dispatcher.Dispatch(a, ctx, reg, witnesses, c.pressure.Level, c.simTime, dt)

	if decision.Result == OutcomeBreak {
		c.applyEffects(a, ctx, decision)
	}
	return decision
}

// witnessesNear returns agents in the region or its neighbors.
func (c *Core) witnessesNear(regionID string) []*agent.Agent {
	nearby := map[string]bool{regionID: true}
	if reg := c.regions[regionID]; reg != nil {
		for _, n := range reg.Neighbors {
			nearby[n] = true
		}
	}
	var result []*agent.Agent
	for _, a := range c.agents {
		if nearby[a.RegionID] {
			result = append(result, a)
		}
	}
	return result
}

// applyEffects is the single orchestrator for contradiction cascades.
// Ordering is fixed here, independent of the dispatcher's internals.
func (c *Core) applyEffects(a *agent.Agent, ctx ActionContext, decision Decision) {
	for _, eff := range decision.Effects {
		switch eff.Kind {
		case EffectPressureSpike:
			c.pressure.Spike(eff.Magnitude, c.simTime)
		case EffectTurbulenceRipple:
			c.rippleTurbulence(eff.RegionID, eff.Magnitude)
		case EffectRoutingNoise:
			c.router.InjectNoise(c.regions, eff.Magnitude, c.rng)
		case EffectRegionCooldown:
			if reg := c.regions[eff.RegionID]; reg != nil {
				reg.LastContradiction = c.simTime
			}
		case EffectWitnessReaction:
			if c.rng.Float64() < eff.Probability {
				if reg := c.regions[eff.RegionID]; reg != nil {
					reg.Turbulence += witnessTurbulence
					reg.ClampTurbulence()
				}
				c.pendingAgentEvents = append(c.pendingAgentEvents, AgentEvent{
					Type:     AgentElevated,
					AgentID:  eff.AgentID,
					RegionID: eff.RegionID,
				})
			}
		}
	}

	anchor := a.Anchor(ctx.Invariant)
	integrity := 0.0
	if anchor != nil {
		integrity = anchor.Integrity
	}
	c.eventLog.Append(events.Event{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		SimTime:   c.simTime,
		Type:      events.EventTypeContradiction,
		ActorID:   a.ID,
		RegionID:  ctx.RegionID,
		Payload: ContradictionPayload{
			AgentID:       a.ID,
			Invariant:     ctx.Invariant,
			Action:        ctx.Action,
			RegionID:      ctx.RegionID,
			PressureLevel: c.pressure.Level,
			Integrity:     integrity,
		},
	})
	c.logger.Event("CONTRADICTION", a.ID, "Invariant:"+ctx.Invariant+" | Region:"+ctx.RegionID)

	// The contradiction itself feeds the agent driver on the next tick.
	c.pendingAgentEvents = append(c.pendingAgentEvents, AgentEvent{
		Type:     AgentContradiction,
		AgentID:  a.ID,
		RegionID: ctx.RegionID,
	})
}

// ResetAnchor restores an anchor to full integrity. Narrative action; the
// only path by which integrity may rise.
func (c *Core) ResetAnchor(agentID, invariant string) bool {
	a := c.agents[agentID]
	if a == nil {
		return false
	}
	anchor := a.Anchor(invariant)
	if anchor == nil {
		return false
	}
	anchor.Reset()
	c.eventLog.Append(events.Event{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		SimTime:   c.simTime,
		Type:      events.EventTypeAnchorReset,
		ActorID:   agentID,
		Payload:   map[string]string{"invariant": invariant},
	})
	return true
}

// RegisterRoutingOverride installs a narrative routing override.
func (c *Core) RegisterRoutingOverride(source, target string, probability float64, ttlTicks int, reason string) {
	c.router.AddOverride(c.regions, region.RoutingOverride{
		Source:      source,
		Target:      target,
		Probability: probability,
		TTL:         ttlTicks,
		Reason:      reason,
	})
}
