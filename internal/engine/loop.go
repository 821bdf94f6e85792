package engine

import (
	"context"
	"time"

	"github.com/sablehall/vesper/server/internal/platform/logger"
	"github.com/sablehall/vesper/server/internal/platform/metrics"
)

// Loop owns the Core as a single task: it accepts discrete event messages
// over channels and publishes one immutable snapshot per tick. Nothing else
// may touch the Core while the loop runs.
type Loop struct {
	core      *Core
	logger    *logger.Logger
	collector *metrics.Collector
	tickRate  time.Duration
	broadcast func(RenderHints)

	playerCh   chan PlayerAction
	agentCh    chan AgentEvent
	actionCh   chan actionRequest
	moodCh     chan float64
	snapshotCh chan chan Snapshot

	done chan struct{}
}

type actionRequest struct {
	ctx   ActionContext
	dt    float64
	reply chan Decision
}

// NewLoop wraps a core in its owning loop.
func NewLoop(core *Core, log *logger.Logger, collector *metrics.Collector, tickRate time.Duration, broadcast func(RenderHints)) *Loop {
	if broadcast == nil {
		broadcast = func(RenderHints) {}
	}
	return &Loop{
		core:       core,
		logger:     log,
		collector:  collector,
		tickRate:   tickRate,
		broadcast:  broadcast,
		playerCh:   make(chan PlayerAction, 16),
		agentCh:    make(chan AgentEvent, 64),
		actionCh:   make(chan actionRequest, 16),
		moodCh:     make(chan float64, 4),
		snapshotCh: make(chan chan Snapshot),
		done:       make(chan struct{}),
	}
}

// SubmitPlayerAction queues a player input for the next tick.
func (l *Loop) SubmitPlayerAction(a PlayerAction) {
	select {
	case l.playerCh <- a:
	default:
		l.logger.Warn("Player action dropped: queue full")
	}
}

// SubmitAgentEvent queues an agent occurrence for the next tick.
// Contradiction events are rejected here: every genuine contradiction carries
// an immutable event record, which only the dispatcher writes. External
// sources must go through DispatchAction.
func (l *Loop) SubmitAgentEvent(e AgentEvent) {
	if e.Type == AgentContradiction {
		l.logger.Warn("Rejected injected contradiction event for agent %s", e.AgentID)
		return
	}
	select {
	case l.agentCh <- e:
	default:
		l.logger.Warn("Agent event dropped: queue full")
	}
}

// DispatchAction asks the owning loop to judge an attempted action between
// ticks and waits for the decision. A non-positive dt is replaced by the
// loop's tick interval. Once the loop has stopped, callers get an inert
// ALLOW instead of blocking forever.
func (l *Loop) DispatchAction(ctx ActionContext, dt float64) Decision {
	if dt <= 0 {
		dt = l.tickRate.Seconds()
	}
	reply := make(chan Decision, 1)
	select {
	case l.actionCh <- actionRequest{ctx: ctx, dt: dt, reply: reply}:
	case <-l.done:
		return Decision{Result: OutcomeAllow, Message: "simulation stopped"}
	}
	select {
	case decision := <-reply:
		return decision
	case <-l.done:
		// An accepted request always gets its buffered reply before the
		// loop exits; prefer it over the inert fallback.
		select {
		case decision := <-reply:
			return decision
		default:
			return Decision{Result: OutcomeAllow, Message: "simulation stopped"}
		}
	}
}

// Snapshot asks the owning loop for the committed persisted state between
// ticks. The second return is false once the loop has stopped; after that
// the core belongs to whoever stopped it.
func (l *Loop) Snapshot() (Snapshot, bool) {
	reply := make(chan Snapshot, 1)
	select {
	case l.snapshotCh <- reply:
	case <-l.done:
		return Snapshot{}, false
	}
	select {
	case snap := <-reply:
		return snap, true
	case <-l.done:
		select {
		case snap := <-reply:
			return snap, true
		default:
			return Snapshot{}, false
		}
	}
}

// Done is closed when Run returns and the loop no longer owns the core.
func (l *Loop) Done() <-chan struct{} { return l.done }

// ReportSwarmMood forwards the population model's aggregate mood.
func (l *Loop) ReportSwarmMood(irritableFraction float64) {
	select {
	case l.moodCh <- irritableFraction:
	default:
	}
}

// Run drives the simulation until the context is cancelled. Call in a
// goroutine; the loop is the only writer to the core.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("Simulation loop started. The House is listening...")
	defer close(l.done)

	ticker := time.NewTicker(l.tickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Simulation loop stopped by context.")
			return

		case req := <-l.actionCh:
			decision := l.core.DispatchAction(req.ctx, req.dt)
			if decision.Result == OutcomeBreak && l.collector != nil {
				l.collector.Contradictions.Inc()
			}
			req.reply <- decision

		case reply := <-l.snapshotCh:
			reply <- l.core.Snapshot()

		case mood := <-l.moodCh:
			l.core.ReportSwarmMood(mood)

		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			player := l.drainPlayer()
			agentEvents := l.drainAgents()

			started := time.Now()
			hints := l.core.Tick(dt, player, agentEvents)
			elapsed := time.Since(started)

			if l.collector != nil {
				l.collector.TickDuration.Observe(elapsed.Seconds())
				l.collector.PressureLevel.Set(hints.PressureLevel)
				l.collector.BleedTier.Set(float64(hints.BleedTier))
			}
			l.broadcast(hints)
		}
	}
}

// drainPlayer takes at most one queued player action per tick; the rest
// wait for the following ticks.
func (l *Loop) drainPlayer() *PlayerAction {
	select {
	case a := <-l.playerCh:
		return &a
	default:
		return nil
	}
}

func (l *Loop) drainAgents() []AgentEvent {
	var out []AgentEvent
	for {
		select {
		case e := <-l.agentCh:
			out = append(out, e)
		default:
			return out
		}
	}
}
