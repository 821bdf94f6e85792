// Package events provides the append-only record of the simulation.
// Contradictions and escalations are immutable once logged; the history is
// the authoritative replay/debugging trail.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a simulation event.
type EventType string

const (
	EventTypeContradiction EventType = "CONTRADICTION"
	EventTypeBleedStart    EventType = "BLEED_START"
	EventTypeBleedTier     EventType = "BLEED_TIER_CHANGE"
	EventTypeBleedWinddown EventType = "BLEED_WINDDOWN"
	EventTypeBleedOff      EventType = "BLEED_OFF"
	EventTypeDiscovery     EventType = "DISCOVERY"
	EventTypeAnchorReset   EventType = "ANCHOR_RESET"
)

// Event is an immutable record of a simulation occurrence. Never mutated
// after creation.
type Event struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	SimTime   float64     `json:"sim_time"` // simulated seconds since session start
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`  // agent or SYSTEM_* source
	RegionID  string      `json:"region_id"` // origin region (optional)
	Payload   interface{} `json:"payload"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event Event) error
}

// EventLog is the in-memory append-only log. Bounded on save, not on append.
type EventLog struct {
	mu        sync.RWMutex
	events    []Event
	persister EventPersister
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]Event, 0),
		persister: persister,
	}
}

// Append adds a new event to the log. Events are immutable once appended.
func (el *EventLog) Append(event Event) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.events = append(el.events, event)

	if el.persister != nil {
		// Write through to durable storage off the tick path.
		go func(e Event) {
			_ = el.persister.Append(e)
		}(event)
	}
}

// Replay returns the full history of events for state reconstruction.
func (el *EventLog) Replay() []Event {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.events
}

// ByType returns all events of one type, oldest first.
func (el *EventLog) ByType(t EventType) []Event {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []Event
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// TailByType returns the most recent n events of one type, oldest first.
// Used to bound the persisted history window on save.
func (el *EventLog) TailByType(t EventType, n int) []Event {
	all := el.ByType(t)
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// Len reports the number of events appended so far.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
