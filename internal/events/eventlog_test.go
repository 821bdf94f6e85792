package events

import (
	"sync"
	"testing"
	"time"
)

func appendN(el *EventLog, t EventType, n int) {
	for i := 0; i < n; i++ {
		el.Append(Event{
			ID:        GenerateEventID(),
			Timestamp: time.Now(),
			SimTime:   float64(i),
			Type:      t,
			ActorID:   "TEST",
		})
	}
}

func TestByTypeFiltersAndPreservesOrder(t *testing.T) {
	el := NewEventLog(nil)
	appendN(el, EventTypeDiscovery, 3)
	appendN(el, EventTypeContradiction, 2)

	discoveries := el.ByType(EventTypeDiscovery)
	if len(discoveries) != 3 {
		t.Fatalf("Expected 3 discoveries, got %d", len(discoveries))
	}
	for i, e := range discoveries {
		if e.SimTime != float64(i) {
			t.Errorf("Expected oldest-first order, got sim time %.1f at index %d", e.SimTime, i)
		}
	}
	if el.Len() != 5 {
		t.Errorf("Expected 5 events total, got %d", el.Len())
	}
}

func TestTailByTypeBoundsTheWindow(t *testing.T) {
	el := NewEventLog(nil)
	appendN(el, EventTypeDiscovery, 120)

	tail := el.TailByType(EventTypeDiscovery, 100)
	if len(tail) != 100 {
		t.Fatalf("Expected the tail bounded to 100, got %d", len(tail))
	}
	if tail[0].SimTime != 20 {
		t.Errorf("Expected the tail to start at the 21st event, got sim time %.1f", tail[0].SimTime)
	}

	short := el.TailByType(EventTypeContradiction, 50)
	if len(short) != 0 {
		t.Errorf("Expected an empty tail for an absent type, got %d", len(short))
	}
}

// countingPersister records write-through calls.
type countingPersister struct {
	mu    sync.Mutex
	count int
	done  chan struct{}
}

func (p *countingPersister) Append(event Event) error {
	p.mu.Lock()
	p.count++
	p.mu.Unlock()
	p.done <- struct{}{}
	return nil
}

func TestAppendWritesThroughToPersister(t *testing.T) {
	p := &countingPersister{done: make(chan struct{}, 1)}
	el := NewEventLog(p)

	el.Append(Event{ID: "E1", Type: EventTypeDiscovery})

	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected the persister to receive the event")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.count != 1 {
		t.Errorf("Expected one persisted event, got %d", p.count)
	}
}
