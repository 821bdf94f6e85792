package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sablehall/vesper/server/internal/engine"
	"github.com/sablehall/vesper/server/internal/events"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "vesper.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadSnapshotFreshDatabase(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("Expected no error on a fresh database, got %v", err)
	}
	if found {
		t.Error("Expected no snapshot in a fresh database")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap := engine.Snapshot{
		Version:         1,
		Level:           62.5,
		PlaytimeSeconds: 900,
		SessionCount:    2,
	}
	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	// A second save must upsert, not duplicate.
	snap.Level = 70
	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("Failed to re-save: %v", err)
	}

	loaded, found, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if !found {
		t.Fatal("Expected a stored snapshot")
	}
	if loaded.Level != 70 {
		t.Errorf("Expected the latest level 70, got %.1f", loaded.Level)
	}
	if loaded.SessionCount != 2 || loaded.PlaytimeSeconds != 900 {
		t.Errorf("Expected session fields preserved, got %+v", loaded)
	}
}

func TestEventLedgerRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := events.Event{
		ID:        "E1",
		Timestamp: time.Now(),
		SimTime:   12.5,
		Type:      events.EventTypeContradiction,
		ActorID:   "KEEPER",
		RegionID:  "study",
		Payload:   map[string]string{"invariant": "the vault has never been opened"},
	}
	if err := s.AppendEvent(ctx, e); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}

	earlier := events.Event{
		ID:        "E0",
		Timestamp: time.Now(),
		SimTime:   3.0,
		Type:      events.EventTypeContradiction,
		ActorID:   "MAID",
		RegionID:  "hall",
		Payload:   map[string]string{"invariant": "I saw nothing that night"},
	}
	if err := s.AppendEvent(ctx, earlier); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}

	stored, err := s.EventsByType(ctx, events.EventTypeContradiction)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("Expected two contradictions, got %d", len(stored))
	}
	if stored[0].ID != "E0" || stored[1].ID != "E1" {
		t.Errorf("Expected oldest-first order E0,E1, got %s,%s", stored[0].ID, stored[1].ID)
	}
	if stored[1].RegionID != "study" || stored[1].SimTime != 12.5 {
		t.Errorf("Expected the stored event back, got %+v", stored[1])
	}

	other, err := s.EventsByType(ctx, events.EventTypeDiscovery)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no discoveries, got %d", len(other))
	}
}

func TestPersisterImplementsEventPersister(t *testing.T) {
	s := openTestStore(t)

	var p events.EventPersister = NewPersister(s, nil)
	if err := p.Append(events.Event{ID: "E2", Timestamp: time.Now(), Type: events.EventTypeDiscovery}); err != nil {
		t.Fatalf("Expected write-through append to succeed, got %v", err)
	}
}
