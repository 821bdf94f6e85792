// Package storage provides the persistence layer for the venue server:
// one flat session snapshot plus the immutable event ledger, in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/sablehall/vesper/server/internal/engine"
	"github.com/sablehall/vesper/server/internal/events"
	"github.com/sablehall/vesper/server/internal/platform/metrics"
)

// Store wraps a SQLite connection for session persistence.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates the database at the given path and migrates it.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshot (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		data TEXT NOT NULL,
		saved_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		timestamp TIMESTAMP NOT NULL,
		sim_time REAL NOT NULL,
		event_type TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		region_id TEXT NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// SaveSnapshot upserts the single flat session snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snap engine.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO snapshot (id, data, saved_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data=excluded.data, saved_at=excluded.saved_at
	`
	if _, err := s.conn.ExecContext(ctx, query, string(data), time.Now()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot retrieves the stored snapshot. The second return is false
// when no snapshot exists (fresh session). Unknown JSON fields from newer
// writers are ignored; absent fields keep their zero defaults.
func (s *Store) LoadSnapshot(ctx context.Context) (engine.Snapshot, bool, error) {
	var data string
	err := s.conn.GetContext(ctx, &data, `SELECT data FROM snapshot WHERE id = 1`)
	if err == sql.ErrNoRows {
		return engine.Snapshot{}, false, nil
	}
	if err != nil {
		return engine.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	var snap engine.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return engine.Snapshot{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, true, nil
}

// AppendEvent writes one immutable event to the ledger.
func (s *Store) AppendEvent(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, timestamp, sim_time, event_type, actor_id, region_id, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := s.conn.ExecContext(ctx, query,
		event.ID, event.Timestamp, event.SimTime, string(event.Type),
		event.ActorID, event.RegionID, string(payload),
	); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// eventRow is the sqlx scan target for the events table.
type eventRow struct {
	ID        string    `db:"id"`
	Timestamp time.Time `db:"timestamp"`
	SimTime   float64   `db:"sim_time"`
	Type      string    `db:"event_type"`
	ActorID   string    `db:"actor_id"`
	RegionID  string    `db:"region_id"`
	Payload   string    `db:"payload"`
}

// EventsByType retrieves stored events of one type, oldest first.
func (s *Store) EventsByType(ctx context.Context, t events.EventType) ([]events.Event, error) {
	var rows []eventRow
	if err := s.conn.SelectContext(ctx, &rows,
		`SELECT id, timestamp, sim_time, event_type, actor_id, region_id, payload FROM events WHERE event_type = ? ORDER BY sim_time ASC`,
		string(t)); err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	result := make([]events.Event, 0, len(rows))
	for _, row := range rows {
		e := events.Event{
			ID:        row.ID,
			Timestamp: row.Timestamp,
			SimTime:   row.SimTime,
			Type:      events.EventType(row.Type),
			ActorID:   row.ActorID,
			RegionID:  row.RegionID,
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal([]byte(row.Payload), &decoded); err == nil {
			e.Payload = decoded
		}
		result = append(result, e)
	}
	return result, nil
}

// Persister adapts the store to the event log's write-through interface.
type Persister struct {
	store     *Store
	collector *metrics.Collector
}

// NewPersister creates a write-through event persister. The collector is
// optional; when present, every durable append is counted.
func NewPersister(store *Store, collector *metrics.Collector) *Persister {
	return &Persister{store: store, collector: collector}
}

// Append implements events.EventPersister.
func (p *Persister) Append(event events.Event) error {
	if err := p.store.AppendEvent(context.Background(), event); err != nil {
		return err
	}
	if p.collector != nil {
		p.collector.EventsWritten.Inc()
	}
	return nil
}
