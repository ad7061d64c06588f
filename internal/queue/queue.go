package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Action is the mutation verb carried by a queue item.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entity names the collection a queued mutation targets.
type Entity string

const (
	EntityExercise        Entity = "exercise"
	EntityWorkout         Entity = "workout"
	EntityWorkoutExercise Entity = "workout_exercise"
	EntitySet             Entity = "set"
	EntityTemplate        Entity = "template"
	EntityPersonalRecord  Entity = "personal_record"
)

// Item is one mutation awaiting remote confirmation. Payloads carry
// client-generated UUIDs, so replaying an item twice cannot create duplicate
// remote entities.
type Item struct {
	pos        int64
	ID         uuid.UUID       `json:"id"`
	Action     Action          `json:"action"`
	Entity     Entity          `json:"entity"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Dispatcher applies a single queue item against the remote store. The
// session store provides the implementation mapping (action, entity) to the
// matching gateway call.
type Dispatcher interface {
	Dispatch(ctx context.Context, item Item) error
}

// FlushStats summarizes one flush pass.
type FlushStats struct {
	Replayed int
	Requeued int
}

// Manager is a durable FIFO of pending mutations, persisted in a local
// SQLite database so the queue survives process restarts. All methods are
// safe for concurrent use; Flush processes items strictly serially.
type Manager struct {
	mu  sync.Mutex
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the queue database at dir/queue.db and reconciles
// leftovers from a previous run: items marked synced but not yet removed are
// dropped (their replay was already confirmed).
func Open(dir string, log *slog.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating queue dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "queue.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening queue db: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS queue_items (
			pos         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT NOT NULL,
			action      TEXT NOT NULL,
			entity      TEXT NOT NULL,
			payload     TEXT NOT NULL,
			enqueued_at TIMESTAMP NOT NULL,
			synced      INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS prefs (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating queue tables: %w", err)
		}
	}

	// A crash between "mark synced" and "delete" leaves confirmed rows behind.
	if _, err := db.Exec(`DELETE FROM queue_items WHERE synced = 1`); err != nil {
		db.Close()
		return nil, fmt.Errorf("pruning synced items: %w", err)
	}

	return &Manager{db: db, log: log}, nil
}

// Close closes the queue database.
func (m *Manager) Close() error {
	return m.db.Close()
}

// Enqueue appends a mutation to the durable queue. The payload is marshaled
// to JSON as stored. Best-effort: callers log the returned error but the
// optimistic local state already reflects the change either way.
func (m *Manager) Enqueue(action Action, entity Entity, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling queue payload: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, err = m.db.Exec(
		`INSERT INTO queue_items (id, action, entity, payload, enqueued_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), string(action), string(entity), string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("enqueueing %s %s: %w", action, entity, err)
	}
	return nil
}

// Pending returns the queued items in replay order.
func (m *Manager) Pending() ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingLocked()
}

func (m *Manager) pendingLocked() ([]Item, error) {
	rows, err := m.db.Query(
		`SELECT pos, id, action, entity, payload, enqueued_at
		 FROM queue_items WHERE synced = 0 ORDER BY pos ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying queue: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var idStr, action, entity, payload string
		if err := rows.Scan(&it.pos, &idStr, &action, &entity, &payload, &it.EnqueuedAt); err != nil {
			return nil, fmt.Errorf("scanning queue item: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parsing queue item id %q: %w", idStr, err)
		}
		it.ID = id
		it.Action = Action(action)
		it.Entity = Entity(entity)
		it.Payload = json.RawMessage(payload)
		items = append(items, it)
	}
	return items, rows.Err()
}

// Len reports the number of pending items.
func (m *Manager) Len() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int
	err := m.db.QueryRow(`SELECT COUNT(*) FROM queue_items WHERE synced = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting queue: %w", err)
	}
	return n, nil
}

// Flush replays pending items strictly in enqueue order, one gateway call at
// a time. A successful item is marked synced and removed; a failed item is
// re-appended at the tail so the rest of the queue is not blocked behind it.
// Items enqueued while a flush is running are picked up by the next flush.
func (m *Manager) Flush(ctx context.Context, d Dispatcher) (FlushStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items, err := m.pendingLocked()
	if err != nil {
		return FlushStats{}, err
	}

	var stats FlushStats
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if err := d.Dispatch(ctx, it); err != nil {
			m.log.Warn("queue item replay failed, re-queueing",
				"item", it.ID, "action", it.Action, "entity", it.Entity, "error", err)
			if err := m.requeueLocked(it); err != nil {
				return stats, err
			}
			stats.Requeued++
			continue
		}

		if err := m.confirmLocked(it.pos); err != nil {
			return stats, err
		}
		stats.Replayed++
	}

	if stats.Replayed > 0 || stats.Requeued > 0 {
		m.log.Info("queue flush complete", "replayed", stats.Replayed, "requeued", stats.Requeued)
	}
	return stats, nil
}

// confirmLocked marks an item synced, then removes it. The intermediate
// synced state makes a crash between remote success and removal detectable
// on the next open.
func (m *Manager) confirmLocked(pos int64) error {
	if _, err := m.db.Exec(`UPDATE queue_items SET synced = 1 WHERE pos = ?`, pos); err != nil {
		return fmt.Errorf("marking item synced: %w", err)
	}
	if _, err := m.db.Exec(`DELETE FROM queue_items WHERE pos = ?`, pos); err != nil {
		return fmt.Errorf("removing synced item: %w", err)
	}
	return nil
}

// requeueLocked moves a failed item to the tail of the queue, preserving its
// identity and original enqueue timestamp.
func (m *Manager) requeueLocked(it Item) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning requeue: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM queue_items WHERE pos = ?`, it.pos); err != nil {
		return fmt.Errorf("removing failed item: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO queue_items (id, action, entity, payload, enqueued_at) VALUES (?, ?, ?, ?, ?)`,
		it.ID.String(), string(it.Action), string(it.Entity), string(it.Payload), it.EnqueuedAt,
	)
	if err != nil {
		return fmt.Errorf("re-appending failed item: %w", err)
	}
	return tx.Commit()
}

// GetPref returns a stored preference value, or "" if unset.
func (m *Manager) GetPref(key string) (string, error) {
	var value string
	err := m.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading pref %s: %w", key, err)
	}
	return value, nil
}

// SetPref stores a preference value.
func (m *Manager) SetPref(key, value string) error {
	_, err := m.db.Exec(
		`INSERT OR REPLACE INTO prefs (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("writing pref %s: %w", key, err)
	}
	return nil
}
