package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTest(t *testing.T) *Manager {
	t.Helper()
	m, err := Open(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

// fakeDispatcher records dispatched items and fails those whose entity is in
// the fail set.
type fakeDispatcher struct {
	dispatched []Item
	fail       map[Entity]bool
}

func (d *fakeDispatcher) Dispatch(_ context.Context, it Item) error {
	d.dispatched = append(d.dispatched, it)
	if d.fail[it.Entity] {
		return fmt.Errorf("simulated failure for %s", it.Entity)
	}
	return nil
}

type setPayload struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight_kg"`
	Reps   int     `json:"reps"`
}

// TestEnqueueFlush verifies the basic offline scenario: a mutation queued
// while disconnected is replayed exactly once on flush with its original
// payload, and the queue drains.
func TestEnqueueFlush(t *testing.T) {
	m := openTest(t)

	payload := setPayload{ID: "set-1", Weight: 100, Reps: 5}
	if err := m.Enqueue(ActionCreate, EntitySet, payload); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	d := &fakeDispatcher{}
	stats, err := m.Flush(context.Background(), d)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if stats.Replayed != 1 || stats.Requeued != 0 {
		t.Errorf("stats = %+v, want 1 replayed, 0 requeued", stats)
	}
	if len(d.dispatched) != 1 {
		t.Fatalf("dispatched %d items, want exactly 1", len(d.dispatched))
	}

	var got setPayload
	if err := json.Unmarshal(d.dispatched[0].Payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got != payload {
		t.Errorf("payload = %+v, want %+v", got, payload)
	}

	n, err := m.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 0 {
		t.Errorf("queue length after flush = %d, want 0", n)
	}
}

// TestFlushOrder verifies items replay strictly in enqueue order.
func TestFlushOrder(t *testing.T) {
	m := openTest(t)

	for i := 0; i < 5; i++ {
		if err := m.Enqueue(ActionCreate, EntitySet, setPayload{ID: fmt.Sprintf("set-%d", i)}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	d := &fakeDispatcher{}
	if _, err := m.Flush(context.Background(), d); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	for i, it := range d.dispatched {
		var p setPayload
		if err := json.Unmarshal(it.Payload, &p); err != nil {
			t.Fatal(err)
		}
		if want := fmt.Sprintf("set-%d", i); p.ID != want {
			t.Errorf("position %d replayed %s, want %s", i, p.ID, want)
		}
	}
}

// TestFailedItemRequeuedAtTail verifies that a failing item moves to the back
// of the queue instead of blocking the items behind it, keeping its identity.
func TestFailedItemRequeuedAtTail(t *testing.T) {
	m := openTest(t)

	if err := m.Enqueue(ActionCreate, EntityWorkout, setPayload{ID: "w-1"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Enqueue(ActionCreate, EntitySet, setPayload{ID: "s-1"}); err != nil {
		t.Fatal(err)
	}

	d := &fakeDispatcher{fail: map[Entity]bool{EntityWorkout: true}}
	stats, err := m.Flush(context.Background(), d)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if stats.Replayed != 1 || stats.Requeued != 1 {
		t.Errorf("stats = %+v, want 1 replayed, 1 requeued", stats)
	}

	pending, err := m.Pending()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d items, want 1", len(pending))
	}
	if pending[0].Entity != EntityWorkout {
		t.Errorf("remaining item entity = %s, want workout", pending[0].Entity)
	}
	if pending[0].ID != d.dispatched[0].ID {
		t.Error("requeued item lost its identity")
	}

	// Second flush with the failure cleared drains the queue.
	d2 := &fakeDispatcher{}
	if _, err := m.Flush(context.Background(), d2); err != nil {
		t.Fatal(err)
	}
	if n, _ := m.Len(); n != 0 {
		t.Errorf("queue length = %d, want 0", n)
	}
}

// TestQueueSurvivesRestart verifies pending items persist across reopening
// the database, in order.
func TestQueueSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	m, err := Open(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Enqueue(ActionCreate, EntityWorkout, setPayload{ID: "w-1"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Enqueue(ActionUpdate, EntityWorkout, setPayload{ID: "w-1"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	m2, err := Open(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer m2.Close()

	pending, err := m2.Pending()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending after restart = %d, want 2", len(pending))
	}
	if pending[0].Action != ActionCreate || pending[1].Action != ActionUpdate {
		t.Errorf("order after restart: %s, %s; want create, update", pending[0].Action, pending[1].Action)
	}
}

// TestOpenPrunesConfirmedLeftovers verifies that rows marked synced by a run
// that crashed before removing them are dropped on the next open rather than
// replayed again.
func TestOpenPrunesConfirmedLeftovers(t *testing.T) {
	dir := t.TempDir()

	m, err := Open(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Enqueue(ActionCreate, EntitySet, setPayload{ID: "s-1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.db.Exec(`UPDATE queue_items SET synced = 1`); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	m2, err := Open(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer m2.Close()

	if n, _ := m2.Len(); n != 0 {
		t.Errorf("confirmed leftover survived reopen: length = %d, want 0", n)
	}
}

// TestPrefs verifies the key/value preference store round-trips and returns
// empty for unset keys.
func TestPrefs(t *testing.T) {
	m := openTest(t)

	if v, err := m.GetPref("formula"); err != nil || v != "" {
		t.Errorf("GetPref(unset) = %q, %v; want \"\", nil", v, err)
	}
	if err := m.SetPref("formula", "brzycki"); err != nil {
		t.Fatal(err)
	}
	if err := m.SetPref("formula", "epley"); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.GetPref("formula"); v != "epley" {
		t.Errorf("GetPref = %q, want epley", v)
	}
}
