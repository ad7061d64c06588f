package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/claude/ironlog/internal/gateway"
	"github.com/claude/ironlog/internal/models"
	"github.com/claude/ironlog/internal/queue"
	"github.com/google/uuid"
)

// fakeGateway implements Gateway in memory. Setting offline makes every call
// fail with a connectivity failure; setting reject makes writes fail with a
// validation failure (an online rejection).
type fakeGateway struct {
	mu      sync.Mutex
	offline bool
	reject  bool

	workouts   map[uuid.UUID]models.WorkoutSession
	sets       map[uuid.UUID]models.SetEntry
	records    map[uuid.UUID]models.PersonalRecord
	templates  []models.Template
	setCreates int
	deleted    chan uuid.UUID
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		workouts: make(map[uuid.UUID]models.WorkoutSession),
		sets:     make(map[uuid.UUID]models.SetEntry),
		records:  make(map[uuid.UUID]models.PersonalRecord),
		deleted:  make(chan uuid.UUID, 8),
	}
}

func (g *fakeGateway) fail(op string) error {
	if g.offline {
		return &gateway.Failure{Kind: gateway.KindConnectivity, Op: op, Err: errors.New("dial refused")}
	}
	if g.reject {
		return &gateway.Failure{Kind: gateway.KindValidation, Op: op, Status: 400, Err: errors.New("rejected")}
	}
	return nil
}

func (g *fakeGateway) CreateWorkout(_ context.Context, w models.WorkoutSession) (models.WorkoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail("create workout"); err != nil {
		return w, err
	}
	g.workouts[w.ID] = w
	return w, nil
}

func (g *fakeGateway) UpdateWorkout(_ context.Context, w models.WorkoutSession) (models.WorkoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail("update workout"); err != nil {
		return w, err
	}
	g.workouts[w.ID] = w
	return w, nil
}

func (g *fakeGateway) DeleteWorkout(_ context.Context, id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail("delete workout"); err != nil {
		return err
	}
	delete(g.workouts, id)
	g.deleted <- id
	return nil
}

func (g *fakeGateway) ListWorkouts(_ context.Context) ([]models.WorkoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []models.WorkoutSession
	for _, w := range g.workouts {
		out = append(out, w)
	}
	return out, nil
}

func (g *fakeGateway) CreateWorkoutExercise(_ context.Context, we models.WorkoutExercise) (models.WorkoutExercise, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return we, g.fail("create workout exercise")
}

func (g *fakeGateway) UpdateWorkoutExercise(_ context.Context, we models.WorkoutExercise) (models.WorkoutExercise, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return we, g.fail("update workout exercise")
}

func (g *fakeGateway) DeleteWorkoutExercise(_ context.Context, _ uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fail("delete workout exercise")
}

func (g *fakeGateway) CreateSet(_ context.Context, s models.SetEntry) (models.SetEntry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail("create set"); err != nil {
		return s, err
	}
	// Client-generated IDs make replays idempotent: a second create of the
	// same set is a no-op, mirroring the server's conflict handling.
	if _, exists := g.sets[s.ID]; !exists {
		g.sets[s.ID] = s
		g.setCreates++
	}
	return s, nil
}

func (g *fakeGateway) UpdateSet(_ context.Context, s models.SetEntry) (models.SetEntry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail("update set"); err != nil {
		return s, err
	}
	g.sets[s.ID] = s
	return s, nil
}

func (g *fakeGateway) DeleteSet(_ context.Context, id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail("delete set"); err != nil {
		return err
	}
	delete(g.sets, id)
	return nil
}

func (g *fakeGateway) ListTemplates(_ context.Context) ([]models.Template, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.templates, nil
}

func (g *fakeGateway) ListPersonalRecords(_ context.Context) ([]models.PersonalRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []models.PersonalRecord
	for _, r := range g.records {
		out = append(out, r)
	}
	return out, nil
}

func (g *fakeGateway) PutPersonalRecord(_ context.Context, rec models.PersonalRecord) (models.PersonalRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail("put personal record"); err != nil {
		return rec, err
	}
	g.records[rec.ExerciseID] = rec
	return rec, nil
}

func (g *fakeGateway) setOffline(v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.offline = v
}

func newTestStore(t *testing.T, gw Gateway, clock func() time.Time) *Store {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	q, err := queue.Open(t.TempDir(), log)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { q.Close() })
	return NewStore(gw, q, log, Options{
		UserID:        1,
		AutoRestTimer: true,
		Clock:         clock,
	})
}

func addExerciseAndSet(t *testing.T, s *Store, weight float64, reps int) (uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	snap, err := s.AddExerciseToWorkout(ctx, uuid.New(), "Bench Press", nil)
	if err != nil {
		t.Fatalf("AddExerciseToWorkout: %v", err)
	}
	weID := snap.Exercises[len(snap.Exercises)-1].ID
	set, err := s.AddSet(ctx, weID, SetParams{WeightKg: &weight, Reps: &reps})
	if err != nil {
		t.Fatalf("AddSet: %v", err)
	}
	return weID, set.ID
}

// TestWorkoutLifecycle walks the happy path: start → add set → complete set
// → finish, checking volume, duration, and a first personal record.
func TestWorkoutLifecycle(t *testing.T) {
	clock := newFakeClock()
	gw := newFakeGateway()
	s := newTestStore(t, gw, clock.Now)
	ctx := context.Background()

	snap, err := s.StartWorkout(ctx, "Push Day", nil)
	if err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}
	if snap.Status != models.StatusInProgress {
		t.Errorf("status = %s, want in_progress", snap.Status)
	}

	_, setID := addExerciseAndSet(t, s, 100, 5)

	clock.Advance(30 * time.Minute)
	if _, err := s.CompleteSet(ctx, setID); err != nil {
		t.Fatalf("CompleteSet: %v", err)
	}

	summary, err := s.FinishWorkout(ctx)
	if err != nil {
		t.Fatalf("FinishWorkout: %v", err)
	}

	if summary.Session.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", summary.Session.Status)
	}
	if summary.Session.TotalVolume != 500 {
		t.Errorf("volume = %g, want 500", summary.Session.TotalVolume)
	}
	if summary.Session.DurationSec != int((30 * time.Minute).Seconds()) {
		t.Errorf("duration = %ds, want 1800s", summary.Session.DurationSec)
	}
	if len(summary.NewRecords) != 1 {
		t.Fatalf("new records = %d, want 1", len(summary.NewRecords))
	}
	if summary.Streaks.Current != 1 {
		t.Errorf("current streak = %d, want 1", summary.Streaks.Current)
	}
	if s.Current() != nil {
		t.Error("current session should clear after finish")
	}
}

// TestOfflineSetQueuedThenReplayedOnce covers the core sync scenario: a set added
// while offline is queued, and reconnecting replays it through the gateway
// exactly once.
func TestOfflineSetQueuedThenReplayedOnce(t *testing.T) {
	clock := newFakeClock()
	gw := newFakeGateway()
	s := newTestStore(t, gw, clock.Now)
	ctx := context.Background()

	if _, err := s.StartWorkout(ctx, "", nil); err != nil {
		t.Fatal(err)
	}
	weID, _ := addExerciseAndSet(t, s, 60, 8)

	gw.setOffline(true)
	weight, reps := 100.0, 5
	set, err := s.AddSet(ctx, weID, SetParams{WeightKg: &weight, Reps: &reps})
	if err != nil {
		t.Fatalf("offline AddSet must not error, got %v", err)
	}
	if set.Sync != models.SyncPending {
		t.Errorf("offline set sync = %s, want pending", set.Sync)
	}

	gw.setOffline(false)
	before := gw.setCreates
	s.HandleConnectivity(ctx, true)

	if got := gw.setCreates - before; got != 1 {
		t.Errorf("gateway CreateSet called %d times during flush, want 1", got)
	}
	stored, ok := gw.sets[set.ID]
	if !ok {
		t.Fatal("queued set never reached the gateway")
	}
	if *stored.WeightKg != 100 || *stored.Reps != 5 {
		t.Errorf("replayed payload = %gx%d, want 100x5", *stored.WeightKg, *stored.Reps)
	}

	// Replaying the same item again (crash between remote success and local
	// dequeue) must not duplicate the set.
	if err := s.queue.Enqueue(queue.ActionCreate, queue.EntitySet, set); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if gw.setCreates != before+1 {
		t.Errorf("duplicate replay created a second set (creates = %d)", gw.setCreates)
	}
}

// TestOnlineRejectionSurfacedNotQueued verifies that a server-side rejection
// while online produces a caller-visible error and nothing in the queue; the
// optimistic local change stays, marked failed.
func TestOnlineRejectionSurfacedNotQueued(t *testing.T) {
	clock := newFakeClock()
	gw := newFakeGateway()
	s := newTestStore(t, gw, clock.Now)
	ctx := context.Background()

	if _, err := s.StartWorkout(ctx, "", nil); err != nil {
		t.Fatal(err)
	}

	gw.reject = true
	snap, err := s.AddExerciseToWorkout(ctx, uuid.New(), "Deadlift", nil)
	if err == nil {
		t.Fatal("expected surfaced error for online rejection")
	}
	if len(snap.Exercises) != 1 {
		t.Errorf("optimistic exercise should stay applied, have %d", len(snap.Exercises))
	}
	if n, _ := s.queue.Len(); n != 0 {
		t.Errorf("online rejection must not enqueue; queue length = %d", n)
	}
}

// TestFinishRequiresCompletedSet verifies the finish validation error is
// typed and distinct from network errors.
func TestFinishRequiresCompletedSet(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, newFakeGateway(), clock.Now)
	ctx := context.Background()

	if _, err := s.StartWorkout(ctx, "", nil); err != nil {
		t.Fatal(err)
	}
	weID, _ := addExerciseAndSet(t, s, 80, 5) // added but never completed
	_ = weID

	_, err := s.FinishWorkout(ctx)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !IsValidation(err) {
		t.Errorf("error %v is not a ValidationError", err)
	}
}

// TestPersonalRecordTieDoesNotPersist verifies the strictly-greater rule
// end to end through the store.
func TestPersonalRecordTieDoesNotPersist(t *testing.T) {
	clock := newFakeClock()
	gw := newFakeGateway()
	s := newTestStore(t, gw, clock.Now)
	ctx := context.Background()

	exerciseID := uuid.New()
	gw.records[exerciseID] = models.PersonalRecord{
		ExerciseID: exerciseID, WeightKg: 100, Reps: 1, OneRepMax: 100,
	}

	if _, err := s.StartWorkout(ctx, "", nil); err != nil {
		t.Fatal(err)
	}
	snap, err := s.AddExerciseToWorkout(ctx, exerciseID, "Bench Press", nil)
	if err != nil {
		t.Fatal(err)
	}
	weight, reps := 100.0, 1
	set, err := s.AddSet(ctx, snap.Exercises[0].ID, SetParams{WeightKg: &weight, Reps: &reps})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CompleteSet(ctx, set.ID); err != nil {
		t.Fatal(err)
	}

	summary, err := s.FinishWorkout(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.NewRecords) != 0 {
		t.Errorf("tie produced %d records, want 0", len(summary.NewRecords))
	}
	if gw.records[exerciseID].OneRepMax != 100 {
		t.Errorf("stored record changed on tie: %g", gw.records[exerciseID].OneRepMax)
	}
}

// TestCompleteSetStartsRestTimer verifies auto rest: completing a set starts
// the countdown using the set's rest seconds, and a second completion
// replaces it.
func TestCompleteSetStartsRestTimer(t *testing.T) {
	clock := newFakeClock()
	gw := newFakeGateway()
	s := newTestStore(t, gw, clock.Now)
	ctx := context.Background()

	if _, err := s.StartWorkout(ctx, "", nil); err != nil {
		t.Fatal(err)
	}
	snap, err := s.AddExerciseToWorkout(ctx, uuid.New(), "Squat", nil)
	if err != nil {
		t.Fatal(err)
	}
	weID := snap.Exercises[0].ID

	weight, reps, rest := 120.0, 5, 120
	set1, err := s.AddSet(ctx, weID, SetParams{WeightKg: &weight, Reps: &reps, RestSec: &rest})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CompleteSet(ctx, set1.ID); err != nil {
		t.Fatal(err)
	}
	if got := s.RestRemaining(); got != 120*time.Second {
		t.Errorf("rest remaining = %v, want 2m", got)
	}

	clock.Advance(60 * time.Second)
	set2, err := s.AddSet(ctx, weID, SetParams{WeightKg: &weight, Reps: &reps, RestSec: &rest})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CompleteSet(ctx, set2.ID); err != nil {
		t.Fatal(err)
	}
	if got := s.RestRemaining(); got != 120*time.Second {
		t.Errorf("replaced rest remaining = %v, want fresh 2m", got)
	}
}

// TestCancelWorkoutBestEffortDelete verifies cancel resets local state and
// issues the remote delete before returning, so short-lived processes get the
// request out the door.
func TestCancelWorkoutBestEffortDelete(t *testing.T) {
	clock := newFakeClock()
	gw := newFakeGateway()
	s := newTestStore(t, gw, clock.Now)
	ctx := context.Background()

	snap, err := s.StartWorkout(ctx, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CancelWorkout(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Current() != nil {
		t.Error("current session should clear immediately on cancel")
	}

	select {
	case id := <-gw.deleted:
		if id != snap.ID {
			t.Errorf("deleted %v, want %v", id, snap.ID)
		}
	default:
		t.Error("delete not issued by the time cancel returned")
	}
}

// TestCancelWorkoutOffline verifies a failed delete stays best-effort: cancel
// still succeeds, and nothing lands in the offline queue to resurrect the
// abandoned workout later.
func TestCancelWorkoutOffline(t *testing.T) {
	clock := newFakeClock()
	gw := newFakeGateway()
	s := newTestStore(t, gw, clock.Now)
	ctx := context.Background()

	if _, err := s.StartWorkout(ctx, "", nil); err != nil {
		t.Fatal(err)
	}
	gw.setOffline(true)

	if err := s.CancelWorkout(ctx); err != nil {
		t.Fatalf("offline cancel should not error, got %v", err)
	}
	if s.Current() != nil {
		t.Error("current session should clear on offline cancel")
	}
	if n, _ := s.queue.Len(); n != 0 {
		t.Errorf("offline cancel must not enqueue; queue length = %d", n)
	}
}

// TestStartWhileInProgress verifies only one live session at a time.
func TestStartWhileInProgress(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, newFakeGateway(), clock.Now)
	ctx := context.Background()

	if _, err := s.StartWorkout(ctx, "", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.StartWorkout(ctx, "", nil); !errors.Is(err, ErrWorkoutInProgress) {
		t.Errorf("second start error = %v, want ErrWorkoutInProgress", err)
	}
}

// TestStartFromTemplate verifies template instantiation produces dense
// 0-based exercise order with fresh IDs.
func TestStartFromTemplate(t *testing.T) {
	clock := newFakeClock()
	gw := newFakeGateway()
	tplID := uuid.New()
	gw.templates = []models.Template{{
		ID:   tplID,
		Name: "Push",
		Exercises: []models.TemplateExercise{
			{ExerciseID: uuid.New(), ExerciseName: "Bench Press", OrderIndex: 0},
			{ExerciseID: uuid.New(), ExerciseName: "Overhead Press", OrderIndex: 1},
		},
	}}
	s := newTestStore(t, gw, clock.Now)

	snap, err := s.StartWorkout(context.Background(), "Push", &tplID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Exercises) != 2 {
		t.Fatalf("exercises = %d, want 2", len(snap.Exercises))
	}
	for i, we := range snap.Exercises {
		if we.OrderIndex != i {
			t.Errorf("exercise %d order = %d, want %d", i, we.OrderIndex, i)
		}
		if we.WorkoutID != snap.ID {
			t.Errorf("exercise %d workout id mismatch", i)
		}
	}

	_, err = s.StartWorkout(context.Background(), "x", nil)
	if err == nil {
		t.Error("expected in-progress error")
	}

	// Unknown template is an upfront failure, not a half-started session.
	if err := s.CancelWorkout(context.Background()); err != nil {
		t.Fatal(err)
	}
	bogus := uuid.New()
	if _, err := s.StartWorkout(context.Background(), "x", &bogus); err == nil {
		t.Error("expected error for unknown template")
	}
}

// TestReorderExercises verifies reordering rewrites dense indexes.
func TestReorderExercises(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, newFakeGateway(), clock.Now)
	ctx := context.Background()

	if _, err := s.StartWorkout(ctx, "", nil); err != nil {
		t.Fatal(err)
	}
	var ids []uuid.UUID
	for _, name := range []string{"A", "B", "C"} {
		snap, err := s.AddExerciseToWorkout(ctx, uuid.New(), name, nil)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, snap.Exercises[len(snap.Exercises)-1].ID)
	}

	snap, err := s.ReorderExercises(ctx, []uuid.UUID{ids[2], ids[0], ids[1]})
	if err != nil {
		t.Fatal(err)
	}
	wantNames := []string{"C", "A", "B"}
	for i, we := range snap.Exercises {
		if we.ExerciseName != wantNames[i] {
			t.Errorf("position %d = %s, want %s", i, we.ExerciseName, wantNames[i])
		}
		if we.OrderIndex != i {
			t.Errorf("position %d order = %d, want %d", i, we.OrderIndex, i)
		}
	}

	if _, err := s.ReorderExercises(ctx, ids[:2]); err == nil {
		t.Error("short reorder list should fail")
	}
}

// TestRemoveExerciseClosesGap verifies removal keeps order indexes dense.
func TestRemoveExerciseClosesGap(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, newFakeGateway(), clock.Now)
	ctx := context.Background()

	if _, err := s.StartWorkout(ctx, "", nil); err != nil {
		t.Fatal(err)
	}
	var ids []uuid.UUID
	for _, name := range []string{"A", "B", "C"} {
		snap, err := s.AddExerciseToWorkout(ctx, uuid.New(), name, nil)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, snap.Exercises[len(snap.Exercises)-1].ID)
	}

	snap, err := s.RemoveExerciseFromWorkout(ctx, ids[1])
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Exercises) != 2 {
		t.Fatalf("exercises = %d, want 2", len(snap.Exercises))
	}
	for i, we := range snap.Exercises {
		if we.OrderIndex != i {
			t.Errorf("position %d order = %d, want %d (dense)", i, we.OrderIndex, i)
		}
	}
}

// TestSetNumbering verifies 1-based strictly increasing set numbers per
// exercise, preserved across deletion.
func TestSetNumbering(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, newFakeGateway(), clock.Now)
	ctx := context.Background()

	if _, err := s.StartWorkout(ctx, "", nil); err != nil {
		t.Fatal(err)
	}
	snap, err := s.AddExerciseToWorkout(ctx, uuid.New(), "Row", nil)
	if err != nil {
		t.Fatal(err)
	}
	weID := snap.Exercises[0].ID

	w := 50.0
	r := 10
	var setIDs []uuid.UUID
	for i := 1; i <= 3; i++ {
		set, err := s.AddSet(ctx, weID, SetParams{WeightKg: &w, Reps: &r})
		if err != nil {
			t.Fatal(err)
		}
		if set.SetNumber != i {
			t.Errorf("set number = %d, want %d", set.SetNumber, i)
		}
		setIDs = append(setIDs, set.ID)
	}

	if err := s.DeleteSet(ctx, setIDs[1]); err != nil {
		t.Fatal(err)
	}
	set4, err := s.AddSet(ctx, weID, SetParams{WeightKg: &w, Reps: &r})
	if err != nil {
		t.Fatal(err)
	}
	if set4.SetNumber != 4 {
		t.Errorf("post-delete set number = %d, want 4 (strictly increasing)", set4.SetNumber)
	}
}
