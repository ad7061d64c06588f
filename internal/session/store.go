package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/claude/ironlog/internal/derive"
	"github.com/claude/ironlog/internal/gateway"
	"github.com/claude/ironlog/internal/models"
	"github.com/claude/ironlog/internal/queue"
	"github.com/google/uuid"
)

// Gateway is the remote store surface the session engine needs. It is
// satisfied by *gateway.Client; tests substitute fakes.
type Gateway interface {
	CreateWorkout(ctx context.Context, w models.WorkoutSession) (models.WorkoutSession, error)
	UpdateWorkout(ctx context.Context, w models.WorkoutSession) (models.WorkoutSession, error)
	DeleteWorkout(ctx context.Context, id uuid.UUID) error
	ListWorkouts(ctx context.Context) ([]models.WorkoutSession, error)

	CreateWorkoutExercise(ctx context.Context, we models.WorkoutExercise) (models.WorkoutExercise, error)
	UpdateWorkoutExercise(ctx context.Context, we models.WorkoutExercise) (models.WorkoutExercise, error)
	DeleteWorkoutExercise(ctx context.Context, id uuid.UUID) error

	CreateSet(ctx context.Context, s models.SetEntry) (models.SetEntry, error)
	UpdateSet(ctx context.Context, s models.SetEntry) (models.SetEntry, error)
	DeleteSet(ctx context.Context, id uuid.UUID) error

	ListTemplates(ctx context.Context) ([]models.Template, error)
	ListPersonalRecords(ctx context.Context) ([]models.PersonalRecord, error)
	PutPersonalRecord(ctx context.Context, rec models.PersonalRecord) (models.PersonalRecord, error)
}

// Compile-time check: the HTTP gateway satisfies the store's interface.
var _ Gateway = (*gateway.Client)(nil)

func isConnectivity(err error) bool { return gateway.IsConnectivity(err) }

// Options configures a Store.
type Options struct {
	UserID         int
	Formula        derive.Formula
	DefaultRestSec int  // rest countdown fallback when a set has none
	AutoRestTimer  bool // start a rest countdown on every completed set
	OnRestComplete func(RestInfo)
	Clock          func() time.Time // nil means time.Now
}

// Store is the client state store: it holds the live in-memory session and
// coordinates the gateway, the offline queue, the timers, and the derivation
// engine in response to UI actions. Every mutation happens under one mutex,
// the Go rendering of the product's single logical dispatch thread.
//
// Each mutating action applies the optimistic local change first, then calls
// the gateway. A connectivity failure routes the mutation into the offline
// queue with no user-visible error; an online rejection is surfaced to the
// caller while the optimistic state stays applied, marked SyncFailed.
type Store struct {
	mu    sync.Mutex
	gw    Gateway
	queue *queue.Manager
	log   *slog.Logger
	now   func() time.Time

	userID         int
	formula        derive.Formula
	defaultRestSec int
	autoRest       bool
	onRestComplete func(RestInfo)

	current *models.WorkoutSession
	timer   *Timer
	rest    *RestTimer

	records map[uuid.UUID]models.PersonalRecord
	streaks derive.StreakResult
}

// NewStore creates a session store. The queue manager must already be open;
// the store owns queue flushing from then on.
func NewStore(gw Gateway, q *queue.Manager, log *slog.Logger, opts Options) *Store {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	if opts.DefaultRestSec <= 0 {
		opts.DefaultRestSec = 90
	}
	return &Store{
		gw:             gw,
		queue:          q,
		log:            log,
		now:            now,
		userID:         opts.UserID,
		formula:        opts.Formula,
		defaultRestSec: opts.DefaultRestSec,
		autoRest:       opts.AutoRestTimer,
		onRestComplete: opts.OnRestComplete,
		rest:           NewRestTimerAt(now),
		records:        make(map[uuid.UUID]models.PersonalRecord),
	}
}

// syncWrite runs a gateway write and resolves its outcome: confirmed on
// success, pending (queued for replay) on connectivity loss, failed with a
// surfaced error on an online rejection.
func (s *Store) syncWrite(op func() error, action queue.Action, entity queue.Entity, payload any) (models.SyncState, error) {
	err := op()
	if err == nil {
		return models.SyncConfirmed, nil
	}
	if isConnectivity(err) {
		if qerr := s.queue.Enqueue(action, entity, payload); qerr != nil {
			s.log.Warn("failed to enqueue offline mutation", "action", action, "entity", entity, "error", qerr)
		} else {
			s.log.Info("mutation queued for replay", "action", action, "entity", entity)
		}
		return models.SyncPending, nil
	}
	return models.SyncFailed, err
}

// StartWorkout begins a new live session, optionally instantiated from a
// template. Fails if one is already in progress.
func (s *Store) StartWorkout(ctx context.Context, name string, templateID *uuid.UUID) (*models.WorkoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == 0 {
		return nil, ErrNotAuthenticated
	}
	if s.current != nil {
		return nil, ErrWorkoutInProgress
	}

	if name == "" {
		name = "Workout"
	}
	w := models.WorkoutSession{
		ID:         uuid.New(),
		UserID:     s.userID,
		Name:       name,
		Status:     models.StatusInProgress,
		StartedAt:  s.now(),
		TemplateID: templateID,
		Sync:       models.SyncPending,
	}

	if templateID != nil {
		exercises, err := s.exercisesFromTemplate(ctx, w.ID, *templateID)
		if err != nil {
			return nil, err
		}
		w.Exercises = exercises
	}

	s.current = &w
	s.timer = NewTimerAt(s.now)
	if err := s.timer.Start(); err != nil {
		return nil, err
	}

	state, err := s.syncWrite(func() error {
		_, err := s.gw.CreateWorkout(ctx, w)
		return err
	}, queue.ActionCreate, queue.EntityWorkout, w)
	s.current.Sync = state

	// Template-derived exercises are persisted individually so their
	// client-generated IDs resolve during any later replay.
	for i := range s.current.Exercises {
		we := s.current.Exercises[i]
		_, weErr := s.syncWrite(func() error {
			_, err := s.gw.CreateWorkoutExercise(ctx, we)
			return err
		}, queue.ActionCreate, queue.EntityWorkoutExercise, we)
		if weErr != nil && err == nil {
			err = weErr
		}
	}

	snap := s.snapshotLocked()
	return snap, err
}

// exercisesFromTemplate expands a template into workout exercises with fresh
// client-generated IDs. Template reads degrade offline, so a stale cached
// template is acceptable here.
func (s *Store) exercisesFromTemplate(ctx context.Context, workoutID, templateID uuid.UUID) ([]models.WorkoutExercise, error) {
	templates, err := s.gw.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	for _, tpl := range templates {
		if tpl.ID != templateID {
			continue
		}
		exercises := make([]models.WorkoutExercise, 0, len(tpl.Exercises))
		for i, te := range tpl.Exercises {
			exercises = append(exercises, models.WorkoutExercise{
				ID:           uuid.New(),
				WorkoutID:    workoutID,
				ExerciseID:   te.ExerciseID,
				ExerciseName: te.ExerciseName,
				OrderIndex:   i,
			})
		}
		return exercises, nil
	}
	return nil, fmt.Errorf("template %s not found", templateID)
}

// PauseWorkout freezes the active timer.
func (s *Store) PauseWorkout() (*models.WorkoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoActiveWorkout
	}
	if err := s.timer.Pause(); err != nil {
		return nil, err
	}
	return s.snapshotLocked(), nil
}

// ResumeWorkout continues a paused timer.
func (s *Store) ResumeWorkout() (*models.WorkoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoActiveWorkout
	}
	if err := s.timer.Resume(); err != nil {
		return nil, err
	}
	return s.snapshotLocked(), nil
}

// FinishSummary is the result of completing a workout.
type FinishSummary struct {
	Session    models.WorkoutSession   `json:"session"`
	NewRecords []models.PersonalRecord `json:"new_records,omitempty"`
	Streaks    derive.StreakResult     `json:"streaks"`
}

// FinishWorkout completes the live session: validates it has at least one
// completed set, freezes the timer, persists the final state, then runs
// personal-record detection and streak recomputation and merges the results
// into held state. This is the only path that produces new records.
func (s *Store) FinishWorkout(ctx context.Context) (*FinishSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoActiveWorkout
	}
	if derive.CompletedSetCount(*s.current) == 0 {
		return nil, &ValidationError{Missing: []string{"at least one completed set"}}
	}

	s.rest.Cancel()
	elapsed, err := s.timer.Finish()
	if err != nil {
		return nil, err
	}

	now := s.now()
	s.current.Status = models.StatusCompleted
	s.current.CompletedAt = &now
	s.current.DurationSec = int(elapsed / time.Second)
	s.current.TotalVolume = derive.SessionVolume(*s.current)
	s.current.TotalSets = derive.CompletedSetCount(*s.current)

	state, werr := s.syncWrite(func() error {
		_, err := s.gw.UpdateWorkout(ctx, *s.current)
		return err
	}, queue.ActionUpdate, queue.EntityWorkout, *s.current)
	s.current.Sync = state

	newRecords := s.detectAndStoreRecords(ctx, now)
	s.streaks = s.recomputeStreaks(ctx, now)

	summary := &FinishSummary{
		Session:    *s.snapshotLocked(),
		NewRecords: newRecords,
		Streaks:    s.streaks,
	}

	s.current = nil
	s.timer = nil
	return summary, werr
}

// detectAndStoreRecords compares the finished session against known records,
// persists improvements, and merges them into held state.
func (s *Store) detectAndStoreRecords(ctx context.Context, now time.Time) []models.PersonalRecord {
	existing, err := s.gw.ListPersonalRecords(ctx)
	if err != nil {
		s.log.Warn("record fetch failed, using held records", "error", err)
	}
	known := make(map[uuid.UUID]models.PersonalRecord, len(existing)+len(s.records))
	for id, rec := range s.records {
		known[id] = rec
	}
	for _, rec := range existing {
		known[rec.ExerciseID] = rec
	}

	newRecords := derive.DetectRecords(s.formula, *s.current, known, now)
	for _, rec := range newRecords {
		if _, err := s.syncWrite(func() error {
			_, err := s.gw.PutPersonalRecord(ctx, rec)
			return err
		}, queue.ActionUpdate, queue.EntityPersonalRecord, rec); err != nil {
			s.log.Warn("record persist rejected", "exercise", rec.ExerciseName, "error", err)
		}
		s.records[rec.ExerciseID] = rec
	}
	return newRecords
}

// recomputeStreaks rebuilds streaks from remote history (degrading to cached
// history offline) plus the just-finished session.
func (s *Store) recomputeStreaks(ctx context.Context, now time.Time) derive.StreakResult {
	history, err := s.gw.ListWorkouts(ctx)
	if err != nil {
		s.log.Warn("history fetch failed, streaks from current session only", "error", err)
	}

	starts := []time.Time{s.current.StartedAt}
	for _, w := range history {
		if w.Status == models.StatusCompleted && w.ID != s.current.ID {
			starts = append(starts, w.StartedAt)
		}
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].After(starts[j]) })
	return derive.Streaks(starts, now, now.Location())
}

// CancelWorkout abandons the live session: local state resets immediately
// and the remote delete is best-effort. The request is issued before
// returning, under a short timeout so an offline cancel stays snappy, but
// the outcome is only logged and never rolled back or queued.
func (s *Store) CancelWorkout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNoActiveWorkout
	}

	id := s.current.ID
	s.rest.Cancel()
	if err := s.timer.Cancel(); err != nil {
		return err
	}
	s.current = nil
	s.timer = nil

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.gw.DeleteWorkout(ctx, id); err != nil {
		s.log.Warn("best-effort workout delete failed", "workout", id, "error", err)
	}
	return nil
}

// AddExerciseToWorkout appends an exercise at the next order index.
func (s *Store) AddExerciseToWorkout(ctx context.Context, exerciseID uuid.UUID, exerciseName string, supersetGroup *uuid.UUID) (*models.WorkoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoActiveWorkout
	}

	we := models.WorkoutExercise{
		ID:            uuid.New(),
		WorkoutID:     s.current.ID,
		ExerciseID:    exerciseID,
		ExerciseName:  exerciseName,
		OrderIndex:    len(s.current.Exercises),
		SupersetGroup: supersetGroup,
	}
	s.current.Exercises = append(s.current.Exercises, we)

	_, err := s.syncWrite(func() error {
		_, err := s.gw.CreateWorkoutExercise(ctx, we)
		return err
	}, queue.ActionCreate, queue.EntityWorkoutExercise, we)
	return s.snapshotLocked(), err
}

// RemoveExerciseFromWorkout deletes an exercise and closes the order gap so
// indexes stay dense.
func (s *Store) RemoveExerciseFromWorkout(ctx context.Context, workoutExerciseID uuid.UUID) (*models.WorkoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoActiveWorkout
	}

	idx := -1
	for i, we := range s.current.Exercises {
		if we.ID == workoutExerciseID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("workout exercise %s not in current session", workoutExerciseID)
	}

	s.current.Exercises = append(s.current.Exercises[:idx], s.current.Exercises[idx+1:]...)

	_, err := s.syncWrite(func() error {
		return s.gw.DeleteWorkoutExercise(ctx, workoutExerciseID)
	}, queue.ActionDelete, queue.EntityWorkoutExercise, deletePayload{ID: workoutExerciseID})

	if rerr := s.reindexExercisesLocked(ctx, idx); rerr != nil && err == nil {
		err = rerr
	}
	return s.snapshotLocked(), err
}

// reindexExercisesLocked restores dense 0-based order indexes from position
// `from` onward, persisting each change.
func (s *Store) reindexExercisesLocked(ctx context.Context, from int) error {
	var firstErr error
	for i := from; i < len(s.current.Exercises); i++ {
		if s.current.Exercises[i].OrderIndex == i {
			continue
		}
		s.current.Exercises[i].OrderIndex = i
		we := s.current.Exercises[i]
		if _, err := s.syncWrite(func() error {
			_, err := s.gw.UpdateWorkoutExercise(ctx, we)
			return err
		}, queue.ActionUpdate, queue.EntityWorkoutExercise, we); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReorderExercises rearranges the session's exercises to match orderedIDs,
// which must contain exactly the current exercise IDs.
func (s *Store) ReorderExercises(ctx context.Context, orderedIDs []uuid.UUID) (*models.WorkoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoActiveWorkout
	}
	if len(orderedIDs) != len(s.current.Exercises) {
		return nil, fmt.Errorf("reorder lists %d exercises, session has %d", len(orderedIDs), len(s.current.Exercises))
	}

	byID := make(map[uuid.UUID]models.WorkoutExercise, len(s.current.Exercises))
	for _, we := range s.current.Exercises {
		byID[we.ID] = we
	}

	reordered := make([]models.WorkoutExercise, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		we, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("workout exercise %s not in current session", id)
		}
		delete(byID, id)
		we.OrderIndex = i
		reordered = append(reordered, we)
	}

	var firstErr error
	for i, we := range reordered {
		if s.current.Exercises[i].ID == we.ID && s.current.Exercises[i].OrderIndex == we.OrderIndex {
			continue
		}
		we := we
		if _, err := s.syncWrite(func() error {
			_, err := s.gw.UpdateWorkoutExercise(ctx, we)
			return err
		}, queue.ActionUpdate, queue.EntityWorkoutExercise, we); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.current.Exercises = reordered
	return s.snapshotLocked(), firstErr
}

// SetParams carries the optional fields of a set mutation. Nil fields are
// left unchanged on update.
type SetParams struct {
	WeightKg    *float64
	Reps        *int
	DistanceM   *float64
	DurationSec *int
	RestSec     *int
	RPE         *float64
}

// AddSet appends a set to an exercise with the next 1-based set number.
func (s *Store) AddSet(ctx context.Context, workoutExerciseID uuid.UUID, params SetParams) (*models.SetEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	we, err := s.findExerciseLocked(workoutExerciseID)
	if err != nil {
		return nil, err
	}

	nextNumber := 1
	if n := len(we.Sets); n > 0 {
		nextNumber = we.Sets[n-1].SetNumber + 1
	}

	set := models.SetEntry{
		ID:                uuid.New(),
		WorkoutExerciseID: workoutExerciseID,
		SetNumber:         nextNumber,
		WeightKg:          params.WeightKg,
		Reps:              params.Reps,
		DistanceM:         params.DistanceM,
		DurationSec:       params.DurationSec,
		RPE:               params.RPE,
		Sync:              models.SyncPending,
	}
	if params.RestSec != nil {
		set.RestSec = *params.RestSec
	}
	we.Sets = append(we.Sets, set)
	idx := len(we.Sets) - 1

	state, err := s.syncWrite(func() error {
		_, err := s.gw.CreateSet(ctx, set)
		return err
	}, queue.ActionCreate, queue.EntitySet, set)
	we.Sets[idx].Sync = state

	out := we.Sets[idx]
	return &out, err
}

// UpdateSet applies the non-nil params to an existing set.
func (s *Store) UpdateSet(ctx context.Context, setID uuid.UUID, params SetParams) (*models.SetEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.findSetLocked(setID)
	if err != nil {
		return nil, err
	}

	if params.WeightKg != nil {
		set.WeightKg = params.WeightKg
	}
	if params.Reps != nil {
		set.Reps = params.Reps
	}
	if params.DistanceM != nil {
		set.DistanceM = params.DistanceM
	}
	if params.DurationSec != nil {
		set.DurationSec = params.DurationSec
	}
	if params.RestSec != nil {
		set.RestSec = *params.RestSec
	}
	if params.RPE != nil {
		set.RPE = params.RPE
	}

	state, err := s.syncWrite(func() error {
		_, err := s.gw.UpdateSet(ctx, *set)
		return err
	}, queue.ActionUpdate, queue.EntitySet, *set)
	set.Sync = state

	out := *set
	return &out, err
}

// DeleteSet removes a set from the session. Later set numbers keep their
// values; numbering stays strictly increasing.
func (s *Store) DeleteSet(ctx context.Context, setID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNoActiveWorkout
	}

	for i := range s.current.Exercises {
		we := &s.current.Exercises[i]
		for j, set := range we.Sets {
			if set.ID != setID {
				continue
			}
			we.Sets = append(we.Sets[:j], we.Sets[j+1:]...)
			_, err := s.syncWrite(func() error {
				return s.gw.DeleteSet(ctx, setID)
			}, queue.ActionDelete, queue.EntitySet, deletePayload{ID: setID})
			return err
		}
	}
	return fmt.Errorf("set %s not in current session", setID)
}

// CompleteSet marks a set done and, when auto rest is enabled, starts (or
// replaces) the rest countdown using the set's configured rest duration,
// falling back to the user default.
func (s *Store) CompleteSet(ctx context.Context, setID uuid.UUID) (*models.SetEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.findSetLocked(setID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	set.Completed = true
	set.CompletedAt = &now

	state, err := s.syncWrite(func() error {
		_, err := s.gw.UpdateSet(ctx, *set)
		return err
	}, queue.ActionUpdate, queue.EntitySet, *set)
	set.Sync = state

	if s.autoRest {
		we, _ := s.ownerOfSetLocked(setID)
		restSec := set.RestSec
		if restSec <= 0 {
			restSec = s.defaultRestSec
		}
		s.rest.Start(RestInfo{
			ExerciseID:   we.ExerciseID,
			ExerciseName: we.ExerciseName,
			SetNumber:    set.SetNumber,
			DurationSec:  restSec,
		}, s.onRestComplete)
	}

	out := *set
	return &out, err
}

// StartRestTimer manually starts (or replaces) the rest countdown.
func (s *Store) StartRestTimer(info RestInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if info.DurationSec <= 0 {
		info.DurationSec = s.defaultRestSec
	}
	s.rest.Start(info, s.onRestComplete)
}

// CancelRestTimer clears the rest countdown without firing its callback.
func (s *Store) CancelRestTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rest.Cancel()
}

// RestRemaining returns the active countdown's remaining time, zero if none.
func (s *Store) RestRemaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rest.Remaining()
}

// Elapsed returns the live session's active duration.
func (s *Store) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return 0
	}
	return s.timer.Elapsed()
}

// Tick advances the advisory one-second cadence: it fires a due rest timer
// callback. Elapsed time needs no ticking; it is recomputed from timestamps.
func (s *Store) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rest.Tick()
}

// HandleConnectivity reacts to a connectivity change; an offline→online
// transition flushes the queue.
func (s *Store) HandleConnectivity(ctx context.Context, online bool) {
	if !online {
		return
	}
	if _, err := s.Flush(ctx); err != nil {
		s.log.Warn("queue flush on reconnect failed", "error", err)
	}
}

// Flush replays the offline queue through the gateway. Pending entities in
// the live session are marked confirmed when the queue fully drains.
func (s *Store) Flush(ctx context.Context) (queue.FlushStats, error) {
	stats, err := s.queue.Flush(ctx, &replayDispatcher{gw: s.gw})
	if err != nil {
		return stats, err
	}
	if stats.Requeued == 0 {
		s.markPendingConfirmed()
	}
	return stats, nil
}

func (s *Store) markPendingConfirmed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	if s.current.Sync == models.SyncPending {
		s.current.Sync = models.SyncConfirmed
	}
	for i := range s.current.Exercises {
		for j := range s.current.Exercises[i].Sets {
			if s.current.Exercises[i].Sets[j].Sync == models.SyncPending {
				s.current.Exercises[i].Sets[j].Sync = models.SyncConfirmed
			}
		}
	}
}

// Current returns a snapshot of the live session for rendering, nil if none.
func (s *Store) Current() *models.WorkoutSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.snapshotLocked()
}

// Records returns the held personal records keyed by exercise.
func (s *Store) Records() map[uuid.UUID]models.PersonalRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]models.PersonalRecord, len(s.records))
	for id, rec := range s.records {
		out[id] = rec
	}
	return out
}

// Streaks returns the most recently computed streak result.
func (s *Store) Streaks() derive.StreakResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaks
}

// snapshotLocked deep-copies the current session so callers can render it
// without holding the lock.
func (s *Store) snapshotLocked() *models.WorkoutSession {
	snap := *s.current
	snap.Exercises = make([]models.WorkoutExercise, len(s.current.Exercises))
	for i, we := range s.current.Exercises {
		snap.Exercises[i] = we
		snap.Exercises[i].Sets = append([]models.SetEntry(nil), we.Sets...)
	}
	return &snap
}

func (s *Store) findExerciseLocked(workoutExerciseID uuid.UUID) (*models.WorkoutExercise, error) {
	if s.current == nil {
		return nil, ErrNoActiveWorkout
	}
	for i := range s.current.Exercises {
		if s.current.Exercises[i].ID == workoutExerciseID {
			return &s.current.Exercises[i], nil
		}
	}
	return nil, fmt.Errorf("workout exercise %s not in current session", workoutExerciseID)
}

func (s *Store) findSetLocked(setID uuid.UUID) (*models.SetEntry, error) {
	if s.current == nil {
		return nil, ErrNoActiveWorkout
	}
	for i := range s.current.Exercises {
		for j := range s.current.Exercises[i].Sets {
			if s.current.Exercises[i].Sets[j].ID == setID {
				return &s.current.Exercises[i].Sets[j], nil
			}
		}
	}
	return nil, fmt.Errorf("set %s not in current session", setID)
}

func (s *Store) ownerOfSetLocked(setID uuid.UUID) (*models.WorkoutExercise, bool) {
	for i := range s.current.Exercises {
		for _, set := range s.current.Exercises[i].Sets {
			if set.ID == setID {
				return &s.current.Exercises[i], true
			}
		}
	}
	return nil, false
}
