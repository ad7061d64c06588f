package session

import (
	"context"
	"testing"
	"time"
)

// TestSuspendResumeRunning checks that a running session keeps accruing wall
// time across a suspend/resume cycle, as when the CLI exits between
// subcommands.
func TestSuspendResumeRunning(t *testing.T) {
	clock := newFakeClock()
	gw := newFakeGateway()
	s := newTestStore(t, gw, clock.Now)
	ctx := context.Background()

	if _, err := s.StartWorkout(ctx, "Push Day", nil); err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}
	clock.Advance(10 * time.Minute)

	st := s.Suspend()
	if st == nil {
		t.Fatal("Suspend returned nil with an active workout")
	}
	if st.TimerPhase != PhaseRunning {
		t.Fatalf("timer phase = %v, want running", st.TimerPhase)
	}

	// The gap between processes still counts as active time.
	clock.Advance(5 * time.Minute)

	s2 := newTestStore(t, gw, clock.Now)
	if err := s2.Resume(st); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if got := s2.Elapsed(); got != 15*time.Minute {
		t.Errorf("elapsed after resume = %v, want 15m", got)
	}
	if s2.Current() == nil || s2.Current().Name != "Push Day" {
		t.Error("resumed session lost the workout")
	}
}

// TestSuspendResumePaused checks that a paused session stays frozen across
// the gap.
func TestSuspendResumePaused(t *testing.T) {
	clock := newFakeClock()
	gw := newFakeGateway()
	s := newTestStore(t, gw, clock.Now)
	ctx := context.Background()

	if _, err := s.StartWorkout(ctx, "Legs", nil); err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}
	clock.Advance(3 * time.Minute)
	if _, err := s.PauseWorkout(); err != nil {
		t.Fatalf("PauseWorkout: %v", err)
	}

	st := s.Suspend()
	clock.Advance(time.Hour)

	s2 := newTestStore(t, gw, clock.Now)
	if err := s2.Resume(st); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if got := s2.Elapsed(); got != 3*time.Minute {
		t.Errorf("elapsed = %v, want 3m (pause must freeze across resume)", got)
	}
	if _, err := s2.ResumeWorkout(); err != nil {
		t.Fatalf("ResumeWorkout after restore: %v", err)
	}
	clock.Advance(time.Minute)
	if got := s2.Elapsed(); got != 4*time.Minute {
		t.Errorf("elapsed after unpausing = %v, want 4m", got)
	}
}

// TestSuspendCarriesRestDeadline checks that an active rest countdown
// survives a restart with its absolute deadline intact.
func TestSuspendCarriesRestDeadline(t *testing.T) {
	clock := newFakeClock()
	gw := newFakeGateway()
	s := newTestStore(t, gw, clock.Now)
	ctx := context.Background()

	if _, err := s.StartWorkout(ctx, "Bench", nil); err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}
	_, setID := addExerciseAndSet(t, s, 80, 5)
	if _, err := s.CompleteSet(ctx, setID); err != nil {
		t.Fatalf("CompleteSet: %v", err)
	}
	if s.RestRemaining() == 0 {
		t.Fatal("expected a rest countdown after completing a set")
	}

	clock.Advance(30 * time.Second)
	st := s.Suspend()

	s2 := newTestStore(t, gw, clock.Now)
	if err := s2.Resume(st); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	want := s.RestRemaining()
	if got := s2.RestRemaining(); got != want {
		t.Errorf("rest remaining after resume = %v, want %v", got, want)
	}
}

// TestResumeRefusedWhileActive checks that a restored snapshot cannot
// clobber a session already in progress.
func TestResumeRefusedWhileActive(t *testing.T) {
	clock := newFakeClock()
	gw := newFakeGateway()
	s := newTestStore(t, gw, clock.Now)
	ctx := context.Background()

	if _, err := s.StartWorkout(ctx, "A", nil); err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}
	st := s.Suspend()
	if err := s.Resume(st); err != ErrWorkoutInProgress {
		t.Errorf("Resume with active session = %v, want ErrWorkoutInProgress", err)
	}
}

// TestSaveLoadState round-trips a snapshot through disk and checks that a
// nil save clears the file.
func TestSaveLoadState(t *testing.T) {
	clock := newFakeClock()
	gw := newFakeGateway()
	s := newTestStore(t, gw, clock.Now)
	ctx := context.Background()

	if _, err := s.StartWorkout(ctx, "Deadlift", nil); err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}
	dir := t.TempDir()

	if err := SaveState(dir, s.Suspend()); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	st, err := LoadState(dir)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if st == nil || st.Session.Name != "Deadlift" {
		t.Fatalf("loaded state = %+v, want Deadlift session", st)
	}

	if err := SaveState(dir, nil); err != nil {
		t.Fatalf("SaveState(nil): %v", err)
	}
	st, err = LoadState(dir)
	if err != nil {
		t.Fatalf("LoadState after clear: %v", err)
	}
	if st != nil {
		t.Errorf("state after clear = %+v, want nil", st)
	}

	// A directory with no state file is not an error.
	st, err = LoadState(t.TempDir())
	if err != nil || st != nil {
		t.Errorf("LoadState(empty dir) = %+v, %v; want nil, nil", st, err)
	}
}
