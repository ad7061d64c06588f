package session

import (
	"fmt"
	"time"
)

// TimerPhase is the lifecycle state of a workout timer.
type TimerPhase int

const (
	PhaseIdle TimerPhase = iota
	PhaseRunning
	PhasePaused
	PhaseFinished
	PhaseCancelled
)

func (p TimerPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseFinished:
		return "finished"
	case PhaseCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("TimerPhase(%d)", int(p))
}

// Timer tracks elapsed active time for a workout with pause/resume. Wall
// clock timestamps are the source of truth: display ticks are advisory and
// missed ticks never skew the result. Not safe for concurrent use; the
// session store serializes access.
type Timer struct {
	now func() time.Time

	phase        TimerPhase
	startedAt    time.Time // start of the current running stretch
	pausedAt     time.Time // start of the current pause
	accumRunning time.Duration
	accumPaused  time.Duration
}

// NewTimer creates an idle timer on the real clock.
func NewTimer() *Timer {
	return &Timer{now: time.Now}
}

// NewTimerAt creates an idle timer on the given clock (tests).
func NewTimerAt(now func() time.Time) *Timer {
	return &Timer{now: now}
}

// Phase returns the current lifecycle state.
func (t *Timer) Phase() TimerPhase { return t.phase }

// Start begins timing. Valid only from idle.
func (t *Timer) Start() error {
	if t.phase != PhaseIdle {
		return fmt.Errorf("cannot start timer from %s", t.phase)
	}
	t.startedAt = t.now()
	t.phase = PhaseRunning
	return nil
}

// Pause freezes elapsed time, folding the current running stretch into the
// accumulated total.
func (t *Timer) Pause() error {
	if t.phase != PhaseRunning {
		return fmt.Errorf("cannot pause timer from %s", t.phase)
	}
	now := t.now()
	t.accumRunning += now.Sub(t.startedAt)
	t.pausedAt = now
	t.phase = PhasePaused
	return nil
}

// Resume continues timing after a pause. The pause gap is folded into the
// accumulated paused duration for reporting.
func (t *Timer) Resume() error {
	if t.phase != PhasePaused {
		return fmt.Errorf("cannot resume timer from %s", t.phase)
	}
	now := t.now()
	t.accumPaused += now.Sub(t.pausedAt)
	t.startedAt = now
	t.phase = PhaseRunning
	return nil
}

// Finish stops the timer for good and returns the total active duration.
func (t *Timer) Finish() (time.Duration, error) {
	switch t.phase {
	case PhaseRunning:
		t.accumRunning += t.now().Sub(t.startedAt)
	case PhasePaused:
		// already folded in by Pause
	default:
		return 0, fmt.Errorf("cannot finish timer from %s", t.phase)
	}
	t.phase = PhaseFinished
	return t.accumRunning, nil
}

// Cancel abandons the timer. Valid from running or paused.
func (t *Timer) Cancel() error {
	if t.phase != PhaseRunning && t.phase != PhasePaused {
		return fmt.Errorf("cannot cancel timer from %s", t.phase)
	}
	t.phase = PhaseCancelled
	return nil
}

// Elapsed returns the active duration so far: accumulated running time plus
// the in-flight stretch while running. Paused intervals are excluded.
func (t *Timer) Elapsed() time.Duration {
	if t.phase == PhaseRunning {
		return t.accumRunning + t.now().Sub(t.startedAt)
	}
	return t.accumRunning
}

// PausedDuration returns total time spent paused, including an in-flight
// pause.
func (t *Timer) PausedDuration() time.Duration {
	if t.phase == PhasePaused {
		return t.accumPaused + t.now().Sub(t.pausedAt)
	}
	return t.accumPaused
}
