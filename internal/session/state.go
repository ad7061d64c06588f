package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/ironlog/internal/models"
)

// SessionState is the durable snapshot of a live session: the workout itself
// plus enough timer state to keep the clock honest across process restarts.
// Wall time keeps accruing while no process is running; a paused session
// stays paused.
type SessionState struct {
	Session      models.WorkoutSession `json:"session"`
	TimerPhase   TimerPhase            `json:"timer_phase"`
	ActiveSec    float64               `json:"active_sec"`
	RestDeadline *time.Time            `json:"rest_deadline,omitempty"`
	RestSet      *RestInfo             `json:"rest_set,omitempty"`
	MarkedAt     time.Time             `json:"marked_at"`
}

// Suspend snapshots the live session for persistence. Returns nil when no
// workout is in progress.
func (s *Store) Suspend() *SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	st := &SessionState{
		Session:    *s.snapshotLocked(),
		TimerPhase: s.timer.Phase(),
		ActiveSec:  s.timer.Elapsed().Seconds(),
		MarkedAt:   s.now(),
	}
	if s.rest.Active() {
		info := s.rest.Info()
		deadline := s.now().Add(s.rest.Remaining())
		st.RestSet = &info
		st.RestDeadline = &deadline
	}
	return st
}

// Resume installs a previously suspended session. The in-flight running
// stretch restarts from the snapshot timestamp, so elapsed time covers the
// gap between processes.
func (s *Store) Resume(st *SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return ErrWorkoutInProgress
	}
	if st.TimerPhase != PhaseRunning && st.TimerPhase != PhasePaused {
		return fmt.Errorf("cannot resume a %s session", st.TimerPhase)
	}

	sess := st.Session
	s.current = &sess
	t := NewTimerAt(s.now)
	t.accumRunning = time.Duration(st.ActiveSec * float64(time.Second))
	t.phase = st.TimerPhase
	switch st.TimerPhase {
	case PhaseRunning:
		t.startedAt = st.MarkedAt
	case PhasePaused:
		t.pausedAt = st.MarkedAt
	}
	s.timer = t

	if st.RestSet != nil && st.RestDeadline != nil && st.RestDeadline.After(s.now()) {
		info := *st.RestSet
		info.DurationSec = int(st.RestDeadline.Sub(s.now()).Seconds())
		s.rest.Start(info, s.onRestComplete)
	}
	return nil
}

const stateFile = "session.json"

// SaveState writes the snapshot to dir, or removes the file when st is nil.
func SaveState(dir string, st *SessionState) error {
	path := filepath.Join(dir, stateFile)
	if st == nil {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing session state: %w", err)
		}
		return nil
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session state: %w", err)
	}
	return nil
}

// LoadState reads a saved snapshot from dir. Returns nil with no error when
// none exists.
func LoadState(dir string) (*SessionState, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session state: %w", err)
	}
	var st SessionState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decoding session state: %w", err)
	}
	return &st, nil
}
