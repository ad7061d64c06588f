package session

import (
	"time"

	"github.com/google/uuid"
)

// RestInfo describes the set a rest countdown belongs to.
type RestInfo struct {
	ExerciseID   uuid.UUID
	ExerciseName string
	SetNumber    int
	DurationSec  int
}

// RestTimer is a single-slot countdown tied to the most recently completed
// set. Starting a new countdown replaces any active one without firing its
// callback. Ticks drive expiry; like the workout timer, the deadline
// timestamp is the source of truth, so a late tick still fires correctly.
// Not safe for concurrent use; the session store serializes access.
type RestTimer struct {
	now func() time.Time

	active   bool
	info     RestInfo
	deadline time.Time
	onExpire func(RestInfo)
}

// NewRestTimer creates an empty rest timer slot on the real clock.
func NewRestTimer() *RestTimer {
	return &RestTimer{now: time.Now}
}

// NewRestTimerAt creates an empty rest timer slot on the given clock (tests).
func NewRestTimerAt(now func() time.Time) *RestTimer {
	return &RestTimer{now: now}
}

// Start begins a countdown for the given set, silently replacing any active
// one. onExpire fires once when the deadline passes.
func (r *RestTimer) Start(info RestInfo, onExpire func(RestInfo)) {
	r.active = true
	r.info = info
	r.deadline = r.now().Add(time.Duration(info.DurationSec) * time.Second)
	r.onExpire = onExpire
}

// Cancel clears the slot without firing the callback.
func (r *RestTimer) Cancel() {
	r.active = false
	r.onExpire = nil
}

// Active reports whether a countdown is running.
func (r *RestTimer) Active() bool { return r.active }

// Info returns the set the active countdown belongs to.
func (r *RestTimer) Info() RestInfo { return r.info }

// Remaining returns the time left, clamped at zero.
func (r *RestTimer) Remaining() time.Duration {
	if !r.active {
		return 0
	}
	if rem := r.deadline.Sub(r.now()); rem > 0 {
		return rem
	}
	return 0
}

// Tick checks the deadline and fires the completion callback if it has
// passed, clearing the slot. Intended to be called on a one-second cadence;
// returns true if the countdown expired on this tick.
func (r *RestTimer) Tick() bool {
	if !r.active || r.now().Before(r.deadline) {
		return false
	}
	info, fn := r.info, r.onExpire
	r.active = false
	r.onExpire = nil
	if fn != nil {
		fn(info)
	}
	return true
}
