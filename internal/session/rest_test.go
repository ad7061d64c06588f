package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestRestTimerExpiry verifies the countdown fires its callback once the
// deadline passes and clears the slot.
func TestRestTimerExpiry(t *testing.T) {
	clock := newFakeClock()
	rest := NewRestTimerAt(clock.Now)

	var fired []RestInfo
	info := RestInfo{ExerciseID: uuid.New(), ExerciseName: "Squat", SetNumber: 2, DurationSec: 90}
	rest.Start(info, func(i RestInfo) { fired = append(fired, i) })

	clock.Advance(89 * time.Second)
	if rest.Tick() {
		t.Error("tick before deadline should not expire")
	}
	if got := rest.Remaining(); got != 1*time.Second {
		t.Errorf("remaining = %v, want 1s", got)
	}

	clock.Advance(2 * time.Second)
	if !rest.Tick() {
		t.Error("tick after deadline should expire")
	}
	if len(fired) != 1 || fired[0].SetNumber != 2 {
		t.Errorf("callback fired %d times with %+v, want once with set 2", len(fired), fired)
	}
	if rest.Active() {
		t.Error("slot should clear after expiry")
	}
	if rest.Tick() {
		t.Error("expired timer must not fire again")
	}
}

// TestRestTimerReplacement verifies the single-slot rule: starting a new
// countdown replaces the old one without firing its callback.
func TestRestTimerReplacement(t *testing.T) {
	clock := newFakeClock()
	rest := NewRestTimerAt(clock.Now)

	firstFired := false
	rest.Start(RestInfo{ExerciseName: "Bench", SetNumber: 1, DurationSec: 60}, func(RestInfo) { firstFired = true })

	clock.Advance(30 * time.Second)
	var second []RestInfo
	rest.Start(RestInfo{ExerciseName: "Bench", SetNumber: 2, DurationSec: 60}, func(i RestInfo) { second = append(second, i) })

	// Past the first deadline but not the second.
	clock.Advance(45 * time.Second)
	if rest.Tick() {
		t.Error("replaced deadline should not apply")
	}
	if firstFired {
		t.Error("replaced countdown must not fire its callback")
	}

	clock.Advance(20 * time.Second)
	if !rest.Tick() {
		t.Error("second countdown should expire")
	}
	if len(second) != 1 || second[0].SetNumber != 2 {
		t.Errorf("second callback = %+v, want one firing for set 2", second)
	}
}

// TestRestTimerCancel verifies cancelling clears the slot silently.
func TestRestTimerCancel(t *testing.T) {
	clock := newFakeClock()
	rest := NewRestTimerAt(clock.Now)

	fired := false
	rest.Start(RestInfo{DurationSec: 10}, func(RestInfo) { fired = true })
	rest.Cancel()

	clock.Advance(time.Minute)
	if rest.Tick() || fired {
		t.Error("cancelled countdown must not fire")
	}
	if rest.Remaining() != 0 {
		t.Error("cancelled countdown should report zero remaining")
	}
}
