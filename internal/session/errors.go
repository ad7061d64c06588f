package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoActiveWorkout is returned by actions that require a live session.
	ErrNoActiveWorkout = errors.New("no active workout")
	// ErrWorkoutInProgress is returned by StartWorkout when a session is
	// already live.
	ErrWorkoutInProgress = errors.New("a workout is already in progress")
	// ErrNotAuthenticated aborts an action before any gateway call.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ValidationError rejects finishing a workout that is missing required data.
// It is distinct from network failures so the UI can prompt the user instead
// of retrying.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cannot finish workout, missing: %s", strings.Join(e.Missing, ", "))
}

// IsValidation reports whether err is a finish-time validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
