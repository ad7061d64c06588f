package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkoutStatus is the lifecycle state of a workout session.
type WorkoutStatus string

const (
	StatusPlanned    WorkoutStatus = "planned"
	StatusInProgress WorkoutStatus = "in_progress"
	StatusCompleted  WorkoutStatus = "completed"
	StatusCancelled  WorkoutStatus = "cancelled"
)

// SyncState tracks whether an optimistic local mutation has been confirmed
// by the server. Optimistic updates are never rolled back; a late failure
// leaves the entity in SyncFailed for later reconciliation.
type SyncState string

const (
	SyncPending   SyncState = "pending"
	SyncConfirmed SyncState = "confirmed"
	SyncFailed    SyncState = "failed"
)

// Exercise is a movement the user can perform (built-in or custom).
type Exercise struct {
	ID          uuid.UUID `json:"id"`
	UserID      int       `json:"user_id"`
	Name        string    `json:"name"`
	MuscleGroup string    `json:"muscle_group"`
	Equipment   string    `json:"equipment"`
	IsCustom    bool      `json:"is_custom"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorkoutSession is one training session, live or historical.
type WorkoutSession struct {
	ID          uuid.UUID         `json:"id"`
	UserID      int               `json:"user_id"`
	Name        string            `json:"name"`
	Status      WorkoutStatus     `json:"status"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	TemplateID  *uuid.UUID        `json:"template_id,omitempty"`
	Exercises   []WorkoutExercise `json:"exercises,omitempty"`
	TotalVolume float64           `json:"total_volume"`
	TotalSets   int               `json:"total_sets"`
	DurationSec int               `json:"duration_sec"`
	Notes       string            `json:"notes,omitempty"`
	Sync        SyncState         `json:"sync,omitempty"`
}

// WorkoutExercise is one exercise performed within a session. OrderIndex is a
// dense 0-based position within the session.
type WorkoutExercise struct {
	ID            uuid.UUID  `json:"id"`
	WorkoutID     uuid.UUID  `json:"workout_id"`
	ExerciseID    uuid.UUID  `json:"exercise_id"`
	ExerciseName  string     `json:"exercise_name"`
	OrderIndex    int        `json:"order_index"`
	SupersetGroup *uuid.UUID `json:"superset_group,omitempty"`
	Sets          []SetEntry `json:"sets,omitempty"`
}

// SetEntry is one set of an exercise. SetNumber is 1-based and strictly
// increasing within its exercise. Weight and reps are optional so cardio
// sets (distance/duration) fit the same shape.
type SetEntry struct {
	ID                uuid.UUID  `json:"id"`
	WorkoutExerciseID uuid.UUID  `json:"workout_exercise_id"`
	SetNumber         int        `json:"set_number"`
	WeightKg          *float64   `json:"weight_kg,omitempty"`
	Reps              *int       `json:"reps,omitempty"`
	DistanceM         *float64   `json:"distance_m,omitempty"`
	DurationSec       *int       `json:"duration_sec,omitempty"`
	RestSec           int        `json:"rest_sec"`
	RPE               *float64   `json:"rpe,omitempty"`
	Completed         bool       `json:"completed"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	Sync              SyncState  `json:"sync,omitempty"`
}

// CountsTowardVolume reports whether the set contributes weight×reps to
// session volume: it must be completed with both weight and reps present.
func (s SetEntry) CountsTowardVolume() bool {
	return s.Completed && s.WeightKg != nil && s.Reps != nil
}

// Template is a reusable workout blueprint.
type Template struct {
	ID        uuid.UUID          `json:"id"`
	UserID    int                `json:"user_id"`
	Name      string             `json:"name"`
	Exercises []TemplateExercise `json:"exercises"`
	CreatedAt time.Time          `json:"created_at"`
}

// TemplateExercise is one planned exercise slot in a template.
type TemplateExercise struct {
	ExerciseID   uuid.UUID `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	OrderIndex   int       `json:"order_index"`
	TargetSets   int       `json:"target_sets"`
	TargetReps   int       `json:"target_reps"`
	RestSec      int       `json:"rest_sec"`
}

// PersonalRecord is the best known estimated one-rep-max for a user/exercise
// pair. At most one current record exists per pair; Previous carries a
// snapshot of the superseded record for improvement display.
type PersonalRecord struct {
	UserID       int             `json:"user_id"`
	ExerciseID   uuid.UUID       `json:"exercise_id"`
	ExerciseName string          `json:"exercise_name"`
	WeightKg     float64         `json:"weight_kg"`
	Reps         int             `json:"reps"`
	OneRepMax    float64         `json:"one_rep_max"`
	AchievedAt   time.Time       `json:"achieved_at"`
	WorkoutID    uuid.UUID       `json:"workout_id"`
	Previous     *RecordSnapshot `json:"previous,omitempty"`
}

// RecordSnapshot is the state of a personal record at the moment it was
// superseded.
type RecordSnapshot struct {
	WeightKg   float64   `json:"weight_kg"`
	Reps       int       `json:"reps"`
	OneRepMax  float64   `json:"one_rep_max"`
	AchievedAt time.Time `json:"achieved_at"`
}
