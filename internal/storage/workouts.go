package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/ironlog/internal/models"
	"github.com/google/uuid"
)

// InsertWorkout inserts a workout session row. IDs are client-generated, so a
// replayed create is a duplicate; returns true if inserted, false if duplicate.
func (db *DB) InsertWorkout(ctx context.Context, w models.WorkoutSession) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO workouts (id, user_id, name, status, started_at, completed_at,
		 template_id, total_volume, total_sets, duration_sec, notes)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 ON CONFLICT DO NOTHING`,
		w.ID, w.UserID, w.Name, w.Status, w.StartedAt, w.CompletedAt,
		w.TemplateID, w.TotalVolume, w.TotalSets, w.DurationSec, w.Notes)
	if err != nil {
		return false, fmt.Errorf("inserting workout: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateWorkout overwrites a workout session's mutable fields. Returns true
// when a row matched.
func (db *DB) UpdateWorkout(ctx context.Context, w models.WorkoutSession) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workouts
		 SET name = $3, status = $4, completed_at = $5, total_volume = $6,
		     total_sets = $7, duration_sec = $8, notes = $9
		 WHERE id = $1 AND user_id = $2`,
		w.ID, w.UserID, w.Name, w.Status, w.CompletedAt,
		w.TotalVolume, w.TotalSets, w.DurationSec, w.Notes)
	if err != nil {
		return false, fmt.Errorf("updating workout: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteWorkout removes a workout and, via FK cascade, its exercises and sets.
func (db *DB) DeleteWorkout(ctx context.Context, workoutID uuid.UUID, userID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2`, workoutID, userID)
	if err != nil {
		return false, fmt.Errorf("deleting workout: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// QueryWorkouts retrieves workout sessions in a time range, newest first,
// without nested exercises.
func (db *DB) QueryWorkouts(ctx context.Context, start, end time.Time, userID int) ([]models.WorkoutSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, status, started_at, completed_at,
		 template_id, total_volume, total_sets, duration_sec, notes
		 FROM workouts
		 WHERE started_at >= $1 AND started_at < $2 AND user_id = $3
		 ORDER BY started_at DESC`,
		start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutSession
	for rows.Next() {
		var w models.WorkoutSession
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Status, &w.StartedAt, &w.CompletedAt,
			&w.TemplateID, &w.TotalVolume, &w.TotalSets, &w.DurationSec, &w.Notes); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// GetWorkout retrieves a single workout with its exercises and sets nested.
func (db *DB) GetWorkout(ctx context.Context, workoutID uuid.UUID, userID int) (*models.WorkoutSession, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, status, started_at, completed_at,
		 template_id, total_volume, total_sets, duration_sec, notes
		 FROM workouts
		 WHERE id = $1 AND user_id = $2`,
		workoutID, userID)

	var w models.WorkoutSession
	err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.Status, &w.StartedAt, &w.CompletedAt,
		&w.TemplateID, &w.TotalVolume, &w.TotalSets, &w.DurationSec, &w.Notes)
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", err)
	}

	exercises, err := db.queryWorkoutExercises(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	sets, err := db.querySetsForWorkout(ctx, workoutID)
	if err != nil {
		return nil, err
	}

	byExercise := make(map[uuid.UUID][]models.SetEntry)
	for _, s := range sets {
		byExercise[s.WorkoutExerciseID] = append(byExercise[s.WorkoutExerciseID], s)
	}
	for i := range exercises {
		exercises[i].Sets = byExercise[exercises[i].ID]
	}
	w.Exercises = exercises

	return &w, nil
}
