package storage

import (
	"context"
	"fmt"

	"github.com/claude/ironlog/internal/models"
	"github.com/google/uuid"
)

// InsertSet inserts a set row. Returns true if inserted, false if duplicate.
func (db *DB) InsertSet(ctx context.Context, s models.SetEntry) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO sets (id, workout_exercise_id, set_number, weight_kg, reps,
		 distance_m, duration_sec, rest_sec, rpe, completed, completed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 ON CONFLICT DO NOTHING`,
		s.ID, s.WorkoutExerciseID, s.SetNumber, s.WeightKg, s.Reps,
		s.DistanceM, s.DurationSec, s.RestSec, s.RPE, s.Completed, s.CompletedAt)
	if err != nil {
		return false, fmt.Errorf("inserting set: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateSet overwrites a set's recorded values, scoped to the owning user.
func (db *DB) UpdateSet(ctx context.Context, s models.SetEntry, userID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE sets st
		 SET weight_kg = $3, reps = $4, distance_m = $5, duration_sec = $6,
		     rest_sec = $7, rpe = $8, completed = $9, completed_at = $10
		 FROM workout_exercises we
		 JOIN workouts w ON we.workout_id = w.id
		 WHERE st.workout_exercise_id = we.id AND st.id = $1 AND w.user_id = $2`,
		s.ID, userID, s.WeightKg, s.Reps, s.DistanceM, s.DurationSec,
		s.RestSec, s.RPE, s.Completed, s.CompletedAt)
	if err != nil {
		return false, fmt.Errorf("updating set: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteSet removes a set, scoped to the owning user.
func (db *DB) DeleteSet(ctx context.Context, id uuid.UUID, userID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM sets st
		 USING workout_exercises we
		 JOIN workouts w ON we.workout_id = w.id
		 WHERE st.workout_exercise_id = we.id AND st.id = $1 AND w.user_id = $2`,
		id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting set: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (db *DB) querySetsForWorkout(ctx context.Context, workoutID uuid.UUID) ([]models.SetEntry, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT st.id, st.workout_exercise_id, st.set_number, st.weight_kg, st.reps,
		 st.distance_m, st.duration_sec, st.rest_sec, st.rpe, st.completed, st.completed_at
		 FROM sets st
		 JOIN workout_exercises we ON st.workout_exercise_id = we.id
		 WHERE we.workout_id = $1
		 ORDER BY we.order_index ASC, st.set_number ASC`,
		workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer rows.Close()

	var result []models.SetEntry
	for rows.Next() {
		var s models.SetEntry
		if err := rows.Scan(&s.ID, &s.WorkoutExerciseID, &s.SetNumber, &s.WeightKg, &s.Reps,
			&s.DistanceM, &s.DurationSec, &s.RestSec, &s.RPE, &s.Completed, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
