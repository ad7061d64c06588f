package storage

import (
	"context"
	"fmt"

	"github.com/claude/ironlog/internal/models"
	"github.com/google/uuid"
)

// InsertWorkoutExercise inserts an exercise slot into a workout. Returns true
// if inserted, false if duplicate.
func (db *DB) InsertWorkoutExercise(ctx context.Context, we models.WorkoutExercise) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO workout_exercises (id, workout_id, exercise_id, exercise_name, order_index, superset_group)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT DO NOTHING`,
		we.ID, we.WorkoutID, we.ExerciseID, we.ExerciseName, we.OrderIndex, we.SupersetGroup)
	if err != nil {
		return false, fmt.Errorf("inserting workout exercise: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateWorkoutExercise rewrites the slot's position and superset grouping.
func (db *DB) UpdateWorkoutExercise(ctx context.Context, we models.WorkoutExercise, userID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workout_exercises we
		 SET order_index = $3, superset_group = $4
		 FROM workouts w
		 WHERE we.workout_id = w.id AND we.id = $1 AND w.user_id = $2`,
		we.ID, userID, we.OrderIndex, we.SupersetGroup)
	if err != nil {
		return false, fmt.Errorf("updating workout exercise: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteWorkoutExercise removes the slot and, via FK cascade, its sets.
func (db *DB) DeleteWorkoutExercise(ctx context.Context, id uuid.UUID, userID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workout_exercises we
		 USING workouts w
		 WHERE we.workout_id = w.id AND we.id = $1 AND w.user_id = $2`,
		id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting workout exercise: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// WorkoutExerciseOwner resolves the workout a slot belongs to, scoped to a
// user. Handlers use it to validate ownership before set writes.
func (db *DB) WorkoutExerciseOwner(ctx context.Context, id uuid.UUID, userID int) (uuid.UUID, error) {
	var workoutID uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`SELECT w.id FROM workout_exercises we
		 JOIN workouts w ON we.workout_id = w.id
		 WHERE we.id = $1 AND w.user_id = $2`,
		id, userID).Scan(&workoutID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolving workout exercise owner: %w", err)
	}
	return workoutID, nil
}

func (db *DB) queryWorkoutExercises(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutExercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, workout_id, exercise_id, exercise_name, order_index, superset_group
		 FROM workout_exercises
		 WHERE workout_id = $1
		 ORDER BY order_index ASC`,
		workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying workout exercises: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutExercise
	for rows.Next() {
		var we models.WorkoutExercise
		if err := rows.Scan(&we.ID, &we.WorkoutID, &we.ExerciseID, &we.ExerciseName,
			&we.OrderIndex, &we.SupersetGroup); err != nil {
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		result = append(result, we)
	}
	return result, rows.Err()
}
