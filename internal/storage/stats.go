package storage

import (
	"context"
	"fmt"
	"time"
)

// TrainingStats holds aggregate statistics about a user's training history.
type TrainingStats struct {
	TotalWorkouts    int64               `json:"total_workouts"`
	TotalSets        int64               `json:"total_sets"`
	TotalVolume      float64             `json:"total_volume_kg"`
	TotalDurationSec int64               `json:"total_duration_sec"`
	EarliestWorkout  *time.Time          `json:"earliest_workout"`
	LatestWorkout    *time.Time          `json:"latest_workout"`
	VolumeByExercise []ExerciseVolumeRow `json:"volume_by_exercise"`
}

// ExerciseVolumeRow summarizes completed training volume for one exercise.
type ExerciseVolumeRow struct {
	ExerciseName string  `json:"exercise_name"`
	SetCount     int64   `json:"set_count"`
	TotalVolume  float64 `json:"total_volume_kg"`
	MaxWeightKg  float64 `json:"max_weight_kg"`
}

// GetTrainingStats returns aggregate statistics over a user's completed
// workouts. Volume counts only completed sets with both weight and reps.
func (db *DB) GetTrainingStats(ctx context.Context, userID int) (*TrainingStats, error) {
	stats := &TrainingStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_volume), 0), COALESCE(SUM(duration_sec), 0),
		 MIN(started_at), MAX(started_at)
		 FROM workouts
		 WHERE user_id = $1 AND status = 'completed'`, userID,
	).Scan(&stats.TotalWorkouts, &stats.TotalVolume, &stats.TotalDurationSec,
		&stats.EarliestWorkout, &stats.LatestWorkout)
	if err != nil {
		return nil, fmt.Errorf("aggregating workouts: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM sets st
		 JOIN workout_exercises we ON st.workout_exercise_id = we.id
		 JOIN workouts w ON we.workout_id = w.id
		 WHERE w.user_id = $1 AND st.completed`, userID,
	).Scan(&stats.TotalSets)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT we.exercise_name, COUNT(*),
		 COALESCE(SUM(st.weight_kg * st.reps), 0), COALESCE(MAX(st.weight_kg), 0)
		 FROM sets st
		 JOIN workout_exercises we ON st.workout_exercise_id = we.id
		 JOIN workouts w ON we.workout_id = w.id
		 WHERE w.user_id = $1 AND st.completed AND st.weight_kg IS NOT NULL AND st.reps IS NOT NULL
		 GROUP BY we.exercise_name
		 ORDER BY SUM(st.weight_kg * st.reps) DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying volume by exercise: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r ExerciseVolumeRow
		if err := rows.Scan(&r.ExerciseName, &r.SetCount, &r.TotalVolume, &r.MaxWeightKg); err != nil {
			return nil, fmt.Errorf("scanning exercise volume: %w", err)
		}
		stats.VolumeByExercise = append(stats.VolumeByExercise, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
