package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/ironlog/internal/models"
	"github.com/google/uuid"
)

// UpsertPersonalRecord stores the current best for a user/exercise pair. An
// existing record is only replaced by a strictly higher estimated 1RM; ties
// and regressions no-op, which also keeps replayed puts idempotent. The
// superseded values land in the prev_* columns so clients can show the
// improvement.
func (db *DB) UpsertPersonalRecord(ctx context.Context, rec models.PersonalRecord) error {
	var prevWeight, prevOneRM *float64
	var prevReps *int
	var prevAchievedAt *time.Time
	if rec.Previous != nil {
		prevWeight = &rec.Previous.WeightKg
		prevReps = &rec.Previous.Reps
		prevOneRM = &rec.Previous.OneRepMax
		prevAchievedAt = &rec.Previous.AchievedAt
	}

	_, err := db.Pool.Exec(ctx,
		`INSERT INTO personal_records (user_id, exercise_id, exercise_name, weight_kg, reps,
		 one_rep_max, achieved_at, workout_id, prev_weight_kg, prev_reps, prev_one_rep_max, prev_achieved_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 ON CONFLICT (user_id, exercise_id) DO UPDATE
			SET exercise_name = $3, weight_kg = $4, reps = $5, one_rep_max = $6,
			    achieved_at = $7, workout_id = $8,
			    prev_weight_kg = $9, prev_reps = $10, prev_one_rep_max = $11, prev_achieved_at = $12
			WHERE personal_records.one_rep_max < EXCLUDED.one_rep_max`,
		rec.UserID, rec.ExerciseID, rec.ExerciseName, rec.WeightKg, rec.Reps,
		rec.OneRepMax, rec.AchievedAt, rec.WorkoutID,
		prevWeight, prevReps, prevOneRM, prevAchievedAt)
	if err != nil {
		return fmt.Errorf("upserting personal record: %w", err)
	}
	return nil
}

// DeletePersonalRecord removes a user's record for one exercise.
func (db *DB) DeletePersonalRecord(ctx context.Context, userID int, exerciseID uuid.UUID) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM personal_records WHERE user_id = $1 AND exercise_id = $2`,
		userID, exerciseID)
	if err != nil {
		return false, fmt.Errorf("deleting personal record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// QueryPersonalRecords returns a user's current records, best first.
func (db *DB) QueryPersonalRecords(ctx context.Context, userID int) ([]models.PersonalRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id, exercise_id, exercise_name, weight_kg, reps, one_rep_max,
		 achieved_at, workout_id, prev_weight_kg, prev_reps, prev_one_rep_max, prev_achieved_at
		 FROM personal_records
		 WHERE user_id = $1
		 ORDER BY one_rep_max DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying personal records: %w", err)
	}
	defer rows.Close()

	var result []models.PersonalRecord
	for rows.Next() {
		var rec models.PersonalRecord
		var prevWeight, prevOneRM *float64
		var prevReps *int
		var prevAchievedAt *time.Time
		if err := rows.Scan(&rec.UserID, &rec.ExerciseID, &rec.ExerciseName, &rec.WeightKg, &rec.Reps,
			&rec.OneRepMax, &rec.AchievedAt, &rec.WorkoutID,
			&prevWeight, &prevReps, &prevOneRM, &prevAchievedAt); err != nil {
			return nil, fmt.Errorf("scanning personal record: %w", err)
		}
		if prevWeight != nil && prevReps != nil && prevOneRM != nil && prevAchievedAt != nil {
			rec.Previous = &models.RecordSnapshot{
				WeightKg:   *prevWeight,
				Reps:       *prevReps,
				OneRepMax:  *prevOneRM,
				AchievedAt: *prevAchievedAt,
			}
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
