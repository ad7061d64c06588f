package storage

import (
	"context"
	"fmt"

	"github.com/claude/ironlog/internal/models"
	"github.com/google/uuid"
)

// InsertExercise inserts a catalog exercise. Built-in exercises carry user_id
// 0 and are visible to everyone. Returns true if inserted, false if duplicate.
func (db *DB) InsertExercise(ctx context.Context, ex models.Exercise) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO exercises (id, user_id, name, muscle_group, equipment, is_custom)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT DO NOTHING`,
		ex.ID, ex.UserID, ex.Name, ex.MuscleGroup, ex.Equipment, ex.IsCustom)
	if err != nil {
		return false, fmt.Errorf("inserting exercise: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateExercise overwrites a custom exercise's mutable fields. Scoping the
// match to the caller's user_id keeps the built-in catalog (user_id 0)
// read-only. Returns true when a row matched.
func (db *DB) UpdateExercise(ctx context.Context, ex models.Exercise) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE exercises
		 SET name = $3, muscle_group = $4, equipment = $5
		 WHERE id = $1 AND user_id = $2`,
		ex.ID, ex.UserID, ex.Name, ex.MuscleGroup, ex.Equipment)
	if err != nil {
		return false, fmt.Errorf("updating exercise: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteExercise removes a custom exercise. Built-ins are out of reach for the
// same user_id scoping reason as UpdateExercise.
func (db *DB) DeleteExercise(ctx context.Context, id uuid.UUID, userID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM exercises WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting exercise: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// QueryExercises returns the catalog visible to a user: built-ins plus their
// custom exercises, alphabetical.
func (db *DB) QueryExercises(ctx context.Context, userID int) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, muscle_group, equipment, is_custom, created_at
		 FROM exercises
		 WHERE user_id = 0 OR user_id = $1
		 ORDER BY name ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var ex models.Exercise
		if err := rows.Scan(&ex.ID, &ex.UserID, &ex.Name, &ex.MuscleGroup,
			&ex.Equipment, &ex.IsCustom, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, ex)
	}
	return result, rows.Err()
}
