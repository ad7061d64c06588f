package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/ironlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InsertTemplate inserts a template and its exercise slots in one
// transaction. Returns true if inserted, false if duplicate.
func (db *DB) InsertTemplate(ctx context.Context, tpl models.Template) (bool, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning template insert: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO templates (id, user_id, name)
		 VALUES ($1,$2,$3)
		 ON CONFLICT DO NOTHING`,
		tpl.ID, tpl.UserID, tpl.Name)
	if err != nil {
		return false, fmt.Errorf("inserting template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if err := insertTemplateExercises(ctx, tx, tpl); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing template insert: %w", err)
	}
	return true, nil
}

// UpdateTemplate renames a template and replaces its exercise slots in one
// transaction. Slots carry no client identity of their own, so replace is
// simpler and just as correct as diffing. Returns true when a row matched.
func (db *DB) UpdateTemplate(ctx context.Context, tpl models.Template) (bool, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning template update: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE templates SET name = $3 WHERE id = $1 AND user_id = $2`,
		tpl.ID, tpl.UserID, tpl.Name)
	if err != nil {
		return false, fmt.Errorf("updating template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM template_exercises WHERE template_id = $1`, tpl.ID); err != nil {
		return false, fmt.Errorf("clearing template exercises: %w", err)
	}
	if err := insertTemplateExercises(ctx, tx, tpl); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing template update: %w", err)
	}
	return true, nil
}

func insertTemplateExercises(ctx context.Context, tx pgx.Tx, tpl models.Template) error {
	if len(tpl.Exercises) == 0 {
		return nil
	}
	query := `INSERT INTO template_exercises (template_id, exercise_id, exercise_name, order_index, target_sets, target_reps, rest_sec) VALUES `
	args := make([]any, 0, len(tpl.Exercises)*7)
	valueStrings := make([]string, 0, len(tpl.Exercises))
	for i, te := range tpl.Exercises {
		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args, tpl.ID, te.ExerciseID, te.ExerciseName, te.OrderIndex,
			te.TargetSets, te.TargetReps, te.RestSec)
	}
	if _, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
		return fmt.Errorf("inserting template exercises: %w", err)
	}
	return nil
}

// DeleteTemplate removes a template and, via FK cascade, its exercise slots.
func (db *DB) DeleteTemplate(ctx context.Context, id uuid.UUID, userID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM templates WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting template: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// QueryTemplates returns a user's templates with exercise slots nested.
func (db *DB) QueryTemplates(ctx context.Context, userID int) ([]models.Template, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, created_at
		 FROM templates
		 WHERE user_id = $1
		 ORDER BY name ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	var result []models.Template
	for rows.Next() {
		var tpl models.Template
		if err := rows.Scan(&tpl.ID, &tpl.UserID, &tpl.Name, &tpl.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		result = append(result, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		exercises, err := db.queryTemplateExercises(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Exercises = exercises
	}
	return result, nil
}

func (db *DB) queryTemplateExercises(ctx context.Context, templateID uuid.UUID) ([]models.TemplateExercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_id, exercise_name, order_index, target_sets, target_reps, rest_sec
		 FROM template_exercises
		 WHERE template_id = $1
		 ORDER BY order_index ASC`,
		templateID)
	if err != nil {
		return nil, fmt.Errorf("querying template exercises: %w", err)
	}
	defer rows.Close()

	var result []models.TemplateExercise
	for rows.Next() {
		var te models.TemplateExercise
		if err := rows.Scan(&te.ExerciseID, &te.ExerciseName, &te.OrderIndex,
			&te.TargetSets, &te.TargetReps, &te.RestSec); err != nil {
			return nil, fmt.Errorf("scanning template exercise: %w", err)
		}
		result = append(result, te)
	}
	return result, rows.Err()
}
