package mcp

import (
	"context"
	"time"

	"github.com/claude/ironlog/internal/models"
	"github.com/claude/ironlog/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	QueryWorkouts(ctx context.Context, start, end time.Time, userID int) ([]models.WorkoutSession, error)
	GetWorkout(ctx context.Context, workoutID uuid.UUID, userID int) (*models.WorkoutSession, error)
	QueryPersonalRecords(ctx context.Context, userID int) ([]models.PersonalRecord, error)
	GetTrainingStats(ctx context.Context, userID int) (*storage.TrainingStats, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
