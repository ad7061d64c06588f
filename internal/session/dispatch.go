package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claude/ironlog/internal/models"
	"github.com/claude/ironlog/internal/queue"
	"github.com/google/uuid"
)

// deletePayload is the queued form of a delete mutation.
type deletePayload struct {
	ID uuid.UUID `json:"id"`
}

// replayDispatcher maps a queued mutation back to the matching gateway call.
// Payloads carry client-generated UUIDs, so creates replayed twice land on
// the server's conflict handling instead of duplicating rows.
type replayDispatcher struct {
	gw Gateway
}

func (d *replayDispatcher) Dispatch(ctx context.Context, it queue.Item) error {
	switch it.Entity {
	case queue.EntityWorkout:
		return d.applyWorkout(ctx, it)
	case queue.EntityWorkoutExercise:
		return d.applyWorkoutExercise(ctx, it)
	case queue.EntitySet:
		return d.applySet(ctx, it)
	case queue.EntityPersonalRecord:
		return d.applyRecord(ctx, it)
	}
	return fmt.Errorf("unknown queued entity %q", it.Entity)
}

func (d *replayDispatcher) applyWorkout(ctx context.Context, it queue.Item) error {
	if it.Action == queue.ActionDelete {
		var p deletePayload
		if err := json.Unmarshal(it.Payload, &p); err != nil {
			return fmt.Errorf("decoding workout delete: %w", err)
		}
		return d.gw.DeleteWorkout(ctx, p.ID)
	}

	var w models.WorkoutSession
	if err := json.Unmarshal(it.Payload, &w); err != nil {
		return fmt.Errorf("decoding workout: %w", err)
	}
	var err error
	switch it.Action {
	case queue.ActionCreate:
		_, err = d.gw.CreateWorkout(ctx, w)
	case queue.ActionUpdate:
		_, err = d.gw.UpdateWorkout(ctx, w)
	default:
		err = fmt.Errorf("unknown workout action %q", it.Action)
	}
	return err
}

func (d *replayDispatcher) applyWorkoutExercise(ctx context.Context, it queue.Item) error {
	if it.Action == queue.ActionDelete {
		var p deletePayload
		if err := json.Unmarshal(it.Payload, &p); err != nil {
			return fmt.Errorf("decoding workout exercise delete: %w", err)
		}
		return d.gw.DeleteWorkoutExercise(ctx, p.ID)
	}

	var we models.WorkoutExercise
	if err := json.Unmarshal(it.Payload, &we); err != nil {
		return fmt.Errorf("decoding workout exercise: %w", err)
	}
	var err error
	switch it.Action {
	case queue.ActionCreate:
		_, err = d.gw.CreateWorkoutExercise(ctx, we)
	case queue.ActionUpdate:
		_, err = d.gw.UpdateWorkoutExercise(ctx, we)
	default:
		err = fmt.Errorf("unknown workout exercise action %q", it.Action)
	}
	return err
}

func (d *replayDispatcher) applySet(ctx context.Context, it queue.Item) error {
	if it.Action == queue.ActionDelete {
		var p deletePayload
		if err := json.Unmarshal(it.Payload, &p); err != nil {
			return fmt.Errorf("decoding set delete: %w", err)
		}
		return d.gw.DeleteSet(ctx, p.ID)
	}

	var set models.SetEntry
	if err := json.Unmarshal(it.Payload, &set); err != nil {
		return fmt.Errorf("decoding set: %w", err)
	}
	var err error
	switch it.Action {
	case queue.ActionCreate:
		_, err = d.gw.CreateSet(ctx, set)
	case queue.ActionUpdate:
		_, err = d.gw.UpdateSet(ctx, set)
	default:
		err = fmt.Errorf("unknown set action %q", it.Action)
	}
	return err
}

func (d *replayDispatcher) applyRecord(ctx context.Context, it queue.Item) error {
	var rec models.PersonalRecord
	if err := json.Unmarshal(it.Payload, &rec); err != nil {
		return fmt.Errorf("decoding personal record: %w", err)
	}
	_, err := d.gw.PutPersonalRecord(ctx, rec)
	return err
}
