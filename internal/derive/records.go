package derive

import (
	"time"

	"github.com/claude/ironlog/internal/models"
	"github.com/google/uuid"
)

// DetectRecords inspects a just-completed session and returns the new
// personal records it produced. For each exercise, the best estimated 1RM
// among its completed weight×reps sets is compared against the stored record
// (keyed by exercise ID); a strictly greater value emits a new record
// carrying a snapshot of the one it supersedes. Ties never create a record.
// Exercises with no qualifying sets are skipped.
func DetectRecords(f Formula, session models.WorkoutSession, existing map[uuid.UUID]models.PersonalRecord, now time.Time) []models.PersonalRecord {
	var records []models.PersonalRecord

	for _, ex := range session.Exercises {
		best, found := bestSet(f, ex.Sets)
		if !found {
			continue
		}

		rec := models.PersonalRecord{
			UserID:       session.UserID,
			ExerciseID:   ex.ExerciseID,
			ExerciseName: ex.ExerciseName,
			WeightKg:     *best.set.WeightKg,
			Reps:         *best.set.Reps,
			OneRepMax:    best.oneRM,
			AchievedAt:   now,
			WorkoutID:    session.ID,
		}

		if prev, ok := existing[ex.ExerciseID]; ok {
			if best.oneRM <= prev.OneRepMax {
				continue
			}
			rec.Previous = &models.RecordSnapshot{
				WeightKg:   prev.WeightKg,
				Reps:       prev.Reps,
				OneRepMax:  prev.OneRepMax,
				AchievedAt: prev.AchievedAt,
			}
		}

		records = append(records, rec)
	}

	return records
}

type scoredSet struct {
	set   models.SetEntry
	oneRM float64
}

// bestSet returns the completed set with the highest estimated 1RM. Sets the
// formula cannot score (e.g. Brzycki at 37+ reps) are skipped rather than
// failing the whole detection.
func bestSet(f Formula, sets []models.SetEntry) (scoredSet, bool) {
	var best scoredSet
	found := false
	for _, set := range sets {
		if !set.CountsTowardVolume() {
			continue
		}
		oneRM, err := OneRepMax(f, *set.WeightKg, *set.Reps)
		if err != nil {
			continue
		}
		if !found || oneRM > best.oneRM {
			best = scoredSet{set: set, oneRM: oneRM}
			found = true
		}
	}
	return best, found
}
