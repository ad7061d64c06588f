package derive

import "github.com/claude/ironlog/internal/models"

// SessionVolume sums weight×reps over every completed set in the session
// that has both weight and reps recorded. Incomplete or partial sets
// contribute nothing.
func SessionVolume(session models.WorkoutSession) float64 {
	var total float64
	for _, ex := range session.Exercises {
		for _, set := range ex.Sets {
			if set.CountsTowardVolume() {
				total += *set.WeightKg * float64(*set.Reps)
			}
		}
	}
	return total
}

// CompletedSetCount counts the completed sets in a session.
func CompletedSetCount(session models.WorkoutSession) int {
	n := 0
	for _, ex := range session.Exercises {
		for _, set := range ex.Sets {
			if set.Completed {
				n++
			}
		}
	}
	return n
}
