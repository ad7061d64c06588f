package derive

import (
	"math"
	"time"
)

// currentStreakWindow caps how many recent workouts the current-streak scan
// inspects. The cap counts workouts, not days: two sessions on the same day
// use up two slots.
const currentStreakWindow = 10

// StreakResult holds consecutive-day training streaks.
type StreakResult struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Streaks computes the current and longest consecutive-day workout streaks.
// History must be sorted descending by start time (most recent first);
// timestamps are truncated to calendar days in the given location.
//
// A current streak exists only if the most recent workout was today or
// yesterday relative to now, and extends backward through consecutive days,
// scanning at most the ten most recent workouts. The longest streak considers
// the full history regardless of recency.
func Streaks(history []time.Time, now time.Time, loc *time.Location) StreakResult {
	days := uniqueDaysDesc(history, loc)
	if len(days) == 0 {
		return StreakResult{}
	}

	recent := history
	if len(recent) > currentStreakWindow {
		recent = recent[:currentStreakWindow]
	}

	res := StreakResult{
		Current: currentStreak(uniqueDaysDesc(recent, loc), dayOf(now, loc)),
		Longest: longestStreak(days),
	}
	return res
}

// dayOf truncates t to midnight in loc.
func dayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// uniqueDaysDesc maps timestamps to distinct calendar days, preserving the
// descending order of the input.
func uniqueDaysDesc(history []time.Time, loc *time.Location) []time.Time {
	var days []time.Time
	for _, t := range history {
		d := dayOf(t, loc)
		if len(days) == 0 || !days[len(days)-1].Equal(d) {
			days = append(days, d)
		}
	}
	return days
}

func currentStreak(days []time.Time, today time.Time) int {
	latest := days[0]
	gap := daysBetween(latest, today)
	if gap > 1 {
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i], days[i-1]) != 1 {
			break
		}
		streak++
	}
	return streak
}

func longestStreak(days []time.Time) int {
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i], days[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// daysBetween returns the whole calendar days from earlier to later. Both
// inputs are already day-truncated in the same location; rounding absorbs
// the 23/25-hour days around DST transitions.
func daysBetween(earlier, later time.Time) int {
	return int(math.Round(later.Sub(earlier).Hours() / 24))
}
