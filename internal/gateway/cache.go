package gateway

import (
	"sync"

	"github.com/claude/ironlog/internal/models"
)

// lastKnown holds the most recent successful list responses so reads can
// degrade gracefully while offline. Slices are copied on both sides of the
// boundary; callers never share backing arrays with the cache.
type lastKnown struct {
	mu        sync.Mutex
	exercises []models.Exercise
	workouts  []models.WorkoutSession
	templates []models.Template
	records   []models.PersonalRecord
}

func (c *lastKnown) setExercises(v []models.Exercise) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exercises = append([]models.Exercise(nil), v...)
}

func (c *lastKnown) getExercises() []models.Exercise {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Exercise(nil), c.exercises...)
}

func (c *lastKnown) setWorkouts(v []models.WorkoutSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workouts = append([]models.WorkoutSession(nil), v...)
}

func (c *lastKnown) getWorkouts() []models.WorkoutSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.WorkoutSession(nil), c.workouts...)
}

func (c *lastKnown) setTemplates(v []models.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates = append([]models.Template(nil), v...)
}

func (c *lastKnown) getTemplates() []models.Template {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Template(nil), c.templates...)
}

func (c *lastKnown) setRecords(v []models.PersonalRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append([]models.PersonalRecord(nil), v...)
}

func (c *lastKnown) getRecords() []models.PersonalRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.PersonalRecord(nil), c.records...)
}
