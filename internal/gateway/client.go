package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/ironlog/internal/models"
	"github.com/google/uuid"
)

// Client is the remote store gateway: one method per entity per CRUD verb,
// speaking JSON to the IronLog server. Write failures come back as typed
// *Failure values so the state store can branch on connectivity; list reads
// degrade to the last successfully fetched value instead of erroring, so the
// engine stays usable offline.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
	cache      lastKnown
	retryWait  time.Duration
}

// NewClient creates a gateway client for the given server.
func NewClient(serverURL, apiKey string, log *slog.Logger) *Client {
	return &Client{
		baseURL: serverURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log:       log,
		retryWait: time.Second,
	}
}

// Health probes the server. A nil return means connected.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/health", "health check", nil, nil)
}

// --- Exercises ---

func (c *Client) CreateExercise(ctx context.Context, ex models.Exercise) (models.Exercise, error) {
	var out models.Exercise
	err := c.do(ctx, http.MethodPost, "/api/v1/exercises", "create exercise", ex, &out)
	return out, err
}

func (c *Client) UpdateExercise(ctx context.Context, ex models.Exercise) (models.Exercise, error) {
	var out models.Exercise
	err := c.do(ctx, http.MethodPut, "/api/v1/exercises/"+ex.ID.String(), "update exercise", ex, &out)
	return out, err
}

func (c *Client) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/exercises/"+id.String(), "delete exercise", nil, nil)
}

// ListExercises returns the exercise catalog, falling back to the last
// fetched copy when the server is unreachable.
func (c *Client) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	var out []models.Exercise
	err := c.getList(ctx, "/api/v1/exercises", "list exercises", &out)
	if err != nil {
		c.log.Warn("exercise list unavailable, serving cached", "error", err)
		return c.cache.getExercises(), nil
	}
	c.cache.setExercises(out)
	return out, nil
}

// --- Workouts ---

func (c *Client) CreateWorkout(ctx context.Context, w models.WorkoutSession) (models.WorkoutSession, error) {
	var out models.WorkoutSession
	err := c.do(ctx, http.MethodPost, "/api/v1/workouts", "create workout", w, &out)
	return out, err
}

func (c *Client) UpdateWorkout(ctx context.Context, w models.WorkoutSession) (models.WorkoutSession, error) {
	var out models.WorkoutSession
	err := c.do(ctx, http.MethodPut, "/api/v1/workouts/"+w.ID.String(), "update workout", w, &out)
	return out, err
}

func (c *Client) DeleteWorkout(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/workouts/"+id.String(), "delete workout", nil, nil)
}

func (c *Client) GetWorkout(ctx context.Context, id uuid.UUID) (models.WorkoutSession, error) {
	var out models.WorkoutSession
	err := c.do(ctx, http.MethodGet, "/api/v1/workouts/"+id.String(), "get workout", nil, &out)
	return out, err
}

// ListWorkouts returns the full workout history (most recent first), falling
// back to the last fetched copy when the server is unreachable. The full
// range matters: longest-streak computation spans all history.
func (c *Client) ListWorkouts(ctx context.Context) ([]models.WorkoutSession, error) {
	var out []models.WorkoutSession
	err := c.getList(ctx, "/api/v1/workouts?start=1970-01-01", "list workouts", &out)
	if err != nil {
		c.log.Warn("workout list unavailable, serving cached", "error", err)
		return c.cache.getWorkouts(), nil
	}
	c.cache.setWorkouts(out)
	return out, nil
}

// --- Workout exercises ---

func (c *Client) CreateWorkoutExercise(ctx context.Context, we models.WorkoutExercise) (models.WorkoutExercise, error) {
	var out models.WorkoutExercise
	err := c.do(ctx, http.MethodPost, "/api/v1/workout-exercises", "create workout exercise", we, &out)
	return out, err
}

func (c *Client) UpdateWorkoutExercise(ctx context.Context, we models.WorkoutExercise) (models.WorkoutExercise, error) {
	var out models.WorkoutExercise
	err := c.do(ctx, http.MethodPut, "/api/v1/workout-exercises/"+we.ID.String(), "update workout exercise", we, &out)
	return out, err
}

func (c *Client) DeleteWorkoutExercise(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/workout-exercises/"+id.String(), "delete workout exercise", nil, nil)
}

// --- Sets ---

func (c *Client) CreateSet(ctx context.Context, s models.SetEntry) (models.SetEntry, error) {
	var out models.SetEntry
	err := c.do(ctx, http.MethodPost, "/api/v1/sets", "create set", s, &out)
	return out, err
}

func (c *Client) UpdateSet(ctx context.Context, s models.SetEntry) (models.SetEntry, error) {
	var out models.SetEntry
	err := c.do(ctx, http.MethodPut, "/api/v1/sets/"+s.ID.String(), "update set", s, &out)
	return out, err
}

func (c *Client) DeleteSet(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/sets/"+id.String(), "delete set", nil, nil)
}

// --- Templates ---

func (c *Client) CreateTemplate(ctx context.Context, tpl models.Template) (models.Template, error) {
	var out models.Template
	err := c.do(ctx, http.MethodPost, "/api/v1/templates", "create template", tpl, &out)
	return out, err
}

func (c *Client) UpdateTemplate(ctx context.Context, tpl models.Template) (models.Template, error) {
	var out models.Template
	err := c.do(ctx, http.MethodPut, "/api/v1/templates/"+tpl.ID.String(), "update template", tpl, &out)
	return out, err
}

func (c *Client) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/templates/"+id.String(), "delete template", nil, nil)
}

// ListTemplates falls back to the last fetched copy when unreachable.
func (c *Client) ListTemplates(ctx context.Context) ([]models.Template, error) {
	var out []models.Template
	err := c.getList(ctx, "/api/v1/templates", "list templates", &out)
	if err != nil {
		c.log.Warn("template list unavailable, serving cached", "error", err)
		return c.cache.getTemplates(), nil
	}
	c.cache.setTemplates(out)
	return out, nil
}

// --- Personal records ---

func (c *Client) PutPersonalRecord(ctx context.Context, rec models.PersonalRecord) (models.PersonalRecord, error) {
	var out models.PersonalRecord
	err := c.do(ctx, http.MethodPut, "/api/v1/records/"+rec.ExerciseID.String(), "put personal record", rec, &out)
	return out, err
}

func (c *Client) DeletePersonalRecord(ctx context.Context, exerciseID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/records/"+exerciseID.String(), "delete personal record", nil, nil)
}

// ListPersonalRecords falls back to the last fetched copy when unreachable.
func (c *Client) ListPersonalRecords(ctx context.Context) ([]models.PersonalRecord, error) {
	var out []models.PersonalRecord
	err := c.getList(ctx, "/api/v1/records", "list personal records", &out)
	if err != nil {
		c.log.Warn("record list unavailable, serving cached", "error", err)
		return c.cache.getRecords(), nil
	}
	c.cache.setRecords(out)
	return out, nil
}

// getList fetches a list endpoint, retrying up to 3 times with exponential
// backoff on connectivity or server failures. Writes never retry here; the
// offline queue owns write replay.
func (c *Client) getList(ctx context.Context, path, op string, out any) error {
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return &Failure{Kind: KindConnectivity, Op: op, Err: ctx.Err()}
			case <-time.After(c.retryWait << uint(attempt-1)):
			}
		}
		lastErr = c.do(ctx, http.MethodGet, path, op, nil, out)
		if lastErr == nil {
			return nil
		}
		var f *Failure
		if errors.As(lastErr, &f) && (f.Kind == KindValidation || f.Kind == KindAuth || f.Kind == KindNotFound) {
			return lastErr
		}
	}
	return lastErr
}

// do performs one request and classifies any failure. A transport-level
// error (dial, timeout, DNS) is a connectivity failure; HTTP status codes map
// to the remaining kinds.
func (c *Client) do(ctx context.Context, method, path, op string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshaling request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Failure{Kind: KindConnectivity, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("%s", bytes.TrimSpace(msg))
		return &Failure{Kind: classifyStatus(resp.StatusCode), Op: op, Status: resp.StatusCode, Err: err}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: decoding response: %w", op, err)
		}
	}
	return nil
}

func classifyStatus(status int) FailureKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}
