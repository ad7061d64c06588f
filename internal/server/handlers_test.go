package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func testServer() *Server {
	return &Server{
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		identify: func(*http.Request) (int, error) { return 1, nil },
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestCreateWorkoutRejectsBadJSON verifies malformed bodies are rejected
// before any storage work.
func TestCreateWorkoutRejectsBadJSON(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workouts", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	s.handleCreateWorkout(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// TestCreateWorkoutRequiresID verifies the client-generated ID is mandatory.
func TestCreateWorkoutRequiresID(t *testing.T) {
	s := testServer()
	body := `{"name":"Push Day","started_at":"2025-06-15T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workouts", strings.NewReader(body))
	rec := httptest.NewRecorder()

	s.handleCreateWorkout(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp["error"] == "" {
		t.Error("expected error message in response")
	}
}

// TestGetWorkoutRejectsBadID verifies non-UUID path params are a 400, not a
// storage lookup.
func TestGetWorkoutRejectsBadID(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/workouts/not-a-uuid", nil)
	req = withURLParam(req, "id", "not-a-uuid")
	rec := httptest.NewRecorder()

	s.handleGetWorkout(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// TestEntityMutationsRejectBadID verifies the update and delete handlers for
// every entity reject a non-UUID path param with 400 before touching storage.
func TestEntityMutationsRejectBadID(t *testing.T) {
	s := testServer()
	body := `{"name":"Renamed"}`

	tests := []struct {
		name    string
		param   string
		handler http.HandlerFunc
	}{
		{"update exercise", "id", s.handleUpdateExercise},
		{"delete exercise", "id", s.handleDeleteExercise},
		{"update template", "id", s.handleUpdateTemplate},
		{"delete template", "id", s.handleDeleteTemplate},
		{"delete record", "exerciseID", s.handleDeleteRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
			req = withURLParam(req, tt.param, "not-a-uuid")
			rec := httptest.NewRecorder()

			tt.handler(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

// TestUpdateExerciseRequiresName verifies a rename to the empty string is
// rejected as validation, not passed to storage.
func TestUpdateExerciseRequiresName(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"name":""}`))
	req = withURLParam(req, "id", "7d444840-9dc0-11d1-b245-5ffdce74fad2")
	rec := httptest.NewRecorder()

	s.handleUpdateExercise(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// TestCreateSetRequiresSetNumber verifies set numbers start at 1.
func TestCreateSetRequiresSetNumber(t *testing.T) {
	s := testServer()
	body := `{"id":"7d444840-9dc0-11d1-b245-5ffdce74fad2","workout_exercise_id":"7d444840-9dc0-11d1-b245-5ffdce74fad3","set_number":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sets", strings.NewReader(body))
	rec := httptest.NewRecorder()

	s.handleCreateSet(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// TestIdentityFailureIs401 verifies an unresolvable identity short-circuits
// every handler.
func TestIdentityFailureIs401(t *testing.T) {
	s := testServer()
	s.identify = func(*http.Request) (int, error) { return 0, io.EOF }

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	rec := httptest.NewRecorder()
	s.handleListRecords(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

// TestCreatedStatus verifies replayed duplicate creates report success
// without claiming a fresh row.
func TestCreatedStatus(t *testing.T) {
	if got := createdStatus(true); got != http.StatusCreated {
		t.Errorf("fresh insert status = %d, want 201", got)
	}
	if got := createdStatus(false); got != http.StatusOK {
		t.Errorf("duplicate insert status = %d, want 200", got)
	}
}

// TestParseTimeRange verifies RFC3339 and date-only forms plus the default
// window.
func TestParseTimeRange(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/workouts?start=2025-01-01&end=2025-02-01", nil)
	start, end, err := parseTimeRange(req)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if start.Format("2006-01-02") != "2025-01-01" {
		t.Errorf("start = %v", start)
	}
	// Date-only end is inclusive of that day.
	if !end.After(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v, want end of 2025-02-01", end)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/workouts", nil)
	start, end, err = parseTimeRange(req)
	if err != nil {
		t.Fatalf("default range error: %v", err)
	}
	if !start.Before(end) {
		t.Error("default range is empty")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/workouts?start=junk", nil)
	if _, _, err := parseTimeRange(req); err == nil {
		t.Error("expected error for junk start")
	}
}
