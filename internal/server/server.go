package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/ironlog/internal/storage"
	"github.com/go-chi/chi/v5"
)

// IdentityFunc resolves the authenticated user for a request. The tsnet
// deployment resolves Tailscale identities; plain HTTP deployments fall back
// to the default user.
type IdentityFunc func(r *http.Request) (int, error)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       *storage.DB
	log      *slog.Logger
	apiKey   string
	identify IdentityFunc
	router   chi.Router
}

// New creates a new Server with all routes configured. A nil identify
// resolves every request to user 1.
func New(db *storage.DB, apiKey string, identify IdentityFunc, log *slog.Logger) *Server {
	if identify == nil {
		identify = func(*http.Request) (int, error) { return 1, nil }
	}
	s := &Server{
		db:       db,
		log:      log,
		apiKey:   apiKey,
		identify: identify,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/api/v1/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))

		r.Get("/exercises", s.handleListExercises)
		r.Post("/exercises", s.handleCreateExercise)
		r.Put("/exercises/{id}", s.handleUpdateExercise)
		r.Delete("/exercises/{id}", s.handleDeleteExercise)

		r.Get("/workouts", s.handleListWorkouts)
		r.Post("/workouts", s.handleCreateWorkout)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Put("/workouts/{id}", s.handleUpdateWorkout)
		r.Delete("/workouts/{id}", s.handleDeleteWorkout)

		r.Post("/workout-exercises", s.handleCreateWorkoutExercise)
		r.Put("/workout-exercises/{id}", s.handleUpdateWorkoutExercise)
		r.Delete("/workout-exercises/{id}", s.handleDeleteWorkoutExercise)

		r.Post("/sets", s.handleCreateSet)
		r.Put("/sets/{id}", s.handleUpdateSet)
		r.Delete("/sets/{id}", s.handleDeleteSet)

		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates", s.handleCreateTemplate)
		r.Put("/templates/{id}", s.handleUpdateTemplate)
		r.Delete("/templates/{id}", s.handleDeleteTemplate)

		r.Get("/records", s.handleListRecords)
		r.Put("/records/{exerciseID}", s.handlePutRecord)
		r.Delete("/records/{exerciseID}", s.handleDeleteRecord)

		r.Get("/stats", s.handleStats)
	})
}
