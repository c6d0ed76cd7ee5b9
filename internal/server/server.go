package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/ironlog/internal/session"
	"github.com/claude/ironlog/internal/storage"
	"github.com/go-chi/chi/v5"
	"tailscale.com/client/local"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db      *storage.DB
	engine  *session.Engine
	isAdmin func(login string) bool
	ts      *local.Client
	log     *slog.Logger
	router  chi.Router
}

// New creates a new Server with all routes configured. isAdmin gates writes
// to the shared system exercise catalog.
func New(db *storage.DB, engine *session.Engine, isAdmin func(string) bool, log *slog.Logger) *Server {
	s := &Server{
		db:      db,
		engine:  engine,
		isAdmin: isAdmin,
		log:     log,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale enables tsnet identity resolution. Without it every request
// runs as the local dev user.
func (s *Server) SetTailscale(lc *local.Client) {
	s.ts = lc
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.Identity)

		r.Get("/me", s.handleMe)

		// Live session lifecycle
		r.Post("/sessions", s.handleStartSession)
		r.Get("/sessions/active", s.handleActiveSession)
		r.Put("/sessions/active", s.handleSaveSession)
		r.Post("/sessions/active/complete-set", s.handleCompleteSet)
		r.Post("/sessions/active/end", s.handleEndSession)
		r.Delete("/sessions/active", s.handleAbandonSession)

		// History
		r.Get("/logs", s.handleQueryLogs)
		r.Get("/logs/{id}", s.handleGetLog)
		r.Delete("/logs/{id}", s.handleDeleteLog)

		// Exercise catalog
		r.Get("/exercises", s.handleListExercises)
		r.Post("/exercises", s.handleCreateExercise)
		r.Put("/exercises/{id}", s.handleUpdateExercise)
		r.Delete("/exercises/{id}", s.handleDeleteExercise)

		// Workout templates and week plan
		r.Get("/workouts", s.handleListWorkouts)
		r.Post("/workouts", s.handleCreateWorkout)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Put("/workouts/{id}", s.handleUpdateWorkout)
		r.Delete("/workouts/{id}", s.handleDeleteWorkout)
		r.Get("/plan", s.handleGetPlan)
		r.Put("/plan", s.handleSetPlan)
	})
}
