package service

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"astrotech/internal/db"
	"astrotech/internal/environment"
	"astrotech/internal/logging"
)

// Executor is what route handlers need from the database.
// It is implemented by *db.Pool.
type Executor interface {
	Execute(ctx context.Context, sql string, params ...any) ([]db.Row, []db.Field, error)
	Stats() db.Stats
}

type Server struct {
	name       environment.Service
	db         Executor
	log        *zap.Logger
	corsOrigin string
}

func NewServer(name environment.Service, exec Executor, log *zap.Logger, corsOrigin string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		name:       name,
		db:         exec,
		log:        log,
		corsOrigin: corsOrigin,
	}
}

func (s *Server) serviceName() string {
	return string(s.name) + "-api"
}

// Router mounts everything under /api/v1. Extra middlewares run after the
// common stack.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.corsOrigin))
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/health", s.handleHealth)
		r.Get("/health/db", s.handleHealthDB)
		r.Get("/health/pool", s.handleHealthPool)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": s.serviceName(),
	})
}

func (s *Server) handleHealthDB(w http.ResponseWriter, r *http.Request) {
	rows, fields, err := s.db.Execute(r.Context(), "SELECT ?::text AS service, now() AS now", s.serviceName())
	if err != nil {
		s.log.Warn("health db", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":   rows,
		"fields": fields,
	})
}

func (s *Server) handleHealthPool(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.db.Stats())
}
