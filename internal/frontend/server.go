// Package frontend serves the build-time environment descriptor to the
// browser application.
package frontend

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"astrotech/internal/environment"
	"astrotech/internal/logging"
)

type App struct {
	Target string
	Env    environment.Environment
	log    *zap.Logger
}

// NewApp resolves target and refuses descriptors that fail validation.
func NewApp(target string, log *zap.Logger) (*App, error) {
	env, err := environment.ForTarget(target)
	if err != nil {
		return nil, err
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &App{Target: target, Env: env, log: log}, nil
}

func (a *App) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(a.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"service": "frontend",
			"target":  a.Target,
		})
	})
	r.Get("/environment.json", a.handleEnvironmentJSON)
	r.Get("/env.js", a.handleEnvJS)
	return r
}

func (a *App) handleEnvironmentJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	_ = json.NewEncoder(w).Encode(a.Env)
}

// handleEnvJS exposes the descriptor as window.__env for pages that load it
// with a plain <script> tag before the application bundle.
func (a *App) handleEnvJS(w http.ResponseWriter, r *http.Request) {
	b, err := json.Marshal(a.Env)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprintf(w, "window.__env = Object.freeze(%s);\n", b)
}
