package handlers

import (
	"encoding/json"
	"net/http"

	"moviegen/internal/events"
	"moviegen/internal/infra"
	"moviegen/internal/infra/credentials"
	"moviegen/internal/movie"
)

// App bundles the dependencies the handlers need.
type App struct {
	Logger       infra.Logger
	Orchestrator *movie.Orchestrator
	Display      *movie.Display
	Session      *movie.Session
	Broadcaster  *events.Broadcaster
	Credentials  *credentials.Store
}

func NewApp(logger infra.Logger, o *movie.Orchestrator, d *movie.Display, s *movie.Session, b *events.Broadcaster, c *credentials.Store) *App {
	return &App{
		Logger:       logger,
		Orchestrator: o,
		Display:      d,
		Session:      s,
		Broadcaster:  b,
		Credentials:  c,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, tag, message string) {
	a.json(w, code, map[string]string{"error": tag, "message": message})
}
