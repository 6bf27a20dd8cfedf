package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"moviegen/internal/http/handlers"
	"moviegen/internal/middleware"
)

// NewRouter wires the API surface of the movie generator.
func NewRouter(app *handlers.App, allowedOrigins []string) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.CORS(allowedOrigins))

	r.Get("/v1/healthz", app.Health)
	r.Put("/v1/key", app.SetKey)

	r.Route("/v1/reference-image", func(r chi.Router) {
		r.Post("/", app.UploadImage)
		r.Get("/", app.GetImage)
		r.Delete("/", app.ClearImage)
	})

	r.Post("/v1/movies", app.GenerateMovie)
	r.Get("/v1/runs/current", app.CurrentRun)

	r.Route("/v1/scenes", func(r chi.Router) {
		r.Get("/", app.ListScenes)
		r.Get("/archive", app.SceneArchive)
		r.Get("/{index}/video", app.SceneVideo)
	})

	r.Get("/v1/events", app.Events)

	return r
}
