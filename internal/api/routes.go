package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RouterOptions configures the router middleware
type RouterOptions struct {
	APIToken    string
	CORSOrigins []string
	CORSMaxAge  int
	Log         zerolog.Logger
}

// NewRouter creates and configures the Chi router
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(Recoverer(opts.Log))
	r.Use(Logger(opts.Log))
	r.Use(CORS(opts.CORSOrigins, opts.CORSMaxAge))

	// Health check endpoint
	r.Get("/health", h.HealthCheck)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(JSONContentType)
		r.Use(BearerAuth(opts.APIToken))

		r.Route("/lookup", func(r chi.Router) {
			r.Post("/", h.Submit)
			r.Get("/state", h.State)
			r.Get("/events", h.Events)
			r.Post("/translation/{index}", h.LookupTranslation)
		})

		r.Get("/result", h.GetResult)
		r.Get("/share", h.Share)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.ListHistory)
			r.Delete("/", h.ClearHistory)
			r.Post("/import", h.ImportHistory)
			r.Get("/export", h.ExportHistory)
		})

		r.Route("/languages", func(r chi.Router) {
			r.Get("/", h.ListLanguages)
			r.Post("/reload", h.ReloadLanguages)
			r.Put("/source", h.SetSource)
			r.Put("/dest", h.SetDest)
			r.Post("/swap", h.Swap)
			r.Post("/{index}/favorite", h.ToggleFavorite)
		})

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)
	})

	return r
}
