// Package httpapi exposes the memory store over a JSON HTTP API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter returns a chi router with middleware and all API routes mounted.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(requestLogger(h.log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", h.Health)
	MountRoutes(r, h)
	return r
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Memories
		r.Post("/memories", h.AddMemory)
		r.Get("/memories", h.SearchMemories)
		r.Get("/memories/recent", h.RecentMemories)
		r.Get("/memories/{id}", h.GetMemory)
		r.Post("/memories/{id}/feedback", h.AddFeedback)
		r.Put("/memories/{id}/importance", h.UpdateImportance)

		// Preferences
		r.Get("/preferences", h.ListPreferences)
		r.Get("/preferences/{key}", h.GetPreference)
		r.Put("/preferences/{key}", h.SetPreference)

		// Learning
		r.Get("/recommendations", h.Recommendations)
		r.Get("/suggestions", h.Suggestions)

		// Maintenance
		r.Get("/stats", h.Stats)
		r.Post("/cleanup", h.Cleanup)
		r.Get("/export", h.Export)
	})
}
