package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/puchi-app/puchi/internal/journal"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(repo *journal.Repository, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(repo)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Journal entries.
	r.Get("/entries", h.ListEntries)
	r.Post("/entries", h.CreateEntry)
	r.Get("/entries/{id}", h.GetEntry)
	r.Put("/entries/{id}", h.UpdateEntry)
	r.Delete("/entries/{id}", h.DeleteEntry)

	// Recently deleted bin.
	r.Get("/deleted", h.ListDeleted)
	r.Post("/deleted/{id}/restore", h.RestoreEntry)
	r.Delete("/deleted/{id}", h.PurgeEntry)

	// Derived statistics.
	r.Get("/insights", h.GetInsights)

	// Partner profile and UI preferences.
	r.Get("/partner", h.GetPartner)
	r.Put("/partner", h.PutPartner)
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.PutSettings)

	// Media attachments.
	r.Post("/media", h.UploadMedia)
	r.Get("/media/{id}", h.ServeMedia)

	// Full wipe.
	r.Post("/reset", h.Reset)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
