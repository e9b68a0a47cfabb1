package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gweinger/zettelkasten/internal/review"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// vaultRoot is used to resolve the attachments directory.
func NewRouter(svc *review.Service, authEnabled bool, token string, sseHandler http.Handler, vaultRoot string) chi.Router {
	h := NewHandler(svc)
	ah := NewAttachmentHandler(vaultRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Vault overview and note reads.
	r.Get("/stats", h.Stats)
	r.Get("/notes/*", h.GetNote)

	// Staging review workflow.
	r.Get("/staging", h.ListStaging)
	r.Post("/staging/approve", h.Approve)
	r.Delete("/staging/*", h.Discard)

	// Corpus maintenance.
	r.Get("/stubs", h.Stubs)
	r.Post("/stubs/fill", h.FillStubs)
	r.Get("/orphans", h.Orphans)
	r.Get("/backlinks", h.Backlinks)
	r.Post("/index/rebuild", h.RebuildIndex)

	// Attachments upload (auth-protected).
	r.Post("/attachments", ah.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
