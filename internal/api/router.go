// Package api implements the Sowilo content REST API using chi.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sowilo/internal/contentservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth
// group.
func NewRouter(svc *contentservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Search has its own prefix so the source segment below stays free
	// of reserved names.
	r.Get("/search/{source}", h.Search)

	// Change events (admin live refresh).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	r.Route("/{source}", func(r chi.Router) {
		r.Get("/posts", h.ListPosts)
		r.Get("/posts/*", h.GetPost)
		r.Get("/categories", h.ListCategories)
		r.Get("/categories/{id}", h.CategoryItems)
		r.Get("/tags/count", h.TagCounts)
		r.Get("/timeline", h.Timeline)
		r.Get("/related/*", h.RelatedPosts)
	})

	return r
}
