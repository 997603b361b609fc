package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/contentservice"
	"github.com/starford/sowilo/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *contentservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *contentservice.Service) *Handler {
	return &Handler{svc: svc}
}

// slugParam extracts the slug from a wildcard route (everything after
// the fixed prefix). Supports encoded slashes from generated clients
// (e.g. guides%2Fsetup).
func slugParam(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListPosts handles GET /api/{source}/posts. The response carries the
// snapshot ETag; a matching If-None-Match short-circuits to 304.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	posts, etag, err := h.svc.Posts(r.Context(), source)
	if err != nil {
		writeServiceError(w, "list posts", err)
		return
	}
	if etag != "" {
		if match := strings.Trim(r.Header.Get("If-None-Match"), `"`); match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"`+etag+`"`)
	}
	writeData(w, http.StatusOK, posts)
}

// GetPost handles GET /api/{source}/posts/*. Direct slug lookup includes
// unpublished records (preview).
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	slug := slugParam(r)
	if slug == "" {
		writeError(w, http.StatusBadRequest, "slug is required")
		return
	}
	rec, err := h.svc.Post(r.Context(), source, slug)
	if err != nil {
		writeServiceError(w, "get post", err)
		return
	}
	writeData(w, http.StatusOK, rec)
}

// ListCategories handles GET /api/{source}/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	cats, err := h.svc.Categories(r.Context(), source)
	if err != nil {
		writeServiceError(w, "list categories", err)
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	writeData(w, http.StatusOK, cats)
}

// CategoryItems handles GET /api/{source}/categories/{id}.
func (h *Handler) CategoryItems(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	id := chi.URLParam(r, "id")
	items, err := h.svc.CategoryItems(r.Context(), source, id)
	if err != nil {
		writeServiceError(w, "category items", err)
		return
	}
	writeData(w, http.StatusOK, items)
}

// TagCounts handles GET /api/{source}/tags/count. The response is a
// tag-to-count object.
func (h *Handler) TagCounts(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	counts, err := h.svc.TagCounts(r.Context(), source)
	if err != nil {
		writeServiceError(w, "tag counts", err)
		return
	}
	out := make(map[string]int, len(counts))
	for _, tc := range counts {
		out[tc.Tag] = tc.Count
	}
	writeData(w, http.StatusOK, out)
}

// Timeline handles GET /api/{source}/timeline. The response is a
// year-to-records object; bucket ordering is defined by the aggregation,
// JSON objects themselves are unordered.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	groups, err := h.svc.Timeline(r.Context(), source)
	if err != nil {
		writeServiceError(w, "timeline", err)
		return
	}
	out := make(map[string][]models.ContentRecord, len(groups))
	for _, g := range groups {
		out[g.Year] = g.Records
	}
	writeData(w, http.StatusOK, out)
}

// RelatedPosts handles GET /api/{source}/related/*?limit=N.
func (h *Handler) RelatedPosts(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	slug := slugParam(r)
	if slug == "" {
		writeError(w, http.StatusBadRequest, "slug is required")
		return
	}
	limit, err := limitParam(r, "limit")
	if err != nil {
		writeServiceError(w, "related posts", err)
		return
	}
	related, svcErr := h.svc.Related(r.Context(), source, slug, limit)
	if svcErr != nil {
		writeServiceError(w, "related posts", svcErr)
		return
	}
	if related == nil {
		related = []models.RelatedPost{}
	}
	writeData(w, http.StatusOK, related)
}

// Search handles GET /api/search/{source}?query=...&limit=N.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	query := r.URL.Query().Get("query")
	if query == "" {
		writeServiceError(w, "search", &apperr.ValidationError{Param: "query", Reason: "must not be empty"})
		return
	}
	limit, err := limitParam(r, "limit")
	if err != nil {
		writeServiceError(w, "search", err)
		return
	}
	hits, svcErr := h.svc.Search(r.Context(), source, query, limit)
	if svcErr != nil {
		writeServiceError(w, "search", svcErr)
		return
	}
	if hits == nil {
		hits = []models.SearchHit{}
	}
	writeData(w, http.StatusOK, hits)
}

// limitParam parses an optional positive integer query parameter.
// Absent means 0 (callee default).
func limitParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &apperr.ValidationError{Param: name, Reason: "must be a positive integer"}
	}
	return n, nil
}
