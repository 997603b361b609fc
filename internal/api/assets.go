package api

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sowilo/internal/scanner"
	"github.com/starford/sowilo/internal/store"
)

// assetExts lists the file types the asset handler will serve. Content
// files and metadata never leave through this path.
var assetExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {},
	".webp": {}, ".svg": {}, ".pdf": {}, ".ico": {},
}

// AssetHandler serves images and other static files referenced by
// content bodies, straight from the content roots.
type AssetHandler struct {
	store *store.Store
}

// NewAssetHandler creates a handler over the configured sources.
func NewAssetHandler(st *store.Store) *AssetHandler {
	return &AssetHandler{store: st}
}

// ServeFile handles GET /assets/{source}/*.
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	src, ok := h.store.Source(chi.URLParam(r, "source"))
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	rel := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if decoded, err := url.PathUnescape(rel); err == nil {
		rel = decoded
	}
	if rel == "" {
		writeError(w, http.StatusBadRequest, "file path is required")
		return
	}

	// Hidden names anywhere in the path stay hidden.
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, "_") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
	}
	if _, ok := assetExts[strings.ToLower(filepath.Ext(rel))]; !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	abs, err := scanner.SafeJoin(src.Resolver.Root, rel)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	http.ServeFile(w, r, abs)
}
