package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/sowilo/internal/apperr"
)

type dataResponse struct {
	Data any `json:"data"`
}

type errResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, dataResponse{Data: v})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResponse{Error: msg})
}

// writeServiceError maps pipeline errors to the JSON error envelope.
// Scan, parse, and duplicate-slug failures all collapse to a generic 500
// so absolute filesystem paths never leave the server; details go to the
// log only.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var validationErr *apperr.ValidationError
	switch {
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrUnknownSource):
		writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
