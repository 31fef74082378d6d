package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/ansuz/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeServiceError maps a task service error onto an HTTP reply and logs
// the failures that are not the caller's fault.
func writeServiceError(w http.ResponseWriter, op string, err error, attrs ...any) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, apperr.ErrInvalidRequest):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperr.ErrMissingTitleValue):
		status, msg = http.StatusBadRequest, "title is required"
	case errors.Is(err, apperr.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, apperr.ErrSchemaFetchFailed):
		status, msg = http.StatusServiceUnavailable, "store schema unavailable"
	case errors.Is(err, apperr.ErrMissingTitleProperty):
		msg = "store schema has no title property"
	case errors.Is(err, apperr.ErrRecordReadFailed), errors.Is(err, apperr.ErrRecordWriteFailed):
		status, msg = http.StatusBadGateway, "external store error"
	}
	if status >= http.StatusInternalServerError {
		slog.Error(op+" failed", append(attrs, slog.String("error", err.Error()))...)
	}
	writeJSON(w, status, errorBody(msg))
}
