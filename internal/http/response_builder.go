package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"casa/internal/board"
	"casa/internal/core"
	applog "casa/internal/log"
	"casa/internal/session"
	"casa/internal/store"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes v with status. Encoding failures are logged only; the
// header is already sent by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// statusFor maps domain sentinels onto HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrValidationSkip):
		return http.StatusNoContent
	case errors.Is(err, errBadRequest), errors.As(err, &maxBytes):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, board.ErrUnknownItem):
		return http.StatusNotFound
	case errors.Is(err, board.ErrNotDraggable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, board.ErrDragInProgress),
		errors.Is(err, board.ErrNoActiveDrag),
		errors.Is(err, board.ErrDragFinished),
		errors.Is(err, board.ErrLayoutResolution),
		errors.Is(err, store.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. A validation skip is a
// silent 204: the caller keeps its form contents. Server errors are logged
// and their detail withheld.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := applog.FromContext(r.Context())
	switch {
	case status == http.StatusNoContent:
		w.WriteHeader(status)
		return
	case status >= http.StatusInternalServerError:
		logger.ErrorContext(r.Context(), "Request failed", applog.FieldPath, r.URL.Path, applog.FieldError, err)
		writeError(w, status, http.StatusText(status))
		return
	}
	logger.DebugContext(r.Context(), "Request rejected", applog.FieldPath, r.URL.Path, applog.FieldError, err)
	writeError(w, status, err.Error())
}
