package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mkrogh/timeclock/backend/internal/domain"
)

// errorResponse is the JSON error body for every non-2xx response.
// For validation failures Errors carries the field → messages mapping and
// Message holds the first message, so clients can show either form.
type errorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// writeJSON serializes v with the given status. Encoding failures are logged,
// not surfaced — the status line is already on the wire by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError maps a service error onto the transport: structured validation
// failures become 422 with their field messages, missing resources 404,
// ownership failures 403, and everything else — infrastructure — a logged 500
// with no internals leaked to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Message: verr.Message(),
			Errors:  verr.Fields,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Not found."})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Message: "This action is unauthorized."})
	default:
		slog.ErrorContext(r.Context(), "internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Server error."})
	}
}

// writeFieldError is a shortcut for request-shape failures caught in the
// handler before the service layer is reached.
func writeFieldError(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Message: message,
		Errors:  map[string][]string{field: {message}},
	})
}
