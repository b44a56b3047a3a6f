package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/msomdec/gadget-registry/internal/domain"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

const internalErrorMessage = "an unexpected error occurred"

// writeJSON sends a JSON response with the given status code and body.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		loggerFrom(r.Context()).Error("write JSON response", "error", err)
	}
}

// respond writes a success envelope.
func respond(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	writeJSON(w, r, status, envelope{Success: true, Message: message, Data: data})
}

// respondError is the one place errors become responses. Operational
// errors are reported as-is and logged at warn; everything else is logged
// at error and replaced with a generic internal error. attrs identify what
// the request was acting on.
func respondError(w http.ResponseWriter, r *http.Request, err error, attrs ...any) {
	logger := loggerFrom(r.Context()).With(attrs...)
	if caller, ok := CallerFromContext(r.Context()); ok {
		logger = logger.With("user_id", caller.UserID)
	}

	e, ok := domain.AsError(err)
	if !ok {
		logger.Error("unexpected error", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, envelope{Message: internalErrorMessage})
		return
	}

	logger.Warn("request failed", slog.String("kind", string(e.Kind)), slog.String("reason", e.Message))

	body := envelope{Message: e.Message}
	if len(e.Details) > 0 {
		body.Error = e.Details
	}
	writeJSON(w, r, e.StatusCode(), body)
}
