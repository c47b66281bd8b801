package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body written for requests that never reach a handler.
type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// WriteError writes an ErrorResponse with the given status.
func WriteError(w http.ResponseWriter, r *http.Request, status int, message string, logger *slog.Logger) {
	correlationID := GetCorrelationID(r.Context())

	if logger != nil && status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request error",
			slog.Int("status", status),
			slog.String("error", message),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, ErrorResponse{Error: message, CorrelationID: correlationID})
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// NotFound answers unknown routes with a JSON body.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusNotFound, "not found: "+r.URL.Path, nil)
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed: "+r.Method, nil)
}
