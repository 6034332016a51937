// Package apiresp writes JSON responses and maps domain error kinds to HTTP
// status codes. Every JSON handler in the app writes through it so that
// the error envelope is the same everywhere.
package apiresp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jsong1004/ai-service/internal/domain/derrors"
)

// ErrorBody is the envelope for every error response.
type ErrorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorBody{Error: code, Message: message})
}

// Status maps an error to its HTTP status and a short machine code.
// Anything unrecognised is a 500.
func Status(err error) (int, string) {
	var ve *ValidationError
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.As(err, &ve), errors.Is(err, derrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, derrors.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, derrors.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, derrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, derrors.ErrVersionConflict):
		return http.StatusConflict, "version_conflict"
	case errors.Is(err, derrors.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, derrors.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
