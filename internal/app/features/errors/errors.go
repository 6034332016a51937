// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
)

// Handler serves the router-level JSON fallbacks.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is installed as the router's 404 handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	apiresp.Error(w, http.StatusNotFound, "not_found", "The requested resource does not exist.")
}

// MethodNotAllowed is installed as the router's 405 handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	apiresp.Error(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed.")
}
