// internal/app/features/contact/routes.go
package contact

import (
	"github.com/go-chi/chi/v5"
	"github.com/jsong1004/ai-service/internal/app/system/ratelimit"
)

// Routes mounts the public contact endpoint behind limiter.
func Routes(h *Handler, limiter ratelimit.Checker) chi.Router {
	r := chi.NewRouter()
	r.With(ratelimit.Middleware(limiter, h.Log)).Post("/", h.Submit)
	return r
}
