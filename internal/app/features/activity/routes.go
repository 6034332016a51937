// internal/app/features/activity/routes.go
package activity

import (
	"github.com/go-chi/chi/v5"
	"github.com/jsong1004/ai-service/internal/app/system/auth"
	"github.com/jsong1004/ai-service/internal/domain/models"
)

// Routes returns the router for the activity log. Admin only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))

	r.Get("/", h.ServeFeed)
	r.Get("/export/events.csv", h.ServeEventsCSV)

	return r
}
