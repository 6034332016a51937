package commissions

import (
	"github.com/go-chi/chi/v5"
	"github.com/jsong1004/ai-service/internal/app/system/auth"
	"github.com/jsong1004/ai-service/internal/domain/models"
)

// Routes mounts under /api/commissions.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAffiliate, models.RoleAdmin))
	r.Get("/", h.List)
	return r
}

// EarningsRoutes mounts under /api/earnings.
func EarningsRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAffiliate, models.RoleAdmin))
	r.Get("/", h.Earnings)
	return r
}
