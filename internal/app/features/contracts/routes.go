package contracts

import (
	"github.com/go-chi/chi/v5"
	"github.com/jsong1004/ai-service/internal/app/system/auth"
	"github.com/jsong1004/ai-service/internal/domain/models"
)

// Routes mounts under /api/contracts.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAffiliate, models.RoleAdmin))
	r.Get("/", h.List)
	return r
}

// ClientRoutes mounts under /api/client.
func ClientRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleClient))
	r.Get("/contracts", h.ClientList)
	return r
}
