package analytics

import (
	"github.com/go-chi/chi/v5"
	"github.com/jsong1004/ai-service/internal/app/system/auth"
	"github.com/jsong1004/ai-service/internal/domain/models"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAffiliate, models.RoleAdmin))
	r.Get("/", h.Get)
	return r
}
