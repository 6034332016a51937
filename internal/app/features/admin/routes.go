package admin

import (
	"github.com/go-chi/chi/v5"
	"github.com/jsong1004/ai-service/internal/app/system/auth"
	"github.com/jsong1004/ai-service/internal/domain/models"
)

// Routes mounts under /api/admin. activityRoutes, when non-nil, is mounted
// at /activity.
func Routes(h *Handler, sm *auth.SessionManager, activityRoutes chi.Router) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))

	r.Post("/contracts", h.GenerateContract)

	r.Route("/commissions/{id}", func(cr chi.Router) {
		cr.Post("/approve", h.ApproveCommission)
		cr.Post("/pay", h.PayCommission)
		cr.Post("/cancel", h.CancelCommission)
	})

	r.Get("/affiliates", h.ListAffiliates)
	r.Route("/affiliates/{id}", func(ar chi.Router) {
		ar.Patch("/status", h.SetAffiliateStatus)
		ar.Get("/analytics", h.AffiliateAnalytics)
		ar.Post("/recalculate", h.RecalculateEarnings)
	})

	r.Get("/users/{id}/logins", h.UserLogins)

	if activityRoutes != nil {
		r.Mount("/activity", activityRoutes)
	}
	return r
}
