package admin

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/jsong1004/ai-service/internal/app/features/shared"
	"github.com/jsong1004/ai-service/internal/app/store/activity"
	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/app/system/authz"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// affiliateRow is an affiliate with its user's name and email.
type affiliateRow struct {
	models.Affiliate
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type affiliatesResponse struct {
	Affiliates []affiliateRow `json:"affiliates"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending active inactive"`
}

// ListAffiliates handles GET /api/admin/affiliates?status=.
func (h *Handler) ListAffiliates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list affiliates")
	defer cancel()

	list, err := h.Affiliates.List(ctx, query.Get(r, "status"))
	if err != nil {
		h.ErrLog.Respond(w, r, "list affiliates", err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.UserID)
	}
	users, err := h.Users.GetMany(ctx, ids)
	if err != nil {
		h.ErrLog.Respond(w, r, "list affiliates", err)
		return
	}

	rows := make([]affiliateRow, 0, len(list))
	for _, a := range list {
		row := affiliateRow{Affiliate: a}
		if u, ok := users[a.UserID]; ok {
			row.FullName = u.FullName
			row.Email = u.Email
		}
		rows = append(rows, row)
	}
	apiresp.JSON(w, http.StatusOK, affiliatesResponse{Affiliates: rows})
}

// SetAffiliateStatus handles PATCH /api/admin/affiliates/{id}/status.
func (h *Handler) SetAffiliateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "set affiliate status", err)
		return
	}
	var req statusRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.WriteValidation(w, err)
		return
	}
	a, _ := authz.Actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set affiliate status")
	defer cancel()

	aff, err := h.Affiliates.SetStatus(ctx, id, req.Status)
	if err != nil {
		h.ErrLog.Respond(w, r, "set affiliate status", err)
		return
	}

	ev := activity.Event{
		ActorID:     &a.UserID,
		ActorRole:   a.Role,
		EventType:   activity.EventAffiliateStatus,
		AffiliateID: &aff.ID,
		Details:     map[string]any{"status": aff.Status},
	}
	if err := h.Activity.Create(ctx, ev); err != nil {
		h.Log.Warn("activity write failed", zap.String("event", ev.EventType), zap.Error(err))
	}
	apiresp.JSON(w, http.StatusOK, aff)
}

// AffiliateAnalytics handles GET /api/admin/affiliates/{id}/analytics?range=.
func (h *Handler) AffiliateAnalytics(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "affiliate analytics", err)
		return
	}
	a, _ := authz.Actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "affiliate analytics")
	defer cancel()

	if _, err := h.Affiliates.GetByID(ctx, id); err != nil {
		h.ErrLog.Respond(w, r, "affiliate analytics", err)
		return
	}
	rep, err := h.Reports.BuildAnalytics(ctx, a, id, query.Get(r, "range"))
	if err != nil {
		h.ErrLog.Respond(w, r, "affiliate analytics", err)
		return
	}
	apiresp.JSON(w, http.StatusOK, rep)
}

// RecalculateEarnings handles POST /api/admin/affiliates/{id}/recalculate.
func (h *Handler) RecalculateEarnings(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "recalculate earnings", err)
		return
	}
	a, _ := authz.Actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "recalculate earnings")
	defer cancel()

	if _, err := h.Affiliates.GetByID(ctx, id); err != nil {
		h.ErrLog.Respond(w, r, "recalculate earnings", err)
		return
	}
	e, err := h.Ledger.Recalculate(ctx, a, id)
	if err != nil {
		h.ErrLog.Respond(w, r, "recalculate earnings", err)
		return
	}
	apiresp.JSON(w, http.StatusOK, e)
}
