// Package analytics serves the affiliate performance report.
package analytics

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	report "github.com/jsong1004/ai-service/internal/app/analytics"
	uierrors "github.com/jsong1004/ai-service/internal/app/features/errors"
	"github.com/jsong1004/ai-service/internal/app/features/shared"
	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/app/system/authz"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Reports *report.Service
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Reports: report.NewService(db), ErrLog: errLog, Log: logger}
}

// Get handles GET /api/analytics?range=. An empty range means the last
// six months.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	affID, err := shared.QueryID(r, "affiliateId")
	if err != nil {
		h.ErrLog.Respond(w, r, "analytics", err)
		return
	}
	a, _ := authz.Actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "analytics")
	defer cancel()

	rep, err := h.Reports.BuildAnalytics(ctx, a, affID, query.Get(r, "range"))
	if err != nil {
		h.ErrLog.Respond(w, r, "analytics", err)
		return
	}
	apiresp.JSON(w, http.StatusOK, rep)
}
