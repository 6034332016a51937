// Package commissions serves an affiliate's commission history and the
// earnings rollup derived from it.
package commissions

import (
	"net/http"
	"strings"

	uierrors "github.com/jsong1004/ai-service/internal/app/features/errors"
	"github.com/jsong1004/ai-service/internal/app/features/shared"
	ledger "github.com/jsong1004/ai-service/internal/app/ledger/contracts"
	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/app/system/authz"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Ledger *ledger.Service
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Ledger: ledger.NewService(db, logger), ErrLog: errLog, Log: logger}
}

type listResponse struct {
	Commissions []ledger.CommissionView `json:"commissions"`
	Totals      ledger.Totals           `json:"totals"`
}

// List handles GET /api/commissions?status=&monthsBack=. Totals cover the
// filtered rows, not the whole history.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	affID, err := shared.QueryID(r, "affiliateId")
	if err != nil {
		h.ErrLog.Respond(w, r, "list commissions", err)
		return
	}
	monthsBack, err := shared.QueryInt(r, "monthsBack", 0)
	if err != nil {
		h.ErrLog.Respond(w, r, "list commissions", err)
		return
	}
	a, _ := authz.Actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list commissions")
	defer cancel()

	views, err := h.Ledger.ListCommissions(ctx, a, affID, ledger.CommissionFilter{
		Status:     strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))),
		MonthsBack: monthsBack,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "list commissions", err)
		return
	}
	apiresp.JSON(w, http.StatusOK, listResponse{Commissions: views, Totals: h.Ledger.Totals(views)})
}

// Earnings handles GET /api/earnings.
func (h *Handler) Earnings(w http.ResponseWriter, r *http.Request) {
	affID, err := shared.QueryID(r, "affiliateId")
	if err != nil {
		h.ErrLog.Respond(w, r, "earnings", err)
		return
	}
	a, _ := authz.Actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "earnings")
	defer cancel()

	e, err := h.Ledger.Earnings(ctx, a, affID)
	if err != nil {
		h.ErrLog.Respond(w, r, "earnings", err)
		return
	}
	apiresp.JSON(w, http.StatusOK, e)
}
