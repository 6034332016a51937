package admin

import (
	"context"
	"net/http"

	"github.com/jsong1004/ai-service/internal/app/features/shared"
	ledger "github.com/jsong1004/ai-service/internal/app/ledger/contracts"
	"github.com/jsong1004/ai-service/internal/app/system/actor"
	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/app/system/authz"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type payRequest struct {
	PaymentMethod    string `json:"paymentMethod" validate:"max=50"`
	PaymentReference string `json:"paymentReference" validate:"max=100"`
}

type transitionFunc func(ctx context.Context, a actor.Actor, id primitive.ObjectID) (*models.Commission, error)

func (h *Handler) commissionTransition(op string, fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := shared.PathID(r, "id")
		if err != nil {
			h.ErrLog.Respond(w, r, op, err)
			return
		}
		a, _ := authz.Actor(r)

		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, op)
		defer cancel()

		c, err := fn(ctx, a, id)
		if err != nil {
			h.ErrLog.Respond(w, r, op, err)
			return
		}
		apiresp.JSON(w, http.StatusOK, c)
	}
}

// ApproveCommission handles POST /api/admin/commissions/{id}/approve.
func (h *Handler) ApproveCommission(w http.ResponseWriter, r *http.Request) {
	h.commissionTransition("approve commission", h.Ledger.Approve)(w, r)
}

// CancelCommission handles POST /api/admin/commissions/{id}/cancel.
func (h *Handler) CancelCommission(w http.ResponseWriter, r *http.Request) {
	h.commissionTransition("cancel commission", h.Ledger.Cancel)(w, r)
}

// PayCommission handles POST /api/admin/commissions/{id}/pay. The body is
// optional.
func (h *Handler) PayCommission(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if r.ContentLength != 0 {
		if err := apiresp.Decode(r, &req); err != nil {
			apiresp.WriteValidation(w, err)
			return
		}
	}
	pay := func(ctx context.Context, a actor.Actor, id primitive.ObjectID) (*models.Commission, error) {
		return h.Ledger.Pay(ctx, a, id, ledger.PaymentInput{Method: req.PaymentMethod, Reference: req.PaymentReference})
	}
	h.commissionTransition("pay commission", pay)(w, r)
}
