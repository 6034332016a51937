package admin

import (
	"fmt"
	"net/http"
	"time"

	ledger "github.com/jsong1004/ai-service/internal/app/ledger/contracts"
	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/app/system/authz"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type generateRequest struct {
	NegotiationID string   `json:"negotiationId"`
	ClientID      string   `json:"clientId"`
	Amount        float64  `json:"amount" validate:"gt=0"`
	Currency      string   `json:"currency" validate:"omitempty,len=3,alpha"`
	Services      []string `json:"services" validate:"max=20,dive,max=100"`
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate"`
	Description   string   `json:"description" validate:"max=5000"`
}

func optionalID(field, raw string) (*primitive.ObjectID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a valid id", derrors.ErrInvalidInput, field)
	}
	return &id, nil
}

// optionalDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
func optionalDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s must be a date (YYYY-MM-DD)", derrors.ErrInvalidInput, field)
}

func (req generateRequest) input() (ledger.GenerateInput, error) {
	in := ledger.GenerateInput{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Services:    req.Services,
		Description: req.Description,
	}
	var err error
	if in.NegotiationID, err = optionalID("negotiationId", req.NegotiationID); err != nil {
		return in, err
	}
	if in.ClientID, err = optionalID("clientId", req.ClientID); err != nil {
		return in, err
	}
	if in.StartDate, err = optionalDate("startDate", req.StartDate); err != nil {
		return in, err
	}
	if in.EndDate, err = optionalDate("endDate", req.EndDate); err != nil {
		return in, err
	}
	return in, nil
}

// GenerateContract handles POST /api/admin/contracts.
func (h *Handler) GenerateContract(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.WriteValidation(w, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.ErrLog.Respond(w, r, "generate contract", err)
		return
	}
	a, _ := authz.Actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "generate contract")
	defer cancel()

	res, err := h.Ledger.GenerateContract(ctx, a, in)
	if err != nil {
		h.ErrLog.Respond(w, r, "generate contract", err)
		return
	}
	apiresp.JSON(w, http.StatusCreated, res)
}
