// Package contracts serves contract listings for affiliates, admins and
// signed-in clients.
package contracts

import (
	"net/http"
	"strings"

	uierrors "github.com/jsong1004/ai-service/internal/app/features/errors"
	"github.com/jsong1004/ai-service/internal/app/features/shared"
	ledger "github.com/jsong1004/ai-service/internal/app/ledger/contracts"
	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/app/system/authz"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"github.com/jsong1004/ai-service/internal/domain/models"
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
	Contracts []models.Contract `json:"contracts"`
	Summary   ledger.Summary    `json:"summary"`
}

func filterFrom(r *http.Request) ledger.ContractFilter {
	q := r.URL.Query()
	return ledger.ContractFilter{
		Status: strings.ToLower(strings.TrimSpace(q.Get("status"))),
		Search: strings.TrimSpace(q.Get("search")),
	}
}

// List handles GET /api/contracts?status=&search=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	affID, err := shared.QueryID(r, "affiliateId")
	if err != nil {
		h.ErrLog.Respond(w, r, "list contracts", err)
		return
	}
	a, _ := authz.Actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list contracts")
	defer cancel()

	list, err := h.Ledger.ListContracts(ctx, a, affID, filterFrom(r))
	if err != nil {
		h.ErrLog.Respond(w, r, "list contracts", err)
		return
	}
	h.write(w, list)
}

// ClientList handles GET /api/client/contracts.
func (h *Handler) ClientList(w http.ResponseWriter, r *http.Request) {
	a, _ := authz.Actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list client contracts")
	defer cancel()

	list, err := h.Ledger.ListClientContracts(ctx, a, filterFrom(r))
	if err != nil {
		h.ErrLog.Respond(w, r, "list client contracts", err)
		return
	}
	h.write(w, list)
}

func (h *Handler) write(w http.ResponseWriter, list []models.Contract) {
	if list == nil {
		list = []models.Contract{}
	}
	apiresp.JSON(w, http.StatusOK, listResponse{Contracts: list, Summary: ledger.Summarize(list)})
}
