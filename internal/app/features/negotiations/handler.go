// Package negotiations serves the affiliate pipeline: creating leads,
// listing negotiations with their rollup and moving them between stages.
package negotiations

import (
	"net/http"

	uierrors "github.com/jsong1004/ai-service/internal/app/features/errors"
	"github.com/jsong1004/ai-service/internal/app/features/shared"
	"github.com/jsong1004/ai-service/internal/app/ledger/leads"
	"github.com/jsong1004/ai-service/internal/app/system/actor"
	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/app/system/authz"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Leads  *leads.Service
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Leads:  leads.NewService(db, logger),
		ErrLog: errLog,
		Log:    logger,
	}
}

type createLeadRequest struct {
	CompanyName    string  `json:"companyName" validate:"required,max=200"`
	ContactPerson  string  `json:"contactPerson" validate:"required,max=200"`
	Email          string  `json:"email" validate:"required,email"`
	Phone          string  `json:"phone" validate:"max=50"`
	EstimatedValue float64 `json:"estimatedValue" validate:"gte=0"`
	Notes          string  `json:"notes" validate:"max=5000"`
}

type listResponse struct {
	Negotiations []leads.NegotiationView `json:"negotiations"`
	leads.Summary
}

type stageRequest struct {
	Stage   string `json:"stage" validate:"required"`
	Version int64  `json:"version" validate:"required,gt=0"`
	Note    string `json:"note" validate:"max=5000"`
}

func currentActor(r *http.Request) actor.Actor {
	a, _ := authz.Actor(r)
	return a
}

// List handles GET /api/negotiations. Admins name the affiliate with
// ?affiliateId=; affiliates always see their own.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	affID, err := shared.QueryID(r, "affiliateId")
	if err != nil {
		h.ErrLog.Respond(w, r, "list negotiations", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list negotiations")
	defer cancel()

	views, err := h.Leads.ListNegotiations(ctx, currentActor(r), affID)
	if err != nil {
		h.ErrLog.Respond(w, r, "list negotiations", err)
		return
	}
	apiresp.JSON(w, http.StatusOK, listResponse{Negotiations: views, Summary: leads.SummarizeViews(views)})
}

// Create handles POST /api/negotiations.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLeadRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.WriteValidation(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create lead")
	defer cancel()

	res, err := h.Leads.CreateLead(ctx, currentActor(r), leads.CreateLeadInput{
		CompanyName:    req.CompanyName,
		ContactPerson:  req.ContactPerson,
		Email:          req.Email,
		Phone:          req.Phone,
		EstimatedValue: req.EstimatedValue,
		Notes:          req.Notes,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "create lead", err)
		return
	}
	apiresp.JSON(w, http.StatusCreated, res)
}

// UpdateStage handles PATCH /api/negotiations/{id}/stage.
func (h *Handler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, "update stage", err)
		return
	}
	var req stageRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.WriteValidation(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update stage")
	defer cancel()

	neg, err := h.Leads.UpdateStage(ctx, currentActor(r), id, leads.StageChange{
		Stage:           req.Stage,
		ExpectedVersion: req.Version,
		Note:            req.Note,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "update stage", err)
		return
	}
	apiresp.JSON(w, http.StatusOK, neg)
}
