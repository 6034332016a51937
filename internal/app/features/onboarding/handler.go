// Package onboarding lets a signed-in user pick a role exactly once and
// creates the Affiliate or Client record that goes with it.
package onboarding

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/jsong1004/ai-service/internal/app/features/errors"
	"github.com/jsong1004/ai-service/internal/app/features/shared"
	affiliatestore "github.com/jsong1004/ai-service/internal/app/store/affiliates"
	clientstore "github.com/jsong1004/ai-service/internal/app/store/clients"
	userstore "github.com/jsong1004/ai-service/internal/app/store/users"
	"github.com/jsong1004/ai-service/internal/app/system/actor"
	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/app/system/auth"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users       *userstore.Store
	Affiliates  *affiliatestore.Store
	Clients     *clientstore.Store
	DefaultRate float64
	SessionMgr  *auth.SessionManager
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, defaultRate float64, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if defaultRate <= 0 {
		defaultRate = models.DefaultCommissionRate
	}
	return &Handler{
		Users:       userstore.New(db),
		Affiliates:  affiliatestore.New(db),
		Clients:     clientstore.New(db),
		DefaultRate: defaultRate,
		SessionMgr:  sm,
		ErrLog:      errLog,
		Log:         logger,
	}
}

type onboardRequest struct {
	Role          string `json:"role" validate:"required,oneof=affiliate client"`
	FullName      string `json:"fullName" validate:"max=200"`
	CompanyName   string `json:"companyName" validate:"max=200"`
	ContactPerson string `json:"contactPerson" validate:"max=200"`
	Phone         string `json:"phone" validate:"max=50"`
}

// onboardResponse carries a fresh session because the role just changed.
type onboardResponse struct {
	shared.SignInResponse
	Affiliate *models.Affiliate `json:"affiliate,omitempty"`
	Client    *models.Client    `json:"client,omitempty"`
}

// HandleOnboard handles POST /api/onboarding. A second call for the same
// user is a 409.
func (h *Handler) HandleOnboard(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		h.ErrLog.Respond(w, r, "onboarding", actor.ErrUnauthenticated)
		return
	}
	userID, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, "onboarding", actor.ErrUnauthenticated)
		return
	}

	var req onboardRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.WriteValidation(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "onboarding")
	defer cancel()

	u, err := h.Users.CompleteOnboarding(ctx, userID, req.Role, req.FullName)
	if err != nil {
		h.ErrLog.Respond(w, r, "onboarding", err)
		return
	}

	var res onboardResponse
	switch u.Role {
	case models.RoleAffiliate:
		var a models.Affiliate
		a, err = h.Affiliates.Create(ctx, models.Affiliate{
			UserID:         u.ID,
			CompanyName:    req.CompanyName,
			CommissionRate: h.DefaultRate,
			Status:         models.AffiliatePending,
		})
		res.Affiliate = &a
	case models.RoleClient:
		var c models.Client
		c, err = h.Clients.Create(ctx, clientFor(u, req))
		res.Client = &c
	}
	if err != nil {
		h.revert(ctx, u.ID)
		h.ErrLog.Respond(w, r, "onboarding", err)
		return
	}

	signed, err := shared.SignIn(w, r, h.SessionMgr, u)
	if err != nil {
		h.ErrLog.Respond(w, r, "onboarding sign-in", err)
		return
	}
	res.SignInResponse = signed

	h.Log.Info("user onboarded", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))
	apiresp.JSON(w, http.StatusCreated, res)
}

// clientFor builds a self-service client. Missing company and contact
// names fall back to the user's own name.
func clientFor(u *models.User, req onboardRequest) models.Client {
	company := req.CompanyName
	if company == "" {
		company = u.FullName
	}
	contact := req.ContactPerson
	if contact == "" {
		contact = u.FullName
	}
	return models.Client{
		CompanyName:   company,
		ContactPerson: contact,
		Email:         u.Email,
		Phone:         req.Phone,
		UserID:        &u.ID,
		Status:        models.ClientProspect,
	}
}

func (h *Handler) revert(ctx context.Context, userID primitive.ObjectID) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.Users.RevertOnboarding(cctx, userID); err != nil {
		h.Log.Error("failed to revert onboarding", zap.String("user_id", userID.Hex()), zap.Error(err))
	}
}
