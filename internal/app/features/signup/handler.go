// Package signup creates credentials accounts. New accounts have no role
// until they complete onboarding.
package signup

import (
	"net/http"

	uierrors "github.com/jsong1004/ai-service/internal/app/features/errors"
	"github.com/jsong1004/ai-service/internal/app/features/shared"
	userstore "github.com/jsong1004/ai-service/internal/app/store/users"
	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/app/system/auth"
	"github.com/jsong1004/ai-service/internal/app/system/authutil"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Users: userstore.New(db), SessionMgr: sessionMgr, ErrLog: errLog, Log: logger}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=200"`
	FullName string `json:"fullName" validate:"required,max=200"`
}

// HandleSignup handles POST /signup.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.WriteValidation(w, err)
		return
	}

	res, err := authutil.ValidateAndResolve(authutil.SignupInput{
		Provider: models.AuthCredentials,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "signup", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "signup")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		FullName:     req.FullName,
		Email:        res.Email,
		AuthProvider: res.Provider,
		PasswordHash: res.PasswordHash,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "signup", err)
		return
	}

	out, err := shared.SignIn(w, r, h.SessionMgr, &u)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "sign in after signup failed", err)
		return
	}

	h.Log.Info("account created", zap.String("user_id", u.ID.Hex()))
	apiresp.JSON(w, http.StatusCreated, out)
}
