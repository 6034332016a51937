// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"

	uierrors "github.com/jsong1004/ai-service/internal/app/features/errors"
	"github.com/jsong1004/ai-service/internal/app/features/shared"
	loginstore "github.com/jsong1004/ai-service/internal/app/store/logins"
	userstore "github.com/jsong1004/ai-service/internal/app/store/users"
	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/app/system/auth"
	"github.com/jsong1004/ai-service/internal/app/system/authutil"
	"github.com/jsong1004/ai-service/internal/app/system/normalize"
	"github.com/jsong1004/ai-service/internal/app/system/ratelimit"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	Logins     *loginstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Limiter    *ratelimit.LoginLimiter
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if limiter == nil {
		limiter = ratelimit.NewLoginLimiter()
	}
	return &Handler{
		Users:      userstore.New(db),
		Logins:     loginstore.New(db),
		Log:        logger,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Limiter:    limiter,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// badCredentials is the only failure a caller sees for a wrong email,
// a wrong password or an account without a password.
const badCredentials = "Invalid email or password."

// HandleLoginPost handles POST /login with an email and password. On
// success the session cookie is set and the body carries the user and,
// when enabled, a bearer token.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.WriteValidation(w, err)
		return
	}
	email := normalize.Email(req.Email)

	if ok, reason := h.Limiter.Check(r, email); !ok {
		h.Log.Info("login rate limited", zap.String("ip", ratelimit.ClientIP(r)))
		apiresp.Error(w, http.StatusTooManyRequests, "rate_limited", reason)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login lookup")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		h.Log.Info("login failed: unknown email")
		apiresp.Error(w, http.StatusUnauthorized, "invalid_credentials", badCredentials)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login lookup failed", err)
		return
	}

	if u.AuthProvider != models.AuthCredentials || !authutil.CheckPassword(u.PasswordHash, req.Password) {
		h.Log.Info("login failed: bad password", zap.String("user_id", u.ID.Hex()))
		apiresp.Error(w, http.StatusUnauthorized, "invalid_credentials", badCredentials)
		return
	}
	if normalize.Status(u.Status) == "disabled" {
		apiresp.Error(w, http.StatusForbidden, "account_disabled", "This account has been disabled.")
		return
	}

	h.Limiter.ResetEmail(email)

	res, err := shared.SignIn(w, r, h.SessionMgr, u)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "sign in failed", err)
		return
	}

	shared.RecordLogin(r, h.Logins, u.ID, models.AuthCredentials, h.Log)
	h.Log.Info("user logged in", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))
	apiresp.JSON(w, http.StatusOK, res)
}
