package shared

import (
	"context"
	"net/http"
	"time"

	loginstore "github.com/jsong1004/ai-service/internal/app/store/logins"
	"github.com/jsong1004/ai-service/internal/app/system/auth"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SignInResponse is returned by every endpoint that starts a session.
// Token is set only when bearer tokens are enabled.
type SignInResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token,omitempty"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
}

// SignIn writes the session cookie for u and, when the session manager
// has a token service, issues a bearer token alongside it.
func SignIn(w http.ResponseWriter, r *http.Request, sm *auth.SessionManager, u *models.User) (SignInResponse, error) {
	err := sm.SignIn(w, r, auth.SessionUser{
		ID:              u.ID.Hex(),
		Name:            u.FullName,
		Email:           u.Email,
		Role:            u.Role,
		ProfileComplete: u.ProfileComplete,
	})
	if err != nil {
		return SignInResponse{}, err
	}

	res := SignInResponse{User: u}
	if ts := sm.Tokens(); ts != nil {
		tok, exp, err := ts.Generate(u.ID.Hex(), u.Role)
		if err != nil {
			return SignInResponse{}, err
		}
		res.Token = tok
		res.ExpiresAt = &exp
	}
	return res, nil
}

// RecordLogin appends to the user's sign-in history. Failures are logged
// and otherwise ignored.
func RecordLogin(r *http.Request, logins *loginstore.Store, userID primitive.ObjectID, provider string, log *zap.Logger) {
	if logins == nil {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := logins.CreateFrom(ctx, r, userID, provider); err != nil {
		log.Warn("record login failed", zap.String("user_id", userID.Hex()), zap.Error(err))
	}
}
