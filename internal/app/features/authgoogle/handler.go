// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/jsong1004/ai-service/internal/app/features/shared"
	loginstore "github.com/jsong1004/ai-service/internal/app/store/logins"
	"github.com/jsong1004/ai-service/internal/app/store/oauthstate"
	userstore "github.com/jsong1004/ai-service/internal/app/store/users"
	"github.com/jsong1004/ai-service/internal/app/system/auth"
	"github.com/jsong1004/ai-service/internal/app/system/authutil"
	"github.com/jsong1004/ai-service/internal/app/system/normalize"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	provider = models.AuthGoogle
	stateTTL = 10 * time.Minute
)

// Handler handles Google OAuth authentication.
type Handler struct {
	Users      *userstore.Store
	Logins     *loginstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	StateStore *oauthstate.Store

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://api.example.com/auth/google/callback"

	// FrontendURL is where the browser lands after the callback.
	FrontendURL string

	// fetchProfile exchanges an authorization code for the Google profile.
	fetchProfile func(ctx context.Context, code string) (*googleUserInfo, error)
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	clientID, clientSecret, baseURL, frontendURL string,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		Users:        userstore.New(db),
		Logins:       loginstore.New(db),
		Log:          logger,
		SessionMgr:   sessionMgr,
		StateStore:   oauthstate.New(db),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimRight(baseURL, "/") + "/auth/google/callback",
		FrontendURL:  strings.TrimRight(frontendURL, "/"),
	}
	h.fetchProfile = h.exchangeAndFetch
	return h
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.redirectToLogin(w, r, "google_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		h.redirectToLogin(w, r, "internal")
		return
	}

	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.StateStore.Save(ctx, provider, state, returnURL, time.Now().UTC().Add(stateTTL)); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.redirectToLogin(w, r, "internal")
		return
	}

	url := h.oauth2Config().AuthCodeURL(state)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("redirect_url", url),
		zap.String("return_url", returnURL))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code, resolves or creates the account and starts a session.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		h.redirectToLogin(w, r, "google_denied")
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		h.redirectToLogin(w, r, "invalid_state")
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.StateStore.Consume(ctxTimeout, provider, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.redirectToLogin(w, r, "internal")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.redirectToLogin(w, r, "invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.redirectToLogin(w, r, "invalid_code")
		return
	}

	googleUser, err := h.fetchProfile(ctx, code)
	if err != nil {
		h.Log.Error("failed to fetch Google profile", zap.Error(err))
		h.redirectToLogin(w, r, "user_info")
		return
	}

	h.Log.Debug("Google user info fetched",
		zap.String("google_id", googleUser.ID),
		zap.String("email", googleUser.Email))

	user, err := h.resolveUser(ctxTimeout, googleUser)
	switch {
	case errors.Is(err, errUserDisabled):
		h.Log.Info("Google OAuth: user disabled", zap.String("email", googleUser.Email))
		h.redirectToLogin(w, r, "account_disabled")
		return
	case errors.Is(err, errUnverifiedEmail):
		h.Log.Info("Google OAuth: unverified email", zap.String("email", googleUser.Email))
		h.redirectToLogin(w, r, "email_unverified")
		return
	case err != nil:
		h.Log.Error("failed to resolve Google user", zap.Error(err))
		h.redirectToLogin(w, r, "internal")
		return
	}

	if _, err := shared.SignIn(w, r, h.SessionMgr, user); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		h.redirectToLogin(w, r, "session")
		return
	}

	shared.RecordLogin(r, h.Logins, user.ID, provider, h.Log)
	h.Log.Info("user logged in via Google OAuth", zap.String("user_id", user.ID.Hex()))

	fallback := "/dashboard"
	if !user.ProfileComplete {
		fallback = "/onboarding"
	}
	http.Redirect(w, r, h.FrontendURL+urlutil.SafeReturn(returnURL, "", fallback), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| User lookup                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

var (
	errUserDisabled    = errors.New("user disabled")
	errUnverifiedEmail = errors.New("google email not verified")
)

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *Handler) exchangeAndFetch(ctx context.Context, code string) (*googleUserInfo, error) {
	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return fetchGoogleUserInfo(ctx, token)
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &info, nil
}

// resolveUser finds the account for a Google profile:
//  1. by the Google subject id already linked to an account,
//  2. by email, linking the subject id when Google verified the address,
//  3. otherwise a new account with no role, which still has to onboard.
func (h *Handler) resolveUser(ctx context.Context, g *googleUserInfo) (*models.User, error) {
	u, err := h.Users.GetByAuthReturnID(ctx, provider, g.ID)
	if err == nil {
		return checkActive(u)
	}
	if !errors.Is(err, userstore.ErrNotFound) {
		return nil, err
	}

	if !g.EmailVerified {
		return nil, errUnverifiedEmail
	}

	u, err = h.Users.GetByEmail(ctx, g.Email)
	if err == nil {
		if u.AuthReturnID == nil || *u.AuthReturnID == "" {
			if lerr := h.Users.LinkProvider(ctx, u.ID, g.ID); lerr != nil {
				h.Log.Warn("failed to link Google account",
					zap.Error(lerr),
					zap.String("user_id", u.ID.Hex()))
			}
		}
		return checkActive(u)
	}
	if !errors.Is(err, userstore.ErrNotFound) {
		return nil, err
	}

	res, err := authutil.ValidateAndResolve(authutil.SignupInput{
		Provider:     provider,
		Email:        g.Email,
		AuthReturnID: g.ID,
	})
	if err != nil {
		return nil, err
	}
	created, err := h.Users.Create(ctx, models.User{
		FullName:     g.Name,
		Email:        res.Email,
		AuthProvider: res.Provider,
		AuthReturnID: res.AuthReturnID,
	})
	if err != nil {
		return nil, err
	}
	h.Log.Info("created account from Google sign-in", zap.String("user_id", created.ID.Hex()))
	return &created, nil
}

func checkActive(u *models.User) (*models.User, error) {
	if normalize.Status(u.Status) == "disabled" {
		return nil, errUserDisabled
	}
	return u, nil
}

// redirectToLogin sends the browser back to the frontend login page.
func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request, errorCode string) {
	http.Redirect(w, r, h.FrontendURL+"/login?error="+errorCode, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
