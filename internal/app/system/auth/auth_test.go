package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jsong1004/ai-service/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		logger,
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireSignedIn(t *testing.T) {
	sm := newTestSessionManager(t)

	tests := []struct {
		name string
		role *string // nil means no user
		want int
	}{
		{"browser without user gets JSON 401", nil, http.StatusUnauthorized},
		{"user without role", ptr(""), http.StatusOK},
		{"affiliate", ptr("affiliate"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest("GET", "/api/onboarding", nil)
			req.Header.Set("Accept", "text/html")
			if tt.role != nil {
				req = withTestUser(req, *tt.role)
			}
			rec := httptest.NewRecorder()
			sm.RequireSignedIn(okHandler(&called)).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
			if called != (tt.want == http.StatusOK) {
				t.Errorf("handler called = %v", called)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	sm := newTestSessionManager(t)
	mw := sm.RequireRole("admin", " Affiliate ")

	tests := []struct {
		name string
		role *string
		want int
	}{
		{"no user", nil, http.StatusUnauthorized},
		{"admin", ptr("admin"), http.StatusOK},
		{"upper case role", ptr("ADMIN"), http.StatusOK},
		{"affiliate", ptr("affiliate"), http.StatusOK},
		{"client", ptr("client"), http.StatusForbidden},
		{"onboarding not finished", ptr(""), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest("GET", "/api/analytics", nil)
			if tt.role != nil {
				req = withTestUser(req, *tt.role)
			}
			rec := httptest.NewRecorder()
			mw(okHandler(&called)).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
			if called != (tt.want == http.StatusOK) {
				t.Errorf("handler called = %v", called)
			}
			if tt.want == http.StatusForbidden && !strings.Contains(rec.Body.String(), "forbidden") {
				t.Errorf("expected forbidden code in body, got %s", rec.Body.String())
			}
		})
	}
}

func ptr(s string) *string { return &s }

func TestCurrentUser_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	user, ok := auth.CurrentUser(req)

	if ok {
		t.Error("expected ok to be false when no user in context")
	}
	if user != nil {
		t.Error("expected user to be nil when no user in context")
	}
}

func TestCurrentUser_WithUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req = withTestUser(req, "admin")

	user, ok := auth.CurrentUser(req)

	if !ok {
		t.Error("expected ok to be true when user in context")
	}
	if user == nil {
		t.Fatal("expected user to not be nil")
	}
	if user.Role != "admin" {
		t.Errorf("expected role 'admin', got %q", user.Role)
	}
}

// withTestUser injects a SessionUser into the request context for testing.
// This simulates what LoadSessionUser middleware does.
func withTestUser(r *http.Request, role string) *http.Request {
	user := &auth.SessionUser{
		ID:    "507f1f77bcf86cd799439011",
		Name:  "Test User",
		Email: "test@example.com",
		Role:  role,
	}
	return auth.WithTestUser(r, user)
}

func TestRequireSignedIn_API_WritesJSON(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/negotiations", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error body, got Content-Type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "unauthorized") {
		t.Errorf("expected unauthorized code in body, got %s", rec.Body.String())
	}
}

func TestSignInThenLoadSessionUser(t *testing.T) {
	sm := newTestSessionManager(t)

	// Sign in and capture the cookie.
	signInRec := httptest.NewRecorder()
	signInReq := httptest.NewRequest("POST", "/login", nil)
	err := sm.SignIn(signInRec, signInReq, auth.SessionUser{
		ID:    "507f1f77bcf86cd799439011",
		Name:  "Ada",
		Email: "ada@example.com",
		Role:  "affiliate",
	})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := signInRec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/api/negotiations", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected user loaded from session")
	}
	if got.Role != "affiliate" || got.Email != "ada@example.com" {
		t.Errorf("unexpected session user %+v", got)
	}
}

type stubFetcher struct {
	users map[string]*auth.SessionUser
}

func (f stubFetcher) FetchUser(_ context.Context, id string) *auth.SessionUser {
	return f.users[id]
}

func TestLoadSessionUser_BearerToken(t *testing.T) {
	sm := newTestSessionManager(t)
	ts := auth.NewTokenService("test-jwt-secret-that-is-long-enough!!", time.Hour, "test")
	sm.SetTokenService(ts)
	sm.SetUserFetcher(stubFetcher{users: map[string]*auth.SessionUser{
		"507f1f77bcf86cd799439011": {ID: "507f1f77bcf86cd799439011", Role: "affiliate", AffiliateID: "507f1f77bcf86cd799439012"},
	}})

	tok, _, err := ts.Generate("507f1f77bcf86cd799439011", "affiliate")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/api/analytics", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.AffiliateID != "507f1f77bcf86cd799439012" {
		t.Errorf("expected fetched affiliate user, got %+v", got)
	}
}

func TestLoadSessionUser_BadBearerTokenIgnored(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetTokenService(auth.NewTokenService("test-jwt-secret-that-is-long-enough!!", time.Hour, "test"))

	var ok bool
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/api/analytics", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if ok {
		t.Error("expected no user for an invalid token")
	}
}
