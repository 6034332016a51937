package authgoogle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jsong1004/ai-service/internal/domain/models"
	"github.com/jsong1004/ai-service/internal/testutil"
	"go.uber.org/zap"
)

const frontend = "http://app.test"

func newTestHandler(t *testing.T, clientID string) *Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewHandler(db, testutil.NewSessionManager(t), clientID, "test-client-secret", "http://api.test", frontend, zap.NewNop())
}

func withProfile(h *Handler, p googleUserInfo) {
	h.fetchProfile = func(context.Context, string) (*googleUserInfo, error) {
		return &p, nil
	}
}

func saveState(t *testing.T, h *Handler, state, returnURL string) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := h.StateStore.Save(ctx, provider, state, returnURL, time.Now().UTC().Add(time.Minute)); err != nil {
		t.Fatalf("Save state: %v", err)
	}
}

func callback(h *Handler, query string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+query, nil))
	return rec
}

func TestIsConfigured(t *testing.T) {
	if !newTestHandler(t, "test-client-id").IsConfigured() {
		t.Error("IsConfigured() should return true with client ID and secret")
	}
	if newTestHandler(t, "").IsConfigured() {
		t.Error("IsConfigured() should return false without a client ID")
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h := newTestHandler(t, "")
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != frontend+"/login?error=google_not_configured" {
		t.Errorf("Location = %q", loc)
	}
}

func TestServeLogin_RedirectsToGoogle(t *testing.T) {
	h := newTestHandler(t, "test-client-id")
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google?return=/contracts", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "https://accounts.google.com/") {
		t.Errorf("Location = %q", loc)
	}
	if !strings.Contains(loc, "state=") || !strings.Contains(loc, "client_id=test-client-id") {
		t.Errorf("auth URL missing state or client id: %q", loc)
	}
}

func TestServeCallback_InvalidState(t *testing.T) {
	h := newTestHandler(t, "test-client-id")

	rec := callback(h, "code=abc")
	if loc := rec.Header().Get("Location"); !strings.HasSuffix(loc, "error=invalid_state") {
		t.Errorf("missing state: Location = %q", loc)
	}

	rec = callback(h, "state=never-issued&code=abc")
	if loc := rec.Header().Get("Location"); !strings.HasSuffix(loc, "error=invalid_state") {
		t.Errorf("unknown state: Location = %q", loc)
	}
}

func TestServeCallback_GoogleDenied(t *testing.T) {
	h := newTestHandler(t, "test-client-id")
	rec := callback(h, "error=access_denied")
	if loc := rec.Header().Get("Location"); !strings.HasSuffix(loc, "error=google_denied") {
		t.Errorf("Location = %q", loc)
	}
}

func TestServeCallback_CreatesAccount(t *testing.T) {
	h := newTestHandler(t, "test-client-id")
	withProfile(h, googleUserInfo{ID: "g-123", Email: "New.User@Example.com", EmailVerified: true, Name: "New User"})
	saveState(t, h, "s1", "")

	rec := callback(h, "state=s1&code=abc")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != frontend+"/onboarding" {
		t.Errorf("new account should onboard, Location = %q", loc)
	}
	if rec.Header().Get("Set-Cookie") == "" {
		t.Error("expected a session cookie")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, err := h.Users.GetByAuthReturnID(ctx, provider, "g-123")
	if err != nil {
		t.Fatalf("GetByAuthReturnID: %v", err)
	}
	if u.Email != "new.user@example.com" || u.Role != "" || u.ProfileComplete {
		t.Errorf("unexpected user: %+v", u)
	}

	// The state was consumed and cannot be replayed.
	rec = callback(h, "state=s1&code=abc")
	if loc := rec.Header().Get("Location"); !strings.HasSuffix(loc, "error=invalid_state") {
		t.Errorf("replayed state accepted: Location = %q", loc)
	}
}

func TestServeCallback_LinksExistingAccount(t *testing.T) {
	h := newTestHandler(t, "test-client-id")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing, err := h.Users.Create(ctx, models.User{FullName: "Ann", Email: "ann@example.com", Role: models.RoleAffiliate})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	withProfile(h, googleUserInfo{ID: "g-ann", Email: "ann@example.com", EmailVerified: true, Name: "Ann"})
	saveState(t, h, "s2", "/contracts")

	rec := callback(h, "state=s2&code=abc")
	if loc := rec.Header().Get("Location"); loc != frontend+"/contracts" {
		t.Errorf("Location = %q", loc)
	}

	u, err := h.Users.GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.AuthReturnID == nil || *u.AuthReturnID != "g-ann" {
		t.Errorf("Google subject not linked: %v", u.AuthReturnID)
	}
}

func TestServeCallback_UnverifiedEmail(t *testing.T) {
	h := newTestHandler(t, "test-client-id")
	withProfile(h, googleUserInfo{ID: "g-x", Email: "x@example.com", EmailVerified: false})
	saveState(t, h, "s3", "")

	rec := callback(h, "state=s3&code=abc")
	if loc := rec.Header().Get("Location"); !strings.HasSuffix(loc, "error=email_unverified") {
		t.Errorf("Location = %q", loc)
	}
}
