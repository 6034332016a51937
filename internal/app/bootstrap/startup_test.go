package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/jsong1004/ai-service/internal/app/system/ratelimit"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"github.com/jsong1004/ai-service/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:              "mongodb://localhost:27017",
		MongoDatabase:         "ai_service_test",
		SessionKey:            "test-session-key-must-be-32-chars-long",
		SessionName:           "test-session",
		SessionMaxAge:         time.Hour,
		JWTSecret:             "0123456789abcdef0123456789abcdef",
		JWTTTL:                time.Hour,
		DefaultCommissionRate: 10,
		ContactRateLimit:      5,
		ContactRateWindow:     time.Hour,
	}
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, "Admin@Test.com", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"email": "admin@test.com"}).Decode(&user); err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("expected role admin, got %q", user.Role)
	}
	if !user.ProfileComplete {
		t.Error("admin should not need onboarding")
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := testutil.NewFixtures(t, db).CreateUser(ctx, "Existing User", "existing@test.com", models.RoleAffiliate)

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, "existing@test.com", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}
	// Idempotent.
	if err := ensureAdmin(ctx, deps, "existing@test.com", testLogger()); err != nil {
		t.Fatalf("second ensureAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": existing.ID}).Decode(&user); err != nil {
		t.Fatalf("failed to find user: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("expected role admin, got %q", user.Role)
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": "existing@test.com"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected one account, got %d", n)
	}
}

func TestValidateConfig(t *testing.T) {
	dev := &config.CoreConfig{Env: "dev"}
	prod := &config.CoreConfig{Env: "prod"}

	tests := []struct {
		name    string
		core    *config.CoreConfig
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "valid", core: prod, mutate: func(*AppConfig) {}},
		{name: "bad mongo uri", core: dev, mutate: func(c *AppConfig) { c.MongoURI = "postgres://x" }, wantErr: "MongoDB URI"},
		{name: "zero rate", core: dev, mutate: func(c *AppConfig) { c.DefaultCommissionRate = 0 }, wantErr: "default_commission_rate"},
		{name: "rate over 100", core: dev, mutate: func(c *AppConfig) { c.DefaultCommissionRate = 100.5 }, wantErr: "default_commission_rate"},
		{name: "rate of 100", core: dev, mutate: func(c *AppConfig) { c.DefaultCommissionRate = 100 }},
		{name: "no contact limit", core: dev, mutate: func(c *AppConfig) { c.ContactRateLimit = 0 }, wantErr: "contact_rate_limit"},
		{name: "short jwt in prod", core: prod, mutate: func(c *AppConfig) { c.JWTSecret = "short" }, wantErr: "jwt_secret"},
		{name: "no jwt in dev", core: dev, mutate: func(c *AppConfig) { c.JWTSecret = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(tt.core, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestContactLimiter_InMemoryWithoutRedis(t *testing.T) {
	lim := contactLimiter(validAppConfig(), DBDeps{})
	if _, ok := lim.(*ratelimit.Limiter); !ok {
		t.Fatalf("expected in-memory limiter, got %T", lim)
	}
}

func TestBuildHandler_Routes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validAppConfig(), deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/me", http.StatusOK},
		{http.MethodGet, "/api/negotiations", http.StatusUnauthorized},
		{http.MethodGet, "/api/contracts", http.StatusUnauthorized},
		{http.MethodGet, "/api/client/contracts", http.StatusUnauthorized},
		{http.MethodGet, "/api/commissions", http.StatusUnauthorized},
		{http.MethodGet, "/api/earnings", http.StatusUnauthorized},
		{http.MethodGet, "/api/analytics", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/affiliates", http.StatusUnauthorized},
		{http.MethodPost, "/api/onboarding", http.StatusUnauthorized},
		{http.MethodGet, "/no-such-page", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
