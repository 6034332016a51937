package loginstore_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	loginstore "github.com/jsong1004/ai-service/internal/app/store/logins"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"github.com/jsong1004/ai-service/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		err := store.Create(ctx, models.LoginRecord{
			UserID:    userID,
			Provider:  models.AuthCredentials,
			IP:        "192.168.1.1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	// Another user's login must not leak in.
	if err := store.Create(ctx, models.LoginRecord{UserID: primitive.NewObjectID(), Provider: models.AuthGoogle}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	recs, err := store.ListForUser(ctx, userID, 2)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if !recs[0].CreatedAt.After(recs[1].CreatedAt) {
		t.Error("expected newest first")
	}
}

func TestStore_CreateFrom(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "10.0.0.5:41234"
	r.Header.Set("User-Agent", strings.Repeat("x", 400))

	userID := primitive.NewObjectID()
	if err := store.CreateFrom(ctx, r, userID, models.AuthGoogle); err != nil {
		t.Fatalf("CreateFrom failed: %v", err)
	}

	recs, err := store.ListForUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	got := recs[0]
	if got.IP != "10.0.0.5" {
		t.Errorf("IP: got %q, want %q", got.IP, "10.0.0.5")
	}
	if got.Provider != models.AuthGoogle {
		t.Errorf("Provider: got %q", got.Provider)
	}
	if len(got.UserAgent) != 256 {
		t.Errorf("user agent should be truncated to 256, got %d", len(got.UserAgent))
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}
