package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/jsong1004/ai-service/internal/app/store/users"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"github.com/jsong1004/ai-service/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// createEmailIndex adds the unique index the duplicate checks rely on.
func createEmailIndex(t *testing.T, db *mongo.Database) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}
}

func TestStore_Create_NewUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FullName: "  Ada Lovelace ",
		Email:    "Ada@Example.com",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.FullName != "Ada Lovelace" {
		t.Errorf("FullName: got %q", created.FullName)
	}
	if created.Email != "ada@example.com" {
		t.Errorf("Email: got %q, want lowercased", created.Email)
	}
	if created.Status != "active" {
		t.Errorf("expected status 'active', got %q", created.Status)
	}
	if created.AuthProvider != models.AuthCredentials {
		t.Errorf("expected default provider credentials, got %q", created.AuthProvider)
	}
	if created.ProfileComplete {
		t.Error("a user without a role should not be profile complete")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{FullName: "X", Email: "x@example.com", Role: "leader"})
	if !errors.Is(err, derrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	createEmailIndex(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{FullName: "One", Email: "dup@example.com"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{FullName: "Two", Email: "DUP@example.com"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByEmail_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByEmail(ctx, "nobody@example.com")
	if !errors.Is(err, userstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !errors.Is(err, derrors.ErrNotFound) {
		t.Error("expected store error to wrap derrors.ErrNotFound")
	}
}

func TestStore_CompleteOnboarding_OnlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{FullName: "New Person", Email: "new@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := store.CompleteOnboarding(ctx, u.ID, "Affiliate", "")
	if err != nil {
		t.Fatalf("CompleteOnboarding failed: %v", err)
	}
	if updated.Role != models.RoleAffiliate || !updated.ProfileComplete {
		t.Errorf("got role=%q complete=%v", updated.Role, updated.ProfileComplete)
	}

	_, err = store.CompleteOnboarding(ctx, u.ID, models.RoleClient, "")
	if !errors.Is(err, userstore.ErrAlreadyOnboarded) {
		t.Fatalf("second onboarding: expected ErrAlreadyOnboarded, got %v", err)
	}

	got, _ := store.GetByID(ctx, u.ID)
	if got.Role != models.RoleAffiliate {
		t.Errorf("role changed on second onboarding: %q", got.Role)
	}
}

func TestStore_CompleteOnboarding_RejectsAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, _ := store.Create(ctx, models.User{FullName: "Sneaky", Email: "sneaky@example.com"})
	if _, err := store.CompleteOnboarding(ctx, u.ID, models.RoleAdmin, ""); !errors.Is(err, derrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for admin self-onboarding, got %v", err)
	}
}

func TestStore_CompleteOnboarding_MissingUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.CompleteOnboarding(ctx, primitive.NewObjectID(), models.RoleClient, "")
	if !errors.Is(err, userstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_EnsureAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	createEmailIndex(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	changed, err := store.EnsureAdmin(ctx, "Boss@Example.com", "")
	if err != nil || !changed {
		t.Fatalf("first EnsureAdmin: changed=%v err=%v", changed, err)
	}
	changed, err = store.EnsureAdmin(ctx, "boss@example.com", "")
	if err != nil || changed {
		t.Fatalf("second EnsureAdmin: changed=%v err=%v", changed, err)
	}

	u, err := store.GetByEmail(ctx, "boss@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if u.Role != models.RoleAdmin || !u.ProfileComplete {
		t.Errorf("got role=%q complete=%v", u.Role, u.ProfileComplete)
	}
}

func TestStore_EnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := fixtures.CreateUser(ctx, "Owner", "owner@example.com", models.RoleClient)

	changed, err := store.EnsureAdmin(ctx, "owner@example.com", "")
	if err != nil || !changed {
		t.Fatalf("EnsureAdmin: changed=%v err=%v", changed, err)
	}
	u, _ := store.GetByID(ctx, existing.ID)
	if u.Role != models.RoleAdmin {
		t.Errorf("expected promotion to admin, got %q", u.Role)
	}
}

func TestFetcher_ResolvesAffiliate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, aff := fixtures.CreateAffiliate(ctx, "Referrer", 12.5)

	su := userstore.NewFetcher(db).FetchUser(ctx, u.ID.Hex())
	if su == nil {
		t.Fatal("expected a session user")
	}
	if su.Role != models.RoleAffiliate {
		t.Errorf("Role: got %q", su.Role)
	}
	if su.AffiliateID != aff.ID.Hex() {
		t.Errorf("AffiliateID: got %q, want %q", su.AffiliateID, aff.ID.Hex())
	}
	if su.ClientID != "" {
		t.Error("affiliate should not carry a client id")
	}
}

func TestFetcher_DisabledUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Gone", "gone@example.com", models.RoleClient)
	_, err := db.Collection("users").UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{"status": "disabled"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if su := userstore.NewFetcher(db).FetchUser(ctx, u.ID.Hex()); su != nil {
		t.Errorf("expected nil for disabled user, got %+v", su)
	}
}

func TestFetcher_BadID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if su := userstore.NewFetcher(db).FetchUser(ctx, "not-an-id"); su != nil {
		t.Error("expected nil for malformed id")
	}
}
