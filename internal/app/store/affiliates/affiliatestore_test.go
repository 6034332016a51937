package affiliatestore_test

import (
	"errors"
	"testing"

	affiliatestore "github.com/jsong1004/ai-service/internal/app/store/affiliates"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"github.com/jsong1004/ai-service/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestStore_Create_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := affiliatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, models.Affiliate{
		UserID:         primitive.NewObjectID(),
		CommissionRate: models.DefaultCommissionRate,
		TotalEarnings:  999, // ignored on create
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if a.Status != models.AffiliatePending {
		t.Errorf("Status: got %q, want pending", a.Status)
	}
	if a.TotalEarnings != 0 {
		t.Errorf("earnings must start at zero, got %v", a.TotalEarnings)
	}
}

func TestStore_Create_RateBounds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := affiliatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, rate := range []float64{0, -1, 100.5} {
		_, err := store.Create(ctx, models.Affiliate{UserID: primitive.NewObjectID(), CommissionRate: rate})
		if !errors.Is(err, affiliatestore.ErrBadRate) {
			t.Errorf("rate %v: expected ErrBadRate, got %v", rate, err)
		}
	}
}

func TestStore_Create_OnePerUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("affiliates").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}

	store := affiliatestore.New(db)
	userID := primitive.NewObjectID()
	if _, err := store.Create(ctx, models.Affiliate{UserID: userID, CommissionRate: 10}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err = store.Create(ctx, models.Affiliate{UserID: userID, CommissionRate: 10})
	if !errors.Is(err, affiliatestore.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestStore_SetStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := affiliatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, models.Affiliate{UserID: primitive.NewObjectID(), CommissionRate: 10})

	got, err := store.SetStatus(ctx, a.ID, " ACTIVE ")
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if got.Status != models.AffiliateActive {
		t.Errorf("Status: got %q", got.Status)
	}

	if _, err := store.SetStatus(ctx, a.ID, "banned"); !errors.Is(err, derrors.ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
	if _, err := store.SetStatus(ctx, primitive.NewObjectID(), "active"); !errors.Is(err, affiliatestore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SetEarnings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := affiliatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, models.Affiliate{UserID: primitive.NewObjectID(), CommissionRate: 10})

	if err := store.SetEarnings(ctx, a.ID, affiliatestore.Earnings{Total: 300, Pending: 100, Paid: 200}); err != nil {
		t.Fatalf("SetEarnings failed: %v", err)
	}
	got, _ := store.GetByID(ctx, a.ID)
	if got.TotalEarnings != 300 || got.PendingEarnings != 100 || got.PaidEarnings != 200 {
		t.Errorf("unexpected earnings: %+v", got)
	}

	if err := store.SetEarnings(ctx, primitive.NewObjectID(), affiliatestore.Earnings{}); !errors.Is(err, affiliatestore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_GetByUserID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := affiliatestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, aff := fixtures.CreateAffiliate(ctx, "Finder", 15)

	got, err := store.GetByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if got.ID != aff.ID {
		t.Errorf("ID: got %v, want %v", got.ID, aff.ID)
	}
	if _, err := store.GetByUserID(ctx, primitive.NewObjectID()); !errors.Is(err, affiliatestore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
