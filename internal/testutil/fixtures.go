package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with the given role. Pass "" for a user who has
// not finished onboarding.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:              primitive.NewObjectID(),
		FullName:        name,
		FullNameCI:      text.Fold(name),
		Email:           email,
		AuthProvider:    models.AuthCredentials,
		Role:            role,
		ProfileComplete: role != "",
		Status:          "active",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAffiliate inserts an affiliate user plus its Affiliate record.
func (f *Fixtures) CreateAffiliate(ctx context.Context, name string, rate float64) (models.User, models.Affiliate) {
	f.t.Helper()

	u := f.CreateUser(ctx, name, text.Fold(name)+"@affiliates.test", models.RoleAffiliate)
	now := time.Now().UTC()
	a := models.Affiliate{
		ID:             primitive.NewObjectID(),
		UserID:         u.ID,
		CommissionRate: rate,
		Status:         models.AffiliateActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("affiliates").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test affiliate: %v", err)
	}
	return u, a
}

// CreateClient inserts a Client referred by affiliateID (nil for none).
func (f *Fixtures) CreateClient(ctx context.Context, company string, affiliateID *primitive.ObjectID) models.Client {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Client{
		ID:            primitive.NewObjectID(),
		CompanyName:   company,
		CompanyNameCI: text.Fold(company),
		ContactPerson: "Pat Contact",
		Email:         "contact@" + text.Fold(company) + ".test",
		AffiliateID:   affiliateID,
		Status:        models.ClientLead,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("clients").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test client: %v", err)
	}
	return c
}

// CreateNegotiation inserts a negotiation at the given stage and createdAt.
func (f *Fixtures) CreateNegotiation(ctx context.Context, clientID, affiliateID primitive.ObjectID, stage models.Stage, value float64, createdAt time.Time) models.Negotiation {
	f.t.Helper()

	n := models.Negotiation{
		ID:             primitive.NewObjectID(),
		ClientID:       clientID,
		AffiliateID:    affiliateID,
		Stage:          stage,
		EstimatedValue: value,
		Probability:    models.DefaultProbability,
		Notes:          []models.Note{},
		Version:        1,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	if _, err := f.db.Collection("negotiations").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("failed to create test negotiation: %v", err)
	}
	return n
}

// CreateContract inserts an active contract for the client/affiliate pair.
func (f *Fixtures) CreateContract(ctx context.Context, number string, clientID primitive.ObjectID, affiliateID *primitive.ObjectID, amount float64, services []string, createdAt time.Time) models.Contract {
	f.t.Helper()

	c := models.Contract{
		ID:             primitive.NewObjectID(),
		ContractNumber: number,
		ClientID:       clientID,
		AffiliateID:    affiliateID,
		Amount:         amount,
		Currency:       "USD",
		Status:         models.ContractActive,
		Services:       services,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	if _, err := f.db.Collection("contracts").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test contract: %v", err)
	}
	return c
}

// CreateCommission inserts a commission with the given status and createdAt.
func (f *Fixtures) CreateCommission(ctx context.Context, affiliateID, contractID primitive.ObjectID, amount, pct float64, status string, createdAt time.Time) models.Commission {
	f.t.Helper()

	c := models.Commission{
		ID:          primitive.NewObjectID(),
		AffiliateID: affiliateID,
		ContractID:  contractID,
		Amount:      amount,
		Percentage:  pct,
		Status:      status,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if _, err := f.db.Collection("commissions").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test commission: %v", err)
	}
	return c
}
