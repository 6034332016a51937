package userstore

import (
	"context"

	"github.com/jsong1004/ai-service/internal/app/system/auth"
	"github.com/jsong1004/ai-service/internal/app/system/normalize"
	"github.com/jsong1004/ai-service/internal/app/system/timeouts"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
// Besides the user it resolves the Affiliate or Client record bound to the
// account so handlers can scope queries without another lookup.
type Fetcher struct {
	users      *mongo.Collection
	affiliates *mongo.Collection
	clients    *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{
		users:      db.Collection("users"),
		affiliates: db.Collection("affiliates"),
		clients:    db.Collection("clients"),
	}
}

// FetchUser retrieves a user by ID and returns nil if the user is not found,
// disabled, or if any error occurs.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":              1,
		"full_name":        1,
		"email":            1,
		"role":             1,
		"status":           1,
		"profile_complete": 1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		return nil
	}
	if normalize.Status(u.Status) == "disabled" {
		return nil
	}

	su := &auth.SessionUser{
		ID:              u.ID.Hex(),
		Name:            u.FullName,
		Email:           u.Email,
		Role:            normalize.Role(u.Role),
		ProfileComplete: u.ProfileComplete,
	}

	idOnly := options.FindOne().SetProjection(bson.M{"_id": 1})
	var ref struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	switch su.Role {
	case models.RoleAffiliate:
		if err := f.affiliates.FindOne(ctx, bson.M{"user_id": oid}, idOnly).Decode(&ref); err == nil {
			su.AffiliateID = ref.ID.Hex()
		}
	case models.RoleClient:
		if err := f.clients.FindOne(ctx, bson.M{"user_id": oid}, idOnly).Decode(&ref); err == nil {
			su.ClientID = ref.ID.Hex()
		}
	}

	return su
}
