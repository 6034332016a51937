package affiliatestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/jsong1004/ai-service/internal/app/system/normalize"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = fmt.Errorf("affiliate %w", derrors.ErrNotFound)
	ErrDuplicate = fmt.Errorf("%w: user already has an affiliate record", derrors.ErrConflict)
	ErrBadStatus = fmt.Errorf("%w: status must be pending, active or inactive", derrors.ErrInvalidInput)
	ErrBadRate   = fmt.Errorf("%w: commission rate must be greater than 0 and at most 100", derrors.ErrInvalidInput)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("affiliates")}
}

// Create inserts an affiliate for a user. Status defaults to pending.
func (s *Store) Create(ctx context.Context, a models.Affiliate) (models.Affiliate, error) {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.Status = normalize.Status(a.Status)
	if a.Status == "" {
		a.Status = models.AffiliatePending
	}
	if !models.IsValidAffiliateStatus(a.Status) {
		return models.Affiliate{}, ErrBadStatus
	}
	if a.CommissionRate <= 0 || a.CommissionRate > 100 {
		return models.Affiliate{}, ErrBadRate
	}
	a.TotalEarnings, a.PendingEarnings, a.PaidEarnings = 0, 0, 0

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Affiliate{}, ErrDuplicate
		}
		return models.Affiliate{}, err
	}
	return a, nil
}

// GetByID loads an affiliate by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Affiliate, error) {
	var a models.Affiliate
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GetByUserID loads the affiliate record owned by a user.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Affiliate, error) {
	var a models.Affiliate
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// List returns affiliates, optionally filtered by status, newest first.
func (s *Store) List(ctx context.Context, status string) ([]models.Affiliate, error) {
	filter := bson.M{}
	if st := normalize.Filter(status); st != "" {
		filter["status"] = st
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Affiliate
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus changes an affiliate's approval status.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Affiliate, error) {
	status = normalize.Status(status)
	if !models.IsValidAffiliateStatus(status) {
		return nil, ErrBadStatus
	}

	var a models.Affiliate
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Earnings is the cached commission rollup stored on an affiliate.
type Earnings struct {
	Total   float64 `json:"totalEarnings"`
	Pending float64 `json:"pendingEarnings"`
	Paid    float64 `json:"paidEarnings"`
}

// SetEarnings overwrites the cached earnings. Callers must pass values
// recomputed from the full commission set, never deltas.
func (s *Store) SetEarnings(ctx context.Context, id primitive.ObjectID, e Earnings) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"total_earnings":   e.Total,
			"pending_earnings": e.Pending,
			"paid_earnings":    e.Paid,
			"updated_at":       time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an affiliate record. Used to compensate a failed onboarding.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
