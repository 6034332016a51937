package contractstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
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
	ErrNotFound        = fmt.Errorf("contract %w", derrors.ErrNotFound)
	ErrDuplicateNumber = fmt.Errorf("%w: contract number already exists", derrors.ErrConflict)
	ErrBadStatus       = fmt.Errorf("%w: status must be draft, pending, active, completed or cancelled", derrors.ErrInvalidInput)
	ErrBadAmount       = fmt.Errorf("%w: amount must not be negative", derrors.ErrInvalidInput)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contracts")}
}

// Create inserts a contract. ContractNumber must already be assigned.
func (s *Store) Create(ctx context.Context, c models.Contract) (models.Contract, error) {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.Status = normalize.Status(c.Status)
	if c.Status == "" {
		c.Status = models.ContractActive
	}
	if !models.IsValidContractStatus(c.Status) {
		return models.Contract{}, ErrBadStatus
	}
	if c.Amount < 0 {
		return models.Contract{}, ErrBadAmount
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if c.Services == nil {
		c.Services = []string{}
	}

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = c.CreatedAt

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Contract{}, ErrDuplicateNumber
		}
		return models.Contract{}, err
	}
	return c, nil
}

// GetByID loads a contract by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Contract, error) {
	var c models.Contract
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetMany fetches contracts by id in one round trip. Missing ids are simply
// absent from the result.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Contract, error) {
	out := make(map[primitive.ObjectID]models.Contract, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var c models.Contract
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, cur.Err()
}

// Filter narrows a contract listing. Zero values mean "any".
type Filter struct {
	AffiliateID *primitive.ObjectID
	ClientID    *primitive.ObjectID
	Status      string
	// Search matches contract number or description, case-insensitively.
	Search string
}

// List returns contracts matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Contract, error) {
	filter := bson.M{}
	if f.AffiliateID != nil {
		filter["affiliate_id"] = *f.AffiliateID
	}
	if f.ClientID != nil {
		filter["client_id"] = *f.ClientID
	}
	if st := normalize.Filter(f.Status); st != "" {
		filter["status"] = st
	}
	if q := normalize.QueryParam(f.Search); q != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = []bson.M{
			{"contract_number": bson.M{"$regex": rx}},
			{"description": bson.M{"$regex": rx}},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, filter, opts)
}

// ListCreatedBetween returns an affiliate's contracts created in [from, to].
func (s *Store) ListCreatedBetween(ctx context.Context, affiliateID primitive.ObjectID, from, to time.Time) ([]models.Contract, error) {
	filter := bson.M{
		"affiliate_id": affiliateID,
		"created_at":   bson.M{"$gte": from, "$lte": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, filter, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Contract, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Contract
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetCommissionPaid records whether the contract's commission has been paid.
func (s *Store) SetCommissionPaid(ctx context.Context, id primitive.ObjectID, paid bool) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"commission_paid": paid, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCommissionsPaid sets commission_paid on any of ids that do not have
// it yet and returns how many were changed.
func (s *Store) MarkCommissionsPaid(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "commission_paid": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"commission_paid": true, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete removes a contract. Used to compensate a failed generation.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
