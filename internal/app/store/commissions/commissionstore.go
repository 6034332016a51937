package commissionstore

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
	ErrNotFound = fmt.Errorf("commission %w", derrors.ErrNotFound)
	// ErrDuplicate is returned when a contract already has a commission.
	ErrDuplicate = fmt.Errorf("%w: contract already has a commission", derrors.ErrConflict)
	// ErrInvalidTransition is returned when the commission is not in a
	// state the requested transition may start from.
	ErrInvalidTransition = fmt.Errorf("commission %w", derrors.ErrInvalidTransition)
	ErrBadStatus         = fmt.Errorf("%w: status must be pending, approved, paid or cancelled", derrors.ErrInvalidInput)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("commissions")}
}

// Create inserts a commission. A second commission for the same contract
// is rejected by the unique contract_id index.
func (s *Store) Create(ctx context.Context, c models.Commission) (models.Commission, error) {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Status == "" {
		c.Status = models.CommissionPending
	}
	if !models.IsValidCommissionStatus(c.Status) {
		return models.Commission{}, ErrBadStatus
	}

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = c.CreatedAt

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Commission{}, ErrDuplicate
		}
		return models.Commission{}, err
	}
	return c, nil
}

// GetByID loads a commission by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Commission, error) {
	var c models.Commission
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Filter narrows a commission listing. Zero values mean "any".
type Filter struct {
	AffiliateID *primitive.ObjectID
	Status      string
	// CreatedFrom keeps only commissions created at or after this instant.
	CreatedFrom *time.Time
}

// List returns commissions matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Commission, error) {
	filter := bson.M{}
	if f.AffiliateID != nil {
		filter["affiliate_id"] = *f.AffiliateID
	}
	if st := normalize.Filter(f.Status); st != "" {
		filter["status"] = st
	}
	if f.CreatedFrom != nil {
		filter["created_at"] = bson.M{"$gte": *f.CreatedFrom}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, filter, opts)
}

// ListCreatedBetween returns an affiliate's commissions created in [from, to].
func (s *Store) ListCreatedBetween(ctx context.Context, affiliateID primitive.ObjectID, from, to time.Time) ([]models.Commission, error) {
	filter := bson.M{
		"affiliate_id": affiliateID,
		"created_at":   bson.M{"$gte": from, "$lte": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, filter, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Commission, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Commission
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transition moves a commission to status `to` only if its current status
// is one of `from`. extra is merged into the $set. The status check and the
// write are a single conditional update, so two racing callers cannot both
// succeed.
func (s *Store) Transition(ctx context.Context, id primitive.ObjectID, from []string, to string, extra bson.M) (*models.Commission, error) {
	if !models.IsValidCommissionStatus(to) {
		return nil, ErrBadStatus
	}

	set := bson.M{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range extra {
		set[k] = v
	}

	var c models.Commission
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": from}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	if _, gerr := s.GetByID(ctx, id); gerr != nil {
		return nil, gerr
	}
	return nil, ErrInvalidTransition
}

// Delete removes a commission. Used to compensate a failed generation.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
