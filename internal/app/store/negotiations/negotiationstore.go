package negotiationstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = fmt.Errorf("negotiation %w", derrors.ErrNotFound)
	// ErrVersionConflict is returned when the stored version no longer
	// matches the version the caller read.
	ErrVersionConflict = fmt.Errorf("negotiation %w", derrors.ErrVersionConflict)
	// ErrDuplicate is returned when the client already has a negotiation
	// with the same affiliate.
	ErrDuplicate = fmt.Errorf("%w: client already has a negotiation with this affiliate", derrors.ErrConflict)
	ErrBadStage  = fmt.Errorf("%w: %v", derrors.ErrInvalidInput, models.ErrUnknownStage)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("negotiations")}
}

// Create inserts a negotiation at version 1.
func (s *Store) Create(ctx context.Context, n models.Negotiation) (models.Negotiation, error) {
	if !n.Stage.Valid() {
		return models.Negotiation{}, ErrBadStage
	}
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.Notes == nil {
		n.Notes = []models.Note{}
	}
	n.Version = 1

	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = n.CreatedAt

	if _, err := s.c.InsertOne(ctx, n); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Negotiation{}, ErrDuplicate
		}
		return models.Negotiation{}, err
	}
	return n, nil
}

// GetByID loads a negotiation by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Negotiation, error) {
	var n models.Negotiation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// ListByAffiliate returns an affiliate's negotiations, most recently
// updated first.
func (s *Store) ListByAffiliate(ctx context.Context, affiliateID primitive.ObjectID) ([]models.Negotiation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, bson.M{"affiliate_id": affiliateID}, opts)
}

// ListCreatedBetween returns an affiliate's negotiations created in
// [from, to], oldest first.
func (s *Store) ListCreatedBetween(ctx context.Context, affiliateID primitive.ObjectID, from, to time.Time) ([]models.Negotiation, error) {
	filter := bson.M{
		"affiliate_id": affiliateID,
		"created_at":   bson.M{"$gte": from, "$lte": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, filter, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Negotiation, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Negotiation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StageUpdate describes a guarded stage change.
type StageUpdate struct {
	ID primitive.ObjectID
	// AffiliateID restricts the update to negotiations owned by this
	// affiliate. Nil means no ownership restriction (admin).
	AffiliateID     *primitive.ObjectID
	ExpectedVersion int64
	Stage           models.Stage
	Note            *models.Note
	At              time.Time
}

// UpdateStage sets the stage, appends the optional note and bumps the
// version in one single-document write. The write applies only when the
// stored version equals ExpectedVersion.
func (s *Store) UpdateStage(ctx context.Context, u StageUpdate) (*models.Negotiation, error) {
	if !u.Stage.Valid() {
		return nil, ErrBadStage
	}
	at := u.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	scope := bson.M{"_id": u.ID}
	if u.AffiliateID != nil {
		scope["affiliate_id"] = *u.AffiliateID
	}
	filter := bson.M{"version": u.ExpectedVersion}
	for k, v := range scope {
		filter[k] = v
	}

	update := bson.M{
		"$set": bson.M{"stage": u.Stage, "updated_at": at, "last_contact_date": at},
		"$inc": bson.M{"version": 1},
	}
	if u.Note != nil {
		update["$push"] = bson.M{"notes": *u.Note}
	}

	var n models.Negotiation
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&n)
	if err == nil {
		return &n, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// No match: either the document is gone (or not ours), or the version moved.
	cnt, cerr := s.c.CountDocuments(ctx, scope)
	if cerr != nil {
		return nil, cerr
	}
	if cnt == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrVersionConflict
}

// Delete removes a negotiation.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
