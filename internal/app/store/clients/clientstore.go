package clientstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/jsong1004/ai-service/internal/app/system/normalize"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound      = fmt.Errorf("client %w", derrors.ErrNotFound)
	ErrMissingFields = fmt.Errorf("%w: company name, contact person and email are required", derrors.ErrInvalidInput)
	errBadStatus     = fmt.Errorf("%w: status must be lead, prospect, active or inactive", derrors.ErrInvalidInput)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("clients")}
}

// Create inserts a client after trimming its fields. Company name, contact
// person and email must be non-empty; format checks belong to the caller.
func (s *Store) Create(ctx context.Context, c models.Client) (models.Client, error) {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CompanyName = normalize.Name(c.CompanyName)
	c.CompanyNameCI = text.Fold(c.CompanyName)
	c.ContactPerson = normalize.Name(c.ContactPerson)
	c.Email = normalize.Email(c.Email)
	c.Phone = normalize.Name(c.Phone)
	if c.CompanyName == "" || c.ContactPerson == "" || c.Email == "" {
		return models.Client{}, ErrMissingFields
	}

	c.Status = normalize.Status(c.Status)
	if c.Status == "" {
		c.Status = models.ClientLead
	}
	switch c.Status {
	case models.ClientLead, models.ClientProspect, models.ClientActive, models.ClientInactive:
	default:
		return models.Client{}, errBadStatus
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Client{}, err
	}
	return c, nil
}

// GetByID loads a client by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Client, error) {
	var c models.Client
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetByUserID loads the client record owned by a client-role user.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Client, error) {
	var c models.Client
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetMany fetches clients by id in one round trip. Ids with no matching
// document are absent from the returned map.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Client, error) {
	out := make(map[primitive.ObjectID]models.Client, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var c models.Client
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, cur.Err()
}

// ListByAffiliate returns the clients referred by an affiliate, sorted by name.
func (s *Store) ListByAffiliate(ctx context.Context, affiliateID primitive.ObjectID) ([]models.Client, error) {
	opts := options.Find().SetSort(bson.D{{Key: "company_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"affiliate_id": affiliateID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Client
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a client. Used to compensate a failed multi-step create.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
