package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/jsong1004/ai-service/internal/app/system/normalize"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = fmt.Errorf("%w: a user with this email already exists", derrors.ErrConflict)
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = fmt.Errorf("user %w", derrors.ErrNotFound)
	// ErrAlreadyOnboarded is returned when a user who already picked a role
	// tries to onboard again.
	ErrAlreadyOnboarded = fmt.Errorf("%w: profile is already complete", derrors.ErrConflict)

	errBadRole     = fmt.Errorf("%w: role must be admin, affiliate or client", derrors.ErrInvalidInput)
	errBadProvider = fmt.Errorf("%w: unknown auth provider", derrors.ErrInvalidInput)
)

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetMany loads the users with the given ids, keyed by id. Missing ids
// are absent from the map.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}

// GetByEmail looks up a user by case-insensitive email. Returns ErrNotFound if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetByAuthReturnID finds an account linked to an external provider subject.
func (s *Store) GetByAuthReturnID(ctx context.Context, provider, subject string) (*models.User, error) {
	var u models.User
	filter := bson.M{"auth_provider": normalize.AuthProvider(provider), "auth_return_id": subject}
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields. Role may
// be empty; it is set later by CompleteOnboarding.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	u.AuthProvider = normalize.AuthProvider(u.AuthProvider)
	if u.AuthProvider == "" {
		u.AuthProvider = models.AuthCredentials
	}
	if u.Status == "" {
		u.Status = "active"
	}

	switch u.Role {
	case "", models.RoleAdmin, models.RoleAffiliate, models.RoleClient:
	default:
		return models.User{}, errBadRole
	}
	if !models.IsValidAuthProvider(u.AuthProvider) {
		return models.User{}, errBadProvider
	}
	u.ProfileComplete = u.Role != ""

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// LinkProvider attaches an external provider subject to an existing account
// that does not have one yet.
func (s *Store) LinkProvider(ctx context.Context, id primitive.ObjectID, subject string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "auth_return_id": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"auth_return_id": subject, "updated_at": time.Now().UTC()}},
	)
	return err
}

// CompleteOnboarding sets the user's role and marks the profile complete.
// The write only applies while profile_complete is still false, so a role
// is assigned at most once. Returns ErrAlreadyOnboarded otherwise.
func (s *Store) CompleteOnboarding(ctx context.Context, id primitive.ObjectID, role, fullName string) (*models.User, error) {
	role = normalize.Role(role)
	if role != models.RoleAffiliate && role != models.RoleClient {
		return nil, errBadRole
	}

	set := bson.M{
		"role":             role,
		"profile_complete": true,
		"updated_at":       time.Now().UTC(),
	}
	if name := normalize.Name(fullName); name != "" {
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
	}

	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "profile_complete": false},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// Distinguish a missing user from one who already onboarded.
	if _, gerr := s.GetByID(ctx, id); gerr != nil {
		return nil, gerr
	}
	return nil, ErrAlreadyOnboarded
}

// RevertOnboarding clears a role assigned by CompleteOnboarding. It is the
// compensating step when the role record could not be created.
func (s *Store) RevertOnboarding(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": "", "profile_complete": false, "updated_at": time.Now().UTC()}},
	)
	return err
}

// EnsureAdmin promotes the account with the given email to admin, or
// creates it when missing. Returns true when anything changed.
func (s *Store) EnsureAdmin(ctx context.Context, email, fullName string) (bool, error) {
	email = normalize.Email(email)
	existing, err := s.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if existing != nil {
		if existing.Role == models.RoleAdmin && existing.ProfileComplete {
			return false, nil
		}
		_, err := s.c.UpdateOne(ctx,
			bson.M{"_id": existing.ID},
			bson.M{"$set": bson.M{
				"role":             models.RoleAdmin,
				"profile_complete": true,
				"status":           "active",
				"updated_at":       time.Now().UTC(),
			}},
		)
		return err == nil, err
	}

	if fullName == "" {
		fullName = "Administrator"
	}
	_, err = s.Create(ctx, models.User{
		FullName:     fullName,
		Email:        email,
		AuthProvider: models.AuthGoogle,
		Role:         models.RoleAdmin,
	})
	if errors.Is(err, ErrDuplicateEmail) {
		// Lost a race with a concurrent start; the other writer created it.
		return false, nil
	}
	return err == nil, err
}
