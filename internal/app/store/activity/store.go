// internal/app/store/activity/store.go
package activity

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event types for the pipeline activity log.
const (
	EventLeadCreated         = "lead_created"
	EventStageChanged        = "stage_changed"
	EventContractGenerated   = "contract_generated"
	EventCommissionApproved  = "commission_approved"
	EventCommissionPaid      = "commission_paid"
	EventCommissionCancelled = "commission_cancelled"
	EventContactSubmitted    = "contact_submitted"
	EventAffiliateStatus     = "affiliate_status_changed"
)

// Event is one entry in the activity log. Subject ids are set according to
// the event type; the rest stay nil.
type Event struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ActorID   *primitive.ObjectID `bson:"actor_id,omitempty" json:"actorId,omitempty"`
	ActorRole string              `bson:"actor_role,omitempty" json:"actorRole,omitempty"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
	EventType string              `bson:"event_type" json:"eventType"`

	AffiliateID   *primitive.ObjectID `bson:"affiliate_id,omitempty" json:"affiliateId,omitempty"`
	ClientID      *primitive.ObjectID `bson:"client_id,omitempty" json:"clientId,omitempty"`
	NegotiationID *primitive.ObjectID `bson:"negotiation_id,omitempty" json:"negotiationId,omitempty"`
	ContractID    *primitive.ObjectID `bson:"contract_id,omitempty" json:"contractId,omitempty"`
	CommissionID  *primitive.ObjectID `bson:"commission_id,omitempty" json:"commissionId,omitempty"`

	Summary string         `bson:"summary,omitempty" json:"summary,omitempty"`
	Details map[string]any `bson:"details,omitempty" json:"details,omitempty"`
}

// Store manages activity events.
type Store struct {
	c *mongo.Collection
}

// New creates a new activity Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activities")}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_activity_time"),
		},
		{
			Keys:    bson.D{{Key: "affiliate_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_activity_affiliate"),
		},
		{
			Keys:    bson.D{{Key: "negotiation_id", Value: 1}, {Key: "timestamp", Value: 1}},
			Options: options.Index().SetName("idx_activity_negotiation"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create records a new activity event.
func (s *Store) Create(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// ListRecent returns the newest events across the whole system.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]Event, error) {
	return s.find(ctx, bson.M{}, limit)
}

// ListByAffiliate returns the newest events touching one affiliate.
func (s *Store) ListByAffiliate(ctx context.Context, affiliateID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.find(ctx, bson.M{"affiliate_id": affiliateID}, limit)
}

// ListBetween returns events with from <= timestamp <= to, newest first.
func (s *Store) ListBetween(ctx context.Context, from, to time.Time) ([]Event, error) {
	return s.find(ctx, bson.M{"timestamp": bson.M{"$gte": from, "$lte": to}}, 0)
}

// ListByNegotiation returns a negotiation's events oldest first.
func (s *Store) ListByNegotiation(ctx context.Context, negotiationID primitive.ObjectID) ([]Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"negotiation_id": negotiationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, limit int64) ([]Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
