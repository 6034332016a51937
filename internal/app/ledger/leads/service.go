// Package leads is the lead and negotiation ledger: it creates a Client
// together with its first Negotiation, lists an affiliate's pipeline and
// applies guarded stage changes.
package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/jsong1004/ai-service/internal/app/store/activity"
	clientstore "github.com/jsong1004/ai-service/internal/app/store/clients"
	negotiationstore "github.com/jsong1004/ai-service/internal/app/store/negotiations"
	"github.com/jsong1004/ai-service/internal/app/system/actor"
	"github.com/jsong1004/ai-service/internal/app/system/htmlsanitize"
	"github.com/jsong1004/ai-service/internal/app/system/money"
	"github.com/jsong1004/ai-service/internal/app/system/normalize"
	"github.com/jsong1004/ai-service/internal/app/system/txn"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrMissingFields   = fmt.Errorf("%w: companyName, contactPerson and email are required", derrors.ErrInvalidInput)
	ErrNegativeValue   = fmt.Errorf("%w: estimatedValue must not be negative", derrors.ErrInvalidInput)
	ErrBadStage        = fmt.Errorf("%w: stage must be one of lead, qualification, proposal, negotiation, closed-won, closed-lost", derrors.ErrInvalidInput)
	ErrVersionRequired = fmt.Errorf("%w: version is required", derrors.ErrInvalidInput)
)

// Service implements the lead ledger on top of the client and negotiation stores.
type Service struct {
	db           *mongo.Database
	clients      *clientstore.Store
	negotiations *negotiationstore.Store
	activity     *activity.Store
	log          *zap.Logger
	nowFn        func() time.Time
}

// NewService wires the ledger to db.
func NewService(db *mongo.Database, logger *zap.Logger) *Service {
	return &Service{
		db:           db,
		clients:      clientstore.New(db),
		negotiations: negotiationstore.New(db),
		activity:     activity.New(db),
		log:          logger,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateLeadInput is the data an affiliate submits for a new lead.
type CreateLeadInput struct {
	CompanyName    string
	ContactPerson  string
	Email          string
	Phone          string
	EstimatedValue float64
	Notes          string
}

// CreateLeadResult identifies the records created for a lead.
type CreateLeadResult struct {
	ClientID      primitive.ObjectID `json:"clientId"`
	NegotiationID primitive.ObjectID `json:"negotiationId"`
}

// CreateLead creates a Client in status lead and its Negotiation at stage
// lead. Both documents are written or neither is.
func (s *Service) CreateLead(ctx context.Context, a actor.Actor, in CreateLeadInput) (CreateLeadResult, error) {
	affID, err := a.RequireAffiliate()
	if err != nil {
		return CreateLeadResult{}, err
	}

	in.CompanyName = normalize.Name(in.CompanyName)
	in.ContactPerson = normalize.Name(in.ContactPerson)
	in.Email = normalize.Email(in.Email)
	if in.CompanyName == "" || in.ContactPerson == "" || in.Email == "" {
		return CreateLeadResult{}, ErrMissingFields
	}
	if in.EstimatedValue < 0 {
		return CreateLeadResult{}, ErrNegativeValue
	}
	in.EstimatedValue = money.Round(in.EstimatedValue)

	now := s.nowFn()
	notes := []models.Note{}
	if text := htmlsanitize.PlainText(in.Notes); text != "" {
		notes = append(notes, models.Note{Text: text, Author: a.Name, Timestamp: now, Type: models.NoteGeneral})
	}

	var res CreateLeadResult
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		client, err := s.clients.Create(ctx, models.Client{
			CompanyName:   in.CompanyName,
			ContactPerson: in.ContactPerson,
			Email:         in.Email,
			Phone:         in.Phone,
			AffiliateID:   &affID,
			Status:        models.ClientLead,
		})
		if err != nil {
			return err
		}

		neg, err := s.negotiations.Create(ctx, models.Negotiation{
			ClientID:        client.ID,
			AffiliateID:     affID,
			Stage:           models.StageLead,
			EstimatedValue:  in.EstimatedValue,
			Probability:     models.DefaultProbability,
			Notes:           notes,
			LastContactDate: &now,
			CreatedAt:       now,
		})
		if err != nil {
			if !txn.InTransaction(ctx) {
				s.compensateClient(ctx, client.ID)
			}
			return err
		}

		res = CreateLeadResult{ClientID: client.ID, NegotiationID: neg.ID}
		return nil
	})
	if err != nil {
		return CreateLeadResult{}, err
	}

	s.record(ctx, activity.Event{
		ActorID:       &a.UserID,
		ActorRole:     a.Role,
		EventType:     activity.EventLeadCreated,
		AffiliateID:   &affID,
		ClientID:      &res.ClientID,
		NegotiationID: &res.NegotiationID,
		Summary:       in.CompanyName,
	})
	return res, nil
}

// compensateClient removes a Client whose Negotiation could not be written.
// It runs detached from the request context so a cancelled request still
// cleans up.
func (s *Service) compensateClient(ctx context.Context, clientID primitive.ObjectID) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.clients.Delete(cctx, clientID); err != nil {
		s.log.Error("failed to remove orphaned client after negotiation write failed",
			zap.String("client_id", clientID.Hex()), zap.Error(err))
	}
}

// ClientSnapshot is the subset of Client shown alongside a negotiation.
type ClientSnapshot struct {
	CompanyName   string `json:"companyName"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
}

// NegotiationView is a negotiation joined with its client. Client is nil
// when the client document is missing.
type NegotiationView struct {
	models.Negotiation
	Client *ClientSnapshot `json:"client"`
}

// ListNegotiations returns the pipeline for the affiliate the actor may
// read, most recently updated first, each joined with its Client.
func (s *Service) ListNegotiations(ctx context.Context, a actor.Actor, affiliateID primitive.ObjectID) ([]NegotiationView, error) {
	affID, err := a.ScopeAffiliate(affiliateID)
	if err != nil {
		return nil, err
	}

	negs, err := s.negotiations.ListByAffiliate(ctx, affID)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(negs))
	seen := make(map[primitive.ObjectID]struct{}, len(negs))
	for _, n := range negs {
		if _, ok := seen[n.ClientID]; ok {
			continue
		}
		seen[n.ClientID] = struct{}{}
		ids = append(ids, n.ClientID)
	}
	byID, err := s.clients.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]NegotiationView, 0, len(negs))
	for _, n := range negs {
		v := NegotiationView{Negotiation: n}
		if c, ok := byID[n.ClientID]; ok {
			v.Client = &ClientSnapshot{
				CompanyName:   c.CompanyName,
				ContactPerson: c.ContactPerson,
				Email:         c.Email,
				Phone:         c.Phone,
			}
		} else {
			s.log.Warn("negotiation references missing client",
				zap.String("negotiation_id", n.ID.Hex()), zap.String("client_id", n.ClientID.Hex()))
		}
		out = append(out, v)
	}
	return out, nil
}

// StageChange is a request to move a negotiation to a new stage.
// ExpectedVersion must be the version the caller last read.
type StageChange struct {
	Stage           string
	ExpectedVersion int64
	Note            string
}

// UpdateStage moves a negotiation to another stage. Any stage may follow
// any other; unknown stages are rejected. Affiliates may only touch their
// own negotiations, admins may touch any.
func (s *Service) UpdateStage(ctx context.Context, a actor.Actor, id primitive.ObjectID, ch StageChange) (*models.Negotiation, error) {
	upd := negotiationstore.StageUpdate{ID: id, ExpectedVersion: ch.ExpectedVersion, At: s.nowFn()}

	switch {
	case a.IsZero():
		return nil, actor.ErrUnauthenticated
	case a.IsAdmin():
	default:
		affID, err := a.RequireAffiliate()
		if err != nil {
			return nil, err
		}
		upd.AffiliateID = &affID
	}

	stage, err := models.ParseStage(ch.Stage)
	if err != nil {
		return nil, ErrBadStage
	}
	upd.Stage = stage
	if ch.ExpectedVersion <= 0 {
		return nil, ErrVersionRequired
	}
	if text := htmlsanitize.PlainText(ch.Note); text != "" {
		upd.Note = &models.Note{Text: text, Author: a.Name, Timestamp: upd.At, Type: models.NoteStageChange}
	}

	n, err := s.negotiations.UpdateStage(ctx, upd)
	if err != nil {
		return nil, err
	}

	s.record(ctx, activity.Event{
		ActorID:       &a.UserID,
		ActorRole:     a.Role,
		EventType:     activity.EventStageChanged,
		AffiliateID:   &n.AffiliateID,
		ClientID:      &n.ClientID,
		NegotiationID: &n.ID,
		Details:       map[string]any{"stage": string(n.Stage), "version": n.Version},
	})
	return n, nil
}

// record writes an activity event. Failures are logged and swallowed.
func (s *Service) record(ctx context.Context, ev activity.Event) {
	ev.Timestamp = s.nowFn()
	if err := s.activity.Create(ctx, ev); err != nil {
		s.log.Warn("failed to record activity", zap.String("event", ev.EventType), zap.Error(err))
	}
}
