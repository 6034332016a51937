package analytics

import (
	"context"
	"time"

	commissionstore "github.com/jsong1004/ai-service/internal/app/store/commissions"
	contractstore "github.com/jsong1004/ai-service/internal/app/store/contracts"
	negotiationstore "github.com/jsong1004/ai-service/internal/app/store/negotiations"
	"github.com/jsong1004/ai-service/internal/app/system/actor"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Service loads ledger data and builds reports.
type Service struct {
	contracts    *contractstore.Store
	negotiations *negotiationstore.Store
	commissions  *commissionstore.Store
	nowFn        func() time.Time
}

// NewService wires the aggregator to db.
func NewService(db *mongo.Database) *Service {
	return &Service{
		contracts:    contractstore.New(db),
		negotiations: negotiationstore.New(db),
		commissions:  commissionstore.New(db),
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

// BuildAnalytics returns the report for the affiliate the actor may read.
// Nothing is written.
func (s *Service) BuildAnalytics(ctx context.Context, a actor.Actor, affiliateID primitive.ObjectID, rawRange string) (Report, error) {
	affID, err := a.ScopeAffiliate(affiliateID)
	if err != nil {
		return Report{}, err
	}
	r, err := ParseRange(rawRange)
	if err != nil {
		return Report{}, err
	}

	now := s.nowFn().UTC()
	from := FetchFrom(now, r)

	contracts, err := s.contracts.ListCreatedBetween(ctx, affID, from, now)
	if err != nil {
		return Report{}, err
	}
	negs, err := s.negotiations.ListCreatedBetween(ctx, affID, from, now)
	if err != nil {
		return Report{}, err
	}
	commissions, err := s.commissions.ListCreatedBetween(ctx, affID, from, now)
	if err != nil {
		return Report{}, err
	}

	return Build(Input{
		Now:          now,
		Range:        r,
		Contracts:    contracts,
		Negotiations: negs,
		Commissions:  commissions,
	}), nil
}
