// Package contracts is the contract and commission ledger. Affiliates and
// clients read their contracts and commissions here; admins generate
// contracts and move commissions through approval and payment.
package contracts

import (
	"context"
	"fmt"
	"time"

	"github.com/jsong1004/ai-service/internal/app/store/activity"
	affiliatestore "github.com/jsong1004/ai-service/internal/app/store/affiliates"
	clientstore "github.com/jsong1004/ai-service/internal/app/store/clients"
	commissionstore "github.com/jsong1004/ai-service/internal/app/store/commissions"
	contractstore "github.com/jsong1004/ai-service/internal/app/store/contracts"
	negotiationstore "github.com/jsong1004/ai-service/internal/app/store/negotiations"
	"github.com/jsong1004/ai-service/internal/app/system/actor"
	"github.com/jsong1004/ai-service/internal/app/system/txn"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrBadMonthsBack = fmt.Errorf("%w: monthsBack must not be negative", derrors.ErrInvalidInput)
	ErrNoClient      = fmt.Errorf("%w: no client record is linked to this account", derrors.ErrForbidden)
)

// Service implements the contract and commission ledger.
type Service struct {
	db           *mongo.Database
	contracts    *contractstore.Store
	commissions  *commissionstore.Store
	affiliates   *affiliatestore.Store
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
		contracts:    contractstore.New(db),
		commissions:  commissionstore.New(db),
		affiliates:   affiliatestore.New(db),
		clients:      clientstore.New(db),
		negotiations: negotiationstore.New(db),
		activity:     activity.New(db),
		log:          logger,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

// ContractFilter narrows ListContracts.
type ContractFilter struct {
	Status string
	Search string
}

// ListContracts returns the contracts of the affiliate the actor may read.
func (s *Service) ListContracts(ctx context.Context, a actor.Actor, affiliateID primitive.ObjectID, f ContractFilter) ([]models.Contract, error) {
	affID, err := a.ScopeAffiliate(affiliateID)
	if err != nil {
		return nil, err
	}
	return s.contracts.List(ctx, contractstore.Filter{AffiliateID: &affID, Status: f.Status, Search: f.Search})
}

// ListClientContracts returns the contracts of the signed-in client.
func (s *Service) ListClientContracts(ctx context.Context, a actor.Actor, f ContractFilter) ([]models.Contract, error) {
	if a.IsZero() {
		return nil, actor.ErrUnauthenticated
	}
	if a.Role != models.RoleClient {
		return nil, actor.ErrForbidden
	}
	if a.ClientID.IsZero() {
		return nil, ErrNoClient
	}
	return s.contracts.List(ctx, contractstore.Filter{ClientID: &a.ClientID, Status: f.Status, Search: f.Search})
}

// CommissionFilter narrows ListCommissions. MonthsBack of 0 means no
// date filter.
type CommissionFilter struct {
	Status     string
	MonthsBack int
}

// ContractSnapshot is the part of a Contract shown with its commission.
type ContractSnapshot struct {
	ContractNumber string   `json:"contractNumber"`
	Amount         float64  `json:"amount"`
	Currency       string   `json:"currency"`
	Status         string   `json:"status"`
	Services       []string `json:"services"`
}

// CommissionView is a commission joined with its contract. Contract is nil
// when the contract document is missing.
type CommissionView struct {
	models.Commission
	Contract *ContractSnapshot `json:"contract"`
}

// ListCommissions returns the affiliate's commissions, newest first, each
// joined with its contract. A missing contract degrades that one row.
func (s *Service) ListCommissions(ctx context.Context, a actor.Actor, affiliateID primitive.ObjectID, f CommissionFilter) ([]CommissionView, error) {
	affID, err := a.ScopeAffiliate(affiliateID)
	if err != nil {
		return nil, err
	}
	if f.MonthsBack < 0 {
		return nil, ErrBadMonthsBack
	}

	filter := commissionstore.Filter{AffiliateID: &affID, Status: f.Status}
	if f.MonthsBack > 0 {
		cutoff := MonthsBackCutoff(s.nowFn(), f.MonthsBack)
		filter.CreatedFrom = &cutoff
	}

	list, err := s.commissions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ContractID)
	}
	byID, err := s.contracts.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]CommissionView, 0, len(list))
	for _, c := range list {
		v := CommissionView{Commission: c}
		if ct, ok := byID[c.ContractID]; ok {
			v.Contract = &ContractSnapshot{
				ContractNumber: ct.ContractNumber,
				Amount:         ct.Amount,
				Currency:       ct.Currency,
				Status:         ct.Status,
				Services:       ct.ServicesOrDefault(),
			}
		} else {
			s.log.Warn("commission references missing contract",
				zap.String("commission_id", c.ID.Hex()), zap.String("contract_id", c.ContractID.Hex()))
		}
		out = append(out, v)
	}
	return out, nil
}

// Totals computes CommissionTotals for a listing at the service's clock.
func (s *Service) Totals(views []CommissionView) Totals {
	list := make([]models.Commission, len(views))
	for i, v := range views {
		list[i] = v.Commission
	}
	return CommissionTotals(list, s.nowFn())
}

// Earnings derives the affiliate's earnings from the full commission set.
func (s *Service) Earnings(ctx context.Context, a actor.Actor, affiliateID primitive.ObjectID) (affiliatestore.Earnings, error) {
	affID, err := a.ScopeAffiliate(affiliateID)
	if err != nil {
		return affiliatestore.Earnings{}, err
	}
	return s.liveEarnings(ctx, affID)
}

func (s *Service) liveEarnings(ctx context.Context, affID primitive.ObjectID) (affiliatestore.Earnings, error) {
	all, err := s.commissions.List(ctx, commissionstore.Filter{AffiliateID: &affID})
	if err != nil {
		return affiliatestore.Earnings{}, err
	}
	t := CommissionTotals(all, s.nowFn())
	return affiliatestore.Earnings{Total: t.TotalEarnings, Pending: t.PendingAmount, Paid: t.PaidAmount}, nil
}

// refreshEarnings rewrites the cached earnings on the affiliate from the
// commission set. It must run inside the same transaction as the
// commission write that triggered it.
func (s *Service) refreshEarnings(ctx context.Context, affID primitive.ObjectID) error {
	e, err := s.liveEarnings(ctx, affID)
	if err != nil {
		return err
	}
	return s.affiliates.SetEarnings(ctx, affID, e)
}

// Recalculate rewrites an affiliate's cached earnings. Admin only; used to
// repair a cache after an out-of-band data fix.
func (s *Service) Recalculate(ctx context.Context, a actor.Actor, affiliateID primitive.ObjectID) (affiliatestore.Earnings, error) {
	if err := a.RequireAdmin(); err != nil {
		return affiliatestore.Earnings{}, err
	}
	var e affiliatestore.Earnings
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		var err error
		e, err = s.liveEarnings(ctx, affiliateID)
		if err != nil {
			return err
		}
		return s.affiliates.SetEarnings(ctx, affiliateID, e)
	})
	return e, err
}

// ReconcileEarnings rewrites the cached earnings of every affiliate whose
// cache has drifted from its commissions, and sets commission_paid on
// contracts whose commission is paid but whose flag was never written. It
// runs as a background job, so there is no actor. It returns how many
// affiliates were corrected.
func (s *Service) ReconcileEarnings(ctx context.Context) (int, error) {
	affs, err := s.affiliates.List(ctx, "")
	if err != nil {
		return 0, err
	}
	now := s.nowFn()
	fixed := 0
	for _, aff := range affs {
		affID := aff.ID
		all, err := s.commissions.List(ctx, commissionstore.Filter{AffiliateID: &affID})
		if err != nil {
			return fixed, err
		}

		var paidContracts []primitive.ObjectID
		for _, c := range all {
			if c.Status == models.CommissionPaid {
				paidContracts = append(paidContracts, c.ContractID)
			}
		}
		flagged, err := s.contracts.MarkCommissionsPaid(ctx, paidContracts)
		if err != nil {
			return fixed, err
		}

		t := CommissionTotals(all, now)
		live := affiliatestore.Earnings{Total: t.TotalEarnings, Pending: t.PendingAmount, Paid: t.PaidAmount}
		cached := affiliatestore.Earnings{Total: aff.TotalEarnings, Pending: aff.PendingEarnings, Paid: aff.PaidEarnings}
		if live == cached && flagged == 0 {
			continue
		}
		if live != cached {
			if err := s.affiliates.SetEarnings(ctx, aff.ID, live); err != nil {
				return fixed, err
			}
		}
		s.log.Info("corrected affiliate ledger",
			zap.String("affiliate_id", aff.ID.Hex()),
			zap.Float64("total", live.Total),
			zap.Float64("pending", live.Pending),
			zap.Float64("paid", live.Paid),
			zap.Int64("contracts_flagged_paid", flagged))
		fixed++
	}
	return fixed, nil
}

// record writes an activity event. Failures are logged and swallowed.
func (s *Service) record(ctx context.Context, ev activity.Event) {
	ev.Timestamp = s.nowFn()
	if err := s.activity.Create(ctx, ev); err != nil {
		s.log.Warn("failed to record activity", zap.String("event", ev.EventType), zap.Error(err))
	}
}
