package contracts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jsong1004/ai-service/internal/app/store/activity"
	"github.com/jsong1004/ai-service/internal/app/system/actor"
	"github.com/jsong1004/ai-service/internal/app/system/txn"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PaymentInput records how a commission was paid. An empty Reference is
// replaced with a generated one.
type PaymentInput struct {
	Method    string
	Reference string
}

// Approve moves a pending commission to approved.
func (s *Service) Approve(ctx context.Context, a actor.Actor, id primitive.ObjectID) (*models.Commission, error) {
	now := s.nowFn()
	return s.transition(ctx, a, id,
		[]string{models.CommissionPending}, models.CommissionApproved,
		bson.M{"approved_date": now},
		activity.EventCommissionApproved,
	)
}

// Pay moves an approved commission to paid and flags its contract. A
// commission that is already paid is rejected, so retries never pay twice.
func (s *Service) Pay(ctx context.Context, a actor.Actor, id primitive.ObjectID, in PaymentInput) (*models.Commission, error) {
	method := strings.TrimSpace(in.Method)
	if method == "" {
		method = "bank_transfer"
	}
	ref := strings.TrimSpace(in.Reference)
	if ref == "" {
		ref = "PAY-" + strings.ToUpper(uuid.NewString())
	}

	c, err := s.transition(ctx, a, id,
		[]string{models.CommissionApproved}, models.CommissionPaid,
		bson.M{"payment_date": s.nowFn(), "payment_method": method, "payment_reference": ref},
		activity.EventCommissionPaid,
	)
	if errors.Is(err, derrors.ErrInvalidTransition) {
		s.repairPaid(ctx, id)
	}
	return c, err
}

// repairPaid finishes the follow-up writes of a payment whose commission
// update landed but whose contract flag or earnings refresh did not. That
// only happens on servers without transactions.
func (s *Service) repairPaid(ctx context.Context, id primitive.ObjectID) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	c, err := s.commissions.GetByID(cctx, id)
	if err != nil || c.Status != models.CommissionPaid {
		return
	}
	if _, err := s.contracts.MarkCommissionsPaid(cctx, []primitive.ObjectID{c.ContractID}); err != nil {
		s.log.Error("failed to flag contract after repeated payment",
			zap.String("commission_id", id.Hex()), zap.Error(err))
	}
	if err := s.refreshEarnings(cctx, c.AffiliateID); err != nil && !errors.Is(err, derrors.ErrNotFound) {
		s.log.Error("failed to refresh earnings after repeated payment",
			zap.String("affiliate_id", c.AffiliateID.Hex()), zap.Error(err))
	}
}

// Cancel moves a pending or approved commission to cancelled.
func (s *Service) Cancel(ctx context.Context, a actor.Actor, id primitive.ObjectID) (*models.Commission, error) {
	return s.transition(ctx, a, id,
		[]string{models.CommissionPending, models.CommissionApproved}, models.CommissionCancelled,
		nil,
		activity.EventCommissionCancelled,
	)
}

// transition applies a guarded status change, keeps the contract's paid
// flag in step and refreshes the affiliate's cached earnings, all in one
// transaction where the server supports it.
func (s *Service) transition(ctx context.Context, a actor.Actor, id primitive.ObjectID, from []string, to string, extra bson.M, event string) (*models.Commission, error) {
	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}

	var out *models.Commission
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		c, err := s.commissions.Transition(ctx, id, from, to, extra)
		if err != nil {
			return err
		}
		if to == models.CommissionPaid {
			if err := s.contracts.SetCommissionPaid(ctx, c.ContractID, true); err != nil {
				return err
			}
		}
		if err := s.refreshEarnings(ctx, c.AffiliateID); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, activity.Event{
		ActorID:      &a.UserID,
		ActorRole:    a.Role,
		EventType:    event,
		AffiliateID:  &out.AffiliateID,
		ContractID:   &out.ContractID,
		CommissionID: &out.ID,
		Details:      map[string]any{"amount": out.Amount, "status": out.Status},
	})
	return out, nil
}
