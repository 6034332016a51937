package contracts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jsong1004/ai-service/internal/app/store/activity"
	"github.com/jsong1004/ai-service/internal/app/system/actor"
	"github.com/jsong1004/ai-service/internal/app/system/htmlsanitize"
	"github.com/jsong1004/ai-service/internal/app/system/money"
	"github.com/jsong1004/ai-service/internal/app/system/txn"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrNoSubject   = fmt.Errorf("%w: negotiationId or clientId is required", derrors.ErrInvalidInput)
	ErrBadAmount   = fmt.Errorf("%w: amount must be greater than zero", derrors.ErrInvalidInput)
	ErrBadDates    = fmt.Errorf("%w: endDate must not be before startDate", derrors.ErrInvalidInput)
	errClientMatch = fmt.Errorf("%w: negotiation belongs to a different client", derrors.ErrInvalidInput)
)

// GenerateInput describes a contract to create. Either NegotiationID or
// ClientID must be set; when both are, they must agree.
type GenerateInput struct {
	NegotiationID *primitive.ObjectID
	ClientID      *primitive.ObjectID
	Amount        float64
	Currency      string
	Services      []string
	StartDate     *time.Time
	EndDate       *time.Time
	Description   string
}

// GenerateResult is the contract created and, when the client was referred,
// its pending commission.
type GenerateResult struct {
	Contract   models.Contract    `json:"contract"`
	Commission *models.Commission `json:"commission,omitempty"`
}

// GenerateContract creates an active contract and, if the client has a
// referring affiliate, a pending commission at that affiliate's rate.
// Contract, commission and the affiliate's cached earnings are written
// together. Admin only; stage changes never call this.
func (s *Service) GenerateContract(ctx context.Context, a actor.Actor, in GenerateInput) (GenerateResult, error) {
	if err := a.RequireAdmin(); err != nil {
		return GenerateResult{}, err
	}
	if in.NegotiationID == nil && in.ClientID == nil {
		return GenerateResult{}, ErrNoSubject
	}
	if in.Amount <= 0 {
		return GenerateResult{}, ErrBadAmount
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return GenerateResult{}, ErrBadDates
	}

	clientID, affID, err := s.resolveParties(ctx, in)
	if err != nil {
		return GenerateResult{}, err
	}

	var rate float64
	if affID != nil {
		aff, err := s.affiliates.GetByID(ctx, *affID)
		if err != nil {
			return GenerateResult{}, err
		}
		rate = aff.CommissionRate
	}

	now := s.nowFn()
	contract := models.Contract{
		ID:             primitive.NewObjectID(),
		ContractNumber: NewContractNumber(now),
		ClientID:       clientID,
		AffiliateID:    affID,
		NegotiationID:  in.NegotiationID,
		Amount:         money.Round(in.Amount),
		Currency:       strings.ToUpper(strings.TrimSpace(in.Currency)),
		Status:         models.ContractActive,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Services:       cleanServices(in.Services),
		Description:    htmlsanitize.PlainText(in.Description),
		CreatedAt:      now,
	}

	var commission *models.Commission
	if affID != nil {
		contract.CommissionAmount = money.Commission(contract.Amount, rate)
		commission = &models.Commission{
			ID:          primitive.NewObjectID(),
			AffiliateID: *affID,
			ContractID:  contract.ID,
			Amount:      contract.CommissionAmount,
			Percentage:  rate,
			Status:      models.CommissionPending,
			CreatedAt:   now,
		}
	}

	var res GenerateResult
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		created, err := s.contracts.Create(ctx, contract)
		if err != nil {
			return err
		}
		res = GenerateResult{Contract: created}
		if commission == nil {
			return nil
		}

		cm, err := s.commissions.Create(ctx, *commission)
		if err == nil {
			res.Commission = &cm
			err = s.refreshEarnings(ctx, *affID)
		}
		if err != nil && !txn.InTransaction(ctx) {
			s.compensateContract(ctx, created.ID, commission.ID, *affID)
		}
		return err
	})
	if err != nil {
		return GenerateResult{}, err
	}

	ev := activity.Event{
		ActorID:     &a.UserID,
		ActorRole:   a.Role,
		EventType:   activity.EventContractGenerated,
		AffiliateID: affID,
		ClientID:    &clientID,
		ContractID:  &res.Contract.ID,
		Summary:     res.Contract.ContractNumber,
		Details:     map[string]any{"amount": res.Contract.Amount},
	}
	if in.NegotiationID != nil {
		ev.NegotiationID = in.NegotiationID
	}
	if res.Commission != nil {
		ev.CommissionID = &res.Commission.ID
	}
	s.record(ctx, ev)

	return res, nil
}

// resolveParties finds the client and referring affiliate for a new contract.
func (s *Service) resolveParties(ctx context.Context, in GenerateInput) (primitive.ObjectID, *primitive.ObjectID, error) {
	if in.NegotiationID != nil {
		neg, err := s.negotiations.GetByID(ctx, *in.NegotiationID)
		if err != nil {
			return primitive.NilObjectID, nil, err
		}
		if in.ClientID != nil && *in.ClientID != neg.ClientID {
			return primitive.NilObjectID, nil, errClientMatch
		}
		affID := neg.AffiliateID
		return neg.ClientID, &affID, nil
	}

	client, err := s.clients.GetByID(ctx, *in.ClientID)
	if err != nil {
		return primitive.NilObjectID, nil, err
	}
	return client.ID, client.AffiliateID, nil
}

// compensateContract undoes a partial generation on servers without
// transactions.
func (s *Service) compensateContract(ctx context.Context, contractID, commissionID, affID primitive.ObjectID) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.contracts.Delete(cctx, contractID); err != nil {
		s.log.Error("failed to remove contract after commission write failed",
			zap.String("contract_id", contractID.Hex()), zap.Error(err))
	}
	if err := s.commissions.Delete(cctx, commissionID); err != nil {
		s.log.Error("failed to remove commission after generation failed",
			zap.String("commission_id", commissionID.Hex()), zap.Error(err))
	}
	if err := s.refreshEarnings(cctx, affID); err != nil && !errors.Is(err, derrors.ErrNotFound) {
		s.log.Error("failed to refresh earnings after generation failed",
			zap.String("affiliate_id", affID.Hex()), zap.Error(err))
	}
}

// NewContractNumber returns CTR-YYYYMM-XXXXXXXX with eight random
// uppercase hex characters.
func NewContractNumber(now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("CTR-%s-%s", now.Format("200601"), strings.ToUpper(id[:8]))
}

// cleanServices trims names and drops blanks and repeats, keeping order.
func cleanServices(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = htmlsanitize.PlainText(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
