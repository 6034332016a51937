// internal/domain/models/contract.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contract statuses.
const (
	ContractDraft     = "draft"
	ContractPending   = "pending"
	ContractActive    = "active"
	ContractCompleted = "completed"
	ContractCancelled = "cancelled"
)

// DefaultService is reported for contracts that list no services.
const DefaultService = "General Consulting"

// Contract is a signed engagement with a Client. Its lifecycle is
// independent from the Negotiation it may have come from.
type Contract struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ContractNumber   string              `bson:"contract_number" json:"contractNumber"`
	ClientID         primitive.ObjectID  `bson:"client_id" json:"clientId"`
	AffiliateID      *primitive.ObjectID `bson:"affiliate_id,omitempty" json:"affiliateId,omitempty"`
	NegotiationID    *primitive.ObjectID `bson:"negotiation_id,omitempty" json:"negotiationId,omitempty"`
	Amount           float64             `bson:"amount" json:"amount"`
	Currency         string              `bson:"currency" json:"currency"`
	Status           string              `bson:"status" json:"status"`
	StartDate        *time.Time          `bson:"start_date,omitempty" json:"startDate,omitempty"`
	EndDate          *time.Time          `bson:"end_date,omitempty" json:"endDate,omitempty"`
	Services         []string            `bson:"services" json:"services"`
	Description      string              `bson:"description,omitempty" json:"description,omitempty"`
	CommissionAmount float64             `bson:"commission_amount" json:"commissionAmount"`
	CommissionPaid   bool                `bson:"commission_paid" json:"commissionPaid"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsValidContractStatus reports whether s is a known contract status.
func IsValidContractStatus(s string) bool {
	switch s {
	case ContractDraft, ContractPending, ContractActive, ContractCompleted, ContractCancelled:
		return true
	}
	return false
}

// ServicesOrDefault returns the contract's services, or DefaultService
// alone when none are listed.
func (c Contract) ServicesOrDefault() []string {
	if len(c.Services) == 0 {
		return []string{DefaultService}
	}
	return c.Services
}
