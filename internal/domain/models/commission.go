// internal/domain/models/commission.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Commission statuses. pending and approved count as pending earnings,
// paid counts as paid earnings, cancelled counts toward neither.
const (
	CommissionPending   = "pending"
	CommissionApproved  = "approved"
	CommissionPaid      = "paid"
	CommissionCancelled = "cancelled"
)

// Commission is the amount owed to an affiliate for one contract.
// Amount is always Contract.Amount * Percentage / 100 rounded to cents.
type Commission struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AffiliateID      primitive.ObjectID `bson:"affiliate_id" json:"affiliateId"`
	ContractID       primitive.ObjectID `bson:"contract_id" json:"contractId"`
	Amount           float64            `bson:"amount" json:"amount"`
	Percentage       float64            `bson:"percentage" json:"percentage"`
	Status           string             `bson:"status" json:"status"`
	ApprovedDate     *time.Time         `bson:"approved_date,omitempty" json:"approvedDate,omitempty"`
	PaymentDate      *time.Time         `bson:"payment_date,omitempty" json:"paymentDate,omitempty"`
	PaymentMethod    string             `bson:"payment_method,omitempty" json:"paymentMethod,omitempty"`
	PaymentReference string             `bson:"payment_reference,omitempty" json:"paymentReference,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsValidCommissionStatus reports whether s is a known commission status.
func IsValidCommissionStatus(s string) bool {
	switch s {
	case CommissionPending, CommissionApproved, CommissionPaid, CommissionCancelled:
		return true
	}
	return false
}

// IsPendingEarning reports whether the commission counts as pending earnings.
func (c Commission) IsPendingEarning() bool {
	return c.Status == CommissionPending || c.Status == CommissionApproved
}
