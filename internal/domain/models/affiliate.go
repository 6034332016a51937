// internal/domain/models/affiliate.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Affiliate statuses.
const (
	AffiliatePending  = "pending"
	AffiliateActive   = "active"
	AffiliateInactive = "inactive"
)

// DefaultCommissionRate is the percentage given to a new affiliate.
const DefaultCommissionRate = 10.0

// Affiliate extends a User with role=affiliate.
//
// TotalEarnings, PendingEarnings and PaidEarnings are a cache of the
// commission set. They are only ever written by a full recompute from the
// commissions collection.
type Affiliate struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"userId"`
	CompanyName     string             `bson:"company_name,omitempty" json:"companyName,omitempty"`
	CommissionRate  float64            `bson:"commission_rate" json:"commissionRate"`
	Status          string             `bson:"status" json:"status"`
	TotalEarnings   float64            `bson:"total_earnings" json:"totalEarnings"`
	PendingEarnings float64            `bson:"pending_earnings" json:"pendingEarnings"`
	PaidEarnings    float64            `bson:"paid_earnings" json:"paidEarnings"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsValidAffiliateStatus reports whether s is a known affiliate status.
func IsValidAffiliateStatus(s string) bool {
	switch s {
	case AffiliatePending, AffiliateActive, AffiliateInactive:
		return true
	}
	return false
}
