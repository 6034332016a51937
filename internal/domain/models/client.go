// internal/domain/models/client.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client statuses.
const (
	ClientLead     = "lead"
	ClientProspect = "prospect"
	ClientActive   = "active"
	ClientInactive = "inactive"
)

// Client is a referred company. AffiliateID is nil for self-service signups;
// UserID is set only when the client has its own login.
type Client struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CompanyName   string              `bson:"company_name" json:"companyName"`
	CompanyNameCI string              `bson:"company_name_ci" json:"-"`
	ContactPerson string              `bson:"contact_person" json:"contactPerson"`
	Email         string              `bson:"email" json:"email"`
	Phone         string              `bson:"phone,omitempty" json:"phone,omitempty"`
	AffiliateID   *primitive.ObjectID `bson:"affiliate_id,omitempty" json:"affiliateId,omitempty"`
	UserID        *primitive.ObjectID `bson:"user_id,omitempty" json:"userId,omitempty"`
	Status        string              `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
