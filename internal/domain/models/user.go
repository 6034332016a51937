// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold once onboarding is complete. A freshly signed-up
// user has an empty role until they pick affiliate or client.
const (
	RoleAdmin     = "admin"
	RoleAffiliate = "affiliate"
	RoleClient    = "client"
)

// User is an identity record. Role is written once during onboarding and
// never changed by a self-service path afterwards.
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName        string             `bson:"full_name" json:"fullName"`
	FullNameCI      string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email           string             `bson:"email" json:"email"`
	AuthProvider    string             `bson:"auth_provider" json:"authProvider"` // credentials | google
	AuthReturnID    *string            `bson:"auth_return_id,omitempty" json:"-"` // Google subject id
	PasswordHash    *string            `bson:"password_hash,omitempty" json:"-"`
	Role            string             `bson:"role" json:"role"`
	ProfileComplete bool               `bson:"profile_complete" json:"profileComplete"`
	Status          string             `bson:"status" json:"status"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
