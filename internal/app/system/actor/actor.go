// Package actor carries the identity of whoever is calling a ledger or the
// analytics service. Handlers build an Actor from the signed-in session and
// pass it explicitly; nothing below the HTTP layer reads the session.
package actor

import (
	"fmt"

	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrUnauthenticated is returned when no actor is present.
	ErrUnauthenticated = derrors.ErrUnauthenticated
	// ErrForbidden is returned when the actor's role does not permit the operation.
	ErrForbidden = derrors.ErrForbidden
	// ErrAffiliateRequired is returned to admins who read affiliate data
	// without naming the affiliate.
	ErrAffiliateRequired = fmt.Errorf("%w: affiliateId is required", derrors.ErrInvalidInput)
)

// Actor is the caller of an operation. AffiliateID is set for affiliates,
// ClientID for clients with a linked Client record.
type Actor struct {
	UserID      primitive.ObjectID
	Role        string
	Name        string
	AffiliateID primitive.ObjectID
	ClientID    primitive.ObjectID
}

// IsZero reports whether a is the empty actor.
func (a Actor) IsZero() bool {
	return a.UserID.IsZero()
}

// IsAdmin reports whether the actor is an admin.
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// RequireAffiliate returns the affiliate id the actor may act for.
func (a Actor) RequireAffiliate() (primitive.ObjectID, error) {
	if a.IsZero() {
		return primitive.NilObjectID, ErrUnauthenticated
	}
	if a.Role != models.RoleAffiliate || a.AffiliateID.IsZero() {
		return primitive.NilObjectID, ErrForbidden
	}
	return a.AffiliateID, nil
}

// RequireAdmin returns ErrUnauthenticated or ErrForbidden unless a is an admin.
func (a Actor) RequireAdmin() error {
	if a.IsZero() {
		return ErrUnauthenticated
	}
	if !a.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// ScopeAffiliate resolves which affiliate's data the actor may read.
// Affiliates are pinned to their own id whatever they ask for; admins may
// read any affiliate but must name one.
func (a Actor) ScopeAffiliate(requested primitive.ObjectID) (primitive.ObjectID, error) {
	if a.IsZero() {
		return primitive.NilObjectID, ErrUnauthenticated
	}
	switch a.Role {
	case models.RoleAffiliate:
		if a.AffiliateID.IsZero() {
			return primitive.NilObjectID, ErrForbidden
		}
		return a.AffiliateID, nil
	case models.RoleAdmin:
		if requested.IsZero() {
			return primitive.NilObjectID, ErrAffiliateRequired
		}
		return requested, nil
	default:
		return primitive.NilObjectID, ErrForbidden
	}
}
