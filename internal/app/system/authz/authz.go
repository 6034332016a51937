// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/jsong1004/ai-service/internal/app/system/actor"
	"github.com/jsong1004/ai-service/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false. ok=true always means a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session: fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// Actor builds the explicit caller identity handed to ledgers and the
// analytics service. The zero Actor (and false) is returned when nobody is
// signed in. Malformed role-record ids are dropped rather than trusted.
func Actor(r *http.Request) (actor.Actor, bool) {
	role, name, userID, ok := UserCtx(r)
	if !ok {
		return actor.Actor{}, false
	}
	u, _ := auth.CurrentUser(r)
	a := actor.Actor{UserID: userID, Role: role, Name: name}
	if oid, err := primitive.ObjectIDFromHex(u.AffiliateID); err == nil {
		a.AffiliateID = oid
	}
	if oid, err := primitive.ObjectIDFromHex(u.ClientID); err == nil {
		a.ClientID = oid
	}
	return a, true
}
