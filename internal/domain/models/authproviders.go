// internal/domain/models/authproviders.go
package models

import "strings"

// Auth providers a user account can be created with.
const (
	AuthCredentials = "credentials"
	AuthGoogle      = "google"
)

// AuthProvider is an authentication option with its display label.
type AuthProvider struct {
	Value string
	Label string
}

// AllAuthProviders lists every provider the identity store accepts.
var AllAuthProviders = []AuthProvider{
	{Value: AuthCredentials, Label: "Email & Password"},
	{Value: AuthGoogle, Label: "Google"},
}

// IsValidAuthProvider reports whether v names a known provider (case-insensitive).
func IsValidAuthProvider(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, p := range AllAuthProviders {
		if p.Value == v {
			return true
		}
	}
	return false
}
