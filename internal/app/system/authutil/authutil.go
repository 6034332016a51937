// Package authutil validates sign-up input per auth provider and handles
// password hashing for credentials accounts.
package authutil

import (
	"fmt"
	"strings"

	"github.com/jsong1004/ai-service/internal/app/system/normalize"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"github.com/jsong1004/ai-service/internal/domain/models"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted for credentials accounts.
const MinPasswordLength = 8

// bcryptCost is the work factor for stored password hashes.
const bcryptCost = 12

var (
	ErrEmailRequired        = fmt.Errorf("%w: email is required", derrors.ErrInvalidInput)
	ErrInvalidEmail         = fmt.Errorf("%w: email address is not valid", derrors.ErrInvalidInput)
	ErrPasswordRequired     = fmt.Errorf("%w: password is required", derrors.ErrInvalidInput)
	ErrPasswordTooShort     = fmt.Errorf("%w: password must be at least %d characters", derrors.ErrInvalidInput, MinPasswordLength)
	ErrAuthReturnIDRequired = fmt.Errorf("%w: provider subject id is required", derrors.ErrInvalidInput)
	ErrUnknownProvider      = fmt.Errorf("%w: unknown auth provider", derrors.ErrInvalidInput)
)

// SignupInput is the raw identity data for a new account.
type SignupInput struct {
	Provider     string
	Email        string
	Password     string
	AuthReturnID string
}

// SignupResult holds the normalized values to store on the user record.
type SignupResult struct {
	Provider     string
	Email        string
	PasswordHash *string
	AuthReturnID *string
}

// ValidateAndResolve checks the input against the provider's rules and
// returns the values to persist.
func ValidateAndResolve(in SignupInput) (SignupResult, error) {
	provider := normalize.AuthProvider(in.Provider)
	if provider == "" {
		provider = models.AuthCredentials
	}
	if !models.IsValidAuthProvider(provider) {
		return SignupResult{}, ErrUnknownProvider
	}

	email := normalize.Email(in.Email)
	if email == "" {
		return SignupResult{}, ErrEmailRequired
	}
	if !isValidEmail(email) {
		return SignupResult{}, ErrInvalidEmail
	}

	res := SignupResult{Provider: provider, Email: email}

	switch provider {
	case models.AuthCredentials:
		if err := ValidatePassword(in.Password); err != nil {
			return SignupResult{}, err
		}
		hash, err := HashPassword(in.Password)
		if err != nil {
			return SignupResult{}, err
		}
		res.PasswordHash = &hash
	case models.AuthGoogle:
		id := strings.TrimSpace(in.AuthReturnID)
		if id == "" {
			return SignupResult{}, ErrAuthReturnIDRequired
		}
		res.AuthReturnID = &id
	}

	return res, nil
}

// ValidatePassword enforces the minimum password rules.
func ValidatePassword(pw string) error {
	if pw == "" {
		return ErrPasswordRequired
	}
	if len([]rune(pw)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// HashPassword returns the bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether pw matches hash. A nil or empty hash
// never matches.
func CheckPassword(hash *string, pw string) bool {
	if hash == nil || *hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*hash), []byte(pw)) == nil
}

// isValidEmail is a shape check only: one @, a non-empty local part and a
// dotted domain that neither starts nor ends with a dot.
func isValidEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	if at <= 0 || at != strings.LastIndexByte(s, '@') {
		return false
	}
	domain := s[at+1:]
	if !strings.Contains(domain, ".") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return !strings.ContainsAny(s, " \t\r\n")
}
