package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-that-is-long-enough!!"

func TestTokenService_RoundTrip(t *testing.T) {
	ts := NewTokenService(testSecret, time.Hour, "aiservice")

	tok, exp, err := ts.Generate("507f1f77bcf86cd799439011", "affiliate")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ts.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "507f1f77bcf86cd799439011", claims.Subject)
	assert.Equal(t, "affiliate", claims.Role)
}

func TestTokenService_Expired(t *testing.T) {
	ts := NewTokenService(testSecret, time.Minute, "aiservice")
	issued := time.Now().Add(-time.Hour)
	ts.now = func() time.Time { return issued }
	tok, _, err := ts.Generate("u1", "client")
	require.NoError(t, err)

	ts.now = time.Now
	_, err = ts.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_WrongSecret(t *testing.T) {
	tok, _, err := NewTokenService(testSecret, time.Hour, "aiservice").Generate("u1", "admin")
	require.NoError(t, err)

	_, err = NewTokenService("another-secret-of-sufficient-length!", time.Hour, "aiservice").Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_WrongIssuer(t *testing.T) {
	tok, _, err := NewTokenService(testSecret, time.Hour, "someone-else").Generate("u1", "admin")
	require.NoError(t, err)

	_, err = NewTokenService(testSecret, time.Hour, "aiservice").Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsNoneAlg(t *testing.T) {
	claims := Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		Issuer:    "aiservice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenService(testSecret, time.Hour, "aiservice").Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
