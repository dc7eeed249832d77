package testutil

import (
	"testing"
	"time"

	"github.com/family-health-keeper/backend/internal/auth"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// GenerateTestJWT signs a token by hand so tests can produce shapes the
// token manager never issues: expired tokens, foreign issuers, other keys.
func GenerateTestJWT(t *testing.T, secret, issuer, userID string, roles []string, ttl time.Duration) string {
	t.Helper()

	now := time.Now()
	claims := auth.Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return tokenString
}

// GenerateExpiredJWT returns a correctly signed token that expired an hour ago.
func GenerateExpiredJWT(t *testing.T, userID string) string {
	t.Helper()
	return GenerateTestJWT(t, TestSecretKey, auth.Issuer, userID, []string{auth.RoleUser}, -time.Hour)
}
