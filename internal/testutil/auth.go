package testutil

import (
	"testing"
	"time"

	"github.com/family-health-keeper/backend/internal/auth"
)

// TestSecretKey signs every token issued by test token managers.
const TestSecretKey = "test-secret-key-for-signing-tokens"

// NewTestTokenManager returns an HS256 token manager backed by an
// in-memory revocation store.
func NewTestTokenManager(t *testing.T) *auth.TokenManager {
	t.Helper()

	tm, err := auth.NewTokenManager(auth.Config{
		SecretKey: TestSecretKey,
		Algorithm: "HS256",
		TTL:       time.Hour,
		Issuer:    auth.Issuer,
	}, auth.NewMemoryRevocationStore())
	if err != nil {
		t.Fatalf("Failed to create token manager: %v", err)
	}
	return tm
}

// GenerateUserToken issues a USER token for userID.
func GenerateUserToken(t *testing.T, tm *auth.TokenManager, userID string) string {
	t.Helper()
	return issue(t, tm, userID, auth.RoleUser)
}

func issue(t *testing.T, tm *auth.TokenManager, userID, role string) string {
	t.Helper()

	tok, err := tm.Issue(userID, userID+"@example.com", []string{role})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return tok.AccessToken
}
