package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func newTestManager(t *testing.T, store RevocationStore) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(Config{SecretKey: "test-secret", Algorithm: "HS256", TTL: 30 * time.Minute}, store)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return m
}

func TestNewTokenManager_RejectsAsymmetricAlgorithm(t *testing.T) {
	_, err := NewTokenManager(Config{SecretKey: "k", Algorithm: "RS256", TTL: time.Minute}, nil)
	if !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	if _, err := NewTokenManager(Config{Algorithm: "HS256", TTL: time.Minute}, nil); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestIssueAndVerify(t *testing.T) {
	m := newTestManager(t, nil)

	issued, err := m.Issue("user-1", "a@example.com", []string{RoleUser})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if issued.TokenID == "" {
		t.Error("expected token id")
	}

	pr, err := m.ParseAndVerifyToken(context.Background(), issued.AccessToken)
	if err != nil {
		t.Fatalf("ParseAndVerifyToken: %v", err)
	}
	if pr.UserID != "user-1" || pr.Email != "a@example.com" {
		t.Errorf("unexpected principal %+v", pr)
	}
	if len(pr.Roles) != 1 || pr.Roles[0] != RoleUser {
		t.Errorf("roles = %v", pr.Roles)
	}
	if pr.TokenID != issued.TokenID {
		t.Errorf("token id = %q, want %q", pr.TokenID, issued.TokenID)
	}
}

func TestVerify_Expired(t *testing.T) {
	m := newTestManager(t, nil)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	issued, err := m.Issue("user-1", "", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m.ParseAndVerifyToken(context.Background(), issued.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	m := newTestManager(t, nil)
	other, _ := NewTokenManager(Config{SecretKey: "other", Algorithm: "HS256", TTL: time.Minute}, nil)

	issued, _ := other.Issue("user-1", "", nil)
	if _, err := m.ParseAndVerifyToken(context.Background(), issued.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_AlgorithmMismatch(t *testing.T) {
	m := newTestManager(t, nil)
	other, _ := NewTokenManager(Config{SecretKey: "test-secret", Algorithm: "HS512", TTL: time.Minute}, nil)

	issued, _ := other.Issue("user-1", "", nil)
	if _, err := m.ParseAndVerifyToken(context.Background(), issued.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_WrongIssuer(t *testing.T) {
	m := newTestManager(t, nil)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))

	if _, err := m.ParseAndVerifyToken(context.Background(), tok); !errors.Is(err, ErrInvalidIssuer) {
		t.Fatalf("expected ErrInvalidIssuer, got %v", err)
	}
}

func TestVerify_MissingSubject(t *testing.T) {
	m := newTestManager(t, nil)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    Issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))

	if _, err := m.ParseAndVerifyToken(context.Background(), tok); !errors.Is(err, ErrMissingSub) {
		t.Fatalf("expected ErrMissingSub, got %v", err)
	}
}

func TestVerify_Empty(t *testing.T) {
	m := newTestManager(t, nil)
	if _, err := m.ParseAndVerifyToken(context.Background(), "  "); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	store := NewMemoryRevocationStore()
	m := newTestManager(t, store)
	ctx := context.Background()

	issued, _ := m.Issue("user-1", "", nil)
	pr, err := m.ParseAndVerifyToken(ctx, issued.AccessToken)
	if err != nil {
		t.Fatalf("ParseAndVerifyToken: %v", err)
	}

	if err := m.Revoke(ctx, pr); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := m.ParseAndVerifyToken(ctx, issued.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
}

type failingStore struct{}

func (failingStore) Revoke(context.Context, string, time.Time) error { return nil }
func (failingStore) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestVerify_RevocationLookupFailureRejects(t *testing.T) {
	m := newTestManager(t, failingStore{})
	issued, _ := m.Issue("user-1", "", nil)

	if _, err := m.ParseAndVerifyToken(context.Background(), issued.AccessToken); err == nil {
		t.Fatal("expected error when revocation store is unavailable")
	}
}

func TestMemoryRevocationStore_Expires(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()

	_ = store.Revoke(ctx, "old", time.Now().Add(-time.Second))
	revoked, err := store.IsRevoked(ctx, "old")
	if err != nil || revoked {
		t.Fatalf("expired entry should not be revoked: %v %v", revoked, err)
	}
}
