package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Principal holds identity extracted from a validated token.
type Principal struct {
	UserID    string
	Email     string
	Roles     []string
	TokenID   string
	ExpiresAt time.Time
}

var (
	ErrNoToken              = errors.New("no token provided")
	ErrInvalidToken         = errors.New("invalid token")
	ErrInvalidIssuer        = errors.New("invalid issuer")
	ErrMissingSub           = errors.New("missing sub claim")
	ErrTokenRevoked         = errors.New("token has been revoked")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)

// Claims is the token payload.
type Claims struct {
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks bearer tokens.
type Verifier interface {
	ParseAndVerifyToken(ctx context.Context, tokenString string) (*Principal, error)
}

// TokenManager signs and verifies HMAC access tokens.
type TokenManager struct {
	cfg         Config
	method      jwt.SigningMethod
	revocations RevocationStore
	now         func() time.Time
}

var _ Verifier = (*TokenManager)(nil)

// NewTokenManager validates cfg. revocations may be nil, in which case
// logout cannot invalidate tokens before they expire.
func NewTokenManager(cfg Config, revocations RevocationStore) (*TokenManager, error) {
	method, err := signingMethod(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("secret key is required")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = Issuer
	}
	return &TokenManager{
		cfg:         cfg,
		method:      method,
		revocations: revocations,
		now:         time.Now,
	}, nil
}

func signingMethod(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
}

// IssuedToken is the result of Issue.
type IssuedToken struct {
	AccessToken string
	TokenID     string
	ExpiresAt   time.Time
}

// Issue signs an access token for userID.
func (m *TokenManager) Issue(userID, email string, roles []string) (*IssuedToken, error) {
	now := m.now()
	expiresAt := now.Add(m.cfg.TTL)
	jti := uuid.NewString()

	claims := Claims{
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString([]byte(m.cfg.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &IssuedToken{AccessToken: signed, TokenID: jti, ExpiresAt: expiresAt}, nil
}

// ParseAndVerifyToken verifies signature, algorithm, issuer, expiry and
// revocation, and returns the Principal.
func (m *TokenManager) ParseAndVerifyToken(ctx context.Context, tokenString string) (*Principal, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrNoToken
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, ErrInvalidToken
		}
		return []byte(m.cfg.SecretKey), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Issuer != m.cfg.Issuer {
		return nil, ErrInvalidIssuer
	}
	if claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSub
	}

	if m.revocations != nil && claims.ID != "" {
		revoked, err := m.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return &Principal{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Roles:     claims.Roles,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke blacklists the principal's token until it would have expired.
func (m *TokenManager) Revoke(ctx context.Context, pr *Principal) error {
	if m.revocations == nil || pr.TokenID == "" {
		return nil
	}
	return m.revocations.Revoke(ctx, pr.TokenID, pr.ExpiresAt)
}

// TTL is the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.cfg.TTL
}
