package users

import (
	"context"
	"time"

	"github.com/family-health-keeper/backend/internal/auth"
	"github.com/family-health-keeper/backend/internal/pagination"
)

// ServiceInterface defines the contract for account operations
type ServiceInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Logout(ctx context.Context, principal *auth.Principal) error
	GetMe(ctx context.Context, principal *auth.Principal) (*User, error)
	UpdateMe(ctx context.Context, principal *auth.Principal, req UpdateMeRequest) (*User, error)
	ListUsers(ctx context.Context, params pagination.Params) (*pagination.Page[User], error)
	GetUser(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, id string, req AdminUpdateRequest) (*User, error)
}

// TokenIssuer is the subset of auth.TokenManager the service needs.
type TokenIssuer interface {
	Issue(userID, email string, roles []string) (*auth.IssuedToken, error)
	Revoke(ctx context.Context, principal *auth.Principal) error
	TTL() time.Duration
}

var _ TokenIssuer = (*auth.TokenManager)(nil)
