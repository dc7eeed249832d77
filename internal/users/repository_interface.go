package users

import "context"

// RepositoryInterface defines the contract for user data access
type RepositoryInterface interface {
	Create(ctx context.Context, email, fullName, role, hashedPassword string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, string, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]User, int, error)
	UpdateProfile(ctx context.Context, id string, fullName, hashedPassword *string) (*User, error)
	UpdateAdmin(ctx context.Context, id string, isActive *bool, role *string) (*User, error)
}

var _ RepositoryInterface = (*Repository)(nil)
