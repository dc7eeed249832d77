package users

import (
	"net/mail"
	"strings"
	"time"

	"github.com/family-health-keeper/backend/internal/auth"
)

// MinPasswordLength applies to registration and password changes.
const MinPasswordLength = 8

// User is an account as exposed by the API. The password hash never
// leaves the repository.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginRequest carries credentials from either a JSON body or a form.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// UpdateMeRequest changes the caller's own profile.
type UpdateMeRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Password *string `json:"password,omitempty"`
}

// AdminUpdateRequest is used by administrators to (de)activate accounts
// or change roles.
type AdminUpdateRequest struct {
	IsActive *bool   `json:"is_active,omitempty"`
	Role     *string `json:"role,omitempty"`
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate normalizes and validates the registration request
func (r *RegisterRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
	if r.Email == "" {
		return ErrMissingEmail
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return ErrInvalidEmail
	}
	if len(r.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Validate checks the self-service update request
func (r *UpdateMeRequest) Validate() error {
	if r.FullName == nil && r.Password == nil {
		return ErrNoChanges
	}
	if r.FullName != nil {
		trimmed := strings.TrimSpace(*r.FullName)
		r.FullName = &trimmed
	}
	if r.Password != nil && len(*r.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Validate checks the admin update request
func (r *AdminUpdateRequest) Validate() error {
	if r.IsActive == nil && r.Role == nil {
		return ErrNoChanges
	}
	if r.Role != nil {
		role := strings.ToUpper(strings.TrimSpace(*r.Role))
		if role != auth.RoleUser && role != auth.RoleAdmin {
			return ErrInvalidRole
		}
		r.Role = &role
	}
	return nil
}
