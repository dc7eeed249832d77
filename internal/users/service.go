package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/family-health-keeper/backend/internal/auth"
	"github.com/family-health-keeper/backend/internal/messaging"
	"github.com/family-health-keeper/backend/internal/pagination"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo       RepositoryInterface
	tokens     TokenIssuer
	publisher  messaging.PublisherInterface
	logger     zerolog.Logger
	bcryptCost int
}

var _ ServiceInterface = (*Service)(nil)

// NewService wires the account service. publisher may be nil.
func NewService(repo RepositoryInterface, tokens TokenIssuer, publisher messaging.PublisherInterface, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		publisher:  publisher,
		logger:     logger.With().Str("component", "users").Logger(),
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, req.Email, req.FullName, auth.RoleUser, string(hash))
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user registered")

	if s.publisher != nil {
		event := messaging.UserRegisteredEvent{
			BaseEvent: messaging.NewBaseEvent(messaging.EventUserRegistered),
			Data: messaging.UserRegisteredData{
				UserID:    user.ID,
				Email:     user.Email,
				Role:      user.Role,
				CreatedAt: user.CreatedAt,
			},
		}
		if err := s.publisher.Publish(ctx, messaging.EventUserRegistered, event); err != nil {
			s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to publish user.registered event")
		}
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, hash, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	issued, err := s.tokens.Issue(user.ID, user.Email, []string{user.Role})
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken: issued.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
	}, nil
}

func (s *Service) Logout(ctx context.Context, principal *auth.Principal) error {
	if err := s.tokens.Revoke(ctx, principal); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.logger.Info().Str("user_id", principal.UserID).Msg("user logged out")
	return nil
}

func (s *Service) GetMe(ctx context.Context, principal *auth.Principal) (*User, error) {
	user, err := s.repo.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

func (s *Service) UpdateMe(ctx context.Context, principal *auth.Principal, req UpdateMeRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var hashed *string
	if req.Password != nil {
		h, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		str := string(h)
		hashed = &str
	}

	return s.repo.UpdateProfile(ctx, principal.UserID, req.FullName, hashed)
}

func (s *Service) ListUsers(ctx context.Context, params pagination.Params) (*pagination.Page[User], error) {
	params.Validate()
	users, total, err := s.repo.List(ctx, params.Limit, params.Offset())
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(users, params, total), nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateUser(ctx context.Context, id string, req AdminUpdateRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	user, err := s.repo.UpdateAdmin(ctx, id, req.IsActive, req.Role)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", id).Msg("user updated by administrator")
	return user, nil
}
