package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/family-health-keeper/backend/internal/auth"
	"github.com/family-health-keeper/backend/internal/messaging"
	"github.com/family-health-keeper/backend/internal/pagination"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type mockRepository struct {
	createFunc        func(ctx context.Context, email, fullName, role, hashedPassword string) (*User, error)
	getByEmailFunc    func(ctx context.Context, email string) (*User, string, error)
	getByIDFunc       func(ctx context.Context, id string) (*User, error)
	listFunc          func(ctx context.Context, limit, offset int) ([]User, int, error)
	updateProfileFunc func(ctx context.Context, id string, fullName, hashedPassword *string) (*User, error)
	updateAdminFunc   func(ctx context.Context, id string, isActive *bool, role *string) (*User, error)
}

func (m *mockRepository) Create(ctx context.Context, email, fullName, role, hashedPassword string) (*User, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, email, fullName, role, hashedPassword)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) GetByEmail(ctx context.Context, email string) (*User, string, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, "", errors.New("not implemented")
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return nil, 0, errors.New("not implemented")
}

func (m *mockRepository) UpdateProfile(ctx context.Context, id string, fullName, hashedPassword *string) (*User, error) {
	if m.updateProfileFunc != nil {
		return m.updateProfileFunc(ctx, id, fullName, hashedPassword)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) UpdateAdmin(ctx context.Context, id string, isActive *bool, role *string) (*User, error) {
	if m.updateAdminFunc != nil {
		return m.updateAdminFunc(ctx, id, isActive, role)
	}
	return nil, errors.New("not implemented")
}

type mockTokens struct {
	issued  []string
	revoked []string
}

func (m *mockTokens) Issue(userID, email string, roles []string) (*auth.IssuedToken, error) {
	m.issued = append(m.issued, userID)
	return &auth.IssuedToken{AccessToken: "token-for-" + userID, TokenID: "jti", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *mockTokens) Revoke(_ context.Context, pr *auth.Principal) error {
	m.revoked = append(m.revoked, pr.TokenID)
	return nil
}

func (m *mockTokens) TTL() time.Duration { return 30 * time.Minute }

type mockPublisher struct {
	keys []string
	err  error
}

func (m *mockPublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	m.keys = append(m.keys, routingKey)
	return m.err
}

func (m *mockPublisher) Close() error { return nil }

func newTestService(repo RepositoryInterface, tokens TokenIssuer, pub messaging.PublisherInterface) *Service {
	s := NewService(repo, tokens, pub, zerolog.Nop())
	s.bcryptCost = bcrypt.MinCost
	return s
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(h)
}

func TestRegister_Success(t *testing.T) {
	var gotHash, gotEmail, gotRole string
	repo := &mockRepository{
		createFunc: func(_ context.Context, email, fullName, role, hashedPassword string) (*User, error) {
			gotEmail, gotRole, gotHash = email, role, hashedPassword
			return &User{ID: "u1", Email: email, FullName: fullName, Role: role, IsActive: true}, nil
		},
	}
	pub := &mockPublisher{}
	svc := newTestService(repo, &mockTokens{}, pub)

	user, err := svc.Register(context.Background(), RegisterRequest{Email: "  Jane@Example.com ", Password: "supersecret", FullName: "Jane"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("id = %q", user.ID)
	}
	if gotEmail != "jane@example.com" {
		t.Errorf("email not normalized: %q", gotEmail)
	}
	if gotRole != auth.RoleUser {
		t.Errorf("role = %q", gotRole)
	}
	if bcrypt.CompareHashAndPassword([]byte(gotHash), []byte("supersecret")) != nil {
		t.Error("stored hash does not match password")
	}
	if len(pub.keys) != 1 || pub.keys[0] != messaging.EventUserRegistered {
		t.Errorf("published = %v", pub.keys)
	}
}

func TestRegister_PublishFailureIsNotFatal(t *testing.T) {
	repo := &mockRepository{
		createFunc: func(_ context.Context, email, fullName, role, _ string) (*User, error) {
			return &User{ID: "u1", Email: email, Role: role}, nil
		},
	}
	svc := newTestService(repo, &mockTokens{}, &mockPublisher{err: errors.New("broker down")})

	if _, err := svc.Register(context.Background(), RegisterRequest{Email: "a@b.co", Password: "12345678"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockTokens{}, nil)

	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"missing email", RegisterRequest{Password: "12345678"}, ErrMissingEmail},
		{"invalid email", RegisterRequest{Email: "not-an-email", Password: "12345678"}, ErrInvalidEmail},
		{"short password", RegisterRequest{Email: "a@b.co", Password: "short"}, ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &mockRepository{
		createFunc: func(context.Context, string, string, string, string) (*User, error) {
			return nil, ErrEmailTaken
		},
	}
	svc := newTestService(repo, &mockTokens{}, nil)

	if _, err := svc.Register(context.Background(), RegisterRequest{Email: "a@b.co", Password: "12345678"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v", err)
	}
}

func TestLogin(t *testing.T) {
	hash := hashFor(t, "correct-horse")

	tests := []struct {
		name    string
		user    *User
		repoErr error
		pass    string
		wantErr error
	}{
		{"success", &User{ID: "u1", Email: "a@b.co", Role: auth.RoleUser, IsActive: true}, nil, "correct-horse", nil},
		{"unknown email", nil, ErrUserNotFound, "correct-horse", ErrInvalidCredentials},
		{"wrong password", &User{ID: "u1", IsActive: true}, nil, "nope", ErrInvalidCredentials},
		{"inactive", &User{ID: "u1", IsActive: false}, nil, "correct-horse", ErrInactiveUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				getByEmailFunc: func(_ context.Context, email string) (*User, string, error) {
					if email != "a@b.co" {
						t.Errorf("email = %q", email)
					}
					return tt.user, hash, tt.repoErr
				},
			}
			tokens := &mockTokens{}
			svc := newTestService(repo, tokens, nil)

			resp, err := svc.Login(context.Background(), LoginRequest{Email: "A@B.co", Password: tt.pass})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if resp.TokenType != "bearer" || resp.AccessToken != "token-for-u1" {
				t.Errorf("resp = %+v", resp)
			}
			if resp.ExpiresIn != 1800 {
				t.Errorf("expires_in = %d", resp.ExpiresIn)
			}
		})
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	tokens := &mockTokens{}
	svc := newTestService(&mockRepository{}, tokens, nil)

	if err := svc.Logout(context.Background(), &auth.Principal{UserID: "u1", TokenID: "jti-1"}); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(tokens.revoked) != 1 || tokens.revoked[0] != "jti-1" {
		t.Errorf("revoked = %v", tokens.revoked)
	}
}

func TestGetMe_Inactive(t *testing.T) {
	repo := &mockRepository{
		getByIDFunc: func(context.Context, string) (*User, error) {
			return &User{ID: "u1", IsActive: false}, nil
		},
	}
	svc := newTestService(repo, &mockTokens{}, nil)

	if _, err := svc.GetMe(context.Background(), &auth.Principal{UserID: "u1"}); !errors.Is(err, ErrInactiveUser) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdateMe_HashesPassword(t *testing.T) {
	var stored *string
	repo := &mockRepository{
		updateProfileFunc: func(_ context.Context, id string, fullName, hashed *string) (*User, error) {
			stored = hashed
			return &User{ID: id}, nil
		},
	}
	svc := newTestService(repo, &mockTokens{}, nil)
	pw := "new-password"

	if _, err := svc.UpdateMe(context.Background(), &auth.Principal{UserID: "u1"}, UpdateMeRequest{Password: &pw}); err != nil {
		t.Fatalf("UpdateMe: %v", err)
	}
	if stored == nil || bcrypt.CompareHashAndPassword([]byte(*stored), []byte(pw)) != nil {
		t.Error("password was not hashed")
	}
}

func TestUpdateMe_NoChanges(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockTokens{}, nil)
	if _, err := svc.UpdateMe(context.Background(), &auth.Principal{UserID: "u1"}, UpdateMeRequest{}); !errors.Is(err, ErrNoChanges) {
		t.Fatalf("err = %v", err)
	}
}

func TestListUsers_Pagination(t *testing.T) {
	repo := &mockRepository{
		listFunc: func(_ context.Context, limit, offset int) ([]User, int, error) {
			if limit != 10 || offset != 10 {
				t.Errorf("limit=%d offset=%d", limit, offset)
			}
			return []User{{ID: "u1"}}, 11, nil
		},
	}
	svc := newTestService(repo, &mockTokens{}, nil)

	page, err := svc.ListUsers(context.Background(), pagination.Params{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if page.Pagination.TotalPages != 2 || len(page.Items) != 1 {
		t.Errorf("page = %+v", page)
	}
}

func TestUpdateUser_NormalizesRole(t *testing.T) {
	var gotRole string
	repo := &mockRepository{
		updateAdminFunc: func(_ context.Context, id string, _ *bool, role *string) (*User, error) {
			gotRole = *role
			return &User{ID: id, Role: *role}, nil
		},
	}
	svc := newTestService(repo, &mockTokens{}, nil)
	role := " admin "

	if _, err := svc.UpdateUser(context.Background(), "u1", AdminUpdateRequest{Role: &role}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if gotRole != auth.RoleAdmin {
		t.Errorf("role = %q", gotRole)
	}

	bad := "SUPERUSER"
	if _, err := svc.UpdateUser(context.Background(), "u1", AdminUpdateRequest{Role: &bad}); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("err = %v", err)
	}
}
