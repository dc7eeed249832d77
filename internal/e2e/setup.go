//go:build integration

package e2e

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/family-health-keeper/backend/internal/ai"
	"github.com/family-health-keeper/backend/internal/auth"
	"github.com/family-health-keeper/backend/internal/config"
	"github.com/family-health-keeper/backend/internal/document"
	httpserver "github.com/family-health-keeper/backend/internal/http"
	"github.com/family-health-keeper/backend/internal/mail"
	"github.com/family-health-keeper/backend/internal/testutil"
	"github.com/rs/zerolog"
)

// fakeAI stands in for the generative-AI upstream.
type fakeAI struct {
	mu     sync.Mutex
	status int
	body   string
	calls  []map[string]any
}

func (f *fakeAI) GenerateInsights(_ context.Context, data map[string]any) (*ai.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, data)
	return &ai.Response{StatusCode: f.status, Body: []byte(f.body)}, nil
}

// TestServer represents a complete E2E test environment
type TestServer struct {
	Server        *httptest.Server
	DB            *sql.DB
	MockPublisher *testutil.MockPublisher
	Tokens        *auth.TokenManager
	Storage       *document.LocalStorage
	AI            *fakeAI
}

// SetupE2ETest wires the real router and middleware chain against the
// test database. RabbitMQ, SMTP and the AI upstream are replaced by
// in-memory fakes; documents are stored in a temp dir.
func SetupE2ETest(t *testing.T) *TestServer {
	t.Helper()

	db := testutil.SetupTestDB(t)
	testutil.CleanupTestDB(t, db)

	perms, err := auth.LoadPermissions("../../permissions.yml")
	if err != nil {
		t.Fatalf("Failed to load permissions: %v", err)
	}

	settings := &config.Settings{
		ProjectName:  "Family Health Keeper",
		Version:      "test",
		APIV1Str:     "/api/v1",
		MaxFileSize:  1 << 20,
		AllowedHosts: []string{"*"},
	}

	mockPublisher := testutil.NewMockPublisher()
	tokens := testutil.NewTestTokenManager(t)
	storage := document.NewLocalStorage(t.TempDir())
	upstream := &fakeAI{status: http.StatusOK, body: `{"candidates":[]}`}

	router := httpserver.SetupRouter(httpserver.Dependencies{
		Settings:    settings,
		DB:          db,
		Tokens:      tokens,
		Permissions: perms,
		Publisher:   mockPublisher,
		Mailer:      mail.NopSender{Logger: zerolog.Nop()},
		Storage:     storage,
		AI:          upstream,
		Logger:      zerolog.Nop(),
	})

	server := httptest.NewServer(httpserver.Handler(settings, router, nil, zerolog.Nop()))

	return &TestServer{
		Server:        server,
		DB:            db,
		MockPublisher: mockPublisher,
		Tokens:        tokens,
		Storage:       storage,
		AI:            upstream,
	}
}

// Cleanup cleans up all test resources
func (ts *TestServer) Cleanup(t *testing.T) {
	t.Helper()

	ts.Server.Close()
	testutil.CleanupTestDB(t, ts.DB)
	ts.DB.Close()
}

// NewClient creates a new HTTP test client for this server with the given token
func (ts *TestServer) NewClient(token string) *testutil.HTTPTestClient {
	return testutil.NewHTTPTestClient(ts.Server.URL, token)
}

// RegisterAndLogin creates an account through the API and returns a
// client authenticated as it, plus the new user's id.
func (ts *TestServer) RegisterAndLogin(t *testing.T, email string) (*testutil.HTTPTestClient, string) {
	t.Helper()

	anon := ts.NewClient("")
	resp := anon.POST(t, "/api/v1/auth/register", map[string]string{
		"email":     email,
		"password":  "correct-horse-battery",
		"full_name": "Test User",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d: %s", email, resp.StatusCode, testutil.ReadBody(t, resp))
	}
	var user struct {
		ID string `json:"id"`
	}
	testutil.DecodeJSON(t, resp, &user)

	return anon.WithToken(ts.Login(t, email, "correct-horse-battery")), user.ID
}

// Login returns an access token for an existing account.
func (ts *TestServer) Login(t *testing.T, email, password string) string {
	t.Helper()

	resp := ts.NewClient("").POST(t, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", email, resp.StatusCode, testutil.ReadBody(t, resp))
	}
	var token struct {
		AccessToken string `json:"access_token"`
	}
	testutil.DecodeJSON(t, resp, &token)
	return token.AccessToken
}

// CreatePatient posts a health record and returns its id.
func CreatePatient(t *testing.T, client *testutil.HTTPTestClient, fullName string) string {
	t.Helper()

	resp := client.POST(t, "/api/v1/health-records/", map[string]string{
		"full_name":     fullName,
		"date_of_birth": "1980-01-15",
		"blood_type":    "O+",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create patient: status %d: %s", resp.StatusCode, testutil.ReadBody(t, resp))
	}
	var p struct {
		ID string `json:"id"`
	}
	testutil.DecodeJSON(t, resp, &p)
	return p.ID
}
