package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/family-health-keeper/backend/internal/db"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// truncateOrder lists tables children first.
var truncateOrder = []string{"documents", "appointments", "medications", "medical_history", "patients", "users"}

// SetupTestDB connects to TEST_DATABASE_URL and applies the migrations.
// The test is skipped when the variable is unset.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	database, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := database.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := db.NewMigrator(database, zerolog.Nop()).Up(ctx); err != nil {
		database.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return database
}

// CleanupTestDB removes every row written by a test.
func CleanupTestDB(t *testing.T, database *sql.DB) {
	t.Helper()

	for _, table := range truncateOrder {
		if _, err := database.Exec("TRUNCATE TABLE " + table + " CASCADE"); err != nil {
			t.Logf("Warning: Failed to truncate %s: %v", table, err)
		}
	}
}

// CreateTestUser inserts an active USER and returns its id. The password
// hash is not a valid bcrypt hash, so the user cannot log in.
func CreateTestUser(t *testing.T, database *sql.DB, email string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := database.Exec(`
		INSERT INTO users (id, email, hashed_password, full_name, role, is_active, created_at)
		VALUES ($1, $2, 'x', 'Test User', 'USER', TRUE, NOW())
	`, id, email)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return id
}

// CreateTestPatient inserts a patient owned by ownerID and returns its id.
func CreateTestPatient(t *testing.T, database *sql.DB, ownerID, fullName string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := database.Exec(`
		INSERT INTO patients (id, owner_id, full_name, created_at)
		VALUES ($1, $2, $3, NOW())
	`, id, ownerID, fullName)
	if err != nil {
		t.Fatalf("Failed to create test patient: %v", err)
	}
	return id
}
