//go:build integration

package patient

import (
	"context"
	"errors"
	"testing"

	"github.com/family-health-keeper/backend/internal/testutil"
	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func TestRepositoryCreateAndGet_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	ownerID := testutil.CreateTestUser(t, db, "repo-owner@example.com")
	repo := NewRepository(db)

	p, err := repo.Create(context.Background(), ownerID, CreatePatientRequest{
		FullName:    "Jane Doe",
		DateOfBirth: "1980-01-15",
		BloodType:   "AB-",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.ID == "" || p.OwnerID != ownerID {
		t.Errorf("Unexpected patient: %+v", p)
	}
	if p.DateOfBirth == nil || *p.DateOfBirth != "1980-01-15" {
		t.Errorf("Expected date_of_birth 1980-01-15, got %v", p.DateOfBirth)
	}

	got, err := repo.Get(context.Background(), ownerID, p.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.BloodType != "AB-" {
		t.Errorf("Expected blood type AB-, got %s", got.BloodType)
	}
}

func TestRepositoryGet_OtherOwner_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	alice := testutil.CreateTestUser(t, db, "alice-repo@example.com")
	bob := testutil.CreateTestUser(t, db, "bob-repo@example.com")
	id := testutil.CreateTestPatient(t, db, alice, "Alice's Dad")

	repo := NewRepository(db)
	if _, err := repo.Get(context.Background(), bob, id); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Expected ErrPatientNotFound, got %v", err)
	}
	if _, err := repo.Get(context.Background(), alice, "not-a-uuid"); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Expected ErrPatientNotFound for bad id, got %v", err)
	}
	if ok, err := repo.Exists(context.Background(), bob, id); err != nil || ok {
		t.Errorf("Exists for other owner = %v, %v", ok, err)
	}
}

func TestRepositoryListAndSearch_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	ownerID := testutil.CreateTestUser(t, db, "list-owner@example.com")
	for _, name := range []string{"Charlie Brown", "Alice Brown", "Bob Smith"} {
		testutil.CreateTestPatient(t, db, ownerID, name)
	}

	repo := NewRepository(db)

	items, total, err := repo.List(context.Background(), ownerID, ListFilter{}, 2, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 || len(items) != 2 || items[0].FullName != "Alice Brown" {
		t.Errorf("Unexpected page: total=%d items=%+v", total, items)
	}

	items, total, err = repo.List(context.Background(), ownerID, ListFilter{Search: "brown"}, 10, 0)
	if err != nil {
		t.Fatalf("List with search failed: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("Expected 2 Browns, got total=%d items=%d", total, len(items))
	}

	testutil.CreateTestPatient(t, db, ownerID, "Dana_Lee")
	for search, want := range map[string]int{"_": 1, "%": 0, "a_l": 1} {
		_, total, err := repo.List(context.Background(), ownerID, ListFilter{Search: search}, 10, 0)
		if err != nil {
			t.Fatalf("List with search %q failed: %v", search, err)
		}
		if total != want {
			t.Errorf("Search %q matched %d patients, want %d", search, total, want)
		}
	}
}

func TestRepositoryUpdate_Partial_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	ownerID := testutil.CreateTestUser(t, db, "update-owner@example.com")
	id := testutil.CreateTestPatient(t, db, ownerID, "Original Name")

	repo := NewRepository(db)
	p, err := repo.Update(context.Background(), ownerID, id, UpdatePatientRequest{Allergies: strPtr("peanuts")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if p.FullName != "Original Name" || p.Allergies != "peanuts" || p.UpdatedAt == nil {
		t.Errorf("Unexpected patient after update: %+v", p)
	}
}

func TestRepositorySoftDelete_Cascades_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	ownerID := testutil.CreateTestUser(t, db, "delete-owner@example.com")
	id := testutil.CreateTestPatient(t, db, ownerID, "To Delete")

	_, err := db.Exec(`
		INSERT INTO medications (id, owner_id, patient_id, name, is_active, created_at)
		VALUES ($1, $2, $3, 'Aspirin', TRUE, NOW())
	`, uuid.NewString(), ownerID, id)
	if err != nil {
		t.Fatalf("Failed to insert medication: %v", err)
	}

	repo := NewRepository(db)
	if err := repo.SoftDelete(context.Background(), ownerID, id); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if err := repo.SoftDelete(context.Background(), ownerID, id); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Second delete: expected ErrPatientNotFound, got %v", err)
	}

	var live int
	if err := db.QueryRow(`SELECT COUNT(*) FROM medications WHERE patient_id = $1 AND deleted_at IS NULL`, id).Scan(&live); err != nil {
		t.Fatal(err)
	}
	if live != 0 {
		t.Errorf("Expected medications to be soft deleted, %d still live", live)
	}
}
