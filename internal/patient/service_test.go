package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/family-health-keeper/backend/internal/messaging"
	"github.com/family-health-keeper/backend/internal/pagination"
	"github.com/rs/zerolog"
)

// mockRepository implements RepositoryInterface for testing
type mockRepository struct {
	createFunc     func(ctx context.Context, ownerID string, req CreatePatientRequest) (*Patient, error)
	getFunc        func(ctx context.Context, ownerID, id string) (*Patient, error)
	listFunc       func(ctx context.Context, ownerID string, filter ListFilter, limit, offset int) ([]Patient, int, error)
	updateFunc     func(ctx context.Context, ownerID, id string, req UpdatePatientRequest) (*Patient, error)
	softDeleteFunc func(ctx context.Context, ownerID, id string) error
	existsFunc     func(ctx context.Context, ownerID, id string) (bool, error)
}

func (m *mockRepository) Create(ctx context.Context, ownerID string, req CreatePatientRequest) (*Patient, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, ownerID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) Get(ctx context.Context, ownerID, id string) (*Patient, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, ownerID, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) List(ctx context.Context, ownerID string, filter ListFilter, limit, offset int) ([]Patient, int, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, ownerID, filter, limit, offset)
	}
	return nil, 0, errors.New("not implemented")
}

func (m *mockRepository) Update(ctx context.Context, ownerID, id string, req UpdatePatientRequest) (*Patient, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, ownerID, id, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) SoftDelete(ctx context.Context, ownerID, id string) error {
	if m.softDeleteFunc != nil {
		return m.softDeleteFunc(ctx, ownerID, id)
	}
	return errors.New("not implemented")
}

func (m *mockRepository) Exists(ctx context.Context, ownerID, id string) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, ownerID, id)
	}
	return false, errors.New("not implemented")
}

type mockPublisher struct {
	keys []string
}

func (m *mockPublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	m.keys = append(m.keys, routingKey)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func newTestService(repo RepositoryInterface, pub messaging.PublisherInterface) *Service {
	s := NewService(repo, pub, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestCreatePatient_Success(t *testing.T) {
	repo := &mockRepository{
		createFunc: func(_ context.Context, ownerID string, req CreatePatientRequest) (*Patient, error) {
			if ownerID != "owner-1" {
				t.Errorf("owner = %q", ownerID)
			}
			if req.BloodType != "AB+" {
				t.Errorf("blood type not normalized: %q", req.BloodType)
			}
			return &Patient{ID: "p1", OwnerID: ownerID, FullName: req.FullName}, nil
		},
	}
	pub := &mockPublisher{}
	svc := newTestService(repo, pub)

	p, err := svc.CreatePatient(context.Background(), "owner-1", CreatePatientRequest{
		FullName:    "  Grandma  ",
		DateOfBirth: "1950-03-04",
		BloodType:   "ab+",
	})
	if err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	if p.FullName != "Grandma" {
		t.Errorf("full name = %q", p.FullName)
	}
	if len(pub.keys) != 1 || pub.keys[0] != messaging.EventPatientCreated {
		t.Errorf("events = %v", pub.keys)
	}
}

func TestCreatePatient_Validation(t *testing.T) {
	svc := newTestService(&mockRepository{}, nil)

	tests := []struct {
		name string
		req  CreatePatientRequest
	}{
		{"missing name", CreatePatientRequest{}},
		{"bad date", CreatePatientRequest{FullName: "A", DateOfBirth: "04/03/1950"}},
		{"future birth", CreatePatientRequest{FullName: "A", DateOfBirth: "2030-01-01"}},
		{"bad blood type", CreatePatientRequest{FullName: "A", BloodType: "C+"}},
		{"bad email", CreatePatientRequest{FullName: "A", Email: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreatePatient(context.Background(), "o", tt.req); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestUpdatePatient_EmptyNameRejected(t *testing.T) {
	svc := newTestService(&mockRepository{}, nil)
	empty := "   "
	if _, err := svc.UpdatePatient(context.Background(), "o", "p1", UpdatePatientRequest{FullName: &empty}); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdatePatient_PublishesEvent(t *testing.T) {
	repo := &mockRepository{
		updateFunc: func(_ context.Context, ownerID, id string, req UpdatePatientRequest) (*Patient, error) {
			return &Patient{ID: id, OwnerID: ownerID, Notes: *req.Notes}, nil
		},
	}
	pub := &mockPublisher{}
	svc := newTestService(repo, pub)
	notes := "allergic to penicillin"

	p, err := svc.UpdatePatient(context.Background(), "o", "p1", UpdatePatientRequest{Notes: &notes})
	if err != nil {
		t.Fatalf("UpdatePatient: %v", err)
	}
	if p.Notes != notes {
		t.Errorf("notes = %q", p.Notes)
	}
	if len(pub.keys) != 1 || pub.keys[0] != messaging.EventPatientUpdated {
		t.Errorf("events = %v", pub.keys)
	}
}

func TestDeletePatient_NotFound(t *testing.T) {
	repo := &mockRepository{
		softDeleteFunc: func(context.Context, string, string) error { return ErrPatientNotFound },
	}
	pub := &mockPublisher{}
	svc := newTestService(repo, pub)

	if err := svc.DeletePatient(context.Background(), "o", "p1"); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("err = %v", err)
	}
	if len(pub.keys) != 0 {
		t.Errorf("no event expected, got %v", pub.keys)
	}
}

func TestListPatients(t *testing.T) {
	repo := &mockRepository{
		listFunc: func(_ context.Context, ownerID string, filter ListFilter, limit, offset int) ([]Patient, int, error) {
			if filter.Search != "ann" || limit != 20 || offset != 0 {
				t.Errorf("filter=%+v limit=%d offset=%d", filter, limit, offset)
			}
			return []Patient{{ID: "p1"}, {ID: "p2"}}, 2, nil
		},
	}
	svc := newTestService(repo, nil)

	page, err := svc.ListPatients(context.Background(), "o", ListFilter{Search: "ann"}, pagination.Params{})
	if err != nil {
		t.Fatalf("ListPatients: %v", err)
	}
	if len(page.Items) != 2 || page.Pagination.TotalRecords != 2 {
		t.Errorf("page = %+v", page)
	}
}
