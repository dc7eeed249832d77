package patient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/family-health-keeper/backend/internal/auth"
	"github.com/family-health-keeper/backend/internal/pagination"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// mockService implements ServiceInterface for testing
type mockService struct {
	createPatientFunc func(ctx context.Context, ownerID string, req CreatePatientRequest) (*Patient, error)
	getPatientFunc    func(ctx context.Context, ownerID, id string) (*Patient, error)
	listPatientsFunc  func(ctx context.Context, ownerID string, filter ListFilter, params pagination.Params) (*pagination.Page[Patient], error)
	updatePatientFunc func(ctx context.Context, ownerID, id string, req UpdatePatientRequest) (*Patient, error)
	deletePatientFunc func(ctx context.Context, ownerID, id string) error
}

func (m *mockService) CreatePatient(ctx context.Context, ownerID string, req CreatePatientRequest) (*Patient, error) {
	if m.createPatientFunc != nil {
		return m.createPatientFunc(ctx, ownerID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) GetPatient(ctx context.Context, ownerID, id string) (*Patient, error) {
	if m.getPatientFunc != nil {
		return m.getPatientFunc(ctx, ownerID, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) ListPatients(ctx context.Context, ownerID string, filter ListFilter, params pagination.Params) (*pagination.Page[Patient], error) {
	if m.listPatientsFunc != nil {
		return m.listPatientsFunc(ctx, ownerID, filter, params)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) UpdatePatient(ctx context.Context, ownerID, id string, req UpdatePatientRequest) (*Patient, error) {
	if m.updatePatientFunc != nil {
		return m.updatePatientFunc(ctx, ownerID, id, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) DeletePatient(ctx context.Context, ownerID, id string) error {
	if m.deletePatientFunc != nil {
		return m.deletePatientFunc(ctx, ownerID, id)
	}
	return errors.New("not implemented")
}

var owner = &auth.Principal{UserID: "owner-1", Roles: []string{auth.RoleUser}}

func authed(req *http.Request) *http.Request {
	return req.WithContext(auth.ContextWithPrincipal(req.Context(), owner))
}

func TestHandlerCreatePatient_Success(t *testing.T) {
	h := NewHandler(&mockService{
		createPatientFunc: func(_ context.Context, ownerID string, req CreatePatientRequest) (*Patient, error) {
			return &Patient{ID: "p1", OwnerID: ownerID, FullName: req.FullName}, nil
		},
	}, zerolog.Nop())

	req := authed(httptest.NewRequest(http.MethodPost, "/health-records", strings.NewReader(`{"full_name":"Ann"}`)))
	rr := httptest.NewRecorder()
	h.CreatePatient(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	var p Patient
	_ = json.NewDecoder(rr.Body).Decode(&p)
	if p.OwnerID != "owner-1" || p.FullName != "Ann" {
		t.Errorf("patient = %+v", p)
	}
}

func TestHandlerCreatePatient_Unauthenticated(t *testing.T) {
	h := NewHandler(&mockService{}, zerolog.Nop())
	rr := httptest.NewRecorder()
	h.CreatePatient(rr, httptest.NewRequest(http.MethodPost, "/health-records", strings.NewReader(`{}`)))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHandlerCreatePatient_ValidationError(t *testing.T) {
	h := NewHandler(&mockService{
		createPatientFunc: func(context.Context, string, CreatePatientRequest) (*Patient, error) {
			return nil, errors.Join(ErrValidation, errors.New("full_name is required"))
		},
	}, zerolog.Nop())

	rr := httptest.NewRecorder()
	h.CreatePatient(rr, authed(httptest.NewRequest(http.MethodPost, "/health-records", strings.NewReader(`{}`))))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHandlerGetPatient_NotFound(t *testing.T) {
	h := NewHandler(&mockService{
		getPatientFunc: func(_ context.Context, ownerID, id string) (*Patient, error) {
			if id != "p9" {
				t.Errorf("id = %q", id)
			}
			return nil, ErrPatientNotFound
		},
	}, zerolog.Nop())

	req := mux.SetURLVars(authed(httptest.NewRequest(http.MethodGet, "/health-records/p9", nil)), map[string]string{"id": "p9"})
	rr := httptest.NewRecorder()
	h.GetPatient(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]string
	_ = json.NewDecoder(rr.Body).Decode(&body)
	if body["detail"] != "Patient not found" {
		t.Errorf("body = %v", body)
	}
}

func TestHandlerListPatients_PassesSearch(t *testing.T) {
	h := NewHandler(&mockService{
		listPatientsFunc: func(_ context.Context, _ string, filter ListFilter, params pagination.Params) (*pagination.Page[Patient], error) {
			if filter.Search != "ann" {
				t.Errorf("search = %q", filter.Search)
			}
			return pagination.NewPage[Patient](nil, params, 0), nil
		},
	}, zerolog.Nop())

	rr := httptest.NewRecorder()
	h.ListPatients(rr, authed(httptest.NewRequest(http.MethodGet, "/health-records?search=ann", nil)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"items":[]`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestHandlerDeletePatient(t *testing.T) {
	h := NewHandler(&mockService{
		deletePatientFunc: func(context.Context, string, string) error { return nil },
	}, zerolog.Nop())

	req := mux.SetURLVars(authed(httptest.NewRequest(http.MethodDelete, "/health-records/p1", nil)), map[string]string{"id": "p1"})
	rr := httptest.NewRecorder()
	h.DeletePatient(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHandlerUpdatePatient_InternalError(t *testing.T) {
	h := NewHandler(&mockService{
		updatePatientFunc: func(context.Context, string, string, UpdatePatientRequest) (*Patient, error) {
			return nil, errors.New("connection reset")
		},
	}, zerolog.Nop())

	req := mux.SetURLVars(authed(httptest.NewRequest(http.MethodPut, "/health-records/p1", strings.NewReader(`{"notes":"x"}`))), map[string]string{"id": "p1"})
	rr := httptest.NewRecorder()
	h.UpdatePatient(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "connection reset") {
		t.Error("internal error text leaked to client")
	}
}
