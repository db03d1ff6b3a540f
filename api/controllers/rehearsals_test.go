package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	rehearsalsvc "github.com/orchestraops/planning-service/internal/rehearsals"
)

type stubRehearsalService struct {
	created    *rehearsalsvc.CreateRehearsalInput
	listFilter rehearsalsvc.ListFilter
	err        error
}

func (s *stubRehearsalService) CreateRehearsal(_ context.Context, input rehearsalsvc.CreateRehearsalInput, _ string) (*rehearsalsvc.RehearsalDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = &input
	return &rehearsalsvc.RehearsalDTO{ID: 1, Title: input.Title}, nil
}

func (s *stubRehearsalService) GetRehearsal(_ context.Context, id int64) (*rehearsalsvc.RehearsalDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &rehearsalsvc.RehearsalDTO{ID: id}, nil
}

func (s *stubRehearsalService) ListRehearsals(_ context.Context, filter rehearsalsvc.ListFilter) ([]rehearsalsvc.RehearsalDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.listFilter = filter
	return []rehearsalsvc.RehearsalDTO{}, nil
}

func (s *stubRehearsalService) UpdateRehearsal(_ context.Context, id int64, input rehearsalsvc.UpdateRehearsalInput, _ string) (*rehearsalsvc.RehearsalDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &rehearsalsvc.RehearsalDTO{ID: id, Title: input.Title}, nil
}

func (s *stubRehearsalService) DeleteRehearsal(_ context.Context, id int64, _ string) (*rehearsalsvc.RehearsalDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &rehearsalsvc.RehearsalDTO{ID: id}, nil
}

func TestCreateRehearsal(t *testing.T) {
	logg := testLogger()

	t.Run("success", func(t *testing.T) {
		body := `{"title":"Sectionals","location":{"latitude":51.5,"longitude":-0.12},"start_time":"2026-09-02T18:00:00Z","end_time":"2026-09-02T21:00:00Z","type":"Intensive"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/rehearsals", strings.NewReader(body))
		stub := &stubRehearsalService{}
		rec := httptest.NewRecorder()

		CreateRehearsal(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.created == nil {
			t.Fatal("expected CreateRehearsal to be invoked")
		}
		if stub.created.Type == nil || *stub.created.Type != "Intensive" {
			t.Fatalf("unexpected type %v", stub.created.Type)
		}
	})

	t.Run("missing end time", func(t *testing.T) {
		body := `{"title":"Sectionals","location":{"latitude":0,"longitude":0},"start_time":"2026-09-02T18:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/rehearsals", strings.NewReader(body))
		rec := httptest.NewRecorder()

		CreateRehearsal(&stubRehearsalService{}, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for missing end_time, got %d", rec.Code)
		}
	})
}

func TestListRehearsalsFilters(t *testing.T) {
	logg := testLogger()

	t.Run("status and type combine", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/rehearsals?status=Planned&type=Extra", nil)
		stub := &stubRehearsalService{}
		rec := httptest.NewRecorder()

		ListRehearsals(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if stub.listFilter.Status == nil || string(*stub.listFilter.Status) != "Planned" {
			t.Fatalf("expected Planned filter, got %v", stub.listFilter.Status)
		}
		if stub.listFilter.Type == nil || string(*stub.listFilter.Type) != "Extra" {
			t.Fatalf("expected Extra filter, got %v", stub.listFilter.Type)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/rehearsals?type=Marathon", nil)
		rec := httptest.NewRecorder()

		ListRehearsals(&stubRehearsalService{}, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown type, got %d", rec.Code)
		}
	})
}

func TestUpdateRehearsalInvalidID(t *testing.T) {
	req := withIDParam(httptest.NewRequest(http.MethodPut, "/api/v1/rehearsals/0", strings.NewReader(`{}`)), "0")
	rec := httptest.NewRecorder()

	UpdateRehearsal(&stubRehearsalService{}, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-positive id, got %d", rec.Code)
	}
}
