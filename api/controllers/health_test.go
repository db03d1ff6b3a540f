package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/orchestraops/planning-service/pkg/config"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

func healthConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "development"}}
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(healthConfig()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env := rec.Header().Get("X-Planning-Env"); env != "development" {
		t.Fatalf("unexpected env header %q", env)
	}
}

func TestHealthReady(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		rec := httptest.NewRecorder()
		deps := map[string]Pinger{"db": stubPinger{}, "pubsub": stubPinger{}}
		HealthReady(healthConfig(), testLogger(), deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("dependency down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		deps := map[string]Pinger{"db": stubPinger{err: errors.New("conn refused")}}
		HealthReady(healthConfig(), testLogger(), deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}
