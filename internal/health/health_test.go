package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/counter-dapp/internal/logger"
)

func TestServer_HealthReportsDegradedCheck(t *testing.T) {
	s := NewServer(0, "test", logger.NewDiscard())
	s.RegisterCheck("provider", func(context.Context) (bool, string) { return false, "no provider" })
	s.RegisterCheck("wallet", func(context.Context) (bool, string) { return true, "connected" })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}

	var status Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "degraded" {
		t.Errorf("expected degraded, got %s", status.Status)
	}
	if status.Checks["provider"].Message != "no provider" {
		t.Errorf("unexpected provider check %+v", status.Checks["provider"])
	}
	if !status.Checks["wallet"].Healthy {
		t.Error("expected wallet check healthy")
	}
}

func TestServer_ReadyAndLive(t *testing.T) {
	s := NewServer(0, "test", logger.NewDiscard())
	s.RegisterCheck("provider", func(context.Context) (bool, string) { return true, "" })

	for _, path := range []string{"/ready", "/live"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
