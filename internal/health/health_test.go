package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// Tests run without a database pool; connectivity paths report down.

func TestLiveness(t *testing.T) {
	h := NewHandler(Config{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	h.Liveness(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var body LivenessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Alive {
		t.Error("liveness should always report alive")
	}
}

func TestHealth_DatabaseDownDegrades(t *testing.T) {
	h := NewHandler(Config{Version: "test"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a database, got %d", rec.Code)
	}
	var body HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != "degraded" {
		t.Errorf("expected degraded status, got %q", body.Status)
	}
	if body.Services["database"].Status != "down" {
		t.Errorf("database should be down, got %q", body.Services["database"].Status)
	}
	if body.Version != "test" {
		t.Errorf("version mismatch: %q", body.Version)
	}
}

func TestReadiness_SetReadyTogglesProbe(t *testing.T) {
	h := NewHandler(Config{})

	if !h.IsReady() {
		t.Error("handler should start ready")
	}

	h.SetReady(false)
	if h.IsReady() {
		t.Error("SetReady(false) should mark unready")
	}

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	h.Readiness(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when unready, got %d", rec.Code)
	}
	var body ReadinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Ready {
		t.Error("unready handler should report ready=false")
	}
}

func TestNewHandler_TimeoutDefault(t *testing.T) {
	h := NewHandler(Config{})
	if h.timeout != 5*time.Second {
		t.Errorf("default timeout should be 5s, got %v", h.timeout)
	}
}
