package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func TestHealthCheck_AllPass(t *testing.T) {
	hc := NewChecker("1.0.0")
	hc.AddCheck("ping", func(ctx context.Context) error { return nil }, time.Second)
	hc.AddCriticalCheck("pages", func(ctx context.Context) error { return nil }, time.Second)

	status := hc.Check(context.Background())

	if status.Status != StatusHealthy {
		t.Errorf("Expected healthy, got %s", status.Status)
	}
	if len(status.Checks) != 2 {
		t.Errorf("Expected 2 checks, got %d", len(status.Checks))
	}
	for name, result := range status.Checks {
		if result.Status != StatusHealthy || result.Error != "" {
			t.Errorf("Check %s = %+v", name, result)
		}
	}
	if status.Version != "1.0.0" {
		t.Errorf("Expected version 1.0.0, got %s", status.Version)
	}
}

func TestHealthCheck_OneFails(t *testing.T) {
	hc := NewChecker("")
	hc.AddCheck("passing", func(ctx context.Context) error { return nil }, time.Second)
	hc.AddCheck("failing", func(ctx context.Context) error {
		return errors.New("watcher stopped")
	}, time.Second)

	status := hc.Check(context.Background())

	if status.Status != StatusDegraded {
		t.Errorf("Expected degraded, got %s", status.Status)
	}
	if status.Checks["failing"].Error != "watcher stopped" {
		t.Errorf("failing = %+v", status.Checks["failing"])
	}
}

func TestHealthCheck_CriticalFails(t *testing.T) {
	hc := NewChecker("")
	hc.AddCheck("passing", func(ctx context.Context) error { return nil }, time.Second)
	hc.AddCriticalCheck("pages", CountCheck("pages", func() int { return 0 }, 1), time.Second)

	status := hc.Check(context.Background())

	if status.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy, got %s", status.Status)
	}
	if got := status.Checks["pages"].Details["min"]; got != 1 {
		t.Errorf("details = %v", status.Checks["pages"].Details)
	}
}

func TestHealthCheck_Timeout(t *testing.T) {
	hc := NewChecker("")

	// Ignores its context; the checker must still give up.
	hc.AddCheck("slow", func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	}, 20*time.Millisecond)

	start := time.Now()
	status := hc.Check(context.Background())

	if status.Checks["slow"].Status != StatusUnhealthy {
		t.Error("Timed out check should be unhealthy")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Check waited for the slow check")
	}
}

func TestHealthCheck_LivenessHandler(t *testing.T) {
	w := httptest.NewRecorder()
	NewChecker("").LivenessHandler().ServeHTTP(w, httptest.NewRequest("GET", "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	var response map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["status"] != "alive" {
		t.Error("Expected status 'alive'")
	}
}

func TestHealthCheck_ReadinessHandler(t *testing.T) {
	healthy := NewChecker("")
	healthy.AddCriticalCheck("ok", func(ctx context.Context) error { return nil }, time.Second)

	w := httptest.NewRecorder()
	healthy.ReadinessHandler().ServeHTTP(w, httptest.NewRequest("GET", "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Errorf("healthy readiness = %d", w.Code)
	}

	broken := NewChecker("")
	broken.AddCriticalCheck("bad", func(ctx context.Context) error { return errors.New("down") }, time.Second)

	w = httptest.NewRecorder()
	broken.ReadinessHandler().ServeHTTP(w, httptest.NewRequest("GET", "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy readiness = %d", w.Code)
	}
}

func TestHealthCheck_FullHandler(t *testing.T) {
	hc := NewChecker("2.0.0")
	hc.AddCriticalCheck("bad", func(ctx context.Context) error { return errors.New("down") }, time.Second)

	w := httptest.NewRecorder()
	hc.HealthHandler().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 even when unhealthy, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var status HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if status.Status != StatusUnhealthy || status.Version != "2.0.0" || status.Checks["bad"].Error != "down" {
		t.Errorf("status = %+v", status)
	}
}

func TestCapacityCheck(t *testing.T) {
	count := 5
	check := CapacityCheck("sessions", func() int { return count }, 10)

	if err := check(context.Background()); err != nil {
		t.Errorf("below capacity: %v", err)
	}

	count = 10
	err := check(context.Background())
	var he *HealthError
	if !errors.As(err, &he) || he.Details["current"] != 10 {
		t.Errorf("at capacity: %v", err)
	}

	if err := CapacityCheck("sessions", func() int { return 1 << 20 }, 0)(context.Background()); err != nil {
		t.Errorf("unlimited: %v", err)
	}
}
