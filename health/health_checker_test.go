package health

import (
	"net/http"
	"testing"
	"time"

	"github.com/medsafe/medsafe-api/breaker"
	"github.com/medsafe/medsafe-api/data"
	"github.com/medsafe/medsafe-api/entities"
)

func readyIndex(t *testing.T) *data.IndexContainer {
	t.Helper()
	index := data.NewIndexContainer()
	err := index.Init(func() ([]entities.InteractionRecord, int, error) {
		return []entities.InteractionRecord{
			{DrugA: "a", DrugB: "b", Description: "x", Severity: entities.SeverityLow},
		}, 0, nil
	})
	if err != nil {
		t.Fatalf("Index build failed: %v", err)
	}
	return index
}

func TestHealthCheckHealthy(t *testing.T) {
	checker := NewHealthChecker(readyIndex(t))

	status, details, httpStatus := checker.HealthCheck()

	if status != "healthy" {
		t.Errorf("Expected healthy, got %q", status)
	}
	if httpStatus != http.StatusOK {
		t.Errorf("Expected 200, got %d", httpStatus)
	}
	if details["interaction_records"] != 1 {
		t.Errorf("Expected 1 record in details, got %v", details["interaction_records"])
	}
}

func TestHealthCheckUnhealthyWithoutIndex(t *testing.T) {
	checker := NewHealthChecker(data.NewIndexContainer())

	status, _, httpStatus := checker.HealthCheck()

	if status != "unhealthy" {
		t.Errorf("Expected unhealthy for unbuilt index, got %q", status)
	}
	if httpStatus != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", httpStatus)
	}
}

func TestHealthCheckDegradedWithOpenBreaker(t *testing.T) {
	b := breaker.New("recognizer", 1, 30*time.Second)
	b.Failure()

	checker := NewHealthChecker(readyIndex(t), b)

	status, details, httpStatus := checker.HealthCheck()

	if status != "degraded" {
		t.Errorf("Expected degraded with an open breaker, got %q", status)
	}
	if httpStatus != http.StatusOK {
		t.Errorf("Degraded service still serves analyses, expected 200, got %d", httpStatus)
	}

	open, ok := details["open_breakers"].([]string)
	if !ok || len(open) != 1 || open[0] != "recognizer" {
		t.Errorf("Expected the open breaker to be listed, got %v", details["open_breakers"])
	}
}
