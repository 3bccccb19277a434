package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/medsafe/medsafe-api/data"
	"github.com/medsafe/medsafe-api/entities"
	"github.com/medsafe/medsafe-api/health"
	"github.com/medsafe/medsafe-api/normalizer"
	"github.com/medsafe/medsafe-api/pipeline"
	"github.com/medsafe/medsafe-api/rules"
	"github.com/medsafe/medsafe-api/store"
	"github.com/medsafe/medsafe-api/validation"
)

func testRouter(t *testing.T) (*chi.Mux, *store.Store) {
	t.Helper()

	n := normalizer.New(nil)

	index := data.NewIndexContainer()
	err := index.Init(func() ([]entities.InteractionRecord, int, error) {
		return []entities.InteractionRecord{
			{
				DrugA:       "acetylsalicylic acid",
				DrugB:       "warfarin",
				Description: "The risk of bleeding may increase",
				Category:    "Coagulation",
				Severity:    entities.SeverityHigh,
			},
		}, 0, nil
	})
	if err != nil {
		t.Fatalf("Index build failed: %v", err)
	}

	st, err := store.New(filepath.Join(t.TempDir(), "medsafe.db"))
	if err != nil {
		t.Fatalf("Store open failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	pipe := pipeline.New(n, index, rules.NewRuleSet(n), pipeline.Options{Store: st})
	h := New(pipe, index, n, st, validation.NewValidator(), health.NewHealthChecker(index))

	router := chi.NewRouter()
	router.Post("/analyze", h.Analyze)
	router.Get("/interactions/{drugA}/{drugB}", h.LookupInteraction)
	router.Get("/reports", h.ListReports)
	router.Get("/reports/{sessionID}", h.GetReport)
	router.Get("/health", h.HealthCheck)

	return router, st
}

func postJSON(t *testing.T, router http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	rec := postJSON(t, router, "/analyze", map[string]any{
		"medication_name": "Aspirina",
		"profile": map[string]any{
			"age":                 60,
			"current_medications": []string{"Varfarina"},
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report entities.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}

	if report.Medication != "acetylsalicylic acid" {
		t.Errorf("Expected canonical medication, got %q", report.Medication)
	}
	if report.Verdict.Level != entities.SeverityHigh {
		t.Errorf("Expected high risk, got %q", report.Verdict.Level)
	}
	if report.SessionID == "" {
		t.Error("Expected a session id")
	}
}

func TestAnalyzeEndpointBadRequests(t *testing.T) {
	router, _ := testRouter(t)

	// Empty body
	req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty body, got %d", rec.Code)
	}

	// Neither name nor image
	rec = postJSON(t, router, "/analyze", map[string]any{
		"profile": map[string]any{"age": 30},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without name or image, got %d", rec.Code)
	}

	// Dangerous medication name
	rec = postJSON(t, router, "/analyze", map[string]any{
		"medication_name": "<script>alert(1)</script>",
		"profile":         map[string]any{"age": 30},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for dangerous name, got %d", rec.Code)
	}

	// Invalid age
	rec = postJSON(t, router, "/analyze", map[string]any{
		"medication_name": "aspirin",
		"profile":         map[string]any{"age": 200},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid age, got %d", rec.Code)
	}

	// Invalid base64 image
	rec = postJSON(t, router, "/analyze", map[string]any{
		"image":   "not-base64!!!",
		"profile": map[string]any{"age": 30},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid base64, got %d", rec.Code)
	}
}

func TestLookupInteractionEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	// Aliases resolve before lookup, and direction does not matter.
	for _, path := range []string{
		"/interactions/Aspirina/Varfarina",
		"/interactions/Varfarina/Aspirina",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200 for %s, got %d", path, rec.Code)
		}

		var resp struct {
			DrugA        string                       `json:"drug_a"`
			DrugB        string                       `json:"drug_b"`
			Interactions []entities.InteractionRecord `json:"interactions"`
			Count        int                          `json:"count"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Count != 1 {
			t.Errorf("Expected 1 interaction for %s, got %d", path, resp.Count)
		}
	}
}

func TestLookupInteractionUnknownPair(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/interactions/metformin/losartan", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"count":0`) {
		t.Errorf("Expected zero count, got: %s", rec.Body.String())
	}
}

func TestGetReportEndpoint(t *testing.T) {
	router, st := testRouter(t)

	report := &entities.Report{
		SessionID:  "abc-123",
		Medication: "warfarin",
		Verdict:    entities.RiskVerdict{Level: entities.SeverityHigh},
	}
	if err := st.SaveReport(context.Background(), report); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/reports/abc-123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "abc-123") {
		t.Errorf("Expected report body, got: %s", rec.Body.String())
	}

	// Unknown session id
	req = httptest.NewRequest(http.MethodGet, "/reports/unknown", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", rec.Code)
	}
}

func TestListReportsEndpoint(t *testing.T) {
	router, st := testRouter(t)

	if err := st.SaveReport(context.Background(), &entities.Report{
		SessionID:  "list-1",
		Medication: "warfarin",
		Verdict:    entities.RiskVerdict{Level: entities.SeverityLow},
	}); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "list-1") {
		t.Errorf("Expected listed report, got: %s", rec.Body.String())
	}

	// Out-of-range limit
	req = httptest.NewRequest(http.MethodGet, "/reports?limit=1000", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for oversized limit, got %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", resp["status"])
	}
}
