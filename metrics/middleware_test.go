package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectLabelsByRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Collect)
	router.Get("/reports/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := HTTPRequestTotals.WithLabelValues("GET", "/reports/{sessionID}", "404")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodGet, "/reports/missing", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	if after := testutil.ToFloat64(counter); after != before+1 {
		t.Errorf("Expected counter to grow by 1, got %v -> %v", before, after)
	}
}

func TestCollectDefaultsStatusTo200(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Collect)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		// No explicit WriteHeader call.
		_, _ = w.Write([]byte("ok"))
	})

	counter := HTTPRequestTotals.WithLabelValues("GET", "/health", "200")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	if after := testutil.ToFloat64(counter); after != before+1 {
		t.Errorf("Expected implicit 200 to be counted, got %v -> %v", before, after)
	}
}

func TestCollectWithoutRouteContextFallsBackToPath(t *testing.T) {
	handler := Collect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	counter := HTTPRequestTotals.WithLabelValues("GET", "/bare", "200")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodGet, "/bare", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if after := testutil.ToFloat64(counter); after != before+1 {
		t.Errorf("Expected raw path label outside chi, got %v -> %v", before, after)
	}
}
