// Package health provides health checking functionality for the MedSafe API.
package health

import (
	"net/http"
	"time"

	"github.com/medsafe/medsafe-api/breaker"
	"github.com/medsafe/medsafe-api/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	index    interfaces.InteractionIndex
	breakers []*breaker.Breaker
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(index interfaces.InteractionIndex, breakers ...*breaker.Breaker) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		index:    index,
		breakers: breakers,
	}
}

// HealthCheck returns HTTP-specific health data.
// Used by /health HTTP endpoint.
//
// The interaction index is the only hard dependency: without it no analysis
// can run. External collaborators only degrade the status because the
// pipeline degrades around them.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	stats := h.index.Stats()
	ready := h.index.Ready()

	openBreakers := make([]string, 0, len(h.breakers))
	for _, b := range h.breakers {
		if b.State() == breaker.StateOpen {
			openBreakers = append(openBreakers, b.Name())
		}
	}

	switch {
	case !ready || stats.RecordCount == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case len(openBreakers) > 0:
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"index_ready":         ready,
		"interaction_records": stats.RecordCount,
		"interaction_pairs":   stats.PairCount,
		"skipped_rows":        stats.SkippedRows,
		"index_loaded_at":     h.index.LastLoaded().Format(time.RFC3339),
		"open_breakers":       openBreakers,
	}

	return status, data, httpStatus
}
