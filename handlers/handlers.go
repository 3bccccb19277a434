// Package handlers provides HTTP request handlers for the MedSafe API
// endpoints: medication analysis, interaction lookup, report retrieval and
// health checks, with input validation and consistent error responses.
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medsafe/medsafe-api/entities"
	"github.com/medsafe/medsafe-api/interfaces"
	"github.com/medsafe/medsafe-api/logging"
	"github.com/medsafe/medsafe-api/normalizer"
	"github.com/medsafe/medsafe-api/pipeline"
	"github.com/medsafe/medsafe-api/store"
)

// RespondWithJSON writes a JSON response.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]interface{}{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	RespondWithJSON(w, code, errorResponse)
}

// Handler bundles the dependencies of all HTTP endpoints.
type Handler struct {
	pipeline   *pipeline.Pipeline
	index      interfaces.InteractionIndex
	normalizer *normalizer.Normalizer
	store      interfaces.ReportStore
	validator  interfaces.Validator
	health     interfaces.HealthChecker
}

// New creates the handler with injected dependencies.
func New(p *pipeline.Pipeline, index interfaces.InteractionIndex, n *normalizer.Normalizer,
	st interfaces.ReportStore, v interfaces.Validator, h interfaces.HealthChecker) *Handler {
	return &Handler{
		pipeline:   p,
		index:      index,
		normalizer: n,
		store:      st,
		validator:  v,
		health:     h,
	}
}

type analyzeRequest struct {
	MedicationName string                  `json:"medication_name"`
	Image          string                  `json:"image,omitempty"`
	Profile        entities.PatientProfile `json:"profile"`
}

// Analyze runs the full analysis pipeline for one medication and profile.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			RespondWithError(w, http.StatusBadRequest, "request body is empty")
			return
		}
		RespondWithError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	var image []byte
	if req.Image != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, "image must be base64 encoded")
			return
		}
		image = decoded
	}

	if req.MedicationName == "" && len(image) == 0 {
		RespondWithError(w, http.StatusBadRequest, "provide medication_name or image")
		return
	}

	if req.MedicationName != "" {
		if err := h.validator.ValidateMedicationName(req.MedicationName); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := h.validator.ValidateProfile(&req.Profile); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.pipeline.Analyze(r.Context(), pipeline.Request{
		MedicationName: req.MedicationName,
		Image:          image,
		Profile:        req.Profile,
	})
	switch {
	case errors.Is(err, pipeline.ErrUnidentifiedMedication):
		RespondWithError(w, http.StatusUnprocessableEntity, "the medication could not be identified from the request")
		return
	case errors.Is(err, pipeline.ErrIndexNotReady):
		RespondWithError(w, http.StatusServiceUnavailable, "interaction data is still loading, retry shortly")
		return
	case err != nil:
		logging.Error("Analysis failed", "error", err.Error())
		RespondWithError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	RespondWithJSON(w, http.StatusOK, report)
}

// LookupInteraction returns the known interactions for one drug pair.
func (h *Handler) LookupInteraction(w http.ResponseWriter, r *http.Request) {
	drugA := chi.URLParam(r, "drugA")
	drugB := chi.URLParam(r, "drugB")

	if err := h.validator.ValidateMedicationName(drugA); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.ValidateMedicationName(drugB); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.index.Ready() {
		RespondWithError(w, http.StatusServiceUnavailable, "interaction data is still loading, retry shortly")
		return
	}

	canonicalA := h.normalizer.Canonicalize(drugA)
	canonicalB := h.normalizer.Canonicalize(drugB)

	records := h.index.Lookup(canonicalA, canonicalB)

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"drug_a":       canonicalA,
		"drug_b":       canonicalB,
		"interactions": records,
		"count":        len(records),
	})
}

// GetReport returns one persisted report by session id.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		RespondWithError(w, http.StatusBadRequest, "session id is required")
		return
	}

	report, err := h.store.GetReport(r.Context(), sessionID)
	if errors.Is(err, store.ErrNotFound) {
		RespondWithError(w, http.StatusNotFound, "no report for this session id")
		return
	}
	if err != nil {
		logging.Error("Failed to load report", "session_id", sessionID, "error", err.Error())
		RespondWithError(w, http.StatusInternalServerError, "failed to load report")
		return
	}

	RespondWithJSON(w, http.StatusOK, report)
}

// ListReports returns the most recent report summaries.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			RespondWithError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	summaries, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		logging.Error("Failed to list reports", "error", err.Error())
		RespondWithError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reports": summaries,
		"count":   len(summaries),
	})
}

// HealthCheck reports system health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := h.health.HealthCheck()
	details["status"] = status
	RespondWithJSON(w, httpStatus, details)
}
