// Package pipeline orchestrates one analysis request end to end: medication
// identification, normalization, interaction lookup, clinical rule
// evaluation, risk aggregation and report assembly. External collaborators
// are advisory; their failures degrade the report instead of failing it.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medsafe/medsafe-api/analysis"
	"github.com/medsafe/medsafe-api/entities"
	"github.com/medsafe/medsafe-api/interfaces"
	"github.com/medsafe/medsafe-api/logging"
	"github.com/medsafe/medsafe-api/metrics"
	"github.com/medsafe/medsafe-api/normalizer"
	"github.com/medsafe/medsafe-api/rules"
)

// Analysis pipeline states, logged per transition for traceability.
const (
	stateReceived            = "RECEIVED"
	stateNameResolved        = "NAME_RESOLVED"
	stateInteractionsChecked = "INTERACTIONS_CHECKED"
	stateRulesEvaluated      = "RULES_EVALUATED"
	stateAggregated          = "AGGREGATED"
	stateReportReady         = "REPORT_READY"
	stateFailed              = "FAILED"
)

var (
	// ErrUnidentifiedMedication is returned when neither the request text nor
	// the document recognizer yields a usable medication name.
	ErrUnidentifiedMedication = errors.New("medication could not be identified")

	// ErrIndexNotReady is returned while the interaction index build has not
	// completed.
	ErrIndexNotReady = errors.New("interaction index is not ready")
)

// Confidence scoring constants. A typed text request is trusted more than an
// image recognition; every degradation lowers trust further.
const (
	confidenceText     = 0.85
	confidenceImage    = 0.65
	degradationPenalty = 0.15
	confidenceFloor    = 0.10
)

// Request is one analysis request. MedicationName and Image may both be set;
// the typed name wins when the recognizer fails or disagrees with itself.
type Request struct {
	MedicationName string
	Image          []byte
	Profile        entities.PatientProfile
}

// Pipeline wires the analysis collaborators together. Safe for concurrent use.
type Pipeline struct {
	normalizer *normalizer.Normalizer
	index      interfaces.InteractionIndex
	rules      *rules.RuleSet
	recognizer interfaces.DocumentRecognizer
	narrative  interfaces.NarrativeGenerator
	store      interfaces.ReportStore

	recognizeTimeout time.Duration
	narrativeTimeout time.Duration
}

// Options carries the optional collaborators and their call budgets. Nil
// collaborators disable the corresponding stage.
type Options struct {
	Recognizer       interfaces.DocumentRecognizer
	Narrative        interfaces.NarrativeGenerator
	Store            interfaces.ReportStore
	RecognizeTimeout time.Duration
	NarrativeTimeout time.Duration
}

// New creates the pipeline.
func New(n *normalizer.Normalizer, index interfaces.InteractionIndex, rs *rules.RuleSet, opts Options) *Pipeline {
	if opts.RecognizeTimeout <= 0 {
		opts.RecognizeTimeout = 5 * time.Second
	}
	if opts.NarrativeTimeout <= 0 {
		opts.NarrativeTimeout = 8 * time.Second
	}
	return &Pipeline{
		normalizer:       n,
		index:            index,
		rules:            rs,
		recognizer:       opts.Recognizer,
		narrative:        opts.Narrative,
		store:            opts.Store,
		recognizeTimeout: opts.RecognizeTimeout,
		narrativeTimeout: opts.NarrativeTimeout,
	}
}

// Analyze runs the full pipeline and returns the finished report.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (*entities.Report, error) {
	start := time.Now()
	sessionID := uuid.NewString()
	p.transition(sessionID, stateReceived)

	if !p.index.Ready() {
		p.transition(sessionID, stateFailed)
		return nil, ErrIndexNotReady
	}

	var degradations []string

	requestedName, recognized, deg := p.identify(ctx, sessionID, req)
	degradations = append(degradations, deg...)
	if requestedName == "" {
		p.transition(sessionID, stateFailed)
		return nil, ErrUnidentifiedMedication
	}

	medication := p.normalizer.Canonicalize(requestedName)
	if medication == "" {
		p.transition(sessionID, stateFailed)
		return nil, ErrUnidentifiedMedication
	}
	p.transition(sessionID, stateNameResolved)

	interactions, sources, skipped := p.lookupInteractions(medication, req.Profile.CurrentMedications)
	p.transition(sessionID, stateInteractionsChecked)

	ruleResult := p.rules.Evaluate(req.Profile, medication)
	p.transition(sessionID, stateRulesEvaluated)

	verdict := analysis.Aggregate(interactions, ruleResult.Contraindications,
		ruleResult.AdverseReactions, ruleResult.DosageAdjustments)
	verdict = analysis.ApplyEscalation(verdict, req.Profile)
	p.transition(sessionID, stateAggregated)

	report := &entities.Report{
		SessionID:          sessionID,
		Medication:         medication,
		RequestedName:      requestedName,
		Verdict:            verdict,
		InteractionSources: sources,
		SkippedCurrentMeds: skipped,
		Degradations:       degradations,
		GeneratedAt:        time.Now().UTC(),
	}

	p.summarize(ctx, report)
	report.Confidence = confidenceScore(recognized, report.Degradations)
	report.Notes = analysis.BuildNotes(report)

	p.persist(ctx, report, recognized)

	p.transition(sessionID, stateReportReady)
	metrics.AnalysesTotal.WithLabelValues(string(report.Verdict.Level)).Inc()
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	logging.Info("Analysis complete",
		"session_id", sessionID,
		"medication", medication,
		"risk_level", string(report.Verdict.Level),
		"interactions", len(report.Verdict.Interactions),
		"degradations", len(report.Degradations),
		"duration_ms", time.Since(start).Milliseconds())

	return report, nil
}

// identify resolves the medication name from the request. Image recognition
// runs first when an image is present; the typed name is the fallback for
// every recognition failure. Returns the resolved name, whether it came from
// the recognizer, and any degradation notes.
func (p *Pipeline) identify(ctx context.Context, sessionID string, req Request) (string, bool, []string) {
	if len(req.Image) == 0 {
		return req.MedicationName, false, nil
	}

	if p.recognizer == nil {
		if req.MedicationName == "" {
			return "", false, []string{"document recognition is not configured and no medication name was provided"}
		}
		return req.MedicationName, false, []string{"document recognition is not configured; analysis used the typed medication name"}
	}

	rctx, cancel := context.WithTimeout(ctx, p.recognizeTimeout)
	defer cancel()

	result, err := p.recognizer.Recognize(rctx, req.Image)
	if err != nil {
		logging.Warn("Document recognition failed, falling back to typed name",
			"session_id", sessionID, "error", err.Error())
		if req.MedicationName == "" {
			return "", false, []string{"document recognition unavailable and no medication name was provided"}
		}
		return req.MedicationName, false, []string{"document recognition unavailable; analysis used the typed medication name"}
	}

	if result.MedicationName == "" {
		if req.MedicationName == "" {
			return "", false, []string{"document recognition found no medication name in the image"}
		}
		return req.MedicationName, false, []string{"document recognition found no medication name; analysis used the typed medication name"}
	}

	return result.MedicationName, true, nil
}

// lookupInteractions checks the analyzed medication against every current
// medication. Self pairs and names that clean to nothing are reported as
// skipped rather than silently ignored.
func (p *Pipeline) lookupInteractions(medication string, currentMeds []string) ([]entities.InteractionRecord, []entities.InteractionSource, []string) {
	var (
		interactions []entities.InteractionRecord
		sources      []entities.InteractionSource
		skipped      []string
	)

	for _, raw := range currentMeds {
		canonical := p.normalizer.Canonicalize(raw)
		if canonical == "" || canonical == medication {
			skipped = append(skipped, raw)
			continue
		}

		for _, record := range p.index.Lookup(medication, canonical) {
			interactions = append(interactions, record)
			sources = append(sources, entities.InteractionSource{
				CurrentMedication: raw,
				DrugA:             record.DrugA,
				DrugB:             record.DrugB,
				Severity:          record.Severity,
			})
		}
	}

	return interactions, sources, skipped
}

// summarize attaches the optional narrative summary, degrading on failure.
func (p *Pipeline) summarize(ctx context.Context, report *entities.Report) {
	if p.narrative == nil {
		return
	}

	nctx, cancel := context.WithTimeout(ctx, p.narrativeTimeout)
	defer cancel()

	summary, err := p.narrative.Summarize(nctx, report)
	if err != nil {
		logging.Warn("Narrative summary failed",
			"session_id", report.SessionID, "error", err.Error())
		report.Degradations = append(report.Degradations, "narrative summary unavailable")
		return
	}
	report.Summary = summary
}

// persist saves the report. Persistence failures degrade the report; the
// caller still gets the full analysis, with confidence and notes rebuilt to
// reflect the extra degradation.
func (p *Pipeline) persist(ctx context.Context, report *entities.Report, recognized bool) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveReport(ctx, report); err != nil {
		logging.Error("Failed to persist report",
			"session_id", report.SessionID, "error", err.Error())
		report.Degradations = append(report.Degradations, "report persistence unavailable; this report cannot be retrieved later")
		report.Confidence = confidenceScore(recognized, report.Degradations)
		report.Notes = analysis.BuildNotes(report)
	}
}

// confidenceScore derives the report confidence from the identification path
// and the degradation count.
func confidenceScore(recognized bool, degradations []string) float64 {
	score := confidenceText
	if recognized {
		score = confidenceImage
	}
	score -= degradationPenalty * float64(len(degradations))
	if score < confidenceFloor {
		score = confidenceFloor
	}
	return score
}

func (p *Pipeline) transition(sessionID, state string) {
	logging.Debug("Pipeline state", "session_id", sessionID, "state", state)
}
