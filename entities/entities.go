// Package entities defines the core domain types for the drug safety analysis
// engine: interaction records, patient profiles, contraindications, adverse
// reactions and the aggregated risk verdict.
package entities

import "time"

// Severity describes the clinical risk magnitude of one piece of evidence.
// The ordering low < medium < high < critical is significant for aggregation.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordering position of a severity. Unknown values rank
// below low so malformed data can never raise a verdict.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// MaxSeverity returns the higher of two severities.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// InteractionRecord is an immutable drug-pair interaction fact. DrugA and
// DrugB hold canonical names; the pair is unordered for lookup purposes.
type InteractionRecord struct {
	DrugA       string   `json:"drug_a"`
	DrugB       string   `json:"drug_b"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Severity    Severity `json:"severity"`
}

// SynonymEntry maps one alias (brand name, misspelling, translation) to a
// canonical scientific name.
type SynonymEntry struct {
	Alias     string `json:"alias"`
	Canonical string `json:"canonical"`
}

// PatientProfile is the caller-supplied clinical context for one analysis.
// It is read-only during analysis; the pipeline never mutates it.
type PatientProfile struct {
	Age                int      `json:"age"`
	Weight             *float64 `json:"weight,omitempty"`
	Pregnant           bool     `json:"pregnant"`
	Conditions         []string `json:"conditions"`
	Allergies          []string `json:"allergies"`
	CurrentMedications []string `json:"current_medications"`
}

// Contraindication is a matched contraindication rule.
type Contraindication struct {
	Type           string   `json:"type"`
	Description    string   `json:"description"`
	Severity       Severity `json:"severity"`
	Source         string   `json:"source"`
	Recommendation string   `json:"recommendation"`
}

// AdverseReaction is a known adverse reaction of the analyzed medication's
// pharmacological class.
type AdverseReaction struct {
	Reaction    string   `json:"reaction"`
	Description string   `json:"description"`
	Frequency   string   `json:"frequency"`
	Severity    Severity `json:"severity"`
	RiskFactors []string `json:"risk_factors"`
}

// DosageAdjustment is an advisory about dose changes for special populations.
type DosageAdjustment struct {
	Reason         string `json:"reason"`
	Recommendation string `json:"recommendation"`
	AdjustmentType string `json:"adjustment_type"`
}

// Recommendation is one actionable advice line in a verdict. Source links it
// back to the evidence that produced it.
type Recommendation struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// RiskVerdict is the aggregated safety conclusion for one analysis request.
// Level is always the maximum severity across the evidence lists.
type RiskVerdict struct {
	Level             Severity            `json:"level"`
	Interactions      []InteractionRecord `json:"interactions"`
	Contraindications []Contraindication  `json:"contraindications"`
	AdverseReactions  []AdverseReaction   `json:"adverse_reactions"`
	DosageAdjustments []DosageAdjustment  `json:"dosage_adjustments"`
	Recommendations   []Recommendation    `json:"recommendations"`
}

// InteractionSource records which current medication contributed an
// interaction to the verdict.
type InteractionSource struct {
	CurrentMedication string   `json:"current_medication"`
	DrugA             string   `json:"drug_a"`
	DrugB             string   `json:"drug_b"`
	Severity          Severity `json:"severity"`
}

// RecognitionResult is the advisory output of the external document
// recognizer for a photographed package or prescription.
type RecognitionResult struct {
	MedicationName string  `json:"medication_name"`
	RawText        string  `json:"raw_text"`
	Confidence     float64 `json:"confidence"`
}

// Report is the final product of one analysis request.
type Report struct {
	SessionID          string              `json:"session_id"`
	Medication         string              `json:"medication"`
	RequestedName      string              `json:"requested_name"`
	Verdict            RiskVerdict         `json:"verdict"`
	InteractionSources []InteractionSource `json:"interaction_sources"`
	SkippedCurrentMeds []string            `json:"skipped_current_meds"`
	Confidence         float64             `json:"confidence_score"`
	Notes              string              `json:"analysis_notes"`
	Summary            string              `json:"summary,omitempty"`
	Degradations       []string            `json:"degradations,omitempty"`
	GeneratedAt        time.Time           `json:"generated_at"`
}

// ReportSummary is the list view of a persisted report.
type ReportSummary struct {
	SessionID  string    `json:"session_id"`
	Medication string    `json:"medication"`
	RiskLevel  Severity  `json:"risk_level"`
	CreatedAt  time.Time `json:"created_at"`
}
