package analysis

import (
	"strings"

	"github.com/medsafe/medsafe-api/entities"
)

// riskFactorMatchers map adverse-reaction risk factors to profile predicates.
// A factor with no matcher here never escalates.
var riskFactorMatchers = []struct {
	keys  []string
	match func(entities.PatientProfile, []string) bool
}{
	{
		keys: []string{"elderly", "age over 60", "age over 65"},
		match: func(p entities.PatientProfile, _ []string) bool {
			return p.Age >= 65
		},
	},
	{
		keys: []string{"renal impairment", "pre-existing renal impairment"},
		match: func(_ entities.PatientProfile, conditions []string) bool {
			return containsAny(conditions, "renal", "kidney", "rim")
		},
	},
	{
		keys: []string{"hepatic impairment", "liver disease", "pre-existing liver disease"},
		match: func(_ entities.PatientProfile, conditions []string) bool {
			return containsAny(conditions, "hepat", "liver", "figado")
		},
	},
	{
		keys: []string{"concomitant anticoagulant use"},
		match: func(p entities.PatientProfile, _ []string) bool {
			return containsAny(p.CurrentMedications, "warfarin", "varfarina", "coumadin", "marevan")
		},
	},
	{
		keys: []string{"hypertension", "heart failure", "heart disease"},
		match: func(_ entities.PatientProfile, conditions []string) bool {
			return containsAny(conditions, "hypertens", "hipertens", "heart", "cardiac", "cardiaca")
		},
	},
	{
		keys: []string{"history of ulcers"},
		match: func(_ entities.PatientProfile, conditions []string) bool {
			return containsAny(conditions, "ulcer", "ulcera")
		},
	},
	{
		keys: []string{"alcohol use", "concomitant alcohol use"},
		match: func(_ entities.PatientProfile, conditions []string) bool {
			return containsAny(conditions, "alcohol", "etilismo", "alcoolismo")
		},
	},
}

// EscalateRisk raises the verdict level when the patient's profile matches
// risk factors attached to the adverse-reaction evidence. The returned level
// is never lower than the input level.
func EscalateRisk(level entities.Severity, profile entities.PatientProfile, reactions []entities.AdverseReaction) entities.Severity {
	matched := matchedRiskFactors(profile, reactions)
	if matched == 0 {
		return level
	}

	escalated := level
	switch {
	case matched >= 3 && level.Rank() < entities.SeverityHigh.Rank():
		escalated = entities.SeverityHigh
	case matched >= 1 && level.Rank() < entities.SeverityMedium.Rank():
		escalated = entities.SeverityMedium
	}

	return entities.MaxSeverity(level, escalated)
}

// ApplyEscalation raises the verdict level per EscalateRisk and keeps the
// recommendation list consistent with the new level. A verdict is never
// lowered.
func ApplyEscalation(verdict entities.RiskVerdict, profile entities.PatientProfile) entities.RiskVerdict {
	escalated := EscalateRisk(verdict.Level, profile, verdict.AdverseReactions)
	if escalated == verdict.Level {
		return verdict
	}

	verdict.Level = escalated
	if len(verdict.Recommendations) > 0 && verdict.Recommendations[0].Source == "overall" {
		verdict.Recommendations[0].Text = severityRecommendations[escalated]
	}
	verdict.Recommendations = append(verdict.Recommendations, entities.Recommendation{
		Text:   "Risk factors in this patient profile increase the likelihood of the listed adverse reactions; discuss them with the prescriber.",
		Source: "risk_factors",
	})
	return verdict
}

// matchedRiskFactors counts the distinct risk factors across the reaction
// evidence that apply to this patient.
func matchedRiskFactors(profile entities.PatientProfile, reactions []entities.AdverseReaction) int {
	conditions := make([]string, 0, len(profile.Conditions)+1)
	for _, c := range profile.Conditions {
		conditions = append(conditions, strings.ToLower(c))
	}
	if profile.Pregnant {
		conditions = append(conditions, "pregnancy")
	}

	seen := make(map[string]struct{})
	for _, reaction := range reactions {
		for _, factor := range reaction.RiskFactors {
			key := strings.ToLower(factor)
			if _, dup := seen[key]; dup {
				continue
			}
			if factorApplies(key, profile, conditions) {
				seen[key] = struct{}{}
			}
		}
	}
	return len(seen)
}

func factorApplies(factor string, profile entities.PatientProfile, conditions []string) bool {
	for _, m := range riskFactorMatchers {
		for _, key := range m.keys {
			if strings.Contains(factor, key) {
				return m.match(profile, conditions)
			}
		}
	}
	return false
}

func containsAny(haystack []string, needles ...string) bool {
	for _, h := range haystack {
		lower := strings.ToLower(h)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				return true
			}
		}
	}
	return false
}
