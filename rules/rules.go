// Package rules implements the declarative clinical rule set: patient
// contraindications, pharmacological-class adverse reactions and dosage
// adjustment advisories. Evaluation is a pure function of the profile and
// the medication; every matching rule fires, with no short-circuiting,
// because independent contraindications can co-exist.
package rules

import (
	"fmt"
	"strings"

	"github.com/medsafe/medsafe-api/entities"
	"github.com/medsafe/medsafe-api/normalizer"
)

// Result carries everything the rule set found for one evaluation.
type Result struct {
	Contraindications []entities.Contraindication
	AdverseReactions  []entities.AdverseReaction
	DosageAdjustments []entities.DosageAdjustment
}

// RuleSet evaluates clinical rules. Shared, read-only, safe for concurrent
// use by all requests.
type RuleSet struct {
	n *normalizer.Normalizer
}

// NewRuleSet creates a RuleSet using the given normalizer for allergy and
// condition canonicalization.
func NewRuleSet(n *normalizer.Normalizer) *RuleSet {
	return &RuleSet{n: n}
}

// conditionRule maps patient conditions to contraindicated medications.
type conditionRule struct {
	conditionKeys  []string // substring match against the patient's conditions
	drugs          []string // substring match against the canonical medication
	label          string
	severity       entities.Severity
	recommendation string
}

var conditionRules = []conditionRule{
	{
		conditionKeys:  []string{"pregnan", "gravidez", "gestac"},
		drugs:          []string{"methotrexate", "isotretinoin", "warfarin", "valproic"},
		label:          "pregnancy",
		severity:       entities.SeverityCritical,
		recommendation: "CONTRAINDICATED - Do not use during pregnancy. Discuss alternatives with the prescriber immediately.",
	},
	{
		conditionKeys:  []string{"renal", "kidney", "rim"},
		drugs:          []string{"metformin", "ibuprofen", "naproxen", "diclofenac", "lithium"},
		label:          "renal impairment",
		severity:       entities.SeverityHigh,
		recommendation: "Evaluate therapeutic alternatives with the prescriber; monitor renal function.",
	},
	{
		conditionKeys:  []string{"hepat", "liver", "figado"},
		drugs:          []string{"acetaminophen", "atorvastatin", "simvastatin"},
		label:          "hepatic impairment",
		severity:       entities.SeverityHigh,
		recommendation: "Evaluate therapeutic alternatives with the prescriber; monitor liver enzymes.",
	},
}

// elderlyAvoidDrugs lists medications that carry an explicit precaution in
// patients aged 65 and older.
var elderlyAvoidDrugs = []string{"diazepam", "clonazepam", "alprazolam", "zolpidem", "amitriptyline"}

// Evaluate runs every rule against the profile and medication. The
// caller-supplied profile is never mutated: pregnancy is evaluated against a
// derived copy of the condition set.
func (rs *RuleSet) Evaluate(profile entities.PatientProfile, canonicalMed string) Result {
	var res Result

	conditions := derivedConditions(profile)

	// Allergy check: the most actionable contraindication there is.
	for _, allergy := range profile.Allergies {
		allergyCanonical := rs.n.Canonicalize(allergy)
		if allergyCanonical == "" {
			continue
		}
		if strings.Contains(canonicalMed, allergyCanonical) || strings.Contains(allergyCanonical, canonicalMed) {
			res.Contraindications = append(res.Contraindications, entities.Contraindication{
				Type:           "Known allergy",
				Description:    fmt.Sprintf("Patient has a known allergy to %s", allergy),
				Severity:       entities.SeverityCritical,
				Source:         "Patient history",
				Recommendation: "CONTRAINDICATED - Do not administer.",
			})
		}
	}

	// Condition-based rules: all matching rules fire.
	for _, rule := range conditionRules {
		for _, condition := range conditions {
			if !matchesAny(condition, rule.conditionKeys) {
				continue
			}
			for _, drug := range rule.drugs {
				if strings.Contains(canonicalMed, drug) {
					res.Contraindications = append(res.Contraindications, entities.Contraindication{
						Type:           fmt.Sprintf("Contraindication due to %s", rule.label),
						Description:    fmt.Sprintf("%s is contraindicated in patients with %s", capitalize(drug), rule.label),
						Severity:       rule.severity,
						Source:         "Clinical guidelines",
						Recommendation: rule.recommendation,
					})
				}
			}
			break // one firing per rule; other conditions match the same rule
		}
	}

	// Age-band precaution: sedatives in patients aged 65 and older.
	if profile.Age >= 65 {
		for _, drug := range elderlyAvoidDrugs {
			if strings.Contains(canonicalMed, drug) {
				res.Contraindications = append(res.Contraindications, entities.Contraindication{
					Type:           "Age-related precaution",
					Description:    fmt.Sprintf("%s is not recommended in patients aged 65 and older due to sedation and fall risk", capitalize(drug)),
					Severity:       entities.SeverityHigh,
					Source:         "Clinical guidelines",
					Recommendation: "Consider a safer alternative or a reduced dose under medical supervision.",
				})
			}
		}
	}

	res.AdverseReactions = AdverseReactionsFor(canonicalMed)
	res.DosageAdjustments = dosageAdjustments(profile, conditions)

	return res
}

// derivedConditions returns a new, lowercased condition set with the
// pregnancy pseudo-condition appended when applicable. The profile's own
// slice is never touched.
func derivedConditions(profile entities.PatientProfile) []string {
	conditions := make([]string, 0, len(profile.Conditions)+1)
	for _, c := range profile.Conditions {
		conditions = append(conditions, normalizer.Fold(normalizer.Clean(c)))
	}
	if profile.Pregnant {
		conditions = append(conditions, "pregnancy")
	}
	return conditions
}

func matchesAny(condition string, keys []string) bool {
	for _, key := range keys {
		if strings.Contains(condition, key) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
