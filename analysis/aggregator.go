// Package analysis combines interaction, contraindication and
// adverse-reaction evidence into a single ordered risk verdict with
// traceable recommendations.
package analysis

import (
	"fmt"

	"github.com/medsafe/medsafe-api/entities"
)

// Evidence category ranks used only to break ties at equal severity: an
// absolute contraindication is more actionable than an interaction, which is
// more actionable than a class-level adverse reaction.
const (
	categoryNone = iota
	categoryAdverseReaction
	categoryInteraction
	categoryContraindication
)

// Aggregate builds the risk verdict for one analysis request. The verdict
// level is the maximum severity across all evidence lists; at equal
// severity the contraindication > interaction > adverse-reaction order
// decides which category is reported as driving the verdict.
func Aggregate(interactions []entities.InteractionRecord, contraindications []entities.Contraindication,
	reactions []entities.AdverseReaction, adjustments []entities.DosageAdjustment) entities.RiskVerdict {

	interactions = dedupeInteractions(interactions)
	level, _ := overallLevel(interactions, contraindications, reactions)

	verdict := entities.RiskVerdict{
		Level:             level,
		Interactions:      interactions,
		Contraindications: contraindications,
		AdverseReactions:  reactions,
		DosageAdjustments: adjustments,
	}
	verdict.Recommendations = buildRecommendations(verdict)

	return verdict
}

// overallLevel returns the maximum severity across the evidence lists and
// the category that carries it, applying the tie-break order.
func overallLevel(interactions []entities.InteractionRecord, contraindications []entities.Contraindication,
	reactions []entities.AdverseReaction) (entities.Severity, int) {

	level := entities.SeverityLow
	category := categoryNone

	consider := func(s entities.Severity, cat int) {
		switch {
		case s.Rank() > level.Rank():
			level, category = s, cat
		case s.Rank() == level.Rank() && cat > category:
			category = cat
		}
	}

	// Contraindications considered last so they win ties.
	for _, r := range reactions {
		consider(r.Severity, categoryAdverseReaction)
	}
	for _, i := range interactions {
		consider(i.Severity, categoryInteraction)
	}
	for _, c := range contraindications {
		consider(c.Severity, categoryContraindication)
	}

	return level, category
}

// DrivingCategory names the evidence category that set the verdict level.
// Used by the report notes; returns empty when there is no evidence.
func DrivingCategory(verdict entities.RiskVerdict) string {
	_, category := overallLevel(verdict.Interactions, verdict.Contraindications, verdict.AdverseReactions)
	switch category {
	case categoryContraindication:
		return "contraindication"
	case categoryInteraction:
		return "interaction"
	case categoryAdverseReaction:
		return "adverse reaction"
	}
	return ""
}

// dedupeInteractions drops records describing the same ordered drug pair
// with identical description text, preserving first-seen order. Distinct
// descriptions for the same pair are all kept.
func dedupeInteractions(interactions []entities.InteractionRecord) []entities.InteractionRecord {
	if len(interactions) < 2 {
		return interactions
	}

	seen := make(map[string]struct{}, len(interactions))
	out := interactions[:0:0]
	for _, r := range interactions {
		key := r.DrugA + "|" + r.DrugB + "|" + r.Description
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// severityRecommendations maps the overall level to the top-line advice.
var severityRecommendations = map[entities.Severity]string{
	entities.SeverityCritical: "CONTRAINDICATED - Do not use this medication. Seek medical advice immediately.",
	entities.SeverityHigh:     "Requires medical supervision - use only with close monitoring by the prescriber.",
	entities.SeverityMedium:   "Use with caution and monitoring; inform the prescriber of any new symptoms.",
	entities.SeverityLow:      "Routine follow-up - maintain regular medical supervision.",
}

// buildRecommendations generates the ordered recommendation list: the
// overall advice first, then one entry per matched contraindication and
// interaction so the verdict stays traceable to its evidence. An empty
// evidence set yields an explicit "no issues found" statement, never an
// empty list.
func buildRecommendations(verdict entities.RiskVerdict) []entities.Recommendation {
	hasEvidence := len(verdict.Interactions) > 0 || len(verdict.Contraindications) > 0 ||
		len(verdict.AdverseReactions) > 0

	if !hasEvidence {
		return []entities.Recommendation{{
			Text:   "No known interactions or contraindications were found for this medication and profile. Maintain routine follow-up.",
			Source: "overall",
		}}
	}

	recs := []entities.Recommendation{{
		Text:   severityRecommendations[verdict.Level],
		Source: "overall",
	}}

	for _, c := range verdict.Contraindications {
		recs = append(recs, entities.Recommendation{
			Text:   fmt.Sprintf("%s: %s", c.Type, c.Recommendation),
			Source: "contraindication",
		})
	}

	for _, i := range verdict.Interactions {
		recs = append(recs, entities.Recommendation{
			Text:   fmt.Sprintf("Interaction %s + %s (%s): %s", i.DrugA, i.DrugB, i.Severity, interactionAdvice(i.Severity)),
			Source: "interaction",
		})
	}

	for _, d := range verdict.DosageAdjustments {
		recs = append(recs, entities.Recommendation{
			Text:   fmt.Sprintf("%s: %s", d.Reason, d.Recommendation),
			Source: "dosage",
		})
	}

	return recs
}

func interactionAdvice(s entities.Severity) string {
	switch s {
	case entities.SeverityCritical:
		return "avoid this combination; consult the prescriber immediately"
	case entities.SeverityHigh:
		return "use with extreme caution under strict medical monitoring"
	case entities.SeverityMedium:
		return "monitor signs and symptoms; inform the prescriber"
	default:
		return "minimal risk; maintain routine follow-up"
	}
}
