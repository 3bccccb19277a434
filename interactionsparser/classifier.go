package interactionsparser

import (
	"strings"

	"github.com/medsafe/medsafe-api/entities"
)

// Keyword tables for classifying the free-text interaction description.
// Order matters: the first severity tier with a match wins.
var (
	criticalKeywords = []string{
		"contraindicated", "contraindication", "fatal", "life-threatening",
		"severe", "serious", "major", "cardiotoxic", "hepatotoxic",
		"nephrotoxic", "neurotoxic", "may cause death",
	}

	highKeywords = []string{
		"significant", "increase the risk", "adverse effects",
		"toxicity", "dangerous", "harmful", "may increase",
		"serum concentration", "metabolism",
	}

	mediumKeywords = []string{
		"moderate", "caution", "monitor", "may decrease",
		"effectiveness", "therapeutic effect", "bioavailability",
	}
)

// ClassifySeverity grades an interaction description into the four-level
// severity scale using keyword matching. Descriptions matching nothing are
// graded low.
func ClassifySeverity(description string) entities.Severity {
	lower := strings.ToLower(description)

	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return entities.SeverityCritical
		}
	}
	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			return entities.SeverityHigh
		}
	}
	for _, kw := range mediumKeywords {
		if strings.Contains(lower, kw) {
			return entities.SeverityMedium
		}
	}
	return entities.SeverityLow
}

// Mechanism categories for interaction descriptions.
const (
	CategoryCardiovascular   = "Cardiovascular"
	CategoryHepatic          = "Hepatic"
	CategoryRenal            = "Renal"
	CategoryNeurological     = "Neurological"
	CategoryPhotosensitivity = "Photosensitivity"
	CategoryPharmacokinetic  = "Pharmacokinetic"
	CategoryCoagulation      = "Coagulation"
	CategoryPharmacological  = "Pharmacological"
)

// ClassifyCategory assigns a mechanism category based on the description
// text. Unmatched descriptions fall into the generic pharmacological bucket.
func ClassifyCategory(description string) string {
	lower := strings.ToLower(description)

	switch {
	case strings.Contains(lower, "bleeding") || strings.Contains(lower, "anticoagulant"):
		return CategoryCoagulation
	case strings.Contains(lower, "cardiotoxic") || strings.Contains(lower, "cardiac"):
		return CategoryCardiovascular
	case strings.Contains(lower, "hepatotoxic") || strings.Contains(lower, "liver"):
		return CategoryHepatic
	case strings.Contains(lower, "nephrotoxic") || strings.Contains(lower, "renal") || strings.Contains(lower, "kidney"):
		return CategoryRenal
	case strings.Contains(lower, "neurotoxic") || strings.Contains(lower, "cns") || strings.Contains(lower, "sedation"):
		return CategoryNeurological
	case strings.Contains(lower, "photosensitiz"):
		return CategoryPhotosensitivity
	case strings.Contains(lower, "metabolism") || strings.Contains(lower, "cyp"):
		return CategoryPharmacokinetic
	default:
		return CategoryPharmacological
	}
}
