package rules

import (
	"fmt"
	"strings"

	"github.com/medsafe/medsafe-api/entities"
)

// dosageAdjustments returns dose advisories for special populations. The
// conditions argument is the derived (already folded) condition set.
func dosageAdjustments(profile entities.PatientProfile, conditions []string) []entities.DosageAdjustment {
	var adjustments []entities.DosageAdjustment

	if profile.Age >= 65 {
		adjustments = append(adjustments, entities.DosageAdjustment{
			Reason:         "Elderly patient (age 65 or older)",
			Recommendation: "Consider a reduced dose; drug clearance slows with age.",
			AdjustmentType: "dose_reduction",
		})
	}

	if profile.Age < 18 {
		adjustments = append(adjustments, entities.DosageAdjustment{
			Reason:         fmt.Sprintf("Pediatric patient (%d years)", profile.Age),
			Recommendation: "Calculate dose by body weight (mg/kg); consult a pediatrician.",
			AdjustmentType: "pediatric_dosing",
		})
	}

	joined := strings.Join(conditions, " ")

	if strings.Contains(joined, "renal") || strings.Contains(joined, "kidney") || strings.Contains(joined, "rim") {
		adjustments = append(adjustments, entities.DosageAdjustment{
			Reason:         "Renal impairment",
			Recommendation: "Adjust dose by creatinine clearance; monitor renal function.",
			AdjustmentType: "renal_impairment",
		})
	}

	if strings.Contains(joined, "hepat") || strings.Contains(joined, "liver") || strings.Contains(joined, "figado") {
		adjustments = append(adjustments, entities.DosageAdjustment{
			Reason:         "Hepatic impairment",
			Recommendation: "Reduce dose; monitor liver enzymes regularly.",
			AdjustmentType: "hepatic_impairment",
		})
	}

	return adjustments
}
