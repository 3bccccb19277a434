package analysis

import (
	"fmt"
	"strings"

	"github.com/medsafe/medsafe-api/entities"
)

// BuildNotes renders the deterministic analysis notes attached to every
// report. Unlike the optional narrative summary this text is always present,
// even when every external collaborator is down.
func BuildNotes(report *entities.Report) string {
	v := report.Verdict
	var b strings.Builder

	fmt.Fprintf(&b, "Analysis of %s concluded with risk level %s.", report.Medication, v.Level)

	if driving := DrivingCategory(v); driving != "" {
		fmt.Fprintf(&b, " The verdict is driven by %s evidence.", driving)
	}

	if n := len(v.Interactions); n > 0 {
		fmt.Fprintf(&b, " %d interaction(s) with current medications were found.", n)
	} else if len(report.SkippedCurrentMeds) == 0 {
		b.WriteString(" No interactions with current medications were found.")
	}

	if n := len(v.Contraindications); n > 0 {
		fmt.Fprintf(&b, " %d contraindication(s) apply to this patient profile.", n)
	}

	if n := len(v.DosageAdjustments); n > 0 {
		fmt.Fprintf(&b, " %d dosage adjustment(s) are advised.", n)
	}

	if n := len(report.SkippedCurrentMeds); n > 0 {
		fmt.Fprintf(&b, " %d current medication(s) could not be checked for interactions: %s.",
			n, strings.Join(report.SkippedCurrentMeds, ", "))
	}

	if len(report.Degradations) > 0 {
		fmt.Fprintf(&b, " Degraded analysis: %s.", strings.Join(report.Degradations, "; "))
	}

	b.WriteString(" This analysis is informational and does not replace professional medical advice.")

	return b.String()
}
