package rules

import (
	"reflect"
	"strings"
	"testing"

	"github.com/medsafe/medsafe-api/entities"
	"github.com/medsafe/medsafe-api/normalizer"
)

func newRuleSet() *RuleSet {
	return NewRuleSet(normalizer.New(nil))
}

func hasContraindication(res Result, typeSubstring string) bool {
	for _, c := range res.Contraindications {
		if strings.Contains(c.Type, typeSubstring) {
			return true
		}
	}
	return false
}

func TestPregnancyContraindication(t *testing.T) {
	rs := newRuleSet()

	profile := entities.PatientProfile{Age: 28, Pregnant: true}
	res := rs.Evaluate(profile, "methotrexate")

	if !hasContraindication(res, "pregnancy") {
		t.Fatal("Expected a pregnancy contraindication for methotrexate")
	}

	for _, c := range res.Contraindications {
		if strings.Contains(c.Type, "pregnancy") {
			if c.Severity != entities.SeverityCritical {
				t.Errorf("Expected critical severity, got %q", c.Severity)
			}
			if !strings.Contains(c.Recommendation, "Do not use") {
				t.Errorf("Expected an explicit do-not-use recommendation, got %q", c.Recommendation)
			}
		}
	}
}

func TestPregnancyConditionTextAlsoMatches(t *testing.T) {
	rs := newRuleSet()

	// Accented Portuguese condition, no Pregnant flag.
	profile := entities.PatientProfile{Age: 30, Conditions: []string{"Gestação"}}
	res := rs.Evaluate(profile, "warfarin")

	if !hasContraindication(res, "pregnancy") {
		t.Error("Expected the condition text to trigger the pregnancy rule")
	}
}

func TestEvaluateNeverMutatesProfile(t *testing.T) {
	rs := newRuleSet()

	conditions := []string{"Hipertensão"}
	profile := entities.PatientProfile{Age: 30, Pregnant: true, Conditions: conditions}
	original := make([]string, len(conditions))
	copy(original, conditions)

	_ = rs.Evaluate(profile, "methotrexate")

	if !reflect.DeepEqual(profile.Conditions, original) {
		t.Errorf("Profile conditions were mutated: %v", profile.Conditions)
	}
}

func TestRenalContraindication(t *testing.T) {
	rs := newRuleSet()

	profile := entities.PatientProfile{Age: 50, Conditions: []string{"chronic renal failure"}}
	res := rs.Evaluate(profile, "metformin")

	if !hasContraindication(res, "renal") {
		t.Fatal("Expected a renal contraindication for metformin")
	}
}

func TestElderlySedativePrecaution(t *testing.T) {
	rs := newRuleSet()

	profile := entities.PatientProfile{Age: 75}
	res := rs.Evaluate(profile, "diazepam")

	if !hasContraindication(res, "Age-related") {
		t.Fatal("Expected an age-related precaution for diazepam at age 75")
	}

	// Same medication at a younger age carries no age precaution.
	res = rs.Evaluate(entities.PatientProfile{Age: 40}, "diazepam")
	if hasContraindication(res, "Age-related") {
		t.Error("Did not expect an age-related precaution at age 40")
	}
}

func TestAllergyContraindication(t *testing.T) {
	rs := newRuleSet()

	profile := entities.PatientProfile{Age: 30, Allergies: []string{"Aspirina"}}
	res := rs.Evaluate(profile, "acetylsalicylic acid")

	if !hasContraindication(res, "allergy") {
		t.Fatal("Expected a known-allergy contraindication")
	}
	for _, c := range res.Contraindications {
		if strings.Contains(c.Type, "allergy") && c.Severity != entities.SeverityCritical {
			t.Errorf("Allergy contraindication must be critical, got %q", c.Severity)
		}
	}
}

func TestNoContraindicationsForCleanProfile(t *testing.T) {
	rs := newRuleSet()

	res := rs.Evaluate(entities.PatientProfile{Age: 30}, "acetaminophen")

	if len(res.Contraindications) != 0 {
		t.Errorf("Expected no contraindications, got %d", len(res.Contraindications))
	}
}

func TestAdverseReactionsForKnownClass(t *testing.T) {
	reactions := AdverseReactionsFor("warfarin")

	if len(reactions) == 0 {
		t.Fatal("Expected adverse reactions for warfarin")
	}

	found := false
	for _, r := range reactions {
		if r.Reaction == "Bleeding" && r.Severity == entities.SeverityHigh {
			found = true
		}
	}
	if !found {
		t.Error("Expected a high-severity bleeding reaction for warfarin")
	}
}

func TestAdverseReactionsForUnknownMedication(t *testing.T) {
	reactions := AdverseReactionsFor("obscure compound")

	if len(reactions) != 1 {
		t.Fatalf("Expected the single generic advisory, got %d reactions", len(reactions))
	}
	if reactions[0].Severity != entities.SeverityLow {
		t.Errorf("Generic advisory must be low severity, got %q", reactions[0].Severity)
	}
}

func TestAdverseReactionsReturnsCopy(t *testing.T) {
	first := AdverseReactionsFor("metformin")
	first[0].Reaction = "tampered"

	second := AdverseReactionsFor("metformin")
	if second[0].Reaction == "tampered" {
		t.Error("AdverseReactionsFor must return a copy of the class table")
	}
}

func TestClassOf(t *testing.T) {
	if got := ClassOf("ibuprofen"); got != "NSAID" {
		t.Errorf("Expected NSAID, got %q", got)
	}
	if got := ClassOf("unmapped"); got != "unmapped" {
		t.Errorf("Expected pass-through for unmapped medication, got %q", got)
	}
}

func TestDosageAdjustments(t *testing.T) {
	rs := newRuleSet()

	res := rs.Evaluate(entities.PatientProfile{Age: 70, Conditions: []string{"renal impairment"}}, "acetaminophen")

	var types []string
	for _, d := range res.DosageAdjustments {
		types = append(types, d.AdjustmentType)
	}

	wantTypes := []string{"dose_reduction", "renal_impairment"}
	for _, want := range wantTypes {
		found := false
		for _, got := range types {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected adjustment %q, got %v", want, types)
		}
	}
}

func TestPediatricDosageAdjustment(t *testing.T) {
	rs := newRuleSet()

	res := rs.Evaluate(entities.PatientProfile{Age: 10}, "acetaminophen")

	found := false
	for _, d := range res.DosageAdjustments {
		if d.AdjustmentType == "pediatric_dosing" {
			found = true
		}
	}
	if !found {
		t.Error("Expected a pediatric dosing adjustment for age 10")
	}
}
