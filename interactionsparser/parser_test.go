package interactionsparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/medsafe/medsafe-api/entities"
	"github.com/medsafe/medsafe-api/normalizer"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "interactions.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write dataset: %v", err)
	}
	return path
}

func TestParseInteractions(t *testing.T) {
	content := "Drug 1,Drug 2,Interaction Description\n" +
		"Aspirina,Varfarina,The risk of bleeding may increase\n" +
		"Tylenol,Tylenol,Duplicate therapy\n" +
		",Warfarin,Missing first drug\n" +
		"short-row\n" +
		"Fluoxetina,Tramadol,May cause serious serotonin syndrome\n"

	path := writeDataset(t, content)
	records, stats, err := ParseInteractions(path, normalizer.New(nil))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.DrugA != "acetylsalicylic acid" || first.DrugB != "warfarin" {
		t.Errorf("Drug names were not canonicalized: %q / %q", first.DrugA, first.DrugB)
	}
	if first.Category != CategoryCoagulation {
		t.Errorf("Expected coagulation category, got %q", first.Category)
	}
	if first.Severity != entities.SeverityHigh {
		t.Errorf("Expected high severity, got %q", first.Severity)
	}

	if records[1].Severity != entities.SeverityCritical {
		t.Errorf("Expected critical severity for serious reaction, got %q", records[1].Severity)
	}

	if stats.SkippedSelf != 1 {
		t.Errorf("Expected 1 self-pair skip, got %d", stats.SkippedSelf)
	}
	if stats.SkippedBlank != 1 {
		t.Errorf("Expected 1 blank skip, got %d", stats.SkippedBlank)
	}
	if stats.SkippedShort != 1 {
		t.Errorf("Expected 1 short-row skip, got %d", stats.SkippedShort)
	}
	if stats.ParsedRecords != 2 {
		t.Errorf("Expected 2 parsed records in stats, got %d", stats.ParsedRecords)
	}
}

func TestParseInteractionsMissingFile(t *testing.T) {
	_, _, err := ParseInteractions(filepath.Join(t.TempDir(), "absent.csv"), normalizer.New(nil))
	if err == nil {
		t.Fatal("Expected error for missing dataset")
	}
}

func TestParseInteractionsWithoutHeader(t *testing.T) {
	path := writeDataset(t, "Warfarin,Ibuprofeno,May increase the risk of bleeding\n")

	records, stats, err := ParseInteractions(path, normalizer.New(nil))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if stats.TotalRows != 1 {
		t.Errorf("Expected 1 data row, got %d", stats.TotalRows)
	}
}

func TestClassifySeverity(t *testing.T) {
	testCases := []struct {
		description string
		expected    entities.Severity
	}{
		{"This combination is contraindicated", entities.SeverityCritical},
		{"May be hepatotoxic in combination", entities.SeverityCritical},
		{"May increase the serum concentration", entities.SeverityHigh},
		{"The metabolism can be decreased", entities.SeverityHigh},
		{"Use with caution and monitor closely", entities.SeverityMedium},
		{"The therapeutic effect may change", entities.SeverityMedium},
		{"No relevant findings reported", entities.SeverityLow},
	}

	for _, tc := range testCases {
		if got := ClassifySeverity(tc.description); got != tc.expected {
			t.Errorf("ClassifySeverity(%q) = %q, expected %q", tc.description, got, tc.expected)
		}
	}
}

func TestClassifyCategory(t *testing.T) {
	testCases := []struct {
		description string
		expected    string
	}{
		{"The risk of bleeding is increased", CategoryCoagulation},
		{"May be cardiotoxic", CategoryCardiovascular},
		{"Observed liver enzyme elevation", CategoryHepatic},
		{"Reduced renal clearance", CategoryRenal},
		{"Additive CNS sedation", CategoryNeurological},
		{"May photosensitize the skin", CategoryPhotosensitivity},
		{"CYP3A4 inhibition raises exposure", CategoryPharmacokinetic},
		{"Unspecified mechanism", CategoryPharmacological},
	}

	for _, tc := range testCases {
		if got := ClassifyCategory(tc.description); got != tc.expected {
			t.Errorf("ClassifyCategory(%q) = %q, expected %q", tc.description, got, tc.expected)
		}
	}
}
