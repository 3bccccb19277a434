package normalizer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/medsafe/medsafe-api/entities"
	"github.com/medsafe/medsafe-api/logging"
)

// defaultSynonyms covers the brand names and Portuguese/English variants most
// often seen on Brazilian prescriptions. The synonyms file extends this table
// at startup; it is a plain mapping so dictionary growth never requires a
// restructure.
var defaultSynonyms = map[string]string{
	// Aspirin
	"aspirina":               "acetylsalicylic acid",
	"aspirin":                "acetylsalicylic acid",
	"aas":                    "acetylsalicylic acid",
	"acido acetilsalicilico": "acetylsalicylic acid",

	// Paracetamol / Tylenol
	"paracetamol": "acetaminophen",
	"tylenol":     "acetaminophen",

	// Metformin
	"metformina": "metformin",
	"glifage":    "metformin",

	// Losartan
	"losartana":           "losartan",
	"losartan potassico":  "losartan",
	"losartana potassica": "losartan",
	"cozaar":              "losartan",

	// Ibuprofen
	"ibuprofeno": "ibuprofen",
	"advil":      "ibuprofen",
	"motrin":     "ibuprofen",

	// Amoxicillin
	"amoxicilina": "amoxicillin",

	// Metamizole
	"dipirona":  "metamizole",
	"novalgina": "metamizole",

	// Omeprazole
	"omeprazol": "omeprazole",

	// SSRIs
	"sertralina": "sertraline",
	"zoloft":     "sertraline",
	"fluoxetina": "fluoxetine",
	"prozac":     "fluoxetine",

	// Statins
	"atorvastatina": "atorvastatin",
	"lipitor":       "atorvastatin",
	"sinvastatina":  "simvastatin",
	"simvastatina":  "simvastatin",
	"zocor":         "simvastatin",

	// Warfarin
	"varfarina": "warfarin",
	"coumadin":  "warfarin",
	"marevan":   "warfarin",

	// Benzodiazepines
	"valium":   "diazepam",
	"rivotril": "clonazepam",

	// Methotrexate
	"metotrexato": "methotrexate",
}

// LoadSynonymsFile reads extra alias->canonical entries from a two-column CSV
// file. A missing file is not an error: the built-in table still applies.
// Malformed rows are counted and skipped, never fatal.
func LoadSynonymsFile(path string) ([]entities.SynonymEntry, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Warn("Synonyms file not found, using built-in table only", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open synonyms file %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close synonyms file", "error", err)
		}
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var entries []entities.SynonymEntry
	skipped := 0
	line := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		line++

		if line == 1 && len(record) >= 2 && Clean(record[0]) == "alias" {
			continue // header row
		}
		if len(record) < 2 || Clean(record[0]) == "" || Clean(record[1]) == "" {
			skipped++
			continue
		}

		entries = append(entries, entities.SynonymEntry{Alias: record[0], Canonical: record[1]})
	}

	if skipped > 0 {
		logging.Info("Synonyms file skip statistics", "path", path, "skipped", skipped, "loaded", len(entries))
	}

	return entries, nil
}
