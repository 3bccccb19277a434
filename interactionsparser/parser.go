// Package interactionsparser loads the drug-drug interaction dataset from a
// row-oriented CSV file and turns each usable row into an immutable
// InteractionRecord with a classified severity and mechanism category.
package interactionsparser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/medsafe/medsafe-api/entities"
	"github.com/medsafe/medsafe-api/logging"
	"github.com/medsafe/medsafe-api/normalizer"
)

// ParseStats summarizes what the loader skipped. Skips are surfaced for
// observability, never raised as errors.
type ParseStats struct {
	TotalRows     int
	ParsedRecords int
	SkippedBlank  int
	SkippedShort  int
	SkippedSelf   int
}

// Skipped returns the total number of skipped rows.
func (s ParseStats) Skipped() int {
	return s.SkippedBlank + s.SkippedShort + s.SkippedSelf
}

// ParseInteractions reads the interaction CSV at path. Expected columns:
// drug A, drug B, interaction description. Drug names are canonicalized at
// load time so the index only ever sees canonical names. An unreadable file
// or unparseable stream is fatal; individual bad rows are counted and
// skipped.
func ParseInteractions(path string, n *normalizer.Normalizer) ([]entities.InteractionRecord, ParseStats, error) {
	var stats ParseStats

	f, err := os.Open(path)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to open interactions file %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close interactions file", "error", err)
		}
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var records []entities.InteractionRecord
	first := true

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read interactions file %s: %w", path, err)
		}

		if first {
			first = false
			if isHeaderRow(row) {
				continue
			}
		}
		stats.TotalRows++

		if len(row) < 3 {
			stats.SkippedShort++
			continue
		}

		drugA := n.Canonicalize(row[0])
		drugB := n.Canonicalize(row[1])
		description := row[2]

		if drugA == "" || drugB == "" || description == "" {
			stats.SkippedBlank++
			continue
		}
		if drugA == drugB {
			// A drug cannot interact with itself; these rows are data noise.
			stats.SkippedSelf++
			continue
		}

		records = append(records, entities.InteractionRecord{
			DrugA:       drugA,
			DrugB:       drugB,
			Description: description,
			Category:    ClassifyCategory(description),
			Severity:    ClassifySeverity(description),
		})
	}

	stats.ParsedRecords = len(records)

	if stats.Skipped() > 0 {
		logging.Info("Interactions file skip statistics",
			"path", path,
			"blank_fields", stats.SkippedBlank,
			"short_rows", stats.SkippedShort,
			"self_pairs", stats.SkippedSelf,
			"total_rows", stats.TotalRows,
			"records_parsed", stats.ParsedRecords)
	}

	return records, stats, nil
}

// isHeaderRow detects the conventional "Drug 1,Drug 2,Interaction Description"
// header emitted by the dataset export.
func isHeaderRow(row []string) bool {
	if len(row) < 2 {
		return false
	}
	a := normalizer.Clean(row[0])
	return a == "drug 1" || a == "drug a" || a == "drug_a"
}
