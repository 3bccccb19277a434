// Package interfaces defines the core abstractions of the MedSafe API to
// improve testability and separation of concerns.
package interfaces

import (
	"context"
	"time"

	"github.com/medsafe/medsafe-api/entities"
)

// IndexStats summarizes the built interaction index.
type IndexStats struct {
	RecordCount int
	PairCount   int
	SkippedRows int
}

// InteractionIndex is the read side of the interaction dataset. The index is
// built exactly once per process and is lock-free for readers afterwards.
type InteractionIndex interface {
	// Lookup returns every interaction record stored for the unordered pair
	// (drugX, drugY). Unknown pairs and self-pairs return an empty slice.
	Lookup(drugX, drugY string) []entities.InteractionRecord

	// Records returns all records in load order.
	Records() []entities.InteractionRecord

	Stats() IndexStats
	LastLoaded() time.Time
	Ready() bool
}

// DocumentRecognizer extracts a best-guess medication name from an image.
// Advisory only: failures and timeouts degrade the pipeline, never fail it.
type DocumentRecognizer interface {
	Recognize(ctx context.Context, image []byte) (*entities.RecognitionResult, error)
}

// NarrativeGenerator produces a human-readable summary for a finished
// report. Purely additive; its absence must not block report assembly.
type NarrativeGenerator interface {
	Summarize(ctx context.Context, report *entities.Report) (string, error)
}

// ReportStore persists finished reports for later retrieval.
type ReportStore interface {
	SaveReport(ctx context.Context, report *entities.Report) error
	GetReport(ctx context.Context, sessionID string) (*entities.Report, error)
	ListRecent(ctx context.Context, limit int) ([]entities.ReportSummary, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// Validator checks caller input before it enters the pipeline.
type Validator interface {
	ValidateProfile(profile *entities.PatientProfile) error
	ValidateMedicationName(name string) error
}

// HealthChecker reports system health for the /health endpoint.
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// Scheduler manages background maintenance jobs.
type Scheduler interface {
	Start() error
	Stop()
}
