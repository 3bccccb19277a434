// Package store persists finished analysis reports in SQLite. The full
// report is stored as a JSON document next to the indexed columns used for
// listing and retention.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/medsafe/medsafe-api/entities"
	"github.com/medsafe/medsafe-api/interfaces"
	"github.com/medsafe/medsafe-api/logging"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// ErrNotFound is returned when no report exists for a session id.
var ErrNotFound = errors.New("report not found")

// Store is the SQLite-backed report store. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

var _ interfaces.ReportStore = (*Store)(nil)

// New opens (or creates) the database at dbPath and runs pending migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL keeps readers unblocked while a report is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, err
	}
	goose.SetBaseFS(embedMigrations)

	if err := goose.Up(db, "migrations"); err != nil {
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport inserts one finished report. Session ids are unique; saving the
// same session twice is an error.
func (s *Store) SaveReport(ctx context.Context, report *entities.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report %s: %w", report.SessionID, err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO reports (session_id, medication, risk_level, payload, created_at) VALUES (?, ?, ?, ?, ?)",
		report.SessionID, report.Medication, string(report.Verdict.Level), payload, report.GeneratedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.SessionID, err)
	}
	return nil
}

// GetReport loads one report by session id.
func (s *Store) GetReport(ctx context.Context, sessionID string) (*entities.Report, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM reports WHERE session_id = ?", sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", sessionID, err)
	}

	var report entities.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", sessionID, err)
	}
	return &report, nil
}

// ListRecent returns the newest reports, most recent first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]entities.ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id, medication, risk_level, created_at FROM reports ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	summaries := make([]entities.ReportSummary, 0, limit)
	for rows.Next() {
		var s entities.ReportSummary
		var level string
		if err := rows.Scan(&s.SessionID, &s.Medication, &level, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		s.RiskLevel = entities.Severity(level)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// PurgeOlderThan deletes reports created before the cutoff and returns the
// number removed.
func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge reports: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logging.Info("Purged expired reports", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
	return deleted, nil
}
