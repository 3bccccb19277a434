package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// RotatingWriter writes log output to one file per ISO week, rotating to a
// numbered suffix when the current file exceeds maxFileSize, and deletes
// files older than the retention window.
type RotatingWriter struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64

	mu          sync.Mutex
	currentFile *os.File
	currentWeek string
	currentSize int64
	sequence    int
	lastCleanup time.Time
}

// NewRotatingWriter creates a rotating log writer. retentionWeeks bounds how
// long old files are kept; maxFileSize bounds individual file size.
func NewRotatingWriter(logDir string, retentionWeeks int, maxFileSize int64) *RotatingWriter {
	return &RotatingWriter{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
	}
}

// weekKey returns the ISO week key in YYYY-Www format.
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Write implements io.Writer. Rotation happens inline on week change or when
// the size limit would be exceeded.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	week := weekKey(time.Now())
	needsRotation := rw.currentFile == nil || rw.currentWeek != week
	if !needsRotation && rw.maxFileSize > 0 && rw.currentSize+int64(len(p)) > rw.maxFileSize {
		needsRotation = true
	}

	if needsRotation {
		if err := rw.rotate(week); err != nil {
			return 0, err
		}
	}

	n, err := rw.currentFile.Write(p)
	rw.currentSize += int64(n)

	if time.Since(rw.lastCleanup) > 24*time.Hour {
		rw.cleanupOldFiles()
		rw.lastCleanup = time.Now()
	}

	return n, err
}

// rotate opens the next log file for the given week. Caller holds the lock.
func (rw *RotatingWriter) rotate(week string) error {
	if rw.currentFile != nil {
		if err := rw.currentFile.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
	}

	if rw.currentWeek != week {
		rw.sequence = 0
		rw.currentWeek = week
	} else {
		rw.sequence++
	}

	name := fmt.Sprintf("app-%s.log", week)
	if rw.sequence > 0 {
		name = fmt.Sprintf("app-%s_%02d.log", week, rw.sequence)
	}

	path := filepath.Join(rw.logDir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	rw.currentFile = file
	rw.currentSize = 0
	if info, err := file.Stat(); err == nil {
		rw.currentSize = info.Size()
	}

	return nil
}

// cleanupOldFiles removes log files past the retention window. Best effort.
func (rw *RotatingWriter) cleanupOldFiles() {
	matches, err := filepath.Glob(filepath.Join(rw.logDir, "app-*.log"))
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-rw.retention)
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(match); err != nil {
				slog.Warn("Failed to remove expired log file", "file", match, "error", err)
			}
		}
	}
}

// Close closes the current log file.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.currentFile == nil {
		return nil
	}
	err := rw.currentFile.Close()
	rw.currentFile = nil
	return err
}

// SetupLogger builds the application slog.Logger. Output goes to stdout and,
// when logDir is non-empty, to a weekly rotating file in that directory.
func SetupLogger(logDir string) *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	var w io.Writer = os.Stdout
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			slog.Warn("Failed to create log directory, logging to console only", "dir", logDir, "error", err)
		} else {
			retentionWeeks := 4
			maxSize := int64(100 * 1024 * 1024)
			w = io.MultiWriter(os.Stdout, NewRotatingWriter(logDir, retentionWeeks, maxSize))
		}
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
