package config

import (
	"os"
	"testing"
	"time"
)

func cleanupEnv() {
	vars := []string{
		"PORT", "ADDRESS", "ENV", "LOG_LEVEL",
		"INTERACTIONS_FILE", "SYNONYMS_FILE", "DATABASE_FILE",
		"RECOGNIZER_URL", "NARRATIVE_URL", "NARRATIVE_MODEL",
		"RECOGNIZE_TIMEOUT", "NARRATIVE_TIMEOUT",
		"BREAKER_THRESHOLD", "BREAKER_COOLDOWN",
		"REPORT_RETENTION_DAYS", "MAX_REQUEST_BODY", "MAX_HEADER_SIZE",
	}
	for _, v := range vars {
		_ = os.Unsetenv(v)
	}
}

func TestLoadValidConfig(t *testing.T) {
	cleanupEnv()
	_ = os.Setenv("PORT", "8002")
	_ = os.Setenv("ADDRESS", "127.0.0.1")
	_ = os.Setenv("ENV", "test")
	_ = os.Setenv("LOG_LEVEL", "debug")
	_ = os.Setenv("RECOGNIZE_TIMEOUT", "3s")
	_ = os.Setenv("BREAKER_THRESHOLD", "5")
	defer cleanupEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8002" {
		t.Errorf("Expected port 8002, got %s", cfg.Port)
	}
	if cfg.Env != "test" {
		t.Errorf("Expected env test, got %s", cfg.Env)
	}
	if cfg.RecognizeTimeout != 3*time.Second {
		t.Errorf("Expected 3s recognize timeout, got %s", cfg.RecognizeTimeout)
	}
	if cfg.BreakerThreshold != 5 {
		t.Errorf("Expected breaker threshold 5, got %d", cfg.BreakerThreshold)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %s", cfg.Port)
	}
	if cfg.InteractionsFile != "files/interactions.csv" {
		t.Errorf("Unexpected default interactions file: %s", cfg.InteractionsFile)
	}
	if cfg.BreakerThreshold != 3 {
		t.Errorf("Expected default breaker threshold 3, got %d", cfg.BreakerThreshold)
	}
	if cfg.BreakerCooldown != 30*time.Second {
		t.Errorf("Expected default breaker cooldown 30s, got %s", cfg.BreakerCooldown)
	}
	if cfg.ReportRetentionDays != 90 {
		t.Errorf("Expected default retention 90 days, got %d", cfg.ReportRetentionDays)
	}
	if cfg.RecognizerURL != "" || cfg.NarrativeURL != "" {
		t.Error("External collaborators must be disabled by default")
	}
}

func TestLoadInvalidPort(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	for _, port := range []string{"0", "65536", "80", "abc"} {
		_ = os.Setenv("PORT", port)
		if _, err := Load(); err == nil {
			t.Errorf("Expected error for PORT=%s", port)
		}
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	_ = os.Setenv("ENV", "production-ish")
	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown ENV")
	}
}

func TestLoadInvalidLogLevel(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	_ = os.Setenv("LOG_LEVEL", "verbose")
	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown LOG_LEVEL")
	}
}

func TestLoadInvalidBreakerSettings(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	_ = os.Setenv("BREAKER_THRESHOLD", "0")
	if _, err := Load(); err == nil {
		t.Error("Expected error for zero breaker threshold")
	}
	cleanupEnv()

	_ = os.Setenv("BREAKER_COOLDOWN", "100ms")
	if _, err := Load(); err == nil {
		t.Error("Expected error for sub-second breaker cooldown")
	}
}

func TestLoadInvalidRetention(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	_ = os.Setenv("REPORT_RETENTION_DAYS", "0")
	if _, err := Load(); err == nil {
		t.Error("Expected error for zero retention")
	}
}

func TestLoadPublicAddressRejected(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	_ = os.Setenv("ADDRESS", "8.8.8.8")
	if _, err := Load(); err == nil {
		t.Error("Expected error for public ADDRESS")
	}
}
