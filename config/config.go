// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port     string
	Address  string
	Env      string
	LogLevel string

	InteractionsFile string // CSV dataset of drug-pair interactions
	SynonymsFile     string // optional CSV of extra name synonyms
	DatabaseFile     string // SQLite file for persisted reports

	RecognizerURL  string // empty disables document recognition
	NarrativeURL   string // empty disables narrative summaries
	NarrativeModel string

	RecognizeTimeout time.Duration
	NarrativeTimeout time.Duration

	BreakerThreshold int
	BreakerCooldown  time.Duration

	ReportRetentionDays int
	MaxRequestBody      int64 // Maximum request body size in bytes
	MaxHeaderSize       int64 // Maximum header size in bytes
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnvWithDefault("PORT", "8000"),
		Address:  getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:      getEnvWithDefault("ENV", "dev"),
		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		InteractionsFile: getEnvWithDefault("INTERACTIONS_FILE", "files/interactions.csv"),
		SynonymsFile:     getEnvWithDefault("SYNONYMS_FILE", ""),
		DatabaseFile:     getEnvWithDefault("DATABASE_FILE", "files/medsafe.db"),

		RecognizerURL:  getEnvWithDefault("RECOGNIZER_URL", ""),
		NarrativeURL:   getEnvWithDefault("NARRATIVE_URL", ""),
		NarrativeModel: getEnvWithDefault("NARRATIVE_MODEL", "llama3.2"),

		RecognizeTimeout: getDurationEnvWithDefault("RECOGNIZE_TIMEOUT", 5*time.Second),
		NarrativeTimeout: getDurationEnvWithDefault("NARRATIVE_TIMEOUT", 8*time.Second),

		BreakerThreshold: getIntEnvWithDefault("BREAKER_THRESHOLD", 3),
		BreakerCooldown:  getDurationEnvWithDefault("BREAKER_COOLDOWN", 30*time.Second),

		ReportRetentionDays: getIntEnvWithDefault("REPORT_RETENTION_DAYS", 90),
		MaxRequestBody:      getInt64EnvWithDefault("MAX_REQUEST_BODY", 10485760), // 10MB, images included
		MaxHeaderSize:       getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),   // 1MB default
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if strings.TrimSpace(cfg.InteractionsFile) == "" {
		return fmt.Errorf("INTERACTIONS_FILE cannot be empty")
	}

	if strings.TrimSpace(cfg.DatabaseFile) == "" {
		return fmt.Errorf("DATABASE_FILE cannot be empty")
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if cfg.RecognizeTimeout <= 0 || cfg.RecognizeTimeout > time.Minute {
		return fmt.Errorf("invalid RECOGNIZE_TIMEOUT: %s", cfg.RecognizeTimeout)
	}

	if cfg.NarrativeTimeout <= 0 || cfg.NarrativeTimeout > time.Minute {
		return fmt.Errorf("invalid NARRATIVE_TIMEOUT: %s", cfg.NarrativeTimeout)
	}

	if cfg.BreakerThreshold < 1 || cfg.BreakerThreshold > 100 {
		return fmt.Errorf("invalid BREAKER_THRESHOLD: %d", cfg.BreakerThreshold)
	}

	if cfg.BreakerCooldown < time.Second || cfg.BreakerCooldown > time.Hour {
		return fmt.Errorf("invalid BREAKER_COOLDOWN: %s", cfg.BreakerCooldown)
	}

	if cfg.ReportRetentionDays < 1 || cfg.ReportRetentionDays > 3650 {
		return fmt.Errorf("invalid REPORT_RETENTION_DAYS: %d", cfg.ReportRetentionDays)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Check for privileged ports
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env string) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []string{"dev", "staging", "prod", "test"}
	env = strings.ToLower(env)

	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault gets an environment variable as duration with a default value
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
