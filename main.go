package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "net/http/pprof"

	"github.com/medsafe/medsafe-api/breaker"
	"github.com/medsafe/medsafe-api/config"
	"github.com/medsafe/medsafe-api/data"
	"github.com/medsafe/medsafe-api/entities"
	"github.com/medsafe/medsafe-api/handlers"
	"github.com/medsafe/medsafe-api/health"
	"github.com/medsafe/medsafe-api/interactionsparser"
	"github.com/medsafe/medsafe-api/interfaces"
	"github.com/medsafe/medsafe-api/logging"
	"github.com/medsafe/medsafe-api/metrics"
	"github.com/medsafe/medsafe-api/narrative"
	"github.com/medsafe/medsafe-api/normalizer"
	"github.com/medsafe/medsafe-api/pipeline"
	"github.com/medsafe/medsafe-api/recognizer"
	"github.com/medsafe/medsafe-api/rules"
	"github.com/medsafe/medsafe-api/scheduler"
	"github.com/medsafe/medsafe-api/server"
	"github.com/medsafe/medsafe-api/store"
	"github.com/medsafe/medsafe-api/validation"
)

func init() {
	// Read the env variables from the working directory, falling back to the
	// executable directory for service deployments.
	if err := godotenv.Load(); err != nil {
		ex, err := os.Executable()
		if err != nil {
			logging.Error("Failed to get executable path", "error", err.Error())
			os.Exit(1)
		}
		if err := os.Chdir(filepath.Dir(ex)); err != nil {
			logging.Error("Failed to change directory", "error", err.Error())
			os.Exit(1)
		}
		_ = godotenv.Load()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error("Invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	logging.InitLogger("logs")

	// Name synonyms: built-in table plus the optional extra file.
	extraSynonyms, err := normalizer.LoadSynonymsFile(cfg.SynonymsFile)
	if err != nil {
		logging.Error("Failed to load synonyms file", "error", err.Error())
		os.Exit(1)
	}
	norm := normalizer.New(extraSynonyms)

	// The interaction index builds exactly once, before the server accepts
	// traffic. A failed build is fatal: the engine is useless without it.
	index := data.NewIndexContainer()
	err = index.Init(func() ([]entities.InteractionRecord, int, error) {
		records, stats, err := interactionsparser.ParseInteractions(cfg.InteractionsFile, norm)
		return records, stats.Skipped(), err
	})
	if err != nil {
		logging.Error("Failed to build interaction index", "error", err.Error())
		os.Exit(1)
	}
	metrics.InteractionIndexRecords.Set(float64(index.Stats().RecordCount))

	reportStore, err := store.New(cfg.DatabaseFile)
	if err != nil {
		logging.Error("Failed to open report store", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := reportStore.Close(); err != nil {
			logging.Warn("Failed to close report store", "error", err.Error())
		}
	}()

	var (
		docRecognizer interfaces.DocumentRecognizer
		narrativeGen  interfaces.NarrativeGenerator
		breakers      []*breaker.Breaker
	)
	if cfg.RecognizerURL != "" {
		b := breaker.New("recognizer", cfg.BreakerThreshold, cfg.BreakerCooldown)
		breakers = append(breakers, b)
		docRecognizer = recognizer.New(cfg.RecognizerURL, cfg.RecognizeTimeout, b)
	}
	if cfg.NarrativeURL != "" {
		b := breaker.New("narrative", cfg.BreakerThreshold, cfg.BreakerCooldown)
		breakers = append(breakers, b)
		narrativeGen = narrative.New(cfg.NarrativeURL, cfg.NarrativeModel, cfg.NarrativeTimeout, b)
	}

	ruleSet := rules.NewRuleSet(norm)
	pipe := pipeline.New(norm, index, ruleSet, pipeline.Options{
		Recognizer:       docRecognizer,
		Narrative:        narrativeGen,
		Store:            reportStore,
		RecognizeTimeout: cfg.RecognizeTimeout,
		NarrativeTimeout: cfg.NarrativeTimeout,
	})

	validator := validation.NewValidator()
	healthChecker := health.NewHealthChecker(index, breakers...)
	handler := handlers.New(pipe, index, norm, reportStore, validator, healthChecker)

	retention := time.Duration(cfg.ReportRetentionDays) * 24 * time.Hour
	sched := scheduler.NewScheduler(reportStore, index, retention, breakers...)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err.Error())
		os.Exit(1)
	}
	defer sched.Stop()

	srv := server.NewServer(cfg, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err.Error())
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err.Error())
	}
}
