// Package scheduler provides background maintenance for the MedSafe API:
// nightly purging of expired reports and a watchdog over the interaction
// index and circuit breakers, coordinated with gocron.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/medsafe/medsafe-api/breaker"
	"github.com/medsafe/medsafe-api/interfaces"
	"github.com/medsafe/medsafe-api/logging"
	"github.com/medsafe/medsafe-api/metrics"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler runs the background maintenance jobs.
type Scheduler struct {
	store     interfaces.ReportStore
	index     interfaces.InteractionIndex
	breakers  []*breaker.Breaker
	retention time.Duration
	scheduler *gocron.Scheduler
	done      chan struct{}
}

// NewScheduler creates a new scheduler instance with injected dependencies.
// retention is how long persisted reports are kept.
func NewScheduler(store interfaces.ReportStore, index interfaces.InteractionIndex,
	retention time.Duration, breakers ...*breaker.Breaker) *Scheduler {
	return &Scheduler{
		store:     store,
		index:     index,
		breakers:  breakers,
		retention: retention,
		scheduler: gocron.NewScheduler(time.Local),
		done:      make(chan struct{}),
	}
}

// Start schedules the retention purge and starts the watchdog.
func (s *Scheduler) Start() error {
	// Purge once at startup so restarts don't accumulate expired reports.
	s.purgeExpiredReports()

	_, err := s.scheduler.Every(1).Days().At("03:00").Do(func() {
		s.purgeExpiredReports()
	})
	if err != nil {
		logging.Error("Failed to schedule report purge", "error", err)
		return fmt.Errorf("failed to schedule report purge: %w", err)
	}

	s.scheduler.StartAsync()

	s.startWatchdog()

	return nil
}

// Stop stops the scheduler and the watchdog.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	close(s.done)
}

// purgeExpiredReports deletes reports older than the retention window.
func (s *Scheduler) purgeExpiredReports() {
	if s.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.retention)
	deleted, err := s.store.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		logging.Error("Report purge failed", "error", err.Error())
		return
	}

	logging.Info("Report purge complete",
		"deleted", deleted,
		"retention_days", int(s.retention.Hours()/24))
}

// startWatchdog periodically checks the index and breaker state and keeps the
// related gauges current.
func (s *Scheduler) startWatchdog() {
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				if !s.index.Ready() {
					logging.Warn("Interaction index is still not ready")
				}
				metrics.InteractionIndexRecords.Set(float64(s.index.Stats().RecordCount))

				for _, b := range s.breakers {
					metrics.SetBreakerState(b.Name(), string(b.State()))
					if b.State() == breaker.StateOpen {
						logging.Warn("Circuit breaker remains open",
							"breaker", b.Name(),
							"consecutive_failures", b.Failures())
					}
				}
			}
		}
	}()
}
