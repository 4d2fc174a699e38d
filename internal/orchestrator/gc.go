package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper garbage-collects terminal jobs past the retention window on a
// fixed schedule. Running jobs are never touched.
type Sweeper struct {
	store     *JobStore
	retention time.Duration
	schedule  string
	cron      *cron.Cron
}

// NewSweeper creates a retention sweeper. The schedule accepts cron
// expressions and descriptors like "@every 10m".
func NewSweeper(store *JobStore, retention time.Duration, schedule string) *Sweeper {
	return &Sweeper{
		store:     store,
		retention: retention,
		schedule:  schedule,
		cron:      cron.New(),
	}
}

// Start registers and starts the sweep schedule
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.Sweep); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()

	slog.Info("Job retention sweeper started",
		"schedule", s.schedule,
		"retention", s.retention,
	)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish,
// bounded by the supplied context.
func (s *Sweeper) Stop(ctx context.Context) {
	stopped := s.cron.Stop()

	select {
	case <-stopped.Done():
	case <-ctx.Done():
		slog.Warn("Timeout waiting for sweep to finish")
	}

	slog.Info("Job retention sweeper stopped")
}

// Sweep prunes terminal jobs last updated before the retention cutoff
func (s *Sweeper) Sweep() {
	cutoff := time.Now().UTC().Add(-s.retention)

	removed := s.store.Prune(cutoff)
	if removed > 0 {
		slog.Info("Pruned expired jobs",
			"removed", removed,
			"remaining", s.store.Len(),
		)
	}
}
