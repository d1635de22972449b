package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/met-climate-etl/internal/domain"
	"github.com/couchcryptid/met-climate-etl/internal/pipeline"
	"github.com/go-co-op/gocron"
)

// Runner executes one ingestion run.
type Runner interface {
	Run(ctx context.Context) (domain.RunSummary, error)
}

// Scheduler repeats ingestion runs at a fixed interval. The first run starts
// immediately and runs never overlap.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a Scheduler.
func New(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the job and starts the scheduler in the background. Runs
// use ctx, so cancelling it aborts the run in progress.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler: interval must be positive, got %s", s.interval)
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		if ctx.Err() != nil {
			return
		}
		s.logger.Info("scheduled run starting", "interval", s.interval)
		if _, err := s.runner.Run(ctx); err != nil {
			switch {
			case errors.Is(err, pipeline.ErrRunInProgress):
				s.logger.Warn("scheduled run skipped", "reason", err)
			case ctx.Err() != nil:
				s.logger.Info("scheduled run cancelled")
			default:
				s.logger.Error("scheduled run failed", "error", err)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "interval", s.interval)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
