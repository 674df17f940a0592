package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/rulesweb/internal/cache"
	"git.home.luguber.info/inful/rulesweb/internal/logfields"
)

const cleanJobName = "cache-clean"

// Scheduler wraps gocron for the periodic maintenance jobs of the site.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// ScheduleCacheClean runs cleaner every interval. Overlapping runs are skipped.
func (s *Scheduler) ScheduleCacheClean(ctx context.Context, cleaner *cache.Cleaner, interval time.Duration) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runClean, ctx, cleaner),
		gocron.WithName(cleanJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create cache clean job: %w", err)
	}
	return job.ID().String(), nil
}

func (s *Scheduler) runClean(ctx context.Context, cleaner *cache.Cleaner) {
	removed, err := cleaner.Clean(ctx)
	if err != nil {
		s.logger.Warn("Scheduled cache clean failed", logfields.Job(cleanJobName), logfields.Error(err))
		return
	}
	s.logger.Debug("Scheduled cache clean finished", logfields.Job(cleanJobName), logfields.Count(removed))
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
