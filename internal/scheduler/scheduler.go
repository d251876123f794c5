// Package scheduler runs the periodic maintenance jobs of the notification
// backend.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultRetention is how long notifications are kept.
	DefaultRetention = 7 * 24 * time.Hour
	// DefaultCleanupHour is the local hour at which the daily cleanup runs.
	DefaultCleanupHour = 3

	cleanupTimeout = 5 * time.Minute
)

// Cleaner removes notifications older than a retention period.
type Cleaner interface {
	CleanupOld(ctx context.Context, retention time.Duration) (int64, error)
}

// Config holds the scheduler configuration.
type Config struct {
	Cleaner   Cleaner
	Retention time.Duration
	// CleanupHour is the hour of day (0-23) the cleanup runs at.
	CleanupHour int
	// Clock drives gocron; tests pass a fake clock.
	Clock  clockwork.Clock
	Logger *slog.Logger
}

// Scheduler manages maintenance jobs using gocron.
type Scheduler struct {
	cron   gocron.Scheduler
	cfg    Config
	logger *slog.Logger

	mu          sync.Mutex
	jobID       uuid.UUID
	lastRun     time.Time
	lastDeleted int64
}

// New creates a new Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Cleaner == nil {
		return nil, fmt.Errorf("scheduler: cleaner is required")
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.CleanupHour < 0 || cfg.CleanupHour > 23 {
		return nil, fmt.Errorf("scheduler: cleanup hour %d out of range", cfg.CleanupHour)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := []gocron.SchedulerOption{gocron.WithLocation(time.Local)}
	if cfg.Clock != nil {
		opts = append(opts, gocron.WithClock(cfg.Clock))
	}
	cron, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}

	return &Scheduler{cron: cron, cfg: cfg, logger: cfg.Logger}, nil
}

// Start schedules the daily cleanup and starts the gocron scheduler.
func (s *Scheduler) Start(_ context.Context) error {
	job, err := s.cron.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(
			uint(s.cfg.CleanupHour), //nolint:gosec // bounds checked in New
			0, 0,
		))),
		gocron.NewTask(s.runCleanup),
		gocron.WithName("notification-cleanup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("scheduling notification cleanup: %w", err)
	}

	s.mu.Lock()
	s.jobID = job.ID()
	s.mu.Unlock()

	s.cron.Start()
	next, _ := job.NextRun()
	s.logger.Info("maintenance scheduler started",
		"retention", s.cfg.Retention, "next_cleanup", next)
	return nil
}

// Stop shuts down the gocron scheduler.
func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}

// NextCleanup returns when the cleanup job runs next.
func (s *Scheduler) NextCleanup() (time.Time, error) {
	s.mu.Lock()
	id := s.jobID
	s.mu.Unlock()

	for _, j := range s.cron.Jobs() {
		if j.ID() == id {
			return j.NextRun()
		}
	}
	return time.Time{}, fmt.Errorf("cleanup job not scheduled")
}

// LastCleanup returns the time and result of the last successful cleanup.
func (s *Scheduler) LastCleanup() (time.Time, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastDeleted
}

func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.cfg.Cleaner.CleanupOld(ctx, s.cfg.Retention)
	if err != nil {
		s.logger.Error("notification cleanup failed", "error", err)
		return
	}

	s.mu.Lock()
	s.lastRun = start
	s.lastDeleted = n
	s.mu.Unlock()

	s.logger.Info("notification cleanup finished",
		"deleted", n, "retention", s.cfg.Retention, "duration", time.Since(start))
}
