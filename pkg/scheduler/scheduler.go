// Package scheduler runs the daily investigation cycle on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/unneeks/stewardagent/pkg/governance"
	"github.com/unneeks/stewardagent/pkg/investigation"
)

// Cycler runs one investigation cycle.
type Cycler interface {
	RunCycle(ctx context.Context, date string) (*investigation.CycleResult, error)
}

// Config configures the scheduler.
type Config struct {
	// Schedule is a standard five-field cron expression. Empty disables the
	// scheduler.
	Schedule string

	// DateFunc returns the date a tick investigates. Defaults to the
	// current UTC day.
	DateFunc func() string

	// BeforeCycle runs ahead of every cycle, e.g. to load the day's scores.
	BeforeCycle func(ctx context.Context, date string) error
}

// Scheduler runs cycles on a schedule. Ticks never overlap: a tick that
// fires while a cycle is in flight is skipped.
type Scheduler struct {
	cycler  Cycler
	config  Config
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool

	inFlight atomic.Bool
	skipped  atomic.Int64
}

// New creates a scheduler.
func New(c Cycler, cfg Config) *Scheduler {
	if cfg.DateFunc == nil {
		cfg.DateFunc = func() string { return governance.FormatDate(time.Now()) }
	}
	return &Scheduler{
		cycler: c,
		config: cfg,
		cron:   cron.New(),
		logger: slog.Default().With("component", "scheduler"),
	}
}

// Start begins scheduled cycles. Common expressions:
//   - "0 6 * * *"    - daily at 6 AM
//   - "*/15 * * * *" - every 15 minutes (demo)
//
// An empty schedule is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Schedule == "" {
		s.logger.Info("cycle schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.config.Schedule, err)
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.RunNow(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule cycle: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("cycle scheduler started", "schedule", s.config.Schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// RunNow runs one cycle unless another is in flight. It reports whether a
// cycle ran.
func (s *Scheduler) RunNow(ctx context.Context) bool {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		s.logger.Warn("previous cycle still running, skipping tick")
		return false
	}
	defer s.inFlight.Store(false)

	date := s.config.DateFunc()
	s.logger.Info("starting scheduled cycle", "date", date)

	if s.config.BeforeCycle != nil {
		if err := s.config.BeforeCycle(ctx, date); err != nil {
			s.logger.Error("pre-cycle hook failed", "date", date, "error", err)
			return true
		}
	}

	res, err := s.cycler.RunCycle(ctx, date)
	if err != nil {
		s.logger.Error("scheduled cycle failed", "date", date, "error", err)
		return true
	}
	s.logger.Info("scheduled cycle completed", "date", date, "outcome", res.Outcome)
	return true
}

// Skipped returns the number of ticks skipped because a cycle was running.
func (s *Scheduler) Skipped() int64 {
	return s.skipped.Load()
}

// Stop stops the scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("cycle scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled cycle time.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
