package app

import (
	"context"
	"fmt"
	"time"

	"tradeTracker/internal/ports"
)

const defaultTickInterval = 60 * time.Second

// TickFunc is the unit of work the scheduler drives.
type TickFunc func(ctx context.Context) error

// Scheduler invokes a tick function at a fixed interval, starting
// immediately, until its context is cancelled. A tick that returns an error
// or panics is logged and never terminates the schedule; the next interval
// still fires. Ticks are not guaranteed non-overlapping with their interval:
// a slow tick simply delays the next one, since ticks run on the scheduler's
// goroutine.
type Scheduler struct {
	interval time.Duration
	logger   ports.Logger
	tick     TickFunc
}

// NewScheduler creates a scheduler for the given tick function.
func NewScheduler(interval time.Duration, logger ports.Logger, tick TickFunc) (*Scheduler, error) {
	if logger == nil || tick == nil {
		return nil, fmt.Errorf("missing required dependencies for Scheduler")
	}
	if interval <= 0 {
		interval = defaultTickInterval
	}
	return &Scheduler{
		interval: interval,
		logger:   logger,
		tick:     tick,
	}, nil
}

// Run blocks, firing ticks until ctx is cancelled. The first tick fires
// immediately.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info(ctx, "scheduler: starting", map[string]interface{}{"interval": s.interval.String()})

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "scheduler: stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce executes a single tick, containing errors and panics at the tick
// boundary.
func (s *Scheduler) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, fmt.Errorf("panic: %v", r), "scheduler: tick panicked")
		}
	}()

	if err := s.tick(ctx); err != nil {
		s.logger.Error(ctx, err, "scheduler: tick failed")
	}
}
