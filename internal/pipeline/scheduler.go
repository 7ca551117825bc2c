package pipeline

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

// Scheduler invokes RunCycle on a fixed period. One scheduler per pipeline;
// cycles never overlap because RunCycle itself serializes.
type Scheduler struct {
	pipeline *Pipeline
	interval time.Duration
	timeout  time.Duration
	logger   log.Logger
}

// NewScheduler creates a scheduler. Each cycle runs under a context bounded
// by timeout so a hung collaborator cannot stall the schedule indefinitely.
func NewScheduler(p *Pipeline, interval, timeout time.Duration, logger log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Nop()
	}
	return &Scheduler{
		pipeline: p,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Interval returns the configured period between cycles.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Run blocks, firing one cycle per tick until ctx is cancelled. Intended to
// run in its own goroutine from main.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info(ctx, "scheduler started", "interval", s.interval.String(), "cycle_timeout", s.timeout.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(context.Background(), "scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	s.pipeline.RunCycle(cctx)
}
