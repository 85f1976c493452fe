// Package scheduler runs the digest job once at startup and then daily on
// a cron spec. It is a thin shell around the pipeline: run outcomes are
// logged and the loop keeps going.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"crypto-digest-bot/internal/logger"
)

// Job is one complete digest run.
type Job func(ctx context.Context) error

// Scheduler manages the daily cron trigger.
type Scheduler struct {
	cron *cron.Cron
	job  Job
	ctx  context.Context
}

// New creates a scheduler bound to ctx; the context is handed to every run.
func New(ctx context.Context, job Job) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		job:  job,
		ctx:  ctx,
	}
}

// Register adds the daily trigger (six-field cron spec with seconds).
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.cron.AddFunc(dailyCron, s.runOnce); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info(s.ctx, "Scheduler started")
}

// Stop stops the cron loop gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	logger.Info(s.ctx, "Scheduler stopped")
}

// RunNow executes the job immediately (startup run and manual trigger).
func (s *Scheduler) RunNow() {
	s.runOnce()
}

func (s *Scheduler) runOnce() {
	if err := s.job(s.ctx); err != nil {
		logger.ErrorWithErr(s.ctx, "Digest run failed", err)
	}
}
