package crank

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler runs prediction cycles on a cron schedule.
type Scheduler struct {
	cron  *cron.Cron
	crank *Crank
	ctx   context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, c *Crank) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		crank: c,
		ctx:   ctx,
	}
}

// Register adds the cycle task under the given cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.cycleTask); err != nil {
		return fmt.Errorf("register cycle task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunCycleNow executes one cycle immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunCycleNow() {
	s.cycleTask()
}

func (s *Scheduler) cycleTask() {
	if s.ctx.Err() != nil {
		return
	}
	res, err := s.crank.RunCycle(s.ctx)
	if err != nil {
		log.Printf("[ERROR] cycle: %v", err)
		return
	}
	log.Printf("[INFO] cycle complete: slot=%d wire=%d", res.Slot, res.Wire)
}
