package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
)

// Scheduler reruns a job on a cron schedule. It backs the periodic full
// reindex that keeps the shared index converging even when individual change
// pushes were missed.
type Scheduler struct {
	Expr   *cronexpr.Expression
	Job    func(ctx context.Context) error
	Logger *log.Logger

	// Now is overridable for tests.
	Now func() time.Time
}

// NewScheduler parses spec as a cron expression and binds it to job.
func NewScheduler(spec string, job func(ctx context.Context) error) (*Scheduler, error) {
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	return &Scheduler{
		Expr:   expr,
		Job:    job,
		Logger: log.New(log.Writer(), "[SCHED] ", log.LstdFlags),
		Now:    time.Now,
	}, nil
}

// Run fires the job at every scheduled time until ctx is cancelled. Job
// failures are logged and the schedule keeps going.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := s.Expr.Next(s.Now())
		if next.IsZero() {
			return
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if err := s.Job(ctx); err != nil {
			s.Logger.Printf("scheduled job: %v", err)
		}
	}
}
