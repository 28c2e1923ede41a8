// Package scheduler bounds how many encoder subprocesses run at once. It
// is the only concurrency bound in the pipeline: every other stage
// (scan, probe, classify, validate, replace) runs unbounded on whatever
// goroutine calls it.
package scheduler

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Scheduler is a weighted counting permit with capacity maxConcurrent.
type Scheduler struct {
	sem *semaphore.Weighted
	max int64
}

// New creates a scheduler that allows at most maxConcurrent encodes to
// run simultaneously.
func New(maxConcurrent int) *Scheduler {
	return &Scheduler{
		sem: semaphore.NewWeighted(int64(maxConcurrent)),
		max: int64(maxConcurrent),
	}
}

// MaxConcurrent returns the scheduler's configured capacity.
func (s *Scheduler) MaxConcurrent() int {
	return int(s.max)
}

// Run blocks until a permit is available, runs fn while holding it, and
// releases the permit when fn returns, regardless of error.
func (s *Scheduler) Run(ctx context.Context, fn func() error) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)
	return fn()
}
