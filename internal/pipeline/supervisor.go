package pipeline

import (
	"context"
	"errors"

	"golang.org/x/sync/semaphore"
)

// ErrBusy is returned by TryDo while another action is in flight.
var ErrBusy = errors.New("another pipeline action is running")

// Supervisor admits at most one pipeline action at a time, so manual
// actions and watch-triggered runs never overlap.
type Supervisor struct {
	sem *semaphore.Weighted
}

// NewSupervisor creates an idle Supervisor.
func NewSupervisor() *Supervisor {
	return &Supervisor{sem: semaphore.NewWeighted(1)}
}

// Do waits for the slot and runs fn. It returns ctx.Err() if the context
// ends first.
func (s *Supervisor) Do(ctx context.Context, fn func(ctx context.Context)) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	fn(ctx)

	return nil
}

// TryDo runs fn only if no other action is in flight; otherwise it returns
// ErrBusy without waiting.
func (s *Supervisor) TryDo(ctx context.Context, fn func(ctx context.Context)) error {
	if !s.sem.TryAcquire(1) {
		return ErrBusy
	}
	defer s.sem.Release(1)

	fn(ctx)

	return nil
}
