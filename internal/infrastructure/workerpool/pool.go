package workerpool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrSaturated is returned when no worker frees up before the task deadline.
var ErrSaturated = errors.New("worker pool saturated")

// Pool bounds the number of blocking tasks running at once. Every task gets
// its own deadline that also covers the wait for a free slot.
type Pool struct {
	sem  *semaphore.Weighted
	size int64
}

// New creates a pool with size slots.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// Run executes task once a slot is free. The task context is cancelled after
// timeout; a task that ignores cancellation still holds its slot until it
// returns, but Run itself returns at the deadline.
func (p *Pool) Run(ctx context.Context, timeout time.Duration, task func(ctx context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %w", ErrSaturated, err)
	}

	done := make(chan error, 1)
	go func() {
		defer p.sem.Release(1)
		done <- task(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunAndWait is Run for tasks whose outcome must not be lost, such as writes.
// The task context is still cancelled after timeout, but RunAndWait returns
// only once the task has returned and reports the task's own result.
func (p *Pool) RunAndWait(ctx context.Context, timeout time.Duration, task func(ctx context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %w", ErrSaturated, err)
	}
	defer p.sem.Release(1)

	return task(ctx)
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return int(p.size)
}
