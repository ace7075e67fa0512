package runner

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// Pool bounds how many invocations run at once. Callers beyond the limit
// wait until a worker frees up or their context ends.
type Pool struct {
	runner *Runner
	pool   *ants.Pool
}

// NewPool wraps r in a pool of size workers.
func NewPool(r *Runner, size int) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("creating runner pool: %w", err)
	}
	return &Pool{runner: r, pool: p}, nil
}

// Run schedules inv on a pool worker and waits for its result. A caller
// whose ctx ends while still queued returns at once with a canceled result.
func (p *Pool) Run(ctx context.Context, inv Invocation) *Result {
	done := make(chan *Result, 1)
	submitted := make(chan error, 1)
	go func() {
		submitted <- p.pool.Submit(func() {
			if ctx.Err() != nil {
				done <- canceled(inv)
				return
			}
			done <- p.runner.Run(ctx, inv)
		})
	}()

	select {
	case err := <-submitted:
		if err != nil {
			return &Result{
				RunID:   uuid.New().String(),
				Binary:  inv.Binary,
				Outcome: Failed,
				Message: fmt.Sprintf("scheduling %s: %v", inv.Binary, err),
			}
		}
		// The runner honours ctx once the task is running.
		return <-done
	case <-ctx.Done():
		return canceled(inv)
	}
}

func canceled(inv Invocation) *Result {
	return &Result{
		RunID:   uuid.New().String(),
		Binary:  inv.Binary,
		Outcome: Failed,
		Message: "canceled",
		Timeout: inv.Timeout,
	}
}

// Running returns the number of invocations currently executing.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Release stops accepting work and frees the workers.
func (p *Pool) Release() {
	p.pool.Release()
}
