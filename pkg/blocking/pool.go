// Package blocking dispatches slow, synchronous storage work onto a
// bounded set of slots so multi-step transactions and full scans cannot
// starve concurrent request handling. Point reads and writes do not come
// through here.
package blocking

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/ssargent/skulddb/pkg/metrics"
)

// Pool is a fixed number of blocking-capable slots plus an in-flight gauge
// per operation name.
type Pool struct {
	sem  *semaphore.Weighted
	sink metrics.Sink
}

// NewPool creates a pool with the given number of slots.
func NewPool(slots int64, sink metrics.Sink) *Pool {
	return &Pool{sem: semaphore.NewWeighted(slots), sink: sink}
}

// Run executes fn on an acquired slot. Acquisition honors ctx, but once fn
// starts it runs to completion; callers that time out must discard the
// result rather than interrupt it. The gauge is decremented unconditionally
// when fn returns, error or not.
func (p *Pool) Run(ctx context.Context, operation string, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	p.sink.BlockingStarted(operation)
	defer func() {
		p.sink.BlockingFinished(operation)
		p.sem.Release(1)
	}()

	return fn()
}

// Run executes fn on a slot of p and returns its result. Free function
// because methods cannot introduce type parameters.
func Run[T any](ctx context.Context, p *Pool, operation string, fn func() (T, error)) (T, error) {
	var out T
	err := p.Run(ctx, operation, func() error {
		var innerErr error
		out, innerErr = fn()
		return innerErr
	})
	return out, err
}
