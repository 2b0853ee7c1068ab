package blocking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSink records gauge movements per operation.
type countingSink struct {
	mu       sync.Mutex
	started  map[string]int
	finished map[string]int
}

func newCountingSink() *countingSink {
	return &countingSink{started: map[string]int{}, finished: map[string]int{}}
}

func (c *countingSink) RecordOperation(string, bool, time.Duration) {}

func (c *countingSink) BlockingStarted(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started[op]++
}

func (c *countingSink) BlockingFinished(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished[op]++
}

func TestPool_RunsFunction(t *testing.T) {
	pool := NewPool(2, newCountingSink())

	ran := false
	err := pool.Run(context.Background(), "op", func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestPool_GaugeBalancedOnError(t *testing.T) {
	sink := newCountingSink()
	pool := NewPool(1, sink)

	wantErr := errors.New("boom")
	err := pool.Run(context.Background(), "op", func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)

	assert.Equal(t, 1, sink.started["op"])
	assert.Equal(t, 1, sink.finished["op"])
}

func TestPool_BoundsConcurrency(t *testing.T) {
	pool := NewPool(2, newCountingSink())

	var mu sync.Mutex
	inFlight, peak := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Run(context.Background(), "op", func() error {
				mu.Lock()
				inFlight++
				if inFlight > peak {
					peak = inFlight
				}
				mu.Unlock()

				time.Sleep(10 * time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, 2)
	assert.Greater(t, peak, 0)
}

func TestPool_AcquireHonorsContext(t *testing.T) {
	sink := newCountingSink()
	pool := NewPool(1, sink)

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = pool.Run(context.Background(), "slow", func() error {
			<-release
			return nil
		})
	}()

	// Wait for the slot to be taken.
	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.started["slow"] == 1
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := pool.Run(ctx, "blocked", func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The blocked call never occupied a slot, so its gauge never moved.
	assert.Equal(t, 0, sink.started["blocked"])

	close(release)
	wg.Wait()
}

func TestRun_Generic(t *testing.T) {
	pool := NewPool(1, newCountingSink())

	value, err := Run(context.Background(), pool, "op", func() (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, value)

	_, err = Run(context.Background(), pool, "op", func() (int, error) {
		return 0, errors.New("boom")
	})
	assert.Error(t, err)
}
