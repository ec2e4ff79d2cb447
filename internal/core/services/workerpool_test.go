package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRunsAllTasks(t *testing.T) {
	pool := NewWorkerPool(4)
	var done atomic.Int64

	for i := 0; i < 50; i++ {
		require.NoError(t, pool.Submit(context.Background(), func(context.Context) error {
			done.Add(1)
			return nil
		}))
	}
	pool.Wait()

	assert.Equal(t, int64(50), done.Load())
	failures, err := pool.Failures()
	assert.Zero(t, failures)
	assert.NoError(t, err)
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	const maxWorkers = 3
	pool := NewWorkerPool(maxWorkers)

	var mu sync.Mutex
	var active, peak int

	for i := 0; i < 20; i++ {
		require.NoError(t, pool.Submit(context.Background(), func(context.Context) error {
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			return nil
		}))
	}
	pool.Wait()

	assert.LessOrEqual(t, peak, maxWorkers)
	assert.Positive(t, peak)
}

func TestWorkerPoolRecoversPanics(t *testing.T) {
	pool := NewWorkerPool(2)

	require.NoError(t, pool.Submit(context.Background(), func(context.Context) error {
		panic("entity gone bad")
	}))
	require.NoError(t, pool.Submit(context.Background(), func(context.Context) error {
		return nil
	}))
	pool.Wait()

	failures, err := pool.Failures()
	assert.Equal(t, 1, failures)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity gone bad")
}

func TestWorkerPoolSubmitHonoursCancellation(t *testing.T) {
	pool := NewWorkerPool(1)

	release := make(chan struct{})
	require.NoError(t, pool.Submit(context.Background(), func(context.Context) error {
		<-release
		return nil
	}))

	// The only slot is occupied; a cancelled context unblocks Submit.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := pool.Submit(ctx, func(context.Context) error { return nil })
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	pool.Wait()
}

func TestWorkerPoolRecordsFailures(t *testing.T) {
	pool := NewWorkerPool(2)
	for i := 0; i < 3; i++ {
		i := i
		require.NoError(t, pool.Submit(context.Background(), func(context.Context) error {
			return fmt.Errorf("task %d failed", i)
		}))
	}
	pool.Wait()

	failures, err := pool.Failures()
	assert.Equal(t, 3, failures)
	require.Error(t, err)
}

func TestWorkerPoolDefaults(t *testing.T) {
	assert.Equal(t, DefaultMaxWorkers, NewWorkerPool(0).MaxWorkers())
	assert.Equal(t, DefaultMaxWorkers, NewWorkerPool(-5).MaxWorkers())
	assert.Equal(t, 7, NewWorkerPool(7).MaxWorkers())
}
