package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/entsync/internal/logger"
)

// DefaultMaxWorkers is the default concurrency bound for a run.
const DefaultMaxWorkers = 20

// Task is one unit of work submitted to the pool.
type Task func(ctx context.Context) error

// WorkerPool runs tasks with bounded concurrency.
//
// Submit blocks when all slots are occupied, so the caller's pull loop is
// throttled to match processing throughput (backpressure, never dropped
// tasks). A panic in one task is recovered and surfaced as that task's
// failure; it never crashes the pool or sibling tasks. Cancellation is
// cooperative through the context passed to Submit.
type WorkerPool struct {
	sem        *semaphore.Weighted
	maxWorkers int

	wg sync.WaitGroup

	mu       sync.Mutex
	failures int
	lastErr  error
}

// NewWorkerPool creates a pool with the given concurrency bound.
// Non-positive values fall back to DefaultMaxWorkers.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &WorkerPool{
		sem:        semaphore.NewWeighted(int64(maxWorkers)),
		maxWorkers: maxWorkers,
	}
}

// MaxWorkers returns the concurrency bound.
func (p *WorkerPool) MaxWorkers() int {
	return p.maxWorkers
}

// Submit schedules a task, blocking until a slot is free.
// Returns ctx.Err() without scheduling if the context is cancelled while
// waiting; once a task is accepted it always runs to completion of its own
// accord (observing ctx itself).
func (p *WorkerPool) Submit(ctx context.Context, task Task) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)

		if err := p.runTask(ctx, task); err != nil {
			p.recordFailure(err)
		}
	}()
	return nil
}

// runTask executes the task, converting panics into errors.
func (p *WorkerPool) runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return task(ctx)
}

// Wait blocks until all submitted tasks have finished.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// Failures returns the number of failed tasks and the most recent failure.
func (p *WorkerPool) Failures() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures, p.lastErr
}

func (p *WorkerPool) recordFailure(err error) {
	logger.Debug("worker task failed: %v", err)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures++
	p.lastErr = err
}
