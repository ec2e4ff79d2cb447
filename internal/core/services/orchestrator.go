package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
	"github.com/custodia-labs/entsync/internal/core/ports/driving"
)

// orphanBatchSize bounds how many orphaned IDs are reconciled between
// cancellation checks.
const orphanBatchSize = 100

// Orchestrator drives one sync run: it pulls entities from the source,
// fans them out to the worker pool, reconciles orphans on full syncs, and
// records the job's terminal status.
//
// A job never stays in progress: every exit path, including stream errors
// and cancellation, writes a terminal status before Run returns.
type Orchestrator struct {
	sc        *Context
	processor *Processor
	pool      *WorkerPool
	jobs      driven.JobStore
	entities  driven.EntityStore

	mu   sync.Mutex
	seen map[string]struct{}
}

var _ driving.SyncRunner = (*Orchestrator)(nil)

// NewOrchestrator creates an orchestrator for one run.
func NewOrchestrator(sc *Context, pool *WorkerPool, jobs driven.JobStore, entities driven.EntityStore) *Orchestrator {
	return &Orchestrator{
		sc:        sc,
		processor: NewProcessor(sc, entities),
		pool:      pool,
		jobs:      jobs,
		entities:  entities,
		seen:      make(map[string]struct{}),
	}
}

// Subscribe registers a progress subscriber for this run.
func (o *Orchestrator) Subscribe() (<-chan domain.SyncStats, func()) {
	return o.sc.Progress.Subscribe()
}

// Run executes the sync to completion and returns the first fatal error.
// Per-entity failures are counted, not fatal.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.sc.Log.Info("starting %s sync", o.sc.Job.Type)

	if err := o.jobs.UpdateStatus(ctx, o.sc.Job.ID, domain.JobStatusInProgress, o.sc.Progress.Stats(), ""); err != nil {
		return fmt.Errorf("mark job in progress: %w", err)
	}

	runErr := o.run(ctx)

	o.sc.Progress.Finalize()
	o.finalize(runErr)

	if closeErr := o.sc.Source.Close(); closeErr != nil {
		o.sc.Log.Warn("closing source: %v", closeErr)
	}
	for _, dest := range o.sc.Destinations {
		if closeErr := dest.Close(); closeErr != nil {
			o.sc.Log.Warn("closing destination: %v", closeErr)
		}
	}
	return runErr
}

func (o *Orchestrator) run(ctx context.Context) error {
	if err := o.sc.Source.Validate(ctx); err != nil {
		// Double wrap keeps context.Canceled visible so a cancellation that
		// lands during validation finalizes as cancelled, not failed.
		return fmt.Errorf("%w: %w", domain.ErrSourceValidation, err)
	}

	if err := o.pull(ctx); err != nil {
		o.pool.Wait()
		return err
	}
	o.pool.Wait()

	if failures, lastErr := o.pool.Failures(); failures > 0 {
		o.sc.Log.Warn("%d entities failed, last: %v", failures, lastErr)
	}

	if o.sc.Job.Type == domain.SyncTypeFull {
		if err := o.reconcileOrphans(ctx); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// pull drains the source's entity stream into the worker pool. Submit
// blocks when the pool is saturated, which throttles the pull to the
// processing rate.
func (o *Orchestrator) pull(ctx context.Context) error {
	entities, errs := o.sc.Source.Generate(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return fmt.Errorf("source stream: %w", err)
			}

		case entity, ok := <-entities:
			if !ok {
				return nil
			}
			if !entity.Deleted && !entity.Skip {
				o.markSeen(entity.ID)
			}
			if err := o.pool.Submit(ctx, func(taskCtx context.Context) error {
				_, err := o.processor.Process(taskCtx, entity)
				return err
			}); err != nil {
				return err
			}
		}
	}
}

// reconcileOrphans deletes entities the source knew about in previous runs
// but no longer emits. Only full syncs enumerate the complete source, so
// only full syncs may treat absence as deletion.
func (o *Orchestrator) reconcileOrphans(ctx context.Context) error {
	known, err := o.entities.ListIDs(ctx, o.sc.Sync.ID)
	if err != nil {
		return fmt.Errorf("list known entities: %w", err)
	}

	var orphans []string
	o.mu.Lock()
	for _, id := range known {
		if _, ok := o.seen[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	o.mu.Unlock()

	if len(orphans) == 0 {
		return nil
	}
	o.sc.Log.Info("reconciling %d orphaned entities", len(orphans))

	for start := 0; start < len(orphans); start += orphanBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + orphanBatchSize
		if end > len(orphans) {
			end = len(orphans)
		}
		for _, id := range orphans[start:end] {
			if _, err := o.processor.Process(ctx, domain.Entity{ID: id, Deleted: true}); err != nil {
				o.sc.Log.Warn("orphan %s: %v", id, err)
			}
		}
	}
	return nil
}

// finalize writes the job's terminal status. Errors here are logged only;
// there is nothing left to fail.
func (o *Orchestrator) finalize(runErr error) {
	stats := o.sc.Progress.Stats()

	status := domain.JobStatusCompleted
	errMsg := ""
	switch {
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		status = domain.JobStatusCancelled
		errMsg = "run cancelled"
	case runErr != nil:
		status = domain.JobStatusFailed
		errMsg = runErr.Error()
	}

	// Detached context: the run context may already be cancelled, but the
	// terminal status must still land.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.jobs.UpdateStatus(ctx, o.sc.Job.ID, status, stats, errMsg); err != nil {
		o.sc.Log.Error("record terminal status %s: %v", status, err)
		return
	}

	o.sc.Log.Info("finished with status %s: %d inserted, %d updated, %d deleted, %d kept, %d skipped, %d failed",
		status, stats.Inserted, stats.Updated, stats.Deleted, stats.Kept, stats.Skipped, stats.Failed)
}

// markSeen records an entity ID observed in this run for orphan
// reconciliation.
func (o *Orchestrator) markSeen(id string) {
	o.mu.Lock()
	o.seen[id] = struct{}{}
	o.mu.Unlock()
}
