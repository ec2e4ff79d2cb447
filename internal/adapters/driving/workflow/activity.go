// Package workflow adapts sync runs to an external workflow engine: it
// supervises a run with heartbeats and translates engine cancellation into
// run cancellation with a recorded terminal status.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
	"github.com/custodia-labs/entsync/internal/core/ports/driving"
	"github.com/custodia-labs/entsync/internal/logger"
)

// DefaultHeartbeatInterval is how often the activity reports liveness.
const DefaultHeartbeatInterval = time.Second

// Activity runs a sync under workflow supervision.
type Activity struct {
	env      driven.WorkflowEnvironment
	jobs     driven.JobStore
	interval time.Duration
}

// Option configures the activity.
type Option func(*Activity)

// WithHeartbeatInterval overrides the heartbeat cadence.
func WithHeartbeatInterval(interval time.Duration) Option {
	return func(a *Activity) {
		if interval > 0 {
			a.interval = interval
		}
	}
}

// NewActivity creates an activity bound to a workflow environment.
func NewActivity(env driven.WorkflowEnvironment, jobs driven.JobStore, opts ...Option) *Activity {
	a := &Activity{
		env:      env,
		jobs:     jobs,
		interval: DefaultHeartbeatInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RunSync executes the runner, heartbeating while it works. Engine
// cancellation cancels the run context, waits for the runner to wind down,
// and confirms the job's cancelled status.
func (a *Activity) RunSync(ctx context.Context, runner driving.SyncRunner, jobID uuid.UUID) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stats, unsubscribe := runner.Subscribe()
	defer unsubscribe()

	done := make(chan error, 1)
	go func() {
		done <- runner.Run(runCtx)
	}()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	var latest domain.SyncStats
	for {
		select {
		case err := <-done:
			return err

		case snapshot, ok := <-stats:
			if ok {
				latest = snapshot
			} else {
				stats = nil
			}

		case <-ticker.C:
			a.env.Heartbeat(fmt.Sprintf("run %s: %d processed, %d failed",
				a.env.RunID(), latest.Processed(), latest.Failed))

		case <-a.env.Cancelled():
			logger.Info("workflow %s cancelled, stopping run", a.env.RunID())
			cancel()
			err := <-done
			// The orchestrator records its own terminal status; this is a
			// backstop for runs that died before reaching it.
			if markErr := a.MarkCancelled(jobID, "workflow was cancelled"); markErr != nil {
				logger.Warn("mark job cancelled: %v", markErr)
			}
			return err
		}
	}
}

// MarkCancelled sets the job's status to cancelled unless it already reached
// a terminal state. Used both as the RunSync backstop and for jobs whose
// workflow was cancelled before the sync activity ever started.
func (a *Activity) MarkCancelled(jobID uuid.UUID, reason string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	job, err := a.jobs.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("job %s: %w", jobID, err)
	}
	if job.Status.Terminal() {
		return nil
	}
	if err := a.jobs.UpdateStatus(ctx, jobID, domain.JobStatusCancelled, job.Stats, reason); err != nil {
		return fmt.Errorf("update job %s: %w", jobID, err)
	}
	return nil
}
