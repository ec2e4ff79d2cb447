package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/entsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/entsync/internal/core/domain"
)

type fakeEnvironment struct {
	mu         sync.Mutex
	heartbeats []string
	cancelled  chan struct{}
}

func newFakeEnvironment() *fakeEnvironment {
	return &fakeEnvironment{cancelled: make(chan struct{})}
}

func (e *fakeEnvironment) RunID() string { return "run-1" }

func (e *fakeEnvironment) Heartbeat(details string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.heartbeats = append(e.heartbeats, details)
}

func (e *fakeEnvironment) Cancelled() <-chan struct{} { return e.cancelled }

func (e *fakeEnvironment) heartbeatCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.heartbeats)
}

type fakeRunner struct {
	block chan struct{}
	err   error
}

func (r *fakeRunner) Run(ctx context.Context) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.err
}

func (r *fakeRunner) Subscribe() (<-chan domain.SyncStats, func()) {
	ch := make(chan domain.SyncStats)
	close(ch)
	return ch, func() {}
}

func TestRunSyncHeartbeatsUntilDone(t *testing.T) {
	env := newFakeEnvironment()
	activity := NewActivity(env, memory.NewJobStore(), WithHeartbeatInterval(5*time.Millisecond))

	runner := &fakeRunner{block: make(chan struct{})}
	done := make(chan error, 1)
	go func() {
		done <- activity.RunSync(context.Background(), runner, uuid.New())
	}()

	require.Eventually(t, func() bool {
		return env.heartbeatCount() >= 3
	}, time.Second, time.Millisecond)

	close(runner.block)
	require.NoError(t, <-done)
}

func TestRunSyncReturnsRunnerError(t *testing.T) {
	env := newFakeEnvironment()
	activity := NewActivity(env, memory.NewJobStore(), WithHeartbeatInterval(time.Minute))

	runner := &fakeRunner{err: domain.ErrSourceValidation}
	err := activity.RunSync(context.Background(), runner, uuid.New())
	require.ErrorIs(t, err, domain.ErrSourceValidation)
}

func TestRunSyncCancellationMarksJob(t *testing.T) {
	env := newFakeEnvironment()
	jobs := memory.NewJobStore()
	jobID := uuid.New()
	require.NoError(t, jobs.Create(context.Background(), domain.SyncJob{
		ID:     jobID,
		SyncID: uuid.New(),
		Status: domain.JobStatusInProgress,
	}))

	activity := NewActivity(env, jobs, WithHeartbeatInterval(time.Minute))
	runner := &fakeRunner{block: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		done <- activity.RunSync(context.Background(), runner, jobID)
	}()

	close(env.cancelled)
	err := <-done
	require.ErrorIs(t, err, context.Canceled)

	job, getErr := jobs.Get(context.Background(), jobID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.JobStatusCancelled, job.Status)
	assert.Equal(t, "workflow was cancelled", job.Error)
}

func TestMarkCancelledBeforeStart(t *testing.T) {
	jobs := memory.NewJobStore()
	jobID := uuid.New()
	require.NoError(t, jobs.Create(context.Background(), domain.SyncJob{
		ID:     jobID,
		SyncID: uuid.New(),
		Status: domain.JobStatusPending,
	}))

	activity := NewActivity(newFakeEnvironment(), jobs)
	require.NoError(t, activity.MarkCancelled(jobID, "workflow was cancelled"))

	job, err := jobs.Get(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCancelled, job.Status)
}

func TestMarkCancelledLeavesTerminalJobs(t *testing.T) {
	jobs := memory.NewJobStore()
	jobID := uuid.New()
	require.NoError(t, jobs.Create(context.Background(), domain.SyncJob{
		ID:     jobID,
		SyncID: uuid.New(),
		Status: domain.JobStatusCompleted,
	}))

	activity := NewActivity(newFakeEnvironment(), jobs)
	require.NoError(t, activity.MarkCancelled(jobID, "late cancel"))

	job, err := jobs.Get(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Empty(t, job.Error)
}

func TestMarkCancelledMissingJob(t *testing.T) {
	activity := NewActivity(newFakeEnvironment(), memory.NewJobStore())
	require.ErrorIs(t, activity.MarkCancelled(uuid.New(), "x"), domain.ErrNotFound)
}
