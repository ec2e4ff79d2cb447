package domain

import (
	"time"

	"github.com/google/uuid"
)

// SyncType selects the reconciliation behaviour of a run.
type SyncType string

// Sync types.
const (
	// SyncTypeIncremental processes what the source reports and never
	// deletes records the source omitted.
	SyncTypeIncremental SyncType = "incremental"

	// SyncTypeFull additionally deletes previously-seen entities absent
	// from the current run (orphan reconciliation).
	SyncTypeFull SyncType = "full"
)

// Sync is a sync configuration: one source connection feeding one or more
// destinations through a DAG.
type Sync struct {
	ID                 uuid.UUID
	Name               string
	SourceConnectionID uuid.UUID
	CreatedAt          time.Time
}

// JobStatus is the lifecycle state of a sync job.
type JobStatus string

// Sync job statuses. A job is created pending, moves to in_progress when the
// orchestrator starts, and ends in exactly one terminal status.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// SyncJob records the intent and outcome of one run.
// Mutated only by the orchestrator and the cancellation path.
type SyncJob struct {
	ID          uuid.UUID
	SyncID      uuid.UUID
	Status      JobStatus
	Type        SyncType
	Stats       SyncStats
	Error       string
	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// SyncStats holds the aggregate counters of a run.
// Counters only grow; they are updated through the progress tracker.
type SyncStats struct {
	Inserted int64
	Updated  int64
	Deleted  int64
	Kept     int64
	Skipped  int64
	Failed   int64
}

// Processed returns the total number of entities that reached a terminal
// outcome.
func (s SyncStats) Processed() int64 {
	return s.Inserted + s.Updated + s.Deleted + s.Kept + s.Skipped + s.Failed
}

// RunParams are the serialized parameters the workflow engine hands to the
// sync activity.
type RunParams struct {
	SyncID uuid.UUID
	JobID  uuid.UUID
	Type   SyncType

	// AccessToken optionally carries a pre-resolved token injected by the
	// caller, bypassing the credentials store for the initial token.
	AccessToken string
}
