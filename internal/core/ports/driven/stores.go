package driven

import (
	"context"

	"github.com/google/uuid"

	"github.com/custodia-labs/entsync/internal/core/domain"
)

// JobStore persists sync jobs.
type JobStore interface {
	// Create stores a new job. Returns domain.ErrAlreadyExists if the ID
	// is taken.
	Create(ctx context.Context, job domain.SyncJob) error

	// Get retrieves a job by ID. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, id uuid.UUID) (*domain.SyncJob, error)

	// UpdateStatus transitions a job and records stats and error detail.
	// Setting a terminal status also stamps CompletedAt.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus, stats domain.SyncStats, errMsg string) error

	// ListRunning returns pending or in-progress jobs for a sync.
	// Used to prevent overlapping full syncs from racing incremental runs.
	ListRunning(ctx context.Context, syncID uuid.UUID) ([]domain.SyncJob, error)
}

// EntityStore persists per-entity fingerprints across runs.
type EntityStore interface {
	// Get retrieves the record for (syncID, entityID).
	// Returns domain.ErrNotFound if the entity was never seen.
	Get(ctx context.Context, syncID uuid.UUID, entityID string) (*domain.EntityRecord, error)

	// Save stores or updates a record.
	Save(ctx context.Context, record domain.EntityRecord) error

	// Delete removes a record.
	Delete(ctx context.Context, syncID uuid.UUID, entityID string) error

	// ListIDs returns all entity IDs recorded for a sync.
	// Used by full-sync orphan reconciliation.
	ListIDs(ctx context.Context, syncID uuid.UUID) ([]string, error)
}

// ConnectionStore persists source/destination connections.
type ConnectionStore interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Connection, error)
	Save(ctx context.Context, conn domain.Connection) error
}

// CredentialsStore persists credential bundles.
// Encryption at rest belongs behind this port, not in the core.
type CredentialsStore interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Credentials, error)
	Save(ctx context.Context, creds domain.Credentials) error
}

// SyncStore persists sync configurations.
type SyncStore interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Sync, error)
	Save(ctx context.Context, sync domain.Sync) error
}
