package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// JobStore is the SQLite-backed JobStore.
type JobStore struct {
	db *sql.DB
}

var _ driven.JobStore = (*JobStore)(nil)

// Create stores a new job.
func (s *JobStore) Create(ctx context.Context, job domain.SyncJob) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_jobs (id, sync_id, status, type, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		job.ID.String(), job.SyncID.String(), string(job.Status), string(job.Type), job.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("job %s: %w", job.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Get retrieves a job by ID.
func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*domain.SyncJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sync_id, status, type, inserted, updated, deleted, kept, skipped, failed,
		       error, created_at, started_at, completed_at
		FROM sync_jobs WHERE id = ?`, id.String())
	return scanJob(row)
}

// UpdateStatus transitions a job and records stats and error detail.
func (s *JobStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus, stats domain.SyncStats, errMsg string) error {
	now := time.Now().UTC()
	var started, completed any
	if status == domain.JobStatusInProgress {
		started = now
	}
	if status.Terminal() {
		completed = now
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sync_jobs
		SET status = ?, inserted = ?, updated = ?, deleted = ?, kept = ?, skipped = ?, failed = ?,
		    error = ?,
		    started_at = COALESCE(started_at, ?),
		    completed_at = COALESCE(?, completed_at)
		WHERE id = ?`,
		string(status), stats.Inserted, stats.Updated, stats.Deleted, stats.Kept, stats.Skipped, stats.Failed,
		errMsg, started, completed, id.String(),
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListRunning returns pending or in-progress jobs for a sync.
func (s *JobStore) ListRunning(ctx context.Context, syncID uuid.UUID) ([]domain.SyncJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sync_id, status, type, inserted, updated, deleted, kept, skipped, failed,
		       error, created_at, started_at, completed_at
		FROM sync_jobs WHERE sync_id = ? AND status IN (?, ?)`,
		syncID.String(), string(domain.JobStatusPending), string(domain.JobStatusInProgress),
	)
	if err != nil {
		return nil, fmt.Errorf("query running jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.SyncJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.SyncJob, error) {
	var (
		job               domain.SyncJob
		id, syncID        string
		status, syncType  string
		started, finished sql.NullTime
	)
	err := row.Scan(&id, &syncID, &status, &syncType,
		&job.Stats.Inserted, &job.Stats.Updated, &job.Stats.Deleted,
		&job.Stats.Kept, &job.Stats.Skipped, &job.Stats.Failed,
		&job.Error, &job.CreatedAt, &started, &finished,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if job.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse job id: %w", err)
	}
	if job.SyncID, err = uuid.Parse(syncID); err != nil {
		return nil, fmt.Errorf("parse sync id: %w", err)
	}
	job.Status = domain.JobStatus(status)
	job.Type = domain.SyncType(syncType)
	if started.Valid {
		job.StartedAt = started.Time
	}
	if finished.Valid {
		job.CompletedAt = finished.Time
	}
	return &job, nil
}

func isUniqueViolation(err error) bool {
	// modernc surfaces constraint failures in the message; there is no
	// exported error type to match against.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
