package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// JobStore is an in-memory JobStore.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]domain.SyncJob
}

var _ driven.JobStore = (*JobStore)(nil)

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[uuid.UUID]domain.SyncJob)}
}

// Create stores a new job.
func (s *JobStore) Create(_ context.Context, job domain.SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job %s: %w", job.ID, domain.ErrAlreadyExists)
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	s.jobs[job.ID] = job
	return nil
}

// Get retrieves a job by ID.
func (s *JobStore) Get(_ context.Context, id uuid.UUID) (*domain.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	return &job, nil
}

// UpdateStatus transitions a job and records stats and error detail.
func (s *JobStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.JobStatus, stats domain.SyncStats, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}

	job.Status = status
	job.Stats = stats
	job.Error = errMsg
	now := time.Now().UTC()
	if status == domain.JobStatusInProgress && job.StartedAt.IsZero() {
		job.StartedAt = now
	}
	if status.Terminal() {
		job.CompletedAt = now
	}
	s.jobs[id] = job
	return nil
}

// ListRunning returns pending or in-progress jobs for a sync.
func (s *JobStore) ListRunning(_ context.Context, syncID uuid.UUID) ([]domain.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var running []domain.SyncJob
	for _, job := range s.jobs {
		if job.SyncID == syncID && !job.Status.Terminal() {
			running = append(running, job)
		}
	}
	return running, nil
}
