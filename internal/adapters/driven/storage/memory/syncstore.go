package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// SyncStore is an in-memory SyncStore.
type SyncStore struct {
	mu    sync.RWMutex
	syncs map[uuid.UUID]domain.Sync
}

var _ driven.SyncStore = (*SyncStore)(nil)

// NewSyncStore creates an empty sync store.
func NewSyncStore() *SyncStore {
	return &SyncStore{syncs: make(map[uuid.UUID]domain.Sync)}
}

// Get retrieves a sync by ID.
func (s *SyncStore) Get(_ context.Context, id uuid.UUID) (*domain.Sync, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sync, ok := s.syncs[id]
	if !ok {
		return nil, fmt.Errorf("sync %s: %w", id, domain.ErrNotFound)
	}
	return &sync, nil
}

// Save stores or updates a sync.
func (s *SyncStore) Save(_ context.Context, sync domain.Sync) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncs[sync.ID] = sync
	return nil
}
