package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// EntityStore is an in-memory EntityStore keyed by (syncID, entityID).
type EntityStore struct {
	mu      sync.RWMutex
	records map[string]map[string]domain.EntityRecord
}

var _ driven.EntityStore = (*EntityStore)(nil)

// NewEntityStore creates an empty entity store.
func NewEntityStore() *EntityStore {
	return &EntityStore{records: make(map[string]map[string]domain.EntityRecord)}
}

// Get retrieves the record for (syncID, entityID).
func (s *EntityStore) Get(_ context.Context, syncID uuid.UUID, entityID string) (*domain.EntityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[syncID.String()][entityID]
	if !ok {
		return nil, fmt.Errorf("entity %s in sync %s: %w", entityID, syncID, domain.ErrNotFound)
	}
	return &record, nil
}

// Save stores or updates a record.
func (s *EntityStore) Save(_ context.Context, record domain.EntityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bySync, ok := s.records[record.SyncID]
	if !ok {
		bySync = make(map[string]domain.EntityRecord)
		s.records[record.SyncID] = bySync
	}
	bySync[record.EntityID] = record
	return nil
}

// Delete removes a record. Missing records are not an error.
func (s *EntityStore) Delete(_ context.Context, syncID uuid.UUID, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records[syncID.String()], entityID)
	return nil
}

// ListIDs returns all entity IDs recorded for a sync.
func (s *EntityStore) ListIDs(_ context.Context, syncID uuid.UUID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bySync := s.records[syncID.String()]
	ids := make([]string, 0, len(bySync))
	for id := range bySync {
		ids = append(ids, id)
	}
	return ids, nil
}
