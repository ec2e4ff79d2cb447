package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// CredentialsStore is an in-memory CredentialsStore.
type CredentialsStore struct {
	mu    sync.RWMutex
	creds map[uuid.UUID]domain.Credentials
}

var _ driven.CredentialsStore = (*CredentialsStore)(nil)

// NewCredentialsStore creates an empty credentials store.
func NewCredentialsStore() *CredentialsStore {
	return &CredentialsStore{creds: make(map[uuid.UUID]domain.Credentials)}
}

// Get retrieves credentials by ID.
func (s *CredentialsStore) Get(_ context.Context, id uuid.UUID) (*domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creds, ok := s.creds[id]
	if !ok {
		return nil, fmt.Errorf("credentials %s: %w", id, domain.ErrNotFound)
	}
	return &creds, nil
}

// Save stores or updates credentials.
func (s *CredentialsStore) Save(_ context.Context, creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[creds.ID] = creds
	return nil
}
