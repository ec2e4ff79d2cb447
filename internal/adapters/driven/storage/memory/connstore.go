package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// ConnectionStore is an in-memory ConnectionStore.
type ConnectionStore struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]domain.Connection
}

var _ driven.ConnectionStore = (*ConnectionStore)(nil)

// NewConnectionStore creates an empty connection store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{conns: make(map[uuid.UUID]domain.Connection)}
}

// Get retrieves a connection by ID.
func (s *ConnectionStore) Get(_ context.Context, id uuid.UUID) (*domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conn, ok := s.conns[id]
	if !ok {
		return nil, fmt.Errorf("connection %s: %w", id, domain.ErrNotFound)
	}
	return &conn, nil
}

// Save stores or updates a connection.
func (s *ConnectionStore) Save(_ context.Context, conn domain.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn.ID] = conn
	return nil
}
