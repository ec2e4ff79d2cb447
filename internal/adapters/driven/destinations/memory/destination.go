// Package memory provides an in-memory destination, used in tests and as a
// sink for dry runs.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// ShortName identifies this destination in DAG nodes.
const ShortName = "memory"

// Destination stores entities in a map keyed by entity ID.
type Destination struct {
	mu       sync.RWMutex
	entities map[string]domain.Entity
}

var _ driven.Destination = (*Destination)(nil)

// New creates an empty destination.
func New() *Destination {
	return &Destination{entities: make(map[string]domain.Entity)}
}

// ShortName returns the destination type identifier.
func (d *Destination) ShortName() string {
	return ShortName
}

// BulkInsert stores the batch.
func (d *Destination) BulkInsert(_ context.Context, entities []domain.Entity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range entities {
		d.entities[e.ID] = e
	}
	return nil
}

// Delete removes an entity. Missing entities are not an error.
func (d *Destination) Delete(_ context.Context, entityID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entities, entityID)
	return nil
}

// Close is a no-op.
func (d *Destination) Close() error {
	return nil
}

// Get returns a stored entity, used by tests and run inspection.
func (d *Destination) Get(entityID string) (domain.Entity, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entities[entityID]
	return e, ok
}

// Len returns the number of stored entities.
func (d *Destination) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entities)
}
