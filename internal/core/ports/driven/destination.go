package driven

import (
	"context"

	"github.com/custodia-labs/entsync/internal/core/domain"
)

// Destination accepts processed entities.
// Writes here are the only externally visible effect of a run.
type Destination interface {
	// ShortName returns the destination type identifier.
	ShortName() string

	// BulkInsert writes a batch of entities.
	BulkInsert(ctx context.Context, entities []domain.Entity) error

	// Delete removes all records for the given identity key.
	Delete(ctx context.Context, entityID string) error

	// Close releases resources.
	Close() error
}
