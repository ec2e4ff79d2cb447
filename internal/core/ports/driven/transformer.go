package driven

import (
	"context"

	"github.com/custodia-labs/entsync/internal/core/domain"
)

// Transformer is a named, pure step in an entity's chain.
//
// Transform takes one entity and produces the transformed entity, or
// domain.ErrSkipEntity to signal the entity should not continue (counted as
// skipped, not failed). Definition declares the accepted and produced entity
// types so the router can compose chains.
type Transformer interface {
	Definition() domain.TransformerDefinition

	Transform(ctx context.Context, entity domain.Entity) (*domain.Entity, error)
}
