package services

import (
	"github.com/google/uuid"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
	"github.com/custodia-labs/entsync/internal/logger"
)

// Context is the immutable dependency bundle for one run.
//
// Assembled once by the factory and owned exclusively by one orchestrator;
// never shared across concurrent runs. Read-only after construction, so all
// worker tasks may use it without locking. The progress tracker is the only
// mutable member and serializes its own updates.
type Context struct {
	Sync domain.Sync
	Job  domain.SyncJob
	Dag  *domain.Dag

	Source driven.Source

	// Destinations is keyed by destination node ID so routes resolve
	// directly to instances.
	Destinations map[uuid.UUID]driven.Destination

	Embedder          driven.EmbeddingModel
	Transformers      *TransformerRegistry
	EntityDefinitions map[string]domain.EntityDefinition
	Router            *Router
	Progress          *Progress
	Log               *logger.Run
}
