package driving

import (
	"context"

	"github.com/custodia-labs/entsync/internal/core/domain"
)

// SyncRunner drives one synchronization run end to end.
type SyncRunner interface {
	// Run executes the sync and blocks until it reaches a terminal state.
	// The returned error is nil for completed runs, context.Canceled for
	// cancelled runs, and the run-fatal error otherwise. The job's final
	// status and counters are the source of truth for outcome.
	Run(ctx context.Context) error

	// Subscribe registers a progress subscriber for this run.
	// Subscribers receive counter snapshots; subscription never affects
	// the run outcome. The returned func unsubscribes.
	Subscribe() (<-chan domain.SyncStats, func())
}
