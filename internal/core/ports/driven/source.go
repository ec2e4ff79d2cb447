package driven

import (
	"context"

	"github.com/custodia-labs/entsync/internal/core/domain"
)

// Source produces a lazy stream of entities from an external system.
// Each source type (filesystem, github, etc.) implements this interface.
type Source interface {
	// ShortName returns the source type identifier.
	ShortName() string

	// Validate checks the source is properly configured and authenticated.
	// A lightweight pre-flight check; for API connectors this typically
	// makes a test call, for filesystem it checks the path is readable.
	Validate(ctx context.Context) error

	// Generate streams entities one at a time. Both channels are closed
	// when the stream ends. A non-nil value on the error channel is a
	// source-level failure and aborts the run; per-entity problems are
	// expressed on the entity itself (Skip, Deleted).
	Generate(ctx context.Context) (<-chan domain.Entity, <-chan error)

	// Close releases resources.
	Close() error
}

// Watcher is implemented by sources that can push change events.
type Watcher interface {
	// Watch listens for real-time changes until ctx is done.
	Watch(ctx context.Context) (<-chan domain.Entity, error)
}

// SourceCapabilities describes optional source behaviour.
type SourceCapabilities struct {
	// SupportsWatch indicates the source implements Watcher.
	SupportsWatch bool

	// ReportsDeletions indicates the source emits explicit deletion
	// markers. Sources that do not rely on full-sync orphan
	// reconciliation for deletes.
	ReportsDeletions bool
}

// CapabilityReporter is implemented by sources that advertise capabilities.
type CapabilityReporter interface {
	Capabilities() SourceCapabilities
}
