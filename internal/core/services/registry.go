package services

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// SourceBuilder creates a Source from a connection.
// The token provider is a NullTokenProvider equivalent for no-auth sources.
type SourceBuilder func(conn domain.Connection, tokens driven.TokenProvider) (driven.Source, error)

// SourceRegistry maps source short names to builders.
// Populated at startup; resolved once per run by the factory, never
// dispatched per entity.
type SourceRegistry struct {
	mu       sync.RWMutex
	builders map[string]SourceBuilder
}

// NewSourceRegistry creates an empty source registry.
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{builders: make(map[string]SourceBuilder)}
}

// Register adds a builder for the given short name.
func (r *SourceRegistry) Register(shortName string, builder SourceBuilder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[shortName] = builder
}

// Build creates a source for the connection.
// Returns domain.ErrUnsupportedType for unknown short names.
func (r *SourceRegistry) Build(conn domain.Connection, tokens driven.TokenProvider) (driven.Source, error) {
	r.mu.RLock()
	builder, ok := r.builders[conn.ShortName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("source %q: %w", conn.ShortName, domain.ErrUnsupportedType)
	}
	return builder(conn, tokens)
}

// ShortNames returns all registered source types.
func (r *SourceRegistry) ShortNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	return names
}

// DestinationBuilder creates a Destination instance.
// Builders close over their own configuration; each run gets a fresh
// instance.
type DestinationBuilder func() (driven.Destination, error)

// DestinationRegistry maps destination short names to builders.
type DestinationRegistry struct {
	mu       sync.RWMutex
	builders map[string]DestinationBuilder
}

// NewDestinationRegistry creates an empty destination registry.
func NewDestinationRegistry() *DestinationRegistry {
	return &DestinationRegistry{builders: make(map[string]DestinationBuilder)}
}

// Register adds a builder for the given short name.
func (r *DestinationRegistry) Register(shortName string, builder DestinationBuilder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[shortName] = builder
}

// Build creates a destination.
// Returns domain.ErrUnsupportedType for unknown short names.
func (r *DestinationRegistry) Build(shortName string) (driven.Destination, error) {
	r.mu.RLock()
	builder, ok := r.builders[shortName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("destination %q: %w", shortName, domain.ErrUnsupportedType)
	}
	return builder()
}

// TransformerRegistry maps transformer names to implementations.
// Loaded once per process and injected into the sync context; the hot path
// only does map reads.
type TransformerRegistry struct {
	mu           sync.RWMutex
	transformers map[string]driven.Transformer
}

// NewTransformerRegistry creates an empty transformer registry.
func NewTransformerRegistry() *TransformerRegistry {
	return &TransformerRegistry{transformers: make(map[string]driven.Transformer)}
}

// Register adds a transformer under its declared name.
func (r *TransformerRegistry) Register(t driven.Transformer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transformers[t.Definition().Name] = t
}

// Get returns the transformer with the given name.
// Returns domain.ErrUnsupportedType for unknown names.
func (r *TransformerRegistry) Get(name string) (driven.Transformer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transformers[name]
	if !ok {
		return nil, fmt.Errorf("transformer %q: %w", name, domain.ErrUnsupportedType)
	}
	return t, nil
}

// Definitions returns the declared definition of every registered
// transformer, used by the router to compose chains.
func (r *TransformerRegistry) Definitions() map[string]domain.TransformerDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make(map[string]domain.TransformerDefinition, len(r.transformers))
	for name, t := range r.transformers {
		defs[name] = t.Definition()
	}
	return defs
}
