package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// Processor takes one raw entity through the full pipeline: classify against
// the stored fingerprint, route, run the transformer chain, embed, and
// dispatch to destinations.
//
// Each call updates exactly one progress counter. A failure is confined to
// the entity that caused it; the caller keeps submitting others.
type Processor struct {
	sc       *Context
	entities driven.EntityStore
}

// NewProcessor creates a processor bound to one run's context.
func NewProcessor(sc *Context, entities driven.EntityStore) *Processor {
	return &Processor{sc: sc, entities: entities}
}

// Process runs the pipeline for one entity and returns the counter it
// landed on.
func (p *Processor) Process(ctx context.Context, entity domain.Entity) (Stat, error) {
	stat, err := p.process(ctx, entity)
	if err != nil {
		p.sc.Log.Warn("entity %s (%s): %v", entity.ID, entity.Type, err)
	}
	p.sc.Progress.Increment(stat)
	return stat, err
}

func (p *Processor) process(ctx context.Context, entity domain.Entity) (Stat, error) {
	if entity.Skip {
		return StatSkipped, nil
	}
	if entity.Deleted {
		return p.processDeletion(ctx, entity)
	}

	action, err := p.classify(ctx, &entity)
	if err != nil {
		return StatFailed, err
	}
	if action == domain.ActionKeep {
		// Unchanged since last run; no destination writes.
		return StatKept, nil
	}

	routes := p.sc.Router.Route(entity.Type)
	if len(routes) == 0 {
		p.sc.Log.Debug("entity %s: no route for type %q", entity.ID, entity.Type)
		return StatSkipped, nil
	}

	outputs, err := p.runChains(ctx, entity, routes)
	if err != nil {
		return StatFailed, err
	}
	if len(outputs) == 0 {
		// Every chain asked to drop the entity.
		return StatSkipped, nil
	}

	if err := p.embed(ctx, outputs); err != nil {
		return StatFailed, err
	}

	if err := p.dispatch(ctx, entity, action, outputs); err != nil {
		return StatFailed, err
	}

	record := domain.EntityRecord{
		SyncID:    p.sc.Sync.ID.String(),
		EntityID:  entity.ID,
		Hash:      entity.Fingerprint(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := p.entities.Save(ctx, record); err != nil {
		return StatFailed, fmt.Errorf("save fingerprint: %w", err)
	}

	if action == domain.ActionUpdate {
		return StatUpdated, nil
	}
	return StatInserted, nil
}

// classify compares the entity's fingerprint against the stored record.
// No record means insert, an identical hash means keep, a different hash
// means update.
func (p *Processor) classify(ctx context.Context, entity *domain.Entity) (domain.Action, error) {
	record, err := p.entities.Get(ctx, p.sc.Sync.ID, entity.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ActionInsert, nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup fingerprint: %w", err)
	}
	if record.Hash == entity.Fingerprint() {
		return domain.ActionKeep, nil
	}
	return domain.ActionUpdate, nil
}

// processDeletion removes the entity from its destinations and drops the
// stored fingerprint. Orphans from reconciliation arrive without a type, so
// an unrouted deletion sweeps every destination.
func (p *Processor) processDeletion(ctx context.Context, entity domain.Entity) (Stat, error) {
	routes := p.sc.Router.Route(entity.Type)
	if len(routes) == 0 {
		for _, dest := range p.sc.Destinations {
			if err := dest.Delete(ctx, entity.ID); err != nil {
				return StatFailed, fmt.Errorf("delete from %s: %w", dest.ShortName(), err)
			}
		}
	}
	for _, route := range routes {
		dest := p.sc.Destinations[route.DestinationNodeID]
		if dest == nil {
			return StatFailed, fmt.Errorf("destination node %s: %w", route.DestinationNodeID, domain.ErrNotFound)
		}
		if err := dest.Delete(ctx, entity.ID); err != nil {
			return StatFailed, fmt.Errorf("delete from %s: %w", route.Destination, err)
		}
	}
	if err := p.entities.Delete(ctx, p.sc.Sync.ID, entity.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return StatFailed, fmt.Errorf("delete fingerprint: %w", err)
	}
	return StatDeleted, nil
}

type routedEntity struct {
	route  Route
	entity domain.Entity
}

// runChains executes each route's transformer chain. A chain that returns
// ErrSkipEntity drops its output without failing the entity; any other
// transform error fails the whole entity.
func (p *Processor) runChains(ctx context.Context, entity domain.Entity, routes []Route) ([]routedEntity, error) {
	outputs := make([]routedEntity, 0, len(routes))

	for _, route := range routes {
		current := entity
		skipped := false

		for _, name := range route.Transformers {
			t, err := p.sc.Transformers.Get(name)
			if err != nil {
				return nil, err
			}
			out, err := t.Transform(ctx, current)
			if errors.Is(err, domain.ErrSkipEntity) || (err == nil && out == nil) {
				skipped = true
				break
			}
			if err != nil {
				return nil, fmt.Errorf("transformer %q: %w", name, err)
			}
			current = *out
		}
		if skipped {
			continue
		}
		outputs = append(outputs, routedEntity{route: route, entity: current})
	}
	return outputs, nil
}

// embed fills in missing vectors for outputs with textual content.
func (p *Processor) embed(ctx context.Context, outputs []routedEntity) error {
	if p.sc.Embedder == nil {
		return nil
	}

	var texts []string
	var indices []int
	for i := range outputs {
		if outputs[i].entity.Vector == nil && outputs[i].entity.Content != "" {
			texts = append(texts, outputs[i].entity.Content)
			indices = append(indices, i)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	vectors, err := p.sc.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embed: got %d vectors for %d texts", len(vectors), len(texts))
	}
	for n, i := range indices {
		outputs[i].entity.Vector = vectors[n]
	}
	return nil
}

// dispatch writes each output to its destination. Updates delete the old
// version first so a partially written replacement never coexists with it.
func (p *Processor) dispatch(ctx context.Context, entity domain.Entity, action domain.Action, outputs []routedEntity) error {
	for _, out := range outputs {
		dest := p.sc.Destinations[out.route.DestinationNodeID]
		if dest == nil {
			return fmt.Errorf("destination node %s: %w", out.route.DestinationNodeID, domain.ErrNotFound)
		}
		if action == domain.ActionUpdate {
			if err := dest.Delete(ctx, entity.ID); err != nil {
				return fmt.Errorf("delete stale from %s: %w", out.route.Destination, err)
			}
		}
		if err := dest.BulkInsert(ctx, []domain.Entity{out.entity}); err != nil {
			return fmt.Errorf("insert into %s: %w", out.route.Destination, err)
		}
	}
	return nil
}
