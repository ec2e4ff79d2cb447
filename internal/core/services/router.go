package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/entsync/internal/core/domain"
)

// Route is one precomputed path for an entity type: the ordered transformer
// chain and the destination it ends at.
type Route struct {
	// EntityType is the type tag this route serves.
	EntityType string

	// Transformers are the registered transformer names, in execution order.
	Transformers []string

	// OutputType is the entity type arriving at the destination after the
	// chain has run.
	OutputType string

	// DestinationNodeID is the DAG node the route terminates at.
	DestinationNodeID uuid.UUID

	// Destination is the destination short name.
	Destination string
}

// Router answers, for an entity type, which transformer chains and
// destinations it flows through.
//
// All routes are precomputed at construction so the per-entity hot path is a
// single map lookup; routing cost scales with DAG size once per run, not
// once per entity. The router is immutable after construction and safe for
// concurrent use.
type Router struct {
	routes      map[string][]Route
	unreachable []domain.Node
}

// NewRouter validates the DAG and precomputes routes for every entity node.
//
// Structural problems fail construction: cycles (domain.ErrDagCycle), edges
// referencing unknown nodes (domain.ErrDagInvalidEdge), missing or
// type-incompatible transformers (domain.ErrChainMismatch), and a missing
// source node. Entity nodes with no path to any destination do not fail
// construction; they are flagged via Unreachable and route to zero
// destinations.
func NewRouter(dag *domain.Dag, transformers map[string]domain.TransformerDefinition) (*Router, error) {
	nodes := make(map[uuid.UUID]*domain.Node, len(dag.Nodes))
	for i := range dag.Nodes {
		nodes[dag.Nodes[i].ID] = &dag.Nodes[i]
	}

	adjacency := make(map[uuid.UUID][]uuid.UUID)
	for _, e := range dag.Edges {
		if nodes[e.FromNodeID] == nil || nodes[e.ToNodeID] == nil {
			return nil, fmt.Errorf("edge %s -> %s: %w", e.FromNodeID, e.ToNodeID, domain.ErrDagInvalidEdge)
		}
		adjacency[e.FromNodeID] = append(adjacency[e.FromNodeID], e.ToNodeID)
	}

	source, err := dag.SourceNode()
	if err != nil {
		return nil, err
	}

	if err := detectCycle(nodes, adjacency); err != nil {
		return nil, err
	}

	r := &Router{routes: make(map[string][]Route)}

	// Precompute chains for every entity node.
	for i := range dag.Nodes {
		node := &dag.Nodes[i]
		if node.Type != domain.NodeTypeEntity {
			continue
		}

		routes, err := composeRoutes(node, nodes, adjacency, transformers)
		if err != nil {
			return nil, fmt.Errorf("entity node %q: %w", node.Name, err)
		}
		if len(routes) == 0 {
			r.unreachable = append(r.unreachable, *node)
			continue
		}
		r.routes[node.Name] = append(r.routes[node.Name], routes...)
	}

	// Nodes the source cannot reach are dead and must be flagged, not
	// silently dropped.
	reached := reachableFrom(source.ID, adjacency)
	for i := range dag.Nodes {
		node := &dag.Nodes[i]
		if node.Type == domain.NodeTypeSource || reached[node.ID] {
			continue
		}
		r.unreachable = append(r.unreachable, *node)
	}

	return r, nil
}

// Route returns the precomputed routes for an entity type.
// Unknown types return nil: the entity routes to zero destinations and the
// caller counts it as skipped. Never an error at routing time.
func (r *Router) Route(entityType string) []Route {
	return r.routes[entityType]
}

// Unreachable returns the dead nodes flagged at construction: entity nodes
// with no path to a destination and nodes the source never reaches.
func (r *Router) Unreachable() []domain.Node {
	return r.unreachable
}

// EntityTypes returns all entity types with at least one route.
func (r *Router) EntityTypes() []string {
	types := make([]string, 0, len(r.routes))
	for t := range r.routes {
		types = append(types, t)
	}
	return types
}

// composeRoutes walks from an entity node through transformer nodes to every
// reachable destination, composing the chain and checking that each step's
// consumed type matches the previous step's produced type.
func composeRoutes(
	entity *domain.Node,
	nodes map[uuid.UUID]*domain.Node,
	adjacency map[uuid.UUID][]uuid.UUID,
	transformers map[string]domain.TransformerDefinition,
) ([]Route, error) {
	var routes []Route

	var walk func(id uuid.UUID, chain []string, currentType string) error
	walk = func(id uuid.UUID, chain []string, currentType string) error {
		for _, next := range adjacency[id] {
			node := nodes[next]
			switch node.Type {
			case domain.NodeTypeDestination:
				route := Route{
					EntityType:        entity.Name,
					Transformers:      append([]string(nil), chain...),
					OutputType:        currentType,
					DestinationNodeID: node.ID,
					Destination:       node.Name,
				}
				routes = append(routes, route)

			case domain.NodeTypeTransformer:
				def, ok := transformers[node.Name]
				if !ok {
					return fmt.Errorf("transformer %q: %w", node.Name, domain.ErrUnsupportedType)
				}
				if def.Consumes != currentType {
					return fmt.Errorf("transformer %q consumes %q, chain produces %q: %w",
						node.Name, def.Consumes, currentType, domain.ErrChainMismatch)
				}
				// Copy the chain: sibling branches must not share the
				// backing array.
				extended := make([]string, len(chain)+1)
				copy(extended, chain)
				extended[len(chain)] = node.Name
				if err := walk(node.ID, extended, def.Produces); err != nil {
					return err
				}

			case domain.NodeTypeEntity, domain.NodeTypeSource:
				// Entity and source nodes never appear downstream of an
				// entity node in a valid graph; skip them here, the
				// reachability pass flags them.
			}
		}
		return nil
	}

	if err := walk(entity.ID, nil, entity.Name); err != nil {
		return nil, err
	}
	return routes, nil
}

// detectCycle runs a three-colour DFS over the whole graph.
func detectCycle(nodes map[uuid.UUID]*domain.Node, adjacency map[uuid.UUID][]uuid.UUID) error {
	const (
		white = 0 // unvisited
		grey  = 1 // on the current path
		black = 2 // done
	)
	colour := make(map[uuid.UUID]int, len(nodes))

	var visit func(id uuid.UUID) error
	visit = func(id uuid.UUID) error {
		colour[id] = grey
		for _, next := range adjacency[id] {
			switch colour[next] {
			case grey:
				return fmt.Errorf("node %s: %w", next, domain.ErrDagCycle)
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		colour[id] = black
		return nil
	}

	for id := range nodes {
		if colour[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// reachableFrom returns the set of nodes reachable from start.
func reachableFrom(start uuid.UUID, adjacency map[uuid.UUID][]uuid.UUID) map[uuid.UUID]bool {
	reached := map[uuid.UUID]bool{start: true}
	queue := []uuid.UUID{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[id] {
			if !reached[next] {
				reached[next] = true
				queue = append(queue, next)
			}
		}
	}
	return reached
}
