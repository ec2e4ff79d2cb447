package domain

import "github.com/google/uuid"

// NodeType identifies the role of a DAG node.
type NodeType string

// DAG node types.
const (
	NodeTypeSource      NodeType = "source"
	NodeTypeEntity      NodeType = "entity"
	NodeTypeTransformer NodeType = "transformer"
	NodeTypeDestination NodeType = "destination"
)

// Node is one vertex in the routing graph.
type Node struct {
	ID   uuid.UUID
	Type NodeType

	// Name is the entity type tag for entity nodes, the registered
	// transformer name for transformer nodes, and the destination short
	// name for destination nodes.
	Name string
}

// Edge is a directed connection between two nodes.
type Edge struct {
	FromNodeID uuid.UUID
	ToNodeID   uuid.UUID
}

// Dag describes which entity types pass through which transformers before
// reaching which destinations. Immutable for the duration of a run.
type Dag struct {
	ID    uuid.UUID
	Name  string
	Nodes []Node
	Edges []Edge
}

// SourceNode returns the single source node, or ErrDagNoSource if the graph
// has zero or more than one.
func (d *Dag) SourceNode() (*Node, error) {
	var found *Node
	for i := range d.Nodes {
		if d.Nodes[i].Type == NodeTypeSource {
			if found != nil {
				return nil, ErrDagNoSource
			}
			found = &d.Nodes[i]
		}
	}
	if found == nil {
		return nil, ErrDagNoSource
	}
	return found, nil
}

// NodeByID returns the node with the given ID, or nil.
func (d *Dag) NodeByID(id uuid.UUID) *Node {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i]
		}
	}
	return nil
}

// OutgoingEdges returns the edges leaving the given node.
func (d *Dag) OutgoingEdges(id uuid.UUID) []Edge {
	var out []Edge
	for _, e := range d.Edges {
		if e.FromNodeID == id {
			out = append(out, e)
		}
	}
	return out
}
