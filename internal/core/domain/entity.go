package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Action is the routing decision for one entity against the previous run's
// recorded state.
type Action string

// Entity actions.
const (
	// ActionInsert means the entity has not been seen before.
	ActionInsert Action = "insert"

	// ActionUpdate means the entity exists but its fingerprint changed.
	ActionUpdate Action = "update"

	// ActionKeep means the entity is unchanged; destinations are not touched.
	ActionKeep Action = "keep"

	// ActionDelete means the source reported the entity as deleted.
	ActionDelete Action = "delete"
)

// Entity is one normalized record produced by a source connector.
//
// ID is the source-native identity key, stable across runs. Type identifies
// which entity node in the DAG the record matches. Fields holds the
// materialized payload; Content is the textual representation used for
// embedding.
type Entity struct {
	// ID is the source-native identity key (e.g. file path, issue number).
	ID string

	// Type matches the name of an entity node in the DAG.
	Type string

	// Name is a human-readable label for logging.
	Name string

	// Fields holds the materialized payload of the record.
	Fields map[string]any

	// Content is the textual content used for embedding.
	Content string

	// Vector is the embedding, populated by the processor.
	Vector []float32

	// Deleted marks an explicit deletion reported by the source.
	Deleted bool

	// Skip marks an entity the source produced but asked to drop
	// (e.g. unsupported content). Counted as skipped.
	Skip bool

	// ObservedAt is when the source produced the record.
	ObservedAt time.Time
}

// Fingerprint returns a stable content hash over the entity's materialized
// fields and content. Two entities with the same ID and fingerprint are
// considered unchanged between runs.
func (e *Entity) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(e.Type))
	h.Write([]byte{0})
	h.Write([]byte(e.Content))
	h.Write([]byte{0})

	// Serialize fields in key order so the hash is deterministic.
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		if b, err := json.Marshal(e.Fields[k]); err == nil {
			h.Write(b)
		} else {
			fmt.Fprintf(h, "%v", e.Fields[k])
		}
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}

// EntityRecord is the persisted trace of an entity from a previous run,
// used to classify incoming entities and to reconcile orphans.
type EntityRecord struct {
	SyncID    string
	EntityID  string
	Hash      string
	UpdatedAt time.Time
}

// EntityDefinition maps an entity type tag to its registered shape.
// Resolved once per run and cached; never mutated during a run.
type EntityDefinition struct {
	Type        string
	Name        string
	Description string
}
