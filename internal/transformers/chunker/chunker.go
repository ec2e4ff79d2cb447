// Package chunker splits document content into fixed-size overlapping
// chunks.
package chunker

import (
	"context"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Transformer consumes "document" entities and produces "chunked_document"
// entities carrying the chunk list in Fields.
type Transformer struct {
	chunkSize int
	overlap   int
}

var _ driven.Transformer = (*Transformer)(nil)

// Option configures the chunker.
type Option func(*Transformer)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(t *Transformer) {
		if size > 0 {
			t.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(t *Transformer) {
		if overlap >= 0 {
			t.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Transformer {
	t := &Transformer{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(t)
	}

	// Overlap must leave forward progress.
	if t.overlap >= t.chunkSize {
		t.overlap = t.chunkSize / 4
	}
	return t
}

// Definition declares the consumed and produced entity types.
func (t *Transformer) Definition() domain.TransformerDefinition {
	return domain.TransformerDefinition{
		Name:     "chunker",
		Consumes: "document",
		Produces: "chunked_document",
	}
}

// Transform splits the entity's content into chunks. Entities with no
// content are dropped.
func (t *Transformer) Transform(_ context.Context, entity domain.Entity) (*domain.Entity, error) {
	if entity.Content == "" {
		return nil, domain.ErrSkipEntity
	}

	content := entity.Content
	step := t.chunkSize - t.overlap
	chunks := make([]string, 0, len(content)/step+1)

	for start := 0; start < len(content); start += step {
		end := start + t.chunkSize
		if end > len(content) {
			end = len(content)
		}
		chunks = append(chunks, content[start:end])
		if end == len(content) {
			break
		}
	}

	out := entity
	out.Type = "chunked_document"
	out.Fields = cloneFields(entity.Fields)
	out.Fields["chunks"] = chunks
	out.Fields["chunk_count"] = len(chunks)
	return &out, nil
}

func cloneFields(fields map[string]any) map[string]any {
	clone := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		clone[k] = v
	}
	return clone
}
