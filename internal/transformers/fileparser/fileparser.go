// Package fileparser turns file entities into text documents by reading
// their content from disk.
package fileparser

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// DefaultMaxFileSize caps how large a file is still worth parsing.
const DefaultMaxFileSize = 10 << 20 // 10 MiB

// sniffLen is how many leading bytes are checked for binary content.
const sniffLen = 8000

// Transformer consumes "file" entities and produces "document" entities
// with the file's text as content. Binary and oversized files are dropped,
// not failed.
type Transformer struct {
	maxFileSize int64
}

var _ driven.Transformer = (*Transformer)(nil)

// Option configures the parser.
type Option func(*Transformer)

// WithMaxFileSize sets the size cap in bytes.
func WithMaxFileSize(size int64) Option {
	return func(t *Transformer) {
		if size > 0 {
			t.maxFileSize = size
		}
	}
}

// New creates a file parser with the given options.
func New(opts ...Option) *Transformer {
	t := &Transformer{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Definition declares the consumed and produced entity types.
func (t *Transformer) Definition() domain.TransformerDefinition {
	return domain.TransformerDefinition{
		Name:     "fileparser",
		Consumes: "file",
		Produces: "document",
	}
}

// Transform reads the file at Fields["path"] and emits a document entity.
func (t *Transformer) Transform(_ context.Context, entity domain.Entity) (*domain.Entity, error) {
	path, _ := entity.Fields["path"].(string)
	if path == "" {
		return nil, fmt.Errorf("file entity %s has no path: %w", entity.ID, domain.ErrInvalidInput)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > t.maxFileSize {
		return nil, domain.ErrSkipEntity
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if isBinary(data) {
		return nil, domain.ErrSkipEntity
	}

	out := entity
	out.Type = "document"
	out.Content = string(data)
	return &out, nil
}

func isBinary(data []byte) bool {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}
