package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/entsync/internal/core/domain"
)

func TestDefinition(t *testing.T) {
	def := New().Definition()
	assert.Equal(t, "chunker", def.Name)
	assert.Equal(t, "document", def.Consumes)
	assert.Equal(t, "chunked_document", def.Produces)
}

func TestTransformSplitsContent(t *testing.T) {
	chunker := New(WithChunkSize(10), WithOverlap(2))

	entity := domain.Entity{
		ID:      "doc-1",
		Type:    "document",
		Content: strings.Repeat("abcdefgh", 4), // 32 chars
		Fields:  map[string]any{"path": "/tmp/doc"},
	}
	out, err := chunker.Transform(context.Background(), entity)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, "chunked_document", out.Type)
	assert.Equal(t, "doc-1", out.ID)

	chunks, ok := out.Fields["chunks"].([]string)
	require.True(t, ok)
	require.NotEmpty(t, chunks)
	assert.Equal(t, len(chunks), out.Fields["chunk_count"])

	// Consecutive chunks share the overlap.
	assert.Equal(t, 10, len(chunks[0]))
	assert.Equal(t, chunks[0][8:], chunks[1][:2])

	// The original entity's fields are untouched.
	_, shared := entity.Fields["chunks"]
	assert.False(t, shared)
}

func TestTransformShortContentSingleChunk(t *testing.T) {
	out, err := New().Transform(context.Background(), domain.Entity{ID: "d", Content: "short"})
	require.NoError(t, err)
	chunks := out.Fields["chunks"].([]string)
	assert.Equal(t, []string{"short"}, chunks)
}

func TestTransformEmptyContentSkips(t *testing.T) {
	_, err := New().Transform(context.Background(), domain.Entity{ID: "d"})
	require.ErrorIs(t, err, domain.ErrSkipEntity)
}

func TestNewClampsOverlap(t *testing.T) {
	chunker := New(WithChunkSize(100), WithOverlap(100))
	assert.Equal(t, 25, chunker.overlap)
}
