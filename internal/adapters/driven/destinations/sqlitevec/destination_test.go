package sqlitevec

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/entsync/internal/core/domain"
)

func newTestDestination(t *testing.T) *Destination {
	t.Helper()
	dest, err := Open(filepath.Join(t.TempDir(), "vectors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dest.Close() })
	return dest
}

func TestBulkInsertAndDelete(t *testing.T) {
	ctx := context.Background()
	dest := newTestDestination(t)

	entities := []domain.Entity{
		{ID: "a", Type: "document", Name: "a.md", Content: "alpha", Vector: []float32{0.1, 0.2}},
		{ID: "b", Type: "document", Name: "b.md", Content: "beta", Fields: map[string]any{"lang": "en"}},
	}
	require.NoError(t, dest.BulkInsert(ctx, entities))

	count, err := dest.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, dest.Delete(ctx, "a"))
	require.NoError(t, dest.Delete(ctx, "a"))

	count, err = dest.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestBulkInsertUpserts(t *testing.T) {
	ctx := context.Background()
	dest := newTestDestination(t)

	require.NoError(t, dest.BulkInsert(ctx, []domain.Entity{{ID: "a", Type: "document", Content: "v1"}}))
	require.NoError(t, dest.BulkInsert(ctx, []domain.Entity{{ID: "a", Type: "document", Content: "v2"}}))

	count, err := dest.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestBulkInsertEmptyBatch(t *testing.T) {
	dest := newTestDestination(t)
	require.NoError(t, dest.BulkInsert(context.Background(), nil))
}

func TestEncodeVector(t *testing.T) {
	assert.Nil(t, encodeVector(nil))
	assert.Len(t, encodeVector([]float32{1, 2, 3}), 12)
}
