package fileparser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/entsync/internal/core/domain"
)

func fileEntity(path string) domain.Entity {
	return domain.Entity{
		ID:     filepath.Base(path),
		Type:   "file",
		Fields: map[string]any{"path": path},
	}
}

func TestDefinition(t *testing.T) {
	def := New().Definition()
	assert.Equal(t, "fileparser", def.Name)
	assert.Equal(t, "file", def.Consumes)
	assert.Equal(t, "document", def.Produces)
}

func TestTransformReadsText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\n\nbody"), 0o644))

	out, err := New().Transform(context.Background(), fileEntity(path))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "document", out.Type)
	assert.Equal(t, "# Title\n\nbody", out.Content)
}

func TestTransformSkipsBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x7f, 'E', 'L', 'F', 0x00, 0x01}, 0o644))

	_, err := New().Transform(context.Background(), fileEntity(path))
	require.ErrorIs(t, err, domain.ErrSkipEntity)
}

func TestTransformSkipsOversized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0o644))

	_, err := New(WithMaxFileSize(1024)).Transform(context.Background(), fileEntity(path))
	require.ErrorIs(t, err, domain.ErrSkipEntity)
}

func TestTransformMissingPath(t *testing.T) {
	_, err := New().Transform(context.Background(), domain.Entity{ID: "x", Type: "file"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New().Transform(context.Background(), fileEntity(filepath.Join(t.TempDir(), "gone.txt")))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSkipEntity)
}
