package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/entsync/internal/core/domain"
)

func newTestSource(t *testing.T, root string) *Source {
	t.Helper()
	source, err := NewSource(domain.Connection{
		ShortName: ShortName,
		Config:    map[string]string{"path": root},
	}, nil)
	require.NoError(t, err)
	return source
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func collect(t *testing.T, entities <-chan domain.Entity, errs <-chan error) []domain.Entity {
	t.Helper()
	var out []domain.Entity
	for entities != nil || errs != nil {
		select {
		case e, ok := <-entities:
			if !ok {
				entities = nil
				continue
			}
			out = append(out, e)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out draining source")
		}
	}
	return out
}

func TestNewSourceRequiresPath(t *testing.T) {
	_, err := NewSource(domain.Connection{Config: map[string]string{}}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidate(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, newTestSource(t, root).Validate(context.Background()))

	file := filepath.Join(root, "plain.txt")
	writeFile(t, file, "x")
	require.Error(t, newTestSource(t, file).Validate(context.Background()))

	require.Error(t, newTestSource(t, filepath.Join(root, "missing")).Validate(context.Background()))
}

func TestGenerateWalksTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "alpha")
	writeFile(t, filepath.Join(root, "sub", "b.md"), "beta")
	writeFile(t, filepath.Join(root, ".hidden"), "secret")
	writeFile(t, filepath.Join(root, ".git", "config"), "noise")

	source := newTestSource(t, root)
	entityCh, errCh := source.Generate(context.Background())
	entities := collect(t, entityCh, errCh)

	var ids []string
	for _, e := range entities {
		assert.Equal(t, TypeFile, e.Type)
		assert.NotEmpty(t, e.Fields["mod_time"])
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"a.md", "sub/b.md"}, ids)
}

func TestGenerateFingerprintChangesWithContent(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "doc.md")
	writeFile(t, path, "v1")

	source := newTestSource(t, root)
	firstCh, firstErrCh := source.Generate(context.Background())
	first := collect(t, firstCh, firstErrCh)
	require.Len(t, first, 1)

	// mod_time participates in the fingerprint, so touching the file
	// changes it.
	require.NoError(t, os.Chtimes(path, time.Now(), time.Now().Add(time.Hour)))
	secondCh, secondErrCh := source.Generate(context.Background())
	second := collect(t, secondCh, secondErrCh)
	require.Len(t, second, 1)

	assert.NotEqual(t, first[0].Fingerprint(), second[0].Fingerprint())
}

func TestGenerateCancellation(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 50; i++ {
		writeFile(t, filepath.Join(root, "f", string(rune('a'+i%26))+".txt"), "x")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := newTestSource(t, root)
	entities, errs := source.Generate(ctx)

	// A cancelled walk ends the stream without a fatal error.
	for range entities {
	}
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestWatchEmitsChanges(t *testing.T) {
	root := t.TempDir()
	source := newTestSource(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := source.Watch(ctx)
	require.NoError(t, err)

	path := filepath.Join(root, "new.md")
	writeFile(t, path, "hello")

	var created domain.Entity
	select {
	case created = <-events:
	case <-time.After(5 * time.Second):
		t.Fatal("no event for created file")
	}
	assert.Equal(t, "new.md", created.ID)
	assert.False(t, created.Deleted)

	require.NoError(t, os.Remove(path))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Deleted && e.ID == "new.md" {
				return
			}
		case <-deadline:
			t.Fatal("no deletion event")
		}
	}
}

func TestCapabilities(t *testing.T) {
	source := newTestSource(t, t.TempDir())
	caps := source.Capabilities()
	assert.True(t, caps.SupportsWatch)
	assert.True(t, caps.ReportsDeletions)
}
