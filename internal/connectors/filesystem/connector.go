// Package filesystem streams files under a local directory as entities.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
	"github.com/custodia-labs/entsync/internal/logger"
)

// ShortName identifies this source in connections.
const ShortName = "filesystem"

// TypeFile is the entity type this source emits.
const TypeFile = "file"

// Source walks a directory tree and emits one entity per regular file.
// The entity carries path metadata only; reading file content is the file
// parser's job, so unchanged files are classified without touching disk.
type Source struct {
	root          string
	includeHidden bool
}

var (
	_ driven.Source             = (*Source)(nil)
	_ driven.Watcher            = (*Source)(nil)
	_ driven.CapabilityReporter = (*Source)(nil)
)

// NewSource creates a source for the connection.
// The connection config must carry "path"; "include_hidden" opts dotfiles
// in.
func NewSource(conn domain.Connection, _ driven.TokenProvider) (*Source, error) {
	root := conn.Config["path"]
	if root == "" {
		return nil, fmt.Errorf("filesystem connection needs path: %w", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve path %q: %w", root, err)
	}
	return &Source{
		root:          abs,
		includeHidden: conn.Config["include_hidden"] == "true",
	}, nil
}

// ShortName returns the source type identifier.
func (s *Source) ShortName() string {
	return ShortName
}

// Capabilities reports watch support; deletions surface through watch events
// and full-sync reconciliation.
func (s *Source) Capabilities() driven.SourceCapabilities {
	return driven.SourceCapabilities{
		SupportsWatch:    true,
		ReportsDeletions: true,
	}
}

// Validate checks the root exists and is a readable directory.
func (s *Source) Validate(_ context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("filesystem root %q: %w", s.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("filesystem root %q is not a directory: %w", s.root, domain.ErrInvalidInput)
	}
	return nil
}

// Generate walks the tree, streaming entities as they are found.
func (s *Source) Generate(ctx context.Context) (<-chan domain.Entity, <-chan error) {
	entities := make(chan domain.Entity)
	errs := make(chan error, 1)

	go func() {
		defer close(entities)
		defer close(errs)

		walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable subtrees are skipped, not fatal.
				logger.Debug("filesystem: skipping %s: %v", path, err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if s.hidden(d.Name()) && path != s.root {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || s.hidden(d.Name()) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				logger.Debug("filesystem: stat %s: %v", path, err)
				return nil
			}

			select {
			case entities <- s.fileEntity(path, info):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if walkErr != nil && !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, context.DeadlineExceeded) {
			errs <- fmt.Errorf("walk %s: %w", s.root, walkErr)
		}
	}()

	return entities, errs
}

// Close is a no-op.
func (s *Source) Close() error {
	return nil
}

func (s *Source) hidden(name string) bool {
	return !s.includeHidden && strings.HasPrefix(name, ".")
}

func (s *Source) fileEntity(path string, info fs.FileInfo) domain.Entity {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	return domain.Entity{
		ID:   filepath.ToSlash(rel),
		Type: TypeFile,
		Name: info.Name(),
		Fields: map[string]any{
			"path":     path,
			"size":     info.Size(),
			"mod_time": info.ModTime().UTC().Format(time.RFC3339Nano),
			"ext":      strings.ToLower(filepath.Ext(path)),
		},
		ObservedAt: time.Now().UTC(),
	}
}

func (s *Source) deletedEntity(path string) domain.Entity {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	return domain.Entity{
		ID:         filepath.ToSlash(rel),
		Type:       TypeFile,
		Name:       filepath.Base(path),
		Deleted:    true,
		ObservedAt: time.Now().UTC(),
	}
}
