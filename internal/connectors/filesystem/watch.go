package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/logger"
)

// Watch emits an entity for every file created, modified, or removed under
// the root. Removals arrive with Deleted set. The channel closes when the
// context is cancelled.
func (s *Source) Watch(ctx context.Context) (<-chan domain.Entity, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := s.watchTree(watcher); err != nil {
		watcher.Close()
		return nil, err
	}

	entities := make(chan domain.Entity)
	go func() {
		defer close(entities)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				s.handleEvent(ctx, watcher, event, entities)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("filesystem watch: %v", err)
			}
		}
	}()
	return entities, nil
}

// watchTree registers the root and every subdirectory; fsnotify does not
// recurse on its own.
func (s *Source) watchTree(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if s.hidden(d.Name()) && path != s.root {
			return fs.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (s *Source) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event, out chan<- domain.Entity) {
	if s.hidden(filepath.Base(event.Name)) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		select {
		case out <- s.deletedEntity(event.Name):
		case <-ctx.Done():
		}

	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			// New directories join the watch set.
			if event.Op.Has(fsnotify.Create) {
				if err := watcher.Add(event.Name); err != nil {
					logger.Warn("filesystem watch %s: %v", event.Name, err)
				}
			}
			return
		}
		select {
		case out <- s.fileEntity(event.Name, info):
		case <-ctx.Done():
		}
	}
}
