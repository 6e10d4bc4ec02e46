package filesystem

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/statesync/internal/logger"
)

// Watch keeps the loaded set in step with the plugin directory until ctx
// is cancelled. Files removed by hand are unloaded; new files are loaded.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("watch %s: %w", l.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			l.handleFsEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("plugin watcher: %v", err)
		}
	}
}

// handleFsEvent applies one event and reports whether the loaded set changed.
func (l *Loader) handleFsEvent(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	path := filepath.Join(l.dir, name)

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		l.mu.Lock()
		_, ok := l.loaded[path]
		delete(l.loaded, path)
		l.mu.Unlock()
		if ok {
			logger.Debug("plugin file %s removed", name)
		}
		return ok
	case event.Has(fsnotify.Create):
		l.mu.Lock()
		_, ok := l.loaded[path]
		l.loaded[path] = struct{}{}
		l.mu.Unlock()
		return !ok
	default:
		return false
	}
}
