package listing

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/mordilloSan/go_logger/logger"
)

// Watch recompiles the template whenever its file is written or replaced, until
// ctx is cancelled. The parent directory is watched so editors that save by
// renaming a temp file over it are picked up. The embedded template
// cannot be watched.
func (r *Renderer) Watch(ctx context.Context) error {
	if r == nil || r.path == "" {
		return fmt.Errorf("no template file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	target := filepath.Clean(r.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	logger.Infof("Watching listing template %s", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := r.Reload(); err != nil {
				logger.Warnf("Template reload failed, keeping previous version: %v", err)
				continue
			}
			logger.Infof("Listing template reloaded from %s", target)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("Template watcher error: %v", err)
		}
	}
}
