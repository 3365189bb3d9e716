package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the manager when the document is edited on disk.
type Watcher struct {
	manager  *Manager
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	onReload func(*Config)
}

// NewWatcher watches the directory holding the document, since editors and
// Save both replace the file by rename.
func NewWatcher(manager *Manager, logger *slog.Logger, onReload func(*Config)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(manager.Path())); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}
	return &Watcher{
		manager:  manager,
		watcher:  w,
		logger:   logger,
		onReload: onReload,
	}, nil
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	defer func() {
		_ = w.watcher.Close()
	}()

	target := filepath.Clean(w.manager.Path())
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WarnContext(ctx, "config watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	changed, err := w.manager.Reload()
	if err != nil {
		w.logger.WarnContext(ctx, "ignoring config file change", "path", w.manager.Path(), "error", err)
		return
	}
	if !changed {
		return
	}
	w.logger.InfoContext(ctx, "config reloaded from file", "path", w.manager.Path())
	if w.onReload != nil {
		w.onReload(w.manager.Get())
	}
}
