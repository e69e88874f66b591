package config

import (
	"context"
	"fmt"
	log "log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch refreshes the store whenever the settings file is written, until ctx is
// done. The parent directory is watched so editors that replace the file by
// rename are picked up too.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if err := s.Refresh(); err != nil {
					log.Warn("Failed to refresh settings", "path", s.path, "err", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("Settings watcher error", "err", err)
			}
		}
	}()

	return nil
}
