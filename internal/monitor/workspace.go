package monitor

import (
	"context"
	"fmt"
	"io/fs"
	log "log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"voxnote/internal/detect"
	"voxnote/pkg/protocol"
)

// WatchWorkspace reports files created under root as host file-creation events.
// Ignored directories (.git, node_modules, .vscode) are not descended into.
func (m *Monitor) WatchWorkspace(ctx context.Context, root string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}

	if err := addTree(w, root); err != nil {
		w.Close()
		return err
	}
	log.Info("Watching workspace", "root", root, "dirs", len(w.WatchList()))

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
				if !ev.Has(fsnotify.Create) || ignoredDir(ev.Name) {
					continue
				}
				info, err := os.Stat(ev.Name)
				if err != nil {
					continue
				}
				if info.IsDir() {
					if err := addTree(w, ev.Name); err != nil {
						log.Debug("Failed to watch new directory", "dir", ev.Name, "err", err)
					}
					continue
				}
				m.Post(&protocol.FilesCreated{Files: []string{ev.Name}})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("Workspace watcher error", "err", err)
			}
		}
	}()

	return nil
}

func ignoredDir(path string) bool {
	return detect.IsIgnoredPath(detect.Document{FileName: path})
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignoredDir(path) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
