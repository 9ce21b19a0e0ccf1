// Package watch notifies when the task CSV changes on disk.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange whenever path is written, created, removed or renamed.
// The parent directory is watched so editors that replace the file are seen too.
// It returns once the watcher is registered; watching stops when ctx is done.
func Watch(ctx context.Context, path string, onChange func(path string)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return err
	}
	slog.Info("watch.start", "path", abs)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				slog.Info("watch.change", "path", path, "op", event.Op.String())
				onChange(path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("watch.error", "path", path, "error", err)
			}
		}
	}()
	return nil
}
