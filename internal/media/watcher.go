package media

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// EventCallback is called for every media change seen on disk.
// kind is "created" or "deleted".
type EventCallback func(kind, name string)

// Watch reports files appearing in or leaving the media directory until ctx
// is cancelled. Temporary upload files are ignored; a finished upload shows
// up as the create of its final name.
func Watch(ctx context.Context, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}
	logger.Info("media watcher: started", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("media watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if strings.HasPrefix(name, ".") {
				continue
			}

			var kind string
			switch {
			case ev.Op&fsnotify.Create != 0:
				kind = "created"
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Rename fires on the old name only.
				kind = "deleted"
			default:
				continue
			}
			logger.Debug("media watcher: event", slog.String("name", name), slog.String("op", kind))
			if cb != nil {
				cb(kind, name)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("media watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
