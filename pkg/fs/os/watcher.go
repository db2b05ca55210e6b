package os

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/adrianliechti/devserve/pkg/fs"
)

var _ fs.Watcher = &Watcher{}

type Watcher struct {
	watcher *fsnotify.Watcher

	logger *slog.Logger
}

// NewWatcher creates a watcher. Watch errors are logged at debug level to
// logger, or to the default logger when nil.
func NewWatcher(logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()

	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher: watcher,
		logger:  logger,
	}, nil
}

// Watch reports changes below the given directories until ctx is done. New
// directories are picked up as they appear; .git trees are skipped.
func (w *Watcher) Watch(ctx context.Context, path ...string) (<-chan fs.Event, error) {
	events := make(chan fs.Event)

	for _, p := range path {
		if err := w.addTree(p); err != nil {
			w.watcher.Close()
			return nil, err
		}
	}

	go func() {
		defer close(events)
		defer w.watcher.Close()

		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}

				if ignored(event.Name) {
					continue
				}

				info, err := os.Stat(event.Name)

				if os.IsNotExist(err) {
					w.watcher.Remove(event.Name)
				}

				if info != nil && info.IsDir() && event.Has(fsnotify.Create) {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Debug("watch directory failed", "path", event.Name, "error", err)
					}
				}

				var action fs.Action

				switch {
				case event.Has(fsnotify.Create):
					action = fs.Create

				case event.Has(fsnotify.Write):
					action = fs.Modify

				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					action = fs.Remove

				default:
					// chmod
					continue
				}

				select {
				case events <- fs.Event{Action: action, Path: event.Name}:
				case <-ctx.Done():
					return
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}

				w.logger.Debug("watch error", "error", err)

			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.Walk(root, func(name string, info os.FileInfo, err error) error {
		if err != nil {
			if name == root {
				return err
			}

			return nil
		}

		if !info.IsDir() {
			return nil
		}

		if ignored(name) {
			return filepath.SkipDir
		}

		return w.watcher.Add(name)
	})
}

func ignored(name string) bool {
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if part == ".git" {
			return true
		}
	}

	return false
}
