// Package watcher reports image files that appear in a directory, such as
// a screenshot folder.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultExtensions are the image types picked up when none are given.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// DefaultSettle is how long a file must go without writes before it is
// reported.
const DefaultSettle = 300 * time.Millisecond

// Watcher emits paths of new image files.
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	settle     time.Duration
}

// New creates a watcher for files with the given extensions.
func New(extensions []string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}

	return &Watcher{
		watcher:    w,
		extensions: normalized,
		settle:     DefaultSettle,
	}, nil
}

// SetSettle changes the quiet period; call before Watch.
func (w *Watcher) SetSettle(d time.Duration) {
	if d > 0 {
		w.settle = d
	}
}

// Watch starts monitoring dir. A path is emitted once it has been created
// (or renamed into place) and then left unwritten for the settle period.
// The channel closes when ctx ends or the watcher is stopped.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	slog.Info("watching for screenshots", "dir", dir, "extensions", w.extensions)

	paths := make(chan string, 16)

	go func() {
		defer close(paths)

		ticker := time.NewTicker(w.settle / 2)
		defer ticker.Stop()

		pending := make(map[string]time.Time)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isWatched(event.Name) {
					continue
				}
				switch {
				case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
					pending[event.Name] = time.Now()
				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					delete(pending, event.Name)
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("watcher error", "dir", dir, "error", err)

			case now := <-ticker.C:
				for path, last := range pending {
					if now.Sub(last) < w.settle {
						continue
					}
					delete(pending, path)
					select {
					case paths <- path:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return paths, nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// isWatched checks the extension and skips hidden temp files.
func (w *Watcher) isWatched(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
