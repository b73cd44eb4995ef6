// Package assetwatch reports changes to asset files so they can be reloaded
// between frames.
package assetwatch

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/logger"
)

// Watcher watches individual files. Their directories are watched so files
// replaced by rename are still seen.
type Watcher struct {
	w     *fsnotify.Watcher
	files map[string]bool
	dirs  map[string]bool
}

// New creates a watcher.
func New() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	return &Watcher{w: w, files: make(map[string]bool), dirs: make(map[string]bool)}, nil
}

// Add starts watching path.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if !w.dirs[dir] {
		if err := w.w.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	w.files[abs] = true
	return nil
}

// Poll returns the watched files changed since the last call, sorted and
// without duplicates. It never blocks.
func (w *Watcher) Poll() []string {
	changed := make(map[string]bool)
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return sorted(changed)
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if abs, err := filepath.Abs(ev.Name); err == nil && w.files[abs] {
				changed[abs] = true
			}
		case err, ok := <-w.w.Errors:
			if ok {
				logger.Warn("file watcher error", zap.Error(err))
			}
		default:
			return sorted(changed)
		}
	}
}

func sorted(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.w.Close()
}
