package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// DefaultDebounce is how long the watcher waits for the tree to settle
// before reporting a batch of changes.
const DefaultDebounce = 500 * time.Millisecond

// ChangeKind classifies a file change.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Change is one file event under the corpus root.
type Change struct {
	Path string
	Kind ChangeKind
}

// Watcher reports changes to the documents directory in debounced batches.
type Watcher struct {
	root     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period before a batch is emitted.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for root and every non-hidden directory below it.
func NewWatcher(root string, opts ...WatchOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{root: root, debounce: DefaultDebounce, watcher: fw}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(root); err != nil {
		fw.Close() //nolint:errcheck
		return nil, err
	}
	return w, nil
}

// addTree watches dir and its non-hidden subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != w.root && isHidden(entry.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Watch emits batches of changes until ctx is cancelled.
// The channel is closed when watching stops.
func (w *Watcher) Watch(ctx context.Context) <-chan []Change {
	out := make(chan []Change)

	go func() {
		defer close(out)

		var pending []Change
		timer := time.NewTimer(w.debounce)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if change := w.handleEvent(event); change != nil {
					pending = append(pending, *change)
					timer.Reset(w.debounce)
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Corpus watcher: %v", err)

			case <-timer.C:
				if len(pending) == 0 {
					continue
				}
				select {
				case out <- pending:
				case <-ctx.Done():
					return
				}
				pending = nil
			}
		}
	}()

	return out
}

// handleEvent converts a filesystem event into a Change.
// Hidden paths, chmod-only events and directory events yield nil;
// newly created directories are added to the watch set.
func (w *Watcher) handleEvent(event fsnotify.Event) *Change {
	if w.hiddenPath(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				logger.Warn("Corpus watcher: %v", err)
			}
			return nil
		}
		return &Change{Path: event.Name, Kind: ChangeCreated}

	case event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		return &Change{Path: event.Name, Kind: ChangeUpdated}

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &Change{Path: event.Name, Kind: ChangeDeleted}
	}
	return nil
}

// hiddenPath reports whether any component of path below root is hidden.
func (w *Watcher) hiddenPath(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return isHidden(filepath.Base(path))
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part != "." && part != ".." && isHidden(part) {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
