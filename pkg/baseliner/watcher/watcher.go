// Package watcher re-runs checks when baseline files or the checked tree change.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/baseliner/pkg/baseliner/logging"
)

// DefaultDebounce is how long the watcher waits for events to settle.
const DefaultDebounce = 250 * time.Millisecond

// ErrClosed is returned when using a closed Watcher.
var ErrClosed = errors.New("watcher closed")

// Change is a settled batch of file system events.
type Change struct {
	// Paths are the changed paths, sorted.
	Paths []string
	// Baseline is true when at least one watched baseline file changed.
	Baseline bool
}

// Watcher watches baseline files and, optionally, directory trees.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu     sync.Mutex
	dirs   map[string]bool
	files  map[string]bool
	roots  []string
	skip   []string
	closed bool
}

// New creates a Watcher. A debounce <= 0 uses DefaultDebounce.
func New(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		dirs:     make(map[string]bool),
		files:    make(map[string]bool),
	}, nil
}

// WatchFiles watches individual files. Their parent directories are
// watched so that editors replacing a file by rename are still noticed.
func (w *Watcher) WatchFiles(paths ...string) error {
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		if err := w.addWatch(filepath.Dir(abs)); err != nil {
			return err
		}
		w.mu.Lock()
		w.files[abs] = true
		w.mu.Unlock()
	}
	return nil
}

// WatchTree watches root and all its subdirectories, skipping directory
// names in skip. Symlinks are not followed.
func (w *Watcher) WatchTree(root string, skip ...string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	w.mu.Lock()
	w.roots = append(w.roots, abs)
	w.skip = append(w.skip, skip...)
	w.mu.Unlock()

	return w.addTree(abs)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if d.Type()&fs.ModeSymlink != 0 || !d.IsDir() {
			return nil
		}
		if path != root && w.skipped(d.Name()) {
			return filepath.SkipDir
		}
		return w.addWatch(path)
	})
}

func (w *Watcher) skipped(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Contains(w.skip, name)
}

func (w *Watcher) addWatch(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.dirs[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		logging.Get("watcher").Warn("failed to add watch", "path", dir, "error", err)
		return err
	}
	w.dirs[dir] = true
	return nil
}

// Watched returns the watched directories, sorted.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// Run delivers settled changes to onChange until ctx is done or the
// watcher is closed. onChange runs on the Run goroutine, one call at a time.
func (w *Watcher) Run(ctx context.Context, onChange func(Change)) error {
	logger := logging.Get("watcher")

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := make(map[string]bool)
	baseline := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return ErrClosed
			}
			isBaseline, relevant := w.classify(event)
			if !relevant {
				continue
			}
			logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = true
			baseline = baseline || isBaseline
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ErrClosed
			}
			logger.Error("watcher error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			change := Change{Baseline: baseline}
			for p := range pending {
				change.Paths = append(change.Paths, p)
			}
			slices.Sort(change.Paths)
			clear(pending)
			baseline = false

			if onChange != nil {
				onChange(change)
			}
		}
	}
}

// classify reports whether event touches a baseline file and whether it
// matters at all. New directories inside a watched tree are watched too.
func (w *Watcher) classify(event fsnotify.Event) (isBaseline, relevant bool) {
	if event.Op == fsnotify.Chmod {
		return false, false
	}

	w.mu.Lock()
	isBaseline = w.files[event.Name]
	inTree := false
	for _, root := range w.roots {
		if event.Name == root || strings.HasPrefix(event.Name, root+string(filepath.Separator)) {
			inTree = true
			break
		}
	}
	w.mu.Unlock()

	if inTree && event.Op.Has(fsnotify.Create) {
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() && info.Mode()&fs.ModeSymlink == 0 {
			if !w.skipped(filepath.Base(event.Name)) {
				_ = w.addTree(event.Name)
			}
		}
	}

	return isBaseline, isBaseline || inTree
}

// Close stops watching. Run returns once the event channels close.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}
