package filestore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
)

const (
	// eventChannelBuffer is the size of the change channel.
	eventChannelBuffer = 256

	// DefaultDebounce is used when no debounce delay is configured.
	DefaultDebounce = 500 * time.Millisecond
)

// Change reports that objects of an experiment or run were written or
// removed. RunID is empty when only the experiment meta file changed.
type Change struct {
	ExperimentID string
	RunID        string
	// Removed is set when the experiment or run directory is gone.
	Removed bool
}

// Watcher watches a store directory and reports changed runs. File events
// are collected for one debounce interval and reported once per run.
type Watcher struct {
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	logger   *slog.Logger

	pendingMu sync.Mutex
	pending   map[Change]struct{}

	// Content hashes of seen files, to skip writes that change nothing.
	hashMu sync.Mutex
	hashes map[string]uint64

	changes chan Change
	dropped atomic.Int64
}

// NewWatcher creates a watcher for the store's root directory.
func NewWatcher(s *Store, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     s.Root(),
		debounce: debounce,
		fsw:      fsw,
		logger:   logger,
		pending:  make(map[Change]struct{}),
		hashes:   make(map[string]uint64),
		changes:  make(chan Change, eventChannelBuffer),
	}, nil
}

// Changes returns the channel of debounced changes. It is closed when the
// watcher stops.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Start adds watches for the existing tree and begins processing events.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.root); err != nil {
		return err
	}
	go w.processEvents(ctx)

	w.logger.Info("Store watcher started", "root", w.root, "debounce", w.debounce)
	return nil
}

// Stop stops the watcher. The changes channel is closed by processEvents.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

// DroppedChanges returns the number of changes dropped on a full channel.
func (w *Watcher) DroppedChanges() int64 {
	return w.dropped.Load()
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.changes)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			// Files may land in the new tree before its watch is added.
			if err := w.addWatchesRecursive(path); err != nil {
				w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
			}
		}
	}

	change, ok := w.classify(path)
	if !ok {
		return
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.forgetHash(path)
	} else if !w.contentChanged(path) {
		return
	}

	w.pendingMu.Lock()
	w.pending[change] = struct{}{}
	w.pendingMu.Unlock()

	w.logger.Debug("Store change detected", "path", path, "op", event.Op.String())
}

// classify maps a path below the root to the experiment and run it belongs to.
func (w *Watcher) classify(path string) (Change, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return Change{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	c := Change{ExperimentID: parts[0]}
	if len(parts) >= 2 && parts[1] != MetaFile {
		c.RunID = parts[1]
	}
	return c, true
}

func (w *Watcher) changeDir(c Change) string {
	if c.RunID == "" {
		return filepath.Join(w.root, c.ExperimentID)
	}
	return filepath.Join(w.root, c.ExperimentID, c.RunID)
}

// contentChanged records the hash of a regular file and reports whether it
// differs from the last one seen. Directories always count as changed.
func (w *Watcher) contentChanged(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return err == nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("Failed to read file for hash check", "path", path, "error", err)
		return false
	}
	sum := xxhash.Sum64(data)

	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	if old, ok := w.hashes[path]; ok && old == sum {
		return false
	}
	w.hashes[path] = sum
	return true
}

func (w *Watcher) forgetHash(path string) {
	w.hashMu.Lock()
	delete(w.hashes, path)
	w.hashMu.Unlock()
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toSend := w.pending
	w.pending = make(map[Change]struct{})
	w.pendingMu.Unlock()

	for c := range toSend {
		if ctx.Err() != nil {
			return
		}
		if _, err := os.Stat(w.changeDir(c)); os.IsNotExist(err) {
			c.Removed = true
		}
		w.send(c)
	}
}

func (w *Watcher) send(c Change) {
	select {
	case w.changes <- c:
	default:
		dropped := w.dropped.Add(1)
		w.logger.Warn("Change channel full, dropping change",
			"experiment_id", c.ExperimentID,
			"run_id", c.RunID,
			"total_dropped", dropped)
	}
}
