package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of events to settle
const DefaultDebounce = 100 * time.Millisecond

// ErrStopped is returned when using a watcher after Stop
var ErrStopped = errors.New("watcher stopped")

// ChangeHandler receives settled file changes. *index.Indexer implements it.
type ChangeHandler interface {
	HandleFileChange(path string, isCreate, isDelete bool) bool
}

// Filter decides which files and directories are skipped
type Filter interface {
	ShouldIgnoreFile(path string) bool
}

// Options configures a Watcher
type Options struct {
	Debounce time.Duration // Zero uses DefaultDebounce, negative disables batching
	Logger   *log.Logger
}

// EventType represents the settled change for one path
type EventType int

const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
)

// String returns the event name
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventWrite:
		return "write"
	case EventRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Stats contains statistics about file watching operations
type Stats struct {
	EventsForwarded int64
	EventsDropped   int64 // Forwarded but rejected by the handler, e.g. outside every root
	ErrorCount      int64
	WatchedDirs     int
	LastEventTime   time.Time
	IsActive        bool
}

// Watcher monitors root directories recursively and forwards debounced
// changes to a ChangeHandler
type Watcher struct {
	fsw      *fsnotify.Watcher
	handler  ChangeHandler
	filter   Filter
	debounce time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	roots   map[string]struct{}
	watched map[string]struct{}
	pending map[string]EventType
	started bool
	stopped bool
	stats   Stats

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher. filter may be nil.
func New(handler ChangeHandler, filter Filter, opts *Options) (*Watcher, error) {
	if opts == nil {
		opts = &Options{}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	debounce := opts.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Watcher{
		fsw:      fsw,
		handler:  handler,
		filter:   filter,
		debounce: debounce,
		logger:   logger,
		roots:    make(map[string]struct{}),
		watched:  make(map[string]struct{}),
		pending:  make(map[string]EventType),
	}, nil
}

// Start begins processing events until ctx is cancelled or Stop is called
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrStopped
	}
	if w.started {
		return nil
	}
	w.started = true
	w.stats.IsActive = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher. Pending events that have not settled are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.stats.IsActive = false
	cancel := w.cancel
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	err := w.fsw.Close()
	w.wg.Wait()

	w.mu.Lock()
	clear(w.pending)
	clear(w.watched)
	w.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to close fsnotify watcher: %w", err)
	}
	return nil
}

// AddRoot recursively watches every non-ignored directory under root
func (w *Watcher) AddRoot(root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	root = filepath.Clean(root)

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ErrStopped
	}
	w.roots[root] = struct{}{}
	w.mu.Unlock()

	w.addWatches(root, nil)
	return nil
}

// RemoveRoot stops watching root and every directory below it that no other
// root covers
func (w *Watcher) RemoveRoot(root string) {
	root, err := filepath.Abs(root)
	if err != nil {
		return
	}
	root = filepath.Clean(root)

	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.roots, root)
	for dir := range w.watched {
		if !isUnder(dir, root) || w.coveredLocked(dir) {
			continue
		}
		if err := w.fsw.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
			w.logger.Printf("watcher: failed to remove watch %s: %v", dir, err)
		}
		delete(w.watched, dir)
	}
}

// Roots returns the watched roots, sorted
func (w *Watcher) Roots() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Sorted(maps.Keys(w.roots))
}

// Stats returns current watch statistics
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.stats
	s.WatchedDirs = len(w.watched)
	return s
}

// addWatches walks dir adding a watch for each directory. When created is
// non-nil, every file found is reported to it; this catches files written
// into a new directory before its watch existed.
func (w *Watcher) addWatches(dir string, created func(path string)) {
	// Track visited directories to prevent infinite loops from symlink cycles
	visited := make(map[string]bool)

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}

		if !d.IsDir() {
			if created != nil && d.Type().IsRegular() && !w.ignored(path) {
				created(path)
			}
			return nil
		}

		if path != dir && w.ignored(path) {
			return filepath.SkipDir
		}

		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return filepath.SkipDir
		}
		if visited[realPath] {
			return filepath.SkipDir
		}
		visited[realPath] = true

		if err := w.fsw.Add(path); err != nil {
			w.logger.Printf("watcher: failed to add watch for %s: %v", path, err)
			w.countError()
			return nil
		}

		w.mu.Lock()
		w.watched[path] = struct{}{}
		w.mu.Unlock()
		return nil
	})
}

// processEvents processes file system events and flushes settled batches
func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.handleEvent(event) {
				continue
			}
			if w.debounce < 0 {
				w.flush()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.flush()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Printf("watcher: %v", err)
			w.countError()
		}
	}
}

// handleEvent records one fsnotify event and reports whether anything is pending
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	path := filepath.Clean(event.Name)

	info, err := os.Stat(path)
	if err != nil {
		// Gone: a removal, or the old name of a rename
		if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
			w.forgetDir(path)
			if !w.ignored(path) {
				w.record(path, EventRemove)
				return true
			}
		}
		return false
	}

	if info.IsDir() {
		if event.Op.Has(fsnotify.Create) && !w.ignored(path) {
			found := false
			w.addWatches(path, func(file string) {
				w.record(file, EventCreate)
				found = true
			})
			return found
		}
		return false
	}

	if !info.Mode().IsRegular() || w.ignored(path) {
		return false
	}

	switch {
	case event.Op.Has(fsnotify.Create):
		w.record(path, EventCreate)
	case event.Op.Has(fsnotify.Write):
		w.record(path, EventWrite)
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		// Replaced in place (editors that save via rename)
		w.record(path, EventWrite)
	default:
		return false // Chmod
	}
	return true
}

// record merges a new event into the pending batch for path
func (w *Watcher) record(path string, ev EventType) {
	w.mu.Lock()
	defer w.mu.Unlock()

	prev, ok := w.pending[path]
	if ok && prev == EventCreate && ev == EventWrite {
		return // Still a create
	}
	w.pending[path] = ev
}

// flush forwards every pending event to the handler in path order
func (w *Watcher) flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string]EventType)
	w.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	var forwarded, dropped int64
	for _, path := range slices.Sorted(maps.Keys(batch)) {
		ev := batch[path]
		if w.handler.HandleFileChange(path, ev == EventCreate, ev == EventRemove) {
			forwarded++
		} else {
			dropped++
		}
	}

	w.mu.Lock()
	w.stats.EventsForwarded += forwarded
	w.stats.EventsDropped += dropped
	w.stats.LastEventTime = time.Now()
	w.mu.Unlock()
}

// forgetDir drops bookkeeping for a removed directory and its subdirectories
func (w *Watcher) forgetDir(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for dir := range w.watched {
		if isUnder(dir, path) {
			delete(w.watched, dir)
		}
	}
}

func (w *Watcher) ignored(path string) bool {
	return w.filter != nil && w.filter.ShouldIgnoreFile(path)
}

func (w *Watcher) countError() {
	w.mu.Lock()
	w.stats.ErrorCount++
	w.mu.Unlock()
}

func (w *Watcher) coveredLocked(dir string) bool {
	for root := range w.roots {
		if isUnder(dir, root) {
			return true
		}
	}
	return false
}

// isUnder reports whether path equals dir or lies below it
func isUnder(path, dir string) bool {
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
