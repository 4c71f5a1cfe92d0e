package index

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dshills/codeindex/pkg/types"
)

// State is the lifecycle phase of an Indexer
type State int

const (
	StateCreated State = iota
	StateInitializing
	StateIndexing
	StateIdle
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitializing:
		return "initializing"
	case StateIndexing:
		return "indexing"
	case StateIdle:
		return "idle"
	case StateShuttingDown:
		return "shutting-down"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// lifecycle is the stored part of State; indexing vs idle is derived from the queue
type lifecycle int

const (
	lifeCreated lifecycle = iota
	lifeInitializing
	lifeRunning
	lifeShuttingDown
	lifeTerminated
)

// Options configures optional collaborators of an Indexer
type Options struct {
	// Logger receives scan and parse failures. Defaults to log.Default().
	Logger *log.Logger

	// Snippets renders code around symbol hits in Search. Optional.
	Snippets SnippetProvider
}

// Indexer maintains an in-memory index of symbols, references, relations and
// files under a set of root directories.
//
// A single worker goroutine applies queued tasks in submission order. Queries
// may be issued from any goroutine; each one holds the data lock for its
// duration only.
type Indexer struct {
	detector LanguageDetector
	parsers  ParserFactory
	snippets SnippetProvider
	logger   *log.Logger

	queue *taskQueue

	// mu guards everything below
	mu       sync.RWMutex
	data     *store
	roots    []string
	progress progress
	stats    types.IndexStats
	life     lifecycle

	callbacks callbackRegistry

	workerDone   chan struct{}
	shutdownOnce sync.Once
}

// New creates an Indexer and starts its worker goroutine. Call Shutdown to stop it.
func New(detector LanguageDetector, parsers ParserFactory, opts *Options) *Indexer {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	ix := &Indexer{
		detector:   detector,
		parsers:    parsers,
		snippets:   opts.Snippets,
		logger:     logger,
		queue:      newTaskQueue(),
		data:       newStore(),
		workerDone: make(chan struct{}),
	}

	go ix.run()

	return ix
}

// Initialize registers every directory in roots and queues a scan for each.
// All directories are validated first; if any is invalid nothing is registered.
func (ix *Indexer) Initialize(roots []string) error {
	normalized := make([]string, 0, len(roots))
	for _, dir := range roots {
		root, err := validateRoot(dir)
		if err != nil {
			return err
		}
		normalized = append(normalized, root)
	}

	ix.mu.Lock()
	if ix.life >= lifeShuttingDown {
		ix.mu.Unlock()
		return ErrShutdown
	}
	ix.life = lifeInitializing
	var added []string
	for _, root := range normalized {
		if !slices.Contains(ix.roots, root) {
			ix.roots = append(ix.roots, root)
			added = append(added, root)
		}
	}
	ix.mu.Unlock()

	for _, root := range added {
		ix.queue.push(Task{Kind: TaskIndexDirectory, Path: root})
	}

	ix.mu.Lock()
	if ix.life == lifeInitializing {
		ix.life = lifeRunning
	}
	ix.mu.Unlock()

	return nil
}

// Shutdown stops accepting work, lets the worker drain every queued task,
// waits for it to exit and then clears the index. It is safe to call more than once.
func (ix *Indexer) Shutdown() {
	ix.shutdownOnce.Do(func() {
		ix.mu.Lock()
		ix.life = lifeShuttingDown
		ix.mu.Unlock()

		ix.queue.requestShutdown()
		<-ix.workerDone

		ix.mu.Lock()
		ix.data.reset()
		ix.roots = nil
		ix.progress.reset()
		ix.detector = nil
		ix.parsers = nil
		ix.life = lifeTerminated
		ix.mu.Unlock()

		ix.callbacks.clear()
		if ix.snippets != nil {
			ix.snippets.Purge()
		}
	})
}

// State reports the current lifecycle phase
func (ix *Indexer) State() State {
	ix.mu.RLock()
	life := ix.life
	ix.mu.RUnlock()

	switch life {
	case lifeCreated:
		return StateCreated
	case lifeInitializing:
		return StateInitializing
	case lifeShuttingDown:
		return StateShuttingDown
	case lifeTerminated:
		return StateTerminated
	}
	if ix.queue.busy() {
		return StateIndexing
	}
	return StateIdle
}

// WaitIdle blocks until no task is queued or running, or ctx is done
func (ix *Indexer) WaitIdle(ctx context.Context) error {
	select {
	case <-ix.queue.idleChan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetRootDirectories returns the registered roots in registration order
func (ix *Indexer) GetRootDirectories() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return slices.Clone(ix.roots)
}

// AddRootDirectory registers dir and queues a scan of it. Adding a root that
// is already registered is a no-op.
func (ix *Indexer) AddRootDirectory(dir string) error {
	root, err := validateRoot(dir)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	if ix.life >= lifeShuttingDown {
		ix.mu.Unlock()
		return ErrShutdown
	}
	if slices.Contains(ix.roots, root) {
		ix.mu.Unlock()
		return nil
	}
	ix.roots = append(ix.roots, root)
	if ix.life < lifeRunning {
		ix.life = lifeRunning
	}
	ix.mu.Unlock()

	ix.queue.push(Task{Kind: TaskIndexDirectory, Path: root})
	return nil
}

// RemoveRootDirectory unregisters dir and synchronously drops every file
// under it that no other registered root still covers. Tasks already queued
// for those files are skipped when the worker reaches them.
func (ix *Indexer) RemoveRootDirectory(dir string) error {
	root, err := normalizePath(dir)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	if ix.life >= lifeShuttingDown {
		ix.mu.Unlock()
		return ErrShutdown
	}
	i := slices.Index(ix.roots, root)
	if i < 0 {
		ix.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	ix.roots = slices.Delete(ix.roots, i, i+1)

	var removed []string
	for path := range ix.data.files {
		if isUnder(path, root) && !ix.coveredLocked(path) {
			removed = append(removed, path)
		}
	}
	for path := range ix.data.byFile {
		if isUnder(path, root) && !ix.coveredLocked(path) && !slices.Contains(removed, path) {
			removed = append(removed, path)
		}
	}
	for _, path := range removed {
		if ix.data.removeFile(path) {
			ix.stats.FilesRemoved++
		}
	}
	ix.mu.Unlock()

	ix.invalidateSnippets(removed...)
	return nil
}

// HandleFileChange queues the task matching a filesystem event. Paths outside
// every registered root are ignored. It returns true if a task was queued.
func (ix *Indexer) HandleFileChange(path string, isCreate, isDelete bool) bool {
	path, err := normalizePath(path)
	if err != nil {
		return false
	}

	ix.mu.Lock()
	if ix.life >= lifeShuttingDown || !ix.coveredLocked(path) {
		ix.mu.Unlock()
		return false
	}

	var task Task
	switch {
	case isDelete:
		task = Task{Kind: TaskRemoveFile, Path: path}
	case isCreate:
		task = Task{Kind: TaskIndexFile, Path: path}
	default:
		if _, known := ix.data.files[path]; known {
			task = Task{Kind: TaskUpdateFile, Path: path}
		} else {
			task = Task{Kind: TaskIndexFile, Path: path}
		}
	}
	if task.Kind != TaskRemoveFile {
		ix.progress.addTotal(1)
	}
	ix.mu.Unlock()

	ix.queue.push(task)
	return true
}

// IsIndexing reports whether tasks are queued or running
func (ix *Indexer) IsIndexing() bool {
	return ix.queue.busy()
}

// GetIndexingProgress returns the fraction of queued files processed, in [0, 1]
func (ix *Indexer) GetIndexingProgress() float64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.progress.fraction()
}

// Reindex re-walks every root. A full reindex clears all indexes first; an
// incremental one only re-queues the directory scans. It fails with
// ErrIndexingInProgress while earlier work is still pending.
func (ix *Indexer) Reindex(incremental bool) error {
	ix.mu.Lock()
	if ix.life >= lifeShuttingDown {
		ix.mu.Unlock()
		return ErrShutdown
	}
	if ix.queue.busy() {
		ix.mu.Unlock()
		return ErrIndexingInProgress
	}
	if !incremental {
		ix.data.reset()
		ix.stats = types.IndexStats{}
	}
	ix.progress.reset()
	roots := slices.Clone(ix.roots)
	ix.mu.Unlock()

	if !incremental && ix.snippets != nil {
		ix.snippets.Purge()
	}

	for _, root := range roots {
		ix.queue.push(Task{Kind: TaskIndexDirectory, Path: root})
	}
	return nil
}

// RegisterUpdateCallback adds a listener and returns its id
func (ix *Indexer) RegisterUpdateCallback(l UpdateListener) int {
	return ix.callbacks.register(l)
}

// UnregisterUpdateCallback removes the listener registered under id
func (ix *Indexer) UnregisterUpdateCallback(id int) {
	ix.callbacks.unregister(id)
}

// Stats returns counters describing the work done so far
func (ix *Indexer) Stats() types.IndexStats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	stats := ix.stats
	stats.Symbols = len(ix.data.symbols)
	stats.References = len(ix.data.references)
	stats.Relations = len(ix.data.relations)
	return stats
}

// coveredLocked reports whether path lies under a registered root
func (ix *Indexer) coveredLocked(path string) bool {
	for _, root := range ix.roots {
		if isUnder(path, root) {
			return true
		}
	}
	return false
}

func (ix *Indexer) invalidateSnippets(paths ...string) {
	if ix.snippets == nil {
		return
	}
	for _, p := range paths {
		ix.snippets.Invalidate(p)
	}
}

func (ix *Indexer) touchLocked() {
	ix.stats.LastUpdate = time.Now()
}

// validateRoot normalizes dir and checks that it is an existing directory
func validateRoot(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidRoot)
	}
	root, err := normalizePath(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRoot, dir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRoot, root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}
	return root, nil
}

func normalizePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// isUnder reports whether path is root or lies below it, on path boundaries
func isUnder(path, root string) bool {
	if path == root {
		return true
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return strings.HasPrefix(path, root)
}
