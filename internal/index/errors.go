package index

import "errors"

var (
	// ErrInvalidRoot is returned when a root directory does not exist or is not a directory
	ErrInvalidRoot = errors.New("invalid root directory")
	// ErrRootNotFound is returned when removing a root that was never registered
	ErrRootNotFound = errors.New("root directory not registered")
	// ErrIndexingInProgress is returned by Reindex while tasks are still queued or running
	ErrIndexingInProgress = errors.New("indexing already in progress")
	// ErrShutdown is returned by mutating calls once Shutdown has been requested
	ErrShutdown = errors.New("indexer is shut down")
)
