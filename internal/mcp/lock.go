package mcp

import "sync/atomic"

// exportLock lets a single export_index call run at a time. A second caller
// fails fast instead of queueing behind a long write.
type exportLock struct {
	state atomic.Int32 // 0 = free, 1 = held
}

// TryAcquire takes the lock if it is free and reports whether it did
func (l *exportLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release frees the lock. Only the holder may call it.
func (l *exportLock) Release() {
	l.state.Store(0)
}
