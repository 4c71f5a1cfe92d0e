package index

import (
	"maps"
	"slices"
	"sync"
)

// Update describes one successfully indexed file
type Update struct {
	Path       string
	Language   string
	Symbols    int
	References int
	Relations  int
}

// UpdateListener is notified after each file is merged into the index.
//
// IndexUpdated runs on the worker goroutine while the callback lock is held:
// it must return quickly and must not register or unregister listeners.
type UpdateListener interface {
	IndexUpdated(u Update)
}

// UpdateListenerFunc adapts a plain function to UpdateListener
type UpdateListenerFunc func(u Update)

// IndexUpdated calls f(u)
func (f UpdateListenerFunc) IndexUpdated(u Update) {
	f(u)
}

type callbackRegistry struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]UpdateListener
}

func (r *callbackRegistry) register(l UpdateListener) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listeners == nil {
		r.listeners = make(map[int]UpdateListener)
	}
	id := r.nextID
	r.nextID++
	r.listeners[id] = l
	return id
}

func (r *callbackRegistry) unregister(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, id)
}

// notify calls every listener in registration order
func (r *callbackRegistry) notify(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range slices.Sorted(maps.Keys(r.listeners)) {
		r.listeners[id].IndexUpdated(u)
	}
}

func (r *callbackRegistry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = nil
}
