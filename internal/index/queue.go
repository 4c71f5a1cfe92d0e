package index

import (
	"fmt"
	"sync"
)

// TaskKind tags the work a Task carries
type TaskKind int

const (
	TaskIndexDirectory TaskKind = iota
	TaskIndexFile
	TaskUpdateFile
	TaskRemoveFile
)

func (k TaskKind) String() string {
	switch k {
	case TaskIndexDirectory:
		return "index-directory"
	case TaskIndexFile:
		return "index-file"
	case TaskUpdateFile:
		return "update-file"
	case TaskRemoveFile:
		return "remove-file"
	default:
		return fmt.Sprintf("task(%d)", int(k))
	}
}

// Task is one unit of work for the worker. Content is only meaningful for
// index-file and update-file; nil means read the file from disk.
type Task struct {
	Kind    TaskKind
	Path    string
	Content []byte
}

// taskQueue is a FIFO with a single consumer. It never drops, reorders or
// merges tasks. After shutdown it keeps handing out queued tasks until empty.
type taskQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []Task
	inFlight bool
	shutdown bool

	// idle is closed whenever nothing is queued or in flight
	idle       chan struct{}
	idleClosed bool
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{
		idle:       make(chan struct{}),
		idleClosed: true,
	}
	close(q.idle)
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends a task and wakes the consumer
func (q *taskQueue) push(t Task) {
	q.mu.Lock()
	q.items = append(q.items, t)
	if q.idleClosed {
		q.idle = make(chan struct{})
		q.idleClosed = false
	}
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until a task is available. It returns false only when shutdown
// was requested and the queue is empty.
func (q *taskQueue) pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.shutdown {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return Task{}, false
	}

	t := q.items[0]
	q.items[0] = Task{}
	q.items = q.items[1:]
	q.inFlight = true
	return t, true
}

// done marks the task returned by the last pop as finished
func (q *taskQueue) done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.inFlight = false
	if len(q.items) == 0 && !q.idleClosed {
		close(q.idle)
		q.idleClosed = true
	}
}

// requestShutdown lets pop return once the queue drains
func (q *taskQueue) requestShutdown() {
	q.mu.Lock()
	q.shutdown = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// busy reports whether tasks are queued or one is being processed
func (q *taskQueue) busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight || len(q.items) > 0
}

// size returns the number of queued tasks, excluding the one in flight
func (q *taskQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// idleChan returns a channel that is closed once the queue is drained
func (q *taskQueue) idleChan() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.idle
}
