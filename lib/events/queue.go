package events

import (
	"errors"
	"sync"

	"github.com/calmh/sensord/lib/family"
)

// ErrStopped is returned by Process when a consumer returns family.Error
// without its own error value, matching the spec's "ERROR to stop
// iteration and keep the event".
var ErrStopped = errors.New("events: processing stopped by consumer")

// ProcessFunc is the processing contract of spec §4.9: return
// family.Success to consume the event (it is dropped), family.NotSupported
// to skip it but keep it for another consumer, or family.Error to stop
// iteration and keep the event (and everything after it, in order).
type ProcessFunc func(e *Event) (family.Status, error)

// Queue is a process-wide FIFO of hotplug-style events, under an
// internal mutex, drained cooperatively by Process (spec §4.9).
type Queue struct {
	mu    sync.Mutex
	items []*Event
}

// NewQueue creates an empty event queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Add appends e to the back of the queue. Ownership of e passes to the
// queue.
func (q *Queue) Add(e *Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, e)
}

// Len reports the number of events currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Process drains the queue in FIFO order, calling fn once per event.
// Events fn consumes (family.Success) are dropped; events fn declines
// (family.NotSupported) are preserved in queue order for the next
// consumer; the first family.Error return stops iteration immediately,
// preserving that event and everything queued after it.
func (q *Queue) Process(fn ProcessFunc) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	remaining := make([]*Event, 0, len(q.items))
	var stopErr error

	for i, e := range q.items {
		status, err := fn(e)
		switch status {
		case family.Success:
			// consumed; drop it
		case family.NotSupported:
			remaining = append(remaining, e)
		case family.Error:
			remaining = append(remaining, e)
			remaining = append(remaining, q.items[i+1:]...)
			stopErr = err
			if stopErr == nil {
				stopErr = ErrStopped
			}
		default:
			remaining = append(remaining, e)
		}
		if stopErr != nil {
			break
		}
	}

	q.items = remaining
	return stopErr
}
