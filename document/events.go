package document

import "sync"

// EventQueue hands work from background goroutines to the goroutine that
// owns a Controller. Any goroutine may Post; only the owner may Drain.
type EventQueue struct {
	mu      sync.Mutex
	pending []func()
	spare   []func()

	notify chan struct{}
}

// Create an empty event queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{
		notify: make(chan struct{}, 1),
	}
}

// Enqueue an event and wake up the owner.
func (q *EventQueue) Post(ev func()) {
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// A channel that receives a value whenever events are posted.
func (q *EventQueue) Notify() <-chan struct{} {
	return q.notify
}

// Number of queued events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Run all queued events in posting order and return their number. Events
// posted while draining run on the next call.
func (q *EventQueue) Drain() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = q.spare[:0]
	q.spare = nil
	q.mu.Unlock()

	for index, ev := range batch {
		ev()
		batch[index] = nil
	}

	q.mu.Lock()
	q.spare = batch[:0]
	q.mu.Unlock()
	return len(batch)
}
