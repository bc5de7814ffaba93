package document

import "time"

// Task runs a function on its own goroutine. When the function returns, a
// completion event is posted to the owner's queue.
type Task[T any] struct {
	done    chan struct{}
	result  T
	elapsed time.Duration
}

// Start fn on a new goroutine. onComplete is invoked with the finished task
// when the owner drains the queue.
func Go[T any](queue *EventQueue, fn func() T, onComplete func(*Task[T])) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		start := time.Now()
		t.result = fn()
		t.elapsed = time.Since(start)
		close(t.done)
		queue.Post(func() { onComplete(t) })
	}()
	return t
}

// A channel that is closed once fn has returned.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Block until fn returns and get its result.
func (t *Task[T]) Wait() T {
	<-t.done
	return t.result
}

// Time spent in fn; valid after Done is closed.
func (t *Task[T]) Elapsed() time.Duration {
	<-t.done
	return t.elapsed
}
