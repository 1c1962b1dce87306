// Package queue holds results collected from concurrent producers.
package queue

import "sync"

// Queue is a thread-safe FIFO. Worker goroutines push into it and the
// batch owner drains it once they finish; Pop exists for callers that
// consume one item at a time.
type Queue[T any] struct {
	mu   sync.Mutex
	buf  []T
	head int
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Push appends items in order.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	q.buf = append(q.buf, items...)
	q.mu.Unlock()
}

// Pop removes and returns the oldest item, or the zero value when the
// queue is empty.
func (q *Queue[T]) Pop() T {
	q.mu.Lock()
	defer q.mu.Unlock()

	var item T
	if q.head == len(q.buf) {
		return item
	}
	item = q.buf[q.head]

	var zero T
	q.buf[q.head] = zero // drop the reference
	q.head++
	if q.head == len(q.buf) {
		q.buf = q.buf[:0]
		q.head = 0
	}
	return item
}

// Empty reports whether the queue holds no items.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf) - q.head
}

// GetAndEmpty hands back every queued item and resets the queue.
func (q *Queue[T]) GetAndEmpty() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.buf[q.head:]
	q.buf = make([]T, 0, cap(q.buf))
	q.head = 0
	return items
}
