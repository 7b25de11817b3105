package framework

import "fmt"

// Queue is a fixed capacity FIFO ring buffer.
// Put on a full queue is rejected, the oldest element is never overwritten.
type Queue[T Primitive] struct {
	name  string
	buf   []T
	wr    int
	count int
}

// NewQueue creates a Queue with the given capacity.
func NewQueue[T Primitive](name string, capacity int) *Queue[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("queue %q: invalid capacity %d", name, capacity))
	}
	return &Queue[T]{name: name, buf: make([]T, capacity)}
}

// Name implements Named.
func (q *Queue[T]) Name() string {
	return q.name
}

// Put appends a value, returns ErrQueueFull if no slot is free.
func (q *Queue[T]) Put(v T) error {
	if q.count == len(q.buf) {
		return ErrQueueFull
	}
	q.buf[q.wr] = v
	q.wr = (q.wr + 1) % len(q.buf)
	q.count++
	return nil
}

// Get removes the oldest value, returns ErrQueueEmpty if there is none.
func (q *Queue[T]) Get() (v T, err error) {
	if q.count == 0 {
		return v, ErrQueueEmpty
	}
	rd := (q.wr - q.count + len(q.buf)) % len(q.buf)
	q.count--
	return q.buf[rd], nil
}

// Any indicates there is at least one value.
func (q *Queue[T]) Any() bool {
	return q.count > 0
}

// Full indicates no more value can be put.
func (q *Queue[T]) Full() bool {
	return q.count == len(q.buf)
}

// NumIn returns the number of values in the queue.
func (q *Queue[T]) NumIn() int {
	return q.count
}

// Capacity returns the maximum number of values.
func (q *Queue[T]) Capacity() int {
	return len(q.buf)
}

// Clear empties the queue. Stored elements are not zeroed.
func (q *Queue[T]) Clear() {
	q.wr, q.count = 0, 0
}

// String implements fmt.Stringer.
func (q *Queue[T]) String() string {
	return fmt.Sprintf("%s: %d/%d", q.name, q.count, len(q.buf))
}
