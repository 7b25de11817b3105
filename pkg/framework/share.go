package framework

import "fmt"

// Primitive is the closed set of element types held by Share and Queue.
type Primitive interface {
	~bool |
		~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64
}

// Share is a single typed cell holding the latest value.
//
// No locking is done: all tasks run on the scheduler's goroutine, so
// at most one of them touches a Share at any time.
type Share[T Primitive] struct {
	name  string
	value T
}

// NewShare creates a Share with an initial value.
func NewShare[T Primitive](name string, initial T) *Share[T] {
	return &Share[T]{name: name, value: initial}
}

// Name implements Named.
func (s *Share[T]) Name() string {
	return s.name
}

// Get returns the most recently put value.
func (s *Share[T]) Get() T {
	return s.value
}

// Put overwrites the value.
func (s *Share[T]) Put(v T) {
	s.value = v
}

// String implements fmt.Stringer.
func (s *Share[T]) String() string {
	return fmt.Sprintf("%s: %v", s.name, s.value)
}
