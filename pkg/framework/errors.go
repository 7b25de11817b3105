package framework

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQueueFull indicates Put on a Queue with no free slot.
	ErrQueueFull = errors.New("queue full")
	// ErrQueueEmpty indicates Get on a Queue without elements.
	ErrQueueEmpty = errors.New("queue empty")
)

// FaultError is an unrecoverable fault escaping a task step.
type FaultError struct {
	Task string
	Err  error
}

// Error implements error.
func (e *FaultError) Error() string {
	return fmt.Sprintf("task %q fault: %v", e.Task, e.Err)
}

// Unwrap returns the original fault.
func (e *FaultError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panic inside a task step.
type PanicError struct {
	Value interface{}
}

// Error implements error.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// AggregatedError aggregates multiple errors.
type AggregatedError struct {
	Errors []error
}

// Error implements error
func (e *AggregatedError) Error() string {
	if len(e.Errors) == 0 {
		return ""
	}
	msg := make([]string, len(e.Errors)+1)
	msg[0] = "Multiple errors:"
	for n, err := range e.Errors {
		msg[n+1] = err.Error()
	}
	return strings.Join(msg, "\n")
}

// Add adds errors to be aggregated. nil will be skipped.
func (e *AggregatedError) Add(errs ...error) *AggregatedError {
	for _, err := range errs {
		if err != nil {
			e.Errors = append(e.Errors, err)
		}
	}
	return e
}

// Aggregate returns aggregated error if any error happened.
// A single error is returned as is.
func (e *AggregatedError) Aggregate() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	}
	return e
}
