package framework

import (
	"context"
	"fmt"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// State is the tag a StateMachine reports after each step.
// It is used for diagnostics only.
type State interface {
	fmt.Stringer
}

// StateMachine is a resumable state machine driven by the Scheduler.
// Each call to Step performs exactly one pass through the state dispatch
// and returns the current state. A non-nil error is an unrecoverable
// fault, the scheduler stops all actuators and terminates.
type StateMachine interface {
	Step() (State, error)
}

// StepFunc is the func form of StateMachine.
type StepFunc func() (State, error)

// Step implements StateMachine.
func (f StepFunc) Step() (State, error) {
	return f()
}

// Disabler is an actuator which can be forced into a safe state.
type Disabler interface {
	Disable()
}

// SchedulerAdder provides specific logic to add components to a Scheduler.
type SchedulerAdder interface {
	AddToScheduler(*Scheduler)
}

// StateName is a State implementation backed by a string.
type StateName string

// String implements State.
func (s StateName) String() string {
	return string(s)
}
