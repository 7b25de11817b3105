package framework

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// Task wraps a StateMachine with scheduling parameters.
type Task struct {
	Name     string
	Priority int
	Period   time.Duration

	// Profile enables run time accounting.
	Profile bool
	// TraceLimit is the number of state transitions kept, 0 disables tracing.
	TraceLimit int

	machine StateMachine
	lastRun time.Time
	state   State
	stats   TaskStats
	trace   []TraceEntry
	order   int
}

// TaskStats provides diagnostics of a task.
type TaskStats struct {
	Runs    uint64
	Total   time.Duration
	Longest time.Duration
}

// Average returns the average run time.
func (s TaskStats) Average() time.Duration {
	if s.Runs == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Runs)
}

// TraceEntry records a state transition.
type TraceEntry struct {
	Time  time.Time
	State State
}

// NewTask creates a Task.
func NewTask(name string, priority int, period time.Duration, machine StateMachine) *Task {
	return &Task{
		Name:     name,
		Priority: priority,
		Period:   period,
		machine:  machine,
	}
}

// WithProfile enables profiling.
func (t *Task) WithProfile() *Task {
	t.Profile = true
	return t
}

// WithTrace keeps the last n state transitions.
func (t *Task) WithTrace(n int) *Task {
	t.TraceLimit = n
	return t
}

// State returns the state reported by the last step.
func (t *Task) State() State {
	return t.state
}

// Stats returns the run statistics.
func (t *Task) Stats() TaskStats {
	return t.stats
}

// LastRun returns the time the task was last resumed.
func (t *Task) LastRun() time.Time {
	return t.lastRun
}

// Trace returns recorded state transitions, oldest first.
func (t *Task) Trace() []TraceEntry {
	return append([]TraceEntry(nil), t.trace...)
}

// Due indicates the period has elapsed since the last run.
func (t *Task) Due(now time.Time) bool {
	return now.Sub(t.lastRun) >= t.Period
}

// String implements fmt.Stringer.
func (t *Task) String() string {
	line := fmt.Sprintf("%-24s %4d %8v %10d", t.Name, t.Priority, t.Period, t.stats.Runs)
	if t.Profile {
		line += fmt.Sprintf(" %10v %10v", t.stats.Average(), t.stats.Longest)
	}
	return line
}

func (t *Task) resume(clk clock.Clock) (err error) {
	start := clk.Now()
	t.lastRun = start
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
		if err != nil {
			err = &FaultError{Task: t.Name, Err: err}
		}
	}()

	state, err := t.machine.Step()
	t.stats.Runs++
	if t.Profile {
		elapsed := clk.Since(start)
		t.stats.Total += elapsed
		if elapsed > t.stats.Longest {
			t.stats.Longest = elapsed
		}
	}
	if t.TraceLimit > 0 && state != nil && (t.state == nil || state.String() != t.state.String()) {
		if len(t.trace) >= t.TraceLimit {
			t.trace = t.trace[1:]
		}
		t.trace = append(t.trace, TraceEntry{Time: start, State: state})
	}
	t.state = state
	return err
}
