package framework

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
)

// Scheduler is a cooperative priority round-robin scheduler.
//
// On every pass the tasks are scanned in descending priority (ties in
// registration order) and each due task is stepped exactly once.
// A task continuously due at a high priority is serviced before lower
// ones on every pass, which may starve them. There is no aging.
type Scheduler struct {
	Clock clock.Clock
	// Idle is the pause between passes. Zero only yields the goroutine.
	Idle time.Duration

	tasks     []*Task
	disablers []Disabler
	runners   []Runnable
	passes    uint64
}

// NewScheduler creates a Scheduler on the wall clock.
func NewScheduler() *Scheduler {
	return &Scheduler{Clock: clock.New(), Idle: time.Millisecond}
}

// WithClock replaces the time source.
func (s *Scheduler) WithClock(clk clock.Clock) *Scheduler {
	s.Clock = clk
	return s
}

// Add adds SchedulerAdders.
func (s *Scheduler) Add(adders ...SchedulerAdder) *Scheduler {
	for _, adder := range adders {
		adder.AddToScheduler(s)
	}
	return s
}

// AddTask registers tasks. A task is first due one period after
// registration.
func (s *Scheduler) AddTask(tasks ...*Task) *Scheduler {
	now := s.Clock.Now()
	for _, t := range tasks {
		t.lastRun = now
		t.order = len(s.tasks)
		s.tasks = append(s.tasks, t)
		if r, ok := t.machine.(Runnable); ok {
			s.runners = append(s.runners, r)
		}
	}
	sort.SliceStable(s.tasks, func(i, j int) bool {
		if s.tasks[i].Priority != s.tasks[j].Priority {
			return s.tasks[i].Priority > s.tasks[j].Priority
		}
		return s.tasks[i].order < s.tasks[j].order
	})
	return s
}

// AddSafeStop registers actuators disabled when the scheduler terminates.
func (s *Scheduler) AddSafeStop(disablers ...Disabler) *Scheduler {
	s.disablers = append(s.disablers, disablers...)
	return s
}

// AddRunnable adds Runnable implementations run in background
// goroutines while the scheduler runs.
func (s *Scheduler) AddRunnable(runnables ...Runnable) *Scheduler {
	s.runners = append(s.runners, runnables...)
	return s
}

// Tasks returns registered tasks in dispatch order.
func (s *Scheduler) Tasks() []*Task {
	return append([]*Task(nil), s.tasks...)
}

// Passes returns the number of completed passes.
func (s *Scheduler) Passes() uint64 {
	return s.passes
}

// Tick performs one pass over all tasks.
func (s *Scheduler) Tick() error {
	now := s.Clock.Now()
	for _, t := range s.tasks {
		if !t.Due(now) {
			continue
		}
		if err := t.resume(s.Clock); err != nil {
			return err
		}
	}
	s.passes++
	return nil
}

// Run implements Runnable. It loops until the context is canceled or
// a task faults. Actuators are always disabled on exit and a fault is
// returned to the caller.
func (s *Scheduler) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := NewRunnerWith(runCtx)
	runner.Go(s.runners...)

	err := s.loop(runCtx)
	if err != nil && !errors.Is(err, context.Canceled) {
		glog.Errorf("scheduler stopped: %v", err)
	}
	s.SafeStop()
	cancel()

	var errs AggregatedError
	errs.Add(err, runner.Wait())
	return errs.Aggregate()
}

// RunOrFail is intended to be used in main to simply run the scheduler.
func (s *Scheduler) RunOrFail(ctx context.Context) {
	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalln(err)
	}
}

// SafeStop disables all registered actuators.
func (s *Scheduler) SafeStop() {
	for _, d := range s.disablers {
		d.Disable()
	}
}

// String renders task diagnostics.
func (s *Scheduler) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-24s %4s %8s %10s %10s %10s\n", "TASK", "PRI", "PERIOD", "RUNS", "AVG", "MAX")
	for _, t := range s.tasks {
		sb.WriteString(t.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (s *Scheduler) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.Tick(); err != nil {
			return err
		}
		if s.Idle > 0 {
			s.Clock.Sleep(s.Idle)
		} else {
			runtime.Gosched()
		}
	}
}
