package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

type fakeActuator struct {
	disabled int
}

func (a *fakeActuator) Disable() {
	a.disabled++
}

func stateOf(name string) StepFunc {
	return func() (State, error) { return StateName(name), nil }
}

func tickFor(t *testing.T, s *Scheduler, mock *clock.Mock, steps int, step time.Duration) {
	for i := 0; i < steps; i++ {
		mock.Add(step)
		require.NoError(t, s.Tick())
	}
}

func TestSchedulerEndToEnd(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler().WithClock(mock)
	counter := NewShare[int]("counter", 0)
	var observed []int

	a := NewTask("A", 3, 10*time.Millisecond, StepFunc(func() (State, error) {
		counter.Put(counter.Get() + 1)
		return StateName("count"), nil
	}))
	b := NewTask("B", 1, 100*time.Millisecond, StepFunc(func() (State, error) {
		observed = append(observed, counter.Get())
		return StateName("observe"), nil
	}))
	s.AddTask(b, a)

	tickFor(t, s, mock, 100, time.Millisecond)

	require.EqualValues(t, 10, a.Stats().Runs)
	require.EqualValues(t, 1, b.Stats().Runs)
	require.Equal(t, []int{10}, observed)
	require.Equal(t, "observe", b.State().String())
}

func TestSchedulerPriorityOrder(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler().WithClock(mock)
	var order []string
	record := func(name string) StepFunc {
		return func() (State, error) {
			order = append(order, name)
			return StateName(name), nil
		}
	}
	s.AddTask(
		NewTask("low", 1, 10*time.Millisecond, record("low")),
		NewTask("high", 5, 10*time.Millisecond, record("high")),
	)

	tickFor(t, s, mock, 50, time.Millisecond)

	require.Len(t, order, 10)
	for i := 0; i < len(order); i += 2 {
		require.Equal(t, []string{"high", "low"}, order[i:i+2], "pass %d", i/2)
	}
}

func TestSchedulerTieBreakByRegistration(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler().WithClock(mock)
	var order []string
	record := func(name string) StepFunc {
		return func() (State, error) {
			order = append(order, name)
			return StateName(name), nil
		}
	}
	s.AddTask(NewTask("first", 2, 5*time.Millisecond, record("first")))
	s.AddTask(
		NewTask("top", 9, 5*time.Millisecond, record("top")),
		NewTask("second", 2, 5*time.Millisecond, record("second")),
	)

	tickFor(t, s, mock, 5, time.Millisecond)

	require.Equal(t, []string{"top", "first", "second"}, order)
	names := make([]string, 0, 3)
	for _, task := range s.Tasks() {
		names = append(names, task.Name)
	}
	require.Equal(t, []string{"top", "first", "second"}, names)
}

func TestSchedulerSelfRelativePeriod(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler().WithClock(mock)
	slow := NewTask("slow", 1, 10*time.Millisecond, stateOf("slow"))
	s.AddTask(NewTask("load", 2, 10*time.Millisecond, StepFunc(func() (State, error) {
		// a step consuming 4ms delays the lower priority task.
		mock.Add(4 * time.Millisecond)
		return StateName("load"), nil
	})), slow)

	mock.Add(10 * time.Millisecond)
	require.NoError(t, s.Tick())
	require.Equal(t, time.Unix(0, 0).Add(14*time.Millisecond), slow.LastRun())
}

func TestSchedulerHighPriorityLoadDelaysLowPriority(t *testing.T) {
	// Documents the starvation trade-off: no aging is applied, an
	// always due heavy task stretches the effective period of others.
	mock := clock.NewMock()
	s := NewScheduler().WithClock(mock)
	low := NewTask("low", 0, 10*time.Millisecond, stateOf("low"))
	s.AddTask(NewTask("heavy", 9, 0, StepFunc(func() (State, error) {
		mock.Add(25 * time.Millisecond)
		return StateName("heavy"), nil
	})), low)

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Tick())
	}
	// 100ms elapsed, a 10ms task only got two runs.
	require.EqualValues(t, 4, s.Tasks()[0].Stats().Runs)
	require.EqualValues(t, 2, low.Stats().Runs)
	require.Equal(t, time.Unix(0, 0).Add(100*time.Millisecond), mock.Now())
}

func TestSchedulerFaultDisablesActuators(t *testing.T) {
	testCases := []struct {
		name string
		step StepFunc
		is   error
	}{
		{
			name: "error",
			step: func() (State, error) { return StateName("bad"), errSensorGone },
			is:   errSensorGone,
		},
		{
			name: "panic",
			step: func() (State, error) { panic("boom") },
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := clock.NewMock()
			left, right := &fakeActuator{}, &fakeActuator{}
			s := NewScheduler().WithClock(mock)
			s.Idle = 0
			s.AddTask(NewTask("faulty", 1, 0, tc.step))
			s.AddSafeStop(left, right)

			err := s.Run(context.Background())
			require.Error(t, err)
			var fault *FaultError
			require.True(t, errors.As(err, &fault))
			require.Equal(t, "faulty", fault.Task)
			if tc.is != nil {
				require.ErrorIs(t, err, tc.is)
			} else {
				var p *PanicError
				require.True(t, errors.As(err, &p))
			}
			require.Equal(t, 1, left.disabled)
			require.Equal(t, 1, right.disabled)
		})
	}
}

var errSensorGone = errors.New("sensor gone")

func TestSchedulerCancel(t *testing.T) {
	mock := clock.NewMock()
	actuator := &fakeActuator{}
	s := NewScheduler().WithClock(mock)
	s.Idle = 0
	started := make(chan struct{})
	s.AddRunnable(RunFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	s.AddSafeStop(actuator)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	err := s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, actuator.disabled)
}

func TestTaskProfileAndTrace(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler().WithClock(mock)
	n := 0
	task := NewTask("toggle", 1, time.Millisecond, StepFunc(func() (State, error) {
		n++
		mock.Add(time.Millisecond)
		if n%3 == 0 {
			return StateName("B"), nil
		}
		return StateName("A"), nil
	})).WithProfile().WithTrace(2)
	s.AddTask(task)

	tickFor(t, s, mock, 6, time.Millisecond)

	stats := task.Stats()
	require.EqualValues(t, 6, stats.Runs)
	require.Equal(t, time.Millisecond, stats.Longest)
	require.Equal(t, time.Millisecond, stats.Average())
	trace := task.Trace()
	require.Len(t, trace, 2)
	require.Equal(t, "A", trace[0].State.String())
	require.Equal(t, "B", trace[1].State.String())
	require.Contains(t, s.String(), "toggle")
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errs.Add(errSensorGone)
	require.Equal(t, errSensorGone, errs.Aggregate())
	errs.Add(errors.New("second"))
	require.EqualError(t, errs.Aggregate(), "Multiple errors:\nsensor gone\nsecond")
}
