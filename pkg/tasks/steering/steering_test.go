package steering

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/romi/pkg/hw/hwtest"
	"github.com/robotalks/romi/pkg/shares"
)

func newTask() (*Task, *hwtest.IRArray, *shares.Set) {
	set := shares.NewSet(1)
	ir := hwtest.NewIRArray(7)
	set.Line.KLine.Put(4)
	set.Line.Target.Put(10)
	return New(DefaultConfig(7), ir, set), ir, set
}

func step(t *testing.T, task *Task) State {
	state, err := task.Step()
	require.NoError(t, err)
	return state.(State)
}

func following(t *testing.T) (*Task, *hwtest.IRArray, *shares.Set) {
	task, ir, set := newTask()
	require.Equal(t, WaitEnable, step(t, task))
	set.Command.ControlMode.Put(shares.ControlLine)
	set.Flags.MotorEnable.Put(true)
	require.Equal(t, Follow, step(t, task))
	ir.Set(0, 0, 0, 1, 0, 0, 0)
	return task, ir, set
}

func requireSetpoints(t *testing.T, set *shares.Set, left, right float64) {
	require.InDelta(t, left, set.Setpoints.Left.Get(), 1e-9, "left")
	require.InDelta(t, right, set.Setpoints.Right.Get(), 1e-9, "right")
}

func TestWaitEnable(t *testing.T) {
	task, _, set := newTask()
	set.Line.Bias.Put(0.3)
	set.Setpoints.Put(5, 5)
	require.Equal(t, WaitEnable, step(t, task))
	require.Zero(t, set.Line.Bias.Get())
	requireSetpoints(t, set, 0, 0)

	set.Command.ControlMode.Put(shares.ControlVelocity)
	set.Setpoints.Put(5, 5)
	require.Equal(t, WaitEnable, step(t, task))
	requireSetpoints(t, set, 0, 0)

	set.Command.ControlMode.Put(shares.ControlLine)
	require.Equal(t, Follow, step(t, task))
}

func TestFollow(t *testing.T) {
	testCases := []struct {
		name        string
		values      []float64
		bias        float64
		left, right float64
	}{
		{name: "centered", values: []float64{0, 0, 0, 1, 0, 0, 0}, left: 10, right: 10},
		{name: "line right", values: []float64{0, 0, 0, 0, 0, 1, 0}, left: 10 + 4*2.0/3, right: 10 - 4*2.0/3},
		{name: "line left", values: []float64{1, 0, 0, 0, 0, 0, 0}, left: 6, right: 14},
		{name: "biased", values: []float64{0, 0, 0, 1, 0, 0, 0}, bias: 0.5, left: 12, right: 8},
		{name: "clamped", values: []float64{0, 0, 0, 0, 0, 0, 1}, bias: 10, left: 22, right: -22},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			task, ir, set := following(t)
			ir.Set(tc.values...)
			set.Line.Bias.Put(tc.bias)
			require.Equal(t, Follow, step(t, task))
			requireSetpoints(t, set, tc.left, tc.right)
		})
	}
}

func TestFollowSoftPause(t *testing.T) {
	task, _, set := following(t)
	require.Equal(t, Follow, step(t, task))
	requireSetpoints(t, set, 10, 10)

	set.Flags.MotorEnable.Put(false)
	require.Equal(t, Follow, step(t, task))
	requireSetpoints(t, set, 0, 0)

	set.Flags.MotorEnable.Put(true)
	require.Equal(t, Follow, step(t, task))
	requireSetpoints(t, set, 10, 10)
}

func TestLostLineRecovery(t *testing.T) {
	task, ir, set := following(t)
	ir.Set(0, 0, 0, 0, 0, 0, 0)
	require.Equal(t, Lost, step(t, task))

	require.Equal(t, Lost, step(t, task))
	requireSetpoints(t, set, 5, 5)

	ir.Set(0, 0.02, 0, 0, 0, 0.03, 0)
	require.Equal(t, Lost, step(t, task))

	ir.Set(0, 0.02, 0, 0, 0, 0.04, 0)
	require.Equal(t, Follow, step(t, task))
	require.Equal(t, Follow, step(t, task))
}

func TestLeaveLineMode(t *testing.T) {
	for _, lost := range []bool{false, true} {
		task, ir, set := following(t)
		if lost {
			ir.Set(0, 0, 0, 0, 0, 0, 0)
			require.Equal(t, Lost, step(t, task))
		}
		set.Command.ControlMode.Put(shares.ControlEffort)
		require.Equal(t, WaitEnable, step(t, task))
		requireSetpoints(t, set, 0, 0)
	}
}
