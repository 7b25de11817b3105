package motor

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/romi/pkg/hw/hwtest"
	"github.com/robotalks/romi/pkg/shares"
)

type fixture struct {
	task                  *Task
	set                   *shares.Set
	mock                  *clock.Mock
	leftMotor, rightMotor *hwtest.Motor
	leftEnc, rightEnc     *hwtest.Encoder
	battery               *hwtest.Battery
}

func newFixture() *fixture {
	return newFixtureWithClock(clock.NewMock())
}

func newFixtureWithClock(mock *clock.Mock) *fixture {
	f := &fixture{
		set:        shares.NewSet(10),
		mock:       mock,
		leftMotor:  &hwtest.Motor{},
		rightMotor: &hwtest.Motor{},
		leftEnc:    &hwtest.Encoder{},
		rightEnc:   &hwtest.Encoder{},
		battery:    &hwtest.Battery{Voltage: 9.6},
	}
	f.task = New(
		Wheel{Motor: f.leftMotor, Encoder: f.leftEnc},
		Wheel{Motor: f.rightMotor, Encoder: f.rightEnc},
		f.battery, f.set, f.mock)
	return f
}

func (f *fixture) step(t *testing.T) State {
	f.mock.Add(10 * time.Millisecond)
	state, err := f.task.Step()
	require.NoError(t, err)
	return state.(State)
}

// running steps into RUN with the given modes.
func (f *fixture) running(t *testing.T, control, driving uint8) {
	require.Equal(t, WaitForEnable, f.step(t))
	f.set.Command.ControlMode.Put(control)
	f.set.Command.DrivingMode.Put(driving)
	f.set.Flags.MotorEnable.Put(true)
	require.Equal(t, Run, f.step(t))
}

func TestInit(t *testing.T) {
	f := newFixture()
	f.set.Command.Effort.Put(40)
	f.set.Command.ControlMode.Put(shares.ControlLine)
	f.set.Flags.MotorEnable.Put(true)
	f.set.Flags.RunObserver.Put(true)

	require.Equal(t, WaitForEnable, f.step(t))
	require.False(t, f.leftMotor.Enabled)
	require.False(t, f.rightMotor.Enabled)
	require.Equal(t, 1, f.leftEnc.Zeros)
	require.Zero(t, f.set.Command.Effort.Get())
	require.Equal(t, shares.ControlEffort, f.set.Command.ControlMode.Get())
	require.False(t, f.set.Flags.MotorEnable.Get())
	require.False(t, f.set.Flags.RunObserver.Get())

	// stays waiting until enabled.
	require.Equal(t, WaitForEnable, f.step(t))
	require.Equal(t, "WAIT_FOR_ENABLE", f.task.Current().String())
}

func TestEnable(t *testing.T) {
	f := newFixture()
	f.running(t, shares.ControlEffort, shares.DriveStraight)
	require.True(t, f.leftMotor.Enabled)
	require.True(t, f.rightMotor.Enabled)
	require.True(t, f.set.Flags.RunObserver.Get())
	require.Equal(t, 1, f.battery.Refreshes)
	require.Equal(t, 2, f.leftEnc.Zeros)
	require.EqualValues(t, 20, f.set.Telemetry.StartTime.Get())
}

func TestStartTimeOnWallClock(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC))
	f := newFixtureWithClock(mock)
	f.running(t, shares.ControlEffort, shares.DriveStraight)
	require.EqualValues(t, 20, f.set.Telemetry.StartTime.Get())
}

func TestEnableWithBatteryFailure(t *testing.T) {
	f := newFixture()
	f.battery.Err = errors.New("adc gone")
	f.running(t, shares.ControlEffort, shares.DriveStraight)
	require.True(t, f.leftMotor.Enabled)
}

func TestEffortMode(t *testing.T) {
	testCases := []struct {
		name        string
		driving     uint8
		left, right float64
	}{
		{name: "straight", driving: shares.DriveStraight, left: 50, right: 50},
		{name: "pivot", driving: shares.DrivePivot, left: 50, right: -50},
		{name: "arc", driving: shares.DriveArc, left: 50, right: 30},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.running(t, shares.ControlEffort, tc.driving)
			f.set.Command.Effort.Put(50)
			f.leftEnc.Step, f.rightEnc.Step = 12, -7
			f.leftEnc.Vel, f.rightEnc.Vel = 1200, -700

			require.Equal(t, Run, f.step(t))
			require.InDelta(t, tc.left, f.leftMotor.Effort, 1e-9)
			require.InDelta(t, tc.right, f.rightMotor.Effort, 1e-9)

			tel := f.set.Telemetry
			require.EqualValues(t, 10, tel.Time.Get())
			require.EqualValues(t, 12, tel.LeftPos.Get())
			require.EqualValues(t, -7, tel.RightPos.Get())
			require.EqualValues(t, 1200, tel.LeftVel.Get())
			require.EqualValues(t, -700, tel.RightVel.Get())
			require.InDelta(t, tc.left, tel.LeftEffort.Get(), 1e-9)
			require.True(t, f.set.Flags.MotorDataReady.Get())
		})
	}
}

func TestVelocityMode(t *testing.T) {
	f := newFixture()
	f.set.Gains.Kp.Put(2)
	f.running(t, shares.ControlVelocity, shares.DriveStraight)
	f.set.Command.Setpoint.Put(10)
	f.leftEnc.Vel = 1440 // 2pi rad/s

	require.Equal(t, Run, f.step(t))
	require.Equal(t, 10.0, f.set.Setpoints.Left.Get())
	require.Equal(t, 10.0, f.set.Setpoints.Right.Get())
	require.InDelta(t, 2*(10-2*math.Pi), f.leftMotor.Effort, 1e-9)
	require.InDelta(t, 20, f.rightMotor.Effort, 1e-9)
}

func TestLineModeUsesSteeringSetpoints(t *testing.T) {
	f := newFixture()
	f.set.Gains.Kp.Put(1)
	f.running(t, shares.ControlLine, shares.DriveStraight)
	f.set.Command.Setpoint.Put(99)
	f.set.Setpoints.Put(4, 6)

	require.Equal(t, Run, f.step(t))
	require.Equal(t, 4.0, f.set.Setpoints.Left.Get())
	require.InDelta(t, 4, f.leftMotor.Effort, 1e-9)
	require.InDelta(t, 6, f.rightMotor.Effort, 1e-9)
}

func TestAbort(t *testing.T) {
	f := newFixture()
	f.running(t, shares.ControlEffort, shares.DriveStraight)
	f.set.Command.Effort.Put(80)
	require.Equal(t, Run, f.step(t))
	require.Equal(t, 80.0, f.leftMotor.Effort)

	f.set.Flags.Abort.Put(true)
	require.Equal(t, WaitForEnable, f.step(t))
	require.False(t, f.leftMotor.Enabled)
	require.False(t, f.rightMotor.Enabled)
	require.Zero(t, f.leftMotor.Effort)
	require.False(t, f.set.Flags.MotorEnable.Get())
	require.False(t, f.set.Flags.RunObserver.Get())
	// the abort is latched for other tasks.
	require.True(t, f.set.Flags.Abort.Get())
	require.Zero(t, f.task.LeftLoop.Integrator())
}

func TestEnableCleared(t *testing.T) {
	f := newFixture()
	f.running(t, shares.ControlEffort, shares.DriveStraight)
	f.set.Flags.MotorEnable.Put(false)
	require.Equal(t, WaitForEnable, f.step(t))
	require.False(t, f.leftMotor.Enabled)
	require.Zero(t, f.leftEnc.Updates)
}

func TestSplit(t *testing.T) {
	l, r := Split(7, 10)
	require.Equal(t, 10.0, l)
	require.InDelta(t, 6.0, r, 1e-9)
}
