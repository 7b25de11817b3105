package odometry

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/romi/pkg/hw/hwtest"
	"github.com/robotalks/romi/pkg/shares"
)

func countsFor(mm float64) int32 {
	return int32(math.Round(mm / RomiGeometry.MMPerCount()))
}

func TestSpectatorStraight(t *testing.T) {
	set := shares.NewSet(1)
	task := NewSpectatorTask(RomiGeometry, set)
	task.SetInitialPose(100, 50, math.Pi/2)
	set.Telemetry.LeftPos.Put(500)
	set.Telemetry.RightPos.Put(500)

	_, err := task.Step()
	require.NoError(t, err)
	require.Equal(t, SpectatorWaiting, task.Current())
	_, err = task.Step()
	require.NoError(t, err)
	require.Equal(t, SpectatorWaiting, task.Current())

	set.Flags.RunObserver.Put(true)
	_, err = task.Step()
	require.NoError(t, err)
	require.Equal(t, SpectatorEstimating, task.Current())
	require.Equal(t, 100.0, set.Pose.X.Get())

	n := countsFor(200)
	set.Telemetry.LeftPos.Put(500 + n)
	set.Telemetry.RightPos.Put(500 + n)
	_, err = task.Step()
	require.NoError(t, err)
	d := float64(n) * RomiGeometry.MMPerCount()
	require.InDelta(t, 100, set.Pose.X.Get(), 1e-6)
	require.InDelta(t, 50+d, set.Pose.Y.Get(), 1e-6)
	require.InDelta(t, math.Pi/2, set.Pose.Theta.Get(), 1e-9)
	require.InDelta(t, d, set.Pose.Distance.Get(), 1e-9)

	set.Flags.RunObserver.Put(false)
	state, err := task.Step()
	require.NoError(t, err)
	require.Equal(t, "WAITING", state.String())
}

func TestSpectatorPivot(t *testing.T) {
	set := shares.NewSet(1)
	task := NewSpectatorTask(RomiGeometry, set)
	set.Flags.RunObserver.Put(true)
	task.Step()
	task.Step()

	// a quarter turn CCW in place: each wheel travels base*pi/4.
	arc := WheelBaseMM * math.Pi / 4
	n := arc / RomiGeometry.MMPerCount()
	set.Telemetry.LeftPos.Put(-int32(n))
	set.Telemetry.RightPos.Put(int32(n))
	task.Step()
	require.InDelta(t, math.Pi/2, set.Pose.Theta.Get(), 0.01)
	require.InDelta(t, 0, set.Pose.X.Get(), 1e-9)
	require.InDelta(t, 0, set.Pose.Distance.Get(), 1e-9)
}

func TestHeading(t *testing.T) {
	set := shares.NewSet(1)
	imu := &hwtest.IMU{Heading: 30, YawRate: 90}
	task := NewHeadingTask(imu, set)

	_, err := task.Step()
	require.NoError(t, err)
	require.Equal(t, HeadingReading, task.Current())

	imu.Heading = 75
	task.Step()
	require.InDelta(t, math.Pi/4, set.Heading.Psi.Get(), 1e-9)
	require.InDelta(t, math.Pi/2, set.Heading.PsiDot.Get(), 1e-9)

	// a run start re-zeros the heading.
	set.Flags.RunObserver.Put(true)
	task.Step()
	require.InDelta(t, 0, set.Heading.Psi.Get(), 1e-9)

	imu.Heading = 75 + 270
	task.Step()
	require.InDelta(t, -math.Pi/2, set.Heading.Psi.Get(), 1e-9)

	// read errors keep the previous values.
	imu.Err = errors.New("i2c nack")
	imu.Heading = 0
	task.Step()
	require.InDelta(t, -math.Pi/2, set.Heading.Psi.Get(), 1e-9)
}

func TestHeadingInitRetries(t *testing.T) {
	set := shares.NewSet(1)
	imu := &hwtest.IMU{Err: errors.New("not ready")}
	task := NewHeadingTask(imu, set)
	state, err := task.Step()
	require.NoError(t, err)
	require.Equal(t, "INIT", state.String())
	imu.Err = nil
	task.Step()
	require.Equal(t, HeadingReading, task.Current())
}
