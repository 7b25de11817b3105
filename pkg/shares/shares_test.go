package shares

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextDrivingMode(t *testing.T) {
	mode := DriveStraight
	var seen []uint8
	for i := 0; i < 4; i++ {
		mode = NextDrivingMode(mode)
		seen = append(seen, mode)
	}
	require.Equal(t, []uint8{DrivePivot, DriveArc, DriveStraight, DrivePivot}, seen)
}

func TestSetDefaults(t *testing.T) {
	s := NewSet(3)
	require.False(t, s.Flags.MotorEnable.Get())
	require.False(t, s.Flags.CollectDone.Get())
	require.Equal(t, ControlEffort, s.Command.ControlMode.Get())
	require.Equal(t, DriveStraight, s.Command.DrivingMode.Get())
	require.Equal(t, "col_start", s.Flags.CollectStart.Name())
	require.Equal(t, 3, s.Samples.Time.Capacity())
}

func TestSamplesFullAndClear(t *testing.T) {
	s := NewSamples(2)
	require.False(t, s.Full())
	s.Time.Put(1)
	s.Time.Put(2)
	require.True(t, s.Full())
	require.Equal(t, 0, s.LeftPos.NumIn())

	s.LeftVel.Put(5)
	s.Clear()
	require.False(t, s.Full())
	require.Equal(t, 0, s.Time.NumIn())
	require.Equal(t, 0, s.LeftVel.NumIn())
}

func TestWheelSetpointsPut(t *testing.T) {
	sp := NewWheelSetpoints()
	sp.Put(1.5, -2)
	require.Equal(t, 1.5, sp.Left.Get())
	require.Equal(t, -2.0, sp.Right.Get())
}
