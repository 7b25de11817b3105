package stream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/romi/pkg/shares"
)

func step(t *testing.T, task *Task) string {
	state, err := task.Step()
	require.NoError(t, err)
	return state.String()
}

func sample(set *shares.Set, time uint32, pos int32) {
	set.Telemetry.Time.Put(time)
	set.Telemetry.LeftPos.Put(pos)
	set.Telemetry.RightPos.Put(-pos)
	set.Telemetry.LeftVel.Put(pos * 10)
	set.Telemetry.RightVel.Put(-pos * 10)
	set.Flags.MotorDataReady.Put(true)
}

func TestStreamFrames(t *testing.T) {
	set := shares.NewSet(1)
	var out bytes.Buffer
	task := New(&out, set)

	require.Equal(t, "WAIT_FOR_TRIGGER", step(t, task))
	require.True(t, set.Flags.StreamData.Get())
	require.Equal(t, "STREAM", step(t, task))

	// nothing until a sample is ready.
	require.Equal(t, "STREAM", step(t, task))
	require.Empty(t, out.String())

	sample(set, 10, 1)
	step(t, task)
	require.False(t, set.Flags.MotorDataReady.Get())
	sample(set, 20, 2)
	step(t, task)
	step(t, task)
	require.Equal(t, "<S>0,10,1,-1,10,-10<E>\n<S>1,20,2,-2,20,-20<E>\n", out.String())

	out.Reset()
	set.Flags.StreamData.Put(false)
	require.Equal(t, "WAIT_FOR_TRIGGER", step(t, task))
	require.Equal(t, "<S>#END<E>\n", out.String())

	// the index restarts.
	out.Reset()
	set.Flags.StreamData.Put(true)
	step(t, task)
	sample(set, 30, 3)
	step(t, task)
	require.Equal(t, "<S>0,30,3,-3,30,-30<E>\n", out.String())
	require.Equal(t, uint64(4), task.Sent())
}

func TestStreamAbortSendsEndOnce(t *testing.T) {
	set := shares.NewSet(1)
	var out bytes.Buffer
	task := New(&out, set)
	step(t, task)
	step(t, task)
	sample(set, 10, 1)
	step(t, task)

	out.Reset()
	set.Flags.Abort.Put(true)
	sample(set, 20, 2)
	for i := 0; i < 3; i++ {
		require.Equal(t, "STREAM", step(t, task))
	}
	require.Equal(t, "<S>#END<E>\n", out.String())

	out.Reset()
	set.Flags.Abort.Put(false)
	step(t, task)
	require.Equal(t, "<S>0,20,2,-2,20,-20<E>\n", out.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disconnected")
}

func TestStreamWriteErrorCountsLost(t *testing.T) {
	set := shares.NewSet(1)
	task := New(failingWriter{}, set)
	step(t, task)
	step(t, task)
	sample(set, 10, 1)
	require.Equal(t, "STREAM", step(t, task))
	require.Equal(t, uint64(1), task.Lost())
	require.False(t, set.Flags.MotorDataReady.Get())
}
