// Package stream frames motor telemetry to the host.
package stream

import (
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/link"
	"github.com/robotalks/romi/pkg/shares"
)

// State is the state of the stream task.
type State int

// States.
const (
	Init State = iota
	WaitForTrigger
	Stream
)

var stateNames = [...]string{"INIT", "WAIT_FOR_TRIGGER", "STREAM"}

// String implements fx.State.
func (s State) String() string {
	return stateNames[s]
}

// Task streams one frame per motor sample while streaming is on.
type Task struct {
	Out       io.Writer
	Flags     shares.Flags
	Telemetry shares.MotorTelemetry

	state State
	index uint32
	ended bool
	sent  uint64
	lost  uint64
	buf   []byte
}

// New creates the task.
func New(out io.Writer, s *shares.Set) *Task {
	return &Task{Out: out, Flags: s.Flags, Telemetry: s.Telemetry}
}

// Current returns the current state.
func (t *Task) Current() State {
	return t.state
}

// Sent returns the number of frames written.
func (t *Task) Sent() uint64 {
	return t.sent
}

// Lost returns the number of frames failed to write.
func (t *Task) Lost() uint64 {
	return t.lost
}

// Step implements fx.StateMachine.
func (t *Task) Step() (fx.State, error) {
	switch t.state {
	case Init:
		t.Flags.StreamData.Put(true)
		t.index, t.ended = 0, false
		t.state = WaitForTrigger
	case WaitForTrigger:
		if t.Flags.StreamData.Get() {
			t.ended = false
			t.state = Stream
		}
	case Stream:
		t.stream()
	}
	return t.state, nil
}

func (t *Task) stream() {
	if !t.Flags.StreamData.Get() {
		t.end()
		t.state = WaitForTrigger
		return
	}
	if t.Flags.Abort.Get() {
		t.end()
		return
	}
	if !t.Flags.MotorDataReady.Get() {
		return
	}
	sample := link.Sample{
		Index:    t.index,
		Time:     t.Telemetry.Time.Get(),
		LeftPos:  t.Telemetry.LeftPos.Get(),
		RightPos: t.Telemetry.RightPos.Get(),
		LeftVel:  t.Telemetry.LeftVel.Get(),
		RightVel: t.Telemetry.RightVel.Get(),
	}
	t.buf = sample.AppendFrame(t.buf[:0])
	t.write(t.buf)
	t.index++
	t.ended = false
	t.Flags.MotorDataReady.Put(false)
}

// end sends the end of stream once and restarts the index.
func (t *Task) end() {
	if !t.ended {
		t.write(link.EndFrame())
		t.ended = true
	}
	t.index = 0
}

func (t *Task) write(frame []byte) {
	if _, err := t.Out.Write(frame); err != nil {
		t.lost++
		glog.Warningf("telemetry frame lost: %v", err)
		return
	}
	t.sent++
}
