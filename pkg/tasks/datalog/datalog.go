// Package datalog captures a batch of motor telemetry into Queues for
// download after a run.
package datalog

import (
	"github.com/golang/glog"

	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/link"
	"github.com/robotalks/romi/pkg/shares"
)

// State is the state of the data collection task.
type State int

// States.
const (
	Init State = iota
	Wait
	Collect
	Done
)

var stateNames = [...]string{"INIT", "WAIT", "COLLECT", "DONE"}

// String implements fx.State.
func (s State) String() string {
	return stateNames[s]
}

// Task copies the telemetry Shares into the sample Queues once per step
// while collecting.
type Task struct {
	Flags     shares.Flags
	Telemetry shares.MotorTelemetry
	Samples   shares.Samples

	state State
}

// New creates the task.
func New(s *shares.Set) *Task {
	return &Task{Flags: s.Flags, Telemetry: s.Telemetry, Samples: s.Samples}
}

// Current returns the current state.
func (t *Task) Current() State {
	return t.state
}

// Step implements fx.StateMachine.
func (t *Task) Step() (fx.State, error) {
	switch t.state {
	case Init:
		t.Samples.Clear()
		t.state = Wait
	case Wait:
		if t.Flags.CollectStart.Get() {
			t.Samples.Clear()
			t.Flags.CollectDone.Put(false)
			t.state = Collect
		}
	case Collect:
		if t.Flags.Abort.Get() || !t.Flags.CollectStart.Get() || !t.push() {
			glog.Infof("data collection done, %d samples", t.Samples.Time.NumIn())
			t.Flags.CollectDone.Put(true)
			t.state = Done
		}
	case Done:
		if !t.Flags.CollectStart.Get() {
			t.state = Wait
		}
	}
	return t.state, nil
}

// push returns false when the Queues are full.
func (t *Task) push() bool {
	if t.Samples.Full() {
		return false
	}
	t.Samples.Time.Put(t.Telemetry.Time.Get())
	t.Samples.LeftPos.Put(t.Telemetry.LeftPos.Get())
	t.Samples.RightPos.Put(t.Telemetry.RightPos.Get())
	t.Samples.LeftVel.Put(t.Telemetry.LeftVel.Get())
	t.Samples.RightVel.Put(t.Telemetry.RightVel.Get())
	return !t.Samples.Full()
}

// Drain empties the Queues into samples indexed from 0.
func Drain(q shares.Samples) []link.Sample {
	var out []link.Sample
	for q.Time.Any() {
		var (
			s   = link.Sample{Index: uint32(len(out))}
			err error
		)
		s.Time, err = q.Time.Get()
		if err == nil {
			s.LeftPos, err = q.LeftPos.Get()
		}
		if err == nil {
			s.RightPos, err = q.RightPos.Get()
		}
		if err == nil {
			s.LeftVel, err = q.LeftVel.Get()
		}
		if err == nil {
			s.RightVel, err = q.RightVel.Get()
		}
		if err != nil {
			glog.Warningf("sample queues out of sync: %v", err)
			q.Clear()
			break
		}
		out = append(out, s)
	}
	return out
}

// Collected drains the collected samples.
func (t *Task) Collected() []link.Sample {
	return Drain(t.Samples)
}
