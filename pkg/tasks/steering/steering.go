// Package steering implements the line following outer loop. It turns
// the IR centroid into wheel velocity setpoints for the motor task.
package steering

import (
	"math"

	"github.com/golang/glog"

	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/hw"
	"github.com/robotalks/romi/pkg/shares"
)

// State is the state of the steering task.
type State int

// States.
const (
	Init State = iota
	WaitEnable
	Follow
	Lost
)

var stateNames = [...]string{"INIT", "WAIT_ENABLE", "FOLLOW", "LOST"}

// String implements fx.State.
func (s State) String() string {
	return stateNames[s]
}

// Config tunes the steering task.
type Config struct {
	// HalfSpan normalizes the centroid error, it is half the distance
	// between the outermost sensor indices.
	HalfSpan float64
	// CreepFactor scales the target velocity while the line is lost.
	CreepFactor float64
	// ReacquireThreshold is the sum of normalized readings above which
	// the line is considered found again.
	ReacquireThreshold float64
}

// DefaultConfig returns the configuration for an array of n sensors
// indexed 1..n.
func DefaultConfig(n int) Config {
	return Config{
		HalfSpan:           float64(n-1) / 2,
		CreepFactor:        0.5,
		ReacquireThreshold: 0.05,
	}
}

// Task is the steering task.
type Task struct {
	Config
	IR hw.IRArray

	Flags     shares.Flags
	Command   shares.MotorCommand
	Line      shares.LineFollow
	Setpoints shares.WheelSetpoints

	state State
}

// New creates the task.
func New(conf Config, ir hw.IRArray, s *shares.Set) *Task {
	return &Task{
		Config:    conf,
		IR:        ir,
		Flags:     s.Flags,
		Command:   s.Command,
		Line:      s.Line,
		Setpoints: s.Setpoints,
	}
}

// Current returns the current state.
func (t *Task) Current() State {
	return t.state
}

// Step implements fx.StateMachine.
func (t *Task) Step() (fx.State, error) {
	switch t.state {
	case Init:
		t.Line.Bias.Put(0)
		t.Setpoints.Put(0, 0)
		t.state = WaitEnable
	case WaitEnable:
		t.Setpoints.Put(0, 0)
		if t.lineMode() {
			t.state = Follow
		}
	case Follow:
		t.follow()
	case Lost:
		t.lost()
	}
	return t.state, nil
}

func (t *Task) lineMode() bool {
	return t.Command.ControlMode.Get() == shares.ControlLine
}

// paused publishes zero setpoints and reports true when the task
// should not drive this tick.
func (t *Task) paused() bool {
	if !t.lineMode() {
		t.Setpoints.Put(0, 0)
		t.state = WaitEnable
		return true
	}
	if !t.Flags.MotorEnable.Get() {
		t.Setpoints.Put(0, 0)
		return true
	}
	return false
}

func (t *Task) follow() {
	if t.paused() {
		return
	}
	centroid, seen := t.IR.Centroid()
	if !seen {
		glog.V(2).Info("line lost")
		t.state = Lost
		return
	}
	left, right := t.Setpoint(centroid, t.IR.CenterIndex())
	t.Setpoints.Put(left, right)
}

// Setpoint computes the wheel setpoints from a centroid.
func (t *Task) Setpoint(centroid, center float64) (left, right float64) {
	halfSpan := t.HalfSpan
	if halfSpan <= 0 {
		halfSpan = 1
	}
	gain, target := t.Line.KLine.Get(), t.Line.Target.Get()
	e := (centroid-center)/halfSpan + t.Line.Bias.Get()
	correction := gain * e
	bound := math.Abs(target) + math.Abs(gain)*halfSpan
	return clamp(target+correction, bound), clamp(target-correction, bound)
}

func (t *Task) lost() {
	if t.paused() {
		return
	}
	creep := t.CreepFactor * t.Line.Target.Get()
	t.Setpoints.Put(creep, creep)
	var sum float64
	for _, v := range t.IR.Read() {
		sum += v
	}
	if sum > t.ReacquireThreshold {
		glog.V(2).Info("line reacquired")
		t.state = Follow
	}
}

func clamp(v, bound float64) float64 {
	return math.Max(-bound, math.Min(bound, v))
}
