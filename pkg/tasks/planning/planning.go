// Package planning sequences driving segments and in place pivots. It
// only talks to the other tasks through Shares: it reads the travelled
// distance and heading and rewrites the control mode and parameters.
package planning

import (
	"fmt"
	"math"

	"github.com/golang/glog"

	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/shares"
	"github.com/robotalks/romi/pkg/sim"
)

// Phase is the coarse state of the planner.
type Phase int

// Phases.
const (
	Init Phase = iota
	Wait
	Execute
	Done
)

// State is the planner state, Index is the step while executing.
type State struct {
	Phase Phase
	Index int
	Kind  string
}

// String implements fx.State.
func (s State) String() string {
	switch s.Phase {
	case Init:
		return "INIT"
	case Wait:
		return "WAIT"
	case Execute:
		return fmt.Sprintf("%s(%d)", s.Kind, s.Index)
	default:
		return "DONE"
	}
}

// Step is one maneuver of a plan.
type Step interface {
	// Kind names the step in state diagnostics.
	Kind() string
	// Begin writes the commands of the step.
	Begin(t *Task)
	// Advance runs one tick and reports whether the step completed.
	Advance(t *Task) bool
}

// Segment drives a distance in one control mode.
type Segment struct {
	// Distance in mm along the path.
	Distance    float64
	ControlMode uint8
	Kp, Ki      float64
	KLine       float64
	Target      float64
	Bias        float64
	// Setpoint is used in velocity mode, rad/s.
	Setpoint float64
	// Effort is used in effort mode, percent.
	Effort float64

	start float64
}

// Kind implements Step.
func (s *Segment) Kind() string {
	return "SEGMENT"
}

// Begin implements Step.
func (s *Segment) Begin(t *Task) {
	s.start = t.Pose.Distance.Get()
	t.Gains.Kp.Put(s.Kp)
	t.Gains.Ki.Put(s.Ki)
	t.Line.KLine.Put(s.KLine)
	t.Line.Target.Put(s.Target)
	t.Line.Bias.Put(s.Bias)
	t.Command.Setpoint.Put(s.Setpoint)
	t.Command.Effort.Put(s.Effort)
	t.Command.DrivingMode.Put(shares.DriveStraight)
	t.Command.ControlMode.Put(s.ControlMode)
}

// Advance implements Step.
func (s *Segment) Advance(t *Task) bool {
	return math.Abs(t.Pose.Distance.Get()-s.start) >= s.Distance
}

// Pivot turns in place to an absolute heading with direct effort.
type Pivot struct {
	// Heading in rad relative to the start heading, CCW positive.
	Heading float64
	// Effort magnitude in percent.
	Effort float64
	// Tolerance in rad.
	Tolerance float64
}

// Kind implements Step.
func (p *Pivot) Kind() string {
	return "PIVOT"
}

// Begin implements Step.
func (p *Pivot) Begin(t *Task) {
	t.Command.DrivingMode.Put(shares.DrivePivot)
	t.Command.ControlMode.Put(shares.ControlEffort)
	p.Advance(t)
}

// Advance implements Step. A positive pivot effort turns clockwise.
func (p *Pivot) Advance(t *Task) bool {
	e := sim.AngleFromRadians(p.Heading - t.Heading.Psi.Get()).Radians()
	if math.Abs(e) <= p.Tolerance {
		t.Command.Effort.Put(0)
		return true
	}
	if e > 0 {
		t.Command.Effort.Put(-math.Abs(p.Effort))
	} else {
		t.Command.Effort.Put(math.Abs(p.Effort))
	}
	return false
}

// Task is the path planning task.
type Task struct {
	Plan []Step

	Flags   shares.Flags
	Command shares.MotorCommand
	Gains   shares.Gains
	Line    shares.LineFollow
	Heading shares.Heading
	Pose    shares.Pose

	state State
}

// New creates the task.
func New(plan []Step, s *shares.Set) *Task {
	return &Task{
		Plan:    plan,
		Flags:   s.Flags,
		Command: s.Command,
		Gains:   s.Gains,
		Line:    s.Line,
		Heading: s.Heading,
		Pose:    s.Pose,
	}
}

// Current returns the current state.
func (t *Task) Current() State {
	return t.state
}

// Step implements fx.StateMachine.
func (t *Task) Step() (fx.State, error) {
	switch t.state.Phase {
	case Init:
		t.state = State{Phase: Wait}
	case Wait:
		if t.enabled() && len(t.Plan) > 0 {
			glog.Infof("plan started, %d steps", len(t.Plan))
			t.begin(0)
		}
	case Execute:
		if !t.enabled() {
			glog.Infof("plan interrupted at %s", t.state)
			t.stop()
			t.state = State{Phase: Wait}
			break
		}
		if t.Plan[t.state.Index].Advance(t) {
			if next := t.state.Index + 1; next < len(t.Plan) {
				t.begin(next)
			} else {
				t.state = State{Phase: Done}
			}
		}
	case Done:
		glog.Info("plan completed")
		t.stop()
		t.Flags.MotorEnable.Put(false)
		t.Flags.Planning.Put(false)
		t.state = State{Phase: Init}
	}
	return t.state, nil
}

func (t *Task) enabled() bool {
	return t.Flags.Planning.Get() && t.Flags.MotorEnable.Get()
}

func (t *Task) begin(index int) {
	step := t.Plan[index]
	t.state = State{Phase: Execute, Index: index, Kind: step.Kind()}
	step.Begin(t)
	glog.V(2).Infof("plan %s", t.state)
}

func (t *Task) stop() {
	t.Command.ControlMode.Put(shares.ControlEffort)
	t.Command.DrivingMode.Put(shares.DriveStraight)
	t.Command.Effort.Put(0)
}

// DefaultPlan is an example course: follow the line, turn around and
// drive back in closed loop.
func DefaultPlan() []Step {
	return []Step{
		&Segment{Distance: 600, ControlMode: shares.ControlLine, Kp: 2, Ki: 10, KLine: 3, Target: 6},
		&Segment{Distance: 300, ControlMode: shares.ControlLine, Kp: 2, Ki: 10, KLine: 4, Target: 4, Bias: 0.2},
		&Pivot{Heading: math.Pi, Effort: 25, Tolerance: 0.05},
		&Segment{Distance: 500, ControlMode: shares.ControlVelocity, Kp: 2, Ki: 10, Setpoint: 6},
		&Pivot{Heading: 0, Effort: 25, Tolerance: 0.05},
	}
}
