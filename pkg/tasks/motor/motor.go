// Package motor implements the motor control task: it reads the wheel
// encoders, computes efforts in one of the control modes and publishes
// the telemetry sample of every run.
package motor

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	"github.com/robotalks/romi/pkg/control"
	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/hw"
	"github.com/robotalks/romi/pkg/shares"
)

// State is the state of the motor control task.
type State int

// States.
const (
	Init State = iota
	WaitForEnable
	Run
)

var stateNames = [...]string{"INIT", "WAIT_FOR_ENABLE", "RUN"}

// String implements fx.State.
func (s State) String() string {
	return stateNames[s]
}

// ArcRatio is the right/left ratio in the arc driving mode.
const ArcRatio = 0.6

// Split splits a single command into left and right by driving mode.
func Split(drivingMode uint8, value float64) (left, right float64) {
	switch drivingMode {
	case shares.DriveStraight:
		return value, value
	case shares.DrivePivot:
		return value, -value
	default:
		return value, value * ArcRatio
	}
}

// Wheel is a motor and its encoder.
type Wheel struct {
	Motor   hw.Motor
	Encoder hw.Encoder
}

// Task is the motor control task.
type Task struct {
	Left    Wheel
	Right   Wheel
	Battery hw.Battery

	Flags     shares.Flags
	Command   shares.MotorCommand
	Setpoints shares.WheelSetpoints
	Telemetry shares.MotorTelemetry

	LeftLoop  *control.ClosedLoop
	RightLoop *control.ClosedLoop

	clock clock.Clock
	state State
	epoch time.Time
	t0    time.Time
}

// New creates the task with one controller per wheel, both reading the
// shared gains and their wheel setpoint.
func New(left, right Wheel, battery hw.Battery, s *shares.Set, clk clock.Clock) *Task {
	gains := control.Gains{Kp: s.Gains.Kp, Ki: s.Gains.Ki}
	var droop control.DroopGainer
	if battery != nil {
		droop = battery
	}
	return &Task{
		Left:      left,
		Right:     right,
		Battery:   battery,
		Flags:     s.Flags,
		Command:   s.Command,
		Setpoints: s.Setpoints,
		Telemetry: s.Telemetry,
		LeftLoop:  control.NewClosedLoop(gains, s.Setpoints.Left, droop, clk),
		RightLoop: control.NewClosedLoop(gains, s.Setpoints.Right, droop, clk),
		clock:     clk,
		epoch:     clk.Now(),
	}
}

// Current returns the current state.
func (t *Task) Current() State {
	return t.state
}

// Disable implements fx.Disabler.
func (t *Task) Disable() {
	t.Left.Motor.Disable()
	t.Right.Motor.Disable()
}

// Step implements fx.StateMachine.
func (t *Task) Step() (fx.State, error) {
	switch t.state {
	case Init:
		t.init()
	case WaitForEnable:
		t.waitForEnable()
	case Run:
		t.run()
	}
	return t.state, nil
}

func (t *Task) init() {
	t.Left.Encoder.Zero()
	t.Right.Encoder.Zero()
	t.Disable()
	t.Command.Effort.Put(0)
	t.Flags.MotorEnable.Put(false)
	t.Flags.RunObserver.Put(false)
	t.Command.DrivingMode.Put(shares.DriveStraight)
	t.Command.ControlMode.Put(shares.ControlEffort)
	t.resetControllers()
	t.state = WaitForEnable
}

func (t *Task) waitForEnable() {
	if !t.Flags.MotorEnable.Get() {
		return
	}
	if t.Battery != nil {
		if v, err := t.Battery.Refresh(); err != nil {
			glog.Warningf("battery refresh failed: %v", err)
		} else {
			glog.Infof("battery %.2fV, droop gain %.3f", v, t.Battery.DroopGain())
		}
	}
	t.Left.Encoder.Zero()
	t.Right.Encoder.Zero()
	t.t0 = t.clock.Now()
	t.Telemetry.StartTime.Put(uint32(t.t0.Sub(t.epoch).Milliseconds()))
	t.resetControllers()
	t.Left.Motor.Enable()
	t.Right.Motor.Enable()
	t.Flags.RunObserver.Put(true)
	t.state = Run
}

func (t *Task) run() {
	if t.Flags.Abort.Get() || !t.Flags.MotorEnable.Get() {
		t.Disable()
		t.resetControllers()
		t.Flags.RunObserver.Put(false)
		t.Flags.MotorEnable.Put(false)
		t.state = WaitForEnable
		return
	}

	t.Left.Encoder.Update()
	t.Right.Encoder.Update()
	elapsed := t.clock.Since(t.t0)
	leftVel := t.Left.Encoder.Velocity(hw.Counts)
	rightVel := t.Right.Encoder.Velocity(hw.Counts)

	var leftEff, rightEff float64
	switch mode := t.Command.ControlMode.Get(); mode {
	case shares.ControlEffort:
		leftEff, rightEff = Split(t.Command.DrivingMode.Get(), t.Command.Effort.Get())
	default:
		if mode == shares.ControlVelocity {
			sp := t.Command.Setpoint.Get()
			t.Setpoints.Put(sp, sp)
		}
		leftEff = t.LeftLoop.Run(leftVel)
		rightEff = t.RightLoop.Run(rightVel)
	}
	t.Left.Motor.SetEffort(leftEff)
	t.Right.Motor.SetEffort(rightEff)

	t.Telemetry.Time.Put(uint32(elapsed.Milliseconds()))
	t.Telemetry.LeftPos.Put(int32(t.Left.Encoder.Position(hw.Counts)))
	t.Telemetry.RightPos.Put(int32(t.Right.Encoder.Position(hw.Counts)))
	t.Telemetry.LeftVel.Put(int32(leftVel))
	t.Telemetry.RightVel.Put(int32(rightVel))
	t.Telemetry.LeftEffort.Put(leftEff)
	t.Telemetry.RightEffort.Put(rightEff)
	t.Flags.MotorDataReady.Put(true)
}

func (t *Task) resetControllers() {
	t.LeftLoop.Reset()
	t.RightLoop.Reset()
}
