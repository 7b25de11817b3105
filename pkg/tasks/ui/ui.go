// Package ui dispatches host commands into Shares and runs the
// calibration procedures.
package ui

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/hw"
	"github.com/robotalks/romi/pkg/link"
	"github.com/robotalks/romi/pkg/shares"
)

// State is the state of the UI task.
type State int

// States.
const (
	Init State = iota
	WaitForCmd
	MonitorRun
	IMUCalibration
	IRCalibration
)

var stateNames = [...]string{"INIT", "WAIT_FOR_CMD", "MONITOR_RUN", "IMU_CALIBRATION", "IR_CALIBRATION"}

// String implements fx.State.
func (s State) String() string {
	return stateNames[s]
}

// DefaultStatusInterval is how often the IMU calibration status is logged.
const DefaultStatusInterval = 2 * time.Second

// Port is the host link polled by the task.
type Port interface {
	Any() int
	ReadByte() (byte, error)
	Write([]byte) (int, error)
}

// Task is the UI task.
type Task struct {
	Port    Port
	Battery hw.Battery
	IMU     hw.IMU
	IR      hw.IRArray
	// IMUCalibrationFile receives the profile on commit, skipped if empty.
	IMUCalibrationFile string
	StatusInterval     time.Duration

	Flags   shares.Flags
	Command shares.MotorCommand
	Gains   shares.Gains
	Line    shares.LineFollow

	clock      clock.Clock
	state      State
	parser     link.Parser
	modeSet    bool
	lastStatus time.Time
}

// New creates the task.
func New(port Port, battery hw.Battery, imu hw.IMU, ir hw.IRArray, s *shares.Set, clk clock.Clock) *Task {
	return &Task{
		Port:           port,
		Battery:        battery,
		IMU:            imu,
		IR:             ir,
		StatusInterval: DefaultStatusInterval,
		Flags:          s.Flags,
		Command:        s.Command,
		Gains:          s.Gains,
		Line:           s.Line,
		clock:          clk,
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
		t.Flags.StreamData.Put(true)
		t.Command.DrivingMode.Put(shares.DriveStraight)
		t.Flags.Planning.Put(false)
		t.Flags.Abort.Put(false)
		t.state = WaitForCmd
	case WaitForCmd:
		if cmd := t.nextCommand(); cmd != nil {
			t.dispatch(cmd)
		}
	case MonitorRun:
		t.monitor()
	case IMUCalibration:
		t.calibrateIMU()
	case IRCalibration:
		t.calibrateIR()
	}
	return t.state, nil
}

// nextCommand consumes pending bytes until a command completes.
func (t *Task) nextCommand() *link.Command {
	for t.Port.Any() > 0 {
		b, err := t.Port.ReadByte()
		if err != nil {
			return nil
		}
		cmd, err := t.parser.Parse(b)
		if err != nil {
			glog.Warningf("host command ignored: %v", err)
			continue
		}
		if cmd != nil {
			glog.V(2).Infof("host command %s", cmd)
			return cmd
		}
	}
	return nil
}

func (t *Task) dispatch(cmd *link.Command) {
	switch cmd.Code {
	case link.CmdEffort:
		t.Command.Effort.Put(cmd.Arg(0))
		t.Command.ControlMode.Put(shares.ControlEffort)
		glog.Infof("effort %.0f%%", cmd.Arg(0))
	case link.CmdVelocity:
		t.Command.Setpoint.Put(cmd.Arg(0))
		t.Gains.Kp.Put(cmd.Arg(1))
		t.Gains.Ki.Put(cmd.Arg(2))
		t.Command.ControlMode.Put(shares.ControlVelocity)
		glog.Infof("velocity setpoint=%.2f kp=%.2f ki=%.2f", cmd.Arg(0), cmd.Arg(1), cmd.Arg(2))
	case link.CmdLine:
		t.Gains.Kp.Put(cmd.Arg(0))
		t.Gains.Ki.Put(cmd.Arg(1))
		t.Line.KLine.Put(cmd.Arg(2))
		t.Line.Target.Put(cmd.Arg(3))
		t.Command.ControlMode.Put(shares.ControlLine)
		glog.Infof("line follow kp=%.2f ki=%.2f k_line=%.2f target=%.2f", cmd.Arg(0), cmd.Arg(1), cmd.Arg(2), cmd.Arg(3))
	case link.CmdRun:
		if t.Flags.MotorEnable.Get() {
			break
		}
		glog.Info("run started")
		t.Flags.Abort.Put(false)
		t.Flags.MotorEnable.Put(true)
		t.reply(link.ReplyRun)
		t.state = MonitorRun
	case link.CmdKill:
		t.kill()
	case link.CmdStream:
		t.toggleStream()
	case link.CmdMode:
		if !t.Flags.MotorEnable.Get() {
			mode := shares.NextDrivingMode(t.Command.DrivingMode.Get())
			t.Command.DrivingMode.Put(mode)
			glog.Infof("driving mode %d", mode)
		}
	case link.CmdPlan:
		planning := !t.Flags.Planning.Get()
		t.Flags.Planning.Put(planning)
		glog.Infof("path planning %v", planning)
	case link.CmdVoltage:
		v, err := t.Battery.ReadVoltage()
		if err != nil {
			glog.Warningf("battery read: %v", err)
			break
		}
		t.write([]byte(fmt.Sprintf("%.2f\n", v)))
	case link.CmdIMUCal:
		glog.Info("IMU calibration")
		t.modeSet = false
		t.lastStatus = t.clock.Now()
		t.state = IMUCalibration
	case link.CmdIRCal:
		glog.Info("IR calibration, place on white then black")
		t.state = IRCalibration
	case link.CmdWhite:
		t.calibrate(hw.White)
	case link.CmdBlack:
		t.calibrate(hw.Black)
	default:
		glog.V(2).Infof("host command %s ignored while waiting", cmd)
	}
}

func (t *Task) kill() {
	glog.Info("kill")
	t.Flags.Abort.Put(true)
	t.Flags.MotorEnable.Put(false)
}

func (t *Task) toggleStream() {
	streaming := !t.Flags.StreamData.Get()
	t.Flags.StreamData.Put(streaming)
	glog.Infof("streaming %v", streaming)
}

func (t *Task) reply(b byte) {
	t.write([]byte{b})
}

// write sends to the host, a failed write is logged and dropped.
func (t *Task) write(data []byte) {
	if _, err := t.Port.Write(data); err != nil {
		glog.Warningf("host reply: %v", err)
	}
}

// readRaw returns the next byte bypassing the parser.
func (t *Task) readRaw() (byte, bool) {
	if t.Port.Any() == 0 {
		return 0, false
	}
	b, err := t.Port.ReadByte()
	return b, err == nil
}

func (t *Task) enterWait() {
	t.parser.Reset()
	t.state = WaitForCmd
}

func (t *Task) monitor() {
	if b, ok := t.readRaw(); ok {
		switch b {
		case link.CmdKill, 'K':
			t.kill()
			t.reply(link.ReplyRun)
			t.enterWait()
			return
		case link.CmdStream, 'S':
			t.toggleStream()
		}
	}
	if !t.Flags.MotorEnable.Get() {
		glog.Info("run complete")
		t.Flags.Abort.Put(true)
		t.enterWait()
	}
}

func (t *Task) calibrateIMU() {
	if !t.modeSet {
		if err := t.IMU.SetOperationMode(hw.ModeNDOF); err != nil {
			glog.Warningf("IMU mode %s: %v", hw.ModeNDOF, err)
		} else {
			t.modeSet = true
		}
	}
	if now := t.clock.Now(); now.Sub(t.lastStatus) > t.StatusInterval {
		t.lastStatus = now
		if status, err := t.IMU.CalibrationStatus(); err != nil {
			glog.Warningf("IMU calibration status: %v", err)
		} else {
			glog.Infof("IMU calibration %s", status)
		}
	}
	b, ok := t.readRaw()
	if !ok {
		return
	}
	switch b {
	case link.CmdCommit:
		t.commitIMU()
		t.enterWait()
	case link.CmdKill:
		t.kill()
		t.enterWait()
	}
}

func (t *Task) commitIMU() {
	profile, err := t.IMU.CalibrationCoeffs()
	if err != nil {
		glog.Warningf("IMU calibration read: %v", err)
		return
	}
	if t.IMUCalibrationFile == "" {
		glog.Infof("IMU calibration done %+v", profile)
		return
	}
	if err := hw.SaveCalibrationProfile(t.IMUCalibrationFile, profile); err != nil {
		glog.Warningf("IMU calibration save: %v", err)
		return
	}
	glog.Infof("IMU calibration saved to %s", t.IMUCalibrationFile)
}

func (t *Task) calibrateIR() {
	b, ok := t.readRaw()
	if !ok {
		return
	}
	switch b {
	case link.CmdWhite:
		t.calibrate(hw.White)
	case link.CmdBlack:
		t.calibrate(hw.Black)
		glog.Info("IR calibration done")
		t.enterWait()
	case link.CmdKill:
		t.kill()
		t.enterWait()
	}
}

func (t *Task) calibrate(bg hw.Background) {
	glog.Infof("calibrating IR on %s", bg)
	if err := t.IR.Calibrate(bg); err != nil {
		glog.Warningf("IR calibration %s: %v", bg, err)
	}
}
