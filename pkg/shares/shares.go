// Package shares groups the Shares and Queues tasks communicate
// through. A Set is created once by the composition root and each task
// receives only the groups it needs.
package shares

import (
	fx "github.com/robotalks/romi/pkg/framework"
)

// Control modes.
const (
	ControlEffort   uint8 = 0
	ControlVelocity uint8 = 1
	ControlLine     uint8 = 2
)

// Driving modes.
const (
	DriveStraight uint8 = 0
	DrivePivot    uint8 = 1
	DriveArc      uint8 = 2
	numDriveModes       = 3
)

// NextDrivingMode cycles straight, pivot, arc.
func NextDrivingMode(mode uint8) uint8 {
	return (mode + 1) % numDriveModes
}

// Flags are the boolean signals between tasks.
type Flags struct {
	MotorEnable    *fx.Share[bool]
	Abort          *fx.Share[bool]
	StreamData     *fx.Share[bool]
	MotorDataReady *fx.Share[bool]
	RunObserver    *fx.Share[bool]
	Planning       *fx.Share[bool]
	CollectStart   *fx.Share[bool]
	CollectDone    *fx.Share[bool]
}

// NewFlags creates cleared flags.
func NewFlags() Flags {
	return Flags{
		MotorEnable:    fx.NewShare("motor_enable", false),
		Abort:          fx.NewShare("abort", false),
		StreamData:     fx.NewShare("stream_data", false),
		MotorDataReady: fx.NewShare("motor_data_ready", false),
		RunObserver:    fx.NewShare("run_observer", false),
		Planning:       fx.NewShare("planning", false),
		CollectStart:   fx.NewShare("col_start", false),
		CollectDone:    fx.NewShare("col_done", false),
	}
}

// MotorCommand is the host command to the motor task.
type MotorCommand struct {
	// Effort is the open loop effort in percent.
	Effort *fx.Share[float64]
	// Setpoint is the closed loop wheel velocity in rad/s.
	Setpoint    *fx.Share[float64]
	DrivingMode *fx.Share[uint8]
	ControlMode *fx.Share[uint8]
}

// NewMotorCommand creates a zero command.
func NewMotorCommand() MotorCommand {
	return MotorCommand{
		Effort:      fx.NewShare("effort", 0.0),
		Setpoint:    fx.NewShare("setpoint", 0.0),
		DrivingMode: fx.NewShare[uint8]("driving_mode", DriveStraight),
		ControlMode: fx.NewShare[uint8]("control_mode", ControlEffort),
	}
}

// Gains are the wheel velocity controller gains shared by both wheels.
type Gains struct {
	Kp *fx.Share[float64]
	Ki *fx.Share[float64]
}

// NewGains creates zero gains.
func NewGains() Gains {
	return Gains{
		Kp: fx.NewShare("kp", 0.0),
		Ki: fx.NewShare("ki", 0.0),
	}
}

// WheelSetpoints are the per wheel velocity setpoints in rad/s.
type WheelSetpoints struct {
	Left  *fx.Share[float64]
	Right *fx.Share[float64]
}

// NewWheelSetpoints creates zero setpoints.
func NewWheelSetpoints() WheelSetpoints {
	return WheelSetpoints{
		Left:  fx.NewShare("sp_left", 0.0),
		Right: fx.NewShare("sp_right", 0.0),
	}
}

// Put writes both setpoints.
func (s WheelSetpoints) Put(left, right float64) {
	s.Left.Put(left)
	s.Right.Put(right)
}

// MotorTelemetry is the latest sample of the motor task.
type MotorTelemetry struct {
	// StartTime is the run start in ms since the motor task was created.
	StartTime *fx.Share[uint32]
	// Time is ms since run start.
	Time        *fx.Share[uint32]
	LeftPos     *fx.Share[int32]
	RightPos    *fx.Share[int32]
	LeftVel     *fx.Share[int32]
	RightVel    *fx.Share[int32]
	LeftEffort  *fx.Share[float64]
	RightEffort *fx.Share[float64]
}

// NewMotorTelemetry creates zero telemetry.
func NewMotorTelemetry() MotorTelemetry {
	return MotorTelemetry{
		StartTime:   fx.NewShare[uint32]("start_time", 0),
		Time:        fx.NewShare[uint32]("time", 0),
		LeftPos:     fx.NewShare[int32]("left_pos", 0),
		RightPos:    fx.NewShare[int32]("right_pos", 0),
		LeftVel:     fx.NewShare[int32]("left_vel", 0),
		RightVel:    fx.NewShare[int32]("right_vel", 0),
		LeftEffort:  fx.NewShare("left_eff", 0.0),
		RightEffort: fx.NewShare("right_eff", 0.0),
	}
}

// LineFollow parameterizes the steering task.
type LineFollow struct {
	KLine *fx.Share[float64]
	// Target is the nominal wheel velocity in rad/s.
	Target *fx.Share[float64]
	// Bias trims the normalized line error.
	Bias *fx.Share[float64]
}

// NewLineFollow creates zero parameters.
func NewLineFollow() LineFollow {
	return LineFollow{
		KLine:  fx.NewShare("k_line", 0.0),
		Target: fx.NewShare("target", 0.0),
		Bias:   fx.NewShare("bias", 0.0),
	}
}

// Heading is the IMU yaw.
type Heading struct {
	// Psi is yaw in rad relative to the start.
	Psi *fx.Share[float64]
	// PsiDot is yaw rate in rad/s.
	PsiDot *fx.Share[float64]
}

// NewHeading creates zero heading.
func NewHeading() Heading {
	return Heading{
		Psi:    fx.NewShare("psi", 0.0),
		PsiDot: fx.NewShare("psi_dot", 0.0),
	}
}

// Pose is the odometry estimate.
type Pose struct {
	X     *fx.Share[float64]
	Y     *fx.Share[float64]
	Theta *fx.Share[float64]
	// Distance is the center displacement since run start in mm.
	Distance *fx.Share[float64]
}

// NewPose creates a zero pose.
func NewPose() Pose {
	return Pose{
		X:        fx.NewShare("x", 0.0),
		Y:        fx.NewShare("y", 0.0),
		Theta:    fx.NewShare("theta", 0.0),
		Distance: fx.NewShare("distance", 0.0),
	}
}

// Observer is the output of the state estimator.
type Observer struct {
	Time     *fx.Share[uint32]
	SL       *fx.Share[float64]
	SR       *fx.Share[float64]
	Psi      *fx.Share[float64]
	PsiDot   *fx.Share[float64]
	LeftVel  *fx.Share[float64]
	RightVel *fx.Share[float64]
	S        *fx.Share[float64]
	Yaw      *fx.Share[float64]
}

// NewObserver creates zero estimates.
func NewObserver() Observer {
	return Observer{
		Time:     fx.NewShare[uint32]("obs_time", 0),
		SL:       fx.NewShare("obs_sl", 0.0),
		SR:       fx.NewShare("obs_sr", 0.0),
		Psi:      fx.NewShare("obs_psi", 0.0),
		PsiDot:   fx.NewShare("obs_psi_dot", 0.0),
		LeftVel:  fx.NewShare("obs_left_vel", 0.0),
		RightVel: fx.NewShare("obs_right_vel", 0.0),
		S:        fx.NewShare("obs_s", 0.0),
		Yaw:      fx.NewShare("obs_yaw", 0.0),
	}
}

// Samples are the Queues the data collection task fills.
type Samples struct {
	Time     *fx.Queue[uint32]
	LeftPos  *fx.Queue[int32]
	RightPos *fx.Queue[int32]
	LeftVel  *fx.Queue[int32]
	RightVel *fx.Queue[int32]
}

// NewSamples creates Queues of the same capacity.
func NewSamples(capacity int) Samples {
	return Samples{
		Time:     fx.NewQueue[uint32]("q_time", capacity),
		LeftPos:  fx.NewQueue[int32]("q_left_pos", capacity),
		RightPos: fx.NewQueue[int32]("q_right_pos", capacity),
		LeftVel:  fx.NewQueue[int32]("q_left_vel", capacity),
		RightVel: fx.NewQueue[int32]("q_right_vel", capacity),
	}
}

// Clear clears all Queues.
func (s Samples) Clear() {
	s.Time.Clear()
	s.LeftPos.Clear()
	s.RightPos.Clear()
	s.LeftVel.Clear()
	s.RightVel.Clear()
}

// Full indicates any Queue is full.
func (s Samples) Full() bool {
	return s.Time.Full() || s.LeftPos.Full() || s.RightPos.Full() || s.LeftVel.Full() || s.RightVel.Full()
}

// Set owns every Share of the robot.
type Set struct {
	Flags     Flags
	Command   MotorCommand
	Gains     Gains
	Setpoints WheelSetpoints
	Telemetry MotorTelemetry
	Line      LineFollow
	Heading   Heading
	Pose      Pose
	Observer  Observer
	Samples   Samples
}

// NewSet creates all Shares and sample Queues of the given capacity.
func NewSet(maxSamples int) *Set {
	return &Set{
		Flags:     NewFlags(),
		Command:   NewMotorCommand(),
		Gains:     NewGains(),
		Setpoints: NewWheelSetpoints(),
		Telemetry: NewMotorTelemetry(),
		Line:      NewLineFollow(),
		Heading:   NewHeading(),
		Pose:      NewPose(),
		Observer:  NewObserver(),
		Samples:   NewSamples(maxSamples),
	}
}
