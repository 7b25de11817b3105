// Package odometry estimates the pose of the robot from wheel encoders
// and the heading from the IMU.
package odometry

import (
	"math"

	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/shares"
	"github.com/robotalks/romi/pkg/sim"
)

// Romi chassis geometry.
const (
	GearRatio     = 3952.0 / 33
	MotorCPR      = 12
	WheelCPR      = GearRatio * MotorCPR
	WheelRadiusMM = 35.0
	WheelBaseMM   = 141.0
)

// Geometry is the drive train geometry.
type Geometry struct {
	CountsPerRev  float64
	WheelRadiusMM float64
	WheelBaseMM   float64
}

// RomiGeometry is the geometry of the Romi chassis.
var RomiGeometry = Geometry{
	CountsPerRev:  WheelCPR,
	WheelRadiusMM: WheelRadiusMM,
	WheelBaseMM:   WheelBaseMM,
}

// MMPerCount converts encoder counts to wheel travel.
func (g Geometry) MMPerCount() float64 {
	return 2 * math.Pi / g.CountsPerRev * g.WheelRadiusMM
}

// SpectatorState is the state of the SpectatorTask.
type SpectatorState int

// Spectator states.
const (
	SpectatorInit SpectatorState = iota
	SpectatorWaiting
	SpectatorEstimating
)

var spectatorStateNames = [...]string{"INIT", "WAITING", "ESTIMATING"}

// String implements fx.State.
func (s SpectatorState) String() string {
	return spectatorStateNames[s]
}

// SpectatorTask integrates the wheel positions into a pose with the
// midpoint heading approximation.
type SpectatorTask struct {
	Geometry
	// Initial is the pose a run starts from, theta in rad.
	Initial sim.Pose2D

	RunObserver *fx.Share[bool]
	Telemetry   shares.MotorTelemetry
	Pose        shares.Pose

	state       SpectatorState
	pos         sim.Pos2D
	theta       float64
	start, prev [2]int32
}

// NewSpectatorTask creates the task.
func NewSpectatorTask(geometry Geometry, s *shares.Set) *SpectatorTask {
	return &SpectatorTask{
		Geometry:    geometry,
		RunObserver: s.Flags.RunObserver,
		Telemetry:   s.Telemetry,
		Pose:        s.Pose,
	}
}

// SetInitialPose sets the pose used when the next run starts.
func (t *SpectatorTask) SetInitialPose(x, y, theta float64) {
	t.Initial = sim.Pose2D{Pos2D: sim.Pos2D{X: x, Y: y}, Orientation: sim.Angle(theta)}
}

// Current returns the current state.
func (t *SpectatorTask) Current() SpectatorState {
	return t.state
}

// Step implements fx.StateMachine.
func (t *SpectatorTask) Step() (fx.State, error) {
	switch t.state {
	case SpectatorInit:
		t.reset()
		t.state = SpectatorWaiting
	case SpectatorWaiting:
		if t.RunObserver.Get() {
			t.reset()
			t.state = SpectatorEstimating
		}
	case SpectatorEstimating:
		if !t.RunObserver.Get() {
			t.state = SpectatorWaiting
			break
		}
		t.estimate()
	}
	return t.state, nil
}

func (t *SpectatorTask) counts() [2]int32 {
	return [2]int32{t.Telemetry.LeftPos.Get(), t.Telemetry.RightPos.Get()}
}

func (t *SpectatorTask) reset() {
	t.pos = t.Initial.Pos2D
	t.theta = t.Initial.Orientation.Radians()
	t.start = t.counts()
	t.prev = t.start
	t.publish(0)
}

func (t *SpectatorTask) estimate() {
	curr := t.counts()
	k := t.MMPerCount()
	dsL := float64(curr[0]-t.prev[0]) * k
	dsR := float64(curr[1]-t.prev[1]) * k
	ds := (dsL + dsR) / 2
	dTheta := (dsR - dsL) / t.WheelBaseMM
	t.pos.OffsetBy(sim.Angle(t.theta + dTheta/2).Project(ds))
	t.theta += dTheta
	t.prev = curr

	center := float64((curr[0]-t.start[0])+(curr[1]-t.start[1])) / 2
	t.publish(center * k)
}

func (t *SpectatorTask) publish(distance float64) {
	t.Pose.X.Put(t.pos.X)
	t.Pose.Y.Put(t.pos.Y)
	t.Pose.Theta.Put(t.theta)
	t.Pose.Distance.Put(distance)
}
