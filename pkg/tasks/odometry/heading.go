package odometry

import (
	"math"

	"github.com/golang/glog"

	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/hw"
	"github.com/robotalks/romi/pkg/shares"
	"github.com/robotalks/romi/pkg/sim"
)

// HeadingState is the state of the HeadingTask.
type HeadingState int

// Heading states.
const (
	HeadingInit HeadingState = iota
	HeadingReading
)

// String implements fx.State.
func (s HeadingState) String() string {
	if s == HeadingInit {
		return "INIT"
	}
	return "READING"
}

// HeadingTask publishes the IMU yaw relative to the start of a run and
// the yaw rate so faster tasks never wait on the bus.
type HeadingTask struct {
	IMU         hw.IMU
	RunObserver *fx.Share[bool]
	Heading     shares.Heading

	state   HeadingState
	offset  float64
	running bool
}

// NewHeadingTask creates the task.
func NewHeadingTask(imu hw.IMU, s *shares.Set) *HeadingTask {
	return &HeadingTask{IMU: imu, RunObserver: s.Flags.RunObserver, Heading: s.Heading}
}

// Current returns the current state.
func (t *HeadingTask) Current() HeadingState {
	return t.state
}

// Step implements fx.StateMachine.
func (t *HeadingTask) Step() (fx.State, error) {
	switch t.state {
	case HeadingInit:
		if yaw, ok := t.yaw(); ok {
			t.offset = yaw
			t.state = HeadingReading
		}
	case HeadingReading:
		yaw, ok := t.yaw()
		if !ok {
			break
		}
		if running := t.RunObserver.Get(); running != t.running {
			t.running = running
			if running {
				t.offset = yaw
			}
		}
		t.Heading.Psi.Put(sim.AngleFromRadians(yaw - t.offset).Radians())
		if _, _, z, err := t.IMU.AngularVelocity(); err != nil {
			glog.Warningf("IMU angular velocity: %v", err)
		} else {
			t.Heading.PsiDot.Put(z * math.Pi / 180)
		}
	}
	return t.state, nil
}

func (t *HeadingTask) yaw() (float64, bool) {
	heading, _, _, err := t.IMU.EulerAngles()
	if err != nil {
		glog.Warningf("IMU euler angles: %v", err)
		return 0, false
	}
	return heading * math.Pi / 180, true
}
