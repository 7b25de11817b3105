// Package romi simulates the Romi hardware: motors, encoder counters,
// the battery divider, the IR array over a line track and the IMU, all
// driven by a differential drive plant advanced as a task.
package romi

import (
	"time"

	"github.com/benbjohnson/clock"

	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/hw"
	"github.com/robotalks/romi/pkg/sim"
	"github.com/robotalks/romi/pkg/sim/physics"
)

// Config configures the simulated robot.
type Config struct {
	Name  string
	Drive physics.DriveConfig
	// CountsPerRev is the encoder resolution.
	CountsPerRev float64
	Battery      hw.DividerConfig
	// Supply is the battery voltage.
	Supply float64
	IR     IRConfig
	Track  Track
	Start  sim.Pose2D
	// Size is the chassis outline in mm.
	Size sim.Size2D
}

// DefaultConfig is a Romi on fresh cells starting on a straight line.
var DefaultConfig = Config{
	Name:         "romi",
	Drive:        physics.RomiDrive,
	CountsPerRev: hw.CountsPerRev,
	Battery:      hw.DefaultDivider,
	Supply:       8.4,
	IR: IRConfig{
		Channels: 7,
		Pitch:    8,
		Offset:   60,
		Black:    3800,
		White:    300,
	},
	Track: StraightLine{Width: 20},
	Size:  sim.Size2D{CX: 165, CY: 165},
}

// Robot is the simulated Romi.
type Robot struct {
	Config
	Plant *physics.DifferentialDrive

	LeftMotor, RightMotor     *Motor
	LeftCounter, RightCounter *Counter
	BatteryADC                *ADC
	IR                        *LineArray
	IMU                       *IMU

	sim.ObjectsChangeCaster

	clock clock.Clock
	last  time.Time
	steps uint64
}

// New creates the robot at the start pose.
func New(conf Config, clk clock.Clock) *Robot {
	plant := physics.NewDifferentialDrive(conf.Drive)
	plant.Supply = conf.Supply
	plant.Pose = conf.Start
	r := &Robot{
		Config:     conf,
		Plant:      plant,
		LeftMotor:  &Motor{wheel: &plant.Left},
		RightMotor: &Motor{wheel: &plant.Right},
		BatteryADC: &ADC{Divider: conf.Battery, plant: plant},
		IR:         &LineArray{IRConfig: conf.IR, Track: conf.Track, plant: plant},
		IMU:        &IMU{Status: hw.ParseCalibrationStatus(0xff), plant: plant},
		clock:      clk,
		last:       clk.Now(),
	}
	r.LeftCounter = &Counter{CountsPerRev: conf.CountsPerRev, AutoReload: hw.DefaultAutoReload, wheel: &plant.Left}
	r.RightCounter = &Counter{CountsPerRev: conf.CountsPerRev, AutoReload: hw.DefaultAutoReload, wheel: &plant.Right}
	return r
}

// Steps returns the number of plant updates.
func (r *Robot) Steps() uint64 {
	return r.steps
}

// Step implements fx.StateMachine. The plant advances by the time
// elapsed since the previous step.
func (r *Robot) Step() (fx.State, error) {
	now := r.clock.Now()
	if dt := now.Sub(r.last); dt > 0 {
		r.Plant.Advance(dt)
		r.steps++
		r.ObjectsChanged(r)
	}
	r.last = now
	if r.Plant.Stopped() {
		return fx.StateName("IDLE"), nil
	}
	return fx.StateName("MOVING"), nil
}

// Name implements sim.Object.
func (r *Robot) Name() string {
	return r.Config.Name
}

// OutlineRect implements sim.Rectangular.
func (r *Robot) OutlineRect() sim.Rect {
	return sim.Rect{
		Pos2D:  sim.Pos2D{X: -r.Size.CX / 2, Y: -r.Size.CY / 2},
		Size2D: r.Size,
	}
}

// Position2D implements sim.Positionable2D.
func (r *Robot) Position2D() sim.Pose2D {
	return r.Plant.Pose
}

// SetPose2D implements sim.Placeable2D.
func (r *Robot) SetPose2D(pose sim.Pose2D) sim.Pose2D {
	r.Plant.Pose = pose
	r.ObjectsChanged(r)
	return r.Plant.Pose
}
