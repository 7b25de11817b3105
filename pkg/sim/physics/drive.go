// Package physics simulates the drive train of a differential drive
// robot: wheel speeds follow the commanded effort with a first order
// lag and the pose integrates the wheel travel.
package physics

import (
	"math"
	"time"

	"github.com/robotalks/romi/pkg/sim"
)

// DriveConfig describes the drive train.
type DriveConfig struct {
	// WheelRadius in mm.
	WheelRadius float64
	// WheelBase is the distance between the wheels in mm.
	WheelBase float64
	// NoLoadSpeed is the wheel speed in rad/s at full effort and
	// nominal voltage.
	NoLoadSpeed float64
	// TimeConstant of the wheel speed response, 0 responds immediately.
	TimeConstant time.Duration
	// VNominal is the supply voltage NoLoadSpeed is measured at.
	VNominal float64
}

// RomiDrive approximates the Romi chassis with the 120:1 gear motors.
var RomiDrive = DriveConfig{
	WheelRadius:  35,
	WheelBase:    141,
	NoLoadSpeed:  15,
	TimeConstant: 60 * time.Millisecond,
	VNominal:     9.6,
}

// Wheel is the state of a driven wheel.
type Wheel struct {
	Enabled bool
	// Effort is the commanded duty in percent, the sign is the direction.
	Effort float64
	// Speed is the angular velocity in rad/s.
	Speed float64
	// Angle is the accumulated wheel angle in rad.
	Angle float64
}

// DifferentialDrive is the plant of a two wheeled robot.
type DifferentialDrive struct {
	DriveConfig
	Left, Right Wheel
	// Supply is the battery voltage.
	Supply float64
	Pose   sim.Pose2D
	// YawRate is in rad/s, counter-clockwise.
	YawRate float64
	// Distance is the signed travel of the center in mm.
	Distance float64
}

// SettleSpeed is the distance (rad/s) to the target speed below which a
// lagging wheel snaps to it.
const SettleSpeed = 1e-6

// NewDifferentialDrive creates a plant at the origin on nominal supply.
func NewDifferentialDrive(conf DriveConfig) *DifferentialDrive {
	return &DifferentialDrive{DriveConfig: conf, Supply: conf.VNominal}
}

// TargetSpeed is the speed a wheel settles at with its current effort.
func (d *DifferentialDrive) TargetSpeed(w *Wheel) float64 {
	if !w.Enabled || d.VNominal <= 0 {
		return 0
	}
	effort := math.Max(-100, math.Min(100, w.Effort))
	return effort / 100 * d.NoLoadSpeed * d.Supply / d.VNominal
}

// Advance moves the plant forward by dt. The heading used to project
// the travel is the midpoint of the step.
func (d *DifferentialDrive) Advance(dt time.Duration) {
	if dt <= 0 {
		return
	}
	secs := dt.Seconds()
	var travel [2]float64
	for n, w := range []*Wheel{&d.Left, &d.Right} {
		target := d.TargetSpeed(w)
		var turned float64
		if d.TimeConstant <= 0 {
			w.Speed = target
			turned = target * secs
		} else {
			prev := w.Speed
			w.Speed += (target - w.Speed) * (1 - math.Exp(-secs/d.TimeConstant.Seconds()))
			if math.Abs(target-w.Speed) < SettleSpeed {
				w.Speed = target
			}
			turned = (prev + w.Speed) / 2 * secs
		}
		w.Angle += turned
		travel[n] = turned * d.WheelRadius
	}
	ds := (travel[0] + travel[1]) / 2
	dTheta := (travel[1] - travel[0]) / d.WheelBase
	d.Pose.OffsetBy(d.Pose.Orientation.AddRadians(dTheta / 2).Project(ds))
	d.Pose.Orientation = d.Pose.Orientation.AddRadians(dTheta)
	d.YawRate = dTheta / secs
	d.Distance += ds
}

// Stopped indicates both wheels are at rest.
func (d *DifferentialDrive) Stopped() bool {
	return d.Left.Speed == 0 && d.Right.Speed == 0
}
