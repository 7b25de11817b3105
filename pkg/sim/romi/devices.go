package romi

import (
	"fmt"
	"math"

	"github.com/robotalks/romi/pkg/hw"
	"github.com/robotalks/romi/pkg/sim/physics"
)

// Motor implements hw.Motor on a plant wheel.
type Motor struct {
	wheel *physics.Wheel
}

var _ hw.Motor = &Motor{}

// Enable implements hw.Motor.
func (m *Motor) Enable() {
	m.wheel.Enabled = true
}

// Disable implements hw.Motor.
func (m *Motor) Disable() {
	m.wheel.Enabled = false
	m.wheel.Effort = 0
}

// SetEffort implements hw.Motor.
func (m *Motor) SetEffort(percent float64) {
	m.wheel.Effort = percent
}

// Effort returns the commanded effort.
func (m *Motor) Effort() float64 {
	return m.wheel.Effort
}

// Counter implements hw.Counter as the 16-bit timer of an encoder.
type Counter struct {
	CountsPerRev float64
	AutoReload   uint32

	wheel *physics.Wheel
}

var _ hw.Counter = &Counter{}

// Counts returns the unwrapped wheel position.
func (c *Counter) Counts() int64 {
	return int64(math.Round(c.wheel.Angle / (2 * math.Pi) * c.CountsPerRev))
}

// Counter implements hw.Counter.
func (c *Counter) Counter() uint32 {
	span := int64(c.AutoReload) + 1
	return uint32((c.Counts()%span + span) % span)
}

// ADC implements hw.ADC sampling the supply through a divider.
type ADC struct {
	Divider hw.DividerConfig
	// Err fails reads when set.
	Err error

	plant *physics.DifferentialDrive
}

var _ hw.ADC = &ADC{}

// ReadRaw implements hw.ADC.
func (a *ADC) ReadRaw() (uint16, error) {
	if a.Err != nil {
		return 0, a.Err
	}
	d := a.Divider
	raw := a.plant.Supply * d.R2 / (d.R1 + d.R2) / d.VRef * d.FullScale
	return uint16(math.Round(math.Max(0, math.Min(d.FullScale, raw)))), nil
}

// IRConfig places the reflectance sensors.
type IRConfig struct {
	Channels int
	// Pitch is the distance between sensors in mm.
	Pitch float64
	// Offset is the distance of the array ahead of the axle in mm.
	Offset float64
	// Black and White are the raw readings over the surfaces.
	Black uint16
	White uint16
}

// Calibration is the calibration matching the simulated surfaces.
func (c IRConfig) Calibration() hw.IRCalibration {
	cal := hw.DefaultIRCalibration(c.Channels, float64(c.Black))
	for n := range cal.White {
		cal.White[n] = float64(c.White)
	}
	return cal
}

// LineArray implements hw.ChannelReader over a Track. Channel 0 is the
// leftmost sensor.
type LineArray struct {
	IRConfig
	Track Track

	plant *physics.DifferentialDrive
}

var _ hw.ChannelReader = &LineArray{}

// NumChannels implements hw.ChannelReader.
func (a *LineArray) NumChannels() int {
	return a.Channels
}

// ReadChannel implements hw.ChannelReader.
func (a *LineArray) ReadChannel(ch int) (uint16, error) {
	if ch < 0 || ch >= a.Channels {
		return 0, fmt.Errorf("IR channel %d out of range", ch)
	}
	center := float64(a.Channels-1) / 2
	p := a.plant.Pose.Local(a.Offset, (center-float64(ch))*a.Pitch)
	if a.Track != nil && a.Track.OnLine(p) {
		return a.Black, nil
	}
	return a.White, nil
}

// IMU implements hw.IMU reporting the plant heading.
type IMU struct {
	Status  hw.CalibrationStatus
	Profile hw.CalibrationProfile
	// Err fails every access when set.
	Err error

	mode  hw.OperationMode
	plant *physics.DifferentialDrive
}

var _ hw.IMU = &IMU{}

// Mode returns the current operation mode.
func (m *IMU) Mode() hw.OperationMode {
	return m.mode
}

// EulerAngles implements hw.IMU.
func (m *IMU) EulerAngles() (heading, roll, pitch float64, err error) {
	return m.plant.Pose.Orientation.Degrees(), 0, 0, m.Err
}

// AngularVelocity implements hw.IMU.
func (m *IMU) AngularVelocity() (x, y, z float64, err error) {
	return 0, 0, m.plant.YawRate * 180 / math.Pi, m.Err
}

// SetOperationMode implements hw.IMU.
func (m *IMU) SetOperationMode(mode hw.OperationMode) error {
	if m.Err != nil {
		return m.Err
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: %v", hw.ErrInvalidMode, mode)
	}
	m.mode = mode
	return nil
}

// CalibrationStatus implements hw.IMU.
func (m *IMU) CalibrationStatus() (hw.CalibrationStatus, error) {
	return m.Status, m.Err
}

// CalibrationCoeffs implements hw.IMU.
func (m *IMU) CalibrationCoeffs() (hw.CalibrationProfile, error) {
	return m.Profile, m.Err
}

// WriteCalibrationCoeffs implements hw.IMU.
func (m *IMU) WriteCalibrationCoeffs(p hw.CalibrationProfile) error {
	if m.Err != nil {
		return m.Err
	}
	m.Profile = p
	return nil
}
