// Package hwtest provides scriptable fakes of the hw collaborators.
package hwtest

import (
	"math"

	"github.com/robotalks/romi/pkg/hw"
)

// Motor records the commands it receives.
type Motor struct {
	Enabled  bool
	Effort   float64
	Enables  int
	Disables int
}

// Enable implements hw.Motor.
func (m *Motor) Enable() {
	m.Enabled = true
	m.Enables++
}

// Disable implements hw.Motor.
func (m *Motor) Disable() {
	m.Enabled = false
	m.Effort = 0
	m.Disables++
}

// SetEffort implements hw.Motor.
func (m *Motor) SetEffort(percent float64) {
	if m.Enabled {
		m.Effort = percent
	}
}

// Encoder reports scripted position and velocity in counts.
type Encoder struct {
	Pos     float64
	Vel     float64
	Updates int
	Zeros   int
	// Step is added to Pos on every update.
	Step float64
}

// Update implements hw.Encoder.
func (e *Encoder) Update() {
	e.Updates++
	e.Pos += e.Step
}

// Zero implements hw.Encoder.
func (e *Encoder) Zero() {
	e.Zeros++
	e.Pos = 0
}

// Position implements hw.Encoder.
func (e *Encoder) Position(unit hw.Unit) float64 {
	return convert(e.Pos, unit)
}

// Velocity implements hw.Encoder.
func (e *Encoder) Velocity(unit hw.Unit) float64 {
	return convert(e.Vel, unit)
}

func convert(v float64, unit hw.Unit) float64 {
	if unit == hw.Radians {
		return v * 2 * math.Pi / hw.CountsPerRev
	}
	return v
}

// Battery reports a fixed voltage.
type Battery struct {
	Voltage   float64
	Err       error
	Refreshes int
	Gain      float64
}

// ReadVoltage implements hw.Battery.
func (b *Battery) ReadVoltage() (float64, error) {
	return b.Voltage, b.Err
}

// Refresh implements hw.Battery.
func (b *Battery) Refresh() (float64, error) {
	b.Refreshes++
	return b.Voltage, b.Err
}

// DroopGain implements hw.Battery, 1.0 unless Gain is set.
func (b *Battery) DroopGain() float64 {
	if b.Gain == 0 {
		return 1
	}
	return b.Gain
}

// IRArray reports a scripted normalized reading.
type IRArray struct {
	Values       []float64
	Calibrations []hw.Background
	CalErr       error
}

// NewIRArray creates an array of n channels reading background.
func NewIRArray(n int) *IRArray {
	return &IRArray{Values: make([]float64, n)}
}

// Read implements hw.IRArray.
func (a *IRArray) Read() []float64 {
	return append([]float64(nil), a.Values...)
}

// Centroid implements hw.IRArray with indices 1..N.
func (a *IRArray) Centroid() (float64, bool) {
	var total, weighted float64
	for n, v := range a.Values {
		total += v
		weighted += float64(n+1) * v
	}
	if total <= 1e-6 {
		return 0, false
	}
	return weighted / total, true
}

// CenterIndex implements hw.IRArray.
func (a *IRArray) CenterIndex() float64 {
	return float64(1+len(a.Values)) / 2
}

// Calibrate implements hw.IRArray.
func (a *IRArray) Calibrate(bg hw.Background) error {
	a.Calibrations = append(a.Calibrations, bg)
	return a.CalErr
}

// Set replaces the reading.
func (a *IRArray) Set(values ...float64) {
	a.Values = values
}

// IMU reports scripted readings.
type IMU struct {
	Heading float64
	YawRate float64
	Status  hw.CalibrationStatus
	Profile hw.CalibrationProfile
	Mode    hw.OperationMode
	Err     error
	Written []hw.CalibrationProfile
}

// EulerAngles implements hw.IMU.
func (m *IMU) EulerAngles() (float64, float64, float64, error) {
	return m.Heading, 0, 0, m.Err
}

// AngularVelocity implements hw.IMU. Yaw rate is on z.
func (m *IMU) AngularVelocity() (float64, float64, float64, error) {
	return 0, 0, m.YawRate, m.Err
}

// SetOperationMode implements hw.IMU.
func (m *IMU) SetOperationMode(mode hw.OperationMode) error {
	if m.Err != nil {
		return m.Err
	}
	m.Mode = mode
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
	m.Written = append(m.Written, p)
	m.Profile = p
	return nil
}
