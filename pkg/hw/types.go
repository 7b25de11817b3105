// Package hw defines the hardware collaborators consumed by the tasks
// and the device independent logic around them.
package hw

// Motor is a PWM motor driver.
type Motor interface {
	Enable()
	Disable()
	// SetEffort sets the duty cycle in percent [-100, 100], the sign
	// selects the direction.
	SetEffort(percent float64)
}

// Unit selects the unit of encoder readings.
type Unit int

// Encoder units.
const (
	// Counts is raw encoder counts (per second for velocity).
	Counts Unit = iota
	// Radians is wheel angle (per second for velocity).
	Radians
)

// Encoder tracks position and velocity of a wheel.
type Encoder interface {
	// Update samples the hardware counter once.
	Update()
	// Zero makes the current position the origin.
	Zero()
	Position(Unit) float64
	Velocity(Unit) float64
}

// Battery measures the supply voltage.
type Battery interface {
	// ReadVoltage samples the voltage.
	ReadVoltage() (float64, error)
	// Refresh samples the voltage and caches it for DroopGain.
	Refresh() (float64, error)
	// DroopGain returns nominal/measured voltage from the cached
	// sample, 1.0 when the measurement is implausible.
	DroopGain() float64
}

// Background identifies an IR calibration surface.
type Background byte

// Calibration surfaces, the values are the host command bytes.
const (
	White Background = 'w'
	Black Background = 'b'
)

// String implements fmt.Stringer.
func (b Background) String() string {
	switch b {
	case White:
		return "WHITE"
	case Black:
		return "BLACK"
	}
	return "UNKNOWN"
}

// IRArray is a reflectance sensor array.
type IRArray interface {
	// Read returns the normalized reading of each channel in [0, 1],
	// 0 is background and 1 is the line.
	Read() []float64
	// Centroid returns the line position in sensor index space and
	// whether the line is seen.
	Centroid() (float64, bool)
	// CenterIndex returns the ideal centroid.
	CenterIndex() float64
	// Calibrate samples the surface under the array.
	Calibrate(Background) error
}

// IMU is an absolute orientation sensor.
type IMU interface {
	// EulerAngles returns heading, roll, pitch in degrees.
	EulerAngles() (heading, roll, pitch float64, err error)
	// AngularVelocity returns x, y, z in degrees/s.
	AngularVelocity() (x, y, z float64, err error)
	SetOperationMode(OperationMode) error
	CalibrationStatus() (CalibrationStatus, error)
	CalibrationCoeffs() (CalibrationProfile, error)
	WriteCalibrationCoeffs(CalibrationProfile) error
}
