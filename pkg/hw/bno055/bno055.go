// Package bno055 is a driver for the Bosch BNO055 absolute orientation
// sensor over I2C.
package bno055

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/i2c"

	"github.com/robotalks/romi/pkg/hw"
)

// DefaultAddr is the I2C address with ADR low.
const DefaultAddr = 0x28

// Registers.
const (
	regAccData       = 0x08
	regIntMask       = 0x0F
	regIntEnable     = 0x10
	regGyroData      = 0x14
	regEulerData     = 0x1A
	regCalibStat     = 0x35
	regOprMode       = 0x3D
	regSysTrigger    = 0x3F
	regAxisMapConfig = 0x41
	regAxisMapSign   = 0x42
	regCalibProfile  = 0x55
)

const (
	axisMapConfig = 0x21
	axisMapSign   = 0x04
	triggerReset  = 0x20
	// lsbPerUnit is the scale of euler angles (degrees) and angular
	// velocity (degrees/s).
	lsbPerUnit = 16.0
)

// Opts configures a Dev.
type Opts struct {
	Addr uint16
	// ModeSwitchDelay is waited after writing the mode or the profile.
	ModeSwitchDelay time.Duration
	// StartupDelay is waited after power on and reset.
	StartupDelay time.Duration
}

// DefaultOpts is the recommended configuration.
var DefaultOpts = Opts{
	Addr:            DefaultAddr,
	ModeSwitchDelay: 30 * time.Millisecond,
	StartupDelay:    700 * time.Millisecond,
}

// Dev implements hw.IMU.
type Dev struct {
	d    i2c.Dev
	opts Opts
	mode hw.OperationMode
}

var _ hw.IMU = &Dev{}

// New initializes the sensor: data ready interrupt enabled and axes
// remapped to the robot frame. The sensor starts in config mode.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{d: i2c.Dev{Bus: bus, Addr: opts.Addr}, opts: *opts, mode: hw.ModeConfig}
	for _, reg := range []byte{regIntEnable, regIntMask} {
		if err := d.setBits(reg, 0x01); err != nil {
			return nil, err
		}
	}
	if err := d.writeReg(regAxisMapConfig, axisMapConfig); err != nil {
		return nil, err
	}
	if err := d.writeReg(regAxisMapSign, axisMapSign); err != nil {
		return nil, err
	}
	sleep(d.opts.StartupDelay)
	return d, nil
}

// String implements fmt.Stringer.
func (d *Dev) String() string {
	return fmt.Sprintf("BNO055{%s}", &d.d)
}

// Mode returns the current operation mode.
func (d *Dev) Mode() hw.OperationMode {
	return d.mode
}

// EulerAngles implements hw.IMU. Heading increases counter-clockwise.
func (d *Dev) EulerAngles() (heading, roll, pitch float64, err error) {
	v, err := d.readVector(regEulerData)
	if err != nil {
		return
	}
	return -float64(v[0]) / lsbPerUnit, float64(v[1]) / lsbPerUnit, float64(v[2]) / lsbPerUnit, nil
}

// AngularVelocity implements hw.IMU.
func (d *Dev) AngularVelocity() (x, y, z float64, err error) {
	v, err := d.readVector(regGyroData)
	if err != nil {
		return
	}
	return float64(v[0]) / lsbPerUnit, float64(v[1]) / lsbPerUnit, float64(v[2]) / lsbPerUnit, nil
}

// Acceleration returns linear acceleration in m/s^2.
func (d *Dev) Acceleration() (x, y, z float64, err error) {
	v, err := d.readVector(regAccData)
	if err != nil {
		return
	}
	return float64(v[0]) / 100, float64(v[1]) / 100, float64(v[2]) / 100, nil
}

// SetOperationMode implements hw.IMU.
func (d *Dev) SetOperationMode(mode hw.OperationMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %v", hw.ErrInvalidMode, mode)
	}
	if err := d.writeReg(regOprMode, byte(mode)); err != nil {
		return err
	}
	sleep(d.opts.ModeSwitchDelay)
	d.mode = mode
	glog.V(2).Infof("IMU operation mode set to %s", mode)
	return nil
}

// CalibrationStatus implements hw.IMU.
func (d *Dev) CalibrationStatus() (hw.CalibrationStatus, error) {
	var b [1]byte
	if err := d.d.Tx([]byte{regCalibStat}, b[:]); err != nil {
		return hw.CalibrationStatus{}, err
	}
	return hw.ParseCalibrationStatus(b[0]), nil
}

// CalibrationCoeffs implements hw.IMU. The profile is only readable
// in config mode, the previous mode is restored afterwards.
func (d *Dev) CalibrationCoeffs() (p hw.CalibrationProfile, err error) {
	err = d.inConfigMode(func() error {
		buf := make([]byte, hw.CalibrationProfileSize)
		if err := d.d.Tx([]byte{regCalibProfile}, buf); err != nil {
			return err
		}
		return p.UnmarshalBinary(buf)
	})
	return
}

// WriteCalibrationCoeffs implements hw.IMU.
func (d *Dev) WriteCalibrationCoeffs(p hw.CalibrationProfile) error {
	data, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	return d.inConfigMode(func() error {
		if _, err := d.d.Write(append([]byte{regCalibProfile}, data...)); err != nil {
			return err
		}
		sleep(d.opts.ModeSwitchDelay)
		return nil
	})
}

// Reset triggers a system reset, the sensor returns in config mode.
func (d *Dev) Reset() error {
	if err := d.writeReg(regSysTrigger, triggerReset); err != nil {
		return err
	}
	sleep(d.opts.StartupDelay)
	d.mode = hw.ModeConfig
	return nil
}

func (d *Dev) inConfigMode(fn func() error) error {
	prev := d.mode
	if prev != hw.ModeConfig {
		if err := d.SetOperationMode(hw.ModeConfig); err != nil {
			return err
		}
	}
	err := fn()
	if prev != hw.ModeConfig {
		if restoreErr := d.SetOperationMode(prev); err == nil {
			err = restoreErr
		}
	}
	return err
}

func (d *Dev) readVector(reg byte) (v [3]int16, err error) {
	var buf [6]byte
	if err = d.d.Tx([]byte{reg}, buf[:]); err != nil {
		return
	}
	for n := range v {
		v[n] = int16(binary.LittleEndian.Uint16(buf[n*2:]))
	}
	return
}

func (d *Dev) writeReg(reg, val byte) error {
	_, err := d.d.Write([]byte{reg, val})
	return err
}

func (d *Dev) setBits(reg, mask byte) error {
	var b [1]byte
	if err := d.d.Tx([]byte{reg}, b[:]); err != nil {
		return err
	}
	return d.writeReg(reg, b[0]|mask)
}

func sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
