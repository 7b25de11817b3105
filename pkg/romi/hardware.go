package romi

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/hw"
	"github.com/robotalks/romi/pkg/hw/bno055"
	"github.com/robotalks/romi/pkg/hw/drv8838"
	"github.com/robotalks/romi/pkg/hw/iio"
	"github.com/robotalks/romi/pkg/hw/quadrature"
	simromi "github.com/robotalks/romi/pkg/sim/romi"
	"github.com/robotalks/romi/pkg/tasks/motor"
)

// Hardware is the set of devices the tasks drive.
type Hardware struct {
	Left, Right motor.Wheel
	Battery     *hw.DividerBattery
	IR          *hw.LineSensor
	IMU         hw.IMU
	// Sim is the simulated robot, nil on real hardware.
	Sim *simromi.Robot
	// Runnables run in background while the scheduler runs.
	Runnables []fx.Runnable
	Closers   []io.Closer
}

// NewHardware creates the configured backend.
func (c *Config) NewHardware(clk clock.Clock) (*Hardware, error) {
	switch c.Hardware {
	case HardwareSim:
		return c.NewSimHardware(simromi.DefaultConfig, clk), nil
	case HardwarePeriph:
		return c.NewPeriphHardware(clk)
	}
	return nil, fmt.Errorf("unknown hardware %q", c.Hardware)
}

// NewSimHardware creates the simulated robot.
func (c *Config) NewSimHardware(simConf simromi.Config, clk clock.Clock) *Hardware {
	robot := simromi.New(simConf, clk)
	h := &Hardware{
		Left:    motor.Wheel{Motor: robot.LeftMotor, Encoder: hw.NewQuadratureEncoder(robot.LeftCounter, clk)},
		Right:   motor.Wheel{Motor: robot.RightMotor, Encoder: hw.NewQuadratureEncoder(robot.RightCounter, clk)},
		Battery: hw.NewDividerBattery(robot.BatteryADC, simConf.Battery),
		IR:      hw.NewLineSensor(robot.IR, c.IRSamples),
		IMU:     robot.IMU,
		Sim:     robot,
	}
	if !c.loadIRCalibration(h.IR) {
		h.IR.Calibration = simConf.IR.Calibration()
	}
	c.setupIMU(h.IMU)
	return h
}

// NewPeriphHardware opens the devices through periph.io.
func (c *Config) NewPeriphHardware(clk clock.Clock) (_ *Hardware, err error) {
	if _, err = host.Init(); err != nil {
		return nil, fmt.Errorf("periph host: %w", err)
	}
	h := &Hardware{}
	defer func() {
		if err != nil {
			h.Close()
		}
	}()
	conf := &c.Periph

	var motors [2]*drv8838.Motor
	for n, pins := range []drv8838.Pins{conf.LeftMotor, conf.RightMotor} {
		if motors[n], err = drv8838.Open([]string{"left", "right"}[n], pins); err != nil {
			return nil, err
		}
	}
	var decoders [2]*quadrature.Decoder
	for n, pins := range []EncoderPins{conf.LeftEncoder, conf.RightEncoder} {
		if decoders[n], err = quadrature.Open([]string{"left", "right"}[n], pins.A, pins.B); err != nil {
			return nil, err
		}
		h.Runnables = append(h.Runnables, decoders[n])
	}
	h.Left = motor.Wheel{Motor: motors[0], Encoder: hw.NewQuadratureEncoder(decoders[0], clk)}
	h.Right = motor.Wheel{Motor: motors[1], Encoder: hw.NewQuadratureEncoder(decoders[1], clk)}

	adc, err := iio.Open(conf.ADC, conf.IRChannels...)
	if err != nil {
		return nil, err
	}
	h.Battery = hw.NewDividerBattery(adc.Channel(conf.BatteryChannel), hw.DefaultDivider)
	h.IR = hw.NewLineSensor(adc, c.IRSamples)
	c.loadIRCalibration(h.IR)

	bus, err := i2creg.Open(conf.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("i2c %q: %w", conf.I2CBus, err)
	}
	h.Closers = append(h.Closers, bus)
	imu, err := bno055.New(bus, &bno055.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("bno055: %w", err)
	}
	h.IMU = imu
	c.setupIMU(imu)
	glog.Infof("hardware: %s", imu)
	return h, nil
}

// Close releases the buses.
func (h *Hardware) Close() error {
	var errs fx.AggregatedError
	for _, closer := range h.Closers {
		errs.Add(closer.Close())
	}
	h.Closers = nil
	return errs.Aggregate()
}

func (c *Config) loadIRCalibration(ir *hw.LineSensor) bool {
	ir.CalibrationFile = c.IRCalibrationFile
	if c.IRCalibrationFile == "" {
		return false
	}
	return ir.LoadCalibration(c.IRCalibrationFile)
}

// setupIMU restores the saved calibration profile and switches to
// fusion mode. Failures leave the IMU uncalibrated.
func (c *Config) setupIMU(imu hw.IMU) {
	if c.IMUCalibrationFile != "" {
		profile, err := hw.LoadCalibrationProfile(c.IMUCalibrationFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			glog.Infof("IMU calibration %s not found", c.IMUCalibrationFile)
		case err != nil:
			glog.Warningf("IMU calibration %s: %v", c.IMUCalibrationFile, err)
		default:
			if err := imu.WriteCalibrationCoeffs(profile); err != nil {
				glog.Warningf("IMU calibration write: %v", err)
			} else {
				glog.Infof("IMU calibration loaded from %s", c.IMUCalibrationFile)
			}
		}
	}
	if err := imu.SetOperationMode(hw.ModeNDOF); err != nil {
		glog.Warningf("IMU mode: %v", err)
	}
}
