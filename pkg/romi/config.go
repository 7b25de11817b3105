// Package romi assembles the firmware: hardware, Shares, tasks, host
// links and the scheduler running them.
package romi

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/robotalks/romi/pkg/hw/drv8838"
)

// Hardware backends.
const (
	HardwareSim    = "sim"
	HardwarePeriph = "periph"
)

// Task names.
const (
	TaskSim       = "sim"
	TaskMotor     = "motor"
	TaskHeading   = "heading"
	TaskData      = "data"
	TaskSpectator = "spectator"
	TaskSteering  = "steering"
	TaskObserver  = "observer"
	TaskPlanning  = "planning"
	TaskStream    = "stream"
	TaskUI        = "ui"
	TaskStatus    = "status"
	TaskSee       = "see"
)

// TaskConfig schedules a task.
type TaskConfig struct {
	Priority int
	Period   time.Duration
}

// EncoderPins names the quadrature channels.
type EncoderPins struct {
	A string `json:"a"`
	B string `json:"b"`
}

// PeriphConfig wires the robot on a Linux board through periph.io.
type PeriphConfig struct {
	LeftMotor    drv8838.Pins
	RightMotor   drv8838.Pins
	LeftEncoder  EncoderPins
	RightEncoder EncoderPins
	// I2CBus is the bus of the IMU, empty for the first one.
	I2CBus string
	// ADC is the IIO device sampling the IR array and the battery.
	ADC            string
	IRChannels     []int
	BatteryChannel int
}

// Config defines the firmware configuration.
type Config struct {
	// Hardware selects the backend, sim or periph.
	Hardware string
	// Serial is the host link port, "device[@baud]", empty disables it.
	Serial string
	// WebsocketAddr serves the telemetry to browsers, empty disables it.
	WebsocketAddr string
	// Visualize writes the simulated pose for robotalks/see to stdout.
	Visualize bool
	Profile   bool

	MaxSamples         int
	IRSamples          int
	IRCalibrationFile  string
	IMUCalibrationFile string

	Tasks  map[string]TaskConfig
	Periph PeriphConfig
}

var defaultConfig = Config{
	Hardware:           HardwareSim,
	MaxSamples:         250,
	IRSamples:          10,
	IRCalibrationFile:  "IR_cal.txt",
	IMUCalibrationFile: "IMU_cal.bin",
	Tasks: map[string]TaskConfig{
		TaskSim:       {Priority: 5, Period: 5 * time.Millisecond},
		TaskMotor:     {Priority: 3, Period: 10 * time.Millisecond},
		TaskHeading:   {Priority: 2, Period: 10 * time.Millisecond},
		TaskData:      {Priority: 2, Period: 10 * time.Millisecond},
		TaskSpectator: {Priority: 2, Period: 10 * time.Millisecond},
		TaskSteering:  {Priority: 2, Period: 20 * time.Millisecond},
		TaskObserver:  {Priority: 2, Period: 20 * time.Millisecond},
		TaskPlanning:  {Priority: 1, Period: 50 * time.Millisecond},
		TaskStream:    {Priority: 1, Period: 20 * time.Millisecond},
		TaskUI:        {Priority: 0, Period: 100 * time.Millisecond},
		TaskStatus:    {Priority: 0, Period: time.Second},
		TaskSee:       {Priority: 0, Period: 100 * time.Millisecond},
	},
	Periph: PeriphConfig{
		LeftMotor:      drv8838.Pins{PWM: "GPIO12", Dir: "GPIO5", Sleep: "GPIO6"},
		RightMotor:     drv8838.Pins{PWM: "GPIO13", Dir: "GPIO16", Sleep: "GPIO26"},
		LeftEncoder:    EncoderPins{A: "GPIO17", B: "GPIO27"},
		RightEncoder:   EncoderPins{A: "GPIO22", B: "GPIO23"},
		ADC:            "iio:device0",
		IRChannels:     []int{0, 1, 2, 3, 4, 5, 6},
		BatteryChannel: 7,
	},
}

func init() {
	if val := os.Getenv("ROMI_HW"); val != "" {
		defaultConfig.Hardware = val
	}
	if val := os.Getenv("ROMI_SERIAL"); val != "" {
		defaultConfig.Serial = val
	}
	if val := os.Getenv("ROMI_WS_ADDR"); val != "" {
		defaultConfig.WebsocketAddr = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Hardware, "hw", defaultConfig.Hardware, "Hardware backend: sim or periph")
	flag.StringVar(&defaultConfig.Serial, "serial", defaultConfig.Serial, "Host link serial port, device[@baud]")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws", defaultConfig.WebsocketAddr, "Websocket telemetry listen address")
	flag.BoolVar(&defaultConfig.Visualize, "see", defaultConfig.Visualize, "Write simulated pose for robotalks/see to stdout")
	flag.BoolVar(&defaultConfig.Profile, "profile", defaultConfig.Profile, "Profile task run times")
	flag.IntVar(&defaultConfig.MaxSamples, "max-samples", defaultConfig.MaxSamples, "Capacity of the sample queues")
	flag.StringVar(&defaultConfig.IRCalibrationFile, "ir-cal", defaultConfig.IRCalibrationFile, "IR calibration file")
	flag.StringVar(&defaultConfig.IMUCalibrationFile, "imu-cal", defaultConfig.IMUCalibrationFile, "IMU calibration file")
	flag.StringVar(&defaultConfig.Periph.I2CBus, "i2c", defaultConfig.Periph.I2CBus, "I2C bus of the IMU")
	flag.StringVar(&defaultConfig.Periph.ADC, "adc", defaultConfig.Periph.ADC, "IIO device of the IR array and battery")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Tasks = make(map[string]TaskConfig, len(defaultConfig.Tasks))
	for name, tc := range defaultConfig.Tasks {
		conf.Tasks[name] = tc
	}
	conf.Periph.IRChannels = append([]int(nil), defaultConfig.Periph.IRChannels...)
	return &conf
}

// Task returns the schedule of a task.
func (c *Config) Task(name string) TaskConfig {
	if tc, ok := c.Tasks[name]; ok {
		return tc
	}
	return defaultConfig.Tasks[name]
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Hardware {
	case HardwareSim, HardwarePeriph:
	default:
		return fmt.Errorf("unknown hardware %q", c.Hardware)
	}
	if c.MaxSamples <= 0 {
		return fmt.Errorf("max samples must be positive")
	}
	for name, tc := range c.Tasks {
		if tc.Period <= 0 {
			return fmt.Errorf("task %s: period must be positive", name)
		}
	}
	return nil
}

// MustNewRobot builds the robot on the wall clock and fails on error.
func (c *Config) MustNewRobot(opts ...Option) *Robot {
	r, err := c.NewRobot(clock.New(), opts...)
	if err != nil {
		log.Fatalln(err)
	}
	return r
}
