// Package drv8838 drives a DC motor through a DRV8838 H-bridge with
// separate PWM, direction and sleep inputs.
package drv8838

import (
	"math"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"

	"github.com/robotalks/romi/pkg/hw"
)

// DefaultFrequency is the PWM frequency.
const DefaultFrequency = 20 * physic.KiloHertz

// Pins names the GPIOs wired to a driver.
type Pins struct {
	PWM   string `json:"pwm"`
	Dir   string `json:"dir"`
	Sleep string `json:"nslp"`
}

// Motor implements hw.Motor.
type Motor struct {
	Name      string
	PWM       gpio.PinOut
	Dir       gpio.PinOut
	Sleep     gpio.PinOut
	Frequency physic.Frequency

	effort  float64
	enabled bool
}

var _ hw.Motor = &Motor{}

// New creates a disabled Motor.
func New(name string, pwm, dir, sleep gpio.PinOut) (*Motor, error) {
	m := &Motor{Name: name, PWM: pwm, Dir: dir, Sleep: sleep, Frequency: DefaultFrequency}
	if err := m.Dir.Out(gpio.Low); err != nil {
		return nil, err
	}
	if err := m.Sleep.Out(gpio.Low); err != nil {
		return nil, err
	}
	if err := m.setDuty(0); err != nil {
		return nil, err
	}
	return m, nil
}

// Open looks up the pins by name from gpioreg.
func Open(name string, pins Pins) (*Motor, error) {
	var p [3]gpio.PinIO
	for n, pinName := range []string{pins.PWM, pins.Dir, pins.Sleep} {
		if p[n] = gpioreg.ByName(pinName); p[n] == nil {
			return nil, &hw.PinNotFoundError{Name: pinName}
		}
	}
	return New(name, p[0], p[1], p[2])
}

// Enable implements hw.Motor. It wakes the bridge at zero duty.
func (m *Motor) Enable() {
	if m.enabled {
		return
	}
	m.effort = 0
	m.check(m.setDuty(0))
	m.check(m.Sleep.Out(gpio.High))
	m.enabled = true
}

// Disable implements hw.Motor. It is always applied so the bridge
// sleeps even when state is out of sync.
func (m *Motor) Disable() {
	m.effort = 0
	m.check(m.setDuty(0))
	m.check(m.Sleep.Out(gpio.Low))
	m.enabled = false
}

// SetEffort implements hw.Motor. It is ignored while disabled.
func (m *Motor) SetEffort(percent float64) {
	if !m.enabled {
		return
	}
	if math.IsNaN(percent) {
		percent = 0
	}
	m.effort = math.Max(-100, math.Min(100, percent))
	if m.effort >= 0 {
		m.check(m.Dir.Out(gpio.Low))
		m.check(m.setDuty(m.effort))
	} else {
		m.check(m.Dir.Out(gpio.High))
		m.check(m.setDuty(-m.effort))
	}
}

// Effort returns the applied effort.
func (m *Motor) Effort() float64 {
	return m.effort
}

// Enabled indicates the bridge is awake.
func (m *Motor) Enabled() bool {
	return m.enabled
}

func (m *Motor) setDuty(percent float64) error {
	return m.PWM.PWM(gpio.Duty(percent/100*float64(gpio.DutyMax)), m.Frequency)
}

func (m *Motor) check(err error) {
	if err != nil {
		glog.Warningf("motor %s: %v", m.Name, err)
	}
}
