package drv8838

import (
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/robotalks/romi/pkg/hw"
)

func newTestMotor(t *testing.T) (*Motor, *gpiotest.Pin, *gpiotest.Pin, *gpiotest.Pin) {
	pwm := &gpiotest.Pin{N: "PWM", L: gpio.High}
	dir := &gpiotest.Pin{N: "DIR", L: gpio.High}
	slp := &gpiotest.Pin{N: "NSLP", L: gpio.High}
	m, err := New("left", pwm, dir, slp)
	require.NoError(t, err)
	return m, pwm, dir, slp
}

func TestMotorStartsAsleep(t *testing.T) {
	m, pwm, dir, slp := newTestMotor(t)
	require.False(t, m.Enabled())
	require.Equal(t, gpio.Low, slp.L)
	require.Equal(t, gpio.Low, dir.L)
	require.Equal(t, gpio.Duty(0), pwm.D)
	require.Equal(t, DefaultFrequency, pwm.F)

	m.SetEffort(50)
	require.Equal(t, gpio.Duty(0), pwm.D)
	require.Zero(t, m.Effort())
}

func TestMotorEffort(t *testing.T) {
	testCases := []struct {
		name   string
		effort float64
		duty   gpio.Duty
		dir    gpio.Level
		actual float64
	}{
		{name: "forward", effort: 50, duty: gpio.DutyMax / 2, dir: gpio.Low, actual: 50},
		{name: "reverse", effort: -25, duty: gpio.DutyMax / 4, dir: gpio.High, actual: -25},
		{name: "clamp forward", effort: 180, duty: gpio.DutyMax, dir: gpio.Low, actual: 100},
		{name: "clamp reverse", effort: -100.5, duty: gpio.DutyMax, dir: gpio.High, actual: -100},
		{name: "stop", effort: 0, duty: 0, dir: gpio.Low, actual: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, pwm, dir, slp := newTestMotor(t)
			m.Enable()
			require.Equal(t, gpio.High, slp.L)
			m.SetEffort(tc.effort)
			require.Equal(t, tc.duty, pwm.D)
			require.Equal(t, tc.dir, dir.L)
			require.Equal(t, tc.actual, m.Effort())
		})
	}
}

func TestMotorDisable(t *testing.T) {
	m, pwm, _, slp := newTestMotor(t)
	m.Enable()
	m.SetEffort(-70)
	m.Disable()
	require.False(t, m.Enabled())
	require.Equal(t, gpio.Low, slp.L)
	require.Equal(t, gpio.Duty(0), pwm.D)

	// enabling again starts from zero duty.
	m.Enable()
	require.Equal(t, gpio.Duty(0), pwm.D)
}

func TestOpenUnknownPin(t *testing.T) {
	_, err := Open("left", Pins{PWM: "NO_SUCH_PWM", Dir: "NO_SUCH_DIR", Sleep: "NO_SUCH_SLP"})
	var notFound *hw.PinNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "NO_SUCH_PWM", notFound.Name)
}
