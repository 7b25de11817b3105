package hw

import (
	"github.com/golang/glog"
)

// ADC is a single analog input channel.
type ADC interface {
	ReadRaw() (uint16, error)
}

// DividerConfig describes a resistor divider in front of an ADC.
type DividerConfig struct {
	R1        float64
	R2        float64
	VRef      float64
	FullScale float64
	VNominal  float64
	// VMin is the lowest plausible voltage, droop gain is 1.0 below it.
	VMin float64
}

// DefaultDivider is the Romi battery divider on a 12-bit ADC with six
// NiMH cells.
var DefaultDivider = DividerConfig{
	R1:        9.98e3,
	R2:        4.712e3,
	VRef:      3.3,
	FullScale: 4095,
	VNominal:  6 * 1.6,
	VMin:      0.5,
}

// DividerBattery implements Battery.
type DividerBattery struct {
	DividerConfig
	ADC ADC

	voltage float64
}

// NewDividerBattery creates a DividerBattery.
func NewDividerBattery(adc ADC, conf DividerConfig) *DividerBattery {
	return &DividerBattery{DividerConfig: conf, ADC: adc}
}

// Scale returns the divider ratio.
func (b *DividerBattery) Scale() float64 {
	return (b.R1 + b.R2) / b.R2
}

// ReadVoltage implements Battery.
func (b *DividerBattery) ReadVoltage() (float64, error) {
	raw, err := b.ADC.ReadRaw()
	if err != nil {
		return 0, err
	}
	return float64(raw) / b.FullScale * b.VRef * b.Scale(), nil
}

// Refresh implements Battery. On failure the cached value is cleared so
// DroopGain falls back to 1.0.
func (b *DividerBattery) Refresh() (float64, error) {
	v, err := b.ReadVoltage()
	b.voltage = v
	if err == nil && v <= b.VMin {
		glog.Warningf("battery voltage %.2fV too low or invalid", v)
	}
	return v, err
}

// Voltage returns the cached voltage.
func (b *DividerBattery) Voltage() float64 {
	return b.voltage
}

// DroopGain implements Battery.
func (b *DividerBattery) DroopGain() float64 {
	if b.voltage <= b.VMin {
		return 1.0
	}
	return b.VNominal / b.voltage
}
