// Package iio reads ADC channels exposed by the Linux industrial I/O
// subsystem under /sys/bus/iio/devices.
package iio

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robotalks/romi/pkg/hw"
)

// DefaultRoot is where the kernel exposes IIO devices.
const DefaultRoot = "/sys/bus/iio/devices"

// Device is one IIO ADC, for example iio:device0.
type Device struct {
	Dir string
	// Channels maps logical channels to in_voltageN_raw indices.
	Channels []int
}

// Open finds the device by name, channels are mapped in order.
func Open(name string, channels ...int) (*Device, error) {
	dir := filepath.Join(DefaultRoot, name)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("iio device %s: %w", name, err)
	}
	return &Device{Dir: dir, Channels: channels}, nil
}

// NumChannels implements hw.ChannelReader.
func (d *Device) NumChannels() int {
	return len(d.Channels)
}

// ReadChannel implements hw.ChannelReader.
func (d *Device) ReadChannel(ch int) (uint16, error) {
	if ch < 0 || ch >= len(d.Channels) {
		return 0, fmt.Errorf("iio channel %d out of range", ch)
	}
	return d.readRaw(d.Channels[ch])
}

// Channel returns a single input as hw.ADC.
func (d *Device) Channel(index int) hw.ADC {
	return &channel{dev: d, index: index}
}

func (d *Device) readRaw(index int) (uint16, error) {
	data, err := os.ReadFile(filepath.Join(d.Dir, fmt.Sprintf("in_voltage%d_raw", index)))
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("iio in_voltage%d_raw: %w", index, err)
	}
	return uint16(v), nil
}

type channel struct {
	dev   *Device
	index int
}

func (c *channel) ReadRaw() (uint16, error) {
	return c.dev.readRaw(c.index)
}
