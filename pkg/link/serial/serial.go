// Package serial carries the host link over a serial port or a
// Bluetooth UART bridge.
package serial

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tarm/serial"

	"github.com/robotalks/romi/pkg/link"
)

// DefaultBaud is the baud rate of the Bluetooth UART bridge.
const DefaultBaud = 115200

// Config specifies a serial port.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// ParseSpec parses "device[@baud]", e.g. /dev/ttyUSB0@115200.
func ParseSpec(spec string) (Config, error) {
	conf := Config{Device: spec, Baud: DefaultBaud}
	if pos := strings.LastIndex(spec, "@"); pos >= 0 {
		baud, err := strconv.Atoi(spec[pos+1:])
		if err != nil || baud <= 0 {
			return conf, fmt.Errorf("invalid baud rate in %q", spec)
		}
		conf.Device, conf.Baud = spec[:pos], baud
	}
	if conf.Device == "" {
		return conf, fmt.Errorf("serial device missing in %q", spec)
	}
	return conf, nil
}

// OpenStream opens the raw port.
func (c Config) OpenStream() (io.ReadWriteCloser, error) {
	baud := c.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	sp, err := serial.OpenPort(&serial.Config{
		Name:        c.Device,
		Baud:        baud,
		ReadTimeout: c.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", c.Device, err)
	}
	return sp, nil
}

// Open opens the port and wraps it into a link.Port. Running the
// returned Port pumps received bytes into its inbox.
func (c Config) Open() (*link.Port, error) {
	sp, err := c.OpenStream()
	if err != nil {
		return nil, err
	}
	return link.NewPort("serial:"+c.Device, sp), nil
}

// Open opens a port by spec.
func Open(spec string) (*link.Port, error) {
	conf, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	return conf.Open()
}
