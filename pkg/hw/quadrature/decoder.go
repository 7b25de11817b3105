// Package quadrature decodes an incremental encoder from two GPIO edge
// inputs into a 16-bit ring counter, the way a timer in encoder mode
// counts on the microcontroller.
package quadrature

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/hw"
)

// EdgeTimeout bounds a single wait for an edge so Run notices
// cancellation.
const EdgeTimeout = 100 * time.Millisecond

// Decoder counts the transitions of channels A and B.
//
// The state is a | b<<1, transitions:
//
//	prev/next | 00 | 01 | 10 | 11
//	       00 |  0 | -1 | +1 |  x
//	       01 | +1 |  0 |  x | -1
//	       10 | -1 |  x |  0 | +1
//	       11 |  x | +1 | -1 |  0
//
// x is a missed edge, it is counted as an error and the state resyncs.
type Decoder struct {
	Name       string
	A, B       gpio.PinIn
	AutoReload uint32

	lock    sync.Mutex
	state   uint8
	counter uint32
	errors  uint64
}

var _ hw.Counter = &Decoder{}

// New configures both pins for edge detection.
func New(name string, a, b gpio.PinIn) (*Decoder, error) {
	for _, pin := range []gpio.PinIn{a, b} {
		if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
			return nil, err
		}
	}
	d := &Decoder{Name: name, A: a, B: b, AutoReload: hw.DefaultAutoReload}
	d.state = d.read()
	return d, nil
}

// Open looks up the pins by name from gpioreg.
func Open(name, pinA, pinB string) (*Decoder, error) {
	var pins [2]gpio.PinIO
	for n, pinName := range []string{pinA, pinB} {
		if pins[n] = gpioreg.ByName(pinName); pins[n] == nil {
			return nil, &hw.PinNotFoundError{Name: pinName}
		}
	}
	return New(name, pins[0], pins[1])
}

// Counter implements hw.Counter.
func (d *Decoder) Counter() uint32 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.counter
}

// Errors returns the number of impossible transitions seen.
func (d *Decoder) Errors() uint64 {
	return atomic.LoadUint64(&d.errors)
}

// Run implements fx.Runnable, watching both channels until ctx is done.
func (d *Decoder) Run(ctx context.Context) error {
	runner := fx.NewRunnerWith(ctx)
	for _, pin := range []gpio.PinIn{d.A, d.B} {
		pin := pin
		runner.Go(fx.RunFunc(func(ctx context.Context) error {
			for ctx.Err() == nil {
				if pin.WaitForEdge(EdgeTimeout) {
					d.Sample()
				}
			}
			return nil
		}))
	}
	err := runner.Wait()
	if n := d.Errors(); n > 0 {
		glog.Warningf("encoder %s: %d missed edges", d.Name, n)
	}
	return err
}

// Sample reads both channels and applies the transition.
func (d *Decoder) Sample() {
	next := d.read()
	d.lock.Lock()
	defer d.lock.Unlock()
	prev := d.state
	if prev == next {
		return
	}
	d.state = next
	switch prev<<2 | next {
	case 0b0001, 0b0111, 0b1000, 0b1110:
		d.counter = d.wrap(d.counter - 1)
	case 0b0010, 0b0100, 0b1011, 0b1101:
		d.counter = d.wrap(d.counter + 1)
	default:
		atomic.AddUint64(&d.errors, 1)
	}
}

func (d *Decoder) wrap(v uint32) uint32 {
	if d.AutoReload == 0 || d.AutoReload == ^uint32(0) {
		return v
	}
	return v % (d.AutoReload + 1)
}

func (d *Decoder) read() uint8 {
	var s uint8
	if d.A.Read() == gpio.High {
		s |= 1
	}
	if d.B.Read() == gpio.High {
		s |= 2
	}
	return s
}
