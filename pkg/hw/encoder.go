package hw

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
)

// Encoder defaults.
const (
	// CountsPerRev is encoder counts per wheel revolution.
	CountsPerRev = 1440
	// DefaultAutoReload is the top of a 16-bit timer counter.
	DefaultAutoReload = 65535
)

// Counter is a free running hardware ring counter in [0, AR].
type Counter interface {
	Counter() uint32
}

// CounterFunc is the func form of Counter.
type CounterFunc func() uint32

// Counter implements Counter.
func (f CounterFunc) Counter() uint32 {
	return f()
}

// UnwrapDelta reconstructs the signed displacement between two samples
// of a ring counter in [0, ar]. It is exact as long as the counter moves
// less than half a revolution ((ar+1)/2) between samples, which bounds
// the update period for a given wheel speed.
func UnwrapDelta(prev, curr, ar uint32) int64 {
	span := int64(ar) + 1
	delta := int64(curr) - int64(prev)
	if 2*delta < -span {
		delta += span
	} else if 2*delta > span {
		delta -= span
	}
	return delta
}

// QuadratureEncoder implements Encoder over a Counter.
type QuadratureEncoder struct {
	Source     Counter
	AutoReload uint32

	clock    clock.Clock
	position int64
	prev     uint32
	prevTime time.Time
	delta    int64
	dt       time.Duration
	velocity float64
}

// NewQuadratureEncoder creates an encoder on a 16-bit counter.
func NewQuadratureEncoder(src Counter, clk clock.Clock) *QuadratureEncoder {
	e := &QuadratureEncoder{
		Source:     src,
		AutoReload: DefaultAutoReload,
		clock:      clk,
	}
	e.prev = src.Counter()
	e.prevTime = clk.Now()
	return e
}

// Update implements Encoder.
func (e *QuadratureEncoder) Update() {
	curr := e.Source.Counter()
	now := e.clock.Now()
	e.delta = UnwrapDelta(e.prev, curr, e.AutoReload)
	e.position += e.delta
	e.dt = now.Sub(e.prevTime)
	if e.dt > 0 {
		e.velocity = float64(e.delta) / e.dt.Seconds()
	} else {
		e.velocity = 0
	}
	e.prev, e.prevTime = curr, now
}

// Zero implements Encoder.
func (e *QuadratureEncoder) Zero() {
	e.position = 0
	e.prev = e.Source.Counter()
	e.prevTime = e.clock.Now()
}

// Delta returns the counts moved during the last update.
func (e *QuadratureEncoder) Delta() int64 {
	return e.delta
}

// Dt returns the time between the last two updates.
func (e *QuadratureEncoder) Dt() time.Duration {
	return e.dt
}

// Position implements Encoder.
func (e *QuadratureEncoder) Position(unit Unit) float64 {
	return convertCounts(float64(e.position), unit)
}

// Velocity implements Encoder.
func (e *QuadratureEncoder) Velocity(unit Unit) float64 {
	return convertCounts(e.velocity, unit)
}

func convertCounts(v float64, unit Unit) float64 {
	if unit == Radians {
		return v * 2 * math.Pi / CountsPerRev
	}
	return v
}
