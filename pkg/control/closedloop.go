// Package control provides the wheel velocity controller.
package control

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	fx "github.com/robotalks/romi/pkg/framework"
)

// Defaults of a ClosedLoop.
const (
	DefaultEffortMin      = -100.0
	DefaultEffortMax      = 100.0
	DefaultStallThreshold = time.Second
	// DefaultCountsPerRev converts encoder counts/s feedback into rad/s.
	DefaultCountsPerRev = 1440.0
)

// DroopGainer provides the battery droop compensation gain.
type DroopGainer interface {
	DroopGain() float64
}

// Gains groups the Shares a controller reads its gains from.
type Gains struct {
	Kp *fx.Share[float64]
	Ki *fx.Share[float64]
}

// ClosedLoop is a PI controller for wheel velocity in rad/s.
//
// The output is scaled by the battery droop gain and then clamped to
// [EffortMin, EffortMax]. The integrator is not clamped on its own.
type ClosedLoop struct {
	Gains    Gains
	Setpoint *fx.Share[float64]
	Droop    DroopGainer

	EffortMin float64
	EffortMax float64
	// FeedbackScale converts the feedback into setpoint units.
	FeedbackScale float64
	// StallThreshold is the longest gap between runs which still
	// integrates. Longer gaps hold the last output.
	StallThreshold time.Duration

	clock      clock.Clock
	integrator float64
	output     float64
	lastTime   time.Time
}

// NewClosedLoop creates a ClosedLoop with default limits.
func NewClosedLoop(gains Gains, setpoint *fx.Share[float64], droop DroopGainer, clk clock.Clock) *ClosedLoop {
	return &ClosedLoop{
		Gains:          gains,
		Setpoint:       setpoint,
		Droop:          droop,
		EffortMin:      DefaultEffortMin,
		EffortMax:      DefaultEffortMax,
		FeedbackScale:  2 * math.Pi / DefaultCountsPerRev,
		StallThreshold: DefaultStallThreshold,
		clock:          clk,
		lastTime:       clk.Now(),
	}
}

// SetGains writes both gains.
func (c *ClosedLoop) SetGains(kp, ki float64) {
	c.Gains.Kp.Put(kp)
	c.Gains.Ki.Put(ki)
}

// SetSetpoint writes the setpoint.
func (c *ClosedLoop) SetSetpoint(sp float64) {
	c.Setpoint.Put(sp)
}

// Reset clears the integrator and output and restarts dt measurement.
func (c *ClosedLoop) Reset() {
	c.integrator, c.output = 0, 0
	c.lastTime = c.clock.Now()
}

// Integrator returns the accumulated error * dt.
func (c *ClosedLoop) Integrator() float64 {
	return c.integrator
}

// Output returns the last computed effort.
func (c *ClosedLoop) Output() float64 {
	return c.output
}

// Run computes the effort from the feedback.
func (c *ClosedLoop) Run(feedback float64) float64 {
	now := c.clock.Now()
	dt := now.Sub(c.lastTime)
	c.lastTime = now
	if dt > c.StallThreshold {
		glog.V(2).Infof("controller stalled for %v, holding %.2f", dt, c.output)
		return c.output
	}
	fb := feedback * c.FeedbackScale
	if math.IsNaN(fb) || math.IsInf(fb, 0) {
		glog.Warningf("controller ignores invalid feedback %v", feedback)
		return c.output
	}

	e := c.Setpoint.Get() - fb
	c.integrator += e * dt.Seconds()
	u := c.Gains.Kp.Get()*e + c.Gains.Ki.Get()*c.integrator

	gain := 1.0
	if c.Droop != nil {
		gain = c.Droop.DroopGain()
	}
	u *= gain

	if math.IsNaN(u) {
		u = 0
	}
	c.output = math.Max(c.EffortMin, math.Min(c.EffortMax, u))
	return c.output
}
