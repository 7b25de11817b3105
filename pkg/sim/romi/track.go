package romi

import (
	"math"

	"github.com/robotalks/romi/pkg/sim"
)

// Track is the line drawn on the floor.
type Track interface {
	OnLine(sim.Pos2D) bool
}

// TrackFunc is the func form of Track.
type TrackFunc func(sim.Pos2D) bool

// OnLine implements Track.
func (f TrackFunc) OnLine(p sim.Pos2D) bool {
	return f(p)
}

// StraightLine is a line along X at Y. The optional gap [GapFrom, GapTo)
// along X has no line.
type StraightLine struct {
	Y       float64
	Width   float64
	GapFrom float64
	GapTo   float64
}

// OnLine implements Track.
func (l StraightLine) OnLine(p sim.Pos2D) bool {
	if math.Abs(p.Y-l.Y) > l.Width/2 {
		return false
	}
	return l.GapTo <= l.GapFrom || p.X < l.GapFrom || p.X >= l.GapTo
}

// Circle is a circular line.
type Circle struct {
	Center sim.Pos2D
	Radius float64
	Width  float64
}

// OnLine implements Track.
func (c Circle) OnLine(p sim.Pos2D) bool {
	r := math.Hypot(p.X-c.Center.X, p.Y-c.Center.Y)
	return math.Abs(r-c.Radius) <= c.Width/2
}
