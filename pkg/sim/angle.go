package sim

import "math"

const (
	degPerRad = 180 / math.Pi
	fullTurn  = 2 * math.Pi
)

// AngleFromDegrees wraps degrees into (-180, 180].
func AngleFromDegrees(d float64) Angle {
	return AngleFromRadians(d / degPerRad)
}

// AngleFromRadians wraps radians into (-pi, pi].
func AngleFromRadians(r float64) Angle {
	return Angle(wrap(r))
}

// AddRadians rotates the angle counter-clockwise by r.
func (a Angle) AddRadians(r float64) Angle {
	return AngleFromRadians(float64(a) + r)
}

// AddDegrees rotates the angle counter-clockwise by d degrees.
func (a Angle) AddDegrees(d float64) Angle {
	return a.AddRadians(d / degPerRad)
}

// Radians returns the angle in (-pi, pi].
func (a Angle) Radians() float64 {
	return float64(a)
}

// Degrees returns the angle in (-180, 180].
func (a Angle) Degrees() float64 {
	return float64(a) * degPerRad
}

// Project returns the offset of travelling dist along the angle.
func (a Angle) Project(dist float64) Pos2D {
	sin, cos := math.Sincos(float64(a))
	return Pos2D{X: dist * cos, Y: dist * sin}
}

// wrap maps any finite angle into (-pi, pi].
func wrap(r float64) float64 {
	r = math.Mod(r, fullTurn)
	switch {
	case r > math.Pi:
		r -= fullTurn
	case r <= -math.Pi:
		r += fullTurn
	}
	return r
}
