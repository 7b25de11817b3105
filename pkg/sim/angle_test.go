package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAngleNormalize(t *testing.T) {
	testCases := []struct {
		name   string
		in     float64
		expect float64
	}{
		{name: "zero", in: 0, expect: 0},
		{name: "within", in: 1, expect: 1},
		{name: "over pi", in: 3 * math.Pi / 2, expect: -math.Pi / 2},
		{name: "under -pi", in: -3 * math.Pi / 2, expect: math.Pi / 2},
		{name: "turns", in: 4*math.Pi + 0.5, expect: 0.5},
		{name: "pi stays", in: math.Pi, expect: math.Pi},
		{name: "minus pi flips", in: -math.Pi, expect: math.Pi},
		{name: "negative turns", in: -6*math.Pi - 0.25, expect: -0.25},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.expect, AngleFromRadians(tc.in).Radians(), 1e-9)
		})
	}
	require.InDelta(t, -90, AngleFromDegrees(270).Degrees(), 1e-9)
	require.InDelta(t, 0.5, AngleFromRadians(math.Pi).AddRadians(math.Pi+0.5).Radians(), 1e-9)
}

func TestAngleProject(t *testing.T) {
	p := AngleFromDegrees(30).Project(10)
	require.InDelta(t, 10*math.Sqrt(3)/2, p.X, 1e-9)
	require.InDelta(t, 5, p.Y, 1e-9)

	p = AngleFromDegrees(0).AddDegrees(-90).Project(2)
	require.InDelta(t, 0, p.X, 1e-9)
	require.InDelta(t, -2, p.Y, 1e-9)
}

func TestPoseLocal(t *testing.T) {
	pose := Pose2D{Pos2D: Pos2D{X: 10, Y: 20}, Orientation: AngleFromDegrees(90)}
	p := pose.Local(5, 2)
	require.InDelta(t, 8, p.X, 1e-9)
	require.InDelta(t, 25, p.Y, 1e-9)

	p = Pose2D{}.Local(3, -1)
	require.InDelta(t, 3, p.X, 1e-9)
	require.InDelta(t, -1, p.Y, 1e-9)
}
