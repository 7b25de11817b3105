package hw

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeChannels struct {
	raw []uint16
	err error
}

func (c *fakeChannels) NumChannels() int {
	return len(c.raw)
}

func (c *fakeChannels) ReadChannel(ch int) (uint16, error) {
	return c.raw[ch], c.err
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name              string
		raw, black, white float64
		expected          float64
	}{
		{name: "white", raw: 200, black: 3000, white: 200, expected: 0},
		{name: "black", raw: 3000, black: 3000, white: 200, expected: 1},
		{name: "middle", raw: 1600, black: 3000, white: 200, expected: 0.5},
		{name: "below white", raw: 100, black: 3000, white: 200, expected: 0},
		{name: "above black", raw: 4000, black: 3000, white: 200, expected: 1},
		{name: "uncalibrated", raw: 1000, black: 0, white: 0, expected: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.expected, Normalize(tc.raw, tc.black, tc.white), 1e-9)
		})
	}
}

func TestLineSensorCentroid(t *testing.T) {
	src := &fakeChannels{raw: []uint16{0, 0, 4095, 4095, 0, 0, 0}}
	s := NewLineSensor(src, 4)
	require.Equal(t, 4.0, s.CenterIndex())

	c, seen := s.Centroid()
	require.True(t, seen)
	require.InDelta(t, 3.5, c, 1e-9)

	src.raw = []uint16{0, 0, 0, 0, 0, 0, 0}
	_, seen = s.Centroid()
	require.False(t, seen)

	s.Indices = []float64{1, 3, 5, 7, 9, 11, 13}
	require.Equal(t, 7.0, s.CenterIndex())
}

func TestLineSensorReadFailureKeepsValue(t *testing.T) {
	src := &fakeChannels{raw: []uint16{4095, 0}}
	s := NewLineSensor(src, 1)
	require.Equal(t, []float64{1, 0}, s.Read())
	src.err = errors.New("adc busy")
	src.raw = []uint16{0, 0}
	require.Equal(t, []float64{1, 0}, s.Read())
}

func TestLineSensorCalibrate(t *testing.T) {
	src := &fakeChannels{raw: []uint16{300, 310, 290}}
	s := NewLineSensor(src, 8)
	s.CalibrationFile = filepath.Join(t.TempDir(), "IR_cal.txt")

	require.NoError(t, s.Calibrate(White))
	require.True(t, s.Calibrated(White))
	_, err := os.Stat(s.CalibrationFile)
	require.True(t, os.IsNotExist(err))

	src.raw = []uint16{3300, 3310, 3290}
	require.NoError(t, s.Calibrate(Black))
	data, err := os.ReadFile(s.CalibrationFile)
	require.NoError(t, err)
	require.Equal(t, "3300.0,3310.0,3290.0\n300.0,310.0,290.0\n", string(data))

	src.raw = []uint16{1800, 310, 3290}
	require.InDeltaSlice(t, []float64{0.5, 0, 1}, s.Read(), 1e-9)

	other := NewLineSensor(src, 1)
	require.True(t, other.LoadCalibration(s.CalibrationFile))
	require.Equal(t, s.Calibration, other.Calibration)
	require.False(t, other.LoadCalibration(filepath.Join(t.TempDir(), "missing.txt")))

	src.err = errors.New("adc busy")
	require.Error(t, s.Calibrate(White))
	require.Error(t, s.Calibrate(Background('x')))
}
