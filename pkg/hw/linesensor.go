package hw

import (
	"fmt"

	"github.com/golang/glog"
)

// ChannelReader samples a bank of ADC channels.
type ChannelReader interface {
	NumChannels() int
	ReadChannel(ch int) (uint16, error)
}

// LineSensor implements IRArray over raw ADC channels.
type LineSensor struct {
	Source ChannelReader
	// Indices are the board positions of the channels, left to right.
	Indices []float64
	// Samples is the number of samples averaged when calibrating.
	Samples int
	// CalibrationFile is saved once both surfaces are calibrated.
	CalibrationFile string
	Calibration     IRCalibration

	calibrated map[Background]bool
	norm       []float64
}

// NewLineSensor creates a LineSensor with indices 1..N and full range
// calibration.
func NewLineSensor(src ChannelReader, samples int) *LineSensor {
	n := src.NumChannels()
	s := &LineSensor{
		Source:      src,
		Indices:     make([]float64, n),
		Samples:     samples,
		Calibration: DefaultIRCalibration(n, 4095),
		calibrated:  make(map[Background]bool),
		norm:        make([]float64, n),
	}
	for i := range s.Indices {
		s.Indices[i] = float64(i + 1)
	}
	return s
}

// LoadCalibration loads the calibration file. A missing or malformed
// file keeps the current calibration and logs a warning.
func (s *LineSensor) LoadCalibration(path string) bool {
	c, err := LoadIRCalibration(path, len(s.norm))
	if err != nil {
		glog.Warningf("IR calibration %s: %v, using defaults", path, err)
		return false
	}
	s.Calibration = c
	glog.Infof("IR calibration loaded from %s", path)
	return true
}

// Read implements IRArray. A channel failing to read keeps its previous
// value.
func (s *LineSensor) Read() []float64 {
	for i := range s.norm {
		raw, err := s.Source.ReadChannel(i)
		if err != nil {
			glog.Warningf("IR channel %d: %v", i, err)
			continue
		}
		s.norm[i] = Normalize(float64(raw), s.Calibration.Black[i], s.Calibration.White[i])
	}
	return append([]float64(nil), s.norm...)
}

// Normalize maps a raw reading to [0, 1] between white and black.
func Normalize(raw, black, white float64) float64 {
	denom := black - white
	if denom == 0 {
		return 0
	}
	n := (raw - white) / denom
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// Centroid implements IRArray.
func (s *LineSensor) Centroid() (float64, bool) {
	return Centroid(s.Indices, s.Read())
}

// Centroid computes the weighted index of normalized readings.
func Centroid(indices, norm []float64) (float64, bool) {
	var total, weighted float64
	for i, v := range norm {
		total += v
		weighted += indices[i] * v
	}
	if total <= 1e-6 {
		return 0, false
	}
	return weighted / total, true
}

// CenterIndex implements IRArray.
func (s *LineSensor) CenterIndex() float64 {
	if len(s.Indices) == 0 {
		return 0
	}
	lo, hi := s.Indices[0], s.Indices[0]
	for _, idx := range s.Indices[1:] {
		if idx < lo {
			lo = idx
		}
		if idx > hi {
			hi = idx
		}
	}
	return (lo + hi) / 2
}

// Calibrate implements IRArray.
func (s *LineSensor) Calibrate(bg Background) error {
	if bg != White && bg != Black {
		return fmt.Errorf("%w: background %q", ErrCalibrationFormat, byte(bg))
	}
	samples := s.Samples
	if samples <= 0 {
		samples = 1
	}
	avgs := make([]float64, len(s.norm))
	for n := 0; n < samples; n++ {
		for i := range avgs {
			raw, err := s.Source.ReadChannel(i)
			if err != nil {
				return fmt.Errorf("calibrate IR channel %d: %w", i, err)
			}
			avgs[i] += float64(raw)
		}
	}
	for i := range avgs {
		avgs[i] /= float64(samples)
	}
	if bg == Black {
		s.Calibration.Black = avgs
	} else {
		s.Calibration.White = avgs
	}
	s.calibrated[bg] = true
	glog.Infof("IR calibration %s: %.1f", bg, avgs)

	if s.calibrated[Black] && s.calibrated[White] && s.CalibrationFile != "" {
		if err := SaveIRCalibration(s.CalibrationFile, s.Calibration); err != nil {
			return err
		}
		glog.Infof("IR calibration saved to %s", s.CalibrationFile)
	}
	return nil
}

// Calibrated indicates the surface has been calibrated since start.
func (s *LineSensor) Calibrated(bg Background) bool {
	return s.calibrated[bg]
}
