package hw

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrCalibrationFormat indicates a malformed calibration record.
	ErrCalibrationFormat = errors.New("invalid calibration format")
	// ErrInvalidMode indicates an unknown IMU operation mode.
	ErrInvalidMode = errors.New("invalid operation mode")
)

// CalibrationProfileSize is the size of the encoded CalibrationProfile.
const CalibrationProfileSize = 22

// CalibrationProfile is the IMU calibration record: offsets and radii
// as 11 little-endian int16 in this field order.
type CalibrationProfile struct {
	AccelOffset [3]int16
	MagOffset   [3]int16
	GyroOffset  [3]int16
	AccelRadius int16
	MagRadius   int16
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p CalibrationProfile) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *CalibrationProfile) UnmarshalBinary(data []byte) error {
	if len(data) != CalibrationProfileSize {
		return fmt.Errorf("%w: profile is %d bytes, expect %d", ErrCalibrationFormat, len(data), CalibrationProfileSize)
	}
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, p)
}

// LoadCalibrationProfile reads a profile file.
func LoadCalibrationProfile(path string) (p CalibrationProfile, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	err = p.UnmarshalBinary(data)
	return
}

// SaveCalibrationProfile writes a profile file.
func SaveCalibrationProfile(path string, p CalibrationProfile) error {
	data, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CalibrationStatus is the per subsystem calibration level, 0 to 3.
type CalibrationStatus struct {
	Sys   uint8
	Gyro  uint8
	Accel uint8
	Mag   uint8
}

// ParseCalibrationStatus decodes the packed status register.
func ParseCalibrationStatus(b byte) CalibrationStatus {
	return CalibrationStatus{
		Sys:   (b >> 6) & 3,
		Gyro:  (b >> 4) & 3,
		Accel: (b >> 2) & 3,
		Mag:   b & 3,
	}
}

// Byte encodes the status as the packed register.
func (s CalibrationStatus) Byte() byte {
	return (s.Sys&3)<<6 | (s.Gyro&3)<<4 | (s.Accel&3)<<2 | s.Mag&3
}

// Complete indicates every subsystem is fully calibrated.
func (s CalibrationStatus) Complete() bool {
	return s.Byte() == 0xff
}

// String implements fmt.Stringer.
func (s CalibrationStatus) String() string {
	return fmt.Sprintf("sys=%d gyr=%d acc=%d mag=%d", s.Sys, s.Gyro, s.Accel, s.Mag)
}

// OperationMode is the IMU fusion mode.
type OperationMode uint8

// Operation modes.
const (
	ModeConfig OperationMode = iota
	ModeAccOnly
	ModeMagOnly
	ModeGyroOnly
	ModeAccMag
	ModeAccGyro
	ModeMagGyro
	ModeAMG
	ModeIMU
	ModeCompass
	ModeM4G
	ModeNDOFFMCOff
	ModeNDOF
)

var modeNames = []string{
	"config",
	"acconly",
	"magonly",
	"gyronly",
	"accmag",
	"accgyro",
	"maggyro",
	"amg",
	"imu",
	"compass",
	"m4g",
	"ndof_fmc_off",
	"ndof",
}

// ParseOperationMode parses a mode name.
func ParseOperationMode(name string) (OperationMode, error) {
	name = strings.ToLower(name)
	for n, s := range modeNames {
		if s == name {
			return OperationMode(n), nil
		}
	}
	return ModeConfig, fmt.Errorf("%w: %q", ErrInvalidMode, name)
}

// Valid indicates the mode is known.
func (m OperationMode) Valid() bool {
	return int(m) < len(modeNames)
}

// String implements fmt.Stringer.
func (m OperationMode) String() string {
	if m.Valid() {
		return modeNames[m]
	}
	return "mode(" + strconv.Itoa(int(m)) + ")"
}

// IRCalibration is the per channel raw average over black and white.
type IRCalibration struct {
	Black []float64
	White []float64
}

// DefaultIRCalibration maps the full ADC range, white at 0.
func DefaultIRCalibration(channels int, fullScale float64) IRCalibration {
	c := IRCalibration{
		Black: make([]float64, channels),
		White: make([]float64, channels),
	}
	for n := range c.Black {
		c.Black[n] = fullScale
	}
	return c
}

// ParseIRCalibration reads the two line CSV record, black first.
func ParseIRCalibration(r io.Reader, channels int) (c IRCalibration, err error) {
	scanner := bufio.NewScanner(r)
	var lines [][]float64
	for len(lines) < 2 && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		vals, err := parseCSVLine(line)
		if err != nil {
			return c, err
		}
		if len(vals) != channels {
			return c, fmt.Errorf("%w: %d values, expect %d channels", ErrCalibrationFormat, len(vals), channels)
		}
		lines = append(lines, vals)
	}
	if err = scanner.Err(); err != nil {
		return
	}
	if len(lines) < 2 {
		return c, fmt.Errorf("%w: expect black and white lines", ErrCalibrationFormat)
	}
	c.Black, c.White = lines[0], lines[1]
	return
}

func parseCSVLine(line string) ([]float64, error) {
	fields := strings.Split(line, ",")
	vals := make([]float64, len(fields))
	for n, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCalibrationFormat, err)
		}
		vals[n] = v
	}
	return vals, nil
}

// WriteTo implements io.WriterTo.
func (c IRCalibration) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	for _, vals := range [][]float64{c.Black, c.White} {
		for n, v := range vals {
			if n > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatFloat(v, 'f', 1, 64))
		}
		sb.WriteByte('\n')
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// LoadIRCalibration reads an IR calibration file.
func LoadIRCalibration(path string, channels int) (IRCalibration, error) {
	f, err := os.Open(path)
	if err != nil {
		return IRCalibration{}, err
	}
	defer f.Close()
	return ParseIRCalibration(f, channels)
}

// SaveIRCalibration writes an IR calibration file.
func SaveIRCalibration(path string, c IRCalibration) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err = c.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
