package link

import (
	"bytes"
	"fmt"
	"strconv"
)

// Frame delimiters.
const (
	FrameStart  = "<S>"
	FrameEnd    = "<E>"
	EndOfStream = "#END"
)

var (
	frameStart = []byte(FrameStart)
	frameEnd   = []byte(FrameEnd)
)

// Sample is one telemetry record.
type Sample struct {
	Index    uint32
	Time     uint32
	LeftPos  int32
	RightPos int32
	LeftVel  int32
	RightVel int32
}

// AppendFrame appends the framed sample to buf.
func (s Sample) AppendFrame(buf []byte) []byte {
	return fmt.Appendf(buf, "%s%d,%d,%d,%d,%d,%d%s\n", FrameStart,
		s.Index, s.Time, s.LeftPos, s.RightPos, s.LeftVel, s.RightVel, FrameEnd)
}

// Frame returns the framed sample.
func (s Sample) Frame() []byte {
	return s.AppendFrame(nil)
}

// EndFrame returns the end of stream frame.
func EndFrame() []byte {
	return []byte(FrameStart + EndOfStream + FrameEnd + "\n")
}

// IsEnd tells if a frame payload is the end of stream sentinel.
func IsEnd(payload []byte) bool {
	return string(payload) == EndOfStream
}

// ParseSample decodes a frame payload without delimiters.
func ParseSample(payload []byte) (s Sample, err error) {
	fields := bytes.Split(payload, []byte(","))
	if len(fields) != 6 {
		return s, fmt.Errorf("frame %q: %d fields: %w", payload, len(fields), ErrMalformed)
	}
	var vals [6]int64
	for n, f := range fields {
		bits := 32
		if n < 2 {
			// index and time are unsigned.
			bits = 33
		}
		if vals[n], err = strconv.ParseInt(string(bytes.TrimSpace(f)), 10, bits); err != nil {
			return s, fmt.Errorf("frame %q field %d: %w", payload, n, ErrMalformed)
		}
		if n < 2 && vals[n] < 0 {
			return s, fmt.Errorf("frame %q field %d negative: %w", payload, n, ErrMalformed)
		}
	}
	return Sample{
		Index:    uint32(vals[0]),
		Time:     uint32(vals[1]),
		LeftPos:  int32(vals[2]),
		RightPos: int32(vals[3]),
		LeftVel:  int32(vals[4]),
		RightVel: int32(vals[5]),
	}, nil
}

// ScanFrames is a bufio.SplitFunc returning frame payloads. Bytes outside
// the delimiters are dropped and a start without an end before the next
// start is discarded as a partial frame.
func ScanFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := bytes.Index(data, frameStart)
	if start < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// keep a possible partial delimiter.
		if keep := len(frameStart) - 1; len(data) > keep {
			return len(data) - keep, nil, nil
		}
		return 0, nil, nil
	}
	body := data[start+len(frameStart):]
	end := bytes.Index(body, frameEnd)
	if end < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		return start, nil, nil
	}
	payload := body[:end]
	if restart := bytes.LastIndex(payload, frameStart); restart >= 0 {
		payload = payload[restart+len(frameStart):]
	}
	return start + len(frameStart) + end + len(frameEnd), payload, nil
}

// FrameScanner extracts frame payloads from chunks written to it.
type FrameScanner struct {
	buf []byte
}

// Write implements io.Writer.
func (s *FrameScanner) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// Next returns the next complete frame payload.
func (s *FrameScanner) Next() ([]byte, bool) {
	for len(s.buf) > 0 {
		advance, token, _ := ScanFrames(s.buf, false)
		if advance == 0 {
			return nil, false
		}
		s.buf = s.buf[advance:]
		if token != nil {
			return append([]byte(nil), token...), true
		}
	}
	return nil, false
}

// Buffered returns the number of bytes waiting for a complete frame.
func (s *FrameScanner) Buffered() int {
	return len(s.buf)
}
