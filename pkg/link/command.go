package link

import (
	"fmt"
	"math"
)

// Command codes.
const (
	CmdEffort   byte = 'e'
	CmdVelocity byte = 'v'
	CmdLine     byte = 'l'
	CmdRun      byte = 'r'
	CmdKill     byte = 'k'
	CmdStream   byte = 's'
	CmdMode     byte = 'n'
	CmdPlan     byte = 'z'
	CmdVoltage  byte = 'V'
	CmdIMUCal   byte = 'i'
	CmdCommit   byte = 'j'
	CmdIRCal    byte = 'f'
	CmdWhite    byte = 'w'
	CmdBlack    byte = 'b'
)

// ReplyRun is written back when a run starts or is killed.
const ReplyRun byte = 'q'

// FieldWidth is the number of digits of a parameter field.
const FieldWidth = 4

// MaxFieldValue is the largest value a parameter field carries.
const MaxFieldValue = 99.99

// effortFull is the effort digit meaning 100%.
const effortFull = 'a'

// numFields is the number of parameter fields following each code.
var numFields = map[byte]int{
	CmdEffort:   1,
	CmdVelocity: 3,
	CmdLine:     4,
	CmdRun:      0,
	CmdKill:     0,
	CmdStream:   0,
	CmdMode:     0,
	CmdPlan:     0,
	CmdVoltage:  0,
	CmdIMUCal:   0,
	CmdCommit:   0,
	CmdIRCal:    0,
	CmdWhite:    0,
	CmdBlack:    0,
}

// Command is a decoded host command. Args are already scaled: effort
// in percent, other fields divided by 100.
type Command struct {
	Code byte
	Args []float64
}

// IsKnownCode tells if the code is a command.
func IsKnownCode(code byte) bool {
	_, ok := numFields[code]
	return ok
}

// Simple creates a command without parameters.
func Simple(code byte) Command {
	return Command{Code: code}
}

// Effort creates an 'e' command, percent must be a multiple of 10 within 0..100.
func Effort(percent float64) Command {
	return Command{Code: CmdEffort, Args: []float64{percent}}
}

// Velocity creates a 'v' command.
func Velocity(setpoint, kp, ki float64) Command {
	return Command{Code: CmdVelocity, Args: []float64{setpoint, kp, ki}}
}

// LineFollow creates an 'l' command.
func LineFollow(kp, ki, kLine, target float64) Command {
	return Command{Code: CmdLine, Args: []float64{kp, ki, kLine, target}}
}

// Arg returns the n-th argument or 0.
func (c Command) Arg(n int) float64 {
	if n < len(c.Args) {
		return c.Args[n]
	}
	return 0
}

// String implements fmt.Stringer.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return string(c.Code)
	}
	return fmt.Sprintf("%c%v", c.Code, c.Args)
}

// Encode encodes the command in wire format.
func (c Command) Encode() ([]byte, error) {
	n, ok := numFields[c.Code]
	if !ok {
		return nil, &CommandError{Code: c.Code, Reason: "unknown command"}
	}
	if len(c.Args) != n {
		return nil, &CommandError{Code: c.Code, Reason: fmt.Sprintf("expect %d arguments, got %d", n, len(c.Args))}
	}
	out := []byte{c.Code}
	if c.Code == CmdEffort {
		digit, err := effortDigit(c.Args[0])
		if err != nil {
			return nil, &CommandError{Code: c.Code, Reason: err.Error()}
		}
		return append(out, digit), nil
	}
	for _, v := range c.Args {
		if math.IsNaN(v) || v < 0 || v > MaxFieldValue {
			return nil, &CommandError{Code: c.Code, Reason: fmt.Sprintf("value %v out of range [0, %v]", v, MaxFieldValue)}
		}
		out = fmt.Appendf(out, "%0*d", FieldWidth, int(math.Round(v*100)))
	}
	return out, nil
}

func effortDigit(percent float64) (byte, error) {
	if percent < 0 || percent > 100 || math.Mod(percent, 10) != 0 {
		return 0, fmt.Errorf("effort %v must be a multiple of 10 within [0, 100]", percent)
	}
	if percent == 100 {
		return effortFull, nil
	}
	return '0' + byte(percent/10), nil
}
