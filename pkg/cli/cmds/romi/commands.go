// Package romi adds the Romi host commands to the shell.
package romi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/romi/pkg/cli/sh"
	"github.com/robotalks/romi/pkg/link"
)

// ParseArgs parses n float arguments named by names.
func ParseArgs(args []string, names ...string) ([]float64, error) {
	if len(args) < len(names) {
		return nil, fmt.Errorf("%s required", strings.Join(names[len(args):], " "))
	}
	vals := make([]float64, len(names))
	for n, name := range names {
		val, err := strconv.ParseFloat(args[n], 64)
		if err != nil {
			return nil, fmt.Errorf("Invalid %s: %v", name, err)
		}
		vals[n] = val
	}
	return vals, nil
}

// simpleCmd sends a command without parameters.
func simpleCmd(name string, aliases []string, code byte, help string) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: aliases,
		Help:    help,
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if sh.Send(c, link.Simple(code)) == nil {
				c.Println("OK")
			}
		}),
	}
}

var (
	// EffortCmd sets the open loop effort.
	EffortCmd = ishell.Cmd{
		Name:    "effort",
		Aliases: []string{"e"},
		Help:    "PERCENT(0, 10, ... 100)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			vals, err := ParseArgs(c.Args, "PERCENT")
			if err != nil {
				c.Err(err)
				return
			}
			if sh.Send(c, link.Effort(vals[0])) == nil {
				c.Println("OK")
			}
		}),
	}

	// VelocityCmd selects closed loop velocity control.
	VelocityCmd = ishell.Cmd{
		Name:    "velocity",
		Aliases: []string{"v"},
		Help:    "SETPOINT(rad/s) KP KI",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			vals, err := ParseArgs(c.Args, "SETPOINT", "KP", "KI")
			if err != nil {
				c.Err(err)
				return
			}
			if sh.Send(c, link.Velocity(vals[0], vals[1], vals[2])) == nil {
				c.Println("OK")
			}
		}),
	}

	// LineCmd selects line following.
	LineCmd = ishell.Cmd{
		Name:    "line",
		Aliases: []string{"lf"},
		Help:    "KP KI KLINE TARGET(rad/s)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			vals, err := ParseArgs(c.Args, "KP", "KI", "KLINE", "TARGET")
			if err != nil {
				c.Err(err)
				return
			}
			if sh.Send(c, link.LineFollow(vals[0], vals[1], vals[2], vals[3])) == nil {
				c.Println("OK")
			}
		}),
	}

	// RunCmd starts a run.
	RunCmd = ishell.Cmd{
		Name:    "run",
		Aliases: []string{"r"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.ShellFrom(c).Session.Receiver.Reset()
			if _, err := sh.SendAndWait(c, link.Simple(link.CmdRun), link.ReplyRun); err == nil {
				c.Println("RUNNING")
			}
		}),
	}

	// KillCmd stops the run.
	KillCmd = ishell.Cmd{
		Name:    "kill",
		Aliases: []string{"k"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if sh.Send(c, link.Simple(link.CmdKill)) == nil {
				c.Println("OK")
			}
		}),
	}

	// StreamCmd toggles streaming.
	StreamCmd = simpleCmd("stream", []string{"s"}, link.CmdStream, "toggle telemetry streaming")
	// ModeCmd cycles the driving mode.
	ModeCmd = simpleCmd("mode", []string{"n"}, link.CmdMode, "cycle straight, pivot, arc")
	// PlanCmd toggles path planning.
	PlanCmd = simpleCmd("plan", []string{"z"}, link.CmdPlan, "toggle path planning")
	// IRCalCmd enters IR calibration.
	IRCalCmd = simpleCmd("ircal", []string{"f"}, link.CmdIRCal, "enter IR calibration")
	// WhiteCmd calibrates the white background.
	WhiteCmd = simpleCmd("white", []string{"w"}, link.CmdWhite, "calibrate white background")
	// BlackCmd calibrates the black line.
	BlackCmd = simpleCmd("black", []string{"b"}, link.CmdBlack, "calibrate black line")
	// IMUCalCmd enters IMU calibration.
	IMUCalCmd = simpleCmd("imucal", []string{"i"}, link.CmdIMUCal, "enter IMU calibration")
	// CommitCmd saves the IMU calibration.
	CommitCmd = simpleCmd("commit", []string{"j"}, link.CmdCommit, "save IMU calibration")

	// VoltageCmd reads the battery voltage.
	VoltageCmd = ishell.Cmd{
		Name:    "voltage",
		Aliases: []string{"V"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			reply, err := sh.SendAndWait(c, link.Simple(link.CmdVoltage), '\n')
			if err != nil {
				return
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(string(reply)), 64)
			if err != nil {
				c.Err(fmt.Errorf("bad reply %q", reply))
				return
			}
			c.Printf("%.2fV\n", v)
		}),
	}

	// FramesCmd prints received frames.
	FramesCmd = ishell.Cmd{
		Name:    "frames",
		Aliases: []string{"fr"},
		Help:    "[on|off|clear|N]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			recv := s.Session.Receiver
			arg := ""
			if len(c.Args) > 0 {
				arg = c.Args[0]
			}
			switch arg {
			case "on":
				recv.Watch(func(sample link.Sample) {
					c.Print(string(sample.Frame()))
				}, func() {
					c.Println(link.EndOfStream)
				})
				return
			case "off":
				recv.Watch(nil, nil)
				return
			case "clear":
				recv.Reset()
				return
			}
			samples := recv.Samples()
			if arg != "" {
				n, err := strconv.Atoi(arg)
				if err != nil || n < 0 {
					c.Err(fmt.Errorf("Invalid N: %q", arg))
					return
				}
				if n < len(samples) {
					samples = samples[len(samples)-n:]
				}
			}
			if s.OutputJSON {
				s.Print(c, samples)
				return
			}
			for _, sample := range samples {
				c.Print(string(sample.Frame()))
			}
			c.Printf("%d samples, %d streams ended\n", len(samples), recv.Ends())
		}),
	}

	// StatusCmd prints the latest status event.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			status, sample := s.Session.Status()
			if status == nil {
				c.Err(fmt.Errorf("no status received"))
				return
			}
			s.Print(c, status)
			if sample != nil {
				s.Print(c, sample)
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&EffortCmd,
		&VelocityCmd,
		&LineCmd,
		&RunCmd,
		&KillCmd,
		&StreamCmd,
		&ModeCmd,
		&PlanCmd,
		&VoltageCmd,
		&IRCalCmd,
		&WhiteCmd,
		&BlackCmd,
		&IMUCalCmd,
		&CommitCmd,
		&FramesCmd,
		&StatusCmd,
	)
}
