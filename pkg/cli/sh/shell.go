// Package sh is the interactive host shell talking to a Romi.
package sh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	env "github.com/robotalks/romi/pkg/env/connector"
	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/link"
	"github.com/robotalks/romi/pkg/link/msgs"
	"github.com/robotalks/romi/pkg/link/mqtt"
)

// ReplyTimeout bounds waiting for a reply from the robot.
const ReplyTimeout = time.Second

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell   *ishell.Shell
	Config  *env.Config
	Session *Session
}

// Session is an open connection to a robot.
type Session struct {
	Ctx      context.Context
	Cancel   func()
	Conn     *env.Conn
	Receiver *Receiver

	lock   sync.Mutex
	status *msgs.Status
	sample *msgs.MotorSample
	events io.Closer
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// FormatInfo prints RobotInfo into friendly string for display.
func FormatInfo(info mqtt.RobotInfo) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s", info.Ref.Name())
	if info.Meta.Description != "" {
		fmt.Fprintf(&w, ": %s", info.Meta.Description)
	}
	return w.String()
}

// Send encodes and sends a command.
func Send(c *ishell.Context, cmd link.Command) error {
	s := ShellFrom(c)
	if s.Session == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	data, err := cmd.Encode()
	if err != nil {
		c.Err(err)
		return err
	}
	if _, err := s.Session.Conn.Write(data); err != nil {
		c.Err(err)
		return err
	}
	glog.V(2).Infof("SND %q", data)
	return nil
}

// SendAndWait sends a command and waits for the reply ending with delim.
func SendAndWait(c *ishell.Context, cmd link.Command, delim byte) ([]byte, error) {
	if err := Send(c, cmd); err != nil {
		return nil, err
	}
	reply, ok := ShellFrom(c).Session.Receiver.WaitReply(delim, ReplyTimeout)
	if !ok {
		err := fmt.Errorf("reply timeout")
		c.Err(err)
		return nil, err
	}
	return reply, nil
}

// Print prints a message as JSON or text.
func (s *Shell) Print(c *ishell.Context, v interface{}) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	if str, ok := v.(fmt.Stringer); ok {
		c.Println(str.String())
		return
	}
	c.Printf("%+v\n", v)
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// DiscoverRobots discovers robots.
func (s *Shell) DiscoverRobots(filter func(mqtt.RobotInfo) bool) ([]mqtt.RobotInfo, error) {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return nil, err
	}
	infoList, err := connector.Discover(context.TODO())
	if err != nil {
		return nil, err
	}
	if filter != nil {
		items := make([]mqtt.RobotInfo, 0, len(infoList))
		for _, info := range infoList {
			if filter(info) {
				items = append(items, info)
			}
		}
		infoList = items
	}
	return infoList, nil
}

// SelectRobot discovers robots and asks for a choice.
func (s *Shell) SelectRobot(filter func(mqtt.RobotInfo) bool) (*mqtt.RobotInfo, error) {
	infoList, err := s.DiscoverRobots(filter)
	if err != nil {
		return nil, err
	}
	if len(infoList) == 0 {
		return nil, nil
	}
	var index int
	if len(infoList) > 1 {
		if !s.Interactive {
			return nil, fmt.Errorf("more than 1 robots discovered in non-interactive mode")
		}
		items := make([]string, len(infoList))
		for n, info := range infoList {
			items[n] = FormatInfo(info)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
	}
	return &infoList[index], nil
}

// Connect connects robot with ref, ref is ignored on a serial port.
func (s *Shell) Connect(ref mqtt.Ref) error {
	conn, err := s.Config.Connect(ref)
	if err != nil {
		return err
	}
	session := &Session{Conn: conn, Receiver: NewReceiver()}
	session.Ctx, session.Cancel = context.WithCancel(context.Background())
	if session.events, err = conn.Events(session.received); err != nil && !errors.Is(err, env.ErrNoEvents) {
		conn.Close()
		return err
	}
	s.Disconnect()
	s.Session = session
	go session.run()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", conn.Name))
	return nil
}

// Disconnect disconnects current robot.
func (s *Shell) Disconnect() {
	if s.Session != nil {
		s.Session.Close()
		s.Session = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

func (s *Session) run() {
	runner := fx.NewRunnerWith(s.Ctx)
	runner.Go(s.Conn, fx.RunFunc(func(ctx context.Context) error {
		return fx.RunWithContextCloser(ctx, s.Conn, func() error {
			_, err := io.Copy(s.Receiver, s.Conn)
			return err
		})
	}))
	if err := runner.Wait(); err != nil {
		glog.Warningf("connection %s: %v", s.Conn.Name, err)
	}
}

func (s *Session) received(msg msgs.Message) {
	s.lock.Lock()
	defer s.lock.Unlock()
	switch m := msg.(type) {
	case *msgs.Status:
		s.status = m
	case *msgs.MotorSample:
		s.sample = m
	}
}

// Status returns the latest status event.
func (s *Session) Status() (*msgs.Status, *msgs.MotorSample) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.status, s.sample
}

// Close closes the connection.
func (s *Session) Close() {
	if s.events != nil {
		s.events.Close()
	}
	s.Cancel()
	s.Conn.Close()
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && (s.Config.Direct() || s.Config.Ref.IsValid()) {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.target())
		}
		if err := s.Connect(s.Config.Ref); err != nil {
			log.Fatalf("connect %q failed: %v", s.target(), err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func (s *Shell) target() string {
	if s.Config.Direct() {
		return s.Config.Serial
	}
	return s.Config.Ref.Name()
}

var (
	// DiscoverCmd discovers robots.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			infoList, err := s.DiscoverRobots(nil)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(infoList) == 0 {
					// in case infoList is nil, make it empty slice.
					infoList = []mqtt.RobotInfo{}
				}
				s.Print(c, infoList)
				return
			}
			if len(infoList) == 0 {
				c.Println("No robots found")
				return
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a robot.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[TYPE] ID",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ref := mqtt.Ref{Type: s.Config.Ref.Type}
			switch {
			case s.Config.Direct():
			case len(c.Args) >= 2:
				ref.Type, ref.ID = c.Args[0], c.Args[1]
			case len(c.Args) == 1:
				ref.ID = c.Args[0]
			default:
				info, err := s.SelectRobot(func(info mqtt.RobotInfo) bool {
					return info.Ref.Type == ref.Type
				})
				if err != nil {
					c.Err(err)
					return
				}
				if info == nil {
					c.Err(fmt.Errorf("no robot discovered"))
					return
				}
				ref = info.Ref
			}
			if err := s.Connect(ref); err != nil {
				c.Err(err)
				return
			}
		},
	}

	// DisconnectCmd disconnects current robot.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
