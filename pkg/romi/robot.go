package romi

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	env "github.com/robotalks/romi/pkg/env/controller"
	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/link"
	"github.com/robotalks/romi/pkg/link/serial"
	"github.com/robotalks/romi/pkg/link/websocket"
	"github.com/robotalks/romi/pkg/shares"
	"github.com/robotalks/romi/pkg/sim/visualization/see"
	"github.com/robotalks/romi/pkg/tasks/datalog"
	"github.com/robotalks/romi/pkg/tasks/motor"
	"github.com/robotalks/romi/pkg/tasks/observer"
	"github.com/robotalks/romi/pkg/tasks/odometry"
	"github.com/robotalks/romi/pkg/tasks/planning"
	"github.com/robotalks/romi/pkg/tasks/steering"
	"github.com/robotalks/romi/pkg/tasks/stream"
	"github.com/robotalks/romi/pkg/tasks/ui"
)

// Robot is the assembled firmware.
type Robot struct {
	Config    *Config
	Hardware  *Hardware
	Shares    *shares.Set
	Port      *link.Port
	Hub       *websocket.Hub
	Env       *env.Env
	Scheduler *fx.Scheduler

	Motor      *motor.Task
	Heading    *odometry.HeadingTask
	Data       *datalog.Task
	Spectator  *odometry.SpectatorTask
	Steering   *steering.Task
	Observer   *observer.Task
	Planning   *planning.Task
	Stream     *stream.Task
	UI         *ui.Task
	Status     *StatusTask
	Visualizer *see.Adapter
}

// Option customizes NewRobot.
type Option func(*options)

type options struct {
	hardware *Hardware
	env      *env.Env
	port     *link.Port
	seeOut   io.Writer
}

// WithHardware uses the given hardware instead of the configured one.
func WithHardware(h *Hardware) Option {
	return func(o *options) { o.hardware = h }
}

// WithEnv connects the robot to the MQTT broker.
func WithEnv(e *env.Env) Option {
	return func(o *options) { o.env = e }
}

// WithPort uses the given host link instead of the serial port.
func WithPort(p *link.Port) Option {
	return func(o *options) { o.port = p }
}

// WithVisualization writes see messages to out.
func WithVisualization(out io.Writer) Option {
	return func(o *options) { o.seeOut = out }
}

// NewRobot builds hardware, Shares, links and tasks.
func (c *Config) NewRobot(clk clock.Clock, opts ...Option) (*Robot, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	r := &Robot{
		Config:    c,
		Hardware:  o.hardware,
		Env:       o.env,
		Port:      o.port,
		Shares:    shares.NewSet(c.MaxSamples),
		Scheduler: fx.NewScheduler().WithClock(clk),
	}
	if r.Hardware == nil {
		h, err := c.NewHardware(clk)
		if err != nil {
			return nil, err
		}
		r.Hardware = h
	}
	if err := r.setupLinks(); err != nil {
		r.Hardware.Close()
		return nil, err
	}
	if o.seeOut == nil && c.Visualize {
		o.seeOut = os.Stdout
	}
	r.setupTasks(clk, o.seeOut)
	return r, nil
}

// setupLinks gathers the host transports into a single Port: commands
// from any of them reach the UI task and frames go to all of them.
func (r *Robot) setupLinks() error {
	var (
		inputs  []io.Reader
		outputs []io.Writer
	)
	if r.Port == nil && r.Config.Serial != "" {
		port, err := serial.Open(r.Config.Serial)
		if err != nil {
			return err
		}
		r.Port = port
	}
	if r.Port == nil {
		r.Port = link.NewPort("romi", nil)
	}
	if r.Port.Out != nil {
		outputs = append(outputs, r.Port.Out)
	}
	if r.Env != nil && r.Env.Enabled() {
		inputs = append(inputs, r.Env.Link)
		// the broker never blocks, keep it ahead of a failing serial port.
		outputs = append([]io.Writer{r.Env.Link}, outputs...)
		r.Env.AddToScheduler(r.Scheduler)
	}
	if r.Config.WebsocketAddr != "" {
		r.Hub = websocket.NewHub(r.Config.WebsocketAddr, r.Port)
		outputs = append([]io.Writer{r.Hub}, outputs...)
		r.Scheduler.AddRunnable(r.Hub)
	}
	switch len(outputs) {
	case 0:
		r.Port.Out = nil
	case 1:
		r.Port.Out = outputs[0]
	default:
		r.Port.Out = io.MultiWriter(outputs...)
	}
	r.Scheduler.AddRunnable(r.Port)
	for _, in := range inputs {
		r.Scheduler.AddRunnable(r.Port.FeedFrom(in))
	}
	return nil
}

func (r *Robot) setupTasks(clk clock.Clock, seeOut io.Writer) {
	c, h, s := r.Config, r.Hardware, r.Shares

	r.Motor = motor.New(h.Left, h.Right, h.Battery, s, clk)
	r.Heading = odometry.NewHeadingTask(h.IMU, s)
	r.Data = datalog.New(s)
	r.Spectator = odometry.NewSpectatorTask(odometry.RomiGeometry, s)
	r.Steering = steering.New(steering.DefaultConfig(h.IR.Source.NumChannels()), h.IR, s)
	r.Observer = observer.New(observer.DefaultModel(odometry.WheelRadiusMM/1000, odometry.WheelBaseMM/1000), h.Battery, s)
	r.Planning = planning.New(planning.DefaultPlan(), s)
	r.Stream = stream.New(r.Port, s)
	r.UI = ui.New(r.Port, h.Battery, h.IMU, h.IR, s, clk)
	r.UI.IMUCalibrationFile = c.IMUCalibrationFile
	r.Status = &StatusTask{
		Scheduler: r.Scheduler,
		Battery:   h.Battery,
		Samples:   r.Data,
		Shares:    s,
	}
	if r.Env != nil && r.Env.Enabled() {
		r.Status.Publisher = r.Env.Registrar
	}

	if h.Sim != nil {
		r.Spectator.Initial = h.Sim.Start
		r.add(TaskSim, h.Sim)
	}
	r.add(TaskMotor, r.Motor)
	r.add(TaskHeading, r.Heading)
	r.add(TaskData, fx.StepFunc(r.collect))
	r.add(TaskSpectator, r.Spectator)
	r.add(TaskSteering, r.Steering)
	r.add(TaskObserver, r.Observer)
	r.add(TaskPlanning, r.Planning)
	r.add(TaskStream, r.Stream)
	r.add(TaskUI, r.UI)
	r.add(TaskStatus, r.Status)
	if h.Sim != nil && seeOut != nil {
		r.Visualizer = see.NewConfig().NewAdapterTo(seeOut).Subscribe(h.Sim)
		r.add(TaskSee, r.Visualizer)
	}

	r.Scheduler.AddSafeStop(r.Motor)
	r.Scheduler.AddRunnable(h.Runnables...)
}

func (r *Robot) add(name string, machine fx.StateMachine) *fx.Task {
	tc := r.Config.Task(name)
	task := fx.NewTask(name, tc.Priority, tc.Period, machine)
	if r.Config.Profile {
		task.WithProfile()
	}
	r.Scheduler.AddTask(task)
	return task
}

// collect samples while a run is active.
func (r *Robot) collect() (fx.State, error) {
	flags := &r.Shares.Flags
	flags.CollectStart.Put(flags.RunObserver.Get())
	return r.Data.Step()
}

// Run implements fx.Runnable.
func (r *Robot) Run(ctx context.Context) error {
	defer r.Hardware.Close()
	glog.Infof("romi running on %s hardware", r.Config.Hardware)
	err := r.Scheduler.Run(ctx)
	if r.Config.Profile {
		glog.Infof("task profile:\n%s", r.Scheduler)
	}
	return err
}

// fatal terminates the process after Run has released the hardware.
var fatal = log.Fatalln

// RunOrFail runs the robot and fails on error.
func (r *Robot) RunOrFail(ctx context.Context) {
	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fatal(err)
	}
}
