package romi

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/link"
	"github.com/robotalks/romi/pkg/link/msgs"
	"github.com/robotalks/romi/pkg/tasks/motor"
	"github.com/robotalks/romi/pkg/tasks/ui"
)

type testPublisher struct {
	messages []msgs.Message
}

func (p *testPublisher) Publish(msg msgs.Message) error {
	p.messages = append(p.messages, msg)
	return nil
}

func (p *testPublisher) count(match func(msgs.Message) bool) int {
	var n int
	for _, msg := range p.messages {
		if match(msg) {
			n++
		}
	}
	return n
}

type testRobot struct {
	*Robot
	t     *testing.T
	clock *clock.Mock
	host  bytes.Buffer
	see   bytes.Buffer
	pub   testPublisher
}

func newTestRobot(t *testing.T) *testRobot {
	conf := NewConfig()
	conf.IRCalibrationFile, conf.IMUCalibrationFile = "", ""
	tr := &testRobot{t: t, clock: clock.NewMock()}
	port := link.NewPort("test", nil)
	port.Out = &tr.host
	r, err := conf.NewRobot(tr.clock, WithPort(port), WithVisualization(&tr.see))
	require.NoError(t, err)
	r.Status.Publisher = &tr.pub
	tr.Robot = r
	return tr
}

func (r *testRobot) advance(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += time.Millisecond {
		r.clock.Add(time.Millisecond)
		require.NoError(r.t, r.Scheduler.Tick())
	}
}

func (r *testRobot) send(cmd link.Command) {
	data, err := cmd.Encode()
	require.NoError(r.t, err)
	r.Port.Feed(data)
}

func TestRobotTaskOrder(t *testing.T) {
	r := newTestRobot(t)
	var names []string
	for _, task := range r.Scheduler.Tasks() {
		names = append(names, task.Name)
	}
	require.Equal(t, []string{
		TaskSim, TaskMotor,
		TaskHeading, TaskData, TaskSpectator, TaskSteering, TaskObserver,
		TaskPlanning, TaskStream,
		TaskUI, TaskStatus, TaskSee,
	}, names)
}

func TestRobotRun(t *testing.T) {
	r := newTestRobot(t)
	r.advance(200 * time.Millisecond)
	require.Equal(t, ui.WaitForCmd, r.UI.Current())

	r.send(link.Effort(50))
	r.send(link.Simple(link.CmdRun))
	r.advance(300 * time.Millisecond)
	require.Equal(t, ui.MonitorRun, r.UI.Current())
	require.Equal(t, motor.Run, r.Motor.Current())
	require.True(t, strings.HasPrefix(r.host.String(), "q"))

	r.advance(time.Second)
	require.Greater(t, r.Shares.Pose.X.Get(), 100.0)
	require.InDelta(t, 0, r.Shares.Pose.Y.Get(), 1)
	require.Greater(t, r.Shares.Telemetry.LeftPos.Get(), int32(500))
	require.Greater(t, r.Stream.Sent(), uint64(40))
	require.Positive(t, r.pub.count(func(msg msgs.Message) bool {
		status, ok := msg.(*msgs.Status)
		return ok && status.MotorEnable && len(status.Tasks) == len(r.Scheduler.Tasks())
	}))

	r.Port.Feed([]byte{link.CmdKill})
	r.advance(1500 * time.Millisecond)
	require.Equal(t, ui.WaitForCmd, r.UI.Current())
	require.Equal(t, motor.WaitForEnable, r.Motor.Current())
	require.False(t, r.Shares.Flags.MotorEnable.Get())
	require.True(t, r.Shares.Flags.CollectDone.Get())
	require.True(t, r.Hardware.Sim.Plant.Stopped())

	out := r.host.String()
	require.Equal(t, 2, strings.Count(out, "q"))
	require.Equal(t, 1, strings.Count(out, string(link.EndFrame())))

	// the run is collected and published once.
	collected := r.pub.count(func(msg msgs.Message) bool {
		_, ok := msg.(*msgs.MotorSample)
		return ok
	})
	require.Greater(t, collected, 80)
	r.advance(2 * time.Second)
	require.Equal(t, collected, r.pub.count(func(msg msgs.Message) bool {
		_, ok := msg.(*msgs.MotorSample)
		return ok
	}))

	require.NotZero(t, r.see.Len())
}

func TestRobotVoltage(t *testing.T) {
	r := newTestRobot(t)
	r.advance(150 * time.Millisecond)
	r.send(link.Simple(link.CmdVoltage))
	r.advance(100 * time.Millisecond)
	require.Regexp(t, `^8\.[34]\d\n$`, r.host.String())
}

func TestConfigValidate(t *testing.T) {
	conf := NewConfig()
	require.NoError(t, conf.Validate())

	conf.Hardware = "arduino"
	require.Error(t, conf.Validate())
	_, err := conf.NewHardware(clock.NewMock())
	require.Error(t, err)

	conf = NewConfig()
	conf.MaxSamples = 0
	require.Error(t, conf.Validate())

	conf = NewConfig()
	conf.Tasks[TaskMotor] = TaskConfig{Priority: 3}
	require.Error(t, conf.Validate())
	require.Equal(t, 10*time.Millisecond, Default().Task(TaskMotor).Period)

	delete(conf.Tasks, TaskMotor)
	require.Equal(t, 10*time.Millisecond, conf.Task(TaskMotor).Period)
}

func TestRobotLinks(t *testing.T) {
	conf := NewConfig()
	conf.IRCalibrationFile, conf.IMUCalibrationFile = "", ""
	conf.WebsocketAddr = "localhost:0"
	var host bytes.Buffer
	port := link.NewPort("test", nil)
	port.Out = &host
	r, err := conf.NewRobot(clock.NewMock(), WithPort(port))
	require.NoError(t, err)
	require.NotNil(t, r.Hub)
	require.Nil(t, r.Visualizer)

	// frames reach the serial side even without websocket clients.
	r.Port.Write([]byte("<S>#END<E>\n"))
	require.Equal(t, "<S>#END<E>\n", host.String())
}

type closeRecorder struct{ closed int }

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestRobotRunOrFailReleasesHardware(t *testing.T) {
	var failures []interface{}
	saved := fatal
	fatal = func(v ...interface{}) { failures = append(failures, v...) }
	defer func() { fatal = saved }()

	r := newTestRobot(t)
	r.Scheduler.Idle = 0
	errBoom := errors.New("boom")
	r.Scheduler.AddTask(fx.NewTask("fault", 100, 0, fx.StepFunc(func() (fx.State, error) {
		return nil, errBoom
	})))
	closer := &closeRecorder{}
	r.Hardware.Closers = append(r.Hardware.Closers, closer)

	r.RunOrFail(context.Background())
	require.Equal(t, 1, closer.closed)
	require.Len(t, failures, 1)
	require.ErrorIs(t, failures[0].(error), errBoom)
	require.Equal(t, motor.Init, r.Motor.Current())
}

func TestRobotRunOrFailCanceled(t *testing.T) {
	saved := fatal
	fatal = func(v ...interface{}) { t.Fatalf("unexpected failure: %v", v) }
	defer func() { fatal = saved }()

	r := newTestRobot(t)
	closer := &closeRecorder{}
	r.Hardware.Closers = append(r.Hardware.Closers, closer)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.RunOrFail(ctx)
	require.Equal(t, 1, closer.closed)
}
