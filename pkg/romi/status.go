package romi

import (
	"github.com/golang/glog"

	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/link"
	"github.com/robotalks/romi/pkg/link/msgs"
	"github.com/robotalks/romi/pkg/shares"
)

// Publisher sends events to the host.
type Publisher interface {
	Publish(msgs.Message) error
}

// VoltageSource provides the last measured battery voltage.
type VoltageSource interface {
	Voltage() float64
}

// SampleSource drains the samples of the last data collection.
type SampleSource interface {
	Collected() []link.Sample
}

// StatusTask periodically publishes the robot status and, once a data
// collection completes, the collected samples.
type StatusTask struct {
	Publisher Publisher
	Scheduler *fx.Scheduler
	Battery   VoltageSource
	Samples   SampleSource
	Shares    *shares.Set

	published uint64
	dumped    bool
}

// Published returns the number of messages published.
func (t *StatusTask) Published() uint64 {
	return t.published
}

// Step implements fx.StateMachine.
func (t *StatusTask) Step() (fx.State, error) {
	if t.Publisher == nil {
		return fx.StateName("IDLE"), nil
	}
	flags := &t.Shares.Flags
	if flags.CollectDone.Get() {
		if !t.dumped && t.Samples != nil {
			t.dumped = true
			samples := t.Samples.Collected()
			for _, s := range samples {
				t.publish(&msgs.MotorSample{
					Time:     s.Time,
					LeftPos:  s.LeftPos,
					RightPos: s.RightPos,
					LeftVel:  s.LeftVel,
					RightVel: s.RightVel,
				})
			}
			glog.Infof("published %d collected samples", len(samples))
		}
	} else {
		t.dumped = false
	}
	if flags.MotorEnable.Get() {
		t.publish(t.MotorSample())
	}
	t.publish(t.Status())
	return fx.StateName("PUBLISHED"), nil
}

func (t *StatusTask) publish(msg msgs.Message) {
	if err := t.Publisher.Publish(msg); err != nil {
		glog.Warningf("publish: %v", err)
		return
	}
	t.published++
}

// MotorSample captures the motor telemetry.
func (t *StatusTask) MotorSample() *msgs.MotorSample {
	tm := &t.Shares.Telemetry
	return &msgs.MotorSample{
		Time:        tm.Time.Get(),
		LeftPos:     tm.LeftPos.Get(),
		RightPos:    tm.RightPos.Get(),
		LeftVel:     tm.LeftVel.Get(),
		RightVel:    tm.RightVel.Get(),
		LeftEffort:  tm.LeftEffort.Get(),
		RightEffort: tm.RightEffort.Get(),
	}
}

// Status captures the robot status.
func (t *StatusTask) Status() *msgs.Status {
	s := t.Shares
	status := &msgs.Status{
		MotorEnable: s.Flags.MotorEnable.Get(),
		Abort:       s.Flags.Abort.Get(),
		ControlMode: uint32(s.Command.ControlMode.Get()),
		DrivingMode: uint32(s.Command.DrivingMode.Get()),
		Pose: &msgs.PoseSample{
			X:        s.Pose.X.Get(),
			Y:        s.Pose.Y.Get(),
			Theta:    s.Pose.Theta.Get(),
			Distance: s.Pose.Distance.Get(),
			Psi:      s.Heading.Psi.Get(),
			ObsS:     s.Observer.S.Get(),
			ObsYaw:   s.Observer.Yaw.Get(),
		},
	}
	if t.Battery != nil {
		status.Battery = t.Battery.Voltage()
	}
	if t.Scheduler != nil {
		status.Passes = t.Scheduler.Passes()
		for _, task := range t.Scheduler.Tasks() {
			ts := &msgs.TaskState{Name: task.Name, Runs: task.Stats().Runs}
			if st := task.State(); st != nil {
				ts.State = st.String()
			}
			status.Tasks = append(status.Tasks, ts)
		}
	}
	return status
}
