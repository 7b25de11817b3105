// Package observer runs a discrete linear state observer over wheel
// travel, motor voltages and the IMU heading.
package observer

import (
	"fmt"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/mat"

	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/hw"
	"github.com/robotalks/romi/pkg/shares"
	"github.com/robotalks/romi/pkg/tasks/odometry"
)

// Model dimensions.
const (
	NumStates  = 4
	NumInputs  = 6
	NumOutputs = 4
)

// Model is the discretized system:
//
//	x[k+1] = A x[k] + B u*[k]
//	y[k]   = C x[k]
//
// with state x = [vL, vR, s, psi], augmented input
// u* = [VL, VR, sL, sR, psi, psiDot] and output y = [sL, sR, psi, psiDot].
type Model struct {
	A *mat.Dense
	B *mat.Dense
	C *mat.Dense
}

// DefaultModel returns the Romi model, r and w are wheel radius and
// wheel base in meters.
func DefaultModel(r, w float64) Model {
	return Model{
		A: mat.NewDense(NumStates, NumStates, []float64{
			0, 0, 0.1331, 0,
			0, 0, 0.1331, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
		}),
		B: mat.NewDense(NumStates, NumInputs, []float64{
			0.0406, 0.0373, -0.0666, -0.0666, 0, -2.0123,
			0.0373, 0.0406, -0.0666, -0.0666, 0, 2.0123,
			0, 0, 0.5, 0.5, 0, 0,
			0, 0, -0.0698, 0.0698, 0.9902, 0.0001,
		}),
		C: mat.NewDense(NumOutputs, NumStates, []float64{
			0, 0, 1, -w / 2,
			0, 0, 1, w / 2,
			0, 0, 0, 1,
			-r / w, r / w, 0, 0,
		}),
	}
}

// Validate checks the dimensions.
func (m Model) Validate() error {
	check := func(name string, d *mat.Dense, r, c int) error {
		if d == nil {
			return fmt.Errorf("model %s missing", name)
		}
		if rows, cols := d.Dims(); rows != r || cols != c {
			return fmt.Errorf("model %s is %dx%d, expect %dx%d", name, rows, cols, r, c)
		}
		return nil
	}
	var errs fx.AggregatedError
	errs.Add(
		check("A", m.A, NumStates, NumStates),
		check("B", m.B, NumStates, NumInputs),
		check("C", m.C, NumOutputs, NumStates),
	)
	return errs.Aggregate()
}

// Next advances the state by one step and returns the next state and
// the output of the current state.
func (m Model) Next(x, u mat.Vector) (next, y *mat.VecDense) {
	next = mat.NewVecDense(NumStates, nil)
	next.MulVec(m.A, x)
	var bu mat.VecDense
	bu.MulVec(m.B, u)
	next.AddVec(next, &bu)
	y = mat.NewVecDense(NumOutputs, nil)
	y.MulVec(m.C, x)
	return
}

// State is the state of the observer task.
type State int

// States.
const (
	Init State = iota
	Waiting
	Estimating
)

var stateNames = [...]string{"INIT", "WAITING", "ESTIMATING"}

// String implements fx.State.
func (s State) String() string {
	return stateNames[s]
}

// Task is the state estimation task.
type Task struct {
	Model    Model
	Geometry odometry.Geometry
	Battery  hw.Battery
	// VNominal is used when the battery can not be read.
	VNominal float64

	Flags     shares.Flags
	Telemetry shares.MotorTelemetry
	Heading   shares.Heading
	Observer  shares.Observer

	state State
	vbat  float64
	x     *mat.VecDense
}

// New creates the task.
func New(model Model, battery hw.Battery, s *shares.Set) *Task {
	return &Task{
		Model:     model,
		Geometry:  odometry.RomiGeometry,
		Battery:   battery,
		VNominal:  hw.DefaultDivider.VNominal,
		Flags:     s.Flags,
		Telemetry: s.Telemetry,
		Heading:   s.Heading,
		Observer:  s.Observer,
		x:         mat.NewVecDense(NumStates, nil),
	}
}

// Current returns the current state.
func (t *Task) Current() State {
	return t.state
}

// Estimate returns a copy of the state vector.
func (t *Task) Estimate() []float64 {
	return append([]float64(nil), t.x.RawVector().Data...)
}

// Step implements fx.StateMachine.
func (t *Task) Step() (fx.State, error) {
	switch t.state {
	case Init:
		if err := t.Model.Validate(); err != nil {
			return t.state, err
		}
		t.state = Waiting
	case Waiting:
		if t.Flags.RunObserver.Get() {
			t.start()
			t.state = Estimating
		}
	case Estimating:
		if !t.Flags.RunObserver.Get() {
			t.state = Waiting
			break
		}
		t.estimate()
	}
	return t.state, nil
}

func (t *Task) start() {
	t.x.Zero()
	t.vbat = t.VNominal
	if t.Battery != nil {
		if v, err := t.Battery.ReadVoltage(); err != nil {
			glog.Warningf("observer battery read: %v, assume %.2fV", err, t.VNominal)
		} else if v > hw.DefaultDivider.VMin {
			t.vbat = v
		}
	}
}

func (t *Task) estimate() {
	metersPerCount := t.Geometry.MMPerCount() / 1000
	u := mat.NewVecDense(NumInputs, []float64{
		t.Telemetry.LeftEffort.Get() * t.vbat / 100,
		t.Telemetry.RightEffort.Get() * t.vbat / 100,
		float64(t.Telemetry.LeftPos.Get()) * metersPerCount,
		float64(t.Telemetry.RightPos.Get()) * metersPerCount,
		t.Heading.Psi.Get(),
		t.Heading.PsiDot.Get(),
	})
	next, y := t.Model.Next(t.x, u)

	t.Observer.Time.Put(t.Telemetry.Time.Get())
	t.Observer.SL.Put(y.AtVec(0))
	t.Observer.SR.Put(y.AtVec(1))
	t.Observer.Psi.Put(y.AtVec(2))
	t.Observer.PsiDot.Put(y.AtVec(3))
	t.Observer.LeftVel.Put(next.AtVec(0))
	t.Observer.RightVel.Put(next.AtVec(1))
	t.Observer.S.Put(next.AtVec(2))
	t.Observer.Yaw.Put(next.AtVec(3))
	t.x = next
}
