// Package see is the adapter to visualize the simulated robot in
// github.com/robotalks/see.
package see

import (
	"encoding/json"
	"io"
	"math"

	"github.com/golang/glog"

	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/sim"
)

// Adapter collects object changes and reports them as see messages,
// one JSON array per line, each time it is stepped.
type Adapter struct {
	Config *Config
	Mapper ObjectMapper
	Out    io.Writer

	initial    bool
	updated    map[string]sim.Object
	removedIDs map[string]bool
	trails     map[string][]sim.Pos2D
}

// NewAdapter creates the adapter.
func NewAdapter(config *Config, out io.Writer) *Adapter {
	return &Adapter{
		Config:  config,
		Mapper:  MapObjectFunc(DefaultMapper),
		Out:     out,
		initial: true,
		trails:  make(map[string][]sim.Pos2D),
	}
}

// DefaultMapper draws an object as a circle of its outline.
func DefaultMapper(obj VisibleObject) []Object {
	return []Object{ObjectFrom("robot", obj)}
}

// Subscribe is a helper to subscribe object changes.
func (a *Adapter) Subscribe(sub sim.ObjectsChangeSubscriber) *Adapter {
	sub.SubscribeObjectsChange(a)
	return a
}

// ObjectsChanged implements ObjectsChangeListener.
func (a *Adapter) ObjectsChanged(objs ...sim.Object) {
	if a.updated == nil {
		a.updated = make(map[string]sim.Object)
	}
	for _, obj := range objs {
		a.updated[obj.Name()] = obj
		if a.removedIDs != nil {
			delete(a.removedIDs, obj.Name())
		}
	}
}

// ObjectsRemoved implements ObjectsChangeListener.
func (a *Adapter) ObjectsRemoved(objs ...sim.Object) {
	if a.removedIDs == nil {
		a.removedIDs = make(map[string]bool)
	}
	for _, obj := range objs {
		a.removedIDs[obj.Name()] = true
		delete(a.updated, obj.Name())
		delete(a.trails, obj.Name())
	}
}

// Step implements fx.StateMachine.
func (a *Adapter) Step() (fx.State, error) {
	msgs := a.Changes()
	if len(msgs) == 0 {
		return fx.StateName("IDLE"), nil
	}
	encoded, err := json.Marshal(msgs)
	if err != nil {
		return nil, err
	}
	if _, err := a.Out.Write(append(encoded, '\n')); err != nil {
		glog.Warningf("visualization: %v", err)
	}
	return fx.StateName("REPORTED"), nil
}

// Changes drains the pending changes into messages.
func (a *Adapter) Changes() []Message {
	var msgs []Message
	if a.initial {
		w, h := a.Config.W, a.Config.H
		msgs = []Message{
			{Action: ActionReset},
			{Action: ActionObject, Object: NewObject("corner", "corner-lt").With("loc", "lt").At(-w/2, -h/2).Radius(1)},
			{Action: ActionObject, Object: NewObject("corner", "corner-lb").With("loc", "lb").At(-w/2, h/2).Radius(1)},
			{Action: ActionObject, Object: NewObject("corner", "corner-rt").With("loc", "rt").At(w/2, -h/2).Radius(1)},
			{Action: ActionObject, Object: NewObject("corner", "corner-rb").With("loc", "rb").At(w/2, h/2).Radius(1)},
		}
		a.initial = false
		a.removedIDs = nil
	}

	for name, obj := range a.updated {
		vo, ok := obj.(VisibleObject)
		if !ok {
			continue
		}
		for _, mapped := range a.Mapper.MapObject(vo) {
			if mapped != nil {
				msgs = append(msgs, Message{Action: ActionObject, Object: mapped})
			}
		}
		if a.track(name, vo.Position2D().Pos2D) {
			msgs = append(msgs, Message{
				Action: ActionObject,
				Object: PathFrom(ObjectID(name)+".trail", a.trails[name]),
			})
		}
	}

	for id := range a.removedIDs {
		msgs = append(msgs, Message{Action: ActionRemove, RemoveID: ObjectID(id)})
	}

	a.updated, a.removedIDs = nil, nil
	return msgs
}

// track appends a trail point when the object moved far enough.
func (a *Adapter) track(name string, p sim.Pos2D) bool {
	if a.Config.Trail <= 0 {
		return false
	}
	trail := a.trails[name]
	if n := len(trail); n > 0 {
		last := trail[n-1]
		if math.Hypot(p.X-last.X, p.Y-last.Y) < a.Config.TrailStep {
			return false
		}
	}
	trail = append(trail, p)
	if len(trail) > a.Config.Trail {
		trail = trail[len(trail)-a.Config.Trail:]
	}
	a.trails[name] = trail
	return true
}
