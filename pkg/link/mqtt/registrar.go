package mqtt

import (
	"context"
	"encoding/json"

	"github.com/robotalks/romi/pkg/link/msgs"
)

// Meta describes the robot, retained on the meta topic while online.
type Meta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Registrar announces the robot and publishes its events.
type Registrar struct {
	Queue *Queue
	Ref   Ref

	metaJSON []byte
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, ref Ref, meta Meta) (*Registrar, error) {
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	// an empty retained meta removes the robot when the connection drops.
	opts.SetBinaryWill(topicPrefix+ref.Topic(TopicMeta), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("romi:" + ref.Name())
	}
	r := &Registrar{
		Queue:    NewQueue(opts, topicPrefix),
		Ref:      ref,
		metaJSON: metaJSON,
	}
	r.Queue.OnConnect = func(*Queue) { r.announce() }
	return r, nil
}

// Link creates the command/frames stream of the robot.
func (r *Registrar) Link() *ReadWriter {
	rw := NewReadWriter(r.Queue).ForRobot(r.Ref)
	rw.NoWait = true
	return rw
}

// Publish implements the event publisher of the robot.
func (r *Registrar) Publish(msg msgs.Message) error {
	data, err := msgs.Encode(msg)
	if err != nil {
		return err
	}
	// events are best effort, never block the scheduler on the broker.
	r.Queue.Pub(r.Ref.Topic(TopicEvents), data)
	return nil
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	r.Queue.Connect()
	<-ctx.Done()
	r.Queue.PubWith(r.Ref.Topic(TopicMeta), nil, 1, true).WaitTimeout(PublishTimeout)
	r.Queue.Close()
	return nil
}

func (r *Registrar) announce() {
	r.Queue.PubWith(r.Ref.Topic(TopicMeta), r.metaJSON, 1, true)
}
