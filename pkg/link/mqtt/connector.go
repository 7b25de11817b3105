package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/romi/pkg/link/msgs"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// RobotInfo is a discovered robot.
type RobotInfo struct {
	Ref  Ref
	Meta Meta
}

// Connector is used by the host to find and connect robots.
type Connector struct {
	BrokerURL       string
	DiscoverTimeout time.Duration
}

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	if _, _, err := ClientOptionsFromURL(brokerURL); err != nil {
		return nil, err
	}
	return &Connector{BrokerURL: brokerURL, DiscoverTimeout: DefaultDiscoverTimeout}, nil
}

// ParseMeta parses a retained meta message. An empty payload means the
// robot went offline.
func ParseMeta(topic string, payload []byte) (RobotInfo, bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[2] != TopicMeta || len(payload) == 0 {
		return RobotInfo{}, false
	}
	info := RobotInfo{Ref: Ref{Type: items[0], ID: items[1]}}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.Warningf("robot %s meta: %v", info.Ref.Name(), err)
	}
	return info, true
}

// Discover enumerates online robots.
func (c *Connector) Discover(ctx context.Context) ([]RobotInfo, error) {
	q, err := NewQueueFromURL(c.BrokerURL)
	if err != nil {
		return nil, err
	}
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	defer q.Close()
	infoCh := make(chan RobotInfo, 16)
	q.Sub("+/+/"+TopicMeta, func(topic string, payload []byte) {
		if info, ok := ParseMeta(topic, payload); ok {
			select {
			case infoCh <- info:
			case <-time.After(time.Second):
			}
		}
	})

	dur := c.DiscoverTimeout
	if dur == 0 {
		dur = DefaultDiscoverTimeout
	}
	timeout := time.After(dur)
	var res []RobotInfo
	for {
		select {
		case info := <-infoCh:
			res = append(res, info)
		case <-timeout:
			return res, nil
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
}

// Conn is the host side connection to a robot.
type Conn struct {
	Queue *Queue
	Link  *ReadWriter
}

// Connect connects to the robot. Link must be run to receive frames.
func (c *Connector) Connect(ref Ref) (*Conn, error) {
	q, err := NewQueueFromURL(c.BrokerURL)
	if err != nil {
		return nil, err
	}
	conn := &Conn{Queue: q, Link: NewReadWriter(q).ForHost(ref)}
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return conn, nil
}

// Events subscribes the protobuf events of the robot.
func (c *Conn) Events(ref Ref, handler func(msgs.Message)) *Subscription {
	return c.Queue.Sub(ref.Topic(TopicEvents), func(topic string, payload []byte) {
		msg, err := msgs.Decode(payload)
		if err != nil {
			glog.Warningf("%s: %v", topic, err)
			return
		}
		handler(msg)
	})
}

// Close disconnects.
func (c *Conn) Close() error {
	c.Link.Close()
	return c.Queue.Close()
}
