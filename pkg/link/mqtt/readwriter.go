package mqtt

import (
	"context"
	"io"
	"sync"
	"time"
)

// Topic names below the robot prefix.
const (
	TopicCmd    = "cmd"
	TopicFrames = "frames"
	TopicEvents = "events"
	TopicMeta   = "meta"
)

// PublishTimeout bounds waiting for a publish to complete.
const PublishTimeout = 2 * time.Second

// Ref names a robot on the broker as Type/ID.
type Ref struct {
	Type string
	ID   string
}

// Name is the topic prefix of the robot.
func (r Ref) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates both parts are set.
func (r Ref) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// Topic returns a topic below the robot.
func (r Ref) Topic(name string) string {
	return r.Name() + "/" + name
}

// ReadWriter is a byte stream over a pair of topics. Each received
// payload is appended to the read side, each Write is one publish.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string
	// NoWait publishes without waiting for the broker, writers in the
	// scheduler loop must not block.
	NoWait bool

	lock    sync.Mutex
	cond    *sync.Cond
	pending []byte
	closed  bool
}

// NewReadWriter creates the ReadWriter.
func NewReadWriter(q *Queue) *ReadWriter {
	rw := &ReadWriter{Queue: q}
	rw.cond = sync.NewCond(&rw.lock)
	return rw
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForRobot reads commands and writes frames.
func (p *ReadWriter) ForRobot(ref Ref) *ReadWriter {
	return p.WithTopics(ref.Topic(TopicCmd), ref.Topic(TopicFrames))
}

// ForHost reads frames and writes commands.
func (p *ReadWriter) ForHost(ref Ref) *ReadWriter {
	return p.WithTopics(ref.Topic(TopicFrames), ref.Topic(TopicCmd))
}

// Read implements io.Reader, blocking until data arrives or closed.
func (p *ReadWriter) Read(buf []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	for len(p.pending) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.pending) == 0 {
		return 0, io.EOF
	}
	n := copy(buf, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// Write implements io.Writer.
func (p *ReadWriter) Write(data []byte) (int, error) {
	if p.NoWait {
		p.Queue.Pub(p.PubTopic, append([]byte(nil), data...))
		return len(data), nil
	}
	token := p.Queue.Pub(p.PubTopic, data)
	if !token.WaitTimeout(PublishTimeout) {
		return 0, context.DeadlineExceeded
	}
	if err := token.Error(); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Close implements io.Closer, unblocking readers.
func (p *ReadWriter) Close() error {
	p.lock.Lock()
	p.closed = true
	p.lock.Unlock()
	p.cond.Broadcast()
	return nil
}

// Run implements Runnable, subscribing SubTopic until canceled.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, p.received)
	defer sub.Close()
	defer p.Close()
	<-ctx.Done()
	return ctx.Err()
}

func (p *ReadWriter) received(_ string, payload []byte) {
	p.lock.Lock()
	if !p.closed {
		p.pending = append(p.pending, payload...)
	}
	p.lock.Unlock()
	p.cond.Signal()
}
