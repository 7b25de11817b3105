package link

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/romi/pkg/framework"
)

// DefaultInboxSize is the default capacity of the Port inbox.
const DefaultInboxSize = 256

// Port bridges a blocking transport into the cooperative loop. Received
// bytes are kept in a bounded inbox polled by tasks without blocking;
// writes go straight to Out.
type Port struct {
	Name string
	In   io.Reader
	Out  io.Writer
	// InboxSize bounds the inbox, bytes arriving when full are dropped.
	InboxSize int

	inLock  sync.Mutex
	inbox   []byte
	dropped int
	outLock sync.Mutex
}

// NewPort creates a Port over a transport.
func NewPort(name string, rw io.ReadWriter) *Port {
	return &Port{Name: name, In: rw, Out: rw, InboxSize: DefaultInboxSize}
}

// Any returns the number of pending bytes.
func (p *Port) Any() int {
	p.inLock.Lock()
	defer p.inLock.Unlock()
	return len(p.inbox)
}

// ReadByte implements io.ByteReader, ErrNoInput when nothing pending.
func (p *Port) ReadByte() (byte, error) {
	p.inLock.Lock()
	defer p.inLock.Unlock()
	if len(p.inbox) == 0 {
		return 0, ErrNoInput
	}
	b := p.inbox[0]
	p.inbox = p.inbox[1:]
	return b, nil
}

// Feed appends received bytes to the inbox.
func (p *Port) Feed(data []byte) int {
	size := p.InboxSize
	if size <= 0 {
		size = DefaultInboxSize
	}
	p.inLock.Lock()
	n := len(data)
	if room := size - len(p.inbox); n > room {
		n = room
	}
	p.inbox = append(p.inbox, data[:n]...)
	dropped := len(data) - n
	p.dropped += dropped
	p.inLock.Unlock()
	if dropped > 0 {
		glog.Warningf("Port[%s] inbox full, %d bytes dropped", p.Name, dropped)
	}
	return n
}

// Dropped returns the number of bytes dropped on a full inbox.
func (p *Port) Dropped() int {
	p.inLock.Lock()
	defer p.inLock.Unlock()
	return p.dropped
}

// Write implements io.Writer.
func (p *Port) Write(data []byte) (int, error) {
	if p.Out == nil {
		return len(data), nil
	}
	p.outLock.Lock()
	defer p.outLock.Unlock()
	return p.Out.Write(data)
}

// WriteByte implements io.ByteWriter.
func (p *Port) WriteByte(b byte) error {
	_, err := p.Write([]byte{b})
	return err
}

// Run implements fx.Runnable, pumping In into the inbox.
func (p *Port) Run(ctx context.Context) error {
	if p.In == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.FeedFrom(p.In).Run(ctx)
}

// FeedFrom creates a Runnable pumping another transport into the inbox.
func (p *Port) FeedFrom(in io.Reader) fx.Runnable {
	return fx.RunFunc(func(ctx context.Context) error {
		pump := func() error {
			buf := make([]byte, 64)
			for {
				n, err := in.Read(buf)
				if n > 0 {
					p.Feed(buf[:n])
				}
				if err != nil {
					return err
				}
			}
		}
		if closer, ok := in.(io.Closer); ok {
			return fx.RunWithContextCloser(ctx, closer, pump)
		}
		return fx.RunWithContextCancel(ctx, nil, pump)
	})
}
