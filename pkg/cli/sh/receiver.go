package sh

import (
	"bytes"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/romi/pkg/link"
)

// DefaultHistory is the number of samples kept by a Receiver.
const DefaultHistory = 1000

var (
	frameStart = []byte(link.FrameStart)
	frameEnd   = []byte(link.FrameEnd)
)

// Receiver separates telemetry frames from command replies sharing the
// robot stream.
type Receiver struct {
	History int
	// OnSample is invoked for each received sample when set.
	OnSample func(link.Sample)
	// OnEnd is invoked on the end of stream frame.
	OnEnd func()

	lock    sync.Mutex
	buf     []byte
	replies []byte
	samples []link.Sample
	ends    int
	// afterFrame drops the newline terminating a frame in the next write.
	afterFrame bool
}

// NewReceiver creates a Receiver.
func NewReceiver() *Receiver {
	return &Receiver{History: DefaultHistory}
}

// Write implements io.Writer.
func (r *Receiver) Write(p []byte) (int, error) {
	r.lock.Lock()
	data := p
	if r.afterFrame && len(data) > 0 {
		if data[0] == '\n' {
			data = data[1:]
		}
		r.afterFrame = false
	}
	r.buf = append(r.buf, data...)
	var samples []link.Sample
	var ends int
	for {
		start := bytes.Index(r.buf, frameStart)
		if start < 0 {
			keep := partialDelimiter(r.buf, frameStart)
			r.reply(r.buf[:len(r.buf)-keep])
			r.buf = append(r.buf[:0], r.buf[len(r.buf)-keep:]...)
			break
		}
		r.reply(r.buf[:start])
		body := r.buf[start+len(frameStart):]
		end := bytes.Index(body, frameEnd)
		if end < 0 {
			r.buf = r.buf[start:]
			break
		}
		payload := body[:end]
		rest := body[end+len(frameEnd):]
		if len(rest) == 0 {
			r.afterFrame = true
		} else if rest[0] == '\n' {
			rest = rest[1:]
		}
		if link.IsEnd(payload) {
			ends++
		} else if s, err := link.ParseSample(payload); err != nil {
			glog.Warningf("%v", err)
		} else {
			samples = append(samples, s)
		}
		r.buf = append(r.buf[:0], rest...)
	}
	r.keep(samples...)
	r.ends += ends
	onSample, onEnd := r.OnSample, r.OnEnd
	r.lock.Unlock()

	if onSample != nil {
		for _, s := range samples {
			onSample(s)
		}
	}
	if onEnd != nil {
		for ; ends > 0; ends-- {
			onEnd()
		}
	}
	return len(p), nil
}

// partialDelimiter returns the length of the longest suffix of buf which
// starts delim.
func partialDelimiter(buf, delim []byte) int {
	k := len(delim) - 1
	if k > len(buf) {
		k = len(buf)
	}
	for ; k > 0; k-- {
		if bytes.HasPrefix(delim, buf[len(buf)-k:]) {
			return k
		}
	}
	return 0
}

func (r *Receiver) reply(data []byte) {
	r.replies = append(r.replies, data...)
}

func (r *Receiver) keep(samples ...link.Sample) {
	r.samples = append(r.samples, samples...)
	if r.History > 0 && len(r.samples) > r.History {
		r.samples = append([]link.Sample(nil), r.samples[len(r.samples)-r.History:]...)
	}
}

// Watch replaces OnSample and OnEnd, nil stops watching.
func (r *Receiver) Watch(onSample func(link.Sample), onEnd func()) {
	r.lock.Lock()
	r.OnSample, r.OnEnd = onSample, onEnd
	r.lock.Unlock()
}

// Samples returns the kept samples, oldest first.
func (r *Receiver) Samples() []link.Sample {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]link.Sample(nil), r.samples...)
}

// Ends returns the number of end of stream frames.
func (r *Receiver) Ends() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.ends
}

// Reset drops kept samples and pending replies.
func (r *Receiver) Reset() {
	r.lock.Lock()
	r.samples, r.replies, r.ends = nil, nil, 0
	r.lock.Unlock()
}

// TakeReply returns pending reply bytes up to and including the first
// occurrence of delim, or false if delim was not received yet.
func (r *Receiver) TakeReply(delim byte) ([]byte, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	pos := bytes.IndexByte(r.replies, delim)
	if pos < 0 {
		return nil, false
	}
	reply := append([]byte(nil), r.replies[:pos+1]...)
	r.replies = r.replies[pos+1:]
	return reply, true
}

// WaitReply polls TakeReply until timeout.
func (r *Receiver) WaitReply(delim byte, timeout time.Duration) ([]byte, bool) {
	deadline := time.Now().Add(timeout)
	for {
		if reply, ok := r.TakeReply(delim); ok {
			return reply, true
		}
		if time.Now().After(deadline) {
			return nil, false
		}
		time.Sleep(10 * time.Millisecond)
	}
}
