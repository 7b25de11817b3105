package sh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/romi/pkg/link"
)

func TestReceiverSeparatesReplies(t *testing.T) {
	r := NewReceiver()
	var got []link.Sample
	r.OnSample = func(s link.Sample) { got = append(got, s) }

	stream := "q" + string(link.Sample{Index: 0, Time: 10, LeftPos: 5}.Frame()) +
		"7.42\n" + string(link.Sample{Index: 1, Time: 20, LeftPos: 9}.Frame()) +
		string(link.EndFrame())
	// deliver in small chunks splitting delimiters.
	for i := 0; i < len(stream); i += 2 {
		end := i + 2
		if end > len(stream) {
			end = len(stream)
		}
		r.Write([]byte(stream[i:end]))
	}

	require.Len(t, got, 2)
	require.Equal(t, uint32(20), got[1].Time)
	require.Equal(t, 1, r.Ends())

	reply, ok := r.TakeReply(link.ReplyRun)
	require.True(t, ok)
	require.Equal(t, "q", string(reply))
	reply, ok = r.TakeReply('\n')
	require.True(t, ok)
	require.Equal(t, "7.42\n", string(reply))
	_, ok = r.TakeReply('\n')
	require.False(t, ok)
}

func TestReceiverMalformedFrame(t *testing.T) {
	r := NewReceiver()
	r.Write([]byte("<S>1,2,3<E>\n<S>1,2,3,4,5,6<E>\n"))
	require.Equal(t, []link.Sample{{Index: 1, Time: 2, LeftPos: 3, RightPos: 4, LeftVel: 5, RightVel: 6}}, r.Samples())
}

func TestReceiverHistory(t *testing.T) {
	r := NewReceiver()
	r.History = 3
	for i := uint32(0); i < 5; i++ {
		r.Write(link.Sample{Index: i}.Frame())
	}
	samples := r.Samples()
	require.Len(t, samples, 3)
	require.Equal(t, uint32(2), samples[0].Index)

	r.Reset()
	require.Empty(t, r.Samples())
}

func TestReceiverWaitReply(t *testing.T) {
	r := NewReceiver()
	go func() {
		time.Sleep(20 * time.Millisecond)
		r.Write([]byte("8.10\n"))
	}()
	reply, ok := r.WaitReply('\n', time.Second)
	require.True(t, ok)
	require.Equal(t, "8.10\n", string(reply))

	_, ok = r.WaitReply('\n', 20*time.Millisecond)
	require.False(t, ok)
}
