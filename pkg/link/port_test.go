package link

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPortInbox(t *testing.T) {
	var out bytes.Buffer
	p := &Port{Name: "test", Out: &out, InboxSize: 4}
	_, err := p.ReadByte()
	require.ErrorIs(t, err, ErrNoInput)

	require.Equal(t, 4, p.Feed([]byte("abcdef")))
	require.Equal(t, 2, p.Dropped())
	require.Equal(t, 4, p.Any())
	for _, expect := range []byte("abcd") {
		b, err := p.ReadByte()
		require.NoError(t, err)
		require.Equal(t, expect, b)
	}
	require.Zero(t, p.Any())

	require.NoError(t, p.WriteByte(ReplyRun))
	p.Write([]byte("7.20\n"))
	require.Equal(t, "q7.20\n", out.String())
}

func TestPortWithoutOut(t *testing.T) {
	p := &Port{Name: "null"}
	n, err := p.Write([]byte("dropped"))
	require.NoError(t, err)
	require.Equal(t, 7, n)
}

func TestPortRun(t *testing.T) {
	pr, pw := io.Pipe()
	p := &Port{Name: "pipe", In: pr, InboxSize: DefaultInboxSize}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	_, err := pw.Write([]byte("r"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return p.Any() == 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("port not stopped")
	}
}

func TestPortRunEOF(t *testing.T) {
	p := NewPort("eof", &bytes.Buffer{})
	p.In = bytes.NewBufferString("kk")
	err := p.Run(context.Background())
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 2, p.Any())
}

func TestPortFeedFrom(t *testing.T) {
	p := NewPort("multi", nil)
	err := p.FeedFrom(bytes.NewBufferString("s")).Run(context.Background())
	require.ErrorIs(t, err, io.EOF)
	err = p.FeedFrom(bytes.NewBufferString("V")).Run(context.Background())
	require.ErrorIs(t, err, io.EOF)
	b, err := p.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('s'), b)
	b, err = p.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('V'), b)
}
