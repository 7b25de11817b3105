package link

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandEncode(t *testing.T) {
	testCases := []struct {
		name   string
		cmd    Command
		expect string
	}{
		{name: "run", cmd: Simple(CmdRun), expect: "r"},
		{name: "effort", cmd: Effort(30), expect: "e3"},
		{name: "effort zero", cmd: Effort(0), expect: "e0"},
		{name: "effort full", cmd: Effort(100), expect: "ea"},
		{name: "velocity", cmd: Velocity(12.34, 5, 0.25), expect: "v123405000025"},
		{name: "velocity rounds", cmd: Velocity(0.126, 0, 99.99), expect: "v001300009999"},
		{name: "line", cmd: LineFollow(1, 2, 5, 8), expect: "l0100020005000800"},
		{name: "line fractional gain", cmd: LineFollow(1, 2, 0.5, 8), expect: "l0100020000500800"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := tc.cmd.Encode()
			require.NoError(t, err)
			require.Equal(t, tc.expect, string(out))
		})
	}
}

func TestCommandEncodeRejects(t *testing.T) {
	testCases := []struct {
		name string
		cmd  Command
	}{
		{name: "unknown", cmd: Simple('x')},
		{name: "effort not multiple of 10", cmd: Effort(35)},
		{name: "effort negative", cmd: Effort(-10)},
		{name: "effort over", cmd: Effort(110)},
		{name: "field negative", cmd: Velocity(-1, 0, 0)},
		{name: "field too large", cmd: LineFollow(0, 0, 100, 0)},
		{name: "missing args", cmd: Command{Code: CmdVelocity, Args: []float64{1}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cmd.Encode()
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestCommandRoundTrip(t *testing.T) {
	for _, cmd := range []Command{Effort(70), Velocity(3.5, 1.25, 0.5), LineFollow(0.3, 0.1, 4, 10), Simple(CmdCommit)} {
		out, err := cmd.Encode()
		require.NoError(t, err)
		var parser Parser
		var got *Command
		for _, b := range out {
			got, err = parser.Parse(b)
			require.NoError(t, err)
		}
		require.NotNil(t, got)
		require.Equal(t, cmd.Code, got.Code)
		require.InDeltaSlice(t, cmd.Args, got.Args, 1e-9)
	}
}

func TestCommandHelpers(t *testing.T) {
	require.True(t, IsKnownCode(CmdIRCal))
	require.False(t, IsKnownCode(ReplyRun))
	cmd := Velocity(1, 2, 3)
	require.Equal(t, 2.0, cmd.Arg(1))
	require.Zero(t, cmd.Arg(5))
	require.Equal(t, "v[1 2 3]", cmd.String())
	require.Equal(t, "k", Simple(CmdKill).String())
}
