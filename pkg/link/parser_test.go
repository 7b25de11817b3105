package link

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type parserTestSequence struct {
	in     string
	expect *Command
	err    bool
}

type parserTestSequenceBuilder struct {
	seq []parserTestSequence
}

func parserTestSequences() *parserTestSequenceBuilder {
	return &parserTestSequenceBuilder{}
}

func (b *parserTestSequenceBuilder) on(in string) *parserTestSequenceBuilder {
	b.seq = append(b.seq, parserTestSequence{in: in})
	return b
}

func (b *parserTestSequenceBuilder) command(code byte, args ...float64) *parserTestSequenceBuilder {
	b.seq[len(b.seq)-1].expect = &Command{Code: code, Args: args}
	return b
}

func (b *parserTestSequenceBuilder) malformed() *parserTestSequenceBuilder {
	b.seq[len(b.seq)-1].err = true
	return b
}

func (b *parserTestSequenceBuilder) build() []parserTestSequence {
	return b.seq
}

func TestParser(t *testing.T) {
	testCases := []struct {
		name string
		seq  []parserTestSequence
	}{
		{
			name: "simple commands",
			seq: parserTestSequences().
				on("r").command(CmdRun).
				on("k").command(CmdKill).
				on("V").command(CmdVoltage).
				build(),
		},
		{
			name: "effort",
			seq: parserTestSequences().
				on("e5").command(CmdEffort, 50).
				on("ea").command(CmdEffort, 100).
				on("e0").command(CmdEffort, 0).
				build(),
		},
		{
			name: "velocity",
			seq: parserTestSequences().
				on("v123405000025").command(CmdVelocity, 12.34, 5, 0.25).
				build(),
		},
		{
			name: "line follow",
			seq: parserTestSequences().
				on("l0100020005000800").command(CmdLine, 1, 2, 5, 8).
				build(),
		},
		{
			name: "line follow fractional gain",
			seq: parserTestSequences().
				on("l0100020000500800").command(CmdLine, 1, 2, 0.5, 8).
				build(),
		},
		{
			name: "whitespace between commands",
			seq: parserTestSequences().
				on("\r\n s").command(CmdStream).
				build(),
		},
		{
			name: "unknown command",
			seq: parserTestSequences().
				on("x").malformed().
				on("n").command(CmdMode).
				build(),
		},
		{
			name: "invalid digit resyncs",
			seq: parserTestSequences().
				on("v12a").malformed().
				on("z").command(CmdPlan).
				build(),
		},
		{
			name: "invalid effort",
			seq: parserTestSequences().
				on("eb").malformed().
				on("b").command(CmdBlack).
				build(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var parser Parser
			for n, s := range tc.seq {
				var (
					cmd *Command
					err error
				)
				for i := 0; i < len(s.in); i++ {
					cmd, err = parser.Parse(s.in[i])
					if i+1 < len(s.in) {
						require.Nilf(t, cmd, "seq[%d][%d] unexpected command", n, i)
						require.NoErrorf(t, err, "seq[%d][%d]", n, i)
					}
				}
				if s.err {
					require.ErrorIsf(t, err, ErrMalformed, "seq[%d]", n)
					require.False(t, parser.Pending())
					continue
				}
				require.NoErrorf(t, err, "seq[%d]", n)
				require.Equalf(t, s.expect, cmd, "seq[%d] mismatch", n)
				require.False(t, parser.Pending())
			}
		})
	}
}

func TestParserAcrossPolls(t *testing.T) {
	var parser Parser
	in := "v010002000300"
	for i := 0; i < 5; i++ {
		cmd, err := parser.Parse(in[i])
		require.NoError(t, err)
		require.Nil(t, cmd)
	}
	require.True(t, parser.Pending())
	var cmd *Command
	for i := 5; i < len(in); i++ {
		var err error
		cmd, err = parser.Parse(in[i])
		require.NoError(t, err)
	}
	require.Equal(t, &Command{Code: CmdVelocity, Args: []float64{1, 2, 3}}, cmd)
}

func TestParserReset(t *testing.T) {
	var parser Parser
	parser.Parse('l')
	parser.Parse('1')
	require.True(t, parser.Pending())
	parser.Reset()
	require.False(t, parser.Pending())
	cmd, err := parser.Parse('k')
	require.NoError(t, err)
	require.Equal(t, CmdKill, cmd.Code)
}

func TestCommandErrorMessage(t *testing.T) {
	var parser Parser
	_, err := parser.Parse(0x01)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, byte(0x01), cmdErr.Code)
	require.Contains(t, err.Error(), "unknown command")

	parser.Parse('v')
	_, err = parser.Parse(0xff)
	require.ErrorAs(t, err, &cmdErr)
	require.Contains(t, cmdErr.Reason, "0xff")
}
