package toys

import (
	"context"
	"strings"
	"testing"

	"fern/host"
	"fern/report"
	"fern/wasm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runProgram(t *testing.T, prog *wasm.Program, entry string) *host.Output {
	t.Helper()

	b, err := prog.Encode()
	require.NoError(t, err)

	out, err := host.Run(context.Background(), b, host.Config{Entry: entry})
	require.NoError(t, err)
	return out
}

func TestBrainfuck(t *testing.T) {
	cases := map[string]string{
		"loops":        "++++++++[>+++++++++<-]>." + strings.Repeat("+", 33) + ".",
		"skipped loop": "[++++.]",
		"wrapping":     "-[->+<]>" + strings.Repeat("-", 255-65) + ".",
		"comments":     "this is ignored ++++++++[>++++++++<-]>+. so is this",
		"input":        strings.Repeat("+", 66) + ",.",
	}
	want := map[string]string{
		"loops":        "Hi",
		"skipped loop": "",
		"wrapping":     "A",
		"comments":     "A",
		"input":        "\x00",
	}

	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			prog, err := Brainfuck(src)
			require.NoError(t, err)
			assert.Equal(t, want[name], runProgram(t, prog, "").Text)
		})
	}
}

func TestBrainfuckErrors(t *testing.T) {
	cases := []struct {
		src       string
		msg       string
		line, col int
	}{
		{"[[]", "unclosed `[`", 1, 1},
		{"]", "unmatched `]`", 1, 1},
		{"+\n ]", "unmatched `]`", 2, 2},
		{"+[>[-]", "unclosed `[`", 1, 2},
	}

	for _, c := range cases {
		prog, err := Brainfuck(c.src)
		assert.Nil(t, prog)

		cerr, ok := report.AsError(err)
		require.True(t, ok, c.src)
		assert.Equal(t, report.KindSyntax, cerr.Kind)
		assert.Equal(t, c.msg, cerr.Message)
		assert.Equal(t, c.line, cerr.Pos.Line)
		assert.Equal(t, c.col, cerr.Pos.Col)
	}
}

func TestCalc(t *testing.T) {
	prog, err := Calc(`
+10
-2 # can have comments

# empty lines

*7
/ 2 # can have space
- 7
* 2
`)
	require.NoError(t, err)

	out := runProgram(t, prog, "main")
	assert.Equal(t, []float64{42}, out.Values)
	assert.Equal(t, []float64{42}, out.Results)

	prog, err = Calc("+10\r\n+12\r\n+3\r\n+8\r\n-8\r\n-4\r\n-2\r\n-6.5")
	require.NoError(t, err)
	assert.Equal(t, []float64{12.5}, runProgram(t, prog, "main").Results)
}

func TestCalcErrors(t *testing.T) {
	cases := []struct {
		src  string
		line int
		msg  string
	}{
		{"+10\nx 5", 2, "each line must start with an operator, got `x`"},
		{"+ ten", 1, "each line must end with a number, got `ten`"},
		{"\n\n*", 3, "each line must end with a number, got ``"},
	}

	for _, c := range cases {
		prog, err := Calc(c.src)
		assert.Nil(t, prog)

		cerr, ok := report.AsError(err)
		require.True(t, ok)
		assert.Equal(t, c.line, cerr.Pos.Line)
		assert.Equal(t, c.msg, cerr.Message)
	}
}
