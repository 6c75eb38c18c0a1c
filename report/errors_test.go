package report

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := Raise(KindSyntax, Pos{File: "main.fern", Line: 3, Col: 7}, "unexpected token: `%s`", ")")
	assert.Equal(t, "main.fern:3:7: syntax error: unexpected token: `)`", err.Error())

	err = Raise(KindSemantic, Pos{Line: 1, Col: 1}, "unresolved identifier `x`")
	assert.Equal(t, "1:1: semantic error: unresolved identifier `x`", err.Error())

	ice := &Error{Kind: KindAssembler, Message: "unknown opcode 0xff"}
	assert.Equal(t, "assembler error: unknown opcode 0xff", ice.Error())
}

func catchFrom(f func()) (err error) {
	defer CatchErrors(&err)
	f()
	return nil
}

func TestCatchErrors(t *testing.T) {
	t.Run("compile error", func(t *testing.T) {
		err := catchFrom(func() {
			panic(Raise(KindSemantic, Pos{Line: 2, Col: 4}, "bad"))
		})

		cerr, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindSemantic, cerr.Kind)
		assert.Equal(t, 2, cerr.Pos.Line)
	})

	t.Run("internal error", func(t *testing.T) {
		err := catchFrom(func() { ICE("scope stack unbalanced") })

		cerr, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindAssembler, cerr.Kind)
		assert.False(t, cerr.HasPos)
	})

	t.Run("go error", func(t *testing.T) {
		err := catchFrom(func() { panic(errors.New("boom")) })

		cerr, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindAssembler, cerr.Kind)
		assert.Contains(t, cerr.Message, "boom")
	})

	t.Run("no panic", func(t *testing.T) {
		assert.NoError(t, catchFrom(func() {}))
	})
}

func TestAsErrorWrapped(t *testing.T) {
	inner := Raise(KindSyntax, Pos{Line: 1, Col: 1}, "oops")
	wrapped := fmt.Errorf("compiling main.fern: %w", inner)

	cerr, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, cerr)

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelSilent, ParseLogLevel("silent"))
	assert.Equal(t, LogLevelError, ParseLogLevel("error"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("warn"))
	assert.Equal(t, LogLevelVerbose, ParseLogLevel("verbose"))
	assert.Equal(t, LogLevelVerbose, ParseLogLevel("nonsense"))
}
