package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokSummary struct {
	Kind  TokenKind
	Value string
}

func summarize(toks []*Token) []tokSummary {
	out := make([]tokSummary, len(toks))
	for i, tok := range toks {
		out[i] = tokSummary{tok.Kind, tok.Value}
	}
	return out
}

func TestTokenizeLineStarts(t *testing.T) {
	src := "a = 1\n\n   # only a comment\n  b += a # trailing\n"
	toks := Tokenize(src, "t.fern", 1)

	assert.Equal(t, []tokSummary{
		{LineStart, ""},
		{Identifier, "a"},
		{AssignOp, "="},
		{Number, "1"},
		{LineStart, "  "},
		{Identifier, "b"},
		{AssignOp, "+="},
		{Identifier, "a"},
		{EOF, ""},
	}, summarize(toks))

	// The second line start is on line 4 at column 1.
	assert.Equal(t, 4, toks[4].Line)
	assert.Equal(t, 1, toks[4].Col)
	assert.Equal(t, 3, toks[5].Col)
}

func TestTokenizeStartingLine(t *testing.T) {
	toks := Tokenize("x\ny", "t.fern", 10)
	assert.Equal(t, 10, toks[1].Line)
	assert.Equal(t, 11, toks[3].Line)
	assert.Equal(t, "t.fern", toks[3].File)
}

func TestTokenizeNumbers(t *testing.T) {
	cases := map[string][]tokSummary{
		"12":     {{Number, "12"}},
		"1.5":    {{Number, "1.5"}},
		"2e10":   {{Number, "2e10"}},
		"2E-3":   {{Number, "2E-3"}},
		"1.5e+2": {{Number, "1.5e+2"}},
		"0x1F":   {{Number, "0x1F"}},
		"3e":     {{Number, "3"}, {Identifier, "e"}},
		"4e+x":   {{Number, "4"}, {Identifier, "e"}, {Operator, "+"}, {Identifier, "x"}},
		"1.2.3":  {{Number, "1.2"}, {Unknown, "."}, {Number, "3"}},
	}

	for src, want := range cases {
		t.Run(src, func(t *testing.T) {
			toks := Tokenize(src, "", 1)
			got := summarize(toks[1 : len(toks)-1])
			assert.Equal(t, want, got)
		})
	}
}

func TestTokenizeStrings(t *testing.T) {
	toks := Tokenize("s = \"one\n   \"two\"\nt = 'x'", "", 1)
	require.Len(t, toks, 9)

	assert.Equal(t, String, toks[3].Kind)
	assert.Equal(t, "\"one\n   \"two\"", toks[3].Value)

	// The continuation advances the line count.
	assert.Equal(t, 3, toks[4].Line)
	assert.Equal(t, "'x'", toks[7].Value)
}

func TestTokenizeUnterminatedString(t *testing.T) {
	toks := Tokenize("s = \"open\nx", "", 1)
	assert.Equal(t, []tokSummary{
		{LineStart, ""},
		{Identifier, "s"},
		{AssignOp, "="},
		{String, "\"open"},
		{LineStart, ""},
		{Identifier, "x"},
		{EOF, ""},
	}, summarize(toks))
}

func TestTokenizeOperatorsAndPunctuation(t *testing.T) {
	toks := Tokenize("f(a, b) >= c != d[0] ^ $ @@wasm.f64.sqrt @x", "", 1)

	assert.Equal(t, []tokSummary{
		{LineStart, ""},
		{Identifier, "f"},
		{Bracket, "("},
		{Identifier, "a"},
		{Sep, ","},
		{Identifier, "b"},
		{Bracket, ")"},
		{Operator, ">="},
		{Identifier, "c"},
		{Operator, "!="},
		{Identifier, "d"},
		{Bracket, "["},
		{Number, "0"},
		{Bracket, "]"},
		{Operator, "^"},
		{Unknown, "$"},
		{Instruction, "@@wasm.f64.sqrt"},
		{Unknown, "@"},
		{Identifier, "x"},
		{EOF, ""},
	}, summarize(toks))
}

func TestTokenizeKeywords(t *testing.T) {
	toks := Tokenize("loop while done do break", "", 1)
	for _, tok := range toks[1 : len(toks)-1] {
		if tok.Value == "done" {
			assert.Equal(t, Identifier, tok.Kind)
		} else {
			assert.Equal(t, Keyword, tok.Kind, tok.Value)
		}
	}
}

func TestTokenizeEmpty(t *testing.T) {
	assert.Equal(t, []tokSummary{{EOF, ""}}, summarize(Tokenize("", "", 1)))
	assert.Equal(t, []tokSummary{{EOF, ""}}, summarize(Tokenize("\n  # hi\n\n", "", 1)))
}
