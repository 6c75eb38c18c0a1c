package syntax

import (
	"strings"
	"testing"

	"fern/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseDump parses src and dumps the statements of the root block, one per
// line.
func parseDump(t *testing.T, src string) string {
	t.Helper()

	tree, root, err := ParseSource(src, "t.fern", 1)
	require.NoError(t, err)

	var lines []string
	for _, stmt := range tree.At(root).Children {
		lines = append(lines, tree.Dump(stmt))
	}

	return strings.Join(lines, "\n")
}

// parseErr parses src and returns the syntax error it produced.
func parseErr(t *testing.T, src string) *report.Error {
	t.Helper()

	tree, _, err := ParseSource(src, "t.fern", 1)
	require.Error(t, err)
	assert.Nil(t, tree)

	cerr, ok := report.AsError(err)
	require.True(t, ok)
	assert.Equal(t, report.KindSyntax, cerr.Kind)
	return cerr
}

func TestPrecedence(t *testing.T) {
	cases := map[string]string{
		"2 + 3 * 4":          "(call add 2 (call mul 3 4))",
		"2 * 3 + 4":          "(call add (call mul 2 3) 4)",
		"a - b - c":          "(call sub (call sub a b) c)",
		"a / b * c":          "(call mul (call div a b) c)",
		"a % b":              "(call mod a b)",
		"a + 1 < b * 2":      "(call lt (call add a 1) (call mul b 2))",
		"a == b != c":        "(call ne (call eq a b) c)",
		"a >= b":             "(call ge a b)",
		"(a + b) * c":        "(call mul (group (call add a b)) c)",
		"-a":                 "(call neg a)",
		"+a":                 "a",
		"2 * -a":             "(call mul 2 (call neg a))",
		"- -a":               "(call neg (call neg a))",
		"true":               "true",
		"@@wasm.f64.sqrt(x)": "(call @@wasm.f64.sqrt x)",
	}

	for src, want := range cases {
		t.Run(src, func(t *testing.T) {
			assert.Equal(t, want, parseDump(t, src))
		})
	}
}

func TestChainedOperatorsCollapse(t *testing.T) {
	assert.Equal(t, "(call add a b c d)", parseDump(t, "a + b + c + d"))
	assert.Equal(t, "(call mul a b c)", parseDump(t, "a * b * c"))
	assert.Equal(t, "(call add (call mul a b c) d e)", parseDump(t, "a * b * c + d + e"))

	// Mixed runs and explicit calls stay binary.
	assert.Equal(t, "(call add (call sub (call add a b) c) d)", parseDump(t, "a + b - c + d"))
	assert.Equal(t, "(call add (call add a b) c)", parseDump(t, "add(a, b) + c"))
	assert.Equal(t, "(call add (group (call add a b)) c)", parseDump(t, "(a + b) + c"))
}

func TestCallsAndIndexing(t *testing.T) {
	assert.Equal(t, "(call f)", parseDump(t, "f()"))
	assert.Equal(t, "(call f a (call add b 1) (call g c))", parseDump(t, "f(a, b + 1, g(c))"))
	assert.Equal(t, "(index x (call add i 1))", parseDump(t, "x[i + 1]"))
	assert.Equal(t, "(call f a b)", parseDump(t, "f(a,\n    b)"))
}

func TestAssignment(t *testing.T) {
	assert.Equal(t, "(assign a 1)\n(assign a (call add a 2))", parseDump(t, "a = 1\na += 2"))
	assert.Equal(t, "(assign x (call div x (call add y 1)))", parseDump(t, "x /= y + 1"))
}

func TestIfChains(t *testing.T) {
	src := `
if a > 1
    x = 1
elseif a > 0
    x = 2
else
    x = 3
y = x`
	assert.Equal(t,
		"(if (call gt a 1) (block (assign x 1)) (block (if (call gt a 0) (block (assign x 2)) (block (assign x 3)))))\n(assign y x)",
		parseDump(t, src))

	assert.Equal(t, "(if c (block (call print 1)) (block (call print 2)))", parseDump(t, "if c do print(1) else print(2)"))
	assert.Equal(t, "(if c (block (call print 1)))", parseDump(t, "if c do print(1)"))
	assert.Equal(t, "(assign x (if c (block 1) (block 2)))", parseDump(t, "x = if c do 1 else 2"))
}

func TestLoops(t *testing.T) {
	src := `
i = 0
loop while i < 10
    i += 1
    if i == 5 do continue
    if i > 7
        break
loop
    break`
	assert.Equal(t, strings.Join([]string{
		"(assign i 0)",
		"(loop (call lt i 10) (block (assign i (call add i 1)) (if (call eq i 5) (block continue)) (if (call gt i 7) (block break))))",
		"(loop (block break))",
	}, "\n"), parseDump(t, src))
}

func TestFuncDef(t *testing.T) {
	src := `
func add3(a, b, c)
    return a + b + c

func noop()
    x = 1
print(add3(1, 2, 3))`
	assert.Equal(t, strings.Join([]string{
		"(func add3 (block a b c) (block (return (call add a b c))))",
		"(func noop (block) (block (assign x 1)))",
		"(call print (call add3 1 2 3))",
	}, "\n"), parseDump(t, src))
}

func TestIndentedSnippet(t *testing.T) {
	assert.Equal(t, "(assign a 1)\n(if a (block (assign b 2)))", parseDump(t, "    a = 1\n    if a\n        b = 2"))
}

func TestIndentationErrors(t *testing.T) {
	err := parseErr(t, "a = 1\n    b = 2")
	assert.Equal(t, "unexpected indentation", err.Message)
	assert.Equal(t, 2, err.Pos.Line)

	err = parseErr(t, "if a\n        b = 1\n    c = 2")
	assert.Equal(t, "dedent does not match any outer indentation level", err.Message)
	assert.Equal(t, 3, err.Pos.Line)

	err = parseErr(t, "if a\nb = 1")
	assert.Contains(t, err.Message, "expected `do` or an indented block")

	err = parseErr(t, "  a = 1\nb = 2")
	assert.Equal(t, "dedent does not match any outer indentation level", err.Message)
}

func TestSyntaxErrors(t *testing.T) {
	cases := map[string]string{
		"a b":           "expected an operator before `b`",
		"a +":           "operator `+` needs a right operand",
		"* a":           "operator `*` needs a left operand",
		"a ^ b":         "unsupported operator `^`",
		"()":            "expected an expression inside `()`",
		"f(a,)":         "expected an argument before `)`",
		"f(,a)":         "expected an argument before `,`",
		"f(a":           "unclosed `(`",
		"a)":            "unmatched `)`",
		"f(a]":          "expected `)` to close `(`, got `]`",
		"3 = 4":         "can only assign to a name",
		"f(a = 1)":      "cannot assign inside brackets",
		"a = $":         "unexpected character `$`",
		"else":          "`else` without a matching `if`",
		"import foo":    "`import` is not supported",
		"return":        "expected a value to return, got end of file",
		"x[]":           "expected an index expression",
		"(a)(b)":        "only named functions can be called",
		"a = 1 do":      "unexpected keyword `do`",
		"f(if a do 1)":  "conditional expressions cannot appear inside brackets",
		"func 3()\n  x": "expected identifier, got `3`",
	}

	for src, want := range cases {
		t.Run(src, func(t *testing.T) {
			err := parseErr(t, src)
			assert.Equal(t, want, err.Message)
			assert.Equal(t, "t.fern", err.Pos.File)
		})
	}
}

func TestErrorPosition(t *testing.T) {
	err := parseErr(t, "x = 1\ny = (2 +\n  3")
	assert.Equal(t, 2, err.Pos.Line)
	assert.Equal(t, 5, err.Pos.Col)
}
