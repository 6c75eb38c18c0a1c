package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fern/host"
	"fern/report"
	"fern/walk"
	"fern/wasm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fibSource = `
func fib(n)
    a = 0
    b = 1
    i = 0
    loop while i < n
        t = a + b
        a = b
        b = t
        i += 1
    return a
print(fib(10))`

func run(t *testing.T, src string, opts Options) []float64 {
	t.Helper()

	res, err := Compile(src, "t.fern", 1, opts)
	require.NoError(t, err)

	out, err := host.Run(context.Background(), res.Bytes, host.Config{})
	require.NoError(t, err)
	return out.Values
}

func TestCompileAndRun(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []float64
	}{
		{"fib", fibSource, []float64{55}},
		{"recursion", `
func fact(n)
    return if n < 2 do 1 else n * fact(n - 1)
print(fact(5))`, []float64{120}},
		{"mod", "print(7 % 3)\nprint(-7 % 3)\nprint(7.5 % 2)", []float64{1, 2, 1.5}},
		{"break and continue", `
i = 0
s = 0
loop
    i += 1
    if i > 9
        break
    if i % 2 == 0
        continue
    s += i
print(s)`, []float64{25}},
		{"if chain", `
func sign(x)
    if x < 0
        return -1
    elseif x == 0
        return 0
    else
        return 1
print(sign(-4))
print(sign(0))
print(sign(9))`, []float64{-1, 0, 1}},
		{"nested functions", `
func outer(x)
    func twice(y)
        return y * 2
    return twice(x) + 1
print(outer(20))`, []float64{41}},
		{"chained operators", "print(1 + 2 + 3 + 4)\nprint(2 * 3 * 4)\nprint(10 - 2 - 3)", []float64{10, 24, 5}},
		{"comparisons as values", "x = 3 > 2\nprint(x + (1 == 2))", []float64{1}},
		{"builtins", "print(max(3, abs(-8)))\nprint(sqrt(16) + floor(2.7))", []float64{8, 6}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, run(t, c.src, DefaultOptions()))

			noInline := DefaultOptions()
			noInline.Inline = false
			assert.Equal(t, c.want, run(t, c.src, noInline))
		})
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	first, err := Compile(fibSource, "t.fern", 1, DefaultOptions())
	require.NoError(t, err)

	second, err := Compile(fibSource, "t.fern", 1, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first.Bytes, second.Bytes)
}

func TestCompileResult(t *testing.T) {
	res, err := Compile(fibSource, "t.fern", 1, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Functions, 2)
	assert.Equal(t, walk.MainName, res.Functions[0].Name)
	assert.Equal(t, uint32(2), res.Functions[0].Index)
	assert.False(t, res.Functions[0].Exported)
	assert.Equal(t, "fib", res.Functions[1].Name)
	assert.True(t, res.Functions[1].Exported)
	assert.Equal(t, "(f64) -> (f64)", res.Functions[1].Type.String())

	m, err := wasm.Decode(res.Bytes)
	require.NoError(t, err)

	exports, ok := m.Section(wasm.SectionExport).(*wasm.ExportSection)
	require.True(t, ok)
	require.Len(t, exports.Exports, 1)
	assert.Equal(t, "fib", exports.Exports[0].Name)
	assert.Equal(t, uint32(3), exports.Exports[0].Index)

	start, ok := m.Section(wasm.SectionStart).(*wasm.StartSection)
	require.True(t, ok)
	assert.Equal(t, uint32(2), start.Index)
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		src  string
		kind report.Kind
	}{
		{"x = (1", report.KindSyntax},
		{"if 1\nprint(2)", report.KindSyntax},
		{"func f()\n  return 1\nfunc f()\n  return 2", report.KindSemantic},
		{"print(y)", report.KindSemantic},
	}

	for _, c := range cases {
		res, err := Compile(c.src, "t.fern", 1, DefaultOptions())
		assert.Nil(t, res)
		require.Error(t, err, c.src)

		cerr, ok := report.AsError(err)
		require.True(t, ok)
		assert.Equal(t, c.kind, cerr.Kind, c.src)
		assert.Equal(t, "t.fern", cerr.Pos.File)
	}
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fib.fern")
	require.NoError(t, os.WriteFile(path, []byte(fibSource), 0o644))

	res, err := CompileFile(path, DefaultOptions())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Bytes)

	_, err = CompileFile(filepath.Join(t.TempDir(), "missing.fern"), DefaultOptions())
	assert.ErrorContains(t, err, "reading source file")
}
