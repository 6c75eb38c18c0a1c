package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
log-level = "warn"

[build]
inline = false
inline-threshold = 32
emit = "llvm"

[serve]
addr = "127.0.0.1:9000"
rate-limit = 5
rate-window = "30s"
allowed-origins = ["https://play.example.org"]
`)

	c, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "warn", c.LogLevel)
	assert.False(t, c.Build.Inline)
	assert.Equal(t, 32, c.Build.InlineThreshold)
	assert.Equal(t, EmitLLVM, c.Build.Emit)
	assert.Equal(t, "127.0.0.1:9000", c.Serve.Addr)
	assert.Equal(t, 5, c.Serve.RateLimit)
	assert.Equal(t, 30*time.Second, c.Serve.RateWindow)
	assert.Equal(t, []string{"https://play.example.org"}, c.Serve.AllowedOrigins)

	// keys not in the file keep their defaults
	assert.Equal(t, 2*time.Second, c.Serve.RunTimeout)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "[build]\ninline-threshold = 32\n")
	writeFile(t, dir, ".env", "FERN_INLINE=false\nFERN_ADDR=:7000\n")
	t.Cleanup(func() { os.Unsetenv("FERN_INLINE") })

	t.Setenv("FERN_INLINE_THRESHOLD", "8")
	t.Setenv("FERN_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("FERN_ADDR", ":9999")

	c, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 8, c.Build.InlineThreshold)
	assert.False(t, c.Build.Inline)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.Serve.AllowedOrigins)

	// variables already in the environment win over .env
	assert.Equal(t, ":9999", c.Serve.Addr)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"syntax":    "[build\ninline = true",
		"type":      "[build]\ninline-threshold = \"lots\"",
		"emit":      "[build]\nemit = \"exe\"",
		"threshold": "[build]\ninline-threshold = 0",
		"window":    "[serve]\nrate-window = \"0s\"",
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, FileName, text)

			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestOutputPath(t *testing.T) {
	c := Default()
	assert.Equal(t, filepath.Join("src", "my-program.wasm"), c.OutputPath(filepath.Join("src", "My Program.fern")))

	c.Build.Emit = EmitLLVM
	assert.Equal(t, "fib.ll", OutputName("fib.fern", c.Build.Emit))
	assert.Equal(t, "out.wasm", OutputName("!!!.fern", "unknown"))

	c.Build.Output = "build/app.wasm"
	assert.Equal(t, "build/app.wasm", c.OutputPath("fib.fern"))
}
