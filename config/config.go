package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"github.com/spf13/cast"
)

// FileName is the name of the project configuration file.
const FileName = "fern.toml"

// Emit formats.
const (
	EmitWasm = "wasm"
	EmitLLVM = "llvm"
	EmitDis  = "dis"
)

// emitExtensions maps each emit format to the extension of its output file.
var emitExtensions = map[string]string{
	EmitWasm: ".wasm",
	EmitLLVM: ".ll",
	EmitDis:  ".wat.txt",
}

// Build holds the `[build]` table.
type Build struct {
	Inline          bool
	InlineThreshold int

	// Output is the output path.  Empty derives it from the source path.
	Output string

	Emit string
}

// Serve holds the `[serve]` table.
type Serve struct {
	Addr           string
	RateLimit      int
	RateWindow     time.Duration
	AllowedOrigins []string

	// RunTimeout bounds the execution of programs run by the server.
	RunTimeout time.Duration
}

// Config is the complete configuration of the compiler and the playground
// server.
type Config struct {
	LogLevel string
	Build    Build
	Serve    Serve
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		LogLevel: "verbose",
		Build: Build{
			Inline:          true,
			InlineThreshold: 16,
			Emit:            EmitWasm,
		},
		Serve: Serve{
			Addr:           ":8080",
			RateLimit:      60,
			RateWindow:     time.Minute,
			AllowedOrigins: []string{"*"},
			RunTimeout:     2 * time.Second,
		},
	}
}

// Load loads the configuration for the project in dir.  The defaults are
// overridden first by dir's fern.toml, then by the environment.  A `.env` file
// in dir is loaded into the environment first; variables already set win.
// Neither file needs to exist.
func Load(dir string) (*Config, error) {
	c := Default()

	buff, err := os.ReadFile(filepath.Join(dir, FileName))
	if err == nil {
		if err := c.applyFile(buff); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", FileName, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading %s: %w", FileName, err)
	}

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// -----------------------------------------------------------------------------

// setting binds a configuration key to the field it sets.
type setting struct {
	key string
	env string
	set func(c *Config, v interface{}) error
}

var settings = []setting{
	{"log-level", "FERN_LOG_LEVEL", func(c *Config, v interface{}) (err error) {
		c.LogLevel, err = cast.ToStringE(v)
		return
	}},
	{"build.inline", "FERN_INLINE", func(c *Config, v interface{}) (err error) {
		c.Build.Inline, err = cast.ToBoolE(v)
		return
	}},
	{"build.inline-threshold", "FERN_INLINE_THRESHOLD", func(c *Config, v interface{}) (err error) {
		c.Build.InlineThreshold, err = cast.ToIntE(v)
		return
	}},
	{"build.output", "FERN_OUTPUT", func(c *Config, v interface{}) (err error) {
		c.Build.Output, err = cast.ToStringE(v)
		return
	}},
	{"build.emit", "FERN_EMIT", func(c *Config, v interface{}) (err error) {
		c.Build.Emit, err = cast.ToStringE(v)
		return
	}},
	{"serve.addr", "FERN_ADDR", func(c *Config, v interface{}) (err error) {
		c.Serve.Addr, err = cast.ToStringE(v)
		return
	}},
	{"serve.rate-limit", "FERN_RATE_LIMIT", func(c *Config, v interface{}) (err error) {
		c.Serve.RateLimit, err = cast.ToIntE(v)
		return
	}},
	{"serve.rate-window", "FERN_RATE_WINDOW", func(c *Config, v interface{}) (err error) {
		c.Serve.RateWindow, err = cast.ToDurationE(v)
		return
	}},
	{"serve.allowed-origins", "FERN_ALLOWED_ORIGINS", func(c *Config, v interface{}) (err error) {
		if s, ok := v.(string); ok {
			v = strings.Split(s, ",")
		}

		c.Serve.AllowedOrigins, err = cast.ToStringSliceE(v)
		return
	}},
	{"serve.run-timeout", "FERN_RUN_TIMEOUT", func(c *Config, v interface{}) (err error) {
		c.Serve.RunTimeout, err = cast.ToDurationE(v)
		return
	}},
}

// applyFile applies the settings present in a TOML document.
func (c *Config) applyFile(buff []byte) error {
	tree, err := toml.LoadBytes(buff)
	if err != nil {
		return err
	}

	for _, s := range settings {
		if !tree.Has(s.key) {
			continue
		}

		if err := s.set(c, tree.Get(s.key)); err != nil {
			return fmt.Errorf("invalid value for `%s`: %w", s.key, err)
		}
	}

	return nil
}

// applyEnv applies the settings present in the environment.
func (c *Config) applyEnv() error {
	for _, s := range settings {
		v, ok := os.LookupEnv(s.env)
		if !ok || v == "" {
			continue
		}

		if err := s.set(c, v); err != nil {
			return fmt.Errorf("invalid value for %s: %w", s.env, err)
		}
	}

	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, ok := emitExtensions[c.Build.Emit]; !ok {
		return fmt.Errorf("unknown emit format `%s`", c.Build.Emit)
	}

	if c.Build.InlineThreshold < 1 {
		return fmt.Errorf("inline threshold must be positive, got %d", c.Build.InlineThreshold)
	}

	if c.Serve.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %d", c.Serve.RateLimit)
	}

	if c.Serve.RateWindow <= 0 {
		return fmt.Errorf("rate window must be positive, got %s", c.Serve.RateWindow)
	}

	return nil
}

// OutputPath returns where the output for a source file goes.  The configured
// output wins; otherwise the output sits next to the source and is named
// after it.
func (c *Config) OutputPath(srcPath string) string {
	if c.Build.Output != "" {
		return c.Build.Output
	}

	return filepath.Join(filepath.Dir(srcPath), OutputName(srcPath, c.Build.Emit))
}

// OutputName derives a file name for the output of a source file in the given
// emit format.
func OutputName(srcPath, emit string) string {
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))

	name := slug.Make(base)
	if name == "" {
		name = "out"
	}

	ext, ok := emitExtensions[emit]
	if !ok {
		ext = emitExtensions[EmitWasm]
	}

	return name + ext
}
