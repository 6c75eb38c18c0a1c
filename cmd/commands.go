package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"fern/build"
	"fern/config"
	"fern/generate"
	"fern/host"
	"fern/report"
	"fern/server"
	"fern/toys"
	"fern/wasm"

	"github.com/ComedicChimera/olive"
	"github.com/spf13/cast"
)

// execBuildCommand executes the build subcommand and handles all errors
func execBuildCommand(result *olive.ArgParseResult, loglevel string) bool {
	srcPath, _ := result.PrimaryArg()

	cfg, ok := loadConfig(filepath.Dir(srcPath), loglevel)
	if !ok {
		return false
	}

	if output, ok := result.Arguments["output"].(string); ok && output != "" {
		cfg.Build.Output = output
	}

	if emit, ok := result.Arguments["emit"].(string); ok && emit != "" {
		cfg.Build.Emit = emit
	}

	report.ReportCompileHeader(Version, srcPath)

	res, ok := compileFile(srcPath, cfg, result, true)
	if !ok {
		report.ReportCompilationFinished("")
		return false
	}

	var out []byte
	switch cfg.Build.Emit {
	case config.EmitLLVM:
		report.BeginPhase("Generating LLVM")

		mod, err := generate.Generate(res.Program)
		if err != nil {
			reportCompileError(err, "")
			report.ReportCompilationFinished("")
			return false
		}

		report.EndPhase(true)
		out = []byte(mod.String())
	case config.EmitDis:
		out = []byte(wasm.Disassemble(res.Program.Module()))
	default:
		out = res.Bytes
	}

	outPath := cfg.OutputPath(srcPath)
	if err := os.WriteFile(outPath, out, 0644); err != nil {
		report.ReportError("Output Error", err)
		report.ReportCompilationFinished("")
		return false
	}

	report.ReportCompilationFinished(outPath)
	return true
}

// execRunCommand compiles a source file and runs it.  Printed values go to
// stdout.
func execRunCommand(result *olive.ArgParseResult, loglevel string) bool {
	srcPath, _ := result.PrimaryArg()

	cfg, ok := loadConfig(filepath.Dir(srcPath), loglevel)
	if !ok {
		return false
	}

	res, ok := compileFile(srcPath, cfg, result, false)
	if !ok {
		return false
	}

	entry := ""
	if e, ok := result.Arguments["entry"].(string); ok {
		entry = e
	}

	return runModule(res.Bytes, entry)
}

// execDisCommand prints the disassembly of a source file.
func execDisCommand(result *olive.ArgParseResult, loglevel string) bool {
	srcPath, _ := result.PrimaryArg()

	cfg, ok := loadConfig(filepath.Dir(srcPath), loglevel)
	if !ok {
		return false
	}

	res, ok := compileFile(srcPath, cfg, result, false)
	if !ok {
		return false
	}

	fmt.Print(wasm.Disassemble(res.Program.Module()))
	return true
}

// execToyCommand compiles and runs a program in one of the toy languages.
func execToyCommand(result *olive.ArgParseResult, loglevel string) bool {
	srcPath, _ := result.PrimaryArg()

	if _, ok := loadConfig(filepath.Dir(srcPath), loglevel); !ok {
		return false
	}

	text, err := os.ReadFile(srcPath)
	if err != nil {
		report.ReportError("File Error", err)
		return false
	}

	var (
		prog  *wasm.Program
		entry string
	)
	switch lang, _ := result.Arguments["lang"].(string); lang {
	case "brainfuck":
		prog, err = toys.Brainfuck(string(text))
	case "calc":
		prog, err = toys.Calc(string(text))
		entry = "main"
	default:
		report.ReportError("CLI Usage Error", fmt.Errorf("unknown toy language `%s`", lang))
		return false
	}

	if err != nil {
		reportCompileError(err, string(text))
		return false
	}

	b, err := prog.Encode()
	if err != nil {
		reportCompileError(err, "")
		return false
	}

	return runModule(b, entry)
}

// execServeCommand runs the playground server until interrupted.
func execServeCommand(result *olive.ArgParseResult, loglevel string) bool {
	workDir, err := os.Getwd()
	if err != nil {
		report.ReportError("Path Error", err)
		return false
	}

	cfg, ok := loadConfig(workDir, loglevel)
	if !ok {
		return false
	}

	if addr, ok := result.Arguments["addr"].(string); ok && addr != "" {
		cfg.Serve.Addr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg).ListenAndServe(ctx); err != nil {
		report.ReportError("Server Error", err)
		return false
	}

	return true
}

// -----------------------------------------------------------------------------

// loadConfig loads the configuration from dir and initializes the reporter.
// The log level given on the command line wins over the configured one.
func loadConfig(dir, loglevel string) (*config.Config, bool) {
	cfg, err := config.Load(dir)
	if err != nil {
		report.InitReporter(loglevel)
		report.ReportError("Config Error", err)
		return nil, false
	}

	if loglevel != "" {
		cfg.LogLevel = loglevel
	}

	report.InitReporter(cfg.LogLevel)
	return cfg, true
}

// compileFile compiles a source file with the build options of the
// configuration and the inlining arguments of the command.
func compileFile(srcPath string, cfg *config.Config, result *olive.ArgParseResult, showPhases bool) (*build.Result, bool) {
	opts := build.Options{
		Inline:          cfg.Build.Inline && !result.HasFlag("no-inline"),
		InlineThreshold: cfg.Build.InlineThreshold,
		ShowPhases:      showPhases,
	}

	if t, ok := result.Arguments["threshold"].(string); ok && t != "" {
		threshold, err := cast.ToIntE(t)
		if err != nil || threshold < 1 {
			report.ReportError("CLI Usage Error", fmt.Errorf("invalid inline threshold: %s", t))
			return nil, false
		}

		opts.InlineThreshold = threshold
	}

	text, err := os.ReadFile(srcPath)
	if err != nil {
		report.ReportError("File Error", err)
		return nil, false
	}

	res, err := build.Compile(string(text), srcPath, 1, opts)
	if err != nil {
		reportCompileError(err, string(text))
		return nil, false
	}

	return res, true
}

// reportCompileError reports an error returned by one of the compilation
// stages.
func reportCompileError(err error, source string) {
	if cerr, ok := report.AsError(err); ok {
		report.ReportCompileError(cerr, source, 1)
	} else {
		report.ReportError("Internal Error", err)
	}
}

// runModule runs a compiled module with its output going to stdout.
func runModule(module []byte, entry string) bool {
	out, err := host.Run(context.Background(), module, host.Config{Stdout: os.Stdout, Entry: entry})
	if err != nil {
		report.ReportError("Runtime Error", err)
		return false
	}

	for _, v := range out.Results {
		report.PrintInfoMessage("Result", host.FormatNumber(v))
	}

	return true
}
