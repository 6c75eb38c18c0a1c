package cmd

import (
	"os"

	"fern/config"
	"fern/report"

	"github.com/ComedicChimera/olive"
)

// Version is the compiler version.
const Version = "0.1.0"

// Execute is the main entry point for the `fern` CLI utility
func Execute() {
	// set up the argument parser and all its extended commands and arguments
	cli := olive.NewCLI("fern", "fern compiles Fern programs to WebAssembly", true)
	cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, []string{"silent", "error", "warn", "verbose"})

	buildCmd := cli.AddSubcommand("build", "compile a source file", true)
	buildCmd.AddPrimaryArg("source-path", "the path to the source file", true)
	buildCmd.AddStringArg("output", "o", "the path of the output file", false)
	buildCmd.AddSelectorArg("emit", "e", "the output format", false, []string{config.EmitWasm, config.EmitLLVM, config.EmitDis})
	buildCmd.AddFlag("no-inline", "ni", "disable function inlining")
	buildCmd.AddStringArg("threshold", "t", "the weight at which functions stop being inlined", false)

	runCmd := cli.AddSubcommand("run", "compile and run a source file", true)
	runCmd.AddPrimaryArg("source-path", "the path to the source file", true)
	runCmd.AddStringArg("entry", "en", "an exported function to call after the program has run", false)
	runCmd.AddFlag("no-inline", "ni", "disable function inlining")
	runCmd.AddStringArg("threshold", "t", "the weight at which functions stop being inlined", false)

	disCmd := cli.AddSubcommand("dis", "print the disassembly of a source file", true)
	disCmd.AddPrimaryArg("source-path", "the path to the source file", true)
	disCmd.AddFlag("no-inline", "ni", "disable function inlining")
	disCmd.AddStringArg("threshold", "t", "the weight at which functions stop being inlined", false)

	toyCmd := cli.AddSubcommand("toy", "compile and run a toy language program", true)
	toyCmd.AddPrimaryArg("source-path", "the path to the toy program", true)
	toyCmd.AddSelectorArg("lang", "l", "the toy language", true, []string{"brainfuck", "calc"})

	serveCmd := cli.AddSubcommand("serve", "run the compiler playground server", true)
	serveCmd.AddStringArg("addr", "a", "the address to listen on", false)

	cli.AddSubcommand("version", "print the Fern version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		report.PrintErrorMessage("CLI Usage Error", err)
		os.Exit(2)
	}

	loglevel := ""
	if ll, ok := result.Arguments["loglevel"].(string); ok {
		loglevel = ll
	}

	// process the inputed command line
	ok := true
	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		ok = execBuildCommand(subResult, loglevel)
	case "run":
		ok = execRunCommand(subResult, loglevel)
	case "dis":
		ok = execDisCommand(subResult, loglevel)
	case "toy":
		ok = execToyCommand(subResult, loglevel)
	case "serve":
		ok = execServeCommand(subResult, loglevel)
	case "version":
		report.PrintInfoMessage("Fern Version", Version)
	}

	if !ok {
		os.Exit(1)
	}
}
