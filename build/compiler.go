package build

import (
	"fmt"
	"os"

	"fern/ast"
	"fern/codegen"
	"fern/report"
	"fern/syntax"
	"fern/walk"
	"fern/wasm"
)

// Options configures a compilation.
type Options struct {
	// Inline enables the inliner.
	Inline bool

	// InlineThreshold bounds the weight of inlined functions.  Zero selects
	// the default.
	InlineThreshold int

	// ShowPhases displays a spinner for each phase through the reporter.
	ShowPhases bool
}

// DefaultOptions returns the options used by `fern build` with no flags.
func DefaultOptions() Options {
	return Options{Inline: true, InlineThreshold: walk.DefaultInlineThreshold}
}

// FuncInfo describes one compiled function.
type FuncInfo struct {
	Name         string
	Index        uint32
	Type         wasm.FuncType
	Exported     bool
	Locals       []string
	Instructions []wasm.Instruction
}

// Result is the output of a successful compilation.
type Result struct {
	// Bytes is the encoded module.
	Bytes []byte

	// Program is the assembler input the bytes were encoded from.
	Program *wasm.Program

	// Main is the context of the top-level code.  Every other context is one
	// of its descendants.
	Main *walk.Context

	// Functions lists the compiled functions in index order.
	Functions []FuncInfo
}

// Compile compiles a source text.  The file name and first line number are
// used for error positions only.  The returned error is always a
// *report.Error.
func Compile(source, file string, line int, opts Options) (res *Result, err error) {
	defer func() {
		if err != nil {
			res = nil
		}
	}()
	defer report.CatchErrors(&err)

	c := &compilation{source: source, file: file, line: line, opts: opts}
	return c.run()
}

// CompileFile reads and compiles a source file.
func CompileFile(path string, opts Options) (*Result, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source file: %w", err)
	}

	return Compile(string(text), path, 1, opts)
}

// -----------------------------------------------------------------------------

// compilation holds the state passed between the phases of one compilation.
type compilation struct {
	source string
	file   string
	line   int
	opts   Options

	tree *ast.Tree
	root ast.NodeID
	main *walk.Context
}

func (c *compilation) run() (*Result, error) {
	err := c.phase("Parsing", func() (err error) {
		c.tree, c.root, err = syntax.ParseSource(c.source, c.file, c.line)
		return
	})
	if err != nil {
		return nil, err
	}

	err = c.phase("Resolving", func() (err error) {
		c.main, err = walk.BuildContexts(c.tree, c.root, walk.NewIndexAllocator())
		return
	})
	if err != nil {
		return nil, err
	}

	err = c.phase("Generating", func() error {
		return codegen.Generate(c.main, codegen.Options{
			Inline:          c.opts.Inline,
			InlineThreshold: c.opts.InlineThreshold,
		})
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Main: c.main}
	err = c.phase("Assembling", func() (err error) {
		res.Program = c.assemble()
		res.Bytes, err = res.Program.Encode()
		return
	})
	if err != nil {
		return nil, err
	}

	for _, ctx := range c.main.All() {
		res.Functions = append(res.Functions, FuncInfo{
			Name:         ctx.Name,
			Index:        ctx.Index,
			Type:         ctx.Type(),
			Exported:     ctx.Exported,
			Locals:       ctx.Names,
			Instructions: ctx.Instructions,
		})
	}

	return res, nil
}

// phase runs one phase of the compilation, displaying it if requested.
func (c *compilation) phase(name string, f func() error) error {
	if c.opts.ShowPhases {
		report.BeginPhase(name)
	}

	err := f()

	if c.opts.ShowPhases {
		report.EndPhase(err == nil)
	}

	return err
}

// assemble builds the program for the generated contexts.  The host imports
// come first and the contexts follow in index order.
func (c *compilation) assemble() *wasm.Program {
	prog := &wasm.Program{Start: c.main.Index, HasStart: true}

	for _, hf := range walk.HostFuncs {
		prog.Imports = append(prog.Imports, wasm.ImportedFunc{
			Module: hf.Module,
			Name:   hf.Field,
			Type:   hf.Type,
		})
	}

	for i, ctx := range c.main.All() {
		if want := uint32(len(prog.Imports) + i); ctx.Index != want {
			report.ICE("function `%s` has index %d but is placed at %d", ctx.Name, ctx.Index, want)
		}

		prog.Functions = append(prog.Functions, wasm.Function{
			Name:   ctx.Name,
			Type:   ctx.Type(),
			Locals: ctx.LocalTypes(),
			Code:   ctx.Instructions,
			Export: ctx.Exported,
		})
	}

	return prog
}
