package walk

import (
	"strings"

	"fern/wasm"
)

// HostFunc is a primitive provided by the embedding host.  Host functions are
// imported by every module and occupy the first function indices.
type HostFunc struct {
	// Name is the name programs call the function by.
	Name string

	Module, Field string
	Type          wasm.FuncType
}

// HostFuncs is the fixed host capability table.  A function's position in this
// table is its function index.
var HostFuncs = []HostFunc{
	{
		Name:   "print",
		Module: "js",
		Field:  "print_ln",
		Type:   wasm.FuncType{Params: []wasm.ValType{wasm.F64}},
	},
	{
		Name:   "perf_counter",
		Module: "js",
		Field:  "perf_counter",
		Type:   wasm.FuncType{Results: []wasm.ValType{wasm.F64}},
	},
}

// LookupHost returns the index of the host function with the given name.
func LookupHost(name string) (uint32, bool) {
	for i, hf := range HostFuncs {
		if hf.Name == name {
			return uint32(i), true
		}
	}

	return 0, false
}

// Builtin describes a function the code generator lowers directly to
// instructions.
type Builtin struct {
	MinArgs int

	// MaxArgs is -1 if the builtin folds any number of arguments.
	MaxArgs int
}

// Builtins are the names lowered inline by the code generator.  The operator
// functions are the targets of the parser's operator calls.
var Builtins = map[string]Builtin{
	"add": {2, -1},
	"mul": {2, -1},
	"sub": {2, 2},
	"div": {2, 2},
	"mod": {2, 2},
	"neg": {1, 1},
	"eq":  {2, 2},
	"ne":  {2, 2},
	"lt":  {2, 2},
	"gt":  {2, 2},
	"le":  {2, 2},
	"ge":  {2, 2},
	"min": {2, 2},
	"max": {2, 2},

	"abs":     {1, 1},
	"sqrt":    {1, 1},
	"floor":   {1, 1},
	"ceil":    {1, 1},
	"trunc":   {1, 1},
	"nearest": {1, 1},
}

// InstructionPrefix marks a call to a raw instruction rather than a function.
const InstructionPrefix = "@@"

// IsReserved reports whether a function name belongs to the host, a builtin
// or a raw instruction and so cannot be defined by a program.
func IsReserved(name string) bool {
	if _, ok := LookupHost(name); ok {
		return true
	}

	if _, ok := Builtins[name]; ok {
		return true
	}

	return strings.HasPrefix(name, InstructionPrefix)
}

// -----------------------------------------------------------------------------

// IndexAllocator hands out function indices for one compilation.  The host
// imports are reserved first.
type IndexAllocator struct {
	next uint32
}

// NewIndexAllocator creates an allocator positioned after the host imports.
func NewIndexAllocator() *IndexAllocator {
	return &IndexAllocator{next: uint32(len(HostFuncs))}
}

// Next returns the next unused function index.
func (a *IndexAllocator) Next() uint32 {
	ndx := a.next
	a.next++
	return ndx
}
