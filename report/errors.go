package report

import (
	"errors"
	"fmt"
)

// Pos is a position in a source file.  Lines and columns are one-indexed: the
// tokenizer starts counting lines from the offset it was given.
type Pos struct {
	File      string
	Line, Col int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}

	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// -----------------------------------------------------------------------------

// Kind classifies a compilation error.
type Kind int

// Enumeration of error kinds.
const (
	// KindSyntax errors are raised by the tokenizer and parser.
	KindSyntax Kind = iota

	// KindSemantic errors are raised while building contexts and generating
	// code: unresolved names, bad arity, misplaced control flow.
	KindSemantic

	// KindAssembler errors are internal consistency failures: an unknown
	// opcode, an immediate of the wrong type, an unbalanced scope stack.  They
	// always indicate a bug in the compiler rather than in the input.
	KindAssembler
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindSemantic:
		return "semantic"
	default:
		return "assembler"
	}
}

// Error is a compilation error.  It is the only error type that leaves the
// compiler's phases: every other failure is converted into one of these.
type Error struct {
	Kind    Kind
	Pos     Pos
	Message string

	// HasPos is false for errors that have no meaningful location.
	HasPos bool
}

func (e *Error) Error() string {
	if e.HasPos {
		return fmt.Sprintf("%s: %s error: %s", e.Pos, e.Kind, e.Message)
	}

	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Raise creates a new positioned compile error.
func Raise(kind Kind, pos Pos, msg string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(msg, args...), HasPos: true}
}

// ICE panics with an internal compiler error.  It must only be called inside a
// phase guarded by CatchErrors.
func ICE(msg string, args ...interface{}) {
	panic(&Error{Kind: KindAssembler, Message: fmt.Sprintf(msg, args...)})
}

// AsError extracts a compile error from an error chain.
func AsError(err error) (*Error, bool) {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr, true
	}

	return nil, false
}

// -----------------------------------------------------------------------------

// CatchErrors catches any error thrown by a `panic` during a phase of
// compilation and stores it in err.  Compile errors are stored as is; any
// other panic value is an internal error.
// NB: This function must ALWAYS be deferred.
func CatchErrors(err *error) {
	if x := recover(); x != nil {
		switch v := x.(type) {
		case *Error:
			*err = v
		case error:
			*err = &Error{Kind: KindAssembler, Message: "internal compiler error: " + v.Error()}
		default:
			*err = &Error{Kind: KindAssembler, Message: fmt.Sprintf("internal compiler error: %v", v)}
		}
	}
}
