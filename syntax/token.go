package syntax

import (
	"fmt"

	"fern/report"
)

// Token represents a single lexical token.
type Token struct {
	// The kind of the token.  This must be one of the enumerated token kinds.
	Kind TokenKind

	// The source text of the token.  For line start tokens this is the
	// leading whitespace of the line.
	Value string

	File      string
	Line, Col int
}

// Pos returns the token's source position.
func (t *Token) Pos() report.Pos {
	return report.Pos{File: t.File, Line: t.Line, Col: t.Col}
}

func (t *Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Value, t.Line, t.Col)
}

// Is reports whether the token has the given kind and value.
func (t *Token) Is(kind TokenKind, value string) bool {
	return t.Kind == kind && t.Value == value
}

// TokenKind is the kind of a token.
type TokenKind int

// Enumeration of token kinds.
const (
	Identifier TokenKind = iota
	Keyword
	Number
	String
	Operator
	AssignOp
	Bracket
	Sep
	Comment
	LineStart
	Instruction
	Unknown
	EOF
)

var tokenKindNames = [...]string{
	"identifier", "keyword", "number", "string", "operator", "assign",
	"bracket", "sep", "comment", "linestart", "instruction", "unknown", "eof",
}

func (k TokenKind) String() string {
	return tokenKindNames[k]
}

// keywords is the closed keyword set.  Identifiers matching one of these are
// always classified as keywords even where the parser does not use them.
var keywords = map[string]struct{}{
	"import": {}, "export": {}, "type": {}, "func": {}, "return": {},
	"loop": {}, "while": {}, "if": {}, "elseif": {}, "else": {},
	"with": {}, "do": {}, "continue": {}, "break": {}, "try": {},
	"catch": {}, "finally": {}, "throw": {}, "assert": {}, "in": {},
	"as": {}, "and": {}, "or": {}, "not": {}, "true": {}, "false": {},
}

// IsKeyword reports whether name is a reserved keyword.
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}
