package syntax

import (
	"fern/ast"
	"fern/report"
)

// Parser converts a token stream into an AST.  Statements and blocks are
// parsed by recursive descent; expressions are parsed with an explicit stack
// of bracket frames, each collecting a pending chain of operands and
// operators that is resolved by precedence when the frame closes.  All
// parsing functions assume they begin on the first token of their production
// and leave the parser on the token after it.  Errors are raised by panicking
// with a syntax error which Parse catches.
type Parser struct {
	tokens []*Token
	ndx    int

	// tok is the current token the parser is positioned on.
	tok *Token

	tree *ast.Tree

	// indents is the stack of enclosing indentation levels.  The bottom entry
	// is the indentation of the first line.
	indents []string

	// chained maps calls built from an associative operator to the name of
	// that operator so that runs like `a + b + c` collapse into one call.
	// Calls written out by the user are never extended.
	chained map[ast.NodeID]string
}

// Parse parses a token stream into a tree and returns the root block.  No
// partial tree is returned on error.
func Parse(tokens []*Token) (tree *ast.Tree, root ast.NodeID, err error) {
	defer func() {
		if err != nil {
			tree, root = nil, ast.NoNode
		}
	}()
	defer report.CatchErrors(&err)

	p := newParser(tokens)
	root = p.parseFile()
	return p.tree, root, nil
}

// ParseSource tokenizes and parses a source text.
func ParseSource(text, file string, line int) (*ast.Tree, ast.NodeID, error) {
	return Parse(Tokenize(text, file, line))
}

func newParser(tokens []*Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != EOF {
		eof := &Token{Kind: EOF, Line: 1, Col: 1}
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			eof.File, eof.Line, eof.Col = last.File, last.Line, last.Col+len([]rune(last.Value))
		}

		tokens = append(tokens[:len(tokens):len(tokens)], eof)
	}

	return &Parser{
		tokens:  tokens,
		tok:     tokens[0],
		tree:    ast.NewTree(),
		chained: make(map[ast.NodeID]string),
	}
}

// -----------------------------------------------------------------------------

// next moves the parser forward one token.  The parser never moves past the
// final EOF token.
func (p *Parser) next() {
	if p.ndx < len(p.tokens)-1 {
		p.ndx++
		p.tok = p.tokens[p.ndx]
	}
}

// lookahead returns the token after the current one.
func (p *Parser) lookahead() *Token {
	if p.ndx < len(p.tokens)-1 {
		return p.tokens[p.ndx+1]
	}

	return p.tok
}

// got returns true if the parser is on a token of a given kind.
func (p *Parser) got(kind TokenKind) bool {
	return p.tok.Kind == kind
}

// gotKeyword returns true if the parser is on the given keyword.
func (p *Parser) gotKeyword(kw string) bool {
	return p.tok.Is(Keyword, kw)
}

// atLineEnd returns true if the current statement cannot continue.
func (p *Parser) atLineEnd() bool {
	return p.got(LineStart) || p.got(EOF)
}

// want asserts that the parser is on a token of a given kind and value,
// rejects the token if not, and moves forward.
func (p *Parser) want(kind TokenKind, value string) *Token {
	if !p.tok.Is(kind, value) {
		p.rejectWithMsg("expected `%s`", value)
	}

	tok := p.tok
	p.next()
	return tok
}

// wantKind asserts that the parser is on a token of a given kind and moves
// forward.
func (p *Parser) wantKind(kind TokenKind) *Token {
	if !p.got(kind) {
		p.rejectWithMsg("expected %s", kind)
	}

	tok := p.tok
	p.next()
	return tok
}

// -----------------------------------------------------------------------------

// reject raises an unexpected token error on the current token.
func (p *Parser) reject() {
	p.errorOn(p.tok, "unexpected %s", describe(p.tok))
}

// rejectWithMsg raises an error on the current token, suffixing the message
// with a description of the token.
func (p *Parser) rejectWithMsg(msg string, args ...interface{}) {
	args = append(args, describe(p.tok))
	p.errorOn(p.tok, msg+", got %s", args...)
}

// errorOn raises a syntax error positioned at a given token.
func (p *Parser) errorOn(tok *Token, msg string, args ...interface{}) {
	p.errorAt(tok.Pos(), msg, args...)
}

// errorAt raises a syntax error at a given position.
func (p *Parser) errorAt(pos report.Pos, msg string, args ...interface{}) {
	panic(report.Raise(report.KindSyntax, pos, msg, args...))
}

func describe(tok *Token) string {
	switch tok.Kind {
	case LineStart:
		return "newline"
	case EOF:
		return "end of file"
	case Unknown:
		return "character `" + tok.Value + "`"
	case Keyword:
		return "keyword `" + tok.Value + "`"
	default:
		return "`" + tok.Value + "`"
	}
}
