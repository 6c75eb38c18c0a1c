package syntax

import (
	"strings"
	"unicode"
)

// Lexer is responsible for tokenizing a source text.  It works over the whole
// text in memory and never fails: characters it does not understand become
// unknown tokens so that the parser can report them with a position.
type Lexer struct {
	src  []rune
	file string

	pos       int
	line, col int

	// The position of the start of the token being lexed.
	startPos, startLine, startCol int

	tokens []*Token
}

// Tokenize converts source text into tokens.  The file name and the starting
// line number are only used to position tokens.
func Tokenize(text, file string, line int) []*Token {
	l := &Lexer{
		src:  []rune(text),
		file: file,
		line: line,
		col:  1,
	}

	l.lex()
	return l.tokens
}

// lex runs the lexer to the end of the text.
func (l *Lexer) lex() {
	atLineStart := true

	for {
		if atLineStart {
			if !l.lexLineStart() {
				break
			}

			atLineStart = false
		}

		c, ok := l.peek()
		if !ok {
			break
		}

		switch {
		case c == '\n':
			l.skip()
			atLineStart = true
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.skip()
		case c == '#':
			l.skipComment()
		case c == '"' || c == '\'':
			l.lexString(c)
		case isDecimalDigit(c):
			l.lexNumber()
		case isFirstIdentChar(c):
			l.lexIdentOrKeyword()
		case c == '@':
			l.lexInstruction()
		default:
			l.lexPunctOrOper()
		}
	}

	l.mark()
	l.makeToken(EOF)
}

// lexLineStart consumes the indentation of a line and emits a line start
// token for it.  Blank and comment-only lines are consumed entirely and emit
// nothing.  It returns false at the end of the text.
func (l *Lexer) lexLineStart() bool {
	for {
		l.mark()
		for {
			c, ok := l.peek()
			if !ok || (c != ' ' && c != '\t' && c != '\r') {
				break
			}
			l.eat()
		}

		c, ok := l.peek()
		switch {
		case !ok:
			return false
		case c == '\n':
			l.skip()
		case c == '#':
			l.skipComment()
		default:
			// Trailing carriage returns are not part of the indentation.
			tok := l.makeToken(LineStart)
			tok.Value = strings.TrimRight(tok.Value, "\r")
			tok.Col = 1
			return true
		}
	}
}

// skipComment skips to the end of the line, leaving the newline.
func (l *Lexer) skipComment() {
	for {
		c, ok := l.peek()
		if !ok || c == '\n' {
			return
		}
		l.skip()
	}
}

// -----------------------------------------------------------------------------

// lexString lexes a string literal delimited by quote.  A string runs to the
// end of its line unless the next line's first non-blank character is the
// same quote, in which case it continues after that quote.  Unterminated
// strings are returned as they are.
func (l *Lexer) lexString(quote rune) {
	l.mark()
	l.eat()

	for {
		c, ok := l.peek()
		if !ok {
			break
		}

		switch c {
		case '\\':
			l.eat()
			if c, ok := l.peek(); ok && c != '\n' {
				l.eat()
			}
			continue
		case quote:
			l.eat()
			l.makeToken(String)
			return
		case '\n':
			if !l.continuesString(quote) {
				l.makeToken(String)
				return
			}

			// Consume the newline, the indentation and the opening quote of
			// the continuation.
			l.eat()
			for {
				c, _ := l.peek()
				l.eat()
				if c == quote {
					break
				}
			}
			continue
		}

		l.eat()
	}

	l.makeToken(String)
}

// continuesString looks past the newline at the current position to see if
// the next line opens with quote.
func (l *Lexer) continuesString(quote rune) bool {
	for i := l.pos + 1; i < len(l.src); i++ {
		switch l.src[i] {
		case ' ', '\t', '\r':
			continue
		case quote:
			return true
		default:
			return false
		}
	}

	return false
}

// lexNumber lexes a numeric literal: digits, one optional fractional part and
// an optional exponent with an optional sign.  Hexadecimal integers are
// written with a leading 0x.
func (l *Lexer) lexNumber() {
	l.mark()
	first := l.eat()

	if first == '0' {
		if c, ok := l.peek(); ok && (c == 'x' || c == 'X') {
			if d, ok := l.peekAt(1); ok && isHexDigit(d) {
				l.eat()
				for {
					c, ok := l.peek()
					if !ok || !isHexDigit(c) {
						break
					}
					l.eat()
				}

				l.makeToken(Number)
				return
			}
		}
	}

	canHaveDot := true
	for {
		c, ok := l.peek()
		if !ok {
			break
		}

		if isDecimalDigit(c) {
			l.eat()
		} else if c == '.' && canHaveDot {
			canHaveDot = false
			l.eat()
		} else if c == 'e' || c == 'E' {
			d1, ok1 := l.peekAt(1)
			d2, ok2 := l.peekAt(2)

			if ok1 && isDecimalDigit(d1) {
				l.eat()
			} else if ok1 && ok2 && (d1 == '+' || d1 == '-') && isDecimalDigit(d2) {
				l.eat()
				l.eat()
			} else {
				break
			}

			canHaveDot = false
		} else {
			break
		}
	}

	l.makeToken(Number)
}

// lexIdentOrKeyword lexes an identifier or a keyword.
func (l *Lexer) lexIdentOrKeyword() {
	l.mark()
	l.eat()

	for {
		c, ok := l.peek()
		if !ok || !isIdentChar(c) {
			break
		}
		l.eat()
	}

	tok := l.makeToken(Identifier)
	if IsKeyword(tok.Value) {
		tok.Kind = Keyword
	}
}

// lexInstruction lexes a compiler instruction such as `@@wasm.f64.sqrt`.  A
// lone `@` is an unknown token.
func (l *Lexer) lexInstruction() {
	l.mark()
	l.eat()

	if c, ok := l.peek(); !ok || c != '@' {
		l.makeToken(Unknown)
		return
	}
	l.eat()

	for {
		c, ok := l.peek()
		if !ok || !(isIdentChar(c) || c == '.') {
			break
		}
		l.eat()
	}

	l.makeToken(Instruction)
}

// -----------------------------------------------------------------------------

// twoCharOperators are matched before the single character operators.
var twoCharOperators = map[string]TokenKind{
	"==": Operator,
	"!=": Operator,
	">=": Operator,
	"<=": Operator,
	"+=": AssignOp,
	"-=": AssignOp,
	"*=": AssignOp,
	"/=": AssignOp,
}

const (
	oneCharOperators = "+-*/^%!&|><~"
	brackets         = "()[]{}"
)

// lexPunctOrOper lexes an operator, bracket or separator.
func (l *Lexer) lexPunctOrOper() {
	l.mark()
	c := l.eat()

	if next, ok := l.peek(); ok {
		if kind, ok := twoCharOperators[string([]rune{c, next})]; ok {
			l.eat()
			l.makeToken(kind)
			return
		}
	}

	switch {
	case c == '=':
		l.makeToken(AssignOp)
	case c == ',':
		l.makeToken(Sep)
	case strings.ContainsRune(brackets, c):
		l.makeToken(Bracket)
	case strings.ContainsRune(oneCharOperators, c):
		l.makeToken(Operator)
	default:
		l.makeToken(Unknown)
	}
}

// -----------------------------------------------------------------------------

// mark marks the beginning of a token.
func (l *Lexer) mark() {
	l.startPos = l.pos
	l.startLine = l.line
	l.startCol = l.col
}

// makeToken creates a token from the text between the mark and the current
// position and appends it to the token list.
func (l *Lexer) makeToken(kind TokenKind) *Token {
	tok := &Token{
		Kind:  kind,
		Value: string(l.src[l.startPos:l.pos]),
		File:  l.file,
		Line:  l.startLine,
		Col:   l.startCol,
	}

	l.tokens = append(l.tokens, tok)
	return tok
}

// peek returns the current character without consuming it.
func (l *Lexer) peek() (rune, bool) {
	return l.peekAt(0)
}

// peekAt returns the character n places ahead of the current one.
func (l *Lexer) peekAt(n int) (rune, bool) {
	if l.pos+n < len(l.src) {
		return l.src[l.pos+n], true
	}

	return 0, false
}

// eat consumes the current character as part of the current token.
func (l *Lexer) eat() rune {
	c := l.src[l.pos]
	l.pos++

	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	return c
}

// skip consumes the current character without including it in a token.
func (l *Lexer) skip() {
	l.eat()
	l.mark()
}

// -----------------------------------------------------------------------------

func isDecimalDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c rune) bool {
	return isDecimalDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isFirstIdentChar(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isIdentChar(c rune) bool {
	return isFirstIdentChar(c) || unicode.IsDigit(c)
}
