package syntax

import (
	"strings"

	"fern/ast"
)

// file = {line_start statement}
func (p *Parser) parseFile() ast.NodeID {
	root := p.tree.New(ast.Block, "", p.tok.Pos())
	if p.got(EOF) {
		return root
	}

	if !p.got(LineStart) {
		p.reject()
	}

	// The first line fixes the outermost level so that indented snippets can
	// be compiled as they are.
	level := p.tok.Value
	p.indents = []string{level}

	p.parseLines(root, level)

	if !p.got(EOF) {
		p.reject()
	}

	return root
}

// parseLines parses statement lines at exactly the given indentation level
// and appends them to block.  It stops at EOF or on a line start that dedents
// to an enclosing level, leaving that line start for the caller.
func (p *Parser) parseLines(block ast.NodeID, level string) {
	for !p.got(EOF) {
		if !p.got(LineStart) {
			p.reject()
		}

		indent := p.tok.Value
		switch {
		case indent == level:
			p.next()
			p.tree.Append(block, p.parseStatement(level))

			if !p.atLineEnd() {
				p.reject()
			}
		case isDeeper(indent, level):
			p.errorOn(p.tok, "unexpected indentation")
		default:
			if !p.isEnclosingLevel(indent) {
				p.errorOn(p.tok, "dedent does not match any outer indentation level")
			}

			return
		}
	}
}

// isEnclosingLevel reports whether indent is one of the levels enclosing the
// innermost one.
func (p *Parser) isEnclosingLevel(indent string) bool {
	for _, level := range p.indents[:len(p.indents)-1] {
		if level == indent {
			return true
		}
	}

	return false
}

// isDeeper reports whether indent is strictly nested inside level.  Mixed
// indentation only nests if the outer level is a prefix of the inner one.
func isDeeper(indent, level string) bool {
	return len(indent) > len(level) && strings.HasPrefix(indent, level)
}

// body = 'do' statement | line_start(deeper) {line_start statement}
func (p *Parser) parseBody(level string) ast.NodeID {
	block := p.tree.New(ast.Block, "", p.tok.Pos())

	if p.gotKeyword("do") {
		p.next()
		if p.atLineEnd() {
			p.rejectWithMsg("expected a statement after `do`")
		}

		p.tree.Append(block, p.parseStatement(level))
		return block
	}

	if !p.got(LineStart) || !isDeeper(p.tok.Value, level) {
		p.rejectWithMsg("expected `do` or an indented block")
	}

	indent := p.tok.Value
	p.indents = append(p.indents, indent)
	p.parseLines(block, indent)
	p.indents = p.indents[:len(p.indents)-1]

	return block
}

// -----------------------------------------------------------------------------

// statement = func_def | 'return' expr | 'break' | 'continue' | loop | if
//           | expr [assign_op expr]
func (p *Parser) parseStatement(level string) ast.NodeID {
	if p.got(Keyword) {
		switch p.tok.Value {
		case "func":
			return p.parseFuncDef(level)
		case "return":
			pos := p.tok.Pos()
			p.next()
			if p.atLineEnd() {
				p.rejectWithMsg("expected a value to return")
			}

			return p.tree.New(ast.Return, "", pos, p.parseExpr(level))
		case "break":
			pos := p.tok.Pos()
			p.next()
			return p.tree.New(ast.Break, "", pos)
		case "continue":
			pos := p.tok.Pos()
			p.next()
			return p.tree.New(ast.Continue, "", pos)
		case "loop":
			return p.parseLoop(level)
		case "if":
			return p.parseIf(level)
		case "true", "false":
			// literals start expression statements
		case "elseif", "else":
			p.errorOn(p.tok, "`%s` without a matching `if`", p.tok.Value)
		default:
			p.errorOn(p.tok, "`%s` is not supported", p.tok.Value)
		}
	}

	return p.parseAssignOrExpr(level)
}

// assign_or_expr = expr [('=' | '+=' | '-=' | '*=' | '/=') expr]
func (p *Parser) parseAssignOrExpr(level string) ast.NodeID {
	target := p.parseExpr(level)
	if !p.got(AssignOp) {
		return target
	}

	opTok := p.tok
	if kind := p.tree.Kind(target); kind != ast.Ident && kind != ast.Index {
		p.errorOn(opTok, "can only assign to a name")
	}

	p.next()
	if p.atLineEnd() {
		p.rejectWithMsg("expected a value to assign")
	}

	value := p.parseExpr(level)

	if opTok.Value != "=" {
		// `a op= e` reads the target again: the read is a separate node.
		callee := p.tree.New(ast.Ident, opCallNames[opTok.Value[:1]], opTok.Pos())
		value = p.tree.New(ast.Call, "", opTok.Pos(), callee, p.tree.Clone(target, nil), value)
	}

	return p.tree.New(ast.Assign, "", opTok.Pos(), target, value)
}

// func_def = 'func' IDENTIFIER '(' [IDENTIFIER {',' IDENTIFIER}] ')' body
func (p *Parser) parseFuncDef(level string) ast.NodeID {
	pos := p.tok.Pos()
	p.next()

	name := p.wantKind(Identifier)
	p.want(Bracket, "(")

	params := p.tree.New(ast.Block, "", p.tok.Pos())
	if !p.tok.Is(Bracket, ")") {
		for {
			param := p.wantKind(Identifier)
			p.tree.Append(params, p.tree.New(ast.Ident, param.Value, param.Pos()))

			if p.got(Sep) {
				p.next()
				continue
			}

			break
		}
	}

	p.want(Bracket, ")")

	body := p.parseBody(level)
	return p.tree.New(ast.Func, name.Value, pos, params, body)
}

// loop = 'loop' ['while' expr] body
func (p *Parser) parseLoop(level string) ast.NodeID {
	pos := p.tok.Pos()
	p.next()

	if p.gotKeyword("while") {
		p.next()
		if p.atLineEnd() || p.gotKeyword("do") {
			p.rejectWithMsg("expected a loop condition")
		}

		test := p.parseExpr(level)
		body := p.parseBody(level)
		return p.tree.New(ast.Loop, "", pos, test, body)
	}

	return p.tree.New(ast.Loop, "", pos, p.parseBody(level))
}

// if = 'if' expr body [('elseif' expr body)* ['else' (body | statement)]]
//
// The `elseif` and `else` clauses may follow a one-line body directly or start
// a new line at the indentation of the `if`.  Each `elseif` nests a new if
// node inside the else block of the previous one.
func (p *Parser) parseIf(level string) ast.NodeID {
	pos := p.tok.Pos()
	p.next()

	if p.atLineEnd() || p.gotKeyword("do") {
		p.rejectWithMsg("expected a condition")
	}

	test := p.parseExpr(level)
	then := p.parseBody(level)
	node := p.tree.New(ast.If, "", pos, test, then)

	if p.got(LineStart) && p.tok.Value == level && isElseKeyword(p.lookahead()) {
		p.next()
	}

	switch {
	case p.gotKeyword("elseif"):
		elseBlock := p.tree.New(ast.Block, "", p.tok.Pos())
		p.tree.Append(elseBlock, p.parseIf(level))
		p.tree.Append(node, elseBlock)
	case p.gotKeyword("else"):
		p.next()

		var elseBlock ast.NodeID
		if p.gotKeyword("do") || p.got(LineStart) {
			elseBlock = p.parseBody(level)
		} else if p.got(EOF) {
			p.rejectWithMsg("expected a body for `else`")
		} else {
			elseBlock = p.tree.New(ast.Block, "", p.tok.Pos())
			p.tree.Append(elseBlock, p.parseStatement(level))
		}

		p.tree.Append(node, elseBlock)
	}

	return node
}

func isElseKeyword(tok *Token) bool {
	return tok.Is(Keyword, "elseif") || tok.Is(Keyword, "else")
}
