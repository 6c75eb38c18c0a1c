package syntax

import (
	"fern/ast"
)

// opCallNames maps each binary operator to the function its calls are lowered
// to.  The compound assignment operators use the entry for their first
// character.
var opCallNames = map[string]string{
	"+":  "add",
	"-":  "sub",
	"*":  "mul",
	"/":  "div",
	"%":  "mod",
	"==": "eq",
	"!=": "ne",
	">":  "gt",
	"<":  "lt",
	">=": "ge",
	"<=": "le",
}

// precedenceLevels lists the operator groups from tightest to loosest.  Each
// level is resolved left to right over the whole chain before the next.
var precedenceLevels = [][]string{
	{"*", "/", "%"},
	{"+", "-"},
	{"==", "!=", ">", "<", ">=", "<="},
}

// chainable operators collapse runs into a single call with many arguments.
var chainable = map[string]bool{"add": true, "mul": true}

// frameKind is the kind of bracket an expression frame was opened by.
type frameKind int

const (
	frameTop   frameKind = iota // the statement itself
	frameCall                   // `f(`
	frameIndex                  // `x[`
	frameGroup                  // `(`
)

// pendingItem is one link of a pending chain: either an operand node or an
// operator token.
type pendingItem struct {
	node ast.NodeID
	op   *Token
}

func (pi pendingItem) isOperand() bool {
	return pi.op == nil
}

// exprFrame collects the pending chain of one bracket level.
type exprFrame struct {
	kind frameKind

	// node is the call or index node being filled in.
	node ast.NodeID

	// open is the token that opened the frame.
	open *Token

	pending []pendingItem
}

func (f *exprFrame) lastIsOperand() bool {
	return len(f.pending) > 0 && f.pending[len(f.pending)-1].isOperand()
}

// parseExpr parses one expression.  The expression ends at a line start, at
// EOF, at a keyword, or at an assignment operator that is not inside any
// brackets.  Line starts inside brackets continue the expression.
func (p *Parser) parseExpr(level string) ast.NodeID {
	stack := []*exprFrame{{kind: frameTop, node: ast.NoNode, open: p.tok}}

	for {
		f := stack[len(stack)-1]
		inBrackets := len(stack) > 1
		tok := p.tok

		switch tok.Kind {
		case LineStart:
			if inBrackets {
				p.next()
				continue
			}

			return p.resolve(f.pending, tok)
		case EOF:
			if inBrackets {
				p.errorOn(f.open, "unclosed `%s`", f.open.Value)
			}

			return p.resolve(f.pending, tok)
		case Number, String:
			p.pushOperand(f, p.tree.New(ast.Literal, tok.Value, tok.Pos()))
			p.next()
		case Identifier, Instruction:
			p.pushOperand(f, p.tree.New(ast.Ident, tok.Value, tok.Pos()))
			p.next()
		case Keyword:
			switch tok.Value {
			case "true", "false":
				p.pushOperand(f, p.tree.New(ast.Literal, tok.Value, tok.Pos()))
				p.next()
			case "if":
				if inBrackets {
					p.errorOn(tok, "conditional expressions cannot appear inside brackets")
				}

				if f.lastIsOperand() {
					p.reject()
				}

				p.pushOperand(f, p.parseIf(level))
			default:
				if inBrackets {
					p.reject()
				}

				return p.resolve(f.pending, tok)
			}
		case Operator:
			f.pending = append(f.pending, pendingItem{node: ast.NoNode, op: tok})
			p.next()
		case AssignOp:
			if inBrackets {
				p.errorOn(tok, "cannot assign inside brackets")
			}

			return p.resolve(f.pending, tok)
		case Sep:
			if f.kind != frameCall {
				p.reject()
			}

			p.finishArg(f, tok)
			p.next()
		case Bracket:
			switch tok.Value {
			case "(":
				if f.lastIsOperand() {
					callee := f.pending[len(f.pending)-1].node
					if p.tree.Kind(callee) != ast.Ident {
						p.errorOn(tok, "only named functions can be called")
					}

					f.pending = f.pending[:len(f.pending)-1]
					call := p.tree.New(ast.Call, "", p.tree.At(callee).Pos, callee)
					stack = append(stack, &exprFrame{kind: frameCall, node: call, open: tok})
				} else {
					stack = append(stack, &exprFrame{kind: frameGroup, node: ast.NoNode, open: tok})
				}
			case "[":
				if !f.lastIsOperand() {
					p.reject()
				}

				target := f.pending[len(f.pending)-1].node
				f.pending = f.pending[:len(f.pending)-1]
				index := p.tree.New(ast.Index, "", tok.Pos(), target)
				stack = append(stack, &exprFrame{kind: frameIndex, node: index, open: tok})
			case ")", "]":
				node := p.closeFrame(f, tok)
				stack = stack[:len(stack)-1]
				p.pushOperand(stack[len(stack)-1], node)
			default:
				p.reject()
			}

			p.next()
		default:
			p.reject()
		}
	}
}

// pushOperand appends an operand to a frame's pending chain.  Two operands
// may never be adjacent.
func (p *Parser) pushOperand(f *exprFrame, node ast.NodeID) {
	if f.lastIsOperand() {
		p.errorAt(p.tree.At(node).Pos, "expected an operator before `%s`", p.nodeText(node))
	}

	f.pending = append(f.pending, pendingItem{node: node})
}

// nodeText returns a short description of a node for error messages.
func (p *Parser) nodeText(node ast.NodeID) string {
	n := p.tree.At(node)
	switch n.Kind {
	case ast.Ident, ast.Literal:
		return n.Value
	case ast.Call:
		return p.tree.At(n.Children[0]).Value + "(...)"
	default:
		return n.Kind.String()
	}
}

// finishArg resolves the pending chain of a call frame into its next
// argument.
func (p *Parser) finishArg(f *exprFrame, tok *Token) {
	if len(f.pending) == 0 {
		p.errorOn(tok, "expected an argument before `%s`", tok.Value)
	}

	p.tree.Append(f.node, p.resolve(f.pending, tok))
	f.pending = nil
}

// closeFrame finishes the frame closed by tok and returns the node the frame
// produced.
func (p *Parser) closeFrame(f *exprFrame, tok *Token) ast.NodeID {
	switch f.kind {
	case frameTop:
		p.errorOn(tok, "unmatched `%s`", tok.Value)
	case frameCall, frameGroup:
		if tok.Value != ")" {
			p.errorOn(tok, "expected `)` to close `(`, got `%s`", tok.Value)
		}
	case frameIndex:
		if tok.Value != "]" {
			p.errorOn(tok, "expected `]` to close `[`, got `%s`", tok.Value)
		}
	}

	switch f.kind {
	case frameCall:
		// `f()` takes no arguments, but `f(a,)` has an empty slot.
		if len(f.pending) > 0 || len(p.tree.At(f.node).Children) > 1 {
			p.finishArg(f, tok)
		}

		return f.node
	case frameIndex:
		if len(f.pending) == 0 {
			p.errorOn(tok, "expected an index expression")
		}

		p.tree.Append(f.node, p.resolve(f.pending, tok))
		return f.node
	default:
		if len(f.pending) == 0 {
			p.errorOn(tok, "expected an expression inside `()`")
		}

		inner := p.resolve(f.pending, tok)
		return p.tree.New(ast.Group, "", f.open.Pos(), inner)
	}
}

// -----------------------------------------------------------------------------

// resolve collapses a pending chain into a single expression by precedence.
// end is the token that ended the chain and is used to position errors about
// missing operands.
func (p *Parser) resolve(pending []pendingItem, end *Token) ast.NodeID {
	if len(pending) == 0 {
		p.rejectWithMsg("expected an expression")
	}

	chain := append([]pendingItem(nil), pending...)

	if last := chain[len(chain)-1]; !last.isOperand() {
		p.errorOn(last.op, "operator `%s` needs a right operand", last.op.Value)
	}

	chain = p.resolveUnary(chain)

	for _, ops := range precedenceLevels {
		for i := 1; i < len(chain)-1; {
			item := chain[i]
			if item.isOperand() || !containsOp(ops, item.op.Value) {
				i++
				continue
			}

			name := opCallNames[item.op.Value]
			left, right := chain[i-1].node, chain[i+1].node

			var call ast.NodeID
			if chainable[name] && p.chained[left] == name {
				p.tree.Append(left, right)
				call = left
			} else {
				callee := p.tree.New(ast.Ident, name, item.op.Pos())
				call = p.tree.New(ast.Call, "", item.op.Pos(), callee, left, right)
				if chainable[name] {
					p.chained[call] = name
				}
			}

			chain = append(chain[:i-1], append([]pendingItem{{node: call}}, chain[i+2:]...)...)
		}
	}

	for _, item := range chain {
		if !item.isOperand() {
			p.errorOn(item.op, "unsupported operator `%s`", item.op.Value)
		}
	}

	if len(chain) != 1 {
		p.errorOn(end, "malformed expression")
	}

	return chain[0].node
}

// resolveUnary applies every operator that has no operand to its left to the
// operand on its right.  A unary `-` negates and a unary `+` is dropped.
func (p *Parser) resolveUnary(chain []pendingItem) []pendingItem {
	for i := len(chain) - 2; i >= 0; i-- {
		item := chain[i]
		if item.isOperand() || (i > 0 && chain[i-1].isOperand()) {
			continue
		}

		switch item.op.Value {
		case "-":
			callee := p.tree.New(ast.Ident, "neg", item.op.Pos())
			neg := p.tree.New(ast.Call, "", item.op.Pos(), callee, chain[i+1].node)
			chain = append(chain[:i], append([]pendingItem{{node: neg}}, chain[i+2:]...)...)
		case "+":
			chain = append(chain[:i], chain[i+1:]...)
		default:
			p.errorOn(item.op, "operator `%s` needs a left operand", item.op.Value)
		}
	}

	return chain
}

func containsOp(ops []string, op string) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}

	return false
}
