package parser

import (
	"github.com/saffron-lang/saffron/lang/ast"
	"github.com/saffron-lang/saffron/lang/scanner"
	"github.com/saffron-lang/saffron/lang/token"
)

// precedence is the Pratt ladder from spec.md §4.2, low to high.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precYield // yield, |>
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type (
	prefixFn func(p *Parser, canAssign bool) ast.Expr
	infixFn  func(p *Parser, left ast.Expr, canAssign bool) ast.Expr
)

type rule struct {
	prefix prefixFn
	infix  infixFn
	prec   precedence
}

var rules map[token.Kind]rule

func init() {
	rules = map[token.Kind]rule{
		token.LPAREN:   {grouping, call, precCall},
		token.LBRACK:   {list, getItem, precCall},
		token.PIPEGT:   {nil, pipeCall, precYield},
		token.DOT:      {nil, dot, precCall},
		token.MINUS:    {unary, binary, precTerm},
		token.PLUS:     {nil, binary, precTerm},
		token.SLASH:    {nil, binary, precFactor},
		token.STAR:     {nil, binary, precFactor},
		token.PERCENT:  {nil, binary, precFactor},
		token.BANG:     {unary, nil, precNone},
		token.BANGEQ:   {nil, binary, precEquality},
		token.EQEQ:     {nil, binary, precEquality},
		token.GT:       {nil, binary, precComparison},
		token.GE:       {nil, binary, precComparison},
		token.LT:       {nil, binary, precComparison},
		token.LE:       {nil, binary, precComparison},
		token.IDENT:    {variable, nil, precNone},
		token.ATOM:     {atomLit, nil, precNone},
		token.STRING:   {stringLit, nil, precNone},
		token.NUMBER:   {numberLit, nil, precNone},
		token.LBRACE:   {mapLit, nil, precNone},
		token.AND:      {nil, and_, precAnd},
		token.OR:       {nil, or_, precOr},
		token.FALSE:    {literal, nil, precNone},
		token.NIL:      {literal, nil, precNone},
		token.TRUE:     {literal, nil, precNone},
		token.SUPER:    {super_, nil, precNone},
		token.THIS:     {this_, nil, precNone},
		token.YIELD:    {yield_, nil, precNone},
		token.FUN:      {lambda, nil, precNone},
	}
}

func getRule(k token.Kind) rule {
	if r, ok := rules[k]; ok {
		return r
	}
	return rule{}
}

func (p *Parser) expression() ast.Expr {
	return p.parsePrecedence(precAssignment)
}

func (p *Parser) parsePrecedence(prec precedence) ast.Expr {
	p.advance()
	pr := getRule(p.prev.Kind)
	if pr.prefix == nil {
		p.error("expect expression")
		return ast.NewLiteralExpr(p.prev.Line, nil, false)
	}

	canAssign := prec <= precAssignment
	left := pr.prefix(p, canAssign)

	for prec <= getRule(p.cur.Kind).prec {
		p.advance()
		infix := getRule(p.prev.Kind).infix
		left = infix(p, left, canAssign)
	}

	if canAssign && p.match(token.EQ) {
		p.error("invalid assignment target")
	}
	return left
}

func grouping(p *Parser, _ bool) ast.Expr {
	line := p.prev.Line
	inner := p.expression()
	p.consume(token.RPAREN, "expect ')' after expression")
	return ast.NewGroupingExpr(line, inner)
}

func unary(p *Parser, _ bool) ast.Expr {
	op := p.prev
	right := p.parsePrecedence(precUnary)
	return ast.NewUnaryExpr(op.Line, op.Lexeme, right)
}

func binary(p *Parser, left ast.Expr, _ bool) ast.Expr {
	op := p.prev
	r := getRule(op.Kind)
	right := p.parsePrecedence(r.prec + 1)
	return ast.NewBinaryExpr(op.Line, left, op.Lexeme, right)
}

func and_(p *Parser, left ast.Expr, _ bool) ast.Expr {
	op := p.prev
	right := p.parsePrecedence(precAnd)
	return ast.NewLogicalExpr(op.Line, left, "and", right)
}

func or_(p *Parser, left ast.Expr, _ bool) ast.Expr {
	op := p.prev
	right := p.parsePrecedence(precOr)
	return ast.NewLogicalExpr(op.Line, left, "or", right)
}

func literal(p *Parser, _ bool) ast.Expr {
	t := p.prev
	switch t.Kind {
	case token.FALSE:
		return ast.NewLiteralExpr(t.Line, false, false)
	case token.TRUE:
		return ast.NewLiteralExpr(t.Line, true, false)
	case token.NIL:
		return ast.NewLiteralExpr(t.Line, nil, false)
	}
	panic("unreachable literal kind")
}

func numberLit(p *Parser, _ bool) ast.Expr {
	t := p.prev
	v, err := scanner.ParseNumber(t.Lexeme)
	if err != nil {
		p.error("invalid number literal")
	}
	return ast.NewLiteralExpr(t.Line, v, false)
}

func stringLit(p *Parser, _ bool) ast.Expr {
	t := p.prev
	return ast.NewLiteralExpr(t.Line, scanner.Unquote(t.Lexeme), false)
}

func atomLit(p *Parser, _ bool) ast.Expr {
	t := p.prev
	// lexeme includes the leading ':'
	name := t.Lexeme
	if len(name) > 0 && name[0] == ':' {
		name = name[1:]
	}
	return ast.NewLiteralExpr(t.Line, name, true)
}

func variable(p *Parser, canAssign bool) ast.Expr {
	t := p.prev
	v := ast.NewVariableExpr(t.Line, t.Lexeme)
	if canAssign && p.match(token.EQ) {
		value := p.expression()
		return ast.NewAssignExpr(t.Line, v, value)
	}
	return v
}

func this_(p *Parser, _ bool) ast.Expr {
	return ast.NewThisExpr(p.prev.Line)
}

func super_(p *Parser, _ bool) ast.Expr {
	line := p.prev.Line
	p.consume(token.DOT, "expect '.' after 'super'")
	method := p.consume(token.IDENT, "expect superclass method name").Lexeme
	return ast.NewSuperExpr(line, method)
}

func yield_(p *Parser, _ bool) ast.Expr {
	line := p.prev.Line
	if yieldEndsExpr(p.cur.Kind) {
		return ast.NewYieldExpr(line, nil)
	}
	v := p.parsePrecedence(precYield)
	return ast.NewYieldExpr(line, v)
}

func yieldEndsExpr(k token.Kind) bool {
	switch k {
	case token.SEMI, token.RPAREN, token.RBRACE, token.RBRACK, token.COMMA, token.EOF:
		return true
	}
	return false
}

func lambda(p *Parser, _ bool) ast.Expr {
	line := p.prev.Line
	params, ret, body := p.function()
	return ast.NewLambdaExpr(line, params, ret, body)
}

func list(p *Parser, _ bool) ast.Expr {
	line := p.prev.Line
	var elems []ast.Expr
	if !p.check(token.RBRACK) {
		for {
			elems = append(elems, p.expression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RBRACK, "expect ']' after list elements")
	return ast.NewListExpr(line, elems)
}

func mapLit(p *Parser, _ bool) ast.Expr {
	line := p.prev.Line
	var keys, values []ast.Expr
	if !p.check(token.RBRACE) {
		for {
			keys = append(keys, p.expression())
			p.consume(token.COLON, "expect ':' after map key")
			values = append(values, p.expression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RBRACE, "expect '}' after map entries")
	return ast.NewMapExpr(line, keys, values)
}

func call(p *Parser, callee ast.Expr, _ bool) ast.Expr {
	line := p.prev.Line
	args := p.argumentList(token.RPAREN)
	return ast.NewCallExpr(line, callee, args)
}

func (p *Parser) argumentList(end token.Kind) []ast.Expr {
	var args []ast.Expr
	if !p.check(end) {
		for {
			if len(args) >= 255 {
				p.errorAtCurrent("can't have more than 255 arguments")
			}
			args = append(args, p.expression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(end, "expect closing delimiter after arguments")
	return args
}

func getItem(p *Parser, target ast.Expr, canAssign bool) ast.Expr {
	line := p.prev.Line
	idx := p.expression()
	p.consume(token.RBRACK, "expect ']' after index")
	g := ast.NewGetItemExpr(line, target, idx)
	if canAssign && p.match(token.EQ) {
		value := p.expression()
		return ast.NewAssignExpr(line, g, value)
	}
	return g
}

// dot only builds the property access node; a following `(...)` is picked
// up by the normal precedence loop's LPAREN infix rule (call), producing
// CallExpr{Callee: GetPropertyExpr{...}} — the compiler recognizes that
// specific shape and fuses it into a single INVOKE instruction rather than
// a separate GET_PROPERTY + CALL.
func dot(p *Parser, target ast.Expr, canAssign bool) ast.Expr {
	line := p.prev.Line
	name := p.consume(token.IDENT, "expect property name after '.'").Lexeme
	if canAssign && p.match(token.EQ) {
		value := p.expression()
		return ast.NewSetPropertyExpr(line, target, name, value)
	}
	return ast.NewGetPropertyExpr(line, target, name)
}

// pipeCall desugars `x |> f(a, b)` into `f(x, a, b)` (spec.md §3's pipe
// operator), matching the reference scanner's `|` tokenizing to PIPEGT when
// doubled with `>`.
func pipeCall(p *Parser, left ast.Expr, _ bool) ast.Expr {
	line := p.prev.Line
	rhs := p.parsePrecedence(precYield + 1)
	call, ok := rhs.(*ast.CallExpr)
	if !ok {
		p.error("right-hand side of '|>' must be a call")
		return rhs
	}
	args := append([]ast.Expr{left}, call.Args...)
	return ast.NewCallExpr(line, call.Callee, args)
}
