// Package parser implements Saffron's statement-level recursive-descent,
// expression-level Pratt parser (spec.md §4.2), grounded on the teacher's
// lang/parser package shape (a struct holding the current/lookahead token
// and an error list) and on the reference scanner's astparse.c grammar for
// the statement forms themselves.
package parser

import (
	"github.com/saffron-lang/saffron/lang/ast"
	"github.com/saffron-lang/saffron/lang/saferr"
	"github.com/saffron-lang/saffron/lang/scanner"
	"github.com/saffron-lang/saffron/lang/token"
)

// Parser turns a token stream into a Chunk. The zero value is not usable;
// construct with New.
type Parser struct {
	sc   *scanner.Scanner
	name string

	prev token.Token
	cur  token.Token

	panicMode bool
	errors    saferr.List
}

// New returns a Parser reading from src, reporting name in diagnostics.
func New(name, src string) *Parser {
	p := &Parser{sc: scanner.New(src), name: name}
	p.advance()
	return p
}

// ParseChunk parses a complete source file into its AST.
func ParseChunk(name, src string) (*ast.Chunk, error) {
	p := New(name, src)
	return p.Parse(), p.Err()
}

// Err returns the accumulated diagnostics, or nil if parsing succeeded.
func (p *Parser) Err() error {
	if p.errors.HasErrors() {
		return &p.errors
	}
	return nil
}

// Parse consumes every token and returns the resulting Chunk.
func (p *Parser) Parse() *ast.Chunk {
	var stmts []ast.Stmt
	for !p.check(token.EOF) {
		stmts = append(stmts, p.declaration())
	}
	return ast.NewChunk(p.name, ast.NewBlockStmt(0, stmts))
}

func (p *Parser) advance() {
	p.prev = p.cur
	p.cur = p.sc.Next()
	for p.cur.Kind == token.ILLEGAL {
		p.errorAtCurrent(p.cur.Lexeme)
		p.cur = p.sc.Next()
	}
}

func (p *Parser) check(k token.Kind) bool { return p.cur.Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(k token.Kind, msg string) token.Token {
	if p.check(k) {
		t := p.cur
		p.advance()
		return t
	}
	p.errorAtCurrent(msg)
	return p.cur
}

func (p *Parser) errorAtCurrent(msg string) { p.errorAt(p.cur, msg) }
func (p *Parser) error(msg string)          { p.errorAt(p.prev, msg) }

func (p *Parser) errorAt(t token.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	if t.Kind == token.EOF {
		p.errors.Addf(t.Line, "at end: %s", msg)
	} else {
		p.errors.Addf(t.Line, "at '%s': %s", t.Lexeme, msg)
	}
}

// synchronize discards tokens until it reaches a likely statement boundary,
// per spec.md §4.2's panic-mode recovery contract.
func (p *Parser) synchronize() {
	p.panicMode = false
	for !p.check(token.EOF) {
		if p.prev.Kind == token.SEMI {
			return
		}
		switch p.cur.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.RETURN, token.IMPORT:
			return
		}
		p.advance()
	}
}

func (p *Parser) declaration() ast.Stmt {
	var s ast.Stmt
	switch {
	case p.match(token.CLASS):
		s = p.classDeclaration()
	case p.match(token.FUN):
		s = p.funDeclaration()
	case p.match(token.VAR):
		s = p.varDeclaration()
	case p.match(token.INTERFACE):
		s = p.interfaceDeclaration()
	case p.match(token.TYPE):
		s = p.typeDeclaration()
	case p.match(token.ENUM):
		s = p.enumDeclaration()
	default:
		s = p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
	return s
}

func (p *Parser) statement() ast.Stmt {
	var s ast.Stmt
	switch {
	case p.match(token.IF):
		s = p.ifStatement()
	case p.match(token.RETURN):
		s = p.returnStatement()
	case p.match(token.WHILE):
		s = p.whileStatement()
	case p.match(token.FOR):
		s = p.forStatement()
	case p.match(token.BREAK):
		line := p.prev.Line
		p.match(token.SEMI)
		s = ast.NewBreakStmt(line)
	case p.match(token.LBRACE):
		s = p.block()
	case p.match(token.IMPORT):
		s = p.importStatement()
	default:
		s = p.expressionStatement()
	}
	for p.match(token.SEMI) {
	}
	return s
}

func (p *Parser) expressionStatement() ast.Stmt {
	line := p.cur.Line
	e := p.expression()
	p.match(token.SEMI)
	return ast.NewExprStmt(line, e)
}

func (p *Parser) block() ast.Stmt {
	line := p.prev.Line
	var stmts []ast.Stmt
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		stmts = append(stmts, p.declaration())
	}
	p.consume(token.RBRACE, "expect '}' after block")
	return ast.NewBlockStmt(line, stmts)
}

func (p *Parser) ifStatement() ast.Stmt {
	line := p.prev.Line
	p.consume(token.LPAREN, "expect '(' after 'if'")
	cond := p.expression()
	p.consume(token.RPAREN, "expect ')' after condition")
	then := p.statement()
	var els ast.Stmt
	if p.match(token.ELSE) {
		els = p.statement()
	}
	return ast.NewIfStmt(line, cond, then, els)
}

func (p *Parser) whileStatement() ast.Stmt {
	line := p.prev.Line
	p.consume(token.LPAREN, "expect '(' after 'while'")
	cond := p.expression()
	p.consume(token.RPAREN, "expect ')' after condition")
	body := p.statement()
	return ast.NewWhileStmt(line, cond, body)
}

func (p *Parser) forStatement() ast.Stmt {
	line := p.prev.Line
	p.consume(token.LPAREN, "expect '(' after 'for'")

	var init ast.Stmt
	switch {
	case p.match(token.SEMI):
		// no initializer
	case p.match(token.VAR):
		init = p.varDeclaration()
	default:
		init = p.expressionStatement()
	}

	var cond ast.Expr
	if !p.check(token.SEMI) {
		cond = p.expression()
	}
	p.consume(token.SEMI, "expect ';' after loop condition")

	var post ast.Expr
	if !p.check(token.RPAREN) {
		post = p.expression()
	}
	p.consume(token.RPAREN, "expect ')' after for clauses")

	body := p.statement()
	return ast.NewForStmt(line, init, cond, post, body)
}

func (p *Parser) returnStatement() ast.Stmt {
	line := p.prev.Line
	if p.match(token.SEMI) {
		return ast.NewReturnStmt(line, nil)
	}
	v := p.expression()
	p.match(token.SEMI)
	return ast.NewReturnStmt(line, v)
}

func (p *Parser) importStatement() ast.Stmt {
	line := p.prev.Line
	t := p.consume(token.STRING, "expect string after 'import'")
	path := scanner.Unquote(t.Lexeme)
	alias := path
	if p.match(token.AS) {
		alias = p.consume(token.IDENT, "expect identifier after 'as'").Lexeme
	}
	p.match(token.SEMI)
	return ast.NewImportStmt(line, path, alias)
}

func (p *Parser) varDeclaration() ast.Stmt {
	line := p.prev.Line
	name := p.consume(token.IDENT, "expect variable name").Lexeme

	var typ ast.TypeNode
	if p.match(token.COLON) {
		typ = p.typeAnnotation()
	}

	var init ast.Expr
	if p.match(token.EQ) {
		init = p.expression()
	}
	p.consume(token.SEMI, "expect ';' after variable declaration")
	return ast.NewVarDeclStmt(line, name, typ, init)
}

func (p *Parser) funDeclaration() ast.Stmt {
	line := p.prev.Line
	name := p.consume(token.IDENT, "expect function name").Lexeme
	params, ret, body := p.function()
	return ast.NewFunctionStmt(line, name, params, ret, body, name == "init")
}

// function parses the `(params) [: ReturnType] { body }` suffix shared by
// function declarations, methods, and lambdas.
func (p *Parser) function() ([]*ast.Parameter, ast.TypeNode, *ast.BlockStmt) {
	p.consume(token.LPAREN, "expect '(' after function name")
	var params []*ast.Parameter
	if !p.check(token.RPAREN) {
		for {
			line := p.cur.Line
			name := p.consume(token.IDENT, "expect parameter name").Lexeme
			var typ ast.TypeNode
			if p.match(token.COLON) {
				typ = p.typeAnnotation()
			}
			params = append(params, ast.NewParameter(line, ast.ParamPositional, name, typ, nil))
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expect ')' after parameters")

	var ret ast.TypeNode
	if p.match(token.COLON) {
		ret = p.typeAnnotation()
	}

	p.consume(token.LBRACE, "expect '{' before function body")
	body := p.block().(*ast.BlockStmt)
	return params, ret, body
}

func (p *Parser) classDeclaration() ast.Stmt {
	line := p.prev.Line
	name := p.consume(token.IDENT, "expect class name").Lexeme

	var super *ast.VariableExpr
	if p.match(token.LT) {
		superLine := p.cur.Line
		superName := p.consume(token.IDENT, "expect superclass name").Lexeme
		if superName == name {
			p.error("a class can't inherit from itself")
		}
		super = ast.NewVariableExpr(superLine, superName)
	}

	p.consume(token.LBRACE, "expect '{' before class body")
	var methods []*ast.FunctionStmt
	var fields []*ast.VarDeclStmt
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		if p.match(token.VAR) {
			fields = append(fields, p.varDeclaration().(*ast.VarDeclStmt))
			continue
		}
		mline := p.cur.Line
		mname := p.consume(token.IDENT, "expect method name").Lexeme
		mparams, mret, mbody := p.function()
		methods = append(methods, ast.NewFunctionStmt(mline, mname, mparams, mret, mbody, mname == "init"))
	}
	p.consume(token.RBRACE, "expect '}' after class body")
	return ast.NewClassStmt(line, name, super, methods, fields)
}

func (p *Parser) enumDeclaration() ast.Stmt {
	line := p.prev.Line
	name := p.consume(token.IDENT, "expect enum name").Lexeme
	p.consume(token.LBRACE, "expect '{' before enum body")
	var items []string
	if !p.check(token.RBRACE) {
		for {
			items = append(items, p.consume(token.IDENT, "expect enum member name").Lexeme)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RBRACE, "expect '}' after enum body")
	return ast.NewEnumStmt(line, name, items)
}

// interfaceDeclaration parses `interface Name [< Super] { member... }` into
// an ExprStmt wrapping the InterfaceTypeNode, mirroring how the reference
// AST models an interface as a type-level node rather than a Stmt kind
// (ast.h's `struct Interface` is a TypeNode, not a Stmt): the checker
// recognizes this specific shape and registers the interface without
// executing anything at runtime.
func (p *Parser) interfaceDeclaration() ast.Stmt {
	line := p.prev.Line
	name := p.consume(token.IDENT, "expect interface name").Lexeme

	var super ast.TypeNode
	if p.match(token.LT) {
		super = p.typeAnnotation()
	}

	p.consume(token.LBRACE, "expect '{' before interface body")
	var body []*ast.InterfaceMember
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		mline := p.cur.Line
		mname := p.consume(token.IDENT, "expect member name").Lexeme
		if p.check(token.LPAREN) {
			params, ret, _ := p.functorSig()
			fn := ast.NewFunctorTypeNode(mline, params, ret, nil)
			body = append(body, ast.NewInterfaceMember(mline, mname, nil, fn))
		} else {
			p.consume(token.COLON, "expect ':' after field name")
			body = append(body, ast.NewInterfaceMember(mline, mname, p.typeAnnotation(), nil))
		}
		p.match(token.SEMI)
	}
	p.consume(token.RBRACE, "expect '}' after interface body")

	it := ast.NewInterfaceTypeNode(line, name, super, body)
	return ast.NewExprStmt(line, wrapTypeNode(line, it))
}

// typeDeclaration parses `type Name[<generics>] = Target;`.
func (p *Parser) typeDeclaration() ast.Stmt {
	line := p.prev.Line
	name := p.consume(token.IDENT, "expect type name").Lexeme

	var generics []string
	if p.match(token.LT) {
		for {
			generics = append(generics, p.consume(token.IDENT, "expect generic parameter name").Lexeme)
			if !p.match(token.COMMA) {
				break
			}
		}
		p.consume(token.GT, "expect '>' after generic parameters")
	}

	p.consume(token.EQ, "expect '=' in type declaration")
	target := p.typeAnnotation()
	p.match(token.SEMI)

	td := ast.NewTypeDeclarationNode(line, name, target, generics)
	return ast.NewExprStmt(line, wrapTypeNode(line, td))
}

// wrapTypeNode lets a TypeNode-only declaration (interface, type alias) ride
// through as a Stmt by boxing it in a LiteralExpr; the checker pattern
// matches on this shape rather than evaluating it (these declarations have
// no runtime representation, per spec.md's Non-goals on full inference).
func wrapTypeNode(line int, t ast.TypeNode) ast.Expr {
	return ast.NewLiteralExpr(line, t, false)
}

// functorSig parses the `(T1, T2) => Ret` suffix used by interface method
// signatures.
func (p *Parser) functorSig() ([]ast.TypeNode, ast.TypeNode, []string) {
	p.consume(token.LPAREN, "expect '(' in method signature")
	var args []ast.TypeNode
	if !p.check(token.RPAREN) {
		for {
			args = append(args, p.typeAnnotation())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expect ')' after method signature arguments")
	p.consume(token.ARROW, "expect '=>' after method signature arguments")
	ret := p.typeAnnotation()
	return args, ret, nil
}

// typeAnnotation parses a TypeNode: `(Args) => Ret` functor, or `Name`
// possibly followed by `<T, ...>` generic arguments, or a `|` union chain.
func (p *Parser) typeAnnotation() ast.TypeNode {
	t := p.typeAnnotationPrimary()
	for p.match(token.PIPE) {
		line := p.prev.Line
		right := p.typeAnnotationPrimary()
		t = ast.NewUnionTypeNode(line, t, right)
	}
	return t
}

func (p *Parser) typeAnnotationPrimary() ast.TypeNode {
	line := p.cur.Line
	if p.match(token.LPAREN) {
		var args []ast.TypeNode
		for {
			args = append(args, p.typeAnnotation())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.consume(token.RPAREN, "expect ')' after functor type arguments")
		p.consume(token.ARROW, "expect '=>' after functor type arguments")
		ret := p.typeAnnotation()
		return ast.NewFunctorTypeNode(line, args, ret, nil)
	}

	name := p.consume(token.IDENT, "expect identifier or functor type").Lexeme
	var generics []ast.TypeNode
	if p.match(token.LT) {
		for {
			generics = append(generics, p.typeAnnotation())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.consume(token.GT, "expect '>' after generic type argument")
	}
	return ast.NewSimpleTypeNode(line, name, generics)
}
