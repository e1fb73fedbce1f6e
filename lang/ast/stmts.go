package ast

import "github.com/saffron-lang/saffron/lang/gc"

// ExprStmt is an expression used as a statement.
type ExprStmt struct {
	base
	Expr Expr
}

// VarDeclStmt is `var name [: Type] [= init]`.
type VarDeclStmt struct {
	base
	Name string
	Type TypeNode // optional
	Init Expr     // optional
}

// BlockStmt is a `{ ... }` sequence of statements introducing a new scope.
type BlockStmt struct {
	base
	Stmts []Stmt
}

// FunctionStmt is `fun name(params) [: Type] { body }` (kind is Function
// unless this node is reused to represent a method, see ClassStmt.Methods;
// the IsInitializer flag distinguishes `init`).
type FunctionStmt struct {
	base
	Name          string
	Params        []*Parameter
	ReturnType    TypeNode
	Body          *BlockStmt
	IsInitializer bool
}

// ClassStmt is `class Name [< Super] { methods and fields }`.
type ClassStmt struct {
	base
	Name       string
	Superclass *VariableExpr // optional
	Methods    []*FunctionStmt
	Fields     []*VarDeclStmt
}

// IfStmt is `if (cond) then [else elseBranch]`.
type IfStmt struct {
	base
	Cond   Expr
	Then   Stmt
	Else   Stmt // optional
}

// WhileStmt is `while (cond) body`.
type WhileStmt struct {
	base
	Cond Expr
	Body Stmt
}

// ForStmt is the C-style `for (init; cond; post) body`; the parser desugars
// it into this single node with optional parts rather than a lower-level
// block, so the compiler is the one place that performs the init-block +
// loop desugaring described by spec.md §4.4.
type ForStmt struct {
	base
	Init Stmt // optional: *VarDeclStmt or *ExprStmt
	Cond Expr // optional
	Post Expr // optional
	Body Stmt
}

// BreakStmt is `break;`.
type BreakStmt struct {
	base
}

// ReturnStmt is `return [value];`. A top-level return is a compile error
// (spec.md §4.4), enforced by the compiler, not this node.
type ReturnStmt struct {
	base
	Value Expr // optional
}

// ImportStmt is `import "path" [as alias]`.
type ImportStmt struct {
	base
	Path  string
	Alias string // defaults to Path (the import path string) when not given
}

// EnumStmt is `enum Name { A, B, C }`. Parsed, never wired at runtime
// (spec.md §9 Open Questions).
type EnumStmt struct {
	base
	Name  string
	Items []string
}

func (*ExprStmt) stmtNode()   {}
func (*VarDeclStmt) stmtNode() {}
func (*BlockStmt) stmtNode()  {}
func (*FunctionStmt) stmtNode() {}
func (*ClassStmt) stmtNode()  {}
func (*IfStmt) stmtNode()     {}
func (*WhileStmt) stmtNode()  {}
func (*ForStmt) stmtNode()    {}
func (*BreakStmt) stmtNode()  {}
func (*ReturnStmt) stmtNode() {}
func (*ImportStmt) stmtNode() {}
func (*EnumStmt) stmtNode()   {}

// BlockEnding reports whether the statement may only appear last in a block
// (return and break, per spec.md's Stmt contract).
func (*ReturnStmt) BlockEnding() bool { return true }
func (*BreakStmt) BlockEnding() bool  { return true }

func NewExprStmt(line int, e Expr) *ExprStmt { return &ExprStmt{base: newBase(line), Expr: e} }
func NewVarDeclStmt(line int, name string, typ TypeNode, init Expr) *VarDeclStmt {
	return &VarDeclStmt{base: newBase(line), Name: name, Type: typ, Init: init}
}
func NewBlockStmt(line int, stmts []Stmt) *BlockStmt {
	return &BlockStmt{base: newBase(line), Stmts: stmts}
}
func NewFunctionStmt(line int, name string, params []*Parameter, ret TypeNode, body *BlockStmt, isInit bool) *FunctionStmt {
	return &FunctionStmt{base: newBase(line), Name: name, Params: params, ReturnType: ret, Body: body, IsInitializer: isInit}
}
func NewClassStmt(line int, name string, super *VariableExpr, methods []*FunctionStmt, fields []*VarDeclStmt) *ClassStmt {
	return &ClassStmt{base: newBase(line), Name: name, Superclass: super, Methods: methods, Fields: fields}
}
func NewIfStmt(line int, cond Expr, then, els Stmt) *IfStmt {
	return &IfStmt{base: newBase(line), Cond: cond, Then: then, Else: els}
}
func NewWhileStmt(line int, cond Expr, body Stmt) *WhileStmt {
	return &WhileStmt{base: newBase(line), Cond: cond, Body: body}
}
func NewForStmt(line int, init Stmt, cond Expr, post Expr, body Stmt) *ForStmt {
	return &ForStmt{base: newBase(line), Init: init, Cond: cond, Post: post, Body: body}
}
func NewBreakStmt(line int) *BreakStmt { return &BreakStmt{base: newBase(line)} }
func NewReturnStmt(line int, v Expr) *ReturnStmt {
	return &ReturnStmt{base: newBase(line), Value: v}
}
func NewImportStmt(line int, path, alias string) *ImportStmt {
	return &ImportStmt{base: newBase(line), Path: path, Alias: alias}
}
func NewEnumStmt(line int, name string, items []string) *EnumStmt {
	return &EnumStmt{base: newBase(line), Name: name, Items: items}
}

func (n *ExprStmt) Kind() string          { return "stmt.expr" }
func (n *ExprStmt) Walk(v Visitor)        { Walk(v, n.Expr) }
func (n *ExprStmt) Trace(mark func(gc.Object)) { mark(n.Expr) }

func (n *VarDeclStmt) Kind() string { return "stmt.vardecl" }
func (n *VarDeclStmt) Walk(v Visitor) {
	if n.Type != nil {
		Walk(v, n.Type)
	}
	if n.Init != nil {
		Walk(v, n.Init)
	}
}
func (n *VarDeclStmt) Trace(mark func(gc.Object)) {
	if n.Type != nil {
		mark(n.Type)
	}
	if n.Init != nil {
		mark(n.Init)
	}
}

func (n *BlockStmt) Kind() string { return "stmt.block" }
func (n *BlockStmt) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}
func (n *BlockStmt) Trace(mark func(gc.Object)) {
	for _, s := range n.Stmts {
		mark(s)
	}
}

func (n *FunctionStmt) Kind() string { return "stmt.function" }
func (n *FunctionStmt) Walk(v Visitor) {
	for _, p := range n.Params {
		Walk(v, p)
	}
	if n.ReturnType != nil {
		Walk(v, n.ReturnType)
	}
	Walk(v, n.Body)
}
func (n *FunctionStmt) Trace(mark func(gc.Object)) {
	for _, p := range n.Params {
		mark(p)
	}
	if n.ReturnType != nil {
		mark(n.ReturnType)
	}
	mark(n.Body)
}

func (n *ClassStmt) Kind() string { return "stmt.class" }
func (n *ClassStmt) Walk(v Visitor) {
	if n.Superclass != nil {
		Walk(v, n.Superclass)
	}
	for _, m := range n.Methods {
		Walk(v, m)
	}
	for _, f := range n.Fields {
		Walk(v, f)
	}
}
func (n *ClassStmt) Trace(mark func(gc.Object)) {
	if n.Superclass != nil {
		mark(n.Superclass)
	}
	for _, m := range n.Methods {
		mark(m)
	}
	for _, f := range n.Fields {
		mark(f)
	}
}

func (n *IfStmt) Kind() string { return "stmt.if" }
func (n *IfStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	if n.Else != nil {
		Walk(v, n.Else)
	}
}
func (n *IfStmt) Trace(mark func(gc.Object)) {
	mark(n.Cond)
	mark(n.Then)
	if n.Else != nil {
		mark(n.Else)
	}
}

func (n *WhileStmt) Kind() string { return "stmt.while" }
func (n *WhileStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Body)
}
func (n *WhileStmt) Trace(mark func(gc.Object)) {
	mark(n.Cond)
	mark(n.Body)
}

func (n *ForStmt) Kind() string { return "stmt.for" }
func (n *ForStmt) Walk(v Visitor) {
	if n.Init != nil {
		Walk(v, n.Init)
	}
	if n.Cond != nil {
		Walk(v, n.Cond)
	}
	if n.Post != nil {
		Walk(v, n.Post)
	}
	Walk(v, n.Body)
}
func (n *ForStmt) Trace(mark func(gc.Object)) {
	if n.Init != nil {
		mark(n.Init)
	}
	if n.Cond != nil {
		mark(n.Cond)
	}
	if n.Post != nil {
		mark(n.Post)
	}
	mark(n.Body)
}

func (n *BreakStmt) Kind() string          { return "stmt.break" }
func (n *BreakStmt) Walk(Visitor)          {}
func (n *BreakStmt) Trace(func(gc.Object)) {}

func (n *ReturnStmt) Kind() string { return "stmt.return" }
func (n *ReturnStmt) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}
func (n *ReturnStmt) Trace(mark func(gc.Object)) {
	if n.Value != nil {
		mark(n.Value)
	}
}

func (n *ImportStmt) Kind() string          { return "stmt.import" }
func (n *ImportStmt) Walk(Visitor)          {}
func (n *ImportStmt) Trace(func(gc.Object)) {}

func (n *EnumStmt) Kind() string          { return "stmt.enum" }
func (n *EnumStmt) Walk(Visitor)          {}
func (n *EnumStmt) Trace(func(gc.Object)) {}

// Chunk is the root of a parsed file: a name (for diagnostics) and its
// top-level block of statements.
type Chunk struct {
	base
	Name  string
	Block *BlockStmt
}

func NewChunk(name string, block *BlockStmt) *Chunk {
	return &Chunk{base: newBase(0), Name: name, Block: block}
}

func (n *Chunk) Kind() string          { return "chunk" }
func (n *Chunk) Walk(v Visitor)        { Walk(v, n.Block) }
func (n *Chunk) Trace(mark func(gc.Object)) { mark(n.Block) }
