package ast

import "github.com/saffron-lang/saffron/lang/gc"

// LiteralExpr is a number, string, atom, bool, or nil literal.
type LiteralExpr struct {
	base
	Value interface{} // float64, string (string or atom, see IsAtom), bool, or nil
	IsAtom bool
}

// GroupingExpr is a parenthesized expression, kept distinct from its inner
// expression only to preserve faithful source spans; it compiles as a no-op.
type GroupingExpr struct {
	base
	Inner Expr
}

// UnaryExpr is `-x`, `!x`.
type UnaryExpr struct {
	base
	Op    string
	Right Expr
}

// BinaryExpr is an arithmetic or comparison binary expression.
type BinaryExpr struct {
	base
	Left  Expr
	Op    string
	Right Expr
}

// LogicalExpr is `and`/`or`, kept distinct from BinaryExpr because they
// short-circuit and compile to jumps rather than an opcode.
type LogicalExpr struct {
	base
	Left  Expr
	Op    string // "and" | "or"
	Right Expr
}

// VariableExpr reads a named binding.
type VariableExpr struct {
	base
	Name string
}

// AssignExpr assigns to a variable, property, or index target.
type AssignExpr struct {
	base
	Target Expr // *VariableExpr or *GetItemExpr (property assignment is a SetPropertyExpr)
	Value  Expr
}

// CallExpr applies arguments to a callee.
type CallExpr struct {
	base
	Callee Expr
	Args   []Expr
}

// GetItemExpr is `a[i]`.
type GetItemExpr struct {
	base
	Target Expr
	Index  Expr
}

// GetPropertyExpr is `a.b`.
type GetPropertyExpr struct {
	base
	Target Expr
	Name   string
}

// SetPropertyExpr is `a.b = v`.
type SetPropertyExpr struct {
	base
	Target Expr
	Name   string
	Value  Expr
}

// SuperExpr is `super.method`, only valid lexically inside a method body.
type SuperExpr struct {
	base
	Method string
}

// ThisExpr is `this`.
type ThisExpr struct {
	base
}

// YieldExpr suspends the current task, evaluating its operand as the value
// handed to the scheduler's handle_yield_value.
type YieldExpr struct {
	base
	Value Expr
}

// LambdaExpr is `fun` used in expression position: an anonymous function
// with parameters, optional parameter/return type annotations, and a body.
type LambdaExpr struct {
	base
	Params     []*Parameter
	ReturnType TypeNode // optional
	Body       *BlockStmt
}

// ListExpr is a `[a, b, c]` literal.
type ListExpr struct {
	base
	Elements []Expr
}

// MapExpr is a `{k: v, ...}` literal.
type MapExpr struct {
	base
	Keys   []Expr
	Values []Expr
}

func (*LiteralExpr) exprNode()     {}
func (*GroupingExpr) exprNode()    {}
func (*UnaryExpr) exprNode()       {}
func (*BinaryExpr) exprNode()      {}
func (*LogicalExpr) exprNode()     {}
func (*VariableExpr) exprNode()    {}
func (*AssignExpr) exprNode()      {}
func (*CallExpr) exprNode()        {}
func (*GetItemExpr) exprNode()     {}
func (*GetPropertyExpr) exprNode() {}
func (*SetPropertyExpr) exprNode() {}
func (*SuperExpr) exprNode()       {}
func (*ThisExpr) exprNode()        {}
func (*YieldExpr) exprNode()       {}
func (*LambdaExpr) exprNode()      {}
func (*ListExpr) exprNode()        {}
func (*MapExpr) exprNode()         {}

func NewLiteralExpr(line int, v interface{}, isAtom bool) *LiteralExpr {
	return &LiteralExpr{base: newBase(line), Value: v, IsAtom: isAtom}
}
func NewGroupingExpr(line int, inner Expr) *GroupingExpr {
	return &GroupingExpr{base: newBase(line), Inner: inner}
}
func NewUnaryExpr(line int, op string, right Expr) *UnaryExpr {
	return &UnaryExpr{base: newBase(line), Op: op, Right: right}
}
func NewBinaryExpr(line int, left Expr, op string, right Expr) *BinaryExpr {
	return &BinaryExpr{base: newBase(line), Left: left, Op: op, Right: right}
}
func NewLogicalExpr(line int, left Expr, op string, right Expr) *LogicalExpr {
	return &LogicalExpr{base: newBase(line), Left: left, Op: op, Right: right}
}
func NewVariableExpr(line int, name string) *VariableExpr {
	return &VariableExpr{base: newBase(line), Name: name}
}
func NewAssignExpr(line int, target, value Expr) *AssignExpr {
	return &AssignExpr{base: newBase(line), Target: target, Value: value}
}
func NewCallExpr(line int, callee Expr, args []Expr) *CallExpr {
	return &CallExpr{base: newBase(line), Callee: callee, Args: args}
}
func NewGetItemExpr(line int, target, index Expr) *GetItemExpr {
	return &GetItemExpr{base: newBase(line), Target: target, Index: index}
}
func NewGetPropertyExpr(line int, target Expr, name string) *GetPropertyExpr {
	return &GetPropertyExpr{base: newBase(line), Target: target, Name: name}
}
func NewSetPropertyExpr(line int, target Expr, name string, value Expr) *SetPropertyExpr {
	return &SetPropertyExpr{base: newBase(line), Target: target, Name: name, Value: value}
}
func NewSuperExpr(line int, method string) *SuperExpr {
	return &SuperExpr{base: newBase(line), Method: method}
}
func NewThisExpr(line int) *ThisExpr { return &ThisExpr{base: newBase(line)} }
func NewYieldExpr(line int, value Expr) *YieldExpr {
	return &YieldExpr{base: newBase(line), Value: value}
}
func NewLambdaExpr(line int, params []*Parameter, ret TypeNode, body *BlockStmt) *LambdaExpr {
	return &LambdaExpr{base: newBase(line), Params: params, ReturnType: ret, Body: body}
}
func NewListExpr(line int, elems []Expr) *ListExpr {
	return &ListExpr{base: newBase(line), Elements: elems}
}
func NewMapExpr(line int, keys, values []Expr) *MapExpr {
	return &MapExpr{base: newBase(line), Keys: keys, Values: values}
}

func (n *LiteralExpr) Kind() string          { return "expr.literal" }
func (n *LiteralExpr) Walk(Visitor)          {}
func (n *LiteralExpr) Trace(func(gc.Object)) {}

func (n *GroupingExpr) Kind() string { return "expr.grouping" }
func (n *GroupingExpr) Walk(v Visitor) {
	Walk(v, n.Inner)
}
func (n *GroupingExpr) Trace(mark func(gc.Object)) { mark(n.Inner) }

func (n *UnaryExpr) Kind() string           { return "expr.unary" }
func (n *UnaryExpr) Walk(v Visitor)         { Walk(v, n.Right) }
func (n *UnaryExpr) Trace(mark func(gc.Object)) { mark(n.Right) }

func (n *BinaryExpr) Kind() string { return "expr.binary" }
func (n *BinaryExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *BinaryExpr) Trace(mark func(gc.Object)) {
	mark(n.Left)
	mark(n.Right)
}

func (n *LogicalExpr) Kind() string { return "expr.logical" }
func (n *LogicalExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *LogicalExpr) Trace(mark func(gc.Object)) {
	mark(n.Left)
	mark(n.Right)
}

func (n *VariableExpr) Kind() string          { return "expr.variable" }
func (n *VariableExpr) Walk(Visitor)          {}
func (n *VariableExpr) Trace(func(gc.Object)) {}

func (n *AssignExpr) Kind() string { return "expr.assign" }
func (n *AssignExpr) Walk(v Visitor) {
	Walk(v, n.Target)
	Walk(v, n.Value)
}
func (n *AssignExpr) Trace(mark func(gc.Object)) {
	mark(n.Target)
	mark(n.Value)
}

func (n *CallExpr) Kind() string { return "expr.call" }
func (n *CallExpr) Walk(v Visitor) {
	Walk(v, n.Callee)
	for _, a := range n.Args {
		Walk(v, a)
	}
}
func (n *CallExpr) Trace(mark func(gc.Object)) {
	mark(n.Callee)
	for _, a := range n.Args {
		mark(a)
	}
}

func (n *GetItemExpr) Kind() string { return "expr.getitem" }
func (n *GetItemExpr) Walk(v Visitor) {
	Walk(v, n.Target)
	Walk(v, n.Index)
}
func (n *GetItemExpr) Trace(mark func(gc.Object)) {
	mark(n.Target)
	mark(n.Index)
}

func (n *GetPropertyExpr) Kind() string          { return "expr.getproperty" }
func (n *GetPropertyExpr) Walk(v Visitor)        { Walk(v, n.Target) }
func (n *GetPropertyExpr) Trace(mark func(gc.Object)) { mark(n.Target) }

func (n *SetPropertyExpr) Kind() string { return "expr.setproperty" }
func (n *SetPropertyExpr) Walk(v Visitor) {
	Walk(v, n.Target)
	Walk(v, n.Value)
}
func (n *SetPropertyExpr) Trace(mark func(gc.Object)) {
	mark(n.Target)
	mark(n.Value)
}

func (n *SuperExpr) Kind() string          { return "expr.super" }
func (n *SuperExpr) Walk(Visitor)          {}
func (n *SuperExpr) Trace(func(gc.Object)) {}

func (n *ThisExpr) Kind() string          { return "expr.this" }
func (n *ThisExpr) Walk(Visitor)          {}
func (n *ThisExpr) Trace(func(gc.Object)) {}

func (n *YieldExpr) Kind() string { return "expr.yield" }
func (n *YieldExpr) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}
func (n *YieldExpr) Trace(mark func(gc.Object)) {
	if n.Value != nil {
		mark(n.Value)
	}
}

func (n *LambdaExpr) Kind() string { return "expr.lambda" }
func (n *LambdaExpr) Walk(v Visitor) {
	for _, p := range n.Params {
		Walk(v, p)
	}
	if n.ReturnType != nil {
		Walk(v, n.ReturnType)
	}
	Walk(v, n.Body)
}
func (n *LambdaExpr) Trace(mark func(gc.Object)) {
	for _, p := range n.Params {
		mark(p)
	}
	if n.ReturnType != nil {
		mark(n.ReturnType)
	}
	mark(n.Body)
}

func (n *ListExpr) Kind() string { return "expr.list" }
func (n *ListExpr) Walk(v Visitor) {
	for _, e := range n.Elements {
		Walk(v, e)
	}
}
func (n *ListExpr) Trace(mark func(gc.Object)) {
	for _, e := range n.Elements {
		mark(e)
	}
}

func (n *MapExpr) Kind() string { return "expr.map" }
func (n *MapExpr) Walk(v Visitor) {
	for i := range n.Keys {
		Walk(v, n.Keys[i])
		Walk(v, n.Values[i])
	}
}
func (n *MapExpr) Trace(mark func(gc.Object)) {
	for i := range n.Keys {
		mark(n.Keys[i])
		mark(n.Values[i])
	}
}
