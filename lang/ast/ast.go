// Package ast defines the abstract syntax tree produced by lang/parser: a
// tagged union of three node families — TypeNode, Expr and Stmt — plus the
// Parameter sub-kinds, as described by the Saffron data model (spec.md §3).
// Every node embeds gc.Header so the tree can be linked into the same heap
// that backs runtime values ("single heap that holds both runtime values and
// AST/type nodes").
package ast

import "github.com/saffron-lang/saffron/lang/gc"

// Node is implemented by every AST node.
type Node interface {
	gc.Object
	Line() int
	Walk(v Visitor)
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
	// BlockEnding reports whether the statement may only appear as the last
	// statement in a block (return, break).
	BlockEnding() bool
}

// TypeNode is implemented by every type-annotation node produced by the
// parser (not to be confused with lang/types.Type, the checker's resolved
// type value).
type TypeNode interface {
	Node
	typeNode()
}

// base is embedded by every concrete node; it supplies the GC header and the
// source line so individual node kinds don't repeat that boilerplate.
type base struct {
	gc.Header
	line int
}

func (b *base) Line() int            { return b.line }
func (b *base) Kind() string         { return "ast-node" }
func (b *base) BlockEnding() bool    { return false }

// Mark walks n and every node reachable from it, marking each with mark. AST
// nodes are not performance sensitive the way runtime values are, so a
// single eager pass (rather than true incremental tri-color tracing) is
// sufficient.
func Mark(n Node, mark func(gc.Object)) {
	if n == nil {
		return
	}
	var v Visitor
	v = VisitorFunc(func(child Node, dir VisitDirection) Visitor {
		if dir == VisitEnter {
			mark(child)
		}
		return v
	})
	Walk(v, n)
}
