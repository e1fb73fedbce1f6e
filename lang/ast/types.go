package ast

import "github.com/saffron-lang/saffron/lang/gc"

// SimpleTypeNode is a named type reference, optionally parameterized, e.g.
// `Number` or `List<String>`.
type SimpleTypeNode struct {
	base
	Name     string
	Generics []TypeNode
}

// FunctorTypeNode is a function type, e.g. `(Number, String) => Bool`.
type FunctorTypeNode struct {
	base
	Args     []TypeNode
	Return   TypeNode
	Generics []string
}

// UnionTypeNode is a union of two types, e.g. `Number | Nil`.
type UnionTypeNode struct {
	base
	Left, Right TypeNode
}

// InterfaceTypeNode declares a structural interface body inline, e.g. the
// right-hand side of `type Shape = interface { area() => Number }`.
type InterfaceTypeNode struct {
	base
	Name  string
	Super TypeNode // optional
	Body  []*InterfaceMember
}

// InterfaceMember is one field or method signature inside an interface body.
type InterfaceMember struct {
	base
	Name   string
	Type   TypeNode // field type, or nil for a method
	Method *FunctorTypeNode
}

// TypeDeclarationNode is a top-level `type Name<T> = target` declaration.
type TypeDeclarationNode struct {
	base
	Name     string
	Target   TypeNode
	Generics []string
}

func newBase(line int) base { return base{line: line} }

func NewSimpleTypeNode(line int, name string, generics []TypeNode) *SimpleTypeNode {
	return &SimpleTypeNode{base: newBase(line), Name: name, Generics: generics}
}

func NewFunctorTypeNode(line int, args []TypeNode, ret TypeNode, generics []string) *FunctorTypeNode {
	return &FunctorTypeNode{base: newBase(line), Args: args, Return: ret, Generics: generics}
}

func NewUnionTypeNode(line int, left, right TypeNode) *UnionTypeNode {
	return &UnionTypeNode{base: newBase(line), Left: left, Right: right}
}

func NewInterfaceTypeNode(line int, name string, super TypeNode, body []*InterfaceMember) *InterfaceTypeNode {
	return &InterfaceTypeNode{base: newBase(line), Name: name, Super: super, Body: body}
}

func NewInterfaceMember(line int, name string, typ TypeNode, method *FunctorTypeNode) *InterfaceMember {
	return &InterfaceMember{base: newBase(line), Name: name, Type: typ, Method: method}
}

func NewTypeDeclarationNode(line int, name string, target TypeNode, generics []string) *TypeDeclarationNode {
	return &TypeDeclarationNode{base: newBase(line), Name: name, Target: target, Generics: generics}
}

func (*SimpleTypeNode) typeNode()      {}
func (*FunctorTypeNode) typeNode()     {}
func (*UnionTypeNode) typeNode()       {}
func (*InterfaceTypeNode) typeNode()   {}
func (*TypeDeclarationNode) typeNode() {}

func (n *SimpleTypeNode) Kind() string { return "type.simple" }
func (n *SimpleTypeNode) Walk(v Visitor) {
	for _, g := range n.Generics {
		Walk(v, g)
	}
}
func (n *SimpleTypeNode) Trace(mark func(gc.Object)) {
	for _, g := range n.Generics {
		mark(g)
	}
}

func (n *FunctorTypeNode) Kind() string { return "type.functor" }
func (n *FunctorTypeNode) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a)
	}
	if n.Return != nil {
		Walk(v, n.Return)
	}
}
func (n *FunctorTypeNode) Trace(mark func(gc.Object)) {
	for _, a := range n.Args {
		mark(a)
	}
	if n.Return != nil {
		mark(n.Return)
	}
}

func (n *UnionTypeNode) Kind() string { return "type.union" }
func (n *UnionTypeNode) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *UnionTypeNode) Trace(mark func(gc.Object)) {
	mark(n.Left)
	mark(n.Right)
}

func (n *InterfaceTypeNode) Kind() string { return "type.interface" }
func (n *InterfaceTypeNode) Walk(v Visitor) {
	if n.Super != nil {
		Walk(v, n.Super)
	}
	for _, m := range n.Body {
		Walk(v, m)
	}
}
func (n *InterfaceTypeNode) Trace(mark func(gc.Object)) {
	if n.Super != nil {
		mark(n.Super)
	}
	for _, m := range n.Body {
		mark(m)
	}
}

func (m *InterfaceMember) Kind() string { return "type.interface-member" }
func (m *InterfaceMember) Walk(v Visitor) {
	if m.Type != nil {
		Walk(v, m.Type)
	}
	if m.Method != nil {
		Walk(v, m.Method)
	}
}
func (m *InterfaceMember) Trace(mark func(gc.Object)) {
	if m.Type != nil {
		mark(m.Type)
	}
	if m.Method != nil {
		mark(m.Method)
	}
}
func (n *TypeDeclarationNode) Kind() string { return "type.decl" }
func (n *TypeDeclarationNode) Walk(v Visitor) {
	if n.Target != nil {
		Walk(v, n.Target)
	}
}
func (n *TypeDeclarationNode) Trace(mark func(gc.Object)) {
	if n.Target != nil {
		mark(n.Target)
	}
}
