// Package types implements Saffron's structural type checker (spec.md §4.3):
// a post-parse AST traversal that resolves and structurally compares types,
// threading diagnostics through a global hadError flag rather than aborting.
//
// The checker replaces the teacher's name-resolution pass (lang/resolver),
// reusing its enclosing-pointer environment-chaining design but walking
// structural types instead of binding slots.
package types

import "github.com/saffron-lang/saffron/lang/gc"

// Type is the checker's runtime representation of a Saffron type. All five
// variants are GC-traced heap objects (spec.md: "TypeObj ... still
// heap-managed and GC-traced"), since the checker runs on the same heap as
// everything else.
type Type interface {
	gc.Object
	typeNode()
	String() string
}

type base struct {
	gc.Header
}

func (base) Kind() string { return "type" }

// SimpleType is a nominal-looking, structurally-compared named type: a bag
// of fields and methods, optional generic parameters, and an optional
// superclass link.
type SimpleType struct {
	base
	Name     string
	Fields   map[string]Type
	Methods  map[string]*FunctorType
	Generics []string
	Super    Type // optional
}

// FunctorType is a function type.
type FunctorType struct {
	base
	Args     []Type
	Generics []string
	Return   Type
}

// GenericType is an instantiation of a generic SimpleType/FunctorType with
// concrete type arguments substituted in.
type GenericType struct {
	base
	Target Type
	Args   []Type
}

// UnionType is `Left | Right`.
type UnionType struct {
	base
	Left, Right Type
}

// InterfaceType is a structural contract: a bag of required fields/methods,
// with an optional super-interface and its own generic parameters.
type InterfaceType struct {
	base
	Name     string
	Fields   map[string]Type
	Methods  map[string]*FunctorType
	Generics []string
	Super    Type // optional
}

// GenericTypeDefinition is a type parameter placeholder bound within a
// generic SimpleType/FunctorType/InterfaceType's own scope, e.g. the `T` in
// `class Box<T> { ... }`. Extends records the upper bound, if any (`T
// extends Number`); nil means unbounded (equivalent to `T extends Any`).
type GenericTypeDefinition struct {
	base
	Name    string
	Extends Type
}

func (*SimpleType) typeNode()             {}
func (*FunctorType) typeNode()            {}
func (*GenericType) typeNode()            {}
func (*UnionType) typeNode()              {}
func (*InterfaceType) typeNode()          {}
func (*GenericTypeDefinition) typeNode()  {}

// Well-known singletons populating the global type environment (spec.md
// §4.3: "pre-populated with built-ins").
var (
	Number = &SimpleType{Name: "Number"}
	Nil    = &SimpleType{Name: "Nil"}
	Bool   = &SimpleType{Name: "Bool"}
	Atom   = &SimpleType{Name: "Atom"}
	String = &SimpleType{Name: "String"}
	Never  = &SimpleType{Name: "Never"}
	Any    = &SimpleType{Name: "Any"}
	List   = &SimpleType{Name: "List", Generics: []string{"T"}}
	Map    = &SimpleType{Name: "Map", Generics: []string{"K", "V"}}
	Task   = &SimpleType{Name: "Task", Generics: []string{"T"}}
)

func (t *SimpleType) String() string {
	if t.Name != "" {
		return t.Name
	}
	return "<anonymous>"
}

func (t *FunctorType) String() string {
	s := "("
	for i, a := range t.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	s += ") => "
	if t.Return != nil {
		s += t.Return.String()
	} else {
		s += "Nil"
	}
	return s
}

func (t *GenericType) String() string {
	s := t.Target.String() + "<"
	for i, a := range t.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ">"
}

func (t *UnionType) String() string { return t.Left.String() + " | " + t.Right.String() }

func (t *InterfaceType) String() string {
	if t.Name != "" {
		return t.Name
	}
	return "<interface>"
}

func (t *GenericTypeDefinition) String() string { return t.Name }

func (t *SimpleType) Walk(mark func(gc.Object)) {
	for _, f := range t.Fields {
		mark(f)
	}
	for _, m := range t.Methods {
		mark(m)
	}
	if t.Super != nil {
		mark(t.Super)
	}
}
func (t *SimpleType) Trace(mark func(gc.Object)) { t.Walk(mark) }

func (t *FunctorType) Trace(mark func(gc.Object)) {
	for _, a := range t.Args {
		mark(a)
	}
	if t.Return != nil {
		mark(t.Return)
	}
}

func (t *GenericType) Trace(mark func(gc.Object)) {
	mark(t.Target)
	for _, a := range t.Args {
		mark(a)
	}
}

func (t *UnionType) Trace(mark func(gc.Object)) {
	mark(t.Left)
	mark(t.Right)
}

func (t *InterfaceType) Trace(mark func(gc.Object)) {
	for _, f := range t.Fields {
		mark(f)
	}
	for _, m := range t.Methods {
		mark(m)
	}
	if t.Super != nil {
		mark(t.Super)
	}
}

func (t *GenericTypeDefinition) Trace(mark func(gc.Object)) {
	if t.Extends != nil {
		mark(t.Extends)
	}
}

// IsSubtype implements spec.md §4.3's subtyping relation: "can a value of
// type sub be used where sup is expected."
func IsSubtype(sub, sup Type) bool {
	if sub == sup {
		return true
	}
	if sup == Never {
		return false
	}
	if sup == Any {
		return true
	}
	if sub == Any {
		// Any is gradual typing's unknown: a value the checker never
		// narrowed (an untyped parameter, an unannotated field) must stay
		// usable wherever its declared type would have been, or every
		// untyped function touching a Number/String would spuriously fail.
		return true
	}
	if g, ok := sub.(*GenericType); ok {
		if IsSubtype(g.Target, sup) {
			return true
		}
	}

	switch supT := sup.(type) {
	case *SimpleType:
		subT, ok := sub.(*SimpleType)
		if !ok {
			return false
		}
		for s := subT.Super; s != nil; {
			if s == Type(supT) {
				return true
			}
			parent, ok := s.(*SimpleType)
			if !ok {
				break
			}
			s = parent.Super
		}
		return false

	case *FunctorType:
		subT, ok := sub.(*FunctorType)
		if !ok {
			return false
		}
		if len(subT.Args) != len(supT.Args) {
			return false
		}
		// contravariant parameters: sup's arg must be acceptable where sub
		// expects its own argument type, i.e. supArg <: subArg.
		for i := range supT.Args {
			if !IsSubtype(supT.Args[i], subT.Args[i]) {
				return false
			}
		}
		// covariant return.
		return IsSubtype(subT.Return, supT.Return)

	case *UnionType:
		return IsSubtype(sub, supT.Left) || IsSubtype(sub, supT.Right)

	case *InterfaceType:
		return satisfiesInterface(sub, supT)

	case *GenericType:
		subT, ok := sub.(*GenericType)
		if !ok {
			return false
		}
		if !IsSubtype(subT.Target, supT.Target) || len(subT.Args) != len(supT.Args) {
			return false
		}
		for i := range supT.Args {
			if !IsSubtype(subT.Args[i], supT.Args[i]) {
				return false
			}
		}
		return true
	}

	return false
}

// satisfiesInterface implements the structural interface check spec.md
// §4.3 calls for but the original source left unimplemented ("case
// OBJ_PARSE_INTERFACE_TYPE: break;"): every field and method in sup must
// exist in sub with a compatible type.
func satisfiesInterface(sub Type, sup *InterfaceType) bool {
	fields, methods := memberSet(sub)
	if fields == nil && methods == nil {
		return false
	}
	for name, want := range sup.Fields {
		got, ok := fields[name]
		if !ok || !IsSubtype(got, want) {
			return false
		}
	}
	for name, want := range sup.Methods {
		got, ok := methods[name]
		if !ok || !IsSubtype(got, want) {
			return false
		}
	}
	if sup.Super != nil {
		if superIface, ok := sup.Super.(*InterfaceType); ok {
			return satisfiesInterface(sub, superIface)
		}
	}
	return true
}

func memberSet(t Type) (map[string]Type, map[string]*FunctorType) {
	switch v := t.(type) {
	case *SimpleType:
		return v.Fields, v.Methods
	case *InterfaceType:
		return v.Fields, v.Methods
	case *GenericType:
		return memberSet(v.Target)
	}
	return nil, nil
}
