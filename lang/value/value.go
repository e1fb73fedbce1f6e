// Package value defines Saffron's runtime Value union (spec.md §3): the
// unboxed Bool/Nil/Number kinds plus the two heap object kinds simple
// enough to be shared by both the compiler (which interns string/atom
// constants as it emits a Chunk) and the VM (which interns every string it
// creates at run time) — String and Atom. Every other heap object kind
// (Closure, Class, Instance, List, Map, ...) is defined in lang/vm, which
// imports this package for the Value interface they all implement.
package value

import (
	"strconv"

	"github.com/saffron-lang/saffron/lang/gc"
)

// Value is implemented by every Saffron runtime value.
type Value interface {
	Type() string
	String() string
}

// Bool is a boolean value.
type Bool bool

func (Bool) Type() string     { return "Bool" }
func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Nil is the singular nil value.
type Nil struct{}

func (Nil) Type() string   { return "Nil" }
func (Nil) String() string { return "nil" }

// Number is an IEEE-754 double.
type Number float64

func (Number) Type() string { return "Number" }
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

// Truthy implements Saffron's falsiness rule: Nil and false are falsy,
// everything else is truthy (spec.md §4.5).
func Truthy(v Value) bool {
	switch t := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(t)
	case nil:
		return false
	}
	return true
}

// Equal implements Saffron's `==`: numbers compare bit-exact, strings and
// atoms by content (interning makes this a pointer-compare in practice),
// booleans and nil by identity of kind.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Nil:
		_, ok := b.(Nil)
		return ok
	case *String:
		bv, ok := b.(*String)
		return ok && av.Value == bv.Value
	case *Atom:
		bv, ok := b.(*Atom)
		return ok && av.Value == bv.Value
	}
	return a == b
}

// Obj is implemented by every heap-allocated Value kind.
type Obj interface {
	Value
	gc.Object
}

// fnv1a32 is the hash spec.md §3 names for String/Atom: "FNV-1a 32-bit
// hash", computed once at intern time and cached on the object so a Map
// lookup never recomputes it.
func fnv1a32(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// String is an interned heap string.
type String struct {
	gc.Header
	Value string
	Hash  uint32
}

func (*String) Kind() string          { return "string" }
func (*String) Type() string          { return "String" }
func (s *String) String() string      { return s.Value }
func (*String) Trace(func(gc.Object)) {}

// InternString returns the heap-interned String for s, allocating a new one
// only the first time s is seen (spec.md: "String and atom identity is
// hash-consed").
func InternString(h *gc.Heap, s string) *String {
	obj := h.Intern(h.StringTable(), s, func() gc.Object {
		str := &String{Value: s, Hash: fnv1a32(s)}
		h.Alloc(str, int64(len(s))+16)
		return str
	})
	return obj.(*String)
}

// Atom is an interned symbol literal, printed with a leading `:`.
type Atom struct {
	gc.Header
	Value string
	Hash  uint32
}

func (*Atom) Kind() string          { return "atom" }
func (*Atom) Type() string          { return "Atom" }
func (a *Atom) String() string      { return ":" + a.Value }
func (*Atom) Trace(func(gc.Object)) {}

// InternAtom returns the heap-interned Atom for name.
func InternAtom(h *gc.Heap, name string) *Atom {
	obj := h.Intern(h.AtomTable(), name, func() gc.Object {
		atom := &Atom{Value: name, Hash: fnv1a32(name)}
		h.Alloc(atom, int64(len(name))+16)
		return atom
	})
	return obj.(*Atom)
}
