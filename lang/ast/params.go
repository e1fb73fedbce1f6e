package ast

import "github.com/saffron-lang/saffron/lang/gc"

// ParamForm discriminates the three Parameter shapes the parser accepts.
// Variadic and Keyword parameters are parsed but never wired through the
// compiler or VM (spec.md §9 Open Questions: "reserved for future use").
type ParamForm int8

const (
	ParamPositional ParamForm = iota
	ParamKeyword
	ParamVariadic
)

// Parameter is one formal parameter of a function, lambda, or method.
type Parameter struct {
	base
	Form    ParamForm
	Name    string
	Type    TypeNode // optional annotation
	Default Expr     // only set when Form == ParamKeyword
}

func NewParameter(line int, form ParamForm, name string, typ TypeNode, def Expr) *Parameter {
	return &Parameter{base: newBase(line), Form: form, Name: name, Type: typ, Default: def}
}

func (p *Parameter) Kind() string { return "parameter" }

func (p *Parameter) Walk(v Visitor) {
	if p.Type != nil {
		Walk(v, p.Type)
	}
	if p.Default != nil {
		Walk(v, p.Default)
	}
}

func (p *Parameter) Trace(mark func(gc.Object)) {
	if p.Type != nil {
		mark(p.Type)
	}
	if p.Default != nil {
		mark(p.Default)
	}
}
