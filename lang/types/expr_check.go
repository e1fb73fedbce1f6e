package types

import "github.com/saffron-lang/saffron/lang/ast"

// checkExpr type-checks e and returns its resolved type, reporting
// diagnostics as it goes. It never returns nil for a well-formed AST node —
// an unrecognized or unresolved shape falls back to Any, the permissive top
// type (spec.md §4.3: "no full type inference ... uses Any ... to remain
// permissive").
func (c *Checker) checkExpr(e ast.Expr, env *Env) Type {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		return c.checkLiteral(n)

	case *ast.GroupingExpr:
		return c.checkExpr(n.Inner, env)

	case *ast.UnaryExpr:
		t := c.checkExpr(n.Right, env)
		if n.Op == "-" && !IsSubtype(t, Number) {
			c.errorf(n.Line(), "unary '-' requires a Number operand, got %s", t.String())
		}
		if n.Op == "-" {
			return Number
		}
		return Bool

	case *ast.BinaryExpr:
		return c.checkBinary(n, env)

	case *ast.LogicalExpr:
		c.checkExpr(n.Left, env)
		c.checkExpr(n.Right, env)
		return Bool

	case *ast.VariableExpr:
		if t, ok := env.Lookup(n.Name); ok {
			return t
		}
		c.errorf(n.Line(), "undefined variable %q", n.Name)
		return Any

	case *ast.AssignExpr:
		valT := c.checkExpr(n.Value, env)
		targetT := c.checkExpr(n.Target, env)
		if targetT != nil && valT != nil && !IsSubtype(valT, targetT) && targetT != Any {
			c.errorf(n.Line(), "cannot assign %s to target of type %s", valT.String(), targetT.String())
		}
		return valT

	case *ast.CallExpr:
		return c.checkCall(n, env)

	case *ast.GetItemExpr:
		c.checkExpr(n.Target, env)
		c.checkExpr(n.Index, env)
		return Any

	case *ast.GetPropertyExpr:
		return c.checkGetProperty(n, env)

	case *ast.SetPropertyExpr:
		targetT := c.checkExpr(n.Target, env)
		valT := c.checkExpr(n.Value, env)
		if want, ok := fieldType(targetT, n.Name); ok && valT != nil && !IsSubtype(valT, want) {
			c.errorf(n.Line(), "cannot assign %s to field %q of type %s", valT.String(), n.Name, want.String())
		}
		return valT

	case *ast.SuperExpr:
		if c.currentSuper == nil {
			c.errorf(n.Line(), "'super' used outside a subclass method")
			return Any
		}
		if m, ok := c.currentSuper.Methods[n.Method]; ok {
			return m
		}
		c.errorf(n.Line(), "undefined superclass method %q", n.Method)
		return Any

	case *ast.ThisExpr:
		if c.currentClass == nil {
			c.errorf(n.Line(), "'this' used outside a method")
			return Any
		}
		return c.currentClass

	case *ast.YieldExpr:
		if n.Value != nil {
			c.checkExpr(n.Value, env)
		}
		return Any

	case *ast.LambdaExpr:
		ft := c.functorTypeOf(n.Params, n.ReturnType, env)
		c.checkFunctionBody(n.Params, n.ReturnType, n.Body, env, ft, false)
		return ft

	case *ast.ListExpr:
		return c.checkList(n, env)

	case *ast.MapExpr:
		return c.checkMap(n, env)
	}
	return Any
}

func (c *Checker) checkLiteral(n *ast.LiteralExpr) Type {
	if n.IsAtom {
		return Atom
	}
	switch n.Value.(type) {
	case float64:
		return Number
	case string:
		return String
	case bool:
		return Bool
	case nil:
		return Nil
	}
	return Any
}

func (c *Checker) checkBinary(n *ast.BinaryExpr, env *Env) Type {
	left := c.checkExpr(n.Left, env)
	right := c.checkExpr(n.Right, env)
	switch n.Op {
	case "==", "!=":
		return Bool
	case "<", ">", "<=", ">=":
		if !IsSubtype(left, Number) || !IsSubtype(right, Number) {
			c.errorf(n.Line(), "comparison requires Number operands, got %s and %s", left.String(), right.String())
		}
		return Bool
	case "+":
		if IsSubtype(left, String) && IsSubtype(right, String) {
			return String
		}
		if !IsSubtype(left, Number) || !IsSubtype(right, Number) {
			c.errorf(n.Line(), "operands must be numbers (or strings, for '+'), got %s and %s", left.String(), right.String())
		}
		return Number
	default: // "-", "*", "/", "%"
		if !IsSubtype(left, Number) || !IsSubtype(right, Number) {
			c.errorf(n.Line(), "operands must be numbers, got %s and %s", left.String(), right.String())
		}
		return Number
	}
}

func (c *Checker) checkCall(n *ast.CallExpr, env *Env) Type {
	calleeT := c.checkExpr(n.Callee, env)
	argTypes := make([]Type, len(n.Args))
	for i, a := range n.Args {
		argTypes[i] = c.checkExpr(a, env)
	}

	switch ct := calleeT.(type) {
	case *FunctorType:
		if len(ct.Args) != len(n.Args) {
			c.errorf(n.Line(), "expected %d argument(s), got %d", len(ct.Args), len(n.Args))
		} else {
			for i, want := range ct.Args {
				if argTypes[i] != nil && !IsSubtype(argTypes[i], want) {
					c.errorf(n.Args[i].Line(), "argument %d: cannot use %s as %s", i+1, argTypes[i].String(), want.String())
				}
			}
		}
		return ct.Return
	case *SimpleType:
		// class instantiation: arity-checked against init, if declared.
		if init, ok := ct.Methods["init"]; ok {
			if len(init.Args) != len(n.Args) {
				c.errorf(n.Line(), "expected %d argument(s) to %s.init, got %d", len(init.Args), ct.Name, len(n.Args))
			}
		} else if len(n.Args) != 0 {
			c.errorf(n.Line(), "%s has no init and takes no arguments", ct.Name)
		}
		return ct
	case nil:
		return Any
	}
	if calleeT == Any {
		return Any
	}
	c.errorf(n.Line(), "%s is not callable", calleeT.String())
	return Any
}

func (c *Checker) checkGetProperty(n *ast.GetPropertyExpr, env *Env) Type {
	targetT := c.checkExpr(n.Target, env)
	if targetT == Any || targetT == nil {
		return Any
	}
	if t, ok := fieldType(targetT, n.Name); ok {
		return t
	}
	if st, ok := targetT.(*SimpleType); ok {
		if m, ok := st.Methods[n.Name]; ok {
			return m
		}
	}
	c.errorf(n.Line(), "undefined property %q on %s", n.Name, targetT.String())
	return Any
}

func fieldType(t Type, name string) (Type, bool) {
	switch v := t.(type) {
	case *SimpleType:
		f, ok := v.Fields[name]
		return f, ok
	case *InterfaceType:
		f, ok := v.Fields[name]
		return f, ok
	case *GenericType:
		return fieldType(v.Target, name)
	}
	return nil, false
}

func (c *Checker) checkList(n *ast.ListExpr, env *Env) Type {
	var elemWant Type
	if g, ok := c.currentAssignmentType.(*GenericType); ok && g.Target == Type(List) && len(g.Args) == 1 {
		elemWant = g.Args[0]
	}
	var elemT Type
	for _, el := range n.Elements {
		prev := c.currentAssignmentType
		c.currentAssignmentType = elemWant
		t := c.checkExpr(el, env)
		c.currentAssignmentType = prev
		if elemWant != nil && t != nil && !IsSubtype(t, elemWant) {
			c.errorf(el.Line(), "list element %s is not compatible with %s", t.String(), elemWant.String())
		}
		if elemT == nil {
			elemT = t
		}
	}
	if elemWant != nil {
		return &GenericType{Target: List, Args: []Type{elemWant}}
	}
	if elemT == nil {
		elemT = Any
	}
	return &GenericType{Target: List, Args: []Type{elemT}}
}

func (c *Checker) checkMap(n *ast.MapExpr, env *Env) Type {
	var keyWant, valWant Type
	if g, ok := c.currentAssignmentType.(*GenericType); ok && g.Target == Type(Map) && len(g.Args) == 2 {
		keyWant, valWant = g.Args[0], g.Args[1]
	}
	var keyT, valT Type
	for i := range n.Keys {
		kt := c.checkExpr(n.Keys[i], env)
		vt := c.checkExpr(n.Values[i], env)
		if keyT == nil {
			keyT = kt
		}
		if valT == nil {
			valT = vt
		}
	}
	if keyWant == nil {
		keyWant = keyT
	}
	if valWant == nil {
		valWant = valT
	}
	if keyWant == nil {
		keyWant = Any
	}
	if valWant == nil {
		valWant = Any
	}
	return &GenericType{Target: Map, Args: []Type{keyWant, valWant}}
}
