package compiler

import (
	"github.com/saffron-lang/saffron/lang/ast"
	"github.com/saffron-lang/saffron/lang/value"
)

// compileExpr emits code that leaves exactly one value on the stack,
// following astcompile.c's compileNode expression cases one-for-one.
func (c *Compiler) compileExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		c.compileLiteral(n)

	case *ast.GroupingExpr:
		c.compileExpr(n.Inner)

	case *ast.UnaryExpr:
		c.compileExpr(n.Right)
		switch n.Op {
		case "!":
			c.emit(NOT, n.Line())
		case "-":
			c.emit(NEGATE, n.Line())
		}

	case *ast.BinaryExpr:
		c.compileBinary(n)

	case *ast.LogicalExpr:
		c.compileLogical(n)

	case *ast.VariableExpr:
		c.getVariable(n.Line(), n.Name)

	case *ast.AssignExpr:
		c.compileAssign(n)

	case *ast.CallExpr:
		c.compileCall(n)

	case *ast.GetItemExpr:
		c.compileExpr(n.Target)
		c.compileExpr(n.Index)
		c.emit(GETITEM, n.Line())

	case *ast.GetPropertyExpr:
		c.compileExpr(n.Target)
		c.emit(GET_PROPERTY, n.Line())
		c.emitByte(c.identifierConstant(n.Line(), n.Name), n.Line())

	case *ast.SetPropertyExpr:
		c.compileExpr(n.Target)
		c.compileExpr(n.Value)
		c.emit(SET_PROPERTY, n.Line())
		c.emitByte(c.identifierConstant(n.Line(), n.Name), n.Line())

	case *ast.SuperExpr:
		c.compileSuperGet(n)

	case *ast.ThisExpr:
		if c.class == nil {
			c.errorf(n.Line(), "'this' used outside a class")
			return
		}
		c.getVariable(n.Line(), "this")

	case *ast.YieldExpr:
		if n.Value != nil {
			c.compileExpr(n.Value)
		} else {
			c.emit(NILOP, n.Line())
		}
		c.emit(YIELD, n.Line())

	case *ast.LambdaExpr:
		c.compileFunctionBody(kindFunction, "<lambda>", n.Params, n.Body)

	case *ast.ListExpr:
		for _, el := range n.Elements {
			c.compileExpr(el)
		}
		c.emit(LIST, n.Line())
		c.emitByte(byte(len(n.Elements)), n.Line())

	case *ast.MapExpr:
		for i := range n.Keys {
			c.compileExpr(n.Keys[i])
			c.compileExpr(n.Values[i])
		}
		c.emit(MAPLIT, n.Line())
		c.emitByte(byte(len(n.Keys)), n.Line())

	default:
		c.errorf(e.Line(), "compiler: unhandled expression %s", e.Kind())
	}
}

func (c *Compiler) compileLiteral(n *ast.LiteralExpr) {
	if n.IsAtom {
		name, _ := n.Value.(string)
		c.emitConstant(n.Line(), value.InternAtom(c.heap, name))
		return
	}
	switch v := n.Value.(type) {
	case bool:
		if v {
			c.emit(TRUE, n.Line())
		} else {
			c.emit(FALSE, n.Line())
		}
	case nil:
		c.emit(NILOP, n.Line())
	case float64:
		c.emitConstant(n.Line(), value.Number(v))
	case string:
		c.emitConstant(n.Line(), value.InternString(c.heap, v))
	default:
		c.errorf(n.Line(), "compiler: unsupported literal value %T", v)
	}
}

func (c *Compiler) compileBinary(n *ast.BinaryExpr) {
	c.compileExpr(n.Left)
	c.compileExpr(n.Right)
	line := n.Line()
	switch n.Op {
	case "+":
		c.emit(ADD, line)
	case "-":
		c.emit(SUBTRACT, line)
	case "*":
		c.emit(MULTIPLY, line)
	case "/":
		c.emit(DIVIDE, line)
	case "%":
		c.emit(MODULO, line)
	case "==":
		c.emit(EQUAL, line)
	case "!=":
		c.emit(EQUAL, line)
		c.emit(NOT, line)
	case ">":
		c.emit(GREATER, line)
	case ">=":
		c.emit(LESS, line)
		c.emit(NOT, line)
	case "<":
		c.emit(LESS, line)
	case "<=":
		c.emit(GREATER, line)
		c.emit(NOT, line)
	default:
		c.errorf(line, "compiler: unknown binary operator %q", n.Op)
	}
}

// compileLogical implements `and`/`or` as short-circuiting jumps rather
// than an opcode: `a and b` leaves a's value if it's falsy, else pops it
// and evaluates b; `a or b` is the mirror image.
func (c *Compiler) compileLogical(n *ast.LogicalExpr) {
	c.compileExpr(n.Left)
	line := n.Line()
	if n.Op == "and" {
		endJump := c.emitJump(JUMP_IF_FALSE, line)
		c.emit(POP, line)
		c.compileExpr(n.Right)
		c.patchJump(endJump)
		return
	}
	// `or`: if the left side is truthy, skip straight to its value.
	elseJump := c.emitJump(JUMP_IF_FALSE, line)
	endJump := c.emitJump(JUMP, line)
	c.patchJump(elseJump)
	c.emit(POP, line)
	c.compileExpr(n.Right)
	c.patchJump(endJump)
}

func (c *Compiler) compileAssign(n *ast.AssignExpr) {
	switch t := n.Target.(type) {
	case *ast.VariableExpr:
		c.compileExpr(n.Value)
		c.setVariable(n.Line(), t.Name)
	case *ast.GetItemExpr:
		c.compileExpr(t.Target)
		c.compileExpr(t.Index)
		c.compileExpr(n.Value)
		c.emit(SETITEM, n.Line())
	default:
		c.errorf(n.Line(), "compiler: invalid assignment target %T", t)
	}
}

// compileCall recognizes the `recv.name(...)` and `super.name(...)` call
// shapes and fuses them into a single INVOKE/SUPER_INVOKE instruction,
// exactly as astcompile.c's NODE_CALL case special-cases NODE_GET and
// NODE_SUPER callees — the parser deliberately builds a plain
// CallExpr{Callee: *GetPropertyExpr} (see lang/parser/expr.go's dot) and
// leaves this fusion to the compiler.
func (c *Compiler) compileCall(n *ast.CallExpr) {
	line := n.Line()
	switch callee := n.Callee.(type) {
	case *ast.GetPropertyExpr:
		c.compileExpr(callee.Target)
		nameConst := c.identifierConstant(callee.Line(), callee.Name)
		for _, a := range n.Args {
			c.compileExpr(a)
		}
		c.emit(INVOKE, line)
		c.emitByte(nameConst, line)
		c.emitByte(byte(len(n.Args)), line)

	case *ast.SuperExpr:
		if c.class == nil {
			c.errorf(line, "'super' used outside a class")
		} else if !c.class.hasSuperclass {
			c.errorf(line, "'super' used in a class with no superclass")
		}
		c.getVariable(line, "this")
		nameConst := c.identifierConstant(callee.Line(), callee.Method)
		for _, a := range n.Args {
			c.compileExpr(a)
		}
		c.getVariable(line, "super")
		c.emit(SUPER_INVOKE, line)
		c.emitByte(nameConst, line)
		c.emitByte(byte(len(n.Args)), line)

	default:
		c.compileExpr(n.Callee)
		for _, a := range n.Args {
			c.compileExpr(a)
		}
		c.emit(CALL, line)
		c.emitByte(byte(len(n.Args)), line)
	}
}

func (c *Compiler) compileSuperGet(n *ast.SuperExpr) {
	line := n.Line()
	if c.class == nil {
		c.errorf(line, "'super' used outside a class")
	} else if !c.class.hasSuperclass {
		c.errorf(line, "'super' used in a class with no superclass")
	}
	nameConst := c.identifierConstant(line, n.Method)
	c.getVariable(line, "this")
	c.getVariable(line, "super")
	c.emit(GET_SUPER, line)
	c.emitByte(nameConst, line)
}
