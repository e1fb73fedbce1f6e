package compiler

import (
	"github.com/saffron-lang/saffron/lang/ast"
	"github.com/saffron-lang/saffron/lang/gc"
	"github.com/saffron-lang/saffron/lang/saferr"
	"github.com/saffron-lang/saffron/lang/value"
)

const maxLocals = 256 // one-byte slot indices (spec.md §4.4)

// functionKind distinguishes the four contexts initCompiler is entered
// with, mirroring the reference compiler's FunctionType enum: a script's
// implicit top-level function, an ordinary `fun`/lambda, a method, and a
// class's `init` (whose implicit return is `this`, not nil).
type functionKind int8

const (
	kindScript functionKind = iota
	kindFunction
	kindMethod
	kindInitializer
)

type local struct {
	name       string
	depth      int // -1 while the initializer is still being compiled
	isCaptured bool
}

// fnState is one nested compiler frame, one per Function being emitted. It
// is the Go analogue of astcompile.c's `Compiler` struct: an enclosing
// pointer, the function under construction, its locals/upvalues arrays,
// and the current lexical scope depth.
type fnState struct {
	enclosing *fnState
	fn        *Function
	kind      functionKind

	locals     []local
	scopeDepth int
	upvals     []UpvalueRef

	loop *loopState // innermost enclosing loop, for `break`
}

// loopState tracks the jump offsets `break` must patch once its enclosing
// loop's body finishes compiling — an extension over the reference
// implementation, whose NODE_BREAK case is an unimplemented `// TODO`
// (astcompile.c); spec.md requires `break` to exit its loop, so this
// supplies the patch-list most bytecode compilers use for that.
type loopState struct {
	enclosing  *loopState
	breakJumps []int
	scopeDepth int
}

// Compiler walks a type-checked AST and emits bytecode Chunks, heap-interning
// string and atom constants as it goes via the supplied heap. It never
// imports lang/vm (see DESIGN.md "Constant-pool layering") — its only
// dependency on the runtime value model is lang/value and lang/gc.
type Compiler struct {
	heap   *gc.Heap
	cur    *fnState
	class  *classState
	errors saferr.List
}

// classState is the class-compiler stack entry used to validate `super`,
// mirroring astcompile.c's ClassCompiler.
type classState struct {
	enclosing     *classState
	name          string
	hasSuperclass bool
}

// New returns a Compiler that interns constants on heap.
func New(heap *gc.Heap) *Compiler {
	return &Compiler{heap: heap}
}

// Compile compiles chunk's top-level statements into a script Function
// (arity 0, no upvalues). A non-nil error means compilation failed; the
// caller should not attempt to run the returned Function.
// Compile turns chunk into a top-level script Function. When the chunk's
// final statement is a bare expression, its value is left on the stack and
// becomes the script's result instead of Nil, so callers like the REPL
// (internal/replcmd) get back the value of the line just evaluated without
// requiring an explicit `return` at the top level (which is otherwise a
// compile error, spec.md §4.4).
func (c *Compiler) Compile(chunk *ast.Chunk) (*Function, error) {
	c.errors.Reset()
	c.beginFunction(kindScript, "script", nil)

	stmts := chunk.Block.Stmts
	lastIsValue := false
	for idx, s := range stmts {
		if idx == len(stmts)-1 {
			if es, ok := s.(*ast.ExprStmt); ok && !isTypeDeclExprStmt(es) {
				c.compileExpr(es.Expr)
				lastIsValue = true
				continue
			}
		}
		c.compileStmt(s)
	}

	fn := c.endScript(lastIsValue)
	if c.errors.HasErrors() {
		return nil, &c.errors
	}
	return fn, nil
}

// isTypeDeclExprStmt reports whether es is actually a parsed interface/type
// declaration in ExprStmt disguise (see the ExprStmt case in compileStmt) —
// those have no runtime value to leave on the stack.
func isTypeDeclExprStmt(es *ast.ExprStmt) bool {
	lit, ok := es.Expr.(*ast.LiteralExpr)
	if !ok {
		return false
	}
	_, isType := lit.Value.(ast.TypeNode)
	return isType
}

func (c *Compiler) errorf(line int, format string, args ...interface{}) {
	c.errors.Addf(line, format, args...)
}

// beginFunction pushes a new fnState, reserving local slot 0 for `this`
// (methods/initializers) exactly as initCompiler does.
func (c *Compiler) beginFunction(kind functionKind, name string, params []*ast.Parameter) {
	fn := &Function{Name: name, Arity: len(params), Chunk: NewChunk()}
	st := &fnState{enclosing: c.cur, fn: fn, kind: kind}
	if kind != kindFunction && kind != kindScript {
		st.locals = append(st.locals, local{name: "this", depth: 0})
	} else {
		st.locals = append(st.locals, local{name: "", depth: 0})
	}
	c.cur = st
}

// endFunction emits the implicit return, pops the fnState, and returns the
// completed Function to the caller (the enclosing beginFunction/endFunction
// pair, or Compile at the top).
func (c *Compiler) endFunction() *Function {
	c.emitReturn(0)
	fn := c.cur.fn
	fn.Upvalues = c.cur.upvalues()
	c.cur = c.cur.enclosing
	return fn
}

// endScript is endFunction specialized for the top-level script: when
// lastIsValue is true the final expression's value is already sitting on
// the stack (Compile skipped its POP), so RETURN is emitted directly
// instead of the usual implicit-Nil return.
func (c *Compiler) endScript(lastIsValue bool) *Function {
	if lastIsValue {
		c.emit(RETURN, 0)
	} else {
		c.emitReturn(0)
	}
	fn := c.cur.fn
	fn.Upvalues = c.cur.upvalues()
	c.cur = c.cur.enclosing
	return fn
}

func (st *fnState) upvalues() []UpvalueRef { return st.upvals }

// --- emission helpers -------------------------------------------------

func (c *Compiler) chunk() *Chunk { return c.cur.fn.Chunk }

func (c *Compiler) emit(op Opcode, line int) int { return c.chunk().WriteOp(op, line) }

func (c *Compiler) emitByte(b byte, line int) int { return c.chunk().Write(b, line) }

func (c *Compiler) emitReturn(line int) {
	if c.cur.kind == kindInitializer {
		c.emit(GET_LOCAL, line)
		c.emitByte(0, line)
	} else {
		c.emit(NILOP, line)
	}
	c.emit(RETURN, line)
}

func (c *Compiler) makeConstant(line int, v value.Value) uint8 {
	idx, ok := c.chunk().AddConstant(v)
	if !ok {
		c.errorf(line, "Too many constants in one chunk.")
		return 0
	}
	return idx
}

func (c *Compiler) emitConstant(line int, v value.Value) {
	c.emit(CONSTANT, line)
	c.emitByte(byte(c.makeConstant(line, v)), line)
}

func (c *Compiler) identifierConstant(line int, name string) uint8 {
	return c.makeConstant(line, value.InternString(c.heap, name))
}

// emitJump writes op followed by a placeholder 16-bit offset, returning the
// offset of the placeholder's first byte for patchJump to fill in later.
func (c *Compiler) emitJump(op Opcode, line int) int {
	c.emit(op, line)
	pos := c.emitByte(0xff, line)
	c.emitByte(0xff, line)
	return pos
}

func (c *Compiler) patchJump(offset int) {
	code := c.chunk().Code
	jump := len(code) - offset - 2
	if jump > 0xffff {
		c.errorf(c.chunk().LineFor(offset), "too much code to jump over")
	}
	code[offset] = byte(jump >> 8)
	code[offset+1] = byte(jump)
}

func (c *Compiler) emitLoop(loopStart, line int) {
	c.emit(LOOP, line)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.errorf(line, "loop body too large")
	}
	c.emitByte(byte(offset>>8), line)
	c.emitByte(byte(offset), line)
}

// --- scopes, locals, upvalues ------------------------------------------

func (c *Compiler) beginScope() { c.cur.scopeDepth++ }

// endScope pops every local declared at or below the scope being exited,
// closing any that were captured by a nested closure rather than just
// popping them (spec.md §4.4's open-upvalue-close invariant).
func (c *Compiler) endScope(line int) {
	st := c.cur
	st.scopeDepth--
	for len(st.locals) > 0 && st.locals[len(st.locals)-1].depth > st.scopeDepth {
		last := st.locals[len(st.locals)-1]
		if last.isCaptured {
			c.emit(CLOSE_UPVALUE, line)
		} else {
			c.emit(POP, line)
		}
		st.locals = st.locals[:len(st.locals)-1]
	}
}

func (c *Compiler) resolveLocal(st *fnState, name string) int {
	for i := len(st.locals) - 1; i >= 0; i-- {
		if st.locals[i].name == name {
			if st.locals[i].depth == -1 {
				c.errorf(0, "can't read local variable %q in its own initializer", name)
			}
			return i
		}
	}
	return -1
}

func (st *fnState) addUpvalue(index uint8, fromLocal bool) int {
	for i, u := range st.upvals {
		if u.Index == index && u.FromLocal == fromLocal {
			return i
		}
	}
	st.upvals = append(st.upvals, UpvalueRef{Index: index, FromLocal: fromLocal})
	return len(st.upvals) - 1
}

func (c *Compiler) resolveUpvalue(st *fnState, name string) int {
	if st.enclosing == nil {
		return -1
	}
	if l := c.resolveLocal(st.enclosing, name); l != -1 {
		st.enclosing.locals[l].isCaptured = true
		return st.addUpvalue(uint8(l), true)
	}
	if u := c.resolveUpvalue(st.enclosing, name); u != -1 {
		return st.addUpvalue(uint8(u), false)
	}
	return -1
}

func (c *Compiler) addLocal(line int, name string) {
	if len(c.cur.locals) >= maxLocals {
		c.errorf(line, "too many local variables in function")
		return
	}
	c.cur.locals = append(c.cur.locals, local{name: name, depth: -1})
}

func (c *Compiler) declareVariable(line int, name string) {
	if c.cur.scopeDepth == 0 {
		return
	}
	for i := len(c.cur.locals) - 1; i >= 0; i-- {
		l := c.cur.locals[i]
		if l.depth != -1 && l.depth < c.cur.scopeDepth {
			break
		}
		if l.name == name {
			c.errorf(line, "a variable named %q already exists in this scope", name)
		}
	}
	c.addLocal(line, name)
}

func (c *Compiler) markInitialized() {
	if c.cur.scopeDepth == 0 {
		return
	}
	c.cur.locals[len(c.cur.locals)-1].depth = c.cur.scopeDepth
}

func (c *Compiler) defineVariable(line int, global uint8) {
	if c.cur.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emit(DEFINE_GLOBAL, line)
	c.emitByte(global, line)
}

func (c *Compiler) getVariable(line int, name string) {
	if l := c.resolveLocal(c.cur, name); l != -1 {
		c.emit(GET_LOCAL, line)
		c.emitByte(byte(l), line)
		return
	}
	if u := c.resolveUpvalue(c.cur, name); u != -1 {
		c.emit(GET_UPVALUE, line)
		c.emitByte(byte(u), line)
		return
	}
	c.emit(GET_GLOBAL, line)
	c.emitByte(c.identifierConstant(line, name), line)
}

func (c *Compiler) setVariable(line int, name string) {
	if l := c.resolveLocal(c.cur, name); l != -1 {
		c.emit(SET_LOCAL, line)
		c.emitByte(byte(l), line)
		return
	}
	if u := c.resolveUpvalue(c.cur, name); u != -1 {
		c.emit(SET_UPVALUE, line)
		c.emitByte(byte(u), line)
		return
	}
	c.emit(SET_GLOBAL, line)
	c.emitByte(c.identifierConstant(line, name), line)
}

// --- statements ----------------------------------------------------------

func (c *Compiler) compileBlock(stmts []ast.Stmt) {
	for _, s := range stmts {
		c.compileStmt(s)
	}
}

func (c *Compiler) compileStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		// A parsed interface/type declaration surfaces as an ExprStmt
		// wrapping a LiteralExpr whose Value is an ast.TypeNode (see
		// lang/parser's wrapTypeNode); those are checker-only constructs
		// with no runtime representation, so the compiler skips them.
		if lit, ok := n.Expr.(*ast.LiteralExpr); ok {
			if _, isType := lit.Value.(ast.TypeNode); isType {
				return
			}
		}
		c.compileExpr(n.Expr)
		c.emit(POP, n.Line())

	case *ast.VarDeclStmt:
		c.declareVariable(n.Line(), n.Name)
		nameConst := c.identifierConstant(n.Line(), n.Name)
		if n.Init != nil {
			c.compileExpr(n.Init)
		} else {
			c.emit(NILOP, n.Line())
		}
		c.defineVariable(n.Line(), nameConst)

	case *ast.BlockStmt:
		c.beginScope()
		c.compileBlock(n.Stmts)
		c.endScope(n.Line())

	case *ast.FunctionStmt:
		c.compileFunctionStmt(n)

	case *ast.ClassStmt:
		c.compileClassStmt(n)

	case *ast.IfStmt:
		c.compileIfStmt(n)

	case *ast.WhileStmt:
		c.compileWhileStmt(n)

	case *ast.ForStmt:
		c.compileForStmt(n)

	case *ast.BreakStmt:
		c.compileBreakStmt(n)

	case *ast.ReturnStmt:
		c.compileReturnStmt(n)

	case *ast.ImportStmt:
		c.emitConstant(n.Line(), value.InternString(c.heap, n.Path))
		c.emit(IMPORT, n.Line())
		alias := n.Alias
		if alias == "" {
			alias = n.Path
		}
		c.declareVariable(n.Line(), alias)
		c.defineVariable(n.Line(), c.identifierConstant(n.Line(), alias))

	case *ast.EnumStmt:
		// Parsed, never wired at runtime (spec.md §9 Open Questions).

	default:
		c.errorf(s.Line(), "compiler: unhandled statement %s", s.Kind())
	}
}

func (c *Compiler) compileFunctionStmt(n *ast.FunctionStmt) {
	kind := kindFunction
	if c.class != nil {
		kind = kindMethod
		if n.IsInitializer {
			kind = kindInitializer
		}
	}
	c.compileFunctionBody(kind, n.Name, n.Params, n.Body)
	if kind == kindFunction {
		global := c.identifierConstant(n.Line(), n.Name)
		c.declareVariable(n.Line(), n.Name)
		c.defineVariable(n.Line(), global)
	}
}

// compileFunctionBody compiles a nested function's body in its own fnState
// and emits the enclosing CLOSURE instruction plus its upvalue descriptor
// bytes, exactly following astcompile.c's NODE_FUNCTION/NODE_LAMBDA cases.
func (c *Compiler) compileFunctionBody(kind functionKind, name string, params []*ast.Parameter, body *ast.BlockStmt) {
	c.beginFunction(kind, name, params)
	c.beginScope()
	for _, p := range params {
		c.declareVariable(p.Line(), p.Name)
		c.defineVariable(p.Line(), c.identifierConstant(p.Line(), p.Name))
	}
	c.compileBlock(body.Stmts)
	fn := c.endFunction()

	line := body.Line()
	idx := c.makeConstant(line, fn)
	c.emit(CLOSURE, line)
	c.emitByte(byte(idx), line)
	for _, u := range fn.Upvalues {
		if u.FromLocal {
			c.emitByte(1, line)
		} else {
			c.emitByte(0, line)
		}
		c.emitByte(u.Index, line)
	}
}

func (c *Compiler) compileClassStmt(n *ast.ClassStmt) {
	nameConst := c.identifierConstant(n.Line(), n.Name)
	c.declareVariable(n.Line(), n.Name)
	c.emit(CLASS, n.Line())
	c.emitByte(nameConst, n.Line())
	c.defineVariable(n.Line(), nameConst)

	cs := &classState{enclosing: c.class, name: n.Name}
	c.class = cs

	if n.Superclass != nil {
		c.getVariable(n.Superclass.Line(), n.Superclass.Name)
		c.beginScope()
		c.addLocal(n.Line(), "super")
		c.defineVariable(n.Line(), 0)

		c.getVariable(n.Line(), n.Name)
		c.emit(INHERIT, n.Line())
		cs.hasSuperclass = true
	}

	c.getVariable(n.Line(), n.Name)
	for _, f := range n.Fields {
		fieldConst := c.identifierConstant(f.Line(), f.Name)
		if f.Init != nil {
			c.compileExpr(f.Init)
		} else {
			c.emit(NILOP, f.Line())
		}
		c.emit(FIELD, f.Line())
		c.emitByte(fieldConst, f.Line())
	}
	for _, m := range n.Methods {
		methodConst := c.identifierConstant(m.Line(), m.Name)
		c.compileFunctionStmt(m)
		c.emit(METHOD, m.Line())
		c.emitByte(methodConst, m.Line())
	}
	c.emit(POP, n.Line())

	if cs.hasSuperclass {
		c.endScope(n.Line())
	}
	c.class = cs.enclosing
}

// compileIfStmt fixes a known bug in astcompile.c's NODE_IF case, which
// calls compileNode on thenBranch twice instead of compiling elseBranch —
// spec.md §4.4/§9 calls this out by name and directs an implementer to
// emit the else branch once; see DESIGN.md.
func (c *Compiler) compileIfStmt(n *ast.IfStmt) {
	c.compileExpr(n.Cond)

	thenJump := c.emitJump(JUMP_IF_FALSE, n.Line())
	c.emit(POP, n.Line())
	c.compileStmt(n.Then)

	elseJump := c.emitJump(JUMP, n.Line())
	c.patchJump(thenJump)
	c.emit(POP, n.Line())

	if n.Else != nil {
		c.compileStmt(n.Else)
	}
	c.patchJump(elseJump)
}

func (c *Compiler) compileWhileStmt(n *ast.WhileStmt) {
	loopStart := len(c.chunk().Code)
	ls := &loopState{enclosing: c.cur.loop, scopeDepth: c.cur.scopeDepth}
	c.cur.loop = ls

	c.compileExpr(n.Cond)
	exitJump := c.emitJump(JUMP_IF_FALSE, n.Line())
	c.emit(POP, n.Line())
	c.compileStmt(n.Body)
	c.emitLoop(loopStart, n.Line())

	c.patchJump(exitJump)
	c.emit(POP, n.Line())
	for _, j := range ls.breakJumps {
		c.patchJump(j)
	}
	c.cur.loop = ls.enclosing
}

func (c *Compiler) compileForStmt(n *ast.ForStmt) {
	c.beginScope()
	if n.Init != nil {
		c.compileStmt(n.Init)
	}

	loopStart := len(c.chunk().Code)
	ls := &loopState{enclosing: c.cur.loop, scopeDepth: c.cur.scopeDepth}
	c.cur.loop = ls

	exitJump := -1
	if n.Cond != nil {
		c.compileExpr(n.Cond)
		exitJump = c.emitJump(JUMP_IF_FALSE, n.Line())
		c.emit(POP, n.Line())
	}

	if n.Post != nil {
		bodyJump := c.emitJump(JUMP, n.Line())
		incrementStart := len(c.chunk().Code)
		c.compileExpr(n.Post)
		c.emit(POP, n.Line())

		c.emitLoop(loopStart, n.Line())
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.compileStmt(n.Body)
	c.emitLoop(loopStart, n.Line())

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emit(POP, n.Line())
	}
	for _, j := range ls.breakJumps {
		c.patchJump(j)
	}
	c.cur.loop = ls.enclosing
	c.endScope(n.Line())
}

func (c *Compiler) compileBreakStmt(n *ast.BreakStmt) {
	ls := c.cur.loop
	if ls == nil {
		c.errorf(n.Line(), "'break' used outside a loop")
		return
	}
	for i := len(c.cur.locals) - 1; i >= 0 && c.cur.locals[i].depth > ls.scopeDepth; i-- {
		if c.cur.locals[i].isCaptured {
			c.emit(CLOSE_UPVALUE, n.Line())
		} else {
			c.emit(POP, n.Line())
		}
	}
	ls.breakJumps = append(ls.breakJumps, c.emitJump(JUMP, n.Line()))
}

func (c *Compiler) compileReturnStmt(n *ast.ReturnStmt) {
	if c.cur.kind == kindScript {
		c.errorf(n.Line(), "Can't return from top-level code.")
	}
	if n.Value == nil {
		c.emitReturn(n.Line())
		return
	}
	if c.cur.kind == kindInitializer {
		c.errorf(n.Line(), "Can't return a value from an initializer.")
	}
	c.compileExpr(n.Value)
	c.emit(RETURN, n.Line())
}
