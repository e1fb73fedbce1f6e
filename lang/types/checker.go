package types

import (
	"path/filepath"

	"github.com/saffron-lang/saffron/lang/ast"
	"github.com/saffron-lang/saffron/lang/saferr"
)

// ModuleLoader resolves and reads an import's source; the checker injects
// one so it never touches the filesystem directly (the source-file reader
// is an external collaborator, per spec.md §1).
type ModuleLoader interface {
	Resolve(fromDir, path string) (string, error)
	Read(resolvedPath string) (string, error)
	Parse(name, src string) (*ast.Chunk, error)
}

// Checker walks a Chunk's AST, resolving and structurally comparing types.
// It never aborts on error: diagnostics accumulate in Errors and hadError
// is set, matching spec.md §4.3 ("errors set a global hadError flag").
type Checker struct {
	global   *Env
	loader   ModuleLoader
	baseDir  string
	modules  map[string]*SimpleType // import cache keyed by resolved path
	hadError bool
	Errors   saferr.List

	// currentAssignmentType is threaded through literal list/map checks so
	// `var xs: List<Number> = [1, 2];` can check each element against the
	// expected element type (spec.md §4.3).
	currentAssignmentType Type

	// class/function context for `this`/`super`/return-type checks.
	currentClass  *SimpleType
	currentSuper  *SimpleType
	currentReturn Type
}

// New returns a Checker with the global environment pre-populated with
// built-ins (spec.md §4.3).
func New(loader ModuleLoader, baseDir string) *Checker {
	return &Checker{
		global:  NewGlobalEnv(),
		loader:  loader,
		baseDir: baseDir,
		modules: map[string]*SimpleType{},
	}
}

// HadError reports whether any diagnostic was recorded.
func (c *Checker) HadError() bool { return c.hadError }

func (c *Checker) errorf(line int, format string, args ...interface{}) {
	c.hadError = true
	c.Errors.Addf(line, format, args...)
}

// Check type-checks chunk's top-level block against the global environment.
func (c *Checker) Check(chunk *ast.Chunk) {
	c.checkBlock(chunk.Block, c.global)
}

func (c *Checker) checkBlock(b *ast.BlockStmt, env *Env) {
	for _, s := range b.Stmts {
		c.checkStmt(s, env)
	}
}

func (c *Checker) checkStmt(s ast.Stmt, env *Env) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		if lit, ok := n.Expr.(*ast.LiteralExpr); ok {
			if td, ok := lit.Value.(ast.TypeNode); ok {
				c.checkTypeDecl(td, env)
				return
			}
		}
		c.checkExpr(n.Expr, env)

	case *ast.VarDeclStmt:
		var declared Type
		if n.Type != nil {
			declared = c.resolveTypeNode(n.Type, env)
		}
		prev := c.currentAssignmentType
		c.currentAssignmentType = declared
		var initT Type
		if n.Init != nil {
			initT = c.checkExpr(n.Init, env)
		}
		c.currentAssignmentType = prev
		final := declared
		if final == nil {
			final = initT
		}
		if final == nil {
			final = Any
		}
		if declared != nil && initT != nil && !IsSubtype(initT, declared) {
			c.errorf(n.Line(), "cannot assign %s to variable of type %s", initT.String(), declared.String())
		}
		env.Define(n.Name, final)

	case *ast.BlockStmt:
		c.checkBlock(n, env.Child())

	case *ast.FunctionStmt:
		ft := c.functorTypeOf(n.Params, n.ReturnType, env)
		env.Define(n.Name, ft)
		c.checkFunctionBody(n.Params, n.ReturnType, n.Body, env, ft, n.IsInitializer)

	case *ast.ClassStmt:
		c.checkClass(n, env)

	case *ast.IfStmt:
		c.checkExpr(n.Cond, env)
		c.checkStmt(n.Then, env.Child())
		if n.Else != nil {
			c.checkStmt(n.Else, env.Child())
		}

	case *ast.WhileStmt:
		c.checkExpr(n.Cond, env)
		c.checkStmt(n.Body, env.Child())

	case *ast.ForStmt:
		loopEnv := env.Child()
		if n.Init != nil {
			c.checkStmt(n.Init, loopEnv)
		}
		if n.Cond != nil {
			c.checkExpr(n.Cond, loopEnv)
		}
		if n.Post != nil {
			c.checkExpr(n.Post, loopEnv)
		}
		c.checkStmt(n.Body, loopEnv.Child())

	case *ast.ReturnStmt:
		if n.Value == nil {
			return
		}
		got := c.checkExpr(n.Value, env)
		if c.currentReturn != nil && got != nil && !IsSubtype(got, c.currentReturn) {
			c.errorf(n.Line(), "return type %s is not compatible with declared return type %s", got.String(), c.currentReturn.String())
		}

	case *ast.ImportStmt:
		c.checkImport(n, env)

	case *ast.BreakStmt, *ast.EnumStmt:
		// no type obligations

	default:
		_ = n
	}
}

func (c *Checker) checkTypeDecl(td ast.TypeNode, env *Env) {
	switch t := td.(type) {
	case *ast.TypeDeclarationNode:
		target := c.resolveTypeNode(t.Target, env)
		env.DefineType(t.Name, target)
	case *ast.InterfaceTypeNode:
		it := &InterfaceType{Name: t.Name, Fields: map[string]Type{}, Methods: map[string]*FunctorType{}}
		if t.Super != nil {
			it.Super = c.resolveTypeNode(t.Super, env)
		}
		for _, m := range t.Body {
			if m.Method != nil {
				it.Methods[m.Name] = c.functorTypeOf(nil, nil, env).withSignature(
					resolveAll(c, m.Method.Args, env), c.resolveTypeNode(m.Method.Return, env))
			} else {
				it.Fields[m.Name] = c.resolveTypeNode(m.Type, env)
			}
		}
		env.DefineType(t.Name, it)
	}
}

func resolveAll(c *Checker, nodes []ast.TypeNode, env *Env) []Type {
	out := make([]Type, len(nodes))
	for i, n := range nodes {
		out[i] = c.resolveTypeNode(n, env)
	}
	return out
}

func (ft *FunctorType) withSignature(args []Type, ret Type) *FunctorType {
	ft.Args = args
	ft.Return = ret
	return ft
}

func (c *Checker) functorTypeOf(params []*ast.Parameter, ret ast.TypeNode, env *Env) *FunctorType {
	ft := &FunctorType{}
	for _, p := range params {
		if p.Type != nil {
			ft.Args = append(ft.Args, c.resolveTypeNode(p.Type, env))
		} else {
			ft.Args = append(ft.Args, Any)
		}
	}
	if ret != nil {
		ft.Return = c.resolveTypeNode(ret, env)
	} else {
		ft.Return = Any
	}
	return ft
}

func (c *Checker) checkFunctionBody(params []*ast.Parameter, ret ast.TypeNode, body *ast.BlockStmt, env *Env, ft *FunctorType, isInit bool) {
	fnEnv := env.Child()
	for i, p := range params {
		var pt Type = Any
		if i < len(ft.Args) {
			pt = ft.Args[i]
		}
		fnEnv.Define(p.Name, pt)
	}
	prevRet := c.currentReturn
	if isInit {
		c.currentReturn = nil
	} else {
		c.currentReturn = ft.Return
	}
	c.checkBlock(body, fnEnv)
	c.currentReturn = prevRet
}

func (c *Checker) checkClass(n *ast.ClassStmt, env *Env) {
	st := &SimpleType{Name: n.Name, Fields: map[string]Type{}, Methods: map[string]*FunctorType{}}
	if n.Superclass != nil {
		if super, ok := env.Lookup(n.Superclass.Name); ok {
			if superSimple, ok := super.(*SimpleType); ok {
				st.Super = superSimple
				for name, f := range superSimple.Fields {
					st.Fields[name] = f
				}
				for name, m := range superSimple.Methods {
					st.Methods[name] = m
				}
			}
		} else {
			c.errorf(n.Line(), "undefined superclass %q", n.Superclass.Name)
		}
	}
	env.Define(n.Name, st)
	env.DefineType(n.Name, st)

	classEnv := env.Child()
	classEnv.Define("this", st)
	prevClass, prevSuper := c.currentClass, c.currentSuper
	c.currentClass = st
	if sup, ok := st.Super.(*SimpleType); ok {
		c.currentSuper = sup
	}

	for _, f := range n.Fields {
		var ft Type = Any
		if f.Type != nil {
			ft = c.resolveTypeNode(f.Type, classEnv)
		}
		st.Fields[f.Name] = ft
	}
	for _, m := range n.Methods {
		mt := c.functorTypeOf(m.Params, m.ReturnType, classEnv)
		st.Methods[m.Name] = mt
		c.checkFunctionBody(m.Params, m.ReturnType, m.Body, classEnv, mt, m.IsInitializer)
	}

	c.currentClass, c.currentSuper = prevClass, prevSuper
}

// checkImport resolves the target path, parses/checks that file once,
// caches the resulting module type, and binds it under the import's alias
// (spec.md §4.3).
func (c *Checker) checkImport(n *ast.ImportStmt, env *Env) {
	if c.loader == nil {
		env.Define(n.Alias, Any)
		return
	}
	resolved, err := c.loader.Resolve(c.baseDir, n.Path)
	if err != nil {
		c.errorf(n.Line(), "cannot resolve import %q: %v", n.Path, err)
		return
	}
	if cached, ok := c.modules[resolved]; ok {
		env.Define(n.Alias, cached)
		return
	}
	src, err := c.loader.Read(resolved)
	if err != nil {
		c.errorf(n.Line(), "cannot read module %q: %v", resolved, err)
		return
	}
	chunk, err := c.loader.Parse(resolved, src)
	if err != nil {
		c.errorf(n.Line(), "cannot parse module %q: %v", resolved, err)
		return
	}
	moduleEnv := NewGlobalEnv()
	sub := &Checker{global: moduleEnv, loader: c.loader, baseDir: filepath.Dir(resolved), modules: c.modules}
	sub.Check(chunk)
	if sub.HadError() {
		for _, e := range sub.Errors.Errs() {
			c.Errors.Add(e.Line, e.Msg)
		}
		c.hadError = true
	}
	mod := &SimpleType{Name: resolved, Fields: map[string]Type{}}
	for name, t := range moduleEnv.locals {
		mod.Fields[name] = t
	}
	c.modules[resolved] = mod
	env.Define(n.Alias, mod)
}

// resolveTypeNode converts a parsed TypeNode into a checked Type,
// recursively resolving Simple/Functor/Union/Interface/Declaration shapes.
func (c *Checker) resolveTypeNode(t ast.TypeNode, env *Env) Type {
	switch n := t.(type) {
	case *ast.SimpleTypeNode:
		base, ok := env.LookupType(n.Name)
		if !ok {
			c.errorf(n.Line(), "undefined type %q", n.Name)
			return Any
		}
		if len(n.Generics) == 0 {
			return base
		}
		args := make([]Type, len(n.Generics))
		for i, g := range n.Generics {
			args[i] = c.resolveTypeNode(g, env)
		}
		return &GenericType{Target: base, Args: args}

	case *ast.FunctorTypeNode:
		ft := &FunctorType{Generics: n.Generics}
		for _, a := range n.Args {
			ft.Args = append(ft.Args, c.resolveTypeNode(a, env))
		}
		if n.Return != nil {
			ft.Return = c.resolveTypeNode(n.Return, env)
		} else {
			ft.Return = Any
		}
		return ft

	case *ast.UnionTypeNode:
		return &UnionType{Left: c.resolveTypeNode(n.Left, env), Right: c.resolveTypeNode(n.Right, env)}

	case *ast.InterfaceTypeNode:
		it := &InterfaceType{Name: n.Name, Fields: map[string]Type{}, Methods: map[string]*FunctorType{}}
		if n.Super != nil {
			it.Super = c.resolveTypeNode(n.Super, env)
		}
		for _, m := range n.Body {
			if m.Method != nil {
				it.Methods[m.Name] = &FunctorType{
					Args:   resolveAll(c, m.Method.Args, env),
					Return: c.resolveTypeNode(m.Method.Return, env),
				}
			} else {
				it.Fields[m.Name] = c.resolveTypeNode(m.Type, env)
			}
		}
		return it

	case *ast.TypeDeclarationNode:
		return c.resolveTypeNode(n.Target, env)
	}
	return Any
}
