package parser_test

import (
	"testing"

	"github.com/saffron-lang/saffron/lang/ast"
	"github.com/saffron-lang/saffron/lang/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *ast.Chunk {
	t.Helper()
	chunk, err := parser.ParseChunk("test", src)
	require.NoError(t, err)
	return chunk
}

func topLevel(t *testing.T, chunk *ast.Chunk) []ast.Stmt {
	t.Helper()
	require.NotNil(t, chunk.Block)
	return chunk.Block.Stmts
}

func TestParseBinaryExpressionPrecedence(t *testing.T) {
	stmts := topLevel(t, parse(t, "1 + 2 * 3;"))
	require.Len(t, stmts, 1)
	exprStmt := stmts[0].(*ast.ExprStmt)

	add, ok := exprStmt.Expr.(*ast.BinaryExpr)
	require.True(t, ok, "top expr should be the lower-precedence +")
	assert.Equal(t, "+", add.Op)

	left, ok := add.Left.(*ast.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, float64(1), left.Value)

	mul, ok := add.Right.(*ast.BinaryExpr)
	require.True(t, ok, "right operand of + should be the * subexpression")
	assert.Equal(t, "*", mul.Op)
}

func TestParseGroupingOverridesPrecedence(t *testing.T) {
	stmts := topLevel(t, parse(t, "(1 + 2) * 3;"))
	exprStmt := stmts[0].(*ast.ExprStmt)

	mul, ok := exprStmt.Expr.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)

	group, ok := mul.Left.(*ast.GroupingExpr)
	require.True(t, ok, "left operand should be the parenthesized group")
	inner, ok := group.Inner.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", inner.Op)
}

func TestParseIfElse(t *testing.T) {
	stmts := topLevel(t, parse(t, `if (true) { 1; } else { 2; }`))
	ifStmt, ok := stmts[0].(*ast.IfStmt)
	require.True(t, ok)
	require.NotNil(t, ifStmt.Then)
	require.NotNil(t, ifStmt.Else)
}

func TestParseIfWithoutElse(t *testing.T) {
	stmts := topLevel(t, parse(t, `if (true) { 1; }`))
	ifStmt, ok := stmts[0].(*ast.IfStmt)
	require.True(t, ok)
	assert.Nil(t, ifStmt.Else)
}

func TestParseVarDeclarationWithInitializer(t *testing.T) {
	stmts := topLevel(t, parse(t, `var x = 10;`))
	decl, ok := stmts[0].(*ast.VarDeclStmt)
	require.True(t, ok)
	assert.Equal(t, "x", decl.Name)
	lit, ok := decl.Init.(*ast.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, float64(10), lit.Value)
}

func TestParseVarDeclarationWithoutInitializer(t *testing.T) {
	stmts := topLevel(t, parse(t, `var x;`))
	decl, ok := stmts[0].(*ast.VarDeclStmt)
	require.True(t, ok)
	assert.Nil(t, decl.Init)
}

func TestParseFunctionDeclaration(t *testing.T) {
	stmts := topLevel(t, parse(t, `fun add(a, b) { return a + b; }`))
	fn, ok := stmts[0].(*ast.FunctionStmt)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Equal(t, "b", fn.Params[1].Name)
	require.Len(t, fn.Body.Stmts, 1)
	_, ok = fn.Body.Stmts[0].(*ast.ReturnStmt)
	assert.True(t, ok)
}

func TestParseClassDeclarationWithSuperclassAndMethod(t *testing.T) {
	stmts := topLevel(t, parse(t, `class Cat < Animal { speak() { return "meow"; } }`))
	cls, ok := stmts[0].(*ast.ClassStmt)
	require.True(t, ok)
	assert.Equal(t, "Cat", cls.Name)
	require.NotNil(t, cls.Superclass)
	assert.Equal(t, "Animal", cls.Superclass.Name)
	require.Len(t, cls.Methods, 1)
	assert.Equal(t, "speak", cls.Methods[0].Name)
}

func TestParseCallExpression(t *testing.T) {
	stmts := topLevel(t, parse(t, `foo(1, 2, 3);`))
	exprStmt := stmts[0].(*ast.ExprStmt)
	call, ok := exprStmt.Expr.(*ast.CallExpr)
	require.True(t, ok)
	require.Len(t, call.Args, 3)
}

func TestParseAssignmentExpression(t *testing.T) {
	stmts := topLevel(t, parse(t, `x = 5;`))
	exprStmt := stmts[0].(*ast.ExprStmt)
	assign, ok := exprStmt.Expr.(*ast.AssignExpr)
	require.True(t, ok)
	target, ok := assign.Target.(*ast.VariableExpr)
	require.True(t, ok)
	assert.Equal(t, "x", target.Name)
}

func TestParseWhileLoop(t *testing.T) {
	stmts := topLevel(t, parse(t, `while (true) { break; }`))
	ws, ok := stmts[0].(*ast.WhileStmt)
	require.True(t, ok)
	require.Len(t, ws.Body.(*ast.BlockStmt).Stmts, 1)
	_, ok = ws.Body.(*ast.BlockStmt).Stmts[0].(*ast.BreakStmt)
	assert.True(t, ok)
}

func TestParseForLoop(t *testing.T) {
	stmts := topLevel(t, parse(t, `for (var i = 0; i < 10; i = i + 1) { }`))
	fs, ok := stmts[0].(*ast.ForStmt)
	require.True(t, ok)
	require.NotNil(t, fs.Init)
	require.NotNil(t, fs.Cond)
	require.NotNil(t, fs.Post)
}

func TestParseListLiteral(t *testing.T) {
	stmts := topLevel(t, parse(t, `[1, 2, 3];`))
	exprStmt := stmts[0].(*ast.ExprStmt)
	list, ok := exprStmt.Expr.(*ast.ListExpr)
	require.True(t, ok)
	assert.Len(t, list.Elements, 3)
}

func TestParseAndOrAreLogicalNotBinary(t *testing.T) {
	stmts := topLevel(t, parse(t, `true and false or true;`))
	exprStmt := stmts[0].(*ast.ExprStmt)
	orExpr, ok := exprStmt.Expr.(*ast.LogicalExpr)
	require.True(t, ok)
	assert.Equal(t, "or", orExpr.Op)
	_, ok = orExpr.Left.(*ast.LogicalExpr)
	require.True(t, ok, "left of or should be the and subexpression")
}

func TestParseImportStatement(t *testing.T) {
	stmts := topLevel(t, parse(t, `import "math" as m;`))
	imp, ok := stmts[0].(*ast.ImportStmt)
	require.True(t, ok)
	assert.Equal(t, "math", imp.Path)
	assert.Equal(t, "m", imp.Alias)
}

func TestParseSyntaxErrorIsReported(t *testing.T) {
	_, err := parser.ParseChunk("test", `var = ;`)
	require.Error(t, err)
}
