package types_test

import (
	"testing"

	"github.com/saffron-lang/saffron/lang/parser"
	"github.com/saffron-lang/saffron/lang/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func check(t *testing.T, src string) *types.Checker {
	t.Helper()
	chunk, err := parser.ParseChunk("test", src)
	require.NoError(t, err, "parse error")
	c := types.New(nil, "")
	c.Check(chunk)
	return c
}

func TestCheckWellTypedProgramHasNoErrors(t *testing.T) {
	c := check(t, `var x: Number = 1; println(x + 2);`)
	assert.False(t, c.HadError())
	assert.Equal(t, 0, c.Errors.Len())
}

func TestCheckVarDeclTypeMismatchIsReported(t *testing.T) {
	c := check(t, `var x: Number = "oops";`)
	require.True(t, c.HadError())
	assert.Contains(t, c.Errors.Error(), "cannot assign")
}

func TestCheckUndefinedVariableIsReported(t *testing.T) {
	c := check(t, `println(nope);`)
	require.True(t, c.HadError())
	assert.Contains(t, c.Errors.Error(), `undefined variable "nope"`)
}

func TestCheckBuiltinGlobalsAreDefined(t *testing.T) {
	for _, name := range []string{"print", "println", "spawn", "List", "Map", "time"} {
		c := check(t, name+";")
		assert.Falsef(t, c.HadError(), "builtin %q should type-check, got: %v", name, c.Errors.Error())
	}
}

func TestCheckArithmeticOnStringAndNumberIsReported(t *testing.T) {
	c := check(t, `var x = 1 - "a";`)
	require.True(t, c.HadError())
	assert.Contains(t, c.Errors.Error(), "operands must be numbers")
}

func TestCheckStringConcatenationWithPlusIsAllowed(t *testing.T) {
	c := check(t, `var x = "a" + "b";`)
	assert.False(t, c.HadError())
}

func TestCheckFunctionCallArityMismatchIsReported(t *testing.T) {
	c := check(t, `fun add(a, b) { return a + b; } add(1);`)
	require.True(t, c.HadError())
	assert.Contains(t, c.Errors.Error(), "expected 2 argument")
}

func TestCheckFunctionCallWithMatchingArityPasses(t *testing.T) {
	c := check(t, `fun add(a, b) { return a + b; } add(1, 2);`)
	assert.False(t, c.HadError())
}

func TestCheckThisOutsideMethodIsReported(t *testing.T) {
	c := check(t, `this;`)
	require.True(t, c.HadError())
	assert.Contains(t, c.Errors.Error(), "'this' used outside a method")
}

func TestCheckSuperOutsideSubclassIsReported(t *testing.T) {
	c := check(t, `class Foo { bar() { return super.bar(); } }`)
	require.True(t, c.HadError())
	assert.Contains(t, c.Errors.Error(), "'super' used outside a subclass method")
}

func TestCheckClassFieldAndMethodAccess(t *testing.T) {
	c := check(t, `
class Animal {
	speak() { return "..."; }
}
var a = Animal();
a.speak();
`)
	assert.False(t, c.HadError())
}

func TestCheckUndefinedPropertyIsReported(t *testing.T) {
	c := check(t, `
class Animal {
	speak() { return "..."; }
}
var a = Animal();
a.fly();
`)
	require.True(t, c.HadError())
	assert.Contains(t, c.Errors.Error(), `undefined property "fly"`)
}

func TestCheckSubclassInheritsSuperclassMembers(t *testing.T) {
	c := check(t, `
class Animal {
	speak() { return "..."; }
}
class Dog < Animal {}
var d = Dog();
d.speak();
`)
	assert.False(t, c.HadError())
}

func TestCheckUndefinedSuperclassIsReported(t *testing.T) {
	c := check(t, `class Dog < Ghost {}`)
	require.True(t, c.HadError())
	assert.Contains(t, c.Errors.Error(), `undefined superclass "Ghost"`)
}

func TestCheckListLiteralTypesElements(t *testing.T) {
	c := check(t, `var xs: List<Number> = [1, 2, 3];`)
	assert.False(t, c.HadError())
}

func TestCheckListLiteralElementTypeMismatchIsReported(t *testing.T) {
	c := check(t, `var xs: List<Number> = [1, "two", 3];`)
	require.True(t, c.HadError())
	assert.Contains(t, c.Errors.Error(), "list element")
}

func TestCheckReturnTypeMismatchIsReported(t *testing.T) {
	c := check(t, `fun f(): Number { return "not a number"; }`)
	require.True(t, c.HadError())
	assert.Contains(t, c.Errors.Error(), "not compatible with declared return type")
}

func TestCheckUndefinedTypeAnnotationIsReported(t *testing.T) {
	c := check(t, `var x: Ghost = 1;`)
	require.True(t, c.HadError())
	assert.Contains(t, c.Errors.Error(), `undefined type "Ghost"`)
}

func TestIsSubtypeEverythingIsSubtypeOfAny(t *testing.T) {
	assert.True(t, types.IsSubtype(types.Number, types.Any))
	assert.True(t, types.IsSubtype(types.String, types.Any))
}

func TestIsSubtypeNothingIsSubtypeOfNever(t *testing.T) {
	assert.False(t, types.IsSubtype(types.Number, types.Never))
}

func TestIsSubtypeUnionAcceptsEitherBranch(t *testing.T) {
	u := &types.UnionType{Left: types.Number, Right: types.String}
	assert.True(t, types.IsSubtype(types.Number, u))
	assert.True(t, types.IsSubtype(types.String, u))
	assert.False(t, types.IsSubtype(types.Bool, u))
}
