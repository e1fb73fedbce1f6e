package vm

import (
	"bytes"
	"testing"

	"github.com/saffron-lang/saffron/lang/compiler"
	"github.com/saffron-lang/saffron/lang/gc"
	"github.com/saffron-lang/saffron/lang/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run compiles and interprets src, returning everything it printed. Compile
// and runtime errors both fail the test immediately; a scenario that expects
// one should call tryRun directly instead (see
// TestInitializerReturningValueIsCompileError).
func run(t *testing.T, src string) string {
	t.Helper()
	out, err := tryRun(src)
	require.NoError(t, err)
	return out
}

func tryRun(src string) (string, error) {
	chunk, err := parser.ParseChunk("test", src)
	if err != nil {
		return "", err
	}
	h := gc.NewHeap()
	fn, err := compiler.New(h).Compile(chunk)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	interp := NewInterpreter(h)
	interp.Stdout = &out
	_, err = interp.Interpret(fn, "test", "test")
	return out.String(), err
}

func TestArithmeticPrecedence(t *testing.T) {
	assert.Equal(t, "7\n", run(t, "println(1 + 2 * 3);"))
}

func TestClosureCapturesAndClosesUpvalue(t *testing.T) {
	src := `
fun make() { var i = 0; return fun () { i = i + 1; return i; }; }
var c = make(); println(c()); println(c()); println(c());
`
	assert.Equal(t, "1\n2\n3\n", run(t, src))
}

func TestSuperCallsBaseMethod(t *testing.T) {
	src := `
class A { init(x) { this.x = x; } get() { return this.x; } }
class B < A { get() { return super.get() + 1; } }
println(B(41).get());
`
	assert.Equal(t, "42\n", run(t, src))
}

func TestSpawnedTaskCooperatesWithSleepYield(t *testing.T) {
	src := `
fun slow() { yield [1, 0.01]; return 7; }
var t = spawn(slow); while (!t.isReady()) { yield [1, 0.005]; }
println(t.getResult());
`
	assert.Equal(t, "7\n", run(t, src))
}

func TestMapKeysAndValuesLengths(t *testing.T) {
	src := `
var m = {};
m["a"] = 1; m["b"] = 2; println(m.keys().length() + m.values().length());
`
	assert.Equal(t, "4\n", run(t, src))
}

func TestInitializerReturningValueIsCompileError(t *testing.T) {
	_, err := tryRun(`class C { init() { return 5; } }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can't return a value from an initializer")
}

func TestIfElseTakesTheRightBranch(t *testing.T) {
	assert.Equal(t, "no\n", run(t, `if (1 > 2) { println("yes"); } else { println("no"); }`))
	assert.Equal(t, "yes\n", run(t, `if (2 > 1) { println("yes"); } else { println("no"); }`))
}

func TestInternedStringsAreIdenticalPointer(t *testing.T) {
	assert.Equal(t, "true\n", run(t, `var a = "hello"; var b = "hello"; println(a == b);`))
}

func TestStringConcatenation(t *testing.T) {
	assert.Equal(t, "foobar\n", run(t, `println("foo" + "bar");`))
}

func TestListPopRemovesFront(t *testing.T) {
	src := `
var l = List(); l.push(1); l.push(2); l.push(3);
println(l.pop()); println(l.length());
`
	assert.Equal(t, "1\n2\n", run(t, src))
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, err := tryRun(`println(doesNotExist);`)
	assert.Error(t, err)
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	_, err := tryRun(`println(1 / 0);`)
	assert.Error(t, err)
}
