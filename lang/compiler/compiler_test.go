package compiler_test

import (
	"strings"
	"testing"

	"github.com/saffron-lang/saffron/lang/compiler"
	"github.com/saffron-lang/saffron/lang/gc"
	"github.com/saffron-lang/saffron/lang/parser"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) *compiler.Function {
	t.Helper()
	chunk, err := parser.ParseChunk("test", src)
	require.NoError(t, err, "parse error")
	fn, err := compiler.New(gc.NewHeap()).Compile(chunk)
	require.NoError(t, err, "compile error")
	return fn
}

// TestIfElseCompilesElseBranchOnce pins the fix for astcompile.c's NODE_IF
// bug (spec.md §4.4/§9: the reference compiles the then-branch twice
// instead of the else-branch). Disassembling an if/else with distinct,
// easily-told-apart then/else bodies must show each literal exactly once.
func TestIfElseCompilesElseBranchOnce(t *testing.T) {
	fn := compile(t, `if (true) { 111; } else { 222; }`)
	out := compiler.Disassemble(fn)

	require.Equal(t, 1, strings.Count(out, "111"), "expected the then-branch constant 111 exactly once, disasm:\n%s", out)
	require.Equal(t, 1, strings.Count(out, "222"), "expected the else-branch constant 222 exactly once (not the then-branch again), disasm:\n%s", out)
}

func TestIfWithoutElseCompilesThenOnce(t *testing.T) {
	fn := compile(t, `if (true) { 111; }`)
	out := compiler.Disassemble(fn)
	require.Equal(t, 1, strings.Count(out, "111"), "expected the then-branch constant exactly once, disasm:\n%s", out)
}
