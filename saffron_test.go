package saffron_test

import (
	"bytes"
	"testing"

	"github.com/saffron-lang/saffron"
	"github.com/saffron-lang/saffron/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSourcePrintsToProvidedStdout(t *testing.T) {
	var out bytes.Buffer
	res, err := saffron.RunSource("test", `println(1 + 2);`, saffron.Options{
		Stdio: saffron.Stdio{Stdout: &out},
	})
	require.NoError(t, err)
	assert.Equal(t, saffron.OK, res)
	assert.Equal(t, "3\n", out.String())
}

func TestRunSourceCompileErrorIsReported(t *testing.T) {
	res, err := saffron.RunSource("test", `var = ;`, saffron.Options{})
	require.Error(t, err)
	assert.Equal(t, saffron.CompileError, res)
}

func TestRunSourceRuntimeErrorIsReported(t *testing.T) {
	res, err := saffron.RunSource("test", "fun f(x) { return x.missing; }\nf(1);", saffron.Options{})
	require.Error(t, err)
	assert.Equal(t, saffron.RuntimeError, res)
}

func TestReplEvalPersistsGlobalsAcrossLines(t *testing.T) {
	repl := saffron.NewRepl(saffron.Options{})

	_, res, err := repl.Eval(`var x = 10;`)
	require.NoError(t, err)
	assert.Equal(t, saffron.OK, res)

	v, res, err := repl.Eval(`x + 5;`)
	require.NoError(t, err)
	assert.Equal(t, saffron.OK, res)
	assert.Equal(t, value.Number(15), v)
}

func TestReplEvalReassignmentIsVisibleOnLaterLines(t *testing.T) {
	repl := saffron.NewRepl(saffron.Options{})

	_, _, err := repl.Eval(`var counter = 1;`)
	require.NoError(t, err)
	_, _, err = repl.Eval(`counter = counter + 1;`)
	require.NoError(t, err)

	v, _, err := repl.Eval(`counter;`)
	require.NoError(t, err)
	assert.Equal(t, value.Number(2), v)
}
