package replcmd_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/saffron-lang/saffron/internal/replcmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunEchoesExpressionValuesAndSuppressesNil(t *testing.T) {
	in := strings.NewReader("1 + 2;\nvar x = 10;\nx;\n")
	var out, errOut bytes.Buffer

	err := replcmd.Run(context.Background(), mainer.Stdio{Stdin: in, Stdout: &out, Stderr: &errOut})
	require.NoError(t, err)
	assert.Empty(t, errOut.String())

	got := out.String()
	assert.Contains(t, got, "3\n", "bare expression echoes its value")
	assert.Contains(t, got, "10\n", "a later reference to x echoes the value it was initialized with")
	assert.NotContains(t, got, "nil\n", "a var declaration line itself has no value to echo")
}

func TestRunPrintsErrorsToStderrAndContinues(t *testing.T) {
	in := strings.NewReader("var = ;\n1 + 1;\n")
	var out, errOut bytes.Buffer

	err := replcmd.Run(context.Background(), mainer.Stdio{Stdin: in, Stdout: &out, Stderr: &errOut})
	require.NoError(t, err)
	assert.NotEmpty(t, errOut.String())
	assert.Contains(t, out.String(), "2\n", "a later line still evaluates after an earlier error")
}

func TestRunSkipsBlankLines(t *testing.T) {
	in := strings.NewReader("\n\n1;\n")
	var out, errOut bytes.Buffer

	err := replcmd.Run(context.Background(), mainer.Stdio{Stdin: in, Stdout: &out, Stderr: &errOut})
	require.NoError(t, err)
	assert.Empty(t, errOut.String())
	assert.Contains(t, out.String(), "1\n")
}
