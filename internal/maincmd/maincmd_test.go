package maincmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/saffron-lang/saffron/internal/maincmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))
	return path
}

func stdio() (mainer.Stdio, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return mainer.Stdio{Stdout: &out, Stderr: &errOut}, &out, &errOut
}

func TestTokenizeFilePrintsKindLineAndLexeme(t *testing.T) {
	path := writeFixture(t, "in.saf", "1 + 2;\n")
	io, out, errOut := stdio()

	err := maincmd.TokenizeFile(io, path)
	require.NoError(t, err)
	assert.Empty(t, errOut.String())
	assert.Equal(t, "1: number \"1\"\n1: + \"+\"\n1: number \"2\"\n1: ; \";\"\n2: end of file\n", out.String())
}

func TestTokenizeFileReportsScanErrors(t *testing.T) {
	path := writeFixture(t, "in.saf", `"unterminated`)
	io, out, errOut := stdio()

	err := maincmd.TokenizeFile(io, path)
	require.Error(t, err)
	assert.NotEmpty(t, errOut.String())
	assert.Contains(t, out.String(), "illegal token")
}

func TestTokenizeFileMissingFileIsAnError(t *testing.T) {
	io, _, errOut := stdio()
	err := maincmd.TokenizeFile(io, filepath.Join(t.TempDir(), "missing.saf"))
	require.Error(t, err)
	assert.NotEmpty(t, errOut.String())
}

func TestParseFilePrintsNodesInDepthFirstOrder(t *testing.T) {
	path := writeFixture(t, "in.saf", "1 + 2;\n")
	io, out, errOut := stdio()

	err := maincmd.ParseFile(io, path)
	require.NoError(t, err)
	assert.Empty(t, errOut.String())
	lines := out.String()
	assert.Contains(t, lines, "stmt.expr [line 1]")
	assert.Contains(t, lines, ". expr.binary [line 1]")
}

func TestParseFileReportsSyntaxErrors(t *testing.T) {
	path := writeFixture(t, "in.saf", "var = ;\n")
	io, _, errOut := stdio()

	err := maincmd.ParseFile(io, path)
	require.Error(t, err)
	assert.NotEmpty(t, errOut.String())
}

func TestCheckFilePassesOnWellTypedProgram(t *testing.T) {
	path := writeFixture(t, "in.saf", `println(1 + 2);`)
	io, out, errOut := stdio()

	err := maincmd.CheckFile(io, path)
	require.NoError(t, err)
	assert.Empty(t, out.String(), "check prints nothing on success")
	assert.Empty(t, errOut.String())
}

func TestCheckFileReportsTypeErrors(t *testing.T) {
	path := writeFixture(t, "in.saf", `println(undefinedThing);`)
	io, _, errOut := stdio()

	err := maincmd.CheckFile(io, path)
	require.Error(t, err)
	assert.Contains(t, errOut.String(), "undefined variable")
}

func TestDisasmFilePrintsBytecode(t *testing.T) {
	path := writeFixture(t, "in.saf", `println(1 + 2);`)
	io, out, errOut := stdio()

	err := maincmd.DisasmFile(io, path)
	require.NoError(t, err)
	assert.Empty(t, errOut.String())
	assert.NotEmpty(t, out.String())
}

func TestRunFilePrintsProgramOutput(t *testing.T) {
	path := writeFixture(t, "in.saf", `println(1 + 2);`)
	io, out, errOut := stdio()

	err := maincmd.RunFile(io, path)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestRunFileReportsRuntimeErrors(t *testing.T) {
	// x is untyped (Any), so "x.missing" type-checks; Number has no such
	// property, so this only fails once the VM actually runs it.
	path := writeFixture(t, "in.saf", "fun f(x) { return x.missing; }\nf(1);")
	io, _, errOut := stdio()

	err := maincmd.RunFile(io, path)
	require.Error(t, err)
	assert.NotEmpty(t, errOut.String())
}
