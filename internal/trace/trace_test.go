package trace_test

import (
	"bytes"
	"testing"

	"github.com/saffron-lang/saffron/internal/trace"
	"github.com/stretchr/testify/assert"
)

func withOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevEnabled, prevOutput := trace.Enabled, trace.Output
	trace.Output = &buf
	t.Cleanup(func() {
		trace.Enabled = prevEnabled
		trace.Output = prevOutput
	})
	return &buf
}

func TestTracefWritesNothingWhenDisabled(t *testing.T) {
	buf := withOutput(t)
	trace.Enabled = false
	trace.Tracef("opcode %d", 1)
	assert.Empty(t, buf.String())
}

func TestTracefWritesFormattedLineWhenEnabled(t *testing.T) {
	buf := withOutput(t)
	trace.Enabled = true
	trace.Tracef("opcode %d", 1)
	assert.Equal(t, "opcode 1\n", buf.String())
}

func TestDebugfSharesTracefsGate(t *testing.T) {
	buf := withOutput(t)
	trace.Enabled = true
	trace.Debugf("phase %s", "compile")
	assert.Equal(t, "phase compile\n", buf.String())
}
