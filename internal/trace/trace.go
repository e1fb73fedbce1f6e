// Package trace is a tiny leveled trace logger for cmd/saffron's -trace
// flag, following the teacher's own style for this concern: a bare
// package-level bool guarding fmt.Fprintf(os.Stderr, ...) calls (see
// lang/compiler's debug-gated disassembly in mna-nenuphar), not a
// third-party logging library — the teacher never reaches for one here
// either, so matching it means staying on the standard library (see
// DESIGN.md).
package trace

import (
	"fmt"
	"io"
	"os"
)

// Enabled gates every Tracef/Debugf call. Off by default; cmd/saffron's
// -trace flag flips it on for the process.
var Enabled bool

// Output is where trace lines are written. Defaults to os.Stderr so trace
// output never mixes with a program's own stdout.
var Output io.Writer = os.Stderr

// Tracef formats and writes a line only when Enabled (when disabled it
// returns before formatting), for high-frequency VM-level detail (opcode
// dispatch, scheduler task switches).
func Tracef(format string, args ...interface{}) {
	if !Enabled {
		return
	}
	fmt.Fprintf(Output, format+"\n", args...)
}

// Debugf is Tracef's alias for coarser, phase-level detail (compile start,
// module resolution). Kept distinct from Tracef so call sites can be
// grepped by granularity even though both currently share one Enabled gate.
func Debugf(format string, args ...interface{}) {
	Tracef(format, args...)
}
