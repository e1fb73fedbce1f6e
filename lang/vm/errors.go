package vm

import (
	"fmt"
	"strings"
)

// RuntimeError is a §7 "runtime error": a message plus the backtrace of
// frames active when it was raised, walked via each frame's Parent link
// (spec.md §7, original_source/src/vm.c's runtimeError).
type RuntimeError struct {
	Message string
	Frames  []frameLocation
}

type frameLocation struct {
	Line int
	Func string
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.Frames {
		b.WriteByte('\n')
		if f.Func == "script" {
			fmt.Fprintf(&b, "[line %d] in script", f.Line)
		} else {
			fmt.Fprintf(&b, "[line %d] in %s()", f.Line, f.Func)
		}
	}
	return b.String()
}

// errf builds a RuntimeError from the current frame's backtrace. frame may
// be nil when no frame context is available yet (e.g. a malformed yield
// value observed by the scheduler before a frame is attached).
func errf(frame *CallFrame, format string, args ...interface{}) error {
	re := &RuntimeError{Message: fmt.Sprintf(format, args...)}
	for f := frame; f != nil; f = f.Parent {
		re.Frames = append(re.Frames, frameLocation{Line: f.Line(), Func: f.FuncName()})
	}
	return re
}
