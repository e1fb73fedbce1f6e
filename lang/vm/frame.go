package vm

import (
	"github.com/saffron-lang/saffron/lang/gc"
	"github.com/saffron-lang/saffron/lang/value"
)

// frameState is the scheduler's flag set for a CallFrame, per spec.md
// §4.7's state-machine table. A frame can be SPAWNED (created by the
// `spawn` builtin, runs as an independently-scheduled task) or plain
// AWAITED (a normal nested call, the zero value); INITIATED and FINISHED
// are set as the frame's lifecycle advances.
type frameState uint8

const (
	awaited   frameState = 0
	spawned   frameState = 1 << 0
	initiated frameState = 1 << 1
	finished  frameState = 1 << 2
)

// CallFrame is one activation record: a running closure, its instruction
// pointer, the stack window its locals/temporaries live in, and (for tasks)
// the saved stack segment and state needed to suspend and resume it
// (spec.md §3's CallFrame kind; original_source/src/vm.h's CallFrame plus
// the ObjCallFrame fields libc/async.c and vm.c add for scheduling).
type CallFrame struct {
	gc.Header

	Closure *Closure
	IP      int
	Slots   int // index into the VM's value stack where this frame's window begins

	Parent *CallFrame // the frame that called this one, nil for a task root
	Index  int        // depth, for stack-overflow accounting

	Module       *Module // the module whose globals GET_GLOBAL/SET_GLOBAL resolve against
	IsModuleRoot bool    // true for the synthetic frame IMPORT pushes atop a new module's top level

	// Running, Saved, and Stored are only ever set on a task ROOT frame
	// (Parent == nil), since the scheduler only ever suspends and resumes a
	// whole task, never a single nested call within one. Running is
	// whichever frame (root or nested) was actually executing when the task
	// last yielded, so resumption can pick bytecode back up at the right IP.
	Running *CallFrame
	Stored  value.Value   // value handed back to the YIELD expression on resumption
	Saved   []value.Value // the task's whole live stack span, while suspended

	State  frameState
	Result value.Value // final return value, once FINISHED
}

func (*CallFrame) Kind() string { return "call_frame" }
func (*CallFrame) Type() string { return "CallFrame" }
func (f *CallFrame) String() string {
	if f.Closure == nil {
		return "<frame>"
	}
	return "<frame " + f.Closure.Function.Name + ">"
}

func (f *CallFrame) Trace(mark func(gc.Object)) {
	if f.Closure != nil {
		mark(f.Closure)
	}
	if f.Parent != nil {
		mark(f.Parent)
	}
	if f.Module != nil {
		mark(f.Module)
	}
	if f.Running != nil {
		mark(f.Running)
	}
	if obj, ok := f.Stored.(gc.Object); ok {
		mark(obj)
	}
	if obj, ok := f.Result.(gc.Object); ok {
		mark(obj)
	}
	for _, v := range f.Saved {
		if obj, ok := v.(gc.Object); ok {
			mark(obj)
		}
	}
}

// Line returns the source line the frame is currently executing, for error
// backtraces (spec.md §7).
func (f *CallFrame) Line() int {
	if f.Closure == nil {
		return -1
	}
	pc := f.IP - 1
	return f.Closure.Function.Chunk.LineFor(pc)
}

func (f *CallFrame) FuncName() string {
	if f.Closure == nil || f.Closure.Function.Name == "" {
		return "script"
	}
	return f.Closure.Function.Name
}
