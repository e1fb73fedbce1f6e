package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/saffron-lang/saffron/lang/compiler"
	"github.com/saffron-lang/saffron/lang/gc"
	"github.com/saffron-lang/saffron/lang/value"
)

// InterpretResult is the three-way outcome spec.md §7 threads through the
// whole pipeline: a module (or the top-level script) either ran clean,
// failed to compile, or raised an uncaught runtime error.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

const (
	stackMax  = 1 << 16 // spec.md §4.5's stack[STACK_MAX]
	framesMax = 1 << 10
)

// Loader resolves an import specifier to a compiled top-level Function,
// doing whatever scan/parse/check/compile work the front end needs —
// injected so lang/vm never has to import lang/parser or lang/types
// directly (the same separation the teacher's Thread.Load field draws
// between lang/machine and module resolution).
type Loader func(i *Interpreter, specifier string) (*compiler.Function, error)

// Interpreter holds every piece of process-wide VM state spec.md §4.5
// lists: the operand stack, the open-upvalue list, the interned-string
// table (owned by Heap), the module cache, the built-ins table, and the
// scheduler. The currently-executing module's globals are reached through
// the active frame's Module field rather than any single "current module"
// slot, since several modules' frames can be live at once (an importer
// paused partway through an import it's waiting on).
type Interpreter struct {
	Heap *gc.Heap

	Stack    []value.Value
	stackTop int

	openUpvalues *Upvalue

	Scheduler *Scheduler

	Builtins map[string]value.Value
	Modules  map[string]*Module // resolved path -> already-run (or running) module

	InitString *value.String

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// stdinReader buffers Stdin for io.read(), built lazily on first use so
	// an Interpreter that never calls it never pays for the wrap, and kept
	// around across calls so a read doesn't re-consume bytes the last one
	// already buffered past a line boundary.
	stdinReader *bufio.Reader

	Load Loader

	frame    *CallFrame // the innermost frame actually executing right now
	taskRoot *CallFrame // that frame's task (Parent==nil ancestor); owns Saved/Stored/Running
}

// NewInterpreter builds an Interpreter with an empty stack and a fresh
// scheduler, registering the built-in globals (spec.md §6.1).
func NewInterpreter(h *gc.Heap) *Interpreter {
	return NewInterpreterWithStackSize(h, stackMax)
}

// NewInterpreterWithStackSize is NewInterpreter with the operand/call stack
// size overridden, for internal/runtimeconfig's SAFFRON_STACK_MAX knob (and
// for tests that want a small stack to force a deterministic overflow).
func NewInterpreterWithStackSize(h *gc.Heap, size int) *Interpreter {
	i := &Interpreter{
		Heap:       h,
		Stack:      make([]value.Value, size),
		Scheduler:  NewScheduler(),
		Builtins:   map[string]value.Value{},
		Modules:    map[string]*Module{},
		InitString: value.InternString(h, "init"),
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
	registerNatives(i)
	return i
}

func (i *Interpreter) push(v value.Value) {
	i.Stack[i.stackTop] = v
	i.stackTop++
}

func (i *Interpreter) pop() value.Value {
	i.stackTop--
	return i.Stack[i.stackTop]
}

func (i *Interpreter) peek(distance int) value.Value {
	return i.Stack[i.stackTop-1-distance]
}

// Interpret compiles top-level script `fn` into a running module and drives
// it — and any task it spawns — to completion on the scheduler.
func (i *Interpreter) Interpret(fn *compiler.Function, name, path string) (value.Value, error) {
	// Re-running the same path (the REPL's one persistent path, e.g.) reuses
	// its existing globals rather than starting over, consistent with
	// spec.md §4.8's module cache being keyed by resolved path.
	mod, ok := i.Modules[path]
	if !ok {
		mod = NewModule(i.Heap, name, path)
		i.Modules[path] = mod
	}

	closure := NewClosure(i.Heap, fn)
	i.push(closure) // slot 0 of the frame, per clox's interpret() convention
	frame := i.callClosure(closure, 0, nil)
	frame.Module = mod

	i.Scheduler.Root(frame)
	return i.run(frame)
}

// callClosure allocates a new CallFrame for closure, with its stack window
// starting argCount+1 slots below the current stack top (the receiver/
// callee slot included, per spec.md §3's CallFrame.slots invariant).
func (i *Interpreter) callClosure(closure *Closure, argCount int, parent *CallFrame) *CallFrame {
	frame := &CallFrame{
		Closure: closure,
		Slots:   i.stackTop - argCount - 1,
		Parent:  parent,
	}
	if parent != nil {
		frame.Index = parent.Index + 1
		frame.Module = parent.Module
	}
	i.Heap.Alloc(frame, 64)
	return frame
}

// run drives the scheduler until every task — root and spawned — has
// finished, handing each scheduled frame to runTask in turn and restoring
// any stack segment it saved the last time it yielded.
func (i *Interpreter) run(root *CallFrame) (value.Value, error) {
	for {
		taskRoot := i.Scheduler.Current()
		if taskRoot == nil {
			if i.Scheduler.Idle() {
				return root.Result, nil
			}
			if i.Scheduler.Promote() == 0 {
				i.Scheduler.WaitForReady()
			}
			continue
		}
		i.taskRoot = taskRoot
		i.frame = i.resumeFrame(taskRoot)

		if err := i.runTask(); err != nil {
			return nil, err
		}
	}
}

// resumeFrame restores a previously-yielded task's whole stack span (saved
// by execYield off of taskRoot, since only a task root is ever suspended —
// never a bare nested call) onto the shared value stack, and pushes the
// value its resumption hands back to the YIELD expression it's suspended
// on: Nil for a plain round-robin wakeup, true for a sleep's wakeup
// (spec.md §4.7, opcode.go's "YIELD: v YIELD resumeValue"). It returns
// whichever frame — root or nested — was actually executing when the task
// suspended, so runTask can pick bytecode back up at the right IP. A task
// that has never yielded has no saved span, so nothing is restored and the
// root frame itself is where execution begins.
func (i *Interpreter) resumeFrame(taskRoot *CallFrame) *CallFrame {
	if taskRoot.Saved == nil {
		// Unlike a spawned task (nativeSpawn parks its initial stack in
		// Saved precisely so the firstRun branch below fires), the root
		// task's frame is already resident with Slots fixed and nothing
		// saved — it never takes the firstRun branch at all. Mark it
		// dispatched here anyway, so its first genuine resume (after an
		// actual YIELD sets Saved) takes the !firstRun path and pushes
		// Stored, instead of being silently treated as still-first-run.
		taskRoot.State |= initiated
		return taskRoot
	}
	// A freshly spawned task (nativeSpawn) leaves its initial one-value
	// stack (just the closure) parked in Saved with no fixed Slots yet,
	// since the caller's own stack was still growing at spawn time — it's
	// only safe to claim a stack position for it once it's actually about
	// to run, at whatever the shared stack's current top happens to be.
	firstRun := taskRoot.State&initiated == 0
	if firstRun {
		taskRoot.Slots = i.stackTop
		taskRoot.State |= initiated
	}
	copy(i.Stack[taskRoot.Slots:], taskRoot.Saved)
	i.stackTop = taskRoot.Slots + len(taskRoot.Saved)
	taskRoot.Saved = nil
	if !firstRun {
		i.push(taskRoot.Stored)
	}
	taskRoot.Stored = nil
	running := taskRoot.Running
	taskRoot.Running = nil
	if running == nil {
		return taskRoot
	}
	return running
}

// runTask executes opcodes on i.frame (following nested CALL/RETURN within
// the same task, updating i.frame as it goes) until the task either yields
// control back to the scheduler (YIELD) or its outermost frame finishes
// (RETURN with no parent).
func (i *Interpreter) runTask() error {
	for {
		op := compiler.Opcode(i.readByte())
		switch op {
		case compiler.NILOP:
			i.push(value.Nil{})
		case compiler.TRUE:
			i.push(value.Bool(true))
		case compiler.FALSE:
			i.push(value.Bool(false))
		case compiler.POP:
			i.pop()
		case compiler.CONSTANT:
			i.push(i.readConstant())

		case compiler.GET_LOCAL:
			slot := i.readByte()
			i.push(i.Stack[i.frame.Slots+int(slot)])
		case compiler.SET_LOCAL:
			slot := i.readByte()
			i.Stack[i.frame.Slots+int(slot)] = i.peek(0)

		case compiler.GET_GLOBAL:
			name := i.readString()
			v, ok := i.frame.Module.Globals[name.Value]
			if !ok {
				v, ok = i.Builtins[name.Value]
			}
			if !ok {
				return i.runtimeError("Undefined variable '%s'.", name.Value)
			}
			i.push(v)
		case compiler.SET_GLOBAL:
			name := i.readString()
			if _, ok := i.frame.Module.Globals[name.Value]; !ok {
				return i.runtimeError("Undefined variable '%s'.", name.Value)
			}
			i.frame.Module.Globals[name.Value] = i.peek(0)
		case compiler.DEFINE_GLOBAL:
			name := i.readString()
			i.frame.Module.Globals[name.Value] = i.peek(0)
			i.pop()

		case compiler.GET_UPVALUE:
			slot := i.readByte()
			i.push(i.frame.Closure.Upvalues[slot].Get())
		case compiler.SET_UPVALUE:
			slot := i.readByte()
			i.frame.Closure.Upvalues[slot].Set(i.peek(0))

		case compiler.GET_PROPERTY:
			if err := i.execGetProperty(); err != nil {
				return err
			}
		case compiler.SET_PROPERTY:
			if err := i.execSetProperty(); err != nil {
				return err
			}
		case compiler.GET_SUPER:
			name := i.readString()
			super, ok := i.pop().(*Class)
			if !ok {
				return i.runtimeError("Superclass must be a class.")
			}
			this := i.pop()
			if err := i.bindMethod(this, super, name.Value); err != nil {
				return err
			}

		case compiler.EQUAL:
			b, a := i.pop(), i.pop()
			i.push(value.Bool(value.Equal(a, b)))
		case compiler.GREATER, compiler.LESS:
			if err := i.execCompare(op); err != nil {
				return err
			}
		case compiler.NOT:
			i.push(value.Bool(!value.Truthy(i.pop())))
		case compiler.NEGATE:
			n, ok := i.peek(0).(value.Number)
			if !ok {
				return i.runtimeError("Operand must be a number.")
			}
			i.pop()
			i.push(-n)
		case compiler.ADD:
			if err := i.execAdd(); err != nil {
				return err
			}
		case compiler.SUBTRACT, compiler.MULTIPLY, compiler.DIVIDE, compiler.MODULO:
			if err := i.execArith(op); err != nil {
				return err
			}

		case compiler.JUMP:
			offset := i.readShort()
			i.frame.IP += int(offset)
		case compiler.JUMP_IF_FALSE:
			offset := i.readShort()
			if !value.Truthy(i.peek(0)) {
				i.frame.IP += int(offset)
			}
		case compiler.LOOP:
			offset := i.readShort()
			i.frame.IP -= int(offset)

		case compiler.CALL:
			argCount := int(i.readByte())
			if err := i.callValue(i.peek(argCount), argCount); err != nil {
				return err
			}

		case compiler.INVOKE:
			name := i.readString()
			argCount := int(i.readByte())
			if err := i.invoke(name.Value, argCount); err != nil {
				return err
			}

		case compiler.SUPER_INVOKE:
			name := i.readString()
			argCount := int(i.readByte())
			super, ok := i.pop().(*Class)
			if !ok {
				return i.runtimeError("Superclass must be a class.")
			}
			if err := i.invokeFromClass(super, name.Value, argCount); err != nil {
				return err
			}

		case compiler.CLOSURE:
			fn, ok := i.readConstant().(*compiler.Function)
			if !ok {
				return i.runtimeError("corrupt bytecode: CLOSURE constant is not a function")
			}
			closure := NewClosure(i.Heap, fn)
			i.push(closure)
			for u := 0; u < len(fn.Upvalues); u++ {
				ref := fn.Upvalues[u]
				if ref.FromLocal {
					closure.Upvalues[u] = i.captureUpvalue(i.frame.Slots + int(ref.Index))
				} else {
					closure.Upvalues[u] = i.frame.Closure.Upvalues[ref.Index]
				}
			}

		case compiler.CLOSE_UPVALUE:
			i.closeUpvalues(i.stackTop - 1)
			i.pop()

		case compiler.RETURN:
			result := i.pop()
			i.closeUpvalues(i.frame.Slots)
			done, err := i.execReturn(result)
			if err != nil {
				return err
			}
			if done {
				return nil
			}

		case compiler.CLASS:
			name := i.readString()
			i.push(NewClass(i.Heap, name.Value))
		case compiler.INHERIT:
			super, ok := i.peek(1).(*Class)
			if !ok {
				return i.runtimeError("Superclass must be a class.")
			}
			sub := i.peek(0).(*Class)
			for k, v := range super.Methods {
				sub.Methods[k] = v
			}
			sub.Superclass = super
			i.pop()
		case compiler.METHOD:
			name := i.readString()
			method := i.pop()
			class := i.peek(0).(*Class)
			class.Methods[name.Value] = method
		case compiler.FIELD:
			name := i.readString()
			v := i.pop()
			class := i.peek(0).(*Class)
			class.Fields[name.Value] = v

		case compiler.LIST:
			n := int(i.readByte())
			list := NewList(i.Heap)
			list.Items = append(list.Items, i.Stack[i.stackTop-n:i.stackTop]...)
			i.stackTop -= n
			i.push(list)
		case compiler.MAPLIT:
			n := int(i.readByte())
			m := NewMap(i.Heap)
			base := i.stackTop - 2*n
			for k := 0; k < n; k++ {
				m.Set(i.Stack[base+2*k], i.Stack[base+2*k+1])
			}
			i.stackTop = base
			i.push(m)
		case compiler.GETITEM:
			if err := i.execGetItem(); err != nil {
				return err
			}
		case compiler.SETITEM:
			if err := i.execSetItem(); err != nil {
				return err
			}
		case compiler.IMPORT:
			if err := i.execImport(); err != nil {
				return err
			}

		case compiler.YIELD:
			done, err := i.execYield()
			if err != nil {
				return err
			}
			if done {
				return nil
			}

		default:
			return i.runtimeError("unknown opcode %d", op)
		}

		if i.Heap.ShouldCollect() {
			i.collectGarbage()
		}
	}
}

func (i *Interpreter) readByte() byte {
	b := i.frame.Closure.Function.Chunk.Code[i.frame.IP]
	i.frame.IP++
	return b
}

func (i *Interpreter) readShort() uint16 {
	hi := i.readByte()
	lo := i.readByte()
	return uint16(hi)<<8 | uint16(lo)
}

func (i *Interpreter) readConstant() value.Value {
	idx := i.readByte()
	return i.frame.Closure.Function.Chunk.Constants[idx]
}

func (i *Interpreter) readString() *value.String {
	return i.readConstant().(*value.String)
}

func (i *Interpreter) runtimeError(format string, args ...interface{}) error {
	return errf(i.frame, format, args...)
}

func (i *Interpreter) write(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
}
