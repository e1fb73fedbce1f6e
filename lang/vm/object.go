// Package vm executes compiled Chunks (lang/compiler) on a stack machine
// with closures, classes, bound methods, and a cooperative task scheduler
// (spec.md §4.5–§4.8), backed by the mark-sweep lang/gc heap. The object
// kinds here are the runtime counterparts of original_source/src/object.h's
// Obj union — String and Atom already live in lang/value since the compiler
// needs to intern them too; everything else a running program can allocate
// (closures, upvalues, classes, instances, lists, maps, bound methods,
// natives, modules) is defined in this package.
package vm

import (
	"fmt"
	"strings"

	"github.com/saffron-lang/saffron/lang/compiler"
	"github.com/saffron-lang/saffron/lang/gc"
	"github.com/saffron-lang/saffron/lang/value"
)

// Upvalue is either a live window into some frame's stack slot (open) or a
// closed copy of that slot's final value, once the frame that owned it has
// returned (original_source/src/object.h's ObjUpvalue). Rather than the
// reference implementation's raw pointer into the C stack array, an open
// upvalue here holds the owning Interpreter and a slot index — equivalent
// addressing without unsafe pointer arithmetic into a Go slice. The open
// upvalues of a running interpreter form an intrusive list ordered by
// descending slot (Next), matching captureUpvalue/closeUpvalues in vm.c.
type Upvalue struct {
	gc.Header
	vm     *Interpreter
	slot   int
	open   bool
	Closed value.Value
	Next   *Upvalue
}

func (*Upvalue) Kind() string { return "upvalue" }
func (*Upvalue) Type() string { return "Upvalue" }
func (u *Upvalue) String() string {
	return "<upvalue>"
}
func (u *Upvalue) Trace(mark func(gc.Object)) {
	if obj, ok := u.Get().(gc.Object); ok {
		mark(obj)
	}
}

// Get returns the upvalue's current value, wherever it currently lives.
func (u *Upvalue) Get() value.Value {
	if u.open {
		return u.vm.Stack[u.slot]
	}
	return u.Closed
}

// Set writes through to the upvalue's current location.
func (u *Upvalue) Set(v value.Value) {
	if u.open {
		u.vm.Stack[u.slot] = v
		return
	}
	u.Closed = v
}

// Close hoists the upvalue's live slot into its own Closed field, severing
// it from the frame's stack — the operation is irreversible (spec.md §3
// invariants).
func (u *Upvalue) Close() {
	u.Closed = u.vm.Stack[u.slot]
	u.open = false
}

// Closure pairs a compiled Function with the upvalues it captured at the
// point its CLOSURE instruction ran (original_source/src/object.h's
// ObjClosure).
type Closure struct {
	gc.Header
	Function *compiler.Function
	Upvalues []*Upvalue
}

func (*Closure) Kind() string { return "closure" }
func (*Closure) Type() string { return "Closure" }
func (c *Closure) String() string {
	return "<fn " + c.Function.Name + ">"
}
func (c *Closure) Trace(mark func(gc.Object)) {
	mark(c.Function)
	for _, uv := range c.Upvalues {
		if uv != nil {
			mark(uv)
		}
	}
}

// NewClosure allocates a closure over fn with an upvalue slice sized for
// fn's capture list, to be filled in by the CLOSURE opcode handler.
func NewClosure(h *gc.Heap, fn *compiler.Function) *Closure {
	c := &Closure{Function: fn, Upvalues: make([]*Upvalue, len(fn.Upvalues))}
	h.Alloc(c, 32+int64(len(fn.Upvalues))*8)
	return c
}

// Native is a host-implemented callable: `(argc, argv) -> (Value, error)`
// (original_source/src/object.h's ObjNative).
type NativeFn func(i *Interpreter, args []value.Value) (value.Value, error)

type Native struct {
	gc.Header
	Name string
	Fn   NativeFn
}

func (*Native) Kind() string         { return "native" }
func (*Native) Type() string         { return "Native" }
func (n *Native) String() string     { return "<native fn " + n.Name + ">" }
func (*Native) Trace(func(gc.Object)) {}

// NativeMethod is a receiver-aware native: it additionally sees the
// instance/builtin value it was invoked on (object.h's ObjNativeMethod).
type NativeMethodFn func(i *Interpreter, recv value.Value, args []value.Value) (value.Value, error)

type NativeMethod struct {
	gc.Header
	Name string
	Fn   NativeMethodFn
}

func (*NativeMethod) Kind() string         { return "native_method" }
func (*NativeMethod) Type() string         { return "NativeMethod" }
func (n *NativeMethod) String() string     { return "<native method " + n.Name + ">" }
func (*NativeMethod) Trace(func(gc.Object)) {}

// Class is a user- or builtin-defined class: a name, its declared methods
// table, and the default field values new instances are stamped with
// (original_source/src/object.h's ObjClass; spec.md §3's Class kind).
type Class struct {
	gc.Header
	Name       string
	Methods    map[string]value.Value // interned method name -> Closure/NativeMethod
	Fields     map[string]value.Value // default field values, copied into each Instance
	Superclass *Class
}

func (*Class) Kind() string     { return "class" }
func (*Class) Type() string     { return "Class" }
func (c *Class) String() string { return "<class " + c.Name + ">" }
func (c *Class) Trace(mark func(gc.Object)) {
	for _, m := range c.Methods {
		if obj, ok := m.(gc.Object); ok {
			mark(obj)
		}
	}
	for _, v := range c.Fields {
		if obj, ok := v.(gc.Object); ok {
			mark(obj)
		}
	}
	if c.Superclass != nil {
		mark(c.Superclass)
	}
}

// NewClass allocates an empty class named name.
func NewClass(h *gc.Heap, name string) *Class {
	c := &Class{Name: name, Methods: map[string]value.Value{}, Fields: map[string]value.Value{}}
	h.Alloc(c, 48)
	return c
}

// Instance is one object of a Class, with its own field table seeded from
// the class's defaults (object.h's ObjInstance).
type Instance struct {
	gc.Header
	Class  *Class
	Fields map[string]value.Value
}

func (*Instance) Kind() string { return "instance" }
func (*Instance) Type() string { return "Instance" }
func (i *Instance) String() string {
	return "<" + i.Class.Name + " instance>"
}
func (i *Instance) Trace(mark func(gc.Object)) {
	mark(i.Class)
	for _, v := range i.Fields {
		if obj, ok := v.(gc.Object); ok {
			mark(obj)
		}
	}
}

// NewInstance allocates an instance of klass, copying klass's default
// fields into the new instance's own table.
func NewInstance(h *gc.Heap, klass *Class) *Instance {
	fields := make(map[string]value.Value, len(klass.Fields))
	for k, v := range klass.Fields {
		fields[k] = v
	}
	inst := &Instance{Class: klass, Fields: fields}
	h.Alloc(inst, 32+int64(len(fields))*16)
	return inst
}

// BoundMethod pairs a receiver with the closure or native-method it's bound
// to, produced by GET_PROPERTY/GET_SUPER when the named field resolves to a
// method rather than a plain field (object.h's ObjBoundMethod).
type BoundMethod struct {
	gc.Header
	Receiver value.Value
	Method   value.Value // *Closure or *NativeMethod
}

func (*BoundMethod) Kind() string { return "bound_method" }
func (*BoundMethod) Type() string { return "BoundMethod" }
func (b *BoundMethod) String() string {
	return "<bound method>"
}
func (b *BoundMethod) Trace(mark func(gc.Object)) {
	if obj, ok := b.Receiver.(gc.Object); ok {
		mark(obj)
	}
	if obj, ok := b.Method.(gc.Object); ok {
		mark(obj)
	}
}

// NewBoundMethod allocates a bound method.
func NewBoundMethod(h *gc.Heap, recv value.Value, method value.Value) *BoundMethod {
	b := &BoundMethod{Receiver: recv, Method: method}
	h.Alloc(b, 24)
	return b
}

// List is a dynamic array of Values (object.h's ObjList).
type List struct {
	gc.Header
	Items []value.Value
}

func (*List) Kind() string { return "list" }
func (*List) Type() string { return "List" }
func (l *List) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range l.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteByte(']')
	return b.String()
}
func (l *List) Trace(mark func(gc.Object)) {
	for _, v := range l.Items {
		if obj, ok := v.(gc.Object); ok {
			mark(obj)
		}
	}
}

// NewList allocates an empty list.
func NewList(h *gc.Heap) *List {
	l := &List{}
	h.Alloc(l, 24)
	return l
}

// Module is the result of compiling and running one source file: its
// resolved import path, the globals its top-level code defined, and the
// InterpretResult code it finished with (object.h's ObjModule, spec.md
// §4.8).
type Module struct {
	gc.Header
	Name    string
	Path    string
	Globals map[string]value.Value
	Result  InterpretResult
}

func (*Module) Kind() string { return "module" }
func (*Module) Type() string { return "Module" }
func (m *Module) String() string {
	return fmt.Sprintf("<module %q>", m.Path)
}
func (m *Module) Trace(mark func(gc.Object)) {
	for _, v := range m.Globals {
		if obj, ok := v.(gc.Object); ok {
			mark(obj)
		}
	}
}

// NewModule allocates a fresh module for path.
func NewModule(h *gc.Heap, name, path string) *Module {
	mod := &Module{Name: name, Path: path, Globals: map[string]value.Value{}}
	h.Alloc(mod, 48)
	return mod
}

// Task is the handle `spawn(fn)` hands back to user code: a thin wrapper
// around the CallFrame actually being scheduled, exposing only
// `getResult()`/`isReady()` (original_source/src/libc/task.c's ObjTask,
// which is itself an ObjInstance wrapping an ObjCallFrame*).
type Task struct {
	gc.Header
	Frame *CallFrame
}

func (*Task) Kind() string     { return "task" }
func (*Task) Type() string     { return "Task" }
func (t *Task) String() string { return fmt.Sprintf("<Task %p>", t.Frame) }
func (t *Task) Trace(mark func(gc.Object)) {
	if t.Frame != nil {
		mark(t.Frame)
	}
}

// NewTask allocates a Task wrapping frame.
func NewTask(h *gc.Heap, frame *CallFrame) *Task {
	t := &Task{Frame: frame}
	h.Alloc(t, 16)
	return t
}

// IsReady reports whether the wrapped frame has finished running.
func (t *Task) IsReady() bool { return t.Frame.State&finished != 0 }

// GetResult returns the wrapped frame's final return value (Nil until it
// finishes).
func (t *Task) GetResult() value.Value {
	if t.Frame.Result == nil {
		return value.Nil{}
	}
	return t.Frame.Result
}
