package vm

import (
	"github.com/saffron-lang/saffron/lang/compiler"
	"github.com/saffron-lang/saffron/lang/gc"
	"github.com/saffron-lang/saffron/lang/value"
)

// call pushes a new frame for closure atop the current one, checking arity
// and the frame-depth limit (original_source/src/vm.c's call()).
func (i *Interpreter) call(closure *Closure, argCount int) error {
	if argCount != closure.Function.Arity {
		return i.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if i.frame.Index+1 >= framesMax {
		return i.runtimeError("Stack overflow.")
	}
	frame := i.callClosure(closure, argCount, i.frame)
	i.frame = frame
	return nil
}

// callValue dispatches a CALL instruction on whatever value sits in the
// callee slot: a closure, a native, a class (instantiation, invoking init
// if the class declares one), or a bound method (original_source/src/vm.c's
// callValue()).
func (i *Interpreter) callValue(callee value.Value, argCount int) error {
	switch c := callee.(type) {
	case *Closure:
		return i.call(c, argCount)

	case *Native:
		args := append([]value.Value{}, i.Stack[i.stackTop-argCount:i.stackTop]...)
		result, err := c.Fn(i, args)
		if err != nil {
			return i.runtimeError("%s", err.Error())
		}
		i.stackTop -= argCount + 1
		i.push(result)
		return nil

	case *Class:
		inst := NewInstance(i.Heap, c)
		i.Stack[i.stackTop-argCount-1] = inst
		if initializer, ok := resolveMethod(c, i.InitString.Value); ok {
			return i.callMethodValue(initializer, inst, argCount)
		}
		if argCount != 0 {
			return i.runtimeError("Expected 0 arguments but got %d.", argCount)
		}
		return nil

	case *BoundMethod:
		i.Stack[i.stackTop-argCount-1] = c.Receiver
		return i.callMethodValue(c.Method, c.Receiver, argCount)

	default:
		return i.runtimeError("Can only call functions and classes.")
	}
}

// callMethodValue calls method (a *Closure or *NativeMethod) with recv
// already installed in the callee slot.
func (i *Interpreter) callMethodValue(method value.Value, recv value.Value, argCount int) error {
	switch m := method.(type) {
	case *Closure:
		return i.call(m, argCount)
	case *NativeMethod:
		args := append([]value.Value{}, i.Stack[i.stackTop-argCount:i.stackTop]...)
		result, err := m.Fn(i, recv, args)
		if err != nil {
			return i.runtimeError("%s", err.Error())
		}
		i.stackTop -= argCount + 1
		i.push(result)
		return nil
	default:
		return i.runtimeError("Can only call functions and classes.")
	}
}

// resolveMethod walks a class's (already-flattened, via INHERIT) method
// table for name.
func resolveMethod(class *Class, name string) (value.Value, bool) {
	m, ok := class.Methods[name]
	return m, ok
}

// invoke fuses "look up method, then call it" into one step for the common
// `recv.name(args)` call shape (original_source/src/vm.c's invoke()).
func (i *Interpreter) invoke(name string, argCount int) error {
	recv := i.peek(argCount)
	inst, ok := recv.(*Instance)
	if !ok {
		if fn, ok := builtinMethod(recv, name); ok {
			nm := &NativeMethod{Name: name, Fn: fn}
			return i.callMethodValue(nm, recv, argCount)
		}
		return i.runtimeError("Only instances have methods.")
	}
	if field, ok := inst.Fields[name]; ok {
		i.Stack[i.stackTop-argCount-1] = field
		return i.callValue(field, argCount)
	}
	return i.invokeFromClass(inst.Class, name, argCount)
}

// invokeFromClass calls class's method named name (without re-checking
// instance fields), used directly by INVOKE when it's already resolved a
// field miss, and by SUPER_INVOKE against the explicit superclass.
func (i *Interpreter) invokeFromClass(class *Class, name string, argCount int) error {
	method, ok := resolveMethod(class, name)
	if !ok {
		return i.runtimeError("Undefined property '%s'.", name)
	}
	recv := i.peek(argCount)
	return i.callMethodValue(method, recv, argCount)
}

// bindMethod resolves name on class against recv, producing a BoundMethod
// (or, for a builtin receiver, binding one of its native methods).
func (i *Interpreter) bindMethod(recv value.Value, class *Class, name string) error {
	var method value.Value
	var ok bool
	if class != nil {
		method, ok = resolveMethod(class, name)
	}
	if !ok {
		if fn, ok := builtinMethod(recv, name); ok {
			i.push(NewBoundMethod(i.Heap, recv, &NativeMethod{Name: name, Fn: fn}))
			return nil
		}
		return i.runtimeError("Undefined property '%s'.", name)
	}
	i.push(NewBoundMethod(i.Heap, recv, method))
	return nil
}

// execGetProperty implements GET_PROPERTY: resolve name as an instance
// field, then a class method (bound), then — for non-Instance receivers
// like List/Map/Task/String — a builtin method bound the same way.
func (i *Interpreter) execGetProperty() error {
	name := i.readString()
	recv := i.peek(0)
	inst, ok := recv.(*Instance)
	if !ok {
		if err := i.bindMethod(recv, nil, name.Value); err != nil {
			return err
		}
		v := i.pop()
		i.pop()
		i.push(v)
		return nil
	}
	if field, ok := inst.Fields[name.Value]; ok {
		i.pop()
		i.push(field)
		return nil
	}
	i.pop()
	if err := i.bindMethod(recv, inst.Class, name.Value); err != nil {
		return err
	}
	return nil
}

// execSetProperty implements SET_PROPERTY: `instance v SET_PROPERTY<name> v`.
func (i *Interpreter) execSetProperty() error {
	name := i.readString()
	inst, ok := i.peek(1).(*Instance)
	if !ok {
		return i.runtimeError("Only instances have fields.")
	}
	val := i.pop()
	inst.Fields[name.Value] = val
	i.pop()
	i.push(val)
	return nil
}

// execCompare implements GREATER/LESS: numeric-only ordering (spec.md §4.5).
func (i *Interpreter) execCompare(op compiler.Opcode) error {
	b, okB := i.peek(0).(value.Number)
	a, okA := i.peek(1).(value.Number)
	if !okA || !okB {
		return i.runtimeError("Operands must be numbers.")
	}
	i.pop()
	i.pop()
	if op == compiler.GREATER {
		i.push(value.Bool(a > b))
	} else {
		i.push(value.Bool(a < b))
	}
	return nil
}

// execAdd implements ADD: either numeric addition, or string concatenation
// if either operand is a string (original_source/src/vm.c's concatenate(),
// spec.md §4.5).
func (i *Interpreter) execAdd() error {
	b, a := i.peek(0), i.peek(1)
	an, aNum := a.(value.Number)
	bn, bNum := b.(value.Number)
	if aNum && bNum {
		i.pop()
		i.pop()
		i.push(an + bn)
		return nil
	}
	_, aStr := a.(*value.String)
	_, bStr := b.(*value.String)
	if aStr || bStr {
		i.pop()
		i.pop()
		i.push(value.InternString(i.Heap, a.String()+b.String()))
		return nil
	}
	return i.runtimeError("Operands must be two numbers or two strings.")
}

// execArith implements SUBTRACT/MULTIPLY/DIVIDE/MODULO: numeric-only.
func (i *Interpreter) execArith(op compiler.Opcode) error {
	b, okB := i.peek(0).(value.Number)
	a, okA := i.peek(1).(value.Number)
	if !okA || !okB {
		return i.runtimeError("Operands must be numbers.")
	}
	i.pop()
	i.pop()
	switch op {
	case compiler.SUBTRACT:
		i.push(a - b)
	case compiler.MULTIPLY:
		i.push(a * b)
	case compiler.DIVIDE:
		if b == 0 {
			return i.runtimeError("Division by zero.")
		}
		i.push(a / b)
	case compiler.MODULO:
		if b == 0 {
			return i.runtimeError("Division by zero.")
		}
		i.push(value.Number(int64(a) % int64(b)))
	}
	return nil
}

// execGetItem implements GETITEM: List index by number, Map index by any
// key (original_source/src/libc/list.c's getListItem, libc/map.c's
// getMapItem).
func (i *Interpreter) execGetItem() error {
	idx := i.pop()
	recv := i.pop()
	switch r := recv.(type) {
	case *List:
		n, ok := idx.(value.Number)
		if !ok {
			return i.runtimeError("List index must be a number.")
		}
		at := int(n)
		if at < 0 || at >= len(r.Items) {
			return i.runtimeError("Index out of bounds.")
		}
		i.push(r.Items[at])
	case *Map:
		v, ok := r.Get(idx)
		if !ok {
			return i.runtimeError("Key not found.")
		}
		i.push(v)
	case *value.String:
		n, ok := idx.(value.Number)
		if !ok {
			return i.runtimeError("String index must be a number.")
		}
		at := int(n)
		if at < 0 || at >= len(r.Value) {
			return i.runtimeError("Index out of bounds.")
		}
		i.push(value.InternString(i.Heap, string(r.Value[at])))
	default:
		return i.runtimeError("Can only index lists, maps, and strings.")
	}
	return nil
}

// execSetItem implements SETITEM: `a i v SETITEM v` — only Lists and Maps
// are mutable containers.
func (i *Interpreter) execSetItem() error {
	val := i.pop()
	idx := i.pop()
	recv := i.pop()
	switch r := recv.(type) {
	case *List:
		n, ok := idx.(value.Number)
		if !ok {
			return i.runtimeError("List index must be a number.")
		}
		at := int(n)
		if at < 0 || at >= len(r.Items) {
			return i.runtimeError("Index out of bounds.")
		}
		r.Items[at] = val
	case *Map:
		r.Set(idx, val)
	default:
		return i.runtimeError("Can only index lists and maps.")
	}
	i.push(val)
	return nil
}

// captureUpvalue returns the open upvalue for slot, creating one and
// inserting it into the descending-slot-ordered intrusive list if none
// exists yet (original_source/src/vm.c's captureUpvalue()).
func (i *Interpreter) captureUpvalue(slot int) *Upvalue {
	var prev *Upvalue
	cur := i.openUpvalues
	for cur != nil && cur.slot > slot {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.slot == slot {
		return cur
	}
	uv := &Upvalue{vm: i, slot: slot, open: true}
	i.Heap.Alloc(uv, 24)
	uv.Next = cur
	if prev == nil {
		i.openUpvalues = uv
	} else {
		prev.Next = uv
	}
	return uv
}

// closeUpvalues hoists every open upvalue at or above lastSlot into its own
// Closed field, severing it from the stack (vm.c's closeUpvalues()).
func (i *Interpreter) closeUpvalues(lastSlot int) {
	for i.openUpvalues != nil && i.openUpvalues.slot >= lastSlot {
		uv := i.openUpvalues
		uv.Close()
		i.openUpvalues = uv.Next
	}
}

// execReturn implements RETURN's frame-transition logic: a nested call just
// pops back to its parent within the same task, while a task's outermost
// frame finishing hands its result to the scheduler. An imported module's
// synthetic root frame pushes the Module object itself rather than its
// return value, so IMPORT's caller receives what it asked for.
func (i *Interpreter) execReturn(result value.Value) (done bool, err error) {
	frame := i.frame
	if frame.Parent == nil {
		i.stackTop = frame.Slots
		frame.Result = result
		frame.State |= finished
		i.Scheduler.Finish()
		return true, nil
	}
	i.stackTop = frame.Slots
	if frame.IsModuleRoot {
		i.push(frame.Module)
	} else {
		i.push(result)
	}
	i.frame = frame.Parent
	return false, nil
}

// execYield implements YIELD. Every task shares one value stack, so
// suspending one requires snapshotting its *whole* live span — from the
// task root's own Slots through the current stack top, which covers every
// nested call frame the task is partway through, not just the innermost
// one — onto the task root frame, and remembering which frame (root or
// nested) was actually executing so resumption can continue at the right
// IP. Control then returns to run()'s outer loop so the next ready task
// gets a turn.
func (i *Interpreter) execYield() (bool, error) {
	yielded := i.pop()
	root := i.taskRoot
	root.Saved = append([]value.Value{}, i.Stack[root.Slots:i.stackTop]...)
	root.Running = i.frame
	i.stackTop = root.Slots
	root.Stored = value.Nil{}
	if err := i.Scheduler.Yield(yielded); err != nil {
		return false, err
	}
	return true, nil
}

// execImport implements IMPORT: `path IMPORT module`. A specifier already
// resolved to a running module is returned from cache; otherwise Load
// compiles it and its top-level code runs synchronously, nested inside the
// importing task (not scheduled as a separate task) — exactly like an
// ordinary call, reusing call()'s frame machinery.
func (i *Interpreter) execImport() error {
	specifier, ok := i.pop().(*value.String)
	if !ok {
		return i.runtimeError("Import path must be a string.")
	}
	path := specifier.Value // the resolver currently returns specifiers unchanged

	if mod, ok := i.Modules[path]; ok {
		i.push(mod)
		return nil
	}
	if i.Load == nil {
		return i.runtimeError("Cannot import '%s': no module loader configured.", path)
	}
	fn, err := i.Load(i, path)
	if err != nil {
		return i.runtimeError("Cannot import '%s': %s", path, err.Error())
	}

	mod := NewModule(i.Heap, path, path)
	i.Modules[path] = mod // cached before running, so an import cycle resolves to the in-progress module

	closure := NewClosure(i.Heap, fn)
	i.push(closure)
	if i.frame.Index+1 >= framesMax {
		return i.runtimeError("Stack overflow.")
	}
	frame := i.callClosure(closure, 0, i.frame)
	frame.Module = mod
	frame.IsModuleRoot = true
	i.frame = frame
	return nil
}

// collectGarbage assembles spec.md §4.6's full root set and runs one
// mark-sweep cycle: the live stack, every scheduled/sleeping task's frame
// (which in turn traces its own saved stack and its Parent chain), every
// open upvalue, every cached module, every built-in, and initString.
func (i *Interpreter) collectGarbage() {
	var roots []gc.Object

	for s := 0; s < i.stackTop; s++ {
		if obj, ok := i.Stack[s].(gc.Object); ok {
			roots = append(roots, obj)
		}
	}
	for _, frame := range i.Scheduler.roots() {
		roots = append(roots, frame)
	}
	if i.frame != nil {
		roots = append(roots, i.frame)
	}
	for uv := i.openUpvalues; uv != nil; uv = uv.Next {
		roots = append(roots, uv)
	}
	for _, mod := range i.Modules {
		roots = append(roots, mod)
	}
	for _, v := range i.Builtins {
		if obj, ok := v.(gc.Object); ok {
			roots = append(roots, obj)
		}
	}
	if i.InitString != nil {
		roots = append(roots, i.InitString)
	}

	i.Heap.Collect(roots)
}
