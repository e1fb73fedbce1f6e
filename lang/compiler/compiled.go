package compiler

import (
	"github.com/saffron-lang/saffron/lang/gc"
	"github.com/saffron-lang/saffron/lang/value"
)

// maxConstants is the size of a Chunk's one-byte constant-pool index
// (spec.md §4.4: "Too many constants in one chunk." is a compile error
// once this many distinct constants have been emitted).
const maxConstants = 256

// Chunk is the code of one compiled function: its instruction stream, the
// constant pool the CONSTANT family of opcodes indexes into, and a line
// table for runtime error reporting. One Chunk exists per compiled
// function (the teacher's lang/compiler.Funcode plays the same role for
// Starlark, but pools its constants program-wide via Funcode.Prog; Saffron
// keeps the pool per-Chunk to match the reference implementation's
// clox-family bytecode, and to let a Function be GC'd independently of any
// sibling function compiled alongside it).
type Chunk struct {
	Code      []byte
	Lines     []int // Lines[i] is the source line of Code[i]
	Constants []value.Value

	constantIndex map[value.Value]uint8 // dedups equal constants within a Chunk
}

// NewChunk returns an empty Chunk ready to receive emitted bytecode.
func NewChunk() *Chunk {
	return &Chunk{constantIndex: map[value.Value]uint8{}}
}

// Write appends one byte of bytecode, tagging it with the source line that
// produced it.
func (c *Chunk) Write(b byte, line int) int {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// WriteOp is a typed convenience wrapper around Write.
func (c *Chunk) WriteOp(op Opcode, line int) int {
	return c.Write(byte(op), line)
}

// AddConstant interns v into the constant pool, reusing an existing slot
// for an equal constant (matching the teacher's dedup-by-value map in
// lang/compiler.compiler.constants), and returns its one-byte index. ok is
// false once the pool has exceeded maxConstants; the caller turns that into
// a compile error at the call site, where it has line information.
func (c *Chunk) AddConstant(v value.Value) (index uint8, ok bool) {
	if idx, found := c.constantIndex[v]; found {
		return idx, true
	}
	if len(c.Constants) >= maxConstants {
		return 0, false
	}
	idx := uint8(len(c.Constants))
	c.Constants = append(c.Constants, v)
	if c.constantIndex == nil {
		c.constantIndex = map[value.Value]uint8{}
	}
	c.constantIndex[v] = idx
	return idx, true
}

// LineFor returns the source line recorded for the instruction at code
// offset pc, used by the VM to annotate a runtime error with a line number.
func (c *Chunk) LineFor(pc int) int {
	if pc < 0 || pc >= len(c.Lines) {
		return -1
	}
	return c.Lines[pc]
}

// UpvalueRef describes one upvalue a Function captures from its enclosing
// function, either directly from that function's locals (FromLocal) or
// transitively from that function's own upvalues.
type UpvalueRef struct {
	Index     uint8
	FromLocal bool
}

// Function is the compiled form of a `fun`/`lambda`/method/class-init body:
// a name, its Chunk, arity, and the upvalues it closes over. It is the unit
// the CLOSURE opcode wraps into a runtime closure, and — since a nested
// function literal is itself a constant of its enclosing Chunk — Function
// implements value.Value so it can sit directly in a constant pool.
type Function struct {
	gc.Header
	Name      string
	Arity     int
	Chunk     *Chunk
	Upvalues  []UpvalueRef
	IsMethod  bool
	IsInitFor string // class name, if this Function is a class's init
}

func (*Function) Type() string     { return "Function" }
func (f *Function) String() string { return "<fn " + f.Name + ">" }
func (*Function) Kind() string     { return "function" }

// Trace enqueues every heap constant this function's Chunk holds, so a
// Function keeps its nested function literals and interned string/atom
// constants alive for as long as the Function itself is reachable.
func (f *Function) Trace(mark func(gc.Object)) {
	for _, c := range f.Chunk.Constants {
		if obj, ok := c.(gc.Object); ok {
			mark(obj)
		}
	}
}
