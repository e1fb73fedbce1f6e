package compiler

import (
	"fmt"
	"strings"
)

// Disassemble renders fn's Chunk (and, recursively, every Function constant
// it closes over) as human-readable bytecode listing text, in the spirit
// of the teacher's lang/compiler/asm.go Dasm — but disassembly-only: this
// module has no text-assembler round-trip (see DESIGN.md "Dropped/
// simplified teacher code"), only the direction a `saffron disasm` command
// needs.
func Disassemble(fn *Function) string {
	var b strings.Builder
	disassembleFunction(&b, fn, map[*Function]bool{})
	return b.String()
}

func disassembleFunction(b *strings.Builder, fn *Function, seen map[*Function]bool) {
	if seen[fn] {
		return
	}
	seen[fn] = true

	fmt.Fprintf(b, "function %s/%d:\n", fn.Name, fn.Arity)
	code := fn.Chunk.Code
	var nested []*Function
	for pc := 0; pc < len(code); {
		n, consts := disassembleInstruction(b, fn.Chunk, pc)
		for _, c := range consts {
			if nestedFn, ok := c.(*Function); ok {
				nested = append(nested, nestedFn)
			}
		}
		pc = n
	}
	for _, nestedFn := range nested {
		b.WriteByte('\n')
		disassembleFunction(b, nestedFn, seen)
	}
}

// disassembleInstruction writes one instruction's listing line starting at
// pc and returns the offset of the next instruction, plus any constants the
// instruction referenced (so the caller can recurse into nested Functions).
func disassembleInstruction(b *strings.Builder, c *Chunk, pc int) (next int, consts []interface{}) {
	defer b.WriteByte('\n')

	op := Opcode(c.Code[pc])
	line := c.LineFor(pc)
	fmt.Fprintf(b, "%04d %4d  %-14s", pc, line, op.String())

	switch op {
	case CONSTANT, GET_GLOBAL, SET_GLOBAL, DEFINE_GLOBAL,
		GET_PROPERTY, SET_PROPERTY, GET_SUPER,
		CLASS, METHOD, FIELD:
		idx := c.Code[pc+1]
		fmt.Fprintf(b, " %d", idx)
		if int(idx) < len(c.Constants) {
			v := c.Constants[idx]
			fmt.Fprintf(b, " (%s)", v.String())
			consts = append(consts, v)
		}
		return pc + 2, consts

	case GET_LOCAL, SET_LOCAL, GET_UPVALUE, SET_UPVALUE, CALL, LIST, MAPLIT:
		fmt.Fprintf(b, " %d", c.Code[pc+1])
		return pc + 2, nil

	case INVOKE, SUPER_INVOKE:
		nameIdx := c.Code[pc+1]
		argc := c.Code[pc+2]
		name := ""
		if int(nameIdx) < len(c.Constants) {
			name = c.Constants[nameIdx].String()
		}
		fmt.Fprintf(b, " %s (%d args)", name, argc)
		return pc + 3, nil

	case JUMP, JUMP_IF_FALSE, LOOP:
		offset := int(c.Code[pc+1])<<8 | int(c.Code[pc+2])
		target := pc + 3 + offset
		if op == LOOP {
			target = pc + 3 - offset
		}
		fmt.Fprintf(b, " -> %04d", target)
		return pc + 3, nil

	case CLOSURE:
		idx := c.Code[pc+1]
		fmt.Fprintf(b, " %d", idx)
		n := pc + 2
		if int(idx) < len(c.Constants) {
			v := c.Constants[idx]
			fmt.Fprintf(b, " (%s)", v.String())
			consts = append(consts, v)
			if nestedFn, ok := v.(*Function); ok {
				for range nestedFn.Upvalues {
					isLocal := c.Code[n]
					slot := c.Code[n+1]
					kind := "upvalue"
					if isLocal != 0 {
						kind = "local"
					}
					fmt.Fprintf(b, "\n      |                     %s %d", kind, slot)
					n += 2
				}
			}
		}
		return n, consts

	case IMPORT:
		return pc + 1, nil

	default:
		return pc + 1, nil
	}
}
