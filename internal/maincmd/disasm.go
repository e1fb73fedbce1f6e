package maincmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mna/mainer"
	"github.com/saffron-lang/saffron"
	"github.com/saffron-lang/saffron/lang/compiler"
	"github.com/saffron-lang/saffron/lang/gc"
)

func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return DisasmFile(stdio, args[0])
}

// DisasmFile compiles path (without running it) and prints the bytecode
// disassembly of its top-level function and every function nested in it,
// the "external disassembler" collaborator spec.md §1 and §6 name.
func DisasmFile(stdio mainer.Stdio, path string) error {
	src, err := readFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	fn, _, err := saffron.Compile(gc.NewHeap(), path, src, filepath.Dir(path))
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	fmt.Fprint(stdio.Stdout, compiler.Disassemble(fn))
	return nil
}
