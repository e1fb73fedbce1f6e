package maincmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mna/mainer"
	"github.com/saffron-lang/saffron"
	"github.com/saffron-lang/saffron/lang/gc"
)

func (c *Cmd) Check(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CheckFile(stdio, args[0])
}

// CheckFile runs the parser and type checker over path and reports
// diagnostics, without compiling or running it. Prints nothing on success,
// matching `tsc --noEmit`-style checkers the way spec.md §7 describes the
// checker as a gate, not a producer of output.
func CheckFile(stdio mainer.Stdio, path string) error {
	src, err := readFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	_, _, err = saffron.Compile(gc.NewHeap(), path, src, filepath.Dir(path))
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return nil
}
