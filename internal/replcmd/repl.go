// Package replcmd implements Saffron's interactive top level. It is an
// external collaborator per spec.md §1 ("the REPL driver" is explicitly
// out of scope for the core) and calls only the core's public
// saffron.Repl/Eval API, never reaching into lang/vm, lang/compiler, or
// lang/types directly.
package replcmd

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/mna/mainer"
	"github.com/saffron-lang/saffron"
	"github.com/saffron-lang/saffron/internal/runtimeconfig"
	"github.com/saffron-lang/saffron/lang/value"
)

const prompt = "> "

// Run drives the read-eval-print loop over stdio until ctx is cancelled or
// stdin reaches EOF, printing each line's resulting value the way an
// interactive top level does.
func Run(ctx context.Context, stdio mainer.Stdio) error {
	cfg, err := runtimeconfig.Load()
	if err != nil {
		return err
	}

	repl := saffron.NewRepl(saffron.Options{
		Config: cfg,
		Stdio: saffron.Stdio{
			Stdin:  stdio.Stdin,
			Stdout: stdio.Stdout,
			Stderr: stdio.Stderr,
		},
	})

	sc := bufio.NewScanner(stdio.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fmt.Fprint(stdio.Stdout, prompt)
		if !sc.Scan() {
			if err := sc.Err(); err != nil && err != io.EOF {
				return err
			}
			return nil
		}

		line := sc.Text()
		if line == "" {
			continue
		}

		v, _, err := repl.Eval(line)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			continue
		}
		if v != nil {
			if _, isNil := v.(value.Nil); !isNil {
				fmt.Fprintln(stdio.Stdout, v.String())
			}
		}
	}
}
