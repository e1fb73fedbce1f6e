package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/saffron-lang/saffron"
	"github.com/saffron-lang/saffron/internal/runtimeconfig"
)

func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return RunFile(stdio, args[0])
}

// RunFile compiles and interprets path, returning an error when the
// process should exit non-zero. The saffron.Result is not used here: Main
// maps the returned error onto spec.md §6's exit codes (exitCodeFor); this
// function only needs to report the error and let the caller decide the
// code.
func RunFile(stdio mainer.Stdio, path string) error {
	cfg, err := runtimeconfig.Load()
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	opts := saffron.Options{
		Config: cfg,
		Stdio: saffron.Stdio{
			Stdin:  stdio.Stdin,
			Stdout: stdio.Stdout,
			Stderr: stdio.Stderr,
		},
	}
	_, err = saffron.Run(path, opts)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return nil
}
