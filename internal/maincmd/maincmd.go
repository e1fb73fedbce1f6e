package maincmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
	"github.com/saffron-lang/saffron/internal/replcmd"
	"github.com/saffron-lang/saffron/internal/trace"
	"github.com/saffron-lang/saffron/lang/vm"
)

const binName = "saffron"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<command>] [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<command>] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and all-in-one tool for the %[1]s programming language. With no
arguments, opens a REPL. Given a bare <path> with no recognized <command>,
runs it (shorthand for "%[1]s run <path>").

The <command> can be one of:
       run                       Compile and interpret <path> (the default
                                 when <path> is given without a command).
       tokenize                  Run the scanner phase and print the
                                 resulting tokens.
       parse                     Run the parser phase and print the
                                 resulting abstract syntax tree (AST).
       check                     Run the parser and type checker and report
                                 diagnostics, without running <path>.
       disasm                    Compile <path> and print its bytecode
                                 disassembly, without running it.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       -trace                    Enable trace-level logging to stderr.

Exit codes: 65 compile error, 70 runtime error, 64 usage error, 74 file I/O
error.
`, binName)
)

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`
	Trace   bool `flag:"trace"`

	args    []string
	cmdArgs []string
	flags   map[string]bool
	cmdFn   func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

// Validate picks the command to run and the arguments it receives: a known
// command name dispatches normally, a bare path defaults to `run`, and no
// arguments at all opens the REPL (spec.md §6: "no arguments opens a
// REPL").
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	commands := buildCmds(c)

	if len(c.args) == 0 {
		c.cmdFn = commands["repl"]
		c.cmdArgs = nil
		return nil
	}

	cmdName := c.args[0]
	if fn, ok := commands[cmdName]; ok {
		rest := c.args[1:]
		if cmdName != "repl" && len(rest) == 0 {
			return fmt.Errorf("%s: a file path must be provided", cmdName)
		}
		c.cmdFn = fn
		c.cmdArgs = rest
		return nil
	}

	if strings.HasPrefix(cmdName, "-") {
		return fmt.Errorf("unknown option: %s", cmdName)
	}

	// Not a recognized command: treat the whole argument list as path(s) for
	// the default `run` command.
	c.cmdFn = commands["run"]
	c.cmdArgs = c.args
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.ExitCode(64)
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	trace.Enabled = c.Trace

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if c.cmdFn == nil {
		fmt.Fprintf(stdio.Stderr, "no command specified\n%s", shortUsage)
		return mainer.ExitCode(64)
	}
	if err := c.cmdFn(ctx, stdio, c.cmdArgs); err != nil {
		// each command takes care of printing its own errors
		return exitCodeFor(err)
	}
	return mainer.Success
}

// Repl opens an interactive session, satisfying buildCmds' dispatch
// signature so it can be selected the same way every other subcommand is.
func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return replcmd.Run(ctx, stdio)
}

// exitCodeFor maps a command's returned error onto spec.md §6's four exit
// codes: a filesystem failure is 74, an uncaught VM error is 70, everything
// else (scan/parse/type-check diagnostics) is 65.
func exitCodeFor(err error) mainer.ExitCode {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return mainer.ExitCode(74)
	}
	var runtimeErr *vm.RuntimeError
	if errors.As(err, &runtimeErr) {
		return mainer.ExitCode(70)
	}
	return mainer.ExitCode(65)
}

// valid commands are those that take a mainer.Stdio and a slice of strings as
// input, and return an error as output.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		// must take 4 parameters (including receiver) and return 1
		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}

		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
