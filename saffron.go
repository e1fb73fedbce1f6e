// Package saffron is the core pipeline's public entry point: the one
// surface cmd/saffron and internal/replcmd are allowed to call, so neither
// ever reaches into lang/vm, lang/compiler, or lang/types internals
// directly (spec.md §1's external-collaborator boundary — the CLI and REPL
// are collaborators, not part of the core).
package saffron

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/saffron-lang/saffron/internal/runtimeconfig"
	"github.com/saffron-lang/saffron/lang/ast"
	"github.com/saffron-lang/saffron/lang/compiler"
	"github.com/saffron-lang/saffron/lang/gc"
	"github.com/saffron-lang/saffron/lang/parser"
	"github.com/saffron-lang/saffron/lang/saferr"
	"github.com/saffron-lang/saffron/lang/types"
	"github.com/saffron-lang/saffron/lang/value"
	"github.com/saffron-lang/saffron/lang/vm"
)

// Stdio is the set of streams a Run drives, mirroring mainer.Stdio without
// importing it here — the core stays free of CLI-layer dependencies.
type Stdio struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Options bundles a Run's I/O with the runtimeconfig knobs (initial heap
// size, scheduler idle tick, stack depth) cmd/saffron reads from the
// environment once at startup.
type Options struct {
	Stdio  Stdio
	Config runtimeconfig.Config
}

func newHeap(cfg runtimeconfig.Config) *gc.Heap {
	return gc.NewHeapWithThreshold(cfg.InitialHeapBytes)
}

func newInterpreter(h *gc.Heap, cfg runtimeconfig.Config, stdio Stdio) *vm.Interpreter {
	interp := vm.NewInterpreterWithStackSize(h, cfg.StackMax)
	interp.Scheduler = vm.NewSchedulerWithPollInterval(cfg.SchedulerIdleTick)
	if stdio.Stdin != nil {
		interp.Stdin = stdio.Stdin
	}
	if stdio.Stdout != nil {
		interp.Stdout = stdio.Stdout
	}
	if stdio.Stderr != nil {
		interp.Stderr = stdio.Stderr
	}
	return interp
}

// Result reports which phase a Run/Check stopped at, for the CLI to map
// onto spec.md §6's exit codes (65/70/64/74).
type Result int

const (
	OK Result = iota
	CompileError
	RuntimeError
)

// fsLoader resolves "x.sf" import specifiers against the filesystem,
// relative to the importing file's directory, the "resolver currently
// returns it unchanged" behavior spec.md §6 describes for module
// resolution.
type fsLoader struct{}

func (fsLoader) Resolve(fromDir, path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Clean(filepath.Join(fromDir, path)), nil
}

func (fsLoader) Read(resolvedPath string) (string, error) {
	b, err := os.ReadFile(resolvedPath)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (fsLoader) Parse(name, src string) (*ast.Chunk, error) {
	return parser.ParseChunk(name, src)
}

// Compile parses, type-checks, and compiles src (named name, rooted at
// baseDir for import resolution) into a top-level Function ready to run.
// Type-check diagnostics are warnings-as-errors per spec.md §7: HadError
// aborts compilation with CompileError, matching the reference's
// hadError-gates-exec behavior.
func Compile(h *gc.Heap, name, src, baseDir string) (*compiler.Function, Result, error) {
	chunk, err := parser.ParseChunk(name, src)
	if err != nil {
		return nil, CompileError, err
	}

	checker := types.New(fsLoader{}, baseDir)
	checker.Check(chunk)
	if checker.HadError() {
		errs := checker.Errors.Errs()
		var list saferr.List
		for _, e := range errs {
			list.Add(e.Line, e.Msg)
		}
		return nil, CompileError, &list
	}

	fn, err := compiler.New(h).Compile(chunk)
	if err != nil {
		return nil, CompileError, err
	}
	return fn, OK, nil
}

// newModuleLoader adapts fsLoader into a vm.Loader so an Interpreter can
// resolve `import "x.sf"` without lang/vm ever importing lang/parser or
// lang/types.
func newModuleLoader(baseDir string) vm.Loader {
	return func(i *vm.Interpreter, specifier string) (*compiler.Function, error) {
		path, err := fsLoader{}.Resolve(baseDir, specifier)
		if err != nil {
			return nil, err
		}
		src, err := fsLoader{}.Read(path)
		if err != nil {
			return nil, err
		}
		fn, _, err := Compile(i.Heap, path, src, filepath.Dir(path))
		return fn, err
	}
}

// Run compiles and interprets the file at path, streaming program output
// and errors through opts.Stdio. It returns the final Result so the CLI can
// choose the matching exit code.
func Run(path string, opts Options) (Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return CompileError, fmt.Errorf("read %s: %w", path, err)
	}
	return RunSource(path, string(src), opts)
}

// RunSource is Run without a filesystem read, for tests that want to feed
// source directly.
func RunSource(name, src string, opts Options) (Result, error) {
	baseDir := filepath.Dir(name)
	h := newHeap(opts.Config)
	fn, res, err := Compile(h, name, src, baseDir)
	if err != nil {
		return res, err
	}

	interp := newInterpreter(h, opts.Config, opts.Stdio)
	interp.Load = newModuleLoader(baseDir)

	if _, err := interp.Interpret(fn, name, name); err != nil {
		return RuntimeError, err
	}
	return OK, nil
}

// replModulePath is the one module path every REPL line runs under, so
// Interpreter.Interpret's module-cache reuse (spec.md §4.8) carries
// top-level var declarations from one line to the next.
const replModulePath = "<repl>"

// Repl holds the long-lived heap and interpreter a REPL session evaluates
// successive lines against, so top-level vars survive from one line to the
// next. internal/replcmd owns the read/print loop; it only ever calls Eval.
type Repl struct {
	heap   *gc.Heap
	interp *vm.Interpreter
	lineNo int
}

// NewRepl starts a fresh REPL session.
func NewRepl(opts Options) *Repl {
	h := newHeap(opts.Config)
	interp := newInterpreter(h, opts.Config, opts.Stdio)
	interp.Load = newModuleLoader(".")
	return &Repl{heap: h, interp: interp}
}

// Eval compiles and runs one line, returning the value its last expression
// statement produced (Nil if the line was a declaration/statement with no
// trailing expression).
func (r *Repl) Eval(line string) (value.Value, Result, error) {
	r.lineNo++
	name := fmt.Sprintf("repl:%d", r.lineNo)
	fn, res, err := Compile(r.heap, name, line, ".")
	if err != nil {
		return nil, res, err
	}
	v, err := r.interp.Interpret(fn, name, replModulePath)
	if err != nil {
		return nil, RuntimeError, err
	}
	return v, OK, nil
}
