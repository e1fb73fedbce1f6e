// Package runtimeconfig holds the runtime knobs that don't belong on the
// CLI's flag surface (internal/maincmd already owns flags/usage via
// github.com/mna/mainer) but still need to be tunable without a rebuild:
// initial GC heap size, the scheduler's idle-sleep tick, and the stack
// depth limit. Parsed from the process environment with
// github.com/caarlos0/env/v6, the struct-tag-driven library the teacher's
// own CLI dependency (mna/mainer) already pulls in transitively.
package runtimeconfig

import (
	"time"

	"github.com/caarlos0/env/v6"
)

// Config is read by internal/maincmd and internal/replcmd and passed in
// saffron.Options, where saffron's newHeap/newInterpreter hand it to
// gc.NewHeapWithThreshold, vm.NewInterpreterWithStackSize and
// vm.NewSchedulerWithPollInterval.
type Config struct {
	// InitialHeapBytes seeds gc.Heap's nextGC threshold (spec.md §4.6 names
	// 64KiB as the floor after any collection; this only affects the very
	// first one).
	InitialHeapBytes int64 `env:"SAFFRON_INITIAL_HEAP_BYTES" envDefault:"65536"`

	// SchedulerIdleTick is the short real-time sleep spec.md §5 specifies
	// ("≈10 ms") for when every task is sleeping and none is ready.
	SchedulerIdleTick time.Duration `env:"SAFFRON_SCHEDULER_IDLE_TICK" envDefault:"10ms"`

	// StackMax bounds the VM operand/call stack (spec.md §4.5's
	// stack[STACK_MAX]); overridable for test fixtures that want to force a
	// stack-overflow runtime error deterministically.
	StackMax int `env:"SAFFRON_STACK_MAX" envDefault:"65536"`
}

// Load parses Config from the environment, falling back to every field's
// envDefault when unset.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
