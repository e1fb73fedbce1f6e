package vm

import (
	"time"

	"github.com/saffron-lang/saffron/lang/value"
)

// SleepOp is the yield-expression discriminant user code sends as
// `yield [SleepOp, seconds]` to ask the scheduler to put the current task
// to sleep (spec.md §4.7, original_source/src/libc/async.c's `SLEEP` case).
const SleepOp = 1

// schedulerPollInterval is how long the scheduler blocks in real time when
// every task is asleep and none is ready (spec.md §5: "a short real-time
// sleep (≈10ms)").
const schedulerPollInterval = 10 * time.Millisecond

// Scheduler implements Saffron's round-robin cooperative task queue
// (spec.md §4.7): a ready queue of frames, a round-robin cursor into it,
// and a parallel pair of sleeper arrays recording frames waiting for a
// deadline. It is not safe for concurrent use — Saffron has exactly one
// interpreter worker (spec.md §5).
type Scheduler struct {
	tasks   []*CallFrame
	current int

	sleepers     []*CallFrame
	sleeperTimes []float64

	start time.Time

	// pollInterval is how long WaitForReady blocks; internal/runtimeconfig's
	// SAFFRON_SCHEDULER_IDLE_TICK overrides schedulerPollInterval's default
	// through NewSchedulerWithPollInterval.
	pollInterval time.Duration
}

// NewScheduler returns a scheduler with its monotonic clock zeroed at the
// moment of the call, matching the `time` module's `clock()` builtin.
func NewScheduler() *Scheduler {
	return NewSchedulerWithPollInterval(schedulerPollInterval)
}

// NewSchedulerWithPollInterval is NewScheduler with WaitForReady's idle-tick
// duration overridden.
func NewSchedulerWithPollInterval(d time.Duration) *Scheduler {
	return &Scheduler{start: time.Now(), pollInterval: d}
}

// Now returns monotonic seconds since the scheduler was created.
func (s *Scheduler) Now() float64 {
	return time.Since(s.start).Seconds()
}

// Spawn enqueues frame as a new ready task (the `spawn` builtin).
func (s *Scheduler) Spawn(frame *CallFrame) {
	frame.State |= spawned
	s.tasks = append(s.tasks, frame)
}

// Root enqueues the single top-level task (the script's own frame) that
// drives the whole run.
func (s *Scheduler) Root(frame *CallFrame) {
	s.tasks = append(s.tasks, frame)
}

// Current returns the presently-scheduled frame, or nil if the ready queue
// is empty.
func (s *Scheduler) Current() *CallFrame {
	if len(s.tasks) == 0 {
		return nil
	}
	return s.tasks[s.current%len(s.tasks)]
}

// Len reports how many tasks are ready to run right now.
func (s *Scheduler) Len() int { return len(s.tasks) }

// Idle reports whether there is no ready task and no sleeper either —
// the scheduler, and so the whole program, is done.
func (s *Scheduler) Idle() bool {
	return len(s.tasks) == 0 && len(s.sleepers) == 0
}

// removeCurrentFromQueue drops the presently-scheduled task out of the
// ready queue (used both when it goes to sleep and when it finishes).
func (s *Scheduler) removeCurrentFromQueue() *CallFrame {
	if len(s.tasks) == 0 {
		return nil
	}
	idx := s.current % len(s.tasks)
	frame := s.tasks[idx]
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	if len(s.tasks) > 0 {
		s.current = s.current % len(s.tasks)
	} else {
		s.current = 0
	}
	return frame
}

// Finish removes frame (now FINISHED) from the ready queue entirely.
func (s *Scheduler) Finish() {
	s.removeCurrentFromQueue()
}

// Yield implements `handle_yield_value` (original_source/src/libc/async.c):
// interpret the value the current task yielded and either put it to sleep
// or round-robin advance to the next ready task.
func (s *Scheduler) Yield(yielded value.Value) error {
	if list, ok := yielded.(*List); ok && len(list.Items) > 0 {
		opNum, ok := list.Items[0].(value.Number)
		if !ok {
			return errf(nil, "yielded invalid type")
		}
		op := int(opNum)
		switch op {
		case SleepOp:
			if len(list.Items) < 2 {
				return errf(nil, "yielded invalid type")
			}
			seconds, ok := list.Items[1].(value.Number)
			if !ok {
				return errf(nil, "yielded invalid type")
			}
			frame := s.removeCurrentFromQueue()
			frame.Stored = value.Bool(true)
			s.sleepers = append(s.sleepers, frame)
			s.sleeperTimes = append(s.sleeperTimes, s.Now()+float64(seconds))
			return nil
		default:
			return errf(nil, "invalid yield op %d", op)
		}
	}
	s.advance()
	return nil
}

func (s *Scheduler) advance() {
	if len(s.tasks) == 0 {
		return
	}
	s.current = (s.current + 1) % len(s.tasks)
}

// Promote scans the sleeper arrays for any deadline that has passed and
// moves them back onto the ready queue, mirroring async.c's getTasks(). It
// reports how many tasks were promoted.
func (s *Scheduler) Promote() int {
	if len(s.sleepers) == 0 {
		return 0
	}
	now := s.Now()
	promoted := 0
	for i := 0; i < len(s.sleepers); i++ {
		if s.sleeperTimes[i] < now {
			frame := s.sleepers[i]
			s.sleepers = append(s.sleepers[:i], s.sleepers[i+1:]...)
			s.sleeperTimes = append(s.sleeperTimes[:i], s.sleeperTimes[i+1:]...)
			s.tasks = append(s.tasks, frame)
			promoted++
			i--
		}
	}
	return promoted
}

// WaitForReady blocks briefly when every task is asleep, so the VM's
// outer loop can poll Promote again instead of busy-spinning (spec.md §5).
func (s *Scheduler) WaitForReady() {
	time.Sleep(s.pollInterval)
}

// roots returns every frame (and its saved stack) the GC must treat
// as a root, for the scheduler portion of spec.md §4.6's root set.
func (s *Scheduler) roots() []*CallFrame {
	all := make([]*CallFrame, 0, len(s.tasks)+len(s.sleepers))
	all = append(all, s.tasks...)
	all = append(all, s.sleepers...)
	return all
}
