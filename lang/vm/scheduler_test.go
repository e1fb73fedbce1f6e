package vm

import (
	"testing"
	"time"

	"github.com/saffron-lang/saffron/lang/gc"
	"github.com/saffron-lang/saffron/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRoundRobinAdvance(t *testing.T) {
	s := NewScheduler()
	a, b, c := &CallFrame{}, &CallFrame{}, &CallFrame{}
	s.Root(a)
	s.Spawn(b)
	s.Spawn(c)

	assert.Same(t, a, s.Current())
	s.Yield(value.Nil{})
	assert.Same(t, b, s.Current(), "after one Yield")
	s.Yield(value.Nil{})
	assert.Same(t, c, s.Current(), "after two Yields")
	s.Yield(value.Nil{})
	assert.Same(t, a, s.Current(), "round-robin should wrap back to a")
}

func TestSchedulerFinishRemovesFromQueue(t *testing.T) {
	s := NewScheduler()
	a, b := &CallFrame{}, &CallFrame{}
	s.Root(a)
	s.Spawn(b)

	s.Finish() // finishes a, the current task
	assert.Same(t, b, s.Current())
	assert.Equal(t, 1, s.Len())
}

func TestSchedulerIdleOnlyWhenNoTasksAndNoSleepers(t *testing.T) {
	s := NewScheduler()
	assert.True(t, s.Idle(), "fresh scheduler should be idle")

	a := &CallFrame{}
	s.Root(a)
	assert.False(t, s.Idle(), "scheduler with a ready task should not be idle")
}

func TestSchedulerSleepThenPromoteAfterDeadline(t *testing.T) {
	s := NewScheduler()
	a, b := &CallFrame{}, &CallFrame{}
	s.Root(a)
	s.Spawn(b)

	sleepSeconds := 0.01
	list := NewList(gc.NewHeap())
	list.Items = []value.Value{value.Number(SleepOp), value.Number(sleepSeconds)}
	require.NoError(t, s.Yield(list))

	// a should now be asleep, not in the ready queue, and Stored=true for
	// its resumption.
	assert.Same(t, b, s.Current(), "after sleeping a")
	assert.Equal(t, value.Bool(true), a.Stored, "sleeping frame's Stored")
	assert.Equal(t, 0, s.Promote(), "Promote should not wake a before its deadline")

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, s.Promote(), "Promote() after the deadline")
	assert.Equal(t, 2, s.Len(), "Len() after promotion")
}

func TestSchedulerRootsIncludesTasksAndSleepers(t *testing.T) {
	s := NewScheduler()
	a, b := &CallFrame{}, &CallFrame{}
	s.Root(a)
	s.Spawn(b)

	list := NewList(gc.NewHeap())
	list.Items = []value.Value{value.Number(SleepOp), value.Number(0.01)}
	s.Yield(list) // a sleeps, b becomes current

	roots := s.roots()
	assert.Len(t, roots, 2)
}
