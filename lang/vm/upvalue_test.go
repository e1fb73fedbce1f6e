package vm

import (
	"testing"

	"github.com/saffron-lang/saffron/lang/gc"
	"github.com/saffron-lang/saffron/lang/value"
	"github.com/stretchr/testify/assert"
)

// TestUpvalueOpenReadsThroughToStackSlot exercises spec.md §8's upvalue
// invariant directly: while open, an upvalue's reads/writes go through to
// the stack slot it shadows.
func TestUpvalueOpenReadsThroughToStackSlot(t *testing.T) {
	h := gc.NewHeap()
	i := NewInterpreter(h)
	i.Stack[5] = value.Number(1)

	uv := i.captureUpvalue(5)
	assert.Equal(t, value.Number(1), uv.Get())

	i.Stack[5] = value.Number(2)
	assert.Equal(t, value.Number(2), uv.Get(), "should read through to the external write")

	uv.Set(value.Number(3))
	assert.Equal(t, value.Number(3), i.Stack[5], "Set() should write through to the stack slot")
}

// TestCloseUpvalueSeversFromStack exercises the after-CLOSE_UPVALUE half of
// the same invariant: once closed, reads/writes go to the upvalue's own
// Closed field and no longer see the stack slot at all.
func TestCloseUpvalueSeversFromStack(t *testing.T) {
	h := gc.NewHeap()
	i := NewInterpreter(h)
	i.Stack[5] = value.Number(42)

	uv := i.captureUpvalue(5)
	i.closeUpvalues(5)

	i.Stack[5] = value.Number(99) // simulate the slot being reused by something else
	assert.Equal(t, value.Number(42), uv.Get(), "closed upvalue should keep its snapshot")

	uv.Set(value.Number(7))
	assert.Equal(t, value.Number(99), i.Stack[5], "Set() on a closed upvalue must not leak through to the stack")
	assert.Equal(t, value.Number(7), uv.Get())
}

// TestCaptureUpvalueReturnsSameInstanceForSameSlot mirrors vm.c's
// captureUpvalue: capturing the same slot twice before it closes must
// return the identical Upvalue, not a second independent one, or two
// closures over the same local would diverge.
func TestCaptureUpvalueReturnsSameInstanceForSameSlot(t *testing.T) {
	h := gc.NewHeap()
	i := NewInterpreter(h)

	a := i.captureUpvalue(3)
	b := i.captureUpvalue(3)
	assert.Same(t, a, b, "capturing the same slot twice should return the same upvalue")
}

// TestCloseUpvaluesOnlyAffectsSlotsAtOrAboveThreshold confirms
// closeUpvalues(lastSlot) leaves upvalues below lastSlot open, matching
// vm.c's closeUpvalues threshold semantics (used when a block scope, not
// the whole frame, exits).
func TestCloseUpvaluesOnlyAffectsSlotsAtOrAboveThreshold(t *testing.T) {
	h := gc.NewHeap()
	i := NewInterpreter(h)
	i.Stack[2] = value.Number(10)
	i.Stack[5] = value.Number(20)

	low := i.captureUpvalue(2)
	high := i.captureUpvalue(5)

	i.closeUpvalues(5)

	assert.True(t, low.open, "closeUpvalues(5) should not close an upvalue below the threshold")
	assert.False(t, high.open, "closeUpvalues(5) should close the at-threshold upvalue")
}
