package value_test

import (
	"testing"

	"github.com/saffron-lang/saffron/lang/gc"
	"github.com/saffron-lang/saffron/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthyNilAndFalseAreFalsy(t *testing.T) {
	assert.False(t, value.Truthy(value.Nil{}))
	assert.False(t, value.Truthy(value.Bool(false)))
	assert.False(t, value.Truthy(nil))
}

func TestTruthyEverythingElseIsTruthy(t *testing.T) {
	assert.True(t, value.Truthy(value.Bool(true)))
	assert.True(t, value.Truthy(value.Number(0)))
	assert.True(t, value.Truthy(value.Number(-1)))
}

func TestEqualNumbersCompareBitExact(t *testing.T) {
	assert.True(t, value.Equal(value.Number(1), value.Number(1)))
	assert.False(t, value.Equal(value.Number(1), value.Number(2)))
	assert.False(t, value.Equal(value.Number(1), value.Bool(true)))
}

func TestEqualNilOnlyEqualsNil(t *testing.T) {
	assert.True(t, value.Equal(value.Nil{}, value.Nil{}))
	assert.False(t, value.Equal(value.Nil{}, value.Bool(false)))
}

func TestEqualInternedStringsCompareByContent(t *testing.T) {
	h := gc.NewHeap()
	a := value.InternString(h, "hi")
	b := value.InternString(h, "hi")
	assert.True(t, value.Equal(a, b))
}

func TestEqualInternedAtomsCompareByContent(t *testing.T) {
	h := gc.NewHeap()
	a := value.InternAtom(h, "ok")
	b := value.InternAtom(h, "ok")
	assert.True(t, value.Equal(a, b))
	assert.False(t, value.Equal(a, value.InternAtom(h, "err")))
}

func TestInternStringReturnsSameObjectForSameContent(t *testing.T) {
	h := gc.NewHeap()
	a := value.InternString(h, "shared")
	b := value.InternString(h, "shared")
	assert.Same(t, a, b, "interning must hash-cons identical strings")
}

func TestInternAtomReturnsSameObjectForSameContent(t *testing.T) {
	h := gc.NewHeap()
	a := value.InternAtom(h, "shared")
	b := value.InternAtom(h, "shared")
	assert.Same(t, a, b, "interning must hash-cons identical atoms")
}

func TestNumberStringDropsTrailingZero(t *testing.T) {
	require.Equal(t, "3", value.Number(3).String())
	require.Equal(t, "3.5", value.Number(3.5).String())
}

func TestAtomStringHasLeadingColon(t *testing.T) {
	h := gc.NewHeap()
	a := value.InternAtom(h, "ok")
	assert.Equal(t, ":ok", a.String())
}

func TestBoolAndNilTypeNames(t *testing.T) {
	assert.Equal(t, "Bool", value.Bool(true).Type())
	assert.Equal(t, "Nil", value.Nil{}.Type())
	assert.Equal(t, "Number", value.Number(1).Type())
}
