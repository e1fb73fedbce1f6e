package vm

import (
	"testing"

	"github.com/saffron-lang/saffron/lang/gc"
	"github.com/saffron-lang/saffron/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSetGetDelete(t *testing.T) {
	h := gc.NewHeap()
	m := NewMap(h)

	k := value.InternString(h, "a")
	m.Set(k, value.Number(1))
	v, ok := m.Get(k)
	require.True(t, ok)
	assert.Equal(t, value.Number(1), v)

	assert.True(t, m.Delete(k), "Delete reported key absent")
	_, ok = m.Get(k)
	assert.False(t, ok, "key still found after Delete")
}

// Reinserting a deleted key must land the last-inserted value, and Len must
// reflect it as one live entry again, not double-count or under-count the
// tombstone slot it reused (spec.md §8: "inserted then deleted then
// re-inserted").
func TestMapReinsertAfterDeleteUsesLastValue(t *testing.T) {
	h := gc.NewHeap()
	m := NewMap(h)
	k := value.InternString(h, "a")

	m.Set(k, value.Number(1))
	m.Delete(k)
	m.Set(k, value.Number(2))

	v, ok := m.Get(k)
	require.True(t, ok)
	assert.Equal(t, value.Number(2), v)
	assert.Equal(t, 1, m.Len())
}

func TestMapGrowthPreservesAllEntries(t *testing.T) {
	h := gc.NewHeap()
	m := NewMap(h)

	const n = 200
	for i := 0; i < n; i++ {
		m.Set(value.Number(i), value.Number(i*i))
	}
	require.Equal(t, n, m.Len())
	for i := 0; i < n; i++ {
		v, ok := m.Get(value.Number(i))
		require.True(t, ok, "key %d missing after growth", i)
		assert.Equal(t, value.Number(i*i), v)
	}
}

func TestMapKeysValuesSkipTombstones(t *testing.T) {
	h := gc.NewHeap()
	m := NewMap(h)

	a, b, c := value.InternString(h, "a"), value.InternString(h, "b"), value.InternString(h, "c")
	m.Set(a, value.Number(1))
	m.Set(b, value.Number(2))
	m.Set(c, value.Number(3))
	m.Delete(b)

	keys := m.Keys()
	require.Len(t, keys, 2)
	for _, k := range keys {
		assert.False(t, value.Equal(k, b), "deleted key still present in Keys()")
	}
}

func TestInternedStringIdentity(t *testing.T) {
	h := gc.NewHeap()
	a := value.InternString(h, "hello")
	b := value.InternString(h, "hello")
	assert.Same(t, a, b, "two interns of the same bytes produced distinct pointers")

	c := value.InternString(h, "world")
	assert.NotSame(t, a, c)
}
