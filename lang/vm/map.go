package vm

import (
	"fmt"
	"strings"

	"github.com/saffron-lang/saffron/lang/gc"
	"github.com/saffron-lang/saffron/lang/value"
)

const mapMaxLoad = 0.75

// mapEntry is one slot of a Map's backing array. An empty slot has a Nil
// key; a tombstone (a deleted slot that must still terminate neither a
// probe sequence nor get treated as empty for counting purposes) is a Nil
// key paired with a non-Nil value, exactly as original_source/src/libc/map.c
// encodes it.
type mapEntry struct {
	key   value.Value
	val   value.Value
	hash  uint32
	dist  uint32 // probe distance from the ideal slot, for Robin Hood insertion
}

func emptyEntry() mapEntry { return mapEntry{key: value.Nil{}, val: value.Nil{}} }

func isEmptyKey(v value.Value) bool {
	_, ok := v.(value.Nil)
	return ok
}

// Map is Saffron's open-addressing hash map: power-of-two capacity,
// Robin-Hood-style probing (an entry with a shorter probe distance than the
// one currently occupying a slot is displaced so no key ever waits much
// longer than its neighbors), tombstones reclaimed wholesale on rehash
// (spec.md §3, grounded on original_source/src/libc/map.c's findEntry/
// mapSet/mapGet/mapDelete, extended with the Robin-Hood swap the spec calls
// for that the reference's plain linear probing does not implement).
type Map struct {
	gc.Header
	entries []mapEntry
	count   int // live entries, excluding tombstones
}

func (*Map) Kind() string { return "map" }
func (*Map) Type() string { return "Map" }
func (m *Map) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for _, e := range m.entries {
		if isEmptyKey(e.key) {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(e.key.String())
		b.WriteString(": ")
		b.WriteString(e.val.String())
	}
	b.WriteByte('}')
	return b.String()
}
func (m *Map) Trace(mark func(gc.Object)) {
	for _, e := range m.entries {
		if isEmptyKey(e.key) {
			continue
		}
		if obj, ok := e.key.(gc.Object); ok {
			mark(obj)
		}
		if obj, ok := e.val.(gc.Object); ok {
			mark(obj)
		}
	}
}

// NewMap allocates an empty map.
func NewMap(h *gc.Heap) *Map {
	m := &Map{}
	h.Alloc(m, 24)
	return m
}

// hashValue computes a key's hash: strings/atoms reuse their cached FNV-1a
// Hash field, numbers hash their value converted to an integer (so 1 and 1.5
// share a hash), bools hash to 1 or 0, and every other heap object hashes
// by identity — the
// same switch original_source/src/libc/map.c's static hash() performs.
func hashValue(v value.Value) uint32 {
	switch k := v.(type) {
	case value.Number:
		return uint32(k) ^ uint32(uint64(k)>>32)
	case value.Bool:
		if k {
			return 1
		}
		return 0
	case value.Nil:
		return 0
	case *value.String:
		return k.Hash
	case *value.Atom:
		return k.Hash
	default:
		return identityHash(v)
	}
}

// identityHash hashes a heap object's address, for kinds (closures,
// classes, instances, lists, ...) that have no content-based identity —
// original_source/src/libc/map.c's hash() casts the Obj pointer straight to
// an int for this same fallback.
func identityHash(v value.Value) uint32 {
	addr := fmt.Sprintf("%p", v)
	var h uint32 = 2166136261
	for i := 0; i < len(addr); i++ {
		h ^= uint32(addr[i])
		h *= 16777619
	}
	return h
}

func (m *Map) grow(capacity int) {
	old := m.entries
	m.entries = make([]mapEntry, capacity)
	for i := range m.entries {
		m.entries[i] = emptyEntry()
	}
	m.count = 0
	for _, e := range old {
		if isEmptyKey(e.key) {
			continue
		}
		m.insert(e.key, e.val, e.hash)
	}
}

// insert performs the Robin-Hood probe: walk forward from the key's ideal
// slot, and whenever the slot currently occupied has traveled a shorter
// distance than the entry being placed, swap them and keep carrying the
// displaced entry onward. Tombstones (empty key, non-Nil value) are treated
// as available and immediately claimed.
func (m *Map) insert(key, val value.Value, hash uint32) bool {
	mask := uint32(len(m.entries) - 1)
	index := hash & mask
	incoming := mapEntry{key: key, val: val, hash: hash, dist: 0}

	for {
		slot := &m.entries[index]
		if isEmptyKey(slot.key) {
			// Both a never-used slot and a tombstone (a previously deleted
			// entry) mean key isn't currently live, so either way this claims
			// a new live entry and count must grow to match.
			*slot = incoming
			m.count++
			return true
		}
		if slot.hash == incoming.hash && value.Equal(slot.key, incoming.key) {
			slot.val = incoming.val
			return false
		}
		if slot.dist < incoming.dist {
			incoming, *slot = *slot, incoming
		}
		incoming.dist++
		index = (index + 1) & mask
	}
}

func isTombstone(e mapEntry) bool {
	if !isEmptyKey(e.key) {
		return false
	}
	_, nilVal := e.val.(value.Nil)
	return !nilVal
}

// Set stores value under key, growing the backing array first if the load
// factor would exceed mapMaxLoad (spec.md: "load factor never exceeds
// 0.75"). It reports whether key was newly inserted.
func (m *Map) Set(key, val value.Value) bool {
	if len(m.entries) == 0 || float64(m.count+1) > float64(len(m.entries))*mapMaxLoad {
		capacity := 8
		if len(m.entries) > 0 {
			capacity = len(m.entries) * 2
		}
		m.grow(capacity)
	}
	return m.insert(key, val, hashValue(key))
}

// Get looks up key, returning (value, true) if present.
func (m *Map) Get(key value.Value) (value.Value, bool) {
	if m.count == 0 {
		return value.Nil{}, false
	}
	hash := hashValue(key)
	mask := uint32(len(m.entries) - 1)
	index := hash & mask
	dist := uint32(0)
	for {
		slot := &m.entries[index]
		if isEmptyKey(slot.key) && !isTombstone(*slot) {
			return value.Nil{}, false
		}
		if !isTombstone(*slot) && slot.hash == hash && value.Equal(slot.key, key) {
			return slot.val, true
		}
		// Robin Hood invariant: once the probed slot's distance is less than
		// ours would be, key cannot be present further along.
		if !isTombstone(*slot) && slot.dist < dist {
			return value.Nil{}, false
		}
		dist++
		index = (index + 1) & mask
	}
}

// Delete removes key, leaving a tombstone so later probes still find keys
// that were displaced past it. Reports whether key was present.
func (m *Map) Delete(key value.Value) bool {
	if m.count == 0 {
		return false
	}
	hash := hashValue(key)
	mask := uint32(len(m.entries) - 1)
	index := hash & mask
	for {
		slot := &m.entries[index]
		if isEmptyKey(slot.key) && !isTombstone(*slot) {
			return false
		}
		if !isTombstone(*slot) && slot.hash == hash && value.Equal(slot.key, key) {
			slot.key = value.Nil{}
			slot.val = value.Bool(true) // tombstone marker, per spec.md §3
			m.count--
			return true
		}
		index = (index + 1) & mask
	}
}

// Len reports the number of live (non-tombstone) entries.
func (m *Map) Len() int { return m.count }

// Keys returns every live key, in backing-array order.
func (m *Map) Keys() []value.Value {
	keys := make([]value.Value, 0, m.count)
	for _, e := range m.entries {
		if !isEmptyKey(e.key) {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Values returns every live value, in backing-array order (matching Keys).
func (m *Map) Values() []value.Value {
	vals := make([]value.Value, 0, m.count)
	for _, e := range m.entries {
		if !isEmptyKey(e.key) {
			vals = append(vals, e.val)
		}
	}
	return vals
}
