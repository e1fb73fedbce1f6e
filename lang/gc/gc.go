// Package gc implements the tracing mark-and-sweep collector described by
// the Saffron specification: a single heap of linked objects, traced from an
// explicit root set via a gray-stack worklist, swept when no longer
// reachable. Runtime values (lang/vm) and AST/type nodes (lang/ast,
// lang/types) are both heap objects, so that one collector can own the
// entire graph the language builds while it runs — the same design the
// reference C implementation uses, expressed here as an arena of Objects
// rather than raw pointers (see DESIGN.md "Cyclic references").
package gc

// Header is embedded by every heap-managed type. It carries the tracing mark
// bit and the intrusive "next object" link the sweep phase walks; nothing
// outside this package should read or write it directly.
type Header struct {
	marked bool
	next   Object
}

// GCHeader returns the header itself so embedding types automatically
// satisfy Object without writing the method by hand.
func (h *Header) GCHeader() *Header { return h }

// Object is implemented by every value the heap can allocate and collect:
// strings, atoms, closures, classes, instances, lists, maps, call frames,
// modules, and (for fidelity with the reference implementation) the AST and
// type-checker nodes produced before the VM ever runs.
type Object interface {
	// GCHeader returns the object's embedded Header.
	GCHeader() *Header
	// Kind names the object's dynamic kind, for diagnostics and for the
	// kind-specific destructor dispatch during sweep.
	Kind() string
	// Trace calls mark on every Object directly reachable from this one. It
	// must not recurse into children itself — that's the collector's job via
	// the gray stack — it only needs to enqueue direct children.
	Trace(mark func(Object))
}

// Destroyer is implemented by object kinds that own non-GC resources (for
// example an open upvalue's backing cell, or a native handle) that must be
// released when the object is swept. Most kinds need no destructor.
type Destroyer interface {
	Destroy()
}

const initialNextGC = 64 * 1024 // 64KiB, per spec.md §4.6

// Heap is a single mark-sweep arena. It is not safe for concurrent use by
// multiple goroutines; Saffron's cooperative scheduler only ever has one
// task executing at a time (spec.md §5), so a single heap naturally matches
// a single Interpreter.
type Heap struct {
	all   Object // head of the intrusive linked list of every live object
	count int64  // number of live objects, for diagnostics

	bytesAllocated int64
	nextGC         int64

	gray []Object // gray-stack worklist used during mark

	// strings interns String objects (and, separately, Atom objects) so that
	// identical literal content always yields the identical Object: the
	// "a.bytes == b.bytes ⇔ a is b" invariant from spec.md §8. Interning is
	// weak: removeWhiteStrings runs between mark and sweep so a string with
	// no other reference is not kept alive merely by appearing in this table.
	strings map[string]Object
	atoms   map[string]Object

	// stats
	collections int
}

// NewHeap returns an empty heap ready to allocate.
func NewHeap() *Heap {
	return NewHeapWithThreshold(initialNextGC)
}

// NewHeapWithThreshold is NewHeap with the first collection's trigger
// threshold overridden, for internal/runtimeconfig's
// SAFFRON_INITIAL_HEAP_BYTES knob; every collection after the first still
// follows spec.md §4.6's max(64KiB, 2×bytesAllocated) rule regardless of
// what this starts at.
func NewHeapWithThreshold(nextGC int64) *Heap {
	return &Heap{
		nextGC:  nextGC,
		strings: make(map[string]Object),
		atoms:   make(map[string]Object),
	}
}

// Alloc links a newly constructed object into the heap and accounts for its
// approximate size. size is a caller-estimated byte cost (a struct's
// unsafe.Sizeof plus any owned slice capacity) used only to decide when to
// collect; it need not be exact.
func (h *Heap) Alloc(o Object, size int64) {
	hdr := o.GCHeader()
	hdr.next = h.all
	h.all = o
	h.count++
	h.bytesAllocated += size
}

// ShouldCollect reports whether the allocator has crossed the threshold set
// by the previous collection (or the initial 64KiB threshold).
func (h *Heap) ShouldCollect() bool {
	return h.bytesAllocated > h.nextGC
}

// Intern returns the canonical Object for a string's literal content,
// registering newObj as canonical if this is the first time content has been
// seen. table selects between the string table and the atom table (atoms
// and strings are interned separately per spec.md §3).
func (h *Heap) Intern(table *map[string]Object, content string, newObj func() Object) Object {
	if existing, ok := (*table)[content]; ok {
		return existing
	}
	obj := newObj()
	(*table)[content] = obj
	return obj
}

// StringTable returns the weak interning table for String objects.
func (h *Heap) StringTable() *map[string]Object { return &h.strings }

// AtomTable returns the weak interning table for Atom objects.
func (h *Heap) AtomTable() *map[string]Object { return &h.atoms }

// Collect runs one full mark-and-sweep cycle. roots lists every root Object
// currently reachable from outside the heap (VM stack, call frames, open
// upvalues, the module/built-in/interned tables, the active
// compiler/parser/checker state, and the scheduler's sleeper arrays — see
// spec.md §4.6). An interned string/atom survives only if marking reached
// it; entries left unmarked are removed from the tables before sweep frees
// the underlying object
// (spec.md §4.6 "remove-white-strings runs between mark and sweep").
func (h *Heap) Collect(roots []Object) {
	h.collections++

	// --- mark ---
	for _, r := range roots {
		h.mark(r)
	}
	for len(h.gray) > 0 {
		n := len(h.gray) - 1
		obj := h.gray[n]
		h.gray = h.gray[:n]
		obj.Trace(h.mark)
	}

	// --- remove white strings/atoms (weak interning) ---
	h.sweepTable(h.strings)
	h.sweepTable(h.atoms)

	// --- sweep ---
	var freed int64
	var prev Object
	cur := h.all
	for cur != nil {
		hdr := cur.GCHeader()
		next := hdr.next
		if hdr.marked {
			hdr.marked = false // every survivor resets to white, per spec.md §8
			prev = cur
		} else {
			if d, ok := cur.(Destroyer); ok {
				d.Destroy()
			}
			if prev == nil {
				h.all = next
			} else {
				prev.GCHeader().next = next
			}
			h.count--
			freed++
		}
		cur = next
	}

	if h.bytesAllocated > 0 {
		h.bytesAllocated -= freed // approximate; exactness is not load-bearing
		if h.bytesAllocated < 0 {
			h.bytesAllocated = 0
		}
	}
	if next := 2 * h.bytesAllocated; next > initialNextGC {
		h.nextGC = next
	} else {
		h.nextGC = initialNextGC
	}
}

func (h *Heap) mark(obj Object) {
	if obj == nil {
		return
	}
	hdr := obj.GCHeader()
	if hdr.marked {
		return
	}
	hdr.marked = true
	h.gray = append(h.gray, obj)
}

func (h *Heap) sweepTable(t map[string]Object) {
	for k, v := range t {
		if !v.GCHeader().marked {
			delete(t, k)
		}
	}
}

// Stats is a snapshot of heap bookkeeping, useful for tests and diagnostics.
type Stats struct {
	LiveObjects    int64
	BytesAllocated int64
	NextGC         int64
	Collections    int
}

// Stats returns a snapshot of the heap's current bookkeeping counters.
func (h *Heap) Stats() Stats {
	return Stats{
		LiveObjects:    h.count,
		BytesAllocated: h.bytesAllocated,
		NextGC:         h.nextGC,
		Collections:    h.collections,
	}
}
