// Package gc implements the engine's heap: an intrusive singly-linked list
// of nodes with mark-sweep semantics, persistent (refcounted) handles, and
// the LocalScope rooting mechanism used to pin intermediate values during
// native calls. Grounded on the original engine's own collector,
// _examples/original_source/crates/dash_vm/src/gc2/mod.rs, translated from
// Rust's unsafe NonNull list into ordinary Go pointers plus a Traceable
// interface — the list/mark/sweep algorithm is unchanged.
package gc

// Traceable is implemented by every heap-managed payload. Trace must visit
// every Handle the payload holds, exactly once, by calling v.Mark on each.
type Traceable interface {
	Trace(v *Visitor)
}

// node is one entry in the intrusive heap list.
type node struct {
	marked   bool
	refcount int32
	next     *node
	value    Traceable
}

// Handle is a handle into the GC heap. The zero Handle is the nil handle
// (analogous to a null pointer); IsNil reports whether it refers to a node.
type Handle struct {
	n *node
}

// Value returns the payload this handle refers to.
func (h Handle) Value() Traceable {
	if h.n == nil {
		return nil
	}
	return h.n.value
}

func (h Handle) IsNil() bool { return h.n == nil }

func (h Handle) Equal(o Handle) bool { return h.n == o.n }

// Visitor is passed to Traceable.Trace; it marks the handles reachable from
// the traced object and recurses into their own children.
type Visitor struct {
	heap *Heap
}

// Mark marks h (and, recursively, everything reachable from it) as live
// for the current collection. Safe to call on an already-marked handle or
// the nil handle.
func (v *Visitor) Mark(h Handle) {
	v.heap.markOne(h)
}

// NewVisitor returns a Visitor bound to h. Lets external Traceable holders
// that aren't themselves heap payloads (the vm package's call frames) mark
// their roots into a collection pass already under way.
func (h *Heap) NewVisitor() *Visitor { return &Visitor{heap: h} }

// Heap owns the intrusive node list.
type Heap struct {
	head, tail *node
	nodeCount  int

	// threshold is the node count above which the VM should trigger a
	// collection (spec.md 4.2.3); every sweep resets it to twice the
	// surviving node count, never below DefaultThreshold.
	threshold int
}

const DefaultThreshold = 8192

func NewHeap() *Heap {
	return &Heap{threshold: DefaultThreshold}
}

// Register allocates v onto the heap and returns a handle to it.
func (h *Heap) Register(v Traceable) Handle {
	n := &node{value: v}
	if h.head == nil {
		h.head = n
	}
	if h.tail != nil {
		h.tail.next = n
	}
	h.tail = n
	h.nodeCount++
	return Handle{n: n}
}

func (h *Heap) NodeCount() int { return h.nodeCount }

func (h *Heap) Threshold() int { return h.threshold }

func (h *Heap) SetThreshold(n int) { h.threshold = n }

// ShouldCollect reports whether the node count has crossed the threshold,
// per spec.md 4.2.3 ("Before each instruction, if gc.node_count >
// gc_threshold, run a full mark-and-sweep").
func (h *Heap) ShouldCollect() bool { return h.nodeCount > h.threshold }

func (h *Heap) markOne(handle Handle) {
	if handle.n == nil || handle.n.marked {
		return
	}
	handle.n.marked = true
	if handle.n.value != nil {
		handle.n.value.Trace(&Visitor{heap: h})
	}
}

// Mark runs the mark phase over the given root handles. Callers are
// responsible for supplying every root per spec.md's invariant: the frame
// stack, the value stack, the async task queue, the global object, the
// statics table, the externals list, and every live LocalScope. Persistent
// handles are roots too, but the heap finds those itself (MarkPinned) —
// the refcount already lives on the node.
func (h *Heap) Mark(roots []Handle) {
	h.MarkPinned()
	for _, r := range roots {
		h.markOne(r)
	}
}

// MarkPinned marks every refcounted node and its children. A nonzero
// refcount keeps the node itself from being swept, but without this pass
// the pinned object's own children would be collected out from under it.
func (h *Heap) MarkPinned() {
	for cur := h.head; cur != nil; cur = cur.next {
		if cur.refcount > 0 {
			h.markOne(Handle{n: cur})
		}
	}
}

// Sweep walks the list once: unmarked, unrefcounted nodes are unlinked and
// dropped; surviving nodes have their mark bit cleared. The threshold is
// then set to twice the surviving node count (floored at DefaultThreshold)
// to amortize GC cost, per spec.md's GC invariants.
func (h *Heap) Sweep() {
	var prev *node
	cur := h.head

	for cur != nil {
		next := cur.next

		if !cur.marked && cur.refcount == 0 {
			if h.head == cur {
				h.head = next
			}
			if h.tail == cur {
				h.tail = prev
			}
			if prev != nil {
				prev.next = next
			}
			cur.value = nil
			h.nodeCount--
		} else {
			cur.marked = false
			prev = cur
		}

		cur = next
	}

	h.threshold = h.nodeCount * 2
	if h.threshold < DefaultThreshold {
		h.threshold = DefaultThreshold
	}
}

// Collect runs a full mark-sweep cycle given the current root set.
func (h *Heap) Collect(roots []Handle) {
	h.Mark(roots)
	h.Sweep()
}
