package gc

// Persistent is a refcounted handle kind: incrementing on creation, and
// decrementing on Drop, it keeps its target alive across GC cycles without
// needing to be re-rooted by a LocalScope. Grounded on the same
// dash_vm/src/gc2 module as Heap, which tracks refcount inline on the node
// and lets Sweep skip any node with a nonzero count regardless of mark.
type Persistent struct {
	h Handle
}

// NewPersistent promotes h to a persistent (refcounted) handle.
func NewPersistent(h Handle) Persistent {
	if h.n != nil {
		h.n.refcount++
	}
	return Persistent{h: h}
}

// Handle returns the underlying traced handle, e.g. to pass to Object
// protocol methods.
func (p Persistent) Handle() Handle { return p.h }

// Clone increments the refcount again, producing an independent owner.
func (p Persistent) Clone() Persistent {
	if p.h.n != nil {
		p.h.n.refcount++
	}
	return p
}

// Drop decrements the refcount. Once every owner has dropped its handle,
// the node becomes eligible for collection on the next sweep in which it
// is unmarked.
func (p Persistent) Drop() {
	if p.h.n != nil {
		p.h.n.refcount--
	}
}
