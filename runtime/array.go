package runtime

import (
	"strconv"

	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/values"
)

// Array backs every JS array value. Elements are held in a dense Go
// slice; sparse holes are not modeled (spec.md's Non-goals exclude sparse
// array optimization), so a hole reads back as undefined exactly like a
// missing property on a dense array would.
//
// Grounded on the teacher's runtime/array.go
// (_examples/wudi-hey/runtime/array.go) for keeping a single builtin file
// per value kind, and on
// _examples/original_source/crates/dash_vm/src/value/array.rs for the
// length-is-a-property, index-keys-fall-through-to-elements semantics.
type Array struct {
	*values.NamedObject
	Elements []values.Value
}

func NewArray(prototype values.ObjectHandle, elements []values.Value) *Array {
	return &Array{
		NamedObject: values.NewNamedObject(prototype, values.ObjectHandle{}),
		Elements:    elements,
	}
}

func (a *Array) Trace(v *gc.Visitor) {
	a.NamedObject.Trace(v)
	for _, el := range a.Elements {
		if h, ok := el.Data.(values.ObjectHandle); ok {
			v.Mark(h.Raw())
		}
	}
}

func (a *Array) AsAny() any { return a }

// arrayIndex returns the element index a property key denotes, or
// (0, false) for "length", symbol keys, and non-numeric keys.
func arrayIndex(key values.PropertyKey) (int, bool) {
	if key.IsSymbol() {
		return 0, false
	}
	n, err := strconv.Atoi(key.String())
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (a *Array) GetProperty(sc values.Scope, key values.PropertyKey) (values.Value, error) {
	if !key.IsSymbol() && key.String() == "length" {
		return values.Number(float64(len(a.Elements))), nil
	}
	if idx, ok := arrayIndex(key); ok {
		if idx < len(a.Elements) {
			return a.Elements[idx], nil
		}
		return values.Undefined(), nil
	}
	return a.NamedObject.GetProperty(sc, key)
}

func (a *Array) SetProperty(sc values.Scope, key values.PropertyKey, value values.PropertyValue) error {
	if !key.IsSymbol() && key.String() == "length" {
		v, ok := value.AsStatic()
		if !ok {
			return sc.NewError("TypeError", "length cannot be an accessor")
		}
		n, err := values.ToUint32(sc, v)
		if err != nil {
			return err
		}
		a.setLength(int(n))
		return nil
	}
	if idx, ok := arrayIndex(key); ok {
		v, isStatic := value.AsStatic()
		if !isStatic {
			return sc.NewError("TypeError", "array indices cannot be accessors")
		}
		a.ensureCapacity(idx + 1)
		a.Elements[idx] = v
		return nil
	}
	return a.NamedObject.SetProperty(sc, key, value)
}

func (a *Array) DeleteProperty(sc values.Scope, key values.PropertyKey) (values.Value, error) {
	if idx, ok := arrayIndex(key); ok && idx < len(a.Elements) {
		old := a.Elements[idx]
		a.Elements[idx] = values.Undefined()
		return old, nil
	}
	return a.NamedObject.DeleteProperty(sc, key)
}

func (a *Array) OwnKeys() ([]values.Value, error) {
	keys := make([]values.Value, 0, len(a.Elements)+1)
	for i := range a.Elements {
		keys = append(keys, values.String(strconv.Itoa(i)))
	}
	own, err := a.NamedObject.OwnKeys()
	if err != nil {
		return nil, err
	}
	keys = append(keys, own...)
	return keys, nil
}

func (a *Array) ensureCapacity(n int) {
	if n <= len(a.Elements) {
		return
	}
	grown := make([]values.Value, n)
	copy(grown, a.Elements)
	for i := len(a.Elements); i < n; i++ {
		grown[i] = values.Undefined()
	}
	a.Elements = grown
}

func (a *Array) setLength(n int) {
	if n <= len(a.Elements) {
		a.Elements = a.Elements[:n]
		return
	}
	a.ensureCapacity(n)
}

func (a *Array) Push(v values.Value) int {
	a.Elements = append(a.Elements, v)
	return len(a.Elements)
}

func (a *Array) Pop() (values.Value, bool) {
	if len(a.Elements) == 0 {
		return values.Undefined(), false
	}
	last := a.Elements[len(a.Elements)-1]
	a.Elements = a.Elements[:len(a.Elements)-1]
	return last, true
}

// ArrayIterator walks an Array's elements in index order, as produced by
// Array.prototype[Symbol.iterator] / for-of (spec.md section 4.4).
type ArrayIterator struct {
	*values.NamedObject
	target *Array
	index  int
}

func NewArrayIterator(prototype values.ObjectHandle, target *Array) *ArrayIterator {
	return &ArrayIterator{
		NamedObject: values.NewNamedObject(prototype, values.ObjectHandle{}),
		target:      target,
	}
}

func (it *ArrayIterator) AsAny() any { return it }

// Next returns the next element and whether iteration is done, matching
// the {value, done} iterator result shape without allocating an object
// for the common in-VM consumption path (for-of); the stdlib-facing
// Object wrapper is built by the opcode that surfaces it to script code.
func (it *ArrayIterator) Next() (values.Value, bool) {
	if it.index >= len(it.target.Elements) {
		return values.Undefined(), true
	}
	v := it.target.Elements[it.index]
	it.index++
	return v, false
}
