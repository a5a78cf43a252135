package values

import "github.com/vela-lang/vela/gc"

// NamedObject is the default Object implementation backing plain objects,
// and the embedded base of every other built-in (arrays, functions,
// promises, boxed primitives). Grounded on
// _examples/original_source/crates/dash_vm/src/value/object.rs's
// NamedObject: a property map plus a prototype and constructor handle.
//
// The engine is single-threaded and cooperative (spec.md section 5), so
// unlike the teacher's PHP values (which guard shared maps with sync.Map
// for goroutine safety) this holds its property map in a plain Go map with
// no locking.
type NamedObject struct {
	prototype   ObjectHandle
	constructor ObjectHandle
	props       map[PropertyKey]PropertyValue
}

func NewNamedObject(prototype, constructor ObjectHandle) *NamedObject {
	return &NamedObject{
		prototype:   prototype,
		constructor: constructor,
		props:       make(map[PropertyKey]PropertyValue),
	}
}

// NullObject creates an object with no prototype (the root of every
// prototype chain, e.g. Object.prototype itself).
func NullObject() *NamedObject {
	return &NamedObject{props: make(map[PropertyKey]PropertyValue)}
}

func (n *NamedObject) Trace(v *gc.Visitor) {
	for _, pv := range n.props {
		pv.trace(v)
	}
	v.Mark(n.prototype.Raw())
	v.Mark(n.constructor.Raw())
}

func (n *NamedObject) RawGet(key PropertyKey) (PropertyValue, bool) {
	pv, ok := n.props[key]
	return pv, ok
}

func (n *NamedObject) GetProperty(sc Scope, key PropertyKey) (Value, error) {
	if !key.IsSymbol() {
		switch key.String() {
		case "__proto__":
			return n.GetPrototype(sc)
		case "constructor":
			if n.constructor.IsNil() {
				return Undefined(), nil
			}
			return FromObject(n.constructor), nil
		}
	}

	if pv, ok := n.props[key]; ok {
		return pv.GetOrApply(sc, Undefined())
	}

	if !n.prototype.IsNil() {
		if proto, ok := n.prototype.Object(); ok {
			return proto.GetProperty(sc, key)
		}
	}
	return Undefined(), nil
}

func (n *NamedObject) SetProperty(sc Scope, key PropertyKey, value PropertyValue) error {
	if !key.IsSymbol() {
		switch key.String() {
		case "__proto__":
			v, ok := value.AsStatic()
			if !ok {
				return sc.NewError("TypeError", "prototype cannot be an accessor")
			}
			return n.SetPrototype(sc, v)
		case "constructor":
			v, ok := value.AsStatic()
			if !ok || (v.Kind != KindObject && v.Kind != KindExternal) {
				return sc.NewError("TypeError", "constructor is not an object")
			}
			n.constructor = v.Handle()
			return nil
		}
	}
	n.props[key] = value
	return nil
}

func (n *NamedObject) DeleteProperty(sc Scope, key PropertyKey) (Value, error) {
	pv, ok := n.props[key]
	if !ok {
		return Undefined(), nil
	}
	delete(n.props, key)

	if v, ok := pv.AsStatic(); ok {
		if v.Kind == KindObject || v.Kind == KindExternal {
			// Keep the removed handle alive for the duration of the
			// caller's native operation so it isn't swept before the
			// caller is done inspecting it.
			sc.Root(v.Handle().Raw())
		}
		return v, nil
	}
	if !pv.get.IsNil() {
		sc.Root(pv.get.Raw())
	}
	if !pv.set.IsNil() {
		sc.Root(pv.set.Raw())
	}
	return Undefined(), nil
}

func (n *NamedObject) GetPrototype(sc Scope) (Value, error) {
	if n.prototype.IsNil() {
		return Null(), nil
	}
	return FromObject(n.prototype), nil
}

func (n *NamedObject) SetPrototype(sc Scope, value Value) error {
	switch value.Kind {
	case KindNull:
		n.prototype = ObjectHandle{}
	case KindObject, KindExternal:
		n.prototype = value.Handle()
	default:
		return sc.NewError("TypeError", "prototype must be an object or null")
	}
	return nil
}

// Apply makes a plain object non-callable by default: calling {} as a
// function throws, matching spec.md's "fails with a TypeError when the
// object is not callable/constructable".
func (n *NamedObject) Apply(sc Scope, callee ObjectHandle, this Value, args []Value) (Value, error) {
	return Undefined(), sc.NewError("TypeError", "value is not a function")
}

func (n *NamedObject) Construct(sc Scope, callee ObjectHandle, this Value, args []Value) (Value, error) {
	return Undefined(), sc.NewError("TypeError", "value is not a constructor")
}

func (n *NamedObject) OwnKeys() ([]Value, error) {
	keys := make([]Value, 0, len(n.props))
	for k := range n.props {
		keys = append(keys, k.AsValue())
	}
	return keys, nil
}

func (n *NamedObject) TypeOf() Typeof { return TypeofObject }

func (n *NamedObject) AsAny() any { return n }
