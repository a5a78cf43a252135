package values

import "github.com/vela-lang/vela/gc"

// ObjectHandle is a gc.Handle known to carry an Object payload. It exists
// so Value's Data field and the Object protocol can share a single typed
// wrapper instead of passing around bare gc.Handle and re-asserting at
// every call site.
type ObjectHandle struct {
	h gc.Handle
}

func WrapHandle(h gc.Handle) ObjectHandle { return ObjectHandle{h: h} }

func (o ObjectHandle) Raw() gc.Handle { return o.h }

func (o ObjectHandle) IsNil() bool { return o.h.IsNil() }

func (o ObjectHandle) Object() (Object, bool) {
	if o.h.IsNil() {
		return nil, false
	}
	obj, ok := o.h.Value().(Object)
	return obj, ok
}

func (o ObjectHandle) Equal(other ObjectHandle) bool { return o.h.Equal(other.h) }

// Thrown wraps a JS value thrown as an exception so it can travel through
// ordinary Go error returns. Every native built-in returns (Value, error);
// an error that *is* a *Thrown travels like a JS throw and unwinds through
// the dispatcher to the nearest try-block, per spec.md section 7.
type Thrown struct {
	Value Value
}

func (t *Thrown) Error() string {
	if s, ok := t.Value.Data.(string); ok && t.Value.Kind == KindString {
		return s
	}
	return "uncaught exception: " + t.Value.Kind.String()
}

func Throw(v Value) error { return &Thrown{Value: v} }

// AsThrown extracts the thrown value from err, if it is one.
func AsThrown(err error) (Value, bool) {
	if t, ok := err.(*Thrown); ok {
		return t.Value, true
	}
	return Value{}, false
}

// Scope is the small capability surface Object implementations need to
// allocate, root, and throw. It is implemented by the VM's execution
// scope; defining it here (rather than importing the vm package) keeps
// values free of a dependency on vm, which itself depends on values.
type Scope interface {
	Heap() *gc.Heap
	// Root pins h for the lifetime of the caller's native operation.
	Root(h gc.Handle) gc.Handle
	// NewError constructs an instance of the named error constructor
	// (TypeError, RangeError, ...) with the given message, already
	// wrapped in an error suitable to return from a native method.
	NewError(ctor string, format string, args ...any) error
	Global() ObjectHandle
}

// PropertyKey is either a string or a symbol, per spec.md section 3.
type PropertyKey struct {
	str      string
	sym      *Symbol
	isSymbol bool
}

func StringKey(s string) PropertyKey { return PropertyKey{str: s} }
func SymbolKey(s *Symbol) PropertyKey { return PropertyKey{sym: s, isSymbol: true} }

func (k PropertyKey) IsSymbol() bool   { return k.isSymbol }
func (k PropertyKey) String() string   { return k.str }
func (k PropertyKey) Symbol() *Symbol  { return k.sym }

func (k PropertyKey) AsValue() Value {
	if k.isSymbol {
		return SymbolValue(k.sym)
	}
	return String(k.str)
}

// KeyFromValue coerces a value used in computed member access (obj[expr])
// into a PropertyKey: symbols stay symbols, everything else is ToString'd.
func KeyFromValue(sc Scope, v Value) (PropertyKey, error) {
	if v.Kind == KindSymbol {
		return SymbolKey(v.Symbol()), nil
	}
	s, err := ToString(sc, v)
	if err != nil {
		return PropertyKey{}, err
	}
	return StringKey(s), nil
}

// PropertyValue is either a Static value or an accessor Trap, per
// spec.md section 3.
type PropertyValue struct {
	isTrap bool
	static Value
	get    ObjectHandle
	set    ObjectHandle
}

func StaticProperty(v Value) PropertyValue { return PropertyValue{static: v} }

func Getter(get ObjectHandle) PropertyValue { return PropertyValue{isTrap: true, get: get} }
func Setter(set ObjectHandle) PropertyValue { return PropertyValue{isTrap: true, set: set} }
func Accessor(get, set ObjectHandle) PropertyValue {
	return PropertyValue{isTrap: true, get: get, set: set}
}

func (p PropertyValue) IsTrap() bool { return p.isTrap }

func (p PropertyValue) AsStatic() (Value, bool) {
	if p.isTrap {
		return Value{}, false
	}
	return p.static, true
}

// GetOrApply reads a static value, or invokes the getter trap bound to
// `this`. Traps with no getter yield undefined, matching a write-only
// accessor read.
func (p PropertyValue) GetOrApply(sc Scope, this Value) (Value, error) {
	if !p.isTrap {
		return p.static, nil
	}
	if p.get.IsNil() {
		return Undefined(), nil
	}
	getter, ok := p.get.Object()
	if !ok {
		return Undefined(), nil
	}
	return getter.Apply(sc, p.get, this, nil)
}

func (p PropertyValue) trace(v *gc.Visitor) {
	if p.isTrap {
		v.Mark(p.get.Raw())
		v.Mark(p.set.Raw())
		return
	}
	if h, ok := p.static.Data.(ObjectHandle); ok {
		v.Mark(h.Raw())
	}
}

// Object is the capability interface every heap object implements: a
// single small interface (about a dozen methods) with typed downcasts
// (AsAny) for the handful of places that need exact-type recognition
// (generator, promise, array iterator), per spec.md's Design Notes.
type Object interface {
	gc.Traceable

	GetProperty(sc Scope, key PropertyKey) (Value, error)
	SetProperty(sc Scope, key PropertyKey, value PropertyValue) error
	DeleteProperty(sc Scope, key PropertyKey) (Value, error)

	GetPrototype(sc Scope) (Value, error)
	SetPrototype(sc Scope, value Value) error

	Apply(sc Scope, callee ObjectHandle, this Value, args []Value) (Value, error)
	Construct(sc Scope, callee ObjectHandle, this Value, args []Value) (Value, error)

	OwnKeys() ([]Value, error)
	TypeOf() Typeof

	// AsAny exposes the concrete implementation for the few call sites
	// that need an exact-type downcast (generator, promise, iterator).
	AsAny() any
}

// BuiltinCapable is the optional downcast giving primitives and their
// boxed wrapper objects (NumberObject, StringObject, BooleanObject) a
// uniform conversion/equality interface, per spec.md's Object capability
// section ("as_builtin_capable").
type BuiltinCapable interface {
	PrimitiveValue() Value
}

func AsBuiltinCapable(o Object) (BuiltinCapable, bool) {
	bc, ok := o.(BuiltinCapable)
	return bc, ok
}
