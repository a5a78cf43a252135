// Package values implements the engine's tagged value union, the Object
// capability interface, property descriptors, and the primitive/boxing
// hierarchy described in spec.md section 3. Grounded on
// _examples/original_source/crates/dash_vm/src/value/object.rs and
// .../value/primitive.rs for the protocol shape, and on the teacher's own
// values/value.go (_examples/wudi-hey/values/value.go) for the Go idiom of
// a tagged struct (Kind + Data) with typed constructors.
package values

import "fmt"

// Kind discriminates the variants of Value.
type Kind byte

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindSymbol
	KindObject
	// KindExternal wraps an object handle used to implement a closed-over
	// variable that escapes its defining frame (see compiler upvalues).
	KindExternal
	// KindFunctionProto is a compiler-internal constant-pool-only kind:
	// Data holds a *registry.Function template. It never appears on the
	// value stack; the vm's Closure opcode consumes it to allocate a
	// runtime.UserFunction and never produces this Kind as a result.
	KindFunctionProto
	// KindSpreadMarker is a vm-internal-only kind produced by the
	// SpreadArray opcode: Data holds the []Value a spread iterable drained
	// to. ArrayLiteral/FunctionCall/ConstructorCall expand it back into
	// zero or more real arguments when assembling their final slice, so a
	// spread element still occupies exactly one bytecode-level stack slot
	// even though it can expand to a different number of values.
	KindSpreadMarker
	// KindIteratorHandle is a vm-internal-only kind IterInit pushes: Data
	// holds the runtime.Iterator a for-of loop or spread drains from.
	// Defined here rather than in runtime to avoid runtime importing
	// values' Kind back into itself; the Data field is typed any (a bare
	// interface) precisely so values need not import runtime.
	KindIteratorHandle
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindObject:
		return "object"
	case KindExternal:
		return "external"
	case KindFunctionProto:
		return "function-proto"
	case KindSpreadMarker:
		return "spread-marker"
	case KindIteratorHandle:
		return "iterator-handle"
	default:
		return "unknown"
	}
}

// Value is the tagged union of every JavaScript value this engine can hold
// on the stack, in a local slot, or as a constant. Data holds the payload:
// nil for Undefined/Null, bool for Boolean, float64 for Number, string for
// String, *Symbol for Symbol, and an ObjectHandle for Object/External.
type Value struct {
	Kind Kind
	Data any
}

func Undefined() Value { return Value{Kind: KindUndefined} }
func Null() Value      { return Value{Kind: KindNull} }

func Bool(b bool) Value   { return Value{Kind: KindBoolean, Data: b} }
func Number(f float64) Value { return Value{Kind: KindNumber, Data: f} }
func String(s string) Value  { return Value{Kind: KindString, Data: s} }

func SymbolValue(s *Symbol) Value { return Value{Kind: KindSymbol, Data: s} }

func FromObject(h ObjectHandle) Value   { return Value{Kind: KindObject, Data: h} }
func FromExternal(h ObjectHandle) Value { return Value{Kind: KindExternal, Data: h} }

// SpreadMarker and IteratorHandle construct the two vm-internal kinds; see
// their Kind doc comments for what Data holds and who consumes them.
func SpreadMarker(elements []Value) Value { return Value{Kind: KindSpreadMarker, Data: elements} }
func IteratorHandle(it any) Value         { return Value{Kind: KindIteratorHandle, Data: it} }

func (v Value) IsUndefined() bool { return v.Kind == KindUndefined }
func (v Value) IsNull() bool      { return v.Kind == KindNull }
func (v Value) IsNullish() bool   { return v.Kind == KindUndefined || v.Kind == KindNull }

func (v Value) Bool() bool {
	b, _ := v.Data.(bool)
	return b
}

func (v Value) Num() float64 {
	f, _ := v.Data.(float64)
	return f
}

func (v Value) Str() string {
	s, _ := v.Data.(string)
	return s
}

func (v Value) Symbol() *Symbol {
	s, _ := v.Data.(*Symbol)
	return s
}

// Handle returns the object handle for Object/External values, and the nil
// handle otherwise.
func (v Value) Handle() ObjectHandle {
	if v.Kind != KindObject && v.Kind != KindExternal {
		return ObjectHandle{}
	}
	h, _ := v.Data.(ObjectHandle)
	return h
}

// Object resolves the underlying Object implementation for Object/External
// values, or (nil, false) otherwise.
func (v Value) Object() (Object, bool) {
	h := v.Handle()
	if h.IsNil() {
		return nil, false
	}
	obj, ok := h.Object()
	return obj, ok
}

func (v Value) GoString() string {
	return fmt.Sprintf("Value{%s %v}", v.Kind, v.Data)
}

// Typeof is the result of the `typeof` operator / Object.type_of().
type Typeof string

const (
	TypeofObject    Typeof = "object"
	TypeofFunction  Typeof = "function"
	TypeofNumber    Typeof = "number"
	TypeofString    Typeof = "string"
	TypeofBoolean   Typeof = "boolean"
	TypeofUndefined Typeof = "undefined"
	TypeofSymbol    Typeof = "symbol"
)
