// Package runtime implements the built-in object kinds the VM exposes to
// script code: the Error hierarchy, Function objects, Array, generators,
// and iterators. Grounded on the teacher's runtime package layout
// (_examples/wudi-hey/runtime: one file per builtin family) and on
// _examples/original_source/crates/dash_vm/src/value for the JS semantics.
package runtime

import (
	"fmt"

	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/values"
)

// ErrorKind names one of the built-in error constructors in the
// ECMAScript error hierarchy (spec.md section 7).
type ErrorKind string

const (
	ErrorKindError          ErrorKind = "Error"
	ErrorKindTypeError      ErrorKind = "TypeError"
	ErrorKindRangeError     ErrorKind = "RangeError"
	ErrorKindSyntaxError    ErrorKind = "SyntaxError"
	ErrorKindReferenceError ErrorKind = "ReferenceError"
	ErrorKindURIError       ErrorKind = "URIError"
	ErrorKindEvalError      ErrorKind = "EvalError"
	ErrorKindAggregateError ErrorKind = "AggregateError"
)

// ErrorObject backs every `new Error(...)`/`new TypeError(...)` instance.
// It embeds NamedObject for arbitrary own properties (stack, custom
// fields) and keeps name/message/errors as dedicated fields so formatting
// doesn't round-trip through the property map.
type ErrorObject struct {
	*values.NamedObject
	Kind    ErrorKind
	Message string
	Stack   string
	// Errors holds the AggregateError constructor's wrapped error list;
	// empty for every other kind.
	Errors []values.Value
}

func NewErrorObject(prototype values.ObjectHandle, kind ErrorKind, message string) *ErrorObject {
	return &ErrorObject{
		NamedObject: values.NewNamedObject(prototype, values.ObjectHandle{}),
		Kind:        kind,
		Message:     message,
	}
}

func (e *ErrorObject) Trace(v *gc.Visitor) {
	e.NamedObject.Trace(v)
	for _, err := range e.Errors {
		if h, ok := err.Data.(values.ObjectHandle); ok {
			v.Mark(h.Raw())
		}
	}
}

// GetProperty special-cases name/message/stack so `e.message` reads the
// dedicated field even though it was never stored via SetProperty.
func (e *ErrorObject) GetProperty(sc values.Scope, key values.PropertyKey) (values.Value, error) {
	if !key.IsSymbol() {
		switch key.String() {
		case "name":
			if pv, ok := e.RawGet(key); ok {
				return pv.GetOrApply(sc, values.FromObject(values.ObjectHandle{}))
			}
			return values.String(string(e.Kind)), nil
		case "message":
			if pv, ok := e.RawGet(key); ok {
				return pv.GetOrApply(sc, values.FromObject(values.ObjectHandle{}))
			}
			return values.String(e.Message), nil
		case "stack":
			return values.String(e.Stack), nil
		}
	}
	return e.NamedObject.GetProperty(sc, key)
}

func (e *ErrorObject) AsAny() any { return e }

// String renders "Name: message", matching Error.prototype.toString's
// default behavior.
func (e *ErrorObject) String() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ErrorPrototypes holds one constructor/prototype pair per ErrorKind,
// wired up once at VM startup by the statics package (spec.md section
// 4.6, "global object setup").
type ErrorPrototypes struct {
	protos map[ErrorKind]values.ObjectHandle
}

func NewErrorPrototypes() *ErrorPrototypes {
	return &ErrorPrototypes{protos: make(map[ErrorKind]values.ObjectHandle)}
}

func (p *ErrorPrototypes) Register(kind ErrorKind, proto values.ObjectHandle) {
	p.protos[kind] = proto
}

func (p *ErrorPrototypes) Prototype(kind ErrorKind) values.ObjectHandle {
	return p.protos[kind]
}

// NewError is the convenience constructor natives use to throw a built-in
// error kind without going through the Construct protocol, e.g.
// `return values.Undefined(), runtime.NewError(heap, prototypes, runtime.ErrorKindTypeError, "x is not a function")`.
func NewError(heap *gc.Heap, protos *ErrorPrototypes, kind ErrorKind, format string, args ...any) error {
	proto := protos.Prototype(kind)
	obj := NewErrorObject(proto, kind, fmt.Sprintf(format, args...))
	handle := values.WrapHandle(heap.Register(obj))
	return values.Throw(values.FromObject(handle))
}
