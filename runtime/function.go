package runtime

import (
	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/registry"
	"github.com/vela-lang/vela/values"
)

// NativeFn is the signature every builtin implemented in Go uses,
// mirroring the teacher's Builtin closures (_examples/wudi-hey/runtime/function.go)
// but over the tagged values.Value union instead of PHP's int/float/array
// split.
type NativeFn func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error)

// NativeFunction wraps a Go closure as a callable JS value: Math.sqrt,
// console.log, Array.prototype.push's native fallback, and everything the
// stdlib package installs on the global object.
type NativeFunction struct {
	*values.NamedObject
	Name string
	Fn   NativeFn
}

func NewNativeFunction(prototype values.ObjectHandle, name string, fn NativeFn) *NativeFunction {
	return &NativeFunction{
		NamedObject: values.NewNamedObject(prototype, values.ObjectHandle{}),
		Name:        name,
		Fn:          fn,
	}
}

func (n *NativeFunction) Apply(sc values.Scope, callee values.ObjectHandle, this values.Value, args []values.Value) (values.Value, error) {
	return n.Fn(sc, this, args)
}

func (n *NativeFunction) Construct(sc values.Scope, callee values.ObjectHandle, this values.Value, args []values.Value) (values.Value, error) {
	return n.Fn(sc, this, args)
}

func (n *NativeFunction) TypeOf() values.Typeof { return values.TypeofFunction }

func (n *NativeFunction) AsAny() any { return n }

// UserFunction is a closure over a compiled registry.Function: the
// callable value produced by evaluating a function expression/declaration.
// Upvalues holds one persistent handle per descriptor in
// Descriptor.Upvalues, captured at closure-creation time (spec.md section
// 4.1.4).
type UserFunction struct {
	*values.NamedObject
	Descriptor *registry.Function
	Upvalues   []gc.Handle

	// Call is set by the vm package at startup (avoiding an import cycle:
	// runtime cannot import vm, vm imports runtime) so UserFunction.Apply
	// can dispatch into the bytecode dispatcher.
	Call func(sc values.Scope, fn *UserFunction, this values.Value, args []values.Value) (values.Value, error)
}

func NewUserFunction(prototype values.ObjectHandle, descriptor *registry.Function, upvalues []gc.Handle) *UserFunction {
	return &UserFunction{
		NamedObject: values.NewNamedObject(prototype, values.ObjectHandle{}),
		Descriptor:  descriptor,
		Upvalues:    upvalues,
	}
}

func (u *UserFunction) Trace(v *gc.Visitor) {
	u.NamedObject.Trace(v)
	for _, h := range u.Upvalues {
		v.Mark(h)
	}
}

func (u *UserFunction) Apply(sc values.Scope, callee values.ObjectHandle, this values.Value, args []values.Value) (values.Value, error) {
	if u.Call == nil {
		return values.Undefined(), sc.NewError("TypeError", "function %s has no attached dispatcher", u.Descriptor.Name)
	}
	return u.Call(sc, u, this, args)
}

func (u *UserFunction) Construct(sc values.Scope, callee values.ObjectHandle, this values.Value, args []values.Value) (values.Value, error) {
	return u.Apply(sc, callee, this, args)
}

func (u *UserFunction) TypeOf() values.Typeof { return values.TypeofFunction }

func (u *UserFunction) AsAny() any { return u }

// BoundFunction implements Function.prototype.bind: a thin wrapper that
// fixes `this` and prepends bound arguments before forwarding to Target.
type BoundFunction struct {
	*values.NamedObject
	Target    values.ObjectHandle
	BoundThis values.Value
	BoundArgs []values.Value
}

func NewBoundFunction(prototype, target values.ObjectHandle, boundThis values.Value, boundArgs []values.Value) *BoundFunction {
	return &BoundFunction{
		NamedObject: values.NewNamedObject(prototype, values.ObjectHandle{}),
		Target:      target,
		BoundThis:   boundThis,
		BoundArgs:   boundArgs,
	}
}

func (b *BoundFunction) Trace(v *gc.Visitor) {
	b.NamedObject.Trace(v)
	v.Mark(b.Target.Raw())
}

func (b *BoundFunction) Apply(sc values.Scope, callee values.ObjectHandle, this values.Value, args []values.Value) (values.Value, error) {
	target, ok := b.Target.Object()
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "bound target is not callable")
	}
	all := append(append([]values.Value{}, b.BoundArgs...), args...)
	return target.Apply(sc, b.Target, b.BoundThis, all)
}

func (b *BoundFunction) Construct(sc values.Scope, callee values.ObjectHandle, this values.Value, args []values.Value) (values.Value, error) {
	target, ok := b.Target.Object()
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "bound target is not a constructor")
	}
	all := append(append([]values.Value{}, b.BoundArgs...), args...)
	return target.Construct(sc, b.Target, this, all)
}

func (b *BoundFunction) TypeOf() values.Typeof { return values.TypeofFunction }

func (b *BoundFunction) AsAny() any { return b }
