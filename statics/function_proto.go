package statics

import (
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

// installFunctionProto wires call/apply/bind onto Function.prototype,
// grounded on the teacher's per-prototype-method install style
// (_examples/wudi-hey/runtime/function.go's builtin table) re-keyed to
// this engine's NativeFn signature.
func installFunctionProto(sc values.Scope, env *Env) {
	obj, _ := env.FunctionProto.Object()

	native(sc, env, obj, "call", funcCall)
	native(sc, env, obj, "apply", funcApply)
	native(sc, env, obj, "bind", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return funcBind(sc, env, this, args)
	})
}

func funcCall(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
	target, ok := this.Object()
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "Function.prototype.call called on a non-function")
	}
	newThis := arg(args, 0)
	var rest []values.Value
	if len(args) > 1 {
		rest = args[1:]
	}
	return target.Apply(sc, this.Handle(), newThis, rest)
}

func funcApply(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
	target, ok := this.Object()
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "Function.prototype.apply called on a non-function")
	}
	newThis := arg(args, 0)
	var argArray []values.Value
	if arr, ok := arg(args, 1).Object(); ok {
		if a, ok := arr.AsAny().(*runtime.Array); ok {
			argArray = a.Elements
		}
	}
	return target.Apply(sc, this.Handle(), newThis, argArray)
}

func funcBind(sc values.Scope, env *Env, this values.Value, args []values.Value) (values.Value, error) {
	if this.Handle().IsNil() {
		return values.Undefined(), sc.NewError("TypeError", "Function.prototype.bind called on a non-function")
	}
	boundThis := arg(args, 0)
	var boundArgs []values.Value
	if len(args) > 1 {
		boundArgs = append(boundArgs, args[1:]...)
	}
	bound := runtime.NewBoundFunction(env.FunctionProto, this.Handle(), boundThis, boundArgs)
	h := values.WrapHandle(sc.Heap().Register(bound))
	return values.FromObject(h), nil
}
