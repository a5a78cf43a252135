package async

import (
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/values"
)

// Globals holds the handles cmd/vela and the vm package need after
// Install wires the Promise surface onto the global object: vm.Options
// takes Proto directly so Await-driven async functions can build their
// own Promise instances the same way script-level `new Promise(...)`
// does.
type Globals struct {
	Proto values.ObjectHandle
}

// Install builds Promise.prototype (then/catch/finally) and the Promise
// constructor (resolve/reject/all/race/allSettled statics), binding the
// constructor onto env's global object. Grounded on
// _examples/original_source/crates/dash_vm/src/value/promise.rs for the
// method surface and spec.md §4.4/§6.1 for the task-queue-backed
// semantics; there is no teacher analogue (PHP has no Promise), so the
// installer style (one native per method, a shared helper building the
// NativeFunction) follows statics/stdlib's own established pattern in
// this repository instead.
func Install(sc values.Scope, env *statics.Env, q *Queue) *Globals {
	proto := values.WrapHandle(env.Heap.Register(values.NewNamedObject(env.ObjectProto, values.ObjectHandle{})))
	protoObj, _ := proto.Object()

	native(sc, env, protoObj, "then", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		p, ok := AsPromise(this)
		if !ok {
			return values.Undefined(), sc.NewError("TypeError", "Promise.prototype.then called on a non-promise")
		}
		onF := handlerFromArg(arg(args, 0))
		onR := handlerFromArg(arg(args, 1))
		h := Then(q, env.Heap, p, onF, onR, proto)
		return values.FromObject(h), nil
	})
	native(sc, env, protoObj, "catch", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		p, ok := AsPromise(this)
		if !ok {
			return values.Undefined(), sc.NewError("TypeError", "Promise.prototype.catch called on a non-promise")
		}
		onR := handlerFromArg(arg(args, 0))
		h := Then(q, env.Heap, p, nil, onR, proto)
		return values.FromObject(h), nil
	})
	native(sc, env, protoObj, "finally", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		p, ok := AsPromise(this)
		if !ok {
			return values.Undefined(), sc.NewError("TypeError", "Promise.prototype.finally called on a non-promise")
		}
		onFinally := handlerFromArg(arg(args, 0))
		wrap := func(rejected bool) Handler {
			return func(sc values.Scope, v values.Value) (values.Value, error) {
				if onFinally != nil {
					if _, err := onFinally(sc, values.Undefined()); err != nil {
						return values.Undefined(), err
					}
				}
				if rejected {
					return values.Undefined(), values.Throw(v)
				}
				return v, nil
			}
		}
		h := Then(q, env.Heap, p, wrap(false), wrap(true), proto)
		return values.FromObject(h), nil
	})

	ctorFn := runtime.NewNativeFunction(env.FunctionProto, "Promise", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		executor, ok := arg(args, 0).Object()
		if !ok || executor.TypeOf() != values.TypeofFunction {
			return values.Undefined(), sc.NewError("TypeError", "Promise resolver is not a function")
		}
		p := NewPromise(proto)
		h := values.WrapHandle(env.Heap.Register(p))

		resolveFn := wrapHandler(sc, func(sc values.Scope, args []values.Value) (values.Value, error) {
			Resolve(sc, q, p, firstArg(args))
			return values.Undefined(), nil
		})
		rejectFn := wrapHandler(sc, func(sc values.Scope, args []values.Value) (values.Value, error) {
			Reject(sc, q, p, firstArg(args))
			return values.Undefined(), nil
		})
		if _, err := executor.Apply(sc, arg(args, 0).Handle(), values.Undefined(), []values.Value{resolveFn, rejectFn}); err != nil {
			if thrown, ok := values.AsThrown(err); ok {
				Reject(sc, q, p, thrown)
			} else {
				return values.Undefined(), err
			}
		}
		return values.FromObject(h), nil
	})
	ctorHandle := values.WrapHandle(env.Heap.Register(ctorFn))
	ctorFn.SetProperty(sc, values.StringKey("prototype"), values.StaticProperty(values.FromObject(proto)))
	protoObj.SetProperty(sc, values.StringKey("constructor"), values.StaticProperty(values.FromObject(ctorHandle)))

	native(sc, env, ctorFn, "resolve", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		v := arg(args, 0)
		if p, ok := AsPromise(v); ok {
			_ = p
			return v, nil
		}
		p := NewPromise(proto)
		h := values.WrapHandle(env.Heap.Register(p))
		Resolve(sc, q, p, v)
		return values.FromObject(h), nil
	})
	native(sc, env, ctorFn, "reject", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		p := NewPromise(proto)
		h := values.WrapHandle(env.Heap.Register(p))
		Reject(sc, q, p, arg(args, 0))
		return values.FromObject(h), nil
	})
	native(sc, env, ctorFn, "all", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return combinator(sc, env, q, proto, arg(args, 0), allMode)
	})
	native(sc, env, ctorFn, "race", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return combinator(sc, env, q, proto, arg(args, 0), raceMode)
	})
	native(sc, env, ctorFn, "allSettled", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return combinator(sc, env, q, proto, arg(args, 0), allSettledMode)
	})

	setGlobal(sc, env, "Promise", values.FromObject(ctorHandle))

	return &Globals{Proto: proto}
}

func native(sc values.Scope, env *statics.Env, target values.Object, name string, fn runtime.NativeFn) {
	nf := runtime.NewNativeFunction(env.FunctionProto, name, fn)
	h := values.WrapHandle(env.Heap.Register(nf))
	target.SetProperty(sc, values.StringKey(name), values.StaticProperty(values.FromObject(h)))
}

func setGlobal(sc values.Scope, env *statics.Env, name string, v values.Value) {
	obj, _ := env.Global.Object()
	obj.SetProperty(sc, values.StringKey(name), values.StaticProperty(v))
}

func arg(args []values.Value, i int) values.Value {
	if i < len(args) {
		return args[i]
	}
	return values.Undefined()
}

func handlerFromArg(v values.Value) Handler {
	obj, ok := v.Object()
	if !ok || obj.TypeOf() != values.TypeofFunction {
		return nil
	}
	return FromCallable(v.Handle())
}
