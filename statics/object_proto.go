package statics

import (
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

// installObjectProto wires the handful of Object.prototype methods every
// object inherits: hasOwnProperty, toString, valueOf. Grounded on
// _examples/original_source/crates/dash_vm/src/value/object.rs's
// NamedObject method set.
func installObjectProto(sc values.Scope, env *Env) {
	obj, _ := env.ObjectProto.Object()

	native(sc, env, obj, "hasOwnProperty", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		target, ok := this.Object()
		if !ok {
			return values.Bool(false), nil
		}
		key, err := values.KeyFromValue(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		keys, err := target.OwnKeys()
		if err != nil {
			return values.Undefined(), err
		}
		for _, k := range keys {
			if k.Kind == values.KindString && !key.IsSymbol() && k.Str() == key.String() {
				return values.Bool(true), nil
			}
		}
		return values.Bool(false), nil
	})

	native(sc, env, obj, "toString", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return values.String("[object Object]"), nil
	})

	native(sc, env, obj, "valueOf", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return this, nil
	})
}

// installObjectConstructor builds the Object() constructor function and
// its static methods (keys/values/entries/assign), then binds it as
// globalThis.Object, per spec.md's supplemented stdlib surface
// (Object.keys/JSON round-trip properties, section 8).
func installObjectConstructor(sc values.Scope, env *Env) {
	ctorFn := runtime.NewNativeFunction(env.FunctionProto, "Object", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		if v := arg(args, 0); v.Kind == values.KindObject || v.Kind == values.KindExternal {
			return v, nil
		}
		obj := values.NewNamedObject(env.ObjectProto, values.ObjectHandle{})
		h := values.WrapHandle(env.Heap.Register(obj))
		return values.FromObject(h), nil
	})
	ctorHandle := values.WrapHandle(env.Heap.Register(ctorFn))

	ctorFn.SetProperty(sc, values.StringKey("prototype"), values.StaticProperty(values.FromObject(env.ObjectProto)))
	if protoObj, ok := env.ObjectProto.Object(); ok {
		protoObj.SetProperty(sc, values.StringKey("constructor"), values.StaticProperty(values.FromObject(ctorHandle)))
	}

	native(sc, env, ctorFn, "keys", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return ownKeysArray(sc, env, arg(args, 0), func(k values.Value) values.Value { return k })
	})
	native(sc, env, ctorFn, "values", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		target, ok := arg(args, 0).Object()
		if !ok {
			return values.Undefined(), sc.NewError("TypeError", "Object.values called on a non-object")
		}
		return ownKeysArray(sc, env, arg(args, 0), func(k values.Value) values.Value {
			pk, _ := values.KeyFromValue(sc, k)
			v, _ := target.GetProperty(sc, pk)
			return v
		})
	})
	native(sc, env, ctorFn, "entries", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		target, ok := arg(args, 0).Object()
		if !ok {
			return values.Undefined(), sc.NewError("TypeError", "Object.entries called on a non-object")
		}
		return ownKeysArray(sc, env, arg(args, 0), func(k values.Value) values.Value {
			pk, _ := values.KeyFromValue(sc, k)
			v, _ := target.GetProperty(sc, pk)
			pair := runtime.NewArray(env.ArrayProto, []values.Value{k, v})
			return values.FromObject(values.WrapHandle(env.Heap.Register(pair)))
		})
	})
	native(sc, env, ctorFn, "assign", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		if len(args) == 0 {
			return values.Undefined(), sc.NewError("TypeError", "Object.assign requires a target")
		}
		target, ok := args[0].Object()
		if !ok {
			return values.Undefined(), sc.NewError("TypeError", "Object.assign target is not an object")
		}
		for _, src := range args[1:] {
			srcObj, ok := src.Object()
			if !ok {
				continue
			}
			keys, err := srcObj.OwnKeys()
			if err != nil {
				return values.Undefined(), err
			}
			for _, k := range keys {
				pk, _ := values.KeyFromValue(sc, k)
				v, err := srcObj.GetProperty(sc, pk)
				if err != nil {
					return values.Undefined(), err
				}
				if err := target.SetProperty(sc, pk, values.StaticProperty(v)); err != nil {
					return values.Undefined(), err
				}
			}
		}
		return args[0], nil
	})
	native(sc, env, ctorFn, "freeze", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		// No frozen-object representation exists yet (spec.md's Non-goals
		// exclude property attribute enforcement); freeze is a no-op that
		// returns its argument, matching the identity-passthrough contract
		// callers rely on.
		return arg(args, 0), nil
	})

	setGlobal(sc, env, "Object", values.FromObject(ctorHandle))
}

func ownKeysArray(sc values.Scope, env *Env, v values.Value, project func(values.Value) values.Value) (values.Value, error) {
	obj, ok := v.Object()
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "value is not an object")
	}
	keys, err := obj.OwnKeys()
	if err != nil {
		return values.Undefined(), err
	}
	out := make([]values.Value, 0, len(keys))
	for _, k := range keys {
		if k.Kind == values.KindSymbol {
			continue
		}
		out = append(out, project(k))
	}
	arr := runtime.NewArray(env.ArrayProto, out)
	return values.FromObject(values.WrapHandle(env.Heap.Register(arr))), nil
}
