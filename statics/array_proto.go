package statics

import (
	"strings"

	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

// installArrayProto wires Array.prototype's common methods plus
// Array.isArray/Array.from as Go-native builtins, grounded on
// _examples/original_source/crates/dash_vm/src/value/array.rs's method
// set and the teacher's one-builtin-per-function registration style.
func installArrayProto(sc values.Scope, env *Env) {
	obj, _ := env.ArrayProto.Object()

	native(sc, env, obj, "push", arrayPush)
	native(sc, env, obj, "pop", arrayPop)
	native(sc, env, obj, "shift", arrayShift)
	native(sc, env, obj, "unshift", arrayUnshift)
	native(sc, env, obj, "slice", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return arraySlice(sc, env, this, args)
	})
	native(sc, env, obj, "join", arrayJoin)
	native(sc, env, obj, "indexOf", arrayIndexOf)
	native(sc, env, obj, "includes", arrayIncludes)
	native(sc, env, obj, "concat", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return arrayConcat(sc, env, this, args)
	})
	native(sc, env, obj, "reverse", arrayReverse)

	native(sc, env, obj, "forEach", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return arrayIterate(sc, this, arg(args, 0), func(v values.Value, i int) (values.Value, bool, error) {
			return values.Undefined(), false, nil
		})
	})
	native(sc, env, obj, "map", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		out := make([]values.Value, 0)
		_, err := arrayIterate(sc, this, arg(args, 0), func(v values.Value, i int) (values.Value, bool, error) {
			// Each callback result parks in a Go slice until the result
			// array exists; root it so a collection triggered by a later
			// iteration's Apply can't sweep it.
			out = append(out, retain(sc, v))
			return values.Undefined(), false, nil
		})
		if err != nil {
			return values.Undefined(), err
		}
		arr := runtime.NewArray(env.ArrayProto, out)
		return values.FromObject(values.WrapHandle(env.Heap.Register(arr))), nil
	})
	native(sc, env, obj, "filter", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		src, ok := this.Object()
		if !ok {
			return values.Undefined(), sc.NewError("TypeError", "Array.prototype.filter called on a non-array")
		}
		a, ok := src.AsAny().(*runtime.Array)
		if !ok {
			return values.Undefined(), sc.NewError("TypeError", "Array.prototype.filter called on a non-array")
		}
		cb, ok := arg(args, 0).Object()
		if !ok {
			return values.Undefined(), sc.NewError("TypeError", "filter callback is not a function")
		}
		out := make([]values.Value, 0)
		for i, v := range a.Elements {
			keep, err := cb.Apply(sc, arg(args, 0).Handle(), values.Undefined(), []values.Value{v, values.Number(float64(i)), this})
			if err != nil {
				return values.Undefined(), err
			}
			if values.ToBoolean(keep) {
				out = append(out, retain(sc, v))
			}
		}
		arr := runtime.NewArray(env.ArrayProto, out)
		return values.FromObject(values.WrapHandle(env.Heap.Register(arr))), nil
	})
	native(sc, env, obj, "reduce", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		src, ok := this.Object()
		if !ok {
			return values.Undefined(), sc.NewError("TypeError", "Array.prototype.reduce called on a non-array")
		}
		a, ok := src.AsAny().(*runtime.Array)
		if !ok {
			return values.Undefined(), sc.NewError("TypeError", "Array.prototype.reduce called on a non-array")
		}
		cb, ok := arg(args, 0).Object()
		if !ok {
			return values.Undefined(), sc.NewError("TypeError", "reduce callback is not a function")
		}
		elems := a.Elements
		var acc values.Value
		start := 0
		if len(args) > 1 {
			acc = args[1]
		} else {
			if len(elems) == 0 {
				return values.Undefined(), sc.NewError("TypeError", "reduce of empty array with no initial value")
			}
			acc = elems[0]
			start = 1
		}
		for i := start; i < len(elems); i++ {
			v, err := cb.Apply(sc, arg(args, 0).Handle(), values.Undefined(), []values.Value{acc, elems[i], values.Number(float64(i)), this})
			if err != nil {
				return values.Undefined(), err
			}
			acc = retain(sc, v)
		}
		return acc, nil
	})
	native(sc, env, obj, "find", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		src, ok := this.Object()
		if !ok {
			return values.Undefined(), nil
		}
		a, ok := src.AsAny().(*runtime.Array)
		if !ok {
			return values.Undefined(), nil
		}
		cb, ok := arg(args, 0).Object()
		if !ok {
			return values.Undefined(), sc.NewError("TypeError", "find callback is not a function")
		}
		for i, v := range a.Elements {
			match, err := cb.Apply(sc, arg(args, 0).Handle(), values.Undefined(), []values.Value{v, values.Number(float64(i)), this})
			if err != nil {
				return values.Undefined(), err
			}
			if values.ToBoolean(match) {
				return v, nil
			}
		}
		return values.Undefined(), nil
	})
	native(sc, env, obj, "some", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return arraySomeEvery(sc, this, args, true)
	})
	native(sc, env, obj, "every", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return arraySomeEvery(sc, this, args, false)
	})

	ctorFn := runtime.NewNativeFunction(env.FunctionProto, "Array", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		// A single numeric argument is the length form: Array(10) is a
		// length-10 array of undefined, and a length that is not a
		// non-negative integer below 2^32 throws RangeError.
		if len(args) == 1 && args[0].Kind == values.KindNumber {
			n := args[0].Num()
			if n != float64(int64(n)) || n < 0 || n >= 1<<32 {
				return values.Undefined(), sc.NewError("RangeError", "invalid array length")
			}
			arr := runtime.NewArray(env.ArrayProto, make([]values.Value, int(n)))
			for i := range arr.Elements {
				arr.Elements[i] = values.Undefined()
			}
			return values.FromObject(values.WrapHandle(env.Heap.Register(arr))), nil
		}
		arr := runtime.NewArray(env.ArrayProto, append([]values.Value{}, args...))
		return values.FromObject(values.WrapHandle(env.Heap.Register(arr))), nil
	})
	ctorHandle := values.WrapHandle(env.Heap.Register(ctorFn))
	ctorFn.SetProperty(sc, values.StringKey("prototype"), values.StaticProperty(values.FromObject(env.ArrayProto)))
	obj.SetProperty(sc, values.StringKey("constructor"), values.StaticProperty(values.FromObject(ctorHandle)))

	native(sc, env, ctorFn, "isArray", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		o, ok := arg(args, 0).Object()
		if !ok {
			return values.Bool(false), nil
		}
		_, isArr := o.AsAny().(*runtime.Array)
		return values.Bool(isArr), nil
	})
	native(sc, env, ctorFn, "from", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		src := arg(args, 0)
		if o, ok := src.Object(); ok {
			if a, ok := o.AsAny().(*runtime.Array); ok {
				arr := runtime.NewArray(env.ArrayProto, append([]values.Value{}, a.Elements...))
				return values.FromObject(values.WrapHandle(env.Heap.Register(arr))), nil
			}
		}
		arr := runtime.NewArray(env.ArrayProto, nil)
		return values.FromObject(values.WrapHandle(env.Heap.Register(arr))), nil
	})

	setGlobal(sc, env, "Array", values.FromObject(ctorHandle))
}

func asArray(this values.Value) (*runtime.Array, bool) {
	o, ok := this.Object()
	if !ok {
		return nil, false
	}
	a, ok := o.AsAny().(*runtime.Array)
	return a, ok
}

func arrayPush(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
	a, ok := asArray(this)
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "Array.prototype.push called on a non-array")
	}
	for _, v := range args {
		a.Push(v)
	}
	return values.Number(float64(len(a.Elements))), nil
}

func arrayPop(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
	a, ok := asArray(this)
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "Array.prototype.pop called on a non-array")
	}
	v, _ := a.Pop()
	return v, nil
}

func arrayShift(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
	a, ok := asArray(this)
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "Array.prototype.shift called on a non-array")
	}
	if len(a.Elements) == 0 {
		return values.Undefined(), nil
	}
	v := a.Elements[0]
	a.Elements = a.Elements[1:]
	return v, nil
}

func arrayUnshift(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
	a, ok := asArray(this)
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "Array.prototype.unshift called on a non-array")
	}
	a.Elements = append(append([]values.Value{}, args...), a.Elements...)
	return values.Number(float64(len(a.Elements))), nil
}

func arraySlice(sc values.Scope, env *Env, this values.Value, args []values.Value) (values.Value, error) {
	a, ok := asArray(this)
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "Array.prototype.slice called on a non-array")
	}
	n := len(a.Elements)
	start := sliceIndex(sc, arg(args, 0), n, 0)
	end := sliceIndex(sc, arg(args, 1), n, n)
	if start > end {
		start = end
	}
	out := append([]values.Value{}, a.Elements[start:end]...)
	arr := runtime.NewArray(env.ArrayProto, out)
	return values.FromObject(values.WrapHandle(env.Heap.Register(arr))), nil
}

func sliceIndex(sc values.Scope, v values.Value, length, def int) int {
	if v.IsUndefined() {
		return def
	}
	n, err := values.ToNumber(sc, v)
	if err != nil {
		return def
	}
	idx := int(n)
	if idx < 0 {
		idx += length
	}
	if idx < 0 {
		idx = 0
	}
	if idx > length {
		idx = length
	}
	return idx
}

func arrayJoin(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
	a, ok := asArray(this)
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "Array.prototype.join called on a non-array")
	}
	sep := ","
	if s := arg(args, 0); !s.IsUndefined() {
		v, err := values.ToString(sc, s)
		if err != nil {
			return values.Undefined(), err
		}
		sep = v
	}
	parts := make([]string, len(a.Elements))
	for i, v := range a.Elements {
		if v.IsNullish() {
			parts[i] = ""
			continue
		}
		s, err := values.ToString(sc, v)
		if err != nil {
			return values.Undefined(), err
		}
		parts[i] = s
	}
	return values.String(strings.Join(parts, sep)), nil
}

func arrayIndexOf(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
	a, ok := asArray(this)
	if !ok {
		return values.Number(-1), nil
	}
	target := arg(args, 0)
	for i, v := range a.Elements {
		if values.StrictEquals(v, target) {
			return values.Number(float64(i)), nil
		}
	}
	return values.Number(-1), nil
}

func arrayIncludes(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
	idx, err := arrayIndexOf(sc, this, args)
	if err != nil {
		return values.Undefined(), err
	}
	return values.Bool(idx.Num() >= 0), nil
}

func arrayConcat(sc values.Scope, env *Env, this values.Value, args []values.Value) (values.Value, error) {
	a, ok := asArray(this)
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "Array.prototype.concat called on a non-array")
	}
	out := append([]values.Value{}, a.Elements...)
	for _, v := range args {
		if o, ok := v.Object(); ok {
			if other, ok := o.AsAny().(*runtime.Array); ok {
				out = append(out, other.Elements...)
				continue
			}
		}
		out = append(out, v)
	}
	arr := runtime.NewArray(env.ArrayProto, out)
	return values.FromObject(values.WrapHandle(env.Heap.Register(arr))), nil
}

func arrayReverse(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
	a, ok := asArray(this)
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "Array.prototype.reverse called on a non-array")
	}
	for i, j := 0, len(a.Elements)-1; i < j; i, j = i+1, j-1 {
		a.Elements[i], a.Elements[j] = a.Elements[j], a.Elements[i]
	}
	return this, nil
}

// arrayIterate drives forEach/map's shared callback-over-elements shape;
// the result returned by step is only used by map (forEach discards it by
// always returning zero-value/false and building nothing).
func arrayIterate(sc values.Scope, this values.Value, callback values.Value, step func(v values.Value, i int) (values.Value, bool, error)) (values.Value, error) {
	a, ok := asArray(this)
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "array method called on a non-array")
	}
	cb, ok := callback.Object()
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "callback is not a function")
	}
	for i, v := range a.Elements {
		result, err := cb.Apply(sc, callback.Handle(), values.Undefined(), []values.Value{v, values.Number(float64(i)), this})
		if err != nil {
			return values.Undefined(), err
		}
		if _, _, err := step(result, i); err != nil {
			return values.Undefined(), err
		}
	}
	return values.Undefined(), nil
}

func arraySomeEvery(sc values.Scope, this values.Value, args []values.Value, isSome bool) (values.Value, error) {
	a, ok := asArray(this)
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "array method called on a non-array")
	}
	cb, ok := arg(args, 0).Object()
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "callback is not a function")
	}
	for i, v := range a.Elements {
		result, err := cb.Apply(sc, arg(args, 0).Handle(), values.Undefined(), []values.Value{v, values.Number(float64(i)), this})
		if err != nil {
			return values.Undefined(), err
		}
		truthy := values.ToBoolean(result)
		if isSome && truthy {
			return values.Bool(true), nil
		}
		if !isSome && !truthy {
			return values.Bool(false), nil
		}
	}
	return values.Bool(!isSome), nil
}
