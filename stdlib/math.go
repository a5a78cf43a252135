package stdlib

import (
	gomath "math"
	"math/rand"

	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/values"
)

// installMath builds the `Math` global object. Re-keyed from the teacher's
// runtime/math.go (one Go stdlib math call per builtin, registered in a
// flat table) to this engine's tagged Value/NativeFn shape; Go's math
// package is the only reasonable backend for IEEE-754 transcendental
// functions, so this file is stdlib-only by necessity.
func installMath(sc values.Scope, env *statics.Env, random func() float64) {
	if random == nil {
		random = rand.Float64
	}
	m := newObject(env)
	obj, _ := m.Object()

	obj.SetProperty(sc, values.StringKey("PI"), values.StaticProperty(values.Number(gomath.Pi)))
	obj.SetProperty(sc, values.StringKey("E"), values.StaticProperty(values.Number(gomath.E)))
	obj.SetProperty(sc, values.StringKey("LN2"), values.StaticProperty(values.Number(gomath.Ln2)))
	obj.SetProperty(sc, values.StringKey("LN10"), values.StaticProperty(values.Number(gomath.Log(10))))
	obj.SetProperty(sc, values.StringKey("SQRT2"), values.StaticProperty(values.Number(gomath.Sqrt2)))

	unary := func(fn func(float64) float64) func(values.Scope, values.Value, []values.Value) (values.Value, error) {
		return func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
			n, err := values.ToNumber(sc, arg(args, 0))
			if err != nil {
				return values.Undefined(), err
			}
			return values.Number(fn(n)), nil
		}
	}

	native(sc, env, obj, "abs", unary(gomath.Abs))
	native(sc, env, obj, "floor", unary(gomath.Floor))
	native(sc, env, obj, "ceil", unary(gomath.Ceil))
	native(sc, env, obj, "trunc", unary(gomath.Trunc))
	native(sc, env, obj, "round", unary(func(f float64) float64 { return gomath.Floor(f + 0.5) }))
	native(sc, env, obj, "sqrt", unary(gomath.Sqrt))
	native(sc, env, obj, "cbrt", unary(gomath.Cbrt))
	native(sc, env, obj, "sign", unary(func(f float64) float64 {
		switch {
		case f > 0:
			return 1
		case f < 0:
			return -1
		default:
			return f
		}
	}))
	native(sc, env, obj, "log", unary(gomath.Log))
	native(sc, env, obj, "log2", unary(gomath.Log2))
	native(sc, env, obj, "log10", unary(gomath.Log10))
	native(sc, env, obj, "exp", unary(gomath.Exp))
	native(sc, env, obj, "sin", unary(gomath.Sin))
	native(sc, env, obj, "cos", unary(gomath.Cos))
	native(sc, env, obj, "tan", unary(gomath.Tan))
	native(sc, env, obj, "atan", unary(gomath.Atan))

	native(sc, env, obj, "pow", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		base, err := values.ToNumber(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		exp, err := values.ToNumber(sc, arg(args, 1))
		if err != nil {
			return values.Undefined(), err
		}
		return values.Number(gomath.Pow(base, exp)), nil
	})
	native(sc, env, obj, "atan2", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		y, err := values.ToNumber(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		x, err := values.ToNumber(sc, arg(args, 1))
		if err != nil {
			return values.Undefined(), err
		}
		return values.Number(gomath.Atan2(y, x)), nil
	})
	native(sc, env, obj, "hypot", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		x, err := values.ToNumber(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		y, err := values.ToNumber(sc, arg(args, 1))
		if err != nil {
			return values.Undefined(), err
		}
		return values.Number(gomath.Hypot(x, y)), nil
	})
	native(sc, env, obj, "min", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return minMax(sc, args, gomath.Inf(1), gomath.Min)
	})
	native(sc, env, obj, "max", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return minMax(sc, args, gomath.Inf(-1), gomath.Max)
	})
	native(sc, env, obj, "random", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return values.Number(random()), nil
	})

	setGlobal(sc, env, "Math", values.FromObject(m))
}

func minMax(sc values.Scope, args []values.Value, init float64, combine func(a, b float64) float64) (values.Value, error) {
	result := init
	for _, a := range args {
		n, err := values.ToNumber(sc, a)
		if err != nil {
			return values.Undefined(), err
		}
		result = combine(result, n)
	}
	return values.Number(result), nil
}
