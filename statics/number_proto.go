package statics

import (
	"strconv"

	"github.com/vela-lang/vela/values"
)

// installNumberProto wires Number.prototype, reached by raw numbers
// through the vm's transient boxing (`(1.5).toFixed(1)`).
func installNumberProto(sc values.Scope, env *Env) {
	obj, _ := env.NumberProto.Object()

	native(sc, env, obj, "toFixed", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		n, err := values.ToNumber(sc, this)
		if err != nil {
			return values.Undefined(), err
		}
		digits := int(arg(args, 0).Num())
		if digits < 0 || digits > 100 {
			return values.Undefined(), sc.NewError("RangeError", "toFixed() digits argument must be between 0 and 100")
		}
		return values.String(strconv.FormatFloat(n, 'f', digits, 64)), nil
	})
	native(sc, env, obj, "toString", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		n, err := values.ToNumber(sc, this)
		if err != nil {
			return values.Undefined(), err
		}
		radix := 10
		if r := arg(args, 0); !r.IsUndefined() {
			radix = int(r.Num())
		}
		if radix < 2 || radix > 36 {
			return values.Undefined(), sc.NewError("RangeError", "toString() radix must be between 2 and 36")
		}
		if radix == 10 {
			return values.String(strconv.FormatFloat(n, 'g', -1, 64)), nil
		}
		return values.String(strconv.FormatInt(int64(n), radix)), nil
	})
	native(sc, env, obj, "valueOf", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		n, err := values.ToNumber(sc, this)
		if err != nil {
			return values.Undefined(), err
		}
		return values.Number(n), nil
	})
}

// installBooleanProto wires Boolean.prototype's small method pair.
func installBooleanProto(sc values.Scope, env *Env) {
	obj, _ := env.BooleanProto.Object()

	native(sc, env, obj, "toString", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		if values.ToBoolean(this) {
			return values.String("true"), nil
		}
		return values.String("false"), nil
	})
	native(sc, env, obj, "valueOf", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return values.Bool(values.ToBoolean(this)), nil
	})
}
