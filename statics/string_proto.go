package statics

import (
	"strings"

	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

// installStringProto wires the String.prototype method set raw string
// primitives reach through the vm's transient boxing. Every method
// coerces its receiver with ToString since a method call's `this` is the
// raw primitive, not the box (the box only lives for the property
// lookup itself). Indexing and length live on values.StringObject, not
// here.
func installStringProto(sc values.Scope, env *Env) {
	obj, _ := env.StringProto.Object()

	str1 := func(name string, fn func(sc values.Scope, s string, args []values.Value) values.Value) {
		native(sc, env, obj, name, func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
			s, err := values.ToString(sc, this)
			if err != nil {
				return values.Undefined(), err
			}
			return fn(sc, s, args), nil
		})
	}

	str1("charAt", func(sc values.Scope, s string, args []values.Value) values.Value {
		i := int(arg(args, 0).Num())
		if i < 0 || i >= len(s) {
			return values.String("")
		}
		return values.String(string(s[i]))
	})
	str1("charCodeAt", func(sc values.Scope, s string, args []values.Value) values.Value {
		i := int(arg(args, 0).Num())
		if i < 0 || i >= len(s) {
			return values.Number(nan())
		}
		return values.Number(float64(s[i]))
	})
	str1("indexOf", func(sc values.Scope, s string, args []values.Value) values.Value {
		needle, _ := stringArg(sc, args, 0)
		return values.Number(float64(strings.Index(s, needle)))
	})
	str1("lastIndexOf", func(sc values.Scope, s string, args []values.Value) values.Value {
		needle, _ := stringArg(sc, args, 0)
		return values.Number(float64(strings.LastIndex(s, needle)))
	})
	str1("includes", func(sc values.Scope, s string, args []values.Value) values.Value {
		needle, _ := stringArg(sc, args, 0)
		return values.Bool(strings.Contains(s, needle))
	})
	str1("startsWith", func(sc values.Scope, s string, args []values.Value) values.Value {
		needle, _ := stringArg(sc, args, 0)
		return values.Bool(strings.HasPrefix(s, needle))
	})
	str1("endsWith", func(sc values.Scope, s string, args []values.Value) values.Value {
		needle, _ := stringArg(sc, args, 0)
		return values.Bool(strings.HasSuffix(s, needle))
	})
	str1("toUpperCase", func(sc values.Scope, s string, args []values.Value) values.Value {
		return values.String(strings.ToUpper(s))
	})
	str1("toLowerCase", func(sc values.Scope, s string, args []values.Value) values.Value {
		return values.String(strings.ToLower(s))
	})
	str1("trim", func(sc values.Scope, s string, args []values.Value) values.Value {
		return values.String(strings.TrimSpace(s))
	})
	str1("repeat", func(sc values.Scope, s string, args []values.Value) values.Value {
		n := int(arg(args, 0).Num())
		if n < 0 {
			n = 0
		}
		return values.String(strings.Repeat(s, n))
	})
	str1("slice", func(sc values.Scope, s string, args []values.Value) values.Value {
		start, end := sliceBounds(len(s), args)
		return values.String(s[start:end])
	})
	str1("substring", func(sc values.Scope, s string, args []values.Value) values.Value {
		start, end := sliceBounds(len(s), args)
		return values.String(s[start:end])
	})
	str1("concat", func(sc values.Scope, s string, args []values.Value) values.Value {
		var sb strings.Builder
		sb.WriteString(s)
		for _, a := range args {
			part, err := values.ToString(sc, a)
			if err == nil {
				sb.WriteString(part)
			}
		}
		return values.String(sb.String())
	})

	native(sc, env, obj, "split", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		s, err := values.ToString(sc, this)
		if err != nil {
			return values.Undefined(), err
		}
		var parts []string
		if sep := arg(args, 0); sep.IsUndefined() {
			parts = []string{s}
		} else {
			sepStr, err := values.ToString(sc, sep)
			if err != nil {
				return values.Undefined(), err
			}
			parts = strings.Split(s, sepStr)
		}
		elements := make([]values.Value, len(parts))
		for i, p := range parts {
			elements[i] = values.String(p)
		}
		arr := runtime.NewArray(env.ArrayProto, elements)
		return values.FromObject(values.WrapHandle(env.Heap.Register(arr))), nil
	})

	native(sc, env, obj, "toString", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		s, err := values.ToString(sc, this)
		if err != nil {
			return values.Undefined(), err
		}
		return values.String(s), nil
	})
	native(sc, env, obj, "valueOf", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		s, err := values.ToString(sc, this)
		if err != nil {
			return values.Undefined(), err
		}
		return values.String(s), nil
	})
}

func stringArg(sc values.Scope, args []values.Value, i int) (string, error) {
	return values.ToString(sc, arg(args, i))
}

// sliceBounds resolves the optional start/end arguments the slice-family
// methods share, clamping negatives from the end and everything into
// range.
func sliceBounds(n int, args []values.Value) (int, int) {
	start, end := 0, n
	if a := arg(args, 0); !a.IsUndefined() {
		start = clampIndex(int(a.Num()), n)
	}
	if a := arg(args, 1); !a.IsUndefined() {
		end = clampIndex(int(a.Num()), n)
	}
	if start > end {
		return end, end
	}
	return start, end
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
