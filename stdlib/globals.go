package stdlib

import (
	"math"
	"strconv"
	"strings"

	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/values"
)

// installGlobals wires the handful of free-standing global functions that
// don't belong to any object: parseInt/parseFloat/isNaN/isFinite. Grounded
// on the teacher's runtime/type.go conversion-function table, re-keyed
// from PHP's loose int/float split to IEEE-754 float64 throughout.
func installGlobals(sc values.Scope, env *statics.Env) {
	g, _ := env.Global.Object()

	native(sc, env, g, "parseInt", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		s, err := values.ToString(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		s = strings.TrimSpace(s)
		radix := 10
		if r := arg(args, 1); !r.IsUndefined() {
			n, err := values.ToNumber(sc, r)
			if err == nil && n != 0 {
				radix = int(n)
			}
		}
		neg := false
		if strings.HasPrefix(s, "-") {
			neg = true
			s = s[1:]
		} else if strings.HasPrefix(s, "+") {
			s = s[1:]
		}
		if radix == 16 || radix == 10 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
			s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
			radix = 16
		}
		end := 0
		for end < len(s) && isDigitInRadix(s[end], radix) {
			end++
		}
		if end == 0 {
			return values.Number(math.NaN()), nil
		}
		n, err := strconv.ParseInt(s[:end], radix, 64)
		if err != nil {
			return values.Number(math.NaN()), nil
		}
		if neg {
			n = -n
		}
		return values.Number(float64(n)), nil
	})

	native(sc, env, g, "parseFloat", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		s, err := values.ToString(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		s = strings.TrimSpace(s)
		end := 0
		seenDot, seenExp := false, false
		for end < len(s) {
			c := s[end]
			if c >= '0' && c <= '9' {
				end++
				continue
			}
			if c == '.' && !seenDot && !seenExp {
				seenDot = true
				end++
				continue
			}
			if (c == 'e' || c == 'E') && !seenExp && end > 0 {
				j := end + 1
				if j < len(s) && (s[j] == '+' || s[j] == '-') {
					j++
				}
				if j >= len(s) || s[j] < '0' || s[j] > '9' {
					break
				}
				seenExp = true
				end = j
				continue
			}
			if (c == '-' || c == '+') && end == 0 {
				end++
				continue
			}
			break
		}
		if end == 0 {
			return values.Number(math.NaN()), nil
		}
		f, err := strconv.ParseFloat(s[:end], 64)
		if err != nil {
			return values.Number(math.NaN()), nil
		}
		return values.Number(f), nil
	})

	native(sc, env, g, "isNaN", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		n, err := values.ToNumber(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		return values.Bool(math.IsNaN(n)), nil
	})

	native(sc, env, g, "isFinite", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		n, err := values.ToNumber(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		return values.Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	})

	native(sc, env, g, "String", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		s, err := values.ToString(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		return values.String(s), nil
	})

	native(sc, env, g, "Number", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		if len(args) == 0 {
			return values.Number(0), nil
		}
		n, err := values.ToNumber(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		return values.Number(n), nil
	})

	native(sc, env, g, "Boolean", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return values.Bool(values.ToBoolean(arg(args, 0))), nil
	})
}

func isDigitInRadix(c byte, radix int) bool {
	var v int
	switch {
	case c >= '0' && c <= '9':
		v = int(c - '0')
	case c >= 'a' && c <= 'z':
		v = int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		v = int(c-'A') + 10
	default:
		return false
	}
	return v < radix
}
