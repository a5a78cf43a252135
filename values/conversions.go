package values

import (
	"math"
	"strconv"
)

// ToBoolean implements the ToBoolean abstract operation.
func ToBoolean(v Value) bool {
	switch v.Kind {
	case KindUndefined, KindNull:
		return false
	case KindBoolean:
		return v.Bool()
	case KindNumber:
		f := v.Num()
		return f != 0 && !math.IsNaN(f)
	case KindString:
		return v.Str() != ""
	case KindSymbol:
		return true
	case KindObject, KindExternal:
		return true
	default:
		return false
	}
}

// ToNumber implements the ToNumber abstract operation. Objects go through
// ToPrimitive first, per ECMA-262; symbols have no numeric conversion and
// throw a TypeError.
func ToNumber(sc Scope, v Value) (float64, error) {
	switch v.Kind {
	case KindUndefined:
		return math.NaN(), nil
	case KindNull:
		return 0, nil
	case KindBoolean:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	case KindNumber:
		return v.Num(), nil
	case KindString:
		return stringToNumber(v.Str()), nil
	case KindSymbol:
		return 0, sc.NewError("TypeError", "cannot convert a Symbol value to a number")
	case KindObject, KindExternal:
		prim, err := ToPrimitive(sc, v, "number")
		if err != nil {
			return 0, err
		}
		if prim.Kind == KindObject || prim.Kind == KindExternal {
			return math.NaN(), nil
		}
		return ToNumber(sc, prim)
	default:
		return math.NaN(), nil
	}
}

func stringToNumber(s string) float64 {
	trimmed := trimJSWhitespace(s)
	if trimmed == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	if i, err := strconv.ParseInt(trimmed, 0, 64); err == nil {
		return float64(i)
	}
	return math.NaN()
}

func trimJSWhitespace(s string) string {
	start, end := 0, len(s)
	isSpace := func(b byte) bool {
		switch b {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			return true
		default:
			return false
		}
	}
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

// ToString implements the abstract ToString operation. Symbols throw,
// per ECMA-262 (String(sym) is allowed but implicit coercion is not); this
// engine only exposes the implicit path, so ToString always rejects
// symbols and callers that want String(sym) semantics should special-case
// KindSymbol before calling in.
func ToString(sc Scope, v Value) (string, error) {
	switch v.Kind {
	case KindUndefined:
		return "undefined", nil
	case KindNull:
		return "null", nil
	case KindBoolean:
		if v.Bool() {
			return "true", nil
		}
		return "false", nil
	case KindNumber:
		return NumberToString(v.Num()), nil
	case KindString:
		return v.Str(), nil
	case KindSymbol:
		return "", sc.NewError("TypeError", "cannot convert a Symbol value to a string")
	case KindObject, KindExternal:
		prim, err := ToPrimitive(sc, v, "string")
		if err != nil {
			return "", err
		}
		if prim.Kind == KindObject || prim.Kind == KindExternal {
			return "[object Object]", nil
		}
		return ToString(sc, prim)
	default:
		return "", nil
	}
}

// NumberToString renders a float64 the way JS's Number.prototype.toString
// would for the common (non-scientific, non-radix) case.
func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		if math.Signbit(f) {
			return "0" // JS prints -0 as "0" when stringified
		}
		return "0"
	}
	if a := math.Abs(f); a >= 1e-6 && a < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ToPrimitive calls valueOf/toString (in the order implied by hint) on an
// object, per ECMA-262's OrdinaryToPrimitive. hint is "number", "string",
// or "default".
func ToPrimitive(sc Scope, v Value, hint string) (Value, error) {
	if v.Kind != KindObject && v.Kind != KindExternal {
		return v, nil
	}
	obj, ok := v.Object()
	if !ok {
		return v, nil
	}
	if bc, ok := AsBuiltinCapable(obj); ok {
		return bc.PrimitiveValue(), nil
	}

	methods := []string{"valueOf", "toString"}
	if hint == "string" {
		methods = []string{"toString", "valueOf"}
	}

	for _, name := range methods {
		prop, err := obj.GetProperty(sc, StringKey(name))
		if err != nil {
			return Value{}, err
		}
		fn, ok := prop.Object()
		if !ok {
			continue
		}
		result, err := fn.Apply(sc, prop.Handle(), v, nil)
		if err != nil {
			return Value{}, err
		}
		if result.Kind != KindObject && result.Kind != KindExternal {
			return result, nil
		}
	}
	return Value{}, sc.NewError("TypeError", "cannot convert object to primitive value")
}

// ToInt32 implements the ToInt32 abstract operation used by bitwise ops.
func ToInt32(sc Scope, v Value) (int32, error) {
	f, err := ToNumber(sc, v)
	if err != nil {
		return 0, err
	}
	return float64ToInt32(f), nil
}

func float64ToInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return 0
	}
	mod := math.Mod(math.Trunc(f), 4294967296)
	if mod < 0 {
		mod += 4294967296
	}
	if mod >= 2147483648 {
		mod -= 4294967296
	}
	return int32(mod)
}

// ToUint32 implements the ToUint32 abstract operation.
func ToUint32(sc Scope, v Value) (uint32, error) {
	f, err := ToNumber(sc, v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return 0, nil
	}
	mod := math.Mod(math.Trunc(f), 4294967296)
	if mod < 0 {
		mod += 4294967296
	}
	return uint32(mod), nil
}

// StrictEquals implements the === operator. Go's float64 comparison
// already gives NaN-normalized, +0==-0 semantics for free (spec.md
// section 3), so Number compares with plain ==.
func StrictEquals(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean:
		return a.Bool() == b.Bool()
	case KindNumber:
		return a.Num() == b.Num()
	case KindString:
		return a.Str() == b.Str()
	case KindSymbol:
		return a.Symbol().Equal(b.Symbol())
	case KindObject, KindExternal:
		return a.Handle().Equal(b.Handle())
	default:
		return false
	}
}

// Equals implements the abstract (==) equality operation.
func Equals(sc Scope, a, b Value) (bool, error) {
	if a.Kind == b.Kind {
		return StrictEquals(a, b), nil
	}
	if a.IsNullish() && b.IsNullish() {
		return true, nil
	}
	if a.IsNullish() || b.IsNullish() {
		return false, nil
	}
	if a.Kind == KindNumber && b.Kind == KindString {
		bn, err := ToNumber(sc, b)
		if err != nil {
			return false, err
		}
		return a.Num() == bn, nil
	}
	if a.Kind == KindString && b.Kind == KindNumber {
		return Equals(sc, b, a)
	}
	if a.Kind == KindBoolean {
		an, _ := ToNumber(sc, a)
		return Equals(sc, Number(an), b)
	}
	if b.Kind == KindBoolean {
		bn, _ := ToNumber(sc, b)
		return Equals(sc, a, Number(bn))
	}
	if (a.Kind == KindObject || a.Kind == KindExternal) && (b.Kind == KindNumber || b.Kind == KindString) {
		prim, err := ToPrimitive(sc, a, "default")
		if err != nil {
			return false, err
		}
		return Equals(sc, prim, b)
	}
	if (b.Kind == KindObject || b.Kind == KindExternal) && (a.Kind == KindNumber || a.Kind == KindString) {
		return Equals(sc, b, a)
	}
	return false, nil
}
