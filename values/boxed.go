package values

import "strconv"

// boxedPrimitive is the common core of the wrapper objects primitives
// box into when accessed through the object protocol (spec.md section
// 3's boxing hierarchy): a NamedObject carrying the wrapped primitive,
// exposed through the BuiltinCapable downcast so conversion and equality
// code treats a box and its raw primitive uniformly.
type boxedPrimitive struct {
	*NamedObject
	primitive Value
}

func (b *boxedPrimitive) PrimitiveValue() Value { return b.primitive }

// StringObject boxes a string. Its own properties are "length" and the
// character indices; everything else resolves through String.prototype.
// Indexing is by byte, matching the engine-wide non-goal of precise
// Unicode handling in string operations.
type StringObject struct {
	boxedPrimitive
}

func NewStringObject(prototype ObjectHandle, s string) *StringObject {
	return &StringObject{boxedPrimitive{
		NamedObject: NewNamedObject(prototype, ObjectHandle{}),
		primitive:   String(s),
	}}
}

func (s *StringObject) AsAny() any { return s }

func (s *StringObject) GetProperty(sc Scope, key PropertyKey) (Value, error) {
	if !key.IsSymbol() {
		str := s.primitive.Str()
		if key.String() == "length" {
			return Number(float64(len(str))), nil
		}
		if idx, err := strconv.Atoi(key.String()); err == nil {
			if idx < 0 || idx >= len(str) {
				return Undefined(), nil
			}
			return String(string(str[idx])), nil
		}
	}
	return s.NamedObject.GetProperty(sc, key)
}

// NumberObject boxes a float64; only its prototype chain distinguishes
// it from a plain object.
type NumberObject struct {
	boxedPrimitive
}

func NewNumberObject(prototype ObjectHandle, n float64) *NumberObject {
	return &NumberObject{boxedPrimitive{
		NamedObject: NewNamedObject(prototype, ObjectHandle{}),
		primitive:   Number(n),
	}}
}

func (n *NumberObject) AsAny() any { return n }

// BooleanObject boxes a bool.
type BooleanObject struct {
	boxedPrimitive
}

func NewBooleanObject(prototype ObjectHandle, b bool) *BooleanObject {
	return &BooleanObject{boxedPrimitive{
		NamedObject: NewNamedObject(prototype, ObjectHandle{}),
		primitive:   Bool(b),
	}}
}

func (b *BooleanObject) AsAny() any { return b }
