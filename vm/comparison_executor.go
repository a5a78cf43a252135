package vm

import (
	"math"

	"github.com/vela-lang/vela/opcodes"
	"github.com/vela-lang/vela/values"
)

// execComparison implements the Comparison family plus LogicalNot.
// Equality delegates to values.Equals/StrictEquals; relational operators
// follow ECMA-262's abstract relational comparison (ToPrimitive with a
// number hint, then string-compare if both sides stayed strings,
// otherwise ToNumber both).
func (vm *VM) execComparison(frame *Frame, op opcodes.Op) error {
	sc := vm.scope()

	if op == opcodes.LogicalNot {
		v := frame.pop()
		frame.push(values.Bool(!values.ToBoolean(v)))
		return nil
	}

	right := frame.pop()
	left := frame.pop()

	switch op {
	case opcodes.Eq:
		eq, err := values.Equals(sc, left, right)
		if err != nil {
			return err
		}
		frame.push(values.Bool(eq))
		return nil
	case opcodes.Neq:
		eq, err := values.Equals(sc, left, right)
		if err != nil {
			return err
		}
		frame.push(values.Bool(!eq))
		return nil
	case opcodes.StrictEq:
		frame.push(values.Bool(values.StrictEquals(left, right)))
		return nil
	case opcodes.StrictNeq:
		frame.push(values.Bool(!values.StrictEquals(left, right)))
		return nil
	case opcodes.InstanceOf:
		ok, err := vm.instanceOf(sc, left, right)
		if err != nil {
			return err
		}
		frame.push(values.Bool(ok))
		return nil
	}

	lp, err := values.ToPrimitive(sc, left, "number")
	if err != nil {
		return err
	}
	rp, err := values.ToPrimitive(sc, right, "number")
	if err != nil {
		return err
	}
	if lp.Kind == values.KindString && rp.Kind == values.KindString {
		frame.push(values.Bool(compareStrings(op, lp.Str(), rp.Str())))
		return nil
	}
	ln, err := values.ToNumber(sc, lp)
	if err != nil {
		return err
	}
	rn, err := values.ToNumber(sc, rp)
	if err != nil {
		return err
	}
	if math.IsNaN(ln) || math.IsNaN(rn) {
		frame.push(values.Bool(false))
		return nil
	}
	frame.push(values.Bool(compareNumbers(op, ln, rn)))
	return nil
}

func compareStrings(op opcodes.Op, l, r string) bool {
	switch op {
	case opcodes.Lt:
		return l < r
	case opcodes.Le:
		return l <= r
	case opcodes.Gt:
		return l > r
	case opcodes.Ge:
		return l >= r
	}
	return false
}

func compareNumbers(op opcodes.Op, l, r float64) bool {
	switch op {
	case opcodes.Lt:
		return l < r
	case opcodes.Le:
		return l <= r
	case opcodes.Gt:
		return l > r
	case opcodes.Ge:
		return l >= r
	}
	return false
}

// instanceOf walks value's prototype chain looking for ctor's "prototype"
// property, per ECMA-262's OrdinaryHasInstance.
func (vm *VM) instanceOf(sc values.Scope, value, ctor values.Value) (bool, error) {
	ctorObj, ok := ctor.Object()
	if !ok {
		return false, sc.NewError("TypeError", "right-hand side of instanceof is not callable")
	}
	protoVal, err := ctorObj.GetProperty(sc, values.StringKey("prototype"))
	if err != nil {
		return false, err
	}
	targetProto := protoVal.Handle()
	if targetProto.IsNil() {
		return false, nil
	}

	obj, ok := value.Object()
	if !ok {
		return false, nil
	}
	cur, err := obj.GetPrototype(sc)
	if err != nil {
		return false, err
	}
	for {
		if cur.Kind != values.KindObject && cur.Kind != values.KindExternal {
			return false, nil
		}
		if cur.Handle().Equal(targetProto) {
			return true, nil
		}
		curObj, ok := cur.Object()
		if !ok {
			return false, nil
		}
		cur, err = curObj.GetPrototype(sc)
		if err != nil {
			return false, err
		}
	}
}
