package vm

import (
	"math"

	"github.com/vela-lang/vela/opcodes"
	"github.com/vela-lang/vela/values"
)

// execArithmetic implements the Arithmetic and Bitwise opcode families.
// Grounded on the teacher's arithmetic_executor.go
// (_examples/wudi-hey/vm/arithmetic_executor.go) for keeping numeric
// opcodes in their own file; the actual coercion rules delegate straight
// to values.ToNumber/ToPrimitive/ToInt32/ToUint32 rather than
// reimplementing ECMA-262's abstract operations here.
func (vm *VM) execArithmetic(frame *Frame, op opcodes.Op) error {
	sc := vm.scope()

	switch op {
	case opcodes.Negate:
		v := frame.pop()
		n, err := values.ToNumber(sc, v)
		if err != nil {
			return err
		}
		frame.push(values.Number(-n))
		return nil
	case opcodes.Positive:
		v := frame.pop()
		n, err := values.ToNumber(sc, v)
		if err != nil {
			return err
		}
		frame.push(values.Number(n))
		return nil
	case opcodes.BitNot:
		v := frame.pop()
		n, err := values.ToInt32(sc, v)
		if err != nil {
			return err
		}
		frame.push(values.Number(float64(^n)))
		return nil
	}

	right := frame.pop()
	left := frame.pop()

	if op == opcodes.Add {
		return vm.execAdd(frame, left, right)
	}

	switch op {
	case opcodes.Sub, opcodes.Mul, opcodes.Div, opcodes.Rem, opcodes.Pow:
		ln, err := values.ToNumber(sc, left)
		if err != nil {
			return err
		}
		rn, err := values.ToNumber(sc, right)
		if err != nil {
			return err
		}
		frame.push(values.Number(applyNumeric(op, ln, rn)))
		return nil
	case opcodes.BitOr, opcodes.BitAnd, opcodes.BitXor, opcodes.BitShl, opcodes.BitShr:
		li, err := values.ToInt32(sc, left)
		if err != nil {
			return err
		}
		ri, err := values.ToInt32(sc, right)
		if err != nil {
			return err
		}
		frame.push(values.Number(float64(applyBitwise(op, li, ri))))
		return nil
	case opcodes.BitUShr:
		lu, err := values.ToUint32(sc, left)
		if err != nil {
			return err
		}
		ru, err := values.ToInt32(sc, right)
		if err != nil {
			return err
		}
		frame.push(values.Number(float64(lu >> (uint32(ru) & 31))))
		return nil
	}
	return sc.NewError("SyntaxError", "unhandled arithmetic opcode %s", op)
}

// execAdd implements `+`, which unlike every other arithmetic operator
// must try string concatenation before falling back to numeric addition,
// per ECMA-262's AddOperation: ToPrimitive both operands first, and if
// either primitive is a string, concatenate; otherwise ToNumber both.
func (vm *VM) execAdd(frame *Frame, left, right values.Value) error {
	sc := vm.scope()
	lp, err := values.ToPrimitive(sc, left, "default")
	if err != nil {
		return err
	}
	rp, err := values.ToPrimitive(sc, right, "default")
	if err != nil {
		return err
	}
	if lp.Kind == values.KindString || rp.Kind == values.KindString {
		ls, err := values.ToString(sc, lp)
		if err != nil {
			return err
		}
		rs, err := values.ToString(sc, rp)
		if err != nil {
			return err
		}
		frame.push(values.String(ls + rs))
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
	frame.push(values.Number(ln + rn))
	return nil
}

func applyNumeric(op opcodes.Op, l, r float64) float64 {
	switch op {
	case opcodes.Sub:
		return l - r
	case opcodes.Mul:
		return l * r
	case opcodes.Div:
		return l / r
	case opcodes.Rem:
		return math.Mod(l, r)
	case opcodes.Pow:
		return math.Pow(l, r)
	}
	return math.NaN()
}

func applyBitwise(op opcodes.Op, l, r int32) int32 {
	switch op {
	case opcodes.BitOr:
		return l | r
	case opcodes.BitAnd:
		return l & r
	case opcodes.BitXor:
		return l ^ r
	case opcodes.BitShl:
		return l << (uint32(r) & 31)
	case opcodes.BitShr:
		return l >> (uint32(r) & 31)
	}
	return 0
}
