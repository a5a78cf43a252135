package legacy_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vela-lang/vela/legacy"
	"github.com/vela-lang/vela/values"
)

func op(o legacy.Op) byte { return byte(o) }

func wide(v int) []byte { return []byte{byte(v), byte(v >> 8)} }

func TestArithmetic(t *testing.T) {
	// 2 + 3 * 4, with the multiplication pre-ordered by the "compiler"
	// (this package has none; instruction streams are hand-assembled).
	buf := []byte{op(legacy.OpConstant)}
	buf = append(buf, wide(1)...)
	buf = append(buf, op(legacy.OpConstant))
	buf = append(buf, wide(2)...)
	buf = append(buf, op(legacy.OpMul))
	buf = append(buf, op(legacy.OpConstant))
	buf = append(buf, wide(0)...)
	buf = append(buf, op(legacy.OpAdd))
	buf = append(buf, op(legacy.OpReturn))

	vm := legacy.New()
	v, err := vm.Execute(&legacy.Frame{
		Buffer:    buf,
		Constants: []values.Value{values.Number(2), values.Number(3), values.Number(4)},
	})
	require.NoError(t, err)
	require.Equal(t, float64(14), v.Num())
}

func TestLoopWithLocals(t *testing.T) {
	// local0 = 0; local1 = 0; while (local1 < 10) { local0 += local1; local1 += 1 } return local0
	var buf []byte
	emit := func(o legacy.Op, operand ...int) {
		buf = append(buf, op(o))
		if len(operand) > 0 {
			buf = append(buf, wide(operand[0])...)
		}
	}
	emit(legacy.OpConstant, 0) // 0
	emit(legacy.OpSetLocal, 0)
	emit(legacy.OpConstant, 0)
	emit(legacy.OpSetLocal, 1)
	loopStart := len(buf)
	emit(legacy.OpGetLocal, 1)
	emit(legacy.OpConstant, 1) // 10
	emit(legacy.OpLt)
	jmpFalseOperand := len(buf) + 1
	emit(legacy.OpJmpFalse, 0)
	emit(legacy.OpGetLocal, 0)
	emit(legacy.OpGetLocal, 1)
	emit(legacy.OpAdd)
	emit(legacy.OpSetLocal, 0)
	emit(legacy.OpGetLocal, 1)
	emit(legacy.OpConstant, 2) // 1
	emit(legacy.OpAdd)
	emit(legacy.OpSetLocal, 1)
	emit(legacy.OpJmp, loopStart)
	end := len(buf)
	buf[jmpFalseOperand] = byte(end)
	buf[jmpFalseOperand+1] = byte(end >> 8)
	emit(legacy.OpGetLocal, 0)
	emit(legacy.OpReturn)

	vm := legacy.New()
	v, err := vm.Execute(&legacy.Frame{
		Buffer:    buf,
		Constants: []values.Value{values.Number(0), values.Number(10), values.Number(1)},
		Locals:    2,
	})
	require.NoError(t, err)
	require.Equal(t, float64(45), v.Num())
}

func TestUnknownOpcodeErrors(t *testing.T) {
	vm := legacy.New()
	_, err := vm.Execute(&legacy.Frame{Buffer: []byte{0xFF}})
	require.Error(t, err)
}
