package opcodes_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vela-lang/vela/opcodes"
)

func TestOpStringNamesKnownOpcodes(t *testing.T) {
	require.Equal(t, "Add", opcodes.Add.String())
	require.Equal(t, "Yield", opcodes.Yield.String())
}

func TestOpStringFallsBackForUnknownByte(t *testing.T) {
	require.Contains(t, opcodes.Op(255).String(), "Op(255)")
}

func TestWidthMatchesOperandBearingInstructions(t *testing.T) {
	require.Equal(t, 2, opcodes.Constant.Width())
	require.Equal(t, 2, opcodes.FunctionCall.Width())
	require.Equal(t, 0, opcodes.Add.Width())
	require.Equal(t, 0, opcodes.Pop.Width())
	require.Equal(t, 2, opcodes.ShortJmpIfFalse.Width())
	require.Equal(t, 2, opcodes.IterNext.Width())
	require.Equal(t, 2, opcodes.EvaluateModule.Width())
	require.Equal(t, 2, opcodes.ExportNamed.Width())
	require.Equal(t, 0, opcodes.ExportDefault.Width())
}

func TestFamiliesDoNotOverlapNumerically(t *testing.T) {
	seen := map[opcodes.Op]bool{}
	all := []opcodes.Op{
		opcodes.Nop, opcodes.Constant, opcodes.Pop, opcodes.Dup,
		opcodes.Add, opcodes.Sub, opcodes.Mul, opcodes.Div, opcodes.Rem, opcodes.Pow,
		opcodes.Negate, opcodes.Positive,
		opcodes.BitOr, opcodes.BitAnd, opcodes.BitXor, opcodes.BitShl, opcodes.BitShr, opcodes.BitUShr, opcodes.BitNot,
		opcodes.Lt, opcodes.Le, opcodes.Gt, opcodes.Ge, opcodes.Eq, opcodes.Neq, opcodes.StrictEq, opcodes.StrictNeq, opcodes.InstanceOf,
		opcodes.LogicalNot, opcodes.ShortJmpIfFalse, opcodes.ShortJmpIfTrue, opcodes.ShortJmpIfNullish,
		opcodes.GetLocal, opcodes.SetLocal, opcodes.GetUpvalue, opcodes.SetUpvalue, opcodes.GetGlobal, opcodes.SetGlobal,
		opcodes.TypeOf, opcodes.Delete, opcodes.Void, opcodes.In,
		opcodes.StaticPropertyAccess, opcodes.ComputedPropertyAccess, opcodes.SetProperty, opcodes.DeleteProperty,
		opcodes.ObjectLiteral, opcodes.ArrayLiteral, opcodes.SpreadArray,
		opcodes.FunctionCall, opcodes.ConstructorCall, opcodes.Return, opcodes.ReturnModule,
		opcodes.Jmp, opcodes.BackJmp, opcodes.LoopStart, opcodes.LoopEnd, opcodes.Break, opcodes.Continue,
		opcodes.IterInit, opcodes.IterNext,
		opcodes.Try, opcodes.PopUnwindHandler, opcodes.Throw,
		opcodes.Yield, opcodes.Await,
		opcodes.Closure, opcodes.UpvalueLocal, opcodes.UpvalueNonLocal, opcodes.This, opcodes.Super, opcodes.GlobalThis,
		opcodes.EvaluateModule, opcodes.ExportDefault, opcodes.ExportNamed,
	}
	for _, op := range all {
		require.False(t, seen[op], "duplicate opcode value for %s", op)
		seen[op] = true
	}
}
