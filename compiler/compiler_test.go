package compiler_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vela-lang/vela/compiler"
	"github.com/vela-lang/vela/lexer"
	"github.com/vela-lang/vela/opcodes"
	"github.com/vela-lang/vela/parser"
	"github.com/vela-lang/vela/registry"
)

// decode walks a compiled code buffer into its opcode sequence, skipping
// each instruction's operand bytes, so tests can assert on instruction
// shape without hand-computing jump offsets.
func decode(t *testing.T, code []byte) []opcodes.Op {
	t.Helper()
	var ops []opcodes.Op
	i := 0
	for i < len(code) {
		op := opcodes.Op(code[i])
		ops = append(ops, op)
		i += 1 + op.Width()
	}
	return ops
}

func u16At(code []byte, opIndex int) int {
	return int(binary.LittleEndian.Uint16(code[opIndex+1 : opIndex+3]))
}

func TestCompilesArithmeticExpressionWithPrecedence(t *testing.T) {
	p := parser.New(lexer.New("1 + 2 * 3;"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors(), c.Errors().String())

	ops := decode(t, fn.Code)
	require.Equal(t, []opcodes.Op{
		opcodes.Constant, opcodes.Constant, opcodes.Constant,
		opcodes.Mul, opcodes.Add, opcodes.Pop,
		opcodes.Constant, opcodes.Return,
	}, ops)
	require.Equal(t, []float64{1, 2, 3}, []float64{
		fn.Constants[0].Num(), fn.Constants[1].Num(), fn.Constants[2].Num(),
	})
	require.True(t, fn.Constants[3].IsUndefined())
}

func TestCompilesVariableDeclarationAndGet(t *testing.T) {
	p := parser.New(lexer.New("let x = 5; x;"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors())

	ops := decode(t, fn.Code)
	require.Equal(t, []opcodes.Op{
		opcodes.Constant, opcodes.SetLocal, opcodes.Pop,
		opcodes.GetLocal, opcodes.Pop,
		opcodes.Constant, opcodes.Return,
	}, ops)
	require.Equal(t, 1, fn.LocalCount)
}

func TestCompilesIfElseWithJumpPatching(t *testing.T) {
	p := parser.New(lexer.New("if (x) { y(); } else { z(); }"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors())

	ops := decode(t, fn.Code)
	// GetGlobal(x) ShortJmpIfFalse Pop [Undefined(recv) GetGlobal(y) FunctionCall Pop] Jmp Pop [Undefined(recv) GetGlobal(z) FunctionCall Pop] Constant Return
	require.Contains(t, ops, opcodes.ShortJmpIfFalse)
	require.Contains(t, ops, opcodes.Jmp)
	require.Contains(t, ops, opcodes.FunctionCall)

	// Jump targets must land inside the code buffer.
	for i := 0; i < len(fn.Code); {
		op := opcodes.Op(fn.Code[i])
		if op.Width() == 2 && (op == opcodes.ShortJmpIfFalse || op == opcodes.Jmp) {
			target := u16At(fn.Code, i)
			require.LessOrEqual(t, target, len(fn.Code))
		}
		i += 1 + op.Width()
	}
}

func TestCompilesWhileLoopBackEdge(t *testing.T) {
	p := parser.New(lexer.New("while (x) { y(); }"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors())

	ops := decode(t, fn.Code)
	require.Contains(t, ops, opcodes.BackJmp)

	// Find the BackJmp and assert it points back to offset 0 (the test
	// expression is the very first instruction of the loop).
	i := 0
	found := false
	for i < len(fn.Code) {
		op := opcodes.Op(fn.Code[i])
		if op == opcodes.BackJmp {
			require.Equal(t, 0, u16At(fn.Code, i))
			found = true
		}
		i += 1 + op.Width()
	}
	require.True(t, found)
}

func TestCompilesBreakAndContinueInsideLoop(t *testing.T) {
	p := parser.New(lexer.New("while (x) { if (y) { break; } continue; }"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors(), c.Errors().String())

	ops := decode(t, fn.Code)
	require.Contains(t, ops, opcodes.Break)
	require.Contains(t, ops, opcodes.Continue)
}

func TestCompilesFunctionExpressionAsClosureConstant(t *testing.T) {
	p := parser.New(lexer.New("let add = function(a, b) { return a + b; }; add(1, 2);"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors())

	ops := decode(t, fn.Code)
	require.Contains(t, ops, opcodes.Closure)
	require.Contains(t, ops, opcodes.FunctionCall)

	var protoCount int
	for _, k := range fn.Constants {
		if _, ok := k.Data.(*registry.Function); ok && k.Kind.String() == "function-proto" {
			protoCount++
		}
	}
	require.Equal(t, 1, protoCount)
}

func TestCompilesClosureCapturesEnclosingLocal(t *testing.T) {
	p := parser.New(lexer.New("function outer() { let x = 1; return function() { return x; }; }"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors())
	_ = fn
}

func TestCompilesSwitchFallthroughAndDefault(t *testing.T) {
	p := parser.New(lexer.New("switch (x) { case 1: a(); break; case 2: b(); default: c(); }"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors(), c.Errors().String())

	ops := decode(t, fn.Code)
	require.Contains(t, ops, opcodes.StrictEq)
	require.Contains(t, ops, opcodes.Break)
}

func TestCompilesForOfUsesIteratorOpcodes(t *testing.T) {
	p := parser.New(lexer.New("for (const x of items) { use(x); }"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors())

	ops := decode(t, fn.Code)
	require.Contains(t, ops, opcodes.IterInit)
	require.Contains(t, ops, opcodes.IterNext)
}

func TestCompilesTryCatchFinallyEmitsUnwindOpcodes(t *testing.T) {
	p := parser.New(lexer.New("try { risky(); } catch (e) { handle(e); } finally { cleanup(); }"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors())

	ops := decode(t, fn.Code)
	require.Contains(t, ops, opcodes.Try)
	require.Contains(t, ops, opcodes.PopUnwindHandler)
}

func TestUndeclaredAssignmentUsesGlobalOpcodes(t *testing.T) {
	p := parser.New(lexer.New("x = 1;"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors())

	ops := decode(t, fn.Code)
	require.Contains(t, ops, opcodes.SetGlobal)
}

func TestCompilesYieldInGeneratorFunction(t *testing.T) {
	p := parser.New(lexer.New("function* g() { yield 1; }"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors(), c.Errors().String())

	var gen *registry.Function
	for _, k := range fn.Constants {
		if g, ok := k.Data.(*registry.Function); ok {
			gen = g
		}
	}
	require.NotNil(t, gen)
	require.True(t, gen.IsGenerator)
	require.Contains(t, decode(t, gen.Code), opcodes.Yield)
}

func TestCompilesAwaitInAsyncFunction(t *testing.T) {
	p := parser.New(lexer.New("async function f() { return await g(); }"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors(), c.Errors().String())

	var asyncFn *registry.Function
	for _, k := range fn.Constants {
		if g, ok := k.Data.(*registry.Function); ok {
			asyncFn = g
		}
	}
	require.NotNil(t, asyncFn)
	require.True(t, asyncFn.IsAsync)
	require.Contains(t, decode(t, asyncFn.Code), opcodes.Await)
}

func TestCompilesGlobalThisToDedicatedOpcode(t *testing.T) {
	p := parser.New(lexer.New("globalThis;"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors())
	require.Contains(t, decode(t, fn.Code), opcodes.GlobalThis)
}

func TestCompilesModuleWithImportExport(t *testing.T) {
	p := parser.New(lexer.New(`
		import util from "test:util";
		export default util;
		export const n = 1;
	`))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors(), p.Errors().String())

	c := compiler.New("mod")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors(), c.Errors().String())
	require.Equal(t, "mod", fn.ModulePath)

	ops := decode(t, fn.Code)
	require.Contains(t, ops, opcodes.EvaluateModule)
	require.Contains(t, ops, opcodes.ExportDefault)
	require.Contains(t, ops, opcodes.ExportNamed)
	require.Contains(t, ops, opcodes.ReturnModule)
	require.NotContains(t, ops, opcodes.Return)
}

func TestCompilesScriptWithoutModuleSyntaxAsScript(t *testing.T) {
	p := parser.New(lexer.New("1;"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("script")
	fn := c.Compile(prog)
	require.Empty(t, fn.ModulePath)
	require.NotContains(t, decode(t, fn.Code), opcodes.ReturnModule)
}

func TestCompilesForLoopWithLoopMarkers(t *testing.T) {
	p := parser.New(lexer.New("for (let i = 0; i < 3; i++) { use(i); }"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors())

	ops := decode(t, fn.Code)
	require.Contains(t, ops, opcodes.LoopStart)
	require.Contains(t, ops, opcodes.LoopEnd)
	require.Contains(t, ops, opcodes.BackJmp)
}

func TestCompilesYieldDelegationAsIterationLoop(t *testing.T) {
	p := parser.New(lexer.New("function* g() { yield* inner(); }"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors(), c.Errors().String())

	var gen *registry.Function
	for _, k := range fn.Constants {
		if g, ok := k.Data.(*registry.Function); ok {
			gen = g
		}
	}
	require.NotNil(t, gen)
	ops := decode(t, gen.Code)
	require.Contains(t, ops, opcodes.IterInit)
	require.Contains(t, ops, opcodes.IterNext)
	require.Contains(t, ops, opcodes.Yield)
}

func TestDynamicImportIsCompileError(t *testing.T) {
	p := parser.New(lexer.New(`import("mod:x");`))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	c.Compile(prog)
	require.True(t, c.Errors().HasErrors())
}
