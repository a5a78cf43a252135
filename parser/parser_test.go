package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vela-lang/vela/ast"
	"github.com/vela-lang/vela/lexer"
	"github.com/vela-lang/vela/parser"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors(), p.Errors().String())
	return prog
}

func TestParsesVariableDeclarationWithInit(t *testing.T) {
	prog := parse(t, "let x = 1 + 2;")
	require.Len(t, prog.Body, 1)
	decl := prog.Body[0].(*ast.VariableDeclaration)
	require.Equal(t, "let", decl.Kind)
	require.Equal(t, "x", decl.Declarations[0].Name)
	bin := decl.Declarations[0].Init.(*ast.BinaryExpression)
	require.Equal(t, "+", bin.Operator)
}

func TestParsesOperatorPrecedence(t *testing.T) {
	prog := parse(t, "1 + 2 * 3;")
	stmt := prog.Body[0].(*ast.ExpressionStatement)
	bin := stmt.Expression.(*ast.BinaryExpression)
	require.Equal(t, "+", bin.Operator)
	rhs := bin.Right.(*ast.BinaryExpression)
	require.Equal(t, "*", rhs.Operator)
}

func TestParsesFunctionDeclarationAndCall(t *testing.T) {
	prog := parse(t, "function add(a, b) { return a + b; } add(1, 2);")
	require.Len(t, prog.Body, 2)
	fnDecl := prog.Body[0].(*ast.FunctionDeclaration)
	require.Equal(t, "add", fnDecl.Function.Name)
	require.Len(t, fnDecl.Function.Params, 2)

	callStmt := prog.Body[1].(*ast.ExpressionStatement)
	call := callStmt.Expression.(*ast.CallExpression)
	require.Len(t, call.Arguments, 2)
}

func TestParsesIfElse(t *testing.T) {
	prog := parse(t, "if (x) { y(); } else { z(); }")
	ifStmt := prog.Body[0].(*ast.IfStatement)
	require.NotNil(t, ifStmt.Consequent)
	require.NotNil(t, ifStmt.Alternate)
}

func TestParsesForOfLoop(t *testing.T) {
	prog := parse(t, "for (const x of items) { use(x); }")
	forOf := prog.Body[0].(*ast.ForOfStatement)
	require.Equal(t, "const", forOf.DeclKind)
	require.Equal(t, "x", forOf.Binding)
}

func TestParsesClassicForLoop(t *testing.T) {
	prog := parse(t, "for (let i = 0; i < 10; i = i + 1) { sum(i); }")
	forStmt := prog.Body[0].(*ast.ForStatement)
	require.NotNil(t, forStmt.Init)
	require.NotNil(t, forStmt.Test)
	require.NotNil(t, forStmt.Update)
}

func TestParsesLabeledBreak(t *testing.T) {
	prog := parse(t, "outer: while (true) { break outer; }")
	labeled := prog.Body[0].(*ast.LabeledStatement)
	require.Equal(t, "outer", labeled.Label)
	whileStmt := labeled.Body.(*ast.WhileStatement)
	block := whileStmt.Body.(*ast.BlockStatement)
	brk := block.Body[0].(*ast.BreakStatement)
	require.Equal(t, "outer", brk.Label)
}

func TestParsesSpreadInCall(t *testing.T) {
	prog := parse(t, "f(...args);")
	stmt := prog.Body[0].(*ast.ExpressionStatement)
	call := stmt.Expression.(*ast.CallExpression)
	_, ok := call.Arguments[0].(*ast.SpreadElement)
	require.True(t, ok)
}

func TestParsesTryCatchFinally(t *testing.T) {
	prog := parse(t, "try { risky(); } catch (e) { handle(e); } finally { cleanup(); }")
	tryStmt := prog.Body[0].(*ast.TryStatement)
	require.NotNil(t, tryStmt.Handler)
	require.Equal(t, "e", tryStmt.Handler.Param)
	require.NotNil(t, tryStmt.Finally)
}

func TestParsesTernaryAndLogical(t *testing.T) {
	prog := parse(t, "a ? b : c || d;")
	stmt := prog.Body[0].(*ast.ExpressionStatement)
	cond := stmt.Expression.(*ast.ConditionalExpression)
	_, ok := cond.Alternate.(*ast.LogicalExpression)
	require.True(t, ok)
}

func TestParsesSwitchWithDefault(t *testing.T) {
	prog := parse(t, "switch (x) { case 1: a(); break; default: b(); }")
	sw := prog.Body[0].(*ast.SwitchStatement)
	require.Len(t, sw.Cases, 2)
	require.NotNil(t, sw.Cases[0].Test)
	require.Nil(t, sw.Cases[1].Test)
}

func TestParsesMemberAndComputedAccess(t *testing.T) {
	prog := parse(t, "obj.prop[0];")
	stmt := prog.Body[0].(*ast.ExpressionStatement)
	outer := stmt.Expression.(*ast.MemberExpression)
	require.True(t, outer.Computed)
	inner := outer.Object.(*ast.MemberExpression)
	require.False(t, inner.Computed)
}

func TestParsesGeneratorFunctionDeclaration(t *testing.T) {
	prog := parse(t, "function* g() { yield 1; yield* inner(); }")
	fnDecl := prog.Body[0].(*ast.FunctionDeclaration)
	require.True(t, fnDecl.Function.IsGenerator)

	first := fnDecl.Function.Body.Body[0].(*ast.ExpressionStatement)
	y := first.Expression.(*ast.YieldExpression)
	require.False(t, y.Delegate)
	require.NotNil(t, y.Argument)

	second := fnDecl.Function.Body.Body[1].(*ast.ExpressionStatement)
	del := second.Expression.(*ast.YieldExpression)
	require.True(t, del.Delegate)
}

func TestParsesBareYield(t *testing.T) {
	prog := parse(t, "function* g() { yield; }")
	fnDecl := prog.Body[0].(*ast.FunctionDeclaration)
	stmt := fnDecl.Function.Body.Body[0].(*ast.ExpressionStatement)
	y := stmt.Expression.(*ast.YieldExpression)
	require.Nil(t, y.Argument)
}

func TestParsesAsyncFunctionAndAwait(t *testing.T) {
	prog := parse(t, "async function f() { let v = await g(); return v; }")
	fnDecl := prog.Body[0].(*ast.FunctionDeclaration)
	require.True(t, fnDecl.Function.IsAsync)
	require.False(t, fnDecl.Function.IsGenerator)

	decl := fnDecl.Function.Body.Body[0].(*ast.VariableDeclaration)
	_, isAwait := decl.Declarations[0].Init.(*ast.AwaitExpression)
	require.True(t, isAwait)
}

func TestParsesAsyncAsPlainIdentifier(t *testing.T) {
	prog := parse(t, "let async = 1; async;")
	require.Len(t, prog.Body, 2)
}

func TestParsesArrowFunctionForms(t *testing.T) {
	prog := parse(t, "let a = x => x + 1; let b = (p, q) => { return p; }; let c = () => 0;")

	aFn := prog.Body[0].(*ast.VariableDeclaration).Declarations[0].Init.(*ast.FunctionExpression)
	require.True(t, aFn.IsArrow)
	require.Len(t, aFn.Params, 1)
	require.Len(t, aFn.Body.Body, 1)
	_, isReturn := aFn.Body.Body[0].(*ast.ReturnStatement)
	require.True(t, isReturn)

	bFn := prog.Body[1].(*ast.VariableDeclaration).Declarations[0].Init.(*ast.FunctionExpression)
	require.Len(t, bFn.Params, 2)

	cFn := prog.Body[2].(*ast.VariableDeclaration).Declarations[0].Init.(*ast.FunctionExpression)
	require.Empty(t, cFn.Params)
}

func TestParsesArrowInCallArgument(t *testing.T) {
	prog := parse(t, "p.then(v => r = v * 2);")
	call := prog.Body[0].(*ast.ExpressionStatement).Expression.(*ast.CallExpression)
	require.Len(t, call.Arguments, 1)
	fn := call.Arguments[0].(*ast.FunctionExpression)
	require.True(t, fn.IsArrow)
	require.Equal(t, "v", fn.Params[0].Name)
}

func TestParsesImportForms(t *testing.T) {
	prog := parse(t, `
		import "side:effect";
		import def from "mod:a";
		import * as ns from "mod:b";
		import { x, y as z } from "mod:c";
		import d, { e } from "mod:f";
	`)
	require.Len(t, prog.Body, 5)

	bare := prog.Body[0].(*ast.ImportDeclaration)
	require.Equal(t, "side:effect", bare.Specifier)
	require.Empty(t, bare.Default)

	def := prog.Body[1].(*ast.ImportDeclaration)
	require.Equal(t, "def", def.Default)
	require.Equal(t, "mod:a", def.Specifier)

	ns := prog.Body[2].(*ast.ImportDeclaration)
	require.Equal(t, "ns", ns.Namespace)

	named := prog.Body[3].(*ast.ImportDeclaration)
	require.Len(t, named.Named, 2)
	require.Equal(t, "x", named.Named[0].Local)
	require.Equal(t, "y", named.Named[1].Imported)
	require.Equal(t, "z", named.Named[1].Local)

	both := prog.Body[4].(*ast.ImportDeclaration)
	require.Equal(t, "d", both.Default)
	require.Len(t, both.Named, 1)
}

func TestParsesExportForms(t *testing.T) {
	prog := parse(t, `
		export default 1 + 2;
		export const a = 1;
		export function f() { return 1; }
		export { a, f as g };
	`)
	require.Len(t, prog.Body, 4)

	_, isDefault := prog.Body[0].(*ast.ExportDefaultStatement)
	require.True(t, isDefault)

	constExp := prog.Body[1].(*ast.ExportNamedStatement)
	_, isVar := constExp.Declaration.(*ast.VariableDeclaration)
	require.True(t, isVar)

	fnExp := prog.Body[2].(*ast.ExportNamedStatement)
	_, isFn := fnExp.Declaration.(*ast.FunctionDeclaration)
	require.True(t, isFn)

	list := prog.Body[3].(*ast.ExportNamedStatement)
	require.Len(t, list.Names, 2)
	require.Equal(t, "g", list.Names[1].Exported)
}

func TestParsesDynamicImportAsExpression(t *testing.T) {
	prog := parse(t, `import("mod:x");`)
	stmt := prog.Body[0].(*ast.ExpressionStatement)
	_, isImportCall := stmt.Expression.(*ast.ImportCallExpression)
	require.True(t, isImportCall)
}

func TestParsesSequenceExpressionInParens(t *testing.T) {
	prog := parse(t, "(a, b, c);")
	stmt := prog.Body[0].(*ast.ExpressionStatement)
	seq := stmt.Expression.(*ast.SequenceExpression)
	require.Len(t, seq.Expressions, 3)
}
