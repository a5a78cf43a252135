package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vela-lang/vela/compiler"
	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/lexer"
	"github.com/vela-lang/vela/parser"
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
	"github.com/vela-lang/vela/vm"
)

// newTestVM builds a minimal VM with just enough prototype wiring for
// object/array/function opcodes to work, standing in for the statics
// package's full startup sequence.
func newTestVM(t *testing.T) *vm.VM {
	t.Helper()
	heap := gc.NewHeap()

	objectProto := values.WrapHandle(heap.Register(values.NullObject()))
	functionProto := values.WrapHandle(heap.Register(values.NewNamedObject(objectProto, values.ObjectHandle{})))
	arrayProto := values.WrapHandle(heap.Register(values.NewNamedObject(objectProto, values.ObjectHandle{})))
	global := values.WrapHandle(heap.Register(values.NewNamedObject(objectProto, values.ObjectHandle{})))

	return vm.New(vm.Options{
		Heap:          heap,
		Global:        global,
		ObjectProto:   objectProto,
		FunctionProto: functionProto,
		ArrayProto:    arrayProto,
	})
}

func run(t *testing.T, m *vm.VM, src string) values.Value {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors(), p.Errors().String())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors(), c.Errors().String())

	result, err := m.RunProgram(fn)
	require.NoError(t, err)
	return result
}

func TestArithmeticAndPrecedence(t *testing.T) {
	m := newTestVM(t)
	result := run(t, m, "1 + 2 * 3;")
	require.Equal(t, float64(7), result.Num())
}

func TestStringConcatenationViaAdd(t *testing.T) {
	m := newTestVM(t)
	result := run(t, m, `"a" + "b" + 1;`)
	require.Equal(t, "ab1", result.Str())
}

func TestComparisonOperators(t *testing.T) {
	m := newTestVM(t)
	require.True(t, run(t, m, "1 < 2;").Bool())
	require.True(t, run(t, m, "2 === 2;").Bool())
	require.False(t, run(t, m, "2 === \"2\";").Bool())
	require.True(t, run(t, m, "2 == \"2\";").Bool())
}

func TestVariableLocalsAndGlobals(t *testing.T) {
	m := newTestVM(t)
	result := run(t, m, "let x = 5; x = x + 1; x;")
	require.Equal(t, float64(6), result.Num())
}

func TestObjectLiteralAndPropertyAccess(t *testing.T) {
	m := newTestVM(t)
	result := run(t, m, `let o = {a: 1, b: 2}; o.a + o["b"];`)
	require.Equal(t, float64(3), result.Num())
}

func TestArrayLiteralAndLength(t *testing.T) {
	m := newTestVM(t)
	result := run(t, m, "let arr = [1, 2, 3]; arr.length;")
	require.Equal(t, float64(3), result.Num())
}

func TestArraySpreadExpandsElements(t *testing.T) {
	m := newTestVM(t)
	result := run(t, m, "let a = [1, 2]; let b = [...a, 3]; b.length;")
	require.Equal(t, float64(3), result.Num())
}

func TestFunctionCallAndClosureUpvalue(t *testing.T) {
	m := newTestVM(t)
	result := run(t, m, `
		function makeAdder(x) {
			return function(y) { return x + y; };
		}
		let add5 = makeAdder(5);
		add5(3);
	`)
	require.Equal(t, float64(8), result.Num())
}

func TestMethodCallBindsReceiver(t *testing.T) {
	m := newTestVM(t)
	result := run(t, m, `
		let o = {
			value: 10,
			get: function() { return this.value; }
		};
		o.get();
	`)
	require.Equal(t, float64(10), result.Num())
}

func TestTryCatchRecoversThrownValue(t *testing.T) {
	m := newTestVM(t)
	result := run(t, m, `
		let out = 0;
		try {
			throw 42;
		} catch (e) {
			out = e;
		}
		out;
	`)
	require.Equal(t, float64(42), result.Num())
}

func TestTryFinallyRunsOnNormalCompletion(t *testing.T) {
	m := newTestVM(t)
	result := run(t, m, `
		let out = 0;
		try {
			out = 1;
		} finally {
			out = out + 1;
		}
		out;
	`)
	require.Equal(t, float64(2), result.Num())
}

func TestTryFinallyWithoutCatchRethrowsUncaught(t *testing.T) {
	m := newTestVM(t)
	p := parser.New(lexer.New(`
		let out = 0;
		try {
			throw 1;
		} finally {
			out = out + 1;
		}
		out;
	`))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())

	c := compiler.New("test")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors())

	_, err := m.RunProgram(fn)
	require.Error(t, err)
}

func TestForOfIteratesArray(t *testing.T) {
	m := newTestVM(t)
	result := run(t, m, `
		let sum = 0;
		for (let v of [1, 2, 3]) {
			sum = sum + v;
		}
		sum;
	`)
	require.Equal(t, float64(6), result.Num())
}

func TestConstructorCallBuildsInstance(t *testing.T) {
	m := newTestVM(t)
	result := run(t, m, `
		function Point(x, y) {
			this.x = x;
			this.y = y;
		}
		let p = new Point(1, 2);
		p.x + p.y;
	`)
	require.Equal(t, float64(3), result.Num())
}

func TestGeneratorCallReturnsGeneratorObject(t *testing.T) {
	m := newTestVM(t)
	result := run(t, m, `
		function* counter() {
			yield 1;
			yield 2;
		}
		let g = counter();
		g;
	`)
	obj, ok := result.Object()
	require.True(t, ok)
	_, isGenerator := obj.AsAny().(*runtime.GeneratorObject)
	require.True(t, isGenerator)
}

func TestTypeOfOperator(t *testing.T) {
	m := newTestVM(t)
	require.Equal(t, "number", run(t, m, "typeof 1;").Str())
	require.Equal(t, "string", run(t, m, `typeof "x";`).Str())
	require.Equal(t, "undefined", run(t, m, "typeof undefined;").Str())
	require.Equal(t, "boolean", run(t, m, "typeof true;").Str())
}

func TestInOperatorChecksOwnKeys(t *testing.T) {
	m := newTestVM(t)
	require.True(t, run(t, m, `let o = {a: 1}; "a" in o;`).Bool())
	require.False(t, run(t, m, `let o = {a: 1}; "b" in o;`).Bool())
}

func TestDeleteOperatorRemovesProperty(t *testing.T) {
	m := newTestVM(t)
	result := run(t, m, `
		let o = {a: 1};
		delete o.a;
		typeof o.a;
	`)
	require.Equal(t, "undefined", result.Str())
}

func TestHotLoopTraceCompileDeclinedPoisonsBackedge(t *testing.T) {
	heap := gc.NewHeap()
	objectProto := values.WrapHandle(heap.Register(values.NullObject()))
	functionProto := values.WrapHandle(heap.Register(values.NewNamedObject(objectProto, values.ObjectHandle{})))
	arrayProto := values.WrapHandle(heap.Register(values.NewNamedObject(objectProto, values.ObjectHandle{})))
	global := values.WrapHandle(heap.Register(values.NewNamedObject(objectProto, values.ObjectHandle{})))

	m := vm.New(vm.Options{
		Heap:          heap,
		Global:        global,
		ObjectProto:   objectProto,
		FunctionProto: functionProto,
		ArrayProto:    arrayProto,
		JITThreshold:  3,
	})

	result := run(t, m, "let i = 0; while (i < 10) { i = i + 1; } i;")
	require.Equal(t, float64(10), result.Num())

	poisoned := m.Hotspots().PoisonedKeys()
	require.Len(t, poisoned, 1)
	require.Equal(t, "test", poisoned[0].Function)
	require.True(t, m.Hotspots().IsPoisoned(poisoned[0]))
	// Counting stops once poisoned: the loop ran 10 backedges but the
	// counter froze when the declined compile poisoned the key.
	require.Less(t, m.Hotspots().CallCount(poisoned[0]), int64(10))
}
