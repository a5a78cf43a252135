package vm_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vela-lang/vela/async"
	"github.com/vela-lang/vela/compiler"
	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/lexer"
	"github.com/vela-lang/vela/modhost"
	"github.com/vela-lang/vela/parser"
	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/stdlib"
	"github.com/vela-lang/vela/values"
	"github.com/vela-lang/vela/vm"
)

// fullScope mirrors cmd/vela's bootstrap scope: everything wired during
// test setup ends up reachable from the global object, so Root is a
// passthrough.
type fullScope struct{ env *statics.Env }

func (s fullScope) Heap() *gc.Heap               { return s.env.Heap }
func (s fullScope) Root(h gc.Handle) gc.Handle   { return h }
func (s fullScope) Global() values.ObjectHandle  { return s.env.Global }
func (s fullScope) NewError(ctor string, format string, args ...any) error {
	return fmt.Errorf("%s: %s", ctor, fmt.Sprintf(format, args...))
}

// fullEngine bundles the complete startup sequence, the same wiring
// cmd/vela performs: statics bootstrap, stdlib and Promise installs, and
// a VM carrying every prototype plus an optional module resolver.
type fullEngine struct {
	env   *statics.Env
	queue *async.Queue
	vm    *vm.VM
}

func newFullEngine(t *testing.T, resolver modhost.Resolver, jitThreshold int) *fullEngine {
	t.Helper()
	env := statics.Bootstrap()
	sc := fullScope{env: env}
	stdlib.Install(sc, env)
	queue := async.NewQueue()
	globals := async.Install(sc, env, queue)

	machine := vm.New(vm.Options{
		Heap:           env.Heap,
		Global:         env.Global,
		ObjectProto:    env.ObjectProto,
		FunctionProto:  env.FunctionProto,
		ArrayProto:     env.ArrayProto,
		StringProto:    env.StringProto,
		NumberProto:    env.NumberProto,
		BooleanProto:   env.BooleanProto,
		ErrorProtos:    env.ErrorProtos,
		AsyncQueue:     queue,
		PromiseProto:   globals.Proto,
		GeneratorProto: env.GeneratorProto,
		ModuleResolver: resolver,
		JITThreshold:   jitThreshold,
	})
	return &fullEngine{env: env, queue: queue, vm: machine}
}

// eval compiles and runs src, then drains the microtask queue the way a
// host event loop would after the script's synchronous portion finishes.
func (e *fullEngine) eval(t *testing.T, src string) values.Value {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors(), p.Errors().String())

	c := compiler.New("e2e")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors(), c.Errors().String())

	result, err := e.vm.RunProgram(fn)
	require.NoError(t, err)
	for e.vm.HasAsyncTasks() {
		e.vm.ProcessAsyncTasks()
	}
	return result
}

func TestEndToEndLoopSum(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	result := e.eval(t, "let s = 0; for (let i = 1; i <= 50; i++) s += i; s;")
	require.Equal(t, float64(1275), result.Num())
}

func TestEndToEndGeneratorNextSum(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	result := e.eval(t, `
		function* g() { yield 1; yield 2; yield 3; }
		let it = g();
		it.next().value + it.next().value + it.next().value;
	`)
	require.Equal(t, float64(6), result.Num())
}

func TestEndToEndGeneratorCompletes(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	result := e.eval(t, `
		function* g() { yield 1; return 9; }
		let it = g();
		it.next();
		let second = it.next();
		let third = it.next();
		second.value + (second.done ? 100 : 0) + (third.done ? 1000 : 0);
	`)
	require.Equal(t, float64(1109), result.Num())
}

func TestEndToEndGeneratorReceivesSentValue(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	result := e.eval(t, `
		function* echo() {
			let got = yield 1;
			yield got * 2;
		}
		let it = echo();
		it.next();
		it.next(21).value;
	`)
	require.Equal(t, float64(42), result.Num())
}

func TestEndToEndYieldDelegation(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	result := e.eval(t, `
		function* inner() { yield 1; yield 2; }
		function* outer() { yield* inner(); yield 3; }
		let sum = 0;
		for (let v of outer()) sum += v;
		sum;
	`)
	require.Equal(t, float64(6), result.Num())
}

func TestEndToEndThrowCatchObjectProperty(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	result := e.eval(t, `
		let out;
		try { throw {m: "x"}; } catch (e) { out = e.m; }
		out;
	`)
	require.Equal(t, "x", result.Str())
}

func TestEndToEndPromiseThenAfterDrain(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	// r stays an (undeclared) global so a second eval can observe what
	// the drained then handler wrote.
	e.eval(t, `
		let p = Promise.resolve(5);
		p.then(v => r = v * 2);
	`)
	after := e.eval(t, "r;")
	require.Equal(t, float64(10), after.Num())
}

func TestEndToEndAsyncAwait(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	e.eval(t, `
		async function double(x) {
			let v = await Promise.resolve(x);
			return v * 2;
		}
		double(21).then(v => out = v);
	`)
	after := e.eval(t, "out;")
	require.Equal(t, float64(42), after.Num())
}

func TestEndToEndHotLoopWithDetectorEnabled(t *testing.T) {
	src := `
		let h = 3, i = 0;
		for (; i < 1000; i++) if (i > 890) h++;
		h + i;
	`
	plain := newFullEngine(t, nil, 0)
	require.Equal(t, float64(1112), plain.eval(t, src).Num())

	traced := newFullEngine(t, nil, 5)
	require.Equal(t, float64(1112), traced.eval(t, src).Num())
	// The loop went hot, recorded one full iteration, and NoBackend's
	// declined compile poisoned its backedge.
	require.NotNil(t, traced.vm.Hotspots())
	require.NotEmpty(t, traced.vm.Hotspots().PoisonedKeys())
}

func TestEndToEndObjectKeysPlusProperty(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	result := e.eval(t, `
		const o = {a: 1};
		o.a = 2;
		Object.keys(o).length + o.a;
	`)
	require.Equal(t, float64(3), result.Num())
}

func TestEndToEndStaticImportThroughResolver(t *testing.T) {
	resolver := modhost.NewStaticResolver()
	resolver.Register("test:math", func(sc values.Scope) (values.Value, error) {
		mod := values.NewNamedObject(values.ObjectHandle{}, values.ObjectHandle{})
		h := values.WrapHandle(sc.Heap().Register(mod))
		mod.SetProperty(sc, values.StringKey("three"), values.StaticProperty(values.Number(3)))
		return values.FromObject(h), nil
	})

	e := newFullEngine(t, resolver, 0)
	result := e.eval(t, `
		import * as m from "test:math";
		export const sum = m.three + 4;
	`)
	// A module entry returns its exports object.
	obj, ok := result.Object()
	require.True(t, ok)
	sum, err := obj.GetProperty(fullScope{env: e.env}, values.StringKey("sum"))
	require.NoError(t, err)
	require.Equal(t, float64(7), sum.Num())
}

func TestEndToEndImportUnknownModuleThrows(t *testing.T) {
	e := newFullEngine(t, modhost.NewStaticResolver(), 0)
	p := parser.New(lexer.New(`import x from "test:none";`))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())
	c := compiler.New("e2e")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors())
	_, err := e.vm.RunProgram(fn)
	require.Error(t, err)
}

func TestEndToEndDynamicImportIsNotImplemented(t *testing.T) {
	p := parser.New(lexer.New(`import("test:math");`))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors(), p.Errors().String())
	c := compiler.New("e2e")
	c.Compile(prog)
	require.True(t, c.Errors().HasErrors())
}

func TestEndToEndNullishCoalescing(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	require.Equal(t, float64(5), e.eval(t, "null ?? 5;").Num())
	require.Equal(t, float64(0), e.eval(t, "0 ?? 5;").Num())
	require.Equal(t, "a", e.eval(t, `undefined ?? "a";`).Str())
}

func TestEndToEndArrowFunctions(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	require.Equal(t, float64(9), e.eval(t, "let sq = x => x * x; sq(3);").Num())
	require.Equal(t, float64(7), e.eval(t, "let add = (a, b) => a + b; add(3, 4);").Num())
	require.Equal(t, float64(1), e.eval(t, "let one = () => { return 1; }; one();").Num())
}

func TestEndToEndTemplateLiteral(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	require.Equal(t, "plain text", e.eval(t, "`plain text`;").Str())
}

func TestEndToEndArrayLengthBoundaries(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	require.Equal(t, float64(10), e.eval(t, "new Array(10).length;").Num())

	p := parser.New(lexer.New("new Array(2**32);"))
	prog := p.ParseProgram()
	require.False(t, p.Errors().HasErrors())
	c := compiler.New("e2e")
	fn := c.Compile(prog)
	require.False(t, c.Errors().HasErrors())
	_, err := e.vm.RunProgram(fn)
	require.Error(t, err)
}

func TestEndToEndDivisionByZeroFollowsIEEE(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	require.True(t, e.eval(t, "isFinite(1/0);").Kind == values.KindBoolean)
	require.False(t, e.eval(t, "isFinite(1/0);").Bool())
	require.True(t, e.eval(t, "(1/0) > 0;").Bool())
	require.True(t, e.eval(t, "(-1/0) < 0;").Bool())
	require.True(t, e.eval(t, "isNaN(0/0);").Bool())
}

func TestEndToEndStringIndexOutOfRange(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	require.Equal(t, "undefined", e.eval(t, `typeof "abc"[9];`).Str())
}

func TestEndToEndStringMethodsViaBoxing(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	require.Equal(t, float64(3), e.eval(t, `"abc".length;`).Num())
	require.Equal(t, "b", e.eval(t, `"abc"[1];`).Str())
	require.Equal(t, "ABC", e.eval(t, `"abc".toUpperCase();`).Str())
	require.Equal(t, float64(1), e.eval(t, `"abc".indexOf("b");`).Num())
	require.Equal(t, "b,c", e.eval(t, `"a,b,c".split(",").slice(1).join(",");`).Str())
	require.Equal(t, "1.50", e.eval(t, `(1.5).toFixed(2);`).Str())
	require.Equal(t, "ff", e.eval(t, `(255).toString(16);`).Str())
}

func TestEndToEndMapSurvivesMidLoopCollection(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	// Enough allocation to cross the collection threshold both while
	// building the source array and again midway through map's callback
	// loop, so the intermediate results held native-side are swept
	// unless the call-scope rooting keeps them alive.
	result := e.eval(t, `
		let src = [];
		for (let i = 0; i < 9000; i++) src.push({v: i});
		let mapped = src.map(x => ({v: x.v + 1}));
		let sum = 0;
		for (let m of mapped) sum += m.v;
		sum;
	`)
	require.Equal(t, float64(40504500), result.Num())
}

func TestEndToEndSpreadOfGeneratorSurvivesCollection(t *testing.T) {
	e := newFullEngine(t, nil, 0)
	// 9000 yielded objects cross the default collection threshold while
	// the spread drain still holds the earlier ones in its Go slice.
	result := e.eval(t, `
		function* objs(n) {
			for (let i = 0; i < n; i++) yield {v: i};
		}
		let all = [...objs(9000)];
		let sum = 0;
		for (let o of all) sum += o.v;
		sum;
	`)
	require.Equal(t, float64(9000*8999/2), result.Num())
}
