// Package statics wires up the prototype chain and global object every
// fresh VM needs before it can run a line of script: Object.prototype,
// Function.prototype, Array.prototype, the Error constructor hierarchy,
// and the globalThis binding. Grounded on
// _examples/original_source/crates/dash_vm/src/statics.rs (one struct
// holding every well-known prototype/constructor pair, built once at VM
// startup) and on the teacher's own runtime.Bootstrap
// (_examples/wudi-hey/runtime/runtime.go) for the "one bootstrap
// function wires the whole global object" shape.
package statics

import (
	"fmt"

	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

// Env bundles every handle a fresh VM needs: the heap itself, the global
// object, and the well-known prototypes the compiler's object-creation
// opcodes (ObjectLiteral, ArrayLiteral, Closure) and the error-throwing
// path (values.Scope.NewError) all depend on. vm.Options is built
// directly from this struct's fields, so Bootstrap is the one function
// standing between an empty heap and a runnable VM.
type Env struct {
	Heap *gc.Heap

	Global        values.ObjectHandle
	ObjectProto   values.ObjectHandle
	FunctionProto values.ObjectHandle
	ArrayProto    values.ObjectHandle
	ErrorProtos   *runtime.ErrorPrototypes

	StringProto    values.ObjectHandle
	NumberProto    values.ObjectHandle
	BooleanProto   values.ObjectHandle
	GeneratorProto values.ObjectHandle
}

// bootScope is the values.Scope used only while Bootstrap is assembling
// the global object: every handle it touches is reachable from Global by
// the time Bootstrap returns, so there is nothing to root, and no error
// thrown during bootstrap should ever actually propagate through normal
// script control flow.
type bootScope struct {
	heap   *gc.Heap
	global values.ObjectHandle
}

func (s *bootScope) Heap() *gc.Heap { return s.heap }

func (s *bootScope) Root(h gc.Handle) gc.Handle { return h }

func (s *bootScope) NewError(ctor string, format string, args ...any) error {
	return fmt.Errorf("statics: %s: %s", ctor, fmt.Sprintf(format, args...))
}

func (s *bootScope) Global() values.ObjectHandle { return s.global }

// Bootstrap allocates and wires every well-known object a fresh VM needs.
// Calling code (vm.New via vm.Options, or cmd/vela's startup path) treats
// the returned Env as a value object: nothing else needs to reach back
// into statics once Bootstrap returns.
func Bootstrap() *Env {
	heap := gc.NewHeap()

	objectProto := values.WrapHandle(heap.Register(values.NullObject()))
	global := values.WrapHandle(heap.Register(values.NewNamedObject(objectProto, values.ObjectHandle{})))

	env := &Env{
		Heap:        heap,
		Global:      global,
		ObjectProto: objectProto,
	}
	sc := &bootScope{heap: heap, global: global}

	env.FunctionProto = values.WrapHandle(heap.Register(values.NewNamedObject(objectProto, values.ObjectHandle{})))
	env.ArrayProto = values.WrapHandle(heap.Register(values.NewNamedObject(objectProto, values.ObjectHandle{})))
	env.StringProto = values.WrapHandle(heap.Register(values.NewNamedObject(objectProto, values.ObjectHandle{})))
	env.NumberProto = values.WrapHandle(heap.Register(values.NewNamedObject(objectProto, values.ObjectHandle{})))
	env.BooleanProto = values.WrapHandle(heap.Register(values.NewNamedObject(objectProto, values.ObjectHandle{})))
	env.GeneratorProto = values.WrapHandle(heap.Register(values.NewNamedObject(objectProto, values.ObjectHandle{})))

	installFunctionProto(sc, env)
	installObjectProto(sc, env)
	installObjectConstructor(sc, env)
	installArrayProto(sc, env)
	installStringProto(sc, env)
	installNumberProto(sc, env)
	installBooleanProto(sc, env)
	installGeneratorProto(sc, env)
	env.ErrorProtos = installErrors(sc, env)

	setGlobal(sc, env, "globalThis", values.FromObject(global))
	setGlobal(sc, env, "NaN", values.Number(nan()))
	setGlobal(sc, env, "Infinity", values.Number(inf()))
	setGlobal(sc, env, "undefined", values.Undefined())

	return env
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func inf() float64 {
	var zero float64
	return 1 / zero
}

// native registers a NativeFunction under name on target, using
// env.FunctionProto as its own prototype, matching how every other
// callable object in this engine is built.
func native(sc values.Scope, env *Env, target values.Object, name string, fn runtime.NativeFn) {
	nf := runtime.NewNativeFunction(env.FunctionProto, name, fn)
	h := values.WrapHandle(env.Heap.Register(nf))
	target.SetProperty(sc, values.StringKey(name), values.StaticProperty(values.FromObject(h)))
}

func setGlobal(sc values.Scope, env *Env, name string, v values.Value) {
	obj, _ := env.Global.Object()
	obj.SetProperty(sc, values.StringKey(name), values.StaticProperty(v))
}

// retain roots v in the current native-call LocalScope (the one the vm's
// call dispatch pushes around every Apply) and returns it unchanged. Any
// value a native holds in a plain Go variable across a re-entrant
// callback Apply must go through here: the re-entered dispatcher may run
// a full collection, and a Go slice or local is invisible to its root
// walk.
func retain(sc values.Scope, v values.Value) values.Value {
	if h, ok := v.Data.(values.ObjectHandle); ok {
		sc.Root(h.Raw())
	}
	return v
}

// arg returns args[i], or undefined if the call site didn't supply it —
// JS's own missing-argument-is-undefined convention, used throughout the
// native methods in this package instead of bounds-checking at every call
// site.
func arg(args []values.Value, i int) values.Value {
	if i < len(args) {
		return args[i]
	}
	return values.Undefined()
}
