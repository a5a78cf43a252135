// Package stdlib installs the global functions and objects every script
// expects on top of the bare prototype chain statics.Bootstrap wires up:
// console, Math, JSON, and the legacy global functions (parseInt,
// parseFloat, isNaN, isFinite). Superseded the teacher's PHP builtin
// surface (runtime/math.go, runtime/string.go et al, one
// *registry.Function table per concern); this package keeps that
// one-file-per-concern split but targets values.Scope/values.Object
// directly instead of a registry lookup table, since this engine's
// globals are ordinary properties on globalThis rather than a separate
// builtin-function registry.
package stdlib

import (
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/values"
)

// Options carries the host-overridable hooks spec.md §6.1's VmParams
// names. The zero value is fully usable.
type Options struct {
	// MathRandom replaces Math.random's entropy source, for hosts that
	// need deterministic replay. Nil uses math/rand.
	MathRandom func() float64
}

// Install wires console/Math/JSON/the global function surface onto env's
// global object. Called once by cmd/vela right after statics.Bootstrap.
func Install(sc values.Scope, env *statics.Env) {
	InstallWith(sc, env, Options{})
}

func InstallWith(sc values.Scope, env *statics.Env, opts Options) {
	installConsole(sc, env)
	installMath(sc, env, opts.MathRandom)
	installJSON(sc, env)
	installGlobals(sc, env)
}

func native(sc values.Scope, env *statics.Env, target values.Object, name string, fn runtime.NativeFn) {
	nf := runtime.NewNativeFunction(env.FunctionProto, name, fn)
	h := values.WrapHandle(env.Heap.Register(nf))
	target.SetProperty(sc, values.StringKey(name), values.StaticProperty(values.FromObject(h)))
}

func newObject(env *statics.Env) values.ObjectHandle {
	return values.WrapHandle(env.Heap.Register(values.NewNamedObject(env.ObjectProto, values.ObjectHandle{})))
}

func setGlobal(sc values.Scope, env *statics.Env, name string, v values.Value) {
	obj, _ := env.Global.Object()
	obj.SetProperty(sc, values.StringKey(name), values.StaticProperty(v))
}

func arg(args []values.Value, i int) values.Value {
	if i < len(args) {
		return args[i]
	}
	return values.Undefined()
}
