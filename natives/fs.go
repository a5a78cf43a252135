// Package natives implements the host-native modules SPEC_FULL.md section
// 4.6 lists behind modhost's Resolver chain: "vela:fs", "vela:timers", and
// "vela:db". None of these has a teacher analogue (the teacher's PHP
// builtin surface never touched the filesystem, a real clock, or a real
// database through the bytecode layer it ported), so each file here is
// grounded directly on the matching _examples/original_source/crates/
// dash_rt_* crate instead, re-keyed from dash's Rust ModuleLoader trait to
// a plain Go object this repo's modhost.StaticResolver hands back as a
// module's exports.
package natives

import (
	"os"

	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/values"
)

// InstallFS builds the "vela:fs" module object: readFileSync/
// writeFileSync, both synchronous. Grounded on
// _examples/original_source/crates/dash_rt_fs/src/sync.rs's init_module/
// read_file, which reads the whole file into a single String value rather
// than exposing streaming or an fd table.
func InstallFS(sc values.Scope, env *statics.Env) values.ObjectHandle {
	mod := newObject(env)
	obj, _ := mod.Object()

	native(sc, env, obj, "readFileSync", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		path, err := values.ToString(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return values.Undefined(), sc.NewError("Error", "%s", err.Error())
		}
		return values.String(string(data)), nil
	})

	native(sc, env, obj, "writeFileSync", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		path, err := values.ToString(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		content, err := values.ToString(sc, arg(args, 1))
		if err != nil {
			return values.Undefined(), err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return values.Undefined(), sc.NewError("Error", "%s", err.Error())
		}
		return values.Undefined(), nil
	})

	native(sc, env, obj, "existsSync", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		path, err := values.ToString(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		_, statErr := os.Stat(path)
		return values.Bool(statErr == nil), nil
	})

	return mod
}

func native(sc values.Scope, env *statics.Env, target values.Object, name string, fn runtime.NativeFn) {
	nf := runtime.NewNativeFunction(env.FunctionProto, name, fn)
	h := values.WrapHandle(env.Heap.Register(nf))
	target.SetProperty(sc, values.StringKey(name), values.StaticProperty(values.FromObject(h)))
}

func newObject(env *statics.Env) values.ObjectHandle {
	return values.WrapHandle(env.Heap.Register(values.NewNamedObject(env.ObjectProto, values.ObjectHandle{})))
}

func arg(args []values.Value, i int) values.Value {
	if i < len(args) {
		return args[i]
	}
	return values.Undefined()
}
