package statics

import (
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

// installGeneratorProto wires next/return/throw onto the prototype every
// generator object is born with, so script code can drive a suspended
// `function*` frame through the iterator protocol (spec.md section 4.4's
// .next semantics). Each method answers a {value, done} result object.
func installGeneratorProto(sc values.Scope, env *Env) {
	obj, _ := env.GeneratorProto.Object()

	native(sc, env, obj, "next", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return driveGenerator(sc, env, this, arg(args, 0), runtime.ResumeNext)
	})
	native(sc, env, obj, "return", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return driveGenerator(sc, env, this, arg(args, 0), runtime.ResumeReturn)
	})
	native(sc, env, obj, "throw", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return driveGenerator(sc, env, this, arg(args, 0), runtime.ResumeThrow)
	})
}

func driveGenerator(sc values.Scope, env *Env, this values.Value, sent values.Value, mode runtime.ResumeMode) (values.Value, error) {
	obj, ok := this.Object()
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "generator method called on a non-object")
	}
	gen, ok := obj.AsAny().(*runtime.GeneratorObject)
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "generator method called on a non-generator")
	}

	var value values.Value
	var done bool
	var err error
	switch mode {
	case runtime.ResumeThrow:
		value, done, err = gen.Throw(sc, sent)
	case runtime.ResumeReturn:
		value, done, err = gen.Return(sc, sent)
	default:
		value, done, err = gen.Next(sc, sent)
	}
	if err != nil {
		return values.Undefined(), err
	}
	// The yielded value lives only in this Go variable until the result
	// object owns it; iterResult allocates, so keep it rooted meanwhile.
	return iterResult(sc, env, retain(sc, value), done), nil
}

// iterResult builds the {value, done} object every iterator-protocol
// method returns.
func iterResult(sc values.Scope, env *Env, value values.Value, done bool) values.Value {
	obj := values.NewNamedObject(env.ObjectProto, values.ObjectHandle{})
	h := values.WrapHandle(env.Heap.Register(obj))
	obj.SetProperty(sc, values.StringKey("value"), values.StaticProperty(value))
	obj.SetProperty(sc, values.StringKey("done"), values.StaticProperty(values.Bool(done)))
	return values.FromObject(h)
}
