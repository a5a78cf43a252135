package statics

import (
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

// errorKinds lists every constructor installed on the global object, in
// the order the ECMAScript error hierarchy's subtype constructors are
// conventionally introduced after the base Error constructor.
var errorKinds = []runtime.ErrorKind{
	runtime.ErrorKindError,
	runtime.ErrorKindTypeError,
	runtime.ErrorKindRangeError,
	runtime.ErrorKindSyntaxError,
	runtime.ErrorKindReferenceError,
	runtime.ErrorKindURIError,
	runtime.ErrorKindEvalError,
	runtime.ErrorKindAggregateError,
}

// installErrors builds one prototype + constructor pair per ErrorKind and
// binds each constructor onto the global object by name, returning the
// populated table vm.Options.ErrorProtos expects. Grounded on
// _examples/original_source/crates/dash_vm/src/value/error.rs's
// one-prototype-per-kind layout and the teacher's runtime.ErrorObject.
func installErrors(sc values.Scope, env *Env) *runtime.ErrorPrototypes {
	protos := runtime.NewErrorPrototypes()

	for _, kind := range errorKinds {
		kind := kind
		proto := values.WrapHandle(env.Heap.Register(values.NewNamedObject(env.ObjectProto, values.ObjectHandle{})))
		protos.Register(kind, proto)

		protoObj, _ := proto.Object()
		native(sc, env, protoObj, "toString", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
			obj, ok := this.Object()
			if !ok {
				return values.String(string(kind)), nil
			}
			if e, ok := obj.AsAny().(*runtime.ErrorObject); ok {
				return values.String(e.String()), nil
			}
			return values.String(string(kind)), nil
		})
		protoObj.SetProperty(sc, values.StringKey("name"), values.StaticProperty(values.String(string(kind))))
		protoObj.SetProperty(sc, values.StringKey("message"), values.StaticProperty(values.String("")))

		ctorFn := runtime.NewNativeFunction(env.FunctionProto, string(kind), func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
			msg := ""
			if v := arg(args, 0); !v.IsUndefined() {
				s, err := values.ToString(sc, v)
				if err != nil {
					return values.Undefined(), err
				}
				msg = s
			}
			errObj := runtime.NewErrorObject(proto, kind, msg)
			if kind == runtime.ErrorKindAggregateError {
				if arr, ok := asArray(arg(args, 0)); ok {
					errObj.Errors = append([]values.Value{}, arr.Elements...)
				}
				// AggregateError's message is its second argument, not its
				// first (the first is the iterable of wrapped errors).
				if v := arg(args, 1); !v.IsUndefined() {
					s, err := values.ToString(sc, v)
					if err != nil {
						return values.Undefined(), err
					}
					errObj.Message = s
				} else {
					errObj.Message = ""
				}
			}
			h := values.WrapHandle(env.Heap.Register(errObj))
			return values.FromObject(h), nil
		})
		ctorHandle := values.WrapHandle(env.Heap.Register(ctorFn))
		ctorFn.SetProperty(sc, values.StringKey("prototype"), values.StaticProperty(values.FromObject(proto)))
		protoObj.SetProperty(sc, values.StringKey("constructor"), values.StaticProperty(values.FromObject(ctorHandle)))

		setGlobal(sc, env, string(kind), values.FromObject(ctorHandle))
	}

	return protos
}
