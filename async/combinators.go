package async

import (
	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/values"
)

type combinatorMode int

const (
	allMode combinatorMode = iota
	raceMode
	allSettledMode
)

// combinator implements Promise.all/race/allSettled over a runtime.Array
// of values (this engine has no general iterable-protocol argument
// coercion for combinators; script callers pass a real array, matching
// every other array-consuming native in this repository, e.g.
// statics.installArrayProto's Array.from). Each element is wrapped in its
// own internal promise via Resolve, which already knows how to adopt a
// nested promise or generic thenable's eventual state — reused here
// instead of re-deriving thenable detection for combinator elements.
func combinator(sc values.Scope, env *statics.Env, q *Queue, proto values.ObjectHandle, iterable values.Value, mode combinatorMode) (values.Value, error) {
	obj, ok := iterable.Object()
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "combinator argument is not an array")
	}
	arr, ok := obj.AsAny().(*runtime.Array)
	if !ok {
		return values.Undefined(), sc.NewError("TypeError", "combinator argument is not an array")
	}

	result := NewPromise(proto)
	resultHandle := values.WrapHandle(env.Heap.Register(result))

	n := len(arr.Elements)
	if n == 0 {
		if mode != raceMode {
			empty := runtime.NewArray(env.ArrayProto, nil)
			Resolve(sc, q, result, values.FromObject(values.WrapHandle(env.Heap.Register(empty))))
		}
		return values.FromObject(resultHandle), nil
	}

	results := make([]values.Value, n)
	remaining := n

	// Settled element values park in the results slice across separately
	// scheduled queue tasks, where no frame or LocalScope can see them;
	// each stored object is pinned with a Persistent handle until the
	// aggregate array (or the combinator's rejection) takes over keeping
	// them alive.
	var pins []gc.Persistent
	pinResult := func(v values.Value) values.Value {
		if h, ok := v.Data.(values.ObjectHandle); ok {
			pins = append(pins, gc.NewPersistent(h.Raw()))
		}
		return v
	}
	dropPins := func() {
		for _, p := range pins {
			p.Drop()
		}
		pins = nil
	}

	for i, el := range arr.Elements {
		i := i
		ep := NewPromise(proto)
		onSettle(q, ep,
			func(sc values.Scope, v values.Value) (values.Value, error) {
				switch mode {
				case raceMode:
					Resolve(sc, q, result, v)
				case allMode:
					results[i] = pinResult(v)
					remaining--
					if remaining == 0 {
						arrResult := runtime.NewArray(env.ArrayProto, results)
						Resolve(sc, q, result, values.FromObject(values.WrapHandle(env.Heap.Register(arrResult))))
						dropPins()
					}
				case allSettledMode:
					results[i] = pinResult(settledRecord(sc, env, "fulfilled", v))
					remaining--
					if remaining == 0 {
						arrResult := runtime.NewArray(env.ArrayProto, results)
						Resolve(sc, q, result, values.FromObject(values.WrapHandle(env.Heap.Register(arrResult))))
						dropPins()
					}
				}
				return values.Undefined(), nil
			},
			func(sc values.Scope, v values.Value) (values.Value, error) {
				switch mode {
				case raceMode:
					Reject(sc, q, result, v)
				case allMode:
					Reject(sc, q, result, v)
					dropPins()
				case allSettledMode:
					results[i] = pinResult(settledRecord(sc, env, "rejected", v))
					remaining--
					if remaining == 0 {
						arrResult := runtime.NewArray(env.ArrayProto, results)
						Resolve(sc, q, result, values.FromObject(values.WrapHandle(env.Heap.Register(arrResult))))
						dropPins()
					}
				}
				return values.Undefined(), nil
			})
		Resolve(sc, q, ep, el)
	}

	return values.FromObject(resultHandle), nil
}

// settledRecord builds the {status, value}/{status, reason} object
// Promise.allSettled's contract requires per entry.
func settledRecord(sc values.Scope, env *statics.Env, status string, v values.Value) values.Value {
	o := values.NewNamedObject(env.ObjectProto, values.ObjectHandle{})
	h := values.WrapHandle(env.Heap.Register(o))
	o.SetProperty(sc, values.StringKey("status"), values.StaticProperty(values.String(status)))
	if status == "fulfilled" {
		o.SetProperty(sc, values.StringKey("value"), values.StaticProperty(v))
	} else {
		o.SetProperty(sc, values.StringKey("reason"), values.StaticProperty(v))
	}
	return values.FromObject(h)
}
