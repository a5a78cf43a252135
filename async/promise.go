package async

import (
	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

// wrapHandler allocates a throwaway NativeFunction so an internal Go
// closure can be handed to a foreign thenable's "then" method as a real
// callable value. Its prototype is left nil: nothing ever inspects a
// resolve/reject capsule's own prototype chain, only calls it once.
func wrapHandler(sc values.Scope, fn func(sc values.Scope, args []values.Value) (values.Value, error)) values.Value {
	nf := runtime.NewNativeFunction(values.ObjectHandle{}, "", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return fn(sc, args)
	})
	h := values.WrapHandle(sc.Heap().Register(nf))
	return values.FromObject(h)
}

// State is one of the three Promise states spec.md §4.4 names. A Promise
// moves from Pending to exactly one of Fulfilled/Rejected, never back.
type State int

const (
	Pending State = iota
	Fulfilled
	Rejected
)

// Handler is a reaction callback: either wraps a JS callable (via
// FromCallable) or is a plain Go closure, used internally by the vm
// package's async-function driver and by Resolve's own promise-chaining
// case, without needing to allocate a runtime.NativeFunction just to call
// back into Go code. A nil Handler means "no reaction registered for this
// branch" — the pass-through behavior `.then(fn)` (no reject handler) and
// `.catch(fn)` (no fulfill handler) rely on.
type Handler func(sc values.Scope, v values.Value) (values.Value, error)

// FromCallable adapts a JS function value into a Handler by going through
// the normal Apply protocol, the same path Function.prototype.call uses.
func FromCallable(h values.ObjectHandle) Handler {
	return func(sc values.Scope, v values.Value) (values.Value, error) {
		obj, ok := h.Object()
		if !ok {
			return values.Undefined(), sc.NewError("TypeError", "promise handler is not a function")
		}
		return obj.Apply(sc, h, values.Undefined(), []values.Value{v})
	}
}

// reaction is one .then()/.catch() registration, or an internal
// Resolve-chaining hook, still waiting on a pending Promise to settle.
// resultHandle is the nil handle for a pure side-effecting hook (Resolve
// adopting an inner promise's state) that has no derived promise of its
// own to settle.
type reaction struct {
	onFulfilled  Handler
	onRejected   Handler
	resultHandle values.ObjectHandle
}

// Promise backs every `new Promise(...)`/`Promise.resolve(...)` value.
// Embeds NamedObject so `.then`/`.catch`/`.finally` resolve through the
// ordinary prototype chain like any other object. Grounded on
// _examples/original_source/crates/dash_vm/src/value/promise.rs's
// Pending{resolve_reactions, reject_reactions}/Resolved/Rejected variants,
// collapsed here into one struct with a State tag plus a single reactions
// slice (split between onFulfilled/onRejected per-reaction instead of two
// parallel lists), since Go doesn't need the enum-of-structs encoding Rust
// does.
type Promise struct {
	*values.NamedObject
	State     State
	Value     values.Value
	reactions []reaction
}

func NewPromise(prototype values.ObjectHandle) *Promise {
	return &Promise{
		NamedObject: values.NewNamedObject(prototype, values.ObjectHandle{}),
		State:       Pending,
		Value:       values.Undefined(),
	}
}

func (p *Promise) AsAny() any { return p }

func (p *Promise) Trace(v *gc.Visitor) {
	p.NamedObject.Trace(v)
	if h, ok := p.Value.Data.(values.ObjectHandle); ok {
		v.Mark(h.Raw())
	}
	for _, r := range p.reactions {
		if !r.resultHandle.IsNil() {
			v.Mark(r.resultHandle.Raw())
		}
	}
}

// AsPromise downcasts v to its underlying *Promise, if it is one.
func AsPromise(v values.Value) (*Promise, bool) {
	obj, ok := v.Object()
	if !ok {
		return nil, false
	}
	p, ok := obj.AsAny().(*Promise)
	return p, ok
}

// thenable reports whether v is an object exposing a callable "then",
// per spec.md's generic thenable-adoption rule (not just this package's
// own Promise type).
func thenable(sc values.Scope, v values.Value) (values.Value, bool) {
	obj, ok := v.Object()
	if !ok {
		return values.Value{}, false
	}
	thenVal, err := obj.GetProperty(sc, values.StringKey("then"))
	if err != nil {
		return values.Value{}, false
	}
	thenObj, ok := thenVal.Object()
	if !ok || thenObj.TypeOf() != values.TypeofFunction {
		return values.Value{}, false
	}
	return thenVal, true
}

// Resolve settles p as Fulfilled with value, unless value is itself a
// promise or thenable, in which case p instead adopts that other value's
// eventual state — spec.md's promise-resolution-procedure rule, without
// which `resolve(anotherPromise)` would wrap a promise inside a promise.
func Resolve(sc values.Scope, q *Queue, p *Promise, value values.Value) {
	if p.State != Pending {
		return
	}
	if inner, ok := AsPromise(value); ok {
		onSettle(q, inner,
			func(sc values.Scope, v values.Value) (values.Value, error) {
				Resolve(sc, q, p, v)
				return values.Undefined(), nil
			},
			func(sc values.Scope, v values.Value) (values.Value, error) {
				Reject(sc, q, p, v)
				return values.Undefined(), nil
			})
		return
	}
	if thenFn, ok := thenable(sc, value); ok {
		guard := &onceGuard{}
		resolveFn := wrapHandler(sc, func(sc values.Scope, args []values.Value) (values.Value, error) {
			if guard.fire() {
				Resolve(sc, q, p, firstArg(args))
			}
			return values.Undefined(), nil
		})
		rejectFn := wrapHandler(sc, func(sc values.Scope, args []values.Value) (values.Value, error) {
			if guard.fire() {
				Reject(sc, q, p, firstArg(args))
			}
			return values.Undefined(), nil
		})
		thenObj, _ := thenFn.Object()
		if _, err := thenObj.Apply(sc, thenFn.Handle(), value, []values.Value{resolveFn, rejectFn}); err != nil && guard.fire() {
			if thrown, ok := values.AsThrown(err); ok {
				Reject(sc, q, p, thrown)
			} else {
				Reject(sc, q, p, values.String(err.Error()))
			}
		}
		return
	}
	p.State = Fulfilled
	p.Value = value
	schedule(q, p)
}

// Reject settles p as Rejected with reason. Unlike Resolve, a rejection
// reason is never itself unwrapped even if it happens to be a promise —
// only the fulfillment path adopts foreign state.
func Reject(sc values.Scope, q *Queue, p *Promise, reason values.Value) {
	if p.State != Pending {
		return
	}
	p.State = Rejected
	p.Value = reason
	schedule(q, p)
}

func schedule(q *Queue, p *Promise) {
	pending := p.reactions
	p.reactions = nil
	for _, r := range pending {
		r := r
		q.Add(Task{Roots: reactionRoots(r), Run: func(sc values.Scope) { runReaction(sc, q, p, r) }})
	}
}

func reactionRoots(r reaction) []gc.Handle {
	if r.resultHandle.IsNil() {
		return nil
	}
	return []gc.Handle{r.resultHandle.Raw()}
}

// onSettle registers a side-effecting reaction with no derived promise —
// used internally by Resolve's inner-promise-adoption case, where only
// the handlers' effects matter, not a forwarding Promise.
func onSettle(q *Queue, p *Promise, onFulfilled, onRejected Handler) {
	r := reaction{onFulfilled: onFulfilled, onRejected: onRejected}
	if p.State == Pending {
		p.reactions = append(p.reactions, r)
		return
	}
	q.Add(Task{Run: func(sc values.Scope) { runReaction(sc, q, p, r) }})
}

// Then registers a reaction and returns the derived Promise's handle,
// implementing spec.md §4.4's drive_promise dispatch: if p has already
// settled, the reaction is queued as a fresh task rather than run
// synchronously, since a .then callback must never run before the current
// turn finishes even on an already-settled promise.
func Then(q *Queue, heap *gc.Heap, p *Promise, onFulfilled, onRejected Handler, resultProto values.ObjectHandle) values.ObjectHandle {
	result := NewPromise(resultProto)
	h := values.WrapHandle(heap.Register(result))
	r := reaction{onFulfilled: onFulfilled, onRejected: onRejected, resultHandle: h}
	if p.State == Pending {
		p.reactions = append(p.reactions, r)
	} else {
		q.Add(Task{Roots: reactionRoots(r), Run: func(sc values.Scope) { runReaction(sc, q, p, r) }})
	}
	return h
}

func runReaction(sc values.Scope, q *Queue, p *Promise, r reaction) {
	var handler Handler
	if p.State == Fulfilled {
		handler = r.onFulfilled
	} else {
		handler = r.onRejected
	}
	settleResult := func(v values.Value, rejected bool) {
		if r.resultHandle.IsNil() {
			return
		}
		obj, _ := r.resultHandle.Object()
		result := obj.AsAny().(*Promise)
		if rejected {
			Reject(sc, q, result, v)
		} else {
			Resolve(sc, q, result, v)
		}
	}
	if handler == nil {
		// Pass-through: forward p's own outcome straight to result.
		settleResult(p.Value, p.State == Rejected)
		return
	}
	v, err := handler(sc, p.Value)
	if err != nil {
		thrown, ok := values.AsThrown(err)
		if !ok {
			thrown = values.String(err.Error())
		}
		if r.resultHandle.IsNil() {
			// No chained promise exists to carry the rejection; hand it
			// to the host's unhandled-exception callback instead of
			// dropping it.
			q.ReportUnhandled(sc, thrown)
			return
		}
		settleResult(thrown, true)
		return
	}
	settleResult(v, false)
}

// onceGuard ensures a thenable's resolve/reject pair only takes effect
// the first time either is invoked, per the executor/thenable contract
// that calling both (or one twice) is a no-op after the first.
type onceGuard struct{ fired bool }

func (g *onceGuard) fire() bool {
	if g.fired {
		return false
	}
	g.fired = true
	return true
}

func firstArg(args []values.Value) values.Value {
	if len(args) > 0 {
		return args[0]
	}
	return values.Undefined()
}
