package vm

import (
	"github.com/vela-lang/vela/async"
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

// newAsyncCall implements calling an `async function`. Per spec.md section
// 4.4, the body runs synchronously up to its first Await (there is no
// suspended-start like a generator's), then returns a pending Promise to
// the caller immediately. The body itself runs on its own goroutine, the
// same coroutine-handoff technique newGeneratorCall uses, but what drives
// its resumptions is this VM's own async.Queue rather than an external
// .next() caller: each Await registers a Then continuation on the awaited
// value and hands control back to whichever goroutine is draining the
// queue, instead of blocking the original caller until the whole function
// finishes.
func (vm *VM) newAsyncCall(fn *runtime.UserFunction, this values.Value, args []values.Value) (values.Value, error) {
	frame := newFrame(fn.Descriptor, upvalueCells(fn), this)
	vm.bindParams(frame, fn.Descriptor, args)

	ch := &genChannels{resume: make(chan resumeSignal), yield: make(chan yieldSignal)}
	frame.channels = ch

	p := async.NewPromise(vm.promiseProto)
	handle := values.WrapHandle(vm.heap.Register(p))

	vm.suspended = append(vm.suspended, frame)
	go func() {
		v, err := vm.run(frame)
		ch.yield <- yieldSignal{value: v, done: true, err: err}
	}()

	vm.pumpAsync(frame, ch, p)

	return values.FromObject(handle), nil
}

// pumpAsync blocks for frame's next signal: either it ran to completion
// (settling p directly with its return value or thrown error) or it
// suspended on an Await (in which case a continuation is registered on the
// awaited value and pumpAsync returns without waiting any further — the
// next pump happens later, from inside the async.Queue task that
// continuation schedules).
func (vm *VM) pumpAsync(frame *Frame, ch *genChannels, p *async.Promise) {
	sig := <-ch.yield
	if sig.done {
		vm.dropSuspended(frame)
		vm.settleAsync(p, sig.value, sig.err)
		return
	}

	sc := vm.scope()
	awaited := async.NewPromise(vm.promiseProto)
	async.Resolve(sc, vm.asyncQueue, awaited, sig.value)
	async.Then(vm.asyncQueue, vm.heap, awaited,
		func(sc values.Scope, v values.Value) (values.Value, error) {
			ch.resume <- resumeSignal{value: v, mode: runtime.ResumeNext}
			vm.pumpAsync(frame, ch, p)
			return values.Undefined(), nil
		},
		func(sc values.Scope, v values.Value) (values.Value, error) {
			ch.resume <- resumeSignal{value: v, mode: runtime.ResumeThrow}
			vm.pumpAsync(frame, ch, p)
			return values.Undefined(), nil
		},
		vm.promiseProto)
}

func (vm *VM) settleAsync(p *async.Promise, v values.Value, err error) {
	sc := vm.scope()
	if err != nil {
		if thrown, ok := values.AsThrown(err); ok {
			async.Reject(sc, vm.asyncQueue, p, thrown)
		} else {
			async.Reject(sc, vm.asyncQueue, p, values.String(err.Error()))
		}
		return
	}
	async.Resolve(sc, vm.asyncQueue, p, v)
}
