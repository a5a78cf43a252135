package vm

import (
	"github.com/vela-lang/vela/opcodes"
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

// genChannels hands control back and forth between whichever goroutine is
// driving a generator (calling .next()/.throw()/.return()) and the
// goroutine running the suspended generator's own frame. Both channels are
// unbuffered, so a send blocks until its counterpart is ready to receive:
// the two goroutines never run concurrently, only ever handing off control
// like coroutines, never actually executing in parallel. This is the
// standard goroutine-as-coroutine technique, not grounded on any one
// example file; it maps directly onto spec.md section 4.4's suspend/resume
// state machine (runtime.GeneratorState) without needing to reify the VM's
// own call stack into a resumable data structure.
type genChannels struct {
	resume chan resumeSignal
	yield  chan yieldSignal
}

type resumeSignal struct {
	value values.Value
	mode  runtime.ResumeMode
}

type yieldSignal struct {
	value values.Value
	done  bool
	err   error
}

// generatorReturn carries a .return(v) injection down to the suspended
// Yield point. It deliberately bypasses any enclosing finally blocks: a
// documented simplification, since compileTry's pending-flag rethrow
// scheme is built around thrown exceptions, not an externally injected
// return completion, and reworking it to cover this rare path isn't
// proportionate here.
type generatorReturn struct{ value values.Value }

func (g *generatorReturn) Error() string { return "generator return injected" }

// newGeneratorCall implements calling a `function*`: it returns a
// suspended GeneratorObject immediately without running any bytecode,
// per spec.md section 4.4 ("calling a generator function returns a
// generator object in the suspended-start state"). The function's body
// only starts executing on the first .next() call.
func (vm *VM) newGeneratorCall(fn *runtime.UserFunction, this values.Value, args []values.Value) (values.Value, error) {
	frame := newFrame(fn.Descriptor, upvalueCells(fn), this)
	vm.bindParams(frame, fn.Descriptor, args)

	ch := &genChannels{resume: make(chan resumeSignal), yield: make(chan yieldSignal)}
	frame.channels = ch

	proto := vm.generatorProto
	if proto.IsNil() {
		proto = vm.objectProto
	}
	gen := runtime.NewGeneratorObject(proto, nil)
	handle := values.WrapHandle(vm.heap.Register(gen))
	gen.Resume = vm.makeResumer(ch)

	vm.suspended = append(vm.suspended, frame)
	go vm.runGeneratorFrame(frame, ch)

	return values.FromObject(handle), nil
}

func (vm *VM) runGeneratorFrame(frame *Frame, ch *genChannels) {
	first := <-ch.resume
	switch first.mode {
	case runtime.ResumeReturn:
		ch.yield <- yieldSignal{value: first.value, done: true}
		vm.dropSuspended(frame)
		return
	case runtime.ResumeThrow:
		ch.yield <- yieldSignal{done: true, err: values.Throw(first.value)}
		vm.dropSuspended(frame)
		return
	}

	v, err := vm.run(frame)
	ch.yield <- yieldSignal{value: v, done: true, err: err}
	vm.dropSuspended(frame)
}

func (vm *VM) dropSuspended(frame *Frame) {
	for i, f := range vm.suspended {
		if f == frame {
			vm.suspended = append(vm.suspended[:i], vm.suspended[i+1:]...)
			return
		}
	}
}

func (vm *VM) makeResumer(ch *genChannels) runtime.Resumer {
	return func(sc values.Scope, sent values.Value, mode runtime.ResumeMode) (values.Value, bool, error) {
		ch.resume <- resumeSignal{value: sent, mode: mode}
		sig := <-ch.yield
		return sig.value, sig.done, sig.err
	}
}

// execSuspend implements both Yield and Await, which share the same
// suspend-and-hand-off shape: push the operand across frame.channels to
// whoever is driving this frame (a generator's .next() caller for Yield,
// this VM's own async-function pump for Await) and block for the next
// resumption. newAsyncCall gives every async-function frame real channels
// before it starts running, so Await reaching here always has a driver on
// the other end; a bare top-level Await outside any async function (no
// channels at all) resolves to its operand unchanged rather than blocking
// forever, since nothing schedules its resumption.
func (vm *VM) execSuspend(frame *Frame, op opcodes.Op) (values.Value, error) {
	arg := frame.pop()
	if frame.channels == nil {
		if op == opcodes.Await {
			return arg, nil
		}
		return values.Value{}, vm.scope().NewError("SyntaxError", "yield used outside a generator function")
	}
	frame.channels.yield <- yieldSignal{value: arg, done: false}
	sig := <-frame.channels.resume
	switch sig.mode {
	case runtime.ResumeThrow:
		return values.Value{}, values.Throw(sig.value)
	case runtime.ResumeReturn:
		return values.Value{}, &generatorReturn{value: sig.value}
	default:
		return sig.value, nil
	}
}
