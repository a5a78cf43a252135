package vm

import (
	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/registry"
	"github.com/vela-lang/vela/values"
)

// execClosure implements the Closure opcode's extended encoding: the
// constant-pool index is this instruction's own u16 operand, but each of
// the descriptor's captured upvalues follows immediately in the code
// stream as its own UpvalueLocal/UpvalueNonLocal <index> pair. Those pairs
// are never dispatched by step's main switch; only this handler advances
// frame.ip past them, using each pair's opcode byte to decide whether to
// box a local slot of the *current* frame or reuse a cell this frame
// itself already captured as an upvalue.
func (vm *VM) execClosure(frame *Frame) error {
	idx := vm.readU16(frame)
	proto := frame.fn.Constants[idx]
	descriptor, _ := proto.Data.(*registry.Function)

	handles := make([]gc.Handle, len(descriptor.Upvalues))
	for i, uv := range descriptor.Upvalues {
		// Consume the inline UpvalueLocal/UpvalueNonLocal opcode byte; the
		// encoding already tells us which (uv.Local), so the byte itself
		// is only skipped, not decoded.
		frame.ip++
		slot := vm.readU16(frame)

		var c *cell
		if uv.Local {
			c = frame.boxLocal(slot)
		} else {
			c = frame.upvalues[slot]
		}
		handles[i] = vm.heap.Register(c)
	}

	closure := vm.NewClosure(descriptor, handles)
	frame.push(values.FromObject(closure))
	return nil
}

// execCall implements FunctionCall: pop argc arguments (restoring
// left-to-right order), then the callee, then the receiver, expanding any
// spread markers into the final argument slice before dispatching through
// the callee's Object.Apply. The dispatch runs under a fresh LocalScope —
// spec.md section 4.3's sole rooting mechanism for native operations:
// callee/receiver/args have just been popped off the frame stack, so the
// scope is what keeps them (and anything a native roots via sc.Root)
// alive across a collection triggered by a re-entrant run.
func (vm *VM) execCall(frame *Frame, argc int) error {
	sc := vm.scope()

	slots := make([]values.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		slots[i] = frame.pop()
	}
	args := expandSpreadSlots(slots)

	calleeVal := frame.pop()
	receiver := frame.pop()

	lsc := vm.scopeStack.Push(vm.heap)
	defer vm.scopeStack.Pop(lsc)
	rootInScope(lsc, calleeVal)
	rootInScope(lsc, receiver)
	for _, a := range args {
		rootInScope(lsc, a)
	}

	callee, ok := calleeVal.Object()
	if !ok {
		return sc.NewError("TypeError", "value is not a function")
	}
	result, err := callee.Apply(sc, calleeVal.Handle(), receiver, args)
	if err != nil {
		return err
	}
	frame.push(result)
	return nil
}

func rootInScope(lsc *gc.LocalScope, v values.Value) {
	if h, ok := v.Data.(values.ObjectHandle); ok {
		lsc.Add(h.Raw())
	}
}

// execConstruct implements ConstructorCall's `new` semantics: it allocates
// a fresh object whose prototype is the constructor's own "prototype"
// property (falling back to Object.prototype when that isn't an object,
// per OrdinaryCreateFromConstructor), invokes Construct with that object
// as `this`, and keeps the constructor's return value only if it is
// itself an object — otherwise the freshly allocated `this` is the result,
// matching ECMA-262's [[Construct]].
func (vm *VM) execConstruct(frame *Frame, argc int) error {
	sc := vm.scope()

	slots := make([]values.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		slots[i] = frame.pop()
	}
	args := expandSpreadSlots(slots)

	calleeVal := frame.pop()
	frame.pop() // compileNew always pushes an undefined placeholder receiver here

	lsc := vm.scopeStack.Push(vm.heap)
	defer vm.scopeStack.Pop(lsc)
	rootInScope(lsc, calleeVal)
	for _, a := range args {
		rootInScope(lsc, a)
	}

	callee, ok := calleeVal.Object()
	if !ok {
		return sc.NewError("TypeError", "value is not a constructor")
	}
	calleeHandle := calleeVal.Handle()

	protoVal, err := callee.GetProperty(sc, values.StringKey("prototype"))
	if err != nil {
		return err
	}
	proto := vm.objectProto
	if protoVal.Kind == values.KindObject || protoVal.Kind == values.KindExternal {
		proto = protoVal.Handle()
	}

	newObj := values.NewNamedObject(proto, calleeHandle)
	newHandle := lsc.Add(vm.heap.Register(newObj))
	this := values.FromObject(values.WrapHandle(newHandle))

	result, err := callee.Construct(sc, calleeHandle, this, args)
	if err != nil {
		return err
	}
	if result.Kind == values.KindObject || result.Kind == values.KindExternal {
		frame.push(result)
		return nil
	}
	frame.push(this)
	return nil
}
