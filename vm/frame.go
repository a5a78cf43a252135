package vm

import (
	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/registry"
	"github.com/vela-lang/vela/values"
)

// cell is a heap-tracked box for a single closed-over local, letting a
// captured variable outlive the frame that declared it while staying
// mutable from both sides of the closure (JS's shared-binding closure
// semantics). Grounded on the classic "open/closed upvalue" technique
// (Crafting Interpreters' clox), adapted from a raw-pointer-into-the-stack
// scheme to this engine's gc.Handle-based heap since
// UserFunction.Upvalues is already typed as []gc.Handle.
type cell struct {
	value values.Value
}

func (c *cell) Trace(v *gc.Visitor) {
	markValue(v, c.value)
}

// tryHandler records one active try-block's catch/finally targets so Throw
// can unwind to the nearest enclosing handler within the current frame.
type tryHandler struct {
	catchIP    int
	stackDepth int
}

// Frame is one activation record: a function's bytecode, its local slots,
// its value stack, and its open upvalue cells. Grounded on the teacher's
// CallFrame (_examples/wudi-hey/vm/context.go) for the one-frame-per-call
// shape, re-keyed from PHP's symbol-table-of-named-variables to this
// engine's compiled fixed local-slot array.
type Frame struct {
	fn  *registry.Function
	ip  int

	locals []values.Value
	// cells holds a boxed cell for any local slot a nested closure has
	// captured; nil entries mean the slot is still read directly from
	// locals. Lazily populated by Closure's upvalue-capture step.
	cells []*cell

	// upvalues are the cells this frame itself captured from its
	// enclosing scope at closure-creation time, indexed exactly as
	// fn.Upvalues describes.
	upvalues []*cell

	stack []values.Value

	receiver values.Value
	newTarget values.Value

	handlers []tryHandler

	// channels is non-nil only for a frame backing a generator/async
	// function's body, wiring its Yield/Await suspension points to the
	// goroutine-coroutine driver in generator.go.
	channels *genChannels

	// moduleExports is the exports object for a module entry frame
	// (spec.md section 4.1.5's Module frame state); nil for ordinary
	// function frames, which makes ExportDefault/ExportNamed a runtime
	// error there.
	moduleExports values.ObjectHandle
}

func newFrame(fn *registry.Function, upvalues []*cell, receiver values.Value) *Frame {
	return &Frame{
		fn:       fn,
		locals:   make([]values.Value, fn.LocalCount),
		cells:    make([]*cell, fn.LocalCount),
		upvalues: upvalues,
		stack:    make([]values.Value, 0, 16),
		receiver: receiver,
	}
}

func (f *Frame) push(v values.Value) { f.stack = append(f.stack, v) }

func (f *Frame) pop() values.Value {
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack = f.stack[:n]
	return v
}

func (f *Frame) peek() values.Value { return f.stack[len(f.stack)-1] }

func (f *Frame) getLocal(slot int) values.Value {
	if c := f.cells[slot]; c != nil {
		return c.value
	}
	return f.locals[slot]
}

func (f *Frame) setLocal(slot int, v values.Value) {
	if c := f.cells[slot]; c != nil {
		c.value = v
		return
	}
	f.locals[slot] = v
}

// boxLocal returns the cell backing slot, creating it (seeded with the
// slot's current value) on first capture.
func (f *Frame) boxLocal(slot int) *cell {
	if f.cells[slot] == nil {
		f.cells[slot] = &cell{value: f.locals[slot]}
	}
	return f.cells[slot]
}

// trace visits every handle this frame roots: live locals/cells, the
// operand stack, and the receiver/new.target, so the VM's GC pass can
// include every currently-executing frame in its root set.
func (f *Frame) trace(v *gc.Visitor) {
	for i, val := range f.locals {
		if f.cells[i] != nil {
			continue
		}
		markValue(v, val)
	}
	for _, c := range f.cells {
		if c != nil {
			markValue(v, c.value)
		}
	}
	for _, val := range f.stack {
		markValue(v, val)
	}
	markValue(v, f.receiver)
	markValue(v, f.newTarget)
	if !f.moduleExports.IsNil() {
		v.Mark(f.moduleExports.Raw())
	}
	for _, c := range f.upvalues {
		if c != nil {
			markValue(v, c.value)
		}
	}
}

// markValue marks whatever heap references val carries: a plain object
// handle, a spread marker's drained elements, or a bound iterator's
// backing iterable — the two vm-internal Value kinds that would otherwise
// hide live objects from the root walk while they sit on an operand
// stack.
func markValue(v *gc.Visitor, val values.Value) {
	switch d := val.Data.(type) {
	case values.ObjectHandle:
		v.Mark(d.Raw())
	case []values.Value:
		for _, e := range d {
			markValue(v, e)
		}
	case *boundIterator:
		for _, e := range d.roots {
			markValue(v, e)
		}
	}
}
