package vm

import (
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

// jsIterator adapts a script-level Symbol.iterator object (one whose
// .next() returns a {value, done} result object, per spec.md section
// 4.4's iteration protocol) to the Go-side runtime.Iterator interface the
// for-of/spread opcodes drive. Built fresh for each resolved iterable
// rather than cached, matching how ArrayIterator/GeneratorIterator are
// also one-shot.
type jsIterator struct {
	sc       values.Scope
	nextFn   values.Object
	nextSelf values.Value
}

func (it *jsIterator) Next() (values.Value, bool) {
	result, err := it.nextFn.Apply(it.sc, values.ObjectHandle{}, it.nextSelf, nil)
	if err != nil {
		return values.Undefined(), true
	}
	resultObj, ok := result.Object()
	if !ok {
		return values.Undefined(), true
	}
	done, err := resultObj.GetProperty(it.sc, values.StringKey("done"))
	if err != nil {
		return values.Undefined(), true
	}
	if values.ToBoolean(done) {
		return values.Undefined(), true
	}
	value, err := resultObj.GetProperty(it.sc, values.StringKey("value"))
	if err != nil {
		return values.Undefined(), true
	}
	return value, false
}

// boundIterator pairs a runtime.Iterator with the values that keep its
// backing storage alive: an ArrayIterator holds a bare Go pointer into
// the array's elements, so the iterable itself (and, for the script-level
// protocol, the iterator object and its next method) must stay rooted
// through markValue for as long as this sits on an operand stack.
type boundIterator struct {
	it    runtime.Iterator
	roots []values.Value
}

// resolveIterator implements the three ways a value can be iterated,
// per spec.md section 4.4: a native Array gets an ArrayIterator directly,
// a GeneratorObject (also used to back async generators) adapts through
// GeneratorIterator, and anything else must expose a callable
// Symbol.iterator method returning a conforming {next} object.
func (vm *VM) resolveIterator(sc values.Scope, v values.Value) (*boundIterator, error) {
	obj, ok := v.Object()
	if !ok {
		return nil, sc.NewError("TypeError", "value is not iterable")
	}
	switch concrete := obj.AsAny().(type) {
	case *runtime.Array:
		return &boundIterator{it: runtime.NewArrayIterator(vm.arrayProto, concrete), roots: []values.Value{v}}, nil
	case *runtime.GeneratorObject:
		return &boundIterator{it: &runtime.GeneratorIterator{Scope: sc, Gen: concrete}, roots: []values.Value{v}}, nil
	}

	iterFnVal, err := obj.GetProperty(sc, values.SymbolKey(values.SymbolIterator))
	if err != nil {
		return nil, err
	}
	iterFn, ok := iterFnVal.Object()
	if !ok {
		return nil, sc.NewError("TypeError", "value is not iterable")
	}
	iteratorVal, err := iterFn.Apply(sc, iterFnVal.Handle(), v, nil)
	if err != nil {
		return nil, err
	}
	iteratorObj, ok := iteratorVal.Object()
	if !ok {
		return nil, sc.NewError("TypeError", "Symbol.iterator did not return an object")
	}
	nextVal, err := iteratorObj.GetProperty(sc, values.StringKey("next"))
	if err != nil {
		return nil, err
	}
	nextFn, ok := nextVal.Object()
	if !ok {
		return nil, sc.NewError("TypeError", "iterator has no next method")
	}
	return &boundIterator{
		it:    &jsIterator{sc: sc, nextFn: nextFn, nextSelf: iteratorVal},
		roots: []values.Value{v, iteratorVal, nextVal},
	}, nil
}

// execIterInit pops an iterable and pushes the boundIterator wrapping it
// (as a KindIteratorHandle), leaving it in place for IterNext to drive
// repeatedly; the frame stack keeps the iterable rooted through
// markValue's boundIterator case.
func (vm *VM) execIterInit(frame *Frame) error {
	sc := vm.scope()
	v := frame.pop()
	it, err := vm.resolveIterator(sc, v)
	if err != nil {
		return err
	}
	frame.push(values.IteratorHandle(it))
	return nil
}

// execIterNext pops the iterator value the loop's GetLocal just fetched,
// advances it, and either pushes the yielded value for the loop body's
// binding assignment or, once exhausted, leaves the stack empty and
// reports done so step's caller can jump past the loop body. The
// compiler keeps the iterator itself in a synthetic local (@@iterFor)
// and re-fetches it every iteration, so IterNext never needs to put
// anything back.
func (vm *VM) execIterNext(frame *Frame) (bool, error) {
	top := frame.pop()
	bound, _ := top.Data.(*boundIterator)
	if bound == nil {
		return true, vm.scope().NewError("TypeError", "IterNext on a non-iterator stack slot")
	}
	value, done := bound.it.Next()
	if done {
		return true, nil
	}
	frame.push(value)
	return false, nil
}

// execSpreadArray drains the iterable left on top of the stack by the
// preceding expression and replaces it with a single KindSpreadMarker
// value, per values.KindSpreadMarker's doc comment. The drain runs under
// a LocalScope, rooting each element as it is pulled: a generator or
// script iterator re-enters the dispatcher per element, and a collection
// triggered there must not sweep the elements already sitting in the Go
// slice (they only become frame-rooted once the marker is pushed).
func (vm *VM) execSpreadArray(frame *Frame) error {
	sc := vm.scope()
	v := frame.pop()

	lsc := vm.scopeStack.Push(vm.heap)
	defer vm.scopeStack.Pop(lsc)
	rootInScope(lsc, v)

	bound, err := vm.resolveIterator(sc, v)
	if err != nil {
		return err
	}
	for _, r := range bound.roots {
		rootInScope(lsc, r)
	}

	var drained []values.Value
	for {
		el, done := bound.it.Next()
		if done {
			break
		}
		rootInScope(lsc, el)
		drained = append(drained, el)
	}
	frame.push(values.SpreadMarker(drained))
	return nil
}
