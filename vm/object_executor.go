package vm

import (
	"github.com/vela-lang/vela/opcodes"
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

// execObject implements the Object protocol family: property access,
// assignment, deletion, and the ObjectLiteral/ArrayLiteral constructors.
// ArrayLiteral additionally expands any KindSpreadMarker slots a preceding
// SpreadArray produced, per the spread-args design in values.KindSpreadMarker's
// doc comment.
func (vm *VM) execObject(frame *Frame, op opcodes.Op) error {
	sc := vm.scope()

	switch op {
	case opcodes.StaticPropertyAccess, opcodes.ComputedPropertyAccess:
		key := frame.pop()
		obj := frame.pop()
		pk, err := values.KeyFromValue(sc, key)
		if err != nil {
			return err
		}
		target, ok := obj.Object()
		if !ok {
			target, err = vm.boxPrimitive(sc, obj)
			if err != nil {
				return err
			}
		}
		v, err := target.GetProperty(sc, pk)
		if err != nil {
			return err
		}
		frame.push(v)
		return nil

	case opcodes.SetProperty:
		val := frame.pop()
		key := frame.pop()
		obj := frame.pop()
		pk, err := values.KeyFromValue(sc, key)
		if err != nil {
			return err
		}
		target, ok := obj.Object()
		if !ok {
			return sc.NewError("TypeError", "cannot set properties of %s", obj.Kind)
		}
		if err := target.SetProperty(sc, pk, values.StaticProperty(val)); err != nil {
			return err
		}
		frame.push(val)
		return nil

	case opcodes.DeleteProperty:
		key := frame.pop()
		obj := frame.pop()
		pk, err := values.KeyFromValue(sc, key)
		if err != nil {
			return err
		}
		target, ok := obj.Object()
		if !ok {
			frame.push(values.Bool(true))
			return nil
		}
		if _, err := target.DeleteProperty(sc, pk); err != nil {
			return err
		}
		frame.push(values.Bool(true))
		return nil

	case opcodes.ObjectLiteral:
		n := vm.readU16(frame)
		pairs := make([]values.Value, n*2)
		for i := n*2 - 1; i >= 0; i-- {
			pairs[i] = frame.pop()
		}
		obj := values.NewNamedObject(vm.objectProto, values.ObjectHandle{})
		for i := 0; i < n; i++ {
			key := pairs[i*2]
			val := pairs[i*2+1]
			pk, err := values.KeyFromValue(sc, key)
			if err != nil {
				return err
			}
			if err := obj.SetProperty(sc, pk, values.StaticProperty(val)); err != nil {
				return err
			}
		}
		h := values.WrapHandle(vm.heap.Register(obj))
		frame.push(values.FromObject(h))
		return nil

	case opcodes.ArrayLiteral:
		n := vm.readU16(frame)
		slots := make([]values.Value, n)
		for i := n - 1; i >= 0; i-- {
			slots[i] = frame.pop()
		}
		elements := expandSpreadSlots(slots)
		arr := runtime.NewArray(vm.arrayProto, elements)
		h := values.WrapHandle(vm.heap.Register(arr))
		frame.push(values.FromObject(h))
		return nil
	}
	return nil
}

// boxPrimitive wraps a string/number/boolean in its transient wrapper
// object so property access works on raw primitives (`"abc".length`,
// `(1.5).toFixed(1)`), per spec.md section 3's boxing hierarchy. The box
// is never heap-registered: it lives only for this one property lookup,
// and anything the lookup returns belongs to the prototype chain or is a
// fresh primitive. Reading a property of undefined/null stays a
// TypeError.
func (vm *VM) boxPrimitive(sc values.Scope, v values.Value) (values.Object, error) {
	switch v.Kind {
	case values.KindString:
		return values.NewStringObject(vm.stringProto, v.Str()), nil
	case values.KindNumber:
		return values.NewNumberObject(vm.numberProto, v.Num()), nil
	case values.KindBoolean:
		return values.NewBooleanObject(vm.booleanProto, v.Bool()), nil
	}
	return nil, sc.NewError("TypeError", "cannot read properties of %s", v.Kind)
}

// expandSpreadSlots flattens a fixed-count list of argument/element slots,
// replacing each KindSpreadMarker produced by SpreadArray with the values
// it drained, so a syntactically fixed slot count can still assemble a
// dynamically sized argument/element list.
func expandSpreadSlots(slots []values.Value) []values.Value {
	out := make([]values.Value, 0, len(slots))
	for _, v := range slots {
		if v.Kind == values.KindSpreadMarker {
			out = append(out, v.Data.([]values.Value)...)
			continue
		}
		out = append(out, v)
	}
	return out
}
