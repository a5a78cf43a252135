package vm

import (
	"github.com/vela-lang/vela/opcodes"
	"github.com/vela-lang/vela/values"
)

// execVariable implements local/upvalue/global binding access plus the
// typeof/delete/void/in operators the compiler gives dedicated opcodes
// (SPEC_FULL.md's supplemented operator-expression coverage). Set* opcodes
// peek rather than pop: the compiler relies on the assigned value staying
// on the stack so `let x = (y = 1);`-style chains work without a
// dedicated store-and-discard instruction; callers that don't need the
// result emit an explicit Pop afterward.
func (vm *VM) execVariable(frame *Frame, op opcodes.Op) error {
	sc := vm.scope()

	switch op {
	case opcodes.GetLocal:
		slot := vm.readU16(frame)
		frame.push(frame.getLocal(slot))
	case opcodes.SetLocal:
		slot := vm.readU16(frame)
		frame.setLocal(slot, frame.peek())
	case opcodes.GetUpvalue:
		idx := vm.readU16(frame)
		frame.push(frame.upvalues[idx].value)
	case opcodes.SetUpvalue:
		idx := vm.readU16(frame)
		frame.upvalues[idx].value = frame.peek()
	case opcodes.GetGlobal:
		idx := vm.readU16(frame)
		name := frame.fn.Constants[idx].Str()
		obj, ok := vm.global.Object()
		if !ok {
			return sc.NewError("ReferenceError", "%s is not defined", name)
		}
		v, err := obj.GetProperty(sc, values.StringKey(name))
		if err != nil {
			return err
		}
		frame.push(v)
	case opcodes.SetGlobal:
		idx := vm.readU16(frame)
		name := frame.fn.Constants[idx].Str()
		obj, ok := vm.global.Object()
		if !ok {
			return sc.NewError("ReferenceError", "%s is not defined", name)
		}
		v := frame.peek()
		if err := obj.SetProperty(sc, values.StringKey(name), values.StaticProperty(v)); err != nil {
			return err
		}
	case opcodes.TypeOf:
		v := frame.pop()
		frame.push(values.String(string(typeOfValue(v))))
	case opcodes.Void:
		frame.pop()
		frame.push(values.Undefined())
	case opcodes.Delete:
		key := frame.pop()
		obj := frame.pop()
		target, ok := obj.Object()
		if !ok {
			frame.push(values.Bool(true))
			return nil
		}
		pk, err := values.KeyFromValue(sc, key)
		if err != nil {
			return err
		}
		if _, err := target.DeleteProperty(sc, pk); err != nil {
			return err
		}
		frame.push(values.Bool(true))
	case opcodes.In:
		// `key in obj` compiles Left (key) then Right (obj), so obj is on
		// top of the stack.
		obj := frame.pop()
		key := frame.pop()
		target, ok := obj.Object()
		if !ok {
			return sc.NewError("TypeError", "cannot use 'in' operator on a non-object")
		}
		pk, err := values.KeyFromValue(sc, key)
		if err != nil {
			return err
		}
		found, err := hasProperty(sc, target, pk)
		if err != nil {
			return err
		}
		frame.push(values.Bool(found))
	}
	return nil
}

func typeOfValue(v values.Value) values.Typeof {
	switch v.Kind {
	case values.KindUndefined:
		return values.TypeofUndefined
	case values.KindNull:
		// typeof null === "object" is a long-standing, deliberately kept
		// ECMAScript quirk.
		return values.TypeofObject
	case values.KindBoolean:
		return values.TypeofBoolean
	case values.KindNumber:
		return values.TypeofNumber
	case values.KindString:
		return values.TypeofString
	case values.KindSymbol:
		return values.TypeofSymbol
	case values.KindObject, values.KindExternal:
		if obj, ok := v.Object(); ok {
			return obj.TypeOf()
		}
		return values.TypeofObject
	default:
		return values.TypeofUndefined
	}
}

// hasProperty walks the prototype chain looking for key, since Object has
// no dedicated "own or inherited" probe distinct from GetProperty (which
// can't distinguish "absent" from "present and undefined").
func hasProperty(sc values.Scope, obj values.Object, key values.PropertyKey) (bool, error) {
	keys, err := obj.OwnKeys()
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if k.Kind == values.KindSymbol && key.IsSymbol() && k.Symbol().Equal(key.Symbol()) {
			return true, nil
		}
		if k.Kind == values.KindString && !key.IsSymbol() && k.Str() == key.String() {
			return true, nil
		}
	}
	proto, err := obj.GetPrototype(sc)
	if err != nil {
		return false, err
	}
	if proto.Kind != values.KindObject && proto.Kind != values.KindExternal {
		return false, nil
	}
	protoObj, ok := proto.Object()
	if !ok {
		return false, nil
	}
	return hasProperty(sc, protoObj, key)
}
