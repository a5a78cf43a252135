package vm

import (
	"github.com/vela-lang/vela/modhost"
	"github.com/vela-lang/vela/opcodes"
	"github.com/vela-lang/vela/values"
)

// execEvaluateModule resolves a static import's specifier through the
// VM's configured module resolver and pushes the resulting exports
// value. Only static resolution happens here: dynamic import never
// reaches the dispatcher (the compiler rejects it with NotImplemented).
func (vm *VM) execEvaluateModule(frame *Frame) error {
	idx := vm.readU16(frame)
	specifier := frame.fn.Constants[idx]
	sc := vm.scope()

	if vm.resolver == nil {
		return sc.NewError("Error", "import is disabled: no module resolver configured")
	}
	v, found, err := vm.resolver.Resolve(sc, modhost.Static, specifier.Str())
	if err != nil {
		return err
	}
	if !found {
		return sc.NewError("Error", "module not found: %s", specifier.Str())
	}
	frame.push(v)
	return nil
}

// execExport writes the popped value into the current module frame's
// exports object, under "default" for ExportDefault or under the
// instruction's constant-pool name for ExportNamed.
func (vm *VM) execExport(frame *Frame, op opcodes.Op) error {
	sc := vm.scope()
	if frame.moduleExports.IsNil() {
		return sc.NewError("SyntaxError", "export used outside a module")
	}

	name := "default"
	if op == opcodes.ExportNamed {
		idx := vm.readU16(frame)
		name = frame.fn.Constants[idx].Str()
	}
	value := frame.pop()

	exports, ok := frame.moduleExports.Object()
	if !ok {
		return sc.NewError("TypeError", "module exports is not an object")
	}
	return exports.SetProperty(sc, values.StringKey(name), values.StaticProperty(value))
}
