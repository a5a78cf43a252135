// Package registry holds the compiled Function descriptor shared between
// the compiler and the VM. Splitting it out avoids a circular import: the
// compiler produces Function values, the VM executes them, and neither
// package needs to import the other. Grounded on the teacher's own
// registry/function.go (_examples/wudi-hey/registry) for the split, with
// the PHP-specific field set (ParamInfo, MinArgs/MaxArgs, Builtin closures
// over *values.Value) replaced by spec.md section 3/4.1's bytecode +
// constant pool + upvalue layout.
package registry

import "github.com/vela-lang/vela/values"

// Param describes one declared parameter: its name (for
// arguments.callee-style introspection and error messages), whether it
// collects the remainder via `...rest`, and whether it has a default
// expression (compiled inline into the function body's code).
type Param struct {
	Name     string
	Rest     bool
	HasDefault bool
}

// UpvalueDescriptor tells the VM where a closed-over variable lives: in
// the immediately enclosing frame's locals (Local=true), or in that
// frame's own upvalues (Local=false, chased transitively).
type UpvalueDescriptor struct {
	Index int
	Local bool
}

// Function is the compiled, immutable descriptor for one JS function: its
// bytecode, constant pool, and the static shape the VM needs to build a
// Frame without re-walking the AST. A single Function is shared by every
// closure created from the same function expression; per-closure state
// (captured upvalue handles) lives in runtime.UserFunction instead.
type Function struct {
	Name string

	// Code is the opcode stream, as emitted by the compiler (spec.md
	// section 4.1). Its element type is defined by the opcodes package;
	// stored here as []byte since registry must not import opcodes (the
	// compiler does, and importing it back here would cycle).
	Code []byte

	Constants []values.Value

	Params       []Param
	LocalCount   int
	UpvalueCount int
	Upvalues     []UpvalueDescriptor

	// SourceMap maps instruction offsets back to source positions, used
	// by the error-reporting path (spec.md section 7) and by stack trace
	// formatting.
	SourceMap []SourcePos

	IsGenerator bool
	IsAsync     bool

	// ModulePath is set for the top-level Function compiled from a
	// module's source text; empty for ordinary function/method bodies.
	ModulePath string
}

type SourcePos struct {
	InstructionOffset int
	Line, Column      int
}

func (f *Function) Arity() int {
	n := 0
	for _, p := range f.Params {
		if p.Rest {
			break
		}
		n++
	}
	return n
}
