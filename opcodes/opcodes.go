// Package opcodes defines the bytecode instruction set the compiler
// emits and the vm package dispatches. Grounded on the teacher's
// opcodes/opcodes.go (_examples/wudi-hey/opcodes/opcodes.go) for the
// iota-range-with-trailing-comment idiom (one const block per family,
// each starting at its own base number with spare values left before the
// next family, so a family can grow without renumbering its neighbors),
// re-keyed to the JS instruction families in spec.md section
// 4.2's table instead of Zend's opcode set.
package opcodes

import "fmt"

// Op is a single bytecode instruction tag. Operands follow inline in the
// code buffer (one or two bytes, little-endian), per spec.md section 4.2
// ("Operand encoding").
type Op byte

// Stack manipulation (0-19)
const (
	Nop Op = iota
	Constant // Constant <u16>  push constants[u16]
	Pop      // Pop             discard top of stack
	Dup      // Dup             duplicate top of stack
)

// Arithmetic (20-39)
const (
	Add Op = iota + 20 // Add    ToPrimitive/string-concat-or-ToNumber then +
	Sub
	Mul
	Div
	Rem
	Pow
	Negate   // unary -
	Positive // unary +
)

// Bitwise (40-59). Operands are coerced with values.ToInt32/ToUint32.
const (
	BitOr Op = iota + 40
	BitAnd
	BitXor
	BitShl
	BitShr
	BitUShr
	BitNot
)

// Comparison (60-79)
const (
	Lt Op = iota + 60
	Le
	Gt
	Ge
	Eq
	Neq
	StrictEq
	StrictNeq
	InstanceOf
)

// Logical / short-circuit branches that test without popping (80-99)
const (
	LogicalNot Op = iota + 80
	ShortJmpIfFalse
	ShortJmpIfTrue
	ShortJmpIfNullish
)

// Variable access (100-129)
const (
	GetLocal Op = iota + 100
	SetLocal
	GetUpvalue
	SetUpvalue
	GetGlobal
	SetGlobal
	// Supplemented from original_source (dash_parser's expression
	// grammar): typeof/delete/void/in are exposed as dedicated opcodes
	// rather than being rewritten as function calls, matching how the
	// comparison/logical families are each given their own opcode.
	TypeOf
	Delete
	Void
	In
)

// Object protocol (130-159)
const (
	StaticPropertyAccess Op = iota + 130
	ComputedPropertyAccess
	SetProperty
	DeleteProperty
	ObjectLiteral
	ArrayLiteral
	// SpreadArray marks the preceding stack value as a spread element,
	// consumed by ArrayLiteral/FunctionCall (supplemented spread-args
	// feature; see SPEC_FULL.md section 4.1-4.2).
	SpreadArray
)

// Calls (160-179). Stack order is receiver, callee, then each argument
// left to right; FunctionCall/ConstructorCall pop argc arguments, then
// the callee, then the receiver (spec.md section 4.2.1). A plain call's
// receiver is pushed as undefined; a method call's receiver is the
// object the method was fetched from.
const (
	FunctionCall Op = iota + 160 // FunctionCall <argc>
	ConstructorCall              // ConstructorCall <argc>
	Return
	ReturnModule
)

// Control flow (180-209)
const (
	Jmp Op = iota + 180 // Jmp <offset>
	BackJmp              // BackJmp <offset>  backward edge; drives jit hot-loop counting
	LoopStart
	LoopEnd
	Break    // Break <offset>     jump to the loop's exit, patched by the compiler
	Continue // Continue <offset>  jump to the loop's continue point
	// IterInit pops an iterable value and pushes the runtime.Iterator
	// wrapping it (direct wrap for Array and generator objects,
	// Symbol.iterator protocol for other objects; primitives are rejected).
	// IterNext pops the iterator value on top of the stack, advances it,
	// and either pushes the yielded value or, once exhausted, pushes
	// nothing and jumps to <offset>. Desugars
	// for-of the same way the compiler desugars if/while into
	// Jmp/ShortJmpIfFalse rather than adding a single monolithic ForOf
	// opcode.
	IterInit
	IterNext // IterNext <exit_offset>
)

// Exceptions (210-219)
const (
	Try Op = iota + 210 // Try <catch_offset>
	PopUnwindHandler
	Throw
)

// Generator / async suspension (220-229)
const (
	Yield Op = iota + 220
	Await
)

// Closures and binding forms with dedicated opcodes (230-239)
const (
	Closure Op = iota + 230 // Closure <const_idx>  then one UpvalueLocal/UpvalueNonLocal per upvalue
	UpvalueLocal
	UpvalueNonLocal
	This
	Super
	GlobalThis
)

// Modules (240-249). EvaluateModule resolves its constant-pool specifier
// through the VM's configured module resolver and pushes the module's
// exports value; the Export pair writes into the current module frame's
// exports object (spec.md section 4.1.5).
const (
	EvaluateModule Op = iota + 240 // EvaluateModule <const_idx>
	ExportDefault
	ExportNamed // ExportNamed <const_idx>
)

func (o Op) String() string {
	if s, ok := names[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", byte(o))
}

var names = map[Op]string{
	Nop: "Nop", Constant: "Constant", Pop: "Pop", Dup: "Dup",
	Add: "Add", Sub: "Sub", Mul: "Mul", Div: "Div", Rem: "Rem", Pow: "Pow",
	Negate: "Negate", Positive: "Positive",
	BitOr: "BitOr", BitAnd: "BitAnd", BitXor: "BitXor", BitShl: "BitShl",
	BitShr: "BitShr", BitUShr: "BitUShr", BitNot: "BitNot",
	Lt: "Lt", Le: "Le", Gt: "Gt", Ge: "Ge", Eq: "Eq", Neq: "Neq",
	StrictEq: "StrictEq", StrictNeq: "StrictNeq", InstanceOf: "InstanceOf",
	LogicalNot: "LogicalNot", ShortJmpIfFalse: "ShortJmpIfFalse",
	ShortJmpIfTrue: "ShortJmpIfTrue", ShortJmpIfNullish: "ShortJmpIfNullish",
	GetLocal: "GetLocal", SetLocal: "SetLocal", GetUpvalue: "GetUpvalue",
	SetUpvalue: "SetUpvalue", GetGlobal: "GetGlobal", SetGlobal: "SetGlobal",
	TypeOf: "TypeOf", Delete: "Delete", Void: "Void", In: "In",
	StaticPropertyAccess: "StaticPropertyAccess", ComputedPropertyAccess: "ComputedPropertyAccess",
	SetProperty: "SetProperty", DeleteProperty: "DeleteProperty",
	ObjectLiteral: "ObjectLiteral", ArrayLiteral: "ArrayLiteral", SpreadArray: "SpreadArray",
	FunctionCall: "FunctionCall", ConstructorCall: "ConstructorCall",
	Return: "Return", ReturnModule: "ReturnModule",
	Jmp: "Jmp", BackJmp: "BackJmp", LoopStart: "LoopStart", LoopEnd: "LoopEnd",
	Break: "Break", Continue: "Continue",
	IterInit: "IterInit", IterNext: "IterNext",
	Try: "Try", PopUnwindHandler: "PopUnwindHandler", Throw: "Throw",
	Yield: "Yield", Await: "Await",
	Closure: "Closure", UpvalueLocal: "UpvalueLocal", UpvalueNonLocal: "UpvalueNonLocal",
	This: "This", Super: "Super", GlobalThis: "GlobalThis",
	EvaluateModule: "EvaluateModule", ExportDefault: "ExportDefault", ExportNamed: "ExportNamed",
}

// Width reports how many operand bytes (beyond the opcode byte itself)
// follow this instruction, per spec.md's "fixed-width operands (1 or 2
// bytes)". Instructions with no inline operand (value-stack-only ops)
// return 0.
func (o Op) Width() int {
	switch o {
	case Constant, GetLocal, SetLocal, GetUpvalue, SetUpvalue, GetGlobal, SetGlobal,
		FunctionCall, ConstructorCall, Jmp, BackJmp, Break, Continue, Try, IterNext,
		ShortJmpIfFalse, ShortJmpIfTrue, ShortJmpIfNullish, ArrayLiteral, ObjectLiteral,
		Closure, UpvalueLocal, UpvalueNonLocal, EvaluateModule, ExportNamed:
		return 2
	default:
		return 0
	}
}
