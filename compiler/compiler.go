// Package compiler walks an ast.Program and emits a registry.Function:
// bytecode, constant pool, and the scope/upvalue layout the vm package
// needs to build frames. Grounded on the teacher's compiler package
// (_examples/wudi-hey/compiler) for the overall single-pass
// tree-walking-emits-bytecode shape and its scope/local-slot bookkeeping,
// re-keyed from Zend opcodes to the JS opcode families in package
// opcodes. Closures resolve upvalues the way a register-based tree-walk
// compiler conventionally does: a child Compiler holds a pointer to its
// enclosing Compiler and walks outward on a miss, recording each capture
// as a registry.UpvalueDescriptor (Local=true for a capture of the
// immediately enclosing frame's own local, Local=false when the capture
// itself chases the enclosing frame's own upvalue list).
package compiler

import (
	"encoding/binary"

	"github.com/vela-lang/vela/ast"
	"github.com/vela-lang/vela/errors"
	"github.com/vela-lang/vela/opcodes"
	"github.com/vela-lang/vela/registry"
	"github.com/vela-lang/vela/values"
)

type localVar struct {
	name  string
	depth int
}

// loopContext tracks one enclosing loop's break/continue patch sites, so
// `break`/`continue` (labeled or bare) can be resolved without walking
// back up the AST.
type loopContext struct {
	label        string
	breakJumps   []int // offsets of the 2-byte jump operand to patch
	continueJumps []int
	continueTarget int // always -1: popLoop receives the continue target as its argument instead
	// isSwitch marks a context pushed for a switch statement rather than
	// a loop: it accepts break but, per JS semantics, continue must skip
	// over it to the nearest enclosing loop.
	isSwitch bool
}

type Compiler struct {
	enclosing *Compiler

	fn   *registry.Function
	code []byte

	constants    []values.Value
	constIndex   map[any]int

	locals      []localVar
	scopeDepth  int
	// maxLocalCount is the high-water mark of len(locals) ever reached.
	// Slot indices returned by declareLocal are reused once a sibling
	// block scope's locals are trimmed by endScope, so len(locals) at
	// the end of Compile understates how many slots the vm frame needs
	// to allocate; this field tracks the peak instead.
	maxLocalCount int

	loops []loopContext

	errs *errors.List
	pos  errors.Position
}

func New(name string) *Compiler {
	return &Compiler{
		fn:         &registry.Function{Name: name},
		constIndex: make(map[any]int),
		errs:       errors.NewList(""),
	}
}

func (c *Compiler) Errors() *errors.List { return c.errs }

// Compile compiles a top-level program into its Function. A program that
// uses import/export anywhere at its top level is a module entry point:
// its ModulePath is set and the dispatcher selects ReturnModule instead
// of Return at the end, per spec.md section 4.1.5, so running it yields
// the exports object rather than the final expression value.
func (c *Compiler) Compile(prog *ast.Program) *registry.Function {
	for _, stmt := range prog.Body {
		switch stmt.(type) {
		case *ast.ImportDeclaration, *ast.ExportDefaultStatement, *ast.ExportNamedStatement:
			c.fn.ModulePath = c.fn.Name
		}
	}
	for _, stmt := range prog.Body {
		c.compileStatement(stmt)
	}
	c.emitOp(opcodes.Constant)
	c.emitU16(c.constant(values.Undefined()))
	if c.fn.ModulePath != "" {
		c.emitOp(opcodes.ReturnModule)
	} else {
		c.emitOp(opcodes.Return)
	}
	c.fn.Code = c.code
	c.fn.Constants = c.constants
	c.fn.LocalCount = c.maxLocals()
	return c.fn
}

func (c *Compiler) maxLocals() int { return c.maxLocalCount }

// --- emission helpers ---

func (c *Compiler) emitOp(op opcodes.Op) int {
	c.code = append(c.code, byte(op))
	return len(c.code) - 1
}

func (c *Compiler) emitU16(v int) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(v))
	c.code = append(c.code, buf[:]...)
}

// emitJump emits op with a placeholder 2-byte offset and returns the
// offset of that placeholder for later patching.
func (c *Compiler) emitJump(op opcodes.Op) int {
	c.emitOp(op)
	pos := len(c.code)
	c.emitU16(0)
	return pos
}

func (c *Compiler) patchJump(placeholder int) {
	c.patchJumpTo(placeholder, len(c.code))
}

func (c *Compiler) patchJumpTo(placeholder, target int) {
	binary.LittleEndian.PutUint16(c.code[placeholder:placeholder+2], uint16(target))
}

func (c *Compiler) emitLoop(startOffset int) {
	c.emitOp(opcodes.BackJmp)
	c.emitU16(startOffset)
}

// constant interns v into the constant pool, deduplicating primitive
// constants (numbers/strings/booleans) by Go value.
func (c *Compiler) constant(v values.Value) int {
	key := any(v.Kind)
	switch v.Kind {
	case values.KindNumber:
		key = v.Num()
	case values.KindString:
		key = v.Str()
	case values.KindBoolean:
		key = v.Bool()
	default:
		c.constants = append(c.constants, v)
		return len(c.constants) - 1
	}
	if idx, ok := c.constIndex[key]; ok {
		return idx
	}
	c.constants = append(c.constants, v)
	idx := len(c.constants) - 1
	c.constIndex[key] = idx
	return idx
}

// --- scope management ---

func (c *Compiler) beginScope() { c.scopeDepth++ }

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *Compiler) declareLocal(name string) int {
	c.locals = append(c.locals, localVar{name: name, depth: c.scopeDepth})
	if len(c.locals) > c.maxLocalCount {
		c.maxLocalCount = len(c.locals)
	}
	return len(c.locals) - 1
}

func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return i, true
		}
	}
	return 0, false
}

// resolveUpvalue looks for name in the enclosing compiler chain, adding a
// capture descriptor at every level between the defining frame and this
// one.
func (c *Compiler) resolveUpvalue(name string) (int, bool) {
	if c.enclosing == nil {
		return 0, false
	}
	if idx, ok := c.enclosing.resolveLocal(name); ok {
		return c.addUpvalue(registry.UpvalueDescriptor{Index: idx, Local: true}), true
	}
	if idx, ok := c.enclosing.resolveUpvalue(name); ok {
		return c.addUpvalue(registry.UpvalueDescriptor{Index: idx, Local: false}), true
	}
	return 0, false
}

func (c *Compiler) addUpvalue(d registry.UpvalueDescriptor) int {
	for i, existing := range c.fn.Upvalues {
		if existing == d {
			return i
		}
	}
	c.fn.Upvalues = append(c.fn.Upvalues, d)
	c.fn.UpvalueCount = len(c.fn.Upvalues)
	return len(c.fn.Upvalues) - 1
}

func (c *Compiler) currentLoop() *loopContext {
	if len(c.loops) == 0 {
		return nil
	}
	return &c.loops[len(c.loops)-1]
}

// findLoop resolves a break target: the innermost enclosing context
// (loop or switch) when label is empty, or the named context otherwise.
func (c *Compiler) findLoop(label string) *loopContext {
	for i := len(c.loops) - 1; i >= 0; i-- {
		if label == "" || c.loops[i].label == label {
			return &c.loops[i]
		}
	}
	return nil
}

// findContinueTarget resolves a continue target: continue always targets
// a loop, so switch contexts in between are skipped.
func (c *Compiler) findContinueTarget(label string) *loopContext {
	for i := len(c.loops) - 1; i >= 0; i-- {
		if c.loops[i].isSwitch {
			continue
		}
		if label == "" || c.loops[i].label == label {
			return &c.loops[i]
		}
	}
	return nil
}
