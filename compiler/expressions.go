package compiler

import (
	"strconv"

	"github.com/vela-lang/vela/ast"
	"github.com/vela-lang/vela/errors"
	"github.com/vela-lang/vela/opcodes"
	"github.com/vela-lang/vela/registry"
	"github.com/vela-lang/vela/values"
)

func (c *Compiler) compileExpression(expr ast.Expression) {
	c.pos = expr.Pos()
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		c.emitConstant(values.Number(e.Value))
	case *ast.StringLiteral:
		c.emitConstant(values.String(e.Value))
	case *ast.BoolLiteral:
		c.emitConstant(values.Bool(e.Value))
	case *ast.NullLiteral:
		c.emitConstant(values.Null())
	case *ast.UndefinedLiteral:
		c.emitConstant(values.Undefined())
	case *ast.Identifier:
		c.compileIdentifierGet(e.Name)
	case *ast.ThisExpression:
		c.emitOp(opcodes.This)
	case *ast.SuperExpression:
		c.emitOp(opcodes.Super)
	case *ast.BinaryExpression:
		c.compileExpression(e.Left)
		c.compileExpression(e.Right)
		c.emitOp(binaryOpcode(e.Operator))
	case *ast.LogicalExpression:
		c.compileLogical(e)
	case *ast.UnaryExpression:
		c.compileUnary(e)
	case *ast.UpdateExpression:
		c.compileUpdate(e)
	case *ast.AssignmentExpression:
		c.compileAssignment(e)
	case *ast.ConditionalExpression:
		c.compileConditional(e)
	case *ast.MemberExpression:
		c.compileMemberGet(e)
	case *ast.CallExpression:
		c.compileCall(e)
	case *ast.NewExpression:
		c.compileNew(e)
	case *ast.ArrayLiteral:
		c.compileArrayLiteral(e)
	case *ast.ObjectLiteral:
		c.compileObjectLiteral(e)
	case *ast.FunctionExpression:
		c.compileFunctionExpression(e)
	case *ast.YieldExpression:
		c.compileYield(e)
	case *ast.AwaitExpression:
		c.compileExpression(e.Argument)
		c.emitOp(opcodes.Await)
	case *ast.SequenceExpression:
		for i, inner := range e.Expressions {
			if i > 0 {
				c.emitOp(opcodes.Pop)
			}
			c.compileExpression(inner)
		}
	case *ast.ImportCallExpression:
		c.notImplemented("dynamic import")
	case *ast.SpreadElement:
		// A bare spread only has meaning inside a call/array-literal
		// argument list; those callers special-case *ast.SpreadElement
		// before recursing here. Reaching this case means `...x` was
		// used somewhere else in the grammar.
		c.errorf(errors.KindUnexpectedToken, "unexpected spread element")
	default:
		c.errorf(errors.KindUnexpectedToken, "unsupported expression %T", e)
	}
}

func binaryOpcode(op string) opcodes.Op {
	switch op {
	case "+":
		return opcodes.Add
	case "-":
		return opcodes.Sub
	case "*":
		return opcodes.Mul
	case "/":
		return opcodes.Div
	case "%":
		return opcodes.Rem
	case "**":
		return opcodes.Pow
	case "&":
		return opcodes.BitAnd
	case "|":
		return opcodes.BitOr
	case "^":
		return opcodes.BitXor
	case "<<":
		return opcodes.BitShl
	case ">>":
		return opcodes.BitShr
	case ">>>":
		return opcodes.BitUShr
	case "<":
		return opcodes.Lt
	case "<=":
		return opcodes.Le
	case ">":
		return opcodes.Gt
	case ">=":
		return opcodes.Ge
	case "==":
		return opcodes.Eq
	case "!=":
		return opcodes.Neq
	case "===":
		return opcodes.StrictEq
	case "!==":
		return opcodes.StrictNeq
	case "in":
		return opcodes.In
	case "instanceof":
		return opcodes.InstanceOf
	default:
		return opcodes.Nop
	}
}

// compileIdentifierGet resolves a name against the local, then upvalue,
// then global scope, in that order, mirroring JS's lexical-scope-then-
// global-object resolution.
func (c *Compiler) compileIdentifierGet(name string) {
	if name == "globalThis" {
		c.emitOp(opcodes.GlobalThis)
		return
	}
	if slot, ok := c.resolveLocal(name); ok {
		c.emitOp(opcodes.GetLocal)
		c.emitU16(slot)
		return
	}
	if idx, ok := c.resolveUpvalue(name); ok {
		c.emitOp(opcodes.GetUpvalue)
		c.emitU16(idx)
		return
	}
	c.emitOp(opcodes.GetGlobal)
	c.emitU16(c.constant(values.String(name)))
}

func (c *Compiler) compileIdentifierSet(name string) {
	if slot, ok := c.resolveLocal(name); ok {
		c.emitOp(opcodes.SetLocal)
		c.emitU16(slot)
		return
	}
	if idx, ok := c.resolveUpvalue(name); ok {
		c.emitOp(opcodes.SetUpvalue)
		c.emitU16(idx)
		return
	}
	c.emitOp(opcodes.SetGlobal)
	c.emitU16(c.constant(values.String(name)))
}

// compileLogical implements &&, ||, ?? as short-circuiting branches: the
// relevant test opcode inspects the top of stack without popping it, so
// the skipped-evaluation path leaves that value as the whole
// expression's result, and the evaluated path discards it first.
func (c *Compiler) compileLogical(e *ast.LogicalExpression) {
	c.compileExpression(e.Left)
	var skip int
	switch e.Operator {
	case "&&":
		skip = c.emitJump(opcodes.ShortJmpIfFalse)
	case "||":
		skip = c.emitJump(opcodes.ShortJmpIfTrue)
	case "??":
		// ShortJmpIfNullish branches when the left operand IS nullish,
		// which for ?? is the evaluate-the-right-side path, not the
		// short-circuit path — so the jump layout inverts relative to
		// &&/||: nullish falls through to the right operand, anything
		// else jumps over it.
		evalRight := c.emitJump(opcodes.ShortJmpIfNullish)
		skip = c.emitJump(opcodes.Jmp)
		c.patchJump(evalRight)
		c.emitOp(opcodes.Pop)
		c.compileExpression(e.Right)
		c.patchJump(skip)
		return
	default:
		c.errorf(errors.KindUnexpectedToken, "unknown logical operator %q", e.Operator)
		return
	}
	c.emitOp(opcodes.Pop)
	c.compileExpression(e.Right)
	c.patchJump(skip)
}

func (c *Compiler) compileUnary(e *ast.UnaryExpression) {
	switch e.Operator {
	case "-":
		c.compileExpression(e.Argument)
		c.emitOp(opcodes.Negate)
	case "+":
		c.compileExpression(e.Argument)
		c.emitOp(opcodes.Positive)
	case "!":
		c.compileExpression(e.Argument)
		c.emitOp(opcodes.LogicalNot)
	case "~":
		c.compileExpression(e.Argument)
		c.emitOp(opcodes.BitNot)
	case "typeof":
		c.compileExpression(e.Argument)
		c.emitOp(opcodes.TypeOf)
	case "void":
		c.compileExpression(e.Argument)
		c.emitOp(opcodes.Void)
	case "delete":
		c.compileDelete(e.Argument)
	default:
		c.errorf(errors.KindUnexpectedToken, "unknown unary operator %q", e.Operator)
	}
}

func (c *Compiler) compileDelete(target ast.Expression) {
	m, ok := target.(*ast.MemberExpression)
	if !ok {
		// Deleting a plain identifier or non-reference isn't a property
		// delete; per spec.md's operator table this always yields true
		// without side effects.
		c.emitConstant(values.Bool(true))
		return
	}
	c.compileExpression(m.Object)
	c.compileMemberKey(m)
	c.emitOp(opcodes.DeleteProperty)
}

// compileMemberKey pushes the property key for m: the identifier name as
// a string constant for dot access, or the evaluated bracket expression
// for computed access.
func (c *Compiler) compileMemberKey(m *ast.MemberExpression) {
	if m.Computed {
		c.compileExpression(m.Property)
		return
	}
	name := m.Property.(*ast.Identifier).Name
	c.emitConstant(values.String(name))
}

// compileMemberGet compiles `obj.prop`/`obj[expr]` as a value: push obj,
// push key, StaticPropertyAccess/ComputedPropertyAccess pops both and
// pushes the resolved value.
func (c *Compiler) compileMemberGet(m *ast.MemberExpression) {
	c.compileExpression(m.Object)
	c.compileMemberKey(m)
	if m.Computed {
		c.emitOp(opcodes.ComputedPropertyAccess)
	} else {
		c.emitOp(opcodes.StaticPropertyAccess)
	}
}

// memberRef evaluates a MemberExpression's object and key exactly once
// into synthetic locals, returning their slots, so compound assignment
// and update expressions can read-then-write through the same reference
// without needing stack-shuffling opcodes.
func (c *Compiler) memberRef(m *ast.MemberExpression) (objSlot, keySlot int) {
	c.compileExpression(m.Object)
	objSlot = c.declareLocal("@@obj")
	c.emitOp(opcodes.SetLocal)
	c.emitU16(objSlot)
	c.emitOp(opcodes.Pop)

	c.compileMemberKey(m)
	keySlot = c.declareLocal("@@key")
	c.emitOp(opcodes.SetLocal)
	c.emitU16(keySlot)
	c.emitOp(opcodes.Pop)
	return
}

func (c *Compiler) emitMemberGetFromRef(objSlot, keySlot int) {
	c.emitOp(opcodes.GetLocal)
	c.emitU16(objSlot)
	c.emitOp(opcodes.GetLocal)
	c.emitU16(keySlot)
	c.emitOp(opcodes.ComputedPropertyAccess)
}

// emitMemberSetFromRef expects the value to assign already on top of the
// stack; it spills that value to a local too so obj/key/value can be
// re-pushed in the fixed order SetProperty expects (obj, key, value).
func (c *Compiler) emitMemberSetFromRef(objSlot, keySlot int) {
	valSlot := c.declareLocal("@@val")
	c.emitOp(opcodes.SetLocal)
	c.emitU16(valSlot)
	c.emitOp(opcodes.Pop)

	c.emitOp(opcodes.GetLocal)
	c.emitU16(objSlot)
	c.emitOp(opcodes.GetLocal)
	c.emitU16(keySlot)
	c.emitOp(opcodes.GetLocal)
	c.emitU16(valSlot)
	c.emitOp(opcodes.SetProperty)
}

// compileUpdate implements ++/-- on an identifier or member reference.
// Prefix yields the updated value; postfix yields the prior value while
// still storing the updated one.
func (c *Compiler) compileUpdate(e *ast.UpdateExpression) {
	step := opcodes.Add
	if e.Operator == "--" {
		step = opcodes.Sub
	}

	switch target := e.Argument.(type) {
	case *ast.Identifier:
		c.compileIdentifierGet(target.Name)
		if e.Prefix {
			c.emitConstant(values.Number(1))
			c.emitOp(step)
			c.compileIdentifierSet(target.Name)
			return
		}
		oldSlot := c.declareLocal("@@old")
		c.emitOp(opcodes.SetLocal)
		c.emitU16(oldSlot)
		c.emitOp(opcodes.Pop)
		c.emitOp(opcodes.GetLocal)
		c.emitU16(oldSlot)
		c.emitConstant(values.Number(1))
		c.emitOp(step)
		c.compileIdentifierSet(target.Name)
		c.emitOp(opcodes.Pop)
		c.emitOp(opcodes.GetLocal)
		c.emitU16(oldSlot)

	case *ast.MemberExpression:
		objSlot, keySlot := c.memberRef(target)
		c.emitMemberGetFromRef(objSlot, keySlot)
		if e.Prefix {
			c.emitConstant(values.Number(1))
			c.emitOp(step)
			c.emitMemberSetFromRef(objSlot, keySlot)
			return
		}
		oldSlot := c.declareLocal("@@old")
		c.emitOp(opcodes.SetLocal)
		c.emitU16(oldSlot)
		c.emitOp(opcodes.Pop)
		c.emitOp(opcodes.GetLocal)
		c.emitU16(oldSlot)
		c.emitConstant(values.Number(1))
		c.emitOp(step)
		c.emitMemberSetFromRef(objSlot, keySlot)
		c.emitOp(opcodes.Pop)
		c.emitOp(opcodes.GetLocal)
		c.emitU16(oldSlot)

	default:
		c.errorf(errors.KindUnexpectedToken, "invalid update target %T", target)
	}
}

func (c *Compiler) compileAssignment(e *ast.AssignmentExpression) {
	switch target := e.Target.(type) {
	case *ast.Identifier:
		if e.Operator == "=" {
			c.compileExpression(e.Value)
			c.compileIdentifierSet(target.Name)
			return
		}
		c.compileIdentifierGet(target.Name)
		c.compileExpression(e.Value)
		c.emitOp(binaryOpcode(compoundOperator(e.Operator)))
		c.compileIdentifierSet(target.Name)

	case *ast.MemberExpression:
		if e.Operator == "=" {
			objSlot, keySlot := c.memberRef(target)
			c.compileExpression(e.Value)
			c.emitMemberSetFromRef(objSlot, keySlot)
			return
		}
		objSlot, keySlot := c.memberRef(target)
		c.emitMemberGetFromRef(objSlot, keySlot)
		c.compileExpression(e.Value)
		c.emitOp(binaryOpcode(compoundOperator(e.Operator)))
		c.emitMemberSetFromRef(objSlot, keySlot)

	default:
		c.errorf(errors.KindUnexpectedToken, "invalid assignment target %T", target)
	}
}

func compoundOperator(op string) string {
	if len(op) > 1 && op[len(op)-1] == '=' {
		return op[:len(op)-1]
	}
	return op
}

func (c *Compiler) compileConditional(e *ast.ConditionalExpression) {
	c.compileExpression(e.Test)
	elseJump := c.emitJump(opcodes.ShortJmpIfFalse)
	c.emitOp(opcodes.Pop)
	c.compileExpression(e.Consequent)
	endJump := c.emitJump(opcodes.Jmp)
	c.patchJump(elseJump)
	c.emitOp(opcodes.Pop)
	c.compileExpression(e.Alternate)
	c.patchJump(endJump)
}

// compileArguments compiles a call/new argument list, marking each spread
// element with a preceding SpreadArray tag so the vm's call executor can
// flatten it into the argument array at dispatch time.
func (c *Compiler) compileArguments(args []ast.Expression) int {
	for _, arg := range args {
		if spread, ok := arg.(*ast.SpreadElement); ok {
			c.compileExpression(spread.Argument)
			c.emitOp(opcodes.SpreadArray)
			continue
		}
		c.compileExpression(arg)
	}
	return len(args)
}

// compileCallee pushes [receiver, callee] for e.Callee: a MemberExpression
// callee (`obj.method(...)`/`obj[expr](...)`) binds the object as
// receiver so `this` resolves correctly inside the call; any other
// callee form is a plain call with an undefined receiver.
func (c *Compiler) compileCallee(callee ast.Expression) {
	m, ok := callee.(*ast.MemberExpression)
	if !ok {
		c.emitConstant(values.Undefined())
		c.compileExpression(callee)
		return
	}
	c.compileExpression(m.Object)
	recvSlot := c.declareLocal("@@recv")
	c.emitOp(opcodes.SetLocal)
	c.emitU16(recvSlot)
	c.emitOp(opcodes.Pop)

	// Push the receiver twice: one copy is consumed by the property
	// access below to resolve the method, the other stays on the stack
	// as the call's receiver.
	c.emitOp(opcodes.GetLocal)
	c.emitU16(recvSlot)
	c.emitOp(opcodes.GetLocal)
	c.emitU16(recvSlot)
	c.compileMemberKey(m)
	if m.Computed {
		c.emitOp(opcodes.ComputedPropertyAccess)
	} else {
		c.emitOp(opcodes.StaticPropertyAccess)
	}
}

func (c *Compiler) compileCall(e *ast.CallExpression) {
	c.compileCallee(e.Callee)
	argc := c.compileArguments(e.Arguments)
	c.emitOp(opcodes.FunctionCall)
	c.emitU16(argc)
}

func (c *Compiler) compileNew(e *ast.NewExpression) {
	c.emitConstant(values.Undefined())
	c.compileExpression(e.Callee)
	argc := c.compileArguments(e.Arguments)
	c.emitOp(opcodes.ConstructorCall)
	c.emitU16(argc)
}

func (c *Compiler) compileArrayLiteral(e *ast.ArrayLiteral) {
	n := c.compileArguments(e.Elements)
	c.emitOp(opcodes.ArrayLiteral)
	c.emitU16(n)
}

// compileObjectLiteral pushes key, value pairs (computed keys evaluated,
// static keys pushed as string constants) followed by the pair count;
// the vm's ObjectLiteral handler pops pairCount*2 stack slots.
func (c *Compiler) compileObjectLiteral(e *ast.ObjectLiteral) {
	for _, prop := range e.Properties {
		if prop.Computed {
			c.compileExpression(prop.Key)
		} else {
			switch k := prop.Key.(type) {
			case *ast.Identifier:
				c.emitConstant(values.String(k.Name))
			case *ast.StringLiteral:
				c.emitConstant(values.String(k.Value))
			case *ast.NumberLiteral:
				c.emitConstant(values.String(formatNumericKey(k.Value)))
			default:
				c.errorf(errors.KindUnexpectedToken, "invalid object key %T", k)
			}
		}
		c.compileExpression(prop.Value)
	}
	c.emitOp(opcodes.ObjectLiteral)
	c.emitU16(len(e.Properties))
}

func formatNumericKey(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// compileFunctionExpression compiles the nested function body with its
// own Compiler (enclosing set to c for upvalue resolution), stashes the
// resulting registry.Function in this frame's constant pool under
// values.KindFunctionProto, and emits Closure plus one
// UpvalueLocal/UpvalueNonLocal pair per captured variable, per spec.md
// section 4.1's closure layout.
func (c *Compiler) compileFunctionExpression(expr *ast.FunctionExpression) {
	fc := &Compiler{
		enclosing: c,
		fn: &registry.Function{
			Name:        expr.Name,
			IsGenerator: expr.IsGenerator,
			IsAsync:     expr.IsAsync,
		},
		constIndex: make(map[any]int),
		errs:       c.errs,
	}
	fc.beginScope()
	fc.fn.Params = make([]registry.Param, len(expr.Params))
	for i, param := range expr.Params {
		slot := fc.declareLocal(param.Name)
		fc.fn.Params[i] = registry.Param{Name: param.Name, Rest: param.Rest, HasDefault: param.Default != nil}
		if param.Default != nil {
			fc.compileParamDefault(slot, param.Default)
		}
	}
	for _, stmt := range expr.Body.Body {
		fc.compileStatement(stmt)
	}
	fc.emitOp(opcodes.Constant)
	fc.emitU16(fc.constant(values.Undefined()))
	fc.emitOp(opcodes.Return)
	fc.endScope()

	fc.fn.Code = fc.code
	fc.fn.Constants = fc.constants
	fc.fn.LocalCount = fc.maxLocals()

	idx := c.constant(values.Value{Kind: values.KindFunctionProto, Data: fc.fn})
	c.emitOp(opcodes.Closure)
	c.emitU16(idx)
	for _, uv := range fc.fn.Upvalues {
		if uv.Local {
			c.emitOp(opcodes.UpvalueLocal)
		} else {
			c.emitOp(opcodes.UpvalueNonLocal)
		}
		c.emitU16(uv.Index)
	}
}

// compileYield emits a plain yield as a single Yield instruction (the
// resumed-with value is the expression's result). `yield* iterable`
// lowers into the same IterInit/IterNext loop for-of uses, yielding each
// element in turn; the delegation's own completion value is undefined (a
// recorded simplification — sent values are not forwarded to the inner
// iterator).
func (c *Compiler) compileYield(e *ast.YieldExpression) {
	if !e.Delegate {
		if e.Argument != nil {
			c.compileExpression(e.Argument)
		} else {
			c.emitConstant(values.Undefined())
		}
		c.emitOp(opcodes.Yield)
		return
	}

	c.compileExpression(e.Argument)
	c.emitOp(opcodes.IterInit)
	iterSlot := c.declareLocal("@@iterYield")
	c.emitOp(opcodes.SetLocal)
	c.emitU16(iterSlot)
	c.emitOp(opcodes.Pop)

	loopStart := len(c.code)
	c.emitOp(opcodes.GetLocal)
	c.emitU16(iterSlot)
	exitJump := c.emitJump(opcodes.IterNext)
	c.emitOp(opcodes.Yield)
	c.emitOp(opcodes.Pop)
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitConstant(values.Undefined())
}

// compileParamDefault emits `if (param === undefined) param = default`
// using only opcodes already needed elsewhere, avoiding a dedicated
// default-argument instruction.
func (c *Compiler) compileParamDefault(slot int, def ast.Expression) {
	c.emitOp(opcodes.GetLocal)
	c.emitU16(slot)
	c.emitConstant(values.Undefined())
	c.emitOp(opcodes.StrictEq)
	skip := c.emitJump(opcodes.ShortJmpIfFalse)
	c.emitOp(opcodes.Pop)
	c.compileExpression(def)
	c.emitOp(opcodes.SetLocal)
	c.emitU16(slot)
	c.emitOp(opcodes.Pop)
	end := c.emitJump(opcodes.Jmp)
	c.patchJump(skip)
	c.emitOp(opcodes.Pop)
	c.patchJump(end)
}
