// Package ast defines the syntax tree the parser produces and the
// compiler walks. Grounded on the teacher's ast/node.go
// (_examples/wudi-hey/ast/node.go) for the Node/Statement/Expression
// marker-interface split and a shared position field, trimmed of the
// PHP-specific JSON/Visitor machinery (spec.md's compiler walks the tree
// once per compile and has no need for a generic visitor dispatch).
package ast

import "github.com/vela-lang/vela/errors"

type Node interface {
	Pos() errors.Position
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

type Base struct {
	Position errors.Position
}

func (b Base) Pos() errors.Position { return b.Position }

// Program is the root node: the compiled unit's statement list.
type Program struct {
	Base
	Body []Statement
}

// --- Expressions ---

type NumberLiteral struct {
	Base
	Value float64
}

func (*NumberLiteral) expressionNode() {}

type StringLiteral struct {
	Base
	Value string
}

func (*StringLiteral) expressionNode() {}

type BoolLiteral struct {
	Base
	Value bool
}

func (*BoolLiteral) expressionNode() {}

type NullLiteral struct{ Base }

func (*NullLiteral) expressionNode() {}

type UndefinedLiteral struct{ Base }

func (*UndefinedLiteral) expressionNode() {}

type Identifier struct {
	Base
	Name string
}

func (*Identifier) expressionNode() {}

type ThisExpression struct{ Base }

func (*ThisExpression) expressionNode() {}

type SuperExpression struct{ Base }

func (*SuperExpression) expressionNode() {}

// BinaryExpression covers arithmetic, bitwise, comparison operators.
type BinaryExpression struct {
	Base
	Operator string
	Left     Expression
	Right    Expression
}

func (*BinaryExpression) expressionNode() {}

// LogicalExpression covers &&, ||, ?? (short-circuit, not eagerly
// evaluated like BinaryExpression).
type LogicalExpression struct {
	Base
	Operator string
	Left     Expression
	Right    Expression
}

func (*LogicalExpression) expressionNode() {}

type UnaryExpression struct {
	Base
	Operator string // "-", "+", "!", "~", "typeof", "delete", "void"
	Argument Expression
}

func (*UnaryExpression) expressionNode() {}

// UpdateExpression is ++/--, prefix or postfix.
type UpdateExpression struct {
	Base
	Operator string
	Prefix   bool
	Argument Expression
}

func (*UpdateExpression) expressionNode() {}

type AssignmentExpression struct {
	Base
	Operator string // "=", "+=", "-=", "*=", "/="
	Target   Expression
	Value    Expression
}

func (*AssignmentExpression) expressionNode() {}

type ConditionalExpression struct {
	Base
	Test       Expression
	Consequent Expression
	Alternate  Expression
}

func (*ConditionalExpression) expressionNode() {}

// MemberExpression is both `obj.prop` (Computed=false) and `obj[expr]`
// (Computed=true).
type MemberExpression struct {
	Base
	Object   Expression
	Property Expression
	Computed bool
}

func (*MemberExpression) expressionNode() {}

// SpreadElement marks `...expr` in a call's argument list or an array
// literal's element list (supplemented spread-args feature).
type SpreadElement struct {
	Base
	Argument Expression
}

func (*SpreadElement) expressionNode() {}

type CallExpression struct {
	Base
	Callee    Expression
	Arguments []Expression
}

func (*CallExpression) expressionNode() {}

type NewExpression struct {
	Base
	Callee    Expression
	Arguments []Expression
}

func (*NewExpression) expressionNode() {}

type ArrayLiteral struct {
	Base
	Elements []Expression
}

func (*ArrayLiteral) expressionNode() {}

type Property struct {
	Key      Expression
	Value    Expression
	Computed bool
}

type ObjectLiteral struct {
	Base
	Properties []Property
}

func (*ObjectLiteral) expressionNode() {}

type FunctionExpression struct {
	Base
	Name        string
	Params      []Param
	Body        *BlockStatement
	IsGenerator bool
	IsAsync     bool
	// IsArrow marks a function parsed from arrow syntax. The parser
	// desugars an expression body into a single ReturnStatement, so the
	// compiler treats arrows like any other FunctionExpression.
	IsArrow bool
}

func (*FunctionExpression) expressionNode() {}

// YieldExpression suspends the enclosing generator. Delegate marks
// `yield*`, which the compiler lowers into an iteration loop over the
// argument, yielding each element.
type YieldExpression struct {
	Base
	Argument Expression // nil for a bare `yield`
	Delegate bool
}

func (*YieldExpression) expressionNode() {}

type AwaitExpression struct {
	Base
	Argument Expression
}

func (*AwaitExpression) expressionNode() {}

// SequenceExpression is the comma operator: every expression evaluates
// in order and the last one's value is the result. Also produced
// transiently by the parser for a parenthesized arrow-function parameter
// list before it is reinterpreted as params.
type SequenceExpression struct {
	Base
	Expressions []Expression
}

func (*SequenceExpression) expressionNode() {}

// ImportCallExpression is a dynamic `import(specifier)` expression. The
// compiler rejects it with NotImplemented rather than inventing deferred
// semantics.
type ImportCallExpression struct {
	Base
	Argument Expression
}

func (*ImportCallExpression) expressionNode() {}

type Param struct {
	Name       string
	Rest       bool
	Default    Expression
}

// --- Statements ---

type ExpressionStatement struct {
	Base
	Expression Expression
}

func (*ExpressionStatement) statementNode() {}

type BlockStatement struct {
	Base
	Body []Statement
}

func (*BlockStatement) statementNode() {}

// VariableDeclaration covers var/let/const (Kind holds the keyword).
type VariableDeclarator struct {
	Name string
	Init Expression
}

type VariableDeclaration struct {
	Base
	Kind         string
	Declarations []VariableDeclarator
}

func (*VariableDeclaration) statementNode() {}

type FunctionDeclaration struct {
	Base
	Function *FunctionExpression
}

func (*FunctionDeclaration) statementNode() {}

type ReturnStatement struct {
	Base
	Argument Expression
}

func (*ReturnStatement) statementNode() {}

type IfStatement struct {
	Base
	Test       Expression
	Consequent Statement
	Alternate  Statement
}

func (*IfStatement) statementNode() {}

type WhileStatement struct {
	Base
	Test Expression
	Body Statement
	Label string
}

func (*WhileStatement) statementNode() {}

type DoWhileStatement struct {
	Base
	Test Expression
	Body Statement
	Label string
}

func (*DoWhileStatement) statementNode() {}

type ForStatement struct {
	Base
	Init   Node // VariableDeclaration or ExpressionStatement, may be nil
	Test   Expression
	Update Expression
	Body   Statement
	Label  string
}

func (*ForStatement) statementNode() {}

// ForOfStatement covers `for (const x of iterable)`.
type ForOfStatement struct {
	Base
	DeclKind string
	Binding  string
	Right    Expression
	Body     Statement
	Label    string
}

func (*ForOfStatement) statementNode() {}

// BreakStatement/ContinueStatement carry an optional label, per
// SPEC_FULL.md's supplemented labeled break/continue.
type BreakStatement struct {
	Base
	Label string
}

func (*BreakStatement) statementNode() {}

type ContinueStatement struct {
	Base
	Label string
}

func (*ContinueStatement) statementNode() {}

// LabeledStatement attaches Label to a following loop so Break/Continue
// can target it by name.
type LabeledStatement struct {
	Base
	Label string
	Body  Statement
}

func (*LabeledStatement) statementNode() {}

type ThrowStatement struct {
	Base
	Argument Expression
}

func (*ThrowStatement) statementNode() {}

type CatchClause struct {
	Param string // may be empty: `catch {}`
	Body  *BlockStatement
}

type TryStatement struct {
	Base
	Block   *BlockStatement
	Handler *CatchClause
	Finally *BlockStatement
}

func (*TryStatement) statementNode() {}

type SwitchCase struct {
	Test Expression // nil for `default`
	Body []Statement
}

type SwitchStatement struct {
	Base
	Discriminant Expression
	Cases        []SwitchCase
}

func (*SwitchStatement) statementNode() {}

// --- Modules ---

// ImportBinding names one imported binding: `{ Imported as Local }`.
// Local equals Imported when no `as` clause was written.
type ImportBinding struct {
	Imported string
	Local    string
}

// ImportDeclaration covers the three static import forms the grammar
// accepts: `import def from "m"`, `import * as ns from "m"`,
// `import { a, b as c } from "m"`, plus the bare `import "m"` (all
// binding fields empty).
type ImportDeclaration struct {
	Base
	Default   string
	Namespace string
	Named     []ImportBinding
	Specifier string
}

func (*ImportDeclaration) statementNode() {}

type ExportBinding struct {
	Local    string
	Exported string
}

type ExportDefaultStatement struct {
	Base
	Expression Expression
}

func (*ExportDefaultStatement) statementNode() {}

// ExportNamedStatement is either `export <declaration>` (Declaration
// set, Names nil) or `export { a, b as c }` (Names set).
type ExportNamedStatement struct {
	Base
	Declaration Statement
	Names       []ExportBinding
}

func (*ExportNamedStatement) statementNode() {}
