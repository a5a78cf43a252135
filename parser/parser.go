// Package parser builds an ast.Program from lexer tokens using a Pratt
// parser for expressions. Grounded on the teacher's parser/parser.go
// (_examples/wudi-hey/parser/parser.go) for the precedence-table +
// prefix/infix-parse-function-map idiom, re-keyed to JS grammar.
package parser

import (
	"github.com/vela-lang/vela/ast"
	"github.com/vela-lang/vela/errors"
	"github.com/vela-lang/vela/lexer"
)

type Precedence int

const (
	_ Precedence = iota
	LOWEST
	ASSIGN
	CONDITIONAL
	NULLISH
	LOGICAL_OR
	LOGICAL_AND
	EQUALS
	LESSGREATER
	BITOR
	BITXOR
	BITAND
	SHIFT
	SUM
	PRODUCT
	EXPONENT
	PREFIX
	POSTFIX
	CALL
	INDEX
)

var precedences = map[lexer.TokenType]Precedence{
	lexer.TokenAssign: ASSIGN, lexer.TokenPlusAssign: ASSIGN,
	lexer.TokenMinusAssign: ASSIGN, lexer.TokenStarAssign: ASSIGN, lexer.TokenSlashAssign: ASSIGN,
	lexer.TokenQuestion: CONDITIONAL,
	lexer.TokenNullish:  NULLISH,
	lexer.TokenOr:       LOGICAL_OR,
	lexer.TokenAnd:      LOGICAL_AND,
	lexer.TokenPipe:     BITOR,
	lexer.TokenCaret:    BITXOR,
	lexer.TokenAmp:      BITAND,
	lexer.TokenEq:       EQUALS, lexer.TokenNeq: EQUALS,
	lexer.TokenStrictEq: EQUALS, lexer.TokenStrictNeq: EQUALS,
	lexer.TokenLt: LESSGREATER, lexer.TokenLe: LESSGREATER,
	lexer.TokenGt: LESSGREATER, lexer.TokenGe: LESSGREATER,
	lexer.TokenIn: LESSGREATER, lexer.TokenInstanceof: LESSGREATER,
	lexer.TokenShl: SHIFT, lexer.TokenShr: SHIFT, lexer.TokenUShr: SHIFT,
	lexer.TokenPlus: SUM, lexer.TokenMinus: SUM,
	lexer.TokenStar: PRODUCT, lexer.TokenSlash: PRODUCT, lexer.TokenPercent: PRODUCT,
	lexer.TokenStarStar: EXPONENT,
	lexer.TokenIncrement: POSTFIX, lexer.TokenDecrement: POSTFIX,
	lexer.TokenLParen: CALL, lexer.TokenDot: CALL, lexer.TokenLBracket: INDEX,
	lexer.TokenArrow: ASSIGN,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l *lexer.Lexer

	cur, peek lexer.Token
	errs      *errors.List

	prefixFns map[lexer.TokenType]prefixParseFn
	infixFns  map[lexer.TokenType]infixParseFn

	// loopLabels is never populated: the parser does not validate
	// break/continue labels; the compiler matches them against its own
	// enclosing-loop stack (compiler.findLoop).
	loopLabels []string
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l, errs: errors.NewList("")}
	p.prefixFns = map[lexer.TokenType]prefixParseFn{
		lexer.TokenNumber:      p.parseNumberLiteral,
		lexer.TokenString:      p.parseStringLiteral,
		lexer.TokenIdent:       p.parseIdentifier,
		lexer.TokenTrue:        p.parseBoolLiteral,
		lexer.TokenFalse:       p.parseBoolLiteral,
		lexer.TokenNull:        p.parseNullLiteral,
		lexer.TokenUndefined:   p.parseUndefinedLiteral,
		lexer.TokenThis:        p.parseThis,
		lexer.TokenSuper:       p.parseSuper,
		lexer.TokenBang:        p.parseUnary,
		lexer.TokenMinus:       p.parseUnary,
		lexer.TokenPlus:        p.parseUnary,
		lexer.TokenTilde:       p.parseUnary,
		lexer.TokenTypeof:      p.parseUnary,
		lexer.TokenDelete:      p.parseUnary,
		lexer.TokenVoid:        p.parseUnary,
		lexer.TokenIncrement:   p.parsePrefixUpdate,
		lexer.TokenDecrement:   p.parsePrefixUpdate,
		lexer.TokenLParen:      p.parseGroupedExpression,
		lexer.TokenLBracket:    p.parseArrayLiteral,
		lexer.TokenLBrace:      p.parseObjectLiteral,
		lexer.TokenFunction:    p.parseFunctionExpression,
		lexer.TokenNew:         p.parseNewExpression,
		lexer.TokenEllipsis:    p.parseSpread,
		lexer.TokenYield:       p.parseYield,
		lexer.TokenAwait:       p.parseAwait,
		lexer.TokenAsync:       p.parseAsyncFunctionExpression,
		lexer.TokenImport:      p.parseImportCall,
		lexer.TokenTemplateString: p.parseTemplateString,
	}
	p.infixFns = map[lexer.TokenType]infixParseFn{
		lexer.TokenPlus: p.parseBinary, lexer.TokenMinus: p.parseBinary,
		lexer.TokenStar: p.parseBinary, lexer.TokenSlash: p.parseBinary,
		lexer.TokenPercent: p.parseBinary, lexer.TokenStarStar: p.parseBinary,
		lexer.TokenEq: p.parseBinary, lexer.TokenNeq: p.parseBinary,
		lexer.TokenStrictEq: p.parseBinary, lexer.TokenStrictNeq: p.parseBinary,
		lexer.TokenLt: p.parseBinary, lexer.TokenLe: p.parseBinary,
		lexer.TokenGt: p.parseBinary, lexer.TokenGe: p.parseBinary,
		lexer.TokenIn: p.parseBinary, lexer.TokenInstanceof: p.parseBinary,
		lexer.TokenAmp: p.parseBinary, lexer.TokenPipe: p.parseBinary, lexer.TokenCaret: p.parseBinary,
		lexer.TokenShl: p.parseBinary, lexer.TokenShr: p.parseBinary, lexer.TokenUShr: p.parseBinary,
		lexer.TokenAnd: p.parseLogical, lexer.TokenOr: p.parseLogical, lexer.TokenNullish: p.parseLogical,
		lexer.TokenAssign: p.parseAssignment, lexer.TokenPlusAssign: p.parseAssignment,
		lexer.TokenMinusAssign: p.parseAssignment, lexer.TokenStarAssign: p.parseAssignment,
		lexer.TokenSlashAssign: p.parseAssignment,
		lexer.TokenQuestion:    p.parseConditional,
		lexer.TokenLParen:      p.parseCall,
		lexer.TokenDot:         p.parseMember,
		lexer.TokenLBracket:    p.parseComputedMember,
		lexer.TokenIncrement:   p.parsePostfixUpdate,
		lexer.TokenDecrement:   p.parsePostfixUpdate,
		lexer.TokenArrow:       p.parseArrowFunction,
	}

	p.next()
	p.next()
	return p
}

func (p *Parser) Errors() *errors.List { return p.errs }

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peek.Type == t }

func (p *Parser) expect(t lexer.TokenType) bool {
	if p.peekIs(t) {
		p.next()
		return true
	}
	p.errorf("unexpected token %v, expected %v", p.peek.Type, t)
	return false
}

func (p *Parser) errorf(format string, args ...any) {
	pos := errors.Position{Line: p.cur.Line, Column: p.cur.Column}
	p.errs.Add(errors.NewParse(errors.KindUnexpectedToken, pos, format, args...))
}

func (p *Parser) pos() errors.Position {
	return errors.Position{Line: p.cur.Line, Column: p.cur.Column}
}

func astBase(pos errors.Position) ast.Base { return ast.Base{Position: pos} }

func (p *Parser) peekPrecedence() Precedence {
	if pr, ok := precedences[p.peek.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() Precedence {
	if pr, ok := precedences[p.cur.Type]; ok {
		return pr
	}
	return LOWEST
}

// ParseProgram parses the entire token stream into a single Program node.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curIs(lexer.TokenEOF) {
		if stmt := p.parseStatement(); stmt != nil {
			prog.Body = append(prog.Body, stmt)
		}
		p.next()
	}
	return prog
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Type {
	case lexer.TokenVar, lexer.TokenLet, lexer.TokenConst:
		return p.parseVariableDeclaration()
	case lexer.TokenFunction:
		return p.parseFunctionDeclaration()
	case lexer.TokenReturn:
		return p.parseReturnStatement()
	case lexer.TokenIf:
		return p.parseIfStatement()
	case lexer.TokenWhile:
		return p.parseWhileStatement("")
	case lexer.TokenDo:
		return p.parseDoWhileStatement("")
	case lexer.TokenFor:
		return p.parseForStatement("")
	case lexer.TokenBreak:
		return p.parseBreakStatement()
	case lexer.TokenContinue:
		return p.parseContinueStatement()
	case lexer.TokenThrow:
		return p.parseThrowStatement()
	case lexer.TokenTry:
		return p.parseTryStatement()
	case lexer.TokenSwitch:
		return p.parseSwitchStatement()
	case lexer.TokenImport:
		// `import(` is a dynamic import expression, not a declaration.
		if !p.peekIs(lexer.TokenLParen) {
			return p.parseImportDeclaration()
		}
	case lexer.TokenExport:
		return p.parseExportDeclaration()
	case lexer.TokenAsync:
		if p.peekIs(lexer.TokenFunction) {
			return p.parseFunctionDeclaration()
		}
	case lexer.TokenLBrace:
		return p.parseBlockStatement()
	case lexer.TokenIdent:
		if p.peekIs(lexer.TokenColon) {
			return p.parseLabeledStatement()
		}
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseLabeledStatement() ast.Statement {
	label := p.cur.Literal
	pos := p.pos()
	p.next() // consume ':'
	p.next()
	var body ast.Statement
	switch p.cur.Type {
	case lexer.TokenFor:
		body = p.parseForStatement(label)
	case lexer.TokenWhile:
		body = p.parseWhileStatement(label)
	case lexer.TokenDo:
		body = p.parseDoWhileStatement(label)
	default:
		body = p.parseStatement()
	}
	return &ast.LabeledStatement{Base: ast.Base{Position: pos}, Label: label, Body: body}
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	pos := p.pos()
	expr := p.parseExpression(LOWEST)
	if p.peekIs(lexer.TokenSemicolon) {
		p.next()
	}
	return &ast.ExpressionStatement{Base: ast.Base{Position: pos}, Expression: expr}
}

func (p *Parser) parseExpression(precedence Precedence) ast.Expression {
	prefix, ok := p.prefixFns[p.cur.Type]
	if !ok {
		p.errorf("no prefix parse function for %v", p.cur.Type)
		return nil
	}
	left := prefix()

	for !p.peekIs(lexer.TokenSemicolon) && precedence < p.peekPrecedence() {
		infix, ok := p.infixFns[p.peek.Type]
		if !ok {
			return left
		}
		p.next()
		left = infix(left)
	}
	return left
}
