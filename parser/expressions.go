package parser

import (
	"strconv"

	"github.com/vela-lang/vela/ast"
	"github.com/vela-lang/vela/errors"
	"github.com/vela-lang/vela/lexer"
)

func (p *Parser) parseNumberLiteral() ast.Expression {
	pos := p.pos()
	f, err := strconv.ParseFloat(p.cur.Literal, 64)
	if err != nil {
		p.errorf("invalid number literal %q", p.cur.Literal)
	}
	return &ast.NumberLiteral{Base: astBase(pos), Value: f}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Base: astBase(p.pos()), Value: p.cur.Literal}
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Base: astBase(p.pos()), Name: p.cur.Literal}
}

func (p *Parser) parseBoolLiteral() ast.Expression {
	return &ast.BoolLiteral{Base: astBase(p.pos()), Value: p.curIs(lexer.TokenTrue)}
}

func (p *Parser) parseNullLiteral() ast.Expression { return &ast.NullLiteral{Base: astBase(p.pos())} }

func (p *Parser) parseUndefinedLiteral() ast.Expression {
	return &ast.UndefinedLiteral{Base: astBase(p.pos())}
}

func (p *Parser) parseThis() ast.Expression  { return &ast.ThisExpression{Base: astBase(p.pos())} }
func (p *Parser) parseSuper() ast.Expression { return &ast.SuperExpression{Base: astBase(p.pos())} }

var tokenOperator = map[lexer.TokenType]string{
	lexer.TokenBang: "!", lexer.TokenMinus: "-", lexer.TokenPlus: "+", lexer.TokenTilde: "~",
	lexer.TokenTypeof: "typeof", lexer.TokenDelete: "delete", lexer.TokenVoid: "void",
	lexer.TokenIncrement: "++", lexer.TokenDecrement: "--",
	lexer.TokenPlusAssign: "+=", lexer.TokenMinusAssign: "-=",
	lexer.TokenStarAssign: "*=", lexer.TokenSlashAssign: "/=", lexer.TokenAssign: "=",
}

func (p *Parser) parseUnary() ast.Expression {
	pos := p.pos()
	op := tokenOperator[p.cur.Type]
	p.next()
	arg := p.parseExpression(PREFIX)
	return &ast.UnaryExpression{Base: astBase(pos), Operator: op, Argument: arg}
}

func (p *Parser) parsePrefixUpdate() ast.Expression {
	pos := p.pos()
	op := tokenOperator[p.cur.Type]
	p.next()
	arg := p.parseExpression(PREFIX)
	return &ast.UpdateExpression{Base: astBase(pos), Operator: op, Prefix: true, Argument: arg}
}

func (p *Parser) parsePostfixUpdate(left ast.Expression) ast.Expression {
	return &ast.UpdateExpression{Base: astBase(p.pos()), Operator: tokenOperator[p.cur.Type], Prefix: false, Argument: left}
}

// parseGroupedExpression handles both a parenthesized expression and an
// arrow function's parameter head. `()` is only valid as an arrow head;
// a comma-separated list becomes a SequenceExpression, which either the
// Arrow infix reinterprets as parameters or the compiler evaluates as
// the comma operator.
func (p *Parser) parseGroupedExpression() ast.Expression {
	pos := p.pos()
	if p.peekIs(lexer.TokenRParen) {
		p.next()
		if !p.expect(lexer.TokenArrow) {
			return nil
		}
		return p.parseArrowBody(pos, nil)
	}
	p.next()
	expr := p.parseExpression(LOWEST)
	if p.peekIs(lexer.TokenComma) {
		seq := &ast.SequenceExpression{Base: astBase(pos), Expressions: []ast.Expression{expr}}
		for p.peekIs(lexer.TokenComma) {
			p.next()
			p.next()
			seq.Expressions = append(seq.Expressions, p.parseExpression(LOWEST))
		}
		if !p.expect(lexer.TokenRParen) {
			return nil
		}
		return seq
	}
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	return expr
}

// parseArrowFunction is the infix handler for `=>`: left is the already
// parsed parameter head (a lone identifier, a grouped expression, or a
// SequenceExpression from a parenthesized list).
func (p *Parser) parseArrowFunction(left ast.Expression) ast.Expression {
	pos := p.pos()
	params, ok := arrowParams(left)
	if !ok {
		p.errorf("invalid arrow function parameter list")
		return nil
	}
	return p.parseArrowBody(pos, params)
}

// arrowParams reinterprets an expression parsed before `=>` as a
// parameter list: identifiers, `name = default` assignments, and
// `...rest` spreads are the only shapes a parameter head can take.
func arrowParams(left ast.Expression) ([]ast.Param, bool) {
	exprs := []ast.Expression{left}
	if seq, ok := left.(*ast.SequenceExpression); ok {
		exprs = seq.Expressions
	}
	params := make([]ast.Param, 0, len(exprs))
	for _, e := range exprs {
		switch t := e.(type) {
		case *ast.Identifier:
			params = append(params, ast.Param{Name: t.Name})
		case *ast.AssignmentExpression:
			id, ok := t.Target.(*ast.Identifier)
			if !ok || t.Operator != "=" {
				return nil, false
			}
			params = append(params, ast.Param{Name: id.Name, Default: t.Value})
		case *ast.SpreadElement:
			id, ok := t.Argument.(*ast.Identifier)
			if !ok {
				return nil, false
			}
			params = append(params, ast.Param{Name: id.Name, Rest: true})
		default:
			return nil, false
		}
	}
	return params, true
}

// parseArrowBody assumes cur is `=>`. An expression body desugars into a
// block with a single return, so the compiler only ever sees one
// function-body shape.
func (p *Parser) parseArrowBody(pos errors.Position, params []ast.Param) ast.Expression {
	fn := &ast.FunctionExpression{Base: astBase(pos), Params: params, IsArrow: true}
	if p.peekIs(lexer.TokenLBrace) {
		p.next()
		fn.Body = p.parseBlockBody()
		return fn
	}
	p.next()
	expr := p.parseExpression(LOWEST)
	fn.Body = &ast.BlockStatement{Base: astBase(pos), Body: []ast.Statement{
		&ast.ReturnStatement{Base: astBase(pos), Argument: expr},
	}}
	return fn
}

func (p *Parser) parseSpread() ast.Expression {
	pos := p.pos()
	p.next()
	arg := p.parseExpression(PREFIX)
	return &ast.SpreadElement{Base: astBase(pos), Argument: arg}
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	pos := p.pos()
	lit := &ast.ArrayLiteral{Base: astBase(pos)}
	if p.peekIs(lexer.TokenRBracket) {
		p.next()
		return lit
	}
	p.next()
	lit.Elements = append(lit.Elements, p.parseExpression(LOWEST))
	for p.peekIs(lexer.TokenComma) {
		p.next()
		p.next()
		lit.Elements = append(lit.Elements, p.parseExpression(LOWEST))
	}
	if !p.expect(lexer.TokenRBracket) {
		return nil
	}
	return lit
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	pos := p.pos()
	lit := &ast.ObjectLiteral{Base: astBase(pos)}
	if p.peekIs(lexer.TokenRBrace) {
		p.next()
		return lit
	}
	p.next()
	for {
		prop := p.parseObjectProperty()
		lit.Properties = append(lit.Properties, prop)
		if !p.peekIs(lexer.TokenComma) {
			break
		}
		p.next()
		p.next()
	}
	if !p.expect(lexer.TokenRBrace) {
		return nil
	}
	return lit
}

func (p *Parser) parseObjectProperty() ast.Property {
	var key ast.Expression
	computed := false
	if p.curIs(lexer.TokenLBracket) {
		p.next()
		key = p.parseExpression(LOWEST)
		p.expect(lexer.TokenRBracket)
		computed = true
	} else if p.curIs(lexer.TokenString) {
		key = &ast.StringLiteral{Base: astBase(p.pos()), Value: p.cur.Literal}
	} else {
		key = &ast.Identifier{Base: astBase(p.pos()), Name: p.cur.Literal}
	}
	if !p.expect(lexer.TokenColon) {
		return ast.Property{Key: key}
	}
	p.next()
	value := p.parseExpression(LOWEST)
	return ast.Property{Key: key, Value: value, Computed: computed}
}

// parseFunctionExpression accepts `function`, `function*`, and (when cur
// is the async keyword) `async function`, in both expression and
// declaration position.
func (p *Parser) parseFunctionExpression() ast.Expression {
	pos := p.pos()
	fn := &ast.FunctionExpression{Base: astBase(pos)}
	if p.curIs(lexer.TokenAsync) {
		fn.IsAsync = true
		if !p.expect(lexer.TokenFunction) {
			return fn
		}
	}
	if p.peekIs(lexer.TokenStar) {
		p.next()
		fn.IsGenerator = true
	}
	if p.peekIs(lexer.TokenIdent) {
		p.next()
		fn.Name = p.cur.Literal
	}
	if !p.expect(lexer.TokenLParen) {
		return fn
	}
	fn.Params = p.parseParamList()
	if !p.expect(lexer.TokenLBrace) {
		return fn
	}
	fn.Body = p.parseBlockBody()
	return fn
}

func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	if p.peekIs(lexer.TokenRParen) {
		p.next()
		return params
	}
	p.next()
	for {
		param := ast.Param{}
		if p.curIs(lexer.TokenEllipsis) {
			param.Rest = true
			p.next()
		}
		param.Name = p.cur.Literal
		if p.peekIs(lexer.TokenAssign) {
			p.next()
			p.next()
			param.Default = p.parseExpression(LOWEST)
		}
		params = append(params, param)
		if !p.peekIs(lexer.TokenComma) {
			break
		}
		p.next()
		p.next()
	}
	p.expect(lexer.TokenRParen)
	return params
}

// parseAsyncFunctionExpression handles the async keyword in expression
// position: `async function ...` starts an async function expression;
// any other use of the word is an ordinary identifier (this grammar has
// no async arrow functions).
func (p *Parser) parseAsyncFunctionExpression() ast.Expression {
	if p.peekIs(lexer.TokenFunction) {
		return p.parseFunctionExpression()
	}
	return &ast.Identifier{Base: astBase(p.pos()), Name: p.cur.Literal}
}

// parseYield handles `yield`, `yield expr`, and `yield* expr`. The
// argument is omitted when the next token can only close or separate an
// expression, matching the restricted-production newline rule loosely
// (this parser has no automatic semicolon insertion to interact with).
func (p *Parser) parseYield() ast.Expression {
	pos := p.pos()
	expr := &ast.YieldExpression{Base: astBase(pos)}
	if p.peekIs(lexer.TokenStar) {
		p.next()
		expr.Delegate = true
	}
	switch p.peek.Type {
	case lexer.TokenSemicolon, lexer.TokenRParen, lexer.TokenRBrace, lexer.TokenRBracket,
		lexer.TokenComma, lexer.TokenColon, lexer.TokenEOF:
		return expr
	}
	p.next()
	expr.Argument = p.parseExpression(LOWEST)
	return expr
}

func (p *Parser) parseAwait() ast.Expression {
	pos := p.pos()
	p.next()
	arg := p.parseExpression(PREFIX)
	return &ast.AwaitExpression{Base: astBase(pos), Argument: arg}
}

// parseImportCall handles dynamic `import(specifier)` in expression
// position; static import declarations are routed to
// parseImportDeclaration before expression parsing ever sees the token.
func (p *Parser) parseImportCall() ast.Expression {
	pos := p.pos()
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	p.next()
	arg := p.parseExpression(LOWEST)
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	return &ast.ImportCallExpression{Base: astBase(pos), Argument: arg}
}

func (p *Parser) parseTemplateString() ast.Expression {
	return &ast.StringLiteral{Base: astBase(p.pos()), Value: p.cur.Literal}
}

func (p *Parser) parseNewExpression() ast.Expression {
	pos := p.pos()
	p.next()
	callee := p.parseExpression(CALL)
	newExpr := &ast.NewExpression{Base: astBase(pos)}
	if call, ok := callee.(*ast.CallExpression); ok {
		newExpr.Callee = call.Callee
		newExpr.Arguments = call.Arguments
		return newExpr
	}
	newExpr.Callee = callee
	return newExpr
}

func (p *Parser) parseBinary(left ast.Expression) ast.Expression {
	pos := p.pos()
	op := binaryOperator(p.cur.Type)
	prec := p.curPrecedence()
	p.next()
	right := p.parseExpression(prec)
	return &ast.BinaryExpression{Base: astBase(pos), Operator: op, Left: left, Right: right}
}

func binaryOperator(t lexer.TokenType) string {
	switch t {
	case lexer.TokenPlus:
		return "+"
	case lexer.TokenMinus:
		return "-"
	case lexer.TokenStar:
		return "*"
	case lexer.TokenSlash:
		return "/"
	case lexer.TokenPercent:
		return "%"
	case lexer.TokenStarStar:
		return "**"
	case lexer.TokenEq:
		return "=="
	case lexer.TokenNeq:
		return "!="
	case lexer.TokenStrictEq:
		return "==="
	case lexer.TokenStrictNeq:
		return "!=="
	case lexer.TokenLt:
		return "<"
	case lexer.TokenLe:
		return "<="
	case lexer.TokenGt:
		return ">"
	case lexer.TokenGe:
		return ">="
	case lexer.TokenIn:
		return "in"
	case lexer.TokenInstanceof:
		return "instanceof"
	case lexer.TokenAmp:
		return "&"
	case lexer.TokenPipe:
		return "|"
	case lexer.TokenCaret:
		return "^"
	case lexer.TokenShl:
		return "<<"
	case lexer.TokenShr:
		return ">>"
	case lexer.TokenUShr:
		return ">>>"
	default:
		return "?"
	}
}

func (p *Parser) parseLogical(left ast.Expression) ast.Expression {
	pos := p.pos()
	var op string
	switch p.cur.Type {
	case lexer.TokenAnd:
		op = "&&"
	case lexer.TokenOr:
		op = "||"
	case lexer.TokenNullish:
		op = "??"
	}
	prec := p.curPrecedence()
	p.next()
	right := p.parseExpression(prec)
	return &ast.LogicalExpression{Base: astBase(pos), Operator: op, Left: left, Right: right}
}

func (p *Parser) parseAssignment(left ast.Expression) ast.Expression {
	pos := p.pos()
	op := tokenOperator[p.cur.Type]
	p.next()
	value := p.parseExpression(ASSIGN - 1)
	return &ast.AssignmentExpression{Base: astBase(pos), Operator: op, Target: left, Value: value}
}

func (p *Parser) parseConditional(test ast.Expression) ast.Expression {
	pos := p.pos()
	p.next()
	consequent := p.parseExpression(LOWEST)
	if !p.expect(lexer.TokenColon) {
		return nil
	}
	p.next()
	alternate := p.parseExpression(LOWEST)
	return &ast.ConditionalExpression{Base: astBase(pos), Test: test, Consequent: consequent, Alternate: alternate}
}

func (p *Parser) parseMember(left ast.Expression) ast.Expression {
	pos := p.pos()
	p.next()
	prop := &ast.Identifier{Base: astBase(p.pos()), Name: p.cur.Literal}
	return &ast.MemberExpression{Base: astBase(pos), Object: left, Property: prop, Computed: false}
}

func (p *Parser) parseComputedMember(left ast.Expression) ast.Expression {
	pos := p.pos()
	p.next()
	prop := p.parseExpression(LOWEST)
	if !p.expect(lexer.TokenRBracket) {
		return nil
	}
	return &ast.MemberExpression{Base: astBase(pos), Object: left, Property: prop, Computed: true}
}

func (p *Parser) parseCall(callee ast.Expression) ast.Expression {
	pos := p.pos()
	args := p.parseExpressionList(lexer.TokenRParen)
	return &ast.CallExpression{Base: astBase(pos), Callee: callee, Arguments: args}
}

func (p *Parser) parseExpressionList(end lexer.TokenType) []ast.Expression {
	var list []ast.Expression
	if p.peekIs(end) {
		p.next()
		return list
	}
	p.next()
	list = append(list, p.parseExpression(LOWEST))
	for p.peekIs(lexer.TokenComma) {
		p.next()
		p.next()
		list = append(list, p.parseExpression(LOWEST))
	}
	p.expect(end)
	return list
}
