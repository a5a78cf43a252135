package parser

import (
	"github.com/vela-lang/vela/ast"
	"github.com/vela-lang/vela/lexer"
)

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	pos := p.pos()
	return &ast.BlockStatement{Base: astBase(pos), Body: p.parseBlockBody().Body}
}

// parseBlockBody assumes the current token is '{' and consumes through
// the matching '}'.
func (p *Parser) parseBlockBody() *ast.BlockStatement {
	pos := p.pos()
	block := &ast.BlockStatement{Base: astBase(pos)}
	p.next()
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		if stmt := p.parseStatement(); stmt != nil {
			block.Body = append(block.Body, stmt)
		}
		p.next()
	}
	return block
}

func (p *Parser) parseVariableDeclaration() ast.Statement {
	pos := p.pos()
	kind := p.cur.Literal
	decl := &ast.VariableDeclaration{Base: astBase(pos), Kind: kind}
	for {
		p.next()
		name := p.cur.Literal
		var init ast.Expression
		if p.peekIs(lexer.TokenAssign) {
			p.next()
			p.next()
			init = p.parseExpression(LOWEST)
		}
		decl.Declarations = append(decl.Declarations, ast.VariableDeclarator{Name: name, Init: init})
		if !p.peekIs(lexer.TokenComma) {
			break
		}
		p.next()
	}
	if p.peekIs(lexer.TokenSemicolon) {
		p.next()
	}
	return decl
}

func (p *Parser) parseFunctionDeclaration() ast.Statement {
	pos := p.pos()
	expr := p.parseFunctionExpression().(*ast.FunctionExpression)
	return &ast.FunctionDeclaration{Base: astBase(pos), Function: expr}
}

// parseImportDeclaration covers the static import forms spec'd for the
// module loader: a bare side-effect import, a default binding, a
// namespace binding, and a named-bindings list (optionally after a
// default binding).
func (p *Parser) parseImportDeclaration() ast.Statement {
	pos := p.pos()
	decl := &ast.ImportDeclaration{Base: astBase(pos)}
	switch {
	case p.peekIs(lexer.TokenString):
		p.next()
		decl.Specifier = p.cur.Literal
	case p.peekIs(lexer.TokenStar):
		p.next()
		if !p.expectContextualAs() {
			return nil
		}
		if !p.expect(lexer.TokenIdent) {
			return nil
		}
		decl.Namespace = p.cur.Literal
		if !p.parseImportFrom(decl) {
			return nil
		}
	case p.peekIs(lexer.TokenLBrace):
		p.next()
		if !p.parseNamedImports(decl) {
			return nil
		}
		if !p.parseImportFrom(decl) {
			return nil
		}
	case p.peekIs(lexer.TokenIdent):
		p.next()
		decl.Default = p.cur.Literal
		if p.peekIs(lexer.TokenComma) {
			p.next()
			if !p.expect(lexer.TokenLBrace) {
				return nil
			}
			if !p.parseNamedImports(decl) {
				return nil
			}
		}
		if !p.parseImportFrom(decl) {
			return nil
		}
	default:
		p.errorf("unexpected token %v after import", p.peek.Type)
		return nil
	}
	if p.peekIs(lexer.TokenSemicolon) {
		p.next()
	}
	return decl
}

// expectContextualAs consumes the contextual keyword `as`, which lexes
// as a plain identifier.
func (p *Parser) expectContextualAs() bool {
	if !p.expect(lexer.TokenIdent) {
		return false
	}
	if p.cur.Literal != "as" {
		p.errorf("expected 'as', got %q", p.cur.Literal)
		return false
	}
	return true
}

func (p *Parser) parseImportFrom(decl *ast.ImportDeclaration) bool {
	if !p.expect(lexer.TokenFrom) {
		return false
	}
	if !p.expect(lexer.TokenString) {
		return false
	}
	decl.Specifier = p.cur.Literal
	return true
}

// parseNamedImports assumes cur is '{' and consumes through the matching
// '}'.
func (p *Parser) parseNamedImports(decl *ast.ImportDeclaration) bool {
	if p.peekIs(lexer.TokenRBrace) {
		p.next()
		return true
	}
	for {
		if !p.expect(lexer.TokenIdent) {
			return false
		}
		b := ast.ImportBinding{Imported: p.cur.Literal, Local: p.cur.Literal}
		if p.peekIs(lexer.TokenIdent) && p.peek.Literal == "as" {
			p.next()
			if !p.expect(lexer.TokenIdent) {
				return false
			}
			b.Local = p.cur.Literal
		}
		decl.Named = append(decl.Named, b)
		if !p.peekIs(lexer.TokenComma) {
			break
		}
		p.next()
	}
	return p.expect(lexer.TokenRBrace)
}

// parseExportDeclaration covers `export default expr`, `export { a, b as
// c }`, and `export <declaration>` for var/let/const/function/async
// function declarations.
func (p *Parser) parseExportDeclaration() ast.Statement {
	pos := p.pos()
	switch {
	case p.peekIs(lexer.TokenDefault):
		p.next()
		p.next()
		expr := p.parseExpression(LOWEST)
		if p.peekIs(lexer.TokenSemicolon) {
			p.next()
		}
		return &ast.ExportDefaultStatement{Base: astBase(pos), Expression: expr}
	case p.peekIs(lexer.TokenLBrace):
		p.next()
		stmt := &ast.ExportNamedStatement{Base: astBase(pos)}
		if !p.peekIs(lexer.TokenRBrace) {
			for {
				if !p.expect(lexer.TokenIdent) {
					return nil
				}
				b := ast.ExportBinding{Local: p.cur.Literal, Exported: p.cur.Literal}
				if p.peekIs(lexer.TokenIdent) && p.peek.Literal == "as" {
					p.next()
					if !p.expect(lexer.TokenIdent) {
						return nil
					}
					b.Exported = p.cur.Literal
				}
				stmt.Names = append(stmt.Names, b)
				if !p.peekIs(lexer.TokenComma) {
					break
				}
				p.next()
			}
		}
		if !p.expect(lexer.TokenRBrace) {
			return nil
		}
		if p.peekIs(lexer.TokenSemicolon) {
			p.next()
		}
		return stmt
	case p.peekIs(lexer.TokenVar), p.peekIs(lexer.TokenLet), p.peekIs(lexer.TokenConst),
		p.peekIs(lexer.TokenFunction), p.peekIs(lexer.TokenAsync):
		p.next()
		decl := p.parseStatement()
		return &ast.ExportNamedStatement{Base: astBase(pos), Declaration: decl}
	default:
		p.errorf("unexpected token %v after export", p.peek.Type)
		return nil
	}
}

func (p *Parser) parseReturnStatement() ast.Statement {
	pos := p.pos()
	stmt := &ast.ReturnStatement{Base: astBase(pos)}
	if !p.peekIs(lexer.TokenSemicolon) && !p.peekIs(lexer.TokenRBrace) {
		p.next()
		stmt.Argument = p.parseExpression(LOWEST)
	}
	if p.peekIs(lexer.TokenSemicolon) {
		p.next()
	}
	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	pos := p.pos()
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	p.next()
	test := p.parseExpression(LOWEST)
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	p.next()
	consequent := p.parseStatement()
	stmt := &ast.IfStatement{Base: astBase(pos), Test: test, Consequent: consequent}
	if p.peekIs(lexer.TokenElse) {
		p.next()
		p.next()
		stmt.Alternate = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseWhileStatement(label string) ast.Statement {
	pos := p.pos()
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	p.next()
	test := p.parseExpression(LOWEST)
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	p.next()
	body := p.parseStatement()
	return &ast.WhileStatement{Base: astBase(pos), Test: test, Body: body, Label: label}
}

func (p *Parser) parseDoWhileStatement(label string) ast.Statement {
	pos := p.pos()
	p.next()
	body := p.parseStatement()
	if !p.expect(lexer.TokenWhile) {
		return nil
	}
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	p.next()
	test := p.parseExpression(LOWEST)
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	if p.peekIs(lexer.TokenSemicolon) {
		p.next()
	}
	return &ast.DoWhileStatement{Base: astBase(pos), Test: test, Body: body, Label: label}
}

func (p *Parser) parseForStatement(label string) ast.Statement {
	pos := p.pos()
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	p.next()

	var pendingDeclKind, pendingDeclName string
	hasPendingDecl := false
	if p.curIs(lexer.TokenLet) || p.curIs(lexer.TokenConst) || p.curIs(lexer.TokenVar) {
		kind := p.cur.Literal
		if p.peekIs(lexer.TokenIdent) {
			p.next()
			name := p.cur.Literal
			if p.peekIs(lexer.TokenOf) {
				p.next()
				p.next()
				right := p.parseExpression(LOWEST)
				if !p.expect(lexer.TokenRParen) {
					return nil
				}
				p.next()
				body := p.parseStatement()
				return &ast.ForOfStatement{Base: astBase(pos), DeclKind: kind, Binding: name, Right: right, Body: body, Label: label}
			}
			// Not a for-of: cur now sits on the already-consumed
			// binding name. Finish parsing it as an ordinary
			// VariableDeclaration without re-reading the kind/name
			// tokens (the one-token lookahead parser has no
			// backtracking).
			pendingDeclKind, pendingDeclName, hasPendingDecl = kind, name, true
		}
	}

	forStmt := &ast.ForStatement{Base: astBase(pos), Label: label}
	switch {
	case hasPendingDecl:
		decl := &ast.VariableDeclaration{Base: astBase(pos), Kind: pendingDeclKind}
		var init ast.Expression
		if p.peekIs(lexer.TokenAssign) {
			p.next()
			p.next()
			init = p.parseExpression(LOWEST)
		}
		decl.Declarations = append(decl.Declarations, ast.VariableDeclarator{Name: pendingDeclName, Init: init})
		for p.peekIs(lexer.TokenComma) {
			p.next()
			p.next()
			name := p.cur.Literal
			var extraInit ast.Expression
			if p.peekIs(lexer.TokenAssign) {
				p.next()
				p.next()
				extraInit = p.parseExpression(LOWEST)
			}
			decl.Declarations = append(decl.Declarations, ast.VariableDeclarator{Name: name, Init: extraInit})
		}
		forStmt.Init = decl
		if !p.expect(lexer.TokenSemicolon) {
			return nil
		}
	case !p.curIs(lexer.TokenSemicolon):
		if p.curIs(lexer.TokenLet) || p.curIs(lexer.TokenConst) || p.curIs(lexer.TokenVar) {
			forStmt.Init = p.parseVariableDeclaration()
		} else {
			expr := p.parseExpression(LOWEST)
			forStmt.Init = &ast.ExpressionStatement{Base: astBase(pos), Expression: expr}
			if !p.expect(lexer.TokenSemicolon) {
				return nil
			}
		}
	default:
		// empty init, cur is already ';'
	}

	// cur now sits on the ';' terminating Init; advance to the start of
	// Test (or straight to the second ';' if Test is empty).
	p.next()
	if !p.curIs(lexer.TokenSemicolon) {
		forStmt.Test = p.parseExpression(LOWEST)
		if !p.expect(lexer.TokenSemicolon) {
			return nil
		}
	}

	if !p.peekIs(lexer.TokenRParen) {
		p.next()
		forStmt.Update = p.parseExpression(LOWEST)
	}
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	p.next()
	forStmt.Body = p.parseStatement()
	return forStmt
}

func (p *Parser) parseSwitchStatement() ast.Statement {
	pos := p.pos()
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	p.next()
	disc := p.parseExpression(LOWEST)
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	if !p.expect(lexer.TokenLBrace) {
		return nil
	}
	p.next()

	stmt := &ast.SwitchStatement{Base: astBase(pos), Discriminant: disc}
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		var sc ast.SwitchCase
		switch p.cur.Type {
		case lexer.TokenCase:
			p.next()
			sc.Test = p.parseExpression(LOWEST)
			if !p.expect(lexer.TokenColon) {
				return nil
			}
		case lexer.TokenDefault:
			if !p.expect(lexer.TokenColon) {
				return nil
			}
		default:
			p.errorf("expected case or default, got %v", p.cur.Type)
			return nil
		}
		p.next()
		for !p.curIs(lexer.TokenCase) && !p.curIs(lexer.TokenDefault) && !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
			if inner := p.parseStatement(); inner != nil {
				sc.Body = append(sc.Body, inner)
			}
			p.next()
		}
		stmt.Cases = append(stmt.Cases, sc)
	}
	return stmt
}

func (p *Parser) parseBreakStatement() ast.Statement {
	pos := p.pos()
	stmt := &ast.BreakStatement{Base: astBase(pos)}
	if p.peekIs(lexer.TokenIdent) {
		p.next()
		stmt.Label = p.cur.Literal
	}
	if p.peekIs(lexer.TokenSemicolon) {
		p.next()
	}
	return stmt
}

func (p *Parser) parseContinueStatement() ast.Statement {
	pos := p.pos()
	stmt := &ast.ContinueStatement{Base: astBase(pos)}
	if p.peekIs(lexer.TokenIdent) {
		p.next()
		stmt.Label = p.cur.Literal
	}
	if p.peekIs(lexer.TokenSemicolon) {
		p.next()
	}
	return stmt
}

func (p *Parser) parseThrowStatement() ast.Statement {
	pos := p.pos()
	p.next()
	arg := p.parseExpression(LOWEST)
	if p.peekIs(lexer.TokenSemicolon) {
		p.next()
	}
	return &ast.ThrowStatement{Base: astBase(pos), Argument: arg}
}

func (p *Parser) parseTryStatement() ast.Statement {
	pos := p.pos()
	if !p.expect(lexer.TokenLBrace) {
		return nil
	}
	block := p.parseBlockBody()
	stmt := &ast.TryStatement{Base: astBase(pos), Block: block}

	if p.peekIs(lexer.TokenCatch) {
		p.next()
		handler := &ast.CatchClause{}
		if p.peekIs(lexer.TokenLParen) {
			p.next()
			p.next()
			handler.Param = p.cur.Literal
			p.expect(lexer.TokenRParen)
		}
		p.expect(lexer.TokenLBrace)
		handler.Body = p.parseBlockBody()
		stmt.Handler = handler
	}
	if p.peekIs(lexer.TokenFinally) {
		p.next()
		p.expect(lexer.TokenLBrace)
		stmt.Finally = p.parseBlockBody()
	}
	return stmt
}
