package parser

import (
	"github.com/turbobuilt/gots/internal/ast"
	"github.com/turbobuilt/gots/internal/token"
)

func (p *Parser) parseVarDeclaration() ast.Statement {
	tok := p.cur
	var kind ast.DeclKind
	switch tok.Kind {
	case token.LET:
		kind = ast.DeclLet
	case token.VAR:
		kind = ast.DeclVar
	case token.CONST:
		kind = ast.DeclConst
	}
	if !p.expect(token.IDENT) {
		return nil
	}
	name := p.cur.Literal

	var typ *ast.TypeExpr
	if p.peekIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		typ = p.parseTypeExpr()
	}

	var init ast.Expression
	if p.peekIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		init = p.parseExpression(precLowest)
	}
	if p.peekIs(token.SEMI) {
		p.nextToken()
	}
	return &ast.VarDeclaration{Token: tok, Kind: kind, Name: name, Type: typ, Initializer: init}
}

// parseTypeExpr parses a type annotation: a bare name, an array suffix
// (`T[]`), or a single level of generic args (`Promise<T>`). The current
// token must be the first token of the type when this is called.
func (p *Parser) parseTypeExpr() *ast.TypeExpr {
	name := p.cur.Literal
	t := &ast.TypeExpr{Name: name}
	if p.peekIs(token.LT) {
		p.nextToken()
		p.nextToken()
		arg := p.parseTypeExpr()
		t.TypeArgs = append(t.TypeArgs, arg)
		if p.peekIs(token.GT) {
			p.nextToken()
		}
	}
	for p.peekIs(token.LBRACKET) {
		p.nextToken() // consume '['
		if !p.expect(token.RBRACKET) {
			return t
		}
		t = &ast.TypeExpr{IsArray: true, ArrayOf: t}
	}
	return t
}

func (p *Parser) parseParamList() []*ast.Param {
	var params []*ast.Param
	if !p.expect(token.LPAREN) {
		return nil
	}
	if p.peekIs(token.RPAREN) {
		p.nextToken()
		return params
	}
	p.nextToken()
	params = append(params, p.parseOneParam())
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		params = append(params, p.parseOneParam())
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	return params
}

func (p *Parser) parseOneParam() *ast.Param {
	param := &ast.Param{Name: p.cur.Literal}
	if p.peekIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		param.Type = p.parseTypeExpr()
	}
	if p.peekIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		param.DefaultValue = p.parseExpression(precAssign)
	}
	return param
}

func (p *Parser) parseReturnTypeIfAny() *ast.TypeExpr {
	if p.peekIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		return p.parseTypeExpr()
	}
	return nil
}

func (p *Parser) parseFunctionDeclaration() ast.Statement {
	tok := p.cur
	if !p.expect(token.IDENT) {
		return nil
	}
	name := p.cur.Literal
	params := p.parseParamList()
	retType := p.parseReturnTypeIfAny()
	if !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockStatement()
	return &ast.FunctionDeclaration{Token: tok, Name: name, Parameters: params, ReturnType: retType, Body: body}
}

func (p *Parser) parseFunctionLiteral() ast.Expression {
	tok := p.cur
	name := ""
	if p.peekIs(token.IDENT) {
		p.nextToken()
		name = p.cur.Literal
	}
	params := p.parseParamList()
	retType := p.parseReturnTypeIfAny()
	if !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockStatement()
	return &ast.FunctionLiteral{Token: tok, Name: name, Parameters: params, ReturnType: retType, Body: body}
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.cur}
	p.nextToken()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if stmt := p.parseStatement(); stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}
	return block
}

func (p *Parser) parseReturnStatement() ast.Statement {
	tok := p.cur
	rs := &ast.ReturnStatement{Token: tok}
	if !p.peekIs(token.SEMI) && !p.peekIs(token.RBRACE) {
		p.nextToken()
		rs.Value = p.parseExpression(precLowest)
	}
	if p.peekIs(token.SEMI) {
		p.nextToken()
	}
	return rs
}

func (p *Parser) parseIfStatement() ast.Statement {
	tok := p.cur
	if !p.expect(token.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression(precLowest)
	if !p.expect(token.RPAREN) {
		return nil
	}
	if !p.expect(token.LBRACE) {
		return nil
	}
	cons := p.parseBlockStatement()

	stmt := &ast.IfStatement{Token: tok, Condition: cond, Consequence: cons}
	if p.peekIs(token.ELSE) {
		p.nextToken()
		if p.peekIs(token.IF) {
			p.nextToken()
			stmt.Alternative = p.parseIfStatement()
		} else if p.expect(token.LBRACE) {
			stmt.Alternative = p.parseBlockStatement()
		}
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	tok := p.cur
	if !p.expect(token.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression(precLowest)
	if !p.expect(token.RPAREN) {
		return nil
	}
	if !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockStatement()
	return &ast.WhileStatement{Token: tok, Condition: cond, Body: body}
}

// parseForOrForEach disambiguates `for (init; cond; post)` from
// `for (name of|in iterable)` by looking ahead for `of`/`in` after the
// first identifier.
func (p *Parser) parseForOrForEach() ast.Statement {
	tok := p.cur
	if !p.expect(token.LPAREN) {
		return nil
	}

	if p.peekIs(token.IDENT) {
		savedCur, savedPeek := p.cur, p.peek
		savedLexerState := *p.l
		p.nextToken()
		name := p.cur.Literal
		if p.peekIs(token.OF) || p.peekIs(token.IN) {
			isIn := p.peekIs(token.IN)
			p.nextToken()
			p.nextToken()
			iterable := p.parseExpression(precLowest)
			if !p.expect(token.RPAREN) {
				return nil
			}
			if !p.expect(token.LBRACE) {
				return nil
			}
			body := p.parseBlockStatement()
			return &ast.ForEachStatement{Token: tok, VarName: name, Iterable: iterable, IsObjectIn: isIn, Body: body}
		}
		// Not a for-each: rewind and fall through to classic for-parsing.
		p.cur, p.peek = savedCur, savedPeek
		*p.l = savedLexerState
	}

	var init ast.Statement
	if !p.peekIs(token.SEMI) {
		p.nextToken()
		init = p.parseSimpleStatementNoSemi()
	} else {
		p.nextToken()
	}
	if !p.expect(token.SEMI) && !p.curIs(token.SEMI) {
		// tolerate either being already positioned at ';' or needing advance
	}
	var cond ast.Expression
	if !p.peekIs(token.SEMI) {
		p.nextToken()
		cond = p.parseExpression(precLowest)
	}
	if !p.expect(token.SEMI) {
		return nil
	}
	var post ast.Statement
	if !p.peekIs(token.RPAREN) {
		p.nextToken()
		post = p.parseSimpleStatementNoSemi()
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	if !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockStatement()
	return &ast.ForStatement{Token: tok, Init: init, Condition: cond, Post: post, Body: body}
}

// parseSimpleStatementNoSemi parses a var-declaration or expression
// statement without consuming a trailing semicolon, for use inside a
// classic for-loop's init/post clauses.
func (p *Parser) parseSimpleStatementNoSemi() ast.Statement {
	switch p.cur.Kind {
	case token.LET, token.VAR, token.CONST:
		tok := p.cur
		var kind ast.DeclKind
		switch tok.Kind {
		case token.LET:
			kind = ast.DeclLet
		case token.VAR:
			kind = ast.DeclVar
		case token.CONST:
			kind = ast.DeclConst
		}
		if !p.expect(token.IDENT) {
			return nil
		}
		name := p.cur.Literal
		var init ast.Expression
		if p.peekIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			init = p.parseExpression(precLowest)
		}
		return &ast.VarDeclaration{Token: tok, Kind: kind, Name: name, Initializer: init}
	default:
		tok := p.cur
		expr := p.parseExpression(precLowest)
		return &ast.ExpressionStatement{Token: tok, Expr: expr}
	}
}

func (p *Parser) parseSwitchStatement() ast.Statement {
	tok := p.cur
	if !p.expect(token.LPAREN) {
		return nil
	}
	p.nextToken()
	subj := p.parseExpression(precLowest)
	if !p.expect(token.RPAREN) {
		return nil
	}
	if !p.expect(token.LBRACE) {
		return nil
	}
	p.nextToken()

	ss := &ast.SwitchStatement{Token: tok, Subject: subj}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		switch p.cur.Kind {
		case token.CASE:
			p.nextToken()
			c := &ast.SwitchCase{}
			c.Values = append(c.Values, p.parseExpression(precLowest))
			if !p.expect(token.COLON) {
				return ss
			}
			p.nextToken()
			for !p.curIs(token.CASE) && !p.curIs(token.DEFAULT) && !p.curIs(token.RBRACE) {
				if stmt := p.parseStatement(); stmt != nil {
					c.Body = append(c.Body, stmt)
				}
				p.nextToken()
			}
			ss.Cases = append(ss.Cases, c)
		case token.DEFAULT:
			c := &ast.SwitchCase{IsDefault: true}
			if !p.expect(token.COLON) {
				return ss
			}
			p.nextToken()
			for !p.curIs(token.CASE) && !p.curIs(token.DEFAULT) && !p.curIs(token.RBRACE) {
				if stmt := p.parseStatement(); stmt != nil {
					c.Body = append(c.Body, stmt)
				}
				p.nextToken()
			}
			ss.Cases = append(ss.Cases, c)
		default:
			p.addError(p.cur.Pos, "expected 'case' or 'default' in switch body, got %v", p.cur.Kind)
			p.nextToken()
		}
	}
	return ss
}
