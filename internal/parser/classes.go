package parser

import (
	"github.com/turbobuilt/gots/internal/ast"
	"github.com/turbobuilt/gots/internal/token"
)

func (p *Parser) parseVisibilityAndStatic() (ast.Visibility, bool) {
	vis := ast.Public
	static := false
	for {
		switch p.cur.Kind {
		case token.PUBLIC:
			vis = ast.Public
		case token.PRIVATE:
			vis = ast.Private
		case token.PROTECTED:
			vis = ast.Protected
		case token.STATIC:
			static = true
		default:
			return vis, static
		}
		p.nextToken()
	}
}

func (p *Parser) parseClassDeclaration() ast.Statement {
	tok := p.cur
	if !p.expect(token.IDENT) {
		return nil
	}
	name := p.cur.Literal

	parent := ""
	if p.peekIs(token.EXTENDS) {
		p.nextToken()
		if !p.expect(token.IDENT) {
			return nil
		}
		parent = p.cur.Literal
	}

	if !p.expect(token.LBRACE) {
		return nil
	}
	p.nextToken()

	cd := &ast.ClassDeclaration{Token: tok, Name: name, ParentName: parent}

	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		vis, static := p.parseVisibilityAndStatic()

		switch p.cur.Kind {
		case token.CONSTRUCTOR:
			params := p.parseParamList()
			if !p.expect(token.LBRACE) {
				return cd
			}
			body := p.parseBlockStatement()
			cd.Constructor = &ast.ConstructorDeclaration{Parameters: params, Body: body}

		case token.IDENT:
			name := p.cur.Literal
			if p.peekIs(token.LPAREN) {
				// method
				params := p.parseParamList()
				retType := p.parseReturnTypeIfAny()
				if !p.expect(token.LBRACE) {
					return cd
				}
				body := p.parseBlockStatement()
				cd.Methods = append(cd.Methods, &ast.MethodDeclaration{
					Name: name, Parameters: params, ReturnType: retType, Body: body,
					Visibility: vis, IsStatic: static,
				})
			} else {
				// field
				field := &ast.FieldDeclaration{Name: name, Visibility: vis, IsStatic: static}
				if p.peekIs(token.COLON) {
					p.nextToken()
					p.nextToken()
					field.Type = p.parseTypeExpr()
				}
				if p.peekIs(token.ASSIGN) {
					p.nextToken()
					p.nextToken()
					field.DefaultValue = p.parseExpression(precAssign)
				}
				if p.peekIs(token.SEMI) {
					p.nextToken()
				}
				cd.Fields = append(cd.Fields, field)
			}
		default:
			p.addError(p.cur.Pos, "unexpected token %v in class body", p.cur.Kind)
		}
		p.nextToken()
	}
	return cd
}
