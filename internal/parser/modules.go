package parser

import (
	"github.com/turbobuilt/gots/internal/ast"
	"github.com/turbobuilt/gots/internal/token"
)

// parseImportStatement covers the named, default, renamed, and namespace
// import forms.
func (p *Parser) parseImportStatement() ast.Statement {
	tok := p.cur

	is := &ast.ImportStatement{Token: tok}

	switch {
	case p.peekIs(token.LBRACE):
		// import { a, b as c } from "path"
		p.nextToken()
		p.nextToken()
		for !p.curIs(token.RBRACE) {
			spec := ast.ImportSpecifier{Name: p.cur.Literal, Alias: p.cur.Literal}
			if p.peekIs(token.AS) {
				p.nextToken()
				p.nextToken()
				spec.Alias = p.cur.Literal
			}
			is.Named = append(is.Named, spec)
			if p.peekIs(token.COMMA) {
				p.nextToken()
			}
			p.nextToken()
		}
	case p.peekIs(token.STAR):
		// import * as n from "path"
		p.nextToken()
		if !p.expect(token.AS) {
			return nil
		}
		if !p.expect(token.IDENT) {
			return nil
		}
		is.NamespaceAlias = p.cur.Literal
	case p.peekIs(token.IDENT):
		// import d from "path"
		p.nextToken()
		is.DefaultAlias = p.cur.Literal
	}

	if !p.expect(token.FROM) {
		return nil
	}
	if !p.expect(token.STRING) {
		return nil
	}
	is.Path = p.cur.Literal
	if p.peekIs(token.SEMI) {
		p.nextToken()
	}
	return is
}

// parseExportStatement covers `export [default] <decl>`.
func (p *Parser) parseExportStatement() ast.Statement {
	tok := p.cur
	isDefault := false
	if p.peekIs(token.DEFAULT) {
		p.nextToken()
		isDefault = true
	}
	p.nextToken()
	decl := p.parseStatement()
	return &ast.ExportStatement{Token: tok, IsDefault: isDefault, Decl: decl}
}
