// Package parser implements a recursive-descent parser with Pratt-style
// expression precedence climbing.
package parser

import (
	"fmt"
	"strconv"

	"github.com/turbobuilt/gots/internal/ast"
	"github.com/turbobuilt/gots/internal/diagnostics"
	"github.com/turbobuilt/gots/internal/lexer"
	"github.com/turbobuilt/gots/internal/token"
)

// precedence levels, lowest to highest.
const (
	_ int = iota
	precLowest
	precAssign     // =  += -= *= /=
	precTernary    // ?:
	precLogicalOr  // ||
	precLogicalAnd // &&
	precEquality   // == === != (strict-eq handled same tier)
	precComparison // < > <= >=
	precAdditive   // + -
	precMultiply   // * / %
	precExponent   // **
	precUnary      // -x !x ++x --x
	precPostfix    // f(x) a.b a[i] x++ x--
)

var precedences = map[token.Kind]int{
	token.ASSIGN: precAssign, token.PLUSEQ: precAssign, token.MINUSEQ: precAssign,
	token.STAREQ: precAssign, token.SLASHEQ: precAssign,
	token.QUESTION: precTernary,
	token.OR:       precLogicalOr,
	token.AND:      precLogicalAnd,
	token.EQ:       precEquality, token.STEQ: precEquality, token.NEQ: precEquality,
	token.LT: precComparison, token.GT: precComparison, token.LE: precComparison, token.GE: precComparison,
	token.PLUS: precAdditive, token.MINUS: precAdditive,
	token.STAR: precMultiply, token.SLASH: precMultiply, token.PERCENT: precMultiply,
	token.STARSTAR: precExponent,
	token.LPAREN:    precPostfix,
	token.DOT:       precPostfix,
	token.LBRACKET:  precPostfix,
	token.INCR:      precPostfix,
	token.DECR:      precPostfix,
}

// ParseError is a diagnostic carrying the position of the offending
// token.
type ParseError = diagnostics.CompilerError

// Parser consumes a token stream (via a small cursor of cur/peek) and
// produces a *ast.Program. It does not attempt recovery within a
// statement: the first unexpected token aborts that statement's parse.
type Parser struct {
	l      *lexer.Lexer
	file   string
	source string

	cur  token.Token
	peek token.Token

	errors List

	prefixFns map[token.Kind]func() ast.Expression
	infixFns  map[token.Kind]func(ast.Expression) ast.Expression
}

// List aggregates ParseErrors.
type List = diagnostics.List

// New constructs a Parser over source, attributing diagnostics to file.
func New(source, file string) *Parser {
	p := &Parser{l: lexer.New(source), file: file, source: source}

	p.prefixFns = map[token.Kind]func() ast.Expression{
		token.IDENT:    p.parseIdentifier,
		token.INT:      p.parseIntegerLiteral,
		token.FLOAT:    p.parseFloatLiteral,
		token.STRING:   p.parseStringLiteral,
		token.TRUE:     p.parseBoolLiteral,
		token.FALSE:    p.parseBoolLiteral,
		token.NULL:     p.parseNullLiteral,
		token.THIS:     p.parseThisExpression,
		token.MINUS:    p.parsePrefixExpression,
		token.BANG:     p.parsePrefixExpression,
		token.INCR:     p.parsePrefixExpression,
		token.DECR:     p.parsePrefixExpression,
		token.LPAREN:   p.parseGroupedExpression,
		token.LBRACKET: p.parseArrayLiteral,
		token.LBRACE:   p.parseObjectLiteral,
		token.FUNCTION:  p.parseFunctionLiteral,
		token.NEW:      p.parseNewExpression,
		token.GO:       p.parseGoExpression,
		token.AWAIT:    p.parseAwaitExpression,
	}

	p.infixFns = map[token.Kind]func(ast.Expression) ast.Expression{
		token.PLUS: p.parseInfixExpression, token.MINUS: p.parseInfixExpression,
		token.STAR: p.parseInfixExpression, token.SLASH: p.parseInfixExpression,
		token.PERCENT: p.parseInfixExpression, token.STARSTAR: p.parseInfixExpression,
		token.EQ: p.parseInfixExpression, token.STEQ: p.parseInfixExpression, token.NEQ: p.parseInfixExpression,
		token.LT: p.parseInfixExpression, token.GT: p.parseInfixExpression,
		token.LE: p.parseInfixExpression, token.GE: p.parseInfixExpression,
		token.AND: p.parseInfixExpression, token.OR: p.parseInfixExpression,
		token.QUESTION: p.parseTernaryExpression,
		token.ASSIGN:   p.parseAssignExpression, token.PLUSEQ: p.parseAssignExpression,
		token.MINUSEQ: p.parseAssignExpression, token.STAREQ: p.parseAssignExpression, token.SLASHEQ: p.parseAssignExpression,
		token.LPAREN:   p.parseCallExpression,
		token.DOT:      p.parseMemberExpression,
		token.LBRACKET: p.parseIndexExpression,
		token.INCR:     p.parsePostfixExpression,
		token.DECR:     p.parsePostfixExpression,
	}

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) Errors() List { return p.errors }

func (p *Parser) nextToken() {
	p.cur = p.peek
	p.peek = p.l.Next()
}

func (p *Parser) addError(pos token.Position, format string, args ...any) {
	p.errors = append(p.errors, diagnostics.New(diagnostics.Parse, pos, p.file, p.source, fmt.Sprintf(format, args...)))
}

func (p *Parser) curIs(k token.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peek.Kind == k }

func (p *Parser) expect(k token.Kind) bool {
	if p.peekIs(k) {
		p.nextToken()
		return true
	}
	p.addError(p.peek.Pos, "expected next token to be %v, got %v (%q) instead", k, p.peek.Kind, p.peek.Literal)
	return false
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peek.Kind]; ok {
		return pr
	}
	return precLowest
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.cur.Kind]; ok {
		return pr
	}
	return precLowest
}

// ParseProgram parses the full token stream into a Program. If any parse
// errors were recorded, the returned Program may be partial.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curIs(token.EOF) {
		if stmt := p.parseStatement(); stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.nextToken()
	}
	return prog
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Kind {
	case token.LET, token.VAR, token.CONST:
		return p.parseVarDeclaration()
	case token.FUNCTION:
		return p.parseFunctionDeclaration()
	case token.CLASS:
		return p.parseClassDeclaration()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		s := &ast.BreakStatement{Token: p.cur}
		if p.peekIs(token.SEMI) {
			p.nextToken()
		}
		return s
	case token.CONTINUE:
		s := &ast.ContinueStatement{Token: p.cur}
		if p.peekIs(token.SEMI) {
			p.nextToken()
		}
		return s
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForOrForEach()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.SWITCH:
		return p.parseSwitchStatement()
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.IMPORT:
		return p.parseImportStatement()
	case token.EXPORT:
		return p.parseExportStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	tok := p.cur
	expr := p.parseExpression(precLowest)
	stmt := &ast.ExpressionStatement{Token: tok, Expr: expr}
	if p.peekIs(token.SEMI) {
		p.nextToken()
	}
	return stmt
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix, ok := p.prefixFns[p.cur.Kind]
	if !ok {
		p.addError(p.cur.Pos, "no prefix parse function for %v (%q)", p.cur.Kind, p.cur.Literal)
		return nil
	}
	left := prefix()

	for !p.peekIs(token.SEMI) && precedence < p.peekPrecedence() {
		infix, ok := p.infixFns[p.peek.Kind]
		if !ok {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.cur, Value: p.cur.Literal}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	v, err := strconv.ParseInt(p.cur.Literal, 10, 64)
	if err != nil {
		p.addError(p.cur.Pos, "invalid integer literal %q", p.cur.Literal)
	}
	return &ast.IntegerLiteral{Token: p.cur, Value: v}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	v, err := strconv.ParseFloat(p.cur.Literal, 64)
	if err != nil {
		p.addError(p.cur.Pos, "invalid float literal %q", p.cur.Literal)
	}
	return &ast.FloatLiteral{Token: p.cur, Value: v}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.cur, Value: p.cur.Literal}
}

func (p *Parser) parseBoolLiteral() ast.Expression {
	return &ast.BoolLiteral{Token: p.cur, Value: p.cur.Kind == token.TRUE}
}

func (p *Parser) parseNullLiteral() ast.Expression {
	return &ast.NullLiteral{Token: p.cur}
}

func (p *Parser) parseThisExpression() ast.Expression {
	return &ast.ThisExpression{Token: p.cur}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	tok := p.cur
	op := p.cur.Literal
	p.nextToken()
	right := p.parseExpression(precUnary)
	return &ast.PrefixExpression{Token: tok, Operator: op, Right: right}
}

func (p *Parser) parsePostfixExpression(left ast.Expression) ast.Expression {
	return &ast.PostfixExpression{Token: p.cur, Operator: p.cur.Literal, Left: left}
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	tok := p.cur
	op := p.cur.Literal
	prec := p.curPrecedence()
	// `**` is right-associative.
	if tok.Kind == token.STARSTAR {
		prec--
	}
	p.nextToken()
	right := p.parseExpression(prec)
	return &ast.InfixExpression{Token: tok, Left: left, Operator: op, Right: right}
}

func (p *Parser) parseTernaryExpression(cond ast.Expression) ast.Expression {
	tok := p.cur
	p.nextToken()
	then := p.parseExpression(precTernary)
	if !p.expect(token.COLON) {
		return nil
	}
	p.nextToken()
	els := p.parseExpression(precTernary)
	return &ast.TernaryExpression{Token: tok, Condition: cond, Then: then, Else: els}
}

func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	tok := p.cur
	op := p.cur.Literal
	p.nextToken()
	val := p.parseExpression(precAssign - 1)
	return &ast.AssignExpression{Token: tok, Target: left, Operator: op, Value: val}
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	expr := p.parseExpression(precLowest)
	if !p.expect(token.RPAREN) {
		return nil
	}
	return expr
}

func (p *Parser) parseExpressionList(end token.Kind) []ast.Expression {
	var list []ast.Expression
	if p.peekIs(end) {
		p.nextToken()
		return list
	}
	p.nextToken()
	list = append(list, p.parseExpression(precLowest))
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(precLowest))
	}
	if !p.expect(end) {
		return nil
	}
	return list
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	tok := p.cur
	args := p.parseExpressionList(token.RPAREN)
	return &ast.CallExpression{Token: tok, Callee: callee, Arguments: args}
}

func (p *Parser) parseMemberExpression(obj ast.Expression) ast.Expression {
	tok := p.cur
	if !p.expect(token.IDENT) {
		return nil
	}
	return &ast.MemberExpression{Token: tok, Object: obj, Property: p.cur.Literal}
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	tok := p.cur
	p.nextToken()
	idx := p.parseExpression(precLowest)
	if !p.expect(token.RBRACKET) {
		return nil
	}
	return &ast.IndexExpression{Token: tok, Left: left, Index: idx}
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	tok := p.cur
	elems := p.parseExpressionList(token.RBRACKET)
	return &ast.ArrayLiteral{Token: tok, Elements: elems}
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	tok := p.cur
	ol := &ast.ObjectLiteral{Token: tok}
	for !p.peekIs(token.RBRACE) {
		p.nextToken()
		key := p.cur.Literal
		if !p.expect(token.COLON) {
			return nil
		}
		p.nextToken()
		val := p.parseExpression(precLowest)
		ol.Keys = append(ol.Keys, key)
		ol.Values = append(ol.Values, val)
		if p.peekIs(token.COMMA) {
			p.nextToken()
		}
	}
	if !p.expect(token.RBRACE) {
		return nil
	}
	return ol
}

func (p *Parser) parseNewExpression() ast.Expression {
	tok := p.cur
	if !p.expect(token.IDENT) {
		return nil
	}
	name := p.cur.Literal
	var args []ast.Expression
	if p.peekIs(token.LPAREN) {
		p.nextToken()
		args = p.parseExpressionList(token.RPAREN)
	}
	return &ast.NewExpression{Token: tok, ClassName: name, Arguments: args}
}

// parseGoExpression parses `go <call>`, the lightweight-task spawn. The
// operand must be a call expression: `go f(1,2)`.
func (p *Parser) parseGoExpression() ast.Expression {
	tok := p.cur
	p.nextToken()
	inner := p.parseExpression(precUnary)
	call, ok := inner.(*ast.CallExpression)
	if !ok {
		p.addError(tok.Pos, "'go' must be followed by a function call")
		return nil
	}
	return &ast.GoExpression{Token: tok, Call: call}
}

func (p *Parser) parseAwaitExpression() ast.Expression {
	tok := p.cur
	p.nextToken()
	val := p.parseExpression(precUnary)
	return &ast.AwaitExpression{Token: tok, Value: val}
}
