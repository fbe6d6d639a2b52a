package ast

import (
	"strings"

	"github.com/turbobuilt/gots/internal/token"
)

// DeclKind distinguishes let/var/const declarations: all three parse
// identically but carry different mutability.
type DeclKind int

const (
	DeclLet DeclKind = iota
	DeclVar
	DeclConst
)

// VarDeclaration is `let|var|const name[: Type] [= init];`.
type VarDeclaration struct {
	Token       token.Token
	Kind        DeclKind
	Name        string
	Type        *TypeExpr
	Initializer Expression
}

func (vd *VarDeclaration) statementNode()       {}
func (vd *VarDeclaration) TokenLiteral() string { return vd.Token.Literal }
func (vd *VarDeclaration) String() string {
	var sb strings.Builder
	switch vd.Kind {
	case DeclLet:
		sb.WriteString("let ")
	case DeclVar:
		sb.WriteString("var ")
	case DeclConst:
		sb.WriteString("const ")
	}
	sb.WriteString(vd.Name)
	if vd.Type != nil {
		sb.WriteString(": " + vd.Type.String())
	}
	if vd.Initializer != nil {
		sb.WriteString(" = " + vd.Initializer.String())
	}
	sb.WriteString(";")
	return sb.String()
}
func (vd *VarDeclaration) Pos() token.Position { return vd.Token.Pos }

// ExpressionStatement wraps an expression evaluated purely for effect.
type ExpressionStatement struct {
	Token token.Token
	Expr  Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) String() string {
	if es.Expr != nil {
		return es.Expr.String() + ";"
	}
	return ";"
}
func (es *ExpressionStatement) Pos() token.Position { return es.Token.Pos }

// BlockStatement is `{ stmt... }`.
type BlockStatement struct {
	Token      token.Token
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) String() string {
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, s := range bs.Statements {
		sb.WriteString(s.String())
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	return sb.String()
}
func (bs *BlockStatement) Pos() token.Position { return bs.Token.Pos }

// ReturnStatement is `return [expr];`.
type ReturnStatement struct {
	Token token.Token
	Value Expression
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) String() string {
	if rs.Value != nil {
		return "return " + rs.Value.String() + ";"
	}
	return "return;"
}
func (rs *ReturnStatement) Pos() token.Position { return rs.Token.Pos }

// BreakStatement is `break;`.
type BreakStatement struct{ Token token.Token }

func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) String() string       { return "break;" }
func (bs *BreakStatement) Pos() token.Position  { return bs.Token.Pos }

// ContinueStatement is `continue;`.
type ContinueStatement struct{ Token token.Token }

func (cs *ContinueStatement) statementNode()       {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ContinueStatement) String() string       { return "continue;" }
func (cs *ContinueStatement) Pos() token.Position  { return cs.Token.Pos }
