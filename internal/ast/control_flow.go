package ast

import "github.com/turbobuilt/gots/internal/token"

// IfStatement is `if (cond) then [else alt]`.
type IfStatement struct {
	Token       token.Token
	Condition   Expression
	Consequence *BlockStatement
	Alternative Statement // *IfStatement (else-if) or *BlockStatement, or nil
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) String() string {
	out := "if (" + is.Condition.String() + ") " + is.Consequence.String()
	if is.Alternative != nil {
		out += " else " + is.Alternative.String()
	}
	return out
}
func (is *IfStatement) Pos() token.Position { return is.Token.Pos }

// ForStatement is the classic C-style `for (init; cond; post) body`. Any of
// Init/Condition/Post may be nil.
type ForStatement struct {
	Token     token.Token
	Init      Statement
	Condition Expression
	Post      Statement
	Body      *BlockStatement
}

func (fs *ForStatement) statementNode()       {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) String() string       { return "for (...) " + fs.Body.String() }
func (fs *ForStatement) Pos() token.Position  { return fs.Token.Pos }

// ForEachStatement is `for (name of/in iterable) body`, over an array
// (`of`) or an object's keys (`in`).
type ForEachStatement struct {
	Token      token.Token
	VarName    string
	Iterable   Expression
	IsObjectIn bool // true for `in`, false for `of`
	Body       *BlockStatement
}

func (fs *ForEachStatement) statementNode()       {}
func (fs *ForEachStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForEachStatement) String() string {
	kw := "of"
	if fs.IsObjectIn {
		kw = "in"
	}
	return "for (" + fs.VarName + " " + kw + " " + fs.Iterable.String() + ") " + fs.Body.String()
}
func (fs *ForEachStatement) Pos() token.Position { return fs.Token.Pos }

// WhileStatement is `while (cond) body`.
type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStatement
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) String() string       { return "while (" + ws.Condition.String() + ") " + ws.Body.String() }
func (ws *WhileStatement) Pos() token.Position  { return ws.Token.Pos }

// SwitchCase is one `case expr: stmts` (or `default:` when Values is
// empty and IsDefault is true) arm of a SwitchStatement. Cases fall
// through to the next case unless terminated by `break`.
type SwitchCase struct {
	Values    []Expression
	IsDefault bool
	Body      []Statement
}

// SwitchStatement is `switch (expr) { case ...: ... default: ... }`.
type SwitchStatement struct {
	Token   token.Token
	Subject Expression
	Cases   []*SwitchCase
}

func (ss *SwitchStatement) statementNode()       {}
func (ss *SwitchStatement) TokenLiteral() string { return ss.Token.Literal }
func (ss *SwitchStatement) String() string       { return "switch (" + ss.Subject.String() + ") { ... }" }
func (ss *SwitchStatement) Pos() token.Position  { return ss.Token.Pos }
