package ast

import "github.com/turbobuilt/gots/internal/token"

// GoExpression is the `go <call>` spawn expression: it produces a
// promise of the called function's return value and starts the body on
// the task scheduler.
type GoExpression struct {
	baseExpr
	Token token.Token
	Call  *CallExpression
}

func (ge *GoExpression) expressionNode()      {}
func (ge *GoExpression) TokenLiteral() string { return ge.Token.Literal }
func (ge *GoExpression) String() string       { return "go " + ge.Call.String() }
func (ge *GoExpression) Pos() token.Position  { return ge.Token.Pos }

// AwaitExpression is the `await <promise>` expression: it suspends the
// current task until the promise resolves and yields its value.
type AwaitExpression struct {
	baseExpr
	Token token.Token
	Value Expression
}

func (ae *AwaitExpression) expressionNode()      {}
func (ae *AwaitExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AwaitExpression) String() string       { return "await " + ae.Value.String() }
func (ae *AwaitExpression) Pos() token.Position  { return ae.Token.Pos }
