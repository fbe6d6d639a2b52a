package ast

import (
	"strings"

	"github.com/turbobuilt/gots/internal/token"
)

// TypeExpr is the syntactic type annotation as written in source (`int64`,
// `string[]`, `Promise<int64>`, ...). internal/types.Type is the resolved
// semantic counterpart produced once internal/semantic has run.
type TypeExpr struct {
	Name     string // e.g. "int64", "string", "MyClass"
	IsArray  bool
	ArrayOf  *TypeExpr
	TypeArgs []*TypeExpr // e.g. Promise<T>
}

func (t *TypeExpr) String() string {
	if t == nil {
		return ""
	}
	if t.IsArray {
		return t.ArrayOf.String() + "[]"
	}
	if len(t.TypeArgs) > 0 {
		args := make([]string, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			args[i] = a.String()
		}
		return t.Name + "<" + strings.Join(args, ", ") + ">"
	}
	return t.Name
}

// Param is a single function parameter: name, optional declared type, and
// an optional default-value expression.
type Param struct {
	Name         string
	Type         *TypeExpr
	DefaultValue Expression
}

// FunctionLiteral is an anonymous or named function expression. When one
// is used as a task body or timer callback it is emitted into its own
// addressable region rather than inline at the call site — that
// discipline lives in the lowering pass, not here.
type FunctionLiteral struct {
	baseExpr
	Token      token.Token
	Name       string // empty for anonymous literals
	Parameters []*Param
	ReturnType *TypeExpr
	Body       *BlockStatement
}

func (fl *FunctionLiteral) expressionNode()      {}
func (fl *FunctionLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FunctionLiteral) String() string {
	params := make([]string, len(fl.Parameters))
	for i, p := range fl.Parameters {
		params[i] = p.Name
	}
	return "function " + fl.Name + "(" + strings.Join(params, ", ") + ") " + fl.Body.String()
}
func (fl *FunctionLiteral) Pos() token.Position { return fl.Token.Pos }

// FunctionDeclaration is a top-level or module-level named function.
type FunctionDeclaration struct {
	Token      token.Token
	Name       string
	Parameters []*Param
	ReturnType *TypeExpr
	Body       *BlockStatement
}

func (fd *FunctionDeclaration) statementNode()       {}
func (fd *FunctionDeclaration) TokenLiteral() string { return fd.Token.Literal }
func (fd *FunctionDeclaration) String() string {
	params := make([]string, len(fd.Parameters))
	for i, p := range fd.Parameters {
		params[i] = p.Name
	}
	return "function " + fd.Name + "(" + strings.Join(params, ", ") + ") " + fd.Body.String()
}
func (fd *FunctionDeclaration) Pos() token.Position { return fd.Token.Pos }
