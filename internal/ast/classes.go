package ast

import "github.com/turbobuilt/gots/internal/token"

// Visibility is the public/private/protected member modifier.
type Visibility int

const (
	Public Visibility = iota
	Private
	Protected
)

// FieldDeclaration is a class field, with its declared type and an
// optional default-value expression.
type FieldDeclaration struct {
	Name         string
	Type         *TypeExpr
	DefaultValue Expression
	Visibility   Visibility
	IsStatic     bool
}

// MethodDeclaration is a class method (constructor excluded; see
// ConstructorDeclaration).
type MethodDeclaration struct {
	Name       string
	Parameters []*Param
	ReturnType *TypeExpr
	Body       *BlockStatement
	Visibility Visibility
	IsStatic   bool
}

// ConstructorDeclaration is the optional `constructor(...) { ... }`
// member. A class runs its constructor exactly once per `new`.
type ConstructorDeclaration struct {
	Parameters []*Param
	Body       *BlockStatement
}

// ClassDeclaration is `class Name [extends Parent] { fields; constructor;
// methods }`. Field offsets are assigned by internal/semantic in
// declaration order and are stable for the program's lifetime.
type ClassDeclaration struct {
	Token       token.Token
	Name        string
	ParentName  string // empty if no `extends` clause
	Fields      []*FieldDeclaration
	Constructor *ConstructorDeclaration
	Methods     []*MethodDeclaration
}

func (cd *ClassDeclaration) statementNode()       {}
func (cd *ClassDeclaration) TokenLiteral() string { return cd.Token.Literal }
func (cd *ClassDeclaration) String() string {
	out := "class " + cd.Name
	if cd.ParentName != "" {
		out += " extends " + cd.ParentName
	}
	return out + " { ... }"
}
func (cd *ClassDeclaration) Pos() token.Position { return cd.Token.Pos }
