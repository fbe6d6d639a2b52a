package ast

import "github.com/turbobuilt/gots/internal/token"

// ImportSpecifier is one named binding of an import clause: `a` or
// `a as b`. Name is the exported name, Alias is the local binding (equal
// to Name when no `as` clause is present).
type ImportSpecifier struct {
	Name  string
	Alias string
}

// ImportStatement covers the three import clause shapes:
//
//	import { a, b as c } from "path"   -> Named
//	import d from "path"               -> Default (DefaultAlias set)
//	import * as n from "path"          -> Namespace (NamespaceAlias set)
type ImportStatement struct {
	Token          token.Token
	Named          []ImportSpecifier
	DefaultAlias   string
	NamespaceAlias string
	Path           string
}

func (is *ImportStatement) statementNode()       {}
func (is *ImportStatement) TokenLiteral() string { return is.Token.Literal }
func (is *ImportStatement) String() string       { return "import ... from \"" + is.Path + "\";" }
func (is *ImportStatement) Pos() token.Position  { return is.Token.Pos }

// ExportStatement wraps a declaration (`export function f() {}`) or marks
// it as the module's default export (`export default ...`).
type ExportStatement struct {
	Token     token.Token
	IsDefault bool
	Decl      Statement
}

func (es *ExportStatement) statementNode()       {}
func (es *ExportStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExportStatement) String() string {
	if es.IsDefault {
		return "export default " + es.Decl.String()
	}
	return "export " + es.Decl.String()
}
func (es *ExportStatement) Pos() token.Position { return es.Token.Pos }
