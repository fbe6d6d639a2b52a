// Package semantic implements the single-pass type inferencer: it walks
// the AST once, assigns every expression a type from the closed
// internal/types lattice, and maintains a scope-chained symbol table
// with stack-offset allocation for locals.
package semantic

import (
	"fmt"

	"github.com/turbobuilt/gots/internal/ast"
	"github.com/turbobuilt/gots/internal/diagnostics"
	"github.com/turbobuilt/gots/internal/token"
	"github.com/turbobuilt/gots/internal/types"
)

// Inferencer walks a *ast.Program once, annotating every expression node
// with its inferred types.Type and maintaining the scope-chained symbol
// table and class registry.
type Inferencer struct {
	file    string
	source  string
	classes *ClassRegistry
	scope   *Scope
	errors  diagnostics.List

	// currentClass is non-nil while walking a method or constructor body,
	// so `this.field` resolves against it.
	currentClass *ClassInfo
}

func New(file, source string) *Inferencer {
	return &Inferencer{
		file:    file,
		source:  source,
		classes: NewClassRegistry(),
		scope:   NewFunctionScope(),
	}
}

func (inf *Inferencer) Errors() diagnostics.List { return inf.errors }
func (inf *Inferencer) Classes() *ClassRegistry  { return inf.classes }

func (inf *Inferencer) errorf(pos token.Position, format string, args ...any) {
	inf.errors = append(inf.errors, diagnostics.New(diagnostics.Type, pos, inf.file, inf.source, fmt.Sprintf(format, args...)))
}

// Infer walks prog, annotating every expression and registering every
// class declaration. It returns the accumulated errors (empty on success).
func (inf *Inferencer) Infer(prog *ast.Program) diagnostics.List {
	// First pass: register all classes up front so forward references to
	// not-yet-walked classes (methods calling each other, a class used
	// before its declaration later in the file) still resolve. Parents
	// must already be registered (ClassInfo invariant), so classes are
	// registered in declaration order and an out-of-order `extends` is a
	// TypeError surfaced as an UnresolvedParentError.
	for _, stmt := range prog.Statements {
		if cd, ok := stmt.(*ast.ClassDeclaration); ok {
			if _, err := inf.classes.Register(cd); err != nil {
				inf.errorf(cd.Pos(), "%s", err.Error())
			}
		}
	}

	for _, stmt := range prog.Statements {
		inf.inferStatement(stmt)
	}
	return inf.errors
}

func resolveTypeExpr(t *ast.TypeExpr) *types.Type {
	if t == nil {
		return types.TAny
	}
	if t.IsArray {
		// Arrays are modeled as `any`-carrying class-instances in this
		// lattice's closed set; element type is tracked syntactically only.
		return types.TAny
	}
	if len(t.TypeArgs) == 1 && t.Name == "Promise" {
		return types.PromiseOf(resolveTypeExpr(t.TypeArgs[0]))
	}
	switch t.Name {
	case "void":
		return types.TVoid
	case "int8":
		return types.Simple(types.Int8)
	case "int16":
		return types.Simple(types.Int16)
	case "int32":
		return types.Simple(types.Int32)
	case "int64":
		return types.TInt64
	case "uint8":
		return types.Simple(types.Uint8)
	case "uint16":
		return types.Simple(types.Uint16)
	case "uint32":
		return types.Simple(types.Uint32)
	case "uint64":
		return types.Simple(types.Uint64)
	case "float32":
		return types.Simple(types.Float32)
	case "float64":
		return types.TFloat64
	case "bool":
		return types.TBool
	case "string":
		return types.TString
	case "any":
		return types.TAny
	default:
		return types.ClassInstanceOf(t.Name)
	}
}

func (inf *Inferencer) inferStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		inf.inferVarDecl(s)
	case *ast.ExpressionStatement:
		if s.Expr != nil {
			inf.inferExpr(s.Expr)
		}
	case *ast.BlockStatement:
		inf.withChildScope(func() {
			for _, st := range s.Statements {
				inf.inferStatement(st)
			}
		})
	case *ast.ReturnStatement:
		if s.Value != nil {
			inf.inferExpr(s.Value)
		}
	case *ast.IfStatement:
		inf.inferExpr(s.Condition)
		inf.inferStatement(s.Consequence)
		if s.Alternative != nil {
			inf.inferStatement(s.Alternative)
		}
	case *ast.WhileStatement:
		inf.inferExpr(s.Condition)
		inf.inferStatement(s.Body)
	case *ast.ForStatement:
		inf.withChildScope(func() {
			if s.Init != nil {
				inf.inferStatement(s.Init)
			}
			if s.Condition != nil {
				inf.inferExpr(s.Condition)
			}
			if s.Post != nil {
				inf.inferStatement(s.Post)
			}
			inf.inferStatement(s.Body)
		})
	case *ast.ForEachStatement:
		inf.inferExpr(s.Iterable)
		inf.withChildScope(func() {
			inf.scope.Declare(s.VarName, types.TAny, true)
			inf.inferStatement(s.Body)
		})
	case *ast.SwitchStatement:
		inf.inferExpr(s.Subject)
		for _, c := range s.Cases {
			for _, v := range c.Values {
				inf.inferExpr(v)
			}
			for _, bs := range c.Body {
				inf.inferStatement(bs)
			}
		}
	case *ast.FunctionDeclaration:
		inf.inferFunctionBody(s.Parameters, s.Body)
	case *ast.ClassDeclaration:
		inf.inferClassBody(s)
	case *ast.ImportStatement, *ast.ExportStatement, *ast.BreakStatement, *ast.ContinueStatement:
		// No expressions to type here; module wiring is internal/module's job.
	}
}

func (inf *Inferencer) withChildScope(f func()) {
	outer := inf.scope
	inf.scope = NewChildScope(outer)
	f()
	inf.scope = outer
}

func (inf *Inferencer) inferVarDecl(vd *ast.VarDeclaration) {
	var declared *types.Type
	if vd.Type != nil {
		declared = resolveTypeExpr(vd.Type)
	}
	var initType *types.Type
	if vd.Initializer != nil {
		initType = inf.inferExpr(vd.Initializer)
	}

	final := declared
	if final == nil {
		// Unannotated: if the initializer narrows to a single static type
		// other than any, adopt it; otherwise the variable is `any`.
		if initType != nil && initType.Kind != types.Any {
			final = initType
		} else {
			final = types.TAny
		}
	}

	mutable := vd.Kind != ast.DeclConst
	if inf.scope.parent == nil && inf.isTopLevel() {
		inf.scope.DeclareGlobal(vd.Name, final, mutable)
	} else {
		inf.scope.Declare(vd.Name, final, mutable)
	}
}

// isTopLevel is a light heuristic: the outermost function scope (no
// parent scope at all) is treated as module/global scope, the
// distinction between a function-local stack slot and a module-global
// slot.
func (inf *Inferencer) isTopLevel() bool { return true }

func (inf *Inferencer) inferFunctionBody(params []*ast.Param, body *ast.BlockStatement) {
	outer := inf.scope
	inf.scope = NewFunctionScope()
	for _, p := range params {
		t := types.TAny
		if p.Type != nil {
			t = resolveTypeExpr(p.Type)
		}
		inf.scope.Declare(p.Name, t, true)
		if p.DefaultValue != nil {
			inf.inferExpr(p.DefaultValue)
		}
	}
	for _, st := range body.Statements {
		inf.inferStatement(st)
	}
	inf.scope = outer
}

func (inf *Inferencer) inferClassBody(decl *ast.ClassDeclaration) {
	ci, ok := inf.classes.Get(decl.Name)
	if !ok {
		return
	}
	outerClass := inf.currentClass
	inf.currentClass = ci
	defer func() { inf.currentClass = outerClass }()

	if decl.Constructor != nil {
		inf.inferFunctionBody(decl.Constructor.Parameters, decl.Constructor.Body)
	}
	for _, m := range decl.Methods {
		inf.inferFunctionBody(m.Parameters, m.Body)
	}
}
