package semantic

import (
	"github.com/turbobuilt/gots/internal/ast"
	"github.com/turbobuilt/gots/internal/types"
)

// inferExpr assigns and returns the type of expr, annotating it in place
// via ast.Expression.SetType so the code generator can later read the
// result back off the node.
func (inf *Inferencer) inferExpr(expr ast.Expression) *types.Type {
	if expr == nil {
		return types.TVoid
	}
	t := inf.inferExprUncached(expr)
	expr.SetType(t)
	return t
}

func (inf *Inferencer) inferExprUncached(expr ast.Expression) *types.Type {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		// Unannotated integer literals are 64-bit signed.
		return types.TInt64
	case *ast.FloatLiteral:
		return types.TFloat64
	case *ast.StringLiteral:
		return types.TString
	case *ast.BoolLiteral:
		return types.TBool
	case *ast.NullLiteral:
		return types.TAny
	case *ast.Identifier:
		if sym := inf.scope.Lookup(e.Value); sym != nil {
			return sym.Type
		}
		return types.TAny
	case *ast.ThisExpression:
		if inf.currentClass != nil {
			return types.ClassInstanceOf(inf.currentClass.Name)
		}
		return types.TAny
	case *ast.PrefixExpression:
		return inf.inferPrefix(e)
	case *ast.PostfixExpression:
		return inf.inferExpr(e.Left)
	case *ast.InfixExpression:
		return inf.inferInfix(e)
	case *ast.TernaryExpression:
		inf.inferExpr(e.Condition)
		then := inf.inferExpr(e.Then)
		els := inf.inferExpr(e.Else)
		if types.Equal(then, els) {
			return then
		}
		return types.TAny
	case *ast.AssignExpression:
		return inf.inferAssign(e)
	case *ast.CallExpression:
		inf.inferExpr(e.Callee)
		for _, a := range e.Arguments {
			inf.inferExpr(a)
		}
		return types.TAny
	case *ast.MemberExpression:
		return inf.inferMember(e)
	case *ast.IndexExpression:
		inf.inferExpr(e.Left)
		inf.inferExpr(e.Index)
		return types.TAny
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			inf.inferExpr(el)
		}
		return types.TAny
	case *ast.ObjectLiteral:
		for _, v := range e.Values {
			inf.inferExpr(v)
		}
		return types.TAny
	case *ast.NewExpression:
		for _, a := range e.Arguments {
			inf.inferExpr(a)
		}
		return types.ClassInstanceOf(e.ClassName)
	case *ast.FunctionLiteral:
		inf.inferFunctionBody(e.Parameters, e.Body)
		return types.Simple(types.Function)
	case *ast.GoExpression:
		inf.inferExpr(e.Call)
		return types.PromiseOf(types.TAny)
	case *ast.AwaitExpression:
		pt := inf.inferExpr(e.Value)
		if pt != nil && pt.Kind == types.Promise {
			return pt.Elem
		}
		return types.TAny
	}
	return types.TAny
}

func (inf *Inferencer) inferPrefix(e *ast.PrefixExpression) *types.Type {
	right := inf.inferExpr(e.Right)
	switch e.Operator {
	case "!":
		return types.TBool
	default: // - ++ --
		if types.IsNumeric(right.Kind) {
			return right
		}
		return types.TInt64
	}
}

// inferInfix applies the cast-up, comparison, and string-'+' rules.
func (inf *Inferencer) inferInfix(e *ast.InfixExpression) *types.Type {
	left := inf.inferExpr(e.Left)
	right := inf.inferExpr(e.Right)

	switch e.Operator {
	case "==", "!=", "<", ">", "<=", ">=":
		return types.TBool
	case "===":
		// The static result type is boolean. The code generator lowers
		// `===` to the same integer compare as `==` (see condForOp in
		// internal/compiler); for `any` operands that compares the box
		// addresses, and no runtime equality helper is called.
		return types.TBool
	case "&&", "||":
		return types.TBool
	case "+":
		if left.Kind == types.String || right.Kind == types.String {
			return types.TString
		}
		return inf.castUpOrAny(left, right, e)
	default: // - * / % **
		return inf.castUpOrAny(left, right, e)
	}
}

func (inf *Inferencer) castUpOrAny(left, right *types.Type, e *ast.InfixExpression) *types.Type {
	if types.IsNumeric(left.Kind) && types.IsNumeric(right.Kind) {
		return types.CastUp(left, right)
	}
	if left.Kind == types.Any || right.Kind == types.Any {
		return types.TAny
	}
	inf.errorf(e.Pos(), "invalid operand types for '%s': %s and %s", e.Operator, left.Kind, right.Kind)
	return types.TAny
}

func (inf *Inferencer) inferAssign(e *ast.AssignExpression) *types.Type {
	valType := inf.inferExpr(e.Value)
	targetType := inf.inferExpr(e.Target)

	if ident, ok := e.Target.(*ast.Identifier); ok {
		sym := inf.scope.Lookup(ident.Value)
		if sym != nil && !sym.Mutable {
			inf.errorf(e.Pos(), "cannot assign to const '%s'", ident.Value)
		}
	}

	// Assignment to a declared-typed variable applies an implicit cast;
	// assignment to an `any` variable stores value plus a runtime type tag
	// (modeled here simply as the target staying `any`).
	if targetType.Kind == types.Any {
		return types.TAny
	}
	_ = valType
	return targetType
}

// inferMember resolves `obj.field` against the class registry when obj's
// static type is a known class instance; an unknown field is a
// *TypeError.
func (inf *Inferencer) inferMember(e *ast.MemberExpression) *types.Type {
	objType := inf.inferExpr(e.Object)
	if objType == nil || objType.Kind != types.ClassInstance {
		return types.TAny
	}
	ci, ok := inf.classes.Get(objType.ClassName)
	if !ok {
		return types.TAny
	}
	if f := ci.LookupField(e.Property); f != nil {
		return f.Type
	}
	if m := ci.LookupMethod(e.Property); m != nil {
		return types.Simple(types.Function)
	}
	inf.errorf(e.Pos(), "unknown field or method '%s' on class '%s'", e.Property, objType.ClassName)
	return types.TAny
}
