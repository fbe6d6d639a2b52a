package parser

import (
	"testing"

	"github.com/turbobuilt/gots/internal/ast"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New(src, "test.gts")
	prog := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	return prog
}

func TestParseVarDeclaration(t *testing.T) {
	prog := mustParse(t, `let x: int64 = 5;`)
	if len(prog.Statements) != 1 {
		t.Fatalf("want 1 statement, got %d", len(prog.Statements))
	}
	vd, ok := prog.Statements[0].(*ast.VarDeclaration)
	if !ok {
		t.Fatalf("want *ast.VarDeclaration, got %T", prog.Statements[0])
	}
	if vd.Name != "x" || vd.Type.Name != "int64" {
		t.Fatalf("got name=%s type=%v", vd.Name, vd.Type)
	}
}

func TestParseFunctionDeclarationAndRecursiveCall(t *testing.T) {
	src := `function fib(n: int64): int64 {
		if (n <= 1) { return n; }
		return fib(n - 1) + fib(n - 2);
	}`
	prog := mustParse(t, src)
	fd, ok := prog.Statements[0].(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("want *ast.FunctionDeclaration, got %T", prog.Statements[0])
	}
	if fd.Name != "fib" || len(fd.Parameters) != 1 {
		t.Fatalf("got name=%s params=%d", fd.Name, len(fd.Parameters))
	}
	if len(fd.Body.Statements) != 2 {
		t.Fatalf("want 2 body statements, got %d", len(fd.Body.Statements))
	}
}

func TestOperatorPrecedence(t *testing.T) {
	prog := mustParse(t, `1 + 2 * 3;`)
	es := prog.Statements[0].(*ast.ExpressionStatement)
	infix := es.Expr.(*ast.InfixExpression)
	if infix.Operator != "+" {
		t.Fatalf("top-level operator should be '+', got %q", infix.Operator)
	}
	right := infix.Right.(*ast.InfixExpression)
	if right.Operator != "*" {
		t.Fatalf("rhs operator should be '*', got %q", right.Operator)
	}
}

func TestExponentiationRightAssociative(t *testing.T) {
	prog := mustParse(t, `2 ** 3 ** 2;`)
	es := prog.Statements[0].(*ast.ExpressionStatement)
	top := es.Expr.(*ast.InfixExpression)
	// Right-associative means the right child is itself `3 ** 2`, with the
	// literal 2 as the left operand of the outer expression.
	if _, ok := top.Right.(*ast.InfixExpression); !ok {
		t.Fatalf("expected right-associative nesting, got %T on the right", top.Right)
	}
	if _, ok := top.Left.(*ast.IntegerLiteral); !ok {
		t.Fatalf("expected literal on the left, got %T", top.Left)
	}
}

func TestTernaryExpression(t *testing.T) {
	prog := mustParse(t, `let x = a ? 1 : 2;`)
	vd := prog.Statements[0].(*ast.VarDeclaration)
	if _, ok := vd.Initializer.(*ast.TernaryExpression); !ok {
		t.Fatalf("want *ast.TernaryExpression, got %T", vd.Initializer)
	}
}

func TestClassDeclaration(t *testing.T) {
	src := `class C {
		v: int64;
		constructor(x: int64) { this.v = x; }
		get(): int64 { return this.v; }
	}`
	prog := mustParse(t, src)
	cd := prog.Statements[0].(*ast.ClassDeclaration)
	if cd.Name != "C" || len(cd.Fields) != 1 || cd.Constructor == nil || len(cd.Methods) != 1 {
		t.Fatalf("unexpected class shape: %+v", cd)
	}
}

func TestClassExtends(t *testing.T) {
	src := `class Derived extends Base { }`
	prog := mustParse(t, src)
	cd := prog.Statements[0].(*ast.ClassDeclaration)
	if cd.ParentName != "Base" {
		t.Fatalf("want parent Base, got %q", cd.ParentName)
	}
}

func TestGoAndAwait(t *testing.T) {
	src := `let p = go compute(1, 2); let v = await p;`
	prog := mustParse(t, src)
	vd1 := prog.Statements[0].(*ast.VarDeclaration)
	goExpr, ok := vd1.Initializer.(*ast.GoExpression)
	if !ok {
		t.Fatalf("want *ast.GoExpression, got %T", vd1.Initializer)
	}
	if goExpr.Call.Callee.(*ast.Identifier).Value != "compute" {
		t.Fatalf("unexpected callee")
	}
	vd2 := prog.Statements[1].(*ast.VarDeclaration)
	if _, ok := vd2.Initializer.(*ast.AwaitExpression); !ok {
		t.Fatalf("want *ast.AwaitExpression, got %T", vd2.Initializer)
	}
}

func TestForLoop(t *testing.T) {
	src := `for (let i = 0; i < 10; i = i + 1) { x = x + i; }`
	prog := mustParse(t, src)
	if _, ok := prog.Statements[0].(*ast.ForStatement); !ok {
		t.Fatalf("want *ast.ForStatement, got %T", prog.Statements[0])
	}
}

func TestForEachLoop(t *testing.T) {
	src := `for (item of items) { sum = sum + item; }`
	prog := mustParse(t, src)
	fe, ok := prog.Statements[0].(*ast.ForEachStatement)
	if !ok {
		t.Fatalf("want *ast.ForEachStatement, got %T", prog.Statements[0])
	}
	if fe.IsObjectIn {
		t.Fatalf("want 'of' form")
	}
}

func TestSwitchFallthrough(t *testing.T) {
	src := `switch (x) {
		case 1:
		case 2:
			y = 1;
		default:
			y = 2;
	}`
	prog := mustParse(t, src)
	ss := prog.Statements[0].(*ast.SwitchStatement)
	if len(ss.Cases) != 3 {
		t.Fatalf("want 3 cases, got %d", len(ss.Cases))
	}
	if len(ss.Cases[0].Body) != 0 {
		t.Fatalf("fallthrough case should have no body statements of its own")
	}
}

func TestImportForms(t *testing.T) {
	cases := []string{
		`import { a, b as c } from "mod";`,
		`import d from "mod";`,
		`import * as n from "mod";`,
	}
	for _, src := range cases {
		prog := mustParse(t, src)
		is, ok := prog.Statements[0].(*ast.ImportStatement)
		if !ok {
			t.Fatalf("%s: want *ast.ImportStatement, got %T", src, prog.Statements[0])
		}
		if is.Path != "mod" {
			t.Fatalf("%s: want path 'mod', got %q", src, is.Path)
		}
	}
}

func TestExportDefault(t *testing.T) {
	prog := mustParse(t, `export default function f() { return 1; }`)
	ex, ok := prog.Statements[0].(*ast.ExportStatement)
	if !ok || !ex.IsDefault {
		t.Fatalf("want default export, got %+v", prog.Statements[0])
	}
}

func TestParseErrorOnUnexpectedToken(t *testing.T) {
	p := New(`let = 5;`, "test.gts")
	p.ParseProgram()
	if len(p.Errors()) == 0 {
		t.Fatalf("expected a parse error for malformed declaration")
	}
}
