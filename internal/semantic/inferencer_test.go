package semantic

import (
	"testing"

	"github.com/turbobuilt/gots/internal/ast"
	"github.com/turbobuilt/gots/internal/parser"
	"github.com/turbobuilt/gots/internal/types"
)

func inferSrc(t *testing.T, src string) (*ast.Program, *Inferencer) {
	t.Helper()
	p := parser.New(src, "test.gts")
	prog := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}
	inf := New("test.gts", src)
	inf.Infer(prog)
	return prog, inf
}

func TestUnannotatedIntLiteralIsInt64(t *testing.T) {
	prog, inf := inferSrc(t, `let x = 5;`)
	if len(inf.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", inf.Errors())
	}
	vd := prog.Statements[0].(*ast.VarDeclaration)
	if vd.Initializer.GetType().Kind != types.Int64 {
		t.Fatalf("want int64, got %v", vd.Initializer.GetType().Kind)
	}
}

func TestUnannotatedFloatLiteralIsFloat64(t *testing.T) {
	prog, _ := inferSrc(t, `let x = 5.5;`)
	vd := prog.Statements[0].(*ast.VarDeclaration)
	if vd.Initializer.GetType().Kind != types.Float64 {
		t.Fatalf("want float64, got %v", vd.Initializer.GetType().Kind)
	}
}

func TestStringConcatenationAlwaysString(t *testing.T) {
	prog, _ := inferSrc(t, `let x = "a" + 1;`)
	vd := prog.Statements[0].(*ast.VarDeclaration)
	if vd.Initializer.GetType().Kind != types.String {
		t.Fatalf("want string, got %v", vd.Initializer.GetType().Kind)
	}
}

func TestComparisonYieldsBool(t *testing.T) {
	prog, _ := inferSrc(t, `let x = 1 < 2;`)
	vd := prog.Statements[0].(*ast.VarDeclaration)
	if vd.Initializer.GetType().Kind != types.Bool {
		t.Fatalf("want bool, got %v", vd.Initializer.GetType().Kind)
	}
}

func TestUnknownClassFieldIsTypeError(t *testing.T) {
	src := `class C { v: int64; }
	let c: C = new C();
	let y = c.missing;`
	_, inf := inferSrc(t, src)
	if len(inf.Errors()) == 0 {
		t.Fatalf("expected a TypeError for unknown field access")
	}
}

func TestClassFieldAccessResolvesType(t *testing.T) {
	src := `class C { v: int64; }
	let c: C = new C();
	let y = c.v;`
	prog, inf := inferSrc(t, src)
	if len(inf.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", inf.Errors())
	}
	vd := prog.Statements[2].(*ast.VarDeclaration)
	if vd.Initializer.GetType().Kind != types.Int64 {
		t.Fatalf("want int64, got %v", vd.Initializer.GetType().Kind)
	}
}

func TestGoExpressionYieldsPromise(t *testing.T) {
	src := `function f(): int64 { return 1; }
	let p = go f();`
	prog, inf := inferSrc(t, src)
	if len(inf.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", inf.Errors())
	}
	vd := prog.Statements[1].(*ast.VarDeclaration)
	if vd.Initializer.GetType().Kind != types.Promise {
		t.Fatalf("want promise, got %v", vd.Initializer.GetType().Kind)
	}
}

func TestConstReassignmentIsError(t *testing.T) {
	src := `const x = 1;
	x = 2;`
	_, inf := inferSrc(t, src)
	if len(inf.Errors()) == 0 {
		t.Fatalf("expected an error assigning to const")
	}
}

func TestClassParentMustBeResolvedFirst(t *testing.T) {
	src := `class Base { v: int64; }
	class Derived extends Base { w: int64; }`
	_, inf := inferSrc(t, src)
	if len(inf.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", inf.Errors())
	}
	ci, ok := inf.Classes().Get("Derived")
	if !ok {
		t.Fatalf("Derived class not registered")
	}
	if ci.LookupField("v") == nil {
		t.Fatalf("Derived should inherit field v from Base")
	}
	if ci.InstanceSize != 16 {
		t.Fatalf("want instance size 16 (2 fields), got %d", ci.InstanceSize)
	}
}
