package compiler

import (
	"strings"
	"testing"
)

const fibSource = `function fib(n: int64): int64 {
	if (n <= 1) { return n; }
	return fib(n - 1) + fib(n - 2);
}
console.log(fib(5));`

func TestCompileFibX86(t *testing.T) {
	res, err := Compile(fibSource, "fib.gts", BackendX86)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !res.HasEntry || res.EntryLabel != "_main" {
		t.Fatalf("want entry label _main, got %q (hasEntry=%v)", res.EntryLabel, res.HasEntry)
	}
	if !res.PrintsResult {
		t.Fatal("a final console.log should mark the result printable")
	}
	labels := res.Backend.Labels()
	if _, ok := labels["fib"]; !ok {
		t.Fatalf("fib label not emitted: %v", labels)
	}
	if _, ok := labels["_main"]; !ok {
		t.Fatalf("_main label not emitted: %v", labels)
	}
	if len(res.Backend.Bytes()) == 0 {
		t.Fatal("sealed backend produced no bytes")
	}
	if res.FuncArity["fib"] != 1 {
		t.Fatalf("want fib arity 1, got %d", res.FuncArity["fib"])
	}
}

func TestCompileFibStackVM(t *testing.T) {
	res, err := Compile(fibSource, "fib.gts", BackendStackVM)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !res.HasEntry {
		t.Fatal("want a synthetic entry for the top-level console.log statement")
	}
	if _, ok := res.Backend.Labels()["fib"]; !ok {
		t.Fatal("fib label not emitted")
	}
}

// The function registry built after loading contains every callable
// function and the synthetic entry point, but none of the internal
// "__"-prefixed labels the lowering pass emits for control flow or
// runtime trampolines.
func TestLoadRegistersFunctionsNotControlFlowLabels(t *testing.T) {
	res, err := Compile(fibSource, "fib.gts", BackendX86)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	region, err := Load(res)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer func() { _ = region }()

	if _, ok := res.Registry.ByName("fib"); !ok {
		t.Fatal("registry missing fib")
	}
	if _, ok := res.Registry.ByName("_main"); !ok {
		t.Fatal("registry missing _main")
	}
	for name := range res.Backend.Labels() {
		if strings.HasPrefix(name, "__") {
			if _, ok := res.Registry.ByName(name); ok {
				t.Fatalf("internal label %q leaked into the function registry", name)
			}
		}
	}
}

func TestCompileLoopsAndSwitch(t *testing.T) {
	src := `function classify(n: int64): int64 {
	let total: int64 = 0;
	for (let i = 0; i < n; i = i + 1) {
		total = total + i;
	}
	while (total > 100) {
		total = total - 100;
	}
	switch (total) {
	case 0:
		return 0;
	case 1:
	case 2:
		return 1;
	default:
		return 2;
	}
}
console.log(classify(10));`
	for _, kind := range []BackendKind{BackendX86, BackendStackVM} {
		res, err := Compile(src, "classify.gts", kind)
		if err != nil {
			t.Fatalf("backend %d: compile: %v", kind, err)
		}
		if _, ok := res.Backend.Labels()["classify"]; !ok {
			t.Fatalf("backend %d: classify label not emitted", kind)
		}
	}
}

// A spawn site never receives the body inline: the body keeps (or gets)
// its own label, and the spawn/await emission seals cleanly with the
// runtime trampolines appended.
func TestCompileSpawnAndAwait(t *testing.T) {
	src := `function double(n: int64): int64 { return n * 2; }
let p = go double(21);
let v = await p;
console.log(v);`
	res, err := Compile(src, "spawn.gts", BackendX86)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	labels := res.Backend.Labels()
	if _, ok := labels["double"]; !ok {
		t.Fatal("task body label not emitted")
	}
	if _, ok := labels["__runtime_spawn_task"]; !ok {
		t.Fatal("spawn trampoline missing after seal")
	}
	if _, ok := labels["__runtime_await_promise"]; !ok {
		t.Fatal("await trampoline missing after seal")
	}
}

// A function literal spawned as a task body is emitted into its own
// labeled region, referenced from the spawn site by address.
func TestCompileSpawnFunctionLiteral(t *testing.T) {
	src := `let p = go function(): int64 { return 7; }();
console.log(await p);`
	res, err := Compile(src, "lit.gts", BackendX86)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	found := false
	for name := range res.Backend.Labels() {
		if strings.HasPrefix(name, "__task_body_") {
			found = true
		}
	}
	if !found {
		t.Fatalf("function-literal task body has no labeled region: %v", res.Backend.Labels())
	}
}

func TestCompileClassEmitsQualifiedLabels(t *testing.T) {
	src := `class C {
	v: int64;
	constructor(x: int64) { this.v = x; }
	get(): int64 { return this.v; }
}
console.log(new C(42).get());`
	res, err := Compile(src, "class.gts", BackendX86)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	labels := res.Backend.Labels()
	for _, want := range []string{"C.constructor", "C.get", "__runtime_alloc"} {
		if _, ok := labels[want]; !ok {
			t.Fatalf("label %q not emitted: %v", want, labels)
		}
	}
	if res.ClassIDs["C"] == 0 {
		t.Fatal("class C was not assigned a type id")
	}
}

// A switch over a statically typed subject is a plain compare chain; a
// switch over an any-typed subject dispatches each test through the
// runtime equality helper. The helper trampoline appears in the sealed
// buffer only when something referenced it.
func TestTypedSwitchSkipsEqualityHelper(t *testing.T) {
	typed := `let x: int64 = 2;
switch (x) { case 1: x = 10; break; case 2: x = 20; break; }
console.log(x);`
	res, err := Compile(typed, "typed.gts", BackendX86)
	if err != nil {
		t.Fatalf("compile typed: %v", err)
	}
	if _, ok := res.Backend.Labels()[EntryAnyEquals]; ok {
		t.Fatal("typed switch must not reference the runtime equality helper")
	}

	anyForm := `let x: any = 2;
switch (x) { case 1: break; case "two": break; case 2: break; }
console.log(0);`
	res, err = Compile(anyForm, "any.gts", BackendX86)
	if err != nil {
		t.Fatalf("compile any: %v", err)
	}
	if _, ok := res.Backend.Labels()[EntryAnyEquals]; !ok {
		t.Fatal("any switch must dispatch through the runtime equality helper")
	}
}

func TestCompileRejectsUnsupportedConstruct(t *testing.T) {
	_, err := Compile(`for (item of items) { console.log(item); }`, "each.gts", BackendX86)
	if err == nil {
		t.Fatal("want an error for a construct outside this lowering pass's scope")
	}
}

func TestCompileParseErrorPropagates(t *testing.T) {
	_, err := Compile(`function broken( {`, "broken.gts", BackendX86)
	if err == nil {
		t.Fatal("want a parse error")
	}
}
