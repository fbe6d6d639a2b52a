//go:build amd64

package compiler

import (
	"testing"

	"github.com/turbobuilt/gots/internal/task"
)

// These tests execute real generated machine code: compile, map the
// buffer executable, and call the entry. The spawn/await/timer variants
// cross the JIT boundary in both directions — generated code calling
// runtime entries through the gate, and the runtime dispatching task
// bodies and timer callbacks back by address.

func mustRun(t *testing.T, src string) (*Result, int64) {
	t.Helper()
	res, err := Compile(src, "exec.gts", BackendX86)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	region, err := Load(res)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = region // stays mapped for the process lifetime
	if !res.HasEntry {
		t.Fatal("program has no entry")
	}
	entry, ok := res.Registry.ByName(res.EntryLabel)
	if !ok {
		t.Fatal("entry missing from registry")
	}
	return res, InvokeEntry(entry.Address)
}

func TestExecuteRecursion(t *testing.T) {
	src := `function fib(n: int64): int64 {
	if (n <= 1) { return n; }
	return fib(n - 1) + fib(n - 2);
}
console.log(fib(5));`
	if _, v := mustRun(t, src); v != 5 {
		t.Fatalf("fib(5) = %d, want 5", v)
	}
}

func TestExecuteLoopsAndSwitch(t *testing.T) {
	src := `function classify(n: int64): int64 {
	let total: int64 = 0;
	for (let i = 0; i < n; i = i + 1) {
		total = total + i;
	}
	switch (total) {
	case 45:
		return 1;
	default:
		return 2;
	}
}
console.log(classify(10));`
	if _, v := mustRun(t, src); v != 1 {
		t.Fatalf("classify(10) = %d, want 1", v)
	}
}

func TestExecuteSpawnAwait(t *testing.T) {
	sched := task.NewScheduler()
	sched.Start()
	defer sched.Stop()

	src := `function double(n: int64): int64 { return n * 2; }
let p = go double(21);
console.log(await p);`
	if _, v := mustRun(t, src); v != 42 {
		t.Fatalf("await go double(21) = %d, want 42", v)
	}
	if err := sched.JoinAll(); err != nil {
		t.Fatalf("join-all: %v", err)
	}
}

func TestExecuteTimerScheduling(t *testing.T) {
	sched := task.NewScheduler()
	main := sched.Start()
	defer sched.Stop()

	src := `function tick(): int64 { return 1; }
setTimeout(tick, 10);
setTimeout(tick, 20);
console.log(3);`
	if _, v := mustRun(t, src); v != 3 {
		t.Fatalf("entry returned %d, want 3", v)
	}
	if main.Timers.Empty() {
		t.Fatal("expected the two timers to be pending on the main task")
	}
	sched.RunTimers()
	if !main.Timers.Empty() {
		t.Fatal("expected the timer heap drained after RunTimers")
	}
}

func TestExecuteMethodDispatch(t *testing.T) {
	src := `class C {
	v: int64;
	constructor(x: int64) { this.v = x; }
	get(): int64 { return this.v; }
}
console.log(new C(42).get());`
	if _, v := mustRun(t, src); v != 42 {
		t.Fatalf("new C(42).get() = %d, want 42", v)
	}
}

func TestExecuteAnySwitch(t *testing.T) {
	src := `let x: any = 2;
let chosen: int64 = 0;
switch (x) {
case 1:
	chosen = 1;
	break;
case "two":
	chosen = 2;
	break;
case 2:
	chosen = 3;
	break;
}
console.log(chosen);`
	if _, v := mustRun(t, src); v != 3 {
		t.Fatalf("any-switch chose %d, want 3", v)
	}
}
