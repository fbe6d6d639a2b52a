package module

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// TestLoadIdempotent: loading the same path twice parses the source at
// most once and returns the same record.
func TestLoadIdempotent(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "a.gts", `export function f(): int64 { return 1; }`)

	l := NewLoader()
	m1, err := l.Load(entry, "")
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	m2, err := l.Load(entry, "")
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if m1 != m2 {
		t.Fatalf("expected same *Module pointer across loads")
	}
	if got := l.ParseCount(m1.ResolvedPath); got != 1 {
		t.Fatalf("want 1 parse, got %d", got)
	}
}

// TestCircularImportsTerminate: a cyclic import graph (a -> c -> b -> a)
// terminates with every participant reaching loaded or partial, never
// deadlocking or infinitely recursing.
func TestCircularImportsTerminate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.gts", `import { cFn } from "./c";
export function aFn(): int64 { return 1; }`)
	writeFile(t, dir, "b.gts", `import { aFn } from "./a";
export function bFn(): int64 { return 2; }`)
	cPath := writeFile(t, dir, "c.gts", `import { bFn } from "./b";
export function cFn(): int64 { return 3; }`)

	done := make(chan struct{})
	var mod *Module
	var err error
	l := NewLoader()
	go func() {
		mod, err = l.Load(cPath, "")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("circular import load did not terminate (deadlock)")
	}

	if err != nil {
		t.Fatalf("circular load should not error: %v", err)
	}
	if mod.State != Loaded && mod.State != Partial {
		t.Fatalf("want loaded or partial, got %v", mod.State)
	}

	for _, name := range []string{"a.gts", "b.gts", "c.gts"} {
		resolved, rerr := filepath.Abs(filepath.Join(dir, name))
		if rerr != nil {
			t.Fatal(rerr)
		}
		m, ok := l.Cached(resolved)
		if !ok {
			t.Fatalf("%s never reached the cache", name)
		}
		if m.State != Loaded && m.State != Partial {
			t.Fatalf("%s ended in state %v, want loaded or partial", name, m.State)
		}
	}
}

func TestResolveSuffixes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.ts", `export function g(): int64 { return 9; }`)

	l := NewLoader()
	resolved, err := l.Resolve("./util", filepath.Join(dir, "main.gts"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if filepath.Base(resolved) != "util.ts" {
		t.Fatalf("want util.ts, got %s", resolved)
	}
}

func TestModuleNotFound(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader()
	_, err := l.Resolve("./missing", filepath.Join(dir, "main.gts"))
	if err == nil {
		t.Fatal("expected ModuleNotFoundError")
	}
}
