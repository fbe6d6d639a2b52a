package linker

import "testing"

func TestLabelTablePatchesForwardReference(t *testing.T) {
	var patched []int
	patch := func(buf []byte, site PatchSite, target int) error {
		patched = append(patched, target)
		return nil
	}
	lt := NewLabelTable(patch)
	if err := lt.Reference("loop", 10, 4, true, nil); err != nil {
		t.Fatalf("reference: %v", err)
	}
	if err := lt.Define("loop", 42, nil); err != nil {
		t.Fatalf("define: %v", err)
	}
	if len(patched) != 1 || patched[0] != 42 {
		t.Fatalf("expected one patch to 42, got %v", patched)
	}
}

func TestLabelTablePatchesBackwardReferenceImmediately(t *testing.T) {
	var patched []int
	lt := NewLabelTable(func(buf []byte, site PatchSite, target int) error {
		patched = append(patched, target)
		return nil
	})
	if err := lt.Define("start", 0, nil); err != nil {
		t.Fatalf("define: %v", err)
	}
	if err := lt.Reference("start", 100, 4, true, nil); err != nil {
		t.Fatalf("reference: %v", err)
	}
	if len(patched) != 1 || patched[0] != 0 {
		t.Fatalf("expected immediate patch to 0, got %v", patched)
	}
}

func TestUnresolvedLabelsReported(t *testing.T) {
	lt := NewLabelTable(func(buf []byte, site PatchSite, target int) error { return nil })
	lt.Reference("ghost", 5, 4, true, nil)
	unresolved := lt.Unresolved()
	if len(unresolved) != 1 || unresolved[0] != "ghost" {
		t.Fatalf("expected [ghost], got %v", unresolved)
	}
	if err := LinkErrorFor("test.gts", unresolved); err == nil {
		t.Fatalf("expected a non-nil link error")
	}
}

func TestRegistryAssignsDenseIDs(t *testing.T) {
	reg := NewRegistry()
	a := reg.Register("fib", 1, 0x1000)
	b := reg.Register("main", 0, 0x2000)
	if a.ID != 0 || b.ID != 1 {
		t.Fatalf("expected dense ids 0,1, got %d,%d", a.ID, b.ID)
	}
	got, ok := reg.ByName("fib")
	if !ok || got.Address != 0x1000 {
		t.Fatalf("expected fib at 0x1000, got %+v", got)
	}
	byID, ok := reg.ByID(1)
	if !ok || byID.Name != "main" {
		t.Fatalf("expected id 1 to be main, got %+v", byID)
	}
}

func TestLoaderMapsCodeIntoRXMemory(t *testing.T) {
	l := NewLoader()
	// A minimal x86-64 function: mov eax, 42; ret.
	code := []byte{0xb8, 0x2a, 0x00, 0x00, 0x00, 0xc3}
	region, err := l.Load(code)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if region.Base() == 0 {
		t.Fatalf("expected a non-zero base address")
	}
}

func TestRegisterEntriesSkipsInternalLabels(t *testing.T) {
	l := NewLoader()
	region, err := l.Load([]byte{0xc3})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	labels := map[string]int{"fib": 0, "__runtime_spawn_task": 0}
	reg := RegisterEntries(region, labels, map[string]int{"fib": 1})
	if _, ok := reg.ByName("fib"); !ok {
		t.Fatalf("expected fib to be registered")
	}
	if _, ok := reg.ByName("__runtime_spawn_task"); ok {
		t.Fatalf("internal label should not be registered")
	}
}
