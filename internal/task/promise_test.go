package task

import (
	"testing"
	"time"
)

func TestAwaitReturnsImmediatelyWhenAlreadyResolved(t *testing.T) {
	p := NewPromise()
	p.Resolve(42)
	done := make(chan any, 1)
	go func() { done <- p.Await() }()
	select {
	case v := <-done:
		if v != 42 {
			t.Fatalf("want 42, got %v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("await did not return promptly for an already-resolved promise")
	}
}

func TestAwaitBlocksUntilResolve(t *testing.T) {
	p := NewPromise()
	done := make(chan any, 1)
	go func() { done <- p.Await() }()
	select {
	case <-done:
		t.Fatal("await returned before resolve")
	case <-time.After(20 * time.Millisecond):
	}
	p.Resolve("done")
	select {
	case v := <-done:
		if v != "done" {
			t.Fatalf("want done, got %v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("await never returned after resolve")
	}
}

func TestDoubleResolveIsIgnored(t *testing.T) {
	p := NewPromise()
	p.Resolve(1)
	p.Resolve(2)
	if v := p.Await(); v != 1 {
		t.Fatalf("want first resolve (1) to win, got %v", v)
	}
}

func TestThenInvokesImmediatelyWhenResolved(t *testing.T) {
	p := NewPromise()
	p.Resolve(7)
	var got any
	p.Then(func(v any) { got = v })
	if got != 7 {
		t.Fatalf("want 7, got %v", got)
	}
}

func TestThenQueuesUntilResolve(t *testing.T) {
	p := NewPromise()
	var got any
	p.Then(func(v any) { got = v })
	if got != nil {
		t.Fatalf("callback should not have fired yet")
	}
	p.Resolve("later")
	if got != "later" {
		t.Fatalf("want later, got %v", got)
	}
}

func TestAllResolvesWithOrderedValues(t *testing.T) {
	p1, p2, p3 := NewPromise(), NewPromise(), NewPromise()
	all := All([]*Promise{p1, p2, p3})
	p3.Resolve("c")
	p1.Resolve("a")
	p2.Resolve("b")
	got := all.Await().([]any)
	want := []any{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: want %v, got %v", i, want[i], got[i])
		}
	}
}

func TestAllWithNoPromisesResolvesImmediately(t *testing.T) {
	all := All(nil)
	if !all.Resolved() {
		t.Fatalf("expected All(nil) to resolve immediately")
	}
}
