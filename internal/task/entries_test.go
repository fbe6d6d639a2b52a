package task

import "testing"

func TestEntryAddressesAreNonZero(t *testing.T) {
	addrs := EntryAddresses()
	for _, name := range []string{
		EntrySpawnTask, EntryAwaitPromise, EntryResolveTask,
		EntrySetTimeout, EntrySetInterval, EntryCancelTimer,
	} {
		if addrs[name] == 0 {
			t.Fatalf("entry %s has no address", name)
		}
	}
}

func TestSetTimeoutOutsideRuntimeReturnsSentinel(t *testing.T) {
	if active.Load() != nil {
		t.Skip("another test left a scheduler active")
	}
	if id := jitSetTimeout(0, 10); id != -1 {
		t.Fatalf("want sentinel -1 outside any runtime, got %d", id)
	}
}

func TestPromiseHandleRoundTrip(t *testing.T) {
	p := NewPromise()
	h := RegisterPromise(p)
	if got := PromiseByHandle(h); got != p {
		t.Fatalf("handle %d resolved to %v, want the registered promise", h, got)
	}
	if PromiseByHandle(h+1000) != nil {
		t.Fatal("unknown handle should resolve to nil")
	}
}

func TestSpawnEntryRoutesThroughScheduler(t *testing.T) {
	s := NewScheduler()
	s.Start()
	defer s.Stop()

	prev := NativeCall
	defer func() { NativeCall = prev }()
	NativeCall = func(addr uint64, args []int64) int64 {
		return int64(addr) + args[0]
	}

	h := jitSpawnTask(40, 1, 2, 0, 0, 0)
	if v := jitAwaitPromise(h); v != 42 {
		t.Fatalf("want 42, got %v", v)
	}
}

func TestResolveEntryResolvesHandle(t *testing.T) {
	p := NewPromise()
	h := RegisterPromise(p)
	jitResolveTask(h, 7)
	if v := p.Await(); v != int64(7) {
		t.Fatalf("want 7, got %v", v)
	}
}
