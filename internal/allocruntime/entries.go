package allocruntime

import (
	"reflect"
	"sync"
	"unsafe"
)

// Entry-point labels the code generator emits allocator calls against,
// "__"-prefixed so the loader never publishes them as user functions.
const (
	EntryAlloc        = "__runtime_alloc"
	EntryWriteBarrier = "__runtime_write_barrier"
	EntrySafepoint    = "__runtime_safepoint"
)

var (
	defaultOnce sync.Once
	defaultAl   *TrackingAllocator

	// byAddr maps an instance's field-area base address back to its
	// Object, so the write-barrier entry can recover the object a raw
	// address refers to.
	byAddrMu sync.Mutex
	byAddr   = map[uintptr]*Object{}
)

// Default returns the process-wide allocator generated code allocates
// against. Constructed once; a collector-backed implementation would be
// installed here instead.
func Default() *TrackingAllocator {
	defaultOnce.Do(func() { defaultAl = NewTrackingAllocator() })
	return defaultAl
}

// The jit* entries below are called from generated code through the
// runtime gate with flat machine-word arguments in the host's integer
// argument registers. They must stay shallow; the generated caller's
// frames are not walkable by the host runtime.

// jitAlloc allocates size bytes of typeID's layout and returns the
// instance's field-area base address. The tracking allocator never
// frees, and byAddr holds a second reference, so the address stays
// valid for the process lifetime.
func jitAlloc(size, typeID int64) int64 {
	obj := Default().Alloc(int(size), int(typeID))
	if len(obj.Data) == 0 {
		return 0
	}
	base := uintptr(unsafe.Pointer(&obj.Data[0]))
	byAddrMu.Lock()
	byAddr[base] = obj
	byAddrMu.Unlock()
	return int64(base)
}

// jitWriteBarrier records a reference store at objAddr+offset. The
// stored value has already been written by the generated code; this
// only notifies the allocator.
func jitWriteBarrier(objAddr, offset, value int64) int64 {
	byAddrMu.Lock()
	obj := byAddr[uintptr(objAddr)]
	val := byAddr[uintptr(value)]
	byAddrMu.Unlock()
	if obj != nil {
		Default().WriteBarrier(obj, int(offset), val)
	}
	return 0
}

// jitSafepoint is the poll generated code emits at loop back-edges.
func jitSafepoint() int64 {
	Default().SafepointPoll()
	return 0
}

// ObjectAt recovers the Object whose field area starts at base, for
// hosts and tests that need to inspect an instance generated code
// allocated.
func ObjectAt(base uintptr) (*Object, bool) {
	byAddrMu.Lock()
	defer byAddrMu.Unlock()
	obj, ok := byAddr[base]
	return obj, ok
}

// EntryAddresses maps each allocator entry label to the absolute
// address of its implementation, merged with the task runtime's table
// when the native backend is constructed.
func EntryAddresses() map[string]uint64 {
	return map[string]uint64{
		EntryAlloc:        entryAddr(jitAlloc),
		EntryWriteBarrier: entryAddr(jitWriteBarrier),
		EntrySafepoint:    entryAddr(jitSafepoint),
	}
}

func entryAddr(fn any) uint64 {
	return uint64(reflect.ValueOf(fn).Pointer())
}
