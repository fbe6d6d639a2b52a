package compiler

import (
	"unsafe"

	"github.com/turbobuilt/gots/internal/task"
)

// InvokeEntry calls a mapped region of JIT-emitted native code with up
// to four machine-word arguments and returns whatever it left in its
// return register, by manufacturing a Go func value whose code pointer
// is addr.
//
// This relies on two well-known, if informally specified, properties of
// the current Go toolchain: a func value is itself a pointer to a small
// "funcval" structure whose first word is the code's entry address, and
// integer arguments travel in the internal ABI's register sequence —
// the same sequence the code generator assigns to JIT function
// parameters, so each value lands exactly where the generated prologue
// reads it. Both are toolchain facts rather than guarantees; the
// runtime entries in internal/task and internal/allocruntime depend on
// the same sequence in the opposite direction, and this file is where
// that coupling is recorded.
func InvokeEntry(addr uint64, args ...int64) int64 {
	ensureStackHeadroom()
	entry := uintptr(addr)
	fv := &entry // funcval: its first word is the code address
	p := unsafe.Pointer(&fv)
	switch len(args) {
	case 1:
		return (*(*func(int64) int64)(p))(args[0])
	case 2:
		return (*(*func(int64, int64) int64)(p))(args[0], args[1])
	case 3:
		return (*(*func(int64, int64, int64) int64)(p))(args[0], args[1], args[2])
	case 4:
		return (*(*func(int64, int64, int64, int64) int64)(p))(args[0], args[1], args[2], args[3])
	default:
		return (*(*func() int64)(p))()
	}
}

// ensureStackHeadroom grows the calling goroutine's stack well past
// what the generated frames plus any runtime entry they call will need.
// Generated frames are invisible to the host's stack unwinder, so a
// stack growth while one is live cannot be repaired; growing up front
// means the entries' shallow Go frames never trigger one.
func ensureStackHeadroom() {
	grow(8)
}

//go:noinline
func grow(n int) {
	var pad [16 << 10]byte
	pad[0] = byte(n)
	if n > 0 {
		grow(n - 1)
	}
	_ = pad
}

// Spawned task bodies and timer callbacks dispatch back into generated
// code through this bridge.
func init() {
	task.NativeCall = func(addr uint64, args []int64) int64 {
		return InvokeEntry(addr, args...)
	}
}
