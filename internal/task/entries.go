package task

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

// Entry-point labels the code generator emits calls against. They carry
// the internal "__" prefix so the executable loader never publishes them
// in the function registry alongside user functions.
const (
	EntrySpawnTask    = "__runtime_spawn_task"
	EntryAwaitPromise = "__runtime_await_promise"
	EntryResolveTask  = "__runtime_resolve_task"
	EntrySetTimeout   = "__runtime_set_timeout"
	EntrySetInterval  = "__runtime_set_interval"
	EntryCancelTimer  = "__runtime_cancel_timer"
)

// NativeCall invokes a JIT-compiled function by absolute address with
// machine-word arguments, returning its machine-word result. The
// compiler package installs the real bridge at startup; the default is
// inert so the task runtime stays testable without any mapped code in
// the process.
var NativeCall = func(addr uint64, args []int64) int64 { return 0 }

// active is the scheduler the entry points below route to. There is one
// runtime fabric per process; Start claims this slot.
var active atomic.Pointer[Scheduler]

// Generated code cannot hold a Go pointer: the collector would neither
// see it (keeping the promise alive) nor be allowed to encounter it in
// a register it cannot type. Promises crossing the JIT boundary are
// therefore handed out as small integer handles into this table, which
// also keeps every crossing promise reachable.
var handles = struct {
	mu   sync.Mutex
	next int64
	byID map[int64]*Promise
}{byID: map[int64]*Promise{}}

// RegisterPromise assigns p a handle generated code can carry.
func RegisterPromise(p *Promise) int64 {
	handles.mu.Lock()
	defer handles.mu.Unlock()
	handles.next++
	handles.byID[handles.next] = p
	return handles.next
}

// PromiseByHandle resolves a handle back to its promise, or nil for an
// unknown handle.
func PromiseByHandle(h int64) *Promise {
	handles.mu.Lock()
	defer handles.mu.Unlock()
	return handles.byID[h]
}

// The jit* functions below are the runtime entries generated code calls
// into, through the gate (see gate_amd64.s). Their signatures are flat
// machine words on purpose: the backend places each argument in the
// host's own integer argument register sequence, so the compiled entry
// reads them exactly where a direct Go caller would have put them. They
// must stay shallow — the caller's frames are not walkable by the host
// runtime, so an entry that grows the stack depends on the headroom the
// invoker pre-grows (see the compiler package's entry invoker).

// jitSpawnTask creates a task whose body is JIT code at bodyAddr,
// links it under the currently running task, and returns a handle to
// the promise for its result. With no runtime started it returns a
// handle to an already-resolved zero promise, so the program continues.
func jitSpawnTask(bodyAddr uint64, argc, a0, a1, a2, a3 int64) int64 {
	s := active.Load()
	if s == nil {
		p := NewPromise()
		p.Resolve(int64(0))
		return RegisterPromise(p)
	}
	raw := []int64{a0, a1, a2, a3}[:argc]
	boxed := make([]any, len(raw))
	for i, a := range raw {
		boxed[i] = a
	}
	p := s.Spawn(s.CurrentTask(), func(taskArgs []any) any {
		args := make([]int64, len(taskArgs))
		for i, a := range taskArgs {
			if v, ok := a.(int64); ok {
				args[i] = v
			}
		}
		return NativeCall(bodyAddr, args)
	}, boxed)
	return RegisterPromise(p)
}

// jitAwaitPromise blocks the calling task on a promise handle and
// returns the resolved value as a machine word.
func jitAwaitPromise(h int64) int64 {
	p := PromiseByHandle(h)
	if p == nil {
		return 0
	}
	if v, ok := p.Await().(int64); ok {
		return v
	}
	return 0
}

// jitResolveTask resolves a promise handle with a machine-word value.
func jitResolveTask(h, value int64) int64 {
	if p := PromiseByHandle(h); p != nil {
		p.Resolve(value)
	}
	return 0
}

// jitSetTimeout schedules a one-shot timer on the calling task whose
// callback is JIT code at callbackAddr. Outside any task it returns the
// sentinel id -1 and the program continues.
func jitSetTimeout(callbackAddr uint64, delayMillis int64) int64 {
	return setTimerNative(callbackAddr, delayMillis, false)
}

// jitSetInterval schedules a repeating timer with the given period.
func jitSetInterval(callbackAddr uint64, periodMillis int64) int64 {
	return setTimerNative(callbackAddr, periodMillis, true)
}

func setTimerNative(callbackAddr uint64, millis int64, interval bool) int64 {
	s := active.Load()
	if s == nil {
		return -1
	}
	period := time.Duration(millis) * time.Millisecond
	id, err := s.SetTimer(time.Now().Add(period), func() {
		NativeCall(callbackAddr, nil)
	}, interval, period)
	if err != nil {
		return -1
	}
	return int64(id)
}

// jitCancelTimer cancels a timer by id on the calling task; cancelling
// outside a task, or with an unknown id, is a no-op.
func jitCancelTimer(id int64) int64 {
	s := active.Load()
	if s == nil {
		return 0
	}
	_ = s.CancelTimer(int(id))
	return 0
}

// EntryAddresses maps each entry label to the absolute address of its
// implementation, for the native backend to bind at code-generation
// time. Runtime entries live outside the code buffer, so emitted calls
// reach them through an absolute address rather than a PC-relative
// displacement.
func EntryAddresses() map[string]uint64 {
	return map[string]uint64{
		EntrySpawnTask:    funcAddr(jitSpawnTask),
		EntryAwaitPromise: funcAddr(jitAwaitPromise),
		EntryResolveTask:  funcAddr(jitResolveTask),
		EntrySetTimeout:   funcAddr(jitSetTimeout),
		EntrySetInterval:  funcAddr(jitSetInterval),
		EntryCancelTimer:  funcAddr(jitCancelTimer),
	}
}

func funcAddr(fn any) uint64 {
	return uint64(reflect.ValueOf(fn).Pointer())
}
