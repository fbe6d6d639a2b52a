package compiler

import (
	"encoding/binary"
	"reflect"
	"sync"

	"github.com/turbobuilt/gots/internal/allocruntime"
	"github.com/turbobuilt/gots/internal/task"
	"github.com/turbobuilt/gots/internal/types"
)

// EntryAnyEquals is the runtime equality helper a switch over an
// `any`-typed subject dispatches through. A statically typed switch
// never references it.
const EntryAnyEquals = "__runtime_any_equals"

// anyBoxTypeID is the reserved allocator type id for the two-word box
// an `any`-typed value is stored as: word 0 the value's type kind, word
// 1 its payload. Class type ids are assigned from 1 upward.
const anyBoxTypeID = 0

// Strings are interned process-wide so a string value fits in a machine
// word as its table index: two literals are equal exactly when their
// indexes are, which is what the equality helper compares.
var internedStrings = struct {
	mu    sync.Mutex
	list  []string
	index map[string]int64
}{index: map[string]int64{}}

// InternString returns the stable index for s, adding it on first use.
func InternString(s string) int64 {
	internedStrings.mu.Lock()
	defer internedStrings.mu.Unlock()
	if id, ok := internedStrings.index[s]; ok {
		return id
	}
	id := int64(len(internedStrings.list))
	internedStrings.list = append(internedStrings.list, s)
	internedStrings.index[s] = id
	return id
}

// StringByID returns the interned string for id, for hosts printing a
// string-typed result.
func StringByID(id int64) (string, bool) {
	internedStrings.mu.Lock()
	defer internedStrings.mu.Unlock()
	if id < 0 || id >= int64(len(internedStrings.list)) {
		return "", false
	}
	return internedStrings.list[id], true
}

// jitAnyEquals compares a boxed `any` value against a case label whose
// static kind and payload the compiler baked into the call site.
// Numeric kinds compare by payload across widths; strings compare by
// interned index; mismatched kinds are unequal. Called from generated
// code through the runtime gate.
func jitAnyEquals(boxAddr, kind, payload int64) int64 {
	obj, ok := allocruntime.ObjectAt(uintptr(boxAddr))
	if !ok || len(obj.Data) < 16 {
		return 0
	}
	boxKind := types.Kind(binary.LittleEndian.Uint64(obj.Data[0:8]))
	boxPayload := int64(binary.LittleEndian.Uint64(obj.Data[8:16]))

	labelKind := types.Kind(kind)
	if types.IsNumeric(boxKind) && types.IsNumeric(labelKind) {
		if boxPayload == payload {
			return 1
		}
		return 0
	}
	if boxKind == labelKind && boxPayload == payload {
		return 1
	}
	return 0
}

// runtimeEntries is the full entry table the native backend binds:
// the task runtime's spawn/await/resolve/timer entries, the allocator
// contract, and the any-equality helper above.
func runtimeEntries() map[string]uint64 {
	entries := map[string]uint64{}
	for name, addr := range task.EntryAddresses() {
		entries[name] = addr
	}
	for name, addr := range allocruntime.EntryAddresses() {
		entries[name] = addr
	}
	entries[EntryAnyEquals] = uint64(reflect.ValueOf(jitAnyEquals).Pointer())
	return entries
}
