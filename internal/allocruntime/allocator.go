// Package allocruntime defines the allocator and write-barrier contract
// the code generator emits calls against, and one minimal
// implementation: a tracking allocator whose write barriers and
// safepoints are no-ops, where every live allocation is kept alive by a
// Go-side registry so nothing is ever freed early. A collector-backed
// implementation can replace it behind the same interface.
package allocruntime

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// TypeInfo declares the reference offsets inside one allocated layout, so
// a future tracing collector could walk pointer fields without
// interpreting the language's type system directly.
type TypeInfo struct {
	ID             int
	Name           string
	Size           int
	ReferenceOffsets []int
}

// Object is one heap allocation the Allocator tracks. Data is a simple
// byte-granular view, adequate for a tracking allocator that never
// compacts or moves anything.
type Object struct {
	TypeID int
	Size   int
	Data   []byte
}

// Root is a registered stack or global slot the allocator must consider
// live when (if) a tracing pass ever runs.
type Root struct {
	id   int
	slot *Object
}

// Allocator is the interface the code generator emits calls against,
// regardless of which implementation (a tracking malloc, or a
// generational collector with remembered sets) is configured underneath
// it.
type Allocator interface {
	Alloc(size int, typeID int) *Object
	AllocArray(elemSize, count int, typeID int) *Object
	WriteBarrier(obj *Object, fieldOffset int, newValue *Object)
	SafepointPoll()
	RegisterRoot(slot *Object) int
	UnregisterRoot(id int)
	RegisterType(info TypeInfo)
	TypeInfo(id int) (TypeInfo, bool)
}

// TrackingAllocator is a tracking malloc that treats write barriers and
// safepoints as no-ops. It exists so the rest of the pipeline (and its
// tests) can run without a real collector wired in; a production build
// swaps this for something heavier behind the same Allocator interface.
type TrackingAllocator struct {
	mu        sync.Mutex
	types     map[int]TypeInfo
	live      map[*Object]struct{}
	roots     map[int]*Root
	nextRoot  int32
	allocated int64 // bytes allocated, for diagnostics/tests only
}

func NewTrackingAllocator() *TrackingAllocator {
	return &TrackingAllocator{
		types: map[int]TypeInfo{},
		live:  map[*Object]struct{}{},
		roots: map[int]*Root{},
	}
}

var _ Allocator = (*TrackingAllocator)(nil)

func (a *TrackingAllocator) Alloc(size int, typeID int) *Object {
	obj := &Object{TypeID: typeID, Size: size, Data: make([]byte, size)}
	a.mu.Lock()
	a.live[obj] = struct{}{}
	a.mu.Unlock()
	atomic.AddInt64(&a.allocated, int64(size))
	return obj
}

func (a *TrackingAllocator) AllocArray(elemSize, count int, typeID int) *Object {
	return a.Alloc(elemSize*count, typeID)
}

// WriteBarrier is a no-op in the tracking allocator. A generational
// collector would record obj in a remembered set here when newValue is
// younger than obj.
func (a *TrackingAllocator) WriteBarrier(obj *Object, fieldOffset int, newValue *Object) {}

// SafepointPoll is a no-op: the minimal allocator has nothing to
// coordinate with a stop-the-world pause, since it never runs one.
func (a *TrackingAllocator) SafepointPoll() {}

func (a *TrackingAllocator) RegisterRoot(slot *Object) int {
	id := int(atomic.AddInt32(&a.nextRoot, 1)) - 1
	a.mu.Lock()
	a.roots[id] = &Root{id: id, slot: slot}
	a.mu.Unlock()
	return id
}

func (a *TrackingAllocator) UnregisterRoot(id int) {
	a.mu.Lock()
	delete(a.roots, id)
	a.mu.Unlock()
}

func (a *TrackingAllocator) RegisterType(info TypeInfo) {
	a.mu.Lock()
	a.types[info.ID] = info
	a.mu.Unlock()
}

func (a *TrackingAllocator) TypeInfo(id int) (TypeInfo, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.types[id]
	return t, ok
}

// LiveCount reports how many objects the tracking allocator still holds a
// reference to. Since this implementation never frees, it only grows;
// it's exposed for tests asserting allocations actually happened.
func (a *TrackingAllocator) LiveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// RootCount reports the number of currently registered roots.
func (a *TrackingAllocator) RootCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.roots)
}

func (a *TrackingAllocator) String() string {
	return fmt.Sprintf("TrackingAllocator{live=%d, roots=%d, bytes=%d}",
		a.LiveCount(), a.RootCount(), atomic.LoadInt64(&a.allocated))
}
