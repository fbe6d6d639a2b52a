package allocruntime

import "testing"

func TestAllocReturnsZeroedStorageOfRequestedSize(t *testing.T) {
	a := NewTrackingAllocator()
	obj := a.Alloc(24, 1)
	if len(obj.Data) != 24 {
		t.Fatalf("expected 24 bytes, got %d", len(obj.Data))
	}
	for i, b := range obj.Data {
		if b != 0 {
			t.Fatalf("expected zeroed storage, byte %d is %d", i, b)
		}
	}
	if a.LiveCount() != 1 {
		t.Fatalf("expected 1 live object, got %d", a.LiveCount())
	}
}

func TestAllocArrayMultipliesElemSizeByCount(t *testing.T) {
	a := NewTrackingAllocator()
	obj := a.AllocArray(8, 5, 2)
	if len(obj.Data) != 40 {
		t.Fatalf("expected 40 bytes, got %d", len(obj.Data))
	}
}

func TestWriteBarrierAndSafepointAreNoOps(t *testing.T) {
	a := NewTrackingAllocator()
	obj := a.Alloc(8, 1)
	other := a.Alloc(8, 1)
	a.WriteBarrier(obj, 0, other) // must not panic
	a.SafepointPoll()             // must not panic
}

func TestRegisterAndUnregisterRoot(t *testing.T) {
	a := NewTrackingAllocator()
	obj := a.Alloc(8, 1)
	id := a.RegisterRoot(obj)
	if a.RootCount() != 1 {
		t.Fatalf("expected 1 root, got %d", a.RootCount())
	}
	a.UnregisterRoot(id)
	if a.RootCount() != 0 {
		t.Fatalf("expected 0 roots after unregister, got %d", a.RootCount())
	}
}

func TestTypeInfoRoundTrips(t *testing.T) {
	a := NewTrackingAllocator()
	a.RegisterType(TypeInfo{ID: 3, Name: "Point", Size: 16, ReferenceOffsets: []int{}})
	ti, ok := a.TypeInfo(3)
	if !ok || ti.Name != "Point" {
		t.Fatalf("expected Point type info, got %+v", ti)
	}
	if _, ok := a.TypeInfo(99); ok {
		t.Fatalf("expected no type info for unregistered id")
	}
}
