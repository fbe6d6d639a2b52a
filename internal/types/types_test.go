package types

import "testing"

func TestCastUpCommutative(t *testing.T) {
	pairs := [][2]*Type{
		{Simple(Int32), Simple(Float32)},
		{Simple(Int64), Simple(Float64)},
		{Simple(Int16), Simple(Int64)},
		{Simple(Int32), Simple(Uint32)},
	}
	for _, p := range pairs {
		ab := CastUp(p[0], p[1])
		ba := CastUp(p[1], p[0])
		if !Equal(ab, ba) {
			t.Fatalf("CastUp not commutative for %v/%v: %v vs %v", p[0].Kind, p[1].Kind, ab.Kind, ba.Kind)
		}
	}
}

func TestCastUpIdempotent(t *testing.T) {
	for _, k := range []Kind{Int8, Int64, Uint32, Float32, Float64} {
		tp := Simple(k)
		if !Equal(CastUp(tp, tp), tp) {
			t.Fatalf("CastUp(%v,%v) not idempotent", k, k)
		}
	}
}

func TestCastUpRules(t *testing.T) {
	cases := []struct {
		a, b *Type
		want Kind
	}{
		{Simple(Int32), Simple(Float32), Float64},
		{Simple(Int64), Simple(Float64), Float64},
		{Simple(Int16), Simple(Int64), Int64},
		{Simple(Int8), Simple(Int32), Int32},
		{Simple(Int32), Simple(Uint32), Int32},
		{Simple(Int16), Simple(Uint64), Int64},
	}
	for _, c := range cases {
		got := CastUp(c.a, c.b)
		if got.Kind != c.want {
			t.Fatalf("CastUp(%v,%v) = %v, want %v", c.a.Kind, c.b.Kind, got.Kind, c.want)
		}
	}
}

func TestPromiseAndClassInstanceEquality(t *testing.T) {
	p1 := PromiseOf(Simple(Int64))
	p2 := PromiseOf(Simple(Int64))
	p3 := PromiseOf(Simple(Float64))
	if !Equal(p1, p2) {
		t.Fatalf("expected equal promises")
	}
	if Equal(p1, p3) {
		t.Fatalf("expected unequal promises")
	}
	c1 := ClassInstanceOf("Foo")
	c2 := ClassInstanceOf("Foo")
	c3 := ClassInstanceOf("Bar")
	if !Equal(c1, c2) || Equal(c1, c3) {
		t.Fatalf("class-instance equality by name failed")
	}
}
