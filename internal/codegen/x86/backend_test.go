package x86

import (
	"testing"

	"github.com/turbobuilt/gots/internal/codegen"
)

func TestPrologueEmitsPushAndFrameAlloc(t *testing.T) {
	b := New()
	b.Prologue(24)
	out := b.Bytes()
	if len(out) == 0 || out[0] != 0x55 {
		t.Fatalf("expected leading push rbp (0x55), got %x", out)
	}
}

func TestMovImmEncodesSixtyFourBitImmediate(t *testing.T) {
	b := New()
	b.MovImm(0, 42)
	if len(b.Bytes()) != 10 { // REX + opcode + 8-byte immediate
		t.Fatalf("expected a 10-byte encoding, got %d", len(b.Bytes()))
	}
}

func TestCallLabelPatchedToRelativeDisplacement(t *testing.T) {
	b := New()
	b.CallLabel("target")
	callSite := b.Offset()
	b.Label("target")
	if err := b.Seal(); err != nil {
		t.Fatalf("seal: %v", err)
	}
	out := b.Bytes()
	patchOffset := callSite - 4
	rel := int32(out[patchOffset]) | int32(out[patchOffset+1])<<8 | int32(out[patchOffset+2])<<16 | int32(out[patchOffset+3])<<24
	want := int32(callSite - callSite) // target == callSite here since Label right after
	if rel != want {
		t.Fatalf("expected displacement %d, got %d", want, rel)
	}
}

func TestUnresolvedLabelFailsSeal(t *testing.T) {
	b := New()
	b.Jump("nowhere")
	if err := b.Seal(); err == nil {
		t.Fatalf("expected a link error for an unresolved jump target")
	}
}

func TestSealEmitsTrampolineForBoundRuntimeEntry(t *testing.T) {
	b := New(WithRuntimeEntries(map[string]uint64{
		"__runtime_spawn_task": 0x11223344,
	}))
	b.Label("body")
	b.Epilogue()
	b.SpawnTask("body", 0)
	if err := b.Seal(); err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, ok := b.Labels()["__runtime_spawn_task"]; !ok {
		t.Fatalf("expected a spawn trampoline label after seal, got %v", b.Labels())
	}
}

func TestSealFailsForUnboundRuntimeEntry(t *testing.T) {
	b := New()
	b.Label("body")
	b.SpawnTask("body", 0)
	if err := b.Seal(); err == nil {
		t.Fatal("expected a link error when no runtime entry is bound")
	}
}

func TestSetCondEmitsForEveryComparison(t *testing.T) {
	b := New()
	for cond := range condCode {
		b.SetCond(0, cond)
	}
	if len(b.Bytes()) == 0 {
		t.Fatalf("expected non-empty output")
	}
}

var _ codegen.Backend = (*Backend)(nil)
