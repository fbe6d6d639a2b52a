package stackvm

import (
	"bytes"
	"testing"

	"github.com/turbobuilt/gots/internal/codegen"
)

func decodeAll(buf []byte) []Instruction {
	var out []Instruction
	for off := 0; off < len(buf); {
		ins, n := Decode(buf[off:])
		out = append(out, ins)
		off += n
	}
	return out
}

func TestAddEmitsLoadLoadOpStore(t *testing.T) {
	b := New()
	b.MovImm(0, 2)
	b.MovImm(1, 3)
	b.Add(2, 0, 1)
	if err := b.Seal(); err != nil {
		t.Fatalf("seal: %v", err)
	}
	code := decodeAll(b.Bytes())
	if code[len(code)-1].Op != OpHalt {
		t.Fatalf("expected trailing HALT, got %s", code[len(code)-1].Op)
	}
	foundAdd := false
	for _, ins := range code {
		if ins.Op == OpAddInt {
			foundAdd = true
		}
	}
	if !foundAdd {
		t.Fatalf("expected an ADD_INT instruction in %v", code)
	}
}

func TestJumpLabelPatchedToByteOffset(t *testing.T) {
	b := New()
	b.Jump("end")
	b.MovImm(0, 1)
	b.Label("end")
	if err := b.Seal(); err != nil {
		t.Fatalf("seal: %v", err)
	}
	out := b.Bytes()
	jumpIns, _ := Decode(out)
	if jumpIns.Op != OpJump {
		t.Fatalf("expected JUMP at 0, got %s", jumpIns.Op)
	}
	if int(jumpIns.B) != b.Labels()["end"] {
		t.Fatalf("jump operand %d does not match label offset %d", jumpIns.B, b.Labels()["end"])
	}
}

func TestUnresolvedLabelIsLinkError(t *testing.T) {
	b := New()
	b.Jump("nowhere")
	if err := b.Seal(); err == nil {
		t.Fatalf("expected a link error for an unresolved label")
	}
}

func TestBytesDecodesBackToSameInstructionCount(t *testing.T) {
	b := New()
	b.MovImm(0, 5)
	if err := b.Seal(); err != nil {
		t.Fatalf("seal: %v", err)
	}
	code := decodeAll(b.Bytes())
	// CONST_INT + STORE_LOCAL + the trailing HALT Seal appends.
	if len(code) != 3 {
		t.Fatalf("expected 3 decoded instructions, got %d (%v)", len(code), code)
	}
}

func TestDisassembleDoesNotPanic(t *testing.T) {
	b := New()
	b.MovImm(0, 2)
	b.MovImm(1, 3)
	b.Add(2, 0, 1)
	_ = b.Seal()
	var buf bytes.Buffer
	NewDisassembler(b, &buf).Disassemble()
	if buf.Len() == 0 {
		t.Fatalf("expected non-empty disassembly")
	}
}

var _ codegen.Backend = (*Backend)(nil)
