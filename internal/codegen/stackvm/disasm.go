package stackvm

import (
	"fmt"
	"io"
)

// Disassembler renders a Backend's sealed instruction stream as human
// readable text: a constants-pool dump followed by one line per
// instruction, with label names printed above the offsets they mark.
type Disassembler struct {
	w   io.Writer
	b   *Backend
	buf []byte
}

func NewDisassembler(b *Backend, w io.Writer) *Disassembler {
	buf := make([]byte, len(b.buf))
	copy(buf, b.buf)
	return &Disassembler{w: w, b: b, buf: buf}
}

func (d *Disassembler) Disassemble() {
	fmt.Fprintf(d.w, "== stackvm chunk ==\n")
	fmt.Fprintf(d.w, "bytes: %d, int constants: %d\n\n", len(d.buf), len(d.b.consts))

	if len(d.b.consts) > 0 {
		fmt.Fprintf(d.w, "constants:\n")
		for i, c := range d.b.consts {
			fmt.Fprintf(d.w, "  [%04d] %d\n", i, c)
		}
		fmt.Fprintf(d.w, "\n")
	}

	labelAt := map[int]string{}
	for name, off := range d.b.Labels() {
		labelAt[off] = name
	}

	for offset := 0; offset < len(d.buf); {
		if name, ok := labelAt[offset]; ok {
			fmt.Fprintf(d.w, "%s:\n", name)
		}
		ins, n := Decode(d.buf[offset:])
		d.line(offset, ins)
		offset += n
	}
}

func (d *Disassembler) line(offset int, ins Instruction) {
	switch ins.Op {
	case OpConstInt, OpCall, OpJump, OpJumpIfFalse, OpSpawnTask, OpCallNative, OpNew, OpLoadLabel:
		fmt.Fprintf(d.w, "%04d  %-16s %d\n", offset, ins.Op, ins.B)
	case OpLoadLocal, OpStoreLocal, OpLoadGlobal, OpStoreGlobal, OpLoadField, OpStoreField, OpWriteBarrier:
		fmt.Fprintf(d.w, "%04d  %-16s slot=%d\n", offset, ins.Op, ins.A)
	default:
		fmt.Fprintf(d.w, "%04d  %s\n", offset, ins.Op)
	}
}
