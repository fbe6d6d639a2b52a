package stackvm

import (
	"fmt"

	"github.com/turbobuilt/gots/internal/codegen"
	"github.com/turbobuilt/gots/internal/linker"
)

// Backend is a codegen.Backend that emits a varint-encoded stack-machine
// instruction stream instead of native machine code. A codegen.Reg here
// names a local-variable slot rather than a physical register; every
// arithmetic primitive lowers to a load-load-op-store sequence against
// those slots, since the underlying machine is a stack, not a register
// file.
//
// Unlike the x86 backend, Offset() here returns a true byte offset into
// the encoded stream: relocatable operands (OpJump/OpJumpIfFalse/OpCall/
// OpSpawnTask/OpLoadLabel's target) are emitted via isRelocatable's fixed-width path
// precisely so that later patching never shifts any byte already emitted.
type Backend struct {
	buf    []byte
	consts []int64
	labels *linker.LabelTable
	err    error
}

func New() *Backend {
	b := &Backend{}
	b.labels = linker.NewLabelTable(b.applyPatch)
	return b
}

var _ codegen.Backend = (*Backend)(nil)

// emit appends ins and returns the byte offset at which its encoding
// begins, so call sites needing a patch target (a relocatable B operand)
// can hand that offset straight to labels.Reference.
func (b *Backend) emit(ins Instruction) int {
	start := len(b.buf)
	b.buf = append(b.buf, Encode(ins)...)
	return start
}

func (b *Backend) Offset() int { return len(b.buf) }

func (b *Backend) Labels() map[string]int { return b.labels.Offsets() }

// Prologue is a no-op for the stack machine: locals are addressed by
// slot index and the instruction set has no frame-setup opcode.
func (b *Backend) Prologue(frameSize int) {}
func (b *Backend) Epilogue()              { b.emit(Instruction{Op: OpReturn}) }

func (b *Backend) MovImm(dst codegen.Reg, imm int64) {
	idx := b.internInt(imm)
	b.emit(Instruction{Op: OpConstInt, B: int64(idx)})
	b.emit(Instruction{Op: OpStoreLocal, A: byte(dst)})
}

func (b *Backend) MovReg(dst, src codegen.Reg) {
	b.emit(Instruction{Op: OpLoadLocal, A: byte(src)})
	b.emit(Instruction{Op: OpStoreLocal, A: byte(dst)})
}

func (b *Backend) LoadFrame(dst codegen.Reg, offset int32) {
	b.emit(Instruction{Op: OpLoadLocal, A: byte(offset)})
	b.emit(Instruction{Op: OpStoreLocal, A: byte(dst)})
}

func (b *Backend) StoreFrame(offset int32, src codegen.Reg) {
	b.emit(Instruction{Op: OpLoadLocal, A: byte(src)})
	b.emit(Instruction{Op: OpStoreLocal, A: byte(offset)})
}

func (b *Backend) binOp(op Op, dst, a, c codegen.Reg) {
	b.emit(Instruction{Op: OpLoadLocal, A: byte(a)})
	b.emit(Instruction{Op: OpLoadLocal, A: byte(c)})
	b.emit(Instruction{Op: op})
	b.emit(Instruction{Op: OpStoreLocal, A: byte(dst)})
}

func (b *Backend) Add(dst, a, c codegen.Reg) { b.binOp(OpAddInt, dst, a, c) }
func (b *Backend) Sub(dst, a, c codegen.Reg) { b.binOp(OpSubInt, dst, a, c) }
func (b *Backend) Mul(dst, a, c codegen.Reg) { b.binOp(OpMulInt, dst, a, c) }
func (b *Backend) Div(dst, a, c codegen.Reg) { b.binOp(OpDivInt, dst, a, c) }

// Compare pushes the comparison operands without consuming them into a
// dst slot; SetCond immediately follows in practice and finishes the job
// by picking the CMP_* opcode that produces the boolean.
func (b *Backend) Compare(a, c codegen.Reg) {
	b.emit(Instruction{Op: OpLoadLocal, A: byte(a)})
	b.emit(Instruction{Op: OpLoadLocal, A: byte(c)})
}

var condOp = map[codegen.Cond]Op{
	codegen.CondEQ: OpCmpEQ,
	codegen.CondNE: OpCmpNE,
	codegen.CondLT: OpCmpLT,
	codegen.CondGT: OpCmpGT,
	codegen.CondLE: OpCmpLE,
	codegen.CondGE: OpCmpGE,
}

func (b *Backend) SetCond(dst codegen.Reg, cond codegen.Cond) {
	b.emit(Instruction{Op: condOp[cond]})
	b.emit(Instruction{Op: OpStoreLocal, A: byte(dst)})
}

func (b *Backend) And(dst, a, c codegen.Reg) { b.binOp(OpAnd, dst, a, c) }
func (b *Backend) Xor(dst, a, c codegen.Reg) { b.binOp(OpXor, dst, a, c) }

// CallAbsolute lowers to CALL_NATIVE with the address stored as an
// interned constant, for runtime entry points that live outside the code
// vector entirely (allocator and write-barrier hooks, timer scheduling).
func (b *Backend) CallAbsolute(addr uint64) {
	idx := b.internInt(int64(addr))
	b.emit(Instruction{Op: OpCallNative, B: int64(idx)})
}

func (b *Backend) CallLabel(name string) {
	site := b.emit(Instruction{Op: OpCall})
	if err := b.labels.Reference(name, site, 0, false, b.buf); err != nil {
		b.err = err
	}
}

func (b *Backend) Label(name string) {
	if err := b.labels.Define(name, b.Offset(), b.buf); err != nil {
		b.err = err
	}
}

func (b *Backend) JumpIfFalse(cond codegen.Reg, label string) {
	b.emit(Instruction{Op: OpLoadLocal, A: byte(cond)})
	site := b.emit(Instruction{Op: OpJumpIfFalse})
	if err := b.labels.Reference(label, site, 0, false, b.buf); err != nil {
		b.err = err
	}
}

func (b *Backend) Jump(label string) {
	site := b.emit(Instruction{Op: OpJump})
	if err := b.labels.Reference(label, site, 0, false, b.buf); err != nil {
		b.err = err
	}
}

// LoadField/StoreField address an instance's field area; A carries the
// field's slot index within the object.
func (b *Backend) LoadField(dst, obj codegen.Reg, offset int32) {
	b.emit(Instruction{Op: OpLoadLocal, A: byte(obj)})
	b.emit(Instruction{Op: OpLoadField, A: byte(offset / 8)})
	b.emit(Instruction{Op: OpStoreLocal, A: byte(dst)})
}

func (b *Backend) StoreField(obj codegen.Reg, offset int32, src codegen.Reg) {
	b.emit(Instruction{Op: OpLoadLocal, A: byte(obj)})
	b.emit(Instruction{Op: OpLoadLocal, A: byte(src)})
	b.emit(Instruction{Op: OpStoreField, A: byte(offset / 8)})
}

// AllocObject carries the type id in A and the byte size in B; the
// instance reference lands in dst.
func (b *Backend) AllocObject(dst codegen.Reg, size, typeID int) {
	b.emit(Instruction{Op: OpNew, A: byte(typeID), B: int64(size)})
	b.emit(Instruction{Op: OpStoreLocal, A: byte(dst)})
}

func (b *Backend) WriteBarrier(obj codegen.Reg, offset int32, value codegen.Reg) {
	b.emit(Instruction{Op: OpLoadLocal, A: byte(obj)})
	b.emit(Instruction{Op: OpLoadLocal, A: byte(value)})
	b.emit(Instruction{Op: OpWriteBarrier, A: byte(offset / 8)})
}

func (b *Backend) SafepointPoll() {
	b.emit(Instruction{Op: OpSafepoint})
}

// LoadLabelAddress stores a label's byte offset into dst; code
// addresses in this encoding are offsets into the instruction stream,
// so the offset is the address.
func (b *Backend) LoadLabelAddress(dst codegen.Reg, label string) {
	site := b.emit(Instruction{Op: OpLoadLabel, A: byte(dst)})
	if err := b.labels.Reference(label, site, 0, false, b.buf); err != nil {
		b.err = err
	}
}

func (b *Backend) SpawnTask(bodyLabel string, argc int) {
	site := b.emit(Instruction{Op: OpSpawnTask, A: byte(argc)})
	if err := b.labels.Reference(bodyLabel, site, 0, false, b.buf); err != nil {
		b.err = err
	}
}

func (b *Backend) AwaitPromise(dst, promise codegen.Reg) {
	b.emit(Instruction{Op: OpLoadLocal, A: byte(promise)})
	b.emit(Instruction{Op: OpAwaitPromise})
	b.emit(Instruction{Op: OpStoreLocal, A: byte(dst)})
}

func (b *Backend) ResolveTask(promise, value codegen.Reg) {
	b.emit(Instruction{Op: OpLoadLocal, A: byte(promise)})
	b.emit(Instruction{Op: OpLoadLocal, A: byte(value)})
	b.emit(Instruction{Op: OpResolveTask})
}

func (b *Backend) internInt(v int64) int {
	b.consts = append(b.consts, v)
	return len(b.consts) - 1
}

// applyPatch is the LabelTable callback for this backend: site.Offset is
// the byte offset at which the relocatable instruction's encoding begins,
// so PatchOperand can locate its fixed-width B field directly (the size
// field on PatchSite is unused here; every relocatable opcode in this
// encoding carries exactly one 4-byte operand, identified structurally by
// isRelocatable rather than by a size the caller passes in).
func (b *Backend) applyPatch(buf []byte, site linker.PatchSite, target int) error {
	if site.Offset < 0 || site.Offset >= len(buf) {
		return fmt.Errorf("stackvm: patch site %d out of range", site.Offset)
	}
	PatchOperand(buf, site.Offset, int64(target))
	return nil
}

func (b *Backend) Seal() error {
	if b.err != nil {
		return b.err
	}
	if unresolved := b.labels.Unresolved(); len(unresolved) > 0 {
		return linker.LinkErrorFor("<generated>", unresolved)
	}
	b.emit(Instruction{Op: OpHalt})
	return nil
}

// Bytes returns the sealed, varint-encoded instruction stream.
func (b *Backend) Bytes() []byte { return b.buf }

// Constants exposes the interned integer constant pool, consulted by
// Disassembler when rendering CONST_INT operands.
func (b *Backend) Constants() []int64 { return b.consts }
