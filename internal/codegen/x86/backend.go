// Package x86 implements the native x86-64 backend: codegen.Backend
// primitives lowered directly to machine code in an append-only buffer,
// with label references patched through internal/linker's LabelTable.
// All encodings are the REX-prefixed, ModRM-addressed 64-bit forms.
package x86

import (
	"encoding/binary"
	"fmt"

	"github.com/turbobuilt/gots/internal/codegen"
	"github.com/turbobuilt/gots/internal/linker"
)

// General-purpose registers, numbered the way the ModRM/REX encoding
// expects (rax=0 ... r15=15). The lowering pass upstream hands out
// abstract codegen.Reg values that map 1:1 onto this set; r10 and r11
// are reserved as scratch for absolute-address materialization and are
// never surfaced as allocatable registers.
const (
	rax = 0
	rcx = 1
	rdx = 2
	rbx = 3
	rsp = 4
	rbp = 5
	rsi = 6
	rdi = 7
	r8  = 8
	r9  = 9
	r10 = 10
	r11 = 11
)

// Backend is a codegen.Backend that emits x86-64 machine code directly.
// It owns its own LabelTable (internal/linker) for forward-jump and
// call-label patching, since those relocations are PC-relative 32-bit
// displacements specific to this encoding.
type Backend struct {
	buf     []byte
	labels  *linker.LabelTable
	runtime map[string]uint64
	gate    uint64
	err     error
}

// Option configures a Backend at construction time.
type Option func(*Backend)

// WithRuntimeEntries binds runtime entry-point labels (task spawn, await,
// resolve, timer scheduling, allocation) to the absolute addresses of
// their host implementations. Those entries live outside the code
// buffer, so a bound label is reached through an absolute-addressed
// trampoline rather than a PC-relative displacement; Seal emits one
// trampoline per entry actually referenced.
//
// Entry arguments travel in the host's own integer argument register
// sequence — rax, rbx, rcx, rdi, rsi, r8, with rdx skipped as the
// closure-context register — so a compiled host function reached by
// address finds each argument exactly where its ABI expects it. The
// result comes back in rax.
func WithRuntimeEntries(entries map[string]uint64) Option {
	return func(b *Backend) { b.runtime = entries }
}

// WithRuntimeGate routes every runtime-entry trampoline through a host
// gate routine instead of jumping straight at the entry. The gate is an
// assembly shim on the host side that marks the unwind boundary, so the
// host runtime never tries to walk the frames emitted here. Without a
// gate (address zero) the trampoline jumps directly, which is only
// suitable for emission-level tests that never execute.
func WithRuntimeGate(addr uint64) Option {
	return func(b *Backend) { b.gate = addr }
}

func New(opts ...Option) *Backend {
	b := &Backend{}
	b.labels = linker.NewLabelTable(b.applyPatch)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ codegen.Backend = (*Backend)(nil)

func (b *Backend) reg(r codegen.Reg) int { return int(r) & 0xf }

func (b *Backend) emit(bytes ...byte) { b.buf = append(b.buf, bytes...) }

func (b *Backend) emit32(v int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	b.buf = append(b.buf, tmp[:]...)
}

func (b *Backend) emit64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// rex builds a REX prefix: W selects 64-bit operands, R/X/B extend the
// ModRM reg/index/rm fields into the r8-r15 range.
func rex(w, r, x, bb bool) byte {
	v := byte(0x40)
	if w {
		v |= 0x08
	}
	if r {
		v |= 0x04
	}
	if x {
		v |= 0x02
	}
	if bb {
		v |= 0x01
	}
	return v
}

func modrm(mod, reg, rm int) byte {
	return byte(mod&0x3)<<6 | byte(reg&0x7)<<3 | byte(rm&0x7)
}

func (b *Backend) Offset() int { return len(b.buf) }

func (b *Backend) Labels() map[string]int { return b.labels.Offsets() }

// Prologue emits the standard frame-pointer chain push/mov/sub sequence,
// rounding frameSize up to a 16-byte boundary the way the System V AMD64
// ABI requires at a call boundary.
func (b *Backend) Prologue(frameSize int) {
	b.emit(0x55) // push rbp
	b.emit(rex(true, false, false, false), 0x89, modrm(3, rsp, rbp)) // mov rbp, rsp
	aligned := (frameSize + 15) &^ 15
	if aligned > 0 {
		b.emit(rex(true, false, false, false), 0x81, modrm(3, 5, rsp))
		b.emit32(int32(aligned))
	}
}

func (b *Backend) Epilogue() {
	b.emit(rex(true, false, false, false), 0x89, modrm(3, rbp, rsp)) // mov rsp, rbp
	b.emit(0x5d)                                                     // pop rbp
	b.emit(0xc3)                                                     // ret
}

func (b *Backend) MovImm(dst codegen.Reg, imm int64) {
	d := b.reg(dst)
	b.emit(rex(true, false, false, d >= 8), 0xb8+byte(d&0x7))
	b.emit64(uint64(imm))
}

func (b *Backend) MovReg(dst, src codegen.Reg) {
	d, s := b.reg(dst), b.reg(src)
	b.emit(rex(true, s >= 8, false, d >= 8), 0x89, modrm(3, s, d))
}

// memAccess emits the ModRM/SIB/disp32 tail shared by every base+disp
// memory operand. A base register whose low bits are 100 (rsp, r12)
// demands a SIB byte even with no index.
func (b *Backend) memAccess(opcode byte, reg, base int, offset int32) {
	b.emit(rex(true, reg >= 8, false, base >= 8), opcode)
	b.emit(modrm(2, reg, base))
	if base&0x7 == 4 {
		b.emit(0x24) // SIB: no index, base as given
	}
	b.emit32(offset)
}

func (b *Backend) LoadFrame(dst codegen.Reg, offset int32) {
	b.memAccess(0x8b, b.reg(dst), rbp, offset)
}

func (b *Backend) StoreFrame(offset int32, src codegen.Reg) {
	b.memAccess(0x89, b.reg(src), rbp, offset)
}

func (b *Backend) LoadField(dst, obj codegen.Reg, offset int32) {
	b.memAccess(0x8b, b.reg(dst), b.reg(obj), offset)
}

func (b *Backend) StoreField(obj codegen.Reg, offset int32, src codegen.Reg) {
	b.memAccess(0x89, b.reg(src), b.reg(obj), offset)
}

func (b *Backend) aluOp(opcode byte, dst, a, bsrc codegen.Reg) {
	if dst != a {
		b.MovReg(dst, a)
	}
	d, s := b.reg(dst), b.reg(bsrc)
	b.emit(rex(true, s >= 8, false, d >= 8), opcode, modrm(3, s, d))
}

func (b *Backend) Add(dst, a, bb codegen.Reg) { b.aluOp(0x01, dst, a, bb) }
func (b *Backend) Sub(dst, a, bb codegen.Reg) { b.aluOp(0x29, dst, a, bb) }

// Mul emits imul dst, b (two-operand form); dst must equal a, matching
// the x86 two-operand multiply, so a copy is inserted otherwise.
func (b *Backend) Mul(dst, a, bb codegen.Reg) {
	if dst != a {
		b.MovReg(dst, a)
	}
	d, s := b.reg(dst), b.reg(bb)
	b.emit(rex(true, d >= 8, false, s >= 8), 0x0f, 0xaf, modrm(3, d, s))
}

// Div lowers to the idiv-via-rax/rdx sequence: rax:rdx / b, quotient in
// rax, moved into dst. This clobbers rdx, matching the native calling
// convention's caller-saved set.
func (b *Backend) Div(dst, a, bb codegen.Reg) {
	b.MovReg(codegen.Reg(rax), a)
	b.emit(rex(true, false, false, false), 0x99) // cqo: sign-extend rax into rdx:rax
	s := b.reg(bb)
	b.emit(rex(true, false, false, s >= 8), 0xf7, modrm(3, 7, s))
	b.MovReg(dst, codegen.Reg(rax))
}

func (b *Backend) Compare(a, bb codegen.Reg) {
	x, y := b.reg(a), b.reg(bb)
	b.emit(rex(true, y >= 8, false, x >= 8), 0x39, modrm(3, y, x))
}

var condCode = map[codegen.Cond]byte{
	codegen.CondEQ: 0x94,
	codegen.CondNE: 0x95,
	codegen.CondLT: 0x9c,
	codegen.CondGT: 0x9f,
	codegen.CondLE: 0x9e,
	codegen.CondGE: 0x9d,
}

// SetCond emits setCC into dst's low byte, then zero-extends so the full
// register holds exactly 0 or 1. Registers past rbx need a REX prefix
// even for the byte form, or the encoding silently selects ah/ch/dh/bh.
func (b *Backend) SetCond(dst codegen.Reg, cond codegen.Cond) {
	d := b.reg(dst)
	if d >= 4 {
		b.emit(rex(false, false, false, d >= 8))
	}
	b.emit(0x0f, condCode[cond], modrm(3, 0, d))
	b.emit(rex(true, d >= 8, false, d >= 8), 0x0f, 0xb6, modrm(3, d, d)) // movzx
}

func (b *Backend) And(dst, a, bb codegen.Reg) { b.aluOp(0x21, dst, a, bb) }
func (b *Backend) Xor(dst, a, bb codegen.Reg) { b.aluOp(0x31, dst, a, bb) }

// CallAbsolute loads a 64-bit address into a scratch register (r11, never
// surfaced as an allocatable codegen.Reg) and calls through it, since x86
// has no direct 64-bit-immediate call form.
func (b *Backend) CallAbsolute(addr uint64) {
	b.emit(rex(true, false, false, true), 0xbb) // mov r11, imm64
	b.emit64(addr)
	b.emit(0x41, 0xff, modrm(3, 2, 3)) // call r11
}

// CallLabel emits a near relative call with a 4-byte placeholder
// displacement, queued with the LabelTable for patching once the target
// label is (or becomes) known.
func (b *Backend) CallLabel(name string) {
	b.emit(0xe8)
	site := b.Offset()
	b.emit32(0)
	if err := b.labels.Reference(name, site, 4, true, b.buf); err != nil {
		b.err = err
	}
}

func (b *Backend) Label(name string) {
	if err := b.labels.Define(name, b.Offset(), b.buf); err != nil {
		b.err = err
	}
}

// JumpIfFalse emits test+jz: cond is tested against zero, jumping to
// label when it is false (zero).
func (b *Backend) JumpIfFalse(cond codegen.Reg, label string) {
	c := b.reg(cond)
	b.emit(rex(true, c >= 8, false, c >= 8), 0x85, modrm(3, c, c)) // test cond, cond
	b.emit(0x0f, 0x84)                                             // jz rel32
	site := b.Offset()
	b.emit32(0)
	if err := b.labels.Reference(label, site, 4, true, b.buf); err != nil {
		b.err = err
	}
}

func (b *Backend) Jump(label string) {
	b.emit(0xe9) // jmp rel32
	site := b.Offset()
	b.emit32(0)
	if err := b.labels.Reference(label, site, 4, true, b.buf); err != nil {
		b.err = err
	}
}

// LoadLabelAddress materializes a label's absolute run-time address into
// dst with a RIP-relative lea: the buffer cannot be patched after it
// goes read-execute, so no load-time fixup is possible, and the lea
// yields the right address wherever the loader maps the region.
func (b *Backend) LoadLabelAddress(dst codegen.Reg, label string) {
	d := b.reg(dst)
	b.emit(rex(true, d >= 8, false, false), 0x8d, modrm(0, d, 5)) // lea dst, [rip+rel32]
	site := b.Offset()
	b.emit32(0)
	if err := b.labels.Reference(label, site, 4, true, b.buf); err != nil {
		b.err = err
	}
}

// SpawnTask lowers `go f(...)` into a call to the runtime's task-spawn
// entry. Body address in rax, argument count in rbx; the spawn
// arguments themselves were placed in rcx, rdi, rsi, r8 by the caller
// (entry argument registers 2..5). The promise handle comes back in
// rax.
func (b *Backend) SpawnTask(bodyLabel string, argc int) {
	b.LoadLabelAddress(codegen.Reg(rax), bodyLabel)
	b.MovImm(codegen.Reg(rbx), int64(argc))
	b.CallLabel("__runtime_spawn_task")
}

// AwaitPromise and ResolveTask pass the promise handle (and value) in
// the first entry argument registers. Operands are never rax/rbx/rcx:
// the lowering pass draws its scratch registers from a disjoint pool,
// so these moves cannot clobber an operand before it is read.
func (b *Backend) AwaitPromise(dst, promise codegen.Reg) {
	b.MovReg(codegen.Reg(rax), promise)
	b.CallLabel("__runtime_await_promise")
	b.MovReg(dst, codegen.Reg(rax))
}

func (b *Backend) ResolveTask(promise, value codegen.Reg) {
	b.MovReg(codegen.Reg(rax), promise)
	b.MovReg(codegen.Reg(rbx), value)
	b.CallLabel("__runtime_resolve_task")
}

// AllocObject requests size bytes of typeID's layout from the allocator
// entry and leaves the instance base address in dst.
func (b *Backend) AllocObject(dst codegen.Reg, size, typeID int) {
	b.MovImm(codegen.Reg(rax), int64(size))
	b.MovImm(codegen.Reg(rbx), int64(typeID))
	b.CallLabel("__runtime_alloc")
	b.MovReg(dst, codegen.Reg(rax))
}

func (b *Backend) WriteBarrier(obj codegen.Reg, offset int32, value codegen.Reg) {
	b.MovReg(codegen.Reg(rax), obj)
	b.MovImm(codegen.Reg(rbx), int64(offset))
	b.MovReg(codegen.Reg(rcx), value)
	b.CallLabel("__runtime_write_barrier")
}

func (b *Backend) SafepointPoll() {
	b.CallLabel("__runtime_safepoint")
}

// applyPatch is the LabelTable callback for this backend's single
// relocation kind: a 4-byte PC-relative rel32 (calls, jumps, and the
// RIP-relative body-address lea in SpawnTask).
func (b *Backend) applyPatch(buf []byte, site linker.PatchSite, target int) error {
	if site.Size != 4 {
		return fmt.Errorf("x86: unsupported relocation size %d", site.Size)
	}
	rel := int32(target - (site.Offset + 4))
	binary.LittleEndian.PutUint32(buf[site.Offset:], uint32(rel))
	return nil
}

// Seal finalizes the buffer: every referenced runtime entry gets its
// trampoline appended (defining the label patches the pending call
// sites), then any label still unresolved is a *LinkError. Nothing may
// be emitted after Seal.
func (b *Backend) Seal() error {
	if b.err != nil {
		return b.err
	}
	for _, name := range b.labels.Unresolved() {
		addr, ok := b.runtime[name]
		if !ok {
			continue
		}
		b.Label(name)
		b.emitTrampoline(addr)
	}
	if b.err != nil {
		return b.err
	}
	if unresolved := b.labels.Unresolved(); len(unresolved) > 0 {
		return linker.LinkErrorFor("<generated>", unresolved)
	}
	return nil
}

// emitTrampoline is the tail of every runtime-entry stub: the target
// entry's address goes in r11, then control jumps to the host gate
// (which marks the unwind boundary and calls through r11), or straight
// at the entry when no gate is configured. The caller's return address
// stays on the stack either way, so the entry returns directly to the
// original call site.
func (b *Backend) emitTrampoline(entry uint64) {
	b.emit(rex(true, false, false, true), 0xbb) // mov r11, imm64
	b.emit64(entry)
	if b.gate != 0 {
		b.emit(rex(true, false, false, true), 0xba) // mov r10, imm64
		b.emit64(b.gate)
		b.emit(0x41, 0xff, modrm(3, 4, 2)) // jmp r10
		return
	}
	b.emit(0x41, 0xff, modrm(3, 4, 3)) // jmp r11
}

func (b *Backend) Bytes() []byte { return b.buf }
