// Package codegen defines the polymorphic code-generator interface: a
// capability set of primitives that both the native x86-64 backend
// (internal/codegen/x86) and the stack-machine backend
// (internal/codegen/stackvm) implement, so the rest of the pipeline
// never depends on which one is active.
package codegen

// Reg is an abstract register handle. The native backend maps it onto a
// real x86-64 general-purpose register; the stack-machine backend maps it
// onto a local-variable index. Neither backend's callers need to know
// which.
type Reg int

// Cond names a comparison outcome used by conditional jumps and
// set-on-condition primitives.
type Cond int

const (
	CondEQ Cond = iota
	CondNE
	CondLT
	CondGT
	CondLE
	CondGE
)

// Backend is the capability set a code generator provides:
// prologue/epilogue, moves, memory access relative to the frame or an
// object base, arithmetic and comparison primitives, set-on-condition,
// bitwise ops, calls (absolute and label-relative), label/forward-jump
// handling, the allocator contract, and the three runtime-facing
// primitives (spawn, await, resolve).
type Backend interface {
	// Frame setup.
	Prologue(frameSize int)
	Epilogue()

	// Moves.
	MovImm(dst Reg, imm int64)
	MovReg(dst, src Reg)

	// Frame-relative memory access.
	LoadFrame(dst Reg, offset int32)
	StoreFrame(offset int32, src Reg)

	// Object-relative memory access: obj holds an instance base address,
	// offset is a byte displacement into its field area.
	LoadField(dst, obj Reg, offset int32)
	StoreField(obj Reg, offset int32, src Reg)

	// Allocator contract. AllocObject requests size bytes of typeID's
	// layout from the configured allocator and leaves the instance base
	// address in dst. WriteBarrier notifies the allocator of a reference
	// store already performed by StoreField. SafepointPoll is emitted at
	// loop back-edges so a collecting allocator can pause the task; the
	// minimal tracking allocator treats both as no-ops at the far end,
	// but the call sites exist either way.
	AllocObject(dst Reg, size, typeID int)
	WriteBarrier(obj Reg, offset int32, value Reg)
	SafepointPoll()

	// Arithmetic and comparison.
	Add(dst, a, b Reg)
	Sub(dst, a, b Reg)
	Mul(dst, a, b Reg)
	Div(dst, a, b Reg)
	Compare(a, b Reg)
	SetCond(dst Reg, cond Cond)

	// Bitwise.
	And(dst, a, b Reg)
	Xor(dst, a, b Reg)

	// Calls: absolute addressing for runtime entry points outside the
	// code buffer, PC-relative for labels defined inside it.
	CallAbsolute(addr uint64)
	CallLabel(name string)

	// Labels and forward references. LoadLabelAddress materializes a
	// label's absolute run-time address into dst (a timer callback or
	// task body passed to the runtime by address).
	Label(name string)
	JumpIfFalse(cond Reg, label string)
	Jump(label string)
	LoadLabelAddress(dst Reg, label string)

	// Runtime-facing primitives.
	SpawnTask(bodyLabel string, argc int)
	AwaitPromise(dst, promise Reg)
	ResolveTask(promise, value Reg)

	// Introspection.
	Offset() int
	Labels() map[string]int

	// Seal finalizes the code buffer: it resolves every pending
	// relocation and returns *LinkError (via internal/diagnostics) if
	// any label is still unresolved. Nothing may be emitted after Seal.
	Seal() error

	// Bytes returns the sealed, append-only code buffer.
	Bytes() []byte
}

// FunctionEntry is one row of the function registry: a name, a densely
// assigned small-integer id, its arity, and (once the loader has run)
// its absolute machine address.
type FunctionEntry struct {
	ID      int
	Name    string
	Offset  int // byte offset of the label within the sealed buffer
	Arity   int
	Address uint64 // set by internal/linker after loading
}
