// Package stackvm implements the stack-machine backend: a portable,
// little-endian variable-length-integer-encoded instruction stream
// emitted for builds that don't target native x86-64. The opcode table
// stays under 128 entries so a single-switch interpreter loop dispatches
// on one byte.
package stackvm

import "encoding/binary"

// Op is one stack-machine opcode.
type Op byte

const (
	// Constants and locals.
	OpConstInt Op = iota
	OpConstFloat
	OpConstString
	OpLoadLocal
	OpStoreLocal
	OpLoadGlobal
	OpStoreGlobal
	OpLoadField
	OpStoreField
	OpPushNull
	OpPushTrue
	OpPushFalse

	// Integer arithmetic.
	OpAddInt
	OpSubInt
	OpMulInt
	OpDivInt

	// Float arithmetic.
	OpAddFloat
	OpSubFloat
	OpMulFloat
	OpDivFloat

	// String.
	OpConcatString

	// Comparisons (push bool).
	OpCmpEQ
	OpCmpNE
	OpCmpLT
	OpCmpGT
	OpCmpLE
	OpCmpGE

	// Logical / bitwise.
	OpNot
	OpAnd
	OpOr
	OpXor

	// Control flow.
	OpJump
	OpJumpIfFalse
	OpCall
	OpCallNative
	OpReturn
	OpPop

	// Classes and allocation.
	OpNew
	OpInvokeMethod
	OpWriteBarrier
	OpSafepoint

	// Concurrency primitives.
	OpSpawnTask
	OpAwaitPromise
	OpResolveTask

	// Label-address materialization (timer callbacks, task bodies).
	OpLoadLabel

	OpHalt
)

var opNames = map[Op]string{
	OpConstInt:      "CONST_INT",
	OpConstFloat:    "CONST_FLOAT",
	OpConstString:   "CONST_STRING",
	OpLoadLocal:     "LOAD_LOCAL",
	OpStoreLocal:    "STORE_LOCAL",
	OpLoadGlobal:    "LOAD_GLOBAL",
	OpStoreGlobal:   "STORE_GLOBAL",
	OpLoadField:     "LOAD_FIELD",
	OpStoreField:    "STORE_FIELD",
	OpPushNull:      "PUSH_NULL",
	OpPushTrue:      "PUSH_TRUE",
	OpPushFalse:     "PUSH_FALSE",
	OpAddInt:        "ADD_INT",
	OpSubInt:        "SUB_INT",
	OpMulInt:        "MUL_INT",
	OpDivInt:        "DIV_INT",
	OpAddFloat:      "ADD_FLOAT",
	OpSubFloat:      "SUB_FLOAT",
	OpMulFloat:      "MUL_FLOAT",
	OpDivFloat:      "DIV_FLOAT",
	OpConcatString:  "CONCAT_STRING",
	OpCmpEQ:         "CMP_EQ",
	OpCmpNE:         "CMP_NE",
	OpCmpLT:         "CMP_LT",
	OpCmpGT:         "CMP_GT",
	OpCmpLE:         "CMP_LE",
	OpCmpGE:         "CMP_GE",
	OpNot:           "NOT",
	OpAnd:           "AND",
	OpOr:            "OR",
	OpXor:           "XOR",
	OpJump:          "JUMP",
	OpJumpIfFalse:   "JUMP_IF_FALSE",
	OpCall:          "CALL",
	OpCallNative:    "CALL_NATIVE",
	OpReturn:        "RETURN",
	OpPop:           "POP",
	OpNew:           "NEW",
	OpInvokeMethod:  "INVOKE_METHOD",
	OpWriteBarrier:  "WRITE_BARRIER",
	OpSafepoint:     "SAFEPOINT",
	OpSpawnTask:     "SPAWN_TASK",
	OpAwaitPromise:  "AWAIT_PROMISE",
	OpResolveTask:   "RESOLVE_TASK",
	OpLoadLabel:     "LOAD_LABEL",
	OpHalt:          "HALT",
}

func (op Op) String() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return "UNKNOWN"
}

// Instruction is one decoded instruction: an opcode plus an 8-bit
// operand A (a local-slot index, almost always) and a signed operand B
// (a constant-pool index, a label offset, or an argument count,
// depending on Op). B is zigzag-varint-packed at Encode time, except on
// relocatable opcodes, where it occupies a fixed 4-byte field.
type Instruction struct {
	Op Op
	A  byte
	B  int64
}

// operandCount reports how many of A/B a given opcode carries, so Encode
// and Decode agree on how many bytes follow the opcode byte.
func operandCount(op Op) int {
	switch op {
	case OpPushNull, OpPushTrue, OpPushFalse,
		OpAddInt, OpSubInt, OpMulInt, OpDivInt,
		OpAddFloat, OpSubFloat, OpMulFloat, OpDivFloat,
		OpConcatString,
		OpCmpEQ, OpCmpNE, OpCmpLT, OpCmpGT, OpCmpLE, OpCmpGE,
		OpNot, OpAnd, OpOr, OpXor,
		OpReturn, OpPop, OpInvokeMethod, OpSafepoint,
		OpAwaitPromise, OpResolveTask, OpHalt:
		return 0
	case OpLoadLocal, OpStoreLocal, OpLoadGlobal, OpStoreGlobal, OpLoadField, OpStoreField, OpWriteBarrier:
		return 1 // A only
	default: // OpConstInt, OpConstFloat, OpConstString, OpJump, OpJumpIfFalse,
		// OpCall, OpCallNative, OpSpawnTask, OpNew, OpLoadLabel
		return 2 // A and B
	}
}

// isRelocatable reports whether B names a byte offset that the label
// resolver may need to patch in after the instruction is already
// emitted. Those operands are encoded as a fixed 4-byte field rather
// than a varint, the same way a variable-length x86 instruction still
// reserves a fixed-width rel32 for a displacement: a varint's width can
// change once the true value is known, which would shift every byte
// offset after it.
func isRelocatable(op Op) bool {
	switch op {
	case OpJump, OpJumpIfFalse, OpCall, OpSpawnTask, OpLoadLabel:
		return true
	default:
		return false
	}
}

// Encode packs an Instruction into its variable-length wire form: one
// opcode byte, then A (one byte) if present, then B as either a
// zigzag varint (ordinary operands) or a fixed 4-byte field
// (relocatable operands), depending on operandCount/isRelocatable.
func Encode(ins Instruction) []byte {
	out := []byte{byte(ins.Op)}
	n := operandCount(ins.Op)
	if n >= 1 {
		out = append(out, ins.A)
	}
	if n >= 2 {
		if isRelocatable(ins.Op) {
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], uint32(int32(ins.B)))
			out = append(out, buf[:]...)
		} else {
			var buf [binary.MaxVarintLen64]byte
			w := binary.PutVarint(buf[:], ins.B)
			out = append(out, buf[:w]...)
		}
	}
	return out
}

// Decode reads one Instruction starting at buf[0], returning it along
// with the number of bytes consumed.
func Decode(buf []byte) (Instruction, int) {
	op := Op(buf[0])
	n := operandCount(op)
	ins := Instruction{Op: op}
	consumed := 1
	if n >= 1 {
		ins.A = buf[consumed]
		consumed++
	}
	if n >= 2 {
		if isRelocatable(op) {
			ins.B = int64(int32(binary.LittleEndian.Uint32(buf[consumed:])))
			consumed += 4
		} else {
			v, w := binary.Varint(buf[consumed:])
			ins.B = v
			consumed += w
		}
	}
	return ins, consumed
}

// PatchOperand overwrites the B field of an already-encoded relocatable
// instruction in place, given the byte offset at which that instruction's
// encoding begins within buf.
func PatchOperand(buf []byte, instructionStart int, newB int64) {
	op := Op(buf[instructionStart])
	off := instructionStart + 1
	if operandCount(op) >= 1 {
		off++ // skip A
	}
	binary.LittleEndian.PutUint32(buf[off:], uint32(int32(newB)))
}
