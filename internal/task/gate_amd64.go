package task

// runtimeGate is the assembly shim generated code routes runtime calls
// through; see gate_amd64.s. It is never called from Go.
func runtimeGate()

func runtimeGatePC() uintptr

// GateAddress returns the address generated code must call through to
// reach a runtime entry on this architecture.
func GateAddress() uint64 {
	return uint64(runtimeGatePC())
}
