//go:build !amd64

package task

// GateAddress reports no gate on architectures without the native
// backend; generated code is never executed there.
func GateAddress() uint64 { return 0 }
