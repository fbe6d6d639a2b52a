package linker

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Loader maps sealed code buffers into executable memory. A buffer is
// copied into a page-rounded anonymous region under read-write
// protection, then the region is flipped to read-execute — never
// read-write-execute simultaneously.
type Loader struct {
	regions []*Region
}

func NewLoader() *Loader { return &Loader{} }

// Region is one mapped block of executable memory.
type Region struct {
	mem  []byte
	base uintptr
}

// Base returns the region's absolute starting address, the value
// FunctionEntry.Address is computed relative to (base plus label
// offset).
func (r *Region) Base() uintptr {
	if len(r.mem) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&r.mem[0]))
}

// Load maps code into a fresh executable region and returns it. The
// region stays mapped for the remainder of the process: background tasks
// spawned from this code may still call into it after the main entry
// point returns, so there is no safe point at which to unmap it short of
// process exit, which reclaims it anyway.
func (l *Loader) Load(code []byte) (*Region, error) {
	size := pageRound(len(code))
	if size == 0 {
		size = pageSize()
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("linker: mmap: %w", err)
	}
	copy(mem, code)
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(mem)
		return nil, fmt.Errorf("linker: mprotect rx: %w", err)
	}
	region := &Region{mem: mem}
	l.regions = append(l.regions, region)
	return region, nil
}

func pageSize() int { return unix.Getpagesize() }

func pageRound(n int) int {
	ps := pageSize()
	return ((n + ps - 1) / ps) * ps
}

// RegisterEntries walks labelOffsets and builds the function registry:
// every externally visible symbol (one not starting with the internal
// prefix "__") gets its absolute address computed as the region's base
// plus its offset. Static-method names keep their "__"-free qualified
// form (e.g. "ClassName.method") and are visible too; only internal
// labels (control-flow targets, task-body literals, runtime trampolines)
// are excluded.
func RegisterEntries(region *Region, labelOffsets map[string]int, arities map[string]int) *Registry {
	reg := NewRegistry()
	for name, off := range labelOffsets {
		if isInternalLabel(name) {
			continue
		}
		addr := region.Base() + uintptr(off)
		reg.Register(name, arities[name], uint64(addr))
	}
	return reg
}

func isInternalLabel(name string) bool {
	return len(name) >= 2 && name[0] == '_' && name[1] == '_'
}
