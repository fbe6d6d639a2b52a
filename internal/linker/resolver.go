// Package linker implements the label resolver (forward-reference
// patching over a code buffer), the executable loader (map, copy,
// protect, publish), and the function registry (name and id indexes over
// loaded entry points).
package linker

import (
	"fmt"

	"github.com/turbobuilt/gots/internal/diagnostics"
	"github.com/turbobuilt/gots/internal/token"
)

// PatchSite is one forward reference awaiting its target label's offset.
// It is exported so a backend's patch callback (supplied to
// NewLabelTable) can switch on Size/PCRel when encoding the
// relocation.
type PatchSite struct {
	Label  string
	Offset int // byte offset of the relocation in the buffer
	Size   int // bytes to patch: 4 for a rel32, 8 for an absolute address
	PCRel  bool
}

// LabelTable is the `(label, patch-site)` bookkeeping shared by both
// code-generator backends: each backend owns one LabelTable and calls
// Define as it emits a label, and Reference whenever it emits a forward
// jump or call placeholder. At the end of compilation any reference
// still pending is an unresolved label, reported before the buffer may
// be sealed.
type LabelTable struct {
	offsets map[string]int
	pending []PatchSite
	patch   func(buf []byte, site PatchSite, target int) error
}

// NewLabelTable constructs a LabelTable. patch is supplied by the owning
// backend, since the byte-level encoding of a relocation (4-byte
// PC-relative displacement for x86-64, a fixed 4-byte operand field for
// the stack-machine backend) is backend-specific; the bookkeeping above it is
// not.
func NewLabelTable(patch func(buf []byte, site PatchSite, target int) error) *LabelTable {
	return &LabelTable{offsets: map[string]int{}, patch: patch}
}

// Define records that name is defined at offset in the buffer, and patches
// every pending reference to name accordingly.
func (lt *LabelTable) Define(name string, offset int, buf []byte) error {
	lt.offsets[name] = offset
	remaining := lt.pending[:0]
	for _, site := range lt.pending {
		if site.Label == name {
			if err := lt.patch(buf, site, offset); err != nil {
				return err
			}
			continue
		}
		remaining = append(remaining, site)
	}
	lt.pending = remaining
	return nil
}

// Reference records a forward (or backward, if already defined) reference
// to name at the given patch-site offset. If name is already defined, it
// is patched immediately; otherwise it is queued.
func (lt *LabelTable) Reference(name string, patchOffset, size int, pcRel bool, buf []byte) error {
	if target, ok := lt.offsets[name]; ok {
		return lt.patch(buf, PatchSite{Label: name, Offset: patchOffset, Size: size, PCRel: pcRel}, target)
	}
	lt.pending = append(lt.pending, PatchSite{Label: name, Offset: patchOffset, Size: size, PCRel: pcRel})
	return nil
}

// Offsets exposes the resolved label -> byte-offset map.
func (lt *LabelTable) Offsets() map[string]int { return lt.offsets }

// Unresolved returns the label names that still have pending patch sites.
func (lt *LabelTable) Unresolved() []string {
	seen := map[string]bool{}
	var names []string
	for _, s := range lt.pending {
		if !seen[s.Label] {
			seen[s.Label] = true
			names = append(names, s.Label)
		}
	}
	return names
}

// LinkErrorFor builds the *LinkError reported when a buffer is sealed
// with unresolved relocations still pending.
func LinkErrorFor(file string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	return diagnostics.New(diagnostics.Link, token.Position{}, file, "",
		fmt.Sprintf("unresolved label(s) at seal time: %v", names))
}
