package linker

import (
	"sync"

	"github.com/turbobuilt/gots/internal/codegen"
)

// Registry holds two indexes over the same append-only set of entries: a
// name lookup and a densely-assigned small-integer id lookup, so a spawn
// site can be emitted as a one-word immediate id instead of a name
// pointer. Addresses never move once registered; a mapped region is
// never remapped or relocated.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*codegen.FunctionEntry
	byID   []*codegen.FunctionEntry
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*codegen.FunctionEntry{}}
}

// Register appends a new entry, assigning it the next dense id. Registry
// entries are never removed or mutated in place; a re-registration under
// the same name (which should not happen in a single compilation) adds a
// second entry rather than overwriting the first, so existing ids stay
// valid for anything that already captured one.
func (r *Registry) Register(name string, arity int, address uint64) *codegen.FunctionEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := &codegen.FunctionEntry{
		ID:      len(r.byID),
		Name:    name,
		Arity:   arity,
		Address: address,
	}
	r.byID = append(r.byID, entry)
	if _, exists := r.byName[name]; !exists {
		r.byName[name] = entry
	}
	return entry
}

func (r *Registry) ByName(name string) (*codegen.FunctionEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[name]
	return e, ok
}

func (r *Registry) ByID(id int) (*codegen.FunctionEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || id >= len(r.byID) {
		return nil, false
	}
	return r.byID[id], true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
